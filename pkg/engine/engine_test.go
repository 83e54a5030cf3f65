package engine

import (
	"errors"
	"testing"
	"time"

	"github.com/devicelab-dev/webflow-runner/pkg/browser/fake"
	"github.com/devicelab-dev/webflow-runner/pkg/core"
	"github.com/devicelab-dev/webflow-runner/pkg/locator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const inventoryPage = `<html><head><title>Swag Labs</title></head><body data-height="2400">
<div id="main" class="container wide">
  <span class="title"> Products </span>
  <form id="login">
    <input id="user-name" name="user-name" data-box="10,10,200,30">
    <input id="password" type="password" disabled>
    <input id="remember" type="checkbox">
    <button id="login-button" class="btn btn-primary" data-test="login" style="background-color: rgb(61, 220, 145); color: white; font-size: 16px">Login</button>
    <select id="sort"><option value="az">Name (A to Z)</option><option value="za" selected>Name (Z to A)</option><option value="x" disabled>X</option></select>
  </form>
  <ul id="items"><li>a</li><li>b</li><li>c</li></ul>
  <div class="error" style="display: none">Epic sadface</div>
  <div id="source" data-box="0,0,50,50">drag</div>
  <div id="target" data-box="100,100,50,50">drop</div>
  <div id="ghost">no box</div>
  <div id="tabbable" tabindex="0">tab stop</div>
  <div id="offscreen" data-box="1200,700,200,100">far</div>
</div>
<iframe id="paymentIframe" srcdoc='<input name="cardNumber" class="field"><p class="hint">Card</p>'></iframe>
<iframe id="blocked" data-unloaded></iframe>
</body></html>`

func css(sel string) locator.Descriptor {
	return locator.Inline(sel, locator.SelectorCSS, "")
}

func inFrame(sel, frame string) locator.Descriptor {
	return locator.Inline(sel, locator.SelectorCSS, frame)
}

func newPage(t *testing.T) *fake.Page {
	t.Helper()
	p, err := fake.NewPage(inventoryPage)
	require.NoError(t, err)
	return p
}

func TestNewDefaults(t *testing.T) {
	assert.Equal(t, DefaultTimeout, New().DefaultWait())
	assert.Equal(t, 2*time.Second, New(WithTimeout(2*time.Second)).DefaultWait())
	assert.Equal(t, DefaultTimeout, New(WithTimeout(0)).DefaultWait())
}

func TestEnterScope(t *testing.T) {
	p := newPage(t)

	doc, err := EnterScope(p, css("#user-name"))
	require.NoError(t, err)
	assert.Same(t, p, doc)

	doc, err = EnterScope(p, inFrame(`input[name="cardNumber"]`, "#paymentIframe"))
	require.NoError(t, err)
	el, err := doc.QuerySelector(`input[name="cardNumber"]`)
	require.NoError(t, err)
	assert.NotNil(t, el)

	// The top-level document does not see into the frame.
	el, err = p.QuerySelector(`input[name="cardNumber"]`)
	require.NoError(t, err)
	assert.Nil(t, el)
}

func TestEnterScope_Failures(t *testing.T) {
	p := newPage(t)

	_, err := EnterScope(p, inFrame("input", "#nope"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrIframeNotFound))
	assert.Equal(t, "Iframe not found: #nope", err.Error())
	assert.Equal(t, core.ErrCategoryScope, core.CategoryOf(err))

	_, err = EnterScope(p, inFrame("input", "#blocked"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrIframeContentUnavailable))
	assert.Equal(t, "Failed to get content frame from: #blocked", err.Error())
}

// Scope is resolved on every call, so a reloaded frame is never stale.
func TestEnterScope_FollowsNavigation(t *testing.T) {
	p := newPage(t)
	e := New()
	card := inFrame(`input[name="cardNumber"]`, "#paymentIframe")

	require.NoError(t, e.Fill(p, card, "4111"))
	require.NoError(t, p.SetContent(`<body><iframe id="paymentIframe" srcdoc='<input name="cardNumber">'></iframe></body>`))

	require.NoError(t, e.AssertValueEmpty(p, card))
	require.NoError(t, e.Fill(p, card, "5500"))
	require.NoError(t, e.AssertValueEquals(p, card, "5500"))
}

func TestResolveThenFill_TopDocument(t *testing.T) {
	r := locator.NewResolver(locator.LoaderFunc(func() (locator.Registry, error) {
		return locator.Registry{"LoginPage": {"username": locator.Bare("#user-name")}}, nil
	}))
	d, err := r.Resolve("LoginPage", "username")
	require.NoError(t, err)
	assert.Equal(t, "#user-name", d.Selector)
	assert.Equal(t, locator.Top(), d.Scope)

	p := fake.MustPage(`<body><input id="user-name"></body>`)
	require.NoError(t, New().Fill(p, d, "standard_user"))

	el, _ := p.QuerySelector("#user-name")
	v, err := el.InputValue()
	require.NoError(t, err)
	assert.Equal(t, "standard_user", v)
}

func TestResolveThenFill_Iframe(t *testing.T) {
	r := locator.NewResolver(locator.LoaderFunc(func() (locator.Registry, error) {
		return locator.Registry{"PaymentPage": {
			"cardNumber": locator.Record(`input[name="cardNumber"]`, "css", "#paymentIframe"),
		}}, nil
	}))
	d, err := r.Resolve("PaymentPage", "cardNumber")
	require.NoError(t, err)
	assert.Equal(t, locator.Iframe("#paymentIframe"), d.Scope)

	e := New()
	p := newPage(t)
	require.NoError(t, e.Fill(p, d, "4111111111111111"))
	require.NoError(t, e.AssertValueEquals(p, d, "4111111111111111"))
	assert.Contains(t, p.Events(), "fill input[name=cardNumber] 4111111111111111")

	noFrame := fake.MustPage(`<body><input name="cardNumber"></body>`)
	err = e.Fill(noFrame, d, "4111111111111111")
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrIframeNotFound))
	var actionErr *core.ActionError
	assert.False(t, errors.As(err, &actionErr), "scope errors are not wrapped")
}

func TestTimeoutOverride(t *testing.T) {
	p := newPage(t)

	err := New(WithTimeout(2 * time.Second)).AssertVisible(p, css(".error"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2000ms")

	err = New().AssertVisible(p, css(".error"), Timeout(250*time.Millisecond))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "250ms")

	err = New().Click(p, css("#missing"), Timeout(0))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "5000ms")
}

func TestErrorCategories(t *testing.T) {
	p := newPage(t)
	e := New()

	err := e.Click(p, css("#missing"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrActionFailed))
	assert.True(t, errors.Is(err, core.ErrWaitTimeout))
	assert.Equal(t, core.ErrCategoryTimeout, core.CategoryOf(err))

	err = e.Fill(p, css("#password"), "secret")
	require.Error(t, err)
	var actionErr *core.ActionError
	require.True(t, errors.As(err, &actionErr))
	assert.Equal(t, "fill", actionErr.Action)
	assert.Equal(t, "#password", actionErr.Selector)
	assert.Equal(t, "top", actionErr.Scope)
	assert.Equal(t, core.ErrCategoryAction, core.CategoryOf(err))

	err = e.AssertTextEquals(p, css(".title"), "Cart")
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrAssertionFailed))
	var assertErr *core.AssertionError
	require.True(t, errors.As(err, &assertErr))
	assert.Equal(t, "assertTextEquals", assertErr.Assertion)
	assert.Equal(t, ".title", assertErr.Selector)
	assert.Equal(t, "Cart", assertErr.Expected)
	assert.Equal(t, "Products", assertErr.Actual)
	assert.Equal(t, core.ErrCategoryAssertion, core.CategoryOf(err))
}

func TestActionErrorCarriesIframeScope(t *testing.T) {
	p := newPage(t)
	err := New().Click(p, inFrame("#nothing", "#paymentIframe"))
	require.Error(t, err)
	var actionErr *core.ActionError
	require.True(t, errors.As(err, &actionErr))
	assert.Equal(t, "iframe #paymentIframe", actionErr.Scope)
	assert.Contains(t, err.Error(), "in iframe #paymentIframe")
}
