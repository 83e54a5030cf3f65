package web

import (
	"context"
	"errors"
	"testing"

	"github.com/devicelab-dev/webflow-runner/pkg/browser"
	"github.com/devicelab-dev/webflow-runner/pkg/browser/fake"
	"github.com/devicelab-dev/webflow-runner/pkg/core"
	"github.com/devicelab-dev/webflow-runner/pkg/flow"
	"github.com/devicelab-dev/webflow-runner/pkg/locator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	baseURL   = "https://www.saucedemo.com"
	loginHTML = `<html><head><title>Swag Labs</title></head><body>
<input id="user-name" data-box="10,10,200,30">
<input id="password" type="password">
<input id="login-button" type="submit" class="btn_action" data-href="https://www.saucedemo.com/inventory.html">
<iframe id="paymentIframe" srcdoc='<input name="cardNumber">'></iframe>
</body></html>`
	inventoryHTML = `<html><head><title>Swag Labs</title></head><body>
<span class="title">Products</span>
<select class="product_sort_container"><option value="az">Name (A to Z)</option><option value="lohi">Price (low to high)</option></select>
<div class="inventory_item">1</div><div class="inventory_item">2</div>
</body></html>`
)

func registry() *locator.Resolver {
	return locator.NewResolver(locator.LoaderFunc(func() (locator.Registry, error) {
		return locator.Registry{
			"LoginPage": {
				"username":    locator.Bare("#user-name"),
				"password":    locator.Bare("#password"),
				"loginButton": locator.Record("login-button", "id", ""),
			},
			"ProductsPage": {
				"title":       locator.Bare(".title"),
				"sortSelect":  locator.Bare(".product_sort_container"),
				"productItem": locator.Bare(".inventory_item"),
			},
			"PaymentPage": {
				"cardNumber": locator.Record(`input[name="cardNumber"]`, "css", "#paymentIframe"),
			},
		}, nil
	}))
}

func newDriver(t *testing.T) (*Driver, *fake.Page) {
	t.Helper()
	p := fake.MustPage(loginHTML)
	p.Route(baseURL+"/", loginHTML)
	p.Route(baseURL+"/inventory.html", inventoryHTML)
	return New(p, Options{Resolver: registry(), BaseURL: baseURL + "/"}), p
}

func steps(t *testing.T, src string) []flow.Step {
	t.Helper()
	f, err := flow.Parse([]byte(src), "test.yaml")
	require.NoError(t, err)
	return f.Steps
}

func runAll(t *testing.T, d *Driver, src string) {
	t.Helper()
	for _, s := range steps(t, src) {
		r := d.Execute(s)
		require.True(t, r.Success, "%s: %v", s.Describe(), r.Error)
	}
}

func TestLoginScenario(t *testing.T) {
	d, p := newDriver(t)

	runAll(t, d, `
- navigate: /
- fill:
    element: LoginPage.username
    text: standard_user
- fill:
    element: LoginPage.password
    text: secret_sauce
- click: LoginPage.loginButton
- assertUrl: inventory.html
- assertUrl:
    path: /inventory
- assertTitle: Swag Labs
- assertText:
    element: ProductsPage.title
    equals: "  Products  "
- select:
    element: ProductsPage.sortSelect
    value: lohi
- assertValue:
    element: ProductsPage.sortSelect
    selected: lohi
- assertCount:
    element: ProductsPage.productItem
    equals: 2
- assertOptions:
    element: ProductsPage.sortSelect
    count: 2
    hasText: Name (A to Z)
`)
	assert.Equal(t, baseURL+"/inventory.html", p.URL())
}

func TestIframeFill(t *testing.T) {
	d, p := newDriver(t)
	runAll(t, d, `
- fill:
    element: PaymentPage.cardNumber
    text: "4111111111111111"
- assertValue:
    element: PaymentPage.cardNumber
    equals: "4111111111111111"
`)
	assert.Contains(t, p.Events(), "fill input[name=cardNumber] 4111111111111111")
}

func TestInlineSelectors(t *testing.T) {
	d, _ := newDriver(t)
	runAll(t, d, `
- assertVisible:
    css: "#user-name"
- fill:
    css: input[name="cardNumber"]
    iframe: "#paymentIframe"
    text: "5500"
- assertAttribute:
    css: "#login-button"
    class: btn_action
- assertHidden:
    css: .error
- assertDom:
    css: "#user-name"
    tag: input
    width: 200
    inViewport: true
`)
}

func TestPresenceAndRadioSteps(t *testing.T) {
	p := fake.MustPage(`<body>
<input type="radio" name="ship" id="standard" checked>
<input type="radio" name="ship" id="express">
<div class="error" style="display: none">Epic sadface</div>
</body>`)
	d := New(p, Options{})
	runAll(t, d, `
- assertExists:
    css: .error
- assertRadioSelected:
    css: "#standard"
- assertRadioNotSelected:
    css: "#express"
- assertCount:
    css: .toast
    zero: true
- assertCount:
    css: "input[name=ship]"
    any: true
`)

	for _, step := range []string{
		"- assertExists:\n    css: '#missing'\n    timeout: 50",
		"- assertRadioSelected:\n    css: '#express'",
		"- assertCount:\n    css: input\n    zero: true",
		"- assertCount:\n    css: .toast\n    any: true",
	} {
		r := d.Execute(steps(t, step)[0])
		assert.False(t, r.Success, step)
		assert.True(t, errors.Is(r.Error, core.ErrAssertionFailed), "%s: %v", step, r.Error)
	}
}

func TestResultCarriesElementInfo(t *testing.T) {
	d, _ := newDriver(t)
	r := d.Execute(steps(t, "- fill:\n    element: PaymentPage.cardNumber\n    text: x\n")[0])
	require.True(t, r.Success, "%v", r.Error)
	require.NotNil(t, r.Element)
	assert.Equal(t, "PaymentPage", r.Element.Screen)
	assert.Equal(t, "cardNumber", r.Element.Name)
	assert.Equal(t, `input[name="cardNumber"]`, r.Element.Selector)
	assert.Equal(t, "#paymentIframe", r.Element.Iframe)
}

func TestFailures(t *testing.T) {
	tests := []struct {
		name     string
		step     string
		sentinel error
		category core.ErrorCategory
	}{
		{"unknown screen", "- click: Nonexistent.x", core.ErrScreenNotFound, core.ErrCategoryLocator},
		{"unknown element", "- click: LoginPage.nonexistent", core.ErrElementNotFound, core.ErrCategoryLocator},
		{"missing iframe", "- fill:\n    css: input\n    iframe: '#nope'\n    text: x", core.ErrIframeNotFound, core.ErrCategoryScope},
		{"action", "- fill:\n    css: '#missing'\n    text: x\n    timeout: 100", core.ErrActionFailed, core.ErrCategoryTimeout},
		{"assertion", "- assertText:\n    element: LoginPage.username\n    contains: nope", core.ErrAssertionFailed, core.ErrCategoryAssertion},
		{"empty assertion", "- assertTitle: {}", core.ErrMissingRequired, core.ErrCategoryConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, _ := newDriver(t)
			r := d.Execute(steps(t, tt.step)[0])
			require.False(t, r.Success)
			assert.True(t, errors.Is(r.Error, tt.sentinel), "got %v", r.Error)
			assert.Equal(t, tt.category, core.CategoryOf(r.Error))
			assert.NotEmpty(t, r.Message)
		})
	}
}

func TestNoRegistry(t *testing.T) {
	d := New(fake.MustPage(loginHTML), Options{})
	r := d.Execute(steps(t, "- click: LoginPage.loginButton")[0])
	require.False(t, r.Success)
	assert.True(t, errors.Is(r.Error, core.ErrStoreUnavailable))

	r = d.Execute(steps(t, "- click:\n    css: '#login-button'")[0])
	assert.True(t, r.Success, "%v", r.Error)
}

func TestScrollAndDrag(t *testing.T) {
	p := fake.MustPage(`<body data-height="900">
<div id="a" data-box="0,0,10,10">a</div><div id="b" data-box="20,20,10,10">b</div></body>`)
	d := New(p, Options{})
	runAll(t, d, `
- scroll: bottom
- scroll: -100
- scroll:
    css: "#b"
- dragAndDrop:
    source: {css: "#a"}
    target: {css: "#b"}
- clearFocus
`)
	assert.Equal(t, 800, p.ScrollY())
	assert.Contains(t, p.Events(), "mouse move 25,25")
}

func TestAbsoluteURL(t *testing.T) {
	tests := []struct {
		base, raw, want string
	}{
		{"", "/login", "/login"},
		{"https://shop.test/", "/login", "https://shop.test/login"},
		{"https://shop.test/app/", "cart", "https://shop.test/app/cart"},
		{"https://shop.test/app/", "https://other.test/x", "https://other.test/x"},
		{"https://shop.test", "inventory.html?sort=az", "https://shop.test/inventory.html?sort=az"},
	}
	for _, tt := range tests {
		d := &Driver{baseURL: tt.base}
		got, err := d.absoluteURL(tt.raw)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "%s + %s", tt.base, tt.raw)
	}
}

func TestPlatformInfo(t *testing.T) {
	p := fake.MustPage(loginHTML)
	p.SetViewport(800, 600)
	d := New(p, Options{BaseURL: baseURL, Info: core.PlatformInfo{BrowserName: "chromium", Headless: true}})

	info := d.GetPlatformInfo()
	assert.Equal(t, "web", info.Platform)
	assert.Equal(t, "chromium", info.BrowserName)
	assert.Equal(t, baseURL, info.BaseURL)
	assert.Equal(t, 800, info.ViewportWidth)
	assert.Equal(t, 600, info.ViewportHeight)

	png, err := d.Screenshot()
	require.NoError(t, err)
	assert.NotEmpty(t, png)
	html, err := d.Hierarchy()
	require.NoError(t, err)
	assert.Contains(t, string(html), "user-name")
}

func TestFactory(t *testing.T) {
	opened, closed := 0, 0
	open := func(ctx context.Context) (browser.Page, func() error, error) {
		opened++
		return fake.MustPage(loginHTML), func() error { closed++; return nil }, nil
	}
	f := NewFactory(open, Options{Resolver: registry(), BaseURL: baseURL})

	drv, release, err := f.NewSession(context.Background(), map[string]string{"BASE_URL": "https://staging.test"})
	require.NoError(t, err)
	assert.Equal(t, "https://staging.test", drv.GetPlatformInfo().BaseURL)

	release()
	release()
	assert.Equal(t, 1, opened)
	assert.Equal(t, 1, closed)

	failing := NewFactory(func(context.Context) (browser.Page, func() error, error) {
		return nil, nil, core.ErrBrowserUnavailable
	}, Options{})
	_, _, err = failing.NewSession(context.Background(), nil)
	assert.True(t, errors.Is(err, core.ErrBrowserUnavailable))
}
