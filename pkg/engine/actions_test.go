package engine

import (
	"errors"
	"testing"

	"github.com/devicelab-dev/webflow-runner/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNavigate(t *testing.T) {
	p := newPage(t)
	p.Route("https://www.saucedemo.com/inventory.html", `<html><head><title>Inventory</title></head><body></body></html>`)

	require.NoError(t, New().Navigate(p, "https://www.saucedemo.com/inventory.html"))
	assert.Equal(t, "https://www.saucedemo.com/inventory.html", p.URL())
	title, err := p.Title()
	require.NoError(t, err)
	assert.Equal(t, "Inventory", title)
}

func TestClickVariants(t *testing.T) {
	p := newPage(t)
	e := New()
	btn := css("#login-button")

	require.NoError(t, e.Click(p, btn))
	require.NoError(t, e.DoubleClick(p, btn))
	require.NoError(t, e.RightClick(p, btn))
	require.NoError(t, e.Hover(p, btn))

	assert.Equal(t, []string{
		"click button#login-button",
		"dblclick button#login-button",
		"rightclick button#login-button",
		"hover button#login-button",
	}, p.Events())
}

func TestClick_HiddenElementTimesOut(t *testing.T) {
	err := New().Click(newPage(t), css(".error"))
	require.Error(t, err)
	var actionErr *core.ActionError
	require.True(t, errors.As(err, &actionErr))
	assert.Equal(t, "click", actionErr.Action)
	assert.True(t, errors.Is(err, core.ErrWaitTimeout))
}

func TestCheckUncheck(t *testing.T) {
	p := newPage(t)
	e := New()
	box := css("#remember")

	require.NoError(t, e.Check(p, box))
	require.NoError(t, e.AssertChecked(p, box))
	require.NoError(t, e.Uncheck(p, box))
	require.NoError(t, e.AssertNotChecked(p, box))

	err := e.Check(p, css("#user-name"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrActionFailed))
}

func TestSelect(t *testing.T) {
	p := newPage(t)
	e := New()
	sort := css("#sort")

	require.NoError(t, e.Select(p, sort, "az"))
	require.NoError(t, e.AssertSelectValue(p, sort, "az"))

	require.NoError(t, e.Select(p, sort, "Name (Z to A)"))
	require.NoError(t, e.AssertSelectValue(p, sort, "za"))

	err := e.Select(p, sort, "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disabled")

	err = e.Select(p, sort, "price")
	require.Error(t, err)
	assert.Equal(t, core.ErrCategoryAction, core.CategoryOf(err))
}

func TestFocusAndClearFocus(t *testing.T) {
	p := newPage(t)
	e := New()

	require.NoError(t, e.Focus(p, css("#user-name")))
	require.NoError(t, e.AssertFocused(p, css("#user-name")))
	require.NoError(t, e.AssertFocusedType(p, "INPUT"))

	require.NoError(t, e.ClearFocus(p))
	require.NoError(t, e.AssertNotFocused(p, css("#user-name")))
	require.NoError(t, e.AssertFocusedType(p, "body"))
}

func TestScrolling(t *testing.T) {
	p := newPage(t)
	e := New()

	require.NoError(t, e.ScrollBy(p, 300))
	assert.Equal(t, 300, p.ScrollY())
	require.NoError(t, e.ScrollBy(p, -500))
	assert.Equal(t, 0, p.ScrollY())

	require.NoError(t, e.ScrollToBottom(p))
	assert.Equal(t, 2400, p.ScrollY())
	require.NoError(t, e.ScrollToTop(p))
	assert.Equal(t, 0, p.ScrollY())

	require.NoError(t, e.ScrollTo(p, css("#target")))
	assert.Contains(t, p.Events(), "scroll-into-view div#target")
}

func TestDragAndDrop(t *testing.T) {
	p := newPage(t)

	require.NoError(t, New().DragAndDrop(p, css("#source"), css("#target")))
	assert.Equal(t, []string{
		"mouse move 25,25",
		"mouse down",
		"mouse move 125,125",
		"mouse up",
	}, p.Events())
}

func TestDragAndDrop_GeometryUnavailable(t *testing.T) {
	p := newPage(t)

	err := New().DragAndDrop(p, css("#source"), css("#ghost"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrGeometryUnavailable))
	var actionErr *core.ActionError
	require.True(t, errors.As(err, &actionErr))
	assert.Equal(t, "dragAndDrop", actionErr.Action)
	assert.Equal(t, "#source -> #ghost", actionErr.Selector)
	assert.Empty(t, p.Events(), "no pointer events before both boxes are known")
}

func TestDragAndDrop_MissingFrame(t *testing.T) {
	err := New().DragAndDrop(newPage(t), css("#source"), inFrame("#target", "#nope"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrIframeNotFound))
}
