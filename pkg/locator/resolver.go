package locator

import (
	"fmt"
	"sort"
	"sync"

	"github.com/devicelab-dev/webflow-runner/pkg/core"
	"github.com/devicelab-dev/webflow-runner/pkg/logger"
)

// Registry maps screen -> element name -> raw descriptor.
type Registry map[string]map[string]RawDescriptor

// Loader reads a registry from its backing store. Implementations do not cache.
type Loader interface {
	Load() (Registry, error)
}

// LoaderFunc adapts a function to Loader.
type LoaderFunc func() (Registry, error)

// Load calls f.
func (f LoaderFunc) Load() (Registry, error) { return f() }

// Resolver resolves (screen, element) pairs against a registry that is read
// from its Loader at most once. A failed load is kept too: every later call
// returns the same error.
type Resolver struct {
	loader Loader

	once     sync.Once
	registry Registry
	err      error
}

// NewResolver creates a resolver. Nothing is read until the first lookup.
func NewResolver(loader Loader) *Resolver {
	return &Resolver{loader: loader}
}

func (r *Resolver) load() (Registry, error) {
	r.once.Do(func() {
		reg, err := r.loader.Load()
		if err != nil {
			r.err = err
			logger.Error("locator registry load failed: %v", err)
			return
		}
		if reg == nil {
			reg = Registry{}
		}
		r.registry = reg
		logger.Info("locator registry loaded: %d screens", len(reg))
	})
	return r.registry, r.err
}

// Resolve returns the normalized descriptor for screen.element.
func (r *Resolver) Resolve(screen, element string) (Descriptor, error) {
	reg, err := r.load()
	if err != nil {
		return Descriptor{}, err
	}

	elements, ok := reg[screen]
	if !ok {
		return Descriptor{}, core.ErrScreenNotFound.
			WithMessage(fmt.Sprintf("No locators found for screen: %s", screen)).
			WithDetails(map[string]interface{}{"screen": screen})
	}

	raw, ok := elements[element]
	if !ok {
		return Descriptor{}, core.ErrElementNotFound.
			WithMessage(fmt.Sprintf("No locator found for element: %s on screen: %s", element, screen)).
			WithDetails(map[string]interface{}{"screen": screen, "element": element})
	}

	return raw.Normalize(screen, element)
}

// IsScoped reports whether screen.element lives inside an iframe.
func (r *Resolver) IsScoped(screen, element string) (bool, error) {
	d, err := r.Resolve(screen, element)
	if err != nil {
		return false, err
	}
	return d.IsScoped(), nil
}

// ScopeSelector returns the iframe selector of screen.element.
// ok is false for top-level elements.
func (r *Resolver) ScopeSelector(screen, element string) (sel string, ok bool, err error) {
	d, err := r.Resolve(screen, element)
	if err != nil {
		return "", false, err
	}
	if !d.IsScoped() {
		return "", false, nil
	}
	return d.Scope.IframeSelector, true, nil
}

// Screens returns all screen names, sorted.
func (r *Resolver) Screens() ([]string, error) {
	reg, err := r.load()
	if err != nil {
		return nil, err
	}
	screens := make([]string, 0, len(reg))
	for s := range reg {
		screens = append(screens, s)
	}
	sort.Strings(screens)
	return screens, nil
}

// Elements returns the element names of a screen, sorted.
func (r *Resolver) Elements(screen string) ([]string, error) {
	reg, err := r.load()
	if err != nil {
		return nil, err
	}
	elements, ok := reg[screen]
	if !ok {
		return nil, core.ErrScreenNotFound.
			WithMessage(fmt.Sprintf("No locators found for screen: %s", screen)).
			WithDetails(map[string]interface{}{"screen": screen})
	}
	names := make([]string, 0, len(elements))
	for e := range elements {
		names = append(names, e)
	}
	sort.Strings(names)
	return names, nil
}
