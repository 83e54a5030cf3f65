package store

import (
	"fmt"
	"os"

	"github.com/devicelab-dev/webflow-runner/pkg/locator"
	"github.com/devicelab-dev/webflow-runner/pkg/logger"
	"gopkg.in/yaml.v3"
)

// Locator table columns.
const (
	colScreen = iota
	colElement
	colLocator
	colType
	colIframe
)

// LocatorHeader is the header row of a locator table.
var LocatorHeader = []string{"Screen", "ElementName", "Locator", "Type", "IframeLocator"}

// DescriptorStore loads the locator registry from a file.
// It does not cache; locator.Resolver owns the cache.
type DescriptorStore struct {
	Path string
}

// NewDescriptorStore creates a store for path.
func NewDescriptorStore(path string) *DescriptorStore {
	return &DescriptorStore{Path: path}
}

// Load reads the registry. It satisfies locator.Loader.
func (s *DescriptorStore) Load() (locator.Registry, error) {
	if IsYAML(s.Path) {
		return s.loadYAML()
	}

	rows, err := ReadRows(s.Path)
	if err != nil {
		return nil, err
	}
	return RegistryFromRows(rows), nil
}

func (s *DescriptorStore) loadYAML() (locator.Registry, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, unavailable(s.Path, err)
	}
	var reg locator.Registry
	if err := yaml.Unmarshal(data, &reg); err != nil {
		return nil, unavailable(s.Path, fmt.Errorf("parse: %w", err))
	}
	if reg == nil {
		reg = locator.Registry{}
	}
	return reg, nil
}

// RegistryFromRows groups locator table rows by screen. The first row is the
// header. When the header has an IframeLocator column every row becomes a
// record, with an empty iframe cell meaning top-level scope; otherwise rows
// are bare selectors. Later rows replace earlier ones with the same key.
func RegistryFromRows(rows [][]string) locator.Registry {
	reg := locator.Registry{}
	if len(rows) == 0 {
		return reg
	}
	withIframe := len(rows[0]) > colIframe

	for i, row := range rows[1:] {
		line := i + 2
		screen, element, sel := cell(row, colScreen), cell(row, colElement), cell(row, colLocator)
		if screen == "" && element == "" && sel == "" {
			continue
		}
		if screen == "" || element == "" || sel == "" {
			logger.Warn("locator row %d skipped: screen, element and locator are required", line)
			continue
		}

		var raw locator.RawDescriptor
		if withIframe {
			raw = locator.Record(sel, cell(row, colType), cell(row, colIframe))
		} else {
			raw = locator.RawDescriptor{Locator: sel, Type: cell(row, colType)}
		}

		elements, ok := reg[screen]
		if !ok {
			elements = map[string]locator.RawDescriptor{}
			reg[screen] = elements
		}
		if _, dup := elements[element]; dup {
			logger.Warn("locator row %d redefines %s.%s", line, screen, element)
		}
		elements[element] = raw
	}
	return reg
}
