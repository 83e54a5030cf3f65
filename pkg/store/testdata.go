package store

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/devicelab-dev/webflow-runner/pkg/core"
	"gopkg.in/yaml.v3"
)

// TestDataHeader is the header row of a test data table.
var TestDataHeader = []string{"TestCaseID", "Scenario", "Username", "Password", "ExpectedResult"}

// Record is one row of scenario test data.
type Record struct {
	TestCaseID     string `yaml:"testCaseId" json:"testCaseId"`
	Scenario       string `yaml:"scenario" json:"scenario"`
	Username       string `yaml:"username" json:"username"`
	Password       string `yaml:"password" json:"password"`
	ExpectedResult string `yaml:"expectedResult" json:"expectedResult"`
}

// Vars exposes the record as flow variables.
func (r Record) Vars() map[string]string {
	return map[string]string{
		"TEST_CASE_ID":    r.TestCaseID,
		"SCENARIO":        r.Scenario,
		"USERNAME":        r.Username,
		"PASSWORD":        r.Password,
		"EXPECTED_RESULT": r.ExpectedResult,
	}
}

// LoadTestData reads all records from path in row order.
func LoadTestData(path string) ([]Record, error) {
	if IsYAML(path) {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, dataUnavailable(path, err)
		}
		var records []Record
		if err := yaml.Unmarshal(data, &records); err != nil {
			return nil, dataUnavailable(path, fmt.Errorf("parse: %w", err))
		}
		return records, nil
	}

	rows, err := ReadRows(path)
	if err != nil {
		return nil, dataUnavailable(path, err)
	}
	return RecordsFromRows(rows), nil
}

// RecordsFromRows converts test data rows, skipping the header and blank rows.
func RecordsFromRows(rows [][]string) []Record {
	var records []Record
	for i, row := range rows {
		if i == 0 {
			continue
		}
		r := Record{
			TestCaseID:     cell(row, 0),
			Scenario:       cell(row, 1),
			Username:       cell(row, 2),
			Password:       cell(row, 3),
			ExpectedResult: cell(row, 4),
		}
		if r == (Record{}) {
			continue
		}
		records = append(records, r)
	}
	return records
}

func dataUnavailable(path string, cause error) error {
	return core.ErrDataUnavailable.
		WithMessage(fmt.Sprintf("cannot read test data %s", path)).
		WithDetails(map[string]interface{}{"path": path}).
		WithCause(cause)
}

// Provider answers scenario lookups. Records are loaded on first use and kept
// for the rest of the run.
type Provider struct {
	load func() ([]Record, error)

	once    sync.Once
	records []Record
	err     error
}

// NewProvider creates a provider backed by a file.
func NewProvider(path string) *Provider {
	return &Provider{load: func() ([]Record, error) { return LoadTestData(path) }}
}

// NewStaticProvider creates a provider over records already in memory.
func NewStaticProvider(records []Record) *Provider {
	return &Provider{load: func() ([]Record, error) { return records, nil }}
}

func (p *Provider) all() ([]Record, error) {
	p.once.Do(func() {
		p.records, p.err = p.load()
	})
	return p.records, p.err
}

// Find returns the first record whose scenario contains query, ignoring case.
// No match is not an error.
func (p *Provider) Find(query string) (Record, bool, error) {
	records, err := p.all()
	if err != nil {
		return Record{}, false, err
	}
	q := strings.ToLower(strings.TrimSpace(query))
	for _, r := range records {
		if strings.Contains(strings.ToLower(r.Scenario), q) {
			return r, true, nil
		}
	}
	return Record{}, false, nil
}

// Get returns the record with the given test case ID.
func (p *Provider) Get(testCaseID string) (Record, bool, error) {
	records, err := p.all()
	if err != nil {
		return Record{}, false, err
	}
	for _, r := range records {
		if strings.EqualFold(r.TestCaseID, testCaseID) {
			return r, true, nil
		}
	}
	return Record{}, false, nil
}

// Records returns every record in load order.
func (p *Provider) Records() ([]Record, error) {
	return p.all()
}
