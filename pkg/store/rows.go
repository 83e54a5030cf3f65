// Package store reads the tabular files that back the locator registry and
// the scenario test data.
package store

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/devicelab-dev/webflow-runner/pkg/core"
	"github.com/xuri/excelize/v2"
)

// Supported tabular formats.
const (
	FormatXLSX = ".xlsx"
	FormatCSV  = ".csv"
	FormatYAML = ".yaml"
	FormatYML  = ".yml"
)

func format(path string) string {
	return strings.ToLower(filepath.Ext(path))
}

// IsYAML reports whether path names a YAML store.
func IsYAML(path string) bool {
	f := format(path)
	return f == FormatYAML || f == FormatYML
}

// ReadRows reads every row of a tabular file, header included.
// xlsx files are read from their first worksheet.
func ReadRows(path string) ([][]string, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, unavailable(path, err)
	}

	switch format(path) {
	case FormatXLSX:
		return readXLSX(path)
	case FormatCSV:
		return readCSV(path)
	default:
		return nil, unavailable(path, fmt.Errorf("unsupported file type %q", filepath.Ext(path)))
	}
}

func readXLSX(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, unavailable(path, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, unavailable(path, errors.New("workbook has no worksheets"))
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, unavailable(path, err)
	}
	return rows, nil
}

func readCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, unavailable(path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	rows, err := r.ReadAll()
	if err != nil {
		return nil, unavailable(path, err)
	}
	return rows, nil
}

// WriteRows writes rows to an xlsx or csv file, creating parent directories.
func WriteRows(path, sheet string, rows [][]string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}

	switch format(path) {
	case FormatXLSX:
		return writeXLSX(path, sheet, rows)
	case FormatCSV:
		return writeCSV(path, rows)
	default:
		return fmt.Errorf("unsupported file type %q", filepath.Ext(path))
	}
}

func writeXLSX(path, sheet string, rows [][]string) error {
	f := excelize.NewFile()
	defer f.Close()

	if sheet == "" {
		sheet = "Sheet1"
	}
	if sheet != "Sheet1" {
		if err := f.SetSheetName("Sheet1", sheet); err != nil {
			return err
		}
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		values := make([]interface{}, len(row))
		for j, v := range row {
			values[j] = v
		}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}
	return f.SaveAs(path)
}

func writeCSV(path string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := csv.NewWriter(f)
	if err := w.WriteAll(rows); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func unavailable(path string, cause error) error {
	return core.ErrStoreUnavailable.
		WithMessage(fmt.Sprintf("cannot read %s", path)).
		WithDetails(map[string]interface{}{"path": path}).
		WithCause(cause)
}

// cell returns row[i] trimmed, or "" when the row is short.
func cell(row []string, i int) string {
	if i < len(row) {
		return strings.TrimSpace(row[i])
	}
	return ""
}
