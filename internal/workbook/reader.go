package workbook

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/xuri/excelize/v2"

	"product-sheets-service/internal/models"
)

var (
	ErrParse    = errors.New("unreadable workbook")
	ErrNoHeader = errors.New("sheet has no header row")
)

// ReadResult holds the rows of one worksheet
type ReadResult struct {
	Sheet string
	// Headers are the header cells with the required marker stripped.
	Headers []string
	// UnknownHeaders did not resolve to any schema column; their cells are dropped.
	UnknownHeaders []string
	Records        []models.RowRecord
}

type readConfig struct {
	schema models.Schema
	sheet  string
}

// ReadOption configures Read
type ReadOption func(*readConfig)

// WithSchema resolves headers to column storage keys.
func WithSchema(s models.Schema) ReadOption {
	return func(c *readConfig) { c.schema = s }
}

// WithSheet selects the worksheet to read by name.
func WithSheet(name string) ReadOption {
	return func(c *readConfig) { c.sheet = name }
}

// Read parses a workbook stream. The preferred sheet is read when present,
// otherwise the first visible sheet. Row 1 is the header; blank rows are
// skipped and records keep their 1-based sheet row.
func Read(r io.Reader, opts ...ReadOption) (*ReadResult, error) {
	cfg := readConfig{sheet: models.ProductSheetName}
	for _, opt := range opts {
		opt(&cfg)
	}

	f, err := excelize.OpenReader(r, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	defer f.Close()

	sheet := pickSheet(f, cfg.sheet)
	if sheet == "" {
		return nil, ErrNoHeader
	}
	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("%w: read sheet %q: %v", ErrParse, sheet, err)
	}
	if len(rows) == 0 {
		return nil, ErrNoHeader
	}

	result := &ReadResult{Sheet: sheet}
	keys := make([]string, len(rows[0]))
	seen := make(map[string]struct{})
	for i, cell := range rows[0] {
		label := models.StripRequiredMarker(cell)
		result.Headers = append(result.Headers, label)
		if label == "" {
			continue
		}
		key := label
		if cfg.schema != nil {
			col, ok := cfg.schema.Lookup(label)
			if !ok {
				result.UnknownHeaders = append(result.UnknownHeaders, label)
				continue
			}
			key = col.Key
		}
		if _, dup := seen[key]; dup {
			result.UnknownHeaders = append(result.UnknownHeaders, label)
			continue
		}
		seen[key] = struct{}{}
		keys[i] = key
	}
	if len(seen) == 0 && len(result.UnknownHeaders) == 0 {
		return nil, ErrNoHeader
	}

	for i, row := range rows[1:] {
		rec := models.NewRowRecord(i + 2)
		for j, cell := range row {
			if j >= len(keys) || keys[j] == "" || strings.TrimSpace(cell) == "" {
				continue
			}
			rec.Set(keys[j], models.Text(cell))
		}
		if len(rec.Values) == 0 {
			continue
		}
		result.Records = append(result.Records, rec)
	}
	return result, nil
}

// ReadFile opens path and reads it with Read.
func ReadFile(path string, opts ...ReadOption) (*ReadResult, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return Read(file, opts...)
}

func pickSheet(f *excelize.File, preferred string) string {
	var first string
	for _, name := range f.GetSheetList() {
		if strings.EqualFold(name, preferred) {
			return name
		}
		if first != "" || name == listSheetName {
			continue
		}
		if visible, err := f.GetSheetVisible(name); err == nil && visible {
			first = name
		}
	}
	return first
}
