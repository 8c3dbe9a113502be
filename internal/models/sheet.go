package models

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// RequiredMarker is appended to the header label of required columns.
const RequiredMarker = " *"

// Boolean cell values offered by the yes/no dropdown.
const (
	BoolTrueLabel  = "Có"
	BoolFalseLabel = "Không"
)

var (
	ErrDuplicateKey = errors.New("duplicate column key")
	ErrEmptyKey     = errors.New("empty column key")
)

// ColumnType is the value type a column accepts
type ColumnType string

const (
	ColumnText    ColumnType = "text"
	ColumnNumber  ColumnType = "number"
	ColumnBoolean ColumnType = "boolean"
	ColumnSelect  ColumnType = "select"
)

// Column defines one column of a sheet
type Column struct {
	Header   string     `json:"header"`
	Key      string     `json:"key"`
	Width    float64    `json:"width,omitempty"`
	Required bool       `json:"required"`
	Type     ColumnType `json:"type"`
	Options  []string   `json:"options,omitempty"`
	// Example is written into the illustrative row of an empty template.
	Example string `json:"example,omitempty"`
}

// HeaderLabel returns the header cell text, with the required marker when needed.
func (c Column) HeaderLabel() string {
	if c.Required {
		return c.Header + RequiredMarker
	}
	return c.Header
}

// ValueType returns the column type, defaulting to text.
func (c Column) ValueType() ColumnType {
	if c.Type == "" {
		return ColumnText
	}
	return c.Type
}

// HasOption reports whether v is one of the select options, ignoring case.
func (c Column) HasOption(v string) bool {
	want := foldName(v)
	for _, opt := range c.Options {
		if foldName(opt) == want {
			return true
		}
	}
	return false
}

// Schema is an ordered list of columns
type Schema []Column

// CheckKeys verifies that every storage key is set and unique.
func (s Schema) CheckKeys() error {
	seen := make(map[string]struct{}, len(s))
	for i, col := range s {
		if strings.TrimSpace(col.Key) == "" {
			return fmt.Errorf("column %d (%q): %w", i+1, col.Header, ErrEmptyKey)
		}
		if _, ok := seen[col.Key]; ok {
			return fmt.Errorf("column %q: %w", col.Key, ErrDuplicateKey)
		}
		seen[col.Key] = struct{}{}
	}
	return nil
}

// ByKey returns the column with the given storage key.
func (s Schema) ByKey(key string) (Column, bool) {
	for _, col := range s {
		if col.Key == key {
			return col, true
		}
	}
	return Column{}, false
}

// Lookup resolves a header label (with or without the required marker) or a
// storage key to its column.
func (s Schema) Lookup(label string) (Column, bool) {
	want := NormalizeHeader(label)
	if want == "" {
		return Column{}, false
	}
	for _, col := range s {
		if NormalizeHeader(col.Header) == want {
			return col, true
		}
	}
	for _, col := range s {
		if strings.EqualFold(col.Key, want) {
			return col, true
		}
	}
	return Column{}, false
}

// Keys returns the storage keys in column order.
func (s Schema) Keys() []string {
	keys := make([]string, len(s))
	for i, col := range s {
		keys[i] = col.Key
	}
	return keys
}

// StripRequiredMarker removes a trailing required marker from a header cell.
func StripRequiredMarker(header string) string {
	h := strings.TrimSpace(header)
	h = strings.TrimSuffix(h, "*")
	return strings.TrimSpace(h)
}

// NormalizeHeader folds a header label for comparison.
func NormalizeHeader(header string) string {
	return strings.ToLower(norm.NFC.String(StripRequiredMarker(header)))
}

// SheetSpec describes one worksheet of an exported workbook
type SheetSpec struct {
	Name    string      `json:"name"`
	Columns Schema      `json:"columns"`
	Rows    []RowRecord `json:"rows,omitempty"`
	// IncludeExample adds one illustrative row when Rows is empty.
	IncludeExample bool `json:"includeExample,omitempty"`
}

// ExampleRow builds the illustrative row from the column examples.
func (s SheetSpec) ExampleRow() RowRecord {
	rec := NewRowRecord(0)
	for _, col := range s.Columns {
		rec.Set(col.Key, Text(col.Example))
	}
	return rec
}
