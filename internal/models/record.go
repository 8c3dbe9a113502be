package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// ValueKind tags the type held by a Value
type ValueKind uint8

const (
	KindEmpty ValueKind = iota
	KindText
	KindNumber
	KindBool
)

// Value is a single cell value
type Value struct {
	Kind   ValueKind
	Text   string
	Number float64
	Bool   bool
}

func Text(s string) Value      { return Value{Kind: KindText, Text: s} }
func Number(f float64) Value   { return Value{Kind: KindNumber, Number: f} }
func Bool(b bool) Value        { return Value{Kind: KindBool, Bool: b} }
func Empty() Value             { return Value{} }

// IsEmpty reports whether the value is absent or blank text.
func (v Value) IsEmpty() bool {
	switch v.Kind {
	case KindEmpty:
		return true
	case KindText:
		return strings.TrimSpace(v.Text) == ""
	}
	return false
}

// String renders the value the way it is written into a cell.
func (v Value) String() string {
	switch v.Kind {
	case KindText:
		return v.Text
	case KindNumber:
		return strconv.FormatFloat(v.Number, 'f', -1, 64)
	case KindBool:
		if v.Bool {
			return BoolTrueLabel
		}
		return BoolFalseLabel
	}
	return ""
}

// Float returns the numeric value, parsing text when needed.
func (v Value) Float() (float64, bool) {
	switch v.Kind {
	case KindNumber:
		return v.Number, true
	case KindText:
		return ParseNumber(v.Text)
	}
	return 0, false
}

// MarshalJSON encodes the value as a plain JSON scalar.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case KindText:
		return json.Marshal(v.Text)
	case KindNumber:
		return json.Marshal(v.Number)
	case KindBool:
		return json.Marshal(v.Bool)
	}
	return []byte("null"), nil
}

func (v *Value) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*v = Empty()
		return nil
	}
	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = Text(s)
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(data, &b); err != nil {
			return err
		}
		*v = Bool(b)
	default:
		var f float64
		if err := json.Unmarshal(data, &f); err != nil {
			return fmt.Errorf("cell value: %w", err)
		}
		*v = Number(f)
	}
	return nil
}

// ParseNumber parses a numeric cell text. NaN and infinities are rejected.
func ParseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// ParseBool accepts the dropdown labels and a few common spellings.
func ParseBool(s string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case strings.ToLower(BoolTrueLabel), "true", "1", "yes", "x":
		return true, true
	case strings.ToLower(BoolFalseLabel), "false", "0", "no":
		return false, true
	}
	return false, false
}

// RowRecord is one data row keyed by column storage key
type RowRecord struct {
	// Row is the 1-based sheet row; 0 for synthesized records.
	Row    int              `json:"row"`
	Values map[string]Value `json:"values"`
}

func NewRowRecord(row int) RowRecord {
	return RowRecord{Row: row, Values: make(map[string]Value)}
}

func (r RowRecord) Get(key string) (Value, bool) {
	v, ok := r.Values[key]
	if !ok || v.IsEmpty() {
		return Value{}, false
	}
	return v, true
}

// Text returns the trimmed string form of a field, "" when absent.
func (r RowRecord) Text(key string) string {
	v, ok := r.Get(key)
	if !ok {
		return ""
	}
	return strings.TrimSpace(v.String())
}

func (r *RowRecord) Set(key string, v Value) {
	if r.Values == nil {
		r.Values = make(map[string]Value)
	}
	r.Values[key] = v
}

// Keys returns the populated keys in sorted order.
func (r RowRecord) Keys() []string {
	keys := make([]string, 0, len(r.Values))
	for k, v := range r.Values {
		if !v.IsEmpty() {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

// Decode coerces each value to its column's declared type. Values that do
// not coerce stay as text so validation can report them.
func (s Schema) Decode(r RowRecord) RowRecord {
	out := NewRowRecord(r.Row)
	for key, v := range r.Values {
		col, ok := s.ByKey(key)
		if !ok || v.IsEmpty() {
			out.Values[key] = v
			continue
		}
		out.Values[key] = coerce(col.ValueType(), v)
	}
	return out
}

func coerce(t ColumnType, v Value) Value {
	switch t {
	case ColumnNumber:
		if v.Kind == KindText {
			if f, ok := ParseNumber(v.Text); ok {
				return Number(f)
			}
		}
		return v
	case ColumnBoolean:
		switch v.Kind {
		case KindText:
			if b, ok := ParseBool(v.Text); ok {
				return Bool(b)
			}
		case KindNumber:
			if v.Number == 1 || v.Number == 0 {
				return Bool(v.Number == 1)
			}
		}
		return v
	default:
		if v.Kind == KindText {
			return Text(strings.TrimSpace(v.Text))
		}
		return Text(v.String())
	}
}
