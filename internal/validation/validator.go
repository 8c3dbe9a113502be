// Package validation checks parsed rows against the column schema of the
// sheet they were read from.
package validation

import (
	"fmt"
	"strings"

	"product-sheets-service/internal/models"
)

// Validate returns the violations of one record in column order. An empty
// result means the record is valid. Only per-field rules apply.
func Validate(rec models.RowRecord, schema models.Schema) []string {
	var msgs []string
	for _, col := range schema {
		v, ok := rec.Get(col.Key)
		if !ok {
			if col.Required {
				msgs = append(msgs, RequiredMessage(col.Header))
			}
			continue
		}

		switch col.ValueType() {
		case models.ColumnNumber:
			if _, ok := v.Float(); !ok {
				msgs = append(msgs, NumberMessage(col.Header))
			}
		case models.ColumnSelect:
			if !col.HasOption(strings.TrimSpace(v.String())) {
				msgs = append(msgs, OptionMessage(col.Header, col.Options))
			}
		}
	}
	return msgs
}

// ValidateAll validates every record and keeps the rows that have violations.
func ValidateAll(records []models.RowRecord, schema models.Schema) []models.ValidationError {
	var out []models.ValidationError
	for _, rec := range records {
		if msgs := Validate(rec, schema); len(msgs) > 0 {
			out = append(out, models.ValidationError{Row: rec.Row, Messages: msgs})
		}
	}
	return out
}

func RequiredMessage(header string) string {
	return header + " là bắt buộc"
}

func NumberMessage(header string) string {
	return header + " phải là số"
}

func OptionMessage(header string, options []string) string {
	return fmt.Sprintf("%s phải là một trong: %s", header, strings.Join(options, ", "))
}
