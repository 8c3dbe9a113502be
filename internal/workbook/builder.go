package workbook

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"product-sheets-service/internal/models"
)

const (
	DefaultColumnWidth    = 18
	DefaultValidationRows = 1000

	// ContentType is the MIME type of the generated workbooks.
	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	listSheetName = "_lists"
	firstSheet    = "Sheet1"
)

// Data validation messages shown by the spreadsheet application.
const (
	invalidValueTitle = "Giá trị không hợp lệ"
	invalidSelectMsg  = "Vui lòng chọn một giá trị trong danh sách"
	invalidNumberMsg  = "Giá trị phải là số không âm"
	invalidBoolMsg    = "Vui lòng chọn Có hoặc Không"
)

var ErrNoSheets = errors.New("workbook needs at least one sheet")

// Builder renders sheet specs into an xlsx workbook
type Builder struct {
	defaultWidth   float64
	validationRows int
	accent         string
}

// Option configures a Builder
type Option func(*Builder)

// WithDefaultWidth sets the width of columns that declare none.
func WithDefaultWidth(w float64) Option {
	return func(b *Builder) {
		if w > 0 {
			b.defaultWidth = w
		}
	}
}

// WithValidationRows sets how many data rows receive data validation.
func WithValidationRows(n int) Option {
	return func(b *Builder) {
		if n > 0 {
			b.validationRows = n
		}
	}
}

// WithAccentColor sets the hex fill color of header cells.
func WithAccentColor(hex string) Option {
	return func(b *Builder) {
		if hex != "" {
			b.accent = hex
		}
	}
}

func NewBuilder(opts ...Option) *Builder {
	b := &Builder{
		defaultWidth:   DefaultColumnWidth,
		validationRows: DefaultValidationRows,
		accent:         DefaultAccentColor,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build creates a workbook with one worksheet per spec. Column keys must be
// unique within a spec.
func (b *Builder) Build(specs []models.SheetSpec) (*excelize.File, error) {
	if len(specs) == 0 {
		return nil, ErrNoSheets
	}
	for _, spec := range specs {
		if err := spec.Columns.CheckKeys(); err != nil {
			return nil, fmt.Errorf("sheet %q: %w", spec.Name, err)
		}
	}

	f := excelize.NewFile()
	lists := &listSheet{}
	var ranges []styledRange
	for i, spec := range specs {
		if i == 0 {
			if err := f.SetSheetName(firstSheet, spec.Name); err != nil {
				f.Close()
				return nil, fmt.Errorf("rename sheet: %w", err)
			}
		} else if _, err := f.NewSheet(spec.Name); err != nil {
			f.Close()
			return nil, fmt.Errorf("add sheet %q: %w", spec.Name, err)
		}

		styled, err := b.writeSheet(f, spec, lists)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("sheet %q: %w", spec.Name, err)
		}
		ranges = append(ranges, styled...)
	}

	if err := applyStyles(f, b.accent, ranges); err != nil {
		f.Close()
		return nil, err
	}
	f.SetActiveSheet(0)
	return f, nil
}

// WriteTo builds the workbook and streams it to w.
func (b *Builder) WriteTo(w io.Writer, specs []models.SheetSpec) error {
	f, err := b.Build(specs)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.WriteTo(w)
	return err
}

// FileName returns the download name of a workbook built on the given day.
func FileName(base string, now time.Time) string {
	return fmt.Sprintf("%s_%s.xlsx", base, now.Format("2006-01-02"))
}

func (b *Builder) writeSheet(f *excelize.File, spec models.SheetSpec, lists *listSheet) ([]styledRange, error) {
	sheet := spec.Name
	cols := spec.Columns
	if len(cols) == 0 {
		return nil, nil
	}

	header := make([]interface{}, len(cols))
	for i, col := range cols {
		header[i] = col.HeaderLabel()
		name, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return nil, err
		}
		width := col.Width
		if width <= 0 {
			width = b.defaultWidth
		}
		if err := f.SetColWidth(sheet, name, name, width); err != nil {
			return nil, err
		}
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return nil, err
	}

	rows := spec.Rows
	if len(rows) == 0 && spec.IncludeExample {
		rows = []models.RowRecord{spec.ExampleRow()}
	}
	for i, rec := range rows {
		values := make([]interface{}, len(cols))
		for j, col := range cols {
			values[j] = cellValue(rec.Values[col.Key])
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return nil, err
		}
	}

	for i, col := range cols {
		if err := b.addValidation(f, sheet, i+1, col, lists); err != nil {
			return nil, fmt.Errorf("validation for %q: %w", col.Key, err)
		}
	}

	if err := f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return nil, err
	}

	last, err := excelize.CoordinatesToCellName(len(cols), 1)
	if err != nil {
		return nil, err
	}
	return []styledRange{{sheet: sheet, from: "A1", to: last, style: styleHeader}}, nil
}

func (b *Builder) addValidation(f *excelize.File, sheet string, colNum int, col models.Column, lists *listSheet) error {
	name, err := excelize.ColumnNumberToName(colNum)
	if err != nil {
		return err
	}
	sqref := fmt.Sprintf("%s2:%s%d", name, name, b.validationRows+1)

	dv := excelize.NewDataValidation(!col.Required)
	dv.Sqref = sqref
	switch col.ValueType() {
	case models.ColumnSelect:
		if len(col.Options) == 0 {
			return nil
		}
		if err := dv.SetDropList(col.Options); err != nil {
			if !errors.Is(err, excelize.ErrDataValidationFormulaLength) {
				return err
			}
			ref, err := lists.add(f, col.Options)
			if err != nil {
				return err
			}
			dv.SetSqrefDropList(ref)
		}
		dv.SetError(excelize.DataValidationErrorStyleStop, invalidValueTitle, invalidSelectMsg)
	case models.ColumnNumber:
		if err := dv.SetRange(0, "", excelize.DataValidationTypeDecimal, excelize.DataValidationOperatorGreaterThanOrEqual); err != nil {
			return err
		}
		dv.SetError(excelize.DataValidationErrorStyleStop, invalidValueTitle, invalidNumberMsg)
	case models.ColumnBoolean:
		if err := dv.SetDropList([]string{models.BoolTrueLabel, models.BoolFalseLabel}); err != nil {
			return err
		}
		dv.SetError(excelize.DataValidationErrorStyleStop, invalidValueTitle, invalidBoolMsg)
	default:
		return nil
	}
	return f.AddDataValidation(sheet, dv)
}

func cellValue(v models.Value) interface{} {
	switch v.Kind {
	case models.KindText:
		return v.Text
	case models.KindNumber:
		return v.Number
	case models.KindBool:
		return v.String()
	}
	return nil
}

// listSheet holds dropdown sources too long for an inline list formula.
type listSheet struct {
	created bool
	columns int
}

func (l *listSheet) add(f *excelize.File, options []string) (string, error) {
	if !l.created {
		if _, err := f.NewSheet(listSheetName); err != nil {
			return "", err
		}
		if err := f.SetSheetVisible(listSheetName, false); err != nil {
			return "", err
		}
		l.created = true
	}
	l.columns++
	name, err := excelize.ColumnNumberToName(l.columns)
	if err != nil {
		return "", err
	}
	values := make([]interface{}, len(options))
	for i, opt := range options {
		values[i] = opt
	}
	if err := f.SetSheetCol(listSheetName, name+"1", &values); err != nil {
		return "", err
	}
	return fmt.Sprintf("'%s'!$%s$1:$%s$%d", listSheetName, name, name, len(options)), nil
}
