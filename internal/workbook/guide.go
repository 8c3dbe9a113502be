package workbook

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"product-sheets-service/internal/models"
)

// Guide sheet headings
const (
	guideTitle        = "HƯỚNG DẪN NHẬP SẢN PHẨM"
	sectionTypes      = "DANH SÁCH LOẠI SẢN PHẨM"
	sectionAttributes = "THUỘC TÍNH THEO LOẠI SẢN PHẨM"
	sectionNotes      = "LƯU Ý"

	freeTextLabel    = "Nhập tự do"
	noAttributesText = "Không có thuộc tính"

	// previewValues is how many allowed values the guide lists per attribute.
	previewValues = 5
)

var filterLabels = map[models.FilterType]string{
	models.FilterMultiSelect:  "Chọn nhiều",
	models.FilterSingleSelect: "Chọn một",
	models.FilterRange:        "Khoảng giá trị",
	models.FilterText:         freeTextLabel,
}

var guideNotes = []string{
	"Các cột có dấu * là bắt buộc.",
	"Loại sản phẩm chọn theo tên trong danh sách.",
	"Danh mục nhập theo tên hoặc slug. Nhiều danh mục cách nhau bằng dấu phẩy.",
	"Thuộc tính chọn nhiều: các giá trị cách nhau bằng dấu phẩy.",
	"Giá bán, giá khuyến mãi và tồn kho phải là số không âm.",
	"Cột Kích hoạt nhận Có hoặc Không. Để trống sẽ kích hoạt sản phẩm.",
	"Không đổi tên hay xóa hàng tiêu đề của sheet " + models.ProductSheetName + ".",
}

var guideWidths = []float64{32, 28, 18, 14, 60}

// AddGuideSheet appends the read-only guide worksheet describing product
// types and their attributes. attrs is keyed by product type id.
func (b *Builder) AddGuideSheet(f *excelize.File, types []models.ProductType, attrs map[string][]models.Attribute) error {
	sheet := models.GuideSheetName
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("add guide sheet: %w", err)
	}
	for i, w := range guideWidths {
		name, _ := excelize.ColumnNumberToName(i + 1)
		if err := f.SetColWidth(sheet, name, name, w); err != nil {
			return err
		}
	}

	g := &guideWriter{f: f, sheet: sheet}
	g.line(styleGuideTitle, guideTitle)
	g.skip()

	g.section(sectionTypes)
	g.line(styleGuideTable, "Tên", "Slug", "Số thuộc tính")
	for _, t := range types {
		count := t.AttributeCount
		if list, ok := attrs[t.ID]; ok {
			count = len(list)
		}
		g.line("", t.Name, t.Slug, count)
	}
	g.skip()

	g.section(sectionAttributes)
	for _, t := range types {
		g.line(styleGuideType, t.Name)
		list := attrs[t.ID]
		if len(list) == 0 {
			g.line(styleGuideNote, noAttributesText)
			g.skip()
			continue
		}
		g.line(styleGuideTable, "Thuộc tính", "Slug", "Kiểu lọc", "Kiểu nhập", "Giá trị")
		for _, a := range list {
			g.line("", a.Name, a.Slug, filterLabel(a.FilterType), inputLabel(a.InputType), valuePreview(a))
		}
		g.skip()
	}

	g.section(sectionNotes)
	for i, note := range guideNotes {
		g.line(styleGuideNote, fmt.Sprintf("%d. %s", i+1, note))
	}

	if g.err != nil {
		return g.err
	}
	return applyStyles(f, b.accent, g.ranges)
}

type guideWriter struct {
	f      *excelize.File
	sheet  string
	row    int
	ranges []styledRange
	err    error
}

func (g *guideWriter) skip() { g.row++ }

func (g *guideWriter) section(title string) {
	g.row++
	g.write(title)
	g.style(styleGuideSection, len(guideWidths))
}

// line writes one row and styles as many cells as were written.
func (g *guideWriter) line(style styleName, values ...interface{}) {
	g.row++
	g.write(values...)
	if style != "" {
		g.style(style, len(values))
	}
}

func (g *guideWriter) write(values ...interface{}) {
	if g.err != nil {
		return
	}
	cell, err := excelize.CoordinatesToCellName(1, g.row)
	if err != nil {
		g.err = err
		return
	}
	if err := g.f.SetSheetRow(g.sheet, cell, &values); err != nil {
		g.err = err
	}
}

func (g *guideWriter) style(style styleName, width int) {
	from, _ := excelize.CoordinatesToCellName(1, g.row)
	to, _ := excelize.CoordinatesToCellName(width, g.row)
	g.ranges = append(g.ranges, styledRange{sheet: g.sheet, from: from, to: to, style: style})
}

func filterLabel(t models.FilterType) string {
	if label, ok := filterLabels[t]; ok {
		return label
	}
	return freeTextLabel
}

func inputLabel(t models.InputType) string {
	if t == models.InputNumber {
		return "Số"
	}
	return "Văn bản"
}

// valuePreview summarises what an attribute accepts.
func valuePreview(a models.Attribute) string {
	switch {
	case a.FilterType == models.FilterRange:
		if a.Min == nil && a.Max == nil {
			return freeTextLabel
		}
		s := formatBound(a.Min) + " - " + formatBound(a.Max)
		if a.Unit != "" {
			s += " " + a.Unit
		}
		return s
	case len(a.Values) > 0:
		if len(a.Values) <= previewValues {
			return strings.Join(a.Values, ", ")
		}
		return fmt.Sprintf("%s (+%d giá trị khác)", strings.Join(a.Values[:previewValues], ", "), len(a.Values)-previewValues)
	}
	return freeTextLabel
}

func formatBound(f *float64) string {
	if f == nil {
		return "?"
	}
	return strconv.FormatFloat(*f, 'f', -1, 64)
}
