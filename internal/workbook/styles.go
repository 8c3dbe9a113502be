package workbook

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

// DefaultAccentColor fills header cells.
const DefaultAccentColor = "7B1E3A"

type styleName string

const (
	styleHeader       styleName = "header"
	styleGuideTitle   styleName = "guide_title"
	styleGuideSection styleName = "guide_section"
	styleGuideTable   styleName = "guide_table_header"
	styleGuideType    styleName = "guide_type"
	styleGuideNote    styleName = "guide_note"
)

// styleRule maps a named role to the excelize style it renders with.
type styleRule struct {
	name  styleName
	build func(accent string) *excelize.Style
}

var thinBorder = []excelize.Border{
	{Type: "left", Color: "BFBFBF", Style: 1},
	{Type: "top", Color: "BFBFBF", Style: 1},
	{Type: "right", Color: "BFBFBF", Style: 1},
	{Type: "bottom", Color: "BFBFBF", Style: 1},
}

var styleRules = []styleRule{
	{styleHeader, func(accent string) *excelize.Style {
		return &excelize.Style{
			Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
			Fill:      excelize.Fill{Type: "pattern", Color: []string{accent}, Pattern: 1},
			Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center", WrapText: true},
			Border:    thinBorder,
		}
	}},
	{styleGuideTitle, func(accent string) *excelize.Style {
		return &excelize.Style{
			Font: &excelize.Font{Bold: true, Size: 16, Color: accent},
		}
	}},
	{styleGuideSection, func(accent string) *excelize.Style {
		return &excelize.Style{
			Font:   &excelize.Font{Bold: true, Size: 12, Color: accent},
			Border: []excelize.Border{{Type: "bottom", Color: accent, Style: 2}},
		}
	}},
	{styleGuideTable, func(accent string) *excelize.Style {
		return &excelize.Style{
			Font:   &excelize.Font{Bold: true, Color: "FFFFFF"},
			Fill:   excelize.Fill{Type: "pattern", Color: []string{accent}, Pattern: 1},
			Border: thinBorder,
		}
	}},
	{styleGuideType, func(string) *excelize.Style {
		return &excelize.Style{
			Font: &excelize.Font{Bold: true},
			Fill: excelize.Fill{Type: "pattern", Color: []string{"F2F2F2"}, Pattern: 1},
		}
	}},
	{styleGuideNote, func(string) *excelize.Style {
		return &excelize.Style{
			Font:      &excelize.Font{Italic: true, Color: "595959"},
			Alignment: &excelize.Alignment{WrapText: true, Vertical: "top"},
		}
	}},
}

// styledRange is a cell range tagged with the role that styles it.
type styledRange struct {
	sheet string
	from  string
	to    string
	style styleName
}

// applyStyles registers every rule once and styles all ranges in one pass.
func applyStyles(f *excelize.File, accent string, ranges []styledRange) error {
	if len(ranges) == 0 {
		return nil
	}
	ids := make(map[styleName]int, len(styleRules))
	for _, rule := range styleRules {
		id, err := f.NewStyle(rule.build(accent))
		if err != nil {
			return fmt.Errorf("register style %s: %w", rule.name, err)
		}
		ids[rule.name] = id
	}
	for _, r := range ranges {
		id, ok := ids[r.style]
		if !ok {
			return fmt.Errorf("unknown style %q", r.style)
		}
		if err := f.SetCellStyle(r.sheet, r.from, r.to, id); err != nil {
			return fmt.Errorf("style %s!%s:%s: %w", r.sheet, r.from, r.to, err)
		}
	}
	return nil
}
