package workbook

import (
	"io"

	"github.com/xuri/excelize/v2"

	"product-sheets-service/internal/models"
)

// ProductWorkbook builds the product sheet for the given reference data
// followed by the guide sheet. With no rows and example set, the product
// sheet carries one illustrative row.
func (b *Builder) ProductWorkbook(ref *models.ReferenceData, rows []models.RowRecord, example bool) (*excelize.File, error) {
	spec := models.SheetSpec{
		Name:           models.ProductSheetName,
		Columns:        models.ProductSchema(ref),
		Rows:           rows,
		IncludeExample: example,
	}
	f, err := b.Build([]models.SheetSpec{spec})
	if err != nil {
		return nil, err
	}

	var (
		types []models.ProductType
		attrs map[string][]models.Attribute
	)
	if ref != nil {
		types, attrs = ref.Types, ref.Attributes
	}
	if err := b.AddGuideSheet(f, types, attrs); err != nil {
		f.Close()
		return nil, err
	}
	return f, nil
}

// WriteProductWorkbook streams ProductWorkbook to w.
func (b *Builder) WriteProductWorkbook(w io.Writer, ref *models.ReferenceData, rows []models.RowRecord, example bool) error {
	f, err := b.ProductWorkbook(ref, rows, example)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.WriteTo(w)
	return err
}
