package mapping

import (
	"strings"

	"product-sheets-service/internal/models"
)

// ToRecord renders a backend product as a sheet row, replacing ids with the
// names the import side resolves. Unknown ids are written as-is.
func ToRecord(p models.Product, ref *models.ReferenceData) models.RowRecord {
	if ref == nil {
		ref = &models.ReferenceData{}
	}
	rec := models.NewRowRecord(0)
	setText(&rec, models.KeyName, p.Name)
	setText(&rec, models.KeySlug, p.Slug)
	setText(&rec, models.KeySKU, p.SKU)

	typeName := p.ProductTypeID
	if t, ok := ref.TypeByID(p.ProductTypeID); ok {
		typeName = t.Name
	}
	setText(&rec, models.KeyProductType, typeName)

	categories := make([]string, 0, len(p.CategoryIDs))
	for _, id := range p.CategoryIDs {
		if c, ok := ref.CategoryByID(id); ok {
			categories = append(categories, c.Name)
		} else {
			categories = append(categories, id)
		}
	}
	setText(&rec, models.KeyCategories, strings.Join(categories, ", "))

	rec.Set(models.KeyPrice, models.Number(p.Price))
	if p.SalePrice != nil {
		rec.Set(models.KeySalePrice, models.Number(*p.SalePrice))
	}
	if p.Stock != nil {
		rec.Set(models.KeyStock, models.Number(float64(*p.Stock)))
	}
	rec.Set(models.KeyActive, models.Bool(p.IsActive))
	setText(&rec, models.KeyShortDescription, p.ShortDescription)
	setText(&rec, models.KeyDescription, p.Description)

	for _, av := range p.Attributes {
		attr, ok := findAttribute(ref, p.ProductTypeID, av)
		if !ok || len(av.Values) == 0 {
			continue
		}
		key := models.AttributeKey(attr.Slug)
		if attr.FilterType == models.FilterRange && len(av.Values) == 1 {
			if f, ok := models.ParseNumber(av.Values[0]); ok {
				rec.Set(key, models.Number(f))
				continue
			}
		}
		rec.Set(key, models.Text(strings.Join(av.Values, ", ")))
	}
	return rec
}

func findAttribute(ref *models.ReferenceData, typeID string, av models.AttributeValue) (models.Attribute, bool) {
	for _, a := range ref.Attributes[typeID] {
		if a.ID == av.AttributeID || (av.Slug != "" && a.Slug == av.Slug) {
			return a, true
		}
	}
	return models.Attribute{}, false
}

func setText(rec *models.RowRecord, key, v string) {
	if v != "" {
		rec.Set(key, models.Text(v))
	}
}
