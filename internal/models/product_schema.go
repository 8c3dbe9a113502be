package models

import "strings"

// Product sheet names
const (
	ProductSheetName = "Sản phẩm"
	GuideSheetName   = "Hướng dẫn"
)

// Storage keys of the product sheet columns
const (
	KeyName             = "name"
	KeySlug             = "slug"
	KeySKU              = "sku"
	KeyProductType      = "product_type"
	KeyCategories       = "categories"
	KeyPrice            = "price"
	KeySalePrice        = "sale_price"
	KeyStock            = "stock"
	KeyActive           = "is_active"
	KeyShortDescription = "short_description"
	KeyDescription      = "description"

	// AttributeKeyPrefix prefixes the key of every attribute column.
	AttributeKeyPrefix = "attr_"
)

// AttributeKey returns the column key for an attribute slug.
func AttributeKey(slug string) string {
	return AttributeKeyPrefix + slug
}

// AttributeSlug extracts the attribute slug from a column key.
func AttributeSlug(key string) (string, bool) {
	if !strings.HasPrefix(key, AttributeKeyPrefix) {
		return "", false
	}
	return strings.TrimPrefix(key, AttributeKeyPrefix), true
}

// ProductSchema returns the product import/export columns. Reference data
// fills the product type dropdown and adds one column per attribute.
func ProductSchema(ref *ReferenceData) Schema {
	typeExample := "Rượu vang đỏ"
	var typeNames []string
	if ref != nil {
		typeNames = ref.TypeNames()
		if len(typeNames) > 0 {
			typeExample = typeNames[0]
		}
	}

	schema := Schema{
		{Header: "Tên sản phẩm", Key: KeyName, Width: 36, Required: true, Type: ColumnText, Example: "Château Margaux 2015"},
		{Header: "Slug", Key: KeySlug, Width: 28, Type: ColumnText, Example: "chateau-margaux-2015"},
		{Header: "Mã SKU", Key: KeySKU, Width: 18, Type: ColumnText, Example: "CM-2015-750"},
		{Header: "Loại sản phẩm", Key: KeyProductType, Width: 22, Required: true, Type: ColumnSelect, Options: typeNames, Example: typeExample},
		{Header: "Danh mục", Key: KeyCategories, Width: 28, Type: ColumnText, Example: "Vang Pháp, Vang Bordeaux"},
		{Header: "Giá bán", Key: KeyPrice, Width: 16, Required: true, Type: ColumnNumber, Example: "12500000"},
		{Header: "Giá khuyến mãi", Key: KeySalePrice, Width: 16, Type: ColumnNumber},
		{Header: "Tồn kho", Key: KeyStock, Width: 12, Type: ColumnNumber, Example: "24"},
		{Header: "Kích hoạt", Key: KeyActive, Width: 12, Type: ColumnBoolean, Example: BoolTrueLabel},
		{Header: "Mô tả ngắn", Key: KeyShortDescription, Width: 40, Type: ColumnText},
		{Header: "Mô tả", Key: KeyDescription, Width: 50, Type: ColumnText},
	}
	if ref == nil {
		return schema
	}

	for _, attr := range ref.DistinctAttributes() {
		col := Column{Header: attr.Name, Key: AttributeKey(attr.Slug), Width: 20, Type: ColumnText}
		switch attr.FilterType {
		case FilterSingleSelect:
			col.Type = ColumnSelect
			col.Options = attr.Values
		case FilterRange:
			col.Type = ColumnNumber
		}
		if len(attr.Values) > 0 {
			col.Example = attr.Values[0]
		}
		schema = append(schema, col)
	}
	return schema
}
