package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeaderLabel(t *testing.T) {
	assert.Equal(t, "Tên sản phẩm *", Column{Header: "Tên sản phẩm", Required: true}.HeaderLabel())
	assert.Equal(t, "Slug", Column{Header: "Slug"}.HeaderLabel())
}

func TestSchemaCheckKeys(t *testing.T) {
	ok := Schema{{Header: "A", Key: "a"}, {Header: "B", Key: "b"}}
	assert.NoError(t, ok.CheckKeys())

	dup := Schema{{Header: "A", Key: "a"}, {Header: "B", Key: "a"}}
	assert.ErrorIs(t, dup.CheckKeys(), ErrDuplicateKey)

	blank := Schema{{Header: "A", Key: " "}}
	assert.ErrorIs(t, blank.CheckKeys(), ErrEmptyKey)
}

func TestSchemaLookup(t *testing.T) {
	schema := Schema{
		{Header: "Tên sản phẩm", Key: "name", Required: true},
		{Header: "Giá bán", Key: "price", Type: ColumnNumber},
	}

	tests := []struct {
		label string
		key   string
		found bool
	}{
		{"Tên sản phẩm *", "name", true},
		{"  tên sản phẩm ", "name", true},
		{"Giá bán*", "price", true},
		{"price", "price", true},
		{"Xuất xứ", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		col, ok := schema.Lookup(tt.label)
		assert.Equal(t, tt.found, ok, tt.label)
		assert.Equal(t, tt.key, col.Key, tt.label)
	}
}

func TestSchemaDecode(t *testing.T) {
	schema := Schema{
		{Header: "Tên", Key: "name"},
		{Header: "Giá", Key: "price", Type: ColumnNumber},
		{Header: "Kích hoạt", Key: "active", Type: ColumnBoolean},
		{Header: "Loại", Key: "type", Type: ColumnSelect, Options: []string{"Vang đỏ"}},
	}
	rec := NewRowRecord(4)
	rec.Set("name", Text("  Vang A "))
	rec.Set("price", Text("500000"))
	rec.Set("active", Text("Không"))
	rec.Set("type", Text("Vang đỏ"))
	rec.Set("extra", Text("kept"))

	out := schema.Decode(rec)
	assert.Equal(t, 4, out.Row)
	assert.Equal(t, Text("Vang A"), out.Values["name"])
	assert.Equal(t, Number(500000), out.Values["price"])
	assert.Equal(t, Bool(false), out.Values["active"])
	assert.Equal(t, Text("Vang đỏ"), out.Values["type"])
	assert.Equal(t, Text("kept"), out.Values["extra"])

	bad := NewRowRecord(5)
	bad.Set("price", Text("abc"))
	assert.Equal(t, Text("abc"), schema.Decode(bad).Values["price"])
}

func TestValueJSON(t *testing.T) {
	rec := NewRowRecord(2)
	rec.Set("name", Text("Vang"))
	rec.Set("price", Number(12.5))
	rec.Set("active", Bool(true))

	data, err := json.Marshal(rec)
	require.NoError(t, err)
	assert.JSONEq(t, `{"row":2,"values":{"name":"Vang","price":12.5,"active":true}}`, string(data))

	var back RowRecord
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, rec, back)
}

func TestParseNumber(t *testing.T) {
	tests := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"500000", 500000, true},
		{" 12.5 ", 12.5, true},
		{"-3", -3, true},
		{"abc", 0, false},
		{"NaN", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		got, ok := ParseNumber(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestProductSchemaAttributes(t *testing.T) {
	minV, maxV := 5.0, 20.0
	ref := &ReferenceData{
		Types: []ProductType{{ID: "t1", Name: "Rượu vang đỏ", Slug: "ruou-vang-do"}},
		Attributes: map[string][]Attribute{
			"t1": {
				{ID: "a1", Name: "Quốc gia", Slug: "quoc-gia", FilterType: FilterSingleSelect, Values: []string{"Pháp", "Ý"}},
				{ID: "a2", Name: "Nồng độ", Slug: "nong-do", FilterType: FilterRange, InputType: InputNumber, Min: &minV, Max: &maxV},
				{ID: "a3", Name: "Giống nho", Slug: "giong-nho", FilterType: FilterMultiSelect, Values: []string{"Merlot"}},
			},
		},
	}

	schema := ProductSchema(ref)
	require.NoError(t, schema.CheckKeys())

	typeCol, ok := schema.ByKey(KeyProductType)
	require.True(t, ok)
	assert.Equal(t, []string{"Rượu vang đỏ"}, typeCol.Options)

	country, ok := schema.ByKey(AttributeKey("quoc-gia"))
	require.True(t, ok)
	assert.Equal(t, ColumnSelect, country.Type)
	assert.Equal(t, "Pháp", country.Example)

	abv, _ := schema.ByKey(AttributeKey("nong-do"))
	assert.Equal(t, ColumnNumber, abv.Type)

	grapes, _ := schema.ByKey(AttributeKey("giong-nho"))
	assert.Equal(t, ColumnText, grapes.Type)
}

func TestProductSchemaSharedAttributeSlug(t *testing.T) {
	ref := &ReferenceData{
		Types: []ProductType{
			{ID: "t1", Name: "Rượu vang đỏ", Slug: "ruou-vang-do"},
			{ID: "t2", Name: "Whisky", Slug: "whisky"},
		},
		Attributes: map[string][]Attribute{
			"t1": {
				{ID: "a1", Name: "Dung tích", Slug: "dung-tich", FilterType: FilterSingleSelect, Values: []string{"750ml", "1.5L"}},
				{ID: "a2", Name: "Vùng", Slug: "vung", FilterType: FilterSingleSelect, Values: []string{"Bordeaux"}},
			},
			"t2": {
				{ID: "b1", Name: "Dung tích", Slug: "dung-tich", FilterType: FilterSingleSelect, Values: []string{"700ml", "750ML"}},
				{ID: "b2", Name: "Vùng", Slug: "vung", FilterType: FilterText},
			},
		},
	}

	schema := ProductSchema(ref)
	require.NoError(t, schema.CheckKeys())

	volume, ok := schema.ByKey(AttributeKey("dung-tich"))
	require.True(t, ok)
	assert.Equal(t, ColumnSelect, volume.Type)
	assert.Equal(t, []string{"750ml", "1.5L", "700ml"}, volume.Options)
	assert.True(t, volume.HasOption("700ml"))

	region, ok := schema.ByKey(AttributeKey("vung"))
	require.True(t, ok)
	assert.Equal(t, ColumnText, region.Type)

	// the reference data itself is left untouched
	assert.Equal(t, []string{"750ml", "1.5L"}, ref.Attributes["t1"][0].Values)
	assert.Equal(t, FilterSingleSelect, ref.Attributes["t1"][1].FilterType)
}
