package mapping

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"product-sheets-service/internal/models"
)

func referenceFixture() *models.ReferenceData {
	minV, maxV := 5.0, 20.0
	return &models.ReferenceData{
		Types: []models.ProductType{
			{ID: "t1", Name: "Rượu vang đỏ", Slug: "ruou-vang-do"},
			{ID: "t2", Name: "Phụ kiện", Slug: "phu-kien"},
		},
		Categories: []models.Category{
			{ID: "c1", Name: "Vang Pháp", Slug: "vang-phap"},
			{ID: "c2", Name: "Vang Bordeaux", Slug: "vang-bordeaux"},
		},
		Attributes: map[string][]models.Attribute{
			"t1": {
				{ID: "a1", Name: "Quốc gia", Slug: "quoc-gia", FilterType: models.FilterSingleSelect, Values: []string{"Pháp", "Ý"}},
				{ID: "a2", Name: "Nồng độ", Slug: "nong-do", FilterType: models.FilterRange, InputType: models.InputNumber, Min: &minV, Max: &maxV, Unit: "%"},
				{ID: "a3", Name: "Giống nho", Slug: "giong-nho", FilterType: models.FilterMultiSelect, Values: []string{"Merlot", "Cabernet Sauvignon"}},
				{ID: "a4", Name: "Ghi chú", Slug: "ghi-chu", FilterType: models.FilterText},
			},
			"t2": {
				{ID: "a5", Name: "Chất liệu", Slug: "chat-lieu", FilterType: models.FilterText},
			},
		},
	}
}

func wineRow(row int) models.RowRecord {
	rec := models.NewRowRecord(row)
	rec.Set(models.KeyName, models.Text("Château Margaux 2015"))
	rec.Set(models.KeyProductType, models.Text("rượu vang đỏ"))
	rec.Set(models.KeyCategories, models.Text("vang pháp; Vang Bordeaux"))
	rec.Set(models.KeyPrice, models.Number(12500000))
	rec.Set(models.KeySalePrice, models.Text("11000000"))
	rec.Set(models.KeyStock, models.Number(24))
	rec.Set(models.KeyActive, models.Text("Không"))
	rec.Set(models.AttributeKey("quoc-gia"), models.Text("pháp"))
	rec.Set(models.AttributeKey("nong-do"), models.Number(13.5))
	rec.Set(models.AttributeKey("giong-nho"), models.Text("merlot, Cabernet Sauvignon"))
	return rec
}

func TestMapValidRow(t *testing.T) {
	m := NewMapper(referenceFixture())

	p, mErr := m.Map(wineRow(4))
	require.Nil(t, mErr)

	assert.Equal(t, 4, p.Row)
	assert.Equal(t, "Château Margaux 2015", p.Name)
	assert.Equal(t, "chateau-margaux-2015", p.Slug)
	assert.Equal(t, "t1", p.ProductTypeID)
	assert.Equal(t, []string{"c1", "c2"}, p.CategoryIDs)
	assert.Equal(t, 12500000.0, p.Price)
	require.NotNil(t, p.SalePrice)
	assert.Equal(t, 11000000.0, *p.SalePrice)
	require.NotNil(t, p.Stock)
	assert.Equal(t, 24, *p.Stock)
	assert.False(t, p.IsActive)
	assert.Equal(t, []models.AttributeValue{
		{AttributeID: "a3", Slug: "giong-nho", Values: []string{"Merlot", "Cabernet Sauvignon"}},
		{AttributeID: "a2", Slug: "nong-do", Values: []string{"13.5"}},
		{AttributeID: "a1", Slug: "quoc-gia", Values: []string{"Pháp"}},
	}, p.Attributes)
}

func TestMapDefaults(t *testing.T) {
	rec := models.NewRowRecord(2)
	rec.Set(models.KeyName, models.Text("Dụng cụ mở rượu"))
	rec.Set(models.KeySlug, models.Text("Mo Ruou Pro"))
	rec.Set(models.KeyProductType, models.Text("phu-kien"))
	rec.Set(models.KeyPrice, models.Text("150000"))

	p, mErr := NewMapper(referenceFixture()).Map(rec)
	require.Nil(t, mErr)
	assert.Equal(t, "mo-ruou-pro", p.Slug)
	assert.Equal(t, "t2", p.ProductTypeID)
	assert.True(t, p.IsActive)
	assert.Nil(t, p.Stock)
	assert.Nil(t, p.SalePrice)
	assert.Empty(t, p.CategoryIDs)
}

func TestMapErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*models.RowRecord)
		want   string
	}{
		{"missing name", func(r *models.RowRecord) { delete(r.Values, models.KeyName) }, "Tên sản phẩm là bắt buộc"},
		{"missing type", func(r *models.RowRecord) { delete(r.Values, models.KeyProductType) }, "Loại sản phẩm là bắt buộc"},
		{"unknown type", func(r *models.RowRecord) { r.Set(models.KeyProductType, models.Text("Bia")) }, "Loại sản phẩm không hợp lệ: Bia"},
		{"unknown category", func(r *models.RowRecord) { r.Set(models.KeyCategories, models.Text("Vang Pháp, Vang Ý")) }, "Danh mục không tồn tại: Vang Ý"},
		{"missing price", func(r *models.RowRecord) { delete(r.Values, models.KeyPrice) }, "Giá bán là bắt buộc"},
		{"price not numeric", func(r *models.RowRecord) { r.Set(models.KeyPrice, models.Text("abc")) }, "Giá bán phải là số"},
		{"negative price", func(r *models.RowRecord) { r.Set(models.KeyPrice, models.Number(-1)) }, "Giá bán không được âm"},
		{"sale above price", func(r *models.RowRecord) { r.Set(models.KeySalePrice, models.Number(13000000)) }, "Giá khuyến mãi không được lớn hơn Giá bán"},
		{"fractional stock", func(r *models.RowRecord) { r.Set(models.KeyStock, models.Number(2.5)) }, "Tồn kho phải là số nguyên không âm"},
		{"bad active flag", func(r *models.RowRecord) { r.Set(models.KeyActive, models.Text("có lẽ")) }, "Kích hoạt phải là Có hoặc Không"},
		{"single select value", func(r *models.RowRecord) { r.Set(models.AttributeKey("quoc-gia"), models.Text("Chile")) }, "Quốc gia có giá trị không hợp lệ: Chile"},
		{"multi select value", func(r *models.RowRecord) { r.Set(models.AttributeKey("giong-nho"), models.Text("Merlot, Syrah")) }, "Giống nho có giá trị không hợp lệ: Syrah"},
		{"range bounds", func(r *models.RowRecord) { r.Set(models.AttributeKey("nong-do"), models.Number(42)) }, "Nồng độ phải nằm trong khoảng 5 - 20"},
		{"range not numeric", func(r *models.RowRecord) { r.Set(models.AttributeKey("nong-do"), models.Text("cao")) }, "Nồng độ phải là số"},
		{"attribute of other type", func(r *models.RowRecord) {
			r.Set(models.KeyProductType, models.Text("Phụ kiện"))
			delete(r.Values, models.AttributeKey("giong-nho"))
			delete(r.Values, models.AttributeKey("nong-do"))
		}, "Thuộc tính Quốc gia không áp dụng cho loại Phụ kiện"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := wineRow(6)
			tt.mutate(&rec)

			p, mErr := NewMapper(referenceFixture()).Map(rec)
			assert.Nil(t, p)
			require.NotNil(t, mErr)
			assert.Equal(t, 6, mErr.Row)
			assert.Contains(t, mErr.Message, tt.want)
		})
	}
}

func TestMapCollectsAllProblems(t *testing.T) {
	rec := models.NewRowRecord(3)
	rec.Set(models.KeyName, models.Text("Vang X"))
	rec.Set(models.KeyProductType, models.Text("Bia"))
	rec.Set(models.KeyCategories, models.Text("Không có"))

	_, mErr := NewMapper(referenceFixture()).Map(rec)
	require.NotNil(t, mErr)
	assert.Equal(t, "Vang X", mErr.Name)
	assert.Equal(t, "Loại sản phẩm không hợp lệ: Bia; Danh mục không tồn tại: Không có; Giá bán là bắt buộc", mErr.Message)
}

func TestMapAll(t *testing.T) {
	bad := models.NewRowRecord(3)
	bad.Set(models.KeyName, models.Text("Vang lỗi"))

	mapped, failed := NewMapper(referenceFixture()).MapAll([]models.RowRecord{wineRow(2), bad, wineRow(4)})
	require.Len(t, mapped, 2)
	assert.Equal(t, 2, mapped[0].Row)
	assert.Equal(t, 4, mapped[1].Row)
	require.Len(t, failed, 1)
	assert.Equal(t, 3, failed[0].Row)
	assert.Equal(t, "Vang lỗi", failed[0].Name)
}

func TestMapperCachesLookups(t *testing.T) {
	m := NewMapper(referenceFixture())
	_, mErr := m.Map(wineRow(2))
	require.Nil(t, mErr)

	assert.Contains(t, m.typeCache, "rượu vang đỏ")
	assert.Contains(t, m.categoryCache, "vang pháp")
	assert.Contains(t, m.categoryCache, "vang bordeaux")
}

func TestToRecordRoundTrip(t *testing.T) {
	ref := referenceFixture()
	sale, stock := 9000000.0, 6
	product := models.Product{
		ID:            "p1",
		Name:          "Sassicaia 2018",
		Slug:          "sassicaia-2018",
		SKU:           "SAS-18",
		ProductTypeID: "t1",
		CategoryIDs:   []string{"c2"},
		Price:         9500000,
		SalePrice:     &sale,
		Stock:         &stock,
		IsActive:      true,
		Attributes: []models.AttributeValue{
			{AttributeID: "a1", Values: []string{"Ý"}},
			{AttributeID: "a2", Values: []string{"14"}},
		},
	}

	rec := ToRecord(product, ref)
	assert.Equal(t, "Rượu vang đỏ", rec.Text(models.KeyProductType))
	assert.Equal(t, "Vang Bordeaux", rec.Text(models.KeyCategories))
	assert.Equal(t, models.Number(14), rec.Values[models.AttributeKey("nong-do")])
	assert.Equal(t, models.Bool(true), rec.Values[models.KeyActive])

	mapped, mErr := NewMapper(ref).Map(rec)
	require.Nil(t, mErr)
	assert.Equal(t, product.Name, mapped.Name)
	assert.Equal(t, product.Slug, mapped.Slug)
	assert.Equal(t, product.SKU, mapped.SKU)
	assert.Equal(t, product.ProductTypeID, mapped.ProductTypeID)
	assert.Equal(t, product.CategoryIDs, mapped.CategoryIDs)
	assert.Equal(t, product.Price, mapped.Price)
	assert.Equal(t, product.SalePrice, mapped.SalePrice)
	assert.Equal(t, product.Stock, mapped.Stock)
	assert.Equal(t, product.IsActive, mapped.IsActive)
	assert.ElementsMatch(t, []models.AttributeValue{
		{AttributeID: "a1", Slug: "quoc-gia", Values: []string{"Ý"}},
		{AttributeID: "a2", Slug: "nong-do", Values: []string{"14"}},
	}, mapped.Attributes)
}

func TestSlugify(t *testing.T) {
	tests := map[string]string{
		"Château Margaux 2015":  "chateau-margaux-2015",
		"Rượu vang Đà Lạt":      "ruou-vang-da-lat",
		"  --Hello, World!! ":   "hello-world",
		"already-a-slug":        "already-a-slug",
		"":                      "",
		"Bánh mì & phô mai 100%": "banh-mi-pho-mai-100",
	}
	for in, want := range tests {
		assert.Equal(t, want, Slugify(in), in)
	}
}

func TestMapWithValidator(t *testing.T) {
	v := NewValidator()
	v.RegisterStructValidation(func(sl validator.StructLevel) {
		p := sl.Current().Interface().(models.MappedProduct)
		if p.SKU == "" {
			sl.ReportError(p.SKU, "sku", "SKU", "required", "")
		}
	}, models.MappedProduct{})

	m := NewMapper(referenceFixture(), WithValidator(v))
	_, mErr := m.Map(wineRow(2))
	require.NotNil(t, mErr)
	assert.Equal(t, "Trường sku là bắt buộc", mErr.Message)

	rec := wineRow(3)
	rec.Set(models.KeySKU, models.Text("CM-2015"))
	_, mErr = m.Map(rec)
	assert.Nil(t, mErr)
}
