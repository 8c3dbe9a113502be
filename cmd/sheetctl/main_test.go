package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"product-sheets-service/internal/clients"
	"product-sheets-service/internal/importer"
	"product-sheets-service/internal/models"
	"product-sheets-service/internal/workbook"
)

func writeFile(t *testing.T, rows ...models.RowRecord) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "san-pham.xlsx")
	f, err := workbook.NewBuilder().ProductWorkbook(nil, rows, false)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, f.SaveAs(path))
	return path
}

func row(name string, price models.Value) models.RowRecord {
	rec := models.NewRowRecord(0)
	rec.Set(models.KeyName, models.Text(name))
	rec.Set(models.KeyProductType, models.Text("Phụ kiện"))
	rec.Set(models.KeyPrice, price)
	return rec
}

func TestValidateFileOffline(t *testing.T) {
	path := writeFile(t, row("Khui rượu", models.Number(90000)))

	var out bytes.Buffer
	require.NoError(t, validateFile(&out, path, offlineSchema()))
	assert.Contains(t, out.String(), "san-pham.xlsx: sheet \"Sản phẩm\", 1 dòng")
	assert.Contains(t, out.String(), "Tất cả các dòng hợp lệ")
}

func TestValidateFileReportsRows(t *testing.T) {
	path := writeFile(t, row("Khui rượu", models.Text("abc")), row("", models.Number(1)))

	var out bytes.Buffer
	err := validateFile(&out, path, offlineSchema())
	assert.ErrorIs(t, err, errInvalidRows)
	assert.Contains(t, out.String(), "Dòng 2: Giá bán phải là số")
	assert.Contains(t, out.String(), "Dòng 3: Tên sản phẩm là bắt buộc")
	assert.Contains(t, out.String(), "2/2 dòng chưa hợp lệ")
}

func TestValidateFileMissing(t *testing.T) {
	err := validateFile(&bytes.Buffer{}, filepath.Join(t.TempDir(), "none.xlsx"), offlineSchema())
	assert.Error(t, err)
}

func TestOfflineSchemaRelaxesEmptySelects(t *testing.T) {
	col, ok := offlineSchema().ByKey(models.KeyProductType)
	require.True(t, ok)
	assert.Equal(t, models.ColumnText, col.Type)
	assert.True(t, col.Required)
}

type stubCatalog struct {
	submitted int
}

func (s *stubCatalog) FetchReferenceData(context.Context) (*models.ReferenceData, error) {
	return &models.ReferenceData{Types: []models.ProductType{{ID: "t1", Name: "Phụ kiện", Slug: "phu-kien"}}}, nil
}

func (s *stubCatalog) BulkImport(_ context.Context, products []models.MappedProduct) (*models.ImportResult, error) {
	s.submitted += len(products)
	return &models.ImportResult{
		Success: true,
		Results: models.ImportCounts{
			Created: len(products) - 1,
			Failed:  1,
			Errors:  []models.ImportRowError{{Row: 3, Name: "Ly vang", Error: "SKU đã tồn tại"}},
		},
	}, nil
}

func TestImportFile(t *testing.T) {
	path := writeFile(t, row("Khui rượu", models.Number(90000)), row("Ly vang", models.Number(150000)))
	file, err := os.Open(path)
	require.NoError(t, err)
	defer file.Close()

	catalog := &stubCatalog{}
	store := importer.NewMemoryStore(0)
	orch := importer.New(store, catalog)
	ctx := clients.WithUser(context.Background(), clients.UserContext{TenantID: "tenant-1"})

	var out bytes.Buffer
	require.NoError(t, importFile(ctx, &out, orch, "san-pham.xlsx", file))

	assert.Equal(t, 2, catalog.submitted)
	assert.Contains(t, out.String(), "Đọc 2 dòng từ san-pham.xlsx")
	assert.Contains(t, out.String(), "[warning] Nhập sản phẩm hoàn tất với lỗi: 1 tạo mới, 0 cập nhật, 1 lỗi")
	assert.Contains(t, out.String(), "Dòng 3 (Ly vang): SKU đã tồn tại")
}

func TestImportFileUnsupported(t *testing.T) {
	orch := importer.New(importer.NewMemoryStore(0), &stubCatalog{})

	var out bytes.Buffer
	err := importFile(context.Background(), &out, orch, "san-pham.csv", bytes.NewReader(nil))
	assert.ErrorIs(t, err, importer.ErrUnsupportedFile)
	assert.Contains(t, out.String(), "[error]")
}
