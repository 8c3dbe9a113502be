package handlers

import (
	"bytes"
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"product-sheets-service/internal/mapping"
	"product-sheets-service/internal/metrics"
	"product-sheets-service/internal/models"
	"product-sheets-service/internal/workbook"
)

// Download file name prefixes
const (
	templateFileBase = "mau_nhap_san_pham"
	exportFileBase   = "danh_sach_san_pham"
)

// ProductSource is the backend data behind template and export downloads
type ProductSource interface {
	FetchReferenceData(ctx context.Context) (*models.ReferenceData, error)
	ListAllProducts(ctx context.Context, pageSize int) ([]models.Product, error)
}

type SheetsHandler struct {
	source   ProductSource
	builder  *workbook.Builder
	pageSize int
	logger   *logrus.Entry
	now      func() time.Time
}

func NewSheetsHandler(source ProductSource, builder *workbook.Builder, pageSize int, logger *logrus.Logger) *SheetsHandler {
	return &SheetsHandler{
		source:   source,
		builder:  builder,
		pageSize: pageSize,
		logger:   logger.WithField("component", "sheets_handler"),
		now:      time.Now,
	}
}

// GetTemplate downloads an empty import workbook
// @Summary Download import template
// @Description Product sheet with dropdowns for the tenant's product types and attributes, plus a guide sheet
// @Tags Import
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param example query bool false "Include an example row" default(true)
// @Success 200 {file} file
// @Failure 502 {object} models.ErrorResponse
// @Router /products/import/template [get]
func (h *SheetsHandler) GetTemplate(c *gin.Context) {
	example, err := strconv.ParseBool(c.DefaultQuery("example", "true"))
	if err != nil {
		example = true
	}

	ref, err := h.source.FetchReferenceData(c.Request.Context())
	if err != nil {
		h.logger.WithError(err).Error("Failed to load reference data for template")
		respondError(c, http.StatusBadGateway, "BACKEND_ERROR", "Không thể tải dữ liệu tham chiếu")
		return
	}

	h.send(c, "template", templateFileBase, ref, nil, example)
}

// ExportProducts downloads the tenant's products in the import layout
// @Summary Export products
// @Description Every product of the tenant in the import layout, so the file can be edited and imported back
// @Tags Import
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Success 200 {file} file
// @Failure 502 {object} models.ErrorResponse
// @Router /products/export [get]
func (h *SheetsHandler) ExportProducts(c *gin.Context) {
	ctx := c.Request.Context()

	ref, err := h.source.FetchReferenceData(ctx)
	if err != nil {
		h.logger.WithError(err).Error("Failed to load reference data for export")
		respondError(c, http.StatusBadGateway, "BACKEND_ERROR", "Không thể tải dữ liệu tham chiếu")
		return
	}
	products, err := h.source.ListAllProducts(ctx, h.pageSize)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list products for export")
		respondError(c, http.StatusBadGateway, "BACKEND_ERROR", "Không thể tải danh sách sản phẩm")
		return
	}

	rows := make([]models.RowRecord, len(products))
	for i, p := range products {
		rows[i] = mapping.ToRecord(p, ref)
	}
	h.send(c, "export", exportFileBase, ref, rows, false)
}

func (h *SheetsHandler) send(c *gin.Context, kind, base string, ref *models.ReferenceData, rows []models.RowRecord, example bool) {
	var buf bytes.Buffer
	if err := h.builder.WriteProductWorkbook(&buf, ref, rows, example); err != nil {
		h.logger.WithError(err).WithField("kind", kind).Error("Failed to build workbook")
		respondError(c, http.StatusInternalServerError, "WORKBOOK_FAILED", "Không thể tạo file Excel")
		return
	}

	metrics.ObserveWorkbook(kind)
	c.Header("Content-Disposition", "attachment; filename="+workbook.FileName(base, h.now()))
	c.Data(http.StatusOK, workbook.ContentType, buf.Bytes())
}
