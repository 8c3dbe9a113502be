package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"product-sheets-service/internal/importer"
	"product-sheets-service/internal/models"
)

const bytesPerMB = 1 << 20

type ImportHandler struct {
	orch          *importer.Orchestrator
	maxUploadSize int64
	logger        *logrus.Entry
}

func NewImportHandler(orch *importer.Orchestrator, maxUploadMB int, logger *logrus.Logger) *ImportHandler {
	if maxUploadMB <= 0 {
		maxUploadMB = 10
	}
	return &ImportHandler{
		orch:          orch,
		maxUploadSize: int64(maxUploadMB) * bytesPerMB,
		logger:        logger.WithField("component", "import_handler"),
	}
}

// OpenSession starts an import dialog
// @Summary Open import session
// @Tags Import
// @Produce json
// @Success 201 {object} models.SuccessResponse
// @Failure 401 {object} models.ErrorResponse
// @Router /products/import/sessions [post]
func (h *ImportHandler) OpenSession(c *gin.Context) {
	s, err := h.orch.Open(c.Request.Context(), c.GetString("tenant_id"), c.GetString("user_id"))
	if err != nil {
		h.logger.WithError(err).Error("Failed to open import session")
		respondSessionError(c, err, nil)
		return
	}
	h.respond(c, http.StatusCreated, s)
}

// GetSession returns the session with its row preview
// @Summary Get import session
// @Tags Import
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} models.SuccessResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /products/import/sessions/{id} [get]
func (h *ImportHandler) GetSession(c *gin.Context) {
	s, ok := h.load(c)
	if !ok {
		return
	}
	h.respond(c, http.StatusOK, s)
}

// UploadFile parses the spreadsheet into the session
// @Summary Upload import file
// @Description Parses and validates an .xlsx file; the session moves to preview
// @Tags Import
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "Session ID"
// @Param file formData file true "Excel file"
// @Success 200 {object} models.SuccessResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Failure 413 {object} models.ErrorResponse
// @Failure 422 {object} models.ErrorResponse
// @Router /products/import/sessions/{id}/file [post]
func (h *ImportHandler) UploadFile(c *gin.Context) {
	if _, ok := h.load(c); !ok {
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadSize+bytesPerMB)
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(c, http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE", "File vượt quá dung lượng cho phép")
			return
		}
		respondError(c, http.StatusBadRequest, "FILE_REQUIRED", "Vui lòng chọn file Excel")
		return
	}
	defer file.Close()

	if header.Size > h.maxUploadSize {
		respondError(c, http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE", "File vượt quá dung lượng cho phép")
		return
	}

	s, err := h.orch.Upload(c.Request.Context(), c.Param("id"), header.Filename, file)
	if err != nil {
		respondSessionError(c, err, &s)
		return
	}
	h.respond(c, http.StatusOK, s)
}

// RepickFile drops the loaded file
// @Summary Choose another file
// @Tags Import
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} models.SuccessResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /products/import/sessions/{id}/file [delete]
func (h *ImportHandler) RepickFile(c *gin.Context) {
	if _, ok := h.load(c); !ok {
		return
	}
	s, err := h.orch.Repick(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondSessionError(c, err, &s)
		return
	}
	h.respond(c, http.StatusOK, s)
}

// ConfirmImport submits the loaded rows to the catalog
// @Summary Confirm import
// @Description Maps every row and sends the valid ones in one bulk request
// @Tags Import
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} models.SuccessResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Failure 502 {object} models.ErrorResponse
// @Router /products/import/sessions/{id}/confirm [post]
func (h *ImportHandler) ConfirmImport(c *gin.Context) {
	if _, ok := h.load(c); !ok {
		return
	}
	s, err := h.orch.Confirm(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondSessionError(c, err, &s)
		return
	}
	h.respond(c, http.StatusOK, s)
}

// CloseSession discards the session
// @Summary Close import session
// @Tags Import
// @Produce json
// @Param id path string true "Session ID"
// @Success 204
// @Failure 404 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /products/import/sessions/{id} [delete]
func (h *ImportHandler) CloseSession(c *gin.Context) {
	if _, ok := h.load(c); !ok {
		return
	}
	if err := h.orch.Close(c.Request.Context(), c.Param("id")); err != nil {
		respondSessionError(c, err, nil)
		return
	}
	c.Status(http.StatusNoContent)
}

// load fetches the session named in the path. Sessions of other tenants are
// reported as missing.
func (h *ImportHandler) load(c *gin.Context) (importer.Session, bool) {
	s, err := h.orch.Get(c.Request.Context(), c.Param("id"))
	if err == nil && s.TenantID != c.GetString("tenant_id") {
		err = importer.ErrSessionNotFound
	}
	if err != nil {
		respondSessionError(c, err, nil)
		return importer.Session{}, false
	}
	return s, true
}

func (h *ImportHandler) respond(c *gin.Context, status int, s importer.Session) {
	c.JSON(status, models.SuccessResponse{
		Success: true,
		Data:    importer.ViewOf(s, h.orch.PreviewLimit()),
	})
}
