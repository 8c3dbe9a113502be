package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"product-sheets-service/internal/clients"
	"product-sheets-service/internal/importer"
	"product-sheets-service/internal/models"
	"product-sheets-service/internal/workbook"
)

func respondError(c *gin.Context, status int, code, message string) {
	c.JSON(status, models.ErrorResponse{
		Success: false,
		Error: models.Error{
			Code:    code,
			Message: message,
		},
	})
}

// respondSessionError maps an importer error to the error envelope. When the
// session carries a notice its text is the message shown to the user.
func respondSessionError(c *gin.Context, err error, s *importer.Session) {
	message := err.Error()
	if s != nil && s.Notice != nil {
		message = s.Notice.Message
	}

	var apiErr *clients.APIError
	switch {
	case errors.Is(err, importer.ErrSessionNotFound):
		respondError(c, http.StatusNotFound, "SESSION_NOT_FOUND", "Import session not found")
	case errors.Is(err, importer.ErrImportInFlight):
		respondError(c, http.StatusConflict, "IMPORT_IN_PROGRESS", "An import is already running for this session")
	case errors.Is(err, importer.ErrInvalidTransition):
		respondError(c, http.StatusConflict, "INVALID_STATE", err.Error())
	case errors.Is(err, importer.ErrUnsupportedFile):
		respondError(c, http.StatusBadRequest, "INVALID_FORMAT", message)
	case errors.Is(err, workbook.ErrParse), errors.Is(err, workbook.ErrNoHeader):
		respondError(c, http.StatusUnprocessableEntity, "PARSE_FAILED", message)
	case errors.As(err, &apiErr):
		respondError(c, http.StatusBadGateway, "BACKEND_ERROR", message)
	default:
		respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", message)
	}
}
