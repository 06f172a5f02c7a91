package handler

import (
	"crypto/subtle"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	integrationapp "github.com/skubridge/backend/internal/application/integration"
	csvimport "github.com/skubridge/backend/internal/infrastructure/import"
	"github.com/skubridge/backend/internal/infrastructure/logger"
)

// Maximum upload size for mapping sheets (4MB covers any realistic catalog)
const maxMappingSheetSize = 4 << 20

// headerAdminSecret authenticates mapping uploads.
const headerAdminSecret = "X-Admin-Secret"

// MappingUploadHandler handles SKU mapping table uploads.
// The endpoint is secret-gated rather than JWT-gated: callers are
// operator scripts posting a CSV export, not interactive users.
type MappingUploadHandler struct {
	BaseHandler
	uploadService *integrationapp.UploadService
	adminSecret   string
}

// NewMappingUploadHandler creates a new MappingUploadHandler
func NewMappingUploadHandler(uploadService *integrationapp.UploadService, adminSecret string) *MappingUploadHandler {
	return &MappingUploadHandler{
		uploadService: uploadService,
		adminSecret:   adminSecret,
	}
}

// HandleUpload replaces the mapping table from a CSV sheet in the
// request body. The whole table is swapped at once; there is no
// partial update.
func (h *MappingUploadHandler) HandleUpload(c *gin.Context) {
	if h.adminSecret == "" {
		// Refusing is safer than accepting unauthenticated uploads.
		c.String(http.StatusInternalServerError, "Admin secret not configured")
		return
	}

	provided := c.GetHeader(headerAdminSecret)
	if subtle.ConstantTimeCompare([]byte(provided), []byte(h.adminSecret)) != 1 {
		c.String(http.StatusUnauthorized, "Unauthorized")
		return
	}

	sheet, err := io.ReadAll(io.LimitReader(c.Request.Body, maxMappingSheetSize+1))
	if err != nil {
		c.String(http.StatusBadRequest, "Failed to read request body")
		return
	}
	if len(sheet) > maxMappingSheetSize {
		c.String(http.StatusRequestEntityTooLarge, "Sheet too large")
		return
	}
	if len(sheet) == 0 {
		c.String(http.StatusBadRequest, "Empty body")
		return
	}

	result, err := h.uploadService.ReplaceMappings(c.Request.Context(), sheet)
	if err != nil {
		var missing *csvimport.MissingColumnError
		if errors.Is(err, csvimport.ErrEmptyFile) || errors.As(err, &missing) {
			c.String(http.StatusBadRequest, "Parse error: "+err.Error())
			return
		}
		logger.L(c.Request.Context()).Error("Mapping table store failed", zap.Error(err))
		c.String(http.StatusInternalServerError, "Failed to store mapping table")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"ok":          true,
		"skuCount":    result.SKUCount,
		"rowCount":    result.RowCount,
		"droppedRows": result.DroppedRows,
	})
}
