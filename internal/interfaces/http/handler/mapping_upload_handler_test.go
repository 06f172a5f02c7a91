package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	integrationapp "github.com/skubridge/backend/internal/application/integration"
	"github.com/skubridge/backend/internal/infrastructure/storage"
)

const uploadTestSecret = "admin-secret"

func newUploadTestHandler(adminSecret string) (*MappingUploadHandler, *storage.InMemoryMappingStore) {
	store := storage.NewInMemoryMappingStore()
	svc := integrationapp.NewUploadService(store)
	return NewMappingUploadHandler(svc, adminSecret), store
}

func performUpload(h *MappingUploadHandler, body []byte, headers map[string]string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodPost, "/admin/mappings/upload", bytes.NewReader(body))
	for k, v := range headers {
		c.Request.Header.Set(k, v)
	}
	h.HandleUpload(c)
	return w
}

func TestMappingUploadHandler_SecretNotConfigured(t *testing.T) {
	gin.SetMode(gin.TestMode)

	h, _ := newUploadTestHandler("")

	w := performUpload(h, []byte("sku,warehouse,location\n"), map[string]string{
		"X-Admin-Secret": "anything",
	})

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Admin secret not configured", w.Body.String())
}

func TestMappingUploadHandler_WrongSecret(t *testing.T) {
	gin.SetMode(gin.TestMode)

	h, _ := newUploadTestHandler(uploadTestSecret)

	t.Run("mismatched secret", func(t *testing.T) {
		w := performUpload(h, []byte("sku,warehouse,location\n"), map[string]string{
			"X-Admin-Secret": "wrong",
		})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("missing header", func(t *testing.T) {
		w := performUpload(h, []byte("sku,warehouse,location\n"), nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestMappingUploadHandler_EmptyBody(t *testing.T) {
	gin.SetMode(gin.TestMode)

	h, _ := newUploadTestHandler(uploadTestSecret)

	w := performUpload(h, nil, map[string]string{
		"X-Admin-Secret": uploadTestSecret,
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Empty body", w.Body.String())
}

func TestMappingUploadHandler_ParseError(t *testing.T) {
	gin.SetMode(gin.TestMode)

	h, _ := newUploadTestHandler(uploadTestSecret)

	// Header row is missing the location column.
	w := performUpload(h, []byte("sku,warehouse\nABC,Jeddah Club\n"), map[string]string{
		"X-Admin-Secret": uploadTestSecret,
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Parse error")
}

func TestMappingUploadHandler_Success(t *testing.T) {
	gin.SetMode(gin.TestMode)

	h, store := newUploadTestHandler(uploadTestSecret)

	sheet := "sku,warehouse,location\n" +
		"ABC,Jeddah Club,W1-A3\n" +
		"ABC,Riyadh Club,R-07\n" +
		"XYZ,Main,M-01\n"
	w := performUpload(h, []byte(sheet), map[string]string{
		"X-Admin-Secret": uploadTestSecret,
	})

	assert.Equal(t, http.StatusOK, w.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, true, resp["ok"])
	assert.Equal(t, float64(2), resp["skuCount"])
	assert.Equal(t, float64(3), resp["rowCount"])
	assert.Equal(t, float64(0), resp["droppedRows"])

	table, err := store.Load(context.Background())
	require.NoError(t, err)
	entry, ok := table.LookupSKU("ABC")
	require.True(t, ok)
	loc, ok := entry.Entry("Riyadh Club")
	require.True(t, ok)
	assert.Equal(t, "R-07", loc.Location)
}

func TestMappingUploadHandler_SheetTooLarge(t *testing.T) {
	gin.SetMode(gin.TestMode)

	h, _ := newUploadTestHandler(uploadTestSecret)

	body := bytes.Repeat([]byte("x"), maxMappingSheetSize+1)
	w := performUpload(h, body, map[string]string{
		"X-Admin-Secret": uploadTestSecret,
	})

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}
