package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	integrationapp "github.com/skubridge/backend/internal/application/integration"
	"github.com/skubridge/backend/internal/domain/integration"
	"github.com/skubridge/backend/internal/infrastructure/logger"
)

// Maximum webhook payload size (64KB - inventory level payloads are tiny)
const maxWebhookPayloadSize = 65536

// Shopify webhook headers.
const (
	headerShopifyHmac      = "X-Shopify-Hmac-Sha256"
	headerShopifyTopic     = "X-Shopify-Topic"
	headerShopifyWebhookID = "X-Shopify-Webhook-Id"
)

// ShopifyWebhookHandler handles Shopify webhook deliveries.
// These endpoints are called by Shopify and authenticate via HMAC, not
// via the regular auth middleware. Responses are plain text: Shopify
// only cares about the status code, and the body phrase shows up
// verbatim in its delivery logs.
type ShopifyWebhookHandler struct {
	BaseHandler
	syncService *integrationapp.SyncService
}

// NewShopifyWebhookHandler creates a new ShopifyWebhookHandler
func NewShopifyWebhookHandler(syncService *integrationapp.SyncService) *ShopifyWebhookHandler {
	return &ShopifyWebhookHandler{
		syncService: syncService,
	}
}

// HandleInventoryLevelWebhook receives inventory level webhooks and
// pushes the update to the fulfillment system.
//
// Only a signature failure is rejected (401). Every other outcome is
// acknowledged with 200 so Shopify does not redeliver: skips return
// their reason phrase, successes return "OK", and processing failures
// return "Handled error" after the error is logged.
func (h *ShopifyWebhookHandler) HandleInventoryLevelWebhook(c *gin.Context) {
	// The raw body is needed for signature verification; read before
	// anything touches it.
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookPayloadSize+1))
	if err != nil {
		c.String(http.StatusBadRequest, "Failed to read request body")
		return
	}
	if len(payload) > maxWebhookPayloadSize {
		c.String(http.StatusRequestEntityTooLarge, "Payload too large")
		return
	}

	signature := c.GetHeader(headerShopifyHmac)
	topic := c.GetHeader(headerShopifyTopic)
	deliveryID := c.GetHeader(headerShopifyWebhookID)

	result, err := h.syncService.ProcessWebhook(c.Request.Context(), payload, signature, topic, deliveryID)
	if err != nil {
		if errors.Is(err, integration.ErrInvalidSignature) {
			c.String(http.StatusUnauthorized, "Invalid HMAC")
			return
		}

		// Processing errors are acknowledged. Redelivery would not fix
		// them and may repeat a partially applied update.
		logger.L(c.Request.Context()).Error("Webhook processing failed",
			zap.String("topic", topic),
			zap.String("delivery_id", deliveryID),
			zap.Error(err),
		)
		c.String(http.StatusOK, integration.ReasonHandledError)
		return
	}

	c.String(http.StatusOK, result.Reason)
}
