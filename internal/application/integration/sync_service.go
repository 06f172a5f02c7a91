// Package integration orchestrates the inventory sync pipeline between
// the commerce platform and the fulfillment system.
package integration

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/skubridge/backend/internal/domain/integration"
	"github.com/skubridge/backend/internal/domain/mapping"
	"github.com/skubridge/backend/internal/infrastructure/cache"
	"github.com/skubridge/backend/internal/infrastructure/shopify"
	"github.com/skubridge/backend/internal/infrastructure/telemetry"
)

// inventoryLevelPayload is the wire shape of an inventory level webhook.
// Pointer fields distinguish absent keys from zero values; both are
// treated as missing.
type inventoryLevelPayload struct {
	InventoryItemID json.Number  `json:"inventory_item_id"`
	Available       *json.Number `json:"available"`
}

// SyncService processes inventory level webhooks end to end: verify,
// deduplicate, resolve the variant, map it to a warehouse location, and
// push the stock level downstream.
type SyncService struct {
	webhookSecret string
	variants      integration.VariantLookup
	mappings      mapping.Store
	fulfillment   integration.FulfillmentGateway
	names         *mapping.NameNormalizer

	dedup    cache.DedupStore
	dedupTTL time.Duration
	metrics  *telemetry.SyncMetrics
	logger   *zap.Logger
	validate *validator.Validate
}

// SyncServiceOption configures optional SyncService collaborators.
type SyncServiceOption func(*SyncService)

// WithDedupStore enables webhook delivery deduplication. Deliveries
// whose ID was already seen within ttl are skipped.
func WithDedupStore(store cache.DedupStore, ttl time.Duration) SyncServiceOption {
	return func(s *SyncService) {
		s.dedup = store
		s.dedupTTL = ttl
	}
}

// WithSyncMetrics enables metrics recording for sync outcomes.
func WithSyncMetrics(metrics *telemetry.SyncMetrics) SyncServiceOption {
	return func(s *SyncService) {
		s.metrics = metrics
	}
}

// WithLogger sets the service logger.
func WithLogger(logger *zap.Logger) SyncServiceOption {
	return func(s *SyncService) {
		s.logger = logger
	}
}

// NewSyncService creates a new SyncService.
func NewSyncService(
	webhookSecret string,
	variants integration.VariantLookup,
	mappings mapping.Store,
	fulfillment integration.FulfillmentGateway,
	names *mapping.NameNormalizer,
	opts ...SyncServiceOption,
) *SyncService {
	s := &SyncService{
		webhookSecret: webhookSecret,
		variants:      variants,
		mappings:      mappings,
		fulfillment:   fulfillment,
		names:         names,
		dedupTTL:      24 * time.Hour,
		logger:        zap.NewNop(),
		validate:      validator.New(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ProcessWebhook handles one webhook delivery. The raw body is verified
// against the shared secret before anything else; a bad signature
// returns integration.ErrInvalidSignature and is the only case the
// caller should reject outright.
//
// Every other outcome is acknowledged: skips return a SyncResult with
// the reason phrase, and downstream failures return both a failed
// SyncResult and the underlying error so the caller can log it without
// triggering a redelivery.
func (s *SyncService) ProcessWebhook(ctx context.Context, body []byte, signature, topic, deliveryID string) (*integration.SyncResult, error) {
	if !shopify.VerifySignature(s.webhookSecret, body, signature) {
		return nil, integration.ErrInvalidSignature
	}

	start := time.Now()
	if s.metrics != nil {
		s.metrics.RecordWebhookReceived(ctx, topic)
	}

	result, err := s.process(ctx, body, topic, deliveryID)

	if s.metrics != nil && result != nil {
		s.metrics.RecordSyncOutcome(ctx, string(result.Status), result.Reason)
		s.metrics.RecordSyncDuration(ctx, time.Since(start), string(result.Status))
	}
	return result, err
}

func (s *SyncService) process(ctx context.Context, body []byte, topic, deliveryID string) (*integration.SyncResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "inventory_sync", "process",
		telemetry.WithAttribute(telemetry.SpanAttrTopic, topic),
		telemetry.WithAttribute(telemetry.SpanAttrDeliveryID, deliveryID),
	)
	defer span.End()

	if topic != integration.TopicInventoryLevelUpdate {
		s.logger.Debug("Ignoring webhook topic", zap.String("topic", topic))
		return integration.Skipped(integration.ReasonIgnoredTopic), nil
	}

	if s.dedup != nil && deliveryID != "" {
		fresh, err := s.dedup.MarkProcessed(ctx, deliveryID, s.dedupTTL)
		if err != nil {
			// Dedup is best effort. An unreachable store must not
			// block inventory updates.
			s.logger.Warn("Dedup store unavailable, processing anyway",
				zap.String("delivery_id", deliveryID),
				zap.Error(err),
			)
		} else if !fresh {
			s.logger.Info("Duplicate webhook delivery",
				zap.String("delivery_id", deliveryID),
			)
			return integration.Skipped(integration.ReasonDuplicate), nil
		}
	}

	event, ok := s.decodeEvent(body)
	if !ok {
		return integration.Skipped(integration.ReasonMissingFields), nil
	}
	telemetry.SetAttribute(span, telemetry.SpanAttrInventoryItemID, event.InventoryItemID)

	variant, err := s.variants.LookupVariant(ctx, event.InventoryItemID)
	if err != nil {
		s.logger.Error("Variant lookup failed",
			zap.String("inventory_item_id", event.InventoryItemID),
			zap.Error(err),
		)
		telemetry.RecordError(span, err)
		return integration.Failed(), err
	}
	if variant == nil {
		return integration.Skipped(integration.ReasonNoVariant), nil
	}

	table, err := s.mappings.Load(ctx)
	if err != nil {
		if errors.Is(err, mapping.ErrTableNotFound) {
			return integration.Skipped(integration.ReasonNoTable), nil
		}
		s.logger.Error("Mapping table load failed", zap.Error(err))
		telemetry.RecordError(span, err)
		return integration.Failed(), err
	}

	sku := mapping.NormalizeSKU(variant.SKU)
	entry, ok := table.LookupSKU(sku)
	if !ok {
		s.logger.Info("SKU not in mapping table", zap.String("sku", sku))
		return integration.Skipped(integration.ReasonNoSKUEntry), nil
	}

	warehouseName := s.names.Normalize(variant.WarehouseKey)
	location, ok := entry.Entry(warehouseName)
	if !ok {
		s.logger.Info("No location for warehouse",
			zap.String("sku", sku),
			zap.String("warehouse", warehouseName),
		)
		return integration.Skipped(integration.ReasonNoLocationEntry), nil
	}

	item := integration.ItemUpsert{
		SKU:       sku,
		Warehouse: location.Warehouse,
		Location:  location.Location,
		OnHand:    event.Available,
	}
	if err := s.fulfillment.UpsertItem(ctx, item); err != nil {
		s.logger.Error("Fulfillment upsert failed",
			zap.String("sku", sku),
			zap.String("warehouse", location.Warehouse),
			zap.Error(err),
		)
		telemetry.RecordError(span, err)
		return integration.Failed(), err
	}

	s.logger.Info("Inventory level synced",
		zap.String("sku", sku),
		zap.String("warehouse", location.Warehouse),
		zap.String("location", location.Location),
		zap.String("on_hand", event.Available.String()),
	)
	telemetry.SetAttributes(span,
		telemetry.SpanAttrSKU, sku,
		telemetry.SpanAttrWarehouse, location.Warehouse,
		telemetry.SpanAttrLocation, location.Location,
	)
	return integration.Synced(sku, location.Warehouse, location.Location), nil
}

// decodeEvent parses the webhook body into an InventoryEvent. Any
// malformed or incomplete payload reports not-ok; the delivery is
// acknowledged without processing.
func (s *SyncService) decodeEvent(body []byte) (integration.InventoryEvent, bool) {
	var payload inventoryLevelPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		s.logger.Debug("Unparseable webhook payload", zap.Error(err))
		return integration.InventoryEvent{}, false
	}
	if payload.InventoryItemID.String() == "" || payload.Available == nil {
		return integration.InventoryEvent{}, false
	}

	available, err := decimal.NewFromString(payload.Available.String())
	if err != nil {
		s.logger.Debug("Non-numeric available quantity",
			zap.String("available", payload.Available.String()),
		)
		return integration.InventoryEvent{}, false
	}

	event := integration.InventoryEvent{
		InventoryItemID: payload.InventoryItemID.String(),
		Available:       available,
	}
	if err := s.validate.Struct(event); err != nil {
		return integration.InventoryEvent{}, false
	}
	return event, true
}
