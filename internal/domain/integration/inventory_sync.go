package integration

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

// ---------------------------------------------------------------------------
// Inventory Sync Errors
// ---------------------------------------------------------------------------

var (
	// Webhook errors
	ErrInvalidSignature = errors.New("integration: invalid webhook signature")

	// Platform errors
	ErrPlatformNotConfigured = errors.New("integration: platform not configured")
	ErrPlatformRequestFailed = errors.New("integration: platform request failed")

	// Fulfillment errors
	ErrFulfillmentRequestFailed = errors.New("integration: fulfillment request failed")
)

// TopicInventoryLevelUpdate is the only webhook topic this service acts
// on. Deliveries for any other topic are acknowledged and ignored.
const TopicInventoryLevelUpdate = "inventory_levels/update"

// InventoryEvent is the decoded payload of an inventory level webhook.
type InventoryEvent struct {
	InventoryItemID string          `validate:"required"`
	Available       decimal.Decimal `validate:"-"`
}

// VariantInfo is the product variant resolved from an inventory item,
// together with the warehouse key derived from the location it belongs
// to. WarehouseKey falls back through location title, then the first
// option, then "Default".
type VariantInfo struct {
	SKU          string
	WarehouseKey string
}

// VariantLookup resolves an inventory item ID to a variant. A nil
// VariantInfo with a nil error means the variant could not be resolved
// and the event should be skipped, not retried.
type VariantLookup interface {
	LookupVariant(ctx context.Context, inventoryItemID string) (*VariantInfo, error)
}

// ItemUpsert is one stock placement pushed to the fulfillment system.
type ItemUpsert struct {
	SKU       string
	Warehouse string
	Location  string
	OnHand    decimal.Decimal
}

// FulfillmentGateway pushes stock levels to the fulfillment system.
type FulfillmentGateway interface {
	UpsertItem(ctx context.Context, item ItemUpsert) error
}

// ---------------------------------------------------------------------------
// Sync Result
// ---------------------------------------------------------------------------

// SyncStatus is the terminal state of one webhook delivery.
type SyncStatus string

const (
	SyncStatusSynced  SyncStatus = "synced"
	SyncStatusSkipped SyncStatus = "skipped"
	SyncStatusFailed  SyncStatus = "failed"
)

// Webhook acknowledgement phrases. These are returned verbatim in the
// response body, so operators can tell from delivery logs alone why an
// event did or did not reach the fulfillment system.
const (
	ReasonOK              = "OK"
	ReasonIgnoredTopic    = "Ignored topic"
	ReasonMissingFields   = "Missing fields; skipped"
	ReasonNoVariant       = "No variant; skipped"
	ReasonNoTable         = "No SKU map; skipped"
	ReasonNoSKUEntry      = "No SKU entry; skipped"
	ReasonNoLocationEntry = "No location entry; skipped"
	ReasonDuplicate       = "Duplicate delivery; skipped"
	ReasonHandledError    = "Handled error"
)

// SyncResult records what happened to one webhook delivery.
type SyncResult struct {
	Status    SyncStatus
	Reason    string
	SKU       string
	Warehouse string
	Location  string
}

// Synced marks a delivery that reached the fulfillment system.
func Synced(sku, warehouse, location string) *SyncResult {
	return &SyncResult{
		Status:    SyncStatusSynced,
		Reason:    ReasonOK,
		SKU:       sku,
		Warehouse: warehouse,
		Location:  location,
	}
}

// Skipped marks a delivery that was acknowledged without side effects.
func Skipped(reason string) *SyncResult {
	return &SyncResult{Status: SyncStatusSkipped, Reason: reason}
}

// Failed marks a delivery that hit an unexpected error. It is still
// acknowledged so the sender does not redeliver an event whose downstream
// effect may have partially happened.
func Failed() *SyncResult {
	return &SyncResult{Status: SyncStatusFailed, Reason: ReasonHandledError}
}
