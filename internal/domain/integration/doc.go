// Package integration contains the Integration bounded context.
// This context manages the inventory bridge between the commerce
// platform (Shopify) and the fulfillment system (SKULabs).
//
// Key concepts:
//   - VariantLookup: Port interface for resolving an inventory item to its variant
//   - FulfillmentGateway: Port interface for pushing stock placements downstream
//   - InventoryEvent: Value object decoded from an inventory level webhook
//   - SyncResult: Outcome of processing one webhook delivery
//
// Design Pattern: Ports & Adapters
//   - Ports (interfaces) are defined here in the domain layer
//   - Adapters (implementations) are in the infrastructure layer
package integration
