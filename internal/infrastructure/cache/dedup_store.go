// Package cache provides webhook delivery deduplication stores.
package cache

import (
	"context"
	"time"
)

// DedupStore records webhook delivery IDs so redelivered events can be
// acknowledged without re-running the sync. Entries expire after a TTL;
// Shopify stops retrying long before that.
type DedupStore interface {
	// MarkProcessed marks a delivery as seen. Returns true if the
	// delivery was newly marked, false if it was already seen.
	MarkProcessed(ctx context.Context, deliveryID string, ttl time.Duration) (bool, error)

	// Close releases any resources held by the store
	Close() error
}
