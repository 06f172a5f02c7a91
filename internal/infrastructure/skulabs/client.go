// Package skulabs pushes stock placements to the SKULabs fulfillment
// API.
package skulabs

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/skubridge/backend/internal/domain/integration"
)

// maxResponseSize caps how much of an error body is retained (64KB).
// SKULabs error payloads are small; anything bigger is noise.
const maxResponseSize = 64 * 1024

// Config holds SKULabs API settings
type Config struct {
	BaseURL  string
	APIToken string
	Timeout  time.Duration
}

// Errors for SKULabs configuration
var (
	ErrConfigMissingBaseURL  = errors.New("skulabs: base URL is required")
	ErrConfigMissingAPIToken = errors.New("skulabs: API token is required")
)

// Validate validates the SKULabs configuration
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return ErrConfigMissingBaseURL
	}
	if c.APIToken == "" {
		return ErrConfigMissingAPIToken
	}
	if c.Timeout == 0 {
		c.Timeout = 10 * time.Second
	}
	return nil
}

// APIError is returned when SKULabs answers with a non-2xx status. It
// keeps the status and response body so the failure can be diagnosed
// from logs without replaying the request.
type APIError struct {
	StatusCode int
	Body       string
}

// Error implements the error interface
func (e *APIError) Error() string {
	return fmt.Sprintf("skulabs: bulk upsert failed: %d: %s", e.StatusCode, e.Body)
}

// Unwrap lets callers match integration.ErrFulfillmentRequestFailed.
func (e *APIError) Unwrap() error {
	return integration.ErrFulfillmentRequestFailed
}

// Client implements integration.FulfillmentGateway against the SKULabs
// REST API. A nil Client is valid and fails every upsert with
// integration.ErrFulfillmentRequestFailed, which lets the service run
// before SKULabs credentials are configured.
type Client struct {
	config     *Config
	httpClient *http.Client
}

// NewClient creates a SKULabs API client
func NewClient(config *Config) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
	}, nil
}

// bulkUpsertRequest is the wire shape of the bulk upsert endpoint.
type bulkUpsertRequest struct {
	Items []bulkUpsertItem `json:"items"`
}

// bulkUpsertItem carries on_hand as json.Number so it is encoded as a
// bare JSON number; decimal.Decimal marshals to a quoted string.
type bulkUpsertItem struct {
	SKU       string      `json:"sku"`
	Warehouse string      `json:"warehouse"`
	Location  string      `json:"location"`
	OnHand    json.Number `json:"on_hand"`
}

// UpsertItem pushes one stock placement via the bulk upsert endpoint.
func (c *Client) UpsertItem(ctx context.Context, item integration.ItemUpsert) error {
	return c.BulkUpsert(ctx, []integration.ItemUpsert{item})
}

// BulkUpsert pushes stock placements to SKULabs in one request.
func (c *Client) BulkUpsert(ctx context.Context, items []integration.ItemUpsert) error {
	if c == nil {
		return fmt.Errorf("%w: client not configured", integration.ErrFulfillmentRequestFailed)
	}
	if len(items) == 0 {
		return nil
	}

	payload := bulkUpsertRequest{Items: make([]bulkUpsertItem, 0, len(items))}
	for _, item := range items {
		payload.Items = append(payload.Items, bulkUpsertItem{
			SKU:       item.SKU,
			Warehouse: item.Warehouse,
			Location:  item.Location,
			OnHand:    json.Number(item.OnHand.String()),
		})
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("skulabs: failed to encode request: %w", err)
	}

	endpoint := strings.TrimRight(c.config.BaseURL, "/") + "/item/bulk_upsert"
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("skulabs: failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.config.APIToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", integration.ErrFulfillmentRequestFailed, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return fmt.Errorf("skulabs: failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{
			StatusCode: resp.StatusCode,
			Body:       string(respBody),
		}
	}

	return nil
}
