package shopify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/skubridge/backend/internal/domain/integration"
	"github.com/skubridge/backend/internal/infrastructure/logger"
)

// maxResponseSize is the maximum allowed response size from the Shopify
// Admin API (10MB)
const maxResponseSize = 10 * 1024 * 1024

// maxLoggedBody caps the response body fragment included in failure
// logs.
const maxLoggedBody = 1024

// defaultWarehouseKey is used when a location carries neither a title
// nor options.
const defaultWarehouseKey = "Default"

// Config holds Shopify Admin API credentials
type Config struct {
	StoreDomain string // bare host, e.g. "example.myshopify.com"
	AdminToken  string
	APIVersion  string
	Timeout     time.Duration
}

// Errors for Shopify configuration
var (
	ErrConfigMissingStoreDomain = errors.New("shopify: store domain is required")
	ErrConfigMissingAdminToken  = errors.New("shopify: admin token is required")
)

// Validate validates the Shopify configuration
func (c *Config) Validate() error {
	if c.StoreDomain == "" {
		return ErrConfigMissingStoreDomain
	}
	if c.AdminToken == "" {
		return ErrConfigMissingAdminToken
	}
	if c.APIVersion == "" {
		c.APIVersion = "2023-10"
	}
	if c.Timeout == 0 {
		c.Timeout = 10 * time.Second
	}
	return nil
}

// Client implements integration.VariantLookup against the Shopify
// Admin REST API. A nil Client is valid and reports every lookup as
// unresolved, which lets the service run before Shopify credentials
// are configured.
type Client struct {
	config     *Config
	baseURL    string
	httpClient *http.Client
}

// ClientOption is a functional option for Client configuration
type ClientOption func(*Client)

// WithBaseURL overrides the derived Admin API base URL. Used in tests.
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithHTTPClient overrides the HTTP client
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// NewClient creates a Shopify Admin API client. It returns nil, not an
// error, when credentials are absent: an unconfigured platform is a
// supported state, not a startup failure.
func NewClient(config *Config, opts ...ClientOption) *Client {
	if config == nil || config.Validate() != nil {
		return nil
	}

	c := &Client{
		config:  config,
		baseURL: fmt.Sprintf("https://%s/admin/api/%s", config.StoreDomain, config.APIVersion),
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// variantPayload mirrors the fields we read from the Admin API variant
// object. Shopify sends numeric IDs, so SKU is the only field that is
// already a string.
type variantPayload struct {
	SKU     string `json:"sku"`
	Title   string `json:"title"`
	Option1 string `json:"option1"`
}

type variantsResponse struct {
	Variants []variantPayload `json:"variants"`
}

// LookupVariant resolves an inventory item ID to its variant. It
// returns (nil, nil) when the variant cannot be resolved for reasons
// that retrying would not fix: the client is unconfigured, the API
// answered with a non-2xx status, no variant matched, or the variant
// has no SKU. Transport failures are returned as errors.
func (c *Client) LookupVariant(ctx context.Context, inventoryItemID string) (*integration.VariantInfo, error) {
	if c == nil {
		logger.L(ctx).Warn("shopify lookup skipped: client not configured")
		return nil, nil
	}

	endpoint := fmt.Sprintf("%s/variants.json?inventory_item_ids=%s",
		c.baseURL, url.QueryEscape(inventoryItemID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("shopify: failed to create request: %w", err)
	}
	req.Header.Set("X-Shopify-Access-Token", c.config.AdminToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", integration.ErrPlatformRequestFailed, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("shopify: failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		logger.L(ctx).Warn("shopify variant lookup failed",
			zap.Int("status", resp.StatusCode),
			zap.String("inventory_item_id", inventoryItemID),
			zap.String("body", truncate(string(body), maxLoggedBody)),
		)
		return nil, nil
	}

	var decoded variantsResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, fmt.Errorf("shopify: failed to decode response: %w", err)
	}
	if len(decoded.Variants) == 0 {
		return nil, nil
	}

	variant := decoded.Variants[0]
	sku := strings.TrimSpace(variant.SKU)
	if sku == "" {
		return nil, nil
	}

	return &integration.VariantInfo{
		SKU:          sku,
		WarehouseKey: warehouseKey(variant),
	}, nil
}

// warehouseKey derives the warehouse grouping key from a variant,
// falling back through title, then the first option. Values that are
// empty after trimming do not count.
func warehouseKey(v variantPayload) string {
	if title := strings.TrimSpace(v.Title); title != "" {
		return title
	}
	if option := strings.TrimSpace(v.Option1); option != "" {
		return option
	}
	return defaultWarehouseKey
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
