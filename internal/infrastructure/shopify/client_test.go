package shopify

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/skubridge/backend/internal/infrastructure/logger"
)

func testConfig() *Config {
	return &Config{
		StoreDomain: "test.myshopify.com",
		AdminToken:  "shpat_test",
		APIVersion:  "2023-10",
	}
}

func TestNewClient(t *testing.T) {
	t.Run("Nil config yields nil client", func(t *testing.T) {
		assert.Nil(t, NewClient(nil))
	})

	t.Run("Missing credentials yield nil client", func(t *testing.T) {
		assert.Nil(t, NewClient(&Config{StoreDomain: "test.myshopify.com"}))
		assert.Nil(t, NewClient(&Config{AdminToken: "shpat_test"}))
	})

	t.Run("Base URL is derived from domain and version", func(t *testing.T) {
		c := NewClient(testConfig())
		require.NotNil(t, c)
		assert.Equal(t, "https://test.myshopify.com/admin/api/2023-10", c.baseURL)
	})
}

func TestLookupVariant(t *testing.T) {
	t.Run("Resolves SKU and warehouse key from title", func(t *testing.T) {
		var gotPath, gotQuery, gotToken string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.URL.Path
			gotQuery = r.URL.RawQuery
			gotToken = r.Header.Get("X-Shopify-Access-Token")
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"variants":[{"sku":"ABC","title":"Jeddah","option1":"ignored"}]}`))
		}))
		defer srv.Close()

		c := NewClient(testConfig(), WithBaseURL(srv.URL))
		info, err := c.LookupVariant(context.Background(), "123")

		require.NoError(t, err)
		require.NotNil(t, info)
		assert.Equal(t, "ABC", info.SKU)
		assert.Equal(t, "Jeddah", info.WarehouseKey)
		assert.Equal(t, "/variants.json", gotPath)
		assert.Equal(t, "inventory_item_ids=123", gotQuery)
		assert.Equal(t, "shpat_test", gotToken)
	})

	t.Run("Warehouse key falls back to option1", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"variants":[{"sku":"ABC","option1":"Riyadh"}]}`))
		}))
		defer srv.Close()

		c := NewClient(testConfig(), WithBaseURL(srv.URL))
		info, err := c.LookupVariant(context.Background(), "123")

		require.NoError(t, err)
		require.NotNil(t, info)
		assert.Equal(t, "Riyadh", info.WarehouseKey)
	})

	t.Run("Warehouse key falls back to Default", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"variants":[{"sku":"ABC"}]}`))
		}))
		defer srv.Close()

		c := NewClient(testConfig(), WithBaseURL(srv.URL))
		info, err := c.LookupVariant(context.Background(), "123")

		require.NoError(t, err)
		require.NotNil(t, info)
		assert.Equal(t, "Default", info.WarehouseKey)
	})

	t.Run("No variants resolves to nil without error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"variants":[]}`))
		}))
		defer srv.Close()

		c := NewClient(testConfig(), WithBaseURL(srv.URL))
		info, err := c.LookupVariant(context.Background(), "123")

		require.NoError(t, err)
		assert.Nil(t, info)
	})

	t.Run("Variant without SKU resolves to nil", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"variants":[{"title":"Jeddah"}]}`))
		}))
		defer srv.Close()

		c := NewClient(testConfig(), WithBaseURL(srv.URL))
		info, err := c.LookupVariant(context.Background(), "123")

		require.NoError(t, err)
		assert.Nil(t, info)
	})

	t.Run("Whitespace-only SKU resolves to nil", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"variants":[{"sku":"   ","title":"Jeddah"}]}`))
		}))
		defer srv.Close()

		c := NewClient(testConfig(), WithBaseURL(srv.URL))
		info, err := c.LookupVariant(context.Background(), "123")

		require.NoError(t, err)
		assert.Nil(t, info)
	})

	t.Run("SKU and title are trimmed", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"variants":[{"sku":" abc ","title":"  Jeddah  "}]}`))
		}))
		defer srv.Close()

		c := NewClient(testConfig(), WithBaseURL(srv.URL))
		info, err := c.LookupVariant(context.Background(), "123")

		require.NoError(t, err)
		require.NotNil(t, info)
		assert.Equal(t, "abc", info.SKU)
		assert.Equal(t, "Jeddah", info.WarehouseKey)
	})

	t.Run("Whitespace-only title falls back to Default", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"variants":[{"sku":"ABC","title":"   ","option1":" \t "}]}`))
		}))
		defer srv.Close()

		c := NewClient(testConfig(), WithBaseURL(srv.URL))
		info, err := c.LookupVariant(context.Background(), "123")

		require.NoError(t, err)
		require.NotNil(t, info)
		assert.Equal(t, "Default", info.WarehouseKey)
	})

	t.Run("Whitespace-only title falls back to option1", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"variants":[{"sku":"ABC","title":"   ","option1":" Riyadh "}]}`))
		}))
		defer srv.Close()

		c := NewClient(testConfig(), WithBaseURL(srv.URL))
		info, err := c.LookupVariant(context.Background(), "123")

		require.NoError(t, err)
		require.NotNil(t, info)
		assert.Equal(t, "Riyadh", info.WarehouseKey)
	})

	t.Run("Non-2xx status resolves to nil without error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer srv.Close()

		c := NewClient(testConfig(), WithBaseURL(srv.URL))
		info, err := c.LookupVariant(context.Background(), "123")

		require.NoError(t, err)
		assert.Nil(t, info)
	})

	t.Run("Non-2xx status logs the response body", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(`{"errors":"Exceeded 2 calls per second"}`))
		}))
		defer srv.Close()

		core, recorded := observer.New(zapcore.WarnLevel)
		ctx := logger.WithContext(context.Background(), zap.New(core))

		c := NewClient(testConfig(), WithBaseURL(srv.URL))
		info, err := c.LookupVariant(ctx, "123")

		require.NoError(t, err)
		assert.Nil(t, info)

		entries := recorded.All()
		require.Len(t, entries, 1)
		fields := entries[0].ContextMap()
		assert.Equal(t, int64(http.StatusTooManyRequests), fields["status"])
		assert.Equal(t, `{"errors":"Exceeded 2 calls per second"}`, fields["body"])
	})

	t.Run("Transport failure is an error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		srv.Close() // connection refused

		c := NewClient(testConfig(), WithBaseURL(srv.URL))
		info, err := c.LookupVariant(context.Background(), "123")

		require.Error(t, err)
		assert.Nil(t, info)
	})

	t.Run("Nil client resolves to nil without error", func(t *testing.T) {
		var c *Client
		info, err := c.LookupVariant(context.Background(), "123")

		require.NoError(t, err)
		assert.Nil(t, info)
	})

	t.Run("Inventory item ID is query-escaped", func(t *testing.T) {
		var gotQuery string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotQuery = r.URL.RawQuery
			w.Write([]byte(`{"variants":[]}`))
		}))
		defer srv.Close()

		c := NewClient(testConfig(), WithBaseURL(srv.URL))
		_, err := c.LookupVariant(context.Background(), "12 3&x=y")

		require.NoError(t, err)
		assert.Equal(t, "inventory_item_ids=12+3%26x%3Dy", gotQuery)
	})
}
