package shopify

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
)

func sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func TestVerifySignature(t *testing.T) {
	secret := "whsec_test_secret"
	body := []byte(`{"inventory_item_id":123,"available":5}`)

	t.Run("Valid signature verifies", func(t *testing.T) {
		assert.True(t, VerifySignature(secret, body, sign(secret, body)))
	})

	t.Run("Wrong secret rejects", func(t *testing.T) {
		assert.False(t, VerifySignature("other_secret", body, sign(secret, body)))
	})

	t.Run("Tampered body rejects", func(t *testing.T) {
		tampered := []byte(`{"inventory_item_id":123,"available":500}`)
		assert.False(t, VerifySignature(secret, tampered, sign(secret, body)))
	})

	t.Run("Signature is over the raw bytes, not canonical JSON", func(t *testing.T) {
		reordered := []byte(`{"available":5,"inventory_item_id":123}`)
		assert.False(t, VerifySignature(secret, reordered, sign(secret, body)))
		assert.True(t, VerifySignature(secret, reordered, sign(secret, reordered)))
	})

	t.Run("Empty secret rejects even with matching signature", func(t *testing.T) {
		assert.False(t, VerifySignature("", body, sign("", body)))
	})

	t.Run("Empty signature rejects", func(t *testing.T) {
		assert.False(t, VerifySignature(secret, body, ""))
	})

	t.Run("Non-base64 signature rejects without panic", func(t *testing.T) {
		assert.NotPanics(t, func() {
			assert.False(t, VerifySignature(secret, body, "not-base64!!!"))
		})
	})

	t.Run("Empty body still verifies against its own signature", func(t *testing.T) {
		assert.True(t, VerifySignature(secret, nil, sign(secret, nil)))
	})
}
