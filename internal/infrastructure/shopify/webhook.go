package shopify

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
)

// VerifySignature checks a webhook delivery against the shared webhook
// secret. The signature is the base64-encoded HMAC-SHA256 of the raw
// request body, exactly as received, carried in the
// X-Shopify-Hmac-Sha256 header.
//
// An empty secret or an empty signature never verifies. The comparison
// is constant-time.
func VerifySignature(secret string, body []byte, signature string) bool {
	if secret == "" || signature == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	expected := base64.StdEncoding.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
