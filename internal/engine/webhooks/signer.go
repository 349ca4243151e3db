package webhooks

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// Sign computes a hex HMAC-SHA256 digest of the payload keyed by the
// endpoint secret. Sent as an extra header only when payload signing is
// enabled; the default wire contract carries the raw secret.
func Sign(secret string, payload []byte) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write(payload)
	return hex.EncodeToString(h.Sum(nil))
}
