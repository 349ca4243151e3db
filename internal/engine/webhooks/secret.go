package webhooks

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// SecretPrefix marks endpoint signing secrets so they are recognizable in
// receiver configuration.
const SecretPrefix = "whsec_"

const secretBytes = 24

// GenerateSecret creates an endpoint secret. Generated once at endpoint
// creation, shown to the administrator only in the create response.
func GenerateSecret() (string, error) {
	buf := make([]byte, secretBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating secret: %w", err)
	}
	return SecretPrefix + hex.EncodeToString(buf), nil
}
