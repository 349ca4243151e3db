package webhooks

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSign(t *testing.T) {
	// Known HMAC-SHA256 vector.
	digest := Sign("secret", []byte("payload"))
	assert.Equal(t, "b82fcb791acec57859b989b430a826488ce2e479fdf92326bd0a2e8375a42ba4", digest)
}

func TestSignIsDeterministic(t *testing.T) {
	payload := []byte(`{"id":"dlv_1","event":"team_created"}`)
	assert.Equal(t, Sign("whsec_abc", payload), Sign("whsec_abc", payload))
	assert.NotEqual(t, Sign("whsec_abc", payload), Sign("whsec_def", payload))
}

func TestGenerateSecret(t *testing.T) {
	secret, err := GenerateSecret()
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(secret, SecretPrefix))
	// 24 random bytes hex-encoded after the prefix
	assert.Len(t, secret, len(SecretPrefix)+48)

	other, err := GenerateSecret()
	require.NoError(t, err)
	assert.NotEqual(t, secret, other)
}
