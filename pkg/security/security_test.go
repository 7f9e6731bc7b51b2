package security

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOTPGeneratorProducesSixDigits(t *testing.T) {
	g := NewOTPGenerator()
	seen := make(map[string]bool)

	for i := 0; i < 200; i++ {
		code, err := g.Generate()
		require.NoError(t, err)
		require.Len(t, code, 6)
		assert.NotEqual(t, byte('0'), code[0])
		for _, r := range code {
			assert.True(t, r >= '0' && r <= '9', code)
		}
		seen[code] = true
	}

	assert.Greater(t, len(seen), 150)
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("admin123")
	require.NoError(t, err)

	assert.NotEqual(t, "admin123", hash)
	assert.True(t, CheckPassword(hash, "admin123"))
	assert.False(t, CheckPassword(hash, "admin124"))
	assert.False(t, CheckPassword("not-a-hash", "admin123"))
}

func TestRelaySignerRoundTrip(t *testing.T) {
	signer := NewRelaySigner("shared-secret", time.Minute)

	token, err := signer.Sign("app")
	require.NoError(t, err)

	claims, err := signer.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "app", claims.Subject)
}

func TestRelaySignerRejectsForeignAndExpiredTokens(t *testing.T) {
	token, err := NewRelaySigner("other-secret", time.Minute).Sign("app")
	require.NoError(t, err)

	_, err = NewRelaySigner("shared-secret", time.Minute).Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	expired, err := NewRelaySigner("shared-secret", -time.Minute).Sign("app")
	require.NoError(t, err)
	_, err = NewRelaySigner("shared-secret", time.Minute).Verify(expired)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
