package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignAndParse(t *testing.T) {
	token, err := Sign(42, "sess-1", time.Hour)
	require.NoError(t, err)

	claims, err := Parse(token)
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.UserID)
	assert.Equal(t, "sess-1", claims.SessionID)
}

func TestParse_Rejects(t *testing.T) {
	expired, err := Sign(1, "s", -time.Minute)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{"garbage", "not-a-token"},
		{"expired", expired},
		{"empty", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.token)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestParse_WrongSecret(t *testing.T) {
	token, err := Sign(7, "s", time.Hour)
	require.NoError(t, err)

	SetSecret("another-secret")
	defer SetSecret(defaultSecret)

	_, err = Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
