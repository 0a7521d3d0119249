package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndParse(t *testing.T) {
	tokens, err := Issue("user-1", "Ada", "ada@example.com", "rollcall", "secret", time.Minute, time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, tokens.AccessToken)
	require.NotEmpty(t, tokens.RefreshToken)

	claims, err := Parse(tokens.AccessToken, "secret", "rollcall")
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.Subject)
	assert.Equal(t, "Ada", claims.Name)
	assert.Equal(t, "ada@example.com", claims.Email)
}

func TestParseRejectsBadTokens(t *testing.T) {
	tokens, err := Issue("user-1", "Ada", "ada@example.com", "rollcall", "secret", time.Minute, time.Hour)
	require.NoError(t, err)

	expired, err := Issue("user-1", "Ada", "ada@example.com", "rollcall", "secret", -time.Minute, time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name   string
		token  string
		key    string
		issuer string
	}{
		{name: "garbage", token: "not-a-token", key: "secret", issuer: "rollcall"},
		{name: "wrong key", token: tokens.AccessToken, key: "other", issuer: "rollcall"},
		{name: "wrong issuer", token: tokens.AccessToken, key: "secret", issuer: "someone-else"},
		{name: "expired", token: expired.AccessToken, key: "secret", issuer: "rollcall"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.token, tt.key, tt.issuer)
			assert.Error(t, err)
		})
	}
}
