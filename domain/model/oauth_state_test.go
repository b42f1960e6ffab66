package model_test

import (
	"encoding/base64"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"speakcraft-social/domain/model"
)

func TestOAuthStateRoundTrip(t *testing.T) {
	state := model.OAuthState{
		Version:      model.OAuthStateVersion,
		UserID:       "user-42",
		Platform:     "youtube",
		OrigRedirect: "https://app.speakcraft.io/settings?tab=social",
		GatewayKey:   "anon-key",
	}

	decoded, err := model.DecodeOAuthState(state.Encode())
	require.NoError(t, err)
	assert.Equal(t, state, *decoded)
}

func TestDecodeOAuthStateAcceptsURLSafeEncoding(t *testing.T) {
	state := model.OAuthState{
		Version:      model.OAuthStateVersion,
		UserID:       "user-1",
		Platform:     "youtube",
		OrigRedirect: "https://app.speakcraft.io/dashboard",
	}
	raw := base64.URLEncoding.EncodeToString([]byte(`{"v":1,"userId":"user-1","platform":"youtube","origRedirect":"https://app.speakcraft.io/dashboard"}`))

	decoded, err := model.DecodeOAuthState(raw)
	require.NoError(t, err)
	assert.Equal(t, state, *decoded)
}

func TestDecodeOAuthStateRejectsGarbage(t *testing.T) {
	cases := map[string]string{
		"not base64":      "%%%not-base64%%%",
		"not json":        base64.StdEncoding.EncodeToString([]byte("hello world")),
		"wrong version":   base64.StdEncoding.EncodeToString([]byte(`{"v":99,"userId":"u","platform":"youtube","origRedirect":"https://x"}`)),
		"missing user":    base64.StdEncoding.EncodeToString([]byte(`{"v":1,"platform":"youtube","origRedirect":"https://x"}`)),
		"missing target":  base64.StdEncoding.EncodeToString([]byte(`{"v":1,"userId":"u","platform":"youtube"}`)),
		"empty platform":  base64.StdEncoding.EncodeToString([]byte(`{"v":1,"userId":"u","platform":"","origRedirect":"https://x"}`)),
		"empty string":    "",
		"truncated state": base64.StdEncoding.EncodeToString([]byte(`{"v":1,"userId":`)),
	}

	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := model.DecodeOAuthState(raw)
			require.Error(t, err)
			assert.True(t, errors.Is(err, model.ErrBadState), "expected ErrBadState, got %v", err)
		})
	}
}

func TestTokenExpiring(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	margin := 5 * time.Minute

	soon := now.Add(2 * time.Minute)
	later := now.Add(time.Hour)
	past := now.Add(-time.Minute)

	tests := []struct {
		name      string
		expiresAt *time.Time
		want      bool
	}{
		{"no expiry recorded", nil, false},
		{"expires within margin", &soon, true},
		{"already expired", &past, true},
		{"expires much later", &later, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			a := model.SocialAccount{ExpiresAt: tc.expiresAt}
			assert.Equal(t, tc.want, a.TokenExpiring(now, margin))
		})
	}
}
