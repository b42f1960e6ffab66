package model

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
)

// OAuthStateVersion is bumped whenever the envelope shape changes; callbacks
// carrying an older version are rejected rather than half-decoded.
const OAuthStateVersion = 1

// ErrBadState marks a callback whose state parameter could not be decoded or
// failed schema validation. It is the only error the callback handler should
// see for untrusted state input.
var ErrBadState = errors.New("undecodable oauth state")

// OAuthState is the context packed into the OAuth state parameter so it
// survives the round trip through the platform's consent screen. It is never
// persisted; the envelope itself is the storage.
type OAuthState struct {
	Version      int    `json:"v"`
	UserID       string `json:"userId"`
	Platform     string `json:"platform"`
	OrigRedirect string `json:"origRedirect"`
	// GatewayKey echoes the hosting gateway's pass-through credential so the
	// callback can rebuild the exact redirect URI used at authorization time.
	GatewayKey string `json:"gatewayKey,omitempty"`
}

// Encode serializes the state as base64(JSON).
func (s OAuthState) Encode() string {
	s.Version = OAuthStateVersion
	b, _ := json.Marshal(s)
	return base64.StdEncoding.EncodeToString(b)
}

// DecodeOAuthState parses a state value received from the platform. The input
// is untrusted; any decode, schema, or version mismatch comes back as
// ErrBadState so the handler can redirect instead of crashing.
func DecodeOAuthState(raw string) (*OAuthState, error) {
	if raw == "" {
		return nil, fmt.Errorf("%w: empty", ErrBadState)
	}
	b, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		// Some providers re-encode with URL-safe base64 on the way back.
		b, err = base64.URLEncoding.DecodeString(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBadState, err)
		}
	}
	var s OAuthState
	if err := json.Unmarshal(b, &s); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadState, err)
	}
	if s.Version != OAuthStateVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrBadState, s.Version)
	}
	if s.UserID == "" || s.Platform == "" || s.OrigRedirect == "" {
		return nil, fmt.Errorf("%w: missing required fields", ErrBadState)
	}
	return &s, nil
}
