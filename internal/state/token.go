// Package state issues the signed state parameter carried through an OAuth
// redirect and checks it on the way back.
package state

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/BlackMission/mockcalc/internal/domain"
)

const (
	defaultExpiry = 5 * time.Minute
	nonceBytes    = 16
)

// Service generates and validates HMAC-signed state tokens.
type Service struct {
	key    []byte
	expiry time.Duration
	now    func() time.Time
}

// NewService creates a state token service with the given HMAC signing key.
func NewService(key []byte) *Service {
	return &Service{
		key:    key,
		expiry: defaultExpiry,
		now:    time.Now,
	}
}

// Expiry is how long a generated token stays valid.
func (s *Service) Expiry() time.Duration {
	return s.expiry
}

// Generate creates a signed token for payload. The returned nonce must be
// kept by the browser (in a cookie) and presented again to Validate.
func (s *Service) Generate(payload domain.StatePayload) (token, nonce string, err error) {
	raw := make([]byte, nonceBytes)
	if _, err := rand.Read(raw); err != nil {
		return "", "", fmt.Errorf("generating nonce: %w", err)
	}
	payload.Nonce = hex.EncodeToString(raw)
	payload.ExpiresAt = s.now().Add(s.expiry)

	data, err := json.Marshal(payload)
	if err != nil {
		return "", "", fmt.Errorf("marshaling state payload: %w", err)
	}

	encoded := base64.RawURLEncoding.EncodeToString(data)
	return encoded + "." + s.sign(encoded), payload.Nonce, nil
}

// Validate verifies the signature, expiry, and browser binding of token.
func (s *Service) Validate(token, nonce string) (*domain.StatePayload, error) {
	encoded, sig, ok := strings.Cut(token, ".")
	if !ok {
		return nil, domain.ErrMalformedState
	}

	if !hmac.Equal([]byte(sig), []byte(s.sign(encoded))) {
		return nil, domain.ErrInvalidState
	}

	data, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return nil, domain.ErrMalformedState
	}

	var payload domain.StatePayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, domain.ErrMalformedState
	}

	if s.now().After(payload.ExpiresAt) {
		return nil, domain.ErrExpiredState
	}

	if nonce == "" || !hmac.Equal([]byte(nonce), []byte(payload.Nonce)) {
		return nil, domain.ErrStateMismatch
	}

	return &payload, nil
}

// SetNow overrides the time function (for testing).
func (s *Service) SetNow(fn func() time.Time) {
	s.now = fn
}

func (s *Service) sign(data string) string {
	mac := hmac.New(sha256.New, s.key)
	mac.Write([]byte(data))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}
