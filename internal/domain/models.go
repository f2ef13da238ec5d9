package domain

import "time"

// Profile is the normalized user profile returned by any provider.
type Profile struct {
	Provider   string `json:"provider"`
	ProviderID string `json:"provider_id"`
	Name       string `json:"name"`
	Email      string `json:"email,omitempty"`
}

// Label is the user-visible name: the display name, else the email.
func (p Profile) Label() string {
	if p.Name != "" {
		return p.Name
	}
	return p.Email
}

// StatePayload is the data embedded in the HMAC-signed OAuth state token.
type StatePayload struct {
	Provider  string    `json:"prv"`
	ReturnTo  string    `json:"rtn,omitempty"`
	Nonce     string    `json:"nce"`
	ExpiresAt time.Time `json:"exp"`
}

// Session is an authenticated browser session.
type Session struct {
	ID        string
	Profile   Profile
	ExpiresAt time.Time
}

// SessionStatus is the result of checking for an authenticated session.
type SessionStatus int

const (
	StatusLoading SessionStatus = iota
	StatusAuthenticated
	StatusUnauthenticated
)

func (s SessionStatus) String() string {
	switch s {
	case StatusAuthenticated:
		return "authenticated"
	case StatusUnauthenticated:
		return "unauthenticated"
	default:
		return "loading"
	}
}

// MarshalText encodes the status as its name.
func (s SessionStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}
