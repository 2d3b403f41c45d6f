package domain

import (
	"errors"
	"time"
)

// AccessToken is a bearer token issued by the Daraja OAuth endpoint.
// Tokens are immutable: a refresh creates a new record and stale rows are
// simply ignored on lookup, never deleted.
type AccessToken struct {
	// Value is the plaintext token. It is encrypted before hitting any
	// store and must never appear in logs.
	Value string

	AssociatedSetting string
	FetchedAt         time.Time
	ExpiresAt         time.Time
}

func NewAccessToken(value, setting string, fetchedAt time.Time, expiresIn time.Duration) (*AccessToken, error) {
	if value == "" {
		return nil, errors.New("access token value is required")
	}
	if setting == "" {
		return nil, errors.New("associated setting is required")
	}
	if expiresIn <= 0 {
		return nil, errors.New("token lifetime must be positive")
	}

	return &AccessToken{
		Value:             value,
		AssociatedSetting: setting,
		FetchedAt:         fetchedAt,
		ExpiresAt:         fetchedAt.Add(expiresIn),
	}, nil
}

func (t *AccessToken) Expired(now time.Time) bool {
	return !t.ExpiresAt.After(now)
}

// Lifetime reports how long the token remains valid from now. Zero or
// negative means expired.
func (t *AccessToken) Lifetime(now time.Time) time.Duration {
	return t.ExpiresAt.Sub(now)
}
