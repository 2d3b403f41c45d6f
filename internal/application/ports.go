// Package application defines the ports the connector orchestrates:
// the Daraja HTTP client, the persisted token and request stores, and
// the observer relation used to broadcast connector failures.
package application

import (
	"context"
	"time"

	"github.com/mwangaza-labs/mpesa-b2c-gateway/internal/domain"
)

// AuthResult is the provider's answer to a client-credentials grant.
type AuthResult struct {
	AccessToken string
	ExpiresIn   time.Duration
}

// PaymentAck is the provider's immediate acknowledgment of a B2C
// submission. The final settlement result arrives later on the callback.
type PaymentAck struct {
	ConversationID           string `json:"ConversationID"`
	OriginatorConversationID string `json:"OriginatorConversationID"`
	ResponseCode             string `json:"ResponseCode"`
	ResponseDescription      string `json:"ResponseDescription"`
}

// DarajaClient talks to the provider's HTTP API.
type DarajaClient interface {
	// Authenticate performs the client-credentials grant with HTTP Basic auth.
	Authenticate(ctx context.Context, consumerKey, consumerSecret string) (*AuthResult, error)

	// SubmitB2C posts a payment request with the given bearer token.
	SubmitB2C(ctx context.Context, payload domain.B2CPayload, accessToken string) (*PaymentAck, error)

	// PaymentURL is the absolute B2C endpoint, recorded on tracking records.
	PaymentURL() string
}

// TokenStore persists issued access tokens. Implementations encrypt the
// token value at rest and return it decrypted.
type TokenStore interface {
	Save(ctx context.Context, token *domain.AccessToken) error

	// FindActive returns the newest non-expired token for a setting, or
	// nil when none exists. Expired rows are ignored, not deleted.
	FindActive(ctx context.Context, setting string, now time.Time) (*domain.AccessToken, error)
}

// RequestStore persists integration request tracking records.
type RequestStore interface {
	Create(ctx context.Context, req *domain.IntegrationRequest) error

	// UpdateResult overwrites the record's result fields unconditionally:
	// repeat callback deliveries are resolved last-write-wins.
	UpdateResult(ctx context.Context, id string, status domain.RequestStatus, output, errMsg string) error

	FindByID(ctx context.Context, id string) (*domain.IntegrationRequest, error)

	// FindStalePending lists requests still Pending whose submission is
	// older than the cutoff.
	FindStalePending(ctx context.Context, cutoff time.Time, limit int) ([]*domain.IntegrationRequest, error)
}

// Notifier is the view of the connector passed to observers.
type Notifier interface {
	// Err is the connector's current error state, nil when healthy.
	Err() error

	// IntegrationRequestID identifies the tracking record of the request
	// being processed, empty before one is created.
	IntegrationRequestID() string
}

// Observer reacts to connector state when notified. Observers run
// synchronously in attachment order; an error from one stops the
// dispatch and propagates to the Notify caller.
type Observer interface {
	Update(ctx context.Context, n Notifier) error
}

// TokenCipher encrypts token values before they reach a store.
type TokenCipher interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(ciphertext string) (string, error)
}
