// Package services holds the connector that orchestrates authentication,
// token caching and B2C payment submission, together with the observers
// that react to its failures.
package services

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/mwangaza-labs/mpesa-b2c-gateway/internal/application"
	"github.com/mwangaza-labs/mpesa-b2c-gateway/internal/domain"
)

// ConnectorFactory builds one Connector per request flow. Connector error
// state is per flow, so a shared instance would race under concurrent
// submissions; the factory carries the long-lived dependencies instead.
type ConnectorFactory struct {
	client      application.DarajaClient
	tokens      application.TokenStore
	requests    application.RequestStore
	callbackURL string
	logger      *slog.Logger

	// Now is the clock used for token expiry arithmetic. Tests override it.
	Now func() time.Time
}

func NewConnectorFactory(
	client application.DarajaClient,
	tokens application.TokenStore,
	requests application.RequestStore,
	callbackURL string,
	logger *slog.Logger,
) *ConnectorFactory {
	return &ConnectorFactory{
		client:      client,
		tokens:      tokens,
		requests:    requests,
		callbackURL: callbackURL,
		logger:      logger,
		Now:         time.Now,
	}
}

// New returns a fresh connector with the built-in error observer already
// attached. Failure reporting depends on that observer, so the wiring
// happens here and cannot be skipped.
func (f *ConnectorFactory) New() *Connector {
	c := &Connector{
		client:      f.client,
		tokens:      f.tokens,
		requests:    f.requests,
		callbackURL: f.callbackURL,
		logger:      f.logger,
		now:         f.Now,
	}
	c.Attach(NewErrorObserver(f.requests, f.logger))
	return c
}

// MakeB2CPaymentRequest runs a submission on a fresh connector. Failures
// leave here as service errors carrying their HTTP status.
func (f *ConnectorFactory) MakeB2CPaymentRequest(ctx context.Context, req *domain.B2CRequest) (*application.PaymentAck, error) {
	ack, err := f.New().MakeB2CPaymentRequest(ctx, req)
	if err != nil {
		return nil, application.FromDomain(err)
	}
	return ack, nil
}

// Connector manages credentials, token lifecycle and request submission
// for one payment flow, and broadcasts its failure state to attached
// observers.
type Connector struct {
	client      application.DarajaClient
	tokens      application.TokenStore
	requests    application.RequestStore
	callbackURL string
	logger      *slog.Logger
	now         func() time.Time

	appKey    string
	appSecret string

	observers []application.Observer

	err                  error
	integrationRequestID string
}

var _ application.Notifier = (*Connector)(nil)

// Attach appends an observer. Order is preserved and duplicates are
// permitted.
func (c *Connector) Attach(o application.Observer) {
	c.observers = append(c.observers, o)
}

// Notify dispatches the connector's current state to every observer in
// attachment order. The first observer error stops the dispatch and is
// returned; with no error state set this is a no-op.
func (c *Connector) Notify(ctx context.Context) error {
	for _, o := range c.observers {
		if err := o.Update(ctx, c); err != nil {
			return err
		}
	}
	return nil
}

func (c *Connector) Err() error { return c.err }

func (c *Connector) IntegrationRequestID() string { return c.integrationRequestID }

// Authenticate performs the client-credentials grant and persists the
// issued token keyed by setting. Nothing is saved on failure.
func (c *Connector) Authenticate(ctx context.Context, setting string) (*domain.AccessToken, error) {
	res, err := c.client.Authenticate(ctx, c.appKey, c.appSecret)
	if err != nil {
		return nil, domain.NewAuthenticationError(setting, err)
	}

	fetchedAt := c.now()
	token, err := domain.NewAccessToken(res.AccessToken, setting, fetchedAt, res.ExpiresIn)
	if err != nil {
		return nil, domain.NewAuthenticationError(setting, err)
	}

	if err := c.tokens.Save(ctx, token); err != nil {
		return nil, domain.NewPersistenceError("save access token", err)
	}

	c.logger.Info("access token refreshed",
		"setting", setting,
		"expires_at", token.ExpiresAt,
	)

	return token, nil
}

// MakeB2CPaymentRequest submits a disbursement. A cached non-expired
// token for the request's setting is used directly; otherwise a fresh one
// is fetched with the credentials embedded in the request. A tracking
// record is created before submission and any transport failure is
// broadcast to observers before the error is returned.
func (c *Connector) MakeB2CPaymentRequest(ctx context.Context, req *domain.B2CRequest) (*application.PaymentAck, error) {
	token, err := c.tokens.FindActive(ctx, req.Setting, c.now())
	if err != nil {
		return nil, domain.NewPersistenceError("look up access token", err)
	}

	if token == nil {
		c.appKey = req.ConsumerKey
		c.appSecret = req.ConsumerSecret

		token, err = c.Authenticate(ctx, req.Setting)
		if err != nil {
			return nil, err
		}
	}

	payload := req.Payload(c.callbackURL)
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, domain.NewInvalidInputError(err)
	}

	record, err := domain.NewIntegrationRequest(
		req.OriginatorConversationID,
		c.client.PaymentURL(),
		string(body),
		requestHeaders(),
	)
	if err != nil {
		return nil, domain.NewInvalidInputError(err)
	}

	if err := c.requests.Create(ctx, record); err != nil {
		return nil, domain.NewPersistenceError("create integration request", err)
	}
	c.integrationRequestID = record.ID

	ack, err := c.client.SubmitB2C(ctx, payload, token.Value)
	if err != nil {
		c.err = domain.NewTransportError(err)
		if nerr := c.Notify(ctx); nerr != nil {
			return nil, nerr
		}
		return nil, c.err
	}

	c.logger.Info("b2c payment submitted",
		"originator_conversation_id", record.ID,
		"conversation_id", ack.ConversationID,
	)

	return ack, nil
}

// requestHeaders reproduces the headers sent with the submission for the
// tracking record. The bearer token is a secret and is stored redacted.
func requestHeaders() map[string]string {
	return map[string]string{
		"Authorization": "Bearer [REDACTED]",
		"Content-Type":  "application/json",
	}
}
