package daraja

import (
	"context"

	"github.com/sony/gobreaker"

	"github.com/mwangaza-labs/mpesa-b2c-gateway/internal/application"
	"github.com/mwangaza-labs/mpesa-b2c-gateway/internal/config"
	"github.com/mwangaza-labs/mpesa-b2c-gateway/internal/domain"
)

const defaultConsecutiveFailures = 5

// BreakerClient wraps a DarajaClient with a circuit breaker. An open
// breaker fails submissions immediately instead of waiting out the
// provider timeout; nothing is ever retried.
type BreakerClient struct {
	inner application.DarajaClient
	cb    *gobreaker.CircuitBreaker
}

func NewBreakerClient(inner application.DarajaClient, cfg config.BreakerConfig) application.DarajaClient {
	threshold := cfg.ConsecutiveFailures
	if threshold == 0 {
		threshold = defaultConsecutiveFailures
	}

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "daraja",
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
	})

	return &BreakerClient{
		inner: inner,
		cb:    cb,
	}
}

func (b *BreakerClient) Authenticate(ctx context.Context, consumerKey, consumerSecret string) (*application.AuthResult, error) {
	res, err := b.cb.Execute(func() (interface{}, error) {
		return b.inner.Authenticate(ctx, consumerKey, consumerSecret)
	})
	if err != nil {
		return nil, err
	}
	return res.(*application.AuthResult), nil
}

func (b *BreakerClient) SubmitB2C(ctx context.Context, payload domain.B2CPayload, accessToken string) (*application.PaymentAck, error) {
	res, err := b.cb.Execute(func() (interface{}, error) {
		return b.inner.SubmitB2C(ctx, payload, accessToken)
	})
	if err != nil {
		return nil, err
	}
	return res.(*application.PaymentAck), nil
}

func (b *BreakerClient) PaymentURL() string {
	return b.inner.PaymentURL()
}
