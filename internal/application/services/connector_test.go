package services_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mwangaza-labs/mpesa-b2c-gateway/internal/application"
	"github.com/mwangaza-labs/mpesa-b2c-gateway/internal/application/services"
	"github.com/mwangaza-labs/mpesa-b2c-gateway/internal/domain"
)

const testCallbackURL = "https://pay.example.com/api/v1/callbacks/b2c-result"

func testRequest() *domain.B2CRequest {
	req, err := domain.NewB2CRequest(domain.B2CRequest{
		Setting:                  "Default B2C Setting",
		ConsumerKey:              "key",
		ConsumerSecret:           "secret",
		OriginatorConversationID: "conv-001",
		InitiatorName:            "testapi",
		SecurityCredential:       "enc-credential",
		Amount:                   150,
		PartyA:                   600999,
		PartyB:                   "254708374149",
		Remarks:                  "salary",
	})
	if err != nil {
		panic(err)
	}
	return req
}

type fixture struct {
	client   *services.MockDarajaClient
	tokens   *services.MockTokenStore
	requests *services.MockRequestStore
	factory  *services.ConnectorFactory
	logs     *bytes.Buffer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	logs := &bytes.Buffer{}
	logger := slog.New(slog.NewTextHandler(logs, nil))

	client := services.NewMockDarajaClient()
	tokens := services.NewMockTokenStore()
	requests := services.NewMockRequestStore()

	return &fixture{
		client:   client,
		tokens:   tokens,
		requests: requests,
		factory:  services.NewConnectorFactory(client, tokens, requests, testCallbackURL, logger),
		logs:     logs,
	}
}

func TestMakeB2CPaymentRequest_CachedTokenSkipsAuthentication(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	cached, err := domain.NewAccessToken("cached-token", "Default B2C Setting", time.Now(), time.Hour)
	require.NoError(t, err)
	require.NoError(t, f.tokens.Save(ctx, cached))

	ack, err := f.factory.MakeB2CPaymentRequest(ctx, testRequest())

	require.NoError(t, err)
	require.NotNil(t, ack)
	assert.Equal(t, 0, f.client.AuthenticateCalls)
	require.Len(t, f.client.SubmitTokens, 1)
	assert.Equal(t, "cached-token", f.client.SubmitTokens[0])
}

func TestMakeB2CPaymentRequest_NoTokenAuthenticatesExactlyOnce(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	f.client.AuthenticateFn = func(ctx context.Context, key, secret string) (*application.AuthResult, error) {
		return &application.AuthResult{AccessToken: "abc", ExpiresIn: 3600 * time.Second}, nil
	}

	_, err := f.factory.MakeB2CPaymentRequest(ctx, testRequest())

	require.NoError(t, err)
	assert.Equal(t, 1, f.client.AuthenticateCalls)
	require.Len(t, f.client.SubmitTokens, 1)
	assert.Equal(t, "abc", f.client.SubmitTokens[0])
}

func TestMakeB2CPaymentRequest_ExpiredTokenAuthenticatesExactlyOnce(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	expired, err := domain.NewAccessToken("old-token", "Default B2C Setting", time.Now().Add(-2*time.Hour), time.Hour)
	require.NoError(t, err)
	require.NoError(t, f.tokens.Save(ctx, expired))

	_, err = f.factory.MakeB2CPaymentRequest(ctx, testRequest())

	require.NoError(t, err)
	assert.Equal(t, 1, f.client.AuthenticateCalls)
}

func TestAuthenticate_PersistsExactlyOneTokenWithDerivedExpiry(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	fetchTime := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	f.factory.Now = func() time.Time { return fetchTime }

	f.client.AuthenticateFn = func(ctx context.Context, key, secret string) (*application.AuthResult, error) {
		return &application.AuthResult{AccessToken: "abc", ExpiresIn: 3600 * time.Second}, nil
	}

	token, err := f.factory.New().Authenticate(ctx, "Default B2C Setting")

	require.NoError(t, err)
	assert.Equal(t, "abc", token.Value)
	assert.Equal(t, fetchTime, token.FetchedAt)
	assert.Equal(t, fetchTime.Add(3600*time.Second), token.ExpiresAt)

	saved := f.tokens.Saved("Default B2C Setting")
	require.Len(t, saved, 1)
	assert.Equal(t, 1, f.tokens.SaveCalls)
	assert.Equal(t, fetchTime.Add(3600*time.Second), saved[0].ExpiresAt)
}

func TestAuthenticate_FailureNamesSettingAndSavesNothing(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	f.client.AuthenticateFn = func(ctx context.Context, key, secret string) (*application.AuthResult, error) {
		return nil, errors.New("401 unauthorized")
	}

	_, err := f.factory.New().Authenticate(ctx, "Broken Setting")

	require.Error(t, err)
	assert.True(t, domain.IsErrorCode(err, domain.ErrCodeAuthenticationFailed))
	assert.Contains(t, err.Error(), "Broken Setting")
	assert.Equal(t, 0, f.tokens.SaveCalls)
}

func TestAuthenticate_TokenSaveFailureIsPersistenceError(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	f.tokens.SaveFn = func(ctx context.Context, token *domain.AccessToken) error {
		return errors.New("connection reset")
	}

	_, err := f.factory.New().Authenticate(ctx, "Default B2C Setting")

	require.Error(t, err)
	assert.True(t, domain.IsErrorCode(err, domain.ErrCodePersistence))
}

func TestMakeB2CPaymentRequest_SuccessCreatesPendingRecord(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	f.client.AuthenticateFn = func(ctx context.Context, key, secret string) (*application.AuthResult, error) {
		return &application.AuthResult{AccessToken: "abc", ExpiresIn: 3600 * time.Second}, nil
	}
	f.client.SubmitB2CFn = func(ctx context.Context, payload domain.B2CPayload, token string) (*application.PaymentAck, error) {
		return &application.PaymentAck{ConversationID: "X"}, nil
	}

	ack, err := f.factory.MakeB2CPaymentRequest(ctx, testRequest())

	require.NoError(t, err)
	assert.Equal(t, "X", ack.ConversationID)

	record, err := f.requests.FindByID(ctx, "conv-001")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, record.Status)
	assert.Equal(t, "conv-001", record.ID)
	assert.Nil(t, record.Error)

	var payload domain.B2CPayload
	require.NoError(t, json.Unmarshal([]byte(record.Payload), &payload))
	assert.Equal(t, testCallbackURL, payload.ResultURL)
	assert.Equal(t, testCallbackURL, payload.QueueTimeOutURL)
	assert.Equal(t, "conv-001", payload.OriginatorConversationID)
}

func TestMakeB2CPaymentRequest_RecordedHeadersRedactToken(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.factory.MakeB2CPaymentRequest(ctx, testRequest())
	require.NoError(t, err)

	record, err := f.requests.FindByID(ctx, "conv-001")
	require.NoError(t, err)
	assert.NotContains(t, record.Headers["Authorization"], "mock-token")
}

func TestMakeB2CPaymentRequest_TransportFailureMarksRecordFailed(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	f.client.SubmitB2CFn = func(ctx context.Context, payload domain.B2CPayload, token string) (*application.PaymentAck, error) {
		return nil, errors.New("500 internal server error")
	}

	_, err := f.factory.MakeB2CPaymentRequest(ctx, testRequest())

	require.Error(t, err)
	assert.True(t, domain.IsErrorCode(err, domain.ErrCodeTransport))

	var domainErr *domain.Error
	require.ErrorAs(t, err, &domainErr)

	record, ferr := f.requests.FindByID(ctx, "conv-001")
	require.NoError(t, ferr)
	assert.Equal(t, domain.StatusFailed, record.Status)
	require.NotNil(t, record.Error)
	assert.Equal(t, domainErr.Error(), *record.Error)

	assert.Equal(t, 1, strings.Count(f.logs.String(), "HTTPError"))
}

func TestMakeB2CPaymentRequest_FailuresCarryHTTPStatus(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	f.client.SubmitB2CFn = func(ctx context.Context, payload domain.B2CPayload, token string) (*application.PaymentAck, error) {
		return nil, errors.New("500 internal server error")
	}

	_, err := f.factory.MakeB2CPaymentRequest(ctx, testRequest())

	require.Error(t, err)
	svcErr, ok := application.IsServiceError(err)
	require.True(t, ok)
	assert.Equal(t, application.ErrCodeUpstream, svcErr.Code)
	assert.Equal(t, http.StatusBadGateway, svcErr.HTTPStatus)
	assert.True(t, domain.IsErrorCode(err, domain.ErrCodeTransport))
}

func TestNotify_WithoutErrorIsSilent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	connector := f.factory.New()
	observer := services.NewMockObserver()
	connector.Attach(observer)

	err := connector.Notify(ctx)

	require.NoError(t, err)
	require.Len(t, observer.Updates, 1)
	assert.NoError(t, observer.Updates[0])
	assert.Equal(t, 0, f.requests.UpdateCalls)
	assert.Empty(t, f.logs.String())
}

func TestNotify_ObserverErrorStopsDispatch(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	connector := f.factory.New()

	boom := errors.New("observer exploded")
	first := services.NewMockObserver()
	first.UpdateFn = func(ctx context.Context, n application.Notifier) error { return boom }
	second := services.NewMockObserver()

	connector.Attach(first)
	connector.Attach(second)

	err := connector.Notify(ctx)

	require.ErrorIs(t, err, boom)
	assert.Len(t, first.Updates, 1)
	assert.Empty(t, second.Updates)
}

func TestAttach_PermitsDuplicates(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	connector := f.factory.New()
	observer := services.NewMockObserver()
	connector.Attach(observer)
	connector.Attach(observer)

	require.NoError(t, connector.Notify(ctx))
	assert.Len(t, observer.Updates, 2)
}
