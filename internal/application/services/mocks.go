package services

import (
	"context"
	"sync"
	"time"

	"github.com/mwangaza-labs/mpesa-b2c-gateway/internal/application"
	"github.com/mwangaza-labs/mpesa-b2c-gateway/internal/domain"
)

// MockDarajaClient
type MockDarajaClient struct {
	mu sync.Mutex

	AuthenticateFn func(ctx context.Context, consumerKey, consumerSecret string) (*application.AuthResult, error)
	SubmitB2CFn    func(ctx context.Context, payload domain.B2CPayload, accessToken string) (*application.PaymentAck, error)

	AuthenticateCalls int
	SubmitCalls       []domain.B2CPayload
	SubmitTokens      []string
}

func NewMockDarajaClient() *MockDarajaClient {
	return &MockDarajaClient{}
}

func (m *MockDarajaClient) Authenticate(ctx context.Context, consumerKey, consumerSecret string) (*application.AuthResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.AuthenticateCalls++
	if m.AuthenticateFn != nil {
		return m.AuthenticateFn(ctx, consumerKey, consumerSecret)
	}
	return &application.AuthResult{AccessToken: "mock-token", ExpiresIn: time.Hour}, nil
}

func (m *MockDarajaClient) SubmitB2C(ctx context.Context, payload domain.B2CPayload, accessToken string) (*application.PaymentAck, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SubmitCalls = append(m.SubmitCalls, payload)
	m.SubmitTokens = append(m.SubmitTokens, accessToken)
	if m.SubmitB2CFn != nil {
		return m.SubmitB2CFn(ctx, payload, accessToken)
	}
	return &application.PaymentAck{
		ConversationID:           "AG_mock",
		OriginatorConversationID: payload.OriginatorConversationID,
		ResponseCode:             "0",
		ResponseDescription:      "Accept the service request successfully.",
	}, nil
}

func (m *MockDarajaClient) PaymentURL() string {
	return "https://sandbox.safaricom.co.ke/mpesa/b2c/v3/paymentrequest"
}

// MockTokenStore
type MockTokenStore struct {
	mu     sync.RWMutex
	tokens map[string][]*domain.AccessToken

	SaveFn       func(ctx context.Context, token *domain.AccessToken) error
	FindActiveFn func(ctx context.Context, setting string, now time.Time) (*domain.AccessToken, error)

	SaveCalls int
}

func NewMockTokenStore() *MockTokenStore {
	return &MockTokenStore{
		tokens: make(map[string][]*domain.AccessToken),
	}
}

func (m *MockTokenStore) Save(ctx context.Context, token *domain.AccessToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SaveCalls++
	if m.SaveFn != nil {
		return m.SaveFn(ctx, token)
	}
	m.tokens[token.AssociatedSetting] = append(m.tokens[token.AssociatedSetting], token)
	return nil
}

func (m *MockTokenStore) FindActive(ctx context.Context, setting string, now time.Time) (*domain.AccessToken, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.FindActiveFn != nil {
		return m.FindActiveFn(ctx, setting, now)
	}
	var newest *domain.AccessToken
	for _, t := range m.tokens[setting] {
		if t.Expired(now) {
			continue
		}
		if newest == nil || t.FetchedAt.After(newest.FetchedAt) {
			newest = t
		}
	}
	return newest, nil
}

// Saved returns all tokens stored for a setting, expired ones included.
func (m *MockTokenStore) Saved(setting string) []*domain.AccessToken {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.tokens[setting]
}

// MockRequestStore
type MockRequestStore struct {
	mu       sync.RWMutex
	requests map[string]*domain.IntegrationRequest

	CreateFn           func(ctx context.Context, req *domain.IntegrationRequest) error
	UpdateResultFn     func(ctx context.Context, id string, status domain.RequestStatus, output, errMsg string) error
	FindByIDFn         func(ctx context.Context, id string) (*domain.IntegrationRequest, error)
	FindStalePendingFn func(ctx context.Context, cutoff time.Time, limit int) ([]*domain.IntegrationRequest, error)

	UpdateCalls int
}

func NewMockRequestStore() *MockRequestStore {
	return &MockRequestStore{
		requests: make(map[string]*domain.IntegrationRequest),
	}
}

func (m *MockRequestStore) Create(ctx context.Context, req *domain.IntegrationRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.CreateFn != nil {
		return m.CreateFn(ctx, req)
	}
	m.requests[req.ID] = req
	return nil
}

func (m *MockRequestStore) UpdateResult(ctx context.Context, id string, status domain.RequestStatus, output, errMsg string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.UpdateCalls++
	if m.UpdateResultFn != nil {
		return m.UpdateResultFn(ctx, id, status, output, errMsg)
	}
	req, ok := m.requests[id]
	if !ok {
		return domain.NewRequestNotFoundError(id)
	}
	if status == domain.StatusCompleted {
		req.MarkCompleted(output)
	} else {
		req.MarkFailed(output, errMsg)
	}
	return nil
}

func (m *MockRequestStore) FindByID(ctx context.Context, id string) (*domain.IntegrationRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.FindByIDFn != nil {
		return m.FindByIDFn(ctx, id)
	}
	if req, ok := m.requests[id]; ok {
		return req, nil
	}
	return nil, domain.NewRequestNotFoundError(id)
}

func (m *MockRequestStore) FindStalePending(ctx context.Context, cutoff time.Time, limit int) ([]*domain.IntegrationRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.FindStalePendingFn != nil {
		return m.FindStalePendingFn(ctx, cutoff, limit)
	}
	var stale []*domain.IntegrationRequest
	for _, req := range m.requests {
		if req.Status == domain.StatusPending && req.CreatedAt.Before(cutoff) {
			stale = append(stale, req)
			if len(stale) == limit {
				break
			}
		}
	}
	return stale, nil
}

// MockObserver records every notification it receives.
type MockObserver struct {
	mu sync.Mutex

	UpdateFn func(ctx context.Context, n application.Notifier) error

	Updates []error
}

func NewMockObserver() *MockObserver {
	return &MockObserver{}
}

func (m *MockObserver) Update(ctx context.Context, n application.Notifier) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Updates = append(m.Updates, n.Err())
	if m.UpdateFn != nil {
		return m.UpdateFn(ctx, n)
	}
	return nil
}
