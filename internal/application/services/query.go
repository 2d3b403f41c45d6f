package services

import (
	"context"

	"github.com/mwangaza-labs/mpesa-b2c-gateway/internal/application"
	"github.com/mwangaza-labs/mpesa-b2c-gateway/internal/domain"
)

// QueryService serves read-only lookups of tracking records.
type QueryService struct {
	requests application.RequestStore
}

func NewQueryService(requests application.RequestStore) *QueryService {
	return &QueryService{requests: requests}
}

func (s *QueryService) GetRequest(ctx context.Context, id string) (*domain.IntegrationRequest, error) {
	req, err := s.requests.FindByID(ctx, id)
	if err != nil {
		return nil, application.FromDomain(err)
	}
	return req, nil
}
