// Package rest exposes the payment submission endpoint, the public
// result-callback endpoint and tracking record lookups.
package rest

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator"

	"github.com/mwangaza-labs/mpesa-b2c-gateway/internal/application"
	"github.com/mwangaza-labs/mpesa-b2c-gateway/internal/domain"
)

// B2CResultPath is where the provider delivers asynchronous results.
// The connector advertises it in every payload's ResultURL.
const B2CResultPath = "/api/v1/callbacks/b2c-result"

type PaymentService interface {
	MakeB2CPaymentRequest(ctx context.Context, req *domain.B2CRequest) (*application.PaymentAck, error)
}

type CallbackProcessor interface {
	ProcessResult(ctx context.Context, result domain.B2CResult) error
}

type RequestQuery interface {
	GetRequest(ctx context.Context, id string) (*domain.IntegrationRequest, error)
}

type Handler struct {
	payments  PaymentService
	callbacks CallbackProcessor
	queries   RequestQuery
	validate  *validator.Validate
	logger    *slog.Logger
}

func NewHandler(
	payments PaymentService,
	callbacks CallbackProcessor,
	queries RequestQuery,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		payments:  payments,
		callbacks: callbacks,
		queries:   queries,
		validate:  validator.New(),
		logger:    logger,
	}
}

func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/payments/b2c", h.HandleSubmitB2C)
	mux.HandleFunc("POST "+B2CResultPath, h.HandleB2CResult)
	mux.HandleFunc("GET /api/v1/requests/{id}", h.HandleGetRequest)
	mux.HandleFunc("GET /health", h.HandleHealth)
}

func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
