package services

import (
	"context"
	"log/slog"

	"github.com/mwangaza-labs/mpesa-b2c-gateway/internal/application"
	"github.com/mwangaza-labs/mpesa-b2c-gateway/internal/domain"
)

// ErrorObserver is the built-in reaction to connector failures: it logs
// the error, marks the associated tracking record Failed, and hands the
// error back so the request flow terminates.
type ErrorObserver struct {
	requests application.RequestStore
	logger   *slog.Logger
}

func NewErrorObserver(requests application.RequestStore, logger *slog.Logger) *ErrorObserver {
	return &ErrorObserver{
		requests: requests,
		logger:   logger,
	}
}

var _ application.Observer = (*ErrorObserver)(nil)

// Update is a silent no-op when the notifier carries no error, which
// keeps Notify safe to call unconditionally.
func (o *ErrorObserver) Update(ctx context.Context, n application.Notifier) error {
	err := n.Err()
	if err == nil {
		return nil
	}

	o.logger.Error("provider request failed",
		"category", "HTTPError",
		"error", err.Error(),
		"integration_request", n.IntegrationRequestID(),
	)

	if id := n.IntegrationRequestID(); id != "" {
		uerr := o.requests.UpdateResult(ctx, id, domain.StatusFailed, "", err.Error())
		if uerr != nil {
			o.logger.Error("failed to mark integration request failed",
				"integration_request", id,
				"error", uerr,
			)
		}
	}

	return err
}
