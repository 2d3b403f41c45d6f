package services

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/mwangaza-labs/mpesa-b2c-gateway/internal/application"
	"github.com/mwangaza-labs/mpesa-b2c-gateway/internal/domain"
)

// CallbackService correlates asynchronous provider results back to the
// tracking record they belong to. Providers may redeliver a result, so
// every update is an unconditional overwrite.
type CallbackService struct {
	requests application.RequestStore
	logger   *slog.Logger
}

func NewCallbackService(requests application.RequestStore, logger *slog.Logger) *CallbackService {
	return &CallbackService{
		requests: requests,
		logger:   logger,
	}
}

// ProcessResult updates the record matching the result's
// OriginatorConversationID. ResultCode 0 marks it Completed, anything
// else Failed with ResultDesc as the error; the full envelope is stored
// as output either way.
func (s *CallbackService) ProcessResult(ctx context.Context, result domain.B2CResult) error {
	output, err := json.Marshal(result)
	if err != nil {
		return domain.NewInvalidInputError(err)
	}

	status := domain.StatusFailed
	errMsg := result.ResultDesc
	if result.Succeeded() {
		status = domain.StatusCompleted
		errMsg = ""
	}

	err = s.requests.UpdateResult(ctx, result.OriginatorConversationID, status, string(output), errMsg)
	if err != nil {
		return err
	}

	s.logger.Info("b2c result recorded",
		"originator_conversation_id", result.OriginatorConversationID,
		"result_code", result.ResultCode,
		"status", status,
	)

	return nil
}
