package services_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mwangaza-labs/mpesa-b2c-gateway/internal/application/services"
	"github.com/mwangaza-labs/mpesa-b2c-gateway/internal/domain"
)

func newCallbackFixture(t *testing.T) (*services.CallbackService, *services.MockRequestStore) {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	requests := services.NewMockRequestStore()
	return services.NewCallbackService(requests, logger), requests
}

func seedPendingRequest(t *testing.T, requests *services.MockRequestStore, id string) {
	t.Helper()

	req, err := domain.NewIntegrationRequest(id, "https://sandbox.safaricom.co.ke/mpesa/b2c/v3/paymentrequest", "{}", nil)
	require.NoError(t, err)
	require.NoError(t, requests.Create(context.Background(), req))
}

func TestProcessResult_FailureMarksRecordFailed(t *testing.T) {
	ctx := context.Background()
	svc, requests := newCallbackFixture(t)
	seedPendingRequest(t, requests, "X")

	err := svc.ProcessResult(ctx, domain.B2CResult{
		ResultCode:               1,
		ResultDesc:               "Insufficient funds",
		OriginatorConversationID: "X",
	})

	require.NoError(t, err)

	record, err := requests.FindByID(ctx, "X")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusFailed, record.Status)
	require.NotNil(t, record.Error)
	assert.Equal(t, "Insufficient funds", *record.Error)

	require.NotNil(t, record.Output)
	var stored domain.B2CResult
	require.NoError(t, json.Unmarshal([]byte(*record.Output), &stored))
	assert.Equal(t, 1, stored.ResultCode)
}

func TestProcessResult_SuccessMarksRecordCompleted(t *testing.T) {
	ctx := context.Background()
	svc, requests := newCallbackFixture(t)
	seedPendingRequest(t, requests, "conv-9")

	err := svc.ProcessResult(ctx, domain.B2CResult{
		ResultCode:               0,
		ResultDesc:               "The service request is processed successfully.",
		OriginatorConversationID: "conv-9",
		TransactionID:            "QKA2XM6L",
	})

	require.NoError(t, err)

	record, err := requests.FindByID(ctx, "conv-9")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, record.Status)
	assert.Nil(t, record.Error)
	require.NotNil(t, record.Output)
	assert.Contains(t, *record.Output, "QKA2XM6L")
}

func TestProcessResult_StoresSettlementParametersIntact(t *testing.T) {
	ctx := context.Background()
	svc, requests := newCallbackFixture(t)
	seedPendingRequest(t, requests, "conv-42")

	delivery := `{
		"ResultType": 0,
		"ResultCode": 0,
		"ResultDesc": "The service request is processed successfully.",
		"OriginatorConversationID": "conv-42",
		"ConversationID": "AG_20240301_0001",
		"TransactionID": "NLJ7RT61SV",
		"ResultParameters": {
			"ResultParameter": [
				{"Key": "TransactionAmount", "Value": 150},
				{"Key": "TransactionReceipt", "Value": "NLJ7RT61SV"},
				{"Key": "ReceiverPartyPublicName", "Value": "254708374149 - John Doe"}
			]
		},
		"ReferenceData": {
			"ReferenceItem": {"Key": "QueueTimeoutURL", "Value": "https://internalsandbox.safaricom.co.ke/mpesa/b2cresults/v1/submit"}
		}
	}`

	var result domain.B2CResult
	require.NoError(t, json.Unmarshal([]byte(delivery), &result))

	require.NoError(t, svc.ProcessResult(ctx, result))

	record, err := requests.FindByID(ctx, "conv-42")
	require.NoError(t, err)
	require.NotNil(t, record.Output)
	assert.Contains(t, *record.Output, "TransactionReceipt")
	assert.Contains(t, *record.Output, "TransactionAmount")
	assert.Contains(t, *record.Output, "ReceiverPartyPublicName")
	assert.Contains(t, *record.Output, "ReferenceItem")

	var stored domain.B2CResult
	require.NoError(t, json.Unmarshal([]byte(*record.Output), &stored))
	assert.JSONEq(t, string(result.ResultParameters), string(stored.ResultParameters))
	assert.JSONEq(t, string(result.ReferenceData), string(stored.ReferenceData))
}

func TestProcessResult_RedeliveryOverwritesLastWriteWins(t *testing.T) {
	ctx := context.Background()
	svc, requests := newCallbackFixture(t)
	seedPendingRequest(t, requests, "dup-1")

	require.NoError(t, svc.ProcessResult(ctx, domain.B2CResult{
		ResultCode:               1,
		ResultDesc:               "Insufficient funds",
		OriginatorConversationID: "dup-1",
	}))
	require.NoError(t, svc.ProcessResult(ctx, domain.B2CResult{
		ResultCode:               0,
		ResultDesc:               "The service request is processed successfully.",
		OriginatorConversationID: "dup-1",
	}))

	record, err := requests.FindByID(ctx, "dup-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, record.Status)
	assert.Nil(t, record.Error)
}

func TestProcessResult_UnknownIDReturnsNotFound(t *testing.T) {
	ctx := context.Background()
	svc, _ := newCallbackFixture(t)

	err := svc.ProcessResult(ctx, domain.B2CResult{
		ResultCode:               1,
		ResultDesc:               "whatever",
		OriginatorConversationID: "never-submitted",
	})

	require.Error(t, err)
	assert.True(t, domain.IsErrorCode(err, domain.ErrCodeRequestNotFound))
}
