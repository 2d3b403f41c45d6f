package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mwangaza-labs/mpesa-b2c-gateway/internal/domain"
)

func TestNewIntegrationRequest_StartsPending(t *testing.T) {
	req, err := domain.NewIntegrationRequest("conv-001", "https://api.example.com/pay", `{"Amount":10}`, map[string]string{"Content-Type": "application/json"})

	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, req.Status)
	assert.Nil(t, req.Output)
	assert.Nil(t, req.Error)
	assert.False(t, req.CreatedAt.IsZero())
}

func TestNewIntegrationRequest_RequiresID(t *testing.T) {
	_, err := domain.NewIntegrationRequest("", "https://api.example.com/pay", "{}", nil)
	require.Error(t, err)
}

func TestNewIntegrationRequest_RequiresURL(t *testing.T) {
	_, err := domain.NewIntegrationRequest("conv-001", "", "{}", nil)
	require.Error(t, err)
}

func TestMarkFailed_SetsResultFields(t *testing.T) {
	req, err := domain.NewIntegrationRequest("conv-001", "https://api.example.com/pay", "{}", nil)
	require.NoError(t, err)

	req.MarkFailed(`{"ResultCode":1}`, "Insufficient funds")

	assert.Equal(t, domain.StatusFailed, req.Status)
	require.NotNil(t, req.Output)
	assert.Equal(t, `{"ResultCode":1}`, *req.Output)
	require.NotNil(t, req.Error)
	assert.Equal(t, "Insufficient funds", *req.Error)
	assert.NotNil(t, req.UpdatedAt)
}

func TestMarkCompleted_OverwritesPreviousFailure(t *testing.T) {
	req, err := domain.NewIntegrationRequest("conv-001", "https://api.example.com/pay", "{}", nil)
	require.NoError(t, err)

	req.MarkFailed("", "timeout")
	req.MarkCompleted(`{"ResultCode":0}`)

	assert.Equal(t, domain.StatusCompleted, req.Status)
	require.NotNil(t, req.Output)
	assert.Equal(t, `{"ResultCode":0}`, *req.Output)
	assert.Nil(t, req.Error)
}
