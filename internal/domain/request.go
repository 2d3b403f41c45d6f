// Package domain encodes the records tracked for every outbound B2C
// disbursement and the inbound results correlated back to them.
package domain

import (
	"errors"
	"time"
)

// RequestStatus represents the lifecycle state of an integration request.
type RequestStatus string

const (
	StatusPending   RequestStatus = "Pending"
	StatusCompleted RequestStatus = "Completed"
	StatusFailed    RequestStatus = "Failed"
)

// IntegrationRequest tracks one outbound payment request and the
// asynchronous result the provider later delivers for it. The ID is the
// OriginatorConversationID and is the join key between the two.
type IntegrationRequest struct {
	ID      string
	URL     string
	Payload string
	Headers map[string]string
	Status  RequestStatus
	Output  *string
	Error   *string

	CreatedAt time.Time
	UpdatedAt *time.Time
}

func NewIntegrationRequest(id, url, payload string, headers map[string]string) (*IntegrationRequest, error) {
	if id == "" {
		return nil, errors.New("originator conversation ID is required")
	}
	if url == "" {
		return nil, errors.New("request URL is required")
	}

	return &IntegrationRequest{
		ID:        id,
		URL:       url,
		Payload:   payload,
		Headers:   headers,
		Status:    StatusPending,
		CreatedAt: time.Now(),
	}, nil
}

// MarkFailed records a failure result. Overwrites any previous result:
// providers may redeliver callbacks and the last delivery wins.
func (r *IntegrationRequest) MarkFailed(output, errMsg string) {
	r.applyResult(StatusFailed, output, errMsg)
}

// MarkCompleted records a success result, last-write-wins like MarkFailed.
func (r *IntegrationRequest) MarkCompleted(output string) {
	r.applyResult(StatusCompleted, output, "")
}

func (r *IntegrationRequest) applyResult(status RequestStatus, output, errMsg string) {
	now := time.Now()
	r.Status = status
	r.UpdatedAt = &now

	r.Output = nil
	if output != "" {
		r.Output = &output
	}
	r.Error = nil
	if errMsg != "" {
		r.Error = &errMsg
	}
}
