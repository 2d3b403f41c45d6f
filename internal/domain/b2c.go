package domain

import (
	"encoding/json"
	"errors"

	"github.com/google/uuid"
)

// B2CRequest is the immutable instruction to disburse money to a customer.
// ConsumerKey/ConsumerSecret are only used to authenticate against the
// provider and are never part of the wire payload.
type B2CRequest struct {
	Setting        string
	ConsumerKey    string
	ConsumerSecret string

	OriginatorConversationID string
	InitiatorName            string
	SecurityCredential       string
	CommandID                string
	Amount                   float64
	PartyA                   int64
	PartyB                   string
	Remarks                  string
	Occasion                 string
}

// B2CPayload is the JSON body posted to the Daraja B2C payment endpoint.
type B2CPayload struct {
	OriginatorConversationID string  `json:"OriginatorConversationID"`
	InitiatorName            string  `json:"InitiatorName"`
	SecurityCredential       string  `json:"SecurityCredential"`
	CommandID                string  `json:"CommandID"`
	Amount                   float64 `json:"Amount"`
	PartyA                   int64   `json:"PartyA"`
	PartyB                   string  `json:"PartyB"`
	Remarks                  string  `json:"Remarks"`
	QueueTimeOutURL          string  `json:"QueueTimeOutURL"`
	ResultURL                string  `json:"ResultURL"`
	Occasion                 string  `json:"Occasion,omitempty"`
}

// NewB2CRequest validates the instruction and assigns a fresh
// OriginatorConversationID when the caller did not supply one.
func NewB2CRequest(req B2CRequest) (*B2CRequest, error) {
	if req.Setting == "" {
		return nil, errors.New("setting is required")
	}
	if req.ConsumerKey == "" || req.ConsumerSecret == "" {
		return nil, errors.New("consumer credentials are required")
	}
	if req.InitiatorName == "" {
		return nil, errors.New("initiator name is required")
	}
	if req.SecurityCredential == "" {
		return nil, errors.New("security credential is required")
	}
	if req.Amount <= 0 {
		return nil, errors.New("amount must be positive")
	}
	if req.PartyA == 0 {
		return nil, errors.New("party A shortcode is required")
	}
	if req.PartyB == "" {
		return nil, errors.New("party B phone number is required")
	}

	if req.CommandID == "" {
		req.CommandID = "BusinessPayment"
	}
	if req.OriginatorConversationID == "" {
		req.OriginatorConversationID = uuid.New().String()
	}

	return &req, nil
}

// Payload builds the wire body, injecting the callback URL as both the
// timeout and result destination.
func (r *B2CRequest) Payload(callbackURL string) B2CPayload {
	return B2CPayload{
		OriginatorConversationID: r.OriginatorConversationID,
		InitiatorName:            r.InitiatorName,
		SecurityCredential:       r.SecurityCredential,
		CommandID:                r.CommandID,
		Amount:                   r.Amount,
		PartyA:                   r.PartyA,
		PartyB:                   r.PartyB,
		Remarks:                  r.Remarks,
		QueueTimeOutURL:          callbackURL,
		ResultURL:                callbackURL,
		Occasion:                 r.Occasion,
	}
}

// B2CResult is the asynchronous result envelope the provider posts to the
// callback endpoint once it finishes processing a disbursement. The
// settlement detail blocks are kept raw so the stored output round-trips
// the delivery losslessly.
type B2CResult struct {
	ResultType               int    `json:"ResultType"`
	ResultCode               int    `json:"ResultCode"`
	ResultDesc               string `json:"ResultDesc"`
	OriginatorConversationID string `json:"OriginatorConversationID"`
	ConversationID           string `json:"ConversationID"`
	TransactionID            string `json:"TransactionID"`

	ResultParameters json.RawMessage `json:"ResultParameters,omitempty"`
	ReferenceData    json.RawMessage `json:"ReferenceData,omitempty"`
}

// Succeeded reports whether the provider settled the disbursement.
func (r *B2CResult) Succeeded() bool {
	return r.ResultCode == 0
}
