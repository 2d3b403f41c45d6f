package rest

import (
	"encoding/json"
	"net/http"

	"github.com/mwangaza-labs/mpesa-b2c-gateway/internal/domain"
)

type SubmitB2CRequest struct {
	Setting        string `json:"setting" validate:"required"`
	ConsumerKey    string `json:"consumer_key" validate:"required"`
	ConsumerSecret string `json:"consumer_secret" validate:"required"`

	OriginatorConversationID string  `json:"originator_conversation_id"`
	InitiatorName            string  `json:"initiator_name" validate:"required"`
	SecurityCredential       string  `json:"security_credential" validate:"required"`
	CommandID                string  `json:"command_id" validate:"omitempty,oneof=SalaryPayment BusinessPayment PromotionPayment"`
	Amount                   float64 `json:"amount" validate:"required,gt=0"`
	PartyA                   int64   `json:"party_a" validate:"required"`
	PartyB                   string  `json:"party_b" validate:"required"`
	Remarks                  string  `json:"remarks" validate:"required"`
	Occasion                 string  `json:"occasion"`
}

// HandleSubmitB2C validates a disbursement instruction and submits it to
// the provider. The response is the provider's immediate acknowledgment;
// the final result arrives later on the callback endpoint.
func (h *Handler) HandleSubmitB2C(w http.ResponseWriter, r *http.Request) {
	var req SubmitB2CRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, domain.NewInvalidInputError(err))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		respondWithError(w, domain.NewInvalidInputError(err))
		return
	}

	b2cReq, err := domain.NewB2CRequest(domain.B2CRequest{
		Setting:                  req.Setting,
		ConsumerKey:              req.ConsumerKey,
		ConsumerSecret:           req.ConsumerSecret,
		OriginatorConversationID: req.OriginatorConversationID,
		InitiatorName:            req.InitiatorName,
		SecurityCredential:       req.SecurityCredential,
		CommandID:                req.CommandID,
		Amount:                   req.Amount,
		PartyA:                   req.PartyA,
		PartyB:                   req.PartyB,
		Remarks:                  req.Remarks,
		Occasion:                 req.Occasion,
	})
	if err != nil {
		respondWithError(w, domain.NewInvalidInputError(err))
		return
	}

	ack, err := h.payments.MakeB2CPaymentRequest(r.Context(), b2cReq)
	if err != nil {
		respondWithError(w, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, ack)
}
