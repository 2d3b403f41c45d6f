package rest

import (
	"encoding/json"
	"net/http"

	"github.com/mwangaza-labs/mpesa-b2c-gateway/internal/domain"
)

// resultEnvelope is the wrapper the provider posts results in.
type resultEnvelope struct {
	Result domain.B2CResult `json:"Result"`
}

// HandleB2CResult is the public, unauthenticated endpoint the provider
// calls once it settles a disbursement. It never errors back to the
// provider: failures are logged and the delivery is acknowledged anyway,
// since the provider retries on anything but a 2xx.
func (h *Handler) HandleB2CResult(w http.ResponseWriter, r *http.Request) {
	var envelope resultEnvelope
	if err := json.NewDecoder(r.Body).Decode(&envelope); err != nil {
		h.logger.Warn("discarding malformed b2c result", "error", err)
		respondWithJSON(w, http.StatusOK, nil)
		return
	}

	if err := h.callbacks.ProcessResult(r.Context(), envelope.Result); err != nil {
		h.logger.Warn("failed to record b2c result",
			"originator_conversation_id", envelope.Result.OriginatorConversationID,
			"error", err,
		)
	}

	respondWithJSON(w, http.StatusOK, nil)
}
