package rest

import (
	"net/http"
	"time"

	"github.com/mwangaza-labs/mpesa-b2c-gateway/internal/domain"
)

// HandleGetRequest returns the tracking record for an
// OriginatorConversationID.
func (h *Handler) HandleGetRequest(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		respondWithError(w, domain.NewRequestNotFoundError(id))
		return
	}

	req, err := h.queries.GetRequest(r.Context(), id)
	if err != nil {
		respondWithError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, toAPIRequest(req))
}

type apiIntegrationRequest struct {
	ID        string  `json:"id"`
	URL       string  `json:"url"`
	Status    string  `json:"status"`
	Output    *string `json:"output,omitempty"`
	Error     *string `json:"error,omitempty"`
	CreatedAt string  `json:"created_at"`
	UpdatedAt *string `json:"updated_at,omitempty"`
}

func toAPIRequest(req *domain.IntegrationRequest) apiIntegrationRequest {
	out := apiIntegrationRequest{
		ID:        req.ID,
		URL:       req.URL,
		Status:    string(req.Status),
		Output:    req.Output,
		Error:     req.Error,
		CreatedAt: req.CreatedAt.Format(time.RFC3339),
	}
	if req.UpdatedAt != nil {
		s := req.UpdatedAt.Format(time.RFC3339)
		out.UpdatedAt = &s
	}
	return out
}
