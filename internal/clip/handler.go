package clip

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/flowergardn/coverly/internal/platform/metrics"
)

// Handler exposes the clip pipeline over HTTP.
type Handler struct {
	pipe *Pipeline
	log  *slog.Logger
	met  *metrics.Metrics
}

// NewHandler returns a Handler that runs requests through pipe.
func NewHandler(pipe *Pipeline, log *slog.Logger, met *metrics.Metrics) *Handler {
	return &Handler{pipe: pipe, log: log, met: met}
}

type createRequest struct {
	URL string `json:"url"`
}

type clipPayload struct {
	R2Key string `json:"r2Key"`
	URL   string `json:"url"`
}

type createResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Cached  bool        `json:"cached"`
	Clip    clipPayload `json:"clip"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// CreateClip handles POST /?clientId=<id> with body {"url": "..."}.
// Both validation failures return 400 before any external call is made;
// every pipeline failure maps to the same 500 body with the underlying
// error in details.
func (h *Handler) CreateClip(w http.ResponseWriter, r *http.Request) {
	clientID := r.URL.Query().Get("clientId")
	if clientID == "" {
		h.met.IncResult("error")
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "No client ID provided"})
		return
	}

	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.URL == "" {
		h.met.IncResult("error")
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "No URL provided"})
		return
	}

	res, err := h.pipe.Generate(r.Context(), clientID, req.URL)
	if err != nil {
		h.log.Error("clip generation failed",
			slog.String("url", req.URL),
			slog.String("error", err.Error()),
		)
		writeJSON(w, http.StatusInternalServerError, errorResponse{
			Error:   "Failed to process download",
			Details: err.Error(),
		})
		return
	}

	writeJSON(w, http.StatusOK, createResponse{
		Success: true,
		Message: "Created and uploaded new clip",
		Cached:  false,
		Clip:    clipPayload{R2Key: res.Key, URL: res.URL},
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
