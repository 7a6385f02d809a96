package webhook

import (
	"errors"
	"io"
	"net/http"

	"github.com/soyeahso/zoebot/internal/domain"
	"github.com/soyeahso/zoebot/internal/metrics"
	"github.com/soyeahso/zoebot/internal/routing"
)

// HealthResponse is returned by the health endpoint.
type HealthResponse struct {
	Status string `json:"status"`
}

// registerRoutes sets up all HTTP routes on the server mux.
func (s *Server) registerRoutes(mux *http.ServeMux) {
	path := s.cfg.Path
	if path == "" || path == "/" {
		path = "/{$}"
	}

	var fulfill http.Handler = http.HandlerFunc(s.handleFulfillment)
	fulfill = requireAuth(fulfill, s.auth, s.log)
	mux.Handle("POST "+path, fulfill)

	mux.HandleFunc("GET /{$}", handleRoot)
	mux.HandleFunc("GET /health", handleHealth)
	if s.metricsEnabled() {
		mux.Handle("GET "+s.metrics.Path, metrics.Handler(s.gatherer))
	}

	// Catch-all for unknown routes
	mux.HandleFunc("/", handleNotFound)
}

// handleFulfillment runs one Dialogflow turn.
func (s *Server) handleFulfillment(w http.ResponseWriter, r *http.Request) {
	reqID := RequestID(r.Context())
	log := s.log.With("requestId", reqID)

	req, err := decodeRequest(r.Body)
	if err != nil {
		log.Warn().Err(err).Msg("bad fulfillment request")
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	identity := routing.ResolveIdentity(req.UserID(), req.Session, s.identity)
	if identity == "" {
		writeError(w, http.StatusBadRequest, "session is required")
		return
	}

	turn := domain.Turn{
		ID:          reqID,
		Identity:    identity,
		SessionPath: req.Session,
		Intent:      domain.Intent(req.QueryResult.Intent.DisplayName),
		Query:       req.QueryResult.QueryText,
	}

	reply, err := s.router.RouteParams(r.Context(), turn, req.QueryResult.Parameters)
	switch {
	case errors.Is(err, routing.ErrUnknownIntent):
		writeError(w, http.StatusNotFound, err.Error())
		return
	case errors.Is(err, routing.ErrInvalidParams):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		log.Error().Err(err).Str("intent", string(turn.Intent)).Msg("fulfillment failed")
		writeError(w, http.StatusInternalServerError, "fulfillment failed")
		return
	}

	writeJSON(w, http.StatusOK, encodeReply(req.Session, reply))
}

// handleRoot answers the liveness check the assistant platform console uses.
func handleRoot(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	io.WriteString(w, "ok")
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// handleNotFound returns a 404 for unknown routes.
func handleNotFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, map[string]string{
		"error": "not found",
		"path":  r.URL.Path,
	})
}
