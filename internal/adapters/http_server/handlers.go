// internal/adapters/http_server/handlers.go
package httpserver

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"rentcomps/internal/app"
	"rentcomps/internal/domain"
)

const maxBodyBytes = 1 << 20

// Analyzer is satisfied by *app.AnalysisService.
type Analyzer interface {
	Analyze(ctx context.Context, req app.AnalyzeRequest) (app.AnalysisResponse, error)
}

// HistoryReader is satisfied by *app.QueryService.
type HistoryReader interface {
	History(ctx context.Context, unitID string, limit int) ([]domain.AnalysisRecord, error)
	Alerts(ctx context.Context, landlordID string, limit int) ([]domain.Alert, error)
}

type Handlers struct {
	A Analyzer
	Q HistoryReader
}

type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

type historyResponse struct {
	UnitID   string                  `json:"unit_id"`
	Analyses []domain.AnalysisRecord `json:"analyses"`
}

type alertsResponse struct {
	LandlordID string         `json:"landlord_id"`
	Alerts     []domain.Alert `json:"alerts"`
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })
	s.mux.Post("/v1/analyses", h.createAnalysis)
	s.mux.Get("/v1/units/{id}/analyses", h.unitHistory)
	s.mux.Get("/v1/landlords/{id}/alerts", h.landlordAlerts)
}

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(problem{Type: "about:blank", Title: title, Status: status, Detail: detail}); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

func writeJSON(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Msg("failed to write response body")
	}
}

// calcETagAndBody marshals once and hashes once, returning both ETag and body.
func calcETagAndBody(v any) (string, []byte) {
	body, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal object for ETag/body")
		return "", nil
	}
	sum := sha1.Sum(body)
	etag := `W/"` + hex.EncodeToString(sum[:]) + `"`
	return etag, body
}

// writeCached honours If-None-Match against the body's ETag.
func writeCached(w http.ResponseWriter, r *http.Request, v any) {
	etag, body := calcETagAndBody(v)
	if body == nil {
		writeProblem(w, http.StatusInternalServerError, "Internal Server Error", "could not encode response")
		return
	}
	w.Header().Set("ETag", etag)
	if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	writeJSON(w, http.StatusOK, body)
}

func parseLimit(r *http.Request) (int, bool) {
	ls := r.URL.Query().Get("limit")
	if ls == "" {
		return 0, true
	}
	l, err := strconv.Atoi(ls)
	if err != nil || l <= 0 || l > 100 {
		return 0, false
	}
	return l, true
}

func (h *Handlers) createAnalysis(w http.ResponseWriter, r *http.Request) {
	var req app.AnalyzeRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid body", err.Error())
		return
	}

	resp, err := h.A.Analyze(r.Context(), req)
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrInvalidInput):
		writeProblem(w, http.StatusBadRequest, "Invalid analysis request", err.Error())
		return
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		writeProblem(w, http.StatusGatewayTimeout, "Timeout", "analysis did not finish in time")
		return
	default:
		log.Error().Err(err).Str("unit_id", req.UnitID).Msg("analysis failed")
		writeProblem(w, http.StatusBadGateway, "Analysis failed", "no comp source could serve this request")
		return
	}

	body, err := json.Marshal(resp)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal analysis")
		writeProblem(w, http.StatusInternalServerError, "Internal Server Error", "could not encode response")
		return
	}
	writeJSON(w, http.StatusOK, body)
}

func (h *Handlers) unitHistory(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	limit, ok := parseLimit(r)
	if !ok {
		writeProblem(w, http.StatusBadRequest, "Invalid limit", "limit must be an integer between 1 and 100")
		return
	}
	out, err := h.Q.History(r.Context(), id, limit)
	if err != nil {
		log.Error().Err(err).Str("unit_id", id).Msg("history query failed")
		writeProblem(w, http.StatusInternalServerError, "Internal Server Error", "history unavailable")
		return
	}
	writeCached(w, r, historyResponse{UnitID: id, Analyses: out})
}

func (h *Handlers) landlordAlerts(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	limit, ok := parseLimit(r)
	if !ok {
		writeProblem(w, http.StatusBadRequest, "Invalid limit", "limit must be an integer between 1 and 100")
		return
	}
	out, err := h.Q.Alerts(r.Context(), id, limit)
	if err != nil {
		log.Error().Err(err).Str("landlord_id", id).Msg("alerts query failed")
		writeProblem(w, http.StatusInternalServerError, "Internal Server Error", "alerts unavailable")
		return
	}
	writeCached(w, r, alertsResponse{LandlordID: id, Alerts: out})
}
