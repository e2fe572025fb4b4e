package chi

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/wilfordwoodruff/recommend-streamlit/internal/domain"
	"github.com/wilfordwoodruff/recommend-streamlit/internal/domain/facet"
	"github.com/wilfordwoodruff/recommend-streamlit/internal/domain/neighbor"
	logpkg "github.com/wilfordwoodruff/recommend-streamlit/internal/logger"
	healthuc "github.com/wilfordwoodruff/recommend-streamlit/internal/usecase/health"
	lookupuc "github.com/wilfordwoodruff/recommend-streamlit/internal/usecase/lookup"
)

// Lookup is the viewer query contract.
type Lookup interface {
	IDs() []int32
	Facets() []facet.Facet
	Entry(ctx context.Context, id int32) (lookupuc.View, error)
	Neighbors(ctx context.Context, f facet.Facet, id int32) (neighbor.Record, error)
}

// HealthChecker aggregates component health.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}

// Server serves the viewer API.
type Server struct {
	lookup        Lookup
	health        HealthChecker
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(lookup Lookup, health HealthChecker, logger *zap.Logger) *Server {
	s := &Server{
		lookup: lookup,
		health: health,
		logger: logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, CodeNotFound),
		sentinelHandler(domain.ErrUnknownFacet, http.StatusBadRequest, CodeUnknownFacet),
	}
	return s
}

// Routes registers every handler on r.
func (s *Server) Routes(r chi.Router) {
	r.Get("/healthz", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
	r.Route("/v1", func(r chi.Router) {
		r.Get("/entries", s.ListEntries)
		r.Get("/entries/{id}", s.GetEntry)
		r.Get("/facets/{facet}/neighbors/{id}", s.GetNeighbors)
	})
}

// --- response bodies ---

// EntryListResponse lists every entry id.
type EntryListResponse struct {
	IDs    []int32  `json:"ids"`
	Facets []string `json:"facets"`
	Total  int      `json:"total"`
}

// EntryBody is an entry's display fields.
type EntryBody struct {
	ID         int32  `json:"internal_id"`
	Transcript string `json:"text_only_transcript"`
	People     string `json:"people"`
	Places     string `json:"places"`
	Topics     string `json:"topics"`
}

// MatchBody is one ranked neighbor.
type MatchBody struct {
	Rank int `json:"rank"`
	EntryBody
}

// EntryResponse is an entry with its matches per facet.
type EntryResponse struct {
	Entry   EntryBody              `json:"entry"`
	Matches map[string][]MatchBody `json:"matches"`
}

// NeighborsResponse is the raw snapshot row.
type NeighborsResponse struct {
	Facet      string `json:"facet"`
	InternalID int32  `json:"internal_id"`
	Closest0   int32  `json:"closest_0"`
	Closest1   int32  `json:"closest_1"`
	Closest2   int32  `json:"closest_2"`
	Closest3   int32  `json:"closest_3"`
}

// HealthResponse is the /healthz body.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// --- handlers ---

// ListEntries handles GET /v1/entries.
func (s *Server) ListEntries(w http.ResponseWriter, _ *http.Request) {
	ids := s.lookup.IDs()
	facets := s.lookup.Facets()
	names := make([]string, len(facets))
	for i, f := range facets {
		names[i] = f.String()
	}
	writeJSON(w, http.StatusOK, EntryListResponse{IDs: ids, Facets: names, Total: len(ids)})
}

// GetEntry handles GET /v1/entries/{id}.
func (s *Server) GetEntry(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	v, err := s.lookup.Entry(r.Context(), id)
	if err != nil {
		s.handleDomainError(r.Context(), w, err)
		return
	}

	resp := EntryResponse{Entry: entryToBody(v.Entry), Matches: make(map[string][]MatchBody, len(v.Matches))}
	for f, matches := range v.Matches {
		items := make([]MatchBody, len(matches))
		for i, m := range matches {
			items[i] = MatchBody{Rank: m.Rank, EntryBody: entryToBody(m.Entry)}
		}
		resp.Matches[f.String()] = items
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetNeighbors handles GET /v1/facets/{facet}/neighbors/{id}.
func (s *Server) GetNeighbors(w http.ResponseWriter, r *http.Request) {
	f, err := facet.Parse(chi.URLParam(r, "facet"))
	if err != nil {
		s.handleDomainError(r.Context(), w, err)
		return
	}
	id, ok := parseID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	rec, err := s.lookup.Neighbors(r.Context(), f, id)
	if err != nil {
		s.handleDomainError(r.Context(), w, err)
		return
	}

	writeJSON(w, http.StatusOK, NeighborsResponse{
		Facet:      f.String(),
		InternalID: rec.InternalID,
		Closest0:   rec.Closest[0],
		Closest1:   rec.Closest[1],
		Closest2:   rec.Closest[2],
		Closest3:   rec.Closest[3],
	})
}

// HealthCheck handles GET /healthz.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		httpStatus = http.StatusServiceUnavailable
	}
	writeJSON(w, httpStatus, HealthResponse{Status: string(report.Status), Checks: checks})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func parseID(w http.ResponseWriter, raw string) (int32, bool) {
	v, err := strconv.ParseInt(raw, 10, 32)
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, fmt.Sprintf("invalid internal_id %q", raw))
		return 0, false
	}
	return int32(v), true
}

func entryToBody(e lookupuc.Entry) EntryBody {
	return EntryBody{
		ID:         e.ID,
		Transcript: e.Transcript,
		People:     e.People,
		Places:     e.Places,
		Topics:     e.Topics,
	}
}

func (s *Server) handleDomainError(ctx context.Context, w http.ResponseWriter, err error) {
	log := logpkg.FromContext(ctx)
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			log.Debug("domain error", zap.Error(err))
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, CodeInternalError, "internal error")
}
