// internal/adapters/http_server/handlers.go
package httpserver

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"review_pulse/internal/app"
	"review_pulse/internal/domain"
	"review_pulse/internal/report"
)

type Handlers struct {
	R                *app.ReportService
	DefaultCountries string // used when the countries parameter is absent
	ExportPrefix     string
	Now              func() time.Time
}

type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

func (s *Server) MountHandlers(h *Handlers) {
	if h.Now == nil {
		h.Now = time.Now
	}
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })
	s.mux.Get("/v1/report", h.getReport)
	s.mux.Get("/v1/report/export", h.exportReport)
	s.mux.Get("/v1/runs", h.listRuns)
	s.mux.Get("/v1/runs/{id}/reviews", h.runReviews)
}

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(problem{Type: "about:blank", Title: title, Status: status, Detail: detail}); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
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

func writeJSON(w http.ResponseWriter, r *http.Request, v any) {
	etag, body := calcETagAndBody(v)
	if body == nil {
		writeProblem(w, http.StatusInternalServerError, "Internal Error", "response could not be encoded")
		return
	}
	// cached snapshots render identically, so clients can revalidate cheaply
	if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag {
		w.Header().Set("ETag", etag)
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("ETag", etag)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Msg("failed to write JSON body")
	}
}

// generate resolves the locale and translate parameters shared by the report
// endpoints and runs the pipeline. It writes the problem response itself and
// returns ok=false on failure.
func (h *Handlers) generate(w http.ResponseWriter, r *http.Request) (domain.Snapshot, bool) {
	q := r.URL.Query()
	input := h.DefaultCountries
	if vs, present := q["countries"]; present {
		input = ""
		if len(vs) > 0 {
			input = vs[0]
		}
	}
	locales, err := app.ParseLocales(input)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid countries", err.Error())
		return domain.Snapshot{}, false
	}

	translate := false
	if v := q.Get("translate"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			writeProblem(w, http.StatusBadRequest, "Invalid translate", "translate must be true or false")
			return domain.Snapshot{}, false
		}
		translate = b
	}

	snap, err := h.R.Generate(r.Context(), locales, translate)
	switch {
	case err == nil:
		return snap, true
	case errors.Is(err, domain.ErrNoLocales):
		writeProblem(w, http.StatusBadRequest, "Invalid countries", err.Error())
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		writeProblem(w, http.StatusServiceUnavailable, "Timeout", "report generation did not finish in time")
	default:
		log.Error().Err(err).Strs("locales", locales).Msg("report generation failed")
		writeProblem(w, http.StatusInternalServerError, "Internal Error", "report generation failed")
	}
	return domain.Snapshot{}, false
}

func scoreParam(r *http.Request, name string) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 || n > 5 {
		return 0, fmt.Errorf("%s must be an integer between 1 and 5", name)
	}
	return n, nil
}

func (h *Handlers) getReport(w http.ResponseWriter, r *http.Request) {
	minScore, err := scoreParam(r, "min_score")
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid filter", err.Error())
		return
	}
	maxScore, err := scoreParam(r, "max_score")
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid filter", err.Error())
		return
	}

	snap, ok := h.generate(w, r)
	if !ok {
		return
	}
	rep := report.Build(snap, report.Filter{
		Country:  r.URL.Query().Get("country"),
		MinScore: minScore,
		MaxScore: maxScore,
		Query:    r.URL.Query().Get("q"),
	})
	writeJSON(w, r, rep)
}

func (h *Handlers) exportReport(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.generate(w, r)
	if !ok {
		return
	}
	if snap.Empty() {
		writeProblem(w, http.StatusNotFound, "Not Found", report.NoReviewsMessage)
		return
	}

	name := report.ExportFilename(h.ExportPrefix, h.Now())
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.WriteHeader(http.StatusOK)
	if err := report.WriteCSV(w, snap.Reviews, h.R.TargetLang()); err != nil {
		log.Error().Err(err).Str("file", name).Msg("failed to write CSV export")
	}
}

func (h *Handlers) listRuns(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if ls := r.URL.Query().Get("limit"); ls != "" {
		l, err := strconv.Atoi(ls)
		if err != nil || l <= 0 || l > 200 {
			writeProblem(w, http.StatusBadRequest, "Invalid limit", "limit must be an integer between 1 and 200")
			return
		}
		limit = l
	}

	runs, err := h.R.ListRuns(r.Context(), limit)
	if errors.Is(err, domain.ErrNotFound) {
		writeProblem(w, http.StatusNotFound, "Not Found", "run archive is not configured")
		return
	}
	if err != nil {
		log.Error().Err(err).Msg("list runs failed")
		writeProblem(w, http.StatusInternalServerError, "Internal Error", "runs could not be loaded")
		return
	}
	if runs == nil {
		runs = []domain.Run{}
	}
	writeJSON(w, r, runs)
}

func (h *Handlers) runReviews(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	rows, err := h.R.RunReviews(r.Context(), id)
	if errors.Is(err, domain.ErrNotFound) {
		writeProblem(w, http.StatusNotFound, "Not Found", "run not found")
		return
	}
	if err != nil {
		log.Error().Err(err).Str("run", id).Msg("load run reviews failed")
		writeProblem(w, http.StatusInternalServerError, "Internal Error", "run reviews could not be loaded")
		return
	}
	if rows == nil {
		rows = []domain.Review{}
	}
	writeJSON(w, r, rows)
}
