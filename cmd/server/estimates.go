package main

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/Simplici0/packout/internal/estimate"
)

// handleCreateEstimate runs the full pipeline and stores the result.
func (s *server) handleCreateEstimate(w http.ResponseWriter, r *http.Request) {
	var job estimate.Job
	if err := decodeJSON(w, r, &job); err != nil {
		s.writeError(w, r, err)
		return
	}

	est, err := s.generator.Generate(r.Context(), job)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	snap, err := s.store.SaveEstimate(r.Context(), est)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.logger.Info("Estimate saved",
		zap.String("id", snap.ID),
		zap.String("customer", snap.Customer),
		zap.Float64("total", snap.Totals.Total),
	)
	writeJSON(w, http.StatusCreated, snap)
}

func (s *server) handleListEstimates(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	items, err := s.store.ListEstimates(r.Context(), query)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"query":     query,
		"estimates": items,
	})
}

// handleGetEstimate returns the stored snapshot as generated; nothing is
// recalculated against the current reference data.
func (s *server) handleGetEstimate(w http.ResponseWriter, r *http.Request) {
	snap, err := s.store.GetEstimate(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *server) handleEstimateText(w http.ResponseWriter, r *http.Request) {
	snap, err := s.store.GetEstimate(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeText(w, estimate.Report(snap.Estimate))
}
