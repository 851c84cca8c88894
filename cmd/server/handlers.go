package main

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/Simplici0/packout/internal/adjust"
	"github.com/Simplici0/packout/internal/apperrors"
	"github.com/Simplici0/packout/internal/cartage"
	"github.com/Simplici0/packout/internal/labor"
	"github.com/Simplici0/packout/internal/pricing"
	"github.com/Simplici0/packout/internal/provision"
	"github.com/Simplici0/packout/internal/rooms"
	"github.com/Simplici0/packout/internal/scope"
)

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.db != nil {
		if err := s.db.PingContext(r.Context()); err != nil {
			errorResponse(w, http.StatusServiceUnavailable, "unavailable", "database unreachable")
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *server) handleCartage(w http.ResponseWriter, r *http.Request) {
	var in cartage.Input
	if err := decodeJSON(w, r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	res, err := cartage.Compute(in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *server) handleTLI(w http.ResponseWriter, r *http.Request) {
	var in cartage.TLIInput
	if err := decodeJSON(w, r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	res, err := cartage.ComputeTLI(in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

type inferRequest struct {
	Rooms       []rooms.Room `json:"rooms"`
	BoxOverride *int         `json:"box_override,omitempty"`
}

type inferResponse struct {
	Rooms     []rooms.Room     `json:"rooms"`
	TagCount  int              `json:"tag_count"`
	BoxCount  int              `json:"box_count"`
	Inference *rooms.Inference `json:"inference,omitempty"`
}

// handleInferRooms infers hidden box counts, or spreads a manual box total
// across rooms when box_override is set.
func (s *server) handleInferRooms(w http.ResponseWriter, r *http.Request) {
	var req inferRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if len(req.Rooms) == 0 {
		s.writeError(w, r, fmt.Errorf("no rooms: %w", apperrors.ErrInvalidInput))
		return
	}
	if err := rooms.Validate(req.Rooms); err != nil {
		s.writeError(w, r, err)
		return
	}

	normalized := rooms.Normalize(req.Rooms)
	var resp inferResponse
	if req.BoxOverride != nil {
		distributed, err := rooms.DistributeBoxes(normalized, *req.BoxOverride)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		resp.Rooms = distributed
	} else {
		inf := s.inferer.InferBoxCounts(normalized)
		resp.Rooms = inf.Rooms
		resp.Inference = &inf
	}
	resp.TagCount, resp.BoxCount = rooms.Totals(resp.Rooms)
	writeJSON(w, http.StatusOK, resp)
}

type adjustRequest struct {
	Raw       adjust.Raw `json:"raw"`
	RecentEra bool       `json:"recent_era"`
}

type adjustResponse struct {
	adjust.Estimate
	Report string `json:"report"`
}

func (s *server) handleAdjust(w http.ResponseWriter, r *http.Request) {
	if s.adjuster == nil {
		s.writeError(w, r, fmt.Errorf("correction factors are not loaded: %w", apperrors.ErrNotFound))
		return
	}
	var req adjustRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	est, err := s.adjuster.Adjust(req.Raw, req.RecentEra)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, adjustResponse{Estimate: est, Report: adjust.FormatReport(est)})
}

type vaultRequest struct {
	Tags   int  `json:"tag_count"`
	Boxes  int  `json:"box_count"`
	Manual *int `json:"manual_vaults,omitempty"`
}

func (s *server) handleVaults(w http.ResponseWriter, r *http.Request) {
	var req vaultRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	var (
		v   provision.Vaults
		err error
	)
	if req.Manual != nil {
		v, err = provision.ManualVaults(*req.Manual)
	} else {
		v, err = provision.DeriveVaults(req.Tags, req.Boxes)
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

type padRequest struct {
	Tags     int  `json:"tag_count"`
	Override *int `json:"pad_count,omitempty"`
}

type padResponse struct {
	Pads  int     `json:"pad_count"`
	Ratio float64 `json:"pads_per_tag"`
}

func (s *server) handlePads(w http.ResponseWriter, r *http.Request) {
	var req padRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	pads, err := provision.DerivePads(req.Tags, req.Override)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, padResponse{Pads: pads, Ratio: provision.PadRatio(req.Tags)})
}

type priceRequest struct {
	Items []pricing.LineItem `json:"line_items"`
}

// wantsText reports whether the caller asked for the plain-text report.
func wantsText(r *http.Request) bool {
	return strings.EqualFold(r.URL.Query().Get("format"), "text")
}

func (s *server) handlePrice(w http.ResponseWriter, r *http.Request) {
	var req priceRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	res, err := s.engine.PriceEstimate(req.Items)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if wantsText(r) {
		writeText(w, pricing.FormatEstimate(res))
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// handlePriceStandard prices the single-phase template.
func (s *server) handlePriceStandard(w http.ResponseWriter, r *http.Request) {
	var in pricing.StandardInput
	if err := decodeJSON(w, r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	items, err := pricing.BuildStandard(in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	res, err := s.engine.PriceEstimate(items)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if wantsText(r) {
		writeText(w, pricing.FormatEstimate(res))
		return
	}
	writeJSON(w, http.StatusOK, res)
}

type fivePhaseRequest struct {
	pricing.FivePhaseInput
	PackBackDiscount *float64 `json:"pack_back_discount,omitempty"`
}

type fivePhaseResponse struct {
	pricing.Result
	PhaseTotals []pricing.PhaseTotal `json:"phase_totals"`
}

func (s *server) handlePriceFivePhase(w http.ResponseWriter, r *http.Request) {
	var req fivePhaseRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if req.HandlingRate == nil {
		rate, err := s.labor.BillingRateForMargin(s.settings.TargetMargin)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		req.HandlingRate = &rate
	}
	discount := s.settings.PackBackDiscount
	if req.PackBackDiscount != nil {
		discount = *req.PackBackDiscount
	}

	items, err := pricing.BuildFivePhase(req.FivePhaseInput)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	res, err := s.engine.PriceFivePhase(items, discount)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if wantsText(r) {
		writeText(w, pricing.FormatFivePhase(res))
		return
	}
	writeJSON(w, http.StatusOK, fivePhaseResponse{Result: res, PhaseTotals: res.PhaseTotals()})
}

type scopeRequest struct {
	Items   []pricing.LineItem `json:"line_items"`
	Context scope.Context      `json:"context"`
}

func (s *server) handleScope(w http.ResponseWriter, r *http.Request) {
	var req scopeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	res := scope.Check(req.Items, req.Context)
	if wantsText(r) {
		writeText(w, scope.FormatReport(res))
		return
	}
	writeJSON(w, http.StatusOK, res)
}

type laborRateResponse struct {
	Crew                   labor.Crew   `json:"crew"`
	Burden                 labor.Burden `json:"burden"`
	BurdenedTechCost       float64      `json:"burdened_tech_cost"`
	BurdenedSupervisorCost float64      `json:"burdened_supervisor_cost"`
	CrewCostPerHour        float64      `json:"crew_cost_per_hour"`
	BlendedCostPerPerson   float64      `json:"blended_cost_per_person"`
	TargetMargin           float64      `json:"target_margin"`
	BillingRate            float64      `json:"billing_rate"`
	Breakdown              string       `json:"breakdown"`
}

// handleLaborRate reports the billing rate for ?margin=, or the configured
// target margin.
func (s *server) handleLaborRate(w http.ResponseWriter, r *http.Request) {
	margin := s.settings.TargetMargin
	if raw := strings.TrimSpace(r.URL.Query().Get("margin")); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			s.writeError(w, r, fmt.Errorf("margin %q: %w", raw, apperrors.ErrInvalidInput))
			return
		}
		margin = v
	}

	rate, err := s.labor.BillingRateForMargin(margin)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	breakdown, err := s.labor.FormatBreakdown(margin)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if wantsText(r) {
		writeText(w, breakdown)
		return
	}

	writeJSON(w, http.StatusOK, laborRateResponse{
		Crew:                   s.labor.Crew(),
		Burden:                 s.labor.Burden(),
		BurdenedTechCost:       s.labor.BurdenedTechCost(),
		BurdenedSupervisorCost: s.labor.BurdenedSupervisorCost(),
		CrewCostPerHour:        s.labor.CrewCostPerHour(),
		BlendedCostPerPerson:   s.labor.BlendedCostPerPerson(),
		TargetMargin:           margin,
		BillingRate:            rate,
		Breakdown:              breakdown,
	})
}
