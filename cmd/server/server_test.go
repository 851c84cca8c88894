package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Simplici0/packout/internal/adjust"
	"github.com/Simplici0/packout/internal/cartage"
	"github.com/Simplici0/packout/internal/db"
	"github.com/Simplici0/packout/internal/estimate"
	"github.com/Simplici0/packout/internal/migrations"
	"github.com/Simplici0/packout/internal/pricing"
	"github.com/Simplici0/packout/internal/provision"
	"github.com/Simplici0/packout/internal/refdata"
	"github.com/Simplici0/packout/internal/rooms"
)

func newTestServer(t *testing.T, token string, factors *adjust.Table) *server {
	t.Helper()

	database, err := db.Open(filepath.Join(t.TempDir(), "server-test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })
	require.NoError(t, migrations.Up(database, "../../migrations", nil))

	srv, err := newServer(database, reference{
		Pricing:   pricing.DefaultReferences(),
		Baselines: rooms.DefaultBaselines(),
		Factors:   factors,
	}, serverOptions{
		Settings:   estimate.DefaultSettings(),
		Thresholds: rooms.DefaultThresholds(),
		APIToken:   token,
	}, nil)
	require.NoError(t, err)
	return srv
}

func do(t *testing.T, h http.Handler, method, path, body string, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder, dst any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), dst), rr.Body.String())
}

func errorCode(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	decodeBody(t, rr, &body)
	return body["error"]
}

func TestRoutes_TokenGuardsAPI(t *testing.T) {
	h := newTestServer(t, "s3cret", nil).routes()

	rr := do(t, h, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rr.Code, "health check is open")

	rr = do(t, h, http.MethodGet, "/api/labor-rate", "")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, "unauthorized", errorCode(t, rr))

	rr = do(t, h, http.MethodGet, "/api/labor-rate", "", "Authorization", "Bearer wrong")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = do(t, h, http.MethodGet, "/api/labor-rate", "", "Authorization", "Bearer s3cret")
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestRoutes_OpenWithoutToken(t *testing.T) {
	h := newTestServer(t, "", nil).routes()

	rr := do(t, h, http.MethodGet, "/api/labor-rate", "")
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestHandleCartage(t *testing.T) {
	h := newTestServer(t, "", nil).routes()

	rr := do(t, h, http.MethodPost, "/api/cartage",
		`{"drive_time_minutes":48,"truck_loads":1,"crew_size":8,"carry_time_minutes":7,"tag_count":100,"box_count":100}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Contains(t, rr.Header().Get("Content-Type"), "application/json")

	var res cartage.Result
	decodeBody(t, rr, &res)
	assert.InDelta(t, 43.3333, res.TagHours, 1e-4)
	assert.InDelta(t, 10.0, res.BoxHours, 1e-9)
	assert.InDelta(t, 12.8, res.CrewHours, 1e-9)

	rr = do(t, h, http.MethodPost, "/api/cartage", `{"crew_size":-1,"carry_time_minutes":7}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "invalid_input", errorCode(t, rr))

	rr = do(t, h, http.MethodPost, "/api/cartage", `{"crew_size":`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestHandleTLI(t *testing.T) {
	h := newTestServer(t, "", nil).routes()

	rr := do(t, h, http.MethodPost, "/api/tli", `{"round_trip_minutes":10,"single_person_loads":3,"two_person_loads":2}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var res cartage.TLIResult
	decodeBody(t, rr, &res)
	assert.InDelta(t, 70.0, res.TotalMinutes, 1e-9)
	assert.InDelta(t, 1.1667, res.GeneralLaborHours, 1e-4)
	assert.Equal(t, cartage.DefaultSupervisorOwnerHours, res.SupervisorHours)

	rr = do(t, h, http.MethodPost, "/api/tli", `{"round_trip_minutes":-1}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestHandleInferRooms(t *testing.T) {
	h := newTestServer(t, "", nil).routes()

	rr := do(t, h, http.MethodPost, "/api/rooms/infer",
		`{"rooms":[{"name":"Living Room","density":"medium","visual_tags":50},{"name":"Bedroom 2","density":"heavy","visual_tags":50}],"box_override":100}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var resp inferResponse
	decodeBody(t, rr, &resp)
	assert.Nil(t, resp.Inference)
	assert.Equal(t, 100, resp.TagCount)
	assert.Equal(t, 100, resp.BoxCount)
	require.Len(t, resp.Rooms, 2)
	assert.Equal(t, rooms.LivingRoom, resp.Rooms[0].Category)

	rr = do(t, h, http.MethodPost, "/api/rooms/infer",
		`{"rooms":[{"name":"Kitchen","density":"medium","visual_tags":6,"visual_boxes":10}]}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	decodeBody(t, rr, &resp)
	require.NotNil(t, resp.Inference)
	assert.GreaterOrEqual(t, resp.BoxCount, 10, "inference never lowers a visual count")

	rr = do(t, h, http.MethodPost, "/api/rooms/infer", `{"rooms":[]}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	for name, body := range map[string]string{
		"negative tags":          `{"rooms":[{"name":"Kitchen","density":"medium","visual_tags":-10}]}`,
		"negative boxes":         `{"rooms":[{"name":"Bedroom","density":"medium","visual_tags":20,"visual_boxes":-40}]}`,
		"negative with override": `{"rooms":[{"name":"Kitchen","visual_tags":-10}],"box_override":50}`,
	} {
		t.Run(name, func(t *testing.T) {
			rr := do(t, h, http.MethodPost, "/api/rooms/infer", body)
			assert.Equal(t, http.StatusBadRequest, rr.Code, rr.Body.String())
			assert.Equal(t, "invalid_input", errorCode(t, rr))
		})
	}
}

func TestHandleAdjust(t *testing.T) {
	rr := do(t, newTestServer(t, "", nil).routes(), http.MethodPost, "/api/adjust", `{"raw":{"tags":100}}`)
	assert.Equal(t, http.StatusNotFound, rr.Code, "no correction table loaded")

	std := 0.1
	h := newTestServer(t, "", &adjust.Table{
		Tags: adjust.Factor{Value: 1.2, Confidence: 0.8, AllEstimates: adjust.Stats{Median: 1.2, Std: &std, N: 10}},
	}).routes()
	rr = do(t, h, http.MethodPost, "/api/adjust", `{"raw":{"tags":100,"boxes":50}}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var resp adjustResponse
	decodeBody(t, rr, &resp)
	assert.InDelta(t, 120.0, resp.Tags.Adjusted, 1e-9)
	assert.Contains(t, resp.Report, "ESTIMATE ADJUSTMENT REPORT")
}

func TestHandleVaultsAndPads(t *testing.T) {
	h := newTestServer(t, "", nil).routes()

	rr := do(t, h, http.MethodPost, "/api/vaults", `{"tag_count":100,"box_count":100}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var v provision.Vaults
	decodeBody(t, rr, &v)
	assert.Equal(t, 4, v.Total)
	assert.Equal(t, provision.MethodCapacity, v.Method)

	rr = do(t, h, http.MethodPost, "/api/vaults", `{"manual_vaults":6}`)
	require.Equal(t, http.StatusOK, rr.Code)
	decodeBody(t, rr, &v)
	assert.Equal(t, provision.Vaults{Total: 6, Method: provision.MethodManual}, v)

	rr = do(t, h, http.MethodPost, "/api/vaults", `{"manual_vaults":0}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = do(t, h, http.MethodPost, "/api/pads", `{"tag_count":100}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var pads padResponse
	decodeBody(t, rr, &pads)
	assert.Equal(t, 123, pads.Pads)

	rr = do(t, h, http.MethodPost, "/api/pads", `{"tag_count":-3}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestHandlePrice(t *testing.T) {
	h := newTestServer(t, "", nil).routes()

	body := `{"line_items":[{"desc":"` + pricing.DescTag + `","qty":10},{"desc":"Hand-painted mural restoration","qty":1}]}`
	rr := do(t, h, http.MethodPost, "/api/price", body)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var res pricing.Result
	decodeBody(t, rr, &res)
	require.Len(t, res.Lines, 2)
	assert.Equal(t, pricing.SourceReference, res.Lines[0].CostSource)
	assert.Equal(t, pricing.SourceNotFound, res.Lines[1].CostSource)
	assert.Zero(t, res.Lines[1].RCV)

	rr = do(t, h, http.MethodPost, "/api/price?format=text", body)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("Content-Type"), "text/plain")
	assert.Contains(t, rr.Body.String(), "DRAFT ESTIMATE")
}

func TestHandlePriceStandard(t *testing.T) {
	h := newTestServer(t, "", nil).routes()

	rr := do(t, h, http.MethodPost, "/api/price/standard",
		`{"tag_count":40,"box_count":30,"labor_hours":12,"supervisor_hours":3,"storage_months":2,"moving_van_days":1}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var res pricing.Result
	decodeBody(t, rr, &res)
	assert.Len(t, res.Lines, 10)
	assert.Positive(t, res.SubtotalRCV)

	rr = do(t, h, http.MethodPost, "/api/price/standard", `{"labor_hours":-2}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestHandlePriceFivePhase(t *testing.T) {
	h := newTestServer(t, "", nil).routes()

	body := `{"tag_count":100,"box_count":100,"lg_boxes":6,"xl_boxes":2,"handling_hours":66.13,"moving_van_days":1,"vault_months":8}`
	rr := do(t, h, http.MethodPost, "/api/price/five-phase", body)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var resp fivePhaseResponse
	decodeBody(t, rr, &resp)
	assert.Len(t, resp.PhaseTotals, 5)
	for _, l := range resp.Lines {
		if l.Kind == pricing.KindLabor {
			assert.Equal(t, pricing.DefaultHandlingRate, l.AppliedUnitCost, "rate follows the target margin")
		}
	}

	zeroRate := `{"tag_count":100,"box_count":100,"handling_hours":66.13,"handling_rate":0}`
	rr = do(t, h, http.MethodPost, "/api/price/five-phase", zeroRate)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	decodeBody(t, rr, &resp)
	handling := 0
	for _, l := range resp.Lines {
		if l.Kind == pricing.KindLabor {
			handling++
			assert.Equal(t, 0.0, l.AppliedUnitCost, "explicit zero rate is kept")
			assert.Equal(t, 0.0, l.RCV)
		}
	}
	assert.Equal(t, 2, handling)

	rr = do(t, h, http.MethodPost, "/api/price/five-phase?format=text", body)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "PHASE SUMMARY:")

	rr = do(t, h, http.MethodPost, "/api/price/five-phase", `{"tag_count":-1}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestHandleScope(t *testing.T) {
	h := newTestServer(t, "", nil).routes()

	rr := do(t, h, http.MethodPost, "/api/scope",
		`{"line_items":[{"desc":"`+pricing.DescMovingVan+`","qty":1}],"context":{"tag_count":10,"box_count":20}}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var res struct {
		Score int `json:"score"`
	}
	decodeBody(t, rr, &res)
	assert.Equal(t, 20, res.Score)

	rr = do(t, h, http.MethodPost, "/api/scope?format=text", `{"line_items":[]}`)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "SCOPE CHECK REPORT")
}

func TestHandleLaborRate(t *testing.T) {
	h := newTestServer(t, "", nil).routes()

	rr := do(t, h, http.MethodGet, "/api/labor-rate", "")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var resp laborRateResponse
	decodeBody(t, rr, &resp)
	assert.Equal(t, pricing.DefaultHandlingRate, resp.BillingRate)
	assert.Equal(t, 0.65, resp.TargetMargin)
	assert.NotEmpty(t, resp.Breakdown)

	for _, margin := range []string{"abc", "1", "-0.2"} {
		rr = do(t, h, http.MethodGet, "/api/labor-rate?margin="+margin, "")
		assert.Equal(t, http.StatusBadRequest, rr.Code, margin)
	}
}

const harmonJobJSON = `{
  "customer": "Harmon",
  "rooms": [
    {"name": "Living Room", "density": "medium", "visual_tags": 50},
    {"name": "Bedroom 2", "density": "heavy", "visual_tags": 50}
  ],
  "box_override": 100,
  "carry_time_minutes": 7,
  "drive_time_minutes": 48,
  "crew_size": 8,
  "truck_loads": 1
}`

func withURLParam(req *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func TestEstimates_CreateListAndRead(t *testing.T) {
	srv := newTestServer(t, "", nil)
	h := srv.routes()

	rr := do(t, h, http.MethodPost, "/api/estimates", harmonJobJSON)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	var created refdata.Snapshot
	decodeBody(t, rr, &created)
	require.NotEmpty(t, created.ID)
	assert.Equal(t, 100, created.Totals.Tags)
	assert.Equal(t, 85, created.Totals.ScopeScore)
	assert.Positive(t, created.Totals.Total)

	rr = do(t, h, http.MethodGet, "/api/estimates?q=harm", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var list struct {
		Query     string            `json:"query"`
		Estimates []refdata.Summary `json:"estimates"`
	}
	decodeBody(t, rr, &list)
	require.Len(t, list.Estimates, 1)
	assert.Equal(t, created.ID, list.Estimates[0].ID)

	req := withURLParam(httptest.NewRequest(http.MethodGet, "/api/estimates/"+created.ID, nil), "id", created.ID)
	got := httptest.NewRecorder()
	srv.handleGetEstimate(got, req)
	require.Equal(t, http.StatusOK, got.Code)
	var snap refdata.Snapshot
	decodeBody(t, got, &snap)
	assert.Equal(t, created.Totals, snap.Totals)
	assert.Len(t, snap.Estimate.Priced.Lines, len(created.Estimate.Priced.Lines))
}

func TestHandleEstimateTextReturnsPlainText(t *testing.T) {
	srv := newTestServer(t, "", nil)

	rr := do(t, srv.routes(), http.MethodPost, "/api/estimates", harmonJobJSON)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	var created refdata.Snapshot
	decodeBody(t, rr, &created)

	req := withURLParam(httptest.NewRequest(http.MethodGet, "/api/estimates/"+created.ID+"/text", nil), "id", created.ID)
	text := httptest.NewRecorder()
	srv.handleEstimateText(text, req)

	require.Equal(t, http.StatusOK, text.Code)
	assert.Contains(t, text.Header().Get("Content-Type"), "text/plain")
	body := text.Body.String()
	for _, expected := range []string{"ESTIMATE: Harmon", "DRAFT ESTIMATE (5-Phase Structure)", "SCOPE CHECK REPORT - Score: 85/100"} {
		assert.Contains(t, body, expected)
	}
}

func TestEstimates_Errors(t *testing.T) {
	srv := newTestServer(t, "", nil)
	h := srv.routes()

	rr := do(t, h, http.MethodPost, "/api/estimates", `{"customer":"No carry","rooms":[{"name":"Kitchen","visual_tags":3}]}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code, "carry time is required")

	rr = do(t, h, http.MethodPost, "/api/estimates",
		`{"customer":"Wants corrections","rooms":[{"name":"Kitchen","visual_tags":3}],"carry_time_minutes":5,"apply_corrections":true}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code, "no correction table loaded")

	rr = do(t, h, http.MethodGet, "/api/estimates/8d9f6a52-5b6e-4a53-9a57-2f3c2b1d7e10", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = do(t, h, http.MethodGet, "/api/estimates/nope/text", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "not_found", errorCode(t, rr))
}
