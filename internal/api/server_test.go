package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ashvale/tradewinds/internal/engine"
	"github.com/ashvale/tradewinds/internal/scenario"
)

func testServer(t *testing.T) *Server {
	t.Helper()
	scn, err := scenario.Default()
	if err != nil {
		t.Fatalf("default scenario: %v", err)
	}
	sim, err := engine.NewSimulation(scn)
	if err != nil {
		t.Fatalf("NewSimulation: %v", err)
	}
	return &Server{Sim: sim, Eng: engine.NewEngine()}
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, into any) {
	t.Helper()
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %q", rec.Code, rec.Body.String())
	}
	if err := json.Unmarshal(rec.Body.Bytes(), into); err != nil {
		t.Fatalf("decode: %v", err)
	}
}

func TestStatusEndpoint(t *testing.T) {
	srv := testServer(t)
	h := srv.Handler()

	var status map[string]any
	decode(t, get(t, h, "/api/v1/status"), &status)

	if status["name"] != srv.Sim.Scenario.Name {
		t.Fatalf("name = %v", status["name"])
	}
	if status["population"].(float64) <= 0 {
		t.Fatal("world reports no population")
	}
	if status["sim_time"] != engine.SimTime(0) {
		t.Fatalf("sim_time = %v", status["sim_time"])
	}
}

func TestSettlementsEndpoint(t *testing.T) {
	srv := testServer(t)
	h := srv.Handler()

	var list []map[string]any
	decode(t, get(t, h, "/api/v1/settlements"), &list)

	if len(list) != len(srv.Sim.Settlements) {
		t.Fatalf("settlements = %d, want %d", len(list), len(srv.Sim.Settlements))
	}
	for _, entry := range list {
		if entry["fertility"].(float64) <= 0 {
			t.Fatalf("settlement %v has no fertility", entry["name"])
		}
	}
}

func TestSettlementDetail(t *testing.T) {
	srv := testServer(t)
	h := srv.Handler()

	var detail map[string]any
	decode(t, get(t, h, "/api/v1/settlement/saltmere"), &detail)

	pops := detail["populations"].([]any)
	if len(pops) == 0 {
		t.Fatal("no populations in detail")
	}
	first := pops[0].(map[string]any)
	if first["name"] != "fishers" {
		t.Fatalf("first population = %v", first["name"])
	}

	if rec := get(t, h, "/api/v1/settlement/atlantis"); rec.Code != http.StatusNotFound {
		t.Fatalf("unknown settlement: status = %d", rec.Code)
	}
}

func TestMarketDetail(t *testing.T) {
	srv := testServer(t)
	h := srv.Handler()

	var detail map[string]any
	decode(t, get(t, h, "/api/v1/market/saltmere"), &detail)

	if detail["legal_tender"] != "crown" {
		t.Fatalf("legal_tender = %v", detail["legal_tender"])
	}
	entries := detail["entries"].([]any)
	found := false
	for _, e := range entries {
		entry := e.(map[string]any)
		if entry["good"] == "fish" && entry["price"].(float64) > 0 {
			found = true
		}
	}
	if !found {
		t.Fatal("fish not quoted on the saltmere market")
	}
}

func TestBulkMapAndHexDetail(t *testing.T) {
	srv := testServer(t)
	h := srv.Handler()

	var bulk map[string]any
	decode(t, get(t, h, "/api/v1/map"), &bulk)
	if len(bulk["hexes"].([]any)) == 0 {
		t.Fatal("empty map payload")
	}
	sites := bulk["sites"].([]any)
	if len(sites) != len(srv.Sim.Settlements) {
		t.Fatalf("sites = %d, want %d", len(sites), len(srv.Sim.Settlements))
	}

	site := srv.Sim.Settlements[0].Site
	var hex map[string]any
	path := fmt.Sprintf("/api/v1/map/%d/%d", site.Coord.Q, site.Coord.R)
	decode(t, get(t, h, path), &hex)
	if hex["settlement"] != srv.Sim.Settlements[0].Name {
		t.Fatalf("hex detail settlement = %v", hex["settlement"])
	}

	if rec := get(t, h, "/api/v1/map/9999/9999"); rec.Code != http.StatusNotFound {
		t.Fatalf("out-of-bounds hex: status = %d", rec.Code)
	}
	if rec := get(t, h, "/api/v1/map/not/numbers"); rec.Code != http.StatusBadRequest {
		t.Fatalf("garbage coordinates: status = %d", rec.Code)
	}
}

func TestSpeedRequiresAdminToken(t *testing.T) {
	srv := testServer(t)
	h := srv.Handler()

	post := func(token string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/speed", strings.NewReader(`{"speed": 5}`))
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	// No admin key configured: POST is disabled outright.
	if rec := post("anything"); rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}

	srv.AdminKey = "sesame"
	if rec := post("wrong"); rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	if rec := post("sesame"); rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if srv.Eng.Speed() != 5 {
		t.Fatalf("speed = %v after admin change", srv.Eng.Speed())
	}

	// GET remains public.
	if rec := get(t, h, "/api/v1/speed"); rec.Code != http.StatusOK {
		t.Fatalf("GET speed status = %d", rec.Code)
	}
}

func TestRateLimiterWindow(t *testing.T) {
	rl := NewRateLimiter(3, time.Minute)

	for i := 0; i < 3; i++ {
		if !rl.Allow("10.0.0.1") {
			t.Fatalf("request %d rejected inside the window", i+1)
		}
	}
	if rl.Allow("10.0.0.1") {
		t.Fatal("fourth request allowed")
	}
	if rl.RetryAfter("10.0.0.1") <= 0 {
		t.Fatal("no retry-after for a limited client")
	}
	// A different client is unaffected.
	if !rl.Allow("10.0.0.2") {
		t.Fatal("second client rejected")
	}
}

func TestClientIPPrefersForwardedHeader(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "127.0.0.1:9999"
	if got := clientIP(req); got != "127.0.0.1" {
		t.Fatalf("clientIP = %q", got)
	}
	req.Header.Set("X-Forwarded-For", "203.0.113.9, 127.0.0.1")
	if got := clientIP(req); got != "203.0.113.9" {
		t.Fatalf("clientIP = %q", got)
	}
}
