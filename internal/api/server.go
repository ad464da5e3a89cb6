// Package api provides the HTTP API for querying world state.
// GET endpoints are public (read-only observation).
// POST endpoints require a bearer token (admin control plane).
// See design doc Section 8.4.
package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ashvale/tradewinds/internal/engine"
	"github.com/ashvale/tradewinds/internal/goods"
	"github.com/ashvale/tradewinds/internal/persistence"
	"github.com/ashvale/tradewinds/internal/world"
)

// Server serves the world state over HTTP.
type Server struct {
	Sim      *engine.Simulation
	Eng      *engine.Engine
	DB       *persistence.DB
	Port     int
	AdminKey string // Bearer token for POST endpoints. Empty = POST disabled.
}

// Handler builds the route table. Split out from Start so tests can
// drive the mux without opening a port.
func (s *Server) Handler() http.Handler {
	// The bulk map payload is the one expensive response.
	mapLimiter := NewRateLimiter(60, time.Minute)

	mux := http.NewServeMux()

	// Public endpoints (GET, read-only — anyone can check in on the world).
	mux.HandleFunc("/api/v1/status", s.handleStatus)
	mux.HandleFunc("/api/v1/settlements", s.handleSettlements)
	mux.HandleFunc("/api/v1/settlement/", s.handleSettlementDetail)
	mux.HandleFunc("/api/v1/market/", s.handleMarketDetail)
	mux.HandleFunc("/api/v1/shipments", s.handleShipments)
	mux.HandleFunc("/api/v1/map", RateLimitMiddleware(mapLimiter, s.handleMapRoutes))
	mux.HandleFunc("/api/v1/map/", s.handleMapRoutes)

	// Admin endpoints (POST, require bearer token).
	mux.HandleFunc("/api/v1/speed", s.adminOnly(s.handleSpeed))
	mux.HandleFunc("/api/v1/snapshot", s.adminOnly(s.handleSnapshot))

	return corsMiddleware(mux)
}

// Start begins serving the HTTP API in a goroutine.
func (s *Server) Start() {
	addr := fmt.Sprintf(":%d", s.Port)
	slog.Info("HTTP API starting", "addr", addr, "admin_auth", s.AdminKey != "")

	handler := s.Handler()
	go func() {
		if err := http.ListenAndServe(addr, handler); err != nil {
			slog.Error("HTTP server error", "error", err)
		}
	}()
}

// corsMiddleware adds CORS headers for allowed frontend origins.
// Set CORS_ORIGINS to a comma-separated list of allowed origins.
// Localhost dev servers are always allowed.
func corsMiddleware(next http.Handler) http.Handler {
	allowedOrigins := map[string]bool{
		"http://localhost:5173": true,
		"http://localhost:3000": true,
	}
	if env := os.Getenv("CORS_ORIGINS"); env != "" {
		for _, origin := range strings.Split(env, ",") {
			origin = strings.TrimSpace(origin)
			if origin != "" {
				allowedOrigins[origin] = true
			}
		}
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if allowedOrigins[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// checkBearerToken returns true if the request has a valid admin bearer token.
func (s *Server) checkBearerToken(r *http.Request) bool {
	auth := r.Header.Get("Authorization")
	return strings.HasPrefix(auth, "Bearer ") && strings.TrimPrefix(auth, "Bearer ") == s.AdminKey
}

// adminOnly wraps a handler to require bearer token auth on POST requests.
// GET requests pass through (for endpoints that support both GET and POST).
func (s *Server) adminOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			if s.AdminKey == "" {
				http.Error(w, "admin endpoints disabled (no TRADEWINDS_ADMIN_KEY set)", http.StatusForbidden)
				return
			}

			if !s.checkBearerToken(r) {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
		}

		next(w, r)
	}
}

// units converts a fixed-point amount to a float for JSON payloads.
func units(a goods.Amount) float64 {
	return float64(a) / float64(goods.Unit)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	turn := s.Sim.CurrentTurn()
	status := map[string]any{
		"name":              s.Sim.Scenario.Name,
		"turn":              turn,
		"sim_time":          engine.SimTime(turn),
		"season":            engine.SeasonName(engine.SeasonOf(turn)),
		"speed":             s.Eng.Speed(),
		"running":           s.Eng.Running(),
		"population":        s.Sim.Stats.TotalPopulation,
		"fed_groups":        s.Sim.Stats.FedGroups,
		"starving_groups":   s.Sim.Stats.StarvingGroups,
		"settlements":       len(s.Sim.Settlements),
		"shipments_on_road": s.Sim.Stats.ShipmentsOnRoad,
		"total_money":       units(s.Sim.Stats.TotalMoney),
	}
	writeJSON(w, status)
}

func (s *Server) handleSettlements(w http.ResponseWriter, r *http.Request) {
	type settlementSummary struct {
		Name       string  `json:"name"`
		Q          int     `json:"q"`
		R          int     `json:"r"`
		Coastal    bool    `json:"coastal"`
		Terrain    string  `json:"terrain"`
		Fertility  float64 `json:"fertility"`
		Population int     `json:"population"`
		Groups     int     `json:"groups"`
	}

	result := make([]settlementSummary, 0, len(s.Sim.Settlements))
	for _, st := range s.Sim.Settlements {
		total := 0
		for _, pop := range st.Populations {
			total += pop.Size
		}
		terrain := "Unknown"
		if hex := s.Sim.Atlas.Map.Get(st.Site.Coord); hex != nil {
			terrain = world.TerrainName(hex.Terrain)
		}
		result = append(result, settlementSummary{
			Name:       st.Name,
			Q:          st.Site.Coord.Q,
			R:          st.Site.Coord.R,
			Coastal:    st.Site.Coastal,
			Terrain:    terrain,
			Fertility:  units(st.Site.Fertility),
			Population: total,
			Groups:     len(st.Populations),
		})
	}
	writeJSON(w, result)
}

func (s *Server) handleSettlementDetail(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(r.URL.Path, "/")
	if len(parts) < 5 || parts[4] == "" {
		http.Error(w, "missing settlement name", http.StatusBadRequest)
		return
	}
	st := s.Sim.Settlement(parts[4])
	if st == nil {
		http.Error(w, "settlement not found", http.StatusNotFound)
		return
	}

	type populationEntry struct {
		Name      string  `json:"name"`
		Size      int     `json:"size"`
		Need      string  `json:"need,omitempty"`
		FedStreak int     `json:"fed_streak"`
		Starving  int     `json:"starving"`
		Purse     float64 `json:"purse"`
	}
	populations := make([]populationEntry, 0, len(st.Populations))
	for _, pop := range st.Populations {
		entry := populationEntry{
			Name:      pop.Name,
			Size:      pop.Size,
			FedStreak: pop.FedStreak,
			Starving:  pop.Starving,
			Purse:     units(pop.Holdings.Get(s.Sim.Scenario.LegalTender)),
		}
		if pop.Need != nil {
			entry.Need = pop.Need.Name
		}
		populations = append(populations, entry)
	}

	writeJSON(w, map[string]any{
		"name":        st.Name,
		"q":           st.Site.Coord.Q,
		"r":           st.Site.Coord.R,
		"coastal":     st.Site.Coastal,
		"fertility":   units(st.Site.Fertility),
		"populations": populations,
		"market":      s.marketEntries(st),
	})
}

type marketEntry struct {
	Good   string  `json:"good"`
	Price  float64 `json:"price"`
	Stock  float64 `json:"stock"`
	Volume float64 `json:"volume"`
	Debt   float64 `json:"debt,omitempty"` // tender owed to sellers of this good
}

func (s *Server) marketEntries(st *engine.Settlement) []marketEntry {
	entries := make([]marketEntry, 0, len(st.Market.Prices))
	for _, q := range st.Market.Prices.Expand() {
		entries = append(entries, marketEntry{
			Good:   q.Name,
			Price:  units(q.Amount),
			Stock:  units(st.Market.Warehouse.Get(q.Name)),
			Volume: units(st.Market.Volume.Get(q.Name)),
			Debt:   units(st.Market.MarketDebt.Get(q.Name)),
		})
	}
	return entries
}

func (s *Server) handleMarketDetail(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(r.URL.Path, "/")
	if len(parts) < 5 || parts[4] == "" {
		http.Error(w, "missing market name", http.StatusBadRequest)
		return
	}
	st := s.Sim.Settlement(parts[4])
	if st == nil {
		http.Error(w, "market not found", http.StatusNotFound)
		return
	}

	var totalDebt goods.Amount
	for _, q := range st.Market.MarketDebt.Expand() {
		totalDebt += q.Amount
	}

	writeJSON(w, map[string]any{
		"location":     st.Market.Location,
		"legal_tender": st.Market.LegalTender,
		"credit_limit": units(st.Market.CreditLimit),
		"market_debt":  units(totalDebt),
		"money":        units(st.Market.Warehouse.Get(st.Market.LegalTender)),
		"entries":      s.marketEntries(st),
	})
}

func (s *Server) handleShipments(w http.ResponseWriter, r *http.Request) {
	type shipmentEntry struct {
		Good      string  `json:"good"`
		Amount    float64 `json:"amount"`
		From      string  `json:"from"`
		To        string  `json:"to"`
		ArrivesAt uint64  `json:"arrives_at"`
		Arrives   string  `json:"arrives"`
	}
	result := make([]shipmentEntry, 0, len(s.Sim.Shipments))
	for _, sh := range s.Sim.Shipments {
		result = append(result, shipmentEntry{
			Good:      sh.Good,
			Amount:    units(sh.Amount),
			From:      sh.From,
			To:        sh.To,
			ArrivesAt: sh.ArrivesAt,
			Arrives:   engine.SimTime(sh.ArrivesAt),
		})
	}
	writeJSON(w, result)
}

// handleMapRoutes dispatches between bulk map (GET /api/v1/map) and hex
// detail (GET /api/v1/map/:q/:r).
func (s *Server) handleMapRoutes(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/v1/map")
	if path == "" || path == "/" {
		s.handleBulkMap(w, r)
		return
	}
	s.handleHexDetail(w, r)
}

// handleBulkMap returns all hexes for the hex map renderer.
func (s *Server) handleBulkMap(w http.ResponseWriter, r *http.Request) {
	type hexEntry struct {
		Q         int     `json:"q"`
		R         int     `json:"r"`
		Terrain   uint8   `json:"terrain"`
		Elevation float64 `json:"elevation"`
	}

	m := s.Sim.Atlas.Map
	hexes := make([]hexEntry, 0, len(m.Hexes))
	for _, h := range m.Hexes {
		hexes = append(hexes, hexEntry{
			Q:         h.Coord.Q,
			R:         h.Coord.R,
			Terrain:   uint8(h.Terrain),
			Elevation: h.Elevation,
		})
	}

	sites := make([]*world.Site, 0, len(s.Sim.Atlas.Sites))
	for _, name := range s.Sim.SettlementNames() {
		sites = append(sites, s.Sim.Atlas.Sites[name])
	}

	writeJSON(w, map[string]any{
		"radius": m.Radius,
		"hexes":  hexes,
		"sites":  sites,
	})
}

func (s *Server) handleHexDetail(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(r.URL.Path, "/")
	// /api/v1/map/:q/:r → parts[0]="" [1]="api" [2]="v1" [3]="map" [4]=q [5]=r
	if len(parts) < 6 {
		http.Error(w, "usage: /api/v1/map/:q/:r", http.StatusBadRequest)
		return
	}
	q, err1 := strconv.Atoi(parts[4])
	rr, err2 := strconv.Atoi(parts[5])
	if err1 != nil || err2 != nil {
		http.Error(w, "invalid coordinates", http.StatusBadRequest)
		return
	}

	coord := world.HexCoord{Q: q, R: rr}
	hex := s.Sim.Atlas.Map.Get(coord)
	if hex == nil {
		http.Error(w, "hex not found", http.StatusNotFound)
		return
	}

	// Settlement on hex, if any.
	var siteName string
	for _, site := range s.Sim.Atlas.Sites {
		if site.Coord == coord {
			siteName = site.Name
			break
		}
	}

	type neighborInfo struct {
		Q       int    `json:"q"`
		R       int    `json:"r"`
		Terrain string `json:"terrain"`
	}
	var neighbors []neighborInfo
	for _, nc := range coord.Neighbors() {
		nh := s.Sim.Atlas.Map.Get(nc)
		if nh == nil {
			continue
		}
		neighbors = append(neighbors, neighborInfo{Q: nc.Q, R: nc.R, Terrain: world.TerrainName(nh.Terrain)})
	}

	writeJSON(w, map[string]any{
		"q":           q,
		"r":           rr,
		"terrain":     world.TerrainName(hex.Terrain),
		"elevation":   hex.Elevation,
		"rainfall":    hex.Rainfall,
		"temperature": hex.Temperature,
		"settlement":  siteName,
		"neighbors":   neighbors,
	})
}

func (s *Server) handleSpeed(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodPost {
		var req struct {
			Speed float64 `json:"speed"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		if req.Speed < 0 || req.Speed > 1000 {
			http.Error(w, "speed must be 0-1000", http.StatusBadRequest)
			return
		}
		s.Eng.SetSpeed(req.Speed)
		slog.Info("speed changed", "speed", req.Speed)
	}

	writeJSON(w, map[string]float64{"speed": s.Eng.Speed()})
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.DB == nil {
		http.Error(w, "database not available", http.StatusServiceUnavailable)
		return
	}

	if err := s.DB.SaveWorldState(s.Sim); err != nil {
		slog.Error("snapshot save failed", "error", err)
		http.Error(w, "snapshot failed", http.StatusInternalServerError)
		return
	}

	writeJSON(w, map[string]any{
		"turn":    s.Sim.CurrentTurn(),
		"message": "snapshot saved",
	})
}

func writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(data)
}
