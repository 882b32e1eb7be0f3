// Package api exposes the simulation over REST and WebSocket: snapshot
// endpoints for the book, trades, ticks and leaderboard, an on-demand
// simulate endpoint, and live tick/trade channels for dashboards.
package api

import (
	"encoding/json"
	"math/rand"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/parkercarrus/MarketSim/params"
	"github.com/parkercarrus/MarketSim/pkg/agent"
	"github.com/parkercarrus/MarketSim/pkg/market"
)

// maxSimulateTicks bounds a single POST /simulate so one request cannot
// hold the engine lock for minutes.
const maxSimulateTicks = 100000

// defaultListLimit is applied when trades/ticks queries omit ?limit=.
const defaultListLimit = 100

// Server handles the REST API and WebSocket connections for one market.
type Server struct {
	mkt    *market.Market
	router *mux.Router
	hub    *Hub
	log    *zap.SugaredLogger

	// serializes on-demand simulate requests against each other
	simMu sync.Mutex
}

func NewServer(mkt *market.Market, log *zap.SugaredLogger) *Server {
	if log == nil {
		log = zap.NewNop().Sugar()
	}

	s := &Server{
		mkt:    mkt,
		router: mux.NewRouter(),
		hub:    NewHub(log),
		log:    log,
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/simulate", s.handleSimulate).Methods("POST")
	api.HandleFunc("/status", s.handleStatus).Methods("GET")
	api.HandleFunc("/orderbook", s.handleOrderbook).Methods("GET")
	api.HandleFunc("/trades", s.handleTrades).Methods("GET")
	api.HandleFunc("/ticks", s.handleTicks).Methods("GET")
	api.HandleFunc("/traders", s.handleTraders).Methods("GET")

	s.router.HandleFunc("/ws", s.handleWebSocket)
	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")
}

// Start runs the hub and serves HTTP on addr. Blocks until the listener fails.
func (s *Server) Start(addr string) error {
	go s.hub.Run()

	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"http://localhost:3000", "http://localhost:3001"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	})

	handler := c.Handler(s.router)

	s.log.Infow("api_server_starting", "addr", addr)
	return http.ListenAndServe(addr, handler)
}

// Router exposes the configured routes, mainly for handler tests.
func (s *Server) Router() http.Handler { return s.router }

// ==============================
// REST Handlers
// ==============================

func (s *Server) handleSimulate(w http.ResponseWriter, r *http.Request) {
	var req SimulateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if req.Ticks <= 0 {
		respondError(w, http.StatusBadRequest, "invalid ticks", "ticks must be positive")
		return
	}
	if req.Ticks > maxSimulateTicks {
		respondError(w, http.StatusBadRequest, "too many ticks", "")
		return
	}

	// A config payload runs on its own market and never touches the live one.
	if len(req.Config) > 0 {
		s.simulateIsolated(w, req)
		return
	}

	s.simMu.Lock()
	defer s.simMu.Unlock()

	start := time.Now()
	for i := 0; i < req.Ticks; i++ {
		s.mkt.Tick()
	}

	s.log.Infow("simulate_request_done", "ticks", req.Ticks, "timestep", s.mkt.Timestep())

	respondJSON(w, s.simulateResponse(s.mkt, req.Ticks, start))
}

// simulateIsolated builds a one-shot market from the posted config (over the
// stock defaults) and runs it to completion within the request.
func (s *Server) simulateIsolated(w http.ResponseWriter, req SimulateRequest) {
	cfg := params.Default()
	if err := json.Unmarshal(req.Config, &cfg); err != nil {
		respondError(w, http.StatusBadRequest, "invalid config", err.Error())
		return
	}
	if err := cfg.Validate(); err != nil {
		respondError(w, http.StatusBadRequest, "invalid config", err.Error())
		return
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	traders, makers := agent.BuildRoster(cfg, rng)
	mkt, err := market.NewMarket(cfg, traders, makers, nil, s.log)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid config", err.Error())
		return
	}

	start := time.Now()
	for i := 0; i < req.Ticks; i++ {
		mkt.Tick()
	}

	s.log.Infow("simulate_run_done", "ticks", req.Ticks, "seed", cfg.Seed, "final_price", mkt.Price())

	respondJSON(w, s.simulateResponse(mkt, req.Ticks, start))
}

func (s *Server) simulateResponse(mkt *market.Market, ticks int, start time.Time) SimulateResponse {
	return SimulateResponse{
		TicksRun:  ticks,
		Timestep:  mkt.Timestep(),
		LastPrice: mkt.Price(),
		ElapsedMs: time.Since(start).Milliseconds(),
		Ticks:     mkt.History(defaultListLimit),
		AvgPnL:    avgPnLByType(mkt.Leaderboard()),
	}
}

func avgPnLByType(standings []market.Standing) map[string]float64 {
	sums := make(map[string]float64)
	counts := make(map[string]int)
	for _, st := range standings {
		sums[st.Kind.String()] += st.Value
		counts[st.Kind.String()]++
	}
	out := make(map[string]float64, len(sums))
	for kind, sum := range sums {
		out[kind] = sum / float64(counts[kind])
	}
	return out
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	top := s.mkt.Top()
	pop := s.mkt.Population()

	resp := StatusResponse{
		Timestep:  s.mkt.Timestep(),
		LastPrice: s.mkt.Price(),
		BestBid:   top.Bid,
		BestAsk:   top.Ask,
		HasBid:    top.HasBid,
		HasAsk:    top.HasAsk,
	}
	if top.HasBid && top.HasAsk {
		resp.MidPrice = (top.Bid + top.Ask) / 2
	}
	resp.Population.Monkeys = pop.Monkeys
	resp.Population.MeanReverters = pop.MeanReverters
	resp.Population.MomentumTraders = pop.MomentumTraders
	resp.Population.MarketMakers = pop.MarketMakers

	respondJSON(w, resp)
}

func (s *Server) handleOrderbook(w http.ResponseWriter, r *http.Request) {
	bidLevels, askLevels := s.mkt.Depth()

	bids := make([]PriceLevel, len(bidLevels))
	for i, level := range bidLevels {
		bids[i] = PriceLevel{Price: level.Price, Size: level.Qty}
	}
	asks := make([]PriceLevel, len(askLevels))
	for i, level := range askLevels {
		asks[i] = PriceLevel{Price: level.Price, Size: level.Qty}
	}

	respondJSON(w, OrderbookSnapshot{
		Bids:     bids,
		Asks:     asks,
		Timestep: s.mkt.Timestep(),
	})
}

func (s *Server) handleTrades(w http.ResponseWriter, r *http.Request) {
	trades := s.mkt.RecentTrades(queryLimit(r))
	if trades == nil {
		trades = []market.Trade{}
	}
	respondJSON(w, trades)
}

func (s *Server) handleTicks(w http.ResponseWriter, r *http.Request) {
	ticks := s.mkt.History(queryLimit(r))
	if ticks == nil {
		ticks = []market.Tick{}
	}
	respondJSON(w, ticks)
}

func (s *Server) handleTraders(w http.ResponseWriter, r *http.Request) {
	standings := s.mkt.Leaderboard()

	resp := make([]TraderInfo, len(standings))
	for i, st := range standings {
		resp[i] = TraderInfo{
			ID:     st.ID,
			Type:   st.Kind.String(),
			Value:  st.Value,
			Sizing: st.Sizing,
		}
	}
	respondJSON(w, resp)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, map[string]string{"status": "ok"})
}

// ==============================
// Broadcast Recorder
// ==============================

// The server doubles as a recorder so the live runner can fan tick and trade
// events straight onto the WebSocket channels.

func (s *Server) RecordTick(t market.Tick) {
	s.hub.BroadcastToChannel("ticks", WSMessage{Type: "tick", Data: t})
}

func (s *Server) RecordTrade(t market.Trade) {
	s.hub.BroadcastToChannel("trades", WSMessage{Type: "trade", Data: t})
}

func (s *Server) RecordCensus(c market.Census) {
	s.hub.BroadcastToChannel("ticks", WSMessage{Type: "census", Data: c})
}

var _ market.Recorder = (*Server)(nil)

// ==============================
// Helper Functions
// ==============================

func queryLimit(r *http.Request) int {
	limit := defaultListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}
	return limit
}

func respondJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, error string, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{
		Error:   error,
		Message: message,
	})
}
