package api

import (
	"encoding/json"

	"github.com/parkercarrus/MarketSim/pkg/market"
)

// Response and message shapes for the REST endpoints and WebSocket channels.
// Trade and tick streams reuse the engine's own JSON-tagged types.

// ==============================
// REST Response Types
// ==============================

// StatusResponse summarizes the running simulation.
type StatusResponse struct {
	Timestep   int     `json:"timestep"`
	LastPrice  float64 `json:"last_price"`
	MidPrice   float64 `json:"mid_price"`
	BestBid    float64 `json:"best_bid"`
	BestAsk    float64 `json:"best_ask"`
	HasBid     bool    `json:"has_bid"`
	HasAsk     bool    `json:"has_ask"`
	Population struct {
		Monkeys         int `json:"monkeys"`
		MeanReverters   int `json:"meanreverters"`
		MomentumTraders int `json:"momentumtraders"`
		MarketMakers    int `json:"marketmakers"`
	} `json:"population"`
}

// PriceLevel is one aggregated [price, size] row of the depth snapshot.
type PriceLevel struct {
	Price float64 `json:"price"`
	Size  float64 `json:"size"`
}

// OrderbookSnapshot is the aggregated book, bids high to low, asks low to high.
type OrderbookSnapshot struct {
	Bids     []PriceLevel `json:"bids"`
	Asks     []PriceLevel `json:"asks"`
	Timestep int          `json:"timestep"`
}

// TraderInfo is one leaderboard row with the type rendered as a string.
type TraderInfo struct {
	ID     int     `json:"id"`
	Type   string  `json:"type"`
	Value  float64 `json:"value"`
	Sizing string  `json:"sizing"`
}

// ==============================
// REST Request Types
// ==============================

// SimulateRequest is the payload for POST /api/v1/simulate. A config object,
// when present, runs a fresh isolated market built from it (over the stock
// defaults); without one the server's live market is advanced instead.
type SimulateRequest struct {
	Ticks  int             `json:"ticks"`
	Config json.RawMessage `json:"config,omitempty"`
}

// SimulateResponse reports the outcome of an on-demand simulation run:
// a summary, the tail of the tick history, and average PnL per trader type.
type SimulateResponse struct {
	TicksRun  int                `json:"ticks_run"`
	Timestep  int                `json:"timestep"`
	LastPrice float64            `json:"last_price"`
	ElapsedMs int64              `json:"elapsed_ms"`
	Ticks     []market.Tick      `json:"ticks"`
	AvgPnL    map[string]float64 `json:"avg_pnl"`
}

// ErrorResponse is returned for all errors.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// ==============================
// WebSocket Message Types
// ==============================

// WSMessage wraps every broadcast payload with its channel type.
type WSMessage struct {
	Type string      `json:"type"` // "tick" or "trade"
	Data interface{} `json:"data"`
}

// WSSubscribeRequest is sent by a client to manage channel subscriptions.
type WSSubscribeRequest struct {
	Op       string   `json:"op"`       // "subscribe" or "unsubscribe"
	Channels []string `json:"channels"` // "ticks", "trades"
}
