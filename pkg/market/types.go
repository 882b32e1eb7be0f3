package market

// Side is an order's intent. Hold orders never touch the book.
type Side int8

const (
	Buy  Side = 1
	Hold Side = 0
	Sell Side = -1
)

func (s Side) String() string {
	switch s {
	case Buy:
		return "BUY"
	case Sell:
		return "SELL"
	default:
		return "HOLD"
	}
}

// Kind is the closed set of agent types. Every dispatch on agent type switches
// exhaustively over these four values; there is no open subclassing.
type Kind int8

const (
	Monkey Kind = iota
	MeanReverter
	MomentumTrader
	MarketMaker

	NumKinds = 4
)

func (k Kind) String() string {
	switch k {
	case Monkey:
		return "Monkey"
	case MeanReverter:
		return "MeanReverter"
	case MomentumTrader:
		return "MomentumTrader"
	case MarketMaker:
		return "MarketMaker"
	default:
		return "Unknown"
	}
}

// TraderKinds enumerates the kinds subject to evolution. Market makers are
// exempt: they never rank, die, or clone.
var TraderKinds = [3]Kind{Monkey, MeanReverter, MomentumTrader}

// Order is a single trade intent. Qty is decremented in place while the order
// rests in the book; every other field is fixed at creation.
type Order struct {
	Side   Side
	Price  float64
	Owner  int  // agent id
	Origin int  // timestep the order was created
	Kind   Kind // owner's agent type, for aggregation
	Qty    float64
}

// Trade is a completed match. Append-only, never mutated.
type Trade struct {
	Price      float64 `json:"price"`
	Qty        float64 `json:"quantity"`
	Buyer      int     `json:"buyer_id"`
	Seller     int     `json:"seller_id"`
	Timestep   int     `json:"timestep"`
	BuyerKind  Kind    `json:"buyer_type"`
	SellerKind Kind    `json:"seller_type"`
}

// KindVolumes accumulates traded volume per agent kind within one tick.
type KindVolumes [NumKinds]float64

// Tick is the immutable per-timestep snapshot. VWAP covers this tick's volume
// only; MidPrice reflects the book after all of the tick's matching.
type Tick struct {
	LastPrice  float64     `json:"last_price"`
	Volume     float64     `json:"volume"`
	VWAP       float64     `json:"vwap"`
	MidPrice   float64     `json:"mid_price"`
	Timestep   int         `json:"timestep"`
	KindVolume KindVolumes `json:"kind_volume"`
}

// Census counts the population by type at an evolution event.
type Census struct {
	Timestep        int `json:"timestep"`
	Monkeys         int `json:"monkeys"`
	MeanReverters   int `json:"meanreverters"`
	MomentumTraders int `json:"momentumtraders"`
	MarketMakers    int `json:"marketmakers"`
}

// TopOfBook carries best bid/ask to agent decision calls. HasBid/HasAsk
// replace the absence sentinels of the raw book accessors.
type TopOfBook struct {
	Bid    float64
	Ask    float64
	HasBid bool
	HasAsk bool
}

// Level is one aggregated price level for depth snapshots.
type Level struct {
	Price float64 `json:"price"`
	Qty   float64 `json:"qty"`
}

// Trader is the capability the engine requires of every evolving agent.
// Decide must be pure with respect to engine state: it may read the tick
// history but must not mutate it, and it returns a Hold order rather than an
// unaffordable Buy/Sell.
type Trader interface {
	ID() int
	Kind() Kind
	Decide(marketPrice float64, top TopOfBook, history []Tick, timestep int) Order
	UpdatePosition(side Side, price, qty float64)
	Value(marketPrice float64) float64
	Sizing() string

	// Clone builds a same-kind replacement carrying this trader's strategy
	// parameters, the given id, and a fresh ledger. Used by evolution.
	Clone(id int) Trader
}

// Quoter is the market-maker capability: a two-sided quote around fair value,
// fully replaced every tick.
type Quoter interface {
	ID() int
	Quote(marketPrice float64) (bid, ask Order)
}

// Recorder receives the append-only trade, tick and census streams.
// Format and destination are the implementation's concern.
type Recorder interface {
	RecordTrade(t Trade)
	RecordTick(t Tick)
	RecordCensus(c Census)
}

// NopRecorder discards everything.
type NopRecorder struct{}

func (NopRecorder) RecordTrade(Trade)   {}
func (NopRecorder) RecordTick(Tick)     {}
func (NopRecorder) RecordCensus(Census) {}
