// Package storage provides the persistence sinks for the simulation's
// append-only trade, tick and census streams: CSV files for offline
// analysis and live plotting, a Pebble run archive, and an optional
// Postgres journal.
package storage

import "github.com/parkercarrus/MarketSim/pkg/market"

// Multi fans every record out to all wrapped recorders in order.
type Multi []market.Recorder

func (m Multi) RecordTrade(t market.Trade) {
	for _, r := range m {
		r.RecordTrade(t)
	}
}

func (m Multi) RecordTick(t market.Tick) {
	for _, r := range m {
		r.RecordTick(t)
	}
}

func (m Multi) RecordCensus(c market.Census) {
	for _, r := range m {
		r.RecordCensus(c)
	}
}

var _ market.Recorder = Multi{}
