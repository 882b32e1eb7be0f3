package storage

import (
	"encoding/binary"
	"encoding/json"
	"fmt"

	"github.com/cockroachdb/pebble"
	"go.uber.org/zap"

	"github.com/parkercarrus/MarketSim/pkg/market"
)

// PebbleStore archives a run durably: every trade, tick and census, keyed so
// that range reads recover the streams in order.
//
// keys: tr:<8-byte-seq> trades, tk:<8-byte-timestep> ticks, cs:<8-byte-timestep> censuses
type PebbleStore struct {
	db  *pebble.DB
	log *zap.SugaredLogger
	seq uint64
}

func NewPebbleStore(path string, log *zap.SugaredLogger) (*PebbleStore, error) {
	db, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("open pebble store: %w", err)
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &PebbleStore{db: db, log: log}, nil
}

func (s *PebbleStore) Close() error { return s.db.Close() }

func u64Key(prefix string, n uint64) []byte {
	key := make([]byte, len(prefix)+8)
	copy(key, prefix)
	binary.BigEndian.PutUint64(key[len(prefix):], n)
	return key
}

func (s *PebbleStore) put(key []byte, v interface{}) {
	val, err := json.Marshal(v)
	if err != nil {
		s.log.Errorw("archive_marshal_failed", "err", err)
		return
	}
	if err := s.db.Set(key, val, pebble.NoSync); err != nil {
		s.log.Errorw("archive_write_failed", "err", err)
	}
}

func (s *PebbleStore) RecordTrade(t market.Trade) {
	s.put(u64Key("tr:", s.seq), t)
	s.seq++
}

func (s *PebbleStore) RecordTick(t market.Tick) {
	s.put(u64Key("tk:", uint64(t.Timestep)), t)
}

func (s *PebbleStore) RecordCensus(c market.Census) {
	s.put(u64Key("cs:", uint64(c.Timestep)), c)
}

// LoadTicks range-reads tick snapshots for timesteps in [from, to).
func (s *PebbleStore) LoadTicks(from, to int) ([]market.Tick, error) {
	iter, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: u64Key("tk:", uint64(from)),
		UpperBound: u64Key("tk:", uint64(to)),
	})
	if err != nil {
		return nil, fmt.Errorf("tick iterator: %w", err)
	}
	defer iter.Close()

	var out []market.Tick
	for iter.First(); iter.Valid(); iter.Next() {
		var t market.Tick
		if err := json.Unmarshal(iter.Value(), &t); err != nil {
			return nil, fmt.Errorf("decode tick: %w", err)
		}
		out = append(out, t)
	}
	return out, iter.Error()
}

// LoadTrades range-reads archived trades by insertion order, [fromSeq, toSeq).
func (s *PebbleStore) LoadTrades(fromSeq, toSeq uint64) ([]market.Trade, error) {
	iter, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: u64Key("tr:", fromSeq),
		UpperBound: u64Key("tr:", toSeq),
	})
	if err != nil {
		return nil, fmt.Errorf("trade iterator: %w", err)
	}
	defer iter.Close()

	var out []market.Trade
	for iter.First(); iter.Valid(); iter.Next() {
		var t market.Trade
		if err := json.Unmarshal(iter.Value(), &t); err != nil {
			return nil, fmt.Errorf("decode trade: %w", err)
		}
		out = append(out, t)
	}
	return out, iter.Error()
}

var _ market.Recorder = (*PebbleStore)(nil)
