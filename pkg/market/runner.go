package market

import (
	"context"
	"time"

	"github.com/parkercarrus/MarketSim/pkg/util"
)

// Runner drives a market's tick loop, optionally paced for live serving.
// Batch runs use a zero Pace and spin the loop tight.
type Runner struct {
	Market *Market
	Clock  util.Clock
	Pace   time.Duration

	// OnTick, when set, observes every tick snapshot (e.g. websocket fan-out).
	OnTick func(Tick)
}

// Run executes up to ticks steps (forever when ticks <= 0), stopping early
// when the context is cancelled. Returns the number of ticks executed.
func (r *Runner) Run(ctx context.Context, ticks int) int {
	clock := r.Clock
	if clock == nil {
		clock = util.RealClock{}
	}

	done := 0
	for ticks <= 0 || done < ticks {
		select {
		case <-ctx.Done():
			return done
		default:
		}

		t := r.Market.Tick()
		done++
		if r.OnTick != nil {
			r.OnTick(t)
		}

		if r.Pace > 0 {
			select {
			case <-ctx.Done():
				return done
			case <-clock.After(r.Pace):
			}
		}
	}
	return done
}
