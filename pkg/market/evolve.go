package market

import (
	"math"
	"sort"
)

// Standing is one row of the value-ranked leaderboard.
type Standing struct {
	ID     int     `json:"id"`
	Kind   Kind    `json:"type"`
	Value  float64 `json:"value"`
	Sizing string  `json:"sizing"`
}

// evolve culls the worst-performing traders and replaces them in place with
// clones of the champion's parameters. Self-gates on the evolution period.
// Market makers are exempt. The roster's size and id set never change.
func (m *Market) evolve() {
	if m.timestep%m.cfg.EvolutionTicks != 0 {
		return
	}

	sorted := m.rankedTraders()

	killCount := int(math.Round(float64(len(sorted)) * m.cfg.KillFraction))
	if killCount == 0 {
		m.recordCensus()
		return
	}

	// One protected survivor per trader type: the best-ranked living member.
	// Diversity persists as long as it existed before the event.
	protected := make(map[Kind]int, len(TraderKinds))
	for _, t := range sorted {
		if _, ok := protected[t.Kind()]; !ok {
			protected[t.Kind()] = t.ID()
			if len(protected) == len(TraderKinds) {
				break
			}
		}
	}

	toKill := make([]int, 0, killCount)
	for i := len(sorted) - 1; i >= 0 && len(toKill) < killCount; i-- {
		id := sorted[i].ID()
		if pid, ok := protected[sorted[i].Kind()]; ok && pid == id {
			continue
		}
		toKill = append(toKill, id)
	}

	champion := sorted[0]
	for _, id := range toKill {
		m.traders[m.slot[id]] = champion.Clone(id)
	}

	m.log.Infow("evolution_event",
		"timestep", m.timestep,
		"killed", len(toKill),
		"champion_id", champion.ID(),
		"champion_type", champion.Kind().String(),
		"champion_value", champion.Value(m.price))

	m.recordCensus()
}

// rankedTraders returns the roster sorted by current value, best first.
// Stable sort keeps ties in roster order so runs stay reproducible.
func (m *Market) rankedTraders() []Trader {
	sorted := make([]Trader, len(m.traders))
	copy(sorted, m.traders)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Value(m.price) > sorted[j].Value(m.price)
	})
	return sorted
}

func (m *Market) recordCensus() {
	c := m.census()
	m.censuses = append(m.censuses, c)
	m.recorder.RecordCensus(c)
}

// Leaderboard returns all traders ranked by current value, best first.
func (m *Market) Leaderboard() []Standing {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ranked := m.rankedTraders()
	out := make([]Standing, len(ranked))
	for i, t := range ranked {
		out[i] = Standing{ID: t.ID(), Kind: t.Kind(), Value: t.Value(m.price), Sizing: t.Sizing()}
	}
	return out
}
