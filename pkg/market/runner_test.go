package market

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRunnerRunsRequestedTicks(t *testing.T) {
	m := newTestMarket(t, testConfig(), nil)

	var observed []int
	r := Runner{
		Market: m,
		OnTick: func(tick Tick) { observed = append(observed, tick.Timestep) },
	}

	done := r.Run(context.Background(), 5)
	require.Equal(t, 5, done)
	require.Equal(t, 5, m.Timestep())
	require.Equal(t, []int{1, 2, 3, 4, 5}, observed)
}

func TestRunnerStopsOnCancel(t *testing.T) {
	m := newTestMarket(t, testConfig(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := Runner{Market: m}
	done := r.Run(ctx, 100)
	require.Equal(t, 0, done)
	require.Equal(t, 0, m.Timestep())
}
