package agent

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFractionalSize(t *testing.T) {
	s := Fractional{Fraction: 0.01, MinBet: 1}

	// 1% of capital, converted to shares at the market price
	require.InDelta(t, 10.0, s.Size(100, 110, 1.0, 100000), 1e-9)
	// edge and confidence are ignored
	require.InDelta(t, 10.0, s.Size(100, 90, 0.0, 100000), 1e-9)
	require.Equal(t, "FixedFraction", s.Method())
}

func TestKellySize(t *testing.T) {
	s := Kelly{Fraction: 0.01, MinBet: 1}

	tests := []struct {
		name                              string
		marketPrice, expected, confidence float64
		capital                           float64
		want                              float64
	}{
		{"positive edge full confidence", 100, 110, 1.0, 100000, 1.0},
		{"negative edge sizes the same magnitude", 100, 90, 1.0, 100000, 1.0},
		{"no edge", 100, 100, 1.0, 100000, 0},
		{"low confidence", 100, 110, 0.5, 100000, 0},
		{"below min bet", 100, 110, 1.0, 100, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := s.Size(tt.marketPrice, tt.expected, tt.confidence, tt.capital)
			require.InDelta(t, tt.want, got, 1e-9)
		})
	}

	require.Equal(t, "Kelly", s.Method())
}
