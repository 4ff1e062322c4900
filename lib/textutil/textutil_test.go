package textutil

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizeName(t *testing.T) {
	require.Equal(t, "btcturkpro", NormalizeName("  BtcTurk Pro\n"))
}

func TestMostSimilar(t *testing.T) {
	exchanges := []string{"binance", "btcturk", "paribu"}

	match, similarity := MostSimilar("BtcTurk", exchanges)
	require.Equal(t, "btcturk", match)
	require.Equal(t, 1.0, similarity)

	match, similarity = MostSimilar("btcturkk", exchanges)
	require.Equal(t, "btcturk", match)
	require.Greater(t, similarity, 0.9)

	match, _ = MostSimilar("parib", exchanges)
	require.Equal(t, "paribu", match)

	match, similarity = MostSimilar("kraken", nil)
	require.Equal(t, "", match)
	require.Equal(t, 0.0, similarity)
}
