package crawl

import (
	"exchangestats/lib/scrapers/bitdegree"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStateWalk(t *testing.T) {
	plan := []Exchange{
		{Key: "a", Slug: "a", Pages: 2},
		{Key: "b", Slug: "b", Pages: 0},
		{Key: "c", Slug: "c", Pages: 1},
	}

	var walked []State
	state := Start()
	for !state.Done() {
		walked = append(walked, state)
		state = state.Next(plan)
	}

	require.Equal(t, []State{
		{Phase: AWAITING_LANDING, Exchange: 0},
		{Phase: AWAITING_TABLE_PAGE, Exchange: 0, Page: 1},
		{Phase: AWAITING_TABLE_PAGE, Exchange: 0, Page: 2},
		{Phase: AWAITING_LANDING, Exchange: 1},
		{Phase: AWAITING_LANDING, Exchange: 2},
		{Phase: AWAITING_TABLE_PAGE, Exchange: 2, Page: 1},
	}, walked)

	require.Equal(t, State{Phase: DONE}, state.Next(plan))
}

func TestStateClosesExchange(t *testing.T) {
	plan := DefaultPlan()

	require.False(t, Start().ClosesExchange(plan))
	require.False(t, State{Phase: AWAITING_TABLE_PAGE, Exchange: 0, Page: 4}.ClosesExchange(plan))
	require.True(t, State{Phase: AWAITING_TABLE_PAGE, Exchange: 0, Page: 5}.ClosesExchange(plan))
	require.True(t, State{Phase: AWAITING_TABLE_PAGE, Exchange: 2, Page: 4}.ClosesExchange(plan))
	require.False(t, State{Phase: DONE}.ClosesExchange(plan))
}

func TestStateNextExchange(t *testing.T) {
	plan := DefaultPlan()

	state := State{Phase: AWAITING_TABLE_PAGE, Exchange: 0, Page: 2}
	require.Equal(t, State{Phase: AWAITING_LANDING, Exchange: 1}, state.NextExchange(plan))

	state = State{Phase: AWAITING_TABLE_PAGE, Exchange: 2, Page: 2}
	require.Equal(t, State{Phase: DONE}, state.NextExchange(plan))
}

func TestMergeAppendsInOrder(t *testing.T) {
	snapshot := NewSnapshot(Exchange{Key: "a", Name: "A"}, bitdegree.Stats{})
	require.NotNil(t, snapshot.Markets)
	require.Empty(t, snapshot.Markets)

	first := []bitdegree.MarketRow{
		{Name: bitdegree.Present("BTC/TRY")},
		{Name: bitdegree.Present("ETH/TRY")},
	}
	second := []bitdegree.MarketRow{{Name: bitdegree.Present("XRP/TRY")}}

	Merge(snapshot, first)
	Merge(snapshot, nil)
	Merge(snapshot, second)
	require.Equal(t, []string{"BTC/TRY", "ETH/TRY", "XRP/TRY"}, rowNames(snapshot))

	// merging the same rows again is not deduplicated
	Merge(snapshot, first)
	require.Len(t, snapshot.Markets, 5)
	require.Equal(t, "BTC/TRY", snapshot.Markets[3].Name.String())
}

func TestValidatePlan(t *testing.T) {
	require.NoError(t, ValidatePlan(DefaultPlan()))

	testCases := [][]Exchange{
		nil,
		{{Key: "", Slug: "a"}},
		{{Key: "a", Slug: " "}},
		{{Key: "a", Slug: "a", Pages: -1}},
		{{Key: "a", Slug: "a"}, {Key: "a", Slug: "b"}},
	}
	for _, plan := range testCases {
		require.Error(t, ValidatePlan(plan), "%+v", plan)
	}
}

func TestParseFailurePolicy(t *testing.T) {
	testCases := []struct {
		in       string
		expected FailurePolicy
	}{
		{in: "", expected: DROP_EXCHANGE},
		{in: "drop", expected: DROP_EXCHANGE},
		{in: "Emit_Partial", expected: EMIT_PARTIAL},
		{in: " skip_exchange ", expected: SKIP_EXCHANGE},
	}
	for _, test := range testCases {
		policy, err := ParseFailurePolicy(test.in)
		require.NoError(t, err)
		require.Equal(t, test.expected, policy)
		if test.in != "" {
			roundtrip, err := ParseFailurePolicy(policy.String())
			require.NoError(t, err)
			require.Equal(t, policy, roundtrip)
		}
	}

	_, err := ParseFailurePolicy("retry")
	require.Error(t, err)
}
