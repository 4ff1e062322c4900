package sink

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func openMemory(t testing.TB) *sql.DB {
	database, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatal(err)
	}
	// every connection to :memory: is a different database
	database.SetMaxOpenConns(1)
	t.Cleanup(func() {
		database.Close()
	})
	err = CreateSchema(context.Background(), database)
	if err != nil {
		t.Fatal(err)
	}
	return database
}

// steppingClock advances by a second every time it is read.
type steppingClock struct {
	current time.Time
}

func (c *steppingClock) Now() time.Time {
	c.current = c.current.Add(time.Second)
	return c.current
}

func (c *steppingClock) Location() *time.Location {
	return time.UTC
}

func TestStore(t *testing.T) {
	database := openMemory(t)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	reader := NewReader(database)
	{
		_, ok, err := reader.Latest(ctx, "btcturk")
		require.NoError(t, err)
		require.False(t, ok)
	}

	clock := &steppingClock{current: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}

	first, err := NewStore(ctx, database, "run-1", clock)
	require.NoError(t, err)
	require.NoError(t, first.Emit(ctx, testRecord("btcturk", "BtcTurk")))
	partial := testRecord("binance", "Binance")
	partial.Partial = true
	require.NoError(t, first.Emit(ctx, partial))
	first.SetFailures(1)
	require.NoError(t, first.Close(ctx))

	second, err := NewStore(ctx, database, "run-2", clock)
	require.NoError(t, err)
	newer := testRecord("btcturk", "BtcTurk")
	newer.Snapshot.Markets = newer.Snapshot.Markets[:1]
	require.NoError(t, second.Emit(ctx, newer))
	require.NoError(t, second.Close(ctx))

	{
		run, err := reader.RunInfo(ctx, "run-1")
		require.NoError(t, err)
		require.Equal(t, int64(2), run.Emitted)
		require.Equal(t, int64(1), run.Failures)
		require.True(t, run.FinishedAt.Valid)
	}
	{
		stored, err := reader.Run(ctx, "run-1")
		require.NoError(t, err)
		require.Len(t, stored, 2)
		require.False(t, stored[0].Partial)
		require.True(t, stored[1].Partial)

		expected := testRecord("btcturk", "BtcTurk").Snapshot
		diff := cmp.Diff(expected, stored[0].Snapshot, textComparer)
		if diff != "" {
			t.Fatal(diff)
		}
	}
	{
		latest, ok, err := reader.Latest(ctx, "btcturk")
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, "run-2", latest.RunId)
		require.Len(t, latest.Snapshot.Markets, 1)
	}
	{
		exchanges, err := reader.Exchanges(ctx)
		require.NoError(t, err)
		require.Equal(t, []string{"binance", "btcturk"}, exchanges)
	}

	_, err = NewStore(ctx, database, "run-1", clock)
	require.Error(t, err)
}
