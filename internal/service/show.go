package service

import (
	"context"
	"exchangestats/internal/crawl"
	"exchangestats/internal/sink"
	"exchangestats/lib/textutil"
	"fmt"
	"io"
)

// minimum similarity for an exchange name to be considered a match
const minExchangeSimilarity = 0.8

// ResolveExchange finds the stored exchange closest to `query`.
func ResolveExchange(query string, exchanges []string) (string, error) {
	match, similarity := textutil.MostSimilar(query, exchanges)
	if similarity < minExchangeSimilarity {
		if match == "" {
			return "", fmt.Errorf("no exchange matches %q", query)
		}
		return "", fmt.Errorf("no exchange matches %q, did you mean %q?", query, match)
	}
	return match, nil
}

// Show renders the latest stored snapshot of every exchange, or of a single one
// along with its markets if `exchange` is not empty.
func (s Service) Show(ctx context.Context, out io.Writer, exchange string) error {
	database, err := s.OpenDB(ctx)
	if err != nil {
		return err
	}
	defer database.Close()
	reader := sink.NewReader(database)

	exchanges, err := reader.Exchanges(ctx)
	if err != nil {
		return err
	}
	if exchange != "" {
		resolved, err := ResolveExchange(exchange, exchanges)
		if err != nil {
			return err
		}
		exchanges = []string{resolved}
	}

	var snapshots []*crawl.ExchangeSnapshot
	for _, e := range exchanges {
		stored, ok, err := reader.Latest(ctx, e)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		snapshots = append(snapshots, stored.Snapshot)
	}
	if len(snapshots) == 0 {
		return fmt.Errorf("no snapshots have been stored yet")
	}

	sink.RenderSummary(out, snapshots)
	if exchange != "" {
		sink.RenderMarkets(out, snapshots[0])
	}
	return nil
}
