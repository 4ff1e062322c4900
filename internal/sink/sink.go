package sink

import (
	"context"
	"errors"
	"exchangestats/internal/crawl"
	"fmt"
	"strings"
)

// Sink is a crawl.Sink that holds resources until the run is over.
type Sink interface {
	crawl.Sink
	// Close is called once after the crawl finished, sinks that buffer
	// their records write them out here.
	Close(ctx context.Context) error
}

type Format int

const (
	FORMAT_JSONL Format = iota
	FORMAT_PREFIXED
	FORMAT_TABLE
)

func (f Format) String() string {
	switch f {
	case FORMAT_JSONL:
		return "jsonl"
	case FORMAT_PREFIXED:
		return "prefixed"
	case FORMAT_TABLE:
		return "table"
	}
	return "unknown"
}

func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "jsonl":
		return FORMAT_JSONL, nil
	case "prefixed":
		return FORMAT_PREFIXED, nil
	case "table":
		return FORMAT_TABLE, nil
	}
	return FORMAT_JSONL, fmt.Errorf("unknown output format %q", s)
}

// Multi emits every record to each of its sinks in order.
type Multi []Sink

func (m Multi) Emit(ctx context.Context, record crawl.Record) error {
	for _, s := range m {
		err := s.Emit(ctx, record)
		if err != nil {
			return err
		}
	}
	return nil
}

// Close closes every sink even if some of them fail.
func (m Multi) Close(ctx context.Context) error {
	var errs []error
	for _, s := range m {
		err := s.Close(ctx)
		if err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
