package crawl

import (
	"fmt"
	"strings"
)

// FailurePolicy decides what happens to the chain when a page cannot be fetched.
type FailurePolicy int

const (
	// DROP_EXCHANGE discards the exchange being crawled and stops the chain.
	DROP_EXCHANGE FailurePolicy = iota
	// EMIT_PARTIAL emits whatever was accumulated for the exchange being crawled
	// and stops the chain.
	EMIT_PARTIAL
	// SKIP_EXCHANGE discards the exchange being crawled and continues with the next one.
	SKIP_EXCHANGE
)

func (p FailurePolicy) String() string {
	switch p {
	case DROP_EXCHANGE:
		return "drop"
	case EMIT_PARTIAL:
		return "emit_partial"
	case SKIP_EXCHANGE:
		return "skip_exchange"
	}
	return "unknown"
}

func ParseFailurePolicy(s string) (FailurePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "drop":
		return DROP_EXCHANGE, nil
	case "emit_partial":
		return EMIT_PARTIAL, nil
	case "skip_exchange":
		return SKIP_EXCHANGE, nil
	}
	return DROP_EXCHANGE, fmt.Errorf("unknown fetch failure policy %q", s)
}
