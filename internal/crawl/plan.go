package crawl

import (
	"fmt"
	"strings"
)

// Exchange is one entry of the fixed crawl plan.
type Exchange struct {
	// Key names the exchange in emitted records.
	Key  string
	Name string
	// Slug is the path segment of the exchange's pages.
	Slug string
	// Pages is the number of market table pages, they are visited from 1 to Pages.
	Pages int
}

// DefaultPlan is the exchanges crawled when nothing else is configured.
func DefaultPlan() []Exchange {
	return []Exchange{
		{Key: "btcturk", Name: "BtcTurk", Slug: "btcturk-pro", Pages: 5},
		{Key: "binance", Name: "Binance", Slug: "binance-tr", Pages: 5},
		{Key: "paribu", Name: "Paribu", Slug: "paribu", Pages: 4},
	}
}

// ValidatePlan checks that a plan can be crawled.
func ValidatePlan(plan []Exchange) error {
	if len(plan) == 0 {
		return fmt.Errorf("plan has no exchanges")
	}
	keys := map[string]bool{}
	for i, e := range plan {
		if strings.TrimSpace(e.Key) == "" {
			return fmt.Errorf("exchange %d: key is empty", i)
		}
		if strings.TrimSpace(e.Slug) == "" {
			return fmt.Errorf("exchange %q: slug is empty", e.Key)
		}
		if e.Pages < 0 {
			return fmt.Errorf("exchange %q: negative page count %d", e.Key, e.Pages)
		}
		if keys[e.Key] {
			return fmt.Errorf("exchange %q appears more than once", e.Key)
		}
		keys[e.Key] = true
	}
	return nil
}
