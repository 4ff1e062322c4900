package crawl

import (
	"exchangestats/lib/scrapers/bitdegree"
)

// ExchangeSnapshot accumulates everything scraped for one exchange.
type ExchangeSnapshot struct {
	Exchange string `json:"-"`
	Name     string `json:"name"`
	bitdegree.Stats
	Markets []bitdegree.MarketRow `json:"markets"`
}

func NewSnapshot(exchange Exchange, stats bitdegree.Stats) *ExchangeSnapshot {
	return &ExchangeSnapshot{
		Exchange: exchange.Key,
		Name:     exchange.Name,
		Stats:    stats,
		Markets:  []bitdegree.MarketRow{},
	}
}

// Merge appends rows to the end of the snapshot's markets in the order given,
// merging the same rows twice duplicates them.
func Merge(snapshot *ExchangeSnapshot, rows []bitdegree.MarketRow) {
	snapshot.Markets = append(snapshot.Markets, rows...)
}

// Record is what is handed to a sink once an exchange is finished.
type Record struct {
	Exchange string
	Snapshot *ExchangeSnapshot
	// Partial is set when the chain broke before the exchange's last page.
	Partial bool
}

// FetchFailure is a page that could not be fetched.
type FetchFailure struct {
	State State
	Url   string
	Err   error
}

// Context carries the state of one crawl run from step to step.
type Context struct {
	State State
	// Snapshots holds every snapshot created during the run in visiting order,
	// including ones that were dropped after a failure.
	Snapshots []*ExchangeSnapshot
	Visited   []string
	Failures  []FetchFailure
	Emitted   int

	current *ExchangeSnapshot
}

func NewContext() *Context {
	return &Context{State: Start()}
}

// Current is the snapshot of the exchange being crawled, nil before its landing
// page has been fetched.
func (c *Context) Current() *ExchangeSnapshot {
	return c.current
}

// Snapshot finds a snapshot created during this run by exchange key.
func (c *Context) Snapshot(exchange string) (*ExchangeSnapshot, bool) {
	for _, s := range c.Snapshots {
		if s.Exchange == exchange {
			return s, true
		}
	}
	return nil, false
}

func (c *Context) open(snapshot *ExchangeSnapshot) {
	c.current = snapshot
	c.Snapshots = append(c.Snapshots, snapshot)
}

func (c *Context) close() *ExchangeSnapshot {
	snapshot := c.current
	c.current = nil
	return snapshot
}
