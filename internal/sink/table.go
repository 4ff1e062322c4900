package sink

import (
	"context"
	"exchangestats/internal/crawl"
	"exchangestats/lib/scrapers/bitdegree"
	"io"
	"sync"

	"github.com/jedib0t/go-pretty/v6/table"
)

const absentCell = "-"

func cell(t bitdegree.Text) string {
	value, ok := t.Get()
	if !ok {
		return absentCell
	}
	return value
}

func NewTable(out io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(out)
	return t
}

// RenderSummary writes one row of statistics per snapshot.
func RenderSummary(out io.Writer, snapshots []*crawl.ExchangeSnapshot) {
	t := NewTable(out)
	t.AppendHeader(table.Row{
		"Exchange", "Volume", "Volume (BTC)", "7d Volume", "Assets",
		"Markets", "Dominance", "Rank", "Ahrefs", "Traffic", "Rows",
	})
	for _, s := range snapshots {
		t.AppendRow(table.Row{
			s.Name,
			cell(s.Volume),
			cell(s.VolumeBtc),
			cell(s.Volume7d),
			cell(s.AssetCount),
			cell(s.MarketCount),
			cell(s.Dominance),
			cell(s.Rank),
			cell(s.BacklinkRank),
			cell(s.OrganicTraffic),
			len(s.Markets),
		})
	}
	t.Render()
}

// RenderMarkets writes the market rows of a snapshot in the order they were scraped.
func RenderMarkets(out io.Writer, snapshot *crawl.ExchangeSnapshot) {
	t := NewTable(out)
	t.SetTitle(snapshot.Name)
	t.AppendHeader(table.Row{"#", "Base Coin", "Market", "Volume", "Volume %"})
	for i, row := range snapshot.Markets {
		t.AppendRow(table.Row{
			i + 1,
			cell(row.BaseCoin),
			cell(row.Name),
			cell(row.Volume),
			cell(row.VolumeShare),
		})
	}
	t.Render()
}

// Table renders every record it received when it is closed.
type Table struct {
	mutex     sync.Mutex
	out       io.Writer
	markets   bool
	snapshots []*crawl.ExchangeSnapshot
}

// NewTableSink creates a table sink, when `markets` is set the market rows of each
// exchange are rendered after the summary.
func NewTableSink(out io.Writer, markets bool) *Table {
	return &Table{out: out, markets: markets}
}

func (t *Table) Emit(ctx context.Context, record crawl.Record) error {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	t.snapshots = append(t.snapshots, record.Snapshot)
	return nil
}

func (t *Table) Close(ctx context.Context) error {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	RenderSummary(t.out, t.snapshots)
	if t.markets {
		for _, s := range t.snapshots {
			RenderMarkets(t.out, s)
		}
	}
	return nil
}
