package bitdegree

import (
	"context"
	"exchangestats/internal/assert"
	"exchangestats/internal/components/telemetry"
	"exchangestats/lib/htmlutil"
	"fmt"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel/attribute"
)

const (
	report_extractor_landing = "extractor.landing-stats"
	report_extractor_table   = "extractor.table-rows"
)

const (
	statsValueSelector = "div.overall-stats span.stats-value"
	volume7dSelector   = "div.container.mt-4 div.row div.col-12.col-md-12.content.content-description p strong:nth-child(3)"

	socialsCardSelector    = "div.row.px-0.px-md-2 div:nth-child(4) div.socials-card.card-shadow.p-3.h-100 div.wrp.d-flex.flex-column div:nth-child(2) div.d-flex.flex-column"
	backlinkRankSelector   = socialsCardSelector + " div:nth-child(1) p.mb-0.stat.text-left"
	organicTrafficSelector = socialsCardSelector + " div:nth-child(2) p.mb-0.stat.text-left"

	tableRowSelector    = "div.exchange-currencies-table div.table-wrp table.table tbody tr"
	baseCoinSelector    = "td:nth-child(2) div.mr-1"
	nameSelector        = "td:nth-child(4) strong"
	volumeSelector      = "td:nth-child(6) span"
	volumeShareSelector = "td:nth-child(7)"
)

// the statistics at the start of the stats list, dominance and rank are read
// from the end of the list and never overlap with these.
const leadingStatCount = 4

// Extractor turns fetched bitdegree pages into statistics and market rows.
// A node that cannot be found becomes an absent value, it is never an error.
type Extractor struct {
	tel telemetry.API
}

func NewExtractor(tel telemetry.API) Extractor {
	assert.NotNil(tel)
	return Extractor{tel: telemetry.NewScopedAPI("bitdegree", tel)}
}

func (e Extractor) Extract(ctx context.Context, kind PageKind, doc *goquery.Document) Page {
	switch kind {
	case PAGE_LANDING:
		return Page{Kind: kind, Stats: e.Stats(ctx, doc)}
	case PAGE_TABLE:
		return Page{Kind: kind, Rows: e.Rows(ctx, doc)}
	}
	panic(fmt.Sprintf("unknown page kind %d", kind))
}

func docUrl(doc *goquery.Document) string {
	if doc.Url == nil {
		return ""
	}
	return doc.Url.String()
}

func firstText(sel *goquery.Selection) Text {
	text, _ := htmlutil.FirstOwnText(sel)
	return TextOf(text)
}

// Stats reads the statistics of a landing page.
func (e Extractor) Stats(ctx context.Context, doc *goquery.Document) Stats {
	_, span := tracer.Start(ctx, "Extractor.Stats")
	defer span.End()

	values := htmlutil.OwnTexts(doc.Find(statsValueSelector))
	at := func(i int) Text {
		if i < 0 || i >= len(values) {
			return Absent
		}
		return TextOf(values[i])
	}
	fromEnd := func(offset int) Text {
		i := len(values) - offset
		if i < leadingStatCount {
			return Absent
		}
		return at(i)
	}

	stats := Stats{
		Volume:         at(0),
		VolumeBtc:      at(1),
		Volume7d:       firstText(doc.Find(volume7dSelector)),
		AssetCount:     at(2),
		MarketCount:    at(3),
		Dominance:      fromEnd(2),
		Rank:           fromEnd(1),
		BacklinkRank:   firstText(doc.Find(backlinkRankSelector)),
		OrganicTraffic: firstText(doc.Find(organicTrafficSelector)),
	}

	var missing []string
	for _, field := range stats.Fields() {
		if !field.Value.IsPresent() {
			missing = append(missing, field.Name)
		}
	}
	span.SetAttributes(
		attribute.Int("stats_nodes", len(values)),
		attribute.StringSlice("missing", missing),
	)
	if len(missing) > 0 {
		e.tel.ReportWarning(report_extractor_landing, docUrl(doc), missing)
	}

	return stats
}

// Rows reads every row of a market table page in document order.
func (e Extractor) Rows(ctx context.Context, doc *goquery.Document) []MarketRow {
	_, span := tracer.Start(ctx, "Extractor.Rows")
	defer span.End()

	var rows []MarketRow
	incomplete := 0
	doc.Find(tableRowSelector).Each(func(_ int, tr *goquery.Selection) {
		row := MarketRow{
			BaseCoin:    firstText(tr.Find(baseCoinSelector)),
			Name:        firstText(tr.Find(nameSelector)),
			Volume:      firstText(tr.Find(volumeSelector)),
			VolumeShare: firstText(tr.Find(volumeShareSelector)),
		}
		if !row.BaseCoin.IsPresent() ||
			!row.Name.IsPresent() ||
			!row.Volume.IsPresent() ||
			!row.VolumeShare.IsPresent() {
			incomplete++
		}
		rows = append(rows, row)
	})

	span.SetAttributes(
		attribute.Int("rows", len(rows)),
		attribute.Int("incomplete_rows", incomplete),
	)
	if len(rows) == 0 {
		e.tel.ReportWarning(report_extractor_table, docUrl(doc), "no rows found")
	} else if incomplete > 0 {
		e.tel.ReportWarning(report_extractor_table, docUrl(doc), fmt.Sprintf("%d incomplete rows", incomplete))
	}

	return rows
}
