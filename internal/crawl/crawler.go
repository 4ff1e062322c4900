package crawl

import (
	"context"
	"exchangestats/internal/assert"
	"exchangestats/internal/components/telemetry"
	"exchangestats/lib/scrapers/bitdegree"
	"fmt"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel/attribute"
)

const (
	report_crawler_fetch   = "crawler.fetch"
	report_crawler_emit    = "crawler.emit"
	report_crawler_rows    = "crawler.rows"
	report_crawler_emitted = "crawler.emitted"
)

// Fetcher retrieves and parses a page.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*goquery.Document, error)
}

// Sink receives one record per finished exchange.
type Sink interface {
	Emit(ctx context.Context, record Record) error
}

type Options struct {
	Plan      []Exchange
	Site      bitdegree.Site
	Fetcher   Fetcher
	Extractor bitdegree.Extractor
	Sink      Sink
	OnFailure FailurePolicy
}

// Crawler walks the plan one page at a time: every exchange's landing page followed
// by its table pages in ascending order, emitting each exchange after its last page.
type Crawler struct {
	plan      []Exchange
	site      bitdegree.Site
	fetcher   Fetcher
	extractor bitdegree.Extractor
	sink      Sink
	onFailure FailurePolicy
	tel       telemetry.API
}

func NewCrawler(opts Options, tel telemetry.API) (*Crawler, error) {
	assert.NotNil(opts.Fetcher)
	assert.NotNil(opts.Sink)
	assert.NotNil(tel)

	err := ValidatePlan(opts.Plan)
	if err != nil {
		return nil, err
	}

	return &Crawler{
		plan:      opts.Plan,
		site:      opts.Site,
		fetcher:   opts.Fetcher,
		extractor: opts.Extractor,
		sink:      opts.Sink,
		onFailure: opts.OnFailure,
		tel:       telemetry.NewScopedAPI("crawl", tel),
	}, nil
}

// Url is the page requested in the given state.
func (c *Crawler) Url(state State) string {
	exchange := c.plan[state.Exchange]
	switch state.Phase {
	case AWAITING_LANDING:
		return c.site.LandingUrl(exchange.Slug)
	case AWAITING_TABLE_PAGE:
		return c.site.TableUrl(exchange.Slug, state.Page)
	}
	panic(fmt.Sprintf("no url for state %s", state))
}

// Run crawls the whole plan. Pages that fail to fetch are handled by the failure
// policy and recorded in the returned context, the error is only non-nil if the
// context was cancelled or a sink failed.
func (c *Crawler) Run(ctx context.Context) (*Context, error) {
	ctx, span := tracer.Start(ctx, "Crawler.Run")
	defer span.End()

	cc := NewContext()
	for !cc.State.Done() {
		err := ctx.Err()
		if err != nil {
			return cc, err
		}
		err = c.Step(ctx, cc)
		if err != nil {
			span.RecordError(err)
			return cc, err
		}
	}

	span.SetAttributes(
		attribute.Int("emitted", cc.Emitted),
		attribute.Int("failures", len(cc.Failures)),
	)
	return cc, nil
}

// Step processes the page of the context's current state and advances it.
func (c *Crawler) Step(ctx context.Context, cc *Context) error {
	state := cc.State
	if state.Done() {
		return nil
	}
	exchange := c.plan[state.Exchange]
	link := c.Url(state)

	ctx, span := tracer.Start(ctx, "Crawler.Step")
	defer span.End()
	span.SetAttributes(
		attribute.String("state", state.String()),
		attribute.String("url", link),
	)

	cc.Visited = append(cc.Visited, link)
	doc, err := c.fetcher.Fetch(ctx, link)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return c.handleFailure(ctx, cc, link, err)
	}

	switch state.Phase {
	case AWAITING_LANDING:
		page := c.extractor.Extract(ctx, bitdegree.PAGE_LANDING, doc)
		cc.open(NewSnapshot(exchange, page.Stats))
	case AWAITING_TABLE_PAGE:
		page := c.extractor.Extract(ctx, bitdegree.PAGE_TABLE, doc)
		Merge(cc.Current(), page.Rows)
		c.tel.ReportDebug(report_crawler_rows, exchange.Key, state.Page, len(page.Rows))
	}

	if state.ClosesExchange(c.plan) {
		err := c.emit(ctx, cc, false)
		if err != nil {
			return err
		}
	}
	cc.State = state.Next(c.plan)
	return nil
}

func (c *Crawler) emit(ctx context.Context, cc *Context, partial bool) error {
	snapshot := cc.close()
	if snapshot == nil {
		return nil
	}
	err := c.sink.Emit(ctx, Record{
		Exchange: snapshot.Exchange,
		Snapshot: snapshot,
		Partial:  partial,
	})
	if err != nil {
		c.tel.ReportBroken(report_crawler_emit, err, snapshot.Exchange)
		return fmt.Errorf("emit %s: %w", snapshot.Exchange, err)
	}
	cc.Emitted++
	c.tel.ReportCount(report_crawler_emitted, int64(cc.Emitted))
	return nil
}

func (c *Crawler) handleFailure(ctx context.Context, cc *Context, link string, err error) error {
	state := cc.State
	cc.Failures = append(cc.Failures, FetchFailure{
		State: state,
		Url:   link,
		Err:   err,
	})
	c.tel.ReportWarning(report_crawler_fetch, err, state.String(), c.onFailure.String())

	switch c.onFailure {
	case EMIT_PARTIAL:
		emitErr := c.emit(ctx, cc, true)
		if emitErr != nil {
			return emitErr
		}
		cc.State = State{Phase: DONE}
	case SKIP_EXCHANGE:
		cc.close()
		cc.State = state.NextExchange(c.plan)
	default:
		cc.close()
		cc.State = State{Phase: DONE}
	}
	return nil
}
