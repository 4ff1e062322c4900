package service

import (
	"context"
	"database/sql"
	"errors"
	devenv "exchangestats/dev/env"
	"exchangestats/internal/assert"
	"exchangestats/internal/components/chrono"
	"exchangestats/internal/components/telemetry"
	"exchangestats/internal/config"
	"exchangestats/internal/crawl"
	"exchangestats/internal/sink"
	"exchangestats/lib/restyutil"
	"exchangestats/lib/scrapers/bitdegree"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

const (
	report_service_crawl      = "service.crawl"
	report_service_failures   = "service.failures"
	report_service_sink_close = "service.sink-close"
	report_service_schedule   = "service.schedule"
)

type serviceOptions struct {
	tel         telemetry.API
	clock       chrono.API
	newRunId    func() string
	newUploader func(ctx context.Context, opts sink.S3Options) (sink.Uploader, error)
}

type Option func(opts *serviceOptions)

func WithTelemetry(tel telemetry.API) Option {
	return func(opts *serviceOptions) {
		opts.tel = tel
	}
}

func WithClock(clock chrono.API) Option {
	return func(opts *serviceOptions) {
		opts.clock = clock
	}
}

func WithRunIds(newRunId func() string) Option {
	return func(opts *serviceOptions) {
		opts.newRunId = newRunId
	}
}

// WithUploader replaces the s3 client used to upload run output.
func WithUploader(uploader sink.Uploader) Option {
	return func(opts *serviceOptions) {
		opts.newUploader = func(context.Context, sink.S3Options) (sink.Uploader, error) {
			return uploader, nil
		}
	}
}

// Service runs crawls as described by a config.
type Service struct {
	cfg  config.Config
	opts serviceOptions
	tel  telemetry.API
}

func New(cfg config.Config, options ...Option) Service {
	opts := serviceOptions{
		tel:      telemetry.SlogAPI{},
		clock:    chrono.NewStandardImpl(nil),
		newRunId: uuid.NewString,
		newUploader: func(ctx context.Context, s3opts sink.S3Options) (sink.Uploader, error) {
			return sink.NewS3Client(ctx, s3opts)
		},
	}
	for _, opt := range options {
		opt(&opts)
	}
	assert.NotNil(opts.tel)
	assert.NotNil(opts.clock)

	return Service{
		cfg:  cfg,
		opts: opts,
		tel:  telemetry.NewScopedAPI("service", opts.tel),
	}
}

func (s Service) Config() config.Config {
	return s.cfg
}

// OpenDB opens the configured database and makes sure its schema exists.
func (s Service) OpenDB(ctx context.Context) (*sql.DB, error) {
	if !s.cfg.Database.Enabled() {
		return nil, fmt.Errorf("no database configured")
	}
	database, err := s.cfg.Database.OpenDB()
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	err = sink.CreateSchema(ctx, database)
	if err != nil {
		database.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return database, nil
}

// Summary describes a finished crawl.
type Summary struct {
	RunId     string
	StartedAt time.Time
	Duration  time.Duration
	Emitted   int
	Failures  []crawl.FetchFailure
	// ObjectKey is where the run was uploaded to, empty if s3 is disabled.
	ObjectKey string
}

func (s Service) openOutput(stdout io.Writer) (io.Writer, func() error, error) {
	if s.cfg.Output.File == "" {
		return stdout, func() error { return nil }, nil
	}
	path, err := devenv.ResolvePath(s.cfg.Output.File)
	if err != nil {
		return nil, nil, err
	}
	err = os.MkdirAll(filepath.Dir(path), 0777)
	if err != nil {
		return nil, nil, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, nil, err
	}
	return f, f.Close, nil
}

func (s Service) newClient() (*bitdegree.Client, error) {
	opts := s.cfg.ClientOptions()
	if s.cfg.DumpHttp != "" {
		output, err := restyutil.NewFilesystemOutput(s.cfg.DumpHttp)
		if err != nil {
			return nil, fmt.Errorf("http dump directory: %w", err)
		}
		opts.Instrument = output
	}
	return bitdegree.NewClient(opts, s.opts.tel)
}

// Crawl runs the crawl plan once, writing records to `stdout` (or the configured
// output file) and whatever other sinks are configured.
func (s Service) Crawl(ctx context.Context, stdout io.Writer) (Summary, error) {
	summary := Summary{
		RunId:     s.opts.newRunId(),
		StartedAt: s.opts.clock.Now(),
	}

	format, err := s.cfg.Format()
	if err != nil {
		return summary, err
	}
	policy, err := s.cfg.FailurePolicy()
	if err != nil {
		return summary, err
	}
	client, err := s.newClient()
	if err != nil {
		return summary, err
	}

	out, closeOut, err := s.openOutput(stdout)
	if err != nil {
		return summary, fmt.Errorf("open output: %w", err)
	}
	defer closeOut()

	var sinks sink.Multi
	switch format {
	case sink.FORMAT_JSONL:
		sinks = append(sinks, sink.NewJSONLines(out, sink.EncodeUniform))
	case sink.FORMAT_PREFIXED:
		sinks = append(sinks, sink.NewJSONLines(out, sink.NewPrefixedEncoder(s.cfg.LegacyNames())))
	case sink.FORMAT_TABLE:
		sinks = append(sinks, sink.NewTableSink(out, s.cfg.Output.Markets))
	}

	var store *sink.Store
	if s.cfg.Database.Enabled() {
		database, err := s.OpenDB(ctx)
		if err != nil {
			return summary, err
		}
		defer database.Close()
		store, err = sink.NewStore(ctx, database, summary.RunId, s.opts.clock)
		if err != nil {
			return summary, err
		}
		sinks = append(sinks, store)
	}

	if s.cfg.S3.Enabled {
		uploader, err := s.opts.newUploader(ctx, s.cfg.S3Options())
		if err != nil {
			return summary, err
		}
		summary.ObjectKey = sink.ObjectKey(s.cfg.S3.Prefix, summary.RunId, summary.StartedAt)
		sinks = append(sinks, sink.NewS3(uploader, s.cfg.S3.Bucket, summary.ObjectKey, sink.EncodeUniform))
	}

	crawler, err := crawl.NewCrawler(crawl.Options{
		Plan:      s.cfg.Plan(),
		Site:      s.cfg.Site(),
		Fetcher:   client,
		Extractor: bitdegree.NewExtractor(s.opts.tel),
		Sink:      sinks,
		OnFailure: policy,
	}, s.opts.tel)
	if err != nil {
		return summary, err
	}

	cc, runErr := crawler.Run(ctx)
	summary.Emitted = cc.Emitted
	summary.Failures = cc.Failures
	summary.Duration = s.opts.clock.Now().Sub(summary.StartedAt)
	if runErr != nil {
		s.tel.ReportBroken(report_service_crawl, runErr, summary.RunId)
	}
	for _, failure := range cc.Failures {
		s.tel.ReportWarning(report_service_failures, failure.Err, failure.Url)
	}
	if store != nil {
		store.SetFailures(len(cc.Failures))
	}

	// output of a cancelled run is still flushed
	closeErr := sinks.Close(context.WithoutCancel(ctx))
	if closeErr != nil {
		s.tel.ReportBroken(report_service_sink_close, closeErr, summary.RunId)
	}

	return summary, errors.Join(runErr, closeErr)
}

// Schedule runs a crawl every time `spec` is due until the context is cancelled.
func (s Service) Schedule(ctx context.Context, spec string, stdout io.Writer) error {
	err := chrono.ValidateSpec(spec)
	if err != nil {
		return fmt.Errorf("invalid schedule %q: %w", spec, err)
	}

	cron := chrono.NewStandardCron(s.opts.clock, s.opts.tel)
	err = cron.Cron(spec, func() {
		summary, err := s.Crawl(ctx, stdout)
		if err != nil {
			s.tel.ReportBroken(report_service_schedule, err, summary.RunId)
			return
		}
		s.tel.ReportDebug(
			report_service_schedule,
			"run", summary.RunId,
			"emitted", summary.Emitted,
			"failures", len(summary.Failures),
		)
	})
	if err != nil {
		<-cron.Stop().Done()
		return err
	}

	<-ctx.Done()
	<-cron.Stop().Done()
	return nil
}
