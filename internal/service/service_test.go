package service

import (
	"bytes"
	"context"
	"encoding/json"
	"exchangestats/internal/components/telemetry"
	"exchangestats/internal/config"
	"exchangestats/internal/crawl"
	"exchangestats/lib/scrapers/bitdegree/bitdegreetest"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/require"
)

// newSite serves landing and table pages for any exchange slug, table pages
// listed in `failing` respond with a 500.
func newSite(t testing.TB, failing map[string]bool) *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/top-crypto-exchanges/", func(w http.ResponseWriter, r *http.Request) {
		parts := strings.Split(strings.TrimPrefix(r.URL.Path, "/top-crypto-exchanges/"), "/")
		slug := parts[0]

		if len(parts) == 1 {
			fmt.Fprint(w, bitdegreetest.LandingPage(bitdegreetest.Landing{
				Name:           slug,
				Stats:          []string{"$1.2B", "30,000 BTC", "450", "120", "2.3%", "#7"},
				Volume7d:       "$8.4B",
				BacklinkRank:   "1,204",
				OrganicTraffic: "310K",
			}))
			return
		}

		page, err := strconv.Atoi(r.URL.Query().Get("page"))
		if err != nil || parts[1] != "markets" {
			http.NotFound(w, r)
			return
		}
		if failing[fmt.Sprintf("%s/%d", slug, page)] {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		fmt.Fprint(w, bitdegreetest.TablePage([]bitdegreetest.Row{
			{BaseCoin: "BTC", Name: fmt.Sprintf("%s-%d", slug, page), Volume: "$10M", VolumeShare: "12.5%"},
		}))
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func testConfig(baseUrl string) config.Config {
	cfg := config.Default()
	cfg.BaseUrl = baseUrl
	cfg.AllowedDomain = ""
	cfg.Exchanges = []config.ExchangeConfig{
		{Key: "btcturk", Name: "BtcTurk", Slug: "btcturk-pro", Pages: 2, LegacyMarketsField: "btcturk_markets_raw"},
		{Key: "paribu", Name: "Paribu", Slug: "paribu", Pages: 1, LegacyKey: "Paribu"},
	}
	cfg.Http.RequestsPerSecond = 0
	cfg.Http.RetryCount = 0
	return cfg
}

type fakeUploader struct {
	key  string
	body []byte
}

func (u *fakeUploader) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	u.key = aws.ToString(params.Key)
	body, err := io.ReadAll(params.Body)
	if err != nil {
		return nil, err
	}
	u.body = body
	return &s3.PutObjectOutput{}, nil
}

func TestCrawl(t *testing.T) {
	server := newSite(t, nil)

	cfg := testConfig(server.URL)
	cfg.Database.File = filepath.Join(t.TempDir(), "stats.db")
	cfg.S3 = config.S3Config{Enabled: true, Bucket: "exchange-stats", Region: "us-east-1", Prefix: "runs"}

	uploader := &fakeUploader{}
	svc := New(
		cfg,
		WithTelemetry(&telemetry.Recorder{}),
		WithRunIds(func() string { return "run-1" }),
		WithUploader(uploader),
	)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()

	var out bytes.Buffer
	summary, err := svc.Crawl(ctx, &out)
	require.NoError(t, err)
	require.Equal(t, "run-1", summary.RunId)
	require.Equal(t, 2, summary.Emitted)
	require.Empty(t, summary.Failures)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2)

	var record map[string]crawl.ExchangeSnapshot
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &record))
	btcturk := record["btcturk"]
	require.Equal(t, "BtcTurk", btcturk.Name)
	require.Equal(t, "2.3%", btcturk.Dominance.String())
	require.Len(t, btcturk.Markets, 2)
	require.Equal(t, "btcturk-pro-1", btcturk.Markets[0].Name.String())
	require.Equal(t, "btcturk-pro-2", btcturk.Markets[1].Name.String())

	require.True(t, strings.HasPrefix(summary.ObjectKey, "runs/date="))
	require.Equal(t, summary.ObjectKey, uploader.key)
	require.Equal(t, out.String(), string(uploader.body))

	var shown bytes.Buffer
	require.NoError(t, svc.Show(ctx, &shown, "btcturk pro"))
	require.Contains(t, shown.String(), "BtcTurk")
	require.Contains(t, shown.String(), "btcturk-pro-2")
	require.NotContains(t, shown.String(), "Paribu")

	shown.Reset()
	require.NoError(t, svc.Show(ctx, &shown, ""))
	require.Contains(t, shown.String(), "BtcTurk")
	require.Contains(t, shown.String(), "Paribu")

	require.Error(t, svc.Show(ctx, &shown, "kraken"))
}

func TestCrawlPartial(t *testing.T) {
	server := newSite(t, map[string]bool{"btcturk-pro/2": true})

	cfg := testConfig(server.URL)
	cfg.OnFetchFailure = "emit_partial"
	cfg.Output.Format = "prefixed"
	cfg.Output.File = filepath.Join(t.TempDir(), "out", "stats.jsonl")

	tel := &telemetry.Recorder{}
	svc := New(cfg, WithTelemetry(tel))

	summary, err := svc.Crawl(context.Background(), io.Discard)
	require.NoError(t, err)
	require.Equal(t, 1, summary.Emitted)
	require.Len(t, summary.Failures, 1)
	require.Len(t, tel.Reports(telemetry.REPORT_WARNING, report_service_failures), 1)

	contents, err := os.ReadFile(cfg.Output.File)
	require.NoError(t, err)

	var record map[string]map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(contents), &record))
	btcturk := record["btcturk"]
	require.Equal(t, true, btcturk["partial"])
	require.Equal(t, []any{"120"}, btcturk["btcturk_markets_raw"])
	require.Len(t, btcturk["markets"], 1)
}

func TestCrawlTable(t *testing.T) {
	server := newSite(t, nil)

	cfg := testConfig(server.URL)
	cfg.Output.Format = "table"

	var out bytes.Buffer
	summary, err := New(cfg, WithTelemetry(&telemetry.Recorder{})).Crawl(context.Background(), &out)
	require.NoError(t, err)
	require.Equal(t, 2, summary.Emitted)
	require.Contains(t, out.String(), "BtcTurk")
	require.Contains(t, out.String(), "Paribu")
}

func TestShowWithoutDatabase(t *testing.T) {
	svc := New(config.Default(), WithTelemetry(&telemetry.Recorder{}))
	require.Error(t, svc.Show(context.Background(), io.Discard, ""))
}

func TestScheduleInvalidSpec(t *testing.T) {
	svc := New(config.Default(), WithTelemetry(&telemetry.Recorder{}))
	require.Error(t, svc.Schedule(context.Background(), "whenever", io.Discard))
}

func TestResolveExchange(t *testing.T) {
	exchanges := []string{"binance", "btcturk", "paribu"}

	match, err := ResolveExchange("Paribu", exchanges)
	require.NoError(t, err)
	require.Equal(t, "paribu", match)

	match, err = ResolveExchange("binanse", exchanges)
	require.NoError(t, err)
	require.Equal(t, "binance", match)

	_, err = ResolveExchange("kraken", exchanges)
	require.Error(t, err)

	_, err = ResolveExchange("binance", nil)
	require.Error(t, err)
}
