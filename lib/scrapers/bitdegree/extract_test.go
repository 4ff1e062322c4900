package bitdegree

import (
	"context"
	"encoding/json"
	"exchangestats/internal/components/telemetry"
	"exchangestats/lib/scrapers/bitdegree/bitdegreetest"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func parseDoc(t testing.TB, body string) *goquery.Document {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	return doc
}

var textComparer = cmp.Comparer(func(a, b Text) bool {
	return a == b
})

func TestLandingStats(t *testing.T) {
	tel := &telemetry.Recorder{}
	extractor := NewExtractor(tel)

	doc := parseDoc(t, bitdegreetest.LandingPage(bitdegreetest.Landing{
		Name:           "BtcTurk",
		Stats:          []string{"$1.2B", "30,000 BTC", "450", "120", "2.3%", "#7"},
		Volume7d:       "$8.4B",
		BacklinkRank:   "1,204",
		OrganicTraffic: "310K",
	}))

	stats := extractor.Stats(context.Background(), doc)

	expected := Stats{
		Volume:         Present("$1.2B"),
		VolumeBtc:      Present("30,000 BTC"),
		Volume7d:       Present("$8.4B"),
		AssetCount:     Present("450"),
		MarketCount:    Present("120"),
		Dominance:      Present("2.3%"),
		Rank:           Present("#7"),
		BacklinkRank:   Present("1,204"),
		OrganicTraffic: Present("310K"),
	}
	diff := cmp.Diff(expected, stats, textComparer)
	if diff != "" {
		t.Fatal(diff)
	}
	require.Empty(t, tel.Reports(telemetry.REPORT_WARNING, report_extractor_landing))
}

func TestLandingStatsMissingDominance(t *testing.T) {
	tel := &telemetry.Recorder{}
	extractor := NewExtractor(tel)

	doc := parseDoc(t, bitdegreetest.LandingPage(bitdegreetest.Landing{
		Name:           "Paribu",
		Stats:          []string{"$1.2B", "30,000 BTC", "450", "120", "", "#7"},
		Volume7d:       "$8.4B",
		BacklinkRank:   "1,204",
		OrganicTraffic: "310K",
	}))

	stats := extractor.Stats(context.Background(), doc)

	require.False(t, stats.Dominance.IsPresent())
	for _, field := range stats.Fields() {
		if field.Name == "market_dominance" {
			continue
		}
		require.True(t, field.Value.IsPresent(), field.Name)
	}
	require.Equal(t, "#7", stats.Rank.String())
	require.Len(t, tel.Reports(telemetry.REPORT_WARNING, report_extractor_landing), 1)
}

func TestLandingStatsShortList(t *testing.T) {
	extractor := NewExtractor(&telemetry.Recorder{})

	doc := parseDoc(t, bitdegreetest.LandingPage(bitdegreetest.Landing{
		Name:  "Short",
		Stats: []string{"$5M", "120 BTC", "40", "12", "#90"},
	}))

	stats := extractor.Stats(context.Background(), doc)

	require.Equal(t, "12", stats.MarketCount.String())
	require.False(t, stats.Dominance.IsPresent())
	require.Equal(t, "#90", stats.Rank.String())
	require.False(t, stats.Volume7d.IsPresent())
	require.False(t, stats.BacklinkRank.IsPresent())
}

func TestLandingStatsEmptyPage(t *testing.T) {
	extractor := NewExtractor(&telemetry.Recorder{})

	stats := extractor.Stats(context.Background(), parseDoc(t, "<html><body></body></html>"))
	for _, field := range stats.Fields() {
		require.False(t, field.Value.IsPresent(), field.Name)
	}
}

func TestTableRows(t *testing.T) {
	tel := &telemetry.Recorder{}
	extractor := NewExtractor(tel)

	doc := parseDoc(t, bitdegreetest.TablePage([]bitdegreetest.Row{
		{BaseCoin: "BTC", Name: "BTC/TRY", Volume: "12,000", VolumeShare: "5.1%"},
		{BaseCoin: "ETH", Name: "ETH/TRY", Volume: "8,000", VolumeShare: "3.4%"},
	}))

	page := extractor.Extract(context.Background(), PAGE_TABLE, doc)

	require.Equal(t, PAGE_TABLE, page.Kind)
	expected := []MarketRow{
		{BaseCoin: Present("BTC"), Name: Present("BTC/TRY"), Volume: Present("12,000"), VolumeShare: Present("5.1%")},
		{BaseCoin: Present("ETH"), Name: Present("ETH/TRY"), Volume: Present("8,000"), VolumeShare: Present("3.4%")},
	}
	diff := cmp.Diff(expected, page.Rows, textComparer)
	if diff != "" {
		t.Fatal(diff)
	}
	require.Empty(t, tel.Reports(telemetry.REPORT_WARNING, report_extractor_table))
}

func TestTableRowsMissingCell(t *testing.T) {
	tel := &telemetry.Recorder{}
	extractor := NewExtractor(tel)

	doc := parseDoc(t, bitdegreetest.TablePage([]bitdegreetest.Row{
		{BaseCoin: "USDT", Name: "USDT/TRY", Volume: "", VolumeShare: "0.2%"},
	}))

	rows := extractor.Rows(context.Background(), doc)

	require.Len(t, rows, 1)
	require.False(t, rows[0].Volume.IsPresent())
	require.Equal(t, "USDT/TRY", rows[0].Name.String())
	require.Len(t, tel.Reports(telemetry.REPORT_WARNING, report_extractor_table), 1)
}

func TestTableRowsEmpty(t *testing.T) {
	tel := &telemetry.Recorder{}
	extractor := NewExtractor(tel)

	rows := extractor.Rows(context.Background(), parseDoc(t, bitdegreetest.TablePage(nil)))

	require.Empty(t, rows)
	require.Len(t, tel.Reports(telemetry.REPORT_WARNING, report_extractor_table), 1)
}

func TestTextJson(t *testing.T) {
	out, err := json.Marshal(MarketRow{BaseCoin: Present("BTC")})
	if err != nil {
		t.Fatal(err)
	}
	require.JSONEq(t, `{"base_coin":"BTC","name":null,"volume":null,"volume_share":null}`, string(out))

	var row MarketRow
	err = json.Unmarshal(out, &row)
	if err != nil {
		t.Fatal(err)
	}
	require.Equal(t, Present("BTC"), row.BaseCoin)
	require.Equal(t, Absent, row.Name)
	require.Equal(t, []string{"30,000", "BTC"}, Present("30,000 BTC").Fields())
	require.Nil(t, Absent.Fields())
}
