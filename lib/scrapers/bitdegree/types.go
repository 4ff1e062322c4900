package bitdegree

import (
	"encoding/json"
	"strings"
)

// Text is a value scraped from a page that may not have been found.
// The zero value is absent.
type Text struct {
	value   string
	present bool
}

// Absent is a Text for a field that could not be extracted.
var Absent = Text{}

func Present(value string) Text {
	return Text{value: value, present: true}
}

// TextOf treats an empty string as absent.
func TextOf(value string) Text {
	if value == "" {
		return Absent
	}
	return Present(value)
}

func (t Text) Get() (string, bool) {
	return t.value, t.present
}

func (t Text) IsPresent() bool {
	return t.present
}

// String returns the value or an empty string if it is absent.
func (t Text) String() string {
	return t.value
}

// Fields splits the value around whitespace, absent values have no fields.
func (t Text) Fields() []string {
	if !t.present {
		return nil
	}
	return strings.Fields(t.value)
}

func (t Text) MarshalJSON() ([]byte, error) {
	if !t.present {
		return []byte("null"), nil
	}
	return json.Marshal(t.value)
}

func (t *Text) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*t = Absent
		return nil
	}
	var value string
	err := json.Unmarshal(data, &value)
	if err != nil {
		return err
	}
	*t = Present(value)
	return nil
}

// Stats are the exchange level statistics shown on an exchange's landing page.
type Stats struct {
	Volume         Text `json:"volume"`
	VolumeBtc      Text `json:"volume_in_btc"`
	Volume7d       Text `json:"volume_7d"`
	AssetCount     Text `json:"total_cryptocurrencies"`
	MarketCount    Text `json:"markets_count"`
	Dominance      Text `json:"market_dominance"`
	Rank           Text `json:"market_rank"`
	BacklinkRank   Text `json:"ahref_ranking"`
	OrganicTraffic Text `json:"monthly_organic_traffic"`
}

type StatsField struct {
	Name  string
	Value Text
}

// Fields lists every statistic along with its json name, in page order.
func (s Stats) Fields() []StatsField {
	return []StatsField{
		{Name: "volume", Value: s.Volume},
		{Name: "volume_in_btc", Value: s.VolumeBtc},
		{Name: "volume_7d", Value: s.Volume7d},
		{Name: "total_cryptocurrencies", Value: s.AssetCount},
		{Name: "markets_count", Value: s.MarketCount},
		{Name: "market_dominance", Value: s.Dominance},
		{Name: "market_rank", Value: s.Rank},
		{Name: "ahref_ranking", Value: s.BacklinkRank},
		{Name: "monthly_organic_traffic", Value: s.OrganicTraffic},
	}
}

// MarketRow is one row of an exchange's market table.
type MarketRow struct {
	BaseCoin    Text `json:"base_coin"`
	Name        Text `json:"name"`
	Volume      Text `json:"volume"`
	VolumeShare Text `json:"volume_share"`
}

type PageKind int

const (
	PAGE_LANDING PageKind = iota
	PAGE_TABLE
)

func (k PageKind) String() string {
	switch k {
	case PAGE_LANDING:
		return "landing"
	case PAGE_TABLE:
		return "table"
	}
	return "unknown"
}

// Page is the result of extracting a page, only the field matching Kind is set.
type Page struct {
	Kind  PageKind
	Stats Stats
	Rows  []MarketRow
}
