package sink

import (
	"bytes"
	"encoding/json"
	"exchangestats/internal/crawl"
	"exchangestats/lib/scrapers/bitdegree"
)

// LegacyName controls the names used for an exchange in the prefixed format.
type LegacyName struct {
	// Key is the top level key of the record, defaults to the exchange key.
	Key string
	// Prefix is put in front of the exchange specific field names,
	// defaults to the exchange key.
	Prefix string
	// MarketsField is the name of the market count field,
	// defaults to "<prefix>_markets".
	MarketsField string
}

func (n LegacyName) withDefaults(exchange string) LegacyName {
	if n.Key == "" {
		n.Key = exchange
	}
	if n.Prefix == "" {
		n.Prefix = exchange
	}
	if n.MarketsField == "" {
		n.MarketsField = n.Prefix + "_markets"
	}
	return n
}

// DefaultLegacyNames are the names the exchanges of the default plan have always
// been written under.
func DefaultLegacyNames() map[string]LegacyName {
	return map[string]LegacyName{
		"btcturk": {Key: "btcturk", Prefix: "btcturk", MarketsField: "btcturk_markets_raw"},
		"binance": {Key: "binance", Prefix: "binance"},
		"paribu":  {Key: "Paribu", Prefix: "paribu"},
	}
}

type field struct {
	name  string
	value any
}

// object is a json object that keeps its fields in insertion order.
type object []field

func (o object) MarshalJSON() ([]byte, error) {
	var buff bytes.Buffer
	buff.WriteByte('{')
	for i, f := range o {
		if i > 0 {
			buff.WriteByte(',')
		}
		key, err := json.Marshal(f.name)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(f.value)
		if err != nil {
			return nil, err
		}
		buff.Write(key)
		buff.WriteByte(':')
		buff.Write(value)
	}
	buff.WriteByte('}')
	return buff.Bytes(), nil
}

// tokens is a value split around whitespace, or null if it is absent.
func tokens(t bitdegree.Text) any {
	if !t.IsPresent() {
		return nil
	}
	return t.Fields()
}

func legacyRow(row bitdegree.MarketRow) object {
	return object{
		{"Base Coin", tokens(row.BaseCoin)},
		{"Name", row.Name},
		{"Volume", row.Volume},
		{"Volume %", tokens(row.VolumeShare)},
	}
}

// NewPrefixedEncoder encodes records in the shape exchange statistics were first
// published in: field names prefixed per exchange and most values split into
// whitespace separated tokens.
func NewPrefixedEncoder(names map[string]LegacyName) Encoder {
	return func(record crawl.Record) ([]byte, error) {
		name := names[record.Exchange].withDefaults(record.Exchange)
		s := record.Snapshot

		markets := make([]object, len(s.Markets))
		for i, row := range s.Markets {
			markets[i] = legacyRow(row)
		}

		fields := object{
			{name.Prefix + "_volume", tokens(s.Volume)},
			{name.Prefix + "_volume_in_btc", tokens(s.VolumeBtc)},
			{"7d_volume", s.Volume7d},
			{name.Prefix + "_total_cryptocurrencies", tokens(s.AssetCount)},
			{name.MarketsField, tokens(s.MarketCount)},
			{name.Prefix + "_market_dominance", tokens(s.Dominance)},
			{name.Prefix + "_market_rank", tokens(s.Rank)},
			{"ahref_ranking", s.BacklinkRank},
			{"mo_organic_traffic", s.OrganicTraffic},
			{"markets", markets},
		}
		if record.Partial {
			fields = append(fields, field{"partial", true})
		}

		return json.Marshal(object{{name.Key, fields}})
	}
}
