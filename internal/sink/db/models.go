package db

import (
	"database/sql"
)

type MarketRow struct {
	SnapshotID  int64
	Position    int64
	BaseCoin    sql.NullString
	Name        sql.NullString
	Volume      sql.NullString
	VolumeShare sql.NullString
}

type Run struct {
	ID         string
	StartedAt  int64
	FinishedAt sql.NullInt64
	Emitted    int64
	Failures   int64
}

type Snapshot struct {
	ID                    int64
	RunID                 string
	Exchange              string
	Name                  string
	Volume                sql.NullString
	VolumeInBtc           sql.NullString
	Volume7d              sql.NullString
	TotalCryptocurrencies sql.NullString
	MarketsCount          sql.NullString
	MarketDominance       sql.NullString
	MarketRank            sql.NullString
	AhrefRanking          sql.NullString
	MonthlyOrganicTraffic sql.NullString
	Partial               int64
	CreatedAt             int64
}
