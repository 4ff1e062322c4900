package db

import (
	"context"
	"database/sql"
)

const createRun = `-- name: CreateRun :exec
insert into runs(id, started_at) values (?, ?)
`

type CreateRunParams struct {
	ID        string
	StartedAt int64
}

func (q *Queries) CreateRun(ctx context.Context, arg CreateRunParams) error {
	_, err := q.db.ExecContext(ctx, createRun, arg.ID, arg.StartedAt)
	return err
}

const finishRun = `-- name: FinishRun :exec
update runs set finished_at = ?, emitted = ?, failures = ? where id = ?
`

type FinishRunParams struct {
	FinishedAt sql.NullInt64
	Emitted    int64
	Failures   int64
	ID         string
}

func (q *Queries) FinishRun(ctx context.Context, arg FinishRunParams) error {
	_, err := q.db.ExecContext(ctx, finishRun,
		arg.FinishedAt,
		arg.Emitted,
		arg.Failures,
		arg.ID,
	)
	return err
}

const getRun = `-- name: GetRun :one
select id, started_at, finished_at, emitted, failures from runs where id = ?
`

func (q *Queries) GetRun(ctx context.Context, id string) (Run, error) {
	row := q.db.QueryRowContext(ctx, getRun, id)
	var i Run
	err := row.Scan(
		&i.ID,
		&i.StartedAt,
		&i.FinishedAt,
		&i.Emitted,
		&i.Failures,
	)
	return i, err
}

const createSnapshot = `-- name: CreateSnapshot :one
insert into snapshots(
    run_id, exchange, name,
    volume, volume_in_btc, volume_7d, total_cryptocurrencies, markets_count,
    market_dominance, market_rank, ahref_ranking, monthly_organic_traffic,
    partial, created_at
) values (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
returning id
`

type CreateSnapshotParams struct {
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

func (q *Queries) CreateSnapshot(ctx context.Context, arg CreateSnapshotParams) (int64, error) {
	row := q.db.QueryRowContext(ctx, createSnapshot,
		arg.RunID,
		arg.Exchange,
		arg.Name,
		arg.Volume,
		arg.VolumeInBtc,
		arg.Volume7d,
		arg.TotalCryptocurrencies,
		arg.MarketsCount,
		arg.MarketDominance,
		arg.MarketRank,
		arg.AhrefRanking,
		arg.MonthlyOrganicTraffic,
		arg.Partial,
		arg.CreatedAt,
	)
	var id int64
	err := row.Scan(&id)
	return id, err
}

const createMarketRow = `-- name: CreateMarketRow :exec
insert into market_rows(snapshot_id, position, base_coin, name, volume, volume_share)
values (?, ?, ?, ?, ?, ?)
`

type CreateMarketRowParams struct {
	SnapshotID  int64
	Position    int64
	BaseCoin    sql.NullString
	Name        sql.NullString
	Volume      sql.NullString
	VolumeShare sql.NullString
}

func (q *Queries) CreateMarketRow(ctx context.Context, arg CreateMarketRowParams) error {
	_, err := q.db.ExecContext(ctx, createMarketRow,
		arg.SnapshotID,
		arg.Position,
		arg.BaseCoin,
		arg.Name,
		arg.Volume,
		arg.VolumeShare,
	)
	return err
}

const snapshotColumns = `id, run_id, exchange, name, volume, volume_in_btc, volume_7d, total_cryptocurrencies, markets_count, market_dominance, market_rank, ahref_ranking, monthly_organic_traffic, partial, created_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanSnapshot(row scanner) (Snapshot, error) {
	var i Snapshot
	err := row.Scan(
		&i.ID,
		&i.RunID,
		&i.Exchange,
		&i.Name,
		&i.Volume,
		&i.VolumeInBtc,
		&i.Volume7d,
		&i.TotalCryptocurrencies,
		&i.MarketsCount,
		&i.MarketDominance,
		&i.MarketRank,
		&i.AhrefRanking,
		&i.MonthlyOrganicTraffic,
		&i.Partial,
		&i.CreatedAt,
	)
	return i, err
}

const getLatestSnapshot = `-- name: GetLatestSnapshot :one
select ` + snapshotColumns + ` from snapshots where exchange = ?
order by created_at desc, id desc
limit 1
`

func (q *Queries) GetLatestSnapshot(ctx context.Context, exchange string) (Snapshot, error) {
	row := q.db.QueryRowContext(ctx, getLatestSnapshot, exchange)
	return scanSnapshot(row)
}

const getRunSnapshots = `-- name: GetRunSnapshots :many
select ` + snapshotColumns + ` from snapshots where run_id = ?
order by id asc
`

func (q *Queries) GetRunSnapshots(ctx context.Context, runID string) ([]Snapshot, error) {
	rows, err := q.db.QueryContext(ctx, getRunSnapshots, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Snapshot
	for rows.Next() {
		i, err := scanSnapshot(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const getMarketRows = `-- name: GetMarketRows :many
select snapshot_id, position, base_coin, name, volume, volume_share from market_rows where snapshot_id = ?
order by position asc
`

func (q *Queries) GetMarketRows(ctx context.Context, snapshotID int64) ([]MarketRow, error) {
	rows, err := q.db.QueryContext(ctx, getMarketRows, snapshotID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []MarketRow
	for rows.Next() {
		var i MarketRow
		if err := rows.Scan(
			&i.SnapshotID,
			&i.Position,
			&i.BaseCoin,
			&i.Name,
			&i.Volume,
			&i.VolumeShare,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const listExchanges = `-- name: ListExchanges :many
select distinct exchange from snapshots
order by exchange asc
`

func (q *Queries) ListExchanges(ctx context.Context) ([]string, error) {
	rows, err := q.db.QueryContext(ctx, listExchanges)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []string
	for rows.Next() {
		var exchange string
		if err := rows.Scan(&exchange); err != nil {
			return nil, err
		}
		items = append(items, exchange)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
