package sink

import (
	"context"
	"database/sql"
	"errors"
	"exchangestats/internal/assert"
	"exchangestats/internal/components/chrono"
	"exchangestats/internal/crawl"
	"exchangestats/internal/sink/db"
	"exchangestats/lib/scrapers/bitdegree"
	"fmt"
	"sync"
	"time"

	_ "github.com/tursodatabase/libsql-client-go/libsql"
	_ "modernc.org/sqlite"
)

func nullString(t bitdegree.Text) sql.NullString {
	value, ok := t.Get()
	return sql.NullString{String: value, Valid: ok}
}

func text(s sql.NullString) bitdegree.Text {
	if !s.Valid {
		return bitdegree.Absent
	}
	return bitdegree.Present(s.String)
}

func boolInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

// Store persists the records of a single crawl run.
type Store struct {
	db    *sql.DB
	qry   *db.Queries
	runId string
	clock chrono.API

	mutex    sync.Mutex
	emitted  int64
	failures int64
}

// CreateSchema creates the tables a Store needs if they don't exist yet.
func CreateSchema(ctx context.Context, database *sql.DB) error {
	_, err := database.ExecContext(ctx, db.Schema)
	return err
}

// NewStore registers a new run with the given id and returns a sink for its records.
func NewStore(ctx context.Context, database *sql.DB, runId string, clock chrono.API) (*Store, error) {
	assert.NotNil(database)
	assert.NotEmptyStr(runId)

	qry := db.New(database)
	err := qry.CreateRun(ctx, db.CreateRunParams{
		ID:        runId,
		StartedAt: clock.Now().Unix(),
	})
	if err != nil {
		return nil, fmt.Errorf("create run: %w", err)
	}
	return &Store{
		db:    database,
		qry:   qry,
		runId: runId,
		clock: clock,
	}, nil
}

func (s *Store) RunId() string {
	return s.runId
}

func (s *Store) Emit(ctx context.Context, record crawl.Record) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	txqry := s.qry.WithTx(tx)

	snapshot := record.Snapshot
	id, err := txqry.CreateSnapshot(ctx, db.CreateSnapshotParams{
		RunID:                 s.runId,
		Exchange:              record.Exchange,
		Name:                  snapshot.Name,
		Volume:                nullString(snapshot.Volume),
		VolumeInBtc:           nullString(snapshot.VolumeBtc),
		Volume7d:              nullString(snapshot.Volume7d),
		TotalCryptocurrencies: nullString(snapshot.AssetCount),
		MarketsCount:          nullString(snapshot.MarketCount),
		MarketDominance:       nullString(snapshot.Dominance),
		MarketRank:            nullString(snapshot.Rank),
		AhrefRanking:          nullString(snapshot.BacklinkRank),
		MonthlyOrganicTraffic: nullString(snapshot.OrganicTraffic),
		Partial:               boolInt(record.Partial),
		CreatedAt:             s.clock.Now().Unix(),
	})
	if err != nil {
		return fmt.Errorf("create snapshot: %w", err)
	}

	for i, row := range snapshot.Markets {
		err := txqry.CreateMarketRow(ctx, db.CreateMarketRowParams{
			SnapshotID:  id,
			Position:    int64(i),
			BaseCoin:    nullString(row.BaseCoin),
			Name:        nullString(row.Name),
			Volume:      nullString(row.Volume),
			VolumeShare: nullString(row.VolumeShare),
		})
		if err != nil {
			return fmt.Errorf("create market row %d: %w", i, err)
		}
	}

	err = tx.Commit()
	if err != nil {
		return err
	}

	s.mutex.Lock()
	s.emitted++
	s.mutex.Unlock()
	return nil
}

// SetFailures records how many pages of the run could not be fetched.
func (s *Store) SetFailures(count int) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.failures = int64(count)
}

// Close marks the run as finished, the database itself is owned by the caller.
func (s *Store) Close(ctx context.Context) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.qry.FinishRun(ctx, db.FinishRunParams{
		ID:         s.runId,
		FinishedAt: sql.NullInt64{Int64: s.clock.Now().Unix(), Valid: true},
		Emitted:    s.emitted,
		Failures:   s.failures,
	})
}

// StoredSnapshot is a snapshot read back from the database.
type StoredSnapshot struct {
	RunId     string
	CreatedAt time.Time
	Partial   bool
	Snapshot  *crawl.ExchangeSnapshot
}

// Reader reads snapshots persisted by previous runs.
type Reader struct {
	qry *db.Queries
}

func NewReader(database *sql.DB) Reader {
	return Reader{qry: db.New(database)}
}

func (r Reader) load(ctx context.Context, row db.Snapshot) (StoredSnapshot, error) {
	markets, err := r.qry.GetMarketRows(ctx, row.ID)
	if err != nil {
		return StoredSnapshot{}, err
	}

	snapshot := &crawl.ExchangeSnapshot{
		Exchange: row.Exchange,
		Name:     row.Name,
		Stats: bitdegree.Stats{
			Volume:         text(row.Volume),
			VolumeBtc:      text(row.VolumeInBtc),
			Volume7d:       text(row.Volume7d),
			AssetCount:     text(row.TotalCryptocurrencies),
			MarketCount:    text(row.MarketsCount),
			Dominance:      text(row.MarketDominance),
			Rank:           text(row.MarketRank),
			BacklinkRank:   text(row.AhrefRanking),
			OrganicTraffic: text(row.MonthlyOrganicTraffic),
		},
		Markets: make([]bitdegree.MarketRow, len(markets)),
	}
	for i, m := range markets {
		snapshot.Markets[i] = bitdegree.MarketRow{
			BaseCoin:    text(m.BaseCoin),
			Name:        text(m.Name),
			Volume:      text(m.Volume),
			VolumeShare: text(m.VolumeShare),
		}
	}

	return StoredSnapshot{
		RunId:     row.RunID,
		CreatedAt: time.Unix(row.CreatedAt, 0),
		Partial:   row.Partial != 0,
		Snapshot:  snapshot,
	}, nil
}

// Latest returns the most recently stored snapshot of an exchange,
// the boolean is false if the exchange was never stored.
func (r Reader) Latest(ctx context.Context, exchange string) (StoredSnapshot, bool, error) {
	row, err := r.qry.GetLatestSnapshot(ctx, exchange)
	if errors.Is(err, sql.ErrNoRows) {
		return StoredSnapshot{}, false, nil
	}
	if err != nil {
		return StoredSnapshot{}, false, err
	}
	stored, err := r.load(ctx, row)
	if err != nil {
		return StoredSnapshot{}, false, err
	}
	return stored, true, nil
}

// Run returns every snapshot stored by a run in the order they were emitted.
func (r Reader) Run(ctx context.Context, runId string) ([]StoredSnapshot, error) {
	rows, err := r.qry.GetRunSnapshots(ctx, runId)
	if err != nil {
		return nil, err
	}
	out := make([]StoredSnapshot, len(rows))
	for i, row := range rows {
		out[i], err = r.load(ctx, row)
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (r Reader) Exchanges(ctx context.Context) ([]string, error) {
	return r.qry.ListExchanges(ctx)
}

// RunInfo returns the bookkeeping row of a run.
func (r Reader) RunInfo(ctx context.Context, runId string) (db.Run, error) {
	return r.qry.GetRun(ctx, runId)
}
