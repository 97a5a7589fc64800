package telemetry

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	// Pure-Go SQLite driver, registered as "sqlite".
	_ "modernc.org/sqlite"
)

// zeroResultCap bounds the zero-result query ring; the oldest entries
// fall off once it is full.
const zeroResultCap = 100

// Recorder persists search metrics to one SQLite file. Writes happen
// inline with the search call, which is cheap enough for a CLI that
// serves one query per process. Safe for concurrent use.
type Recorder struct {
	db *sql.DB
}

// Open creates or opens the metrics database at path, creating parent
// directories and the schema as needed.
func Open(path string) (*Recorder, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create telemetry directory: %w", err)
	}

	// WAL with a busy timeout so a search and an index run can both
	// touch the file without erroring out.
	db, err := sql.Open("sqlite", path+"?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open telemetry database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Recorder{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	-- Per-mode daily query counts.
	CREATE TABLE IF NOT EXISTS search_stats (
		date TEXT NOT NULL,
		mode TEXT NOT NULL,
		count INTEGER NOT NULL DEFAULT 0,
		zero_results INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (date, mode)
	);

	-- Daily latency histogram.
	CREATE TABLE IF NOT EXISTS latency_stats (
		date TEXT NOT NULL,
		bucket TEXT NOT NULL,
		count INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (date, bucket)
	);

	-- Recent queries that matched nothing.
	CREATE TABLE IF NOT EXISTS zero_result_queries (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		query TEXT NOT NULL,
		mode TEXT NOT NULL,
		recorded_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);
	`
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("create telemetry schema: %w", err)
	}
	return nil
}

// RecordSearch writes one search call's metrics.
func (r *Recorder) RecordSearch(ctx context.Context, rec SearchRecord) error {
	date := time.Now().Format("2006-01-02")
	zero := 0
	if rec.Matches == 0 {
		zero = 1
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO search_stats (date, mode, count, zero_results)
		VALUES (?, ?, 1, ?)
		ON CONFLICT(date, mode) DO UPDATE SET
			count = count + 1,
			zero_results = zero_results + excluded.zero_results
	`, date, rec.Mode, zero); err != nil {
		return fmt.Errorf("record mode count: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO latency_stats (date, bucket, count)
		VALUES (?, ?, 1)
		ON CONFLICT(date, bucket) DO UPDATE SET count = count + 1
	`, date, string(LatencyToBucket(rec.Duration))); err != nil {
		return fmt.Errorf("record latency: %w", err)
	}

	if rec.Matches == 0 && rec.Query != "" {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO zero_result_queries (query, mode) VALUES (?, ?)
		`, rec.Query, rec.Mode); err != nil {
			return fmt.Errorf("record zero-result query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `
			DELETE FROM zero_result_queries
			WHERE id NOT IN (
				SELECT id FROM zero_result_queries ORDER BY id DESC LIMIT ?
			)
		`, zeroResultCap); err != nil {
			return fmt.Errorf("trim zero-result queries: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// Snapshot aggregates everything recorded so far. recentLimit bounds
// the zero-result query list; non-positive selects 20.
func (r *Recorder) Snapshot(ctx context.Context, recentLimit int) (*Snapshot, error) {
	if recentLimit <= 0 {
		recentLimit = 20
	}

	snap := &Snapshot{
		ModeCounts:          make(map[string]int64),
		LatencyDistribution: make(map[LatencyBucket]int64),
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT mode, SUM(count), SUM(zero_results)
		FROM search_stats GROUP BY mode
	`)
	if err != nil {
		return nil, fmt.Errorf("query mode counts: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var mode string
		var count, zero int64
		if err := rows.Scan(&mode, &count, &zero); err != nil {
			return nil, fmt.Errorf("scan mode counts: %w", err)
		}
		snap.ModeCounts[mode] = count
		snap.TotalQueries += count
		snap.ZeroResultCount += zero
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	lrows, err := r.db.QueryContext(ctx, `
		SELECT bucket, SUM(count) FROM latency_stats GROUP BY bucket
	`)
	if err != nil {
		return nil, fmt.Errorf("query latency counts: %w", err)
	}
	defer lrows.Close()
	for lrows.Next() {
		var bucket string
		var count int64
		if err := lrows.Scan(&bucket, &count); err != nil {
			return nil, fmt.Errorf("scan latency counts: %w", err)
		}
		snap.LatencyDistribution[LatencyBucket(bucket)] = count
	}
	if err := lrows.Err(); err != nil {
		return nil, err
	}

	zrows, err := r.db.QueryContext(ctx, `
		SELECT query FROM zero_result_queries ORDER BY id DESC LIMIT ?
	`, recentLimit)
	if err != nil {
		return nil, fmt.Errorf("query zero-result queries: %w", err)
	}
	defer zrows.Close()
	for zrows.Next() {
		var q string
		if err := zrows.Scan(&q); err != nil {
			return nil, fmt.Errorf("scan zero-result query: %w", err)
		}
		snap.ZeroResultQueries = append(snap.ZeroResultQueries, q)
	}
	if err := zrows.Err(); err != nil {
		return nil, err
	}

	return snap, nil
}

// Close releases the database handle.
func (r *Recorder) Close() error {
	return r.db.Close()
}
