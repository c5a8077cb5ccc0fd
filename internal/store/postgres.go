package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/investor-scout/internal/db"
	"github.com/sells-group/investor-scout/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// preparedStatements lists queries to prepare on each new connection for
// the store operations that run once per checkpoint.
var preparedStatements = map[string]string{
	"insert_batch":          `INSERT INTO batches (id, status, total, processed, emails_found, results_file, created_at, updated_at) VALUES ($1, $2, $3, 0, 0, $4, $5, $6)`,
	"update_batch_progress": `UPDATE batches SET processed = $1, emails_found = $2, updated_at = $3 WHERE id = $4`,
	"complete_batch":        `UPDATE batches SET status = $1, error = $2, updated_at = $3 WHERE id = $4`,
	"get_batch":             `SELECT id, status, total, processed, emails_found, results_file, error, created_at, updated_at FROM batches WHERE id = $1`,
	"delete_batch_results":  `DELETE FROM batch_results WHERE batch_id = $1`,
	"get_batch_results":     `SELECT investor_name, type, emails_found, emails, status, timestamp FROM batch_results WHERE batch_id = $1 ORDER BY position`,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS batches (
	id           TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	status       TEXT NOT NULL DEFAULT 'running',
	total        INTEGER NOT NULL,
	processed    INTEGER NOT NULL DEFAULT 0,
	emails_found INTEGER NOT NULL DEFAULT 0,
	results_file TEXT NOT NULL,
	error        TEXT,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS batch_results (
	batch_id      TEXT NOT NULL REFERENCES batches(id),
	position      INTEGER NOT NULL,
	investor_name TEXT NOT NULL,
	type          TEXT NOT NULL,
	emails_found  INTEGER NOT NULL,
	emails        TEXT NOT NULL,
	status        TEXT NOT NULL,
	timestamp     TEXT NOT NULL,
	PRIMARY KEY (batch_id, position)
);

CREATE INDEX IF NOT EXISTS idx_batches_status ON batches(status);
CREATE INDEX IF NOT EXISTS idx_batches_created_at ON batches(created_at DESC);
CREATE INDEX IF NOT EXISTS idx_batch_results_batch_id ON batch_results(batch_id);
`

func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) CreateBatch(ctx context.Context, total int, resultsFile string) (*model.BatchRun, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.pool.Exec(ctx,
		`INSERT INTO batches (id, status, total, processed, emails_found, results_file, created_at, updated_at)
		 VALUES ($1, $2, $3, 0, 0, $4, $5, $6)`,
		id, string(model.RunStatusRunning), total, resultsFile, now, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert batch")
	}

	return &model.BatchRun{
		ID:          id,
		Status:      model.RunStatusRunning,
		Total:       total,
		ResultsFile: resultsFile,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

func (s *PostgresStore) UpdateBatchProgress(ctx context.Context, batchID string, processed, emailsFound int) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE batches SET processed = $1, emails_found = $2, updated_at = $3 WHERE id = $4`,
		processed, emailsFound, time.Now().UTC(), batchID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update batch progress %s", batchID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("batch not found: %s", batchID)
	}
	return nil
}

// resultColumns is the COPY column order for batch_results.
var resultColumns = []string{
	"batch_id", "position", "investor_name", "type", "emails_found", "emails", "status", "timestamp",
}

func (s *PostgresStore) SaveResults(ctx context.Context, batchID string, results []model.InvestorResult) error {
	if _, err := s.pool.Exec(ctx,
		`DELETE FROM batch_results WHERE batch_id = $1`, batchID,
	); err != nil {
		return eris.Wrapf(err, "postgres: clear results for batch %s", batchID)
	}

	rows := make([][]any, len(results))
	for i, r := range results {
		rows[i] = []any{batchID, i, r.InvestorName, string(r.Type), r.EmailsFound, r.Emails, string(r.Status), r.Timestamp}
	}

	_, err := db.CopyFrom(ctx, s.pool, "batch_results", resultColumns, rows)
	return eris.Wrapf(err, "postgres: copy results for batch %s", batchID)
}

func (s *PostgresStore) CompleteBatch(ctx context.Context, batchID string, status model.RunStatus, errMsg string) error {
	var errVal any
	if errMsg != "" {
		errVal = errMsg
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE batches SET status = $1, error = $2, updated_at = $3 WHERE id = $4`,
		string(status), errVal, time.Now().UTC(), batchID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: complete batch %s", batchID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("batch not found: %s", batchID)
	}
	return nil
}

func (s *PostgresStore) GetBatch(ctx context.Context, batchID string) (*model.BatchRun, error) {
	var b model.BatchRun
	var errMsg *string

	err := s.pool.QueryRow(ctx,
		`SELECT id, status, total, processed, emails_found, results_file, error, created_at, updated_at
		 FROM batches WHERE id = $1`,
		batchID,
	).Scan(&b.ID, &b.Status, &b.Total, &b.Processed, &b.EmailsFound,
		&b.ResultsFile, &errMsg, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get batch %s", batchID)
	}
	if errMsg != nil {
		b.Error = *errMsg
	}

	rows, err := s.pool.Query(ctx,
		`SELECT investor_name, type, emails_found, emails, status, timestamp
		 FROM batch_results WHERE batch_id = $1 ORDER BY position`,
		batchID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: load results for batch %s", batchID)
	}
	defer rows.Close()

	for rows.Next() {
		var r model.InvestorResult
		if err := rows.Scan(&r.InvestorName, &r.Type, &r.EmailsFound, &r.Emails, &r.Status, &r.Timestamp); err != nil {
			return nil, eris.Wrap(err, "postgres: scan result row")
		}
		b.Results = append(b.Results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "postgres: iterate result rows")
	}
	return &b, nil
}

func (s *PostgresStore) ListBatches(ctx context.Context, filter BatchFilter) ([]model.BatchRun, error) {
	query := `SELECT id, status, total, processed, emails_found, results_file, error, created_at, updated_at
	          FROM batches WHERE true`
	args := []any{}
	argIdx := 1

	if filter.Status != "" {
		query += fmt.Sprintf(` AND status = $%d`, argIdx)
		args = append(args, string(filter.Status))
		argIdx++
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += fmt.Sprintf(` LIMIT $%d`, argIdx)
	args = append(args, limit)
	argIdx++

	if filter.Offset > 0 {
		query += fmt.Sprintf(` OFFSET $%d`, argIdx)
		args = append(args, filter.Offset)
		argIdx++
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list batches")
	}
	defer rows.Close()

	var batches []model.BatchRun
	for rows.Next() {
		var b model.BatchRun
		var errMsg *string

		if err := rows.Scan(&b.ID, &b.Status, &b.Total, &b.Processed, &b.EmailsFound,
			&b.ResultsFile, &errMsg, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan batch")
		}
		if errMsg != nil {
			b.Error = *errMsg
		}
		batches = append(batches, b)
	}
	return batches, eris.Wrap(rows.Err(), "postgres: list batches iterate")
}
