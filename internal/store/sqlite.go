package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/investor-scout/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS batches (
	id           TEXT PRIMARY KEY,
	status       TEXT NOT NULL DEFAULT 'running',
	total        INTEGER NOT NULL,
	processed    INTEGER NOT NULL DEFAULT 0,
	emails_found INTEGER NOT NULL DEFAULT 0,
	results_file TEXT NOT NULL,
	error        TEXT,
	created_at   DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at   DATETIME NOT NULL DEFAULT (datetime('now'))
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
CREATE INDEX IF NOT EXISTS idx_batches_created_at ON batches(created_at);
CREATE INDEX IF NOT EXISTS idx_batch_results_batch_id ON batch_results(batch_id);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) CreateBatch(ctx context.Context, total int, resultsFile string) (*model.BatchRun, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO batches (id, status, total, processed, emails_found, results_file, created_at, updated_at)
		 VALUES (?, ?, ?, 0, 0, ?, ?, ?)`,
		id, string(model.RunStatusRunning), total, resultsFile, now, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert batch")
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

func (s *SQLiteStore) UpdateBatchProgress(ctx context.Context, batchID string, processed, emailsFound int) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE batches SET processed = ?, emails_found = ?, updated_at = ? WHERE id = ?`,
		processed, emailsFound, time.Now().UTC(), batchID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update batch progress %s", batchID)
	}
	return checkRowsAffected(res, "batch", batchID)
}

func (s *SQLiteStore) SaveResults(ctx context.Context, batchID string, results []model.InvestorResult) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin save results")
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM batch_results WHERE batch_id = ?`, batchID,
	); err != nil {
		return eris.Wrapf(err, "sqlite: clear results for batch %s", batchID)
	}

	for i, r := range results {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO batch_results (batch_id, position, investor_name, type, emails_found, emails, status, timestamp)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			batchID, i, r.InvestorName, string(r.Type), r.EmailsFound, r.Emails, string(r.Status), r.Timestamp,
		); err != nil {
			return eris.Wrapf(err, "sqlite: insert result row %d", i)
		}
	}

	return eris.Wrap(tx.Commit(), "sqlite: commit save results")
}

func (s *SQLiteStore) CompleteBatch(ctx context.Context, batchID string, status model.RunStatus, errMsg string) error {
	var errVal any
	if errMsg != "" {
		errVal = errMsg
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE batches SET status = ?, error = ?, updated_at = ? WHERE id = ?`,
		string(status), errVal, time.Now().UTC(), batchID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: complete batch %s", batchID)
	}
	return checkRowsAffected(res, "batch", batchID)
}

func (s *SQLiteStore) GetBatch(ctx context.Context, batchID string) (*model.BatchRun, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, status, total, processed, emails_found, results_file, error, created_at, updated_at
		 FROM batches WHERE id = ?`,
		batchID,
	)
	b, err := scanBatch(row)
	if err != nil {
		return nil, err
	}

	results, err := s.loadResults(ctx, batchID)
	if err != nil {
		return nil, err
	}
	b.Results = results
	return b, nil
}

func (s *SQLiteStore) loadResults(ctx context.Context, batchID string) ([]model.InvestorResult, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT investor_name, type, emails_found, emails, status, timestamp
		 FROM batch_results WHERE batch_id = ? ORDER BY position`,
		batchID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: load results for batch %s", batchID)
	}
	defer rows.Close()

	var results []model.InvestorResult
	for rows.Next() {
		var r model.InvestorResult
		if err := rows.Scan(&r.InvestorName, &r.Type, &r.EmailsFound, &r.Emails, &r.Status, &r.Timestamp); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan result row")
		}
		results = append(results, r)
	}
	return results, eris.Wrap(rows.Err(), "sqlite: iterate result rows")
}

func (s *SQLiteStore) ListBatches(ctx context.Context, filter BatchFilter) ([]model.BatchRun, error) {
	query := `SELECT id, status, total, processed, emails_found, results_file, error, created_at, updated_at
	          FROM batches WHERE 1=1`
	var args []any

	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(filter.Status))
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list batches")
	}
	defer rows.Close()

	var batches []model.BatchRun
	for rows.Next() {
		b, err := scanBatch(rows)
		if err != nil {
			return nil, err
		}
		batches = append(batches, *b)
	}
	return batches, eris.Wrap(rows.Err(), "sqlite: list batches iterate")
}

// helpers

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Errorf("%s not found: %s", entity, id)
	}
	return nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanBatch(row scannable) (*model.BatchRun, error) {
	var b model.BatchRun
	var errMsg sql.NullString

	err := row.Scan(&b.ID, &b.Status, &b.Total, &b.Processed, &b.EmailsFound,
		&b.ResultsFile, &errMsg, &b.CreatedAt, &b.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, eris.New("batch not found")
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan batch")
	}

	if errMsg.Valid {
		b.Error = errMsg.String
	}
	return &b, nil
}
