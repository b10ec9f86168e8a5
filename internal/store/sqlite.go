package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/mpetrenko/campusnav/internal/domain"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS graphs_maps (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	university TEXT NOT NULL,
	address TEXT NOT NULL UNIQUE,
	graph TEXT NOT NULL
);
`

// SQLiteStore keeps graph records in a local SQLite database. The UNIQUE
// index on address is what makes racing creates resolve to one winner.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (and if needed creates) the database at path and applies
// the schema.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("apply %s: %w", pragma, err)
		}
	}

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Create(ctx context.Context, university, address string, graph domain.Graph) (int64, error) {
	payload, err := json.Marshal(graph)
	if err != nil {
		return 0, fmt.Errorf("encode graph: %w", err)
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO graphs_maps (university, address, graph) VALUES (?, ?, ?)`,
		university, address, string(payload),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, ErrConflict
		}
		return 0, fmt.Errorf("insert graph record: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("read inserted id: %w", err)
	}
	return id, nil
}

func (s *SQLiteStore) GetByAddress(ctx context.Context, address string) (domain.GraphRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, university, address, graph FROM graphs_maps WHERE address = ?`, address)

	var rec domain.GraphRecord
	var payload string
	if err := row.Scan(&rec.ID, &rec.University, &rec.Address, &payload); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.GraphRecord{}, ErrNotFound
		}
		return domain.GraphRecord{}, fmt.Errorf("query graph record: %w", err)
	}

	if err := json.Unmarshal([]byte(payload), &rec.Graph); err != nil {
		return domain.GraphRecord{}, fmt.Errorf("decode stored graph for %q: %w", address, err)
	}
	return rec, nil
}

func (s *SQLiteStore) ListAll(ctx context.Context) ([]domain.GraphSummary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, university, address FROM graphs_maps ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list graph records: %w", err)
	}
	defer rows.Close()

	var summaries []domain.GraphSummary
	for rows.Next() {
		var sum domain.GraphSummary
		if err := rows.Scan(&sum.ID, &sum.University, &sum.Address); err != nil {
			return nil, fmt.Errorf("scan graph summary: %w", err)
		}
		summaries = append(summaries, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate graph summaries: %w", err)
	}
	return summaries, nil
}

func (s *SQLiteStore) UpdateByAddress(ctx context.Context, address string, patch UpdatePatch) error {
	if patch.Empty() {
		return nil
	}

	// One UPDATE statement so both fields land atomically or not at all.
	sets := make([]string, 0, 2)
	args := make([]any, 0, 3)
	if patch.University != nil {
		sets = append(sets, "university = ?")
		args = append(args, *patch.University)
	}
	if patch.Graph != nil {
		payload, err := json.Marshal(*patch.Graph)
		if err != nil {
			return fmt.Errorf("encode graph: %w", err)
		}
		sets = append(sets, "graph = ?")
		args = append(args, string(payload))
	}
	args = append(args, address)

	res, err := s.db.ExecContext(ctx,
		fmt.Sprintf(`UPDATE graphs_maps SET %s WHERE address = ?`, strings.Join(sets, ", ")),
		args...,
	)
	if err != nil {
		return fmt.Errorf("update graph record: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("read affected rows: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) DeleteByAddress(ctx context.Context, address string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM graphs_maps WHERE address = ?`, address)
	if err != nil {
		return fmt.Errorf("delete graph record: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("read affected rows: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLiteStore) Close(context.Context) error {
	return s.db.Close()
}

func isUniqueViolation(err error) bool {
	// modernc.org/sqlite surfaces SQLITE_CONSTRAINT_UNIQUE as a plain error
	// string; there is no exported sentinel to match against.
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
