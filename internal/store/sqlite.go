// internal/store/sqlite.go
//
// SQLite implementation of Store.
// Responsibilities:
//   - Opening the database file with safe defaults (WAL, busy timeout, foreign keys).
//   - Applying embedded migrations from sql/*.sql (idempotent, recorded in _migrations).
//   - Inserting finished attempt sequences and reading history back for training.
//
// Attempts are stored as a JSON array in attempts_array, in play order.

package store

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/guessnumber/internal/game"
)

//go:embed sql/*.sql
var migrations embed.FS

type sqliteStore struct {
	db *sql.DB
}

/**
 * OpenSQLite opens (and creates if missing) a SQLite history database and
 * brings its schema up to date.
 *
 * @param path Database file path, e.g. ./data/guessnumber.db.
 * @returns Store backed by the file.
 */
func OpenSQLite(path string) (Store, error) {
	db, err := openDB(path)
	if err != nil {
		return nil, err
	}
	if err := migrate(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &sqliteStore{db: db}, nil
}

/**
 * openDB opens a SQLite database file.
 *
 * - Ensures parent directory exists for relative paths (e.g. ./data/app.db).
 * - Configures busy timeout and WAL journaling mode.
 * - Enforces foreign keys.
 */
func openDB(path string) (*sql.DB, error) {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("mkdir %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, err
	}
	// One writer; inserts are single statements.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(`PRAGMA foreign_keys = ON; PRAGMA journal_mode = WAL;`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set pragmas: %w", err)
	}
	return db, nil
}

/**
 * migrate applies the embedded SQL migrations.
 *
 * - Uses a _migrations table to track applied files.
 * - Executes each *.sql file in lexical order inside its own transaction.
 * - Skips if already applied.
 */
func migrate(db *sql.DB) error {
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS _migrations (name TEXT PRIMARY KEY);`); err != nil {
		return fmt.Errorf("create _migrations: %w", err)
	}

	var files []string
	if err := fs.WalkDir(migrations, "sql", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(strings.ToLower(d.Name()), ".sql") {
			files = append(files, path)
		}
		return nil
	}); err != nil {
		return fmt.Errorf("walk sql dir: %w", err)
	}
	sort.Strings(files)

	for _, f := range files {
		var done int
		err := db.QueryRow(`SELECT 1 FROM _migrations WHERE name=?`, f).Scan(&done)
		if err == nil {
			log.Debug().Str("migration", f).Msg("already applied")
			continue
		}
		if err != sql.ErrNoRows {
			return fmt.Errorf("query _migrations: %w", err)
		}

		sqlBytes, err := migrations.ReadFile(f)
		if err != nil {
			return fmt.Errorf("read %s: %w", f, err)
		}

		tx, err := db.Begin()
		if err != nil {
			return err
		}
		if _, err := tx.Exec(string(sqlBytes)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("apply %s: %w", f, err)
		}
		if _, err := tx.Exec(`INSERT INTO _migrations(name) VALUES (?)`, f); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("record %s: %w", f, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit %s: %w", f, err)
		}
		log.Info().Str("migration", f).Msg("applied")
	}
	return nil
}

// Append inserts one finished sequence.
func (s *sqliteStore) Append(ctx context.Context, rec game.Record) (int64, error) {
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now().UTC()
	}
	attempts := rec.Attempts
	if attempts == nil {
		attempts = []int{}
	}
	js, err := json.Marshal(attempts)
	if err != nil {
		return 0, fmt.Errorf("encode attempts: %w", err)
	}
	res, err := s.db.ExecContext(ctx, `
        INSERT INTO game_stats
            (owner_id, timestamp, difficulty, attempts_array, attempts_count, won, number_to_guess, range_min, range_max)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.OwnerID, rec.Timestamp.UTC().Format(time.RFC3339Nano), rec.Difficulty.String(), string(js),
		rec.AttemptsCount, rec.Won, rec.Target, rec.RangeMin, rec.RangeMax,
	)
	if err != nil {
		return 0, fmt.Errorf("insert game_stats: %w", err)
	}
	return res.LastInsertId()
}

// ReadAll loads history ordered by id.
func (s *sqliteStore) ReadAll(ctx context.Context, excludeOwnerID string) ([]game.Record, error) {
	rows, err := s.db.QueryContext(ctx, `
        SELECT id, owner_id, timestamp, difficulty, attempts_array, attempts_count, won, number_to_guess, range_min, range_max
        FROM game_stats
        WHERE ? = '' OR owner_id != ?
        ORDER BY id ASC`, excludeOwnerID, excludeOwnerID,
	)
	if err != nil {
		return nil, fmt.Errorf("query game_stats: %w", err)
	}
	defer rows.Close()

	var out []game.Record
	for rows.Next() {
		var (
			r          game.Record
			ts, diff   string
			attemptsJS string
		)
		if err := rows.Scan(&r.ID, &r.OwnerID, &ts, &diff, &attemptsJS, &r.AttemptsCount, &r.Won, &r.Target, &r.RangeMin, &r.RangeMax); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(attemptsJS), &r.Attempts); err != nil {
			return nil, fmt.Errorf("record %d: decode attempts: %w", r.ID, err)
		}
		if d, err := game.ParseDifficulty(diff); err == nil {
			r.Difficulty = d
		} else {
			log.Warn().Int64("record", r.ID).Str("difficulty", diff).Msg("unknown difficulty in history")
		}
		if r.Timestamp, err = time.Parse(time.RFC3339Nano, ts); err != nil {
			return nil, fmt.Errorf("record %d: parse timestamp: %w", r.ID, err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *sqliteStore) Close() error { return s.db.Close() }
