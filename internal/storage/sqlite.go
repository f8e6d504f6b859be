package storage

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	logx "taskmate/pkg/logx"

	_ "modernc.org/sqlite"
)

//go:embed migrations.sql
var migrationsFS embed.FS

type sqliteStore struct {
	db     *sql.DB
	log    logx.Logger
	retain int

	opCount    atomic.Uint64
	pruneEvery uint64
}

func openSQLite(cfg Config, log logx.Logger) (Store, error) {
	if strings.TrimSpace(cfg.Path) == "" {
		return nil, errors.New("sqlite path is required")
	}
	path := cfg.Path
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// SQLite prefers a small number of concurrent writers.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	st := &sqliteStore{db: db, log: log, retain: cfg.retain(), pruneEvery: 50}

	if cfg.BusyTimeout > 0 {
		_, _ = db.Exec(fmt.Sprintf("PRAGMA busy_timeout = %d", cfg.BusyTimeout.Milliseconds()))
	}
	_, _ = db.Exec("PRAGMA journal_mode = WAL")
	_, _ = db.Exec("PRAGMA synchronous = NORMAL")

	if err := st.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite migrate: %w", err)
	}
	log.Debug("sqlite storage opened", logx.String("path", path))
	return st, nil
}

func (s *sqliteStore) migrate(ctx context.Context) error {
	b, err := migrationsFS.ReadFile("migrations.sql")
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, string(b))
	return err
}

func (s *sqliteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *sqliteStore) AppendInsight(ctx context.Context, r InsightRecord) error {
	if s == nil || s.db == nil {
		return ErrDisabled
	}
	if r.At.IsZero() {
		r.At = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO insights(id, at, flow, model, input, summary, actions, took_ms)
		 VALUES(?,?,?,?,?,?,?,?)`,
		r.ID, r.At.UTC().Format(time.RFC3339Nano), r.Flow, nullStr(r.Model), r.Input,
		nullStr(r.Summary), nullStr(r.Actions), r.TookMS,
	)
	if err == nil && s.opCount.Add(1)%s.pruneEvery == 0 {
		pctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
		if perr := s.prune(pctx); perr != nil {
			s.log.Debug("insight prune failed", logx.Err(perr))
		}
		cancel()
	}
	return err
}

func (s *sqliteStore) ListInsights(ctx context.Context, limit int) ([]InsightRecord, error) {
	if s == nil || s.db == nil {
		return nil, ErrDisabled
	}
	if limit <= 0 || limit > s.retain {
		limit = s.retain
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, at, flow, model, input, summary, actions, took_ms
		 FROM insights ORDER BY seq DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []InsightRecord
	for rows.Next() {
		var (
			r                       InsightRecord
			at                      string
			model, summary, actions sql.NullString
		)
		if err := rows.Scan(&r.ID, &at, &r.Flow, &model, &r.Input, &summary, &actions, &r.TookMS); err != nil {
			return nil, err
		}
		r.At, _ = time.Parse(time.RFC3339Nano, at)
		r.Model = model.String
		r.Summary = summary.String
		r.Actions = actions.String
		out = append(out, r)
	}
	return out, rows.Err()
}

// prune drops everything older than the newest retain rows.
func (s *sqliteStore) prune(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM insights WHERE seq <= (SELECT seq FROM insights ORDER BY seq DESC LIMIT 1 OFFSET ?)`,
		s.retain)
	return err
}

func nullStr(v string) any {
	if strings.TrimSpace(v) == "" {
		return nil
	}
	return v
}
