// Package migrate applies the storefront schema with goose. The same SQL files run
// against Postgres in production and SQLite in local mode.
package migrate

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/pressly/goose/v3"
)

const DefaultDir = "pkg/migrate/migrations"

// GooseDialect maps a gorm dialector name onto the goose dialect that drives it.
func GooseDialect(name string) goose.Dialect {
	if name == "sqlite" || name == "sqlite3" {
		return goose.DialectSQLite3
	}
	return goose.DialectPostgres
}

// Runner applies the migrations of one directory to one database.
type Runner struct {
	provider *goose.Provider
}

// Applied names one migration and whether the database has it.
type Applied struct {
	Version   int64
	File      string
	Applied   bool
	AppliedAt time.Time
}

func NewRunner(db *sql.DB, dialect, dir string) (*Runner, error) {
	if db == nil {
		return nil, errors.New("db is required")
	}
	if dir == "" {
		return nil, errors.New("dir is required")
	}
	provider, err := goose.NewProvider(GooseDialect(dialect), db, os.DirFS(dir))
	if err != nil {
		return nil, fmt.Errorf("load migrations from %s: %w", dir, err)
	}
	return &Runner{provider: provider}, nil
}

// Up applies every pending migration and returns the files it ran.
func (r *Runner) Up(ctx context.Context) ([]string, error) {
	results, err := r.provider.Up(ctx)
	return files(results), wrap("up", err)
}

// Down rolls back the newest applied migration.
func (r *Runner) Down(ctx context.Context) (string, error) {
	result, err := r.provider.Down(ctx)
	if result == nil || result.Source == nil {
		return "", wrap("down", err)
	}
	return result.Source.Path, wrap("down", err)
}

// Reset rolls every migration back.
func (r *Runner) Reset(ctx context.Context) ([]string, error) {
	results, err := r.provider.DownTo(ctx, 0)
	return files(results), wrap("reset", err)
}

func (r *Runner) Version(ctx context.Context) (int64, error) {
	v, err := r.provider.GetDBVersion(ctx)
	return v, wrap("version", err)
}

// To moves the schema up or down until target is the newest applied version.
func (r *Runner) To(ctx context.Context, target int64) ([]string, error) {
	current, err := r.Version(ctx)
	if err != nil {
		return nil, err
	}
	switch {
	case target > current:
		results, err := r.provider.UpTo(ctx, target)
		return files(results), wrap(fmt.Sprintf("up to %d", target), err)
	case target < current:
		results, err := r.provider.DownTo(ctx, target)
		return files(results), wrap(fmt.Sprintf("down to %d", target), err)
	}
	return nil, nil
}

func (r *Runner) Status(ctx context.Context) ([]Applied, error) {
	statuses, err := r.provider.Status(ctx)
	if err != nil {
		return nil, wrap("status", err)
	}
	out := make([]Applied, 0, len(statuses))
	for _, s := range statuses {
		if s == nil || s.Source == nil {
			continue
		}
		out = append(out, Applied{
			Version:   s.Source.Version,
			File:      s.Source.Path,
			Applied:   s.State == goose.StateApplied,
			AppliedAt: s.AppliedAt,
		})
	}
	return out, nil
}

func files(results []*goose.MigrationResult) []string {
	out := make([]string, 0, len(results))
	for _, res := range results {
		if res != nil && res.Source != nil {
			out = append(out, res.Source.Path)
		}
	}
	return out
}

func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("goose %s: %w", op, err)
}
