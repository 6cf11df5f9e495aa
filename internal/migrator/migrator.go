// Package migrator applies golang-migrate migrations from a directory.
package migrator

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"go.uber.org/zap"
)

// Up applies every pending migration in dir to the database. The database
// driver matching the URL scheme must be registered by the caller.
func Up(ctx context.Context, dir, databaseURL string, logger *zap.Logger) error {
	return run(ctx, dir, databaseURL, logger, "up", (*migrate.Migrate).Up)
}

// Down rolls back every applied migration.
func Down(ctx context.Context, dir, databaseURL string, logger *zap.Logger) error {
	return run(ctx, dir, databaseURL, logger, "down", (*migrate.Migrate).Down)
}

func run(
	ctx context.Context,
	dir, databaseURL string,
	logger *zap.Logger,
	direction string,
	step func(*migrate.Migrate) error,
) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	sourceURL, err := SourceURL(dir)
	if err != nil {
		return err
	}

	m, err := migrate.New(sourceURL, databaseURL)
	if err != nil {
		return fmt.Errorf("init migrate: %w", err)
	}
	defer func() {
		srcErr, dbErr := m.Close()
		if srcErr != nil {
			logger.Warn("migration source close error", zap.Error(srcErr))
		}
		if dbErr != nil {
			logger.Warn("migration database close error", zap.Error(dbErr))
		}
	}()

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			m.GracefulStop <- true
		case <-done:
		}
	}()

	if err := step(m); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			logger.Info("no migrations to run", zap.String("dir", dir), zap.String("direction", direction))
			return nil
		}
		return fmt.Errorf("migrate %s: %w", direction, err)
	}

	version, dirty, err := m.Version()
	switch {
	case errors.Is(err, migrate.ErrNilVersion):
		logger.Info("migrations rolled back", zap.String("dir", dir))
		return nil
	case err != nil:
		return fmt.Errorf("read migration version: %w", err)
	}
	logger.Info("migrations applied",
		zap.String("dir", dir),
		zap.String("direction", direction),
		zap.Uint("version", version),
		zap.Bool("dirty", dirty),
	)
	return nil
}

// SourceURL turns a migrations directory into a file:// source URL.
func SourceURL(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolve migrations dir: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("stat migrations dir %s: %w", abs, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%s is not a directory", abs)
	}
	return "file://" + filepath.ToSlash(abs), nil
}

// WithMultiStatement enables multi statement execution on a ClickHouse URL.
func WithMultiStatement(databaseURL string) string {
	if strings.Contains(databaseURL, "x-multi-statement=") {
		return databaseURL
	}
	separator := "?"
	if strings.Contains(databaseURL, "?") {
		separator = "&"
	}
	return databaseURL + separator + "x-multi-statement=true"
}
