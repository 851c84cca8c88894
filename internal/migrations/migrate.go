package migrations

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/pressly/goose/v3"
	"go.uber.org/zap"
)

const sqliteDialect = "sqlite3"

// gooseLogger routes goose progress lines through zap.
type gooseLogger struct {
	sugar *zap.SugaredLogger
}

func (l gooseLogger) Printf(format string, v ...any) {
	l.sugar.Infof(strings.TrimSuffix(format, "\n"), v...)
}

func (l gooseLogger) Fatalf(format string, v ...any) {
	l.sugar.Fatalf(strings.TrimSuffix(format, "\n"), v...)
}

// Up runs all pending SQL migrations found in migrationsDir. A nil logger
// silences goose.
func Up(db *sql.DB, migrationsDir string, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	goose.SetLogger(gooseLogger{sugar: logger.Named("migrations").Sugar()})

	if err := goose.SetDialect(sqliteDialect); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}

	if err := goose.Up(db, migrationsDir); err != nil {
		return fmt.Errorf("run goose up migrations: %w", err)
	}

	version, err := goose.GetDBVersion(db)
	if err != nil {
		return fmt.Errorf("read goose db version: %w", err)
	}
	logger.Info("Database migrated", zap.String("dir", migrationsDir), zap.Int64("version", version))
	return nil
}
