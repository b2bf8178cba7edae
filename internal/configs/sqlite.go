package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// BusyTimeout is how long a writer waits for the sqlite write lock before
// giving up with SQLITE_BUSY.
const BusyTimeout = 5 * time.Second

// NewDatabaseClient opens the sqlite store. Driver errors are translated so
// constraint violations surface as gorm.ErrDuplicatedKey.
//
// Transactions begin IMMEDIATE, so two writers racing on the same row queue
// on the write lock instead of deadlocking on a SHARED to RESERVED upgrade.
func NewDatabaseClient(dsn string, log *slog.Logger) (*gorm.DB, error) {
	gormLogger := logger.New(slog.NewLogLogger(log.Handler(), slog.LevelWarn), logger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  logger.Warn,
		IgnoreRecordNotFoundError: true,
	})

	db, err := gorm.Open(sqlite.Open(WithLockingParams(dsn)), &gorm.Config{
		Logger:         gormLogger,
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("db open failed: %w", err)
	}

	if inMemory(dsn) {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("db open failed: %w", err)
		}
		// every connection to :memory: is a separate database
		sqlDB.SetMaxOpenConns(1)
	}
	return db, nil
}

// WithLockingParams adds the go-sqlite3 transaction lock mode and busy
// timeout to dsn unless the caller already set them.
func WithLockingParams(dsn string) string {
	base, rawQuery, _ := strings.Cut(dsn, "?")
	params, err := url.ParseQuery(rawQuery)
	if err != nil {
		return dsn
	}
	if params.Get("_txlock") == "" {
		params.Set("_txlock", "immediate")
	}
	if params.Get("_busy_timeout") == "" && params.Get("_timeout") == "" {
		params.Set("_busy_timeout", fmt.Sprint(BusyTimeout.Milliseconds()))
	}
	return base + "?" + params.Encode()
}

func inMemory(dsn string) bool {
	return strings.Contains(dsn, ":memory:") || strings.Contains(dsn, "mode=memory")
}
