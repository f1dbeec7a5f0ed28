package testutil

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/yungbote/conscious-backend/internal/data/db"
	"github.com/yungbote/conscious-backend/internal/platform/logger"
)

const (
	// GraphName is the AGE graph used by integration tests.
	GraphName = "conscious_test_graph"
	// Dimension is the embedding width used by every test.
	Dimension = 3
)

var errMissingDSN = errors.New("missing TEST_POSTGRES_DSN")

var (
	pgOnce sync.Once
	pgDB   *gorm.DB
	pgErr  error

	logOnce sync.Once
	logg    *logger.Logger
	logErr  error

	sqliteSeq atomic.Int64
)

func Logger(tb testing.TB) *logger.Logger {
	tb.Helper()
	logOnce.Do(func() {
		logg, logErr = logger.New("test")
	})
	if logErr != nil {
		tb.Fatalf("failed to init logger: %v", logErr)
	}
	return logg
}

// SQLite returns a fresh migrated in-memory database private to tb.
// The pool is pinned to one connection so the memory database is shared.
func SQLite(tb testing.TB) *gorm.DB {
	tb.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(tb.Name())
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, sqliteSeq.Add(1))
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogger.Silent),
	})
	if err != nil {
		tb.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		tb.Fatalf("sqlite handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	tb.Cleanup(func() { _ = sqlDB.Close() })
	if err := db.AutoMigrateAll(gdb, db.MigrateOptions{GraphName: GraphName, VectorDimension: Dimension}); err != nil {
		tb.Fatalf("migrate sqlite: %v", err)
	}
	return gdb
}

// DB returns the shared postgres (AGE + pgvector) database, skipping when
// TEST_POSTGRES_DSN is unset.
func DB(tb testing.TB) *gorm.DB {
	tb.Helper()

	pgOnce.Do(func() {
		dsn := os.Getenv("TEST_POSTGRES_DSN")
		if dsn == "" {
			pgErr = errMissingDSN
			return
		}
		var err error
		pgDB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
			DisableForeignKeyConstraintWhenMigrating: true,
			Logger:                                   gormLogger.Default.LogMode(gormLogger.Silent),
		})
		if err != nil {
			pgErr = err
			return
		}
		if err := db.AutoMigrateAll(pgDB, db.MigrateOptions{GraphName: GraphName, VectorDimension: Dimension}); err != nil {
			pgErr = err
			return
		}
	})

	if errors.Is(pgErr, errMissingDSN) {
		tb.Skip("set TEST_POSTGRES_DSN to run repo integration tests")
	}
	if pgErr != nil {
		tb.Fatalf("failed to init test db: %v", pgErr)
	}
	return pgDB
}

// Tx opens a transaction that is rolled back when tb finishes. On postgres
// it loads AGE for the session first.
func Tx(tb testing.TB, gdb *gorm.DB) *gorm.DB {
	tb.Helper()
	tx := gdb.Begin()
	if tx.Error != nil {
		tb.Fatalf("begin tx: %v", tx.Error)
	}
	tb.Cleanup(func() {
		_ = tx.Rollback().Error
	})
	if gdb.Dialector.Name() == "postgres" {
		if err := tx.Exec(`LOAD 'age'`).Error; err != nil {
			tb.Fatalf("load age: %v", err)
		}
		if err := tx.Exec(`SET LOCAL search_path = ag_catalog, "$user", public`).Error; err != nil {
			tb.Fatalf("set search_path: %v", err)
		}
	}
	return tx
}
