package db

import (
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

func TestValidIdentifier(t *testing.T) {
	cases := map[string]bool{
		"conscious_graph":  true,
		"_g1":              true,
		"Graph":            true,
		"":                 false,
		"1graph":           false,
		"g'); DROP TABLE x": false,
		"g-1":              false,
	}
	for in, want := range cases {
		if got := ValidIdentifier(in); got != want {
			t.Fatalf("ValidIdentifier(%q)=%v want %v", in, got, want)
		}
	}
}

func TestAutoMigrateSQLite(t *testing.T) {
	gdb, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{Logger: gormLogger.Default.LogMode(gormLogger.Silent)})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	if err := AutoMigrateAll(gdb, MigrateOptions{GraphName: "g", VectorDimension: 3}); err != nil {
		t.Fatalf("AutoMigrateAll: %v", err)
	}
	for _, table := range []string{"source", "thought", "review_log"} {
		if !gdb.Migrator().HasTable(table) {
			t.Fatalf("missing table %s", table)
		}
	}
	if !gdb.Migrator().HasIndex("source", "idx_source_natural_key") {
		t.Fatalf("missing natural key index")
	}
}

func TestPostgresConfigDSN(t *testing.T) {
	cfg := PostgresConfig{Host: "h", Port: "5432", User: "u", Password: "p", Name: "n"}
	if got := cfg.DSN(); got != "postgres://u:p@h:5432/n?sslmode=disable" {
		t.Fatalf("DSN=%q", got)
	}
}
