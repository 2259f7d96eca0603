package storage

import (
	"strings"
	"testing"

	"chatcore/internal/config"
)

func TestMysqlDSNForcesParseTime(t *testing.T) {
	base := config.DatabaseConfig{
		Driver:   "mysql",
		Host:     "db.local",
		Port:     3306,
		Username: "chat",
		Password: "secret",
		DBName:   "chatcore",
	}

	cases := []struct {
		name   string
		params string
		want   string
	}{
		{"no params", "", "chat:secret@tcp(db.local:3306)/chatcore?parseTime=true"},
		{"existing params", "charset=utf8mb4", "chat:secret@tcp(db.local:3306)/chatcore?charset=utf8mb4&parseTime=true"},
		{"already set", "parseTime=true&charset=utf8mb4", "chat:secret@tcp(db.local:3306)/chatcore?parseTime=true&charset=utf8mb4"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := base
			cfg.Params = tc.params
			got := mysqlDSN(cfg)
			if got != tc.want {
				t.Fatalf("mysqlDSN = %s, want %s", got, tc.want)
			}
			if !strings.Contains(got, "parseTime") {
				t.Fatalf("dsn must carry parseTime: %s", got)
			}
		})
	}
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	if _, err := Open(config.DatabaseConfig{Driver: "oracle"}); err == nil {
		t.Fatalf("expected error for unsupported driver")
	}
}

func TestOpenAndMigrateSqlite(t *testing.T) {
	db, err := Open(config.DatabaseConfig{Driver: "sqlite3", DSN: ":memory:"})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()
	if err := Migrate(db, "sqlite3"); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	// Migrate is idempotent.
	if err := Migrate(db, "sqlite3"); err != nil {
		t.Fatalf("second migrate: %v", err)
	}

	var enabled int
	if err := db.QueryRow("PRAGMA foreign_keys").Scan(&enabled); err != nil {
		t.Fatalf("pragma: %v", err)
	}
	if enabled != 1 {
		t.Fatalf("foreign keys must be enabled")
	}
}
