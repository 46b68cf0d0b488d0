package db

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	dbgen "github.com/codr1/gotnext/internal/db/generated"
)

func TestEnsureDSNParams(t *testing.T) {
	got := ensureDSNParams("file.db")
	want := "file.db?_fk=1&_busy_timeout=5000&_txlock=immediate&_journal_mode=WAL"
	if got != want {
		t.Fatalf("ensureDSNParams = %q, want %q", got, want)
	}

	got = ensureDSNParams("file.db?_txlock=deferred&_fk=0")
	want = "file.db?_txlock=deferred&_fk=0&_busy_timeout=5000&_journal_mode=WAL"
	if got != want {
		t.Fatalf("ensureDSNParams kept overrides = %q, want %q", got, want)
	}
}

func TestNewAppliesMigrations(t *testing.T) {
	database, err := New(filepath.Join(t.TempDir(), "migrations.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer database.Close()

	for _, table := range []string{"gyms", "courts", "reservations", "got_next_queues", "got_next_entries"} {
		var count int
		err := database.QueryRowContext(context.Background(),
			"SELECT COUNT(1) FROM sqlite_master WHERE type = 'table' AND name = ?", table,
		).Scan(&count)
		if err != nil {
			t.Fatalf("query sqlite_master: %v", err)
		}
		if count != 1 {
			t.Fatalf("expected table %s to exist", table)
		}
	}
}

func TestRunInTxRollsBackOnError(t *testing.T) {
	database, err := New(filepath.Join(t.TempDir(), "tx.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer database.Close()

	ctx := context.Background()
	sentinel := errors.New("boom")
	err = database.RunInTx(ctx, func(txdb *DB) error {
		if err := txdb.Queries.CreateGym(ctx, dbgen.CreateGymParams{ID: "g1", Name: "Gym", CreatedAt: time.Unix(0, 0)}); err != nil {
			return err
		}
		return sentinel
	})
	if !errors.Is(err, sentinel) {
		t.Fatalf("expected sentinel error, got %v", err)
	}

	gyms, err := database.Queries.ListGyms(ctx)
	if err != nil {
		t.Fatalf("list gyms: %v", err)
	}
	if len(gyms) != 0 {
		t.Fatalf("expected rollback, found %d gyms", len(gyms))
	}
}

func TestUnavailableWrapsOnce(t *testing.T) {
	base := fmt.Errorf("disk I/O error")
	wrapped := Unavailable("list courts", base)
	if !errors.Is(wrapped, ErrUnavailable) || !errors.Is(wrapped, base) {
		t.Fatalf("expected wrapped error to match both ErrUnavailable and the cause: %v", wrapped)
	}
	if again := Unavailable("outer", wrapped); again != wrapped {
		t.Fatalf("expected already-unavailable error to pass through unchanged")
	}
	if Unavailable("noop", nil) != nil {
		t.Fatalf("expected nil for nil error")
	}
}

func TestNewMigratorReportsEmbeddedVersion(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "migrator.db")
	database, err := New(dbPath)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	database.Close()

	m, err := NewMigrator(dbPath)
	if err != nil {
		t.Fatalf("new migrator: %v", err)
	}
	defer m.Close()

	version, dirty, err := m.Version()
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if version != 3 || dirty {
		t.Fatalf("expected clean version 3, got %d dirty=%v", version, dirty)
	}
}
