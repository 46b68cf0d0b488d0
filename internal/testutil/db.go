package testutil

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/codr1/gotnext/internal/db"
	dbgen "github.com/codr1/gotnext/internal/db/generated"
)

// Epoch is the default start instant for manual clocks in tests.
var Epoch = time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)

// NewTestDB creates a temporary SQLite database with migrations applied.
func NewTestDB(t *testing.T) *db.DB {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	database, err := db.New(dbPath)
	if err != nil {
		t.Fatalf("create test db: %v", err)
	}
	t.Cleanup(func() {
		_ = database.Close()
	})

	return database
}

// SeedCourt inserts a gym with a single court and returns the court ID.
func SeedCourt(t *testing.T, database *db.DB, name string) string {
	t.Helper()

	ctx := context.Background()
	gymID := uuid.NewString()
	if err := database.Queries.CreateGym(ctx, dbgen.CreateGymParams{
		ID:        gymID,
		Name:      name + " Gym",
		Location:  "Downtown",
		CreatedAt: Epoch,
	}); err != nil {
		t.Fatalf("insert gym: %v", err)
	}

	courtID := uuid.NewString()
	if err := database.Queries.CreateCourt(ctx, dbgen.CreateCourtParams{
		ID:        courtID,
		GymID:     gymID,
		Name:      name,
		Surface:   "hardwood",
		IsIndoor:  true,
		CreatedAt: Epoch,
	}); err != nil {
		t.Fatalf("insert court: %v", err)
	}
	return courtID
}
