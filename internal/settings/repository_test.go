package settings

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/fieldwatch/cathodic-core/internal/wire"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("opening in-memory database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	schema := `
		CREATE TABLE device_settings (
			device_id  TEXT PRIMARY KEY,
			fields     TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)`
	if _, err := db.Exec(schema); err != nil {
		t.Fatalf("creating schema: %v", err)
	}
	return db
}

func TestSQLiteRepositoryRoundTrip(t *testing.T) {
	repo := NewSQLiteRepository(openTestDB(t))
	ctx := context.Background()

	in := &DeviceSettings{
		DeviceID: "123",
		Fields: map[string]any{
			wire.ParamShuntVoltage:  75.0,
			wire.ParamElectrode:     float64(wire.ElectrodeZinc),
			wire.ParamDepolInterval: "02:00:00",
		},
		UpdatedAt: time.Now().UTC(),
	}
	if err := repo.Save(ctx, in); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	out, err := repo.Get(ctx, "123")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if out.Fields[wire.ParamShuntVoltage] != 75.0 {
		t.Errorf("Shunt Voltage = %v, want 75.0", out.Fields[wire.ParamShuntVoltage])
	}
	if out.Fields[wire.ParamDepolInterval] != "02:00:00" {
		t.Errorf("Depolarization_interval = %v, want \"02:00:00\"", out.Fields[wire.ParamDepolInterval])
	}
}

func TestSQLiteRepositoryUpsert(t *testing.T) {
	repo := NewSQLiteRepository(openTestDB(t))
	ctx := context.Background()

	first := &DeviceSettings{DeviceID: "123", Fields: map[string]any{wire.ParamShuntVoltage: 75.0}}
	if err := repo.Save(ctx, first); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	second := &DeviceSettings{DeviceID: "123", Fields: map[string]any{wire.ParamShuntVoltage: 80.0}}
	if err := repo.Save(ctx, second); err != nil {
		t.Fatalf("second Save() error = %v", err)
	}

	out, err := repo.Get(ctx, "123")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if out.Fields[wire.ParamShuntVoltage] != 80.0 {
		t.Errorf("Shunt Voltage = %v, want 80.0 after upsert", out.Fields[wire.ParamShuntVoltage])
	}
}

func TestSQLiteRepositoryNotFound(t *testing.T) {
	repo := NewSQLiteRepository(openTestDB(t))

	if _, err := repo.Get(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get(missing) error = %v, want ErrNotFound", err)
	}
}

func TestSQLiteRepositoryList(t *testing.T) {
	repo := NewSQLiteRepository(openTestDB(t))
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c"} {
		s := &DeviceSettings{DeviceID: id, Fields: map[string]any{wire.ParamShuntVoltage: 1.0}}
		if err := repo.Save(ctx, s); err != nil {
			t.Fatalf("Save(%s) error = %v", id, err)
		}
	}

	all, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(all) != 3 {
		t.Errorf("List() returned %d rows, want 3", len(all))
	}
}
