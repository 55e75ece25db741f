package storage

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alecthomas/assert/v2"
	"github.com/shopspring/decimal"

	"github.com/robinvdvleuten/mininab/config"
	"github.com/robinvdvleuten/mininab/ledger"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func stateJSON(t *testing.T, l *ledger.Ledger) string {
	t.Helper()
	b, err := json.Marshal(l.Snapshot())
	assert.NoError(t, err)
	return string(b)
}

func populated(t *testing.T) *ledger.Ledger {
	t.Helper()
	ctx := context.Background()
	l := ledger.New()
	steps := []func() error{
		func() error { _, err := l.AddAccount(ctx, "Checking", "bank"); return err },
		func() error { _, err := l.AddAccount(ctx, "Visa", "credit"); return err },
		func() error { _, err := l.AddCategory(ctx, "Food:Groceries"); return err },
		func() error { _, err := l.AddCategory(ctx, "Rent"); return err },
		func() error { _, err := l.SetReadyToAssign(ctx, "2024-01", dec("1000")); return err },
		func() error { _, err := l.Assign(ctx, "2024-01", "Food:Groceries", dec("10")); return err },
		func() error { _, err := l.Spend(ctx, "2024-01", "Visa", "Food:Groceries", dec("25.25")); return err },
		func() error { _, err := l.Transfer(ctx, "2024-01", "Checking", "Visa", dec("25.25")); return err },
		func() error { _, err := l.RollForward(ctx, "2024-01", "2024-02"); return err },
	}
	for _, step := range steps {
		assert.NoError(t, step())
	}
	return l
}

func TestStores_RoundTrip(t *testing.T) {
	tests := []struct {
		name string
		open func(t *testing.T, dir string) Store
	}{
		{"json", func(t *testing.T, dir string) Store {
			return NewJSON(filepath.Join(dir, "mininab.json"))
		}},
		{"sqlite", func(t *testing.T, dir string) Store {
			s, err := NewSQLite(filepath.Join(dir, "mininab.db"))
			assert.NoError(t, err)
			return s
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			dir := t.TempDir()
			want := populated(t)

			store := tt.open(t, dir)
			assert.NoError(t, store.Save(ctx, want))
			assert.NoError(t, store.Close())

			store = tt.open(t, dir)
			defer store.Close()
			got, err := store.Load(ctx)
			assert.NoError(t, err)

			assert.Equal(t, stateJSON(t, want), stateJSON(t, got))
			assert.True(t, got.RolloverApplied("2024-01", "2024-02"))
		})
	}
}

func TestStores_EmptyLoad(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	js := NewJSON(filepath.Join(dir, "missing.json"))
	l, err := js.Load(ctx)
	assert.NoError(t, err)
	assert.Equal(t, stateJSON(t, ledger.New()), stateJSON(t, l))

	db, err := NewSQLite(filepath.Join(dir, "fresh.db"))
	assert.NoError(t, err)
	defer db.Close()
	l, err = db.Load(ctx)
	assert.NoError(t, err)
	assert.Equal(t, stateJSON(t, ledger.New()), stateJSON(t, l))
}

func TestSQLite_SaveReplacesRows(t *testing.T) {
	ctx := context.Background()
	store, err := NewSQLite(filepath.Join(t.TempDir(), "mininab.db"))
	assert.NoError(t, err)
	defer store.Close()

	assert.NoError(t, store.Save(ctx, populated(t)))

	smaller := ledger.New()
	_, err = smaller.AddAccount(ctx, "Cash", "bank")
	assert.NoError(t, err)
	assert.NoError(t, store.Save(ctx, smaller))

	got, err := store.Load(ctx)
	assert.NoError(t, err)
	assert.Equal(t, stateJSON(t, smaller), stateJSON(t, got))
}

func TestJSON_FileFormat(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "mininab.json")

	assert.NoError(t, NewJSON(path).Save(ctx, ledger.New()))

	data, err := os.ReadFile(path)
	assert.NoError(t, err)
	assert.Equal(t, `{
  "accounts": {},
  "categories": {},
  "month_summary": {},
  "category_month": {},
  "transactions": []
}
`, string(data))

	entries, err := os.ReadDir(filepath.Dir(path))
	assert.NoError(t, err)
	assert.Equal(t, 1, len(entries), "temporary file should be renamed away")
}

func TestJSON_AmountsWrittenAsNumbers(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "mininab.json")

	assert.NoError(t, NewJSON(path).Save(ctx, populated(t)))

	data, err := os.ReadFile(path)
	assert.NoError(t, err)
	assert.Contains(t, string(data), `"ready_to_assign": 1000.00`)
	assert.Contains(t, string(data), `"amount": -25.25`)
	assert.NotContains(t, string(data), `"1000"`)
}

func TestJSON_SaveError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing-dir", "mininab.json")

	err := NewJSON(path).Save(context.Background(), ledger.New())

	var saveErr *SaveError
	assert.True(t, errors.As(err, &saveErr))
	assert.Equal(t, path, saveErr.Path)
}

func TestJSON_CorruptFile(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	tests := []struct {
		name    string
		content string
		corrupt bool
	}{
		{"not json", "{", false},
		{"invalid account type", `{"accounts":{"Cash":{"type":"wallet"}}}`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, strings.ReplaceAll(tt.name, " ", "-")+".json")
			assert.NoError(t, os.WriteFile(path, []byte(tt.content), 0o644))

			_, err := NewJSON(path).Load(ctx)
			assert.Error(t, err)

			var cerr *ledger.CorruptStateError
			assert.Equal(t, tt.corrupt, errors.As(err, &cerr))
		})
	}
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		backend string
		wantErr bool
	}{
		{config.BackendJSON, false},
		{config.BackendSQLite, false},
		{"postgres", true},
	}

	for _, tt := range tests {
		t.Run(tt.backend, func(t *testing.T) {
			cfg := config.Default()
			cfg.Backend = tt.backend
			cfg.Ledger = filepath.Join(dir, "ledger-"+tt.backend)

			store, err := Open(cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, cfg.Ledger, store.Path())
			assert.NoError(t, store.Close())
		})
	}
}
