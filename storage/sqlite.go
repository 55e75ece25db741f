package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"github.com/robinvdvleuten/mininab/ledger"
	"github.com/robinvdvleuten/mininab/month"
	"github.com/robinvdvleuten/mininab/telemetry"
)

// SQLiteStore keeps the ledger in a SQLite database. Amounts are stored as
// decimal text so no precision is lost.
type SQLiteStore struct {
	path string
	db   *sql.DB
}

// NewSQLite opens (creating if needed) the database at path and migrates it.
func NewSQLite(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	if err := RunMigrations(path); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &SQLiteStore{path: path, db: db}, nil
}

// Path implements Store.
func (s *SQLiteStore) Path() string { return s.path }

// Close implements Store.
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Load implements Store.
func (s *SQLiteStore) Load(ctx context.Context) (*ledger.Ledger, error) {
	timer := telemetry.StartTimer(ctx, "storage.load")
	defer timer.End()

	zerolog.Ctx(ctx).Info().Str("path", s.path).Msg("loading state")

	snap := ledger.NewSnapshot()
	loaders := []func(context.Context, *ledger.Snapshot) error{
		s.loadAccounts,
		s.loadCategories,
		s.loadSummaries,
		s.loadEntries,
		s.loadTransactions,
		s.loadRollovers,
	}
	for _, load := range loaders {
		if err := load(ctx, snap); err != nil {
			return nil, err
		}
	}
	return ledger.FromSnapshot(snap)
}

func (s *SQLiteStore) loadAccounts(ctx context.Context, snap *ledger.Snapshot) error {
	rows, err := s.db.QueryContext(ctx, `SELECT name, kind FROM accounts`)
	if err != nil {
		return fmt.Errorf("query accounts: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var name, kind string
		if err := rows.Scan(&name, &kind); err != nil {
			return fmt.Errorf("scan account: %w", err)
		}
		snap.Accounts[name] = ledger.AccountRecord{Type: kind}
	}
	return rows.Err()
}

func (s *SQLiteStore) loadCategories(ctx context.Context, snap *ledger.Snapshot) error {
	rows, err := s.db.QueryContext(ctx, `SELECT path, parent FROM categories`)
	if err != nil {
		return fmt.Errorf("query categories: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var path string
		var parent sql.NullString
		if err := rows.Scan(&path, &parent); err != nil {
			return fmt.Errorf("scan category: %w", err)
		}
		rec := ledger.CategoryRecord{}
		if parent.Valid {
			rec.Parent = &parent.String
		}
		snap.Categories[path] = rec
	}
	return rows.Err()
}

func (s *SQLiteStore) loadSummaries(ctx context.Context, snap *ledger.Snapshot) error {
	rows, err := s.db.QueryContext(ctx, `SELECT month, ready_to_assign FROM month_summaries`)
	if err != nil {
		return fmt.Errorf("query month summaries: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var m string
		var tbb decimal.Decimal
		if err := rows.Scan(&m, &tbb); err != nil {
			return fmt.Errorf("scan month summary: %w", err)
		}
		snap.MonthSummary[month.Key(m)] = ledger.SummaryRecord{ReadyToAssign: ledger.NewNumber(tbb)}
	}
	return rows.Err()
}

func (s *SQLiteStore) loadEntries(ctx context.Context, snap *ledger.Snapshot) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT month, category, budgeted, activity, available FROM category_months`)
	if err != nil {
		return fmt.Errorf("query category months: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var m, cat string
		var rec ledger.EntryRecord
		if err := rows.Scan(&m, &cat, &rec.Budgeted, &rec.Activity, &rec.Available); err != nil {
			return fmt.Errorf("scan category month: %w", err)
		}
		byCat, ok := snap.CategoryMonth[month.Key(m)]
		if !ok {
			byCat = make(map[string]ledger.EntryRecord)
			snap.CategoryMonth[month.Key(m)] = byCat
		}
		byCat[cat] = rec
	}
	return rows.Err()
}

func (s *SQLiteStore) loadTransactions(ctx context.Context, snap *ledger.Snapshot) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT month, account, category, amount FROM transactions ORDER BY seq`)
	if err != nil {
		return fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var m string
		var account, cat sql.NullString
		var amount decimal.Decimal
		if err := rows.Scan(&m, &account, &cat, &amount); err != nil {
			return fmt.Errorf("scan transaction: %w", err)
		}
		rec := ledger.TransactionRecord{Month: month.Key(m), Amount: ledger.NewNumber(amount)}
		if account.Valid {
			rec.Account = &account.String
		}
		if cat.Valid {
			rec.Category = &cat.String
		}
		snap.Transactions = append(snap.Transactions, rec)
	}
	return rows.Err()
}

func (s *SQLiteStore) loadRollovers(ctx context.Context, snap *ledger.Snapshot) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT from_month, to_month, carried, overspend FROM rollovers ORDER BY seq`)
	if err != nil {
		return fmt.Errorf("query rollovers: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var from, to string
		var rec ledger.RolloverRecord
		if err := rows.Scan(&from, &to, &rec.Carried, &rec.Overspend); err != nil {
			return fmt.Errorf("scan rollover: %w", err)
		}
		rec.From, rec.To = month.Key(from), month.Key(to)
		snap.Rollovers = append(snap.Rollovers, rec)
	}
	return rows.Err()
}

// Save implements Store. All rows are replaced inside one transaction.
func (s *SQLiteStore) Save(ctx context.Context, l *ledger.Ledger) error {
	timer := telemetry.StartTimer(ctx, "storage.save")
	defer timer.End()

	log := zerolog.Ctx(ctx)
	log.Info().Str("path", s.path).Msg("saving state")

	if err := s.replace(ctx, l.Snapshot()); err != nil {
		log.Error().Err(err).Str("path", s.path).Msg("failed to save state")
		return &SaveError{Path: s.path, Err: err}
	}
	log.Info().Str("path", s.path).Msg("state saved")
	return nil
}

func (s *SQLiteStore) replace(ctx context.Context, snap *ledger.Snapshot) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"rollovers", "transactions", "category_months", "month_summaries", "categories", "accounts"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	for name, rec := range snap.Accounts {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO accounts (name, kind) VALUES (?, ?)`, name, rec.Type); err != nil {
			return fmt.Errorf("insert account %s: %w", name, err)
		}
	}

	paths := make([]string, 0, len(snap.Categories))
	for p := range snap.Categories {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	for _, p := range paths {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO categories (path, parent) VALUES (?, ?)`, p, nullString(snap.Categories[p].Parent)); err != nil {
			return fmt.Errorf("insert category %s: %w", p, err)
		}
	}

	for m, rec := range snap.MonthSummary {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO month_summaries (month, ready_to_assign) VALUES (?, ?)`,
			string(m), rec.ReadyToAssign.String()); err != nil {
			return fmt.Errorf("insert month summary %s: %w", m, err)
		}
	}

	for m, byCat := range snap.CategoryMonth {
		for cat, rec := range byCat {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO category_months (month, category, budgeted, activity, available) VALUES (?, ?, ?, ?, ?)`,
				string(m), cat, rec.Budgeted.String(), rec.Activity.String(), rec.Available.String()); err != nil {
				return fmt.Errorf("insert category month %s/%s: %w", m, cat, err)
			}
		}
	}

	for i, rec := range snap.Transactions {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO transactions (seq, month, account, category, amount) VALUES (?, ?, ?, ?, ?)`,
			i, string(rec.Month), nullString(rec.Account), nullString(rec.Category), rec.Amount.String()); err != nil {
			return fmt.Errorf("insert transaction %d: %w", i, err)
		}
	}

	for i, rec := range snap.Rollovers {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO rollovers (seq, from_month, to_month, carried, overspend) VALUES (?, ?, ?, ?, ?)`,
			i, string(rec.From), string(rec.To), rec.Carried.String(), rec.Overspend.String()); err != nil {
			return fmt.Errorf("insert rollover %d: %w", i, err)
		}
	}

	return tx.Commit()
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
