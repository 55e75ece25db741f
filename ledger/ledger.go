// Package ledger provides the envelope-budgeting ledger: accounts, a category
// tree, per-month category balances, per-month money ready to assign, and the
// append-only transaction log.
//
// Every category has, for each month it was touched in, an Entry holding
//
//   - Budgeted: money assigned to the category this month
//   - Activity: money spent from the category this month (negative)
//   - Available: the running balance, carried between months by RollForward
//
// Mutating operations follow a two-phase approach. A validator with read-only
// access to the ledger checks every referenced entity and produces a delta
// describing the planned mutation; only when validation passes is the delta
// applied. A rejected operation therefore leaves the ledger untouched.
//
// Example usage:
//
//	l := ledger.New()
//	_, _ = l.AddAccount(ctx, "Checking", "bank")
//	_, _ = l.AddCategory(ctx, "Food")
//	_, _ = l.SetReadyToAssign(ctx, "2024-03", decimal.NewFromInt(500))
//	_, _ = l.Assign(ctx, "2024-03", "Food", decimal.NewFromInt(200))
//	if _, err := l.Spend(ctx, "2024-03", "Checking", "Food", decimal.NewFromInt(50)); err != nil {
//	    var unknown *ledger.UnknownAccountError
//	    if errors.As(err, &unknown) {
//	        // ...
//	    }
//	}
//
// The ledger performs no I/O and no locking; it is owned by a single actor
// between a load and a save.
package ledger

import (
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/robinvdvleuten/mininab/category"
	"github.com/robinvdvleuten/mininab/month"
)

// EntryKey identifies a category's balances in one month.
type EntryKey struct {
	Month    month.Key
	Category string
}

// Entry holds a category's balances for one month.
type Entry struct {
	Budgeted  decimal.Decimal
	Activity  decimal.Decimal
	Available decimal.Decimal
}

// Transaction is an immutable record in the audit trail. Account and Category
// are empty when not applicable.
type Transaction struct {
	Month    month.Key
	Account  string
	Category string
	Amount   decimal.Decimal
}

// Rollover records one application of RollForward.
type Rollover struct {
	From      month.Key
	To        month.Key
	Carried   decimal.Decimal
	Overspend decimal.Decimal
}

// Ledger is the budgeting state.
type Ledger struct {
	accounts     map[string]*Account
	categories   *category.Tree
	entries      map[EntryKey]*Entry
	summaries    map[month.Key]decimal.Decimal // month -> ready to assign
	transactions []Transaction
	rollovers    []Rollover
}

// New creates a new empty ledger
func New() *Ledger {
	return &Ledger{
		accounts:   make(map[string]*Account),
		categories: category.NewTree(),
		entries:    make(map[EntryKey]*Entry),
		summaries:  make(map[month.Key]decimal.Decimal),
	}
}

// entryFor returns the entry for (m, cat), creating a zero entry first if the
// pair has never been touched. It is the only place entries are created.
func (l *Ledger) entryFor(m month.Key, cat string) *Entry {
	key := EntryKey{Month: m, Category: cat}
	if e, ok := l.entries[key]; ok {
		return e
	}
	e := &Entry{}
	l.entries[key] = e
	return e
}

// GetAccount returns an account by name
func (l *Ledger) GetAccount(name string) (Account, bool) {
	acc, ok := l.accounts[name]
	if !ok {
		return Account{}, false
	}
	return *acc, true
}

// Accounts returns all accounts sorted by name
func (l *Ledger) Accounts() []Account {
	out := make([]Account, 0, len(l.accounts))
	for _, acc := range l.accounts {
		out = append(out, *acc)
	}
	slices.SortFunc(out, func(a, b Account) int {
		return strings.Compare(a.Name, b.Name)
	})
	return out
}

// HasCategory reports whether path is a known category.
func (l *Ledger) HasCategory(path string) bool {
	return l.categories.Has(path)
}

// Categories returns all categories sorted by path.
func (l *Ledger) Categories() []category.Category {
	return l.categories.Categories()
}

// CategoryListing returns categories in display order.
func (l *Ledger) CategoryListing() []category.Node {
	return l.categories.Listing()
}

// Entry returns a copy of the entry for (m, cat) without creating it.
func (l *Ledger) Entry(m month.Key, cat string) (Entry, bool) {
	e, ok := l.entries[EntryKey{Month: m, Category: cat}]
	if !ok {
		return Entry{}, false
	}
	return *e, true
}

// EntryCount returns the number of touched (month, category) pairs.
func (l *Ledger) EntryCount() int {
	return len(l.entries)
}

// ReadyToAssign returns the month's unassigned pool and whether it was ever set.
func (l *Ledger) ReadyToAssign(m month.Key) (decimal.Decimal, bool) {
	v, ok := l.summaries[m]
	return v, ok
}

// Months returns every month with a summary, sorted ascending.
func (l *Ledger) Months() []month.Key {
	out := maps.Keys(l.summaries)
	slices.Sort(out)
	return out
}

// Transactions returns a copy of the transaction log in append order.
func (l *Ledger) Transactions() []Transaction {
	out := make([]Transaction, len(l.transactions))
	copy(out, l.transactions)
	return out
}

// Rollovers returns a copy of the applied rollovers in order.
func (l *Ledger) Rollovers() []Rollover {
	out := make([]Rollover, len(l.rollovers))
	copy(out, l.rollovers)
	return out
}

// RolloverCount reports how many times from -> to has been rolled forward.
func (l *Ledger) RolloverCount(from, to month.Key) int {
	n := 0
	for _, r := range l.rollovers {
		if r.From == from && r.To == to {
			n++
		}
	}
	return n
}

// RolloverApplied reports whether from -> to has been rolled forward before.
func (l *Ledger) RolloverApplied(from, to month.Key) bool {
	return l.RolloverCount(from, to) > 0
}

// Clone returns a deep copy of the ledger.
func (l *Ledger) Clone() *Ledger {
	c := New()
	for name, acc := range l.accounts {
		a := *acc
		c.accounts[name] = &a
	}
	for _, cat := range l.categories.Categories() {
		c.categories.Insert(cat)
	}
	for k, e := range l.entries {
		entry := *e
		c.entries[k] = &entry
	}
	for m, v := range l.summaries {
		c.summaries[m] = v
	}
	c.transactions = l.Transactions()
	c.rollovers = l.Rollovers()
	return c
}
