package ledger

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/robinvdvleuten/mininab/category"
	"github.com/robinvdvleuten/mininab/month"
)

// Snapshot is the persisted shape of a ledger. Its JSON form matches the
// classic mininab state file: five top-level maps plus the rollover log.
type Snapshot struct {
	Accounts      map[string]AccountRecord             `json:"accounts"`
	Categories    map[string]CategoryRecord            `json:"categories"`
	MonthSummary  map[month.Key]SummaryRecord          `json:"month_summary"`
	CategoryMonth map[month.Key]map[string]EntryRecord `json:"category_month"`
	Transactions  []TransactionRecord                  `json:"transactions"`
	Rollovers     []RolloverRecord                     `json:"rollovers,omitempty"`
}

// AccountRecord is the persisted form of an account.
type AccountRecord struct {
	Type string `json:"type"`
}

// CategoryRecord is the persisted form of a category. Parent is nil for roots.
type CategoryRecord struct {
	Parent *string `json:"parent"`
}

// Number is an amount persisted as a bare JSON number, the way classic state
// files store them. Decoding accepts numbers and quoted strings.
type Number struct {
	decimal.Decimal
}

// NewNumber wraps d for persistence.
func NewNumber(d decimal.Decimal) Number {
	return Number{Decimal: d}
}

// MarshalJSON writes the amount with Precision fractional digits, unquoted.
func (n Number) MarshalJSON() ([]byte, error) {
	return []byte(n.StringFixed(Precision)), nil
}

// SummaryRecord is the persisted form of a month summary.
type SummaryRecord struct {
	ReadyToAssign Number `json:"ready_to_assign"`
}

// EntryRecord is the persisted form of a category-month entry.
type EntryRecord struct {
	Budgeted  Number `json:"budgeted"`
	Activity  Number `json:"activity"`
	Available Number `json:"available"`
}

// TransactionRecord is the persisted form of a transaction.
type TransactionRecord struct {
	Month    month.Key `json:"month"`
	Account  *string   `json:"account"`
	Category *string   `json:"category"`
	Amount   Number    `json:"amount"`
}

// RolloverRecord is the persisted form of an applied rollover.
type RolloverRecord struct {
	From      month.Key `json:"from"`
	To        month.Key `json:"to"`
	Carried   Number    `json:"carried"`
	Overspend Number    `json:"overspend"`
}

// NewSnapshot returns an empty snapshot with every collection present.
func NewSnapshot() *Snapshot {
	return &Snapshot{
		Accounts:      make(map[string]AccountRecord),
		Categories:    make(map[string]CategoryRecord),
		MonthSummary:  make(map[month.Key]SummaryRecord),
		CategoryMonth: make(map[month.Key]map[string]EntryRecord),
		Transactions:  make([]TransactionRecord, 0),
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// Snapshot returns the persisted form of the ledger.
func (l *Ledger) Snapshot() *Snapshot {
	s := NewSnapshot()

	for name, acc := range l.accounts {
		s.Accounts[name] = AccountRecord{Type: acc.Kind.String()}
	}
	for _, c := range l.categories.Categories() {
		s.Categories[c.Path] = CategoryRecord{Parent: optional(c.Parent)}
	}
	for m, v := range l.summaries {
		s.MonthSummary[m] = SummaryRecord{ReadyToAssign: NewNumber(v)}
	}
	for k, e := range l.entries {
		byCat, ok := s.CategoryMonth[k.Month]
		if !ok {
			byCat = make(map[string]EntryRecord)
			s.CategoryMonth[k.Month] = byCat
		}
		byCat[k.Category] = EntryRecord{
			Budgeted:  NewNumber(e.Budgeted),
			Activity:  NewNumber(e.Activity),
			Available: NewNumber(e.Available),
		}
	}
	for _, t := range l.transactions {
		s.Transactions = append(s.Transactions, TransactionRecord{
			Month:    t.Month,
			Account:  optional(t.Account),
			Category: optional(t.Category),
			Amount:   NewNumber(t.Amount),
		})
	}
	for _, r := range l.rollovers {
		s.Rollovers = append(s.Rollovers, RolloverRecord{
			From:      r.From,
			To:        r.To,
			Carried:   NewNumber(r.Carried),
			Overspend: NewNumber(r.Overspend),
		})
	}
	return s
}

// FromSnapshot rebuilds a ledger from its persisted form, checking the
// ledger invariants. Amounts are rounded to Precision, since classic files
// hold binary floats such as 0.30000000000000004. A nil snapshot yields an
// empty ledger.
func FromSnapshot(s *Snapshot) (*Ledger, error) {
	l := New()
	if s == nil {
		return l, nil
	}

	for name, rec := range s.Accounts {
		kind, ok := ParseAccountKind(rec.Type)
		if !ok {
			return nil, newCorruptStateError("account %q has invalid type %q", name, rec.Type)
		}
		l.accounts[name] = &Account{Name: name, Kind: kind}
	}

	if err := restoreCategories(l.categories, s.Categories); err != nil {
		return nil, err
	}

	for m, rec := range s.MonthSummary {
		if !m.Valid() {
			return nil, newCorruptStateError("month summary key %q is not YYYY-MM", m)
		}
		l.summaries[m] = Round(rec.ReadyToAssign.Decimal)
	}

	for m, byCat := range s.CategoryMonth {
		if !m.Valid() {
			return nil, newCorruptStateError("category month key %q is not YYYY-MM", m)
		}
		for cat, rec := range byCat {
			if !l.categories.Has(cat) {
				return nil, newCorruptStateError("entry for %s references unknown category %q", m, cat)
			}
			l.entries[EntryKey{Month: m, Category: cat}] = &Entry{
				Budgeted:  Round(rec.Budgeted.Decimal),
				Activity:  Round(rec.Activity.Decimal),
				Available: Round(rec.Available.Decimal),
			}
		}
	}

	l.transactions = make([]Transaction, 0, len(s.Transactions))
	for i, rec := range s.Transactions {
		if !rec.Month.Valid() {
			return nil, newCorruptStateError("transaction %d has month %q", i, rec.Month)
		}
		l.transactions = append(l.transactions, Transaction{
			Month:    rec.Month,
			Account:  deref(rec.Account),
			Category: deref(rec.Category),
			Amount:   Round(rec.Amount.Decimal),
		})
	}

	for i, rec := range s.Rollovers {
		if !rec.From.Valid() || !rec.To.Valid() {
			return nil, newCorruptStateError("rollover %d has months %q -> %q", i, rec.From, rec.To)
		}
		l.rollovers = append(l.rollovers, Rollover{
			From:      rec.From,
			To:        rec.To,
			Carried:   Round(rec.Carried.Decimal),
			Overspend: Round(rec.Overspend.Decimal),
		})
	}

	return l, nil
}

// restoreCategories inserts categories parents first so that every parent
// link can be checked against already restored members.
func restoreCategories(tree *category.Tree, records map[string]CategoryRecord) error {
	paths := make([]string, 0, len(records))
	for p := range records {
		paths = append(paths, p)
	}
	// A parent is a strict prefix of its child, so it sorts first.
	sort.Strings(paths)

	for _, p := range paths {
		normalized, err := category.Normalize(p)
		if err != nil || normalized != p {
			return newCorruptStateError("category path %q is malformed", p)
		}

		parent := deref(records[p].Parent)
		want := ""
		if i := strings.LastIndex(p, category.Separator); i >= 0 {
			want = p[:i]
		}
		if parent != want {
			return newCorruptStateError("category %q has parent %q, expected %q", p, parent, want)
		}
		if parent != "" && !tree.Has(parent) {
			return newCorruptStateError("category %q references missing parent %q", p, parent)
		}
		tree.Insert(category.Category{Path: p, Parent: parent})
	}
	return nil
}
