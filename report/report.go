// Package report computes read-only views of a ledger. Nothing here mutates
// the ledger; categories without an entry in a month are reported with zero
// balances without being inserted.
package report

import (
	"github.com/shopspring/decimal"

	"github.com/robinvdvleuten/mininab/ledger"
	"github.com/robinvdvleuten/mininab/month"
)

// Row is one category line of a month report.
type Row struct {
	Path      string          `json:"path"`
	Name      string          `json:"name"`
	Depth     int             `json:"depth"`
	Budgeted  decimal.Decimal `json:"budgeted"`
	Activity  decimal.Decimal `json:"activity"`
	Available decimal.Decimal `json:"available"`
}

// MonthReport is the per-category table for one month.
type MonthReport struct {
	Month          month.Key       `json:"month"`
	Accounts       []AccountLine   `json:"accounts"`
	Rows           []Row           `json:"rows"`
	ReadyToAssign  decimal.Decimal `json:"ready_to_assign"`
	TotalBudgeted  decimal.Decimal `json:"total_budgeted"`
	TotalActivity  decimal.Decimal `json:"total_activity"`
	TotalAvailable decimal.Decimal `json:"total_available"`
	// Remaining is ReadyToAssign minus TotalBudgeted.
	Remaining decimal.Decimal `json:"remaining"`
}

// AccountLine describes an account and its balance from the transaction log.
type AccountLine struct {
	Name    string          `json:"name"`
	Kind    string          `json:"kind"`
	Balance decimal.Decimal `json:"balance"`
}

// MonthLine is one month's ready-to-assign value.
type MonthLine struct {
	Month         month.Key       `json:"month"`
	ReadyToAssign decimal.Decimal `json:"ready_to_assign"`
}

// CategoryLine is one category in display order.
type CategoryLine struct {
	Path  string `json:"path"`
	Name  string `json:"name"`
	Depth int    `json:"depth"`
}

// Summary is the global view of a ledger.
type Summary struct {
	Accounts   []AccountLine  `json:"accounts"`
	Categories []CategoryLine `json:"categories"`
	Months     []MonthLine    `json:"months"`
}

// Month builds the report for m. Rows follow the category display order.
func Month(l *ledger.Ledger, m month.Key) *MonthReport {
	r := &MonthReport{
		Month:    m,
		Accounts: accountLines(l),
		Rows:     make([]Row, 0),
	}

	for _, node := range l.CategoryListing() {
		e, _ := l.Entry(m, node.Path)
		r.Rows = append(r.Rows, Row{
			Path:      node.Path,
			Name:      node.Name,
			Depth:     node.Depth,
			Budgeted:  e.Budgeted,
			Activity:  e.Activity,
			Available: e.Available,
		})
		r.TotalBudgeted = r.TotalBudgeted.Add(e.Budgeted)
		r.TotalActivity = r.TotalActivity.Add(e.Activity)
		r.TotalAvailable = r.TotalAvailable.Add(e.Available)
	}

	r.ReadyToAssign, _ = l.ReadyToAssign(m)
	r.Remaining = r.ReadyToAssign.Sub(r.TotalBudgeted)
	return r
}

// Summarize returns accounts, ordered categories and every month's
// ready-to-assign value.
func Summarize(l *ledger.Ledger) *Summary {
	s := &Summary{
		Accounts:   accountLines(l),
		Categories: make([]CategoryLine, 0),
		Months:     make([]MonthLine, 0),
	}
	for _, node := range l.CategoryListing() {
		s.Categories = append(s.Categories, CategoryLine{Path: node.Path, Name: node.Name, Depth: node.Depth})
	}
	for _, m := range l.Months() {
		v, _ := l.ReadyToAssign(m)
		s.Months = append(s.Months, MonthLine{Month: m, ReadyToAssign: v})
	}
	return s
}

// AccountBalances sums transaction amounts per account.
func AccountBalances(l *ledger.Ledger) map[string]decimal.Decimal {
	balances := make(map[string]decimal.Decimal)
	for _, t := range l.Transactions() {
		if t.Account == "" {
			continue
		}
		balances[t.Account] = balances[t.Account].Add(t.Amount)
	}
	return balances
}

func accountLines(l *ledger.Ledger) []AccountLine {
	balances := AccountBalances(l)
	lines := make([]AccountLine, 0)
	for _, acc := range l.Accounts() {
		lines = append(lines, AccountLine{
			Name:    acc.Name,
			Kind:    acc.Kind.String(),
			Balance: balances[acc.Name],
		})
	}
	return lines
}
