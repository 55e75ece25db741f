package report

import (
	"github.com/robinvdvleuten/mininab/ledger"
	"github.com/robinvdvleuten/mininab/month"
)

// Filter narrows a transaction listing. Zero fields match everything.
type Filter struct {
	Month    month.Key
	Account  string
	Category string
}

func (f Filter) match(t ledger.Transaction) bool {
	if f.Month != "" && t.Month != f.Month {
		return false
	}
	if f.Account != "" && t.Account != f.Account {
		return false
	}
	if f.Category != "" && t.Category != f.Category {
		return false
	}
	return true
}

// Transactions returns the log entries matching f, in log order.
func Transactions(l *ledger.Ledger, f Filter) []ledger.Transaction {
	out := make([]ledger.Transaction, 0)
	for _, t := range l.Transactions() {
		if f.match(t) {
			out = append(out, t)
		}
	}
	return out
}
