package ledger

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/robinvdvleuten/mininab/category"
	"github.com/robinvdvleuten/mininab/month"
)

// Delta Architecture
//
// Validators return these structs instead of mutating the ledger. A delta
// carries everything apply needs, already normalized and rounded, so apply
// can assume its input is valid. After a successful operation the applied
// delta is returned to the caller, which uses it for reporting.

// AccountDelta represents adding an account.
type AccountDelta struct {
	Account Account
}

// String returns a human-readable representation of the account delta
func (d *AccountDelta) String() string {
	return fmt.Sprintf("Add account %s (%s)", d.Account.Name, d.Account.Kind)
}

// CategoryDelta represents ensuring a category path exists.
type CategoryDelta struct {
	Path    string
	Results []category.AddResult // one per path segment, root first
}

// Created returns the paths that did not exist before.
func (d *CategoryDelta) Created() []string {
	var out []string
	for _, r := range d.Results {
		if !r.Existed {
			out = append(out, r.Path)
		}
	}
	return out
}

// LeafExisted reports whether the fully specified path was already present.
func (d *CategoryDelta) LeafExisted() bool {
	return len(d.Results) > 0 && d.Results[len(d.Results)-1].Existed
}

// String returns a human-readable representation of the category delta
func (d *CategoryDelta) String() string {
	created := d.Created()
	if len(created) == 0 {
		return fmt.Sprintf("Category %s already exists", d.Path)
	}
	return fmt.Sprintf("Add categories %s", strings.Join(created, ", "))
}

// ReadyToAssignDelta represents replacing a month's ready-to-assign pool.
type ReadyToAssignDelta struct {
	Month    month.Key
	Amount   decimal.Decimal
	Previous decimal.Decimal
	WasSet   bool
}

// String returns a human-readable representation of the ready-to-assign delta
func (d *ReadyToAssignDelta) String() string {
	return fmt.Sprintf("Set ready to assign for %s to %s", d.Month, FormatAmount(d.Amount))
}

// AssignDelta represents budgeting money into a category.
type AssignDelta struct {
	Month       month.Key
	Category    string
	Amount      decimal.Decimal
	Transaction Transaction
}

// String returns a human-readable representation of the assign delta
func (d *AssignDelta) String() string {
	return fmt.Sprintf("Budget %s to %s for %s", FormatAmount(d.Amount), d.Category, d.Month)
}

// SpendDelta represents spending from an account against a category.
type SpendDelta struct {
	Month       month.Key
	Account     string
	Category    string
	Amount      decimal.Decimal // spend magnitude as given
	Transaction Transaction
}

// String returns a human-readable representation of the spend delta
func (d *SpendDelta) String() string {
	return fmt.Sprintf("Spend %s from %s -> %s for %s", FormatAmount(d.Amount), d.Account, d.Category, d.Month)
}

// TransferDelta represents moving money between two accounts.
type TransferDelta struct {
	Month        month.Key
	Source       string
	Destination  string
	Amount       decimal.Decimal
	Transactions [2]Transaction // source debit, destination credit
}

// String returns a human-readable representation of the transfer delta
func (d *TransferDelta) String() string {
	return fmt.Sprintf("Transfer %s from %s to %s for %s", FormatAmount(d.Amount), d.Source, d.Destination, d.Month)
}

// Carry describes one category's contribution to a rollover.
type Carry struct {
	Category  string
	Available decimal.Decimal // source month balance
	Carry     decimal.Decimal // amount added to the destination month
}

// RolloverDelta represents carrying balances from one month into the next.
type RolloverDelta struct {
	From      month.Key
	To        month.Key
	Carries   []Carry // one per category, sorted by path
	Carried   decimal.Decimal
	Overspend decimal.Decimal
}

// String returns a human-readable representation of the rollover delta
func (d *RolloverDelta) String() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Roll forward %s -> %s:\n", d.From, d.To))
	for _, c := range d.Carries {
		sb.WriteString(fmt.Sprintf("  %s: available %s, carry %s\n", c.Category, FormatAmount(c.Available), FormatAmount(c.Carry)))
	}
	sb.WriteString(fmt.Sprintf("  Overspend deducted: %s\n", FormatAmount(d.Overspend)))
	return sb.String()
}
