package ledger

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/robinvdvleuten/mininab/category"
	"github.com/robinvdvleuten/mininab/month"
)

// Validation Architecture
//
//   Ledger.Spend(month, account, category, amount)
//     ↓
//   validator.validateSpend(...) → ([]error, *SpendDelta)
//     ├─ parseMonth()           // month text normalizes to YYYY-MM
//     ├─ validateAccount()      // account exists
//     └─ validateCategory()     // category exists
//     ↓
//   Ledger.applySpend(delta)
//     └─ Update entry balances, append transaction
//
// All other operations follow the same shape. Validators collect every
// failing rule instead of stopping at the first, and never touch state.

// validator checks operations with read-only access to ledger state.
// This is a separate type from Ledger to ensure validation cannot mutate state.
type validator struct {
	accounts   map[string]*Account
	categories *category.Tree
	entries    map[EntryKey]*Entry
	summaries  map[month.Key]decimal.Decimal
}

// newValidator creates a validator with a read-only view of the current ledger state
func newValidator(l *Ledger) *validator {
	return &validator{
		accounts:   l.accounts,
		categories: l.categories,
		entries:    l.entries,
		summaries:  l.summaries,
	}
}

// parseMonth normalizes month text, appending any error to errs.
func (v *validator) parseMonth(text string, errs *[]error) month.Key {
	m, err := month.Parse(text)
	if err != nil {
		*errs = append(*errs, err)
	}
	return m
}

func (v *validator) validateAccount(name string) error {
	if _, ok := v.accounts[name]; !ok {
		return &UnknownAccountError{Account: name}
	}
	return nil
}

func (v *validator) validateCategory(path string) error {
	if !v.categories.Has(path) {
		return &UnknownCategoryError{Category: path}
	}
	return nil
}

func (v *validator) validateAddAccount(name, kind string) ([]error, *AccountDelta) {
	var errs []error
	if strings.TrimSpace(name) == "" {
		errs = append(errs, &InvalidAccountNameError{Name: name})
	} else if _, exists := v.accounts[name]; exists {
		errs = append(errs, &DuplicateAccountError{Account: name})
	}
	k, ok := ParseAccountKind(kind)
	if !ok {
		errs = append(errs, &InvalidAccountKindError{Kind: kind})
	}
	if len(errs) > 0 {
		return errs, nil
	}
	return nil, &AccountDelta{Account: Account{Name: name, Kind: k}}
}

func (v *validator) validateAddCategory(path string) ([]error, *CategoryDelta) {
	results, err := v.categories.Plan(path)
	if err != nil {
		return []error{err}, nil
	}
	return nil, &CategoryDelta{Path: results[len(results)-1].Path, Results: results}
}

func (v *validator) validateSetReadyToAssign(monthText string, amount decimal.Decimal) ([]error, *ReadyToAssignDelta) {
	var errs []error
	m := v.parseMonth(monthText, &errs)
	if len(errs) > 0 {
		return errs, nil
	}
	prev, wasSet := v.summaries[m]
	return nil, &ReadyToAssignDelta{Month: m, Amount: Round(amount), Previous: prev, WasSet: wasSet}
}

func (v *validator) validateAssign(monthText, cat string, amount decimal.Decimal) ([]error, *AssignDelta) {
	var errs []error
	m := v.parseMonth(monthText, &errs)
	if err := v.validateCategory(cat); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return errs, nil
	}

	amt := Round(amount)
	return nil, &AssignDelta{
		Month:       m,
		Category:    cat,
		Amount:      amt,
		Transaction: Transaction{Month: m, Category: cat, Amount: amt},
	}
}

func (v *validator) validateSpend(monthText, account, cat string, amount decimal.Decimal) ([]error, *SpendDelta) {
	var errs []error
	m := v.parseMonth(monthText, &errs)
	if err := v.validateAccount(account); err != nil {
		errs = append(errs, err)
	}
	if err := v.validateCategory(cat); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return errs, nil
	}

	amt := Round(amount)
	return nil, &SpendDelta{
		Month:       m,
		Account:     account,
		Category:    cat,
		Amount:      amt,
		Transaction: Transaction{Month: m, Account: account, Category: cat, Amount: amt.Neg()},
	}
}

func (v *validator) validateTransfer(monthText, src, dst string, amount decimal.Decimal) ([]error, *TransferDelta) {
	var errs []error
	m := v.parseMonth(monthText, &errs)
	if err := v.validateAccount(src); err != nil {
		errs = append(errs, err)
	}
	if dst != src {
		if err := v.validateAccount(dst); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return errs, nil
	}

	amt := Round(amount)
	return nil, &TransferDelta{
		Month:       m,
		Source:      src,
		Destination: dst,
		Amount:      amt,
		Transactions: [2]Transaction{
			{Month: m, Account: src, Amount: amt.Neg()},
			{Month: m, Account: dst, Amount: amt},
		},
	}
}

// validateRollForward computes the carry for every known category. Categories
// without an entry in the source month count as zero.
func (v *validator) validateRollForward(fromText, toText string) ([]error, *RolloverDelta) {
	var errs []error
	from := v.parseMonth(fromText, &errs)
	to := v.parseMonth(toText, &errs)
	if len(errs) > 0 {
		return errs, nil
	}

	delta := &RolloverDelta{From: from, To: to}
	for _, path := range v.categories.Paths() {
		available := decimal.Zero
		if e, ok := v.entries[EntryKey{Month: from, Category: path}]; ok {
			available = e.Available
		}

		carry := decimal.Zero
		if available.IsPositive() {
			carry = available
		} else if available.IsNegative() {
			delta.Overspend = delta.Overspend.Add(available.Neg())
		}

		delta.Carried = delta.Carried.Add(carry)
		delta.Carries = append(delta.Carries, Carry{Category: path, Available: available, Carry: carry})
	}
	return nil, delta
}
