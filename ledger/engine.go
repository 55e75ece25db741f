package ledger

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/robinvdvleuten/mininab/telemetry"
)

// AddAccount registers a new account. kind must be "bank" or "credit".
func (l *Ledger) AddAccount(ctx context.Context, name, kind string) (*AccountDelta, error) {
	timer := telemetry.StartTimer(ctx, "ledger.add_account")
	defer timer.End()

	errs, delta := newValidator(l).validateAddAccount(name, kind)
	if err := joinErrors(errs); err != nil {
		return nil, err
	}
	l.ApplyAccountDelta(delta)
	return delta, nil
}

// AddCategory ensures the colon-delimited path and all its ancestors exist.
// An already existing path is not an error; callers inspect the delta.
func (l *Ledger) AddCategory(ctx context.Context, path string) (*CategoryDelta, error) {
	timer := telemetry.StartTimer(ctx, "ledger.add_category")
	defer timer.End()

	errs, delta := newValidator(l).validateAddCategory(path)
	if err := joinErrors(errs); err != nil {
		return nil, err
	}
	l.ApplyCategoryDelta(delta)
	return delta, nil
}

// SetReadyToAssign replaces the month's ready-to-assign pool with amount
// rounded to Precision. It does not accumulate and records no transaction.
func (l *Ledger) SetReadyToAssign(ctx context.Context, monthText string, amount decimal.Decimal) (*ReadyToAssignDelta, error) {
	timer := telemetry.StartTimer(ctx, "ledger.set_ready_to_assign")
	defer timer.End()

	errs, delta := newValidator(l).validateSetReadyToAssign(monthText, amount)
	if err := joinErrors(errs); err != nil {
		return nil, err
	}
	l.ApplyReadyToAssignDelta(delta)
	return delta, nil
}

// Assign budgets amount into a category for a month. Negative amounts take
// money back out. The ready-to-assign pool is not checked; assigning more than
// it holds shows up as a negative remaining balance in reports.
func (l *Ledger) Assign(ctx context.Context, monthText, cat string, amount decimal.Decimal) (*AssignDelta, error) {
	timer := telemetry.StartTimer(ctx, "ledger.assign")
	defer timer.End()

	errs, delta := newValidator(l).validateAssign(monthText, cat, amount)
	if err := joinErrors(errs); err != nil {
		return nil, err
	}
	l.ApplyAssignDelta(delta)
	return delta, nil
}

// Spend records amount spent from account against a category. amount is the
// spend magnitude; the recorded transaction carries its negation. Available
// may go negative, which RollForward charges against the next month.
func (l *Ledger) Spend(ctx context.Context, monthText, account, cat string, amount decimal.Decimal) (*SpendDelta, error) {
	timer := telemetry.StartTimer(ctx, "ledger.spend")
	defer timer.End()

	errs, delta := newValidator(l).validateSpend(monthText, account, cat, amount)
	if err := joinErrors(errs); err != nil {
		return nil, err
	}
	l.ApplySpendDelta(delta)
	return delta, nil
}

// Transfer moves amount from src to dst. Budget balances are unaffected.
func (l *Ledger) Transfer(ctx context.Context, monthText, src, dst string, amount decimal.Decimal) (*TransferDelta, error) {
	timer := telemetry.StartTimer(ctx, "ledger.transfer")
	defer timer.End()

	errs, delta := newValidator(l).validateTransfer(monthText, src, dst, amount)
	if err := joinErrors(errs); err != nil {
		return nil, err
	}
	l.ApplyTransferDelta(delta)
	return delta, nil
}

// RollForward carries every category's positive available balance from one
// month into another and deducts the total overspending from the destination
// month's ready-to-assign pool.
//
// RollForward is not idempotent: rolling the same pair twice carries and
// deducts twice. Each application is recorded, see RolloverApplied.
func (l *Ledger) RollForward(ctx context.Context, fromText, toText string) (*RolloverDelta, error) {
	timer := telemetry.StartTimer(ctx, "ledger.roll_forward")
	defer timer.End()

	errs, delta := newValidator(l).validateRollForward(fromText, toText)
	if err := joinErrors(errs); err != nil {
		return nil, err
	}
	l.ApplyRolloverDelta(delta)
	return delta, nil
}

// ApplyAccountDelta mutates ledger state by adding a new account.
func (l *Ledger) ApplyAccountDelta(delta *AccountDelta) {
	acc := delta.Account
	l.accounts[acc.Name] = &acc
}

// ApplyCategoryDelta mutates ledger state by creating missing categories.
func (l *Ledger) ApplyCategoryDelta(delta *CategoryDelta) {
	// Plan already validated the path; Add cannot fail here.
	_, _ = l.categories.Add(delta.Path)
}

// ApplyReadyToAssignDelta mutates ledger state by replacing the month's pool.
func (l *Ledger) ApplyReadyToAssignDelta(delta *ReadyToAssignDelta) {
	l.summaries[delta.Month] = delta.Amount
}

// ApplyAssignDelta mutates ledger state by budgeting into a category.
func (l *Ledger) ApplyAssignDelta(delta *AssignDelta) {
	e := l.entryFor(delta.Month, delta.Category)
	e.Budgeted = e.Budgeted.Add(delta.Amount)
	e.Available = e.Available.Add(delta.Amount)
	l.transactions = append(l.transactions, delta.Transaction)
}

// ApplySpendDelta mutates ledger state by recording spending.
func (l *Ledger) ApplySpendDelta(delta *SpendDelta) {
	e := l.entryFor(delta.Month, delta.Category)
	e.Activity = e.Activity.Sub(delta.Amount)
	e.Available = e.Available.Sub(delta.Amount)
	l.transactions = append(l.transactions, delta.Transaction)
}

// ApplyTransferDelta mutates ledger state by appending both transfer legs.
func (l *Ledger) ApplyTransferDelta(delta *TransferDelta) {
	l.transactions = append(l.transactions, delta.Transactions[0], delta.Transactions[1])
}

// ApplyRolloverDelta mutates ledger state by adding carries to the destination
// month and deducting overspend from its pool. Destination budgeted and
// activity are left as they are.
func (l *Ledger) ApplyRolloverDelta(delta *RolloverDelta) {
	for _, c := range delta.Carries {
		e := l.entryFor(delta.To, c.Category)
		e.Available = e.Available.Add(c.Carry)
	}

	l.summaries[delta.To] = l.summaries[delta.To].Sub(delta.Overspend)

	l.rollovers = append(l.rollovers, Rollover{
		From:      delta.From,
		To:        delta.To,
		Carried:   delta.Carried,
		Overspend: delta.Overspend,
	})
}
