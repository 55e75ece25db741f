// Package command defines the closed set of ledger mutations that can be
// requested by the CLI or the web API.
//
// Each variant validates and applies itself against a ledger and describes
// the outcome in a Result. Variants can be decoded from a tagged JSON
// envelope of the form {"op": "assign", ...}.
package command

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/robinvdvleuten/mininab/ledger"
	"github.com/robinvdvleuten/mininab/month"
)

// Command is a single ledger mutation.
type Command interface {
	// Name returns the op tag of the command.
	Name() string
	// Apply validates the command against l and applies it. On error l is
	// left untouched.
	Apply(ctx context.Context, l *ledger.Ledger) (*Result, error)
}

// Result describes an applied command.
type Result struct {
	Op       string   `json:"op"`
	Messages []string `json:"messages"`
	// Delta is the applied ledger delta. It is not serialized.
	Delta fmt.Stringer `json:"-"`
}

func newResult(op string, delta fmt.Stringer, messages ...string) *Result {
	return &Result{Op: op, Messages: messages, Delta: delta}
}

// Op tags.
const (
	OpAddAccount       = "add_account"
	OpAddCategory      = "add_category"
	OpSetReadyToAssign = "set_ready_to_assign"
	OpAssign           = "assign"
	OpSpend            = "spend"
	OpTransfer         = "transfer"
	OpRollForward      = "roll_forward"
)

func logApplied(ctx context.Context, op string, delta fmt.Stringer) {
	zerolog.Ctx(ctx).Info().Str("op", op).Stringer("delta", delta).Msg("command applied")
}

func logRejected(ctx context.Context, op string, err error) {
	zerolog.Ctx(ctx).Warn().Str("op", op).Err(err).Msg("command rejected")
}

// AddAccount registers an account of the given kind.
type AddAccount struct {
	Account string `json:"name"`
	Kind    string `json:"kind"`
}

// Name implements Command.
func (*AddAccount) Name() string { return OpAddAccount }

// Apply implements Command.
func (c *AddAccount) Apply(ctx context.Context, l *ledger.Ledger) (*Result, error) {
	delta, err := l.AddAccount(ctx, c.Account, c.Kind)
	if err != nil {
		logRejected(ctx, OpAddAccount, err)
		return nil, err
	}
	logApplied(ctx, OpAddAccount, delta)
	return newResult(OpAddAccount, delta,
		fmt.Sprintf("Account '%s' (%s) added.", delta.Account.Name, delta.Account.Kind)), nil
}

// AddCategory ensures a colon-delimited category path exists.
type AddCategory struct {
	Path string `json:"path"`
}

// Name implements Command.
func (*AddCategory) Name() string { return OpAddCategory }

// Apply implements Command. Every segment of the path is reported, so
// "Food:Out" on an empty ledger yields two "added" messages.
func (c *AddCategory) Apply(ctx context.Context, l *ledger.Ledger) (*Result, error) {
	delta, err := l.AddCategory(ctx, c.Path)
	if err != nil {
		logRejected(ctx, OpAddCategory, err)
		return nil, err
	}
	logApplied(ctx, OpAddCategory, delta)

	messages := make([]string, 0, len(delta.Results))
	for i, r := range delta.Results {
		switch {
		case !r.Existed:
			messages = append(messages, fmt.Sprintf("Category '%s' added.", r.Path))
		case i == len(delta.Results)-1:
			messages = append(messages, fmt.Sprintf("Category '%s' already exists.", r.Path))
		}
	}
	return newResult(OpAddCategory, delta, messages...), nil
}

// SetReadyToAssign replaces a month's ready-to-assign pool.
type SetReadyToAssign struct {
	Month  string          `json:"month"`
	Amount decimal.Decimal `json:"amount"`
}

// Name implements Command.
func (*SetReadyToAssign) Name() string { return OpSetReadyToAssign }

// Apply implements Command.
func (c *SetReadyToAssign) Apply(ctx context.Context, l *ledger.Ledger) (*Result, error) {
	delta, err := l.SetReadyToAssign(ctx, c.Month, c.Amount)
	if err != nil {
		logRejected(ctx, OpSetReadyToAssign, err)
		return nil, err
	}
	logApplied(ctx, OpSetReadyToAssign, delta)
	return newResult(OpSetReadyToAssign, delta,
		fmt.Sprintf("TBB for %s = %s", delta.Month, ledger.FormatAmount(delta.Amount))), nil
}

// Assign budgets money into a category.
type Assign struct {
	Month    string          `json:"month"`
	Category string          `json:"category"`
	Amount   decimal.Decimal `json:"amount"`
}

// Name implements Command.
func (*Assign) Name() string { return OpAssign }

// Apply implements Command.
func (c *Assign) Apply(ctx context.Context, l *ledger.Ledger) (*Result, error) {
	delta, err := l.Assign(ctx, c.Month, c.Category, c.Amount)
	if err != nil {
		logRejected(ctx, OpAssign, err)
		return nil, err
	}
	logApplied(ctx, OpAssign, delta)
	return newResult(OpAssign, delta,
		fmt.Sprintf("Budgeted %s to '%s' for %s.", ledger.FormatAmount(delta.Amount), delta.Category, delta.Month)), nil
}

// Spend records spending from an account against a category.
type Spend struct {
	Month    string          `json:"month"`
	Account  string          `json:"account"`
	Category string          `json:"category"`
	Amount   decimal.Decimal `json:"amount"`
}

// Name implements Command.
func (*Spend) Name() string { return OpSpend }

// Apply implements Command.
func (c *Spend) Apply(ctx context.Context, l *ledger.Ledger) (*Result, error) {
	delta, err := l.Spend(ctx, c.Month, c.Account, c.Category, c.Amount)
	if err != nil {
		logRejected(ctx, OpSpend, err)
		return nil, err
	}
	logApplied(ctx, OpSpend, delta)
	return newResult(OpSpend, delta,
		fmt.Sprintf("Spent %s from '%s' → '%s' for %s.", ledger.FormatAmount(delta.Amount), delta.Account, delta.Category, delta.Month)), nil
}

// Transfer moves money between two accounts.
type Transfer struct {
	Month       string          `json:"month"`
	Source      string          `json:"source"`
	Destination string          `json:"destination"`
	Amount      decimal.Decimal `json:"amount"`
}

// Name implements Command.
func (*Transfer) Name() string { return OpTransfer }

// Apply implements Command.
func (c *Transfer) Apply(ctx context.Context, l *ledger.Ledger) (*Result, error) {
	delta, err := l.Transfer(ctx, c.Month, c.Source, c.Destination, c.Amount)
	if err != nil {
		logRejected(ctx, OpTransfer, err)
		return nil, err
	}
	logApplied(ctx, OpTransfer, delta)
	return newResult(OpTransfer, delta,
		fmt.Sprintf("Transferred %s from '%s' to '%s' for %s.", ledger.FormatAmount(delta.Amount), delta.Source, delta.Destination, delta.Month)), nil
}

// RollForward carries category balances from one month into another. An
// empty To means the month after From. Rolling the same pair twice doubles
// the carry, so a repeated pair is refused unless Force is set.
type RollForward struct {
	From  string `json:"from"`
	To    string `json:"to,omitempty"`
	Force bool   `json:"force,omitempty"`
}

// Name implements Command.
func (*RollForward) Name() string { return OpRollForward }

// Target returns the destination month, defaulting to the month after From.
func (c *RollForward) Target() (string, error) {
	if c.To != "" {
		return c.To, nil
	}
	from, err := month.Parse(c.From)
	if err != nil {
		return "", err
	}
	return from.Next().String(), nil
}

// Apply implements Command.
func (c *RollForward) Apply(ctx context.Context, l *ledger.Ledger) (*Result, error) {
	to, err := c.Target()
	if err != nil {
		logRejected(ctx, OpRollForward, err)
		return nil, err
	}

	if !c.Force {
		if err := checkRollover(l, c.From, to); err != nil {
			logRejected(ctx, OpRollForward, err)
			return nil, err
		}
	}

	delta, err := l.RollForward(ctx, c.From, to)
	if err != nil {
		logRejected(ctx, OpRollForward, err)
		return nil, err
	}
	logApplied(ctx, OpRollForward, delta)
	return newResult(OpRollForward, delta,
		fmt.Sprintf("Rolled forward %s → %s; overspend %s deducted from TBB.", delta.From, delta.To, ledger.FormatAmount(delta.Overspend))), nil
}

// checkRollover returns a RolloverAppliedError when the pair has already
// been rolled. Malformed months are left to the ledger to report.
func checkRollover(l *ledger.Ledger, fromText, toText string) error {
	from, err := month.Parse(fromText)
	if err != nil {
		return nil
	}
	to, err := month.Parse(toText)
	if err != nil {
		return nil
	}
	if n := l.RolloverCount(from, to); n > 0 {
		return &ledger.RolloverAppliedError{From: from, To: to, Count: n}
	}
	return nil
}
