package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/alecthomas/kong"
	"github.com/shopspring/decimal"

	"github.com/robinvdvleuten/mininab/command"
	"github.com/robinvdvleuten/mininab/ledger"
)

type AccCmd struct {
	Name string `help:"Account name." arg:""`
	Type string `help:"Account type: bank or credit." arg:""`
}

func (cmd *AccCmd) Run(ctx *kong.Context, globals *Globals) error {
	return runMutation(ctx, globals, &command.AddAccount{Account: cmd.Name, Kind: cmd.Type})
}

type CatCmd struct {
	Path string `help:"Category path such as Food:Groceries." arg:""`
}

func (cmd *CatCmd) Run(ctx *kong.Context, globals *Globals) error {
	return runMutation(ctx, globals, &command.AddCategory{Path: cmd.Path})
}

type TbbCmd struct {
	Month  string `help:"Month (2024-03, 2024/3, Mar 2024 or March 2024)." arg:""`
	Amount string `help:"Ready-to-assign amount; replaces the current value." arg:""`
}

func (cmd *TbbCmd) Run(ctx *kong.Context, globals *Globals) error {
	amount, err := parseAmountArg(ctx, cmd.Amount)
	if err != nil {
		return err
	}
	return runMutation(ctx, globals, &command.SetReadyToAssign{Month: cmd.Month, Amount: amount})
}

type BudCmd struct {
	Month    string `help:"Month to budget in." arg:""`
	Category string `help:"Category path." arg:""`
	Amount   string `help:"Amount to budget; negative takes money back." arg:""`
}

func (cmd *BudCmd) Run(ctx *kong.Context, globals *Globals) error {
	amount, err := parseAmountArg(ctx, cmd.Amount)
	if err != nil {
		return err
	}
	return runMutation(ctx, globals, &command.Assign{Month: cmd.Month, Category: cmd.Category, Amount: amount})
}

type SpendCmd struct {
	Month    string `help:"Month of the spending." arg:""`
	Account  string `help:"Account the money leaves." arg:""`
	Category string `help:"Category charged." arg:""`
	Amount   string `help:"Amount spent." arg:""`
}

func (cmd *SpendCmd) Run(ctx *kong.Context, globals *Globals) error {
	amount, err := parseAmountArg(ctx, cmd.Amount)
	if err != nil {
		return err
	}
	return runMutation(ctx, globals, &command.Spend{
		Month:    cmd.Month,
		Account:  cmd.Account,
		Category: cmd.Category,
		Amount:   amount,
	})
}

type XferCmd struct {
	Month  string `help:"Month of the transfer." arg:""`
	Src    string `help:"Source account." arg:""`
	Dst    string `help:"Destination account." arg:""`
	Amount string `help:"Amount transferred." arg:""`
}

func (cmd *XferCmd) Run(ctx *kong.Context, globals *Globals) error {
	amount, err := parseAmountArg(ctx, cmd.Amount)
	if err != nil {
		return err
	}
	return runMutation(ctx, globals, &command.Transfer{
		Month:       cmd.Month,
		Source:      cmd.Src,
		Destination: cmd.Dst,
		Amount:      amount,
	})
}

type RollForwardCmd struct {
	From  string `help:"Month to carry balances from." arg:""`
	To    string `help:"Month to carry balances into (defaults to the month after FROM)." arg:"" optional:""`
	Force bool   `help:"Apply even if this rollover was already applied (no confirmation prompt)."`
}

func (cmd *RollForwardCmd) Run(ctx *kong.Context, globals *Globals) error {
	return runMutation(ctx, globals, &command.RollForward{From: cmd.From, To: cmd.To, Force: cmd.Force})
}

func parseAmountArg(ctx *kong.Context, text string) (decimal.Decimal, error) {
	amount, err := ledger.ParseAmount(text)
	if err != nil {
		printError(ctx.Stderr, sentence(err.Error()))
		return decimal.Zero, NewCommandError(1)
	}
	return amount, nil
}

// runMutation loads the ledger, applies cmd and saves the result.
func runMutation(ctx *kong.Context, globals *Globals, cmd command.Command) error {
	s, err := openSession(ctx, globals)
	if err != nil {
		printError(ctx.Stderr, sentence(err.Error()))
		return NewCommandError(1)
	}
	defer s.Close()

	return s.mutate(ctx.Stdout, cmd).AsError()
}

func (s *session) mutate(stdout io.Writer, cmd command.Command) CommandResult {
	l, err := s.store.Load(s.ctx)
	if err != nil {
		return s.fail(err)
	}

	res, err := cmd.Apply(s.ctx, l)

	var applied *ledger.RolloverAppliedError
	if errors.As(err, &applied) {
		res, err = s.confirmRollover(l, cmd, applied)
	}
	if err != nil {
		return s.fail(err)
	}

	if err := s.store.Save(s.ctx, l); err != nil {
		return s.fail(err)
	}

	for _, msg := range res.Messages {
		printSuccess(stdout, msg)
	}
	return Success()
}

// confirmRollover asks whether an already applied rollover should be
// applied again, retrying with Force when confirmed.
func (s *session) confirmRollover(l *ledger.Ledger, cmd command.Command, applied *ledger.RolloverAppliedError) (*command.Result, error) {
	rf, ok := cmd.(*command.RollForward)
	if !ok {
		return nil, applied
	}

	question := fmt.Sprintf("Rollover %s → %s was already applied %d time(s). Apply it again?", applied.From, applied.To, applied.Count)
	confirmed, err := confirmFunc(question)
	if err != nil {
		return nil, err
	}
	if !confirmed {
		return nil, applied
	}

	s.log().Warn().Str("from", applied.From.String()).Str("to", applied.To.String()).Msg("re-applying rollover")
	forced := *rf
	forced.Force = true
	return forced.Apply(s.ctx, l)
}

func (s *session) fail(err error) CommandResult {
	s.log().Error().Err(err).Msg("command failed")
	_, _ = fmt.Fprintf(s.stderr, "%s %s\n",
		errorStyle.Render(errorSymbol),
		NewErrorRenderer(true).Render(err),
	)
	return Failure(err)
}
