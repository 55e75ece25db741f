package cli

import (
	"fmt"

	"github.com/alecthomas/kong"
)

// CheckCmd loads the ledger, which validates every persisted invariant, and
// reports what it holds. Nothing is written.
type CheckCmd struct{}

func (cmd *CheckCmd) Run(ctx *kong.Context, globals *Globals) error {
	s, err := openSession(ctx, globals)
	if err != nil {
		printError(ctx.Stderr, sentence(err.Error()))
		return NewCommandError(1)
	}
	defer s.Close()

	l, err := s.store.Load(s.ctx)
	if err != nil {
		_ = s.fail(err)
		_, _ = fmt.Fprintln(ctx.Stderr)
		printError(ctx.Stderr, "Check failed")
		return NewCommandError(1)
	}

	printSuccess(ctx.Stdout, fmt.Sprintf("Check passed: %d account(s), %d category(ies), %d month(s), %d transaction(s), %d rollover(s)",
		len(l.Accounts()), len(l.Categories()), len(l.Months()), len(l.Transactions()), len(l.Rollovers())))
	return nil
}
