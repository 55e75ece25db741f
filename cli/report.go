package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/mattn/go-runewidth"
	"github.com/shopspring/decimal"

	"github.com/robinvdvleuten/mininab/ledger"
	"github.com/robinvdvleuten/mininab/month"
	"github.com/robinvdvleuten/mininab/report"
)

const (
	categoryColumn = 20
	ruleWidth      = 50
)

type RepCmd struct {
	Month string `help:"Month to report on." arg:""`
}

func (cmd *RepCmd) Run(ctx *kong.Context, globals *Globals) error {
	m, err := month.Parse(cmd.Month)
	if err != nil {
		printError(ctx.Stderr, sentence(err.Error()))
		return NewCommandError(1)
	}
	return runQuery(ctx, globals, func(w io.Writer, l *ledger.Ledger) {
		renderMonthReport(w, report.Month(l, m))
	})
}

type ShowCmd struct{}

func (cmd *ShowCmd) Run(ctx *kong.Context, globals *Globals) error {
	return runQuery(ctx, globals, func(w io.Writer, l *ledger.Ledger) {
		renderSummary(w, report.Summarize(l))
	})
}

type TxnsCmd struct {
	Month    string `help:"Only transactions in this month."`
	Account  string `help:"Only transactions on this account."`
	Category string `help:"Only transactions against this category."`
}

func (cmd *TxnsCmd) Run(ctx *kong.Context, globals *Globals) error {
	filter := report.Filter{Account: cmd.Account, Category: cmd.Category}
	if cmd.Month != "" {
		m, err := month.Parse(cmd.Month)
		if err != nil {
			printError(ctx.Stderr, sentence(err.Error()))
			return NewCommandError(1)
		}
		filter.Month = m
	}
	return runQuery(ctx, globals, func(w io.Writer, l *ledger.Ledger) {
		renderTransactions(w, report.Transactions(l, filter))
	})
}

// runQuery loads the ledger and hands it to render. Nothing is saved.
func runQuery(ctx *kong.Context, globals *Globals, render func(io.Writer, *ledger.Ledger)) error {
	s, err := openSession(ctx, globals)
	if err != nil {
		printError(ctx.Stderr, sentence(err.Error()))
		return NewCommandError(1)
	}
	defer s.Close()

	l, err := s.store.Load(s.ctx)
	if err != nil {
		return s.fail(err).AsError()
	}
	render(ctx.Stdout, l)
	return nil
}

func fitColumn(text string, width int) string {
	return runewidth.FillRight(runewidth.Truncate(text, width, ""), width)
}

func amountColumn(d decimal.Decimal, width int) string {
	return fmt.Sprintf("%*s", width, ledger.FormatAmount(d))
}

func renderMonthReport(w io.Writer, r *report.MonthReport) {
	_, _ = fmt.Fprintf(w, "Report for %s\n\n", r.Month)

	_, _ = fmt.Fprintln(w, "Accounts:")
	for _, acc := range r.Accounts {
		_, _ = fmt.Fprintf(w, "  %s (%s)\n", acc.Name, acc.Kind)
	}
	_, _ = fmt.Fprintln(w)

	rule := strings.Repeat("-", ruleWidth)
	_, _ = fmt.Fprintln(w, "Categories:")
	_, _ = fmt.Fprintln(w, "Category               Budg     Actv     Avail")
	_, _ = fmt.Fprintln(w, rule)
	for _, row := range r.Rows {
		label := strings.Repeat("  ", row.Depth) + row.Path
		_, _ = fmt.Fprintf(w, "%s %s %s %s\n",
			fitColumn(label, categoryColumn),
			amountColumn(row.Budgeted, 7),
			amountColumn(row.Activity, 8),
			amountColumn(row.Available, 8),
		)
	}
	_, _ = fmt.Fprintln(w, rule)
	_, _ = fmt.Fprintf(w, "Remaining TBB: %s\n", ledger.FormatAmount(r.Remaining))
}

func renderSummary(w io.Writer, s *report.Summary) {
	_, _ = fmt.Fprintln(w, "Accounts:")
	for _, acc := range s.Accounts {
		_, _ = fmt.Fprintf(w, "  %s: %s (balance %s)\n", acc.Name, acc.Kind, ledger.FormatAmount(acc.Balance))
	}

	_, _ = fmt.Fprintln(w, "\nCategories:")
	for _, c := range s.Categories {
		_, _ = fmt.Fprintf(w, "  %s%s\n", strings.Repeat("  ", c.Depth), c.Path)
	}

	_, _ = fmt.Fprintln(w, "\nMonth Summaries:")
	for _, m := range s.Months {
		_, _ = fmt.Fprintf(w, "  %s: %s\n", m.Month, ledger.FormatAmount(m.ReadyToAssign))
	}
}

func renderTransactions(w io.Writer, txns []ledger.Transaction) {
	if len(txns) == 0 {
		printInfof(w, "No transactions")
		return
	}

	accountWidth, categoryWidth := len("Account"), len("Category")
	for _, t := range txns {
		accountWidth = max(accountWidth, runewidth.StringWidth(orDash(t.Account)))
		categoryWidth = max(categoryWidth, runewidth.StringWidth(orDash(t.Category)))
	}

	_, _ = fmt.Fprintf(w, "%-7s  %s  %s  %10s\n",
		"Month", fitColumn("Account", accountWidth), fitColumn("Category", categoryWidth), "Amount")
	for _, t := range txns {
		_, _ = fmt.Fprintf(w, "%-7s  %s  %s  %s\n",
			t.Month,
			fitColumn(orDash(t.Account), accountWidth),
			fitColumn(orDash(t.Category), categoryWidth),
			amountColumn(t.Amount, 10),
		)
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
