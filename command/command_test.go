package command

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/alecthomas/assert/v2"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/robinvdvleuten/mininab/ledger"
	"github.com/robinvdvleuten/mininab/month"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func apply(t *testing.T, l *ledger.Ledger, cmds ...Command) []*Result {
	t.Helper()
	results := make([]*Result, 0, len(cmds))
	for _, cmd := range cmds {
		res, err := cmd.Apply(context.Background(), l)
		assert.NoError(t, err, "%s", cmd.Name())
		results = append(results, res)
	}
	return results
}

func TestApply_Messages(t *testing.T) {
	l := ledger.New()
	results := apply(t, l,
		&AddAccount{Account: "Checking", Kind: "bank"},
		&AddCategory{Path: "Food:Out"},
		&AddCategory{Path: "Food:Out"},
		&SetReadyToAssign{Month: "2024-03", Amount: dec("500")},
		&Assign{Month: "2024-03", Category: "Food:Out", Amount: dec("200")},
		&Spend{Month: "2024-03", Account: "Checking", Category: "Food:Out", Amount: dec("50.5")},
		&Transfer{Month: "2024-03", Source: "Checking", Destination: "Checking", Amount: dec("1")},
	)

	got := make([]string, 0)
	for _, r := range results {
		got = append(got, r.Messages...)
	}
	assert.Equal(t, []string{
		"Account 'Checking' (bank) added.",
		"Category 'Food' added.",
		"Category 'Food:Out' added.",
		"Category 'Food:Out' already exists.",
		"TBB for 2024-03 = 500.00",
		"Budgeted 200.00 to 'Food:Out' for 2024-03.",
		"Spent 50.50 from 'Checking' → 'Food:Out' for 2024-03.",
		"Transferred 1.00 from 'Checking' to 'Checking' for 2024-03.",
	}, got)
}

func TestApply_Rejected(t *testing.T) {
	l := ledger.New()
	cmd := &Spend{Month: "2024-03", Account: "Ghost", Category: "Food", Amount: dec("1")}

	_, err := cmd.Apply(context.Background(), l)

	var accErr *ledger.UnknownAccountError
	assert.True(t, errors.As(err, &accErr))
	assert.Equal(t, 0, len(l.Transactions()))
}

func TestApply_LogsThroughContext(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)
	ctx := logger.WithContext(context.Background())

	_, err := (&AddAccount{Account: "Cash", Kind: "bank"}).Apply(ctx, ledger.New())
	assert.NoError(t, err)
	_, err = (&AddAccount{Account: "Cash", Kind: "wallet"}).Apply(ctx, ledger.New())
	assert.Error(t, err)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Equal(t, 2, len(lines))
	assert.Contains(t, lines[0], `"op":"add_account"`)
	assert.Contains(t, lines[0], `"message":"command applied"`)
	assert.Contains(t, lines[1], `"level":"warn"`)
}

func TestRollForward(t *testing.T) {
	setup := func(t *testing.T) *ledger.Ledger {
		l := ledger.New()
		apply(t, l,
			&AddAccount{Account: "Checking", Kind: "bank"},
			&AddCategory{Path: "Groceries"},
			&AddCategory{Path: "Rent"},
			&Assign{Month: "2024-01", Category: "Groceries", Amount: dec("10")},
			&Spend{Month: "2024-01", Account: "Checking", Category: "Groceries", Amount: dec("25")},
			&Assign{Month: "2024-01", Category: "Rent", Amount: dec("40")},
		)
		return l
	}

	t.Run("defaults to next month", func(t *testing.T) {
		l := setup(t)
		res := apply(t, l, &RollForward{From: "Dec 2023"})
		assert.Equal(t, []string{"Rolled forward 2023-12 → 2024-01; overspend 0.00 deducted from TBB."}, res[0].Messages)
		assert.True(t, l.RolloverApplied("2023-12", "2024-01"))
	})

	t.Run("reports overspend", func(t *testing.T) {
		l := setup(t)
		res := apply(t, l, &RollForward{From: "2024-01", To: "2024-02"})
		assert.Equal(t, []string{"Rolled forward 2024-01 → 2024-02; overspend 15.00 deducted from TBB."}, res[0].Messages)

		tbb, ok := l.ReadyToAssign("2024-02")
		assert.True(t, ok)
		assert.Equal(t, "-15.00", ledger.FormatAmount(tbb))
	})

	t.Run("refuses repeated pair", func(t *testing.T) {
		l := setup(t)
		apply(t, l, &RollForward{From: "2024-01"})
		before := l.Snapshot()

		_, err := (&RollForward{From: "Jan 2024", To: "2024/2"}).Apply(context.Background(), l)

		var applied *ledger.RolloverAppliedError
		assert.True(t, errors.As(err, &applied))
		assert.Equal(t, month.Key("2024-01"), applied.From)
		assert.Equal(t, month.Key("2024-02"), applied.To)
		assert.Equal(t, 1, applied.Count)
		assert.Equal(t, len(before.Rollovers), len(l.Rollovers()))
	})

	t.Run("force applies again", func(t *testing.T) {
		l := setup(t)
		apply(t, l,
			&RollForward{From: "2024-01"},
			&RollForward{From: "2024-01", Force: true},
		)
		assert.Equal(t, 2, l.RolloverCount("2024-01", "2024-02"))

		rent, ok := l.Entry("2024-02", "Rent")
		assert.True(t, ok)
		assert.Equal(t, "80.00", ledger.FormatAmount(rent.Available))
	})

	t.Run("malformed month", func(t *testing.T) {
		_, err := (&RollForward{From: "13/2024"}).Apply(context.Background(), setup(t))
		var fmtErr *month.FormatError
		assert.True(t, errors.As(err, &fmtErr))
	})
}
