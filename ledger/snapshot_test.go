package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/alecthomas/assert/v2"
)

func TestSnapshot_RoundTrip(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t)
	_, err := l.SetReadyToAssign(ctx, "2024-01", dec("100"))
	assert.NoError(t, err)
	_, err = l.Assign(ctx, "2024-01", "Home:Power", dec("30"))
	assert.NoError(t, err)
	_, err = l.Transfer(ctx, "2024-01", "Checking", "Visa", dec("12"))
	assert.NoError(t, err)
	_, err = l.RollForward(ctx, "2024-01", "2024-02")
	assert.NoError(t, err)

	raw, err := json.Marshal(l.Snapshot())
	assert.NoError(t, err)

	var s Snapshot
	assert.NoError(t, json.Unmarshal(raw, &s))

	restored, err := FromSnapshot(&s)
	assert.NoError(t, err)
	assert.Equal(t, stateJSON(t, l), stateJSON(t, restored))
	assert.True(t, restored.RolloverApplied("2024-01", "2024-02"))

	power, ok := restored.Entry("2024-02", "Home:Power")
	assert.True(t, ok)
	assertAmount(t, "30.00", power.Available)
}

func TestSnapshot_EmptyShape(t *testing.T) {
	raw, err := json.Marshal(New().Snapshot())
	assert.NoError(t, err)
	assert.Equal(t,
		`{"accounts":{},"categories":{},"month_summary":{},"category_month":{},"transactions":[]}`,
		string(raw))
}

func TestSnapshot_NullableFields(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t)
	_, err := l.Assign(ctx, "2024-01", "Food", dec("5"))
	assert.NoError(t, err)

	s := l.Snapshot()
	assert.True(t, s.Transactions[0].Account == nil)
	assert.Equal(t, "Food", *s.Transactions[0].Category)
	assert.True(t, s.Categories["Home"].Parent == nil)
	assert.Equal(t, "Home", *s.Categories["Home:Power"].Parent)
}

func TestFromSnapshot_ClassicFile(t *testing.T) {
	// State written by the classic tool: float amounts, null optionals.
	raw := `{
  "accounts": {"Checking": {"type": "bank"}},
  "categories": {"Food": {"parent": null}, "Food:Out": {"parent": "Food"}},
  "month_summary": {"2024-03": {"ready_to_assign": 500.0}},
  "category_month": {"2024-03": {"Food": {"budgeted": 200.0, "activity": -50.0, "available": 150.0}}},
  "transactions": [
    {"month": "2024-03", "account": null, "category": "Food", "amount": 200.0},
    {"month": "2024-03", "account": "Checking", "category": "Food", "amount": -50.0}
  ]
}`
	var s Snapshot
	assert.NoError(t, json.Unmarshal([]byte(raw), &s))

	l, err := FromSnapshot(&s)
	assert.NoError(t, err)

	e, ok := l.Entry("2024-03", "Food")
	assert.True(t, ok)
	assertAmount(t, "150.00", e.Available)
	assert.Equal(t, 2, len(l.Transactions()))
	assert.Equal(t, "", l.Transactions()[0].Account)
	assert.True(t, l.HasCategory("Food:Out"))
}

func TestFromSnapshot_RoundsClassicFloats(t *testing.T) {
	raw := `{
  "accounts": {"Checking": {"type": "bank"}},
  "categories": {"Food": {"parent": null}},
  "month_summary": {"2024-03": {"ready_to_assign": 0.30000000000000004}},
  "category_month": {"2024-03": {"Food": {"budgeted": 0.1, "activity": -0.20000000000000001, "available": 0.30000000000000004}}},
  "transactions": [
    {"month": "2024-03", "account": "Checking", "category": "Food", "amount": -0.30000000000000004}
  ],
  "rollovers": [
    {"from": "2024-02", "to": "2024-03", "carried": 1.005, "overspend": 0.004}
  ]
}`
	var s Snapshot
	assert.NoError(t, json.Unmarshal([]byte(raw), &s))

	l, err := FromSnapshot(&s)
	assert.NoError(t, err)

	e, ok := l.Entry("2024-03", "Food")
	assert.True(t, ok)
	assert.True(t, e.Available.Equal(dec("0.3")), "available = %s", e.Available)
	assert.True(t, e.Activity.Equal(dec("-0.2")), "activity = %s", e.Activity)

	tbb, ok := l.ReadyToAssign("2024-03")
	assert.True(t, ok)
	assert.True(t, tbb.Equal(dec("0.3")), "ready to assign = %s", tbb)

	assert.True(t, l.Transactions()[0].Amount.Equal(dec("-0.3")))

	rollovers := l.Rollovers()
	assert.Equal(t, 1, len(rollovers))
	assert.True(t, rollovers[0].Carried.Equal(dec("1.01")), "carried = %s", rollovers[0].Carried)
	assert.True(t, rollovers[0].Overspend.IsZero(), "overspend = %s", rollovers[0].Overspend)

	_, err = l.RollForward(context.Background(), "2024-03", "2024-04")
	assert.NoError(t, err)
	next, ok := l.Entry("2024-04", "Food")
	assert.True(t, ok)
	assert.True(t, next.Available.Equal(dec("0.3")), "carried available = %s", next.Available)
}

func TestSnapshot_AmountsAreBareNumbers(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t)
	_, err := l.SetReadyToAssign(ctx, "2024-03", dec("500"))
	assert.NoError(t, err)
	_, err = l.Spend(ctx, "2024-03", "Checking", "Food", dec("12.5"))
	assert.NoError(t, err)

	raw := stateJSON(t, l)
	assert.Contains(t, raw, `"ready_to_assign":500.00`)
	assert.Contains(t, raw, `"activity":-12.50`)
	assert.Contains(t, raw, `"amount":-12.50`)
	assert.NotContains(t, raw, `"500"`)

	var generic map[string]any
	assert.NoError(t, json.Unmarshal([]byte(raw), &generic))
	summary := generic["month_summary"].(map[string]any)["2024-03"].(map[string]any)
	assert.Equal(t, 500.0, summary["ready_to_assign"].(float64))
}

func TestFromSnapshot_AcceptsQuotedAmounts(t *testing.T) {
	raw := `{"accounts":{},"categories":{"Food":{"parent":null}},
  "month_summary":{"2024-03":{"ready_to_assign":"500"}},
  "category_month":{"2024-03":{"Food":{"budgeted":"20","activity":"0","available":"20"}}},
  "transactions":[]}`
	var s Snapshot
	assert.NoError(t, json.Unmarshal([]byte(raw), &s))

	l, err := FromSnapshot(&s)
	assert.NoError(t, err)
	tbb, _ := l.ReadyToAssign("2024-03")
	assertAmount(t, "500.00", tbb)
}

func TestFromSnapshot_Corrupt(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Snapshot)
	}{
		{"invalid account type", func(s *Snapshot) {
			s.Accounts["Cash"] = AccountRecord{Type: "wallet"}
		}},
		{"missing parent", func(s *Snapshot) {
			parent := "Ghost"
			s.Categories["Ghost:Child"] = CategoryRecord{Parent: &parent}
		}},
		{"parent is not the path prefix", func(s *Snapshot) {
			parent := "Food"
			s.Categories["Rent:Deposit"] = CategoryRecord{Parent: &parent}
		}},
		{"entry for unknown category", func(s *Snapshot) {
			s.CategoryMonth["2024-01"] = map[string]EntryRecord{"Nope": {}}
		}},
		{"malformed month key", func(s *Snapshot) {
			s.MonthSummary["Jan 2024"] = SummaryRecord{}
		}},
		{"malformed transaction month", func(s *Snapshot) {
			s.Transactions = append(s.Transactions, TransactionRecord{Month: "2024"})
		}},
		{"malformed rollover month", func(s *Snapshot) {
			s.Rollovers = append(s.Rollovers, RolloverRecord{From: "2024-01", To: "soon"})
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestLedger(t).Snapshot()
			tt.mutate(s)

			_, err := FromSnapshot(s)
			var cerr *CorruptStateError
			assert.True(t, errors.As(err, &cerr), "should be CorruptStateError, got %v", err)
		})
	}
}

func TestFromSnapshot_Nil(t *testing.T) {
	l, err := FromSnapshot(nil)
	assert.NoError(t, err)
	assert.Equal(t, 0, len(l.Accounts()))
}
