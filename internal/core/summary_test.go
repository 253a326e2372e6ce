package core

import (
	"reflect"
	"testing"

	"github.com/shopspring/decimal"
)

func tx(ct CategoryType, amount string) Transaction {
	return Transaction{Amount: MustAmount(amount), Category: Category{Type: ct}}
}

func TestAggregate(t *testing.T) {
	totals := Aggregate([]Transaction{
		tx(Income, "3000"),
		tx(Income, "0.10"),
		tx(FixedExpense, "800"),
		tx(VariableExpense, "0.20"),
		tx(AdditionalExpense, "150"),
		tx("UNKNOWN", "999"),
	})
	checks := []struct {
		name string
		got  decimal.Decimal
		want string
	}{
		{"income", totals.Income, "3000.10"},
		{"fixed", totals.FixedExpenses, "800"},
		{"variable", totals.VariableExpenses, "0.20"},
		{"additional", totals.AdditionalExpenses, "150"},
		{"expenses", totals.Expenses, "950.20"},
		{"balance", totals.Balance(), "2049.90"},
	}
	for _, c := range checks {
		if !c.got.Equal(decimal.RequireFromString(c.want)) {
			t.Errorf("%s = %s, want %s", c.name, c.got, c.want)
		}
	}
}

func TestTotalsByType(t *testing.T) {
	totals := Aggregate([]Transaction{
		tx(Income, "2500"),
		tx(FixedExpense, "700"),
		tx(VariableExpense, "120.55"),
		tx(VariableExpense, "30"),
		tx(AdditionalExpense, "45"),
		tx("UNKNOWN", "10"),
	})
	tests := []struct {
		ct   CategoryType
		want string
	}{
		{Income, "2500"},
		{FixedExpense, "700"},
		{VariableExpense, "150.55"},
		{AdditionalExpense, "45"},
		{"UNKNOWN", "0"},
	}
	sum := decimal.Zero
	for _, tt := range tests {
		t.Run(string(tt.ct), func(t *testing.T) {
			got := totals.ByType(tt.ct)
			if !got.Equal(decimal.RequireFromString(tt.want)) {
				t.Errorf("ByType(%s) = %s, want %s", tt.ct, got, tt.want)
			}
		})
		if tt.ct.IsExpense() {
			sum = sum.Add(totals.ByType(tt.ct))
		}
	}
	if !sum.Equal(totals.Expenses) {
		t.Errorf("expense buckets sum to %s, Expenses = %s", sum, totals.Expenses)
	}
}

func TestAggregateEmpty(t *testing.T) {
	totals := Aggregate(nil)
	if !totals.IsEmpty() || !totals.Expenses.IsZero() {
		t.Fatalf("expected zero totals, got %+v", totals)
	}
}

func TestHealthScore(t *testing.T) {
	cases := []struct {
		income, expenses string
		want             int
	}{
		{"0", "0", 0},
		{"0", "100", 0},
		{"5000", "3000", 40},
		{"1000", "0", 100},
		{"1000", "2000", 0},
		{"200", "99", 51},    // 50.5
		{"200", "101", 50},   // 49.5
		{"200", "100.9", 50}, // 49.55
		{"3", "2", 33},
	}
	for _, tc := range cases {
		got := HealthScore(MustAmount(tc.income), MustAmount(tc.expenses))
		if got != tc.want {
			t.Errorf("HealthScore(%s, %s) = %d, want %d", tc.income, tc.expenses, got, tc.want)
		}
	}
}

func TestSuggestions(t *testing.T) {
	cases := []struct {
		name   string
		totals []Transaction
		want   []string
	}{
		{
			name:   "nothing recorded",
			totals: nil,
			want:   []string{MsgOverspending, MsgRecordIncome},
		},
		{
			name:   "income only",
			totals: []Transaction{tx(Income, "1000")},
			want:   []string{MsgExcellentSavings, MsgRecordExpenses},
		},
		{
			name:   "expenses without income",
			totals: []Transaction{tx(VariableExpense, "50")},
			want:   []string{MsgOverspending, MsgRecordIncome},
		},
		{
			name:   "high expense ratio with fixed and variable warnings",
			totals: []Transaction{tx(Income, "1000"), tx(FixedExpense, "510"), tx(VariableExpense, "410")},
			want:   []string{MsgHighExpenses, MsgHighFixed, MsgHighVariable, MsgPositiveBalance},
		},
		{
			name:   "moderate ratio and good savings",
			totals: []Transaction{tx(Income, "1000"), tx(FixedExpense, "850")},
			want:   []string{MsgModerateExpenses, MsgHighFixed, MsgGoodSavings},
		},
		{
			name:   "exactly 80 percent is not moderate",
			totals: []Transaction{tx(Income, "1000"), tx(AdditionalExpense, "800")},
			want:   []string{MsgExcellentSavings},
		},
		{
			name:   "overspending",
			totals: []Transaction{tx(Income, "1000"), tx(AdditionalExpense, "1200")},
			want:   []string{MsgHighExpenses, MsgOverspending},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Suggestions(Aggregate(tc.totals))
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("got %q\nwant %q", got, tc.want)
			}
		})
	}
}

func TestSummarizeScenario(t *testing.T) {
	s := Summarize([]Transaction{
		tx(Income, "5000"),
		tx(FixedExpense, "2000"),
		tx(VariableExpense, "1000"),
	})
	if s.HealthScore != 40 {
		t.Fatalf("score = %d, want 40", s.HealthScore)
	}
	if !reflect.DeepEqual(s.Suggestions, []string{MsgExcellentSavings}) {
		t.Fatalf("suggestions = %q", s.Suggestions)
	}
	if !s.Balance.Equal(decimal.NewFromInt(2000)) {
		t.Fatalf("balance = %s", s.Balance)
	}
}

func TestSumAssets(t *testing.T) {
	got := SumAssets([]Asset{{Value: MustAmount("10.50")}, {Value: MustAmount("0")}, {Value: MustAmount("4.50")}})
	if !got.Equal(decimal.NewFromInt(15)) {
		t.Fatalf("SumAssets = %s", got)
	}
}
