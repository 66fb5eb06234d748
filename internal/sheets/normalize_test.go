package sheets

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"finsight/internal/core"
)

func TestParseBudget_BothGroupsIndependently(t *testing.T) {
	rows := [][]string{
		// expense and income on the same row
		{"Apr/25", "Housing", "Rent", "₹25,000", "", "Apr/25", "1,00,000", "0", "0", "(2,000)", "1,00,000", "70,000", "30,000"},
		// expense only
		{"Apr/25", "Food", "Groceries", "8,500"},
		// income only
		{"", "", "", "", "", "May/25", "1,20,000", "", "", "", "1,20,000", "80,000", "40,000"},
		// fully blank
		{"", "", "", "", "", "", "", ""},
	}

	got, rejected := ParseBudget(rows)
	if len(rejected) != 0 {
		t.Fatalf("unexpected rejected rows: %v", rejected)
	}
	if len(got.Expenses) != 2 {
		t.Fatalf("expenses: got %d, want 2", len(got.Expenses))
	}
	if len(got.Income) != 2 {
		t.Fatalf("income: got %d, want 2", len(got.Income))
	}

	rent := got.Expenses[0]
	if rent.Category != "Housing" || rent.Breakdown != "Rent" || !rent.Amount.Equal(decimal.NewFromInt(25000)) {
		t.Errorf("unexpected expense: %+v", rent)
	}
	if rent.Year != 2025 || rent.Period() != (core.YearMonth{Year: 2025, Month: time.April}) {
		t.Errorf("unexpected expense period: %+v", rent.Period())
	}

	may := got.Income[1]
	if may.Month != "May/25" || !may.TotalSavings.Equal(decimal.NewFromInt(40000)) {
		t.Errorf("unexpected income: %+v", may)
	}
	if !got.Income[0].OtherTaxDeduction.Equal(decimal.NewFromInt(-2000)) {
		t.Errorf("tax deduction: got %s", got.Income[0].OtherTaxDeduction)
	}
}

func TestParseExpenses_RowLocalFailures(t *testing.T) {
	rows := [][]string{
		{"Month", "Category", "Breakdown", "Amount"},
		{"Jun/25", "Transport", "", "500"},
		{"Jun/25", "Transport", "Fuel", "-500"},
		{"Jun/25", "Transport", "Metro", "n/a"},
		{"Jun/25", "Transport", "Cab", "1,200"},
	}

	got, rejected := ParseExpenses(rows)
	if len(got) != 2 {
		t.Fatalf("got %d expenses, want 2: %+v", len(got), got)
	}
	if !got[0].Amount.IsZero() {
		t.Errorf("malformed amount should default to zero, got %s", got[0].Amount)
	}
	if got[1].Breakdown != "Cab" {
		t.Errorf("unexpected second expense: %+v", got[1])
	}

	if len(rejected) != 3 {
		t.Fatalf("got %d rejected rows, want 3: %v", len(rejected), rejected)
	}
	if !errors.Is(rejected[0], core.ErrInvalidMonthLabel) {
		t.Errorf("header row: got %v, want ErrInvalidMonthLabel", rejected[0])
	}
	if !errors.Is(rejected[1], ErrMissingField) {
		t.Errorf("row without breakdown: got %v, want ErrMissingField", rejected[1])
	}
	if !errors.Is(rejected[2], ErrNegativeAmount) {
		t.Errorf("negative row: got %v, want ErrNegativeAmount", rejected[2])
	}
	if rejected[1].Row != 1 {
		t.Errorf("row index: got %d, want 1", rejected[1].Row)
	}
}

func TestParseEarnings(t *testing.T) {
	rows := [][]string{
		{"Month", "Employer", "Gross", "Tax", "PF", "Other", "Net"},
		{"Jly-24", "Acme", "2,00,000", "40,000", "12,000", "200", "1,47,800"},
		{"Aug 2024", "Acme", "2,00,000", "40,000", "12,000", "200", "1,47,800"},
	}
	got, rejected := ParseEarnings(rows)
	if len(got) != 2 {
		t.Fatalf("got %d records, want 2", len(got))
	}
	if len(rejected) != 1 {
		t.Fatalf("got %d rejected, want 1 (header)", len(rejected))
	}
	if got[0].Period() != (core.YearMonth{Year: 2024, Month: time.July}) {
		t.Errorf("jly alias: got %+v", got[0].Period())
	}
	if !got[0].NetPay.Equal(decimal.NewFromInt(147800)) {
		t.Errorf("net pay: got %s", got[0].NetPay)
	}
}

func TestParseOtherIncome(t *testing.T) {
	rows := [][]string{
		{"Description", "Status", "FY", "Invoice Date", "USD", "Estimate INR", "Actual INR", "Rate", "Category"},
		{"Go Concurrency Course", "Received", "FY 2023-24", "1/15/2024", "$1,000", "83,000", "83,500", "83.5", ""},
		{"Book royalties Q1", "Pending", "FY 2024-25", "4/10/2024", "200", "16,600", "", "", ""},
		{"Referral", "Received", "FY 2024-25", "5/2/2024", "50", "4,150", "4,150", "83", "Misc"},
	}
	got, rejected := ParseOtherIncome(rows)
	if len(rejected) != 1 || !errors.Is(rejected[0], ErrHeaderRow) {
		t.Fatalf("expected header row rejection, got %v", rejected)
	}
	if len(got) != 3 {
		t.Fatalf("got %d entries, want 3", len(got))
	}
	want := []core.IncomeCategory{core.IncomeCourse, core.IncomeRoyalty, core.IncomeMiscellaneous}
	for i, w := range want {
		if got[i].Category != w {
			t.Errorf("entry %d category: got %s, want %s", i, got[i].Category, w)
		}
	}
	if !got[0].INR().Equal(decimal.NewFromInt(83500)) {
		t.Errorf("INR prefers actual: got %s", got[0].INR())
	}
	if !got[1].INR().Equal(decimal.NewFromInt(16600)) {
		t.Errorf("INR falls back to estimate: got %s", got[1].INR())
	}
}

func TestRowError_Message(t *testing.T) {
	err := RowError{Layout: "expense", Row: 4, Err: ErrMissingField}
	if got, want := err.Error(), "expense row 5: missing required field"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}
