package core

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func dec(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func TestIsComplete(t *testing.T) {
	now := time.Date(2025, time.October, 15, 0, 0, 0, 0, time.UTC)
	cases := []struct {
		ym   YearMonth
		want bool
	}{
		{YearMonth{2024, time.December}, true},
		{YearMonth{2025, time.September}, true},
		{YearMonth{2025, time.October}, true},
		{YearMonth{2025, time.November}, false},
		{YearMonth{2026, time.January}, false},
	}
	for _, tc := range cases {
		if got := IsComplete(tc.ym, now); got != tc.want {
			t.Errorf("IsComplete(%+v) = %v, want %v", tc.ym, got, tc.want)
		}
	}
}

func TestHasActualData(t *testing.T) {
	empty := IncomeRecord{}
	if HasActualData(empty) {
		t.Fatalf("empty template row should have no data")
	}
	withDeduction := IncomeRecord{OtherTaxDeduction: dec(-1500)}
	if !HasActualData(withDeduction) {
		t.Fatalf("negative deduction counts as data")
	}
	if !HasActualData(EarningsRecord{NetPay: dec(1)}) {
		t.Fatalf("earnings with net pay should have data")
	}
}

func TestPeriodFilter(t *testing.T) {
	now := time.Date(2025, time.October, 15, 0, 0, 0, 0, time.UTC)
	past := YearMonth{2025, time.March}
	future := YearMonth{2025, time.December}

	all := PeriodFilter{Now: now}
	if !all.Allows(past, true) {
		t.Errorf("complete month with data should pass")
	}
	if all.Allows(past, false) {
		t.Errorf("placeholder row should be dropped")
	}
	if all.Allows(future, true) {
		t.Errorf("future month should be excluded without explicit year")
	}

	year := PeriodFilter{Year: 2025, Now: now}
	if !year.Allows(future, true) {
		t.Errorf("explicit year should surface pre-entered future data")
	}
	if year.Allows(future, false) {
		t.Errorf("explicit year should still drop empty future rows")
	}
	if year.Allows(YearMonth{2024, time.May}, true) {
		t.Errorf("other years should be excluded")
	}
}

func TestSavingsRate(t *testing.T) {
	r := IncomeRecord{TotalIncome: dec(100000), TotalSavings: dec(30000)}
	if got := r.SavingsRate(); got != 30 {
		t.Fatalf("got %v, want 30", got)
	}
	if got := (IncomeRecord{TotalSavings: dec(5)}).SavingsRate(); got != 0 {
		t.Fatalf("zero income must give 0, got %v", got)
	}
}

func TestNewSnapshotExcludesCostBasis(t *testing.T) {
	reported := dec(650000)
	lines := []BalanceLine{
		{Category: CategoryAssets, Type: "Investments", Item: "Invested Mutual Funds", Amount: dec(500000)},
		{Category: CategoryAssets, Type: "Cash", Item: "Bank Savings", Amount: dec(200000)},
		{Category: CategoryLiabilities, Type: "Loans", Item: "Car Loan", Amount: dec(50000)},
	}
	s := NewSnapshot(YearMonth{2025, time.October}, "Oct-25", lines, &reported)
	if !s.TotalAssets.Equal(dec(200000)) {
		t.Fatalf("total assets = %s, want 200000", s.TotalAssets)
	}
	if len(s.Assets) != 1 || s.Assets[0].Item != "Bank Savings" {
		t.Fatalf("unexpected assets: %+v", s.Assets)
	}
	if !s.NetWorth.Equal(reported) {
		t.Fatalf("reported net worth must be unaffected, got %s", s.NetWorth)
	}
	if _, ok := s.AssetsByType["Investments"]; ok {
		t.Fatalf("cost basis type should not appear in assetsByType")
	}
	if !s.TotalLiabilities.Equal(dec(50000)) {
		t.Fatalf("total liabilities = %s", s.TotalLiabilities)
	}

	derived := NewSnapshot(YearMonth{2025, time.October}, "Oct-25", lines, nil)
	if !derived.NetWorth.Equal(dec(150000)) {
		t.Fatalf("derived net worth = %s, want 150000", derived.NetWorth)
	}
}

func TestClassifyIncome(t *testing.T) {
	cases := []struct {
		cell, desc string
		want       IncomeCategory
	}{
		{"Royalty", "anything", IncomeRoyalty},
		{"", "Book royalties Q1", IncomeRoyalty},
		{"", "Referral payout", IncomeMiscellaneous},
		{"", "Go Concurrency Course", IncomeCourse},
		{"misc", "Go Course", IncomeMiscellaneous},
		{"", "Consulting Patterns Course", IncomeCourse},
		{"", "Bonus lecture course", IncomeCourse},
		{"", "Consulting retainer", IncomeMiscellaneous},
	}
	for _, tc := range cases {
		if got := ClassifyIncome(tc.cell, tc.desc); got != tc.want {
			t.Errorf("ClassifyIncome(%q, %q) = %q, want %q", tc.cell, tc.desc, got, tc.want)
		}
	}
}

func TestParseLineCategory(t *testing.T) {
	for in, want := range map[string]LineCategory{
		"ASSETS":      CategoryAssets,
		" liabilities": CategoryLiabilities,
		"Net Worth":   CategoryNetWorth,
	} {
		got, ok := ParseLineCategory(in)
		if !ok || got != want {
			t.Errorf("ParseLineCategory(%q) = %q, %v", in, got, ok)
		}
	}
	if _, ok := ParseLineCategory("Income"); ok {
		t.Errorf("unknown category should not resolve")
	}
}
