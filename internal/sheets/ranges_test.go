package sheets

import (
	"reflect"
	"testing"
	"time"
)

func TestA1AndSheetName(t *testing.T) {
	tests := []struct {
		sheet string
		want  string
	}{
		{"Net Worth", "'Net Worth'!A:ZZ"},
		{"Bob's Budget", "'Bob''s Budget'!A:ZZ"},
	}
	for _, tt := range tests {
		t.Run(tt.sheet, func(t *testing.T) {
			rng := A1(tt.sheet, "A:ZZ")
			if rng != tt.want {
				t.Fatalf("A1: got %q, want %q", rng, tt.want)
			}
			if got := SheetName(rng); got != tt.sheet {
				t.Errorf("SheetName: got %q, want %q", got, tt.sheet)
			}
		})
	}
}

func TestCatalog_BudgetYears(t *testing.T) {
	c := DefaultCatalog()
	now := time.Date(2025, time.February, 10, 0, 0, 0, 0, time.UTC)

	if got, want := c.BudgetYears(now), []int{2023, 2024, 2025}; !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}

	c.BudgetStartYear = 2030
	if got := c.BudgetYears(now); !reflect.DeepEqual(got, []int{2025}) {
		t.Errorf("future start year should clamp to now, got %v", got)
	}
}

func TestCatalog_All(t *testing.T) {
	c := DefaultCatalog()
	c.BudgetStartYear = 2024
	now := time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC)

	want := []string{
		"'Net Worth'!A:ZZ",
		"'Earnings'!A:G",
		"'Other Income'!A:I",
		"'Monthly Budget 2024'!A:M",
		"'Monthly Budget 2025'!A:M",
	}
	if got := c.All(now); !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}
