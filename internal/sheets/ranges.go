package sheets

import (
	"fmt"
	"strings"
	"time"
)

// Catalog names the ranges the dashboard reads.
type Catalog struct {
	NetWorthSheet    string
	EarningsSheet    string
	OtherIncomeSheet string
	BudgetPrefix     string
	BudgetStartYear  int
}

// DefaultCatalog returns the sheet names used by the reference spreadsheet.
func DefaultCatalog() Catalog {
	return Catalog{
		NetWorthSheet:    "Net Worth",
		EarningsSheet:    "Earnings",
		OtherIncomeSheet: "Other Income",
		BudgetPrefix:     "Monthly Budget",
		BudgetStartYear:  2023,
	}
}

// A1 quotes a sheet name and appends a cell range: 'Net Worth'!A:ZZ.
func A1(sheet, cells string) string {
	return fmt.Sprintf("'%s'!%s", strings.ReplaceAll(sheet, "'", "''"), cells)
}

// SheetName extracts the unquoted sheet name from an A1 range.
func SheetName(rng string) string {
	name := rng
	if i := strings.LastIndex(name, "!"); i >= 0 {
		name = name[:i]
	}
	name = strings.TrimPrefix(name, "'")
	name = strings.TrimSuffix(name, "'")
	return strings.ReplaceAll(name, "''", "'")
}

func (c Catalog) NetWorthRange() string    { return A1(c.NetWorthSheet, "A:ZZ") }
func (c Catalog) EarningsRange() string    { return A1(c.EarningsSheet, "A:G") }
func (c Catalog) OtherIncomeRange() string { return A1(c.OtherIncomeSheet, "A:I") }

// BudgetRange names the combined expense+income tab for a calendar year.
func (c Catalog) BudgetRange(year int) string {
	return A1(fmt.Sprintf("%s %d", c.BudgetPrefix, year), "A:M")
}

// BudgetYears lists the calendar years with a budget tab, oldest first.
func (c Catalog) BudgetYears(now time.Time) []int {
	start := c.BudgetStartYear
	if start <= 0 || start > now.Year() {
		start = now.Year()
	}
	years := make([]int, 0, now.Year()-start+1)
	for y := start; y <= now.Year(); y++ {
		years = append(years, y)
	}
	return years
}

// All lists every range the dashboard reads at now.
func (c Catalog) All(now time.Time) []string {
	out := []string{c.NetWorthRange(), c.EarningsRange(), c.OtherIncomeRange()}
	for _, y := range c.BudgetYears(now) {
		out = append(out, c.BudgetRange(y))
	}
	return out
}
