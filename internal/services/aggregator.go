package services

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"finsight/internal/core"
)

const (
	defaultTopCategories = 5
	trendLength          = 4
)

// BudgetSummary is always structurally complete: with no income records every
// amount is zero and every list is empty, never nil.
type BudgetSummary struct {
	TotalIncome      decimal.Decimal       `json:"totalIncome"`
	TotalExpenses    decimal.Decimal       `json:"totalExpenses"`
	TotalSavings     decimal.Decimal       `json:"totalSavings"`
	TotalInvestments decimal.Decimal       `json:"totalInvestments"`
	SavingsRate      float64               `json:"savingsRate"`
	InvestmentRate   float64               `json:"investmentRate"`
	MonthsCount      int                   `json:"monthsCount"`
	CategoryTotals   []core.CategoryAmount `json:"categoryTotals"`
	TopCategories    []core.CategoryAmount `json:"topCategories"`
	TaxDeductions    TaxDeductions         `json:"taxDeductions"`
	MonthlyTrend     []TrendPoint          `json:"monthlyTrend"`
}

// TaxDeductions totals other tax deductions over one fiscal year window.
type TaxDeductions struct {
	FiscalYear string             `json:"fiscalYear"`
	Window     core.FiscalYear    `json:"window"`
	Total      decimal.Decimal    `json:"total"`
	Breakdown  []core.MonthAmount `json:"breakdown"`
}

type TrendPoint struct {
	Month       string          `json:"month"`
	Income      decimal.Decimal `json:"income"`
	Expenses    decimal.Decimal `json:"expenses"`
	Savings     decimal.Decimal `json:"savings"`
	SavingsRate float64         `json:"savingsRate"`
}

// CategoryTotals sums expense amounts per category in first-seen order. When
// no record has a nonblank category the breakdown column is used instead.
// Blank category names are kept as their own group so the totals always add
// up to the sum of every expense.
func CategoryTotals(expenses []core.ExpenseRecord) []core.CategoryAmount {
	byBreakdown := true
	for _, e := range expenses {
		if strings.TrimSpace(e.Category) != "" {
			byBreakdown = false
			break
		}
	}

	out := []core.CategoryAmount{}
	index := map[string]int{}
	for _, e := range expenses {
		name := strings.TrimSpace(e.Category)
		if byBreakdown {
			name = strings.TrimSpace(e.Breakdown)
		}
		i, ok := index[name]
		if !ok {
			i = len(out)
			index[name] = i
			out = append(out, core.CategoryAmount{Name: name, Amount: decimal.Zero})
		}
		out[i].Amount = out[i].Amount.Add(e.Amount)
	}
	return out
}

// TopCategories returns the k largest named categories, descending. Equal
// amounts keep their first-seen order.
func TopCategories(totals []core.CategoryAmount, k int) []core.CategoryAmount {
	named := make([]core.CategoryAmount, 0, len(totals))
	for _, t := range totals {
		if strings.TrimSpace(t.Name) == "" {
			continue
		}
		named = append(named, t)
	}
	sort.SliceStable(named, func(i, j int) bool {
		return named[i].Amount.GreaterThan(named[j].Amount)
	})
	if k >= 0 && len(named) > k {
		named = named[:k]
	}
	return named
}

// TaxDeductionsFor sums |OtherTaxDeduction| of the records inside fy, in
// fiscal month order. Months with no deduction are left out of the breakdown.
func TaxDeductionsFor(income []core.IncomeRecord, fy core.FiscalYear) TaxDeductions {
	in := make([]core.IncomeRecord, 0, len(income))
	for _, r := range income {
		if fy.Contains(r.Period()) {
			in = append(in, r)
		}
	}
	sort.SliceStable(in, func(i, j int) bool {
		return core.FiscalMonthOrder(in[i].Period().Month) < core.FiscalMonthOrder(in[j].Period().Month)
	})

	td := TaxDeductions{
		FiscalYear: fy.Label,
		Window:     fy,
		Total:      decimal.Zero,
		Breakdown:  []core.MonthAmount{},
	}
	for _, r := range in {
		amt := r.OtherTaxDeduction.Abs()
		if amt.IsZero() {
			continue
		}
		td.Total = td.Total.Add(amt)
		td.Breakdown = append(td.Breakdown, core.MonthAmount{Month: r.Month, Amount: amt})
	}
	return td
}

// MonthlyTrend maps the last n records of a chronologically ascending list.
func MonthlyTrend(income []core.IncomeRecord, n int) []TrendPoint {
	if len(income) > n {
		income = income[len(income)-n:]
	}
	out := make([]TrendPoint, 0, len(income))
	for _, r := range income {
		out = append(out, TrendPoint{
			Month:       r.Month,
			Income:      r.TotalIncome,
			Expenses:    r.TotalExpenses,
			Savings:     r.TotalSavings,
			SavingsRate: r.SavingsRate(),
		})
	}
	return out
}

// IsInvestment reports whether an expense category tracks money invested
// rather than spent.
func IsInvestment(category string) bool {
	return strings.Contains(strings.ToLower(category), "invest")
}

// SummarizeBudget aggregates filtered records. income must be sorted
// ascending; allIncome feeds the tax window, which is independent of the
// period filter.
func SummarizeBudget(expenses []core.ExpenseRecord, income, allIncome []core.IncomeRecord, fy core.FiscalYear) BudgetSummary {
	totals := CategoryTotals(expenses)
	s := BudgetSummary{
		TotalIncome:      decimal.Zero,
		TotalExpenses:    decimal.Zero,
		TotalSavings:     decimal.Zero,
		TotalInvestments: decimal.Zero,
		CategoryTotals:   totals,
		TopCategories:    TopCategories(totals, defaultTopCategories),
		TaxDeductions:    TaxDeductionsFor(allIncome, fy),
		MonthlyTrend:     MonthlyTrend(income, trendLength),
		MonthsCount:      len(income),
	}
	for _, r := range income {
		s.TotalIncome = s.TotalIncome.Add(r.TotalIncome)
		s.TotalExpenses = s.TotalExpenses.Add(r.TotalExpenses)
		s.TotalSavings = s.TotalSavings.Add(r.TotalSavings)
	}
	for _, e := range expenses {
		if IsInvestment(e.Category) {
			s.TotalInvestments = s.TotalInvestments.Add(e.Amount)
		}
	}
	s.SavingsRate = core.Percent(s.TotalSavings, s.TotalIncome)
	s.InvestmentRate = core.Percent(s.TotalInvestments, s.TotalIncome)
	return s
}
