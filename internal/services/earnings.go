package services

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"finsight/internal/core"
)

// YearlyEarnings totals salary slips per fiscal year.
type YearlyEarnings struct {
	FiscalYear  string          `json:"fiscalYear"`
	StartYear   int             `json:"startYear"`
	Months      int             `json:"months"`
	Gross       decimal.Decimal `json:"gross"`
	TaxDeducted decimal.Decimal `json:"taxDeducted"`
	NetPay      decimal.Decimal `json:"netPay"`
}

type EarningsReport struct {
	Earnings       []core.EarningsRecord `json:"earnings"`
	AvailableYears []int                 `json:"availableYears"`
	TotalRecords   int                   `json:"totalRecords"`
	YearlyTotals   []YearlyEarnings      `json:"yearlyTotals"`
}

// BuildEarningsReport filters earnings the way budget records are filtered
// and sorts them chronologically. AvailableYears covers every record with
// data regardless of the filter, most recent first.
func BuildEarningsReport(records []core.EarningsRecord, year int, now time.Time) EarningsReport {
	filter := core.PeriodFilter{Year: year, Now: now}
	kept := make([]core.EarningsRecord, 0, len(records))
	years := map[int]struct{}{}
	for _, r := range records {
		hasData := core.HasActualData(r)
		if hasData {
			years[r.Period().Year] = struct{}{}
		}
		if filter.Allows(r.Period(), hasData) {
			kept = append(kept, r)
		}
	}
	sort.SliceStable(kept, func(i, j int) bool { return kept[i].Period().Before(kept[j].Period()) })

	return EarningsReport{
		Earnings:       kept,
		AvailableYears: sortedYearsDesc(years),
		TotalRecords:   len(kept),
		YearlyTotals:   earningsByFiscalYear(kept),
	}
}

func earningsByFiscalYear(records []core.EarningsRecord) []YearlyEarnings {
	out := []YearlyEarnings{}
	index := map[int]int{}
	for _, r := range records {
		fy := core.FiscalYearOf(r.Period())
		i, ok := index[fy.StartYear]
		if !ok {
			i = len(out)
			index[fy.StartYear] = i
			out = append(out, YearlyEarnings{
				FiscalYear:  fy.Label,
				StartYear:   fy.StartYear,
				Gross:       decimal.Zero,
				TaxDeducted: decimal.Zero,
				NetPay:      decimal.Zero,
			})
		}
		out[i].Months++
		out[i].Gross = out[i].Gross.Add(r.Gross)
		out[i].TaxDeducted = out[i].TaxDeducted.Add(r.TaxDeducted)
		out[i].NetPay = out[i].NetPay.Add(r.NetPay)
	}
	return out
}

func sortedYearsDesc(set map[int]struct{}) []int {
	out := make([]int, 0, len(set))
	for y := range set {
		out = append(out, y)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(out)))
	return out
}
