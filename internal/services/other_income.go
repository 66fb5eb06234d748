package services

import (
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/shopspring/decimal"

	"finsight/internal/core"
)

const (
	topCoursesLimit   = 5
	incomeTrendMonths = 12
)

type OtherIncomeSummary struct {
	TotalEntries          int             `json:"totalEntries"`
	TotalUSD              decimal.Decimal `json:"totalUSD"`
	TotalINR              decimal.Decimal `json:"totalINR"`
	AverageConversionRate decimal.Decimal `json:"averageConversionRate"`
	ReceivedINR           decimal.Decimal `json:"receivedINR"`
	PendingINR            decimal.Decimal `json:"pendingINR"`
	ReceivedCount         int             `json:"receivedCount"`
	PendingCount          int             `json:"pendingCount"`
}

type CategoryIncome struct {
	Category core.IncomeCategory `json:"category"`
	Count    int                 `json:"count"`
	TotalUSD decimal.Decimal     `json:"totalUSD"`
	TotalINR decimal.Decimal     `json:"totalINR"`
	Percent  float64             `json:"percent"`
}

type FiscalYearIncome struct {
	FiscalYear   string          `json:"fiscalYear"`
	StartYear    int             `json:"startYear"`
	Count        int             `json:"count"`
	Income       decimal.Decimal `json:"income"`
	EstimatedTax decimal.Decimal `json:"estimatedTax"`
}

// FiscalYearComparison sets the current fiscal year against the most recent
// earlier fiscal year present in the data.
type FiscalYearComparison struct {
	Current  string `json:"current"`
	Previous string `json:"previous"`
	Change
}

type CourseTotal struct {
	Description string          `json:"description"`
	Count       int             `json:"count"`
	TotalINR    decimal.Decimal `json:"totalINR"`
}

type OtherIncomeReport struct {
	Summary            OtherIncomeSummary       `json:"summary"`
	CategoryBreakdown  []CategoryIncome         `json:"categoryBreakdown"`
	TaxByFiscalYear    []FiscalYearIncome       `json:"taxByFiscalYear"`
	FiscalYearCompare  FiscalYearComparison     `json:"fiscalYearComparison"`
	TopCourses         []CourseTotal            `json:"topCourses"`
	PublishingInsights PublishingInsights       `json:"publishingInsights"`
	Entries            []core.CourseIncomeEntry `json:"entries"`
	MonthlyTrend       []core.MonthAmount       `json:"monthlyTrend"`
}

// IsReceived reports whether a status cell marks the money as received. Any
// negation ("not", "no", "un...") or a pending word wins over "received",
// "paid" or "done".
func IsReceived(status string) bool {
	words := strings.FieldsFunc(strings.ToLower(status), func(r rune) bool {
		return !unicode.IsLetter(r)
	})
	received := false
	for _, w := range words {
		switch {
		case w == "not", w == "no", w == "pending", w == "awaiting",
			strings.HasPrefix(w, "un"):
			return false
		case w == "received", w == "paid", w == "done":
			received = true
		}
	}
	return received
}

// EntryFiscalYear resolves the fiscal year cell, falling back to the invoice
// date. ok is false when neither resolves.
func EntryFiscalYear(e core.CourseIncomeEntry) (core.FiscalYear, bool) {
	if fy, err := core.ParseFiscalYearLabel(e.FiscalYear); err == nil {
		return fy, true
	}
	if p := e.Period(); !p.IsZero() {
		return core.FiscalYearOf(p), true
	}
	return core.FiscalYear{}, false
}

// BuildOtherIncomeReport aggregates course and royalty income. taxRate is the
// flat rate used for the approximate tax per fiscal year.
func BuildOtherIncomeReport(entries []core.CourseIncomeEntry, taxRate decimal.Decimal, now time.Time) OtherIncomeReport {
	return OtherIncomeReport{
		Summary:            summarizeOtherIncome(entries),
		CategoryBreakdown:  incomeByCategory(entries),
		TaxByFiscalYear:    incomeByFiscalYear(entries, taxRate),
		FiscalYearCompare:  compareFiscalYears(entries, core.CurrentFiscalYear(now)),
		TopCourses:         topCourses(entries, topCoursesLimit),
		PublishingInsights: AnalyzePublishing(coursesOnly(entries), now),
		Entries:            sortEntriesByDateDesc(entries),
		MonthlyTrend:       incomeTrend(entries, incomeTrendMonths),
	}
}

func summarizeOtherIncome(entries []core.CourseIncomeEntry) OtherIncomeSummary {
	s := OtherIncomeSummary{
		TotalEntries:          len(entries),
		TotalUSD:              decimal.Zero,
		TotalINR:              decimal.Zero,
		AverageConversionRate: decimal.Zero,
		ReceivedINR:           decimal.Zero,
		PendingINR:            decimal.Zero,
	}
	rateSum := decimal.Zero
	rates := 0
	for _, e := range entries {
		inr := e.INR()
		s.TotalUSD = s.TotalUSD.Add(e.TotalUSD)
		s.TotalINR = s.TotalINR.Add(inr)
		if IsReceived(e.Status) {
			s.ReceivedINR = s.ReceivedINR.Add(inr)
			s.ReceivedCount++
		} else {
			s.PendingINR = s.PendingINR.Add(inr)
			s.PendingCount++
		}
		if e.ConversionRate.IsPositive() {
			rateSum = rateSum.Add(e.ConversionRate)
			rates++
		}
	}
	if rates > 0 {
		s.AverageConversionRate = rateSum.Div(decimal.NewFromInt(int64(rates))).Round(2)
	}
	return s
}

func incomeByCategory(entries []core.CourseIncomeEntry) []CategoryIncome {
	order := []core.IncomeCategory{core.IncomeCourse, core.IncomeRoyalty, core.IncomeMiscellaneous}
	byCat := map[core.IncomeCategory]*CategoryIncome{}
	total := decimal.Zero
	for _, c := range order {
		byCat[c] = &CategoryIncome{Category: c, TotalUSD: decimal.Zero, TotalINR: decimal.Zero}
	}
	for _, e := range entries {
		ci, ok := byCat[e.Category]
		if !ok {
			ci = byCat[core.IncomeCourse]
		}
		ci.Count++
		ci.TotalUSD = ci.TotalUSD.Add(e.TotalUSD)
		ci.TotalINR = ci.TotalINR.Add(e.INR())
		total = total.Add(e.INR())
	}
	out := make([]CategoryIncome, 0, len(order))
	for _, c := range order {
		ci := byCat[c]
		if ci.Count == 0 {
			continue
		}
		ci.Percent = core.Percent(ci.TotalINR, total)
		out = append(out, *ci)
	}
	return out
}

// incomeByFiscalYear lists fiscal years most recent first.
func incomeByFiscalYear(entries []core.CourseIncomeEntry, taxRate decimal.Decimal) []FiscalYearIncome {
	byFY := map[int]*FiscalYearIncome{}
	for _, e := range entries {
		fy, ok := EntryFiscalYear(e)
		if !ok {
			continue
		}
		row, ok := byFY[fy.StartYear]
		if !ok {
			row = &FiscalYearIncome{FiscalYear: fy.Label, StartYear: fy.StartYear, Income: decimal.Zero}
			byFY[fy.StartYear] = row
		}
		row.Count++
		row.Income = row.Income.Add(e.INR())
	}
	out := make([]FiscalYearIncome, 0, len(byFY))
	for _, row := range byFY {
		row.EstimatedTax = row.Income.Mul(taxRate).Round(2)
		out = append(out, *row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartYear > out[j].StartYear })
	return out
}

func compareFiscalYears(entries []core.CourseIncomeEntry, current core.FiscalYear) FiscalYearComparison {
	cur := decimal.Zero
	prevIncome := map[int]decimal.Decimal{}
	prevStart := 0
	for _, e := range entries {
		fy, ok := EntryFiscalYear(e)
		if !ok {
			continue
		}
		switch {
		case fy.StartYear == current.StartYear:
			cur = cur.Add(e.INR())
		case fy.StartYear < current.StartYear:
			prevIncome[fy.StartYear] = prevIncome[fy.StartYear].Add(e.INR())
			if fy.StartYear > prevStart {
				prevStart = fy.StartYear
			}
		}
	}
	cmp := FiscalYearComparison{Current: current.Label}
	prev := decimal.Zero
	if prevStart != 0 {
		cmp.Previous = core.NewFiscalYear(prevStart).Label
		prev = prevIncome[prevStart]
	}
	cmp.Change = newChange(cur, prev)
	return cmp
}

func topCourses(entries []core.CourseIncomeEntry, k int) []CourseTotal {
	out := []CourseTotal{}
	index := map[string]int{}
	for _, e := range entries {
		if e.Category != core.IncomeCourse {
			continue
		}
		name := strings.TrimSpace(e.Description)
		i, ok := index[name]
		if !ok {
			i = len(out)
			index[name] = i
			out = append(out, CourseTotal{Description: name, TotalINR: decimal.Zero})
		}
		out[i].Count++
		out[i].TotalINR = out[i].TotalINR.Add(e.INR())
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].TotalINR.GreaterThan(out[j].TotalINR) })
	if len(out) > k {
		out = out[:k]
	}
	return out
}

func coursesOnly(entries []core.CourseIncomeEntry) []core.CourseIncomeEntry {
	out := make([]core.CourseIncomeEntry, 0, len(entries))
	for _, e := range entries {
		if e.Category == core.IncomeCourse {
			out = append(out, e)
		}
	}
	return out
}

// sortEntriesByDateDesc puts the newest invoice first; undated entries go
// last in sheet order.
func sortEntriesByDateDesc(entries []core.CourseIncomeEntry) []core.CourseIncomeEntry {
	type keyed struct {
		entry core.CourseIncomeEntry
		date  time.Time
		ok    bool
	}
	ks := make([]keyed, len(entries))
	for i, e := range entries {
		t, err := core.ParseInvoiceDate(e.InvoiceDate)
		ks[i] = keyed{entry: e, date: t, ok: err == nil}
	}
	sort.SliceStable(ks, func(i, j int) bool {
		if ks[i].ok != ks[j].ok {
			return ks[i].ok
		}
		return ks[i].date.After(ks[j].date)
	})
	out := make([]core.CourseIncomeEntry, len(ks))
	for i, k := range ks {
		out[i] = k.entry
	}
	return out
}

// incomeTrend sums INR per invoice month, ascending, keeping the last n
// months that have entries.
func incomeTrend(entries []core.CourseIncomeEntry, n int) []core.MonthAmount {
	byMonth := map[core.YearMonth]decimal.Decimal{}
	for _, e := range entries {
		p := e.Period()
		if p.IsZero() {
			continue
		}
		byMonth[p] = byMonth[p].Add(e.INR())
	}
	months := make([]core.YearMonth, 0, len(byMonth))
	for m := range byMonth {
		months = append(months, m)
	}
	sort.Slice(months, func(i, j int) bool { return months[i].Before(months[j]) })
	if len(months) > n {
		months = months[len(months)-n:]
	}
	out := make([]core.MonthAmount, 0, len(months))
	for _, m := range months {
		out = append(out, core.MonthAmount{Month: m.Display(), Amount: byMonth[m]})
	}
	return out
}
