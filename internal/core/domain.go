package core

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	CategoryAssets      LineCategory = "Assets"
	CategoryLiabilities LineCategory = "Liabilities"
	CategoryNetWorth    LineCategory = "Net Worth"
)

const (
	KindExpense RecordKind = iota + 1
	KindIncome
	KindEarnings
	KindOtherIncome
)

const (
	IncomeCourse        IncomeCategory = "course"
	IncomeRoyalty       IncomeCategory = "royalty"
	IncomeMiscellaneous IncomeCategory = "miscellaneous"
)

type (
	// RecordKind tags which sheet layout produced a record.
	RecordKind int

	// Record is implemented by every typed row record.
	Record interface {
		Kind() RecordKind
		Period() YearMonth
	}

	LineCategory string

	IncomeCategory string

	ExpenseRecord struct {
		Month     string          `json:"month"`
		Year      int             `json:"year"`
		Category  string          `json:"category"`
		Breakdown string          `json:"breakdown"`
		Amount    decimal.Decimal `json:"amount"`
		period    YearMonth
	}

	// IncomeRecord mirrors one month of the income column group. TotalSavings
	// is reported by the sheet, never derived.
	IncomeRecord struct {
		Month             string          `json:"month"`
		Year              int             `json:"year"`
		IncomeSource1     decimal.Decimal `json:"incomeSource1"`
		IncomeSource2     decimal.Decimal `json:"incomeSource2"`
		OtherIncome       decimal.Decimal `json:"otherIncome"`
		OtherTaxDeduction decimal.Decimal `json:"otherTaxDeduction"`
		TotalIncome       decimal.Decimal `json:"totalIncome"`
		TotalExpenses     decimal.Decimal `json:"totalExpenses"`
		TotalSavings      decimal.Decimal `json:"totalSavings"`
		period            YearMonth
	}

	EarningsRecord struct {
		Month           string          `json:"month"`
		Year            int             `json:"year"`
		Employer        string          `json:"employer"`
		Gross           decimal.Decimal `json:"gross"`
		TaxDeducted     decimal.Decimal `json:"taxDeducted"`
		ProvidentFund   decimal.Decimal `json:"providentFund"`
		OtherDeductions decimal.Decimal `json:"otherDeductions"`
		NetPay          decimal.Decimal `json:"netPay"`
		period          YearMonth
	}

	CourseIncomeEntry struct {
		Description    string          `json:"description"`
		Status         string          `json:"status"`
		FiscalYear     string          `json:"fiscalYear"`
		InvoiceDate    string          `json:"invoiceDate"`
		TotalUSD       decimal.Decimal `json:"totalUSD"`
		EstimateINR    decimal.Decimal `json:"estimateINR"`
		ActualINR      decimal.Decimal `json:"actualINR"`
		ConversionRate decimal.Decimal `json:"conversionRate"`
		Category       IncomeCategory  `json:"category"`
	}

	// BalanceLine is one asset or liability row for a single month column.
	BalanceLine struct {
		Category LineCategory    `json:"category"`
		Type     string          `json:"type"`
		Item     string          `json:"item"`
		Amount   decimal.Decimal `json:"amount"`
	}

	MonthSnapshot struct {
		Month            string                     `json:"month"`
		NetWorth         decimal.Decimal            `json:"netWorth"`
		Assets           []BalanceLine              `json:"assets"`
		Liabilities      []BalanceLine              `json:"liabilities"`
		TotalAssets      decimal.Decimal            `json:"totalAssets"`
		TotalLiabilities decimal.Decimal            `json:"totalLiabilities"`
		AssetsByType     map[string]decimal.Decimal `json:"assetsByType"`
		Period           YearMonth                  `json:"-"`
	}
)

var (
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrInvalidMonthLabel = errors.New("invalid month label")
	ErrInvalidFiscalYear = errors.New("invalid fiscal year")
	ErrInvalidDate       = errors.New("invalid date")
)

// costBasisItems are asset lines holding invested capital. Their market value
// is tracked by separate lines, so they never count toward asset totals.
var costBasisItems = map[string]struct{}{
	"invested mutual funds": {},
	"invested stock":        {},
}

// IsCostBasisItem reports whether item is excluded from asset totals.
func IsCostBasisItem(item string) bool {
	_, ok := costBasisItems[strings.ToLower(strings.TrimSpace(item))]
	return ok
}

// ParseLineCategory resolves a sheet category cell case-insensitively.
func ParseLineCategory(s string) (LineCategory, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "assets", "asset":
		return CategoryAssets, true
	case "liabilities", "liability":
		return CategoryLiabilities, true
	case "net worth", "networth":
		return CategoryNetWorth, true
	}
	return "", false
}

// NewExpenseRecord builds an expense record anchored at ym.
func NewExpenseRecord(ym YearMonth, label, category, breakdown string, amount decimal.Decimal) ExpenseRecord {
	return ExpenseRecord{
		Month:     label,
		Year:      ym.Year,
		Category:  category,
		Breakdown: breakdown,
		Amount:    amount,
		period:    ym,
	}
}

func (e ExpenseRecord) Kind() RecordKind  { return KindExpense }
func (e ExpenseRecord) Period() YearMonth { return e.period }

// WithPeriod returns a copy of r anchored at ym, with Month and Year derived
// from it when they are unset.
func (r IncomeRecord) WithPeriod(ym YearMonth) IncomeRecord {
	r.period = ym
	r.Year = ym.Year
	if r.Month == "" {
		r.Month = ym.Label()
	}
	return r
}

func (r IncomeRecord) Kind() RecordKind  { return KindIncome }
func (r IncomeRecord) Period() YearMonth { return r.period }

// MonetaryFields lists the amounts that decide whether a row carries real
// data or is an empty template row.
func (r IncomeRecord) MonetaryFields() []decimal.Decimal {
	return []decimal.Decimal{
		r.IncomeSource1, r.IncomeSource2, r.OtherIncome, r.OtherTaxDeduction,
		r.TotalIncome, r.TotalExpenses, r.TotalSavings,
	}
}

// SavingsRate is TotalSavings/TotalIncome as a percentage; 0 without income.
func (r IncomeRecord) SavingsRate() float64 {
	return Percent(r.TotalSavings, r.TotalIncome)
}

// WithPeriod returns a copy of r anchored at ym.
func (r EarningsRecord) WithPeriod(ym YearMonth) EarningsRecord {
	r.period = ym
	r.Year = ym.Year
	if r.Month == "" {
		r.Month = ym.Label()
	}
	return r
}

func (r EarningsRecord) Kind() RecordKind  { return KindEarnings }
func (r EarningsRecord) Period() YearMonth { return r.period }

func (r EarningsRecord) MonetaryFields() []decimal.Decimal {
	return []decimal.Decimal{r.Gross, r.TaxDeducted, r.ProvidentFund, r.OtherDeductions, r.NetPay}
}

func (e CourseIncomeEntry) Kind() RecordKind { return KindOtherIncome }

// Period is the invoice month, or the zero YearMonth when the invoice date
// does not parse.
func (e CourseIncomeEntry) Period() YearMonth {
	t, err := ParseInvoiceDate(e.InvoiceDate)
	if err != nil {
		return YearMonth{}
	}
	return YearMonthOf(t)
}

// INR is the realised rupee amount when known, otherwise the estimate.
func (e CourseIncomeEntry) INR() decimal.Decimal {
	if !e.ActualINR.IsZero() {
		return e.ActualINR
	}
	return e.EstimateINR
}

// ClassifyIncome maps an explicit category cell, or failing that the entry
// description, onto an IncomeCategory.
func ClassifyIncome(categoryCell, description string) IncomeCategory {
	switch c := strings.ToLower(strings.TrimSpace(categoryCell)); {
	case strings.HasPrefix(c, "course"):
		return IncomeCourse
	case strings.HasPrefix(c, "royalt"):
		return IncomeRoyalty
	case strings.HasPrefix(c, "misc"):
		return IncomeMiscellaneous
	}
	d := strings.ToLower(description)
	switch {
	case strings.Contains(d, "royalt"):
		return IncomeRoyalty
	case strings.Contains(d, "course"):
		return IncomeCourse
	case strings.Contains(d, "misc"), strings.Contains(d, "referral"),
		strings.Contains(d, "bonus"), strings.Contains(d, "consult"):
		return IncomeMiscellaneous
	}
	return IncomeCourse
}

// NewSnapshot totals asset and liability lines for one month column. Cost
// basis lines are dropped from the asset list and every asset total. When the
// sheet reports no net worth, it is derived from the totals.
func NewSnapshot(ym YearMonth, label string, lines []BalanceLine, reportedNetWorth *decimal.Decimal) MonthSnapshot {
	s := MonthSnapshot{
		Month:            label,
		Period:           ym,
		Assets:           []BalanceLine{},
		Liabilities:      []BalanceLine{},
		TotalAssets:      decimal.Zero,
		TotalLiabilities: decimal.Zero,
		AssetsByType:     map[string]decimal.Decimal{},
	}
	for _, l := range lines {
		switch l.Category {
		case CategoryAssets:
			if IsCostBasisItem(l.Item) {
				continue
			}
			s.Assets = append(s.Assets, l)
			s.TotalAssets = s.TotalAssets.Add(l.Amount)
			s.AssetsByType[l.Type] = s.AssetsByType[l.Type].Add(l.Amount)
		case CategoryLiabilities:
			s.Liabilities = append(s.Liabilities, l)
			s.TotalLiabilities = s.TotalLiabilities.Add(l.Amount)
		}
	}
	if reportedNetWorth != nil {
		s.NetWorth = *reportedNetWorth
	} else {
		s.NetWorth = s.TotalAssets.Sub(s.TotalLiabilities)
	}
	return s
}

// HasData reports whether any line or the net worth is nonzero.
func (s MonthSnapshot) HasData() bool {
	if !s.NetWorth.IsZero() {
		return true
	}
	for _, l := range s.Assets {
		if !l.Amount.IsZero() {
			return true
		}
	}
	for _, l := range s.Liabilities {
		if !l.Amount.IsZero() {
			return true
		}
	}
	return false
}
