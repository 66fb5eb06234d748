package sheets

import (
	"strings"

	"github.com/shopspring/decimal"

	"finsight/internal/core"
)

// Field is a semantic column of a sheet layout.
type Field string

const (
	FieldMonth             Field = "month"
	FieldCategory          Field = "category"
	FieldBreakdown         Field = "breakdown"
	FieldAmount            Field = "amount"
	FieldIncomeSource1     Field = "income_source_1"
	FieldIncomeSource2     Field = "income_source_2"
	FieldOtherIncome       Field = "other_income"
	FieldOtherTaxDeduction Field = "other_tax_deduction"
	FieldTotalIncome       Field = "total_income"
	FieldTotalExpenses     Field = "total_expenses"
	FieldTotalSavings      Field = "total_savings"
	FieldEmployer          Field = "employer"
	FieldGross             Field = "gross"
	FieldTaxDeducted       Field = "tax_deducted"
	FieldProvidentFund     Field = "provident_fund"
	FieldOtherDeductions   Field = "other_deductions"
	FieldNetPay            Field = "net_pay"
	FieldDescription       Field = "description"
	FieldStatus            Field = "status"
	FieldFiscalYear        Field = "fiscal_year"
	FieldInvoiceDate       Field = "invoice_date"
	FieldTotalUSD          Field = "total_usd"
	FieldEstimateINR       Field = "estimate_inr"
	FieldActualINR         Field = "actual_inr"
	FieldConversionRate    Field = "conversion_rate"
)

// Layout maps semantic fields to zero-based column indexes of one column
// group. Rows missing any Required field are rejected.
type Layout struct {
	Name     string
	Kind     core.RecordKind
	Columns  map[Field]int
	Required []Field
}

// Layouts of the reference spreadsheet. The budget tabs carry the expense
// group in A:D and the income group in F:M of the same rows.
var (
	ExpenseLayout = Layout{
		Name: "expense",
		Kind: core.KindExpense,
		Columns: map[Field]int{
			FieldMonth:     0,
			FieldCategory:  1,
			FieldBreakdown: 2,
			FieldAmount:    3,
		},
		Required: []Field{FieldMonth, FieldBreakdown},
	}

	IncomeLayout = Layout{
		Name: "income",
		Kind: core.KindIncome,
		Columns: map[Field]int{
			FieldMonth:             5,
			FieldIncomeSource1:     6,
			FieldIncomeSource2:     7,
			FieldOtherIncome:       8,
			FieldOtherTaxDeduction: 9,
			FieldTotalIncome:       10,
			FieldTotalExpenses:     11,
			FieldTotalSavings:      12,
		},
		Required: []Field{FieldMonth},
	}

	EarningsLayout = Layout{
		Name: "earnings",
		Kind: core.KindEarnings,
		Columns: map[Field]int{
			FieldMonth:           0,
			FieldEmployer:        1,
			FieldGross:           2,
			FieldTaxDeducted:     3,
			FieldProvidentFund:   4,
			FieldOtherDeductions: 5,
			FieldNetPay:          6,
		},
		Required: []Field{FieldMonth},
	}

	OtherIncomeLayout = Layout{
		Name: "other_income",
		Kind: core.KindOtherIncome,
		Columns: map[Field]int{
			FieldDescription:    0,
			FieldStatus:         1,
			FieldFiscalYear:     2,
			FieldInvoiceDate:    3,
			FieldTotalUSD:       4,
			FieldEstimateINR:    5,
			FieldActualINR:      6,
			FieldConversionRate: 7,
			FieldCategory:       8,
		},
		Required: []Field{FieldDescription},
	}
)

// Row is a positional row viewed through a Layout.
type Row struct {
	Index  int
	Cells  []string
	layout *Layout
}

// Text returns the trimmed cell for f, or "" when the column is absent.
func (r Row) Text(f Field) string {
	idx, ok := r.layout.Columns[f]
	if !ok || idx < 0 || idx >= len(r.Cells) {
		return ""
	}
	return strings.TrimSpace(r.Cells[idx])
}

// Amount parses the cell for f, defaulting to zero when it is malformed.
func (r Row) Amount(f Field) decimal.Decimal {
	return core.AmountOrZero(r.Text(f))
}

// Blank reports whether every column of the layout is empty in this row.
func (r Row) Blank() bool {
	for f := range r.layout.Columns {
		if r.Text(f) != "" {
			return false
		}
	}
	return true
}

func (r Row) missing() []Field {
	var out []Field
	for _, f := range r.layout.Required {
		if r.Text(f) == "" {
			out = append(out, f)
		}
	}
	return out
}
