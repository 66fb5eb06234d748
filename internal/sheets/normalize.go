package sheets

import (
	"errors"
	"fmt"
	"strings"

	"finsight/internal/core"
)

var (
	ErrMissingField   = errors.New("missing required field")
	ErrNegativeAmount = errors.New("negative expense amount")
	ErrHeaderRow      = errors.New("header row")
)

// RowError describes a row skipped during normalization. It never aborts the
// remaining rows.
type RowError struct {
	Layout string
	Row    int
	Err    error
}

func (e RowError) Error() string {
	return fmt.Sprintf("%s row %d: %v", e.Layout, e.Row+1, e.Err)
}

func (e RowError) Unwrap() error { return e.Err }

// MapRows applies build to every row of a column group. Rows blank within
// the group are skipped silently; rows missing a required field or rejected
// by build are reported as RowErrors.
func MapRows[T any](rows [][]string, layout Layout, build func(Row) (T, error)) ([]T, []RowError) {
	out := make([]T, 0, len(rows))
	var rejected []RowError
	for i, cells := range rows {
		row := Row{Index: i, Cells: cells, layout: &layout}
		if row.Blank() {
			continue
		}
		if missing := row.missing(); len(missing) > 0 {
			rejected = append(rejected, RowError{Layout: layout.Name, Row: i, Err: fmt.Errorf("%w: %v", ErrMissingField, missing)})
			continue
		}
		rec, err := build(row)
		if err != nil {
			rejected = append(rejected, RowError{Layout: layout.Name, Row: i, Err: err})
			continue
		}
		out = append(out, rec)
	}
	return out, rejected
}

// BudgetRows holds both record kinds extracted from one budget tab.
type BudgetRows struct {
	Expenses []core.ExpenseRecord
	Income   []core.IncomeRecord
}

// ParseBudget extracts the expense and income groups of a combined budget
// tab independently, so a row lacking one group still yields the other.
func ParseBudget(rows [][]string) (BudgetRows, []RowError) {
	expenses, expErrs := ParseExpenses(rows)
	income, incErrs := ParseIncome(rows)
	return BudgetRows{Expenses: expenses, Income: income}, append(expErrs, incErrs...)
}

// ParseExpenses maps the expense column group.
func ParseExpenses(rows [][]string) ([]core.ExpenseRecord, []RowError) {
	return MapRows(rows, ExpenseLayout, buildExpense)
}

// ParseIncome maps the income column group.
func ParseIncome(rows [][]string) ([]core.IncomeRecord, []RowError) {
	return MapRows(rows, IncomeLayout, buildIncome)
}

// ParseEarnings maps the earnings sheet.
func ParseEarnings(rows [][]string) ([]core.EarningsRecord, []RowError) {
	return MapRows(rows, EarningsLayout, buildEarnings)
}

// ParseOtherIncome maps the other-income sheet. Its title row is reported
// as ErrHeaderRow.
func ParseOtherIncome(rows [][]string) ([]core.CourseIncomeEntry, []RowError) {
	return MapRows(rows, OtherIncomeLayout, buildOtherIncome)
}

func buildExpense(r Row) (core.ExpenseRecord, error) {
	label := r.Text(FieldMonth)
	ym, err := core.ParseMonthLabel(label)
	if err != nil {
		return core.ExpenseRecord{}, err
	}
	amount := r.Amount(FieldAmount)
	if amount.IsNegative() {
		return core.ExpenseRecord{}, fmt.Errorf("%w: %s", ErrNegativeAmount, amount)
	}
	return core.NewExpenseRecord(ym, label, r.Text(FieldCategory), r.Text(FieldBreakdown), amount), nil
}

func buildIncome(r Row) (core.IncomeRecord, error) {
	label := r.Text(FieldMonth)
	ym, err := core.ParseMonthLabel(label)
	if err != nil {
		return core.IncomeRecord{}, err
	}
	rec := core.IncomeRecord{
		Month:             label,
		IncomeSource1:     r.Amount(FieldIncomeSource1),
		IncomeSource2:     r.Amount(FieldIncomeSource2),
		OtherIncome:       r.Amount(FieldOtherIncome),
		OtherTaxDeduction: r.Amount(FieldOtherTaxDeduction),
		TotalIncome:       r.Amount(FieldTotalIncome),
		TotalExpenses:     r.Amount(FieldTotalExpenses),
		TotalSavings:      r.Amount(FieldTotalSavings),
	}
	return rec.WithPeriod(ym), nil
}

func buildEarnings(r Row) (core.EarningsRecord, error) {
	label := r.Text(FieldMonth)
	ym, err := core.ParseMonthLabel(label)
	if err != nil {
		return core.EarningsRecord{}, err
	}
	rec := core.EarningsRecord{
		Month:           label,
		Employer:        r.Text(FieldEmployer),
		Gross:           r.Amount(FieldGross),
		TaxDeducted:     r.Amount(FieldTaxDeducted),
		ProvidentFund:   r.Amount(FieldProvidentFund),
		OtherDeductions: r.Amount(FieldOtherDeductions),
		NetPay:          r.Amount(FieldNetPay),
	}
	return rec.WithPeriod(ym), nil
}

func buildOtherIncome(r Row) (core.CourseIncomeEntry, error) {
	desc := r.Text(FieldDescription)
	if strings.EqualFold(desc, "description") {
		return core.CourseIncomeEntry{}, ErrHeaderRow
	}
	return core.CourseIncomeEntry{
		Description:    desc,
		Status:         r.Text(FieldStatus),
		FiscalYear:     r.Text(FieldFiscalYear),
		InvoiceDate:    r.Text(FieldInvoiceDate),
		TotalUSD:       r.Amount(FieldTotalUSD),
		EstimateINR:    r.Amount(FieldEstimateINR),
		ActualINR:      r.Amount(FieldActualINR),
		ConversionRate: r.Amount(FieldConversionRate),
		Category:       core.ClassifyIncome(r.Text(FieldCategory), desc),
	}, nil
}
