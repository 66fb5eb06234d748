package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"finsight/internal/core"
	applog "finsight/internal/log"
	"finsight/internal/sheets"
)

// DashboardConfig holds the tunables of the analytics views.
type DashboardConfig struct {
	// Thresholds are the ascending net worth milestones.
	Thresholds []Threshold

	// Origin anchors the first milestone crossing (default: Apr 2019).
	Origin Origin

	// OtherIncomeTaxRate is the flat rate for approximate tax (default: 0.30).
	OtherIncomeTaxRate decimal.Decimal

	// FetchConcurrency caps parallel budget tab reads (default: 4).
	FetchConcurrency int
}

// DefaultDashboardConfig returns the reference tunables.
func DefaultDashboardConfig() DashboardConfig {
	origin := core.YearMonth{Year: 2019, Month: time.April}
	return DashboardConfig{
		Thresholds:         DefaultThresholds,
		Origin:             Origin{Period: origin, Label: origin.Display()},
		OtherIncomeTaxRate: decimal.NewFromFloat(0.30),
		FetchConcurrency:   4,
	}
}

// Dashboard reads spreadsheet ranges and derives every analytics view. It
// holds no per-request state.
type Dashboard struct {
	reader  sheets.RangeReader
	catalog sheets.Catalog
	config  DashboardConfig
	now     func() time.Time
}

func NewDashboard(reader sheets.RangeReader, catalog sheets.Catalog, config DashboardConfig) *Dashboard {
	if config.FetchConcurrency <= 0 {
		config.FetchConcurrency = 1
	}
	if len(config.Thresholds) == 0 {
		config.Thresholds = DefaultThresholds
	}
	return &Dashboard{
		reader:  reader,
		catalog: catalog,
		config:  config,
		now:     time.Now,
	}
}

// WithClock replaces the time source, for tests.
func (d *Dashboard) WithClock(now func() time.Time) *Dashboard {
	d.now = now
	return d
}

// BudgetQuery narrows the budget view. Zero values mean "not set".
type BudgetQuery struct {
	Month string
	Year  int
}

type BudgetView struct {
	Expenses        []core.ExpenseRecord `json:"expenses"`
	Income          []core.IncomeRecord  `json:"income"`
	Summary         BudgetSummary        `json:"summary"`
	AvailableMonths []string             `json:"availableMonths"`
	AvailableYears  []int                `json:"availableYears"`
}

type MonthsView struct {
	Months []string `json:"months"`
}

// Budget merges every yearly budget tab and summarizes the filtered records.
func (d *Dashboard) Budget(ctx context.Context, q BudgetQuery) (BudgetView, error) {
	now := d.now()
	var month core.YearMonth
	if strings.TrimSpace(q.Month) != "" {
		ym, err := core.ParseMonthLabel(q.Month)
		if err != nil {
			return BudgetView{}, err
		}
		month = ym
	}

	rows, err := d.readBudgetTabs(ctx, now)
	if err != nil {
		return BudgetView{}, err
	}

	sort.SliceStable(rows.Income, func(i, j int) bool { return rows.Income[i].Period().Before(rows.Income[j].Period()) })
	sort.SliceStable(rows.Expenses, func(i, j int) bool { return rows.Expenses[i].Period().Before(rows.Expenses[j].Period()) })

	filter := core.PeriodFilter{Year: q.Year, Now: now}
	allows := func(ym core.YearMonth, hasData bool) bool {
		if !month.IsZero() {
			return ym == month && (hasData || core.IsComplete(ym, now))
		}
		return filter.Allows(ym, hasData)
	}

	view := BudgetView{
		Expenses:        []core.ExpenseRecord{},
		Income:          []core.IncomeRecord{},
		AvailableMonths: []string{},
	}
	months := map[core.YearMonth]struct{}{}
	years := map[int]struct{}{}
	for _, e := range rows.Expenses {
		hasData := !e.Amount.IsZero()
		if hasData && core.IsComplete(e.Period(), now) {
			months[e.Period()] = struct{}{}
			years[e.Period().Year] = struct{}{}
		}
		if allows(e.Period(), hasData) {
			view.Expenses = append(view.Expenses, e)
		}
	}
	for _, r := range rows.Income {
		hasData := core.HasActualData(r)
		if hasData && core.IsComplete(r.Period(), now) {
			months[r.Period()] = struct{}{}
			years[r.Period().Year] = struct{}{}
		}
		if allows(r.Period(), hasData) {
			view.Income = append(view.Income, r)
		}
	}

	fy := core.SelectFiscalYear(q.Year, now)
	view.Summary = SummarizeBudget(view.Expenses, view.Income, rows.Income, fy)
	view.AvailableYears = sortedYearsDesc(years)
	for _, ym := range sortedMonthsDesc(months) {
		view.AvailableMonths = append(view.AvailableMonths, ym.Label())
	}

	applog.FromContext(ctx).DebugContext(ctx, "Budget summarized",
		applog.FieldFiscalYear, fy.Label,
		"expenses", len(view.Expenses),
		"income", len(view.Income))
	return view, nil
}

// readBudgetTabs reads every yearly tab concurrently. A failing tab is logged
// and left out; only a configuration error fails the whole read.
func (d *Dashboard) readBudgetTabs(ctx context.Context, now time.Time) (sheets.BudgetRows, error) {
	years := d.catalog.BudgetYears(now)
	results := make([]sheets.BudgetRows, len(years))

	var g errgroup.Group
	g.SetLimit(d.config.FetchConcurrency)
	for i, year := range years {
		rng := d.catalog.BudgetRange(year)
		g.Go(func() error {
			raw, err := d.readRange(ctx, rng)
			if err != nil {
				return err
			}
			parsed, rejected := sheets.ParseBudget(raw)
			logRejected(ctx, rng, rejected)
			results[i] = parsed
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return sheets.BudgetRows{}, err
	}

	var merged sheets.BudgetRows
	for _, r := range results {
		merged.Expenses = append(merged.Expenses, r.Expenses...)
		merged.Income = append(merged.Income, r.Income...)
	}
	return merged, nil
}

// Snapshots returns the net worth months that carry data, most recent first.
func (d *Dashboard) Snapshots(ctx context.Context) ([]core.MonthSnapshot, error) {
	rng := d.catalog.NetWorthRange()
	raw, err := d.readRange(ctx, rng)
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return []core.MonthSnapshot{}, nil
	}
	snapshots, rejected, err := sheets.ParseNetWorth(raw)
	if err != nil {
		applog.FromContext(ctx).WarnContext(ctx, "Net worth grid unreadable",
			applog.FieldRange, rng, applog.FieldError, err)
		return []core.MonthSnapshot{}, nil
	}
	logRejected(ctx, rng, rejected)
	return ReportedSnapshots(snapshots, d.now()), nil
}

func (d *Dashboard) Comparison(ctx context.Context) (ComparisonView, error) {
	snapshots, err := d.Snapshots(ctx)
	if err != nil {
		return ComparisonView{}, err
	}
	return ComparisonView{
		Months:      MonthDisplays(snapshots),
		Comparisons: Lookbacks(snapshots),
	}, nil
}

func (d *Dashboard) Months(ctx context.Context) (MonthsView, error) {
	snapshots, err := d.Snapshots(ctx)
	if err != nil {
		return MonthsView{}, err
	}
	return MonthsView{Months: MonthDisplays(snapshots)}, nil
}

// Sheet renders one month of the net worth grid; a blank month picks the
// most recent one.
func (d *Dashboard) Sheet(ctx context.Context, month string) (SheetView, error) {
	snapshots, err := d.Snapshots(ctx)
	if err != nil {
		return SheetView{}, err
	}
	s, ok := SelectSnapshot(snapshots, month)
	return NewSheetView(s, ok, month), nil
}

func (d *Dashboard) Milestones(ctx context.Context) (MilestoneProgress, error) {
	snapshots, err := d.Snapshots(ctx)
	if err != nil {
		return MilestoneProgress{}, err
	}
	return BuildMilestoneProgress(SeriesFromSnapshots(snapshots), d.config.Thresholds, d.config.Origin), nil
}

func (d *Dashboard) Earnings(ctx context.Context, year int) (EarningsReport, error) {
	rng := d.catalog.EarningsRange()
	raw, err := d.readRange(ctx, rng)
	if err != nil {
		return EarningsReport{}, err
	}
	records, rejected := sheets.ParseEarnings(raw)
	logRejected(ctx, rng, rejected)
	return BuildEarningsReport(records, year, d.now()), nil
}

func (d *Dashboard) OtherIncome(ctx context.Context) (OtherIncomeReport, error) {
	rng := d.catalog.OtherIncomeRange()
	raw, err := d.readRange(ctx, rng)
	if err != nil {
		return OtherIncomeReport{}, err
	}
	entries, rejected := sheets.ParseOtherIncome(raw)
	logRejected(ctx, rng, rejected)
	return BuildOtherIncomeReport(entries, d.config.OtherIncomeTaxRate, d.now()), nil
}

// readRange returns an error only when the source is not configured. Any
// other failure is logged and read as an empty range.
func (d *Dashboard) readRange(ctx context.Context, rng string) ([][]string, error) {
	rows, err := d.reader.ReadRange(ctx, rng)
	if err == nil {
		return rows, nil
	}
	if errors.Is(err, sheets.ErrNotConfigured) {
		return nil, fmt.Errorf("read %s: %w", rng, err)
	}
	applog.FromContext(ctx).WarnContext(ctx, "Failed to read range, omitting it",
		applog.FieldRange, rng, applog.FieldError, err)
	return nil, nil
}

func logRejected(ctx context.Context, rng string, rejected []sheets.RowError) {
	if len(rejected) == 0 {
		return
	}
	logger := applog.FromContext(ctx)
	for _, re := range rejected {
		logger.DebugContext(ctx, "Row skipped",
			applog.FieldRange, rng,
			"layout", re.Layout,
			"row", re.Row+1,
			applog.FieldError, re.Err)
	}
}

func sortedMonthsDesc(set map[core.YearMonth]struct{}) []core.YearMonth {
	out := make([]core.YearMonth, 0, len(set))
	for ym := range set {
		out = append(out, ym)
	}
	sort.Slice(out, func(i, j int) bool { return out[j].Before(out[i]) })
	return out
}
