package sheets

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"finsight/internal/core"
)

// monthColumnOffset is the first column scanned for "Mon-YY" headers.
const monthColumnOffset = 3

// MonthColumn is one month column of the net worth grid.
type MonthColumn struct {
	Index  int
	Label  string
	Period core.YearMonth
}

// GridLayout describes the net worth sheet as discovered from its header.
type GridLayout struct {
	HeaderRow   int
	CategoryCol int
	TypeCol     int
	ItemCol     int
	Months      []MonthColumn
}

// DetectGridLayout finds the header row (the first row with a cell
// containing "category", case-insensitive) and its month columns.
func DetectGridLayout(rows [][]string) (GridLayout, error) {
	for i, row := range rows {
		for j, cell := range row {
			if !strings.Contains(strings.ToLower(cell), "category") {
				continue
			}
			layout := GridLayout{HeaderRow: i, CategoryCol: j, TypeCol: j + 1, ItemCol: j + 2}
			start := monthColumnOffset
			if start < j+3 {
				start = j + 3
			}
			for k := start; k < len(row); k++ {
				label := strings.TrimSpace(row[k])
				if !core.IsHeaderMonth(label) {
					continue
				}
				ym, err := core.ParseMonthLabel(label)
				if err != nil {
					continue
				}
				layout.Months = append(layout.Months, MonthColumn{Index: k, Label: label, Period: ym})
			}
			return layout, nil
		}
	}
	return GridLayout{}, ErrHeaderNotFound
}

// ParseNetWorth builds one snapshot per month column, most recent first.
// Rows without a recognised category are skipped and reported.
func ParseNetWorth(rows [][]string) ([]core.MonthSnapshot, []RowError, error) {
	layout, err := DetectGridLayout(rows)
	if err != nil {
		return nil, nil, err
	}

	type parsedRow struct {
		category core.LineCategory
		typ      string
		item     string
		cells    []string
	}
	var (
		lines    []parsedRow
		rejected []RowError
		netWorth []string
	)
	cell := func(row []string, idx int) string {
		if idx < 0 || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	for i := layout.HeaderRow + 1; i < len(rows); i++ {
		row := rows[i]
		if isBlankRow(row) {
			continue
		}
		rawCategory := cell(row, layout.CategoryCol)
		if rawCategory == "" {
			rejected = append(rejected, RowError{Layout: "net_worth", Row: i, Err: fmt.Errorf("%w: [%s]", ErrMissingField, FieldCategory)})
			continue
		}
		category, ok := core.ParseLineCategory(rawCategory)
		if !ok {
			rejected = append(rejected, RowError{Layout: "net_worth", Row: i, Err: fmt.Errorf("unknown category %q", rawCategory)})
			continue
		}
		if category == core.CategoryNetWorth {
			if netWorth == nil {
				netWorth = row
			}
			continue
		}
		typ := cell(row, layout.TypeCol)
		item := cell(row, layout.ItemCol)
		if item == "" {
			item = typ
		}
		lines = append(lines, parsedRow{category: category, typ: typ, item: item, cells: row})
	}

	snapshots := make([]core.MonthSnapshot, 0, len(layout.Months))
	for _, mc := range layout.Months {
		monthLines := make([]core.BalanceLine, 0, len(lines))
		for _, l := range lines {
			monthLines = append(monthLines, core.BalanceLine{
				Category: l.category,
				Type:     l.typ,
				Item:     l.item,
				Amount:   core.AmountOrZero(cell(l.cells, mc.Index)),
			})
		}
		var reported *decimal.Decimal
		if netWorth != nil {
			if v, err := core.ParseAmount(cell(netWorth, mc.Index)); err == nil {
				reported = &v
			}
		}
		snapshots = append(snapshots, core.NewSnapshot(mc.Period, mc.Label, monthLines, reported))
	}
	SortSnapshotsDesc(snapshots)
	return snapshots, rejected, nil
}

// SortSnapshotsDesc orders snapshots most recent first.
func SortSnapshotsDesc(s []core.MonthSnapshot) {
	sort.SliceStable(s, func(i, j int) bool { return s[j].Period.Before(s[i].Period) })
}

func isBlankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
