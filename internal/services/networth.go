package services

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"finsight/internal/core"
)

// SheetView is the /sheets payload for one month column.
type SheetView struct {
	NetWorth         decimal.Decimal            `json:"netWorth"`
	Assets           []core.BalanceLine         `json:"assets"`
	Liabilities      []core.BalanceLine         `json:"liabilities"`
	SelectedMonth    string                     `json:"selectedMonth"`
	TotalAssets      decimal.Decimal            `json:"totalAssets"`
	TotalLiabilities decimal.Decimal            `json:"totalLiabilities"`
	AssetsByType     map[string]decimal.Decimal `json:"assetsByType"`
}

type ComparisonView struct {
	Months      []string    `json:"months"`
	Comparisons Comparisons `json:"comparisons"`
}

// ReportedSnapshots keeps the complete months that carry data, preserving
// the most-recent-first order.
func ReportedSnapshots(snapshots []core.MonthSnapshot, now time.Time) []core.MonthSnapshot {
	out := make([]core.MonthSnapshot, 0, len(snapshots))
	for _, s := range snapshots {
		if s.HasData() && core.IsComplete(s.Period, now) {
			out = append(out, s)
		}
	}
	return out
}

// MonthDisplays lists display labels ("Oct 2025") in snapshot order.
func MonthDisplays(snapshots []core.MonthSnapshot) []string {
	out := make([]string, 0, len(snapshots))
	for _, s := range snapshots {
		out = append(out, s.Period.Display())
	}
	return out
}

// SelectSnapshot finds the snapshot named by month, accepting either the
// display form or any label ParseMonthLabel understands. A blank month
// selects the most recent snapshot.
func SelectSnapshot(snapshots []core.MonthSnapshot, month string) (core.MonthSnapshot, bool) {
	month = strings.TrimSpace(month)
	if month == "" {
		if len(snapshots) == 0 {
			return core.MonthSnapshot{}, false
		}
		return snapshots[0], true
	}
	ym, err := core.ParseMonthLabel(month)
	for _, s := range snapshots {
		if strings.EqualFold(s.Month, month) || strings.EqualFold(s.Period.Display(), month) {
			return s, true
		}
		if err == nil && s.Period == ym {
			return s, true
		}
	}
	return core.MonthSnapshot{}, false
}

// NewSheetView renders a snapshot. ok=false yields the zero shape labelled
// with the requested month.
func NewSheetView(s core.MonthSnapshot, ok bool, requested string) SheetView {
	if !ok {
		return SheetView{
			NetWorth:         decimal.Zero,
			Assets:           []core.BalanceLine{},
			Liabilities:      []core.BalanceLine{},
			SelectedMonth:    requested,
			TotalAssets:      decimal.Zero,
			TotalLiabilities: decimal.Zero,
			AssetsByType:     map[string]decimal.Decimal{},
		}
	}
	return SheetView{
		NetWorth:         s.NetWorth,
		Assets:           s.Assets,
		Liabilities:      s.Liabilities,
		SelectedMonth:    s.Period.Display(),
		TotalAssets:      s.TotalAssets,
		TotalLiabilities: s.TotalLiabilities,
		AssetsByType:     s.AssetsByType,
	}
}
