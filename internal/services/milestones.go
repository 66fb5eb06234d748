package services

import (
	"github.com/shopspring/decimal"

	"finsight/internal/core"
)

// Threshold is a net worth level worth celebrating.
type Threshold struct {
	Value decimal.Decimal `json:"value"`
	Label string          `json:"label"`
	Emoji string          `json:"emoji"`
}

// DefaultThresholds are the ascending INR milestones: 10 lakh up to 10 crore.
var DefaultThresholds = []Threshold{
	{Value: decimal.NewFromInt(1_000_000), Label: "₹10 Lakh", Emoji: "🌱"},
	{Value: decimal.NewFromInt(2_500_000), Label: "₹25 Lakh", Emoji: "🌿"},
	{Value: decimal.NewFromInt(5_000_000), Label: "₹50 Lakh", Emoji: "🌳"},
	{Value: decimal.NewFromInt(10_000_000), Label: "₹1 Crore", Emoji: "🏆"},
	{Value: decimal.NewFromInt(20_000_000), Label: "₹2 Crore", Emoji: "💎"},
	{Value: decimal.NewFromInt(50_000_000), Label: "₹5 Crore", Emoji: "🚀"},
	{Value: decimal.NewFromInt(100_000_000), Label: "₹10 Crore", Emoji: "👑"},
}

// NetWorthPoint is one month of the net worth series.
type NetWorthPoint struct {
	Month    string
	Period   core.YearMonth
	NetWorth decimal.Decimal
}

// Crossing records the first month net worth reached a threshold.
type Crossing struct {
	Threshold
	AchievedMonth       string `json:"achievedMonth"`
	MonthsSincePrevious int    `json:"monthsSincePrevious"`
	PreviousLabel       string `json:"previousLabel"`
}

// Origin anchors the elapsed time of the first crossing.
type Origin struct {
	Period core.YearMonth
	Label  string
}

// ReconstructMilestones walks an ascending series once. Each threshold is
// searched from the month the previous one was crossed, so a single month may
// cross several thresholds and a later dip never moves an earlier anchor. The
// search stops at the first threshold never reached. Elapsed months are
// floored at 1.
func ReconstructMilestones(series []NetWorthPoint, thresholds []Threshold, origin Origin) []Crossing {
	out := []Crossing{}
	prev := origin.Period
	prevLabel := origin.Label
	cursor := 0
	for _, th := range thresholds {
		found := -1
		for i := cursor; i < len(series); i++ {
			if series[i].NetWorth.GreaterThanOrEqual(th.Value) {
				found = i
				break
			}
		}
		if found < 0 {
			break
		}
		point := series[found]
		months := core.MonthsBetween(prev, point.Period)
		if months < 1 {
			months = 1
		}
		out = append(out, Crossing{
			Threshold:           th,
			AchievedMonth:       point.Month,
			MonthsSincePrevious: months,
			PreviousLabel:       prevLabel,
		})
		prev = point.Period
		prevLabel = th.Label
		cursor = found
	}
	return out
}

// MilestoneProgress is the /milestones payload.
type MilestoneProgress struct {
	Milestones      []Crossing      `json:"milestones"`
	CurrentNetWorth decimal.Decimal `json:"currentNetWorth"`
	NextMilestone   *Threshold      `json:"nextMilestone"`
	ProgressPercent float64         `json:"progressPercent"`
}

// BuildMilestoneProgress reports crossings and the progress from the last
// reached threshold toward the next one.
func BuildMilestoneProgress(series []NetWorthPoint, thresholds []Threshold, origin Origin) MilestoneProgress {
	mp := MilestoneProgress{
		Milestones:      ReconstructMilestones(series, thresholds, origin),
		CurrentNetWorth: decimal.Zero,
	}
	if len(series) == 0 {
		if len(thresholds) > 0 {
			next := thresholds[0]
			mp.NextMilestone = &next
		}
		return mp
	}
	mp.CurrentNetWorth = series[len(series)-1].NetWorth

	base := decimal.Zero
	for i, th := range thresholds {
		if mp.CurrentNetWorth.LessThan(th.Value) {
			next := thresholds[i]
			mp.NextMilestone = &next
			break
		}
		base = th.Value
	}
	if mp.NextMilestone == nil {
		mp.ProgressPercent = 100
		return mp
	}
	span := mp.NextMilestone.Value.Sub(base)
	pct := core.Percent(mp.CurrentNetWorth.Sub(base), span)
	if pct < 0 {
		pct = 0
	}
	mp.ProgressPercent = pct
	return mp
}

// SeriesFromSnapshots turns most-recent-first snapshots into an ascending
// net worth series.
func SeriesFromSnapshots(snapshots []core.MonthSnapshot) []NetWorthPoint {
	out := make([]NetWorthPoint, 0, len(snapshots))
	for i := len(snapshots) - 1; i >= 0; i-- {
		s := snapshots[i]
		out = append(out, NetWorthPoint{Month: s.Month, Period: s.Period, NetWorth: s.NetWorth})
	}
	return out
}
