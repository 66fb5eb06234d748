package services

import (
	"testing"
	"time"

	"finsight/internal/core"
)

func point(p core.YearMonth, nw int64) NetWorthPoint {
	return NetWorthPoint{Month: p.Display(), Period: p, NetWorth: dec(nw)}
}

var crore = []Threshold{
	{Value: dec(10_000_000), Label: "₹1 Crore"},
	{Value: dec(20_000_000), Label: "₹2 Crore"},
}

func TestReconstructMilestones(t *testing.T) {
	origin := Origin{Period: ym(2019, time.April), Label: "Apr 2019"}

	t.Run("elapsed months between crossings", func(t *testing.T) {
		series := []NetWorthPoint{
			point(ym(2023, time.January), 9_000_000),
			point(ym(2023, time.March), 10_500_000),
			point(ym(2024, time.June), 19_000_000),
			point(ym(2024, time.September), 21_000_000),
		}
		got := ReconstructMilestones(series, crore, origin)
		if len(got) != 2 {
			t.Fatalf("got %d crossings, want 2", len(got))
		}
		if got[0].MonthsSincePrevious != core.MonthsBetween(origin.Period, ym(2023, time.March)) {
			t.Errorf("first crossing months = %d", got[0].MonthsSincePrevious)
		}
		if got[0].PreviousLabel != "Apr 2019" {
			t.Errorf("first previous label = %q", got[0].PreviousLabel)
		}
		want := core.MonthsBetween(ym(2023, time.March), ym(2024, time.September))
		if got[1].MonthsSincePrevious != want || want != 18 {
			t.Errorf("second crossing months = %d, want %d", got[1].MonthsSincePrevious, want)
		}
		if got[1].PreviousLabel != "₹1 Crore" || got[1].AchievedMonth != "Sep 2024" {
			t.Errorf("second crossing = %+v", got[1])
		}
	})

	t.Run("same month crossing clamps to one", func(t *testing.T) {
		series := []NetWorthPoint{
			point(ym(2024, time.May), 5_000_000),
			point(ym(2024, time.June), 25_000_000),
		}
		got := ReconstructMilestones(series, crore, origin)
		if len(got) != 2 {
			t.Fatalf("got %d crossings, want 2", len(got))
		}
		if got[0].AchievedMonth != got[1].AchievedMonth {
			t.Errorf("both thresholds should be crossed in Jun 2024")
		}
		if got[1].MonthsSincePrevious != 1 {
			t.Errorf("same-month crossing = %d, want 1", got[1].MonthsSincePrevious)
		}
	})

	t.Run("dip does not move the anchor", func(t *testing.T) {
		series := []NetWorthPoint{
			point(ym(2024, time.January), 10_000_000),
			point(ym(2024, time.February), 9_000_000),
			point(ym(2024, time.March), 10_100_000),
			point(ym(2024, time.July), 20_000_000),
		}
		got := ReconstructMilestones(series, crore, origin)
		if got[0].AchievedMonth != "Jan 2024" || got[1].MonthsSincePrevious != 6 {
			t.Errorf("crossings = %+v", got)
		}
	})

	t.Run("stops at the first unmet threshold", func(t *testing.T) {
		series := []NetWorthPoint{point(ym(2024, time.January), 12_000_000)}
		got := ReconstructMilestones(series, crore, origin)
		if len(got) != 1 {
			t.Errorf("got %d crossings, want 1", len(got))
		}
		if got := ReconstructMilestones(nil, crore, origin); len(got) != 0 || got == nil {
			t.Errorf("empty series should give an empty, non-nil list")
		}
	})
}

func TestBuildMilestoneProgress(t *testing.T) {
	origin := Origin{Period: ym(2019, time.April), Label: "Apr 2019"}
	series := []NetWorthPoint{
		point(ym(2024, time.January), 8_000_000),
		point(ym(2024, time.February), 15_000_000),
	}
	mp := BuildMilestoneProgress(series, crore, origin)
	if mp.NextMilestone == nil || mp.NextMilestone.Label != "₹2 Crore" {
		t.Fatalf("next = %+v", mp.NextMilestone)
	}
	if mp.ProgressPercent != 50 {
		t.Errorf("progress = %v, want 50", mp.ProgressPercent)
	}

	done := BuildMilestoneProgress([]NetWorthPoint{point(ym(2024, time.March), 30_000_000)}, crore, origin)
	if done.NextMilestone != nil || done.ProgressPercent != 100 {
		t.Errorf("all reached: %+v", done)
	}
}

func TestSeriesFromSnapshots(t *testing.T) {
	desc := []core.MonthSnapshot{
		snapshot(ym(2025, time.March), asset("Cash", "Bank", 300)),
		snapshot(ym(2025, time.February), asset("Cash", "Bank", 200)),
	}
	series := SeriesFromSnapshots(desc)
	if series[0].Period != ym(2025, time.February) || !series[1].NetWorth.Equal(dec(300)) {
		t.Errorf("series not ascending: %+v", series)
	}
}
