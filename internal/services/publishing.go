package services

import (
	"math"
	"sort"
	"time"

	"finsight/internal/core"
)

const day = 24 * time.Hour

// DatedEntry is a course entry with its parsed invoice date.
type DatedEntry struct {
	Description string    `json:"description"`
	Date        time.Time `json:"date"`
}

// GapStats describes the spacing between consecutive publications.
type GapStats struct {
	GapsDays        []int `json:"gapsDays"`
	MinGapDays      int   `json:"minGapDays"`
	MaxGapDays      int   `json:"maxGapDays"`
	AverageGapDays  int   `json:"averageGapDays"`
	EntriesThisYear int   `json:"entriesThisYear"`
	EntriesLastYear int   `json:"entriesLastYear"`
	DaysSinceLast   int   `json:"daysSinceLast"`
}

// PublishingInsights always carries the raw entry count and the first and
// last dated entries. Stats is nil with fewer than two dated entries.
type PublishingInsights struct {
	TotalEntries int         `json:"totalEntries"`
	DatedEntries int         `json:"datedEntries"`
	FirstEntry   *DatedEntry `json:"firstEntry"`
	LastEntry    *DatedEntry `json:"lastEntry"`
	Stats        *GapStats   `json:"stats"`
}

// AnalyzePublishing sorts entries by invoice date, dropping those whose date
// does not parse, and measures the gaps between them in whole days rounded up.
func AnalyzePublishing(entries []core.CourseIncomeEntry, now time.Time) PublishingInsights {
	dated := make([]DatedEntry, 0, len(entries))
	for _, e := range entries {
		t, err := core.ParseInvoiceDate(e.InvoiceDate)
		if err != nil {
			continue
		}
		dated = append(dated, DatedEntry{Description: e.Description, Date: t})
	}
	sort.SliceStable(dated, func(i, j int) bool { return dated[i].Date.Before(dated[j].Date) })

	pi := PublishingInsights{TotalEntries: len(entries), DatedEntries: len(dated)}
	if len(dated) == 0 {
		return pi
	}
	first, last := dated[0], dated[len(dated)-1]
	pi.FirstEntry, pi.LastEntry = &first, &last
	if len(dated) < 2 {
		return pi
	}

	stats := &GapStats{GapsDays: make([]int, 0, len(dated)-1)}
	sum := 0
	for i := 1; i < len(dated); i++ {
		gap := ceilDays(dated[i].Date.Sub(dated[i-1].Date))
		stats.GapsDays = append(stats.GapsDays, gap)
		sum += gap
		if i == 1 || gap < stats.MinGapDays {
			stats.MinGapDays = gap
		}
		if gap > stats.MaxGapDays {
			stats.MaxGapDays = gap
		}
	}
	stats.AverageGapDays = int(math.Round(float64(sum) / float64(len(stats.GapsDays))))

	now = now.UTC()
	for _, d := range dated {
		switch d.Date.Year() {
		case now.Year():
			stats.EntriesThisYear++
		case now.Year() - 1:
			stats.EntriesLastYear++
		}
	}
	if since := now.Sub(last.Date); since > 0 {
		stats.DaysSinceLast = int(since / day)
	}
	pi.Stats = stats
	return pi
}

func ceilDays(d time.Duration) int {
	return int(math.Ceil(float64(d) / float64(day)))
}
