package core

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// YearMonth identifies a calendar month.
type YearMonth struct {
	Year  int
	Month time.Month
}

// FiscalYear is an April–March window labelled by its start year.
type FiscalYear struct {
	StartYear int    `json:"startYear"`
	EndYear   int    `json:"endYear"`
	Label     string `json:"label"`
}

// monthAliases maps lower-cased month spellings found in the sheets. "jly"
// is how one of the budget tabs abbreviates July.
var monthAliases = map[string]time.Month{
	"jan": time.January, "january": time.January,
	"feb": time.February, "february": time.February,
	"mar": time.March, "march": time.March,
	"apr": time.April, "april": time.April,
	"may": time.May,
	"jun": time.June, "june": time.June,
	"jul": time.July, "july": time.July, "jly": time.July,
	"aug": time.August, "august": time.August,
	"sep": time.September, "sept": time.September, "september": time.September,
	"oct": time.October, "october": time.October,
	"nov": time.November, "november": time.November,
	"dec": time.December, "december": time.December,
}

var (
	monthLabelRe   = regexp.MustCompile(`^([A-Za-z]+)\.?\s*[-/\s']?\s*(\d{2}|\d{4})$`)
	headerMonthRe  = regexp.MustCompile(`^[A-Za-z]{3,9}-\d{2}$`)
	fiscalLabelRe  = regexp.MustCompile(`^(?:FY\s*)?(\d{4})\s*-\s*(\d{2}|\d{4})$`)
	minLabelYear   = 2000
	fiscalStartMon = time.April
)

// ParseMonthLabel resolves labels such as "Oct/25", "Apr 2025", "July-25" or
// "Sept'24". Two-digit years are taken as 20YY. Labels that do not resolve to
// a month and a year >= 2000 are rejected with ErrInvalidMonthLabel.
func ParseMonthLabel(s string) (YearMonth, error) {
	m := monthLabelRe.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return YearMonth{}, fmt.Errorf("%w: %q", ErrInvalidMonthLabel, s)
	}
	month, ok := monthAliases[strings.ToLower(m[1])]
	if !ok {
		return YearMonth{}, fmt.Errorf("%w: unknown month %q", ErrInvalidMonthLabel, m[1])
	}
	year, err := strconv.Atoi(m[2])
	if err != nil {
		return YearMonth{}, fmt.Errorf("%w: %q", ErrInvalidMonthLabel, s)
	}
	if len(m[2]) == 2 {
		year += 2000
	}
	if year < minLabelYear {
		return YearMonth{}, fmt.Errorf("%w: year %d before %d", ErrInvalidMonthLabel, year, minLabelYear)
	}
	return YearMonth{Year: year, Month: month}, nil
}

// IsHeaderMonth reports whether a header cell looks like a "Mon-YY" month
// column.
func IsHeaderMonth(s string) bool {
	return headerMonthRe.MatchString(strings.TrimSpace(s))
}

// YearMonthOf returns the calendar month containing t.
func YearMonthOf(t time.Time) YearMonth {
	return YearMonth{Year: t.Year(), Month: t.Month()}
}

// Label formats the month as "Oct/25", the budget sheet convention.
func (ym YearMonth) Label() string {
	return fmt.Sprintf("%s/%02d", ym.Month.String()[:3], ym.Year%100)
}

// Display formats the month as "Oct 2025".
func (ym YearMonth) Display() string {
	return fmt.Sprintf("%s %d", ym.Month.String()[:3], ym.Year)
}

func (ym YearMonth) IsZero() bool {
	return ym.Year == 0 && ym.Month == 0
}

// Before reports whether ym is strictly earlier than other.
func (ym YearMonth) Before(other YearMonth) bool {
	if ym.Year != other.Year {
		return ym.Year < other.Year
	}
	return ym.Month < other.Month
}

// Index is a monotonically increasing month number usable for ordering.
func (ym YearMonth) Index() int {
	return ym.Year*12 + int(ym.Month) - 1
}

// MonthsBetween returns (to.Year-from.Year)*12 + (to.Month-from.Month).
func MonthsBetween(from, to YearMonth) int {
	return (to.Year-from.Year)*12 + int(to.Month) - int(from.Month)
}

// NewFiscalYear returns the window April startYear – March startYear+1.
func NewFiscalYear(startYear int) FiscalYear {
	return FiscalYear{
		StartYear: startYear,
		EndYear:   startYear + 1,
		Label:     fmt.Sprintf("FY %d-%02d", startYear, (startYear+1)%100),
	}
}

// FiscalYearOf returns the fiscal year containing ym.
func FiscalYearOf(ym YearMonth) FiscalYear {
	if ym.Month >= fiscalStartMon {
		return NewFiscalYear(ym.Year)
	}
	return NewFiscalYear(ym.Year - 1)
}

// CurrentFiscalYear derives the window in effect at now: January–March
// belong to the fiscal year that started the previous calendar year.
func CurrentFiscalYear(now time.Time) FiscalYear {
	return FiscalYearOf(YearMonthOf(now))
}

// SelectFiscalYear starts the window at explicitStartYear when it is set
// (non-zero), otherwise falls back to the window in effect at now.
func SelectFiscalYear(explicitStartYear int, now time.Time) FiscalYear {
	if explicitStartYear != 0 {
		return NewFiscalYear(explicitStartYear)
	}
	return CurrentFiscalYear(now)
}

// ParseFiscalYearLabel accepts "FY 2025-26", "2025-26" or "2025-2026".
func ParseFiscalYearLabel(s string) (FiscalYear, error) {
	m := fiscalLabelRe.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return FiscalYear{}, fmt.Errorf("%w: %q", ErrInvalidFiscalYear, s)
	}
	start, _ := strconv.Atoi(m[1])
	end, _ := strconv.Atoi(m[2])
	if len(m[2]) == 2 {
		end += start / 100 * 100
		if end < start {
			end += 100
		}
	}
	if end != start+1 {
		return FiscalYear{}, fmt.Errorf("%w: %q does not span consecutive years", ErrInvalidFiscalYear, s)
	}
	return NewFiscalYear(start), nil
}

// Contains reports whether ym falls inside the window.
func (fy FiscalYear) Contains(ym YearMonth) bool {
	return FiscalYearOf(ym).StartYear == fy.StartYear
}

// Start is April of the start year.
func (fy FiscalYear) Start() YearMonth {
	return YearMonth{Year: fy.StartYear, Month: time.April}
}

// End is March of the end year.
func (fy FiscalYear) End() YearMonth {
	return YearMonth{Year: fy.EndYear, Month: time.March}
}

// FiscalMonthOrder maps April→1 … March→12. It orders months within one
// fiscal year only; compare fiscal years first when sorting across them.
func FiscalMonthOrder(m time.Month) int {
	return (int(m)-int(fiscalStartMon)+12)%12 + 1
}

// ParseInvoiceDate parses an M/D/YYYY date in UTC.
func ParseInvoiceDate(s string) (time.Time, error) {
	t, err := time.ParseInLocation("1/2/2006", strings.TrimSpace(s), time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return t, nil
}
