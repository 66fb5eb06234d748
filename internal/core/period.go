package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// MonetaryRecord exposes the amounts checked by HasActualData.
type MonetaryRecord interface {
	MonetaryFields() []decimal.Decimal
}

// IsComplete reports whether ym is not in the future relative to now.
func IsComplete(ym YearMonth, now time.Time) bool {
	if ym.Year != now.Year() {
		return ym.Year < now.Year()
	}
	return ym.Month <= now.Month()
}

// HasActualData reports whether any monetary field of r is nonzero. Template
// rows pre-created for months not yet reached have every field at zero.
func HasActualData(r MonetaryRecord) bool {
	for _, v := range r.MonetaryFields() {
		if !v.IsZero() {
			return true
		}
	}
	return false
}

// PeriodFilter selects the records shown in aggregate views. Without an
// explicit year only complete months with actual data pass. With an explicit
// year, records of that year pass when they are complete or already carry
// data, since future months are sometimes pre-filled.
type PeriodFilter struct {
	Year int
	Now  time.Time
}

// Allows applies the filter to a record's period and data flag.
func (f PeriodFilter) Allows(ym YearMonth, hasData bool) bool {
	if f.Year != 0 {
		if ym.Year != f.Year {
			return false
		}
		return hasData || IsComplete(ym, f.Now)
	}
	return hasData && IsComplete(ym, f.Now)
}
