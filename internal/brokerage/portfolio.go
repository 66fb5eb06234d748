package brokerage

import (
	"sort"

	"github.com/shopspring/decimal"

	"finsight/internal/core"
)

const topMoversLimit = 3

type Mover struct {
	Symbol           string          `json:"symbol"`
	DayChange        decimal.Decimal `json:"dayChange"`
	DayChangePercent decimal.Decimal `json:"dayChangePercent"`
}

// Portfolio is the /portfolio payload. Only Connected is set when there is
// no brokerage session.
type Portfolio struct {
	Connected        bool             `json:"connected"`
	Holdings         int              `json:"holdings,omitempty"`
	Invested         *decimal.Decimal `json:"invested,omitempty"`
	CurrentValue     *decimal.Decimal `json:"currentValue,omitempty"`
	PnL              *decimal.Decimal `json:"pnl,omitempty"`
	PnLPercent       float64          `json:"pnlPercent,omitempty"`
	DayChange        *decimal.Decimal `json:"dayChange,omitempty"`
	DayChangePercent float64          `json:"dayChangePercent,omitempty"`
	TopGainers       []Mover          `json:"topGainers,omitempty"`
	TopLosers        []Mover          `json:"topLosers,omitempty"`
}

// Disconnected is the payload for a missing or rejected session.
func Disconnected() Portfolio {
	return Portfolio{Connected: false}
}

// Summarize totals holdings at average cost and last price. The previous day
// value is derived from the close price.
func Summarize(holdings []Holding) Portfolio {
	invested, current, previous, day := decimal.Zero, decimal.Zero, decimal.Zero, decimal.Zero
	movers := make([]Mover, 0, len(holdings))
	for _, h := range holdings {
		invested = invested.Add(h.Quantity.Mul(h.AveragePrice))
		current = current.Add(h.Quantity.Mul(h.LastPrice))
		previous = previous.Add(h.Quantity.Mul(h.ClosePrice))
		day = day.Add(h.Quantity.Mul(h.DayChange))
		movers = append(movers, Mover{Symbol: h.Symbol, DayChange: h.DayChange, DayChangePercent: h.DayChangePercent})
	}
	pnl := current.Sub(invested)

	p := Portfolio{
		Connected:        true,
		Holdings:         len(holdings),
		Invested:         &invested,
		CurrentValue:     &current,
		PnL:              &pnl,
		PnLPercent:       core.Percent(pnl, invested),
		DayChange:        &day,
		DayChangePercent: core.Percent(day, previous),
		TopGainers:       []Mover{},
		TopLosers:        []Mover{},
	}

	sort.SliceStable(movers, func(i, j int) bool {
		return movers[i].DayChangePercent.GreaterThan(movers[j].DayChangePercent)
	})
	for _, m := range movers {
		if len(p.TopGainers) < topMoversLimit && m.DayChangePercent.IsPositive() {
			p.TopGainers = append(p.TopGainers, m)
		}
	}
	for i := len(movers) - 1; i >= 0; i-- {
		if len(p.TopLosers) < topMoversLimit && movers[i].DayChangePercent.IsNegative() {
			p.TopLosers = append(p.TopLosers, movers[i])
		}
	}
	return p
}

