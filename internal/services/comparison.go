package services

import (
	"sort"

	"github.com/shopspring/decimal"

	"finsight/internal/core"
)

const (
	topChangesLimit  = 5
	moversLimit      = 3
	lookbackMoM      = 1
	lookbackTwoMonth = 2
	lookbackQuarter  = 3
	lookbackHalfYear = 6
)

// Change is the movement of one figure between two snapshots. PercentChange
// is 0 when the previous value is 0, meaning "no signal" rather than a flat
// month.
type Change struct {
	Current       decimal.Decimal `json:"current"`
	Previous      decimal.Decimal `json:"previous"`
	Change        decimal.Decimal `json:"change"`
	PercentChange float64         `json:"percentChange"`
}

type TypeChange struct {
	Type string `json:"type"`
	Change
}

type ItemChange struct {
	Item string `json:"item"`
	Type string `json:"type"`
	Change
}

type PeriodComparison struct {
	CurrentMonth     string       `json:"currentMonth"`
	PreviousMonth    string       `json:"previousMonth"`
	NetWorth         Change       `json:"netWorth"`
	TotalAssets      Change       `json:"totalAssets"`
	TotalLiabilities Change       `json:"totalLiabilities"`
	AssetTypes       []TypeChange `json:"assetTypes"`
	ChangedItems     []ItemChange `json:"changedItems"`
	TopChanges       []ItemChange `json:"topChanges"`
	Gainers          []ItemChange `json:"gainers"`
	Losers           []ItemChange `json:"losers"`
}

// Comparisons holds the fixed lookbacks from the most recent snapshot. A
// lookback without a snapshot that far back is nil.
type Comparisons struct {
	MoM        *PeriodComparison `json:"mom"`
	TwoMonth   *PeriodComparison `json:"twoMonth"`
	ThreeMonth *PeriodComparison `json:"threeMonth"`
	SixMonth   *PeriodComparison `json:"sixMonth"`
}

func newChange(current, previous decimal.Decimal) Change {
	c := Change{Current: current, Previous: previous, Change: current.Sub(previous)}
	if !previous.IsZero() {
		c.PercentChange = c.Change.Div(previous.Abs()).Mul(decimal.NewFromInt(100)).Round(2).InexactFloat64()
	}
	return c
}

// Compare diffs current against previous.
func Compare(current, previous core.MonthSnapshot) PeriodComparison {
	pc := PeriodComparison{
		CurrentMonth:     current.Month,
		PreviousMonth:    previous.Month,
		NetWorth:         newChange(current.NetWorth, previous.NetWorth),
		TotalAssets:      newChange(current.TotalAssets, previous.TotalAssets),
		TotalLiabilities: newChange(current.TotalLiabilities, previous.TotalLiabilities),
		AssetTypes:       []TypeChange{},
		ChangedItems:     []ItemChange{},
	}

	for _, typ := range unionTypes(current, previous) {
		pc.AssetTypes = append(pc.AssetTypes, TypeChange{
			Type:   typ,
			Change: newChange(current.AssetsByType[typ], previous.AssetsByType[typ]),
		})
	}

	cur := itemAmounts(current.Assets)
	prev := itemAmounts(previous.Assets)
	for _, name := range unionItems(current.Assets, previous.Assets) {
		ch := newChange(cur.amounts[name], prev.amounts[name])
		if ch.Change.IsZero() {
			continue
		}
		typ, ok := cur.types[name]
		if !ok {
			typ = prev.types[name]
		}
		pc.ChangedItems = append(pc.ChangedItems, ItemChange{Item: name, Type: typ, Change: ch})
	}

	sorted := append([]ItemChange(nil), pc.ChangedItems...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Change.Change.Abs().GreaterThan(sorted[j].Change.Change.Abs())
	})
	pc.TopChanges = capItems(sorted, topChangesLimit)
	pc.Gainers = []ItemChange{}
	pc.Losers = []ItemChange{}
	for _, it := range sorted {
		switch {
		case it.Change.Change.IsPositive() && len(pc.Gainers) < moversLimit:
			pc.Gainers = append(pc.Gainers, it)
		case it.Change.Change.IsNegative() && len(pc.Losers) < moversLimit:
			pc.Losers = append(pc.Losers, it)
		}
	}
	return pc
}

// Lookbacks compares the first snapshot of a most-recent-first list with the
// snapshots 1, 2, 3 and 6 positions behind it.
func Lookbacks(snapshots []core.MonthSnapshot) Comparisons {
	at := func(offset int) *PeriodComparison {
		if len(snapshots) <= offset {
			return nil
		}
		pc := Compare(snapshots[0], snapshots[offset])
		return &pc
	}
	return Comparisons{
		MoM:        at(lookbackMoM),
		TwoMonth:   at(lookbackTwoMonth),
		ThreeMonth: at(lookbackQuarter),
		SixMonth:   at(lookbackHalfYear),
	}
}

type itemIndex struct {
	amounts map[string]decimal.Decimal
	types   map[string]string
}

// itemAmounts sums lines sharing an item name; the first line names the type.
func itemAmounts(lines []core.BalanceLine) itemIndex {
	idx := itemIndex{amounts: map[string]decimal.Decimal{}, types: map[string]string{}}
	for _, l := range lines {
		idx.amounts[l.Item] = idx.amounts[l.Item].Add(l.Amount)
		if _, ok := idx.types[l.Item]; !ok {
			idx.types[l.Item] = l.Type
		}
	}
	return idx
}

func unionItems(a, b []core.BalanceLine) []string {
	seen := map[string]struct{}{}
	var out []string
	for _, lines := range [][]core.BalanceLine{a, b} {
		for _, l := range lines {
			if _, ok := seen[l.Item]; ok {
				continue
			}
			seen[l.Item] = struct{}{}
			out = append(out, l.Item)
		}
	}
	return out
}

// unionTypes lists asset types in first-seen order across both snapshots.
func unionTypes(current, previous core.MonthSnapshot) []string {
	seen := map[string]struct{}{}
	var out []string
	for _, s := range []core.MonthSnapshot{current, previous} {
		for _, l := range s.Assets {
			if _, ok := seen[l.Type]; ok {
				continue
			}
			seen[l.Type] = struct{}{}
			out = append(out, l.Type)
		}
	}
	return out
}

func capItems(items []ItemChange, n int) []ItemChange {
	if len(items) > n {
		items = items[:n]
	}
	return append([]ItemChange{}, items...)
}
