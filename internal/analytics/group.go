package analytics

import (
	"sort"

	"github.com/shopspring/decimal"
)

type meanAccumulator struct {
	sum   decimal.Decimal
	count int64
}

func (a *meanAccumulator) add(v decimal.Decimal) {
	a.sum = a.sum.Add(v)
	a.count++
}

// mean is unrounded; callers pick truncation or rounding.
func (a *meanAccumulator) mean() decimal.Decimal {
	return a.sum.Div(decimal.NewFromInt(a.count))
}

// groupedMean accumulates an arithmetic mean per group key.
type groupedMean struct {
	groups map[string]*meanAccumulator
}

func newGroupedMean() *groupedMean {
	return &groupedMean{groups: make(map[string]*meanAccumulator)}
}

func (g *groupedMean) add(key string, v decimal.Decimal) {
	acc, ok := g.groups[key]
	if !ok {
		acc = &meanAccumulator{}
		g.groups[key] = acc
	}
	acc.add(v)
}

func (g *groupedMean) size() int {
	return len(g.groups)
}

// keys returns the group keys in ascending order
func (g *groupedMean) keys() []string {
	keys := make([]string, 0, len(g.groups))
	for k := range g.groups {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (g *groupedMean) mean(key string) decimal.Decimal {
	return g.groups[key].mean()
}
