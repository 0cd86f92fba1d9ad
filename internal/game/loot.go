package game

import (
	"sort"

	"github.com/mgmcelwee/evony/internal/model"
)

// Lootable returns the portion of a city's stockpile that sits above its
// protected floor, per kind.  Raids can only ever take from this portion.
func Lootable(c *model.City) model.Resources {
	var out model.Resources
	for _, k := range model.ResourceKinds {
		v := c.Stock.Get(k) - c.Protected.Get(k)
		if v < 0 {
			v = 0
		}
		out = out.Set(k, v)
	}
	return out
}

// ProportionalTake splits the carry capacity across the lootable kinds in
// proportion to how much of each is available.  Integer truncation leftovers
// are handed out one unit at a time in largest-remainder order, so the take
// is deterministic and never exceeds either the capacity or the per-kind
// availability.
func ProportionalTake(loot model.Resources, capacity int64) model.Resources {
	var taken model.Resources
	total := loot.Total()
	if total <= 0 || capacity <= 0 {
		return taken
	}

	takeTotal := capacity
	if total < takeTotal {
		takeTotal = total
	}

	type rem struct {
		frac float64
		kind model.ResourceKind
	}
	remainders := make([]rem, 0, len(model.ResourceKinds))

	for _, k := range model.ResourceKinds {
		exact := float64(loot.Get(k)) / float64(total) * float64(takeTotal)
		base := int64(exact)
		if avail := loot.Get(k); base > avail {
			base = avail
		}
		taken = taken.Set(k, base)
		remainders = append(remainders, rem{frac: exact - float64(base), kind: k})
	}

	sort.SliceStable(remainders, func(i, j int) bool {
		return remainders[i].frac > remainders[j].frac
	})

	left := takeTotal - taken.Total()
	for left > 0 {
		progressed := false
		for _, r := range remainders {
			if left <= 0 {
				break
			}
			if taken.Get(r.kind) < loot.Get(r.kind) {
				taken = taken.Set(r.kind, taken.Get(r.kind)+1)
				left--
				progressed = true
			}
		}
		if !progressed {
			break
		}
	}
	return taken
}
