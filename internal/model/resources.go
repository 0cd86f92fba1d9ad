package model

// ResourceKind identifies one of the four stockpiled resource types.
type ResourceKind string

// The four resource kinds tracked per city.
const (
	Food  ResourceKind = "food"
	Wood  ResourceKind = "wood"
	Stone ResourceKind = "stone"
	Iron  ResourceKind = "iron"
)

// ResourceKinds lists all kinds in their canonical order.  Iteration over
// this slice keeps loot distribution and report output deterministic.
var ResourceKinds = []ResourceKind{Food, Wood, Stone, Iron}

// Resources is a fixed bundle of per-kind amounts.  It is used for city
// stockpiles, storage caps, protected floors, production rates and raid loot.
// All arithmetic helpers return new values; none mutate the receiver.
type Resources struct {
	Food  int64 `json:"food"`
	Wood  int64 `json:"wood"`
	Stone int64 `json:"stone"`
	Iron  int64 `json:"iron"`
}

// Get returns the amount for a single kind.
func (r Resources) Get(k ResourceKind) int64 {
	switch k {
	case Food:
		return r.Food
	case Wood:
		return r.Wood
	case Stone:
		return r.Stone
	case Iron:
		return r.Iron
	}
	return 0
}

// Set returns a copy with the amount for a single kind replaced.
func (r Resources) Set(k ResourceKind, v int64) Resources {
	switch k {
	case Food:
		r.Food = v
	case Wood:
		r.Wood = v
	case Stone:
		r.Stone = v
	case Iron:
		r.Iron = v
	}
	return r
}

// Add returns the per-kind sum of r and o.
func (r Resources) Add(o Resources) Resources {
	return Resources{
		Food:  r.Food + o.Food,
		Wood:  r.Wood + o.Wood,
		Stone: r.Stone + o.Stone,
		Iron:  r.Iron + o.Iron,
	}
}

// Sub returns the per-kind difference r - o.
func (r Resources) Sub(o Resources) Resources {
	return Resources{
		Food:  r.Food - o.Food,
		Wood:  r.Wood - o.Wood,
		Stone: r.Stone - o.Stone,
		Iron:  r.Iron - o.Iron,
	}
}

// Total returns the sum over all kinds.
func (r Resources) Total() int64 {
	return r.Food + r.Wood + r.Stone + r.Iron
}

// IsZero reports whether every kind is zero.
func (r Resources) IsZero() bool {
	return r.Food == 0 && r.Wood == 0 && r.Stone == 0 && r.Iron == 0
}
