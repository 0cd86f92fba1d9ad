package game

import "github.com/mgmcelwee/evony/internal/model"

// Resource ledger operations.  Both directions clamp by construction so the
// invariant protected <= stock <= cap can never be violated at runtime: a
// debit stops at the protected floor, a credit stops at the storage cap.
// The two directions are deliberately asymmetric (defenders are protected,
// attackers are capacity-limited) and must not be unified.

// DebitFloored removes up to want from the city's stock of one kind, never
// dropping below the protected floor.  It returns the amount actually
// removed, which may be less than requested.
func DebitFloored(c *model.City, kind model.ResourceKind, want int64) int64 {
	if want <= 0 {
		return 0
	}
	have := c.Stock.Get(kind)
	floor := c.Protected.Get(kind)
	room := have - floor
	if room <= 0 {
		return 0
	}
	take := want
	if take > room {
		take = room
	}
	c.Stock = c.Stock.Set(kind, have-take)
	return take
}

// CreditCapped adds up to amount to the city's stock of one kind, never
// exceeding the storage cap.  It returns the amount actually added; overflow
// beyond the cap is lost.
func CreditCapped(c *model.City, kind model.ResourceKind, amount int64) int64 {
	if amount <= 0 {
		return 0
	}
	have := c.Stock.Get(kind)
	cap := c.Cap.Get(kind)
	room := cap - have
	if room <= 0 {
		return 0
	}
	add := amount
	if add > room {
		add = room
	}
	c.Stock = c.Stock.Set(kind, have+add)
	return add
}

// DebitAllFloored applies DebitFloored for every kind in take and returns
// the per-kind amounts actually removed.
func DebitAllFloored(c *model.City, take model.Resources) model.Resources {
	var actual model.Resources
	for _, k := range model.ResourceKinds {
		actual = actual.Set(k, DebitFloored(c, k, take.Get(k)))
	}
	return actual
}

// CreditAllCapped applies CreditCapped for every kind in add and returns
// the per-kind amounts actually stored.
func CreditAllCapped(c *model.City, add model.Resources) model.Resources {
	var actual model.Resources
	for _, k := range model.ResourceKinds {
		actual = actual.Set(k, CreditCapped(c, k, add.Get(k)))
	}
	return actual
}
