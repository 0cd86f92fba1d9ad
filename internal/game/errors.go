// Package game implements the raid lifecycle engine: a time-driven state
// machine that moves an attack from creation through travel, combat
// resolution, looting and troop return.  The engine owns all raid state
// transitions and the troop/resource ledger accounting around them; it
// consumes persistence, time, mail and authorization through interfaces so
// the transport layer and collaborators stay outside.
package game

import "errors"

// Sentinel errors returned by engine operations.  Handlers compare with
// errors.Is and translate them into HTTP statuses.
var (
	// ErrNotFound is returned when a raid or city does not exist, or when a
	// non-admin caller asks about a raid they do not own (existence is not
	// revealed to strangers).
	ErrNotFound = errors.New("not found")

	// ErrForbidden is returned when the actor lacks ownership of the city the
	// operation acts on and is not an admin.
	ErrForbidden = errors.New("forbidden")

	// ErrInvalidState is returned when a transition is attempted on a raid
	// whose current status forbids it, e.g. recalling a resolved raid.
	ErrInvalidState = errors.New("invalid raid state")

	// ErrInsufficientTroops is returned when a create request asks for more
	// units of any type than the attacker city garrisons.  The whole request
	// is rejected and the ledger is left untouched.
	ErrInsufficientTroops = errors.New("insufficient troops")

	// ErrUnknownTroopType is returned when a create request names a troop
	// code that is not in the catalogue.
	ErrUnknownTroopType = errors.New("unknown troop type")

	// ErrNoTroops is returned when a create request carries no troop lines
	// or a line with an empty code or non-positive count.
	ErrNoTroops = errors.New("troops required")

	// ErrInvalidTarget is returned when a raid targets the attacker's own
	// city or the same city it departs from.
	ErrInvalidTarget = errors.New("invalid raid target")

	// ErrRaidLimit is returned when the attacker city already has the
	// maximum number of active (enroute or returning) raids out.
	ErrRaidLimit = errors.New("too many active raids")

	// ErrConcurrentModification is returned when a transition repeatedly
	// loses the race for its row locks and the internal retry budget is
	// exhausted.  Callers may retry the whole operation.
	ErrConcurrentModification = errors.New("concurrent modification")
)
