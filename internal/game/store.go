package game

import (
	"context"
	"time"

	"github.com/mgmcelwee/evony/internal/model"
)

// Tx is the atomic persistence scope a single raid transition runs inside.
// Implementations back it with a database transaction (the MySQL store) or a
// process-wide lock (the in-memory store used by tests).  ForUpdate reads
// take row locks for the duration of the scope, so re-checking a raid's
// status after RaidForUpdate makes every stage transition exactly-once.
//
// Lock ordering: the engine always locks the raid row first and at most one
// city row second, so transition scopes cannot deadlock with each other.
type Tx interface {
	InsertRaid(ctx context.Context, r *model.Raid) error
	RaidForUpdate(ctx context.Context, id uint64) (*model.Raid, error)
	UpdateRaid(ctx context.Context, r *model.Raid) error

	InsertRaidTroops(ctx context.Context, lines []model.RaidTroop) error
	RaidTroops(ctx context.Context, raidID uint64) ([]model.RaidTroop, error)
	SetRaidTroopLosses(ctx context.Context, raidID uint64, losses map[uint64]int64) error
	InsertDefenderTroops(ctx context.Context, rows []model.DefenderTroop) error

	City(ctx context.Context, id uint64) (*model.City, error)
	CityForUpdate(ctx context.Context, id uint64) (*model.City, error)
	UpdateCityResources(ctx context.Context, c *model.City) error

	CityTroops(ctx context.Context, cityID uint64) ([]model.CityTroop, error)
	// AdjustCityTroops adds each delta to the city's count for that troop
	// type, creating missing rows at zero.  Callers validate sufficiency
	// before passing negative deltas; counts never go below zero.
	AdjustCityTroops(ctx context.Context, cityID uint64, deltas map[uint64]int64) error

	TroopTypesByCode(ctx context.Context, codes []string) (map[string]model.TroopType, error)
	TroopTypesByID(ctx context.Context, ids []uint64) (map[uint64]model.TroopType, error)

	ActiveRaidCount(ctx context.Context, attackerCityID uint64) (int, error)
}

// ListFilter narrows and pages ListRaids results.
type ListFilter struct {
	// OwnerID restricts results to raids whose attacker city belongs to this
	// user.  Zero means no owner restriction (admin listing).
	OwnerID uint64
	// AttackerCityID restricts to one attacker city when non-zero.
	AttackerCityID uint64
	// Status restricts to one lifecycle state when non-empty.
	Status model.RaidStatus
	// Limit caps the number of rows returned; implementations clamp it to
	// a sane range.
	Limit int
}

// Store is the persistence surface the engine consumes.  WithTx runs fn in
// one atomic scope and commits only when fn returns nil; the remaining
// methods are plain snapshot reads.  Implementations translate their "no
// rows" condition into ErrNotFound and may retry serialization failures a
// bounded number of times before surfacing ErrConcurrentModification.
type Store interface {
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	Raid(ctx context.Context, id uint64) (*model.Raid, error)
	RaidTroops(ctx context.Context, raidID uint64) ([]model.RaidTroop, error)
	DefenderTroops(ctx context.Context, raidID uint64) ([]model.DefenderTroop, error)
	City(ctx context.Context, id uint64) (*model.City, error)
	CityTroops(ctx context.Context, cityID uint64) ([]model.CityTroop, error)
	ListRaids(ctx context.Context, f ListFilter) ([]model.Raid, error)
	TroopTypesByID(ctx context.Context, ids []uint64) (map[uint64]model.TroopType, error)

	// DueArrivals returns IDs of enroute raids with arrives_at <= now;
	// DueReturns returns IDs of returning raids with returns_at <= now.
	// Both are snapshot queries: the sweep re-checks each raid under its
	// row lock before applying anything.
	DueArrivals(ctx context.Context, now time.Time) ([]uint64, error)
	DueReturns(ctx context.Context, now time.Time) ([]uint64, error)
}
