package model

import "time"

// City is a player settlement on the world map.  Its resource stockpile is
// bounded by a storage cap above and a protected floor below: production and
// raid loot credits clamp to Cap, raid debits clamp to Protected.  Troop
// counts live in separate CityTroop rows keyed by troop type.
//
// Fields:
//  ID             – primary key identifier.
//  OwnerID        – user who owns the city.
//  Name           – display name.
//  X, Y           – tile coordinates used for march distance.
//  Stock          – current per-kind resource amounts.
//  Cap            – per-kind storage caps (upper bound on Stock).
//  Protected      – per-kind protected floors (raids cannot loot below).
//  Rates          – per-kind production per minute, applied by accrual.
//  MarchSpeedPct  – percent reduction of outbound march time.
//  ReturnSpeedPct – percent reduction of return march time.
//  LastTickAt     – watermark for production accrual.
//  CreatedAt      – creation timestamp.
type City struct {
	ID             uint64
	OwnerID        uint64
	Name           string
	X              int64
	Y              int64
	Stock          Resources
	Cap            Resources
	Protected      Resources
	Rates          Resources
	MarchSpeedPct  int
	ReturnSpeedPct int
	LastTickAt     time.Time
	CreatedAt      time.Time
}

// CityTroop maps a city to its garrisoned count of one troop type.
// The count is never negative; reservations validate before subtracting.
type CityTroop struct {
	CityID      uint64
	TroopTypeID uint64
	Count       int64
}
