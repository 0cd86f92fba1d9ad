package model

import "time"

// RaidStatus is the lifecycle state of a raid march.
type RaidStatus string

// Raid lifecycle states.  A raid only ever moves forward:
// enroute -> returning -> resolved.
const (
	RaidEnroute   RaidStatus = "enroute"
	RaidReturning RaidStatus = "returning"
	RaidResolved  RaidStatus = "resolved"
)

// Raid is one attack march from an attacker city against a target city.
// Both timers are precomputed at creation: ArrivesAt = CreatedAt +
// OutboundSeconds and ReturnsAt = ArrivesAt + ReturnSeconds.  Stolen amounts
// are zero until the arrival stage resolves combat and loot, and are fixed
// thereafter; the attacker is only credited when the march returns home.
//
// Fields:
//  ID              – primary key identifier.
//  AttackerCityID  – city that launched the march.
//  TargetCityID    – city being raided.
//  CarryCapacity   – maximum loot the army can haul, fixed at creation.
//  Stolen          – per-kind loot seized at arrival (zero while enroute).
//  Status          – lifecycle state.
//  OutboundSeconds – travel time of the outbound leg.
//  ReturnSeconds   – travel time of the return leg.
//  CreatedAt       – when the march departed.
//  ArrivesAt       – when the march hits the target.
//  ReturnsAt       – when the survivors reach home.
//  ResolvedAt      – set once, when the raid reaches its terminal state.
type Raid struct {
	ID              uint64
	AttackerCityID  uint64
	TargetCityID    uint64
	CarryCapacity   int64
	Stolen          Resources
	Status          RaidStatus
	OutboundSeconds int64
	ReturnSeconds   int64
	CreatedAt       time.Time
	ArrivesAt       time.Time
	ReturnsAt       time.Time
	ResolvedAt      *time.Time
}

// Terminal reports whether the raid has reached its final state.
func (r *Raid) Terminal() bool { return r.Status == RaidResolved }

// DueAt returns the timestamp of the raid's next pending transition, or
// false when the raid is resolved and nothing is due.
func (r *Raid) DueAt() (time.Time, bool) {
	switch r.Status {
	case RaidEnroute:
		return r.ArrivesAt, true
	case RaidReturning:
		return r.ReturnsAt, true
	}
	return time.Time{}, false
}

// RaidTroop is one attacker line of a raid: how many units of a type were
// sent and how many fell at the arrival stage.  CountSent is fixed at
// creation and CountLost is fixed after combat; count_lost <= count_sent
// always holds, so count_sent - count_lost is the amount credited back to
// the attacker exactly once at resolution.
type RaidTroop struct {
	RaidID      uint64
	TroopTypeID uint64
	CountSent   int64
	CountLost   int64
}

// Returning is the number of surviving units heading home.
func (t RaidTroop) Returning() int64 {
	if t.CountSent <= t.CountLost {
		return 0
	}
	return t.CountSent - t.CountLost
}

// DefenderTroop is the per-raid snapshot of one defender line taken at
// impact time.  It makes combat reports deterministic no matter how the
// defender's garrison changes afterwards.
type DefenderTroop struct {
	RaidID      uint64
	TroopTypeID uint64
	CountStart  int64
	CountLost   int64
}

// Remaining is the number of defender units that survived the impact.
func (t DefenderTroop) Remaining() int64 {
	if t.CountStart <= t.CountLost {
		return 0
	}
	return t.CountStart - t.CountLost
}
