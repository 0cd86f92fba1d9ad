package game

import (
	"math"
	"time"

	"github.com/mgmcelwee/evony/internal/model"
)

// Travel tuning constants.
const (
	// SecondsPerTile converts map distance into base march time.
	SecondsPerTile = 5

	// BaseTroopSpeed is the reference speed rating: a slowest-unit rating of
	// 100 leaves the base travel time unchanged, 200 halves it, 50 doubles it.
	BaseTroopSpeed = 100

	// RecallReturnFactor scales the remaining time when a returning march is
	// recalled: 0.5 means the army moves twice as fast on the way home.
	RecallReturnFactor = 0.5

	// MaxTravelSeconds bounds explicit travel overrides to one day.
	MaxTravelSeconds = 24 * 60 * 60
)

// DistanceTiles is the euclidean distance between two cities in map tiles.
func DistanceTiles(a, b *model.City) float64 {
	dx := float64(b.X - a.X)
	dy := float64(b.Y - a.Y)
	return math.Sqrt(dx*dx + dy*dy)
}

// TravelSeconds converts a tile distance into base march seconds, never
// less than one second.
func TravelSeconds(distanceTiles float64, secondsPerTile int) int64 {
	s := int64(math.Round(distanceTiles * float64(secondsPerTile)))
	if s < 1 {
		return 1
	}
	return s
}

// ScaleBySlowestSpeed stretches or shrinks the base march time by the
// slowest unit in the army.  Speed is a rating where bigger is faster; the
// time scales by BaseTroopSpeed/slowest.
func ScaleBySlowestSpeed(baseSeconds, slowestSpeed int64) int64 {
	if slowestSpeed < 1 {
		slowestSpeed = BaseTroopSpeed
	}
	if baseSeconds < 1 {
		baseSeconds = 1
	}
	scaled := int64(math.Ceil(float64(baseSeconds) * float64(BaseTroopSpeed) / float64(slowestSpeed)))
	if scaled < 1 {
		return 1
	}
	return scaled
}

// ApplySpeedPct applies a percent speed buff to a march leg.  A pct of 25
// means 25% faster (time * 0.75).  The multiplier never drops below 0.05 so
// buffs cannot zero out travel time.
func ApplySpeedPct(baseSeconds int64, pct int) int64 {
	if pct < 0 {
		pct = 0
	}
	mult := 1.0 - float64(pct)/100.0
	if mult < 0.05 {
		mult = 0.05
	}
	if baseSeconds < 1 {
		baseSeconds = 1
	}
	s := int64(math.Ceil(float64(baseSeconds) * mult))
	if s < 1 {
		return 1
	}
	return s
}

// Timing captures the schedule computed for a new raid.
type Timing struct {
	DistanceTiles   float64
	BaseSeconds     int64
	OutboundSeconds int64
	ReturnSeconds   int64
	ArrivesAt       time.Time
	ReturnsAt       time.Time
}

// ComputeTiming derives the full outbound/return schedule for a march from
// attacker and target positions.  baseSeconds is either the distance-derived
// march time already scaled by the slowest unit, or an explicit override.
// The attacker's march/return speed buffs apply per leg.
func ComputeTiming(attacker, target *model.City, now time.Time, baseSeconds int64) Timing {
	outbound := ApplySpeedPct(baseSeconds, attacker.MarchSpeedPct)
	ret := ApplySpeedPct(baseSeconds, attacker.ReturnSpeedPct)
	arrives := now.Add(time.Duration(outbound) * time.Second)
	return Timing{
		DistanceTiles:   DistanceTiles(attacker, target),
		BaseSeconds:     baseSeconds,
		OutboundSeconds: outbound,
		ReturnSeconds:   ret,
		ArrivesAt:       arrives,
		ReturnsAt:       arrives.Add(time.Duration(ret) * time.Second),
	}
}
