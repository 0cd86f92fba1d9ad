package game

import (
	"math"

	"github.com/mgmcelwee/evony/internal/model"
)

// Combat tuning constants.  Loss rates are derived from the power ratio and
// clamped so a battle always costs something but never annihilates a side.
const (
	hpPowerWeight  = 0.10
	atkLossSlope   = 0.80
	atkLossRateMin = 0.05
	atkLossRateMax = 0.60
	defLossSlope   = 1.00
	defLossRateMin = 0.10
	defLossRateMax = 0.75
)

// CombatLine is one side's count of a single troop type entering battle.
type CombatLine struct {
	TroopTypeID uint64
	Count       int64
	Type        model.TroopType
}

// CombatOutcome is the deterministic result of resolving one raid impact.
// Losses map troop type IDs to units lost; every loss is clamped to the
// corresponding line's count.  LootCapacity is the haul the surviving
// attacker units can carry home.
type CombatOutcome struct {
	AttackerLosses   map[uint64]int64
	DefenderLosses   map[uint64]int64
	AttackerLossRate float64
	DefenderLossRate float64
	PowerRatio       float64
	LootCapacity     int64
}

// AttackerUnitPower is the offensive weight of one unit of a type.
func AttackerUnitPower(tt model.TroopType) float64 {
	return float64(tt.Attack) + hpPowerWeight*float64(tt.HP)
}

// DefenderUnitPower is the defensive weight of one unit of a type.
func DefenderUnitPower(tt model.TroopType) float64 {
	return float64(tt.Defense) + hpPowerWeight*float64(tt.HP)
}

// ResolveCombat is a pure function from the two compositions to casualties
// and surviving carry capacity.  It is deterministic: no randomness, same
// inputs always produce the same outcome.
//
// Power model: attacker power is sum(count * (attack + 0.1*hp)), defender
// power is sum(count * (defense + 0.1*hp)).  The defender's share of total
// power sets both loss rates; per-line losses are rounded and clamped to the
// line count.  An undefended city costs the attacker nothing, and an empty
// attack (which creation prevents) loses nothing either way.
func ResolveCombat(attacker, defender []CombatLine) CombatOutcome {
	out := CombatOutcome{
		AttackerLosses: make(map[uint64]int64, len(attacker)),
		DefenderLosses: make(map[uint64]int64, len(defender)),
	}

	var atkPower, defPower float64
	for _, l := range attacker {
		if l.Count > 0 {
			atkPower += float64(l.Count) * AttackerUnitPower(l.Type)
		}
	}
	for _, l := range defender {
		if l.Count > 0 {
			defPower += float64(l.Count) * DefenderUnitPower(l.Type)
		}
	}

	if defPower <= 0 || atkPower <= 0 {
		// One-sided encounters draw no blood.
		out.LootCapacity = survivorCarry(attacker, out.AttackerLosses)
		return out
	}

	ratio := defPower / (atkPower + defPower)
	out.PowerRatio = ratio
	out.AttackerLossRate = clampRate(ratio*atkLossSlope, atkLossRateMin, atkLossRateMax)
	out.DefenderLossRate = clampRate((1.0-ratio)*defLossSlope, defLossRateMin, defLossRateMax)

	for _, l := range attacker {
		if l.Count <= 0 {
			continue
		}
		lost := int64(math.Round(float64(l.Count) * out.AttackerLossRate))
		if lost > l.Count {
			lost = l.Count
		}
		if lost < 0 {
			lost = 0
		}
		out.AttackerLosses[l.TroopTypeID] += lost
	}
	for _, l := range defender {
		if l.Count <= 0 {
			continue
		}
		lost := int64(math.Round(float64(l.Count) * out.DefenderLossRate))
		if lost > l.Count {
			lost = l.Count
		}
		if lost < 0 {
			lost = 0
		}
		out.DefenderLosses[l.TroopTypeID] += lost
	}

	out.LootCapacity = survivorCarry(attacker, out.AttackerLosses)
	return out
}

// survivorCarry totals the carry attributes of the attacker units that
// survived the impact.
func survivorCarry(attacker []CombatLine, losses map[uint64]int64) int64 {
	var carry int64
	for _, l := range attacker {
		alive := l.Count - losses[l.TroopTypeID]
		if alive > 0 {
			carry += alive * l.Type.Carry
		}
	}
	return carry
}

func clampRate(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
