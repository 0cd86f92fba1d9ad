package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mgmcelwee/evony/internal/model"
)

var (
	warriorType = model.TroopType{ID: 1, Code: "warrior", Attack: 20, Defense: 20, HP: 100, Carry: 25}
	archerType  = model.TroopType{ID: 2, Code: "archer", Attack: 35, Defense: 15, HP: 80, Carry: 20}
)

func TestResolveCombatBalancedRates(t *testing.T) {
	out := ResolveCombat(
		[]CombatLine{{TroopTypeID: 1, Count: 100, Type: warriorType}},
		[]CombatLine{{TroopTypeID: 1, Count: 100, Type: warriorType}},
	)

	// Equal power: ratio 0.5, attacker rate 0.40, defender rate 0.50.
	assert.InDelta(t, 0.5, out.PowerRatio, 1e-9)
	assert.InDelta(t, 0.40, out.AttackerLossRate, 1e-9)
	assert.InDelta(t, 0.50, out.DefenderLossRate, 1e-9)
	assert.Equal(t, int64(40), out.AttackerLosses[1])
	assert.Equal(t, int64(50), out.DefenderLosses[1])
	assert.Equal(t, int64(60*25), out.LootCapacity)
}

func TestResolveCombatRateClamps(t *testing.T) {
	// Overwhelming attacker: rates hit their floors.
	out := ResolveCombat(
		[]CombatLine{{TroopTypeID: 1, Count: 100000, Type: warriorType}},
		[]CombatLine{{TroopTypeID: 1, Count: 1, Type: warriorType}},
	)
	assert.InDelta(t, atkLossRateMin, out.AttackerLossRate, 1e-9)
	assert.InDelta(t, defLossRateMax, out.DefenderLossRate, 1e-9)

	// Overwhelming defender: rates hit their ceilings.
	out = ResolveCombat(
		[]CombatLine{{TroopTypeID: 1, Count: 1, Type: warriorType}},
		[]CombatLine{{TroopTypeID: 1, Count: 100000, Type: warriorType}},
	)
	assert.InDelta(t, atkLossRateMax, out.AttackerLossRate, 1e-9)
	assert.InDelta(t, defLossRateMin, out.DefenderLossRate, 1e-9)
}

func TestResolveCombatLossesClampedToLine(t *testing.T) {
	// A tiny line cannot lose more units than it has even when rounding
	// would say otherwise.
	out := ResolveCombat(
		[]CombatLine{{TroopTypeID: 1, Count: 1, Type: warriorType}},
		[]CombatLine{{TroopTypeID: 1, Count: 100000, Type: warriorType}},
	)
	require.LessOrEqual(t, out.AttackerLosses[1], int64(1))
	assert.Equal(t, int64(1), out.AttackerLosses[1]) // 0.60 of 1 rounds to 1
}

func TestResolveCombatNoDefenders(t *testing.T) {
	out := ResolveCombat(
		[]CombatLine{{TroopTypeID: 1, Count: 50, Type: warriorType}, {TroopTypeID: 2, Count: 50, Type: archerType}},
		nil,
	)
	assert.Empty(t, out.AttackerLosses)
	assert.Empty(t, out.DefenderLosses)
	assert.Equal(t, int64(50*25+50*20), out.LootCapacity)
}

func TestResolveCombatZeroCountLinesIgnored(t *testing.T) {
	out := ResolveCombat(
		[]CombatLine{{TroopTypeID: 1, Count: 100, Type: warriorType}},
		[]CombatLine{{TroopTypeID: 1, Count: 0, Type: warriorType}},
	)
	assert.Zero(t, out.PowerRatio)
	assert.Empty(t, out.AttackerLosses)
}

func TestResolveCombatDeterministic(t *testing.T) {
	atk := []CombatLine{{TroopTypeID: 1, Count: 137, Type: warriorType}, {TroopTypeID: 2, Count: 61, Type: archerType}}
	def := []CombatLine{{TroopTypeID: 1, Count: 80, Type: warriorType}}

	first := ResolveCombat(atk, def)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, ResolveCombat(atk, def))
	}
}

func TestResolveCombatMultiLineSharesRate(t *testing.T) {
	out := ResolveCombat(
		[]CombatLine{
			{TroopTypeID: 1, Count: 100, Type: warriorType},
			{TroopTypeID: 2, Count: 100, Type: archerType},
		},
		[]CombatLine{{TroopTypeID: 1, Count: 100, Type: warriorType}},
	)
	// Both attacker lines lose at the same rate, rounded per line.
	rate := out.AttackerLossRate
	assert.Equal(t, int64(100*rate+0.5), out.AttackerLosses[1])
	assert.Equal(t, int64(100*rate+0.5), out.AttackerLosses[2])
}
