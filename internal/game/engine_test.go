package game

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mgmcelwee/evony/internal/model"
)

const (
	ownerAttacker = uint64(10)
	ownerDefender = uint64(20)
	cityAttacker  = uint64(1)
	cityDefender  = uint64(2)

	typeWarrior = uint64(1)
	typeArcher  = uint64(2)
	typeCavalry = uint64(3)
)

var testEpoch = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

// newTestWorld builds an engine over the in-memory store with two cities 50
// tiles apart: warriors march there in 250s each way.
func newTestWorld(t *testing.T) (*Engine, *memStore, *fakeClock, *recordingMailer) {
	t.Helper()
	s := newMemStore()
	clk := newFakeClock(testEpoch)
	mail := newRecordingMailer()

	s.addTroopType(model.TroopType{ID: typeWarrior, Code: "warrior", Name: "Warrior", Tier: 1, Attack: 20, Defense: 20, HP: 100, Speed: 100, Carry: 25})
	s.addTroopType(model.TroopType{ID: typeArcher, Code: "archer", Name: "Archer", Tier: 1, Attack: 35, Defense: 15, HP: 80, Speed: 100, Carry: 20})
	s.addTroopType(model.TroopType{ID: typeCavalry, Code: "cavalry", Name: "Cavalry", Tier: 2, Attack: 50, Defense: 30, HP: 150, Speed: 200, Carry: 60})

	s.addCity(model.City{
		ID: cityAttacker, OwnerID: ownerAttacker, Name: "Northkeep", X: 0, Y: 0,
		Stock:      model.Resources{Food: 500, Wood: 500, Stone: 500, Iron: 500},
		Cap:        model.Resources{Food: 100000, Wood: 100000, Stone: 100000, Iron: 100000},
		LastTickAt: testEpoch,
	})
	s.addCity(model.City{
		ID: cityDefender, OwnerID: ownerDefender, Name: "Southgate", X: 30, Y: 40,
		Stock:      model.Resources{Food: 1000, Wood: 1000, Stone: 500, Iron: 500},
		Cap:        model.Resources{Food: 100000, Wood: 100000, Stone: 100000, Iron: 100000},
		Protected:  model.Resources{Food: 100, Wood: 100, Stone: 100, Iron: 100},
		LastTickAt: testEpoch,
	})
	s.setGarrison(cityAttacker, typeWarrior, 500)
	s.setGarrison(cityAttacker, typeArcher, 200)
	s.setGarrison(cityAttacker, typeCavalry, 300)
	s.setGarrison(cityDefender, typeWarrior, 50)

	eng := NewEngine(s, clk, memAuth{s: s}, mail, Options{})
	return eng, s, clk, mail
}

func attacker() Actor { return Actor{UserID: ownerAttacker} }
func defender() Actor { return Actor{UserID: ownerDefender} }
func admin() Actor    { return Actor{UserID: 99, Admin: true} }

func launch(t *testing.T, eng *Engine, troops ...TroopLine) *Snapshot {
	t.Helper()
	snap, err := eng.CreateRaid(context.Background(), attacker(), CreateRequest{
		AttackerCityID: cityAttacker,
		TargetCityID:   cityDefender,
		Troops:         troops,
	})
	require.NoError(t, err)
	return snap
}

func TestCreateRaidSchedulesMarch(t *testing.T) {
	eng, s, _, _ := newTestWorld(t)

	snap := launch(t, eng, TroopLine{Code: "warrior", Count: 100})
	r := snap.Raid

	assert.Equal(t, model.RaidEnroute, r.Status)
	// 50 tiles * 5 s/tile at speed 100.
	assert.Equal(t, int64(250), r.OutboundSeconds)
	assert.Equal(t, int64(250), r.ReturnSeconds)
	assert.Equal(t, testEpoch.Add(250*time.Second), r.ArrivesAt)
	assert.Equal(t, testEpoch.Add(500*time.Second), r.ReturnsAt)
	assert.Equal(t, int64(100*25), r.CarryCapacity)
	assert.True(t, r.Stolen.IsZero())
	require.NotNil(t, snap.TimeRemaining)
	assert.Equal(t, int64(250), *snap.TimeRemaining)

	// Troops left the garrison at creation.
	assert.Equal(t, int64(400), s.garrison(cityAttacker, typeWarrior))
}

func TestCreateRaidSlowestUnitSetsPace(t *testing.T) {
	eng, _, _, _ := newTestWorld(t)

	// Cavalry alone is twice as fast.
	snap := launch(t, eng, TroopLine{Code: "cavalry", Count: 10})
	assert.Equal(t, int64(125), snap.Raid.OutboundSeconds)

	// Mixing in warriors drags the march back to warrior pace.
	snap = launch(t, eng, TroopLine{Code: "cavalry", Count: 10}, TroopLine{Code: "warrior", Count: 10})
	assert.Equal(t, int64(250), snap.Raid.OutboundSeconds)
}

func TestCreateRaidInsufficientTroopsIsAtomic(t *testing.T) {
	eng, s, _, _ := newTestWorld(t)

	// First line is affordable, second is not: nothing may be debited.
	_, err := eng.CreateRaid(context.Background(), attacker(), CreateRequest{
		AttackerCityID: cityAttacker,
		TargetCityID:   cityDefender,
		Troops: []TroopLine{
			{Code: "warrior", Count: 100},
			{Code: "archer", Count: 1000},
		},
	})
	require.ErrorIs(t, err, ErrInsufficientTroops)
	assert.Equal(t, int64(500), s.garrison(cityAttacker, typeWarrior))
	assert.Equal(t, int64(200), s.garrison(cityAttacker, typeArcher))
}

func TestCreateRaidDuplicateLinesAggregate(t *testing.T) {
	eng, _, _, _ := newTestWorld(t)

	// 300 + 300 warriors exceeds the 500 garrisoned even though each line
	// alone would pass.
	_, err := eng.CreateRaid(context.Background(), attacker(), CreateRequest{
		AttackerCityID: cityAttacker,
		TargetCityID:   cityDefender,
		Troops: []TroopLine{
			{Code: "warrior", Count: 300},
			{Code: "warrior", Count: 300},
		},
	})
	require.ErrorIs(t, err, ErrInsufficientTroops)
}

func TestCreateRaidValidation(t *testing.T) {
	eng, _, _, _ := newTestWorld(t)
	ctx := context.Background()

	_, err := eng.CreateRaid(ctx, attacker(), CreateRequest{AttackerCityID: cityAttacker, TargetCityID: cityAttacker, Troops: []TroopLine{{Code: "warrior", Count: 1}}})
	assert.ErrorIs(t, err, ErrInvalidTarget)

	_, err = eng.CreateRaid(ctx, attacker(), CreateRequest{AttackerCityID: cityAttacker, TargetCityID: cityDefender})
	assert.ErrorIs(t, err, ErrNoTroops)

	_, err = eng.CreateRaid(ctx, attacker(), CreateRequest{AttackerCityID: cityAttacker, TargetCityID: cityDefender, Troops: []TroopLine{{Code: "warrior", Count: 0}}})
	assert.ErrorIs(t, err, ErrNoTroops)

	_, err = eng.CreateRaid(ctx, attacker(), CreateRequest{AttackerCityID: cityAttacker, TargetCityID: cityDefender, Troops: []TroopLine{{Code: "dragon", Count: 5}}})
	assert.ErrorIs(t, err, ErrUnknownTroopType)

	// Strangers cannot launch from a city they do not own.
	_, err = eng.CreateRaid(ctx, defender(), CreateRequest{AttackerCityID: cityAttacker, TargetCityID: cityDefender, Troops: []TroopLine{{Code: "warrior", Count: 1}}})
	assert.ErrorIs(t, err, ErrForbidden)

	// Carry override is admin-only.
	_, err = eng.CreateRaid(ctx, attacker(), CreateRequest{AttackerCityID: cityAttacker, TargetCityID: cityDefender, Troops: []TroopLine{{Code: "warrior", Count: 1}}, CarryCapacity: 9999})
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestCreateRaidOwnCityRejected(t *testing.T) {
	eng, s, _, _ := newTestWorld(t)
	s.addCity(model.City{ID: 3, OwnerID: ownerAttacker, Name: "Northkeep II", X: 5, Y: 5,
		Cap: model.Resources{Food: 1000, Wood: 1000, Stone: 1000, Iron: 1000}, LastTickAt: testEpoch})

	_, err := eng.CreateRaid(context.Background(), attacker(), CreateRequest{
		AttackerCityID: cityAttacker,
		TargetCityID:   3,
		Troops:         []TroopLine{{Code: "warrior", Count: 1}},
	})
	assert.ErrorIs(t, err, ErrInvalidTarget)
}

func TestCreateRaidActiveLimit(t *testing.T) {
	eng, _, _, _ := newTestWorld(t)
	ctx := context.Background()

	for i := 0; i < DefaultMaxActiveRaids; i++ {
		launch(t, eng, TroopLine{Code: "warrior", Count: 10})
	}
	_, err := eng.CreateRaid(ctx, attacker(), CreateRequest{
		AttackerCityID: cityAttacker,
		TargetCityID:   cityDefender,
		Troops:         []TroopLine{{Code: "warrior", Count: 10}},
	})
	require.ErrorIs(t, err, ErrRaidLimit)

	// Admins bypass the cap.
	_, err = eng.CreateRaid(ctx, admin(), CreateRequest{
		AttackerCityID: cityAttacker,
		TargetCityID:   cityDefender,
		Troops:         []TroopLine{{Code: "warrior", Count: 10}},
	})
	assert.NoError(t, err)
}

func TestGetRaidTickOnReadArrival(t *testing.T) {
	eng, s, clk, _ := newTestWorld(t)
	ctx := context.Background()

	snap := launch(t, eng, TroopLine{Code: "warrior", Count: 100})
	id := snap.Raid.ID

	clk.Advance(250 * time.Second)
	got, err := eng.GetRaid(ctx, attacker(), id)
	require.NoError(t, err)
	r := got.Raid

	assert.Equal(t, model.RaidReturning, r.Status)

	// 100 warriors (power 3000) vs 50 warriors (power 1500): ratio 1/3,
	// attacker loses round(100*0.2667)=27, defender round(50*0.6667)=33.
	require.Len(t, got.Troops, 1)
	assert.Equal(t, int64(27), got.Troops[0].CountLost)
	assert.Equal(t, int64(50-33), s.garrison(cityDefender, typeWarrior))

	// 73 survivors carry 1825; lootable total is 2600, so the haul splits
	// proportionally with largest-remainder rounding.
	assert.Equal(t, model.Resources{Food: 632, Wood: 631, Stone: 281, Iron: 281}, r.Stolen)
	assert.Equal(t, int64(1825), r.Stolen.Total())
	assert.Equal(t, model.Resources{Food: 368, Wood: 369, Stone: 219, Iron: 219}, s.cityStock(cityDefender))

	// Nothing is credited to the attacker until the march is home.
	assert.Equal(t, model.Resources{Food: 500, Wood: 500, Stone: 500, Iron: 500}, s.cityStock(cityAttacker))
	assert.Equal(t, int64(400), s.garrison(cityAttacker, typeWarrior))
}

func TestGetRaidTickOnReadReturn(t *testing.T) {
	eng, s, clk, _ := newTestWorld(t)
	ctx := context.Background()

	snap := launch(t, eng, TroopLine{Code: "warrior", Count: 100})
	id := snap.Raid.ID

	clk.Advance(250 * time.Second)
	_, err := eng.GetRaid(ctx, attacker(), id)
	require.NoError(t, err)

	clk.Advance(250 * time.Second)
	got, err := eng.GetRaid(ctx, attacker(), id)
	require.NoError(t, err)

	assert.Equal(t, model.RaidResolved, got.Raid.Status)
	require.NotNil(t, got.Raid.ResolvedAt)
	assert.Nil(t, got.TimeRemaining)

	// 73 survivors come home with the loot.
	assert.Equal(t, int64(400+73), s.garrison(cityAttacker, typeWarrior))
	assert.Equal(t, model.Resources{Food: 500 + 632, Wood: 500 + 631, Stone: 500 + 281, Iron: 500 + 281}, s.cityStock(cityAttacker))
}

func TestGetRaidDrainsBothStagesAtOnce(t *testing.T) {
	eng, s, clk, _ := newTestWorld(t)
	ctx := context.Background()

	snap := launch(t, eng, TroopLine{Code: "warrior", Count: 100})
	id := snap.Raid.ID

	// Poll long after both timers expired: one read resolves everything.
	clk.Advance(24 * time.Hour)
	got, err := eng.GetRaid(ctx, attacker(), id)
	require.NoError(t, err)
	assert.Equal(t, model.RaidResolved, got.Raid.Status)
	assert.Equal(t, int64(473), s.garrison(cityAttacker, typeWarrior))

	// The return leg was re-anchored to the scheduled arrival, not the
	// late processing time.
	assert.Equal(t, testEpoch.Add(500*time.Second), got.Raid.ReturnsAt)
}

func TestGetRaidRepeatReadsCreditOnce(t *testing.T) {
	eng, s, clk, _ := newTestWorld(t)
	ctx := context.Background()

	snap := launch(t, eng, TroopLine{Code: "warrior", Count: 100})
	id := snap.Raid.ID

	clk.Advance(24 * time.Hour)
	for i := 0; i < 5; i++ {
		_, err := eng.GetRaid(ctx, attacker(), id)
		require.NoError(t, err)
	}
	assert.Equal(t, int64(473), s.garrison(cityAttacker, typeWarrior))
	assert.Equal(t, model.Resources{Food: 1132, Wood: 1131, Stone: 781, Iron: 781}, s.cityStock(cityAttacker))
}

func TestGetRaidHiddenFromStrangers(t *testing.T) {
	eng, _, _, _ := newTestWorld(t)
	ctx := context.Background()

	snap := launch(t, eng, TroopLine{Code: "warrior", Count: 10})

	_, err := eng.GetRaid(ctx, defender(), snap.Raid.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = eng.GetRaid(ctx, admin(), snap.Raid.ID)
	assert.NoError(t, err)

	_, err = eng.GetRaid(ctx, attacker(), 424242)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUndefendedCityCostsNothing(t *testing.T) {
	eng, s, clk, _ := newTestWorld(t)
	ctx := context.Background()
	s.setGarrison(cityDefender, typeWarrior, 0)

	snap := launch(t, eng, TroopLine{Code: "warrior", Count: 100})
	clk.Advance(250 * time.Second)
	got, err := eng.GetRaid(ctx, attacker(), snap.Raid.ID)
	require.NoError(t, err)

	require.Len(t, got.Troops, 1)
	assert.Equal(t, int64(0), got.Troops[0].CountLost)
	// Full army carry 2500 against 2600 lootable.
	assert.Equal(t, int64(2500), got.Raid.Stolen.Total())
}

func TestLootNeverBreachesProtectedFloor(t *testing.T) {
	eng, s, clk, _ := newTestWorld(t)
	ctx := context.Background()
	s.setGarrison(cityDefender, typeWarrior, 0)

	// Enough carry to empty the city if protection did not hold.
	snap := launch(t, eng, TroopLine{Code: "cavalry", Count: 200})
	clk.Advance(24 * time.Hour)
	_, err := eng.GetRaid(ctx, attacker(), snap.Raid.ID)
	require.NoError(t, err)

	stock := s.cityStock(cityDefender)
	assert.Equal(t, model.Resources{Food: 100, Wood: 100, Stone: 100, Iron: 100}, stock)
}

func TestLootCreditCappedAtStorage(t *testing.T) {
	eng, s, clk, _ := newTestWorld(t)
	ctx := context.Background()
	s.setGarrison(cityDefender, typeWarrior, 0)
	s.mu.Lock()
	s.cities[cityAttacker].Cap = model.Resources{Food: 600, Wood: 600, Stone: 600, Iron: 600}
	s.mu.Unlock()

	snap := launch(t, eng, TroopLine{Code: "warrior", Count: 100})
	clk.Advance(24 * time.Hour)
	got, err := eng.GetRaid(ctx, attacker(), snap.Raid.ID)
	require.NoError(t, err)
	require.Equal(t, model.RaidResolved, got.Raid.Status)

	// Stock was 500 each; only 100 per kind fits, the rest of the haul is
	// lost.
	assert.Equal(t, model.Resources{Food: 600, Wood: 600, Stone: 600, Iron: 600}, s.cityStock(cityAttacker))
}

func TestRecallEnrouteBeforeArrival(t *testing.T) {
	eng, s, clk, _ := newTestWorld(t)
	ctx := context.Background()

	snap := launch(t, eng, TroopLine{Code: "warrior", Count: 100})
	id := snap.Raid.ID

	clk.Advance(60 * time.Second)
	got, err := eng.RecallRaid(ctx, attacker(), id)
	require.NoError(t, err)
	r := got.Raid

	assert.Equal(t, model.RaidReturning, r.Status)
	assert.True(t, r.Stolen.IsZero())
	assert.Equal(t, int64(60), r.OutboundSeconds)
	assert.Equal(t, int64(60), r.ReturnSeconds)
	assert.Equal(t, clk.Now().Add(60*time.Second), r.ReturnsAt)

	// Defender was never touched.
	assert.Equal(t, int64(50), s.garrison(cityDefender, typeWarrior))
	assert.Equal(t, model.Resources{Food: 1000, Wood: 1000, Stone: 500, Iron: 500}, s.cityStock(cityDefender))

	// Everybody comes home unharmed.
	clk.Advance(60 * time.Second)
	got, err = eng.GetRaid(ctx, attacker(), id)
	require.NoError(t, err)
	assert.Equal(t, model.RaidResolved, got.Raid.Status)
	assert.Equal(t, int64(500), s.garrison(cityAttacker, typeWarrior))
}

func TestRecallEnroutePastArrivalFightsFirst(t *testing.T) {
	eng, s, clk, _ := newTestWorld(t)
	ctx := context.Background()

	snap := launch(t, eng, TroopLine{Code: "warrior", Count: 100})
	id := snap.Raid.ID

	// Recall lands after the scheduled arrival: the impact is honored.
	clk.Advance(300 * time.Second)
	got, err := eng.RecallRaid(ctx, attacker(), id)
	require.NoError(t, err)

	assert.Equal(t, model.RaidReturning, got.Raid.Status)
	assert.Equal(t, int64(1825), got.Raid.Stolen.Total())
	assert.Equal(t, int64(17), s.garrison(cityDefender, typeWarrior))
}

func TestRecallReturningHalvesRemainder(t *testing.T) {
	eng, _, clk, _ := newTestWorld(t)
	ctx := context.Background()

	snap := launch(t, eng, TroopLine{Code: "warrior", Count: 100})
	id := snap.Raid.ID

	clk.Advance(250 * time.Second)
	_, err := eng.GetRaid(ctx, attacker(), id)
	require.NoError(t, err)

	// 250s of the return leg remain; recall halves it to 125.
	got, err := eng.RecallRaid(ctx, attacker(), id)
	require.NoError(t, err)
	assert.Equal(t, clk.Now().Add(125*time.Second), got.Raid.ReturnsAt)

	// A second recall keeps shrinking the remainder.
	got, err = eng.RecallRaid(ctx, attacker(), id)
	require.NoError(t, err)
	assert.Equal(t, clk.Now().Add(63*time.Second), got.Raid.ReturnsAt)
}

func TestRecallReturningNeverExtends(t *testing.T) {
	eng, _, clk, _ := newTestWorld(t)
	ctx := context.Background()

	snap := launch(t, eng, TroopLine{Code: "warrior", Count: 100})
	id := snap.Raid.ID

	clk.Advance(250 * time.Second)
	_, err := eng.GetRaid(ctx, attacker(), id)
	require.NoError(t, err)

	// Let the march get within one second of home; the halved remainder
	// rounds back up to one second, which must not push returns_at out.
	clk.Advance(249 * time.Second)
	before, err := eng.GetRaid(ctx, attacker(), id)
	require.NoError(t, err)
	require.Equal(t, model.RaidReturning, before.Raid.Status)

	got, err := eng.RecallRaid(ctx, attacker(), id)
	require.NoError(t, err)
	assert.False(t, got.Raid.ReturnsAt.After(before.Raid.ReturnsAt))
}

func TestRecallResolvedFails(t *testing.T) {
	eng, _, clk, _ := newTestWorld(t)
	ctx := context.Background()

	snap := launch(t, eng, TroopLine{Code: "warrior", Count: 100})
	id := snap.Raid.ID

	clk.Advance(24 * time.Hour)
	_, err := eng.GetRaid(ctx, attacker(), id)
	require.NoError(t, err)

	_, err = eng.RecallRaid(ctx, attacker(), id)
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestResolutionMailsBothOwnersOnce(t *testing.T) {
	eng, _, clk, mail := newTestWorld(t)
	ctx := context.Background()

	snap := launch(t, eng, TroopLine{Code: "warrior", Count: 100})
	id := snap.Raid.ID

	clk.Advance(24 * time.Hour)
	for i := 0; i < 3; i++ {
		_, err := eng.GetRaid(ctx, attacker(), id)
		require.NoError(t, err)
	}

	atkMail := mail.deliveries(ownerAttacker)
	defMail := mail.deliveries(ownerDefender)
	require.Len(t, atkMail, 1)
	require.Len(t, defMail, 1)
	assert.Equal(t, 1, mail.unread[ownerAttacker])
	assert.Equal(t, 1, mail.unread[ownerDefender])

	sum := atkMail[0]
	assert.Equal(t, id, sum.RaidID)
	assert.Equal(t, int64(100), sum.AttackerSent)
	assert.Equal(t, int64(27), sum.AttackerLost)
	assert.Equal(t, int64(73), sum.AttackerReturning())
	assert.Equal(t, int64(50), sum.DefenderStart)
	assert.Equal(t, int64(33), sum.DefenderLost)
	assert.Equal(t, "attacker_advantage", sum.Outcome)
	assert.Equal(t, "Northkeep", sum.AttackerCityName)
	assert.Equal(t, "Southgate", sum.DefenderCityName)
}

func TestListRaidsOrderingAndVisibility(t *testing.T) {
	eng, _, clk, _ := newTestWorld(t)
	ctx := context.Background()

	r1 := launch(t, eng, TroopLine{Code: "warrior", Count: 10}) // will resolve
	r2 := launch(t, eng, TroopLine{Code: "warrior", Count: 10}) // will be returning
	clk.Advance(24 * time.Hour)
	_, err := eng.GetRaid(ctx, attacker(), r1.Raid.ID)
	require.NoError(t, err)
	_, err = eng.RecallRaid(ctx, attacker(), r2.Raid.ID)
	require.NoError(t, err)
	// r2 resolved too by now; recall again to be sure of state.
	got2, err := eng.GetRaid(ctx, attacker(), r2.Raid.ID)
	require.NoError(t, err)
	require.Equal(t, model.RaidResolved, got2.Raid.Status)

	r3 := launch(t, eng, TroopLine{Code: "warrior", Count: 10}) // enroute

	list, err := eng.ListRaids(ctx, attacker(), ListFilter{})
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, r3.Raid.ID, list[0].Raid.ID)
	assert.Equal(t, model.RaidEnroute, list[0].Raid.Status)
	assert.Equal(t, model.RaidResolved, list[1].Raid.Status)
	assert.Equal(t, model.RaidResolved, list[2].Raid.Status)
	// Newest first within the resolved group.
	assert.Greater(t, list[1].Raid.ID, list[2].Raid.ID)

	// The defender owns no attacking city, so their listing is empty.
	list, err = eng.ListRaids(ctx, defender(), ListFilter{})
	require.NoError(t, err)
	assert.Empty(t, list)

	// Admins see everything.
	list, err = eng.ListRaids(ctx, admin(), ListFilter{})
	require.NoError(t, err)
	assert.Len(t, list, 3)
}

func TestGetReportAfterResolution(t *testing.T) {
	eng, _, clk, _ := newTestWorld(t)
	ctx := context.Background()

	snap := launch(t, eng, TroopLine{Code: "warrior", Count: 100})
	clk.Advance(24 * time.Hour)

	rep, err := eng.GetReport(ctx, attacker(), snap.Raid.ID)
	require.NoError(t, err)

	assert.Equal(t, model.RaidResolved, rep.Status)
	assert.Equal(t, int64(100), rep.Attacker.TotalStart)
	assert.Equal(t, int64(27), rep.Attacker.TotalLost)
	require.Len(t, rep.Defender.Troops, 1)
	// The defender side reflects the snapshot taken at impact, not the
	// current garrison.
	assert.Equal(t, int64(50), rep.Defender.Troops[0].Start)
	assert.Equal(t, int64(33), rep.Defender.Troops[0].Lost)
	assert.Equal(t, "attacker_advantage", rep.Outcome)
	assert.Equal(t, int64(1825), rep.Loot.Total())

	_, err = eng.GetReport(ctx, defender(), snap.Raid.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}
