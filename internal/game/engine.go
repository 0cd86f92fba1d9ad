package game

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"sort"
	"time"

	"github.com/mgmcelwee/evony/internal/model"
)

// DefaultMaxActiveRaids caps how many unresolved raids one attacker city may
// have out at once.  Admins bypass the cap.
const DefaultMaxActiveRaids = 4

// Engine owns the raid lifecycle.  Every state transition runs as one atomic
// unit against the Store: the raid row is locked and its status plus due
// timestamp re-checked inside the unit, so a transition whose effects are
// already committed degrades to a no-op no matter how often the sweep and
// tick-on-read race on the same raid.
type Engine struct {
	store  Store
	clock  Clock
	auth   Authorizer
	mail   Mailer
	accrue Accruer

	maxActiveRaids int
}

// Options tune optional engine behavior.  The zero value selects defaults.
type Options struct {
	// MaxActiveRaids overrides DefaultMaxActiveRaids when positive.
	MaxActiveRaids int
	// Accruer brings city stockpiles up to date before ledger mutations.
	// Nil selects RateAccruer.
	Accruer Accruer
}

// NewEngine wires an Engine from its collaborators.  store, clock, auth and
// mail must be non-nil.
func NewEngine(store Store, clock Clock, auth Authorizer, mail Mailer, opts Options) *Engine {
	if store == nil || clock == nil || auth == nil || mail == nil {
		panic("nil collaborator passed to NewEngine")
	}
	e := &Engine{
		store:          store,
		clock:          clock,
		auth:           auth,
		mail:           mail,
		accrue:         opts.Accruer,
		maxActiveRaids: opts.MaxActiveRaids,
	}
	if e.accrue == nil {
		e.accrue = RateAccruer{}
	}
	if e.maxActiveRaids <= 0 {
		e.maxActiveRaids = DefaultMaxActiveRaids
	}
	return e
}

// TroopLine is one troop-type entry of a create request, addressed by the
// stable catalogue code.
type TroopLine struct {
	Code  string `json:"code"`
	Count int64  `json:"count"`
}

// CreateRequest describes a new raid.  TravelSeconds overrides the
// distance-derived base march time when positive (testing/admin use);
// CarryCapacity overrides the computed army carry and requires an admin
// actor.
type CreateRequest struct {
	AttackerCityID uint64
	TargetCityID   uint64
	Troops         []TroopLine
	TravelSeconds  int64
	CarryCapacity  int64
}

// Snapshot is a read model of one raid plus its attacker troop lines.
// TimeRemaining is the whole seconds until the next pending transition, nil
// once resolved.
type Snapshot struct {
	Raid          model.Raid
	Troops        []model.RaidTroop
	TimeRemaining *int64
}

// CreateRaid reserves the requested troops from the attacker city (all or
// nothing), computes the march schedule and persists the raid in enroute.
// On any failure the transaction rolls back and the troop ledger is left
// untouched.
func (e *Engine) CreateRaid(ctx context.Context, actor Actor, req CreateRequest) (*Snapshot, error) {
	if req.AttackerCityID == req.TargetCityID {
		return nil, fmt.Errorf("%w: cannot raid the same city", ErrInvalidTarget)
	}
	if len(req.Troops) == 0 {
		return nil, ErrNoTroops
	}
	if req.CarryCapacity != 0 && !actor.Admin {
		return nil, fmt.Errorf("%w: carry capacity override requires admin", ErrForbidden)
	}
	if req.TravelSeconds < 0 || req.TravelSeconds > MaxTravelSeconds {
		return nil, fmt.Errorf("%w: travel seconds out of range", ErrInvalidTarget)
	}

	ok, err := e.auth.IsOwnerOrAdmin(ctx, actor, req.AttackerCityID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrForbidden
	}

	// Aggregate duplicate codes so a repeated line cannot double-spend.
	wantByCode := make(map[string]int64, len(req.Troops))
	for _, t := range req.Troops {
		if t.Code == "" || t.Count <= 0 {
			return nil, ErrNoTroops
		}
		wantByCode[t.Code] += t.Count
	}
	codes := make([]string, 0, len(wantByCode))
	for c := range wantByCode {
		codes = append(codes, c)
	}
	sort.Strings(codes)

	now := e.clock.Now().UTC()
	var raid *model.Raid
	var lines []model.RaidTroop

	err = e.store.WithTx(ctx, func(tx Tx) error {
		attacker, err := tx.CityForUpdate(ctx, req.AttackerCityID)
		if err != nil {
			return err
		}
		target, err := tx.City(ctx, req.TargetCityID)
		if err != nil {
			return err
		}
		if target.OwnerID == attacker.OwnerID && !actor.Admin {
			return fmt.Errorf("%w: cannot raid your own city", ErrInvalidTarget)
		}

		active, err := tx.ActiveRaidCount(ctx, attacker.ID)
		if err != nil {
			return err
		}
		if active >= e.maxActiveRaids && !actor.Admin {
			return fmt.Errorf("%w: %d of %d marches out", ErrRaidLimit, active, e.maxActiveRaids)
		}

		types, err := tx.TroopTypesByCode(ctx, codes)
		if err != nil {
			return err
		}
		for _, c := range codes {
			if _, ok := types[c]; !ok {
				return fmt.Errorf("%w: %q", ErrUnknownTroopType, c)
			}
		}

		// Validate sufficiency across the whole list before subtracting
		// anything: the reservation is all-or-nothing.
		garrison, err := tx.CityTroops(ctx, attacker.ID)
		if err != nil {
			return err
		}
		haveByType := make(map[uint64]int64, len(garrison))
		for _, g := range garrison {
			haveByType[g.TroopTypeID] = g.Count
		}

		var armyCarry int64
		slowest := int64(0)
		deltas := make(map[uint64]int64, len(codes))
		for _, c := range codes {
			tt := types[c]
			want := wantByCode[c]
			if have := haveByType[tt.ID]; have < want {
				return fmt.Errorf("%w: %s requested %d, available %d", ErrInsufficientTroops, c, want, have)
			}
			deltas[tt.ID] = -want
			armyCarry += want * tt.Carry
			if slowest == 0 || tt.Speed < slowest {
				slowest = tt.Speed
			}
			lines = append(lines, model.RaidTroop{TroopTypeID: tt.ID, CountSent: want})
		}
		if err := tx.AdjustCityTroops(ctx, attacker.ID, deltas); err != nil {
			return err
		}

		baseSeconds := req.TravelSeconds
		if baseSeconds == 0 {
			baseSeconds = TravelSeconds(DistanceTiles(attacker, target), SecondsPerTile)
		}
		baseSeconds = ScaleBySlowestSpeed(baseSeconds, slowest)
		timing := ComputeTiming(attacker, target, now, baseSeconds)

		carry := armyCarry
		if req.CarryCapacity > 0 {
			carry = req.CarryCapacity
		}

		raid = &model.Raid{
			AttackerCityID:  attacker.ID,
			TargetCityID:    target.ID,
			CarryCapacity:   carry,
			Status:          model.RaidEnroute,
			OutboundSeconds: timing.OutboundSeconds,
			ReturnSeconds:   timing.ReturnSeconds,
			CreatedAt:       now,
			ArrivesAt:       timing.ArrivesAt,
			ReturnsAt:       timing.ReturnsAt,
		}
		if err := tx.InsertRaid(ctx, raid); err != nil {
			return err
		}
		for i := range lines {
			lines[i].RaidID = raid.ID
		}
		return tx.InsertRaidTroops(ctx, lines)
	})
	if err != nil {
		return nil, err
	}
	return e.snapshot(raid, lines, now), nil
}

// GetRaid returns the raid's current state, applying any due transitions
// first (tick-on-read): the read is "maybe-advance-then-read", so a polling
// client sees up-to-date status without waiting for the periodic sweep.
// Non-admin callers only see raids launched from their own cities.
func (e *Engine) GetRaid(ctx context.Context, actor Actor, id uint64) (*Snapshot, error) {
	raid, err := e.store.Raid(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := e.requireViewer(ctx, actor, raid); err != nil {
		return nil, err
	}

	now := e.clock.Now().UTC()
	if _, err := e.advanceRaid(ctx, id, now); err != nil {
		return nil, err
	}

	raid, err = e.store.Raid(ctx, id)
	if err != nil {
		return nil, err
	}
	troops, err := e.store.RaidTroops(ctx, id)
	if err != nil {
		return nil, err
	}
	return e.snapshot(raid, troops, now), nil
}

// ListRaids returns raid snapshots matching the filter, enroute first, then
// returning, then resolved, newest first within each group.  Non-admin
// actors are restricted to their own raids regardless of the filter.
func (e *Engine) ListRaids(ctx context.Context, actor Actor, f ListFilter) ([]Snapshot, error) {
	if !actor.Admin {
		f.OwnerID = actor.UserID
	}
	raids, err := e.store.ListRaids(ctx, f)
	if err != nil {
		return nil, err
	}
	now := e.clock.Now().UTC()
	out := make([]Snapshot, 0, len(raids))
	for i := range raids {
		out = append(out, *e.snapshot(&raids[i], nil, now))
	}
	return out, nil
}

// RecallRaid turns a march around early.  An enroute raid flips to returning
// immediately with a fresh return timer and no combat or loot; if its arrival
// is already overdue the arrival stage is applied first, exactly as a tick
// would have.  A returning raid has its remaining time shortened by
// RecallReturnFactor — the new returns_at is the minimum of the current one
// and now + shortened remainder, so a recall never pushes the arrival out and
// repeating it is idempotent once the floor is reached.  Recalling a
// resolved raid fails with ErrInvalidState.
func (e *Engine) RecallRaid(ctx context.Context, actor Actor, id uint64) (*Snapshot, error) {
	raid, err := e.store.Raid(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := e.requireViewer(ctx, actor, raid); err != nil {
		return nil, err
	}

	now := e.clock.Now().UTC()
	err = e.store.WithTx(ctx, func(tx Tx) error {
		raid, err := tx.RaidForUpdate(ctx, id)
		if err != nil {
			return err
		}
		switch raid.Status {
		case model.RaidResolved:
			return fmt.Errorf("%w: raid already resolved", ErrInvalidState)

		case model.RaidEnroute:
			if !now.Before(raid.ArrivesAt) {
				// The march already hit the target; honor the combat and
				// loot before turning it around.
				return e.stageOne(ctx, tx, raid, now)
			}
			pct := e.returnSpeedPct(ctx, tx, raid.AttackerCityID)
			elapsed := int64(now.Sub(raid.CreatedAt) / time.Second)
			if elapsed < 1 {
				elapsed = 1
			}
			rs := ApplySpeedPct(elapsed, pct)
			raid.OutboundSeconds = elapsed
			raid.ReturnSeconds = rs
			raid.ArrivesAt = now
			raid.ReturnsAt = now.Add(time.Duration(rs) * time.Second)
			raid.Stolen = model.Resources{}
			raid.Status = model.RaidReturning
			return tx.UpdateRaid(ctx, raid)

		case model.RaidReturning:
			pct := e.returnSpeedPct(ctx, tx, raid.AttackerCityID)
			remaining := int64(raid.ReturnsAt.Sub(now) / time.Second)
			if remaining < 1 {
				remaining = 1
			}
			sped := int64(math.Ceil(float64(remaining) * RecallReturnFactor))
			if sped < 1 {
				sped = 1
			}
			final := ApplySpeedPct(sped, pct)
			candidate := now.Add(time.Duration(final) * time.Second)
			if candidate.Before(raid.ReturnsAt) {
				raid.ReturnSeconds = final
				raid.ReturnsAt = candidate
				return tx.UpdateRaid(ctx, raid)
			}
			// Already at or below the floor; nothing to shrink.
			return nil
		}
		return fmt.Errorf("%w: %s", ErrInvalidState, raid.Status)
	})
	if err != nil {
		return nil, err
	}

	raid, err = e.store.Raid(ctx, id)
	if err != nil {
		return nil, err
	}
	troops, err := e.store.RaidTroops(ctx, id)
	if err != nil {
		return nil, err
	}
	return e.snapshot(raid, troops, now), nil
}

// requireViewer hides raids from strangers: non-admin actors must own the
// attacker city or the raid does not exist for them.
func (e *Engine) requireViewer(ctx context.Context, actor Actor, raid *model.Raid) error {
	ok, err := e.auth.IsOwnerOrAdmin(ctx, actor, raid.AttackerCityID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}

// returnSpeedPct looks up the attacker city's return buff; a missing city
// simply means no buff.
func (e *Engine) returnSpeedPct(ctx context.Context, tx Tx, cityID uint64) int {
	c, err := tx.City(ctx, cityID)
	if err != nil {
		return 0
	}
	return c.ReturnSpeedPct
}

// advanceRaid drains every due transition of one raid, committing each stage
// separately so stage 1 is durable before stage 2 is evaluated.  It returns
// how many stages were applied.
func (e *Engine) advanceRaid(ctx context.Context, id uint64, now time.Time) (int, error) {
	advanced := 0
	for {
		stepped, err := e.advanceOnce(ctx, id, now)
		if err != nil {
			return advanced, err
		}
		if !stepped {
			return advanced, nil
		}
		advanced++
	}
}

// advanceOnce applies at most one due transition to the raid.  The status
// and due timestamp are re-checked under the raid's row lock, so losing a
// race simply turns the call into a no-op.  A resolution's mail delivery
// happens after the transaction commits.
func (e *Engine) advanceOnce(ctx context.Context, id uint64, now time.Time) (bool, error) {
	advanced := false
	resolved := false
	err := e.store.WithTx(ctx, func(tx Tx) error {
		advanced, resolved = false, false
		raid, err := tx.RaidForUpdate(ctx, id)
		if err != nil {
			return err
		}
		switch raid.Status {
		case model.RaidEnroute:
			if now.Before(raid.ArrivesAt) {
				return nil
			}
			if err := e.stageOne(ctx, tx, raid, now); err != nil {
				return err
			}
			advanced = true
			resolved = raid.Status == model.RaidResolved
		case model.RaidReturning:
			if now.Before(raid.ReturnsAt) {
				return nil
			}
			if err := e.stageTwo(ctx, tx, raid, now); err != nil {
				return err
			}
			advanced = true
			resolved = true
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	if resolved {
		e.deliverReport(ctx, id)
	}
	return advanced, nil
}

// stageOne resolves the arrival: combat against the defender's current
// garrison, loot debited from the defender floored at its protected levels,
// casualties and a defender snapshot recorded.  The attacker is NOT credited
// here; the loot rides home on the raid row.  If either city has vanished
// the march resolves immediately with nothing to show.
func (e *Engine) stageOne(ctx context.Context, tx Tx, raid *model.Raid, now time.Time) error {
	if _, err := tx.City(ctx, raid.AttackerCityID); errors.Is(err, ErrNotFound) {
		return e.resolveOrphan(ctx, tx, raid, now)
	} else if err != nil {
		return err
	}
	target, err := tx.CityForUpdate(ctx, raid.TargetCityID)
	if errors.Is(err, ErrNotFound) {
		return e.resolveOrphan(ctx, tx, raid, now)
	}
	if err != nil {
		return err
	}
	e.accrue.Accrue(target, now)

	atkLines, err := tx.RaidTroops(ctx, raid.ID)
	if err != nil {
		return err
	}
	defGarrison, err := tx.CityTroops(ctx, target.ID)
	if err != nil {
		return err
	}

	typeIDs := make([]uint64, 0, len(atkLines)+len(defGarrison))
	for _, l := range atkLines {
		typeIDs = append(typeIDs, l.TroopTypeID)
	}
	for _, g := range defGarrison {
		typeIDs = append(typeIDs, g.TroopTypeID)
	}
	types, err := tx.TroopTypesByID(ctx, typeIDs)
	if err != nil {
		return err
	}

	attacker := make([]CombatLine, 0, len(atkLines))
	for _, l := range atkLines {
		attacker = append(attacker, CombatLine{TroopTypeID: l.TroopTypeID, Count: l.CountSent, Type: types[l.TroopTypeID]})
	}
	defender := make([]CombatLine, 0, len(defGarrison))
	for _, g := range defGarrison {
		defender = append(defender, CombatLine{TroopTypeID: g.TroopTypeID, Count: g.Count, Type: types[g.TroopTypeID]})
	}

	outcome := ResolveCombat(attacker, defender)

	// The army hauls at most what the survivors can carry, and never more
	// than the capacity fixed at creation.
	capacity := raid.CarryCapacity
	if outcome.LootCapacity < capacity {
		capacity = outcome.LootCapacity
	}
	taken := ProportionalTake(Lootable(target), capacity)
	raid.Stolen = DebitAllFloored(target, taken)

	if len(outcome.AttackerLosses) > 0 {
		if err := tx.SetRaidTroopLosses(ctx, raid.ID, outcome.AttackerLosses); err != nil {
			return err
		}
	}
	if len(outcome.DefenderLosses) > 0 {
		deltas := make(map[uint64]int64, len(outcome.DefenderLosses))
		for tid, lost := range outcome.DefenderLosses {
			if lost > 0 {
				deltas[tid] = -lost
			}
		}
		if len(deltas) > 0 {
			if err := tx.AdjustCityTroops(ctx, target.ID, deltas); err != nil {
				return err
			}
		}
	}

	// Snapshot the defender composition at impact so reports stay
	// deterministic regardless of later garrison changes.
	snap := make([]model.DefenderTroop, 0, len(defGarrison))
	for _, g := range defGarrison {
		snap = append(snap, model.DefenderTroop{
			RaidID:      raid.ID,
			TroopTypeID: g.TroopTypeID,
			CountStart:  g.Count,
			CountLost:   outcome.DefenderLosses[g.TroopTypeID],
		})
	}
	if len(snap) > 0 {
		if err := tx.InsertDefenderTroops(ctx, snap); err != nil {
			return err
		}
	}

	if err := tx.UpdateCityResources(ctx, target); err != nil {
		return err
	}

	// Re-anchor the return leg to the actual arrival so the schedule stays
	// consistent even when the arrival was processed late.
	raid.ReturnsAt = raid.ArrivesAt.Add(time.Duration(raid.ReturnSeconds) * time.Second)
	raid.Status = model.RaidReturning
	return tx.UpdateRaid(ctx, raid)
}

// stageTwo resolves the homecoming: surviving troops and the stolen loot are
// credited to the attacker, loot capped at the attacker's storage caps, and
// the raid reaches its terminal state.
func (e *Engine) stageTwo(ctx context.Context, tx Tx, raid *model.Raid, now time.Time) error {
	attacker, err := tx.CityForUpdate(ctx, raid.AttackerCityID)
	switch {
	case errors.Is(err, ErrNotFound):
		// Nothing left to come home to; the march still resolves.
	case err != nil:
		return err
	default:
		lines, err := tx.RaidTroops(ctx, raid.ID)
		if err != nil {
			return err
		}
		deltas := make(map[uint64]int64, len(lines))
		for _, l := range lines {
			if back := l.Returning(); back > 0 {
				deltas[l.TroopTypeID] = back
			}
		}
		if len(deltas) > 0 {
			if err := tx.AdjustCityTroops(ctx, attacker.ID, deltas); err != nil {
				return err
			}
		}
		e.accrue.Accrue(attacker, now)
		CreditAllCapped(attacker, raid.Stolen)
		if err := tx.UpdateCityResources(ctx, attacker); err != nil {
			return err
		}
	}

	t := now
	raid.Status = model.RaidResolved
	raid.ResolvedAt = &t
	return tx.UpdateRaid(ctx, raid)
}

// resolveOrphan terminates a raid whose attacker or target city no longer
// exists.  No ledgers move.
func (e *Engine) resolveOrphan(ctx context.Context, tx Tx, raid *model.Raid, now time.Time) error {
	t := now
	raid.Status = model.RaidResolved
	raid.ResolvedAt = &t
	return tx.UpdateRaid(ctx, raid)
}

// deliverReport mails the raid summary to both participants after a
// resolution has committed.  Mail is best-effort: failures are logged and
// never undo the transition.
func (e *Engine) deliverReport(ctx context.Context, raidID uint64) {
	sum, recipients, err := e.buildSummary(ctx, raidID)
	if err != nil {
		log.Printf("game: build raid summary %d failed: %v", raidID, err)
		return
	}
	for _, uid := range recipients {
		if err := e.mail.DeliverRaidReport(ctx, uid, *sum); err != nil {
			log.Printf("game: deliver raid report %d to user %d failed: %v", raidID, uid, err)
			continue
		}
		if err := e.mail.IncrementUnread(ctx, uid, "raid_report"); err != nil {
			log.Printf("game: increment unread for user %d failed: %v", uid, err)
		}
	}
	if err := e.mail.PublishResolved(ctx, *sum); err != nil {
		log.Printf("game: publish raid resolution %d failed: %v", raidID, err)
	}
}

// buildSummary assembles the mail payload for a resolved raid from committed
// state.
func (e *Engine) buildSummary(ctx context.Context, raidID uint64) (*RaidSummary, []uint64, error) {
	raid, err := e.store.Raid(ctx, raidID)
	if err != nil {
		return nil, nil, err
	}
	lines, err := e.store.RaidTroops(ctx, raidID)
	if err != nil {
		return nil, nil, err
	}
	snap, err := e.store.DefenderTroops(ctx, raidID)
	if err != nil {
		return nil, nil, err
	}

	typeIDs := make([]uint64, 0, len(lines)+len(snap))
	for _, l := range lines {
		typeIDs = append(typeIDs, l.TroopTypeID)
	}
	for _, s := range snap {
		typeIDs = append(typeIDs, s.TroopTypeID)
	}
	types, err := e.store.TroopTypesByID(ctx, typeIDs)
	if err != nil {
		return nil, nil, err
	}

	sum := &RaidSummary{
		RaidID:         raid.ID,
		Status:         raid.Status,
		Loot:           raid.Stolen,
		AttackerCityID: raid.AttackerCityID,
		DefenderCityID: raid.TargetCityID,
	}
	if raid.ResolvedAt != nil {
		sum.ResolvedAt = *raid.ResolvedAt
	}
	for _, l := range lines {
		unit := AttackerUnitPower(types[l.TroopTypeID])
		sum.AttackerSent += l.CountSent
		sum.AttackerLost += l.CountLost
		sum.AttackerPower += float64(l.CountSent) * unit
		sum.AttackerPowerLost += float64(l.CountLost) * unit
	}
	for _, s := range snap {
		unit := DefenderUnitPower(types[s.TroopTypeID])
		sum.DefenderStart += s.CountStart
		sum.DefenderLost += s.CountLost
		sum.DefenderPower += float64(s.CountStart) * unit
		sum.DefenderPowerLost += float64(s.CountLost) * unit
	}
	if sum.AttackerPower > 0 && sum.DefenderPower > 0 {
		ratio := sum.DefenderPower / (sum.AttackerPower + sum.DefenderPower)
		if ratio < 0.5 {
			sum.Outcome = "attacker_advantage"
		} else {
			sum.Outcome = "defender_advantage"
		}
	}

	var recipients []uint64
	if c, err := e.store.City(ctx, raid.AttackerCityID); err == nil {
		sum.AttackerCityName = c.Name
		recipients = append(recipients, c.OwnerID)
	}
	if c, err := e.store.City(ctx, raid.TargetCityID); err == nil {
		sum.DefenderCityName = c.Name
		if len(recipients) == 0 || recipients[0] != c.OwnerID {
			recipients = append(recipients, c.OwnerID)
		}
	}
	return sum, recipients, nil
}

// snapshot builds the read model returned by engine operations.
func (e *Engine) snapshot(raid *model.Raid, troops []model.RaidTroop, now time.Time) *Snapshot {
	s := &Snapshot{Raid: *raid, Troops: troops}
	if due, ok := raid.DueAt(); ok {
		rem := int64(due.Sub(now) / time.Second)
		if rem < 0 {
			rem = 0
		}
		s.TimeRemaining = &rem
	}
	return s
}
