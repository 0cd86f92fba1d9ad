package game

import (
	"context"
	"errors"
	"fmt"

	"github.com/mgmcelwee/evony/internal/model"
)

// ReportLine is one troop type's row in a raid report.
type ReportLine struct {
	Code      string  `json:"code"`
	Name      string  `json:"name"`
	Start     int64   `json:"start"`
	Lost      int64   `json:"lost"`
	Remaining int64   `json:"remaining"`
	UnitPower float64 `json:"unit_power"`
	PowerLost float64 `json:"power_lost"`
}

// ReportSide aggregates one participant of the battle.
type ReportSide struct {
	CityID     uint64       `json:"city_id"`
	CityName   string       `json:"city_name,omitempty"`
	Troops     []ReportLine `json:"troops"`
	TotalStart int64        `json:"total_start"`
	TotalLost  int64        `json:"total_lost"`
	Power      float64      `json:"power"`
	PowerLost  float64      `json:"power_lost"`
}

// Report is the full battle report for a raid.  For an enroute raid the
// defender side previews the target's current garrison; once the arrival has
// been processed it reflects the snapshot taken at impact.
type Report struct {
	RaidID   uint64           `json:"raid_id"`
	Status   model.RaidStatus `json:"status"`
	Loot     model.Resources  `json:"loot"`
	Outcome  string           `json:"outcome_hint,omitempty"`
	Attacker ReportSide       `json:"attacker"`
	Defender ReportSide       `json:"defender"`
}

// GetReport builds the battle report for one raid, applying due transitions
// first so the report never lags the clock.  The same visibility rule as
// GetRaid applies.
func (e *Engine) GetReport(ctx context.Context, actor Actor, id uint64) (*Report, error) {
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

	atkLines, err := e.store.RaidTroops(ctx, id)
	if err != nil {
		return nil, err
	}

	// Defender composition: the impact snapshot once the arrival has been
	// processed, the live garrison as a preview while still enroute.
	type defLine struct {
		typeID uint64
		start  int64
		lost   int64
	}
	var defLines []defLine
	if raid.Status == model.RaidEnroute {
		garrison, err := e.store.CityTroops(ctx, raid.TargetCityID)
		if err != nil && !IsNotFound(err) {
			return nil, err
		}
		for _, g := range garrison {
			defLines = append(defLines, defLine{typeID: g.TroopTypeID, start: g.Count})
		}
	} else {
		snap, err := e.store.DefenderTroops(ctx, id)
		if err != nil {
			return nil, err
		}
		if len(snap) == 0 && raid.Status != model.RaidResolved {
			return nil, fmt.Errorf("raid %d: defender snapshot missing", id)
		}
		for _, s := range snap {
			defLines = append(defLines, defLine{typeID: s.TroopTypeID, start: s.CountStart, lost: s.CountLost})
		}
	}

	typeIDs := make([]uint64, 0, len(atkLines)+len(defLines))
	for _, l := range atkLines {
		typeIDs = append(typeIDs, l.TroopTypeID)
	}
	for _, d := range defLines {
		typeIDs = append(typeIDs, d.typeID)
	}
	types, err := e.store.TroopTypesByID(ctx, typeIDs)
	if err != nil {
		return nil, err
	}

	rep := &Report{
		RaidID: raid.ID,
		Status: raid.Status,
		Loot:   raid.Stolen,
		Attacker: ReportSide{
			CityID: raid.AttackerCityID,
		},
		Defender: ReportSide{
			CityID: raid.TargetCityID,
		},
	}
	if c, err := e.store.City(ctx, raid.AttackerCityID); err == nil {
		rep.Attacker.CityName = c.Name
	}
	if c, err := e.store.City(ctx, raid.TargetCityID); err == nil {
		rep.Defender.CityName = c.Name
	}

	for _, l := range atkLines {
		tt := types[l.TroopTypeID]
		unit := AttackerUnitPower(tt)
		rep.Attacker.Troops = append(rep.Attacker.Troops, ReportLine{
			Code:      tt.Code,
			Name:      tt.Name,
			Start:     l.CountSent,
			Lost:      l.CountLost,
			Remaining: l.Returning(),
			UnitPower: unit,
			PowerLost: float64(l.CountLost) * unit,
		})
		rep.Attacker.TotalStart += l.CountSent
		rep.Attacker.TotalLost += l.CountLost
		rep.Attacker.Power += float64(l.CountSent) * unit
		rep.Attacker.PowerLost += float64(l.CountLost) * unit
	}
	for _, d := range defLines {
		tt := types[d.typeID]
		unit := DefenderUnitPower(tt)
		rep.Defender.Troops = append(rep.Defender.Troops, ReportLine{
			Code:      tt.Code,
			Name:      tt.Name,
			Start:     d.start,
			Lost:      d.lost,
			Remaining: d.start - d.lost,
			UnitPower: unit,
			PowerLost: float64(d.lost) * unit,
		})
		rep.Defender.TotalStart += d.start
		rep.Defender.TotalLost += d.lost
		rep.Defender.Power += float64(d.start) * unit
		rep.Defender.PowerLost += float64(d.lost) * unit
	}

	if rep.Attacker.Power > 0 && rep.Defender.Power > 0 && raid.Status != model.RaidEnroute {
		ratio := rep.Defender.Power / (rep.Attacker.Power + rep.Defender.Power)
		if ratio < 0.5 {
			rep.Outcome = "attacker_advantage"
		} else {
			rep.Outcome = "defender_advantage"
		}
	}
	return rep, nil
}

// IsNotFound reports whether err is the engine's not-found sentinel.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
