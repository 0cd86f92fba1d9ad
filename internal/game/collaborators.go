package game

import (
	"context"
	"time"

	"github.com/mgmcelwee/evony/internal/model"
)

// Actor identifies who is calling an engine operation.  Admin actors bypass
// ownership checks and the active-raid cap.
type Actor struct {
	UserID uint64
	Admin  bool
}

// Authorizer is the ownership hook.  Authorization policy itself lives
// outside the engine; the engine only asks whether the actor may act on a
// city.
type Authorizer interface {
	IsOwnerOrAdmin(ctx context.Context, actor Actor, cityID uint64) (bool, error)
}

// Mailer is the external notification fan-out: deliver a raid report to one
// recipient, bump that recipient's unread counter, and announce the
// resolution once for downstream consumers.  All three run after the
// resolution commits; failures are logged by the engine and never roll the
// transition back.
type Mailer interface {
	DeliverRaidReport(ctx context.Context, userID uint64, sum RaidSummary) error
	IncrementUnread(ctx context.Context, userID uint64, kind string) error
	PublishResolved(ctx context.Context, sum RaidSummary) error
}

// Accruer brings a city's resource stockpile up to date as of a point in
// time before the engine reads or mutates it.  Production itself is an
// external concern; the engine only guarantees the call happens inside the
// same atomic scope as the ledger mutation that follows.
type Accruer interface {
	Accrue(c *model.City, asOf time.Time)
}

// NopAccruer satisfies Accruer without touching the city; useful when
// production is ticked elsewhere.
type NopAccruer struct{}

// Accrue does nothing.
func (NopAccruer) Accrue(*model.City, time.Time) {}

// RaidSummary is the raid-report payload handed to the Mailer when a raid
// resolves.  Totals are aggregated over troop lines; power figures use the
// same weights as the combat resolver so reports and battle math agree.
type RaidSummary struct {
	RaidID     uint64           `json:"raid_id"`
	Status     model.RaidStatus `json:"status"`
	ResolvedAt time.Time        `json:"resolved_at"`
	Outcome    string           `json:"outcome_hint,omitempty"`
	Loot       model.Resources  `json:"loot"`

	AttackerCityID   uint64  `json:"attacker_city_id"`
	AttackerCityName string  `json:"attacker_city_name,omitempty"`
	AttackerSent     int64   `json:"attacker_sent"`
	AttackerLost     int64   `json:"attacker_lost"`
	AttackerPower    float64 `json:"attacker_power_start"`
	AttackerPowerLost float64 `json:"attacker_power_lost"`

	DefenderCityID   uint64  `json:"defender_city_id"`
	DefenderCityName string  `json:"defender_city_name,omitempty"`
	DefenderStart    int64   `json:"defender_start"`
	DefenderLost     int64   `json:"defender_lost"`
	DefenderPower    float64 `json:"defender_power_start"`
	DefenderPowerLost float64 `json:"defender_power_lost"`
}

// AttackerReturning is the number of attacker units that made it home.
func (s RaidSummary) AttackerReturning() int64 {
	if s.AttackerSent <= s.AttackerLost {
		return 0
	}
	return s.AttackerSent - s.AttackerLost
}
