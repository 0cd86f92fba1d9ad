// Package queue defines message payloads exchanged over the message broker.
package queue

// RaidResolvedEvent is published when a raid reaches its terminal state.
// It contains enough information for downstream consumers to log, notify, or
// trigger analytics without querying the primary database.
type RaidResolvedEvent struct {
	RaidID           uint64 `json:"raid_id"`
	AttackerCityID   uint64 `json:"attacker_city_id"`
	AttackerCityName string `json:"attacker_city_name"`
	DefenderCityID   uint64 `json:"defender_city_id"`
	DefenderCityName string `json:"defender_city_name"`
	Outcome          string `json:"outcome_hint"`
	AttackerSent     int64  `json:"attacker_sent"`
	AttackerLost     int64  `json:"attacker_lost"`
	DefenderLost     int64  `json:"defender_lost"`
	LootFood         int64  `json:"loot_food"`
	LootWood         int64  `json:"loot_wood"`
	LootStone        int64  `json:"loot_stone"`
	LootIron         int64  `json:"loot_iron"`
	ResolvedAt       string `json:"resolved_at"`
}
