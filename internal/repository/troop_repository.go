package repository

import (
	"context"

	"github.com/mgmcelwee/evony/internal/model"
)

// InsertRaidTroops persists the attacker lines of a new raid in one
// statement.
func (t *sqlTx) InsertRaidTroops(ctx context.Context, lines []model.RaidTroop) error {
	if len(lines) == 0 {
		return nil
	}
	query := `INSERT INTO raid_troops (raid_id, troop_type_id, count_sent, count_lost) VALUES `
	args := make([]interface{}, 0, len(lines)*4)
	for i, l := range lines {
		if i > 0 {
			query += ","
		}
		query += "(?, ?, ?, 0)"
		args = append(args, l.RaidID, l.TroopTypeID, l.CountSent)
	}
	_, err := t.tx.ExecContext(ctx, query, args...)
	return err
}

// RaidTroops lists the attacker lines of a raid.
func (t *sqlTx) RaidTroops(ctx context.Context, raidID uint64) ([]model.RaidTroop, error) {
	return listRaidTroops(ctx, t.tx, raidID)
}

func listRaidTroops(ctx context.Context, q querier, raidID uint64) ([]model.RaidTroop, error) {
	const query = `SELECT raid_id, troop_type_id, count_sent, count_lost
	               FROM raid_troops WHERE raid_id = ? ORDER BY troop_type_id`
	rows, err := q.QueryContext(ctx, query, raidID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.RaidTroop
	for rows.Next() {
		var rt model.RaidTroop
		if err := rows.Scan(&rt.RaidID, &rt.TroopTypeID, &rt.CountSent, &rt.CountLost); err != nil {
			return nil, err
		}
		out = append(out, rt)
	}
	return out, rows.Err()
}

// SetRaidTroopLosses records combat casualties per attacker line, clamped to
// the line's count.
func (t *sqlTx) SetRaidTroopLosses(ctx context.Context, raidID uint64, losses map[uint64]int64) error {
	const q = `UPDATE raid_troops SET count_lost = LEAST(?, count_sent)
	           WHERE raid_id = ? AND troop_type_id = ?`
	for typeID, lost := range losses {
		if _, err := t.tx.ExecContext(ctx, q, lost, raidID, typeID); err != nil {
			return err
		}
	}
	return nil
}

// InsertDefenderTroops persists the defender-side snapshot taken at impact.
func (t *sqlTx) InsertDefenderTroops(ctx context.Context, snap []model.DefenderTroop) error {
	if len(snap) == 0 {
		return nil
	}
	query := `INSERT INTO raid_defender_troops (raid_id, troop_type_id, count_start, count_lost) VALUES `
	args := make([]interface{}, 0, len(snap)*4)
	for i, d := range snap {
		if i > 0 {
			query += ","
		}
		query += "(?, ?, ?, ?)"
		args = append(args, d.RaidID, d.TroopTypeID, d.CountStart, d.CountLost)
	}
	_, err := t.tx.ExecContext(ctx, query, args...)
	return err
}

// RaidTroops is the snapshot read of a raid's attacker lines.
func (s *Store) RaidTroops(ctx context.Context, raidID uint64) ([]model.RaidTroop, error) {
	return listRaidTroops(ctx, s.db, raidID)
}

// DefenderTroops is the snapshot read of a raid's defender-side snapshot.
func (s *Store) DefenderTroops(ctx context.Context, raidID uint64) ([]model.DefenderTroop, error) {
	const q = `SELECT raid_id, troop_type_id, count_start, count_lost
	           FROM raid_defender_troops WHERE raid_id = ? ORDER BY troop_type_id`
	rows, err := s.db.QueryContext(ctx, q, raidID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.DefenderTroop
	for rows.Next() {
		var dt model.DefenderTroop
		if err := rows.Scan(&dt.RaidID, &dt.TroopTypeID, &dt.CountStart, &dt.CountLost); err != nil {
			return nil, err
		}
		out = append(out, dt)
	}
	return out, rows.Err()
}
