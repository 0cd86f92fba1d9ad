package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/mgmcelwee/evony/internal/game"
	"github.com/mgmcelwee/evony/internal/model"
)

const raidColumns = `id, attacker_city_id, target_city_id, carry_capacity,
	stolen_food, stolen_wood, stolen_stone, stolen_iron,
	status, outbound_seconds, return_seconds,
	created_at, arrives_at, returns_at, resolved_at`

func scanRaid(row *sql.Row) (*model.Raid, error) {
	var r model.Raid
	var resolvedAt sql.NullTime
	err := row.Scan(
		&r.ID, &r.AttackerCityID, &r.TargetCityID, &r.CarryCapacity,
		&r.Stolen.Food, &r.Stolen.Wood, &r.Stolen.Stone, &r.Stolen.Iron,
		&r.Status, &r.OutboundSeconds, &r.ReturnSeconds,
		&r.CreatedAt, &r.ArrivesAt, &r.ReturnsAt, &resolvedAt,
	)
	if err != nil {
		return nil, notFound(err)
	}
	if resolvedAt.Valid {
		t := resolvedAt.Time
		r.ResolvedAt = &t
	}
	return &r, nil
}

func getRaid(ctx context.Context, q querier, id uint64) (*model.Raid, error) {
	return scanRaid(q.QueryRowContext(ctx,
		`SELECT `+raidColumns+` FROM raids WHERE id = ?`, id))
}

// InsertRaid persists a new raid and populates its ID.
func (t *sqlTx) InsertRaid(ctx context.Context, r *model.Raid) error {
	const q = `INSERT INTO raids (attacker_city_id, target_city_id, carry_capacity,
	           stolen_food, stolen_wood, stolen_stone, stolen_iron,
	           status, outbound_seconds, return_seconds,
	           created_at, arrives_at, returns_at)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := t.tx.ExecContext(ctx, q,
		r.AttackerCityID, r.TargetCityID, r.CarryCapacity,
		r.Stolen.Food, r.Stolen.Wood, r.Stolen.Stone, r.Stolen.Iron,
		r.Status, r.OutboundSeconds, r.ReturnSeconds,
		r.CreatedAt, r.ArrivesAt, r.ReturnsAt,
	)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	r.ID = uint64(id)
	return nil
}

// RaidForUpdate reads a raid under a row lock held until the transaction
// ends.  The lock serializes concurrent transitions on the same raid.
func (t *sqlTx) RaidForUpdate(ctx context.Context, id uint64) (*model.Raid, error) {
	return scanRaid(t.tx.QueryRowContext(ctx,
		`SELECT `+raidColumns+` FROM raids WHERE id = ? FOR UPDATE`, id))
}

// UpdateRaid writes back every mutable raid field.
func (t *sqlTx) UpdateRaid(ctx context.Context, r *model.Raid) error {
	const q = `UPDATE raids SET
	           carry_capacity = ?,
	           stolen_food = ?, stolen_wood = ?, stolen_stone = ?, stolen_iron = ?,
	           status = ?, outbound_seconds = ?, return_seconds = ?,
	           arrives_at = ?, returns_at = ?, resolved_at = ?
	           WHERE id = ?`
	var resolvedAt interface{}
	if r.ResolvedAt != nil {
		resolvedAt = *r.ResolvedAt
	}
	_, err := t.tx.ExecContext(ctx, q,
		r.CarryCapacity,
		r.Stolen.Food, r.Stolen.Wood, r.Stolen.Stone, r.Stolen.Iron,
		r.Status, r.OutboundSeconds, r.ReturnSeconds,
		r.ArrivesAt, r.ReturnsAt, resolvedAt,
		r.ID,
	)
	return err
}

// ActiveRaidCount counts unresolved raids launched from the city.
func (t *sqlTx) ActiveRaidCount(ctx context.Context, attackerCityID uint64) (int, error) {
	const q = `SELECT COUNT(*) FROM raids
	           WHERE attacker_city_id = ? AND status != 'resolved'`
	var n int
	if err := t.tx.QueryRowContext(ctx, q, attackerCityID).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// Raid is the snapshot read of one raid.
func (s *Store) Raid(ctx context.Context, id uint64) (*model.Raid, error) {
	return getRaid(ctx, s.db, id)
}

// ListRaids returns raids matching the filter: active states first, newest
// first within each state.
func (s *Store) ListRaids(ctx context.Context, f game.ListFilter) ([]model.Raid, error) {
	q := `SELECT ` + prefixedRaidColumns + ` FROM raids r`
	var args []interface{}
	where := ""
	and := func(cond string, arg interface{}) {
		if where == "" {
			where = " WHERE " + cond
		} else {
			where += " AND " + cond
		}
		args = append(args, arg)
	}
	if f.OwnerID != 0 {
		q += ` JOIN cities c ON c.id = r.attacker_city_id`
		and("c.owner_id = ?", f.OwnerID)
	}
	if f.AttackerCityID != 0 {
		and("r.attacker_city_id = ?", f.AttackerCityID)
	}
	if f.Status != "" {
		and("r.status = ?", string(f.Status))
	}
	limit := f.Limit
	if limit <= 0 || limit > 200 {
		limit = 200
	}
	q += where + ` ORDER BY FIELD(r.status, 'enroute', 'returning', 'resolved'), r.id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Raid
	for rows.Next() {
		var r model.Raid
		var resolvedAt sql.NullTime
		if err := rows.Scan(
			&r.ID, &r.AttackerCityID, &r.TargetCityID, &r.CarryCapacity,
			&r.Stolen.Food, &r.Stolen.Wood, &r.Stolen.Stone, &r.Stolen.Iron,
			&r.Status, &r.OutboundSeconds, &r.ReturnSeconds,
			&r.CreatedAt, &r.ArrivesAt, &r.ReturnsAt, &resolvedAt,
		); err != nil {
			return nil, err
		}
		if resolvedAt.Valid {
			t := resolvedAt.Time
			r.ResolvedAt = &t
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

const prefixedRaidColumns = `r.id, r.attacker_city_id, r.target_city_id, r.carry_capacity,
	r.stolen_food, r.stolen_wood, r.stolen_stone, r.stolen_iron,
	r.status, r.outbound_seconds, r.return_seconds,
	r.created_at, r.arrives_at, r.returns_at, r.resolved_at`

// DueArrivals returns IDs of enroute raids whose arrival is due.
func (s *Store) DueArrivals(ctx context.Context, now time.Time) ([]uint64, error) {
	return s.dueIDs(ctx,
		`SELECT id FROM raids WHERE status = 'enroute' AND arrives_at <= ? ORDER BY id`, now)
}

// DueReturns returns IDs of returning raids whose homecoming is due.
func (s *Store) DueReturns(ctx context.Context, now time.Time) ([]uint64, error) {
	return s.dueIDs(ctx,
		`SELECT id FROM raids WHERE status = 'returning' AND returns_at <= ? ORDER BY id`, now)
}

func (s *Store) dueIDs(ctx context.Context, q string, now time.Time) ([]uint64, error) {
	rows, err := s.db.QueryContext(ctx, q, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uint64
	for rows.Next() {
		var id uint64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
