package repository

import (
	"context"
	"strings"

	"github.com/mgmcelwee/evony/internal/model"
)

const troopTypeColumns = `id, code, name, tier, attack, defense, hp, speed, carry`

// TroopTypesByCode resolves catalogue entries by their stable codes.
// Unknown codes are simply absent from the result; callers decide whether
// that is an error.
func (t *sqlTx) TroopTypesByCode(ctx context.Context, codes []string) (map[string]model.TroopType, error) {
	if len(codes) == 0 {
		return map[string]model.TroopType{}, nil
	}
	q := `SELECT ` + troopTypeColumns + ` FROM troop_types WHERE code IN (?` +
		strings.Repeat(", ?", len(codes)-1) + `)`
	args := make([]interface{}, len(codes))
	for i, c := range codes {
		args[i] = c
	}
	rows, err := t.tx.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]model.TroopType, len(codes))
	for rows.Next() {
		var tt model.TroopType
		if err := rows.Scan(&tt.ID, &tt.Code, &tt.Name, &tt.Tier, &tt.Attack, &tt.Defense, &tt.HP, &tt.Speed, &tt.Carry); err != nil {
			return nil, err
		}
		out[tt.Code] = tt
	}
	return out, rows.Err()
}

// TroopTypesByID resolves catalogue entries by primary key.
func (t *sqlTx) TroopTypesByID(ctx context.Context, ids []uint64) (map[uint64]model.TroopType, error) {
	return troopTypesByID(ctx, t.tx, ids)
}

// TroopTypesByID is the snapshot variant used by report assembly.
func (s *Store) TroopTypesByID(ctx context.Context, ids []uint64) (map[uint64]model.TroopType, error) {
	return troopTypesByID(ctx, s.db, ids)
}

func troopTypesByID(ctx context.Context, q querier, ids []uint64) (map[uint64]model.TroopType, error) {
	if len(ids) == 0 {
		return map[uint64]model.TroopType{}, nil
	}
	query := `SELECT ` + troopTypeColumns + ` FROM troop_types WHERE id IN (?` +
		strings.Repeat(", ?", len(ids)-1) + `)`
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[uint64]model.TroopType, len(ids))
	for rows.Next() {
		var tt model.TroopType
		if err := rows.Scan(&tt.ID, &tt.Code, &tt.Name, &tt.Tier, &tt.Attack, &tt.Defense, &tt.HP, &tt.Speed, &tt.Carry); err != nil {
			return nil, err
		}
		out[tt.ID] = tt
	}
	return out, rows.Err()
}
