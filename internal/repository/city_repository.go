package repository

import (
	"context"
	"database/sql"

	"github.com/mgmcelwee/evony/internal/model"
)

const cityColumns = `id, owner_id, name, x, y,
	food, wood, stone, iron,
	food_cap, wood_cap, stone_cap, iron_cap,
	food_protected, wood_protected, stone_protected, iron_protected,
	food_rate, wood_rate, stone_rate, iron_rate,
	march_speed_pct, return_speed_pct, last_tick_at, created_at`

func scanCity(row *sql.Row) (*model.City, error) {
	var c model.City
	err := row.Scan(
		&c.ID, &c.OwnerID, &c.Name, &c.X, &c.Y,
		&c.Stock.Food, &c.Stock.Wood, &c.Stock.Stone, &c.Stock.Iron,
		&c.Cap.Food, &c.Cap.Wood, &c.Cap.Stone, &c.Cap.Iron,
		&c.Protected.Food, &c.Protected.Wood, &c.Protected.Stone, &c.Protected.Iron,
		&c.Rates.Food, &c.Rates.Wood, &c.Rates.Stone, &c.Rates.Iron,
		&c.MarchSpeedPct, &c.ReturnSpeedPct, &c.LastTickAt, &c.CreatedAt,
	)
	if err != nil {
		return nil, notFound(err)
	}
	return &c, nil
}

func getCity(ctx context.Context, q querier, id uint64) (*model.City, error) {
	return scanCity(q.QueryRowContext(ctx,
		`SELECT `+cityColumns+` FROM cities WHERE id = ?`, id))
}

// City reads a city without locking it.
func (t *sqlTx) City(ctx context.Context, id uint64) (*model.City, error) {
	return getCity(ctx, t.tx, id)
}

// CityForUpdate reads a city under a row lock held until the transaction
// ends.  The engine locks at most one city per transition, after the raid
// row, so lock acquisition is acyclic.
func (t *sqlTx) CityForUpdate(ctx context.Context, id uint64) (*model.City, error) {
	return scanCity(t.tx.QueryRowContext(ctx,
		`SELECT `+cityColumns+` FROM cities WHERE id = ? FOR UPDATE`, id))
}

// UpdateCityResources writes back the city's stockpile and accrual
// watermark.  Caps, protection and rates are configuration and stay put.
func (t *sqlTx) UpdateCityResources(ctx context.Context, c *model.City) error {
	const q = `UPDATE cities SET
	           food = ?, wood = ?, stone = ?, iron = ?,
	           last_tick_at = ?
	           WHERE id = ?`
	_, err := t.tx.ExecContext(ctx, q,
		c.Stock.Food, c.Stock.Wood, c.Stock.Stone, c.Stock.Iron,
		c.LastTickAt, c.ID,
	)
	return err
}

// CityTroops lists the city's garrison.
func (t *sqlTx) CityTroops(ctx context.Context, cityID uint64) ([]model.CityTroop, error) {
	return listCityTroops(ctx, t.tx, cityID)
}

func listCityTroops(ctx context.Context, q querier, cityID uint64) ([]model.CityTroop, error) {
	const query = `SELECT city_id, troop_type_id, count
	               FROM city_troops WHERE city_id = ? ORDER BY troop_type_id`
	rows, err := q.QueryContext(ctx, query, cityID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.CityTroop
	for rows.Next() {
		var ct model.CityTroop
		if err := rows.Scan(&ct.CityID, &ct.TroopTypeID, &ct.Count); err != nil {
			return nil, err
		}
		out = append(out, ct)
	}
	return out, rows.Err()
}

// AdjustCityTroops adds each delta to the garrison count of that troop type,
// creating missing rows.  GREATEST keeps counts at zero or above even if a
// caller's validation slipped.
func (t *sqlTx) AdjustCityTroops(ctx context.Context, cityID uint64, deltas map[uint64]int64) error {
	const q = `INSERT INTO city_troops (city_id, troop_type_id, count)
	           VALUES (?, ?, GREATEST(?, 0))
	           ON DUPLICATE KEY UPDATE count = GREATEST(count + ?, 0)`
	for typeID, d := range deltas {
		if _, err := t.tx.ExecContext(ctx, q, cityID, typeID, d, d); err != nil {
			return err
		}
	}
	return nil
}

// City is the snapshot read of one city.
func (s *Store) City(ctx context.Context, id uint64) (*model.City, error) {
	return getCity(ctx, s.db, id)
}

// CityTroops is the snapshot read of one city's garrison.
func (s *Store) CityTroops(ctx context.Context, cityID uint64) ([]model.CityTroop, error) {
	return listCityTroops(ctx, s.db, cityID)
}
