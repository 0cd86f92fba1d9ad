package repository

import (
	"context"
	"database/sql"

	"github.com/mgmcelwee/evony/internal/model"
)

// CityRepo provisions and lists cities.  The engine reads cities through the
// Store; this repo covers the account-facing side.
type CityRepo struct {
	db *sql.DB
}

// NewCityRepo constructs a CityRepo with the given DB handle.
func NewCityRepo(db *sql.DB) *CityRepo {
	return &CityRepo{db: db}
}

// Create inserts a city and its starting garrison in one transaction.  On
// success the city's ID is populated.
func (r *CityRepo) Create(ctx context.Context, c *model.City, garrison map[uint64]int64) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		} else {
			err = tx.Commit()
		}
	}()

	const q = `INSERT INTO cities (owner_id, name, x, y,
	           food, wood, stone, iron,
	           food_cap, wood_cap, stone_cap, iron_cap,
	           food_protected, wood_protected, stone_protected, iron_protected,
	           food_rate, wood_rate, stone_rate, iron_rate,
	           march_speed_pct, return_speed_pct, last_tick_at)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, q,
		c.OwnerID, c.Name, c.X, c.Y,
		c.Stock.Food, c.Stock.Wood, c.Stock.Stone, c.Stock.Iron,
		c.Cap.Food, c.Cap.Wood, c.Cap.Stone, c.Cap.Iron,
		c.Protected.Food, c.Protected.Wood, c.Protected.Stone, c.Protected.Iron,
		c.Rates.Food, c.Rates.Wood, c.Rates.Stone, c.Rates.Iron,
		c.MarchSpeedPct, c.ReturnSpeedPct, c.LastTickAt,
	)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	c.ID = uint64(id)

	for typeID, count := range garrison {
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO city_troops (city_id, troop_type_id, count) VALUES (?, ?, ?)`,
			c.ID, typeID, count); err != nil {
			return err
		}
	}
	return nil
}

// ListByOwner returns all cities of one user.
func (r *CityRepo) ListByOwner(ctx context.Context, ownerID uint64) ([]model.City, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+cityColumns+` FROM cities WHERE owner_id = ? ORDER BY id`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.City
	for rows.Next() {
		var c model.City
		if err := rows.Scan(
			&c.ID, &c.OwnerID, &c.Name, &c.X, &c.Y,
			&c.Stock.Food, &c.Stock.Wood, &c.Stock.Stone, &c.Stock.Iron,
			&c.Cap.Food, &c.Cap.Wood, &c.Cap.Stone, &c.Cap.Iron,
			&c.Protected.Food, &c.Protected.Wood, &c.Protected.Stone, &c.Protected.Iron,
			&c.Rates.Food, &c.Rates.Wood, &c.Rates.Stone, &c.Rates.Iron,
			&c.MarchSpeedPct, &c.ReturnSpeedPct, &c.LastTickAt, &c.CreatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// TroopTypeIDByCode resolves one catalogue code, for provisioning the
// starter garrison.
func (r *CityRepo) TroopTypeIDByCode(ctx context.Context, code string) (uint64, error) {
	var id uint64
	err := r.db.QueryRowContext(ctx,
		`SELECT id FROM troop_types WHERE code = ?`, code).Scan(&id)
	return id, err
}
