package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/mgmcelwee/evony/internal/game"
)

// Authorizer answers the engine's ownership questions from the cities table.
type Authorizer struct {
	db *sql.DB
}

// NewAuthorizer constructs an Authorizer with the given DB handle.
func NewAuthorizer(db *sql.DB) *Authorizer {
	return &Authorizer{db: db}
}

// IsOwnerOrAdmin reports whether the actor owns the city or is an admin.  A
// missing city is not an error here; it simply means "no".
func (a *Authorizer) IsOwnerOrAdmin(ctx context.Context, actor game.Actor, cityID uint64) (bool, error) {
	if actor.Admin {
		return true, nil
	}
	var ownerID uint64
	err := a.db.QueryRowContext(ctx,
		"SELECT owner_id FROM cities WHERE id = ?", cityID).Scan(&ownerID)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return ownerID == actor.UserID, nil
}
