// Package handler defines the HTTP surface of the raid server.
package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/mgmcelwee/evony/internal/game"
	"github.com/mgmcelwee/evony/internal/repository"
)

// getUserID extracts the user_id placed in context by the JWT middleware.
func getUserID(c echo.Context) (uint64, error) {
	v := c.Get("user_id")
	switch t := v.(type) {
	case uint64:
		return t, nil
	case int64:
		return uint64(t), nil
	case float64:
		return uint64(t), nil
	case string:
		if n, err := strconv.ParseUint(t, 10, 64); err == nil {
			return n, nil
		}
	}
	return 0, errors.New("invalid user_id in context")
}

// actorFrom builds the engine's actor from the authenticated request.
func actorFrom(c echo.Context) (game.Actor, error) {
	uid, err := getUserID(c)
	if err != nil {
		return game.Actor{}, err
	}
	role, _ := c.Get("role").(string)
	return game.Actor{UserID: uid, Admin: role == repository.RoleAdmin}, nil
}

// gameError translates engine sentinels into HTTP responses.  Unknown errors
// become opaque 500s; the details go to the server log, not the client.
func gameError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, game.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
	case errors.Is(err, game.ErrForbidden):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	case errors.Is(err, game.ErrInvalidState):
		return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
	case errors.Is(err, game.ErrInsufficientTroops):
		return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
	case errors.Is(err, game.ErrRaidLimit):
		return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
	case errors.Is(err, game.ErrUnknownTroopType),
		errors.Is(err, game.ErrInvalidTarget),
		errors.Is(err, game.ErrNoTroops):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	case errors.Is(err, game.ErrConcurrentModification):
		return c.JSON(http.StatusConflict, echo.Map{"error": "concurrent modification, retry"})
	default:
		c.Logger().Errorf("handler: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
}

// pathID parses the :id route parameter.
func pathID(c echo.Context) (uint64, error) {
	return strconv.ParseUint(c.Param("id"), 10, 64)
}
