package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mgmcelwee/evony/internal/game"
	"github.com/mgmcelwee/evony/internal/model"
	"github.com/mgmcelwee/evony/internal/repository"
)

// CityHandler exposes the caller's cities: stockpile, production and
// garrison.
type CityHandler struct {
	Cities *repository.CityRepo
	Store  game.Store
	Clock  game.Clock
	Accrue game.Accruer
}

func NewCityHandler(cities *repository.CityRepo, store game.Store, clock game.Clock) *CityHandler {
	return &CityHandler{Cities: cities, Store: store, Clock: clock, Accrue: game.RateAccruer{}}
}

type cityResp struct {
	ID        uint64            `json:"id"`
	Name      string            `json:"name"`
	X         int64             `json:"x"`
	Y         int64             `json:"y"`
	Stock     model.Resources   `json:"stock"`
	Cap       model.Resources   `json:"cap"`
	Protected model.Resources   `json:"protected"`
	Rates     model.Resources   `json:"rates"`
	Garrison  []model.CityTroop `json:"garrison"`
}

// List returns the caller's cities with production applied to the view.  The
// persisted stock is only advanced when a ledger mutation needs it; the view
// projects the same accrual without writing.
func (h *CityHandler) List(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	cities, err := h.Cities.ListByOwner(c.Request().Context(), uid)
	if err != nil {
		c.Logger().Errorf("city: list for user %d failed: %v", uid, err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}

	now := h.Clock.Now()
	out := make([]cityResp, 0, len(cities))
	for i := range cities {
		city := cities[i]
		h.Accrue.Accrue(&city, now)
		garrison, err := h.Store.CityTroops(c.Request().Context(), city.ID)
		if err != nil {
			c.Logger().Errorf("city: garrison for city %d failed: %v", city.ID, err)
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
		}
		out = append(out, cityResp{
			ID:        city.ID,
			Name:      city.Name,
			X:         city.X,
			Y:         city.Y,
			Stock:     city.Stock,
			Cap:       city.Cap,
			Protected: city.Protected,
			Rates:     city.Rates,
			Garrison:  garrison,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"cities": out})
}
