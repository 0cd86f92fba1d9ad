package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/mgmcelwee/evony/internal/game"
	"github.com/mgmcelwee/evony/internal/model"
)

// RaidHandler exposes the raid lifecycle over HTTP.  All game rules live in
// the engine; the handler only binds requests, resolves the actor and maps
// sentinel errors to status codes.
type RaidHandler struct {
	Engine *game.Engine
	Clock  game.Clock
}

func NewRaidHandler(eng *game.Engine, clock game.Clock) *RaidHandler {
	return &RaidHandler{Engine: eng, Clock: clock}
}

// ----- DTOs -----

type createRaidReq struct {
	AttackerCityID uint64           `json:"attacker_city_id"`
	TargetCityID   uint64           `json:"target_city_id"`
	Troops         []game.TroopLine `json:"troops"`
	TravelSeconds  int64            `json:"travel_seconds,omitempty"`
	CarryCapacity  int64            `json:"carry_capacity,omitempty"`
}

type raidTroopResp struct {
	TroopTypeID uint64 `json:"troop_type_id"`
	CountSent   int64  `json:"count_sent"`
	CountLost   int64  `json:"count_lost"`
}

type raidResp struct {
	ID              uint64           `json:"id"`
	AttackerCityID  uint64           `json:"attacker_city_id"`
	TargetCityID    uint64           `json:"target_city_id"`
	Status          model.RaidStatus `json:"status"`
	CarryCapacity   int64            `json:"carry_capacity"`
	Stolen          model.Resources  `json:"stolen"`
	OutboundSeconds int64            `json:"outbound_seconds"`
	ReturnSeconds   int64            `json:"return_seconds"`
	CreatedAt       time.Time        `json:"created_at"`
	ArrivesAt       time.Time        `json:"arrives_at"`
	ReturnsAt       time.Time        `json:"returns_at"`
	ResolvedAt      *time.Time       `json:"resolved_at,omitempty"`
	TimeRemaining   *int64           `json:"time_remaining_seconds,omitempty"`
	Troops          []raidTroopResp  `json:"troops,omitempty"`
}

func toRaidResp(s *game.Snapshot) raidResp {
	out := raidResp{
		ID:              s.Raid.ID,
		AttackerCityID:  s.Raid.AttackerCityID,
		TargetCityID:    s.Raid.TargetCityID,
		Status:          s.Raid.Status,
		CarryCapacity:   s.Raid.CarryCapacity,
		Stolen:          s.Raid.Stolen,
		OutboundSeconds: s.Raid.OutboundSeconds,
		ReturnSeconds:   s.Raid.ReturnSeconds,
		CreatedAt:       s.Raid.CreatedAt,
		ArrivesAt:       s.Raid.ArrivesAt,
		ReturnsAt:       s.Raid.ReturnsAt,
		ResolvedAt:      s.Raid.ResolvedAt,
		TimeRemaining:   s.TimeRemaining,
	}
	for _, t := range s.Troops {
		out.Troops = append(out.Troops, raidTroopResp{
			TroopTypeID: t.TroopTypeID,
			CountSent:   t.CountSent,
			CountLost:   t.CountLost,
		})
	}
	return out
}

// Create launches a raid.
func (h *RaidHandler) Create(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req createRaidReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	snap, err := h.Engine.CreateRaid(c.Request().Context(), actor, game.CreateRequest{
		AttackerCityID: req.AttackerCityID,
		TargetCityID:   req.TargetCityID,
		Troops:         req.Troops,
		TravelSeconds:  req.TravelSeconds,
		CarryCapacity:  req.CarryCapacity,
	})
	if err != nil {
		return gameError(c, err)
	}
	return c.JSON(http.StatusCreated, toRaidResp(snap))
}

// List returns the caller's raids, optionally filtered by status and
// attacker city.
func (h *RaidHandler) List(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	var f game.ListFilter
	if s := c.QueryParam("status"); s != "" {
		f.Status = model.RaidStatus(s)
	}
	if s := c.QueryParam("attacker_city_id"); s != "" {
		if id, err := strconv.ParseUint(s, 10, 64); err == nil {
			f.AttackerCityID = id
		}
	}
	if s := c.QueryParam("limit"); s != "" {
		if n, err := strconv.Atoi(s); err == nil {
			f.Limit = n
		}
	}

	snaps, err := h.Engine.ListRaids(c.Request().Context(), actor, f)
	if err != nil {
		return gameError(c, err)
	}
	out := make([]raidResp, 0, len(snaps))
	for i := range snaps {
		out = append(out, toRaidResp(&snaps[i]))
	}
	return c.JSON(http.StatusOK, echo.Map{"raids": out})
}

// Get returns one raid, advancing any due transitions first.
func (h *RaidHandler) Get(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid raid id"})
	}
	snap, err := h.Engine.GetRaid(c.Request().Context(), actor, id)
	if err != nil {
		return gameError(c, err)
	}
	return c.JSON(http.StatusOK, toRaidResp(snap))
}

// Recall turns a march around early.
func (h *RaidHandler) Recall(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid raid id"})
	}
	snap, err := h.Engine.RecallRaid(c.Request().Context(), actor, id)
	if err != nil {
		return gameError(c, err)
	}
	return c.JSON(http.StatusOK, toRaidResp(snap))
}

// Report returns the battle report for a raid.
func (h *RaidHandler) Report(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid raid id"})
	}
	rep, err := h.Engine.GetReport(c.Request().Context(), actor, id)
	if err != nil {
		return gameError(c, err)
	}
	return c.JSON(http.StatusOK, rep)
}

// Tick triggers one sweep immediately (admin tooling; the background sweeper
// does the same on a timer).
func (h *RaidHandler) Tick(c echo.Context) error {
	advanced, err := h.Engine.Sweep(c.Request().Context(), h.Clock.Now())
	if err != nil {
		c.Logger().Errorf("tick: sweep finished with error: %v", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"advanced": advanced})
}
