package handler

import (
	"context"
	"database/sql"
	"math/rand"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/mgmcelwee/evony/internal/config"
	"github.com/mgmcelwee/evony/internal/model"
	"github.com/mgmcelwee/evony/internal/repository"
	"github.com/mgmcelwee/evony/internal/utils"
)

// AuthHandler bundles dependencies for auth endpoints.  Registration also
// provisions the player's starter city so a fresh account can play
// immediately.
type AuthHandler struct {
	Cfg    config.Config
	Users  *repository.UserRepo
	Cities *repository.CityRepo
}

func NewAuthHandler(cfg config.Config, u *repository.UserRepo, c *repository.CityRepo) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Users: u, Cities: c}
}

// ----- DTOs -----

type registerReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	CityName string `json:"city_name"`
}
type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenPart struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}
type userPart struct {
	ID    uint64 `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}
type authResp struct {
	User   userPart  `json:"user"`
	Access tokenPart `json:"access"`
	CityID uint64    `json:"city_id,omitempty"`
}

// Starter city parameters.  Every new account receives the same stockpile,
// protection and garrison; only the map position varies.
var (
	starterStock     = model.Resources{Food: 1000, Wood: 1000, Stone: 500, Iron: 500}
	starterCap       = model.Resources{Food: 100000, Wood: 100000, Stone: 100000, Iron: 100000}
	starterProtected = model.Resources{Food: 200, Wood: 200, Stone: 100, Iron: 100}
	starterRates     = model.Resources{Food: 10, Wood: 10, Stone: 5, Iron: 5}
	starterGarrison  = map[string]int64{"warrior": 100, "archer": 50}
)

// Register creates the account, provisions its starter city and returns an
// access token immediately.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email/password required"})
	}
	cityName := strings.TrimSpace(req.CityName)
	if cityName == "" {
		cityName = "New Settlement"
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	uid, err := h.Users.Create(ctx, req.Email, req.Password, repository.RolePlayer, h.Cfg.BcryptCost)
	if err != nil {
		if err == repository.ErrEmailExists {
			return c.JSON(http.StatusConflict, echo.Map{"error": "email already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create user failed"})
	}

	city, err := h.provisionCity(ctx, uid, cityName)
	if err != nil {
		c.Logger().Errorf("auth: provision starter city for user %d failed: %v", uid, err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "provision city failed"})
	}

	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, uid, repository.RolePlayer, h.Cfg.AccessTTLMin)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue access failed"})
	}

	return c.JSON(http.StatusCreated, authResp{
		User:   userPart{ID: uid, Email: req.Email, Role: repository.RolePlayer},
		Access: tokenPart{Token: access.Token, Expires: access.Exp},
		CityID: city.ID,
	})
}

// Login verifies credentials and returns a fresh access token.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email/password required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, req.Email)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if !utils.VerifyPassword(u.PasswordHash, req.Password) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}

	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, u.ID, u.Role, h.Cfg.AccessTTLMin)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue access failed"})
	}

	return c.JSON(http.StatusOK, authResp{
		User:   userPart{ID: u.ID, Email: u.Email, Role: u.Role},
		Access: tokenPart{Token: access.Token, Expires: access.Exp},
	})
}

// provisionCity places the starter city at a random map position.
func (h *AuthHandler) provisionCity(ctx context.Context, ownerID uint64, name string) (*model.City, error) {
	garrison := make(map[uint64]int64, len(starterGarrison))
	for code, count := range starterGarrison {
		id, err := h.Cities.TroopTypeIDByCode(ctx, code)
		if err != nil {
			return nil, err
		}
		garrison[id] = count
	}

	city := &model.City{
		OwnerID:    ownerID,
		Name:       name,
		X:          int64(rand.Intn(1000)),
		Y:          int64(rand.Intn(1000)),
		Stock:      starterStock,
		Cap:        starterCap,
		Protected:  starterProtected,
		Rates:      starterRates,
		LastTickAt: time.Now().UTC(),
	}
	if err := h.Cities.Create(ctx, city, garrison); err != nil {
		return nil, err
	}
	return city, nil
}
