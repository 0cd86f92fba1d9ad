package handler

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/mgmcelwee/evony/internal/mail"
	"github.com/mgmcelwee/evony/internal/repository"
)

// MailHandler exposes the player mailbox.
type MailHandler struct {
	Repo *repository.MailRepo
	Svc  *mail.Service
}

func NewMailHandler(repo *repository.MailRepo, svc *mail.Service) *MailHandler {
	return &MailHandler{Repo: repo, Svc: svc}
}

// Inbox lists the caller's messages, newest first.
func (h *MailHandler) Inbox(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	limit := 50
	if s := c.QueryParam("limit"); s != "" {
		if n, err := strconv.Atoi(s); err == nil {
			limit = n
		}
	}
	msgs, err := h.Repo.ListByUser(c.Request().Context(), uid, limit)
	if err != nil {
		c.Logger().Errorf("mail: list for user %d failed: %v", uid, err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"messages": msgs})
}

// Unread returns the caller's unread message count.
func (h *MailHandler) Unread(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	n, err := h.Svc.UnreadCount(c.Request().Context(), uid)
	if err != nil {
		c.Logger().Errorf("mail: unread count for user %d failed: %v", uid, err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"unread": n})
}

// MarkRead flags one of the caller's messages as read and lowers the unread
// counter.
func (h *MailHandler) MarkRead(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid message id"})
	}
	if err := h.Repo.MarkRead(c.Request().Context(), uid, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
		}
		c.Logger().Errorf("mail: mark read %d for user %d failed: %v", id, uid, err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
	h.Svc.DecrementUnread(c.Request().Context(), uid)
	return c.JSON(http.StatusOK, echo.Map{"read": true})
}
