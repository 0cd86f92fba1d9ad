package repository

import (
	"context"
	"database/sql"

	"github.com/mgmcelwee/evony/internal/model"
)

// MailRepo persists in-game mail.
type MailRepo struct {
	db *sql.DB
}

// NewMailRepo constructs a MailRepo with the given DB handle.
func NewMailRepo(db *sql.DB) *MailRepo {
	return &MailRepo{db: db}
}

// Create inserts a message and populates its ID.
func (r *MailRepo) Create(ctx context.Context, m *model.MailMessage) error {
	const q = `INSERT INTO mail_messages (user_id, kind, subject, body, payload_json, created_at)
	           VALUES (?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, m.UserID, m.Kind, m.Subject, m.Body, m.PayloadJSON, m.CreatedAt)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	m.ID = uint64(id)
	return nil
}

// ListByUser returns a user's messages, newest first.
func (r *MailRepo) ListByUser(ctx context.Context, userID uint64, limit int) ([]model.MailMessage, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	const q = `SELECT id, user_id, kind, subject, body, payload_json, is_read, created_at, read_at
	           FROM mail_messages WHERE user_id = ? ORDER BY id DESC LIMIT ?`
	rows, err := r.db.QueryContext(ctx, q, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.MailMessage
	for rows.Next() {
		var m model.MailMessage
		var readAt sql.NullTime
		if err := rows.Scan(&m.ID, &m.UserID, &m.Kind, &m.Subject, &m.Body, &m.PayloadJSON, &m.IsRead, &m.CreatedAt, &readAt); err != nil {
			return nil, err
		}
		if readAt.Valid {
			t := readAt.Time
			m.ReadAt = &t
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// MarkRead flags a message as read.  It returns sql.ErrNoRows when the
// message does not exist or belongs to someone else.
func (r *MailRepo) MarkRead(ctx context.Context, userID, messageID uint64) error {
	const q = `UPDATE mail_messages SET is_read = 1, read_at = NOW()
	           WHERE id = ? AND user_id = ? AND is_read = 0`
	res, err := r.db.ExecContext(ctx, q, messageID, userID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		// Either missing, foreign or already read; distinguish the first two.
		var owner uint64
		err := r.db.QueryRowContext(ctx,
			"SELECT user_id FROM mail_messages WHERE id = ?", messageID).Scan(&owner)
		if err != nil {
			return err
		}
		if owner != userID {
			return sql.ErrNoRows
		}
	}
	return nil
}

// UnreadCount counts a user's unread messages straight from the table; the
// Redis counter is a cache in front of this.
func (r *MailRepo) UnreadCount(ctx context.Context, userID uint64) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM mail_messages WHERE user_id = ? AND is_read = 0", userID).Scan(&n)
	return n, err
}
