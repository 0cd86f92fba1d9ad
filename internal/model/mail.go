package model

import "time"

// MailMessage is one entry in a player's mailbox.  Raid resolution drops a
// "raid_report" message into both participants' boxes; other kinds may be
// added by future systems.  PayloadJSON carries the structured report so
// clients do not have to re-query the raid.
type MailMessage struct {
	ID          uint64
	UserID      uint64
	Kind        string
	Subject     string
	Body        string
	PayloadJSON *string
	IsRead      bool
	CreatedAt   time.Time
	ReadAt      *time.Time
}
