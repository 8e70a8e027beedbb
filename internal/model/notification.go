package model

import "time"

// Notification statuses.  A notification starts unread and is
// flipped to read by an admin; read notifications older than the
// retention window are purged by a background sweep.
const (
    NotificationUnread = "unread"
    NotificationRead   = "read"
)

// Notification is an internal message created as a side effect of
// Q&A and order events (`notifications` table).
type Notification struct {
    ID        uint64    `json:"id"`
    UserID    uint64    `json:"user_id"`
    Title     string    `json:"title"`
    Message   string    `json:"message"`
    Status    string    `json:"status"`
    CreatedAt time.Time `json:"created_at"`
}
