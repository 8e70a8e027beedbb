package repository

import (
    "context"
    "database/sql"
    "time"

    "github.com/iliyamo/learning-platform/internal/model"
)

// NotificationRepo persists internal notifications created as side
// effects of Q&A and order events.
type NotificationRepo struct{ DB *sql.DB }

func NewNotificationRepo(db *sql.DB) *NotificationRepo { return &NotificationRepo{DB: db} }

// Create inserts an unread notification.
func (r *NotificationRepo) Create(ctx context.Context, userID uint64, title, message string) (uint64, error) {
    res, err := r.DB.ExecContext(ctx,
        "INSERT INTO notifications (user_id, title, message, status, created_at) VALUES (?,?,?,?,?)",
        userID, title, message, model.NotificationUnread, time.Now().UTC())
    if err != nil {
        return 0, err
    }
    id, err := res.LastInsertId()
    return uint64(id), err
}

// ListAll returns every notification, newest first.
func (r *NotificationRepo) ListAll(ctx context.Context) ([]model.Notification, error) {
    rows, err := r.DB.QueryContext(ctx,
        "SELECT id, user_id, title, message, status, created_at FROM notifications ORDER BY created_at DESC, id DESC")
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    var list []model.Notification
    for rows.Next() {
        var n model.Notification
        if err := rows.Scan(&n.ID, &n.UserID, &n.Title, &n.Message, &n.Status, &n.CreatedAt); err != nil {
            return nil, err
        }
        list = append(list, n)
    }
    return list, rows.Err()
}

// MarkRead flips a notification to read.  Marking a missing
// notification reports ErrNotificationNotFound.
func (r *NotificationRepo) MarkRead(ctx context.Context, id uint64) error {
    res, err := r.DB.ExecContext(ctx,
        "UPDATE notifications SET status=? WHERE id=?", model.NotificationRead, id)
    if err != nil {
        return err
    }
    if n, err := res.RowsAffected(); err == nil && n == 0 {
        return ErrNotificationNotFound
    }
    return nil
}

// PurgeRead deletes read notifications created before the cutoff.
// Driven by the retention sweeper, never by request handlers.
func (r *NotificationRepo) PurgeRead(ctx context.Context, olderThan time.Time) (int64, error) {
    res, err := r.DB.ExecContext(ctx,
        "DELETE FROM notifications WHERE status=? AND created_at < ?", model.NotificationRead, olderThan)
    if err != nil {
        return 0, err
    }
    return res.RowsAffected()
}
