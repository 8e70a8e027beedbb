package repository

import (
    "context"
    "database/sql"
    "time"

    "github.com/iliyamo/learning-platform/internal/model"
)

// OrderRepo persists course purchase records.
type OrderRepo struct{ DB *sql.DB }

func NewOrderRepo(db *sql.DB) *OrderRepo { return &OrderRepo{DB: db} }

// CreateTx inserts an order within the scope of an existing
// transaction and populates the generated ID and timestamp.  The
// caller commits or rolls back together with the purchase counter and
// enrollment writes.
func (r *OrderRepo) CreateTx(ctx context.Context, tx *sql.Tx, o *model.Order) error {
    now := time.Now().UTC()
    res, err := tx.ExecContext(ctx,
        "INSERT INTO orders (user_id, course_id, payment_info, created_at) VALUES (?,?,?,?)",
        o.UserID, o.CourseID, o.PaymentInfo, now)
    if err != nil {
        return err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    o.ID = uint64(id)
    o.CreatedAt = now
    return nil
}

// ListAll returns every order, newest first.
func (r *OrderRepo) ListAll(ctx context.Context) ([]model.Order, error) {
    rows, err := r.DB.QueryContext(ctx,
        "SELECT id, user_id, course_id, payment_info, created_at FROM orders ORDER BY created_at DESC, id DESC")
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    var orders []model.Order
    for rows.Next() {
        var o model.Order
        var payment []byte
        if err := rows.Scan(&o.ID, &o.UserID, &o.CourseID, &payment, &o.CreatedAt); err != nil {
            return nil, err
        }
        o.PaymentInfo = payment
        orders = append(orders, o)
    }
    return orders, rows.Err()
}

// ExistsForUserCourse reports whether a (user, course) order already
// exists.  Used by tests and diagnostics; the enrollment invariant
// itself is enforced by the user_courses primary key.
func (r *OrderRepo) ExistsForUserCourse(ctx context.Context, userID, courseID uint64) (bool, error) {
    var one int
    err := r.DB.QueryRowContext(ctx,
        "SELECT 1 FROM orders WHERE user_id=? AND course_id=? LIMIT 1", userID, courseID).Scan(&one)
    if err == sql.ErrNoRows {
        return false, nil
    }
    if err != nil {
        return false, err
    }
    return true, nil
}
