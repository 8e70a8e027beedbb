// Package queue defines message payloads exchanged over the message broker.
package queue

// OrderCreatedEvent is published after an enrollment transaction
// commits.  It carries enough information for downstream consumers to
// audit, notify, or feed analytics without querying the primary
// database.  Publication is best-effort; a failed publish never undoes
// the order.
type OrderCreatedEvent struct {
    OrderID    uint64 `json:"order_id"`
    UserID     uint64 `json:"user_id"`
    UserEmail  string `json:"user_email"`
    CourseID   uint64 `json:"course_id"`
    CourseName string `json:"course_name"`
    Price      uint32 `json:"price"`
    CreatedAt  string `json:"created_at"`
}
