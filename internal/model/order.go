package model

import "time"

// Order records a user's purchase of a course.  PaymentInfo is an
// opaque, externally verified payment confirmation payload stored
// as raw JSON; the platform never interprets it.
type Order struct {
    ID          uint64    `json:"id"`
    UserID      uint64    `json:"user_id"`
    CourseID    uint64    `json:"course_id"`
    PaymentInfo []byte    `json:"payment_info,omitempty"`
    CreatedAt   time.Time `json:"created_at"`
}
