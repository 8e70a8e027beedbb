package model

import "time"

// Course mirrors the `courses` table.  Ratings holds the arithmetic
// mean of all review ratings and is recomputed on every review
// mutation.  Purchased is a monotonically non-decreasing counter
// incremented once per successful order.
type Course struct {
    ID             uint64    `json:"id"`
    Name           string    `json:"name"`
    Description    string    `json:"description"`
    Price          uint32    `json:"price"`
    EstimatedPrice uint32    `json:"estimated_price,omitempty"`
    ThumbnailURL   string    `json:"thumbnail_url,omitempty"`
    Tags           string    `json:"tags"`
    Level          string    `json:"level"`
    DemoURL        string    `json:"demo_url"`
    Ratings        float64   `json:"ratings"`
    Purchased      uint64    `json:"purchased"`
    CreatedAt      time.Time `json:"created_at"`
    UpdatedAt      time.Time `json:"updated_at"`
}

// Section is one content unit of a course (`course_sections` table).
// Sections form an ordered sequence via Position.  VideoURL and
// Suggestion are only exposed to enrolled users; public course views
// strip them out.
type Section struct {
    ID          uint64    `json:"id"`
    CourseID    uint64    `json:"course_id"`
    Position    uint32    `json:"position"`
    Title       string    `json:"title"`
    Description string    `json:"description"`
    VideoURL    string    `json:"video_url,omitempty"`
    VideoLength uint32    `json:"video_length,omitempty"`
    Suggestion  string    `json:"suggestion,omitempty"`
    CreatedAt   time.Time `json:"created_at"`
}

// Question is a Q&A thread entry attached to a course section.
type Question struct {
    ID        uint64    `json:"id"`
    SectionID uint64    `json:"section_id"`
    UserID    uint64    `json:"user_id"`
    Text      string    `json:"question"`
    CreatedAt time.Time `json:"created_at"`
    Answers   []Answer  `json:"answers,omitempty"`
}

// Answer is a reply to a question.
type Answer struct {
    ID         uint64    `json:"id"`
    QuestionID uint64    `json:"question_id"`
    UserID     uint64    `json:"user_id"`
    Text       string    `json:"answer"`
    CreatedAt  time.Time `json:"created_at"`
}

// Review is a rated comment on a course.  Replies are admin
// responses shown beneath the review.
type Review struct {
    ID        uint64        `json:"id"`
    CourseID  uint64        `json:"course_id"`
    UserID    uint64        `json:"user_id"`
    Rating    float64       `json:"rating"`
    Comment   string        `json:"comment"`
    CreatedAt time.Time     `json:"created_at"`
    Replies   []ReviewReply `json:"replies,omitempty"`
}

// ReviewReply is an admin reply attached to a review.
type ReviewReply struct {
    ID        uint64    `json:"id"`
    ReviewID  uint64    `json:"review_id"`
    UserID    uint64    `json:"user_id"`
    Comment   string    `json:"comment"`
    CreatedAt time.Time `json:"created_at"`
}
