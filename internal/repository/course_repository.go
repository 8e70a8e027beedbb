package repository

import (
    "context"
    "database/sql"
    "time"

    "github.com/iliyamo/learning-platform/internal/model"
)

// CourseRepo provides access to courses, their ordered content
// sections and the Q&A / review threads hanging off them.
type CourseRepo struct{ DB *sql.DB }

func NewCourseRepo(db *sql.DB) *CourseRepo { return &CourseRepo{DB: db} }

const courseColumns = "id,name,description,price,estimated_price,thumbnail_url,tags,level,demo_url,ratings,purchased,created_at,updated_at"

// Create inserts a course together with its content sections.  Section
// positions are assigned from slice order.
func (r *CourseRepo) Create(ctx context.Context, c *model.Course, sections []model.Section) error {
    now := time.Now().UTC()
    res, err := r.DB.ExecContext(ctx,
        "INSERT INTO courses (name, description, price, estimated_price, thumbnail_url, tags, level, demo_url, ratings, purchased, created_at, updated_at) VALUES (?,?,?,?,?,?,?,?,0,0,?,?)",
        c.Name, c.Description, c.Price, c.EstimatedPrice, c.ThumbnailURL, c.Tags, c.Level, c.DemoURL, now, now)
    if err != nil {
        return err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    c.ID = uint64(id)
    c.CreatedAt, c.UpdatedAt = now, now
    for i := range sections {
        s := &sections[i]
        res, err := r.DB.ExecContext(ctx,
            "INSERT INTO course_sections (course_id, position, title, description, video_url, video_length, suggestion, created_at) VALUES (?,?,?,?,?,?,?,?)",
            c.ID, i+1, s.Title, s.Description, s.VideoURL, s.VideoLength, s.Suggestion, now)
        if err != nil {
            return err
        }
        sid, err := res.LastInsertId()
        if err != nil {
            return err
        }
        s.ID = uint64(sid)
        s.CourseID = c.ID
        s.Position = uint32(i + 1)
    }
    return nil
}

// Update patches the descriptive fields of a course.  Ratings and
// purchased are never written here; they have dedicated mutations.
func (r *CourseRepo) Update(ctx context.Context, c *model.Course) error {
    res, err := r.DB.ExecContext(ctx,
        "UPDATE courses SET name=?, description=?, price=?, estimated_price=?, thumbnail_url=?, tags=?, level=?, demo_url=?, updated_at=? WHERE id=?",
        c.Name, c.Description, c.Price, c.EstimatedPrice, c.ThumbnailURL, c.Tags, c.Level, c.DemoURL, time.Now().UTC(), c.ID)
    if err != nil {
        return err
    }
    if n, err := res.RowsAffected(); err == nil && n == 0 {
        if _, err := r.GetByID(ctx, c.ID); err != nil {
            return err
        }
    }
    return nil
}

// GetByID fetches a single course.
func (r *CourseRepo) GetByID(ctx context.Context, id uint64) (*model.Course, error) {
    var c model.Course
    err := r.DB.QueryRowContext(ctx,
        "SELECT "+courseColumns+" FROM courses WHERE id=? LIMIT 1", id).Scan(
        &c.ID, &c.Name, &c.Description, &c.Price, &c.EstimatedPrice, &c.ThumbnailURL,
        &c.Tags, &c.Level, &c.DemoURL, &c.Ratings, &c.Purchased, &c.CreatedAt, &c.UpdatedAt)
    if err == sql.ErrNoRows {
        return nil, ErrCourseNotFound
    }
    if err != nil {
        return nil, err
    }
    return &c, nil
}

// ListAll returns every course.
func (r *CourseRepo) ListAll(ctx context.Context) ([]model.Course, error) {
    rows, err := r.DB.QueryContext(ctx, "SELECT "+courseColumns+" FROM courses ORDER BY id")
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    var courses []model.Course
    for rows.Next() {
        var c model.Course
        if err := rows.Scan(&c.ID, &c.Name, &c.Description, &c.Price, &c.EstimatedPrice, &c.ThumbnailURL,
            &c.Tags, &c.Level, &c.DemoURL, &c.Ratings, &c.Purchased, &c.CreatedAt, &c.UpdatedAt); err != nil {
            return nil, err
        }
        courses = append(courses, c)
    }
    return courses, rows.Err()
}

// SectionsByCourse returns the ordered content sections of a course.
func (r *CourseRepo) SectionsByCourse(ctx context.Context, courseID uint64) ([]model.Section, error) {
    rows, err := r.DB.QueryContext(ctx,
        "SELECT id, course_id, position, title, description, video_url, video_length, suggestion, created_at FROM course_sections WHERE course_id=? ORDER BY position",
        courseID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    var sections []model.Section
    for rows.Next() {
        var s model.Section
        var suggestion sql.NullString
        if err := rows.Scan(&s.ID, &s.CourseID, &s.Position, &s.Title, &s.Description, &s.VideoURL, &s.VideoLength, &suggestion, &s.CreatedAt); err != nil {
            return nil, err
        }
        s.Suggestion = suggestion.String
        sections = append(sections, s)
    }
    return sections, rows.Err()
}

// GetSection fetches a section and verifies it belongs to the course.
func (r *CourseRepo) GetSection(ctx context.Context, courseID, sectionID uint64) (*model.Section, error) {
    var s model.Section
    var suggestion sql.NullString
    err := r.DB.QueryRowContext(ctx,
        "SELECT id, course_id, position, title, description, video_url, video_length, suggestion, created_at FROM course_sections WHERE id=? AND course_id=? LIMIT 1",
        sectionID, courseID).Scan(&s.ID, &s.CourseID, &s.Position, &s.Title, &s.Description, &s.VideoURL, &s.VideoLength, &suggestion, &s.CreatedAt)
    if err == sql.ErrNoRows {
        return nil, ErrSectionNotFound
    }
    if err != nil {
        return nil, err
    }
    s.Suggestion = suggestion.String
    return &s, nil
}

// AddQuestion inserts a question into a section's thread.
func (r *CourseRepo) AddQuestion(ctx context.Context, sectionID, userID uint64, text string) (uint64, error) {
    res, err := r.DB.ExecContext(ctx,
        "INSERT INTO section_questions (section_id, user_id, question, created_at) VALUES (?,?,?,?)",
        sectionID, userID, text, time.Now().UTC())
    if err != nil {
        return 0, err
    }
    id, err := res.LastInsertId()
    return uint64(id), err
}

// GetQuestion fetches a question and verifies it belongs to the section.
func (r *CourseRepo) GetQuestion(ctx context.Context, sectionID, questionID uint64) (*model.Question, error) {
    var q model.Question
    err := r.DB.QueryRowContext(ctx,
        "SELECT id, section_id, user_id, question, created_at FROM section_questions WHERE id=? AND section_id=? LIMIT 1",
        questionID, sectionID).Scan(&q.ID, &q.SectionID, &q.UserID, &q.Text, &q.CreatedAt)
    if err == sql.ErrNoRows {
        return nil, ErrQuestionNotFound
    }
    if err != nil {
        return nil, err
    }
    return &q, nil
}

// AddAnswer inserts an answer into a question's thread.
func (r *CourseRepo) AddAnswer(ctx context.Context, questionID, userID uint64, text string) (uint64, error) {
    res, err := r.DB.ExecContext(ctx,
        "INSERT INTO question_answers (question_id, user_id, answer, created_at) VALUES (?,?,?,?)",
        questionID, userID, text, time.Now().UTC())
    if err != nil {
        return 0, err
    }
    id, err := res.LastInsertId()
    return uint64(id), err
}

// AddReview inserts a review and recomputes the course's aggregate
// rating as the arithmetic mean of all review ratings.  The recompute
// is a full aggregate per mutation rather than a running average;
// review volume is low relative to read volume.
func (r *CourseRepo) AddReview(ctx context.Context, courseID, userID uint64, rating float64, comment string) (uint64, float64, error) {
    res, err := r.DB.ExecContext(ctx,
        "INSERT INTO course_reviews (course_id, user_id, rating, comment, created_at) VALUES (?,?,?,?,?)",
        courseID, userID, rating, comment, time.Now().UTC())
    if err != nil {
        return 0, 0, err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return 0, 0, err
    }
    mean, err := r.recomputeRatings(ctx, courseID)
    if err != nil {
        return 0, 0, err
    }
    return uint64(id), mean, nil
}

func (r *CourseRepo) recomputeRatings(ctx context.Context, courseID uint64) (float64, error) {
    var mean float64
    err := r.DB.QueryRowContext(ctx,
        "SELECT COALESCE(AVG(rating),0) FROM course_reviews WHERE course_id=?", courseID).Scan(&mean)
    if err != nil {
        return 0, err
    }
    _, err = r.DB.ExecContext(ctx,
        "UPDATE courses SET ratings=?, updated_at=? WHERE id=?", mean, time.Now().UTC(), courseID)
    return mean, err
}

// ReviewsByCourse returns all reviews of a course, newest first.
func (r *CourseRepo) ReviewsByCourse(ctx context.Context, courseID uint64) ([]model.Review, error) {
    rows, err := r.DB.QueryContext(ctx,
        "SELECT id, course_id, user_id, rating, comment, created_at FROM course_reviews WHERE course_id=? ORDER BY created_at DESC, id DESC",
        courseID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    var reviews []model.Review
    for rows.Next() {
        var rv model.Review
        if err := rows.Scan(&rv.ID, &rv.CourseID, &rv.UserID, &rv.Rating, &rv.Comment, &rv.CreatedAt); err != nil {
            return nil, err
        }
        reviews = append(reviews, rv)
    }
    return reviews, rows.Err()
}

// GetReview fetches a review and verifies it belongs to the course.
func (r *CourseRepo) GetReview(ctx context.Context, courseID, reviewID uint64) (*model.Review, error) {
    var rv model.Review
    err := r.DB.QueryRowContext(ctx,
        "SELECT id, course_id, user_id, rating, comment, created_at FROM course_reviews WHERE id=? AND course_id=? LIMIT 1",
        reviewID, courseID).Scan(&rv.ID, &rv.CourseID, &rv.UserID, &rv.Rating, &rv.Comment, &rv.CreatedAt)
    if err == sql.ErrNoRows {
        return nil, ErrReviewNotFound
    }
    if err != nil {
        return nil, err
    }
    return &rv, nil
}

// AddReviewReply attaches an admin reply to a review.
func (r *CourseRepo) AddReviewReply(ctx context.Context, reviewID, userID uint64, comment string) (uint64, error) {
    res, err := r.DB.ExecContext(ctx,
        "INSERT INTO review_replies (review_id, user_id, comment, created_at) VALUES (?,?,?,?)",
        reviewID, userID, comment, time.Now().UTC())
    if err != nil {
        return 0, err
    }
    id, err := res.LastInsertId()
    return uint64(id), err
}

// IncrementPurchasedTx bumps the purchase counter within an existing
// transaction.  The counter column defaults to zero so the first order
// takes it to one; the statement is a single-row atomic update.
func (r *CourseRepo) IncrementPurchasedTx(ctx context.Context, tx *sql.Tx, courseID uint64) error {
    res, err := tx.ExecContext(ctx,
        "UPDATE courses SET purchased = purchased + 1, updated_at=? WHERE id=?", time.Now().UTC(), courseID)
    if err != nil {
        return err
    }
    if n, err := res.RowsAffected(); err == nil && n == 0 {
        return ErrCourseNotFound
    }
    return nil
}
