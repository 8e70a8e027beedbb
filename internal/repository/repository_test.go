package repository

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	_ "github.com/glebarez/go-sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/learning-platform/internal/model"
)

// testSchema mirrors the production schema in sqlite dialect.  The
// repositories stick to portable SQL (? placeholders, Go-side UTC
// timestamps) precisely so they can be exercised here without a
// MySQL server.
const testSchema = `
CREATE TABLE users (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL,
	email TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	avatar_url TEXT NOT NULL DEFAULT '',
	role TEXT NOT NULL,
	is_verified BOOLEAN NOT NULL DEFAULT 0,
	created_at TIMESTAMP NOT NULL,
	updated_at TIMESTAMP NOT NULL
);
CREATE TABLE user_courses (
	user_id INTEGER NOT NULL,
	course_id INTEGER NOT NULL,
	created_at TIMESTAMP NOT NULL,
	PRIMARY KEY (user_id, course_id)
);
CREATE TABLE courses (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL,
	description TEXT NOT NULL,
	price INTEGER NOT NULL DEFAULT 0,
	estimated_price INTEGER NOT NULL DEFAULT 0,
	thumbnail_url TEXT NOT NULL DEFAULT '',
	tags TEXT NOT NULL DEFAULT '',
	level TEXT NOT NULL DEFAULT '',
	demo_url TEXT NOT NULL DEFAULT '',
	ratings REAL NOT NULL DEFAULT 0,
	purchased INTEGER NOT NULL DEFAULT 0,
	created_at TIMESTAMP NOT NULL,
	updated_at TIMESTAMP NOT NULL
);
CREATE TABLE course_sections (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	course_id INTEGER NOT NULL,
	position INTEGER NOT NULL,
	title TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	video_url TEXT NOT NULL DEFAULT '',
	video_length INTEGER NOT NULL DEFAULT 0,
	suggestion TEXT,
	created_at TIMESTAMP NOT NULL
);
CREATE TABLE section_questions (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	section_id INTEGER NOT NULL,
	user_id INTEGER NOT NULL,
	question TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL
);
CREATE TABLE question_answers (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	question_id INTEGER NOT NULL,
	user_id INTEGER NOT NULL,
	answer TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL
);
CREATE TABLE course_reviews (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	course_id INTEGER NOT NULL,
	user_id INTEGER NOT NULL,
	rating REAL NOT NULL,
	comment TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL
);
CREATE TABLE review_replies (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	review_id INTEGER NOT NULL,
	user_id INTEGER NOT NULL,
	comment TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL
);
CREATE TABLE orders (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id INTEGER NOT NULL,
	course_id INTEGER NOT NULL,
	payment_info BLOB,
	created_at TIMESTAMP NOT NULL
);
CREATE TABLE notifications (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id INTEGER NOT NULL,
	title TEXT NOT NULL,
	message TEXT NOT NULL,
	status TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL
);
`

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	_, err = db.Exec(testSchema)
	require.NoError(t, err)
	return db
}

func seedUser(t *testing.T, users *UserRepo, email string) uint64 {
	t.Helper()
	id, err := users.Create(context.Background(), "Test User", email, "hash", "user", true)
	require.NoError(t, err)
	return id
}

func seedCourse(t *testing.T, courses *CourseRepo, name string, sections ...model.Section) *model.Course {
	t.Helper()
	c := &model.Course{Name: name, Description: "desc", Price: 49, Tags: "go", Level: "beginner"}
	require.NoError(t, courses.Create(context.Background(), c, sections))
	return c
}

func TestUserCreateAndGet(t *testing.T) {
	t.Parallel()
	users := NewUserRepo(openTestDB(t))
	ctx := context.Background()

	id, err := users.Create(ctx, "Ada", "Ada@Example.com", "hash", "user", true)
	require.NoError(t, err)

	// Emails are normalized to lower case on write and on lookup.
	u, err := users.GetByEmail(ctx, "ADA@example.COM")
	require.NoError(t, err)
	assert.Equal(t, id, u.ID)
	assert.Equal(t, "ada@example.com", u.Email)
	assert.True(t, u.IsVerified)
	assert.Empty(t, u.CourseIDs)

	_, err = users.Create(ctx, "Other", "ada@example.com", "hash2", "user", true)
	assert.ErrorIs(t, err, ErrEmailExists)

	_, err = users.GetByID(ctx, 9999)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestUserUpdateInfoEmailConflict(t *testing.T) {
	t.Parallel()
	users := NewUserRepo(openTestDB(t))
	ctx := context.Background()

	a := seedUser(t, users, "a@example.com")
	seedUser(t, users, "b@example.com")

	err := users.UpdateInfo(ctx, a, "", "b@example.com")
	assert.ErrorIs(t, err, ErrEmailExists)

	require.NoError(t, users.UpdateInfo(ctx, a, "Renamed", ""))
	u, err := users.GetByID(ctx, a)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", u.Name)
	assert.Equal(t, "a@example.com", u.Email)
}

func TestEnrollTxIdempotent(t *testing.T) {
	t.Parallel()
	db := openTestDB(t)
	users := NewUserRepo(db)
	courses := NewCourseRepo(db)
	ctx := context.Background()

	uid := seedUser(t, users, "learner@example.com")
	course := seedCourse(t, courses, "Go Basics")

	tx, err := db.BeginTx(ctx, nil)
	require.NoError(t, err)
	require.NoError(t, users.EnrollTx(ctx, tx, uid, course.ID))
	require.NoError(t, tx.Commit())

	u, err := users.GetByID(ctx, uid)
	require.NoError(t, err)
	assert.Equal(t, []uint64{course.ID}, u.CourseIDs)
	assert.True(t, u.Enrolled(course.ID))

	// The composite primary key rejects a second enrollment; the
	// caller rolls back the rest of the purchase with it.
	tx, err = db.BeginTx(ctx, nil)
	require.NoError(t, err)
	err = users.EnrollTx(ctx, tx, uid, course.ID)
	assert.ErrorIs(t, err, ErrAlreadyEnrolled)
	require.NoError(t, tx.Rollback())

	u, err = users.GetByID(ctx, uid)
	require.NoError(t, err)
	assert.Len(t, u.CourseIDs, 1)
}

func TestCourseCreateWithSections(t *testing.T) {
	t.Parallel()
	courses := NewCourseRepo(openTestDB(t))
	ctx := context.Background()

	c := seedCourse(t, courses, "Go Basics",
		model.Section{Title: "Intro", VideoURL: "v1", VideoLength: 300},
		model.Section{Title: "Types", VideoURL: "v2", VideoLength: 600, Suggestion: "read the docs first"},
	)
	require.NotZero(t, c.ID)

	sections, err := courses.SectionsByCourse(ctx, c.ID)
	require.NoError(t, err)
	require.Len(t, sections, 2)
	assert.Equal(t, uint32(1), sections[0].Position)
	assert.Equal(t, uint32(2), sections[1].Position)
	assert.Equal(t, "Intro", sections[0].Title)
	assert.Equal(t, "read the docs first", sections[1].Suggestion)

	s, err := courses.GetSection(ctx, c.ID, sections[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "v1", s.VideoURL)

	// A section id that belongs to another course must not resolve.
	other := seedCourse(t, courses, "Other")
	_, err = courses.GetSection(ctx, other.ID, sections[0].ID)
	assert.ErrorIs(t, err, ErrSectionNotFound)
}

func TestAddReviewRecomputesMean(t *testing.T) {
	t.Parallel()
	courses := NewCourseRepo(openTestDB(t))
	ctx := context.Background()

	c := seedCourse(t, courses, "Go Basics")

	_, mean, err := courses.AddReview(ctx, c.ID, 1, 5, "great")
	require.NoError(t, err)
	assert.InDelta(t, 5.0, mean, 1e-9)

	_, mean, err = courses.AddReview(ctx, c.ID, 2, 3, "okay")
	require.NoError(t, err)
	assert.InDelta(t, 4.0, mean, 1e-9)

	_, mean, err = courses.AddReview(ctx, c.ID, 3, 4, "good")
	require.NoError(t, err)
	assert.InDelta(t, 4.0, mean, 1e-9)

	_, mean, err = courses.AddReview(ctx, c.ID, 4, 2, "meh")
	require.NoError(t, err)
	assert.InDelta(t, 3.5, mean, 1e-9)

	// The recomputed mean lands on the course row.
	got, err := courses.GetByID(ctx, c.ID)
	require.NoError(t, err)
	assert.InDelta(t, 3.5, got.Ratings, 1e-9)

	reviews, err := courses.ReviewsByCourse(ctx, c.ID)
	require.NoError(t, err)
	assert.Len(t, reviews, 4)
}

func TestQuestionAnswerChain(t *testing.T) {
	t.Parallel()
	courses := NewCourseRepo(openTestDB(t))
	ctx := context.Background()

	c := seedCourse(t, courses, "Go Basics", model.Section{Title: "Intro"})
	sections, err := courses.SectionsByCourse(ctx, c.ID)
	require.NoError(t, err)

	qid, err := courses.AddQuestion(ctx, sections[0].ID, 1, "what is a goroutine?")
	require.NoError(t, err)

	q, err := courses.GetQuestion(ctx, sections[0].ID, qid)
	require.NoError(t, err)
	assert.Equal(t, "what is a goroutine?", q.Text)
	assert.Equal(t, uint64(1), q.UserID)

	_, err = courses.GetQuestion(ctx, sections[0].ID+1, qid)
	assert.ErrorIs(t, err, ErrQuestionNotFound)

	_, err = courses.AddAnswer(ctx, qid, 2, "a lightweight thread")
	require.NoError(t, err)
}

func TestIncrementPurchasedTx(t *testing.T) {
	t.Parallel()
	db := openTestDB(t)
	courses := NewCourseRepo(db)
	ctx := context.Background()

	c := seedCourse(t, courses, "Go Basics")
	require.Zero(t, c.Purchased)

	tx, err := db.BeginTx(ctx, nil)
	require.NoError(t, err)
	require.NoError(t, courses.IncrementPurchasedTx(ctx, tx, c.ID))
	require.NoError(t, tx.Commit())

	got, err := courses.GetByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), got.Purchased)

	tx, err = db.BeginTx(ctx, nil)
	require.NoError(t, err)
	err = courses.IncrementPurchasedTx(ctx, tx, 9999)
	assert.ErrorIs(t, err, ErrCourseNotFound)
	require.NoError(t, tx.Rollback())
}

func TestOrderCreateTx(t *testing.T) {
	t.Parallel()
	db := openTestDB(t)
	orders := NewOrderRepo(db)
	ctx := context.Background()

	o := &model.Order{UserID: 1, CourseID: 2, PaymentInfo: []byte(`{"provider":"stripe"}`)}
	tx, err := db.BeginTx(ctx, nil)
	require.NoError(t, err)
	require.NoError(t, orders.CreateTx(ctx, tx, o))
	require.NoError(t, tx.Commit())
	assert.NotZero(t, o.ID)
	assert.False(t, o.CreatedAt.IsZero())

	exists, err := orders.ExistsForUserCourse(ctx, 1, 2)
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = orders.ExistsForUserCourse(ctx, 1, 3)
	require.NoError(t, err)
	assert.False(t, exists)

	list, err := orders.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.JSONEq(t, `{"provider":"stripe"}`, string(list[0].PaymentInfo))
}

func TestNotificationLifecycle(t *testing.T) {
	t.Parallel()
	notifications := NewNotificationRepo(openTestDB(t))
	ctx := context.Background()

	first, err := notifications.Create(ctx, 1, "New Order", "You have a new order for Go Basics")
	require.NoError(t, err)
	_, err = notifications.Create(ctx, 1, "New Question Received", "You have a new question in Intro")
	require.NoError(t, err)

	list, err := notifications.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, model.NotificationUnread, list[0].Status)

	require.NoError(t, notifications.MarkRead(ctx, first))
	assert.ErrorIs(t, notifications.MarkRead(ctx, 9999), ErrNotificationNotFound)

	// Only read notifications older than the cutoff are purged; the
	// unread one survives even with a future cutoff.
	n, err := notifications.PurgeRead(ctx, time.Now().UTC().Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	list, err = notifications.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, model.NotificationUnread, list[0].Status)
}
