package repository

import (
    "context"
    "database/sql"
    "strings"
    "time"

    "github.com/iliyamo/learning-platform/internal/model"
)

// UserRepo provides access to the users and user_courses tables.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

const userColumns = "id,name,email,password_hash,avatar_url,role,is_verified,created_at,updated_at"

// Create inserts a user with an already-hashed password and returns its ID.
// Emails are normalized to lower case; the unique key on email surfaces
// as ErrEmailExists.
func (r *UserRepo) Create(ctx context.Context, name, email, passwordHash, role string, verified bool) (uint64, error) {
    email = strings.ToLower(strings.TrimSpace(email))
    now := time.Now().UTC()
    res, err := r.DB.ExecContext(ctx,
        "INSERT INTO users (name, email, password_hash, avatar_url, role, is_verified, created_at, updated_at) VALUES (?,?,?,?,?,?,?,?)",
        name, email, passwordHash, "", role, verified, now, now)
    if err != nil {
        if isDuplicate(err) {
            return 0, ErrEmailExists
        }
        return 0, err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return 0, err
    }
    return uint64(id), nil
}

// GetByEmail fetches a user by normalized email, including enrollments.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
    email = strings.ToLower(strings.TrimSpace(email))
    return r.get(ctx, "SELECT "+userColumns+" FROM users WHERE email=? LIMIT 1", email)
}

// GetByID fetches a user by id, including enrollments.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (*model.User, error) {
    return r.get(ctx, "SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id)
}

func (r *UserRepo) get(ctx context.Context, query string, arg any) (*model.User, error) {
    var u model.User
    err := r.DB.QueryRowContext(ctx, query, arg).Scan(
        &u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.AvatarURL, &u.Role, &u.IsVerified, &u.CreatedAt, &u.UpdatedAt)
    if err == sql.ErrNoRows {
        return nil, ErrUserNotFound
    }
    if err != nil {
        return nil, err
    }
    if u.CourseIDs, err = r.courseIDs(ctx, u.ID); err != nil {
        return nil, err
    }
    return &u, nil
}

func (r *UserRepo) courseIDs(ctx context.Context, userID uint64) ([]uint64, error) {
    rows, err := r.DB.QueryContext(ctx, "SELECT course_id FROM user_courses WHERE user_id=?", userID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    var ids []uint64
    for rows.Next() {
        var id uint64
        if err := rows.Scan(&id); err != nil {
            return nil, err
        }
        ids = append(ids, id)
    }
    return ids, rows.Err()
}

// UpdateInfo changes name and/or email.  Empty arguments leave the
// current value untouched.  An email collision reports ErrEmailExists.
func (r *UserRepo) UpdateInfo(ctx context.Context, id uint64, name, email string) error {
    if email != "" {
        email = strings.ToLower(strings.TrimSpace(email))
        _, err := r.DB.ExecContext(ctx,
            "UPDATE users SET email=?, updated_at=? WHERE id=?", email, time.Now().UTC(), id)
        if err != nil {
            if isDuplicate(err) {
                return ErrEmailExists
            }
            return err
        }
    }
    if name != "" {
        if _, err := r.DB.ExecContext(ctx,
            "UPDATE users SET name=?, updated_at=? WHERE id=?", name, time.Now().UTC(), id); err != nil {
            return err
        }
    }
    return nil
}

// UpdatePassword replaces the stored password hash.
func (r *UserRepo) UpdatePassword(ctx context.Context, id uint64, passwordHash string) error {
    _, err := r.DB.ExecContext(ctx,
        "UPDATE users SET password_hash=?, updated_at=? WHERE id=?", passwordHash, time.Now().UTC(), id)
    return err
}

// UpdateAvatar replaces the avatar URL.
func (r *UserRepo) UpdateAvatar(ctx context.Context, id uint64, avatarURL string) error {
    _, err := r.DB.ExecContext(ctx,
        "UPDATE users SET avatar_url=?, updated_at=? WHERE id=?", avatarURL, time.Now().UTC(), id)
    return err
}

// ListAll returns every user, newest first, without enrollments.
func (r *UserRepo) ListAll(ctx context.Context) ([]model.User, error) {
    rows, err := r.DB.QueryContext(ctx, "SELECT "+userColumns+" FROM users ORDER BY created_at DESC, id DESC")
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    var users []model.User
    for rows.Next() {
        var u model.User
        if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.AvatarURL, &u.Role, &u.IsVerified, &u.CreatedAt, &u.UpdatedAt); err != nil {
            return nil, err
        }
        users = append(users, u)
    }
    return users, rows.Err()
}

// EnrollTx appends a course to the user's enrolled set within an
// existing transaction.  The composite primary key makes the append
// idempotent at the storage layer: a second insert for the same pair
// reports ErrAlreadyEnrolled.
func (r *UserRepo) EnrollTx(ctx context.Context, tx *sql.Tx, userID, courseID uint64) error {
    _, err := tx.ExecContext(ctx,
        "INSERT INTO user_courses (user_id, course_id, created_at) VALUES (?,?,?)",
        userID, courseID, time.Now().UTC())
    if err != nil && isDuplicate(err) {
        return ErrAlreadyEnrolled
    }
    return err
}

// isDuplicate detects unique-key violations.  MySQL reports error 1062;
// the sqlite driver used in tests mentions the constraint instead.
func isDuplicate(err error) bool {
    msg := strings.ToLower(err.Error())
    return strings.Contains(msg, "1062") || strings.Contains(msg, "unique")
}
