package model

import "time"

// User represents an application user record as stored in the
// `users` table. The password hash is kept out of JSON so that a
// user snapshot can be serialized into the session cache or an
// HTTP response without ever leaking credentials.
//
// Fields:
//  ID           – primary key identifier of the user.
//  Name         – display name.
//  Email        – unique email address.
//  PasswordHash – bcrypt hashed password (never serialized).
//  AvatarURL    – optional profile image URL.
//  Role         – coarse permission class ("user" or "admin").
//  IsVerified   – whether the account completed activation.
//  CourseIDs    – ids of courses the user is enrolled in, loaded
//                 from the user_courses table.  Order is irrelevant.
//  CreatedAt    – timestamp of creation.
//  UpdatedAt    – timestamp of last update.
type User struct {
    ID           uint64    `json:"id"`
    Name         string    `json:"name"`
    Email        string    `json:"email"`
    PasswordHash string    `json:"-"`
    AvatarURL    string    `json:"avatar_url,omitempty"`
    Role         string    `json:"role"`
    IsVerified   bool      `json:"is_verified"`
    CourseIDs    []uint64  `json:"courses"`
    CreatedAt    time.Time `json:"created_at"`
    UpdatedAt    time.Time `json:"updated_at"`
}

// Enrolled reports whether the user already owns the given course.
func (u *User) Enrolled(courseID uint64) bool {
    for _, id := range u.CourseIDs {
        if id == courseID {
            return true
        }
    }
    return false
}
