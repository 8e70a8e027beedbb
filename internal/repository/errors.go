// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// handlers to distinguish between different failure scenarios and map
// them onto the HTTP error taxonomy: conflicts become 409, missing
// entities 404 and so on.
package repository

import "errors"

// ErrEmailExists is returned when inserting a user whose email is
// already taken.  Handlers translate it into HTTP 409.
var ErrEmailExists = errors.New("email already exists")

// ErrUserNotFound is returned when a referenced user does not exist.
var ErrUserNotFound = errors.New("user not found")

// ErrCourseNotFound is returned when a referenced course does not exist.
var ErrCourseNotFound = errors.New("course not found")

// ErrSectionNotFound is returned when a question references a content
// section that does not exist within the course.
var ErrSectionNotFound = errors.New("section not found")

// ErrQuestionNotFound is returned when an answer references a question
// that does not exist within the section.
var ErrQuestionNotFound = errors.New("question not found")

// ErrReviewNotFound is returned when a reply references a missing review.
var ErrReviewNotFound = errors.New("review not found")

// ErrAlreadyEnrolled is returned when an enrollment insert hits the
// (user_id, course_id) primary key.  This is the backstop for the
// duplicate-order race: both requests may pass the ownership read, but
// only one enrollment row can ever exist.
var ErrAlreadyEnrolled = errors.New("already enrolled")

// ErrNotificationNotFound is returned when marking a missing
// notification as read.
var ErrNotificationNotFound = errors.New("notification not found")
