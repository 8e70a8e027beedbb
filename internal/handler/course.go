package handler

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/learning-platform/internal/cache"
	"github.com/iliyamo/learning-platform/internal/model"
	"github.com/iliyamo/learning-platform/internal/repository"
)

// CourseHandler serves the catalog, enrolled-only course content and
// the Q&A / review threads.  Public reads go through the catalog
// cache; every mutation that changes a visible course field drops the
// affected cache entries.
type CourseHandler struct {
	Courses       *repository.CourseRepo
	Notifications *repository.NotificationRepo
	Cache         *cache.Cache
}

func NewCourseHandler(courses *repository.CourseRepo, notifications *repository.NotificationRepo, cc *cache.Cache) *CourseHandler {
	return &CourseHandler{Courses: courses, Notifications: notifications, Cache: cc}
}

type sectionReq struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	VideoURL    string `json:"video_url"`
	VideoLength uint32 `json:"video_length"`
	Suggestion  string `json:"suggestion"`
}

type courseReq struct {
	Name           string       `json:"name"`
	Description    string       `json:"description"`
	Price          uint32       `json:"price"`
	EstimatedPrice uint32       `json:"estimated_price"`
	ThumbnailURL   string       `json:"thumbnail_url"`
	Tags           string       `json:"tags"`
	Level          string       `json:"level"`
	DemoURL        string       `json:"demo_url"`
	Sections       []sectionReq `json:"sections"`
}

// publicCourse is the sanitized view served to unauthenticated and
// non-enrolled callers: course fields plus sections stripped of the
// paid material (video URLs and suggestions).
type publicCourse struct {
	model.Course
	Sections []publicSection `json:"sections,omitempty"`
}

type publicSection struct {
	ID          uint64 `json:"id"`
	Position    uint32 `json:"position"`
	Title       string `json:"title"`
	Description string `json:"description"`
	VideoLength uint32 `json:"video_length,omitempty"`
}

func sanitizeSections(sections []model.Section) []publicSection {
	out := make([]publicSection, 0, len(sections))
	for _, s := range sections {
		out = append(out, publicSection{
			ID:          s.ID,
			Position:    s.Position,
			Title:       s.Title,
			Description: s.Description,
			VideoLength: s.VideoLength,
		})
	}
	return out
}

func pathID(c echo.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	return id, err == nil && id > 0
}

// Create handles POST /v1/courses (admin only).
func (h *CourseHandler) Create(c echo.Context) error {
	var req courseReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "invalid body"})
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" || req.Description == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "name and description are required"})
	}

	course := model.Course{
		Name:           req.Name,
		Description:    req.Description,
		Price:          req.Price,
		EstimatedPrice: req.EstimatedPrice,
		ThumbnailURL:   req.ThumbnailURL,
		Tags:           req.Tags,
		Level:          req.Level,
		DemoURL:        req.DemoURL,
	}
	sections := make([]model.Section, 0, len(req.Sections))
	for _, s := range req.Sections {
		sections = append(sections, model.Section{
			Title:       s.Title,
			Description: s.Description,
			VideoURL:    s.VideoURL,
			VideoLength: s.VideoLength,
			Suggestion:  s.Suggestion,
		})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	if err := h.Courses.Create(ctx, &course, sections); err != nil {
		log.Printf("course: create failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "message": "create course failed"})
	}
	h.Cache.Del(ctx, cache.AllCoursesKey)
	return c.JSON(http.StatusCreated, echo.Map{"success": true, "course": course})
}

// Update handles PUT /v1/courses/:id (admin only).  Sections are not
// editable here; content changes ship as new sections.
func (h *CourseHandler) Update(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "invalid course id"})
	}
	var req courseReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "invalid body"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	course, err := h.Courses.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrCourseNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"success": false, "message": "course not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "message": "query failed"})
	}
	if v := strings.TrimSpace(req.Name); v != "" {
		course.Name = v
	}
	if req.Description != "" {
		course.Description = req.Description
	}
	if req.Price != 0 {
		course.Price = req.Price
	}
	if req.EstimatedPrice != 0 {
		course.EstimatedPrice = req.EstimatedPrice
	}
	if req.ThumbnailURL != "" {
		course.ThumbnailURL = req.ThumbnailURL
	}
	if req.Tags != "" {
		course.Tags = req.Tags
	}
	if req.Level != "" {
		course.Level = req.Level
	}
	if req.DemoURL != "" {
		course.DemoURL = req.DemoURL
	}
	if err := h.Courses.Update(ctx, course); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "message": "update course failed"})
	}
	h.Cache.Del(ctx, cache.CourseKey(id), cache.AllCoursesKey)
	return c.JSON(http.StatusOK, echo.Map{"success": true, "course": course})
}

// GetSingle handles GET /v1/courses/:id.  Anyone may call it; the
// response carries sanitized sections only.  Served cache-aside.
func (h *CourseHandler) GetSingle(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "invalid course id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	var cached publicCourse
	if err := h.Cache.Get(ctx, cache.CourseKey(id), &cached); err == nil {
		return c.JSON(http.StatusOK, echo.Map{"success": true, "course": cached})
	}

	course, err := h.Courses.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrCourseNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"success": false, "message": "course not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "message": "query failed"})
	}
	sections, err := h.Courses.SectionsByCourse(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "message": "query failed"})
	}
	view := publicCourse{Course: *course, Sections: sanitizeSections(sections)}
	h.Cache.Set(ctx, cache.CourseKey(id), view)
	return c.JSON(http.StatusOK, echo.Map{"success": true, "course": view})
}

// GetAll handles GET /v1/courses.  The list carries course records
// only, no section data.  Served cache-aside.
func (h *CourseHandler) GetAll(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	var cached []model.Course
	if err := h.Cache.Get(ctx, cache.AllCoursesKey, &cached); err == nil {
		return c.JSON(http.StatusOK, echo.Map{"success": true, "courses": cached})
	}

	courses, err := h.Courses.ListAll(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "message": "query failed"})
	}
	if courses == nil {
		courses = []model.Course{}
	}
	h.Cache.Set(ctx, cache.AllCoursesKey, courses)
	return c.JSON(http.StatusOK, echo.Map{"success": true, "courses": courses})
}

// GetContent handles GET /v1/courses/:id/content.  Only enrolled
// users see the full sections, video URLs and suggestions included.
// Non-enrolled callers get a 404 rather than a 403 so the endpoint
// does not confirm which paid courses exist for a given user.
func (h *CourseHandler) GetContent(c echo.Context) error {
	u, ok := currentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"success": false, "message": "unauthorized"})
	}
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "invalid course id"})
	}
	if !u.Enrolled(id) {
		return c.JSON(http.StatusNotFound, echo.Map{"success": false, "message": "you are not eligible to access this course"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	sections, err := h.Courses.SectionsByCourse(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "message": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "content": sections})
}

type questionReq struct {
	CourseID  uint64 `json:"course_id"`
	SectionID uint64 `json:"content_id"`
	Question  string `json:"question"`
}

// AddQuestion handles PUT /v1/courses/add-question.  The course,
// section and question text must all resolve before the write; a
// notification is raised for the admin inbox afterwards.
func (h *CourseHandler) AddQuestion(c echo.Context) error {
	u, ok := currentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"success": false, "message": "unauthorized"})
	}
	var req questionReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Question) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "please enter a question"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	course, err := h.Courses.GetByID(ctx, req.CourseID)
	if err != nil {
		if errors.Is(err, repository.ErrCourseNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"success": false, "message": "course not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "message": "query failed"})
	}
	section, err := h.Courses.GetSection(ctx, course.ID, req.SectionID)
	if err != nil {
		if errors.Is(err, repository.ErrSectionNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"success": false, "message": "content not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "message": "query failed"})
	}

	qid, err := h.Courses.AddQuestion(ctx, section.ID, u.ID, strings.TrimSpace(req.Question))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "message": "add question failed"})
	}
	if _, err := h.Notifications.Create(ctx, u.ID, "New Question Received",
		"You have a new question in "+section.Title); err != nil {
		log.Printf("notification: create failed: %v", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "question_id": qid})
}

type answerReq struct {
	CourseID   uint64 `json:"course_id"`
	SectionID  uint64 `json:"content_id"`
	QuestionID uint64 `json:"question_id"`
	Answer     string `json:"answer"`
}

// AddAnswer handles PUT /v1/courses/add-answer.  Answering someone
// else's question notifies the asker; answering your own does not.
func (h *CourseHandler) AddAnswer(c echo.Context) error {
	u, ok := currentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"success": false, "message": "unauthorized"})
	}
	var req answerReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Answer) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "please enter an answer"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	course, err := h.Courses.GetByID(ctx, req.CourseID)
	if err != nil {
		if errors.Is(err, repository.ErrCourseNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"success": false, "message": "course not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "message": "query failed"})
	}
	section, err := h.Courses.GetSection(ctx, course.ID, req.SectionID)
	if err != nil {
		if errors.Is(err, repository.ErrSectionNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"success": false, "message": "content not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "message": "query failed"})
	}
	question, err := h.Courses.GetQuestion(ctx, section.ID, req.QuestionID)
	if err != nil {
		if errors.Is(err, repository.ErrQuestionNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"success": false, "message": "question not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "message": "query failed"})
	}

	aid, err := h.Courses.AddAnswer(ctx, question.ID, u.ID, strings.TrimSpace(req.Answer))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "message": "add answer failed"})
	}
	if question.UserID != u.ID {
		if _, err := h.Notifications.Create(ctx, question.UserID, "New Question Reply Received",
			"You have a new reply in "+section.Title); err != nil {
			log.Printf("notification: create failed: %v", err)
		}
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "answer_id": aid})
}

type reviewReq struct {
	Rating  float64 `json:"rating"`
	Comment string  `json:"review"`
}

// AddReview handles PUT /v1/courses/:id/review.  Only enrolled users
// may review; the course's aggregate rating is the mean of all review
// ratings and is recomputed as part of the write.
func (h *CourseHandler) AddReview(c echo.Context) error {
	u, ok := currentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"success": false, "message": "unauthorized"})
	}
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "invalid course id"})
	}
	if !u.Enrolled(id) {
		return c.JSON(http.StatusNotFound, echo.Map{"success": false, "message": "you are not eligible to access this course"})
	}
	var req reviewReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Comment) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "please enter a review"})
	}
	if req.Rating < 1 || req.Rating > 5 {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "rating must be between 1 and 5"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	course, err := h.Courses.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrCourseNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"success": false, "message": "course not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "message": "query failed"})
	}

	rid, mean, err := h.Courses.AddReview(ctx, course.ID, u.ID, req.Rating, strings.TrimSpace(req.Comment))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "message": "add review failed"})
	}
	if _, err := h.Notifications.Create(ctx, u.ID, "New Review Received",
		u.Name+" has given a review in "+course.Name); err != nil {
		log.Printf("notification: create failed: %v", err)
	}
	h.Cache.Del(ctx, cache.CourseKey(course.ID), cache.AllCoursesKey)
	return c.JSON(http.StatusOK, echo.Map{"success": true, "review_id": rid, "ratings": mean})
}

type reviewReplyReq struct {
	CourseID uint64 `json:"course_id"`
	ReviewID uint64 `json:"review_id"`
	Comment  string `json:"comment"`
}

// AddReviewReply handles PUT /v1/courses/add-reply (admin only).
func (h *CourseHandler) AddReviewReply(c echo.Context) error {
	u, ok := currentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"success": false, "message": "unauthorized"})
	}
	var req reviewReplyReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Comment) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "please enter a comment"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	if _, err := h.Courses.GetByID(ctx, req.CourseID); err != nil {
		if errors.Is(err, repository.ErrCourseNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"success": false, "message": "course not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "message": "query failed"})
	}
	review, err := h.Courses.GetReview(ctx, req.CourseID, req.ReviewID)
	if err != nil {
		if errors.Is(err, repository.ErrReviewNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"success": false, "message": "review not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "message": "query failed"})
	}

	replyID, err := h.Courses.AddReviewReply(ctx, review.ID, u.ID, strings.TrimSpace(req.Comment))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "message": "add reply failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "reply_id": replyID})
}

// Reviews handles GET /v1/courses/:id/reviews, newest first.
func (h *CourseHandler) Reviews(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "invalid course id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	if _, err := h.Courses.GetByID(ctx, id); err != nil {
		if errors.Is(err, repository.ErrCourseNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"success": false, "message": "course not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "message": "query failed"})
	}
	reviews, err := h.Courses.ReviewsByCourse(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "message": "query failed"})
	}
	if reviews == nil {
		reviews = []model.Review{}
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "reviews": reviews})
}
