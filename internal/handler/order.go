package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/learning-platform/internal/auth"
	"github.com/iliyamo/learning-platform/internal/cache"
	"github.com/iliyamo/learning-platform/internal/mail"
	"github.com/iliyamo/learning-platform/internal/model"
	"github.com/iliyamo/learning-platform/internal/queue"
	"github.com/iliyamo/learning-platform/internal/repository"
	queue_publisher "github.com/iliyamo/learning-platform/internal/service"
)

// OrderHandler runs the purchase workflow.  The order row, the course
// purchase counter and the enrollment row commit in one transaction;
// mail, notification, event publish and cache invalidation happen
// after commit and are best-effort.
type OrderHandler struct {
	DB            *sql.DB
	Users         *repository.UserRepo
	Courses       *repository.CourseRepo
	Orders        *repository.OrderRepo
	Notifications *repository.NotificationRepo
	Mail          mail.Mailer
	Publisher     queue_publisher.Publisher
	Cache         *cache.Cache
	Tokens        *auth.TokenService
}

type createOrderReq struct {
	CourseID    uint64          `json:"course_id"`
	PaymentInfo json.RawMessage `json:"payment_info"`
}

// Create handles POST /v1/orders.  Enrollment is checked against a
// fresh user load, not the session snapshot, and enforced a second
// time by the enrollment table's primary key inside the transaction,
// so two concurrent purchases of the same course cannot both commit.
func (h *OrderHandler) Create(c echo.Context) error {
	sess, ok := currentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"success": false, "message": "unauthorized"})
	}
	var req createOrderReq
	if err := c.Bind(&req); err != nil || req.CourseID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "invalid body"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	user, err := h.Users.GetByID(ctx, sess.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "message": "load user failed"})
	}
	if user.Enrolled(req.CourseID) {
		return c.JSON(http.StatusConflict, echo.Map{"success": false, "message": "you have already purchased this course"})
	}
	course, err := h.Courses.GetByID(ctx, req.CourseID)
	if err != nil {
		if errors.Is(err, repository.ErrCourseNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"success": false, "message": "course not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "message": "query failed"})
	}

	order := model.Order{UserID: user.ID, CourseID: course.ID, PaymentInfo: req.PaymentInfo}

	tx, err := h.DB.BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "message": "begin transaction failed"})
	}
	if err := h.Orders.CreateTx(ctx, tx, &order); err != nil {
		_ = tx.Rollback()
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "message": "create order failed"})
	}
	if err := h.Courses.IncrementPurchasedTx(ctx, tx, course.ID); err != nil {
		_ = tx.Rollback()
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "message": "create order failed"})
	}
	if err := h.Users.EnrollTx(ctx, tx, user.ID, course.ID); err != nil {
		_ = tx.Rollback()
		if errors.Is(err, repository.ErrAlreadyEnrolled) {
			return c.JSON(http.StatusConflict, echo.Map{"success": false, "message": "you have already purchased this course"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "message": "create order failed"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "message": "create order failed"})
	}

	// Post-commit effects.  None of these can undo the purchase.
	if err := h.Mail.Send(user.Email, "Order Confirmation", "order-confirmation", map[string]any{
		"Name":       user.Name,
		"CourseName": course.Name,
		"OrderID":    order.ID,
		"Price":      course.Price,
		"Date":       order.CreatedAt.Format("02 Jan 2006"),
	}); err != nil {
		log.Printf("order: confirmation mail failed: %v", err)
	}
	if _, err := h.Notifications.Create(ctx, user.ID, "New Order",
		"You have a new order for "+course.Name); err != nil {
		log.Printf("order: notification failed: %v", err)
	}
	if h.Publisher != nil {
		if err := h.Publisher.PublishOrderCreated(ctx, queue.OrderCreatedEvent{
			OrderID:    order.ID,
			UserID:     user.ID,
			UserEmail:  user.Email,
			CourseID:   course.ID,
			CourseName: course.Name,
			Price:      course.Price,
			CreatedAt:  order.CreatedAt.Format(time.RFC3339),
		}); err != nil {
			log.Printf("order: publish event failed: %v", err)
		}
	}
	h.Cache.Del(ctx, cache.CourseKey(course.ID), cache.AllCoursesKey)

	// Refresh the session snapshot so the new enrollment is visible
	// without a re-login.
	user.CourseIDs = append(user.CourseIDs, course.ID)
	if err := h.Tokens.Sync(ctx, user); err != nil {
		log.Printf("order: session sync failed: %v", err)
	}

	return c.JSON(http.StatusCreated, echo.Map{"success": true, "order": order})
}

// ListAll handles GET /v1/orders (admin only), newest first.
func (h *OrderHandler) ListAll(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	orders, err := h.Orders.ListAll(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "message": "query failed"})
	}
	if orders == nil {
		orders = []model.Order{}
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "orders": orders})
}
