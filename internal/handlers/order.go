package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/mperera/lottery-dms/internal/logging"
	"github.com/mperera/lottery-dms/internal/models"
	"github.com/mperera/lottery-dms/internal/order"
	"github.com/mperera/lottery-dms/internal/service/token"
	"github.com/mperera/lottery-dms/internal/util"
)

type OrderHandler struct {
	DB       *gorm.DB
	Svc      *order.Service
	Producer EventPublisher
}

// updateResult is the uniform shape of every quantity-update response.
// Failures never escape as faults; callers always get {success, message}.
type updateResult struct {
	Success bool          `json:"success"`
	Message string        `json:"message,omitempty"`
	Order   *models.Order `json:"order,omitempty"`
}

// ListOwn returns the caller's orders in one classification bucket.
func (h *OrderHandler) ListOwn(c echo.Context) error {
	agentID, err := token.UserID(c)
	if err != nil {
		return err
	}

	bucket := order.Bucket(c.QueryParam("bucket"))
	if bucket == "" {
		bucket = order.BucketActive
	}
	if bucket != order.BucketActive && bucket != order.BucketCompleted {
		return echo.NewHTTPError(http.StatusBadRequest, "bucket must be active or completed")
	}

	orders, err := h.Svc.ListForAgent(c.Request().Context(), agentID, bucket)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	return c.JSON(http.StatusOK, orders)
}

func (h *OrderHandler) GetOwn(c echo.Context) error {
	agentID, err := token.UserID(c)
	if err != nil {
		return err
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	ord, err := h.Svc.Get(c.Request().Context(), uint(id))
	if err != nil {
		if errors.Is(err, order.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "order not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	if ord.AgentID != agentID {
		return echo.NewHTTPError(http.StatusForbidden, "not your order")
	}
	return c.JSON(http.StatusOK, ord)
}

// UpdateOwnItems is the quantity-revision entry point for agents; the order
// must belong to the caller.
func (h *OrderHandler) UpdateOwnItems(c echo.Context) error {
	agentID, err := token.UserID(c)
	if err != nil {
		return err
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, updateResult{Success: false, Message: "invalid order id"})
	}

	ord, err := h.Svc.Get(c.Request().Context(), uint(id))
	if err != nil {
		if errors.Is(err, order.ErrNotFound) {
			return c.JSON(http.StatusNotFound, updateResult{Success: false, Message: "order not found"})
		}
		return c.JSON(http.StatusInternalServerError, updateResult{Success: false, Message: "update did not apply"})
	}
	if ord.AgentID != agentID {
		return c.JSON(http.StatusForbidden, updateResult{Success: false, Message: "not your order"})
	}

	return h.updateItems(c, uint(id))
}

// UpdateItems is the staff entry point; any order may be revised.
func (h *OrderHandler) UpdateItems(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, updateResult{Success: false, Message: "invalid order id"})
	}
	return h.updateItems(c, uint(id))
}

func (h *OrderHandler) updateItems(c echo.Context, orderID uint) error {
	l := logging.FromContext(c.Request().Context()).With("handler", "order.update_items", "order_id", orderID)

	var req struct {
		Quantities []int `json:"quantities"`
	}
	if err := c.Bind(&req); err != nil {
		l.Warn("update_items_error", "status", 400, "error", err)
		return c.JSON(http.StatusBadRequest, updateResult{Success: false, Message: "invalid body"})
	}

	ord, err := h.Svc.UpdateQuantities(c.Request().Context(), orderID, req.Quantities)
	if err != nil {
		switch {
		case errors.Is(err, order.ErrNotFound):
			l.Warn("update_items_error", "status", 404, "error", err)
			return c.JSON(http.StatusNotFound, updateResult{Success: false, Message: err.Error()})
		case errors.Is(err, order.ErrValidation):
			l.Warn("update_items_error", "status", 400, "error", err)
			return c.JSON(http.StatusBadRequest, updateResult{Success: false, Message: err.Error()})
		default:
			l.Error("update_items_error", "status", 500, "error", err)
			return c.JSON(http.StatusInternalServerError, updateResult{Success: false, Message: "update did not apply"})
		}
	}

	publish(c, h.Producer, "order_events", fmt.Sprint(ord.ID), map[string]interface{}{
		"type":             "order_items_updated",
		"order_id":         ord.ID,
		"total_amount":     ord.TotalAmount,
		"total_commission": ord.TotalCommission,
	})

	l.Info("update_items_success")
	return c.JSON(http.StatusOK, updateResult{Success: true, Order: ord})
}

// List is the staff-side order listing: free-text over the agent's username,
// inclusive date range on creation, optional status filter, paginated.
func (h *OrderHandler) List(c echo.Context) error {
	page := parseIntDefault(c.QueryParam("page"), 1)
	size := parseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, size)

	term := strings.TrimSpace(c.QueryParam("q"))
	status := c.QueryParam("status")
	if status != "" && !order.ValidStatus(status) {
		return echo.NewHTTPError(http.StatusBadRequest, "unknown status")
	}

	var fromUnix, toUnix int64
	if from := c.QueryParam("from"); from != "" {
		t, err := time.Parse("2006-01-02", from)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid from date")
		}
		fromUnix = t.Unix()
	}
	if to := c.QueryParam("to"); to != "" {
		t, err := time.Parse("2006-01-02", to)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid to date")
		}
		toUnix = t.Add(24 * time.Hour).Unix()
	}

	filtered := func() *gorm.DB {
		q := h.DB.Model(&models.Order{})
		if term != "" {
			sub := h.DB.Model(&models.User{}).Select("id").
				Where("LOWER(username) LIKE ?", "%"+strings.ToLower(term)+"%")
			q = q.Where("agent_id IN (?)", sub)
		}
		if status != "" {
			q = q.Where("status = ?", status)
		}
		if fromUnix != 0 {
			q = q.Where("created_at >= ?", fromUnix)
		}
		if toUnix != 0 {
			q = q.Where("created_at < ?", toUnix)
		}
		return q
	}

	var total int64
	if err := filtered().Count(&total).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	var orders []models.Order
	if err := filtered().
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("order_items.id ASC") }).
		Preload("Delivery").
		Order("created_at DESC").Offset(offset).Limit(limit).
		Find(&orders).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"data": orders,
		"meta": map[string]interface{}{
			"page":        page,
			"size":        limit,
			"total":       total,
			"total_pages": (total + int64(limit) - 1) / int64(limit),
			"has_prev":    page > 1,
			"has_next":    int64(offset+limit) < total,
		},
	})
}

func (h *OrderHandler) AdvanceStatus(c echo.Context) error {
	staffID, err := token.UserID(c)
	if err != nil {
		return err
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var req struct {
		Status string `json:"status"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	ord, err := h.Svc.AdvanceStatus(c.Request().Context(), uint(id), req.Status, staffID)
	if err != nil {
		switch {
		case errors.Is(err, order.ErrNotFound):
			return echo.NewHTTPError(http.StatusNotFound, "order not found")
		case errors.Is(err, order.ErrValidation):
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
		}
	}

	publish(c, h.Producer, "order_events", fmt.Sprint(ord.ID), map[string]interface{}{
		"type":     "order_status_changed",
		"order_id": ord.ID,
		"status":   ord.Status,
		"staff_id": staffID,
	})

	return c.JSON(http.StatusOK, ord)
}

func (h *OrderHandler) AssignDelivery(c echo.Context) error {
	staffID, err := token.UserID(c)
	if err != nil {
		return err
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var req struct {
		TransportType string `json:"transport_type"`
		Vehicle       string `json:"vehicle"`
		DispatchAt    int64  `json:"dispatch_at"`
		ArriveAt      int64  `json:"arrive_at"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	d := models.Delivery{
		TransportType: req.TransportType,
		Vehicle:       req.Vehicle,
		DispatchAt:    req.DispatchAt,
		ArriveAt:      req.ArriveAt,
		StaffID:       staffID,
	}
	saved, err := h.Svc.AssignDelivery(c.Request().Context(), uint(id), d)
	if err != nil {
		if errors.Is(err, order.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "order not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	publish(c, h.Producer, "order_events", fmt.Sprint(id), map[string]interface{}{
		"type":           "order_delivery_assigned",
		"order_id":       id,
		"transport_type": saved.TransportType,
		"staff_id":       staffID,
	})

	return c.JSON(http.StatusOK, saved)
}

func (h *OrderHandler) Delete(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	if err := h.Svc.Delete(c.Request().Context(), uint(id)); err != nil {
		if errors.Is(err, order.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "order not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	publish(c, h.Producer, "order_events", fmt.Sprint(id), map[string]interface{}{
		"type":     "order_deleted",
		"order_id": id,
	})

	return c.NoContent(http.StatusNoContent)
}
