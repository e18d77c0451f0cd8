package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/mperera/lottery-dms/internal/models"
	"github.com/mperera/lottery-dms/internal/order"
	"github.com/mperera/lottery-dms/internal/service/token"
)

type CartHandler struct {
	DB       *gorm.DB
	Orders   *order.Service
	Producer EventPublisher
}

func (h *CartHandler) GetCart(c echo.Context) error {
	agentID, err := token.UserID(c)
	if err != nil {
		return err
	}

	var items []models.CartItem
	if err := h.DB.Where("agent_id = ?", agentID).Order("id ASC").Find(&items).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	return c.JSON(http.StatusOK, items)
}

// AddToCart merges quantity into an existing line for the same lottery.
func (h *CartHandler) AddToCart(c echo.Context) error {
	agentID, err := token.UserID(c)
	if err != nil {
		return err
	}

	var req struct {
		LotteryID uint `json:"lottery_id"`
		Quantity  int  `json:"quantity"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if req.Quantity < 1 {
		req.Quantity = 1
	}

	var lot models.Lottery
	if err := h.DB.First(&lot, req.LotteryID).Error; err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "lottery not found")
	}

	var stock models.Stock
	if err := h.DB.Where("lottery_id = ?", lot.ID).First(&stock).Error; err == nil && !stock.Available {
		return echo.NewHTTPError(http.StatusBadRequest, "lottery is unavailable")
	}

	var item models.CartItem
	tx := h.DB.Where("agent_id = ? AND lottery_id = ?", agentID, req.LotteryID).First(&item)
	if tx.Error == nil {
		item.Quantity += req.Quantity
		if err := h.DB.Save(&item).Error; err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
		}
	} else if errors.Is(tx.Error, gorm.ErrRecordNotFound) {
		item = models.CartItem{AgentID: agentID, LotteryID: req.LotteryID, Quantity: req.Quantity}
		if err := h.DB.Create(&item).Error; err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
		}
	} else {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	publish(c, h.Producer, "order_events", fmt.Sprint(agentID), map[string]interface{}{
		"type":       "cart_item_added",
		"agent_id":   agentID,
		"lottery_id": req.LotteryID,
		"quantity":   item.Quantity,
	})
	return c.JSON(http.StatusOK, item)
}

// DeleteFromCart decrements the line by one, removing it at zero.
func (h *CartHandler) DeleteFromCart(c echo.Context) error {
	agentID, err := token.UserID(c)
	if err != nil {
		return err
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var item models.CartItem
	if err := h.DB.Where("id = ? AND agent_id = ?", id, agentID).First(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "item not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	if item.Quantity > 1 {
		item.Quantity -= 1
		if err := h.DB.Save(&item).Error; err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
		}
		return c.JSON(http.StatusOK, item)
	}

	if err := h.DB.Delete(&item).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	return c.JSON(http.StatusOK, echo.Map{"deleted_item": id})
}

func (h *CartHandler) ClearCartLine(c echo.Context) error {
	agentID, err := token.UserID(c)
	if err != nil {
		return err
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	if err := h.DB.Where("id = ? AND agent_id = ?", id, agentID).
		Delete(&models.CartItem{}).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	var remaining []models.CartItem
	if err := h.DB.Where("agent_id = ?", agentID).Find(&remaining).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	return c.JSON(http.StatusOK, remaining)
}

// Checkout turns the agent's cart into a Pending order with price and
// commission snapshots.
func (h *CartHandler) Checkout(c echo.Context) error {
	agentID, err := token.UserID(c)
	if err != nil {
		return err
	}

	ord, err := h.Orders.Checkout(c.Request().Context(), agentID)
	if err != nil {
		if errors.Is(err, order.ErrValidation) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	publish(c, h.Producer, "order_events", fmt.Sprint(ord.ID), map[string]interface{}{
		"type":         "order_created",
		"order_id":     ord.ID,
		"agent_id":     agentID,
		"total_amount": ord.TotalAmount,
		"items":        len(ord.Items),
	})

	return c.JSON(http.StatusCreated, ord)
}
