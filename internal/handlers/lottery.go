package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/mperera/lottery-dms/internal/logging"
	"github.com/mperera/lottery-dms/internal/models"
	"github.com/mperera/lottery-dms/internal/service/search"
	"github.com/mperera/lottery-dms/internal/util"
)

type LotteryHandler struct {
	DB       *gorm.DB
	ES       *elasticsearch.Client
	Index    string
	Producer EventPublisher
}

type lotteryView struct {
	models.Lottery
	Available bool `json:"available"`
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	return def
}

func (h *LotteryHandler) indexES(c echo.Context, lot *models.Lottery) {
	if h.ES == nil {
		return
	}
	if err := search.IndexLottery(c.Request().Context(), h.ES, h.Index, lot); err != nil {
		logging.FromContext(c.Request().Context()).Error("es index failed", "lottery_id", lot.ID, "error", err)
	}
}

func (h *LotteryHandler) GetLottery(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var lot models.Lottery
	if err := h.DB.First(&lot, id).Error; err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "lottery not found")
	}

	var stock models.Stock
	available := true
	if err := h.DB.Where("lottery_id = ?", lot.ID).First(&stock).Error; err == nil {
		available = stock.Available
	}

	return c.JSON(http.StatusOK, lotteryView{Lottery: lot, Available: available})
}

func (h *LotteryHandler) GetLotteries(c echo.Context) error {
	page := parseIntDefault(c.QueryParam("page"), 1)
	size := parseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, size)

	var total int64
	if err := h.DB.Model(&models.Lottery{}).Count(&total).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	var lots []models.Lottery
	if err := h.DB.Order("id ASC").Offset(offset).Limit(limit).Find(&lots).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	views := make([]lotteryView, len(lots))
	for i, lot := range lots {
		var stock models.Stock
		available := true
		if err := h.DB.Where("lottery_id = ?", lot.ID).First(&stock).Error; err == nil {
			available = stock.Available
		}
		views[i] = lotteryView{Lottery: lot, Available: available}
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"data": views,
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

type lotteryRequest struct {
	Name           string `json:"name"`
	Type           string `json:"type"`
	UnitPrice      int64  `json:"unit_price"`
	UnitCommission int64  `json:"unit_commission"`
	DrawDate       string `json:"draw_date"`
	ImageURL       string `json:"image_url"`
}

func (r *lotteryRequest) validate() error {
	if r.Name == "" {
		return fmt.Errorf("name required")
	}
	if r.Type != models.LotteryTypeA && r.Type != models.LotteryTypeB {
		return fmt.Errorf("type must be %s or %s", models.LotteryTypeA, models.LotteryTypeB)
	}
	if r.UnitPrice < 0 || r.UnitCommission < 0 {
		return fmt.Errorf("price and commission must be >= 0")
	}
	return nil
}

func (h *LotteryHandler) CreateLottery(c echo.Context) error {
	var req lotteryRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if err := req.validate(); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	drawDate, _ := time.Parse("2006-01-02", req.DrawDate)
	lot := models.Lottery{
		Name:           req.Name,
		Type:           req.Type,
		UnitPrice:      req.UnitPrice,
		UnitCommission: req.UnitCommission,
		DrawDate:       drawDate,
		ImageURL:       req.ImageURL,
	}

	err := h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&lot).Error; err != nil {
			return err
		}
		return tx.Create(&models.Stock{LotteryID: lot.ID, Available: true}).Error
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	h.indexES(c, &lot)
	publish(c, h.Producer, "lottery_events", fmt.Sprint(lot.ID), map[string]interface{}{
		"type":       "lottery_created",
		"lottery_id": lot.ID,
		"name":       lot.Name,
	})

	return c.JSON(http.StatusCreated, lot)
}

func (h *LotteryHandler) PatchLottery(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var req lotteryRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if err := req.validate(); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	var lot models.Lottery
	if err := h.DB.First(&lot, id).Error; err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "lottery not found")
	}

	lot.Name = req.Name
	lot.Type = req.Type
	lot.UnitPrice = req.UnitPrice
	lot.UnitCommission = req.UnitCommission
	if req.DrawDate != "" {
		if d, err := time.Parse("2006-01-02", req.DrawDate); err == nil {
			lot.DrawDate = d
		}
	}
	lot.ImageURL = req.ImageURL

	if err := h.DB.Save(&lot).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	h.indexES(c, &lot)
	publish(c, h.Producer, "lottery_events", fmt.Sprint(lot.ID), map[string]interface{}{
		"type":       "lottery_updated",
		"lottery_id": lot.ID,
		"name":       lot.Name,
	})

	return c.JSON(http.StatusOK, lot)
}

func (h *LotteryHandler) DeleteLottery(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	err = h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("lottery_id = ?", id).Delete(&models.Stock{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Lottery{}, id).Error
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	if h.ES != nil {
		if err := search.DeleteLottery(c.Request().Context(), h.ES, h.Index, uint(id)); err != nil {
			logging.FromContext(c.Request().Context()).Error("es delete failed", "lottery_id", id, "error", err)
		}
	}
	publish(c, h.Producer, "lottery_events", fmt.Sprint(id), map[string]interface{}{
		"type":       "lottery_deleted",
		"lottery_id": id,
	})

	return c.NoContent(http.StatusNoContent)
}

// SetStock flips a lottery's availability. Staff only.
func (h *LotteryHandler) SetStock(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("lotteryID"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var req struct {
		Available bool `json:"available"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	var lot models.Lottery
	if err := h.DB.First(&lot, id).Error; err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "lottery not found")
	}

	var stock models.Stock
	if err := h.DB.Where("lottery_id = ?", lot.ID).First(&stock).Error; err != nil {
		stock = models.Stock{LotteryID: lot.ID, Available: req.Available}
		if err := h.DB.Create(&stock).Error; err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
		}
	} else {
		stock.Available = req.Available
		if err := h.DB.Save(&stock).Error; err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
		}
	}

	publish(c, h.Producer, "lottery_events", fmt.Sprint(lot.ID), map[string]interface{}{
		"type":       "stock_changed",
		"lottery_id": lot.ID,
		"available":  stock.Available,
	})

	return c.JSON(http.StatusOK, stock)
}
