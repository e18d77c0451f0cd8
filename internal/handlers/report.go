package handlers

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/mperera/lottery-dms/internal/models"
	"github.com/mperera/lottery-dms/internal/order"
)

type ReportHandler struct {
	DB *gorm.DB
}

type reportLine struct {
	LotteryID  uint   `json:"lottery_id"`
	Name       string `json:"name"`
	Quantity   int    `json:"quantity"`
	Amount     int64  `json:"amount"`
	Commission int64  `json:"commission"`
}

type salesReport struct {
	From            string         `json:"from,omitempty"`
	To              string         `json:"to,omitempty"`
	Orders          int            `json:"orders"`
	Lines           []reportLine   `json:"lines"`
	TotalQuantity   int            `json:"total_quantity"`
	TotalAmount     int64          `json:"total_amount"`
	TotalCommission int64          `json:"total_commission"`
	AmountDisplay   string         `json:"amount_display"`
	OrderList       []models.Order `json:"order_list"`
}

// Sales materializes the completed-bucket orders in a date range with
// per-lottery and grand totals. The reporting collaborator renders this
// projection; amounts stay in minor units with a display string alongside.
func (h *ReportHandler) Sales(c echo.Context) error {
	q := h.DB.Model(&models.Order{})

	var fromStr, toStr string
	if from := c.QueryParam("from"); from != "" {
		t, err := time.Parse("2006-01-02", from)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid from date")
		}
		q = q.Where("created_at >= ?", t.Unix())
		fromStr = from
	}
	if to := c.QueryParam("to"); to != "" {
		t, err := time.Parse("2006-01-02", to)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid to date")
		}
		q = q.Where("created_at < ?", t.Add(24*time.Hour).Unix())
		toStr = to
	}

	var orders []models.Order
	if err := q.
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("order_items.id ASC") }).
		Preload("Delivery").
		Order("created_at DESC").
		Find(&orders).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	completed := make([]models.Order, 0, len(orders))
	for i := range orders {
		if order.ClassifyOrder(&orders[i]) == order.BucketCompleted {
			completed = append(completed, orders[i])
		}
	}

	byLottery := map[uint]*reportLine{}
	report := salesReport{From: fromStr, To: toStr, Orders: len(completed), OrderList: completed}
	for _, ord := range completed {
		for _, it := range ord.Items {
			line, ok := byLottery[it.LotteryID]
			if !ok {
				line = &reportLine{LotteryID: it.LotteryID}
				var lot models.Lottery
				if err := h.DB.First(&lot, it.LotteryID).Error; err == nil {
					line.Name = lot.Name
				}
				byLottery[it.LotteryID] = line
			}
			line.Quantity += it.Quantity
			line.Amount += int64(it.Quantity) * it.UnitPrice
			line.Commission += int64(it.Quantity) * it.UnitCommission
		}
		report.TotalAmount += ord.TotalAmount
		report.TotalCommission += ord.TotalCommission
	}

	lines := make([]reportLine, 0, len(byLottery))
	for _, line := range byLottery {
		report.TotalQuantity += line.Quantity
		lines = append(lines, *line)
	}
	report.Lines = lines
	report.AmountDisplay = order.FormatAmount(report.TotalAmount)

	return c.JSON(http.StatusOK, report)
}
