package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/mperera/lottery-dms/internal/models"
)

var (
	ErrValidation = errors.New("validation") // 400
	ErrNotFound   = errors.New("not found")  // 404
)

// Service owns order lifecycle writes. Every mutating method runs inside a
// single transaction so readers never observe quantities and totals that
// disagree with each other.
type Service struct {
	DB *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{DB: db}
}

// Checkout turns an agent's cart into a Pending order. Unit price and
// commission are copied from the lottery onto each line item at this point
// and used for all later recomputation.
func (s *Service) Checkout(ctx context.Context, agentID uint) (*models.Order, error) {
	var order models.Order

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var cart []models.CartItem
		if err := tx.Where("agent_id = ?", agentID).Order("id ASC").Find(&cart).Error; err != nil {
			return err
		}
		if len(cart) == 0 {
			return fmt.Errorf("%w: cart is empty", ErrValidation)
		}

		items := make([]models.OrderItem, 0, len(cart))
		for _, ci := range cart {
			var lot models.Lottery
			if err := tx.First(&lot, ci.LotteryID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return fmt.Errorf("%w: lottery %d not found", ErrValidation, ci.LotteryID)
				}
				return err
			}

			var stock models.Stock
			if err := tx.Where("lottery_id = ?", lot.ID).First(&stock).Error; err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			if stock.ID != 0 && !stock.Available {
				return fmt.Errorf("%w: lottery %q is unavailable", ErrValidation, lot.Name)
			}

			qty := ci.Quantity
			if qty < 0 {
				qty = 0
			}
			items = append(items, models.OrderItem{
				LotteryID:      lot.ID,
				Quantity:       qty,
				UnitPrice:      lot.UnitPrice,
				UnitCommission: lot.UnitCommission,
			})
		}

		totals := ComputeTotals(LinesFromItems(items))
		now := time.Now().Unix()
		order = models.Order{
			AgentID:         agentID,
			Status:          StatusPending,
			TotalAmount:     totals.Amount,
			TotalCommission: totals.Commission,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		if err := tx.Create(&order).Error; err != nil {
			return err
		}

		for i := range items {
			items[i].OrderID = order.ID
			if err := tx.Create(&items[i]).Error; err != nil {
				return err
			}
		}
		order.Items = items

		return tx.Where("agent_id = ?", agentID).Delete(&models.CartItem{}).Error
	})
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// UpdateQuantities applies a positional quantity revision against the order's
// line items (ordered by item ID). Negative quantities are clamped to zero,
// never rejected. Line quantities and order totals are written in one
// transaction; any failure leaves the stored order untouched. Status is not
// changed here regardless of the order's lifecycle state.
func (s *Service) UpdateQuantities(ctx context.Context, orderID uint, quantities []int) (*models.Order, error) {
	var updated models.Order

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var ord models.Order
		if err := tx.First(&ord, orderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: order %d", ErrNotFound, orderID)
			}
			return err
		}

		var items []models.OrderItem
		if err := tx.Where("order_id = ?", orderID).Order("id ASC").Find(&items).Error; err != nil {
			return err
		}
		if len(quantities) != len(items) {
			return fmt.Errorf("%w: order has %d items, got %d quantities", ErrValidation, len(items), len(quantities))
		}

		for i := range items {
			q := quantities[i]
			if q < 0 {
				q = 0
			}
			items[i].Quantity = q
		}
		totals := ComputeTotals(LinesFromItems(items))

		for i := range items {
			if err := tx.Model(&models.OrderItem{}).
				Where("id = ?", items[i].ID).
				Update("quantity", items[i].Quantity).Error; err != nil {
				return err
			}
		}

		now := time.Now().Unix()
		if err := tx.Model(&models.Order{}).Where("id = ?", ord.ID).Updates(map[string]interface{}{
			"total_amount":     totals.Amount,
			"total_commission": totals.Commission,
			"updated_at":       now,
		}).Error; err != nil {
			return err
		}

		ord.Items = items
		ord.TotalAmount = totals.Amount
		ord.TotalCommission = totals.Commission
		ord.UpdatedAt = now
		updated = ord
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// AdvanceStatus moves an order forward in its lifecycle. The first staff
// member to act on an order is recorded as its processor.
func (s *Service) AdvanceStatus(ctx context.Context, orderID uint, next string, staffID uint) (*models.Order, error) {
	var updated models.Order

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var ord models.Order
		if err := tx.First(&ord, orderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: order %d", ErrNotFound, orderID)
			}
			return err
		}

		if !ValidStatus(next) {
			return fmt.Errorf("%w: unknown status %q", ErrValidation, next)
		}
		if !CanTransition(ord.Status, next) {
			return fmt.Errorf("%w: cannot move from %s to %s", ErrValidation, ord.Status, next)
		}

		updates := map[string]interface{}{
			"status":     next,
			"updated_at": time.Now().Unix(),
		}
		if ord.StaffID == nil {
			updates["staff_id"] = staffID
			ord.StaffID = &staffID
		}
		if err := tx.Model(&models.Order{}).Where("id = ?", ord.ID).Updates(updates).Error; err != nil {
			return err
		}

		ord.Status = next
		updated = ord
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// AssignDelivery creates or replaces the order's delivery record. An empty
// transport type keeps the order in self-pickup mode.
func (s *Service) AssignDelivery(ctx context.Context, orderID uint, d models.Delivery) (*models.Delivery, error) {
	var saved models.Delivery

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var ord models.Order
		if err := tx.First(&ord, orderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: order %d", ErrNotFound, orderID)
			}
			return err
		}

		var existing models.Delivery
		err := tx.Where("order_id = ?", orderID).First(&existing).Error
		switch {
		case err == nil:
			existing.TransportType = d.TransportType
			existing.Vehicle = d.Vehicle
			existing.DispatchAt = d.DispatchAt
			existing.ArriveAt = d.ArriveAt
			existing.StaffID = d.StaffID
			if err := tx.Save(&existing).Error; err != nil {
				return err
			}
			saved = existing
		case errors.Is(err, gorm.ErrRecordNotFound):
			d.OrderID = orderID
			if err := tx.Create(&d).Error; err != nil {
				return err
			}
			saved = d
		default:
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &saved, nil
}

// Get loads an order with its items (in item-ID order) and delivery record.
func (s *Service) Get(ctx context.Context, orderID uint) (*models.Order, error) {
	var ord models.Order
	err := s.DB.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("order_items.id ASC") }).
		Preload("Delivery").
		First(&ord, orderID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: order %d", ErrNotFound, orderID)
		}
		return nil, err
	}
	return &ord, nil
}

// ListForAgent returns the agent's orders in one classification bucket,
// newest first.
func (s *Service) ListForAgent(ctx context.Context, agentID uint, bucket Bucket) ([]models.Order, error) {
	var orders []models.Order
	err := s.DB.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("order_items.id ASC") }).
		Preload("Delivery").
		Where("agent_id = ?", agentID).
		Order("created_at DESC").
		Find(&orders).Error
	if err != nil {
		return nil, err
	}

	out := make([]models.Order, 0, len(orders))
	for i := range orders {
		if ClassifyOrder(&orders[i]) == bucket {
			out = append(out, orders[i])
		}
	}
	return out, nil
}

// Delete removes an order with its items and delivery in one transaction.
// Administrative use only.
func (s *Service) Delete(ctx context.Context, orderID uint) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var ord models.Order
		if err := tx.First(&ord, orderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: order %d", ErrNotFound, orderID)
			}
			return err
		}
		if err := tx.Where("order_id = ?", orderID).Delete(&models.OrderItem{}).Error; err != nil {
			return err
		}
		if err := tx.Where("order_id = ?", orderID).Delete(&models.Delivery{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Order{}, orderID).Error
	})
}
