package handlers

import (
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mperera/lottery-dms/internal/models"
	"github.com/mperera/lottery-dms/internal/order"
)

func TestAddToCart_MergesQuantity(t *testing.T) {
	env := newTestEnv(t)
	lot := env.seedLottery("Mega Fortune", 10000, 500, true)

	rec, c := env.doJSONRequest(http.MethodPost, "/api/v1/cart", map[string]interface{}{
		"lottery_id": lot.ID, "quantity": 2,
	})
	asUser(c, 7, models.RoleAgent)
	require.NoError(t, env.Cart.AddToCart(c))
	require.Equal(t, http.StatusOK, rec.Code)

	rec, c = env.doJSONRequest(http.MethodPost, "/api/v1/cart", map[string]interface{}{
		"lottery_id": lot.ID, "quantity": 3,
	})
	asUser(c, 7, models.RoleAgent)
	require.NoError(t, env.Cart.AddToCart(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var items []models.CartItem
	require.NoError(t, env.DB.Where("agent_id = ?", 7).Find(&items).Error)
	require.Len(t, items, 1)
	assert.Equal(t, 5, items[0].Quantity)
}

func TestAddToCart_UnavailableLottery(t *testing.T) {
	env := newTestEnv(t)
	lot := env.seedLottery("Sold Out", 10000, 500, false)

	_, c := env.doJSONRequest(http.MethodPost, "/api/v1/cart", map[string]interface{}{
		"lottery_id": lot.ID, "quantity": 1,
	})
	asUser(c, 7, models.RoleAgent)

	err := env.Cart.AddToCart(c)
	require.Error(t, err)
}

func TestCheckout_CreatesPendingOrder(t *testing.T) {
	env := newTestEnv(t)
	lot := env.seedLottery("Mega Fortune", 10000, 500, true)
	require.NoError(t, env.DB.Create(&models.CartItem{AgentID: 7, LotteryID: lot.ID, Quantity: 2}).Error)

	rec, c := env.doJSONRequest(http.MethodPost, "/api/v1/cart/checkout", nil)
	asUser(c, 7, models.RoleAgent)
	require.NoError(t, env.Cart.Checkout(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp models.Order
	decodeJSON(t, rec, &resp)
	assert.Equal(t, order.StatusPending, resp.Status)
	assert.Equal(t, int64(20000), resp.TotalAmount)
	assert.Equal(t, int64(1000), resp.TotalCommission)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, int64(10000), resp.Items[0].UnitPrice)

	var cart []models.CartItem
	require.NoError(t, env.DB.Where("agent_id = ?", 7).Find(&cart).Error)
	assert.Empty(t, cart)

	ev := env.Pub.last()
	require.NotNil(t, ev)
	assert.Equal(t, "order_events", ev.Topic)
	assert.Equal(t, "order_created", ev.Event["type"])
}

func TestCheckout_EmptyCart(t *testing.T) {
	env := newTestEnv(t)

	_, c := env.doJSONRequest(http.MethodPost, "/api/v1/cart/checkout", nil)
	asUser(c, 7, models.RoleAgent)

	err := env.Cart.Checkout(c)
	require.Error(t, err)
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, he.Code)
}
