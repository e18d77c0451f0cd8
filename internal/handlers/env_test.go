package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/mperera/lottery-dms/internal/config"
	"github.com/mperera/lottery-dms/internal/models"
	"github.com/mperera/lottery-dms/internal/order"
)

type publishedEvent struct {
	Topic string
	Key   string
	Event map[string]interface{}
}

type stubPublisher struct {
	events []publishedEvent
}

func (s *stubPublisher) PublishEvent(ctx context.Context, topic, key string, event interface{}) error {
	m, _ := event.(map[string]interface{})
	s.events = append(s.events, publishedEvent{Topic: topic, Key: key, Event: m})
	return nil
}

func (s *stubPublisher) last() *publishedEvent {
	if len(s.events) == 0 {
		return nil
	}
	return &s.events[len(s.events)-1]
}

type testEnv struct {
	T       *testing.T
	E       *echo.Echo
	DB      *gorm.DB
	Pub     *stubPublisher
	Auth    *AuthHandler
	Cart    *CartHandler
	Orders  *OrderHandler
	Lottery *LotteryHandler
	Report  *ReportHandler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, config.Migrate(db))

	pub := &stubPublisher{}
	svc := order.NewService(db)

	return &testEnv{
		T:       t,
		E:       echo.New(),
		DB:      db,
		Pub:     pub,
		Auth:    &AuthHandler{DB: db, JWTSecret: []byte("test-jwt"), RefreshSecret: []byte("test-refresh"), Producer: pub},
		Cart:    &CartHandler{DB: db, Orders: svc, Producer: pub},
		Orders:  &OrderHandler{DB: db, Svc: svc, Producer: pub},
		Lottery: &LotteryHandler{DB: db, Producer: pub},
		Report:  &ReportHandler{DB: db},
	}
}

func (env *testEnv) doJSONRequest(method, target string, body interface{}) (*httptest.ResponseRecorder, echo.Context) {
	env.T.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(env.T, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := env.E.NewContext(req, rec)
	return rec, c
}

// asUser emulates what the auth middleware leaves in the request context.
func asUser(c echo.Context, id uint, role string) {
	c.Set("userID", id)
	c.Set("role", role)
}

func (env *testEnv) seedLottery(name string, price, commission int64, available bool) *models.Lottery {
	env.T.Helper()

	lot := &models.Lottery{Name: name, Type: models.LotteryTypeA, UnitPrice: price, UnitCommission: commission}
	require.NoError(env.T, env.DB.Create(lot).Error)
	require.NoError(env.T, env.DB.Create(&models.Stock{LotteryID: lot.ID, Available: available}).Error)
	return lot
}

func (env *testEnv) seedOrder(agentID uint, status string, items []models.OrderItem) *models.Order {
	env.T.Helper()

	totals := order.ComputeTotals(order.LinesFromItems(items))
	ord := &models.Order{
		AgentID:         agentID,
		Status:          status,
		TotalAmount:     totals.Amount,
		TotalCommission: totals.Commission,
		CreatedAt:       1700000000,
		UpdatedAt:       1700000000,
	}
	require.NoError(env.T, env.DB.Create(ord).Error)
	for i := range items {
		items[i].OrderID = ord.ID
		require.NoError(env.T, env.DB.Create(&items[i]).Error)
	}
	ord.Items = items
	return ord
}

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out))
}
