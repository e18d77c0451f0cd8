package token

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/mperera/lottery-dms/internal/config"
	"github.com/mperera/lottery-dms/internal/models"
)

func newTestService(t *testing.T) *TokenService {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, config.Migrate(db))

	return &TokenService{
		DB:            db,
		JWTSecret:     []byte("test-jwt-secret"),
		RefreshSecret: []byte("test-refresh-secret"),
	}
}

func doRequest(svc *TokenService, mw echo.MiddlewareFunc, cookies ...*http.Cookie) (*httptest.ResponseRecorder, echo.Context, error) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := mw(func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	err := handler(c)
	return rec, c, err
}

func TestRequireRole_AllowsMatchingRole(t *testing.T) {
	svc := newTestService(t)

	access, err := SignAccessToken(42, models.RoleOfficeStaff, svc.JWTSecret)
	require.NoError(t, err)
	ck := &http.Cookie{Name: "accessToken", Value: access}

	rec, c, err := doRequest(svc, svc.RequireStaff(), ck)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)

	id, err := UserID(c)
	require.NoError(t, err)
	assert.Equal(t, uint(42), id)
	assert.Equal(t, models.RoleOfficeStaff, Role(c))
}

func TestRequireRole_RejectsWrongRole(t *testing.T) {
	svc := newTestService(t)

	access, err := SignAccessToken(42, models.RoleAgent, svc.JWTSecret)
	require.NoError(t, err)
	ck := &http.Cookie{Name: "accessToken", Value: access}

	_, _, err = doRequest(svc, svc.RequireAdmin(), ck)
	require.Error(t, err)
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	assert.Equal(t, http.StatusForbidden, he.Code)
}

func TestRequireRole_MissingCookies(t *testing.T) {
	svc := newTestService(t)

	_, _, err := doRequest(svc, svc.RequireAgent())
	require.Error(t, err)
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	assert.Equal(t, http.StatusUnauthorized, he.Code)
}

func TestRequireRole_RotatesExpiredAccess(t *testing.T) {
	svc := newTestService(t)

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  float64(42),
		"role": models.RoleAgent,
		"exp":  time.Now().Add(-time.Minute).Unix(),
	})
	expiredAccess, err := expired.SignedString(svc.JWTSecret)
	require.NoError(t, err)

	refresh, err := SignRefreshToken(42, models.RoleAgent, svc.RefreshSecret)
	require.NoError(t, err)
	require.NoError(t, SaveRefreshToken(svc.DB, refresh, 42, models.RoleAgent))

	rec, c, err := doRequest(svc, svc.RequireAgent(),
		&http.Cookie{Name: "accessToken", Value: expiredAccess},
		&http.Cookie{Name: "refreshToken", Value: refresh},
	)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)

	id, err := UserID(c)
	require.NoError(t, err)
	assert.Equal(t, uint(42), id)

	names := map[string]bool{}
	for _, ck := range rec.Result().Cookies() {
		names[ck.Name] = true
	}
	assert.True(t, names["accessToken"], "rotated access cookie set")
	assert.True(t, names["refreshToken"], "rotated refresh cookie set")
}

func TestValidateRefresh_RevokedToken(t *testing.T) {
	svc := newTestService(t)

	refresh, err := SignRefreshToken(42, models.RoleAgent, svc.RefreshSecret)
	require.NoError(t, err)
	require.NoError(t, SaveRefreshToken(svc.DB, refresh, 42, models.RoleAgent))
	require.NoError(t, svc.DB.Model(&models.RefreshToken{}).Where("token = ?", refresh).Update("revoked", true).Error)

	_, err = ValidateRefresh(refresh, svc.RefreshSecret, svc.DB)
	require.Error(t, err)
}
