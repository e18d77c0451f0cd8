package token

import (
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/mperera/lottery-dms/internal/models"
)

// RequireRole validates the session cookies, rotates the refresh token when
// the access token has expired, and rejects callers whose role claim is not
// in the allowed set.
func (t *TokenService) RequireRole(roles ...string) echo.MiddlewareFunc {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			newAccess, newRefresh, role, err := t.CheckCookie(c)
			if err != nil {
				return err
			}
			if !allowed[role] {
				return echo.NewHTTPError(http.StatusForbidden, "not enough rights")
			}

			if newRefresh != "" {
				c.SetCookie(CreateCookie("accessToken", newAccess, "/", time.Now().Add(AccessTTL)))
				c.SetCookie(CreateCookie("refreshToken", newRefresh, "/", time.Now().Add(RefreshTTL)))

				token, _ := jwt.Parse(newAccess, func(j *jwt.Token) (interface{}, error) { return t.JWTSecret, nil })
				setUserContext(c, token.Claims.(jwt.MapClaims))
			}
			return next(c)
		}
	}
}

func (t *TokenService) RequireAgent() echo.MiddlewareFunc {
	return t.RequireRole(models.RoleAgent)
}

// Staff covers everyone who processes orders: office staff, district agents
// and admins.
func (t *TokenService) RequireStaff() echo.MiddlewareFunc {
	return t.RequireRole(models.RoleOfficeStaff, models.RoleDistrictAgent, models.RoleAdmin)
}

func (t *TokenService) RequireAdmin() echo.MiddlewareFunc {
	return t.RequireRole(models.RoleAdmin)
}
