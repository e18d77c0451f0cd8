package handlers

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mperera/lottery-dms/internal/models"
)

func TestRegister_DefaultsToAgentRole(t *testing.T) {
	env := newTestEnv(t)

	rec, c := env.doJSONRequest(http.MethodPost, "/api/v1/register", map[string]string{
		"username": "nimal", "password": "secret",
	})
	require.NoError(t, env.Auth.Register(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	var user models.User
	require.NoError(t, env.DB.Where("username = ?", "nimal").First(&user).Error)
	assert.Equal(t, models.RoleAgent, user.Role)
	assert.NotEqual(t, "secret", user.PasswordHash)
}

func TestRegister_DuplicateUsername(t *testing.T) {
	env := newTestEnv(t)

	_, c := env.doJSONRequest(http.MethodPost, "/api/v1/register", map[string]string{
		"username": "nimal", "password": "secret",
	})
	require.NoError(t, env.Auth.Register(c))

	_, c = env.doJSONRequest(http.MethodPost, "/api/v1/register", map[string]string{
		"username": "nimal", "password": "other",
	})
	err := env.Auth.Register(c)
	require.Error(t, err)
}

func TestLogin_SetsCookiesAndRole(t *testing.T) {
	env := newTestEnv(t)

	_, c := env.doJSONRequest(http.MethodPost, "/api/v1/register", map[string]string{
		"username": "nimal", "password": "secret",
	})
	require.NoError(t, env.Auth.Register(c))

	rec, c := env.doJSONRequest(http.MethodPost, "/api/v1/login", map[string]string{
		"username": "nimal", "password": "secret",
	})
	require.NoError(t, env.Auth.Login(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
		Role         string `json:"role"`
	}
	decodeJSON(t, rec, &resp)
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.Equal(t, models.RoleAgent, resp.Role)

	cookies := rec.Result().Cookies()
	names := map[string]bool{}
	for _, ck := range cookies {
		names[ck.Name] = true
	}
	assert.True(t, names["accessToken"])
	assert.True(t, names["refreshToken"])

	var stored models.RefreshToken
	require.NoError(t, env.DB.Where("token = ?", resp.RefreshToken).First(&stored).Error)
	assert.False(t, stored.Revoked)
}

func TestLogin_WrongPassword(t *testing.T) {
	env := newTestEnv(t)

	_, c := env.doJSONRequest(http.MethodPost, "/api/v1/register", map[string]string{
		"username": "nimal", "password": "secret",
	})
	require.NoError(t, env.Auth.Register(c))

	_, c = env.doJSONRequest(http.MethodPost, "/api/v1/login", map[string]string{
		"username": "nimal", "password": "wrong",
	})
	err := env.Auth.Login(c)
	require.Error(t, err)
}

func TestCreateUser_RejectsUnknownRole(t *testing.T) {
	env := newTestEnv(t)

	_, c := env.doJSONRequest(http.MethodPost, "/api/v1/admin/users", map[string]string{
		"username": "staffer", "password": "secret", "role": "superuser",
	})
	asUser(c, 1, models.RoleAdmin)
	err := env.Auth.CreateUser(c)
	require.Error(t, err)
}

func TestCreateUser_CreatesStaff(t *testing.T) {
	env := newTestEnv(t)

	rec, c := env.doJSONRequest(http.MethodPost, "/api/v1/admin/users", map[string]string{
		"username": "staffer", "password": "secret", "role": models.RoleOfficeStaff,
	})
	asUser(c, 1, models.RoleAdmin)
	require.NoError(t, env.Auth.CreateUser(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	var user models.User
	require.NoError(t, env.DB.Where("username = ?", "staffer").First(&user).Error)
	assert.Equal(t, models.RoleOfficeStaff, user.Role)
}
