package mockapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ezoidc/apiprobe/pkg/models"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func init() {
	log.Logger = zerolog.Nop()
	gin.SetMode(gin.TestMode)
}

type mock struct {
	*API
	resets map[string]string
}

func newMock(t *testing.T) *mock {
	m := &mock{resets: map[string]string{}}
	api, err := NewAPI(Options{
		Secret:       []byte("0123456789abcdef0123456789abcdef"),
		PasswordCost: bcrypt.MinCost,
		ResetNotifier: func(email, token string) {
			m.resets[email] = token
		},
	})
	require.NoError(t, err)
	m.API = api
	return m
}

func (m *mock) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	m.Gin.ServeHTTP(w, req)
	return w
}

func (m *mock) login(t *testing.T, email, password string) models.AuthResponse {
	w := m.do(t, "POST", "/v1/auth/login", "", models.LoginRequest{Email: email, Password: password})
	require.Equal(t, 200, w.Code, w.Body.String())
	var resp models.AuthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestMaxBodySize(t *testing.T) {
	m := newMock(t)
	m.Gin.POST("/upload", func(ctx *gin.Context) {
		var body string
		err := ctx.ShouldBindJSON(&body)
		if err != nil {
			assert.Equal(t, "http: request body too large", err.Error())
			ctx.AbortWithStatus(http.StatusBadRequest)
			return
		}
		ctx.JSON(200, len(body))
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/upload", bytes.NewBuffer([]byte(`"smol"`)))
	m.Gin.ServeHTTP(w, req)
	assert.Equal(t, 200, w.Code)

	largeBody := append([]byte(`"`), bytes.Repeat([]byte("a"), int(MaxBodySize+10))...)
	w = httptest.NewRecorder()
	req = httptest.NewRequest("POST", "/upload", bytes.NewBuffer(largeBody))
	m.Gin.ServeHTTP(w, req)
	assert.Equal(t, 400, w.Code)
}

func TestMetadata(t *testing.T) {
	m := newMock(t)
	w := m.do(t, "GET", "/", "", nil)
	assert.Equal(t, 200, w.Code)
	assert.True(t, decode[MetadataResponse](t, w).Mock)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestRegister(t *testing.T) {
	m := newMock(t)

	w := m.do(t, "POST", "/v1/auth/register", "", models.RegisterRequest{
		Name: "User", Email: "user@example.com", Password: "password123",
	})
	require.Equal(t, 201, w.Code, w.Body.String())
	resp := decode[models.AuthResponse](t, w)
	assert.Equal(t, "user@example.com", resp.User.Email)
	assert.Equal(t, models.RoleUser, resp.User.Role)
	assert.True(t, resp.Tokens.Complete())
	assert.NotContains(t, w.Body.String(), "password")

	w = m.do(t, "POST", "/v1/auth/register", "", models.RegisterRequest{
		Name: "User", Email: "user@example.com", Password: "password123",
	})
	assert.Equal(t, 400, w.Code)
	assert.Equal(t, models.ErrorResponse{Code: 400, Message: "email already taken"}, decode[models.ErrorResponse](t, w))
}

func TestValidation(t *testing.T) {
	m := newMock(t)

	cases := []struct {
		path     string
		body     any
		expected map[string]any
	}{
		{
			path: "/v1/auth/register",
			body: map[string]string{"email": "nope", "password": "short"},
			expected: map[string]any{
				"name":     "name is required",
				"email":    "email must be a valid email",
				"password": "password must be at least 8 characters",
			},
		},
		{
			path:     "/v1/auth/login",
			body:     map[string]string{"email": "admin@example.com"},
			expected: map[string]any{"password": "password is required"},
		},
		{
			path:     "/v1/auth/forgot-password",
			body:     map[string]string{},
			expected: map[string]any{"email": "email is required"},
		},
	}

	for _, c := range cases {
		w := m.do(t, "POST", c.path, "", c.body)
		assert.Equal(t, 400, w.Code, c.path)
		resp := decode[models.ErrorResponse](t, w)
		assert.Equal(t, 400, resp.Code, c.path)
		assert.Equal(t, c.expected, resp.Message, c.path)
	}

	req := httptest.NewRequest("POST", "/v1/auth/login", bytes.NewBufferString("{"))
	w := httptest.NewRecorder()
	m.Gin.ServeHTTP(w, req)
	assert.Equal(t, 400, w.Code)
	assert.Equal(t, "Invalid request body", decode[models.ErrorResponse](t, w).Message)
}

func TestLogin(t *testing.T) {
	m := newMock(t)

	resp := m.login(t, "admin@example.com", "password123")
	assert.Equal(t, models.RoleAdmin, resp.User.Role)
	assert.True(t, resp.Tokens.Complete())

	w := m.do(t, "POST", "/v1/auth/login", "", models.LoginRequest{Email: "admin@example.com", Password: "wrong"})
	assert.Equal(t, 401, w.Code)
	assert.Equal(t, "incorrect email or password", decode[models.ErrorResponse](t, w).Message)
}

func TestRefreshTokens(t *testing.T) {
	m := newMock(t)
	resp := m.login(t, "admin@example.com", "password123")
	refresh := resp.Tokens.Refresh.Token

	w := m.do(t, "POST", "/v1/auth/refresh-tokens", "", models.RefreshRequest{RefreshToken: refresh})
	require.Equal(t, 200, w.Code, w.Body.String())
	rotated := decode[models.AuthTokens](t, w)
	assert.True(t, rotated.Complete())
	assert.NotEqual(t, refresh, rotated.Refresh.Token)

	// refresh tokens are single use
	w = m.do(t, "POST", "/v1/auth/refresh-tokens", "", models.RefreshRequest{RefreshToken: refresh})
	assert.Equal(t, 401, w.Code)

	// access tokens are not refresh tokens
	w = m.do(t, "POST", "/v1/auth/refresh-tokens", "", models.RefreshRequest{RefreshToken: rotated.Access.Token})
	assert.Equal(t, 401, w.Code)

	w = m.do(t, "POST", "/v1/auth/refresh-tokens", "", map[string]string{})
	assert.Equal(t, 400, w.Code)
	assert.Equal(t, "refreshToken is required", decode[models.ErrorResponse](t, w).Message)
}

func TestLogout(t *testing.T) {
	m := newMock(t)
	resp := m.login(t, "admin@example.com", "password123")

	w := m.do(t, "POST", "/v1/auth/logout", "", models.RefreshRequest{RefreshToken: resp.Tokens.Refresh.Token})
	assert.Equal(t, 204, w.Code)
	assert.Empty(t, w.Body.String())

	w = m.do(t, "POST", "/v1/auth/refresh-tokens", "", models.RefreshRequest{RefreshToken: resp.Tokens.Refresh.Token})
	assert.Equal(t, 401, w.Code)

	w = m.do(t, "POST", "/v1/auth/logout", "", models.RefreshRequest{})
	assert.Equal(t, 400, w.Code)
}

func TestForgotAndResetPassword(t *testing.T) {
	m := newMock(t)

	w := m.do(t, "POST", "/v1/auth/forgot-password", "", models.ForgotPasswordRequest{Email: "nobody@example.com"})
	assert.Equal(t, 204, w.Code)
	assert.Empty(t, m.resets)

	w = m.do(t, "POST", "/v1/auth/forgot-password", "", models.ForgotPasswordRequest{Email: "admin@example.com"})
	assert.Equal(t, 204, w.Code)
	token := m.resets["admin@example.com"]
	require.NotEmpty(t, token)

	w = m.do(t, "POST", "/v1/auth/reset-password?token=invalid", "", models.ResetPasswordRequest{Password: "newpassword123"})
	assert.Equal(t, 400, w.Code)
	assert.Equal(t, "password reset failed", decode[models.ErrorResponse](t, w).Message)

	w = m.do(t, "POST", "/v1/auth/reset-password", "", models.ResetPasswordRequest{Password: "newpassword123"})
	assert.Equal(t, 400, w.Code)
	assert.Equal(t, "Token and Password are required", decode[models.ErrorResponse](t, w).Message)

	w = m.do(t, "POST", "/v1/auth/reset-password?token="+token, "", models.ResetPasswordRequest{Password: "newpassword123"})
	assert.Equal(t, 204, w.Code, w.Body.String())

	m.login(t, "admin@example.com", "newpassword123")

	w = m.do(t, "POST", "/v1/auth/reset-password?token="+token, "", models.ResetPasswordRequest{Password: "another123"})
	assert.Equal(t, 400, w.Code)
}

func TestUsersAuthorization(t *testing.T) {
	m := newMock(t)

	w := m.do(t, "GET", "/v1/users", "", nil)
	assert.Equal(t, 401, w.Code)
	assert.Equal(t, models.ErrorResponse{Code: 401, Message: "Please authenticate"}, decode[models.ErrorResponse](t, w))

	w = m.do(t, "GET", "/v1/users", "not-a-jwt", nil)
	assert.Equal(t, 401, w.Code)

	w = m.do(t, "POST", "/v1/auth/register", "", models.RegisterRequest{
		Name: "User", Email: "user@example.com", Password: "password123",
	})
	require.Equal(t, 201, w.Code)
	user := decode[models.AuthResponse](t, w)
	admin := m.login(t, "admin@example.com", "password123")

	// regular users can only read themselves
	w = m.do(t, "GET", "/v1/users", user.Tokens.Access.Token, nil)
	assert.Equal(t, 403, w.Code)
	w = m.do(t, "GET", "/v1/users/"+user.User.ID, user.Tokens.Access.Token, nil)
	assert.Equal(t, 200, w.Code)
	w = m.do(t, "GET", "/v1/users/"+admin.User.ID, user.Tokens.Access.Token, nil)
	assert.Equal(t, 403, w.Code)
	w = m.do(t, "DELETE", "/v1/users/"+user.User.ID, user.Tokens.Access.Token, nil)
	assert.Equal(t, 403, w.Code)

	// refresh tokens are not access tokens
	w = m.do(t, "GET", "/v1/users/"+user.User.ID, user.Tokens.Refresh.Token, nil)
	assert.Equal(t, 401, w.Code)
}

func TestUsersCRUD(t *testing.T) {
	m := newMock(t)
	token := m.login(t, "admin@example.com", "password123").Tokens.Access.Token

	w := m.do(t, "POST", "/v1/users", token, models.CreateUserRequest{
		Name: "New User", Email: "new@example.com", Password: "password123", Role: "superuser",
	})
	assert.Equal(t, 400, w.Code)
	assert.Equal(t, map[string]any{"role": "role must be one of: user, admin"}, decode[models.ErrorResponse](t, w).Message)

	w = m.do(t, "POST", "/v1/users", token, models.CreateUserRequest{
		Name: "New User", Email: "new@example.com", Password: "password123", Role: "user",
	})
	require.Equal(t, 201, w.Code, w.Body.String())
	created := decode[models.User](t, w)
	assert.NotEmpty(t, created.ID)

	w = m.do(t, "GET", "/v1/users/"+created.ID, token, nil)
	assert.Equal(t, 200, w.Code)
	assert.Equal(t, created, decode[models.User](t, w))

	w = m.do(t, "PATCH", "/v1/users/"+created.ID, token, models.UpdateUserRequest{Name: "Renamed"})
	require.Equal(t, 200, w.Code)
	updated := decode[models.User](t, w)
	assert.Equal(t, "Renamed", updated.Name)
	assert.Equal(t, created.Email, updated.Email)

	w = m.do(t, "PATCH", "/v1/users/"+created.ID, token, models.UpdateUserRequest{Email: "admin@example.com"})
	assert.Equal(t, 400, w.Code)

	w = m.do(t, "DELETE", "/v1/users/"+created.ID, token, nil)
	assert.Equal(t, 204, w.Code)

	w = m.do(t, "GET", "/v1/users/"+created.ID, token, nil)
	assert.Equal(t, 404, w.Code)
	w = m.do(t, "DELETE", "/v1/users/"+created.ID, token, nil)
	assert.Equal(t, 404, w.Code)
	w = m.do(t, "GET", "/v1/users/not-a-uuid", token, nil)
	assert.Equal(t, 400, w.Code)
	assert.Equal(t, "Invalid User ID", decode[models.ErrorResponse](t, w).Message)
}

func TestListUsersEndpoint(t *testing.T) {
	m := newMock(t)
	token := m.login(t, "admin@example.com", "password123").Tokens.Access.Token
	for _, name := range []string{"Charlie", "alice", "Bob"} {
		_, err := m.Users.Create(name, name+"@example.com", "password123", "")
		require.NoError(t, err)
	}

	w := m.do(t, "GET", "/v1/users?page=1&limit=2&sortBy=name:asc", token, nil)
	require.Equal(t, 200, w.Code)
	page := decode[models.UserPage](t, w)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, float64(2), page.Limit)
	assert.Equal(t, 2, page.TotalPages)
	assert.Equal(t, int64(4), page.TotalResults)
	require.Len(t, page.Results, 2)
	assert.Equal(t, "Admin", page.Results[0].Name)
	assert.Equal(t, "Bob", page.Results[1].Name)

	w = m.do(t, "GET", "/v1/users?limit=-1&role=admin", token, nil)
	page = decode[models.UserPage](t, w)
	assert.Equal(t, "all", page.Limit)
	assert.Len(t, page.Results, 1)
}
