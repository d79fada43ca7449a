package mockapi

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/ezoidc/apiprobe/pkg/models"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

func init() {
	// report fields by their JSON names
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(func(field reflect.StructField) string {
			name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			return name
		})
	}
}

func (a *API) register(c *gin.Context) {
	var req models.RegisterRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := a.Users.Create(req.Name, req.Email, req.Password, models.RoleUser)
	if err != nil {
		apiError(c, http.StatusBadRequest, err.Error())
		return
	}
	a.respondWithTokens(c, http.StatusCreated, user)
}

func (a *API) login(c *gin.Context) {
	var req models.LoginRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := a.Users.Authenticate(req.Email, req.Password)
	if err != nil {
		apiError(c, http.StatusUnauthorized, err.Error())
		return
	}
	a.respondWithTokens(c, http.StatusOK, user)
}

func (a *API) logout(c *gin.Context) {
	var req models.RefreshRequest
	_ = c.ShouldBindJSON(&req)
	if req.RefreshToken == "" {
		apiError(c, http.StatusBadRequest, "refreshToken is required")
		return
	}

	if _, err := a.Tokens.Consume(req.RefreshToken, TokenRefresh); err != nil {
		log.Debug().Err(err).Msg("logout with unknown refresh token")
	}
	c.Status(http.StatusNoContent)
}

func (a *API) refreshTokens(c *gin.Context) {
	var req models.RefreshRequest
	_ = c.ShouldBindJSON(&req)
	if req.RefreshToken == "" {
		apiError(c, http.StatusBadRequest, "refreshToken is required")
		return
	}

	userID, err := a.Tokens.Consume(req.RefreshToken, TokenRefresh)
	if err != nil {
		apiError(c, http.StatusUnauthorized, "Please authenticate")
		return
	}
	if _, err := a.Users.Get(userID); err != nil {
		apiError(c, http.StatusUnauthorized, "Please authenticate")
		return
	}

	tokens, err := a.Tokens.AuthTokens(userID)
	if err != nil {
		apiError(c, http.StatusInternalServerError, err.Error())
		return
	}
	c.JSON(http.StatusOK, tokens)
}

func (a *API) forgotPassword(c *gin.Context) {
	var req models.ForgotPasswordRequest
	if !bindJSON(c, &req) {
		return
	}

	// unknown addresses get the same answer
	if user, ok := a.Users.FindByEmail(req.Email); ok {
		token, err := a.Tokens.Generate(user.ID, TokenResetPassword)
		if err != nil {
			apiError(c, http.StatusInternalServerError, err.Error())
			return
		}
		a.resetNotifier(user.Email, token.Token)
	}
	c.Status(http.StatusNoContent)
}

func (a *API) resetPassword(c *gin.Context) {
	token := c.Query("token")
	var req models.ResetPasswordRequest
	_ = c.ShouldBindJSON(&req)
	if token == "" || req.Password == "" {
		apiError(c, http.StatusBadRequest, "Token and Password are required")
		return
	}
	if len(req.Password) < 8 {
		apiError(c, http.StatusBadRequest, map[string]string{
			"password": "password must be at least 8 characters",
		})
		return
	}

	userID, err := a.Tokens.Consume(token, TokenResetPassword)
	if err != nil {
		apiError(c, http.StatusBadRequest, "password reset failed")
		return
	}
	if err := a.Users.SetPassword(userID, req.Password); err != nil {
		apiError(c, http.StatusBadRequest, err.Error())
		return
	}
	a.Tokens.Revoke(userID, TokenResetPassword)
	c.Status(http.StatusNoContent)
}

func (a *API) listUsers(c *gin.Context) {
	q := Query{
		SortBy: c.Query("sortBy"),
		Search: c.Query("search"),
		Scope:  c.DefaultQuery("scope", "all"),
	}
	if q.Search == "" {
		q.Search = c.Query("name")
	}
	q.Page, _ = strconv.Atoi(c.Query("page"))
	q.Limit, _ = strconv.Atoi(c.Query("limit"))
	if role := c.Query("role"); role == models.RoleUser || role == models.RoleAdmin {
		q.Role = role
	}

	c.JSON(http.StatusOK, a.Users.List(q))
}

func (a *API) createUser(c *gin.Context) {
	var req models.CreateUserRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := a.Users.Create(req.Name, req.Email, req.Password, req.Role)
	if err != nil {
		apiError(c, http.StatusBadRequest, err.Error())
		return
	}
	c.JSON(http.StatusCreated, user)
}

func (a *API) getUser(c *gin.Context) {
	id, ok := userID(c)
	if !ok {
		return
	}

	user, err := a.Users.Get(id)
	if err != nil {
		apiError(c, http.StatusNotFound, "User not found")
		return
	}
	c.JSON(http.StatusOK, user)
}

func (a *API) updateUser(c *gin.Context) {
	id, ok := userID(c)
	if !ok {
		return
	}
	var req models.UpdateUserRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := a.Users.Update(id, req)
	if err != nil {
		apiError(c, http.StatusBadRequest, err.Error())
		return
	}
	c.JSON(http.StatusOK, user)
}

func (a *API) deleteUser(c *gin.Context) {
	id, ok := userID(c)
	if !ok {
		return
	}

	if err := a.Users.Delete(id); err != nil {
		apiError(c, http.StatusNotFound, "User not found")
		return
	}
	a.Tokens.Revoke(id, TokenRefresh)
	c.Status(http.StatusNoContent)
}

func (a *API) respondWithTokens(c *gin.Context, status int, user models.User) {
	tokens, err := a.Tokens.AuthTokens(user.ID)
	if err != nil {
		apiError(c, http.StatusInternalServerError, err.Error())
		return
	}
	c.JSON(status, models.AuthResponse{User: &user, Tokens: tokens})
}

func userID(c *gin.Context) (string, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		apiError(c, http.StatusBadRequest, "Invalid User ID")
		return "", false
	}
	return id.String(), true
}

// bindJSON decodes and validates the body, answering 400 on failure.
func bindJSON(c *gin.Context, v any) bool {
	err := c.ShouldBindJSON(v)
	if err == nil {
		return true
	}

	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) {
		apiError(c, http.StatusBadRequest, "Invalid request body")
		return false
	}

	messages := map[string]string{}
	for _, fe := range fieldErrors {
		messages[fe.Field()] = validationMessage(fe)
	}
	apiError(c, http.StatusBadRequest, messages)
	return false
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "email":
		return fmt.Sprintf("%s must be a valid email", fe.Field())
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", fe.Field(), fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", fe.Field(), strings.ReplaceAll(fe.Param(), " ", ", "))
	}
	return fmt.Sprintf("%s failed validation on tag %s", fe.Field(), fe.Tag())
}

func apiError(c *gin.Context, status int, message any) {
	c.AbortWithStatusJSON(status, models.ErrorResponse{
		Code:    status,
		Message: message,
	})
}
