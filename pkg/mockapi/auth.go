package mockapi

import (
	"errors"
	"net/http"
	"strings"

	"github.com/ezoidc/apiprobe/pkg/models"
	"github.com/gin-gonic/gin"
	"github.com/go-jose/go-jose/v4/jwt"
)

const (
	ReasonMissingToken = "invalid:authorization"
	ReasonInvalidToken = "invalid:token"
	ReasonExpired      = "invalid:token:exp"
	ReasonUnknownUser  = "invalid:user"
	ReasonForbidden    = "forbidden"
)

func BearerToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		authorization := c.GetHeader("Authorization")
		if authorization == "" {
			authError(c, http.StatusUnauthorized, "Please authenticate", ReasonMissingToken)
			return
		}

		scheme, token, _ := strings.Cut(authorization, " ")
		if scheme != "Bearer" || token == "" {
			authError(c, http.StatusUnauthorized, "Please authenticate", ReasonMissingToken)
			return
		}

		c.Set("bearer_token", token)
	}
}

func ValidToken(tokens *Tokens) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := tokens.Verify(c.GetString("bearer_token"), TokenAccess)
		if err != nil {
			reason := ReasonInvalidToken
			if errors.Is(err, jwt.ErrExpired) {
				reason = ReasonExpired
			}
			authError(c, http.StatusUnauthorized, "Please authenticate", reason)
			return
		}
		c.Set("user_id", userID)
	}
}

func RequireAdmin(users *Users) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := users.Get(c.GetString("user_id"))
		if err != nil {
			authError(c, http.StatusUnauthorized, "User not found", ReasonUnknownUser)
			return
		}
		if user.Role != models.RoleAdmin {
			authError(c, http.StatusForbidden, "Forbidden: Admins only", ReasonForbidden)
			return
		}
	}
}

func RequireAdminOrSelf(users *Users) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetString("user_id")
		if c.Param("id") == userID {
			return
		}
		user, err := users.Get(userID)
		if err != nil || user.Role != models.RoleAdmin {
			authError(c, http.StatusForbidden, "Forbidden: Access denied", ReasonForbidden)
			return
		}
	}
}

func authError(ctx *gin.Context, status int, message string, reason string) {
	ctx.Set("reason", reason)
	ctx.AbortWithStatusJSON(status, models.ErrorResponse{
		Code:    status,
		Message: message,
	})
}
