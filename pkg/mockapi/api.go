// Package mockapi is an in-memory stand-in for the authentication and user
// management API exercised by apiprobe scripts.
package mockapi

import (
	"crypto/rand"
	"net/http"

	"github.com/ezoidc/apiprobe/pkg/models"
	"github.com/ezoidc/apiprobe/pkg/static"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
)

// Largest accepted request body
const MaxBodySize int64 = 1 << 20

type Options struct {
	// IP address and port to listen on
	Listen string
	// HMAC key for signing tokens, random when empty
	Secret []byte
	// Seeded administrator
	AdminEmail    string
	AdminPassword string
	// bcrypt cost for stored passwords
	PasswordCost int
	// Receives reset tokens instead of an email being sent
	ResetNotifier func(email, token string)
}

type MetadataResponse struct {
	Mock    bool   `json:"mock"`
	Version string `json:"version"`
}

type API struct {
	Gin    *gin.Engine
	Users  *Users
	Tokens *Tokens

	listen        string
	resetNotifier func(email, token string)
}

func NewAPI(opts Options) (*API, error) {
	if len(opts.Secret) == 0 {
		opts.Secret = make([]byte, 32)
		if _, err := rand.Read(opts.Secret); err != nil {
			return nil, err
		}
	}
	if opts.AdminEmail == "" {
		opts.AdminEmail = "admin@example.com"
	}
	if opts.AdminPassword == "" {
		opts.AdminPassword = "password123"
	}
	if opts.PasswordCost == 0 {
		opts.PasswordCost = bcrypt.DefaultCost
	}
	if opts.ResetNotifier == nil {
		opts.ResetNotifier = logResetToken
	}

	tokens, err := NewTokens(opts.Secret)
	if err != nil {
		return nil, err
	}
	users := NewUsers(opts.PasswordCost)
	if _, err := users.Create("Admin", opts.AdminEmail, opts.AdminPassword, models.RoleAdmin); err != nil {
		return nil, err
	}

	api := &API{
		Users:         users,
		Tokens:        tokens,
		listen:        opts.Listen,
		resetNotifier: opts.ResetNotifier,
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestID())
	router.Use(jsonLogs())
	router.Use(maxBodySize(MaxBodySize))

	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, MetadataResponse{Mock: true, Version: static.Version})
	})

	v1 := router.Group("/v1")
	auth := v1.Group("/auth")
	auth.POST("/register", api.register)
	auth.POST("/login", api.login)
	auth.POST("/logout", api.logout)
	auth.POST("/refresh-tokens", api.refreshTokens)
	auth.POST("/forgot-password", api.forgotPassword)
	auth.POST("/reset-password", api.resetPassword)

	protected := v1.Group("/users", BearerToken(), ValidToken(tokens))
	protected.GET("", RequireAdmin(users), api.listUsers)
	protected.POST("", RequireAdmin(users), api.createUser)
	protected.GET("/:id", RequireAdminOrSelf(users), api.getUser)
	protected.PATCH("/:id", RequireAdmin(users), api.updateUser)
	protected.DELETE("/:id", RequireAdmin(users), api.deleteUser)

	api.Gin = router
	return api, nil
}

func (a *API) Run() error {
	log.Info().Str("address", a.listen).Msg("starting mock api server")
	return a.Gin.Run(a.listen)
}

func logResetToken(email, token string) {
	log.Info().Str("email", email).Str("token", token).Msg("password reset requested")
}

func jsonLogs() gin.HandlerFunc {
	return gin.LoggerWithFormatter(
		func(params gin.LogFormatterParams) string {
			line := log.Info().
				Any("request_id", params.Keys["request_id"]).
				Int("status", params.StatusCode).
				Str("method", params.Method).
				Str("path", params.Path).
				Str("client_ip", params.ClientIP).
				Dur("response_time", params.Latency)

			if userID, ok := params.Keys["user_id"].(string); ok {
				line = line.Str("user_id", userID)
			}

			if reason, ok := params.Keys["reason"].(string); ok {
				line = line.Str("reason", reason)
			}
			line.Send()
			return ""
		},
	)
}

func requestID() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		rid := uuid.New().String()
		ctx.Set("request_id", rid)
		ctx.Header("X-Request-ID", rid)
	}
}

func maxBodySize(limit int64) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		ctx.Request.Body = http.MaxBytesReader(ctx.Writer, ctx.Request.Body, limit)
	}
}
