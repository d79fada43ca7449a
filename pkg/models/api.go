package models

import "time"

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type User struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Email           string    `json:"email"`
	Role            string    `json:"role"`
	IsEmailVerified bool      `json:"isEmailVerified"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

type Token struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}

// Access and refresh tokens, as returned by login, register and refresh-tokens
type AuthTokens struct {
	Access  *Token `json:"access,omitempty"`
	Refresh *Token `json:"refresh,omitempty"`
}

// Complete reports whether both tokens are present.
func (t *AuthTokens) Complete() bool {
	return t != nil &&
		t.Access != nil && t.Access.Token != "" &&
		t.Refresh != nil && t.Refresh.Token != ""
}

type AuthResponse struct {
	User   *User       `json:"user,omitempty"`
	Tokens *AuthTokens `json:"tokens,omitempty"`
}

type UserPage struct {
	Results      []User `json:"results"`
	Page         int    `json:"page"`
	Limit        any    `json:"limit"`
	TotalPages   int    `json:"totalPages"`
	TotalResults int64  `json:"totalResults"`
}

// Error body of the remote API. Message is a string or a map of field errors.
type ErrorResponse struct {
	Code    int `json:"code,omitempty"`
	Message any `json:"message,omitempty"`
}

type RegisterRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type ResetPasswordRequest struct {
	Password string `json:"password"`
}

type CreateUserRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Role     string `json:"role" binding:"required,oneof=user admin"`
}

type UpdateUserRequest struct {
	Name     string `json:"name,omitempty"`
	Email    string `json:"email,omitempty" binding:"omitempty,email"`
	Password string `json:"password,omitempty" binding:"omitempty,min=8"`
	Role     string `json:"role,omitempty" binding:"omitempty,oneof=user admin"`
}
