// Package scripts holds the single-purpose calls an operator runs one at a
// time against the API, passing tokens and IDs along through the store.
package scripts

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/ezoidc/apiprobe/pkg/client"
)

// Store keys shared between scripts
const (
	KeyAccessToken         = "access_token"
	KeyRefreshToken        = "refresh_token"
	KeyCurrentUserEmail    = "current_user_email"
	KeyCurrentUserPassword = "current_user_password"
	KeyTargetUserID        = "target_user_id"
	KeyResetToken          = "reset_token"
	KeyAdminEmail          = "admin_email"
	KeyAdminPassword       = "admin_password"
)

const (
	defaultAdminEmail    = "admin@example.com"
	defaultAdminPassword = "password123"
	defaultPassword      = "password123"
	newPassword          = "newpassword123"
	resetTokenHint       = "PASTE_VALID_TOKEN_HERE_FROM_CONSOLE_LOG"
)

var ErrMissingPrerequisite = errors.New("missing prerequisite")

type Store interface {
	Load(key string) (string, bool)
	Save(key, value string) error
}

type Sender interface {
	URL(path string) string
	SendAndPrint(ctx context.Context, r client.Request, outputFile string) (*client.Response, error)
}

// Everything a script needs
type Harness struct {
	Client  Sender
	Store   Store
	Console io.Writer
	Now     func() time.Time
}

type Script struct {
	// Also names the response artifact
	Name        string
	Description string
	Run         func(ctx context.Context, h *Harness, outputFile string) error
}

func (s Script) OutputFile() string {
	return s.Name + ".json"
}

// Execute runs the script, writing its response to OutputFile.
func (s Script) Execute(ctx context.Context, h *Harness) error {
	return s.Run(ctx, h, s.OutputFile())
}

// All scripts in suggested order
var All = []Script{
	{"A1.auth_register", "Register a new user and save its tokens and credentials", register},
	{"A2.auth_login", "Log in as the administrator and save its tokens", login},
	{"A3.auth_refresh_tokens", "Exchange the saved refresh token for new tokens", refreshTokens},
	{"A4.auth_forgot_password", "Request a password reset for the current user", forgotPassword},
	{"A5.auth_reset_password", "Reset the password with the saved reset token", resetPassword},
	{"A6.auth_logout", "Log out the saved refresh token", logout},
	{"B1.user_create", "Create a user as administrator and save its ID", createUser},
	{"B2.user_get_list", "List users, first page of five sorted by name", listUsers},
	{"B3.user_get_one", "Get the saved target user", getUser},
	{"B4.user_update", "Rename the saved target user", updateUser},
	{"B5.user_delete", "Delete the saved target user", deleteUser},
}

// Find looks a script up by full name or by its prefix, e.g. "A1".
func Find(name string) (Script, bool) {
	for _, s := range All {
		prefix, _, _ := strings.Cut(s.Name, ".")
		if strings.EqualFold(s.Name, name) || strings.EqualFold(prefix, name) {
			return s, true
		}
	}
	return Script{}, false
}

func (h *Harness) now() time.Time {
	if h.Now == nil {
		return time.Now()
	}
	return h.Now()
}

func (h *Harness) infof(format string, args ...any) {
	fmt.Fprintf(h.Console, "\n[INFO] "+format+"\n", args...)
}

// require loads a value a script cannot run without.
func (h *Harness) require(key, hint string) (string, error) {
	value, ok := h.Store.Load(key)
	if !ok || value == "" {
		fmt.Fprintln(h.Console, hint)
		return "", fmt.Errorf("%w: %s", ErrMissingPrerequisite, key)
	}
	return value, nil
}

func (h *Harness) loadOr(key, fallback string) string {
	if value, ok := h.Store.Load(key); ok && value != "" {
		return value
	}
	return fallback
}

func (h *Harness) bearer() map[string]string {
	token, _ := h.Store.Load(KeyAccessToken)
	return map[string]string{"Authorization": "Bearer " + token}
}

func (h *Harness) saveAll(values ...string) error {
	for i := 0; i+1 < len(values); i += 2 {
		if err := h.Store.Save(values[i], values[i+1]); err != nil {
			return err
		}
	}
	return nil
}
