package scripts

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/ezoidc/apiprobe/pkg/client"
	"github.com/ezoidc/apiprobe/pkg/models"
)

func register(ctx context.Context, h *Harness, out string) error {
	unique := h.now().Unix()
	email := fmt.Sprintf("user_%d@example.com", unique)

	resp, err := h.Client.SendAndPrint(ctx, client.Request{
		Method: http.MethodPost,
		URL:    h.Client.URL("/auth/register"),
		Body: models.RegisterRequest{
			Name:     fmt.Sprintf("User %d", unique),
			Email:    email,
			Password: defaultPassword,
		},
	}, out)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusCreated {
		return nil
	}

	var auth models.AuthResponse
	if err := resp.Decode(&auth); err != nil || !auth.Tokens.Complete() {
		return nil
	}
	err = h.saveAll(
		KeyAccessToken, auth.Tokens.Access.Token,
		KeyRefreshToken, auth.Tokens.Refresh.Token,
		KeyCurrentUserEmail, email,
		KeyCurrentUserPassword, defaultPassword,
	)
	if err != nil {
		return err
	}
	h.infof("Saved tokens for %s", email)
	return nil
}

func login(ctx context.Context, h *Harness, out string) error {
	resp, err := h.Client.SendAndPrint(ctx, client.Request{
		Method: http.MethodPost,
		URL:    h.Client.URL("/auth/login"),
		Body: models.LoginRequest{
			Email:    h.loadOr(KeyAdminEmail, defaultAdminEmail),
			Password: h.loadOr(KeyAdminPassword, defaultAdminPassword),
		},
	}, out)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return nil
	}

	var auth models.AuthResponse
	if err := resp.Decode(&auth); err != nil || !auth.Tokens.Complete() {
		return nil
	}
	err = h.saveAll(
		KeyAccessToken, auth.Tokens.Access.Token,
		KeyRefreshToken, auth.Tokens.Refresh.Token,
	)
	if err != nil {
		return err
	}
	h.infof("Tokens refreshed via Login")
	return nil
}

func refreshTokens(ctx context.Context, h *Harness, out string) error {
	refreshToken, err := h.require(KeyRefreshToken, "No refresh token found. Run A1 or A2 first.")
	if err != nil {
		return err
	}

	resp, err := h.Client.SendAndPrint(ctx, client.Request{
		Method: http.MethodPost,
		URL:    h.Client.URL("/auth/refresh-tokens"),
		Body:   models.RefreshRequest{RefreshToken: refreshToken},
	}, out)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return nil
	}

	var tokens models.AuthTokens
	if err := resp.Decode(&tokens); err != nil || !tokens.Complete() {
		return nil
	}
	err = h.saveAll(
		KeyAccessToken, tokens.Access.Token,
		KeyRefreshToken, tokens.Refresh.Token,
	)
	if err != nil {
		return err
	}
	h.infof("Tokens refreshed successfully")
	return nil
}

func forgotPassword(ctx context.Context, h *Harness, out string) error {
	email := h.loadOr(KeyCurrentUserEmail, h.loadOr(KeyAdminEmail, defaultAdminEmail))

	_, err := h.Client.SendAndPrint(ctx, client.Request{
		Method: http.MethodPost,
		URL:    h.Client.URL("/auth/forgot-password"),
		Body:   models.ForgotPasswordRequest{Email: email},
	}, out)
	return err
}

// The reset token arrives out of band; save it as reset_token before running.
func resetPassword(ctx context.Context, h *Harness, out string) error {
	token := h.loadOr(KeyResetToken, resetTokenHint)

	resp, err := h.Client.SendAndPrint(ctx, client.Request{
		Method: http.MethodPost,
		URL:    h.Client.URL("/auth/reset-password?token=" + url.QueryEscape(token)),
		Body:   models.ResetPasswordRequest{Password: newPassword},
	}, out)
	if err != nil {
		return err
	}
	if !resp.Success() {
		return nil
	}
	if err := h.Store.Save(KeyCurrentUserPassword, newPassword); err != nil {
		return err
	}
	h.infof("Password reset, saved new password")
	return nil
}

func logout(ctx context.Context, h *Harness, out string) error {
	refreshToken, _ := h.Store.Load(KeyRefreshToken)

	_, err := h.Client.SendAndPrint(ctx, client.Request{
		Method: http.MethodPost,
		URL:    h.Client.URL("/auth/logout"),
		Body:   models.RefreshRequest{RefreshToken: refreshToken},
	}, out)
	return err
}
