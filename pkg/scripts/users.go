package scripts

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/ezoidc/apiprobe/pkg/client"
	"github.com/ezoidc/apiprobe/pkg/models"
)

const missingTarget = "Target User ID not found. Run B1 first."

// Needs an administrator's access token, see A2.
func createUser(ctx context.Context, h *Harness, out string) error {
	unique := h.now().Unix()

	resp, err := h.Client.SendAndPrint(ctx, client.Request{
		Method:  http.MethodPost,
		URL:     h.Client.URL("/users"),
		Headers: h.bearer(),
		Body: models.CreateUserRequest{
			Name:     fmt.Sprintf("New User %d", unique),
			Email:    fmt.Sprintf("newuser_%d@example.com", unique),
			Password: defaultPassword,
			Role:     models.RoleUser,
		},
	}, out)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusCreated {
		return nil
	}

	var user models.User
	if err := resp.Decode(&user); err != nil || user.ID == "" {
		return nil
	}
	if err := h.Store.Save(KeyTargetUserID, user.ID); err != nil {
		return err
	}
	h.infof("Created user ID: %s", user.ID)
	return nil
}

func listUsers(ctx context.Context, h *Harness, out string) error {
	_, err := h.Client.SendAndPrint(ctx, client.Request{
		Method:  http.MethodGet,
		URL:     h.Client.URL("/users?page=1&limit=5&sortBy=name:asc"),
		Headers: h.bearer(),
	}, out)
	return err
}

func getUser(ctx context.Context, h *Harness, out string) error {
	id, err := h.require(KeyTargetUserID, missingTarget)
	if err != nil {
		return err
	}

	_, err = h.Client.SendAndPrint(ctx, client.Request{
		Method:  http.MethodGet,
		URL:     h.Client.URL("/users/" + url.PathEscape(id)),
		Headers: h.bearer(),
	}, out)
	return err
}

func updateUser(ctx context.Context, h *Harness, out string) error {
	id, err := h.require(KeyTargetUserID, missingTarget)
	if err != nil {
		return err
	}

	_, err = h.Client.SendAndPrint(ctx, client.Request{
		Method:  http.MethodPatch,
		URL:     h.Client.URL("/users/" + url.PathEscape(id)),
		Headers: h.bearer(),
		Body:    models.UpdateUserRequest{Name: fmt.Sprintf("Updated User %d", h.now().Unix())},
	}, out)
	return err
}

func deleteUser(ctx context.Context, h *Harness, out string) error {
	id, err := h.require(KeyTargetUserID, missingTarget)
	if err != nil {
		return err
	}

	_, err = h.Client.SendAndPrint(ctx, client.Request{
		Method:  http.MethodDelete,
		URL:     h.Client.URL("/users/" + url.PathEscape(id)),
		Headers: h.bearer(),
	}, out)
	return err
}
