package mockapi

import (
	"testing"

	"github.com/ezoidc/apiprobe/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func seedUsers(t *testing.T) *Users {
	users := NewUsers(bcrypt.MinCost)
	for _, u := range []struct{ name, role string }{
		{"dave", "user"},
		{"alice", "admin"},
		{"carol", "user"},
		{"bob", "user"},
		{"erin", "user"},
	} {
		_, err := users.Create(u.name, u.name+"@example.com", "password123", u.role)
		require.NoError(t, err)
	}
	return users
}

func names(page models.UserPage) []string {
	out := []string{}
	for _, u := range page.Results {
		out = append(out, u.Name)
	}
	return out
}

func TestUsersList(t *testing.T) {
	users := seedUsers(t)

	cases := []struct {
		query      Query
		names      []string
		limit      any
		totalPages int
		total      int64
	}{
		{Query{}, []string{"dave", "alice", "carol", "bob", "erin"}, 10, 1, 5},
		{Query{Page: 1, Limit: 2, SortBy: "name:asc"}, []string{"alice", "bob"}, 2, 3, 5},
		{Query{Page: 3, Limit: 2, SortBy: "name:asc"}, []string{"erin"}, 2, 3, 5},
		{Query{Page: 9, Limit: 2, SortBy: "name:asc"}, []string{}, 2, 3, 5},
		{Query{Limit: 2, SortBy: "name:desc"}, []string{"erin", "dave"}, 2, 3, 5},
		{Query{Limit: -1, Role: "admin"}, []string{"alice"}, "all", 1, 1},
		{Query{Search: "AR", Scope: "name"}, []string{"carol"}, 10, 1, 1},
		{Query{Search: "admin"}, []string{"alice"}, 10, 1, 1},
		{Query{Search: "bob@", Scope: "email"}, []string{"bob"}, 10, 1, 1},
		{Query{SortBy: "unknown:asc", Limit: 1}, []string{"dave"}, 1, 5, 5},
	}

	for _, c := range cases {
		page := users.List(c.query)
		assert.Equal(t, c.names, names(page), "%+v", c.query)
		assert.Equal(t, c.limit, page.Limit, "%+v", c.query)
		assert.Equal(t, c.totalPages, page.TotalPages, "%+v", c.query)
		assert.Equal(t, c.total, page.TotalResults, "%+v", c.query)
	}
}

func TestUsersAuthenticate(t *testing.T) {
	users := seedUsers(t)

	u, err := users.Authenticate("BOB@example.com", "password123")
	require.NoError(t, err)
	assert.Equal(t, "bob", u.Name)

	_, err = users.Authenticate("bob@example.com", "wrong")
	assert.ErrorIs(t, err, ErrBadLogin)
	_, err = users.Authenticate("nobody@example.com", "password123")
	assert.ErrorIs(t, err, ErrBadLogin)

	require.NoError(t, users.SetPassword(u.ID, "changed123"))
	_, err = users.Authenticate("bob@example.com", "changed123")
	assert.NoError(t, err)
}

func TestUsersCreateDelete(t *testing.T) {
	users := seedUsers(t)

	_, err := users.Create("dup", "alice@example.com", "password123", "")
	assert.ErrorIs(t, err, ErrEmailTaken)

	u, err := users.Create("frank", "frank@example.com", "password123", "")
	require.NoError(t, err)
	assert.Equal(t, models.RoleUser, u.Role)

	require.NoError(t, users.Delete(u.ID))
	assert.ErrorIs(t, users.Delete(u.ID), ErrUserNotFound)
	_, err = users.Get(u.ID)
	assert.ErrorIs(t, err, ErrUserNotFound)
	assert.Equal(t, int64(5), users.List(Query{}).TotalResults)
}
