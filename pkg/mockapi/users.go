package mockapi

import (
	"errors"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ezoidc/apiprobe/pkg/models"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrEmailTaken   = errors.New("email already taken")
	ErrUserNotFound = errors.New("user not found")
	ErrBadLogin     = errors.New("incorrect email or password")
)

const defaultPageSize = 10

type account struct {
	models.User
	password []byte
}

// In-memory user repository, safe for concurrent use
type Users struct {
	cost int
	now  func() time.Time

	mu    sync.RWMutex
	byID  map[string]*account
	order []string
}

func NewUsers(cost int) *Users {
	return &Users{
		cost: cost,
		now:  time.Now,
		byID: map[string]*account{},
	}
}

func (u *Users) Create(name, email, password, role string) (models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), u.cost)
	if err != nil {
		return models.User{}, err
	}
	if role == "" {
		role = models.RoleUser
	}

	u.mu.Lock()
	defer u.mu.Unlock()
	if u.findByEmail(email) != nil {
		return models.User{}, ErrEmailTaken
	}

	now := u.now().UTC()
	a := &account{
		User: models.User{
			ID:        uuid.NewString(),
			Name:      name,
			Email:     email,
			Role:      role,
			CreatedAt: now,
			UpdatedAt: now,
		},
		password: hash,
	}
	u.byID[a.ID] = a
	u.order = append(u.order, a.ID)
	return a.User, nil
}

func (u *Users) Authenticate(email, password string) (models.User, error) {
	u.mu.RLock()
	a := u.findByEmail(email)
	u.mu.RUnlock()

	if a == nil || bcrypt.CompareHashAndPassword(a.password, []byte(password)) != nil {
		return models.User{}, ErrBadLogin
	}
	return a.User, nil
}

func (u *Users) Get(id string) (models.User, error) {
	u.mu.RLock()
	defer u.mu.RUnlock()
	a, ok := u.byID[id]
	if !ok {
		return models.User{}, ErrUserNotFound
	}
	return a.User, nil
}

func (u *Users) FindByEmail(email string) (models.User, bool) {
	u.mu.RLock()
	defer u.mu.RUnlock()
	a := u.findByEmail(email)
	if a == nil {
		return models.User{}, false
	}
	return a.User, true
}

// Update applies the non-empty fields of req.
func (u *Users) Update(id string, req models.UpdateUserRequest) (models.User, error) {
	var hash []byte
	if req.Password != "" {
		var err error
		hash, err = bcrypt.GenerateFromPassword([]byte(req.Password), u.cost)
		if err != nil {
			return models.User{}, err
		}
	}

	u.mu.Lock()
	defer u.mu.Unlock()
	a, ok := u.byID[id]
	if !ok {
		return models.User{}, ErrUserNotFound
	}
	if req.Email != "" && req.Email != a.Email {
		if u.findByEmail(req.Email) != nil {
			return models.User{}, ErrEmailTaken
		}
		a.Email = req.Email
	}
	if req.Name != "" {
		a.Name = req.Name
	}
	if req.Role != "" {
		a.Role = req.Role
	}
	if hash != nil {
		a.password = hash
	}
	a.UpdatedAt = u.now().UTC()
	return a.User, nil
}

func (u *Users) SetPassword(id, password string) error {
	_, err := u.Update(id, models.UpdateUserRequest{Password: password})
	return err
}

func (u *Users) Delete(id string) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if _, ok := u.byID[id]; !ok {
		return ErrUserNotFound
	}
	delete(u.byID, id)
	for i, other := range u.order {
		if other == id {
			u.order = append(u.order[:i], u.order[i+1:]...)
			break
		}
	}
	return nil
}

type Query struct {
	Page  int
	Limit int
	// field:asc or field:desc
	SortBy string
	Search string
	// name, email, role, id or all
	Scope string
	Role  string
}

// List filters, sorts and paginates users. A negative limit returns every
// match on a single page.
func (u *Users) List(q Query) models.UserPage {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit == 0 {
		q.Limit = defaultPageSize
	}

	u.mu.RLock()
	matches := []models.User{}
	for _, id := range u.order {
		a := u.byID[id]
		if q.Role != "" && a.Role != q.Role {
			continue
		}
		if q.Search != "" && !matchesSearch(a.User, q.Search, q.Scope) {
			continue
		}
		matches = append(matches, a.User)
	}
	u.mu.RUnlock()

	sortUsers(matches, q.SortBy)

	page := models.UserPage{
		Page:         q.Page,
		TotalResults: int64(len(matches)),
	}
	if q.Limit < 0 {
		page.Results = matches
		page.Limit = "all"
		page.TotalPages = 1
		return page
	}

	page.Limit = q.Limit
	page.TotalPages = int(math.Ceil(float64(len(matches)) / float64(q.Limit)))
	start := min((q.Page-1)*q.Limit, len(matches))
	end := min(start+q.Limit, len(matches))
	page.Results = matches[start:end]
	return page
}

func (u *Users) findByEmail(email string) *account {
	for _, a := range u.byID {
		if strings.EqualFold(a.Email, email) {
			return a
		}
	}
	return nil
}

func matchesSearch(user models.User, search, scope string) bool {
	fields := map[string]string{
		"name":  user.Name,
		"email": user.Email,
		"role":  user.Role,
		"id":    user.ID,
	}
	search = strings.ToLower(search)

	if scope != "" && scope != "all" {
		value, ok := fields[scope]
		if !ok {
			value = user.Name
		}
		return strings.Contains(strings.ToLower(value), search)
	}
	for _, value := range fields {
		if strings.Contains(strings.ToLower(value), search) {
			return true
		}
	}
	return false
}

func sortUsers(users []models.User, sortBy string) {
	field, direction, _ := strings.Cut(sortBy, ":")
	var less func(a, b models.User) bool
	switch field {
	case "name":
		less = func(a, b models.User) bool { return a.Name < b.Name }
	case "email":
		less = func(a, b models.User) bool { return a.Email < b.Email }
	case "role":
		less = func(a, b models.User) bool { return a.Role < b.Role }
	case "createdAt":
		less = func(a, b models.User) bool { return a.CreatedAt.Before(b.CreatedAt) }
	default:
		return
	}

	sort.SliceStable(users, func(i, j int) bool {
		if direction == "desc" {
			return less(users[j], users[i])
		}
		return less(users[i], users[j])
	})
}
