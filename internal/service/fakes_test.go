package service

import (
	"context"
	"database/sql"
	"sort"
	"time"

	"github.com/noah-isme/classroom-api/internal/models"
	"github.com/noah-isme/classroom-api/pkg/query"
)

func roleRef(id int64, name models.UserRole) *models.Role {
	return &models.Role{ID: id, Name: string(name), IsActive: true}
}

func newUser(id int64, username string, role models.UserRole) *models.User {
	roleID := map[models.UserRole]int64{models.RoleAdmin: 1, models.RoleTeacher: 2, models.RoleStudent: 3}[role]
	return &models.User{
		ID:        id,
		Username:  username,
		Firstname: username,
		Lastname:  "Doe",
		Email:     username + "@example.com",
		IsActive:  true,
		RoleID:    &roleID,
		Role:      roleRef(roleID, role),
	}
}

// fakeUserStore is an in-memory users table with an audit trail.
type fakeUserStore struct {
	users       map[int64]*models.User
	nextID      int64
	createErr   error
	updateErr   error
	auditErr    error
	audits      []*models.AuditLog
	deleted     []int64
	lastLogins  map[int64]string
	passwords   map[int64]string
	roleUpdates map[int64]int64
	listed      *query.Request
}

func newFakeUserStore(users ...*models.User) *fakeUserStore {
	s := &fakeUserStore{
		users:       map[int64]*models.User{},
		nextID:      100,
		lastLogins:  map[int64]string{},
		passwords:   map[int64]string{},
		roleUpdates: map[int64]int64{},
	}
	for _, u := range users {
		s.users[u.ID] = u
	}
	return s
}

func (s *fakeUserStore) sorted() []models.User {
	out := make([]models.User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, *u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *fakeUserStore) FindByID(_ context.Context, id int64) (*models.User, error) {
	if u, ok := s.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (s *fakeUserStore) FindByUsername(_ context.Context, username string) (*models.User, error) {
	for _, u := range s.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *fakeUserStore) FindConflicting(_ context.Context, username, email string, excludeID int64) (*models.User, error) {
	for _, u := range s.users {
		if u.ID != excludeID && (u.Username == username || u.Email == email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *fakeUserStore) List(_ context.Context, req *query.Request) ([]models.User, error) {
	s.listed = req
	return s.sorted(), nil
}

func (s *fakeUserStore) Count(_ context.Context, _ query.Predicate) (int, error) {
	return len(s.users), nil
}

func (s *fakeUserStore) ListByRole(_ context.Context, role models.UserRole) ([]models.User, error) {
	var out []models.User
	for _, u := range s.sorted() {
		if u.RoleName() == role {
			out = append(out, u)
		}
	}
	return out, nil
}

func (s *fakeUserStore) Create(_ context.Context, user *models.User) error {
	if s.createErr != nil {
		return s.createErr
	}
	s.nextID++
	user.ID = s.nextID
	cp := *user
	s.users[user.ID] = &cp
	return nil
}

func (s *fakeUserStore) Update(_ context.Context, user *models.User) error {
	if s.updateErr != nil {
		return s.updateErr
	}
	if _, ok := s.users[user.ID]; !ok {
		return sql.ErrNoRows
	}
	cp := *user
	s.users[user.ID] = &cp
	return nil
}

func (s *fakeUserStore) UpdatePassword(_ context.Context, id int64, hash string, _ time.Time) error {
	if _, ok := s.users[id]; !ok {
		return sql.ErrNoRows
	}
	s.passwords[id] = hash
	return nil
}

func (s *fakeUserStore) UpdateRole(_ context.Context, id, roleID int64, _ time.Time) error {
	s.roleUpdates[id] = roleID
	return nil
}

func (s *fakeUserStore) UpdateLastLogin(_ context.Context, id int64, ip string, _ time.Time) error {
	s.lastLogins[id] = ip
	return nil
}

func (s *fakeUserStore) Delete(_ context.Context, id int64) error {
	if _, ok := s.users[id]; !ok {
		return sql.ErrNoRows
	}
	delete(s.users, id)
	s.deleted = append(s.deleted, id)
	return nil
}

func (s *fakeUserStore) CreateAuditLog(_ context.Context, log *models.AuditLog) error {
	s.audits = append(s.audits, log)
	return s.auditErr
}

func (s *fakeUserStore) auditActions() []string {
	actions := make([]string, len(s.audits))
	for i, a := range s.audits {
		actions[i] = a.Action
	}
	return actions
}

// countingInvalidator records grant cache invalidations.
type countingInvalidator struct {
	calls int
	users []int64
}

func (c *countingInvalidator) Invalidate(context.Context) {
	c.calls++
}

func (c *countingInvalidator) InvalidateUser(_ context.Context, userIDs ...int64) {
	c.calls++
	c.users = append(c.users, userIDs...)
}
