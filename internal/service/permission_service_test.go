package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/classroom-api/internal/models"
	appErrors "github.com/noah-isme/classroom-api/pkg/errors"
)

type stubGrantRepo struct {
	grants map[int64]*models.RoleGrant
	calls  int
	err    error
}

func (s *stubGrantRepo) FindGrant(_ context.Context, userID int64) (*models.RoleGrant, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	grant, ok := s.grants[userID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return grant, nil
}

// memoryStore is a CacheStore keeping JSON documents in a map.
type memoryStore struct {
	values   map[string][]byte
	patterns []string
	getErr   error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{values: map[string][]byte{}}
}

func (m *memoryStore) Get(_ context.Context, key string, dest interface{}) error {
	if m.getErr != nil {
		return m.getErr
	}
	raw, ok := m.values[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *memoryStore) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.values[key] = raw
	return nil
}

func (m *memoryStore) Delete(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(m.values, key)
	}
	return nil
}

func (m *memoryStore) DeleteByPattern(_ context.Context, pattern string) error {
	m.patterns = append(m.patterns, pattern)
	prefix := strings.TrimSuffix(pattern, "*")
	for key := range m.values {
		if strings.HasPrefix(key, prefix) {
			delete(m.values, key)
		}
	}
	return nil
}

func teacherGrant() *models.RoleGrant {
	return &models.RoleGrant{UserID: 7, RoleName: models.RoleTeacher, Permissions: []string{models.PermissionAddStudents, models.PermissionGenerateQuiz}}
}

func TestEvaluate(t *testing.T) {
	grant := teacherGrant()
	tests := []struct {
		name string
		req  Requirement
		want bool
	}{
		{name: "empty requirement", req: Requirement{}, want: true},
		{name: "role only", req: Requirement{Role: models.RoleTeacher}, want: true},
		{name: "other role", req: Requirement{Role: models.RoleAdmin}, want: false},
		{name: "permission only", req: Requirement{Permission: models.PermissionGenerateQuiz}, want: true},
		{name: "missing permission", req: Requirement{Permission: models.PermissionFullSystem}, want: false},
		{name: "role and permission", req: Requirement{Role: models.RoleTeacher, Permission: models.PermissionAddStudents}, want: true},
		{name: "role ok permission missing", req: Requirement{Role: models.RoleTeacher, Permission: models.PermissionFullSystem}, want: false},
		{name: "permission ok role wrong", req: Requirement{Role: models.RoleStudent, Permission: models.PermissionAddStudents}, want: false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Evaluate(grant, tc.req))
		})
	}

	assert.False(t, Evaluate(nil, Requirement{}))
}

func TestPermissionServiceCachesGrants(t *testing.T) {
	repo := &stubGrantRepo{grants: map[int64]*models.RoleGrant{7: teacherGrant()}}
	store := newMemoryStore()
	svc := NewPermissionService(repo, NewGrantCache(store, time.Minute, nil, nil), nil, nil)
	ctx := context.Background()

	allowed, err := svc.Authorize(ctx, 7, Requirement{Permission: models.PermissionAddStudents})
	require.NoError(t, err)
	assert.True(t, allowed)
	assert.Contains(t, store.values, "rbac:user:7")

	allowed, err = svc.Authorize(ctx, 7, Requirement{Role: models.RoleAdmin})
	require.NoError(t, err)
	assert.False(t, allowed)
	assert.Equal(t, 1, repo.calls)

	svc.Invalidate(ctx)
	assert.Equal(t, []string{"rbac:user:*"}, store.patterns)
	assert.Empty(t, store.values)

	_, err = svc.Grant(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, 2, repo.calls)
}

func TestPermissionServiceInvalidateUser(t *testing.T) {
	repo := &stubGrantRepo{grants: map[int64]*models.RoleGrant{
		7: teacherGrant(),
		8: {UserID: 8, RoleName: models.RoleStudent},
	}}
	store := newMemoryStore()
	svc := NewPermissionService(repo, NewGrantCache(store, time.Minute, nil, nil), nil, nil)
	ctx := context.Background()

	_, err := svc.Grant(ctx, 7)
	require.NoError(t, err)
	_, err = svc.Grant(ctx, 8)
	require.NoError(t, err)

	svc.InvalidateUser(ctx, 7)
	assert.NotContains(t, store.values, "rbac:user:7")
	assert.Contains(t, store.values, "rbac:user:8")
	assert.Empty(t, store.patterns)
}

func TestPermissionServiceFallsBackWhenCacheFails(t *testing.T) {
	repo := &stubGrantRepo{grants: map[int64]*models.RoleGrant{7: teacherGrant()}}
	store := newMemoryStore()
	store.getErr = errors.New("connection refused")
	svc := NewPermissionService(repo, NewGrantCache(store, time.Minute, nil, nil), nil, nil)

	grant, err := svc.Grant(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, models.RoleTeacher, grant.RoleName)
	assert.Equal(t, 1, repo.calls)
}

func TestPermissionServiceWithoutCache(t *testing.T) {
	repo := &stubGrantRepo{grants: map[int64]*models.RoleGrant{7: teacherGrant()}}
	svc := NewPermissionService(repo, nil, nil, nil)

	_, err := svc.Grant(context.Background(), 7)
	require.NoError(t, err)
	_, err = svc.Grant(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, 2, repo.calls)

	svc.Invalidate(context.Background())
	svc.InvalidateUser(context.Background(), 7)
}

func TestPermissionServiceUnknownIdentity(t *testing.T) {
	svc := NewPermissionService(&stubGrantRepo{}, nil, nil, nil)

	_, err := svc.Authorize(context.Background(), 99, Requirement{Role: models.RoleAdmin})
	require.ErrorIs(t, err, appErrors.ErrNotFound)

	failing := NewPermissionService(&stubGrantRepo{err: errors.New("boom")}, nil, nil, nil)
	_, err = failing.Grant(context.Background(), 7)
	assert.ErrorIs(t, err, appErrors.ErrInternal)
}

func TestGrantCacheWithoutStore(t *testing.T) {
	cache := NewGrantCache(nil, 0, nil, nil)
	assert.False(t, cache.Enabled())

	cache.Save(context.Background(), teacherGrant())
	_, ok := cache.Load(context.Background(), 7)
	assert.False(t, ok)
	cache.Forget(context.Background(), 7)
	cache.Flush(context.Background())

	var unset *GrantCache
	assert.False(t, unset.Enabled())
}
