package service

import (
	"context"
	"database/sql"
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/classroom-api/internal/models"
	"github.com/noah-isme/classroom-api/internal/repository"
	appErrors "github.com/noah-isme/classroom-api/pkg/errors"
	"github.com/noah-isme/classroom-api/pkg/pagination"
	"github.com/noah-isme/classroom-api/pkg/query"
)

type userRepository interface {
	FindByID(ctx context.Context, id int64) (*models.User, error)
	FindConflicting(ctx context.Context, username, email string, excludeID int64) (*models.User, error)
	List(ctx context.Context, req *query.Request) ([]models.User, error)
	Count(ctx context.Context, pred query.Predicate) (int, error)
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
	UpdatePassword(ctx context.Context, id int64, passwordHash string, updatedAt time.Time) error
	Delete(ctx context.Context, id int64) error
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

type grantInvalidator interface {
	Invalidate(ctx context.Context)
	InvalidateUser(ctx context.Context, userIDs ...int64)
}

// UserService handles user management workflows.
type UserService struct {
	repo       userRepository
	grants     grantInvalidator
	validator  *validator.Validate
	logger     *zap.Logger
	bcryptCost int
}

// NewUserService creates an instance of UserService.
func NewUserService(repo userRepository, grants grantInvalidator, validate *validator.Validate, logger *zap.Logger, bcryptCost int) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
		bcryptCost = bcrypt.DefaultCost
	}
	return &UserService{repo: repo, grants: grants, validator: validate, logger: logger, bcryptCost: bcryptCost}
}

// List returns one page of users filtered by the query string.
func (s *UserService) List(ctx context.Context, values url.Values) ([]models.User, *pagination.Window, error) {
	req, err := query.Parse(values, repository.UserQuerySchema)
	if err != nil {
		return nil, nil, err
	}
	return listPage[models.User](ctx, s.repo, req, "users")
}

// Get returns a user by ID.
func (s *UserService) Get(ctx context.Context, id int64) (*models.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}
	return user, nil
}

func (s *UserService) ensureUnique(ctx context.Context, username, email string, excludeID int64) error {
	if _, err := s.repo.FindConflicting(ctx, username, email, excludeID); err == nil {
		return appErrors.Clone(appErrors.ErrConflict, "username or email already exists")
	} else if !errors.Is(err, sql.ErrNoRows) {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check user uniqueness")
	}
	return nil
}

func (s *UserService) writeError(err error, message string) error {
	if errors.Is(err, appErrors.ErrDuplicate) {
		return appErrors.Clone(appErrors.ErrConflict, "username or email already exists")
	}
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrNotFound, "user not found")
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, message)
}

// Create registers a new user. The store's unique constraints decide races the pre-check misses.
func (s *UserService) Create(ctx context.Context, req models.CreateUserRequest, meta models.RequestMeta) (*models.User, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid create user payload")
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	username := strings.TrimSpace(req.Username)
	if err := s.ensureUnique(ctx, username, email, 0); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}

	user := &models.User{
		Username:     username,
		Firstname:    req.Firstname,
		Lastname:     req.Lastname,
		Email:        email,
		Phone:        req.Phone,
		PasswordHash: string(hash),
		IsActive:     true,
		RoleID:       req.RoleID,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, s.writeError(err, "failed to create user")
	}

	recordAudit(ctx, s.repo, s.logger, meta, auditEntry{
		Action:     models.AuditActionUserCreate,
		Resource:   "users",
		ResourceID: user.ID,
		New:        map[string]interface{}{"username": user.Username, "email": user.Email, "role_id": user.RoleID},
	})
	return user, nil
}

// Update applies the non-empty fields of req to the user.
func (s *UserService) Update(ctx context.Context, id int64, req models.UpdateUserRequest, meta models.RequestMeta) (*models.User, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid update payload")
	}

	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	old := map[string]interface{}{"username": user.Username, "email": user.Email, "is_active": user.IsActive}

	if req.Username != "" {
		user.Username = strings.TrimSpace(req.Username)
	}
	if req.Email != "" {
		user.Email = strings.ToLower(strings.TrimSpace(req.Email))
	}
	if req.Firstname != "" {
		user.Firstname = req.Firstname
	}
	if req.Lastname != "" {
		user.Lastname = req.Lastname
	}
	if req.Phone != nil {
		user.Phone = req.Phone
	}
	if req.IsActive != nil {
		user.IsActive = *req.IsActive
	}

	if err := s.ensureUnique(ctx, user.Username, user.Email, user.ID); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, user); err != nil {
		return nil, s.writeError(err, "failed to update user")
	}

	recordAudit(ctx, s.repo, s.logger, meta, auditEntry{
		Action:     models.AuditActionUserUpdate,
		Resource:   "users",
		ResourceID: user.ID,
		Old:        old,
		New:        map[string]interface{}{"username": user.Username, "email": user.Email, "is_active": user.IsActive},
	})
	return user, nil
}

// Delete removes the user together with its teacher/student links.
func (s *UserService) Delete(ctx context.Context, id int64, meta models.RequestMeta) error {
	user, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return s.writeError(err, "failed to delete user")
	}
	if s.grants != nil {
		s.grants.InvalidateUser(ctx, id)
	}

	recordAudit(ctx, s.repo, s.logger, meta, auditEntry{
		Action:     models.AuditActionUserDelete,
		Resource:   "users",
		ResourceID: id,
		Old:        map[string]interface{}{"username": user.Username, "email": user.Email},
	})
	return nil
}

// ChangePassword replaces the password of req.UserID. Callers may change their own password;
// administrators may change anyone's.
func (s *UserService) ChangePassword(ctx context.Context, req models.ChangePasswordRequest, meta models.RequestMeta) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid change password payload")
	}
	if req.UserID != meta.ActorID && meta.ActorRole != models.RoleAdmin {
		return appErrors.Clone(appErrors.ErrForbidden, "cannot change another user's password")
	}

	if _, err := s.Get(ctx, req.UserID); err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), s.bcryptCost)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}
	if err := s.repo.UpdatePassword(ctx, req.UserID, string(hash), time.Now().UTC()); err != nil {
		return s.writeError(err, "failed to update password")
	}

	recordAudit(ctx, s.repo, s.logger, meta, auditEntry{
		Action:     models.AuditActionPasswordChange,
		Resource:   "users",
		ResourceID: req.UserID,
		New:        map[string]string{"status": "changed"},
	})
	return nil
}
