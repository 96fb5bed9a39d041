// Package account manages LMS users: registration, administrative CRUD and
// password authentication.
package account

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	apperrors "github.com/louisbranch/lms/internal/platform/errors"
	"github.com/louisbranch/lms/internal/platform/logging"
	"github.com/louisbranch/lms/internal/services/lms/access"
	"github.com/louisbranch/lms/internal/services/lms/model"
	"github.com/louisbranch/lms/internal/services/lms/notification"
	"github.com/louisbranch/lms/internal/services/lms/storage"
)

// MinPasswordLength is the shortest accepted password.
const MinPasswordLength = 8

var (
	// ErrEmailRequired indicates a missing email.
	ErrEmailRequired = apperrors.New(apperrors.CodeInvalidArgument, "email is required")
	// ErrEmailInvalid indicates an email that does not parse as an address.
	ErrEmailInvalid = apperrors.New(apperrors.CodeInvalidArgument, "email is not a valid address")
	// ErrNameRequired indicates a missing display name.
	ErrNameRequired = apperrors.New(apperrors.CodeInvalidArgument, "name is required")
	// ErrPasswordTooShort indicates a password below MinPasswordLength.
	ErrPasswordTooShort = apperrors.New(apperrors.CodeInvalidArgument, fmt.Sprintf("password must be at least %d characters", MinPasswordLength))
	// ErrPasswordTooLong indicates a password bcrypt cannot hash.
	ErrPasswordTooLong = apperrors.New(apperrors.CodeInvalidArgument, "password must be at most 72 bytes")
	// ErrInvalidRole indicates an unknown role name.
	ErrInvalidRole = apperrors.New(apperrors.CodeInvalidArgument, "role must be one of ADMIN, INSTRUCTOR or STUDENT")
	// ErrEmailInUse indicates another account owns the email.
	ErrEmailInUse = apperrors.New(apperrors.CodeEmailInUse, "email is already in use")
	// ErrInvalidCredentials hides whether the email or the password was wrong.
	ErrInvalidCredentials = apperrors.New(apperrors.CodeInvalidCredentials, "invalid email or password")
	// ErrUserNotFound indicates the user does not exist.
	ErrUserNotFound = apperrors.New(apperrors.CodeNotFound, "user not found")
	// ErrAdminRequired indicates an administrator-only operation.
	ErrAdminRequired = apperrors.New(apperrors.CodePermissionDenied, "only administrators can perform this action")
	// ErrStoreNotConfigured indicates the service is missing persistence wiring.
	ErrStoreNotConfigured = errors.New("account store is not configured")
)

// Store is the persistence boundary for users.
type Store interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUser(ctx context.Context, id int64) (model.User, error)
	GetUserByEmail(ctx context.Context, email string) (model.User, error)
	ListUsers(ctx context.Context) ([]model.User, error)
	UpdateUser(ctx context.Context, user model.User) error
	DeleteUser(ctx context.Context, id int64) error
}

// RegisterInput is a public sign-up.
type RegisterInput struct {
	Email    string
	Name     string
	Password string
	Locale   string
}

// CreateInput is an administrative account creation.
type CreateInput struct {
	Email    string
	Name     string
	Password string
	Role     string
	Locale   string
}

// UpdateInput changes the set fields of an account.
type UpdateInput struct {
	Email    *string
	Name     *string
	Password *string
	Role     *string
	Locale   *string
}

// Options tunes the account service.
type Options struct {
	// BcryptCost defaults to bcrypt.DefaultCost.
	BcryptCost int
	Notifier   notification.Notifier
	Logger     *zap.Logger
}

// Service implements account use-cases.
type Service struct {
	store    Store
	clock    func() time.Time
	cost     int
	notifier notification.Notifier
	logger   *zap.Logger

	// dummyHash is compared against on unknown emails so a failed login
	// costs one bcrypt run either way.
	dummyOnce sync.Once
	dummyHash []byte
}

// NewService constructs the account service.
func NewService(store Store, clock func() time.Time, opts Options) *Service {
	if clock == nil {
		clock = time.Now
	}
	cost := opts.BcryptCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &Service{
		store:    store,
		clock:    clock,
		cost:     cost,
		notifier: opts.Notifier,
		logger:   logging.OrNop(opts.Logger),
	}
}

// Register creates a student account.
func (s *Service) Register(ctx context.Context, input RegisterInput) (model.User, error) {
	user, err := s.create(ctx, input.Email, input.Name, input.Password, model.RoleStudent, input.Locale)
	if err != nil {
		return model.User{}, err
	}
	notification.Dispatch(ctx, s.logger, s.notifier, notification.KeyWelcome, map[string]any{"Name": user.Name}, user.ID)
	return user, nil
}

// Create adds an account with any role. The role defaults to STUDENT.
func (s *Service) Create(ctx context.Context, actor access.Actor, input CreateInput) (model.User, error) {
	if !actor.IsAdmin() {
		return model.User{}, ErrAdminRequired
	}
	role := model.RoleStudent
	if strings.TrimSpace(input.Role) != "" {
		parsed, ok := model.ParseRole(input.Role)
		if !ok {
			return model.User{}, ErrInvalidRole
		}
		role = parsed
	}
	return s.create(ctx, input.Email, input.Name, input.Password, role, input.Locale)
}

// EnsureAdmin creates the bootstrap administrator unless the email exists.
func (s *Service) EnsureAdmin(ctx context.Context, email, name, password string) (model.User, bool, error) {
	if s == nil || s.store == nil {
		return model.User{}, false, ErrStoreNotConfigured
	}
	normalized, err := NormalizeEmail(email)
	if err != nil {
		return model.User{}, false, err
	}
	existing, err := s.store.GetUserByEmail(ctx, normalized)
	if err == nil {
		return sanitize(existing), false, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return model.User{}, false, err
	}
	user, err := s.create(ctx, normalized, name, password, model.RoleAdmin, "")
	if err != nil {
		return model.User{}, false, err
	}
	s.logger.Info("bootstrap admin created", zap.Int64("user_id", user.ID))
	return user, true, nil
}

func (s *Service) create(ctx context.Context, email, name, password string, role model.Role, locale string) (model.User, error) {
	if s == nil || s.store == nil {
		return model.User{}, ErrStoreNotConfigured
	}
	normalized, err := NormalizeEmail(email)
	if err != nil {
		return model.User{}, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return model.User{}, ErrNameRequired
	}
	hash, err := s.hash(password)
	if err != nil {
		return model.User{}, err
	}
	now := s.clock().UTC()
	user := model.User{
		Email:        normalized,
		Name:         name,
		PasswordHash: hash,
		Role:         role,
		Locale:       notification.NormalizeLocale(locale),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.store.CreateUser(ctx, &user); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			return model.User{}, ErrEmailInUse
		}
		return model.User{}, fmt.Errorf("create user: %w", err)
	}
	return sanitize(user), nil
}

// Authenticate returns the user whose email and password match.
func (s *Service) Authenticate(ctx context.Context, email, password string) (model.User, error) {
	if s == nil || s.store == nil {
		return model.User{}, ErrStoreNotConfigured
	}
	normalized, err := NormalizeEmail(email)
	if err != nil {
		return model.User{}, ErrInvalidCredentials
	}
	user, err := s.store.GetUserByEmail(ctx, normalized)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			_ = bcrypt.CompareHashAndPassword(s.unknownUserHash(), []byte(password))
			return model.User{}, ErrInvalidCredentials
		}
		return model.User{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return model.User{}, ErrInvalidCredentials
	}
	return sanitize(user), nil
}

func (s *Service) unknownUserHash() []byte {
	s.dummyOnce.Do(func() {
		hash, err := bcrypt.GenerateFromPassword([]byte("lms-unknown-user"), s.cost)
		if err != nil {
			s.logger.Warn("generate dummy password hash", zap.Error(err))
			return
		}
		s.dummyHash = hash
	})
	return s.dummyHash
}

// Lookup loads a user without an access check. The HTTP middleware uses it
// to refresh the authenticated principal.
func (s *Service) Lookup(ctx context.Context, id int64) (model.User, error) {
	if s == nil || s.store == nil {
		return model.User{}, ErrStoreNotConfigured
	}
	user, err := s.store.GetUser(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return model.User{}, ErrUserNotFound
		}
		return model.User{}, err
	}
	return sanitize(user), nil
}

// Get returns a user visible to the actor.
func (s *Service) Get(ctx context.Context, actor access.Actor, id int64) (model.User, error) {
	if err := access.RequireSelfOrAdmin(actor, id); err != nil {
		return model.User{}, err
	}
	return s.Lookup(ctx, id)
}

// List returns every user.
func (s *Service) List(ctx context.Context, actor access.Actor) ([]model.User, error) {
	if s == nil || s.store == nil {
		return nil, ErrStoreNotConfigured
	}
	if !actor.IsAdmin() {
		return nil, ErrAdminRequired
	}
	users, err := s.store.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	for i := range users {
		users[i] = sanitize(users[i])
	}
	return users, nil
}

// Update applies the set fields of input. Only administrators change roles.
func (s *Service) Update(ctx context.Context, actor access.Actor, id int64, input UpdateInput) (model.User, error) {
	if s == nil || s.store == nil {
		return model.User{}, ErrStoreNotConfigured
	}
	if err := access.RequireSelfOrAdmin(actor, id); err != nil {
		return model.User{}, err
	}
	user, err := s.store.GetUser(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return model.User{}, ErrUserNotFound
		}
		return model.User{}, err
	}
	if input.Email != nil {
		normalized, err := NormalizeEmail(*input.Email)
		if err != nil {
			return model.User{}, err
		}
		user.Email = normalized
	}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return model.User{}, ErrNameRequired
		}
		user.Name = name
	}
	if input.Password != nil {
		hash, err := s.hash(*input.Password)
		if err != nil {
			return model.User{}, err
		}
		user.PasswordHash = hash
	}
	if input.Role != nil {
		if !actor.IsAdmin() {
			return model.User{}, ErrAdminRequired
		}
		role, ok := model.ParseRole(*input.Role)
		if !ok {
			return model.User{}, ErrInvalidRole
		}
		user.Role = role
	}
	if input.Locale != nil {
		user.Locale = notification.NormalizeLocale(*input.Locale)
	}
	user.UpdatedAt = s.clock().UTC()
	if err := s.store.UpdateUser(ctx, user); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			return model.User{}, ErrEmailInUse
		}
		return model.User{}, fmt.Errorf("update user: %w", err)
	}
	return sanitize(user), nil
}

// Delete removes a user and everything the user owns.
func (s *Service) Delete(ctx context.Context, actor access.Actor, id int64) error {
	if s == nil || s.store == nil {
		return ErrStoreNotConfigured
	}
	if !actor.IsAdmin() {
		return ErrAdminRequired
	}
	if err := s.store.DeleteUser(ctx, id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	return nil
}

func (s *Service) hash(password string) (string, error) {
	if len(password) < MinPasswordLength {
		return "", ErrPasswordTooShort
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return "", ErrPasswordTooLong
	}
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// NormalizeEmail trims, lowercases and validates an email address.
func NormalizeEmail(value string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(value))
	if email == "" {
		return "", ErrEmailRequired
	}
	parsed, err := mail.ParseAddress(email)
	if err != nil || parsed.Address != email {
		return "", ErrEmailInvalid
	}
	return email, nil
}

func sanitize(user model.User) model.User {
	user.PasswordHash = ""
	return user
}
