package account_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	apperrors "github.com/louisbranch/lms/internal/platform/errors"
	"github.com/louisbranch/lms/internal/platform/logging"
	"github.com/louisbranch/lms/internal/services/lms/access"
	"github.com/louisbranch/lms/internal/services/lms/account"
	"github.com/louisbranch/lms/internal/services/lms/lmstest"
	"github.com/louisbranch/lms/internal/services/lms/model"
	"github.com/louisbranch/lms/internal/services/lms/notification"
)

var admin = access.Actor{UserID: 1, Role: model.RoleAdmin}

func newService(t *testing.T) (*account.Service, *lmstest.Notifier) {
	t.Helper()
	notifier := &lmstest.Notifier{}
	svc := account.NewService(lmstest.OpenStore(t), lmstest.Clock(), account.Options{
		BcryptCost: bcrypt.MinCost,
		Notifier:   notifier,
		Logger:     logging.Test(t),
	})
	return svc, notifier
}

func TestRegisterCreatesStudentAndAuthenticates(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc, notifier := newService(t)

	user, err := svc.Register(ctx, account.RegisterInput{Email: "  Ada@Example.com ", Name: " Ada ", Password: "correct horse", Locale: "pt-BR"})
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", user.Email)
	assert.Equal(t, "Ada", user.Name)
	assert.Equal(t, model.RoleStudent, user.Role)
	assert.Equal(t, "pt-BR", user.Locale)
	assert.Empty(t, user.PasswordHash)
	assert.Equal(t, []int64{user.ID}, notifier.Recipients(notification.KeyWelcome))

	got, err := svc.Authenticate(ctx, "ADA@example.com", "correct horse")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)
	assert.Empty(t, got.PasswordHash)

	_, err = svc.Authenticate(ctx, "ada@example.com", "wrong password")
	require.ErrorIs(t, err, account.ErrInvalidCredentials)
	_, err = svc.Authenticate(ctx, "nobody@example.com", "correct horse")
	require.ErrorIs(t, err, account.ErrInvalidCredentials)
}

func TestRegisterValidation(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc, _ := newService(t)

	tests := []struct {
		name  string
		input account.RegisterInput
		want  error
	}{
		{name: "missing email", input: account.RegisterInput{Name: "A", Password: "password1"}, want: account.ErrEmailRequired},
		{name: "invalid email", input: account.RegisterInput{Email: "not-an-email", Name: "A", Password: "password1"}, want: account.ErrEmailInvalid},
		{name: "display name email", input: account.RegisterInput{Email: "Ada <ada@example.com>", Name: "A", Password: "password1"}, want: account.ErrEmailInvalid},
		{name: "missing name", input: account.RegisterInput{Email: "a@example.com", Name: "  ", Password: "password1"}, want: account.ErrNameRequired},
		{name: "short password", input: account.RegisterInput{Email: "a@example.com", Name: "A", Password: "short"}, want: account.ErrPasswordTooShort},
		{name: "long password", input: account.RegisterInput{Email: "a@example.com", Name: "A", Password: strings.Repeat("x", 80)}, want: account.ErrPasswordTooLong},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Register(ctx, tc.input)
			require.ErrorIs(t, err, tc.want)
			assert.Equal(t, 400, apperrors.HTTPStatus(err))
		})
	}
}

func TestEmailUniqueness(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc, _ := newService(t)

	first, err := svc.Register(ctx, account.RegisterInput{Email: "a@example.com", Name: "A", Password: "password1"})
	require.NoError(t, err)
	_, err = svc.Register(ctx, account.RegisterInput{Email: "A@EXAMPLE.COM", Name: "B", Password: "password1"})
	require.True(t, apperrors.HasCode(err, apperrors.CodeEmailInUse))

	second, err := svc.Register(ctx, account.RegisterInput{Email: "b@example.com", Name: "B", Password: "password1"})
	require.NoError(t, err)
	taken := first.Email
	_, err = svc.Update(ctx, lmstest.Actor(second), second.ID, account.UpdateInput{Email: &taken})
	require.ErrorIs(t, err, account.ErrEmailInUse)
}

func TestCreateRequiresAdminAndParsesRole(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc, _ := newService(t)

	_, err := svc.Create(ctx, access.Actor{UserID: 2, Role: model.RoleInstructor}, account.CreateInput{Email: "i@example.com", Name: "I", Password: "password1"})
	require.ErrorIs(t, err, account.ErrAdminRequired)

	_, err = svc.Create(ctx, admin, account.CreateInput{Email: "i@example.com", Name: "I", Password: "password1", Role: "teacher"})
	require.ErrorIs(t, err, account.ErrInvalidRole)

	instructor, err := svc.Create(ctx, admin, account.CreateInput{Email: "i@example.com", Name: "I", Password: "password1", Role: "instructor"})
	require.NoError(t, err)
	assert.Equal(t, model.RoleInstructor, instructor.Role)

	student, err := svc.Create(ctx, admin, account.CreateInput{Email: "s@example.com", Name: "S", Password: "password1"})
	require.NoError(t, err)
	assert.Equal(t, model.RoleStudent, student.Role)

	users, err := svc.List(ctx, admin)
	require.NoError(t, err)
	require.Len(t, users, 2)
	for _, user := range users {
		assert.Empty(t, user.PasswordHash)
	}
}

func TestUpdateAccessAndPasswordRehash(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc, _ := newService(t)

	user, err := svc.Register(ctx, account.RegisterInput{Email: "u@example.com", Name: "U", Password: "password1"})
	require.NoError(t, err)
	other, err := svc.Register(ctx, account.RegisterInput{Email: "o@example.com", Name: "O", Password: "password1"})
	require.NoError(t, err)

	name := "Other Name"
	_, err = svc.Update(ctx, lmstest.Actor(other), user.ID, account.UpdateInput{Name: &name})
	require.True(t, apperrors.HasCode(err, apperrors.CodePermissionDenied))

	role := "ADMIN"
	_, err = svc.Update(ctx, lmstest.Actor(user), user.ID, account.UpdateInput{Role: &role})
	require.ErrorIs(t, err, account.ErrAdminRequired)

	password := "new password"
	updated, err := svc.Update(ctx, lmstest.Actor(user), user.ID, account.UpdateInput{Name: &name, Password: &password})
	require.NoError(t, err)
	assert.Equal(t, name, updated.Name)

	_, err = svc.Authenticate(ctx, "u@example.com", "password1")
	require.ErrorIs(t, err, account.ErrInvalidCredentials)
	_, err = svc.Authenticate(ctx, "u@example.com", "new password")
	require.NoError(t, err)

	promoted, err := svc.Update(ctx, admin, user.ID, account.UpdateInput{Role: &role})
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, promoted.Role)
}

func TestGetAndDelete(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc, _ := newService(t)

	user, err := svc.Register(ctx, account.RegisterInput{Email: "u@example.com", Name: "U", Password: "password1"})
	require.NoError(t, err)

	got, err := svc.Get(ctx, lmstest.Actor(user), user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.Email, got.Email)

	_, err = svc.Get(ctx, access.Actor{UserID: user.ID + 1, Role: model.RoleStudent}, user.ID)
	require.True(t, apperrors.HasCode(err, apperrors.CodePermissionDenied))

	require.ErrorIs(t, svc.Delete(ctx, lmstest.Actor(user), user.ID), account.ErrAdminRequired)
	require.NoError(t, svc.Delete(ctx, admin, user.ID))
	require.ErrorIs(t, svc.Delete(ctx, admin, user.ID), account.ErrUserNotFound)
	_, err = svc.Get(ctx, admin, user.ID)
	require.ErrorIs(t, err, account.ErrUserNotFound)
}

func TestEnsureAdminIsIdempotent(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc, _ := newService(t)

	first, created, err := svc.EnsureAdmin(ctx, "root@example.com", "Root", "password1")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, model.RoleAdmin, first.Role)

	second, created, err := svc.EnsureAdmin(ctx, "ROOT@example.com", "Root", "password1")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)
}
