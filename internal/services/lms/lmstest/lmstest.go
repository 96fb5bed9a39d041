// Package lmstest provides sqlite-backed fixtures for LMS package tests.
package lmstest

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/louisbranch/lms/internal/platform/storage/sqldb"
	"github.com/louisbranch/lms/internal/services/lms/access"
	"github.com/louisbranch/lms/internal/services/lms/model"
	"github.com/louisbranch/lms/internal/services/lms/storage/sqlstore"
)

// Now is the fixed time returned by Clock.
var Now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// Clock returns a clock fixed at Now.
func Clock() func() time.Time {
	return func() time.Time { return Now }
}

// OpenStore opens a migrated store in a temp directory.
func OpenStore(tb testing.TB) *sqlstore.Store {
	tb.Helper()
	path := filepath.Join(tb.TempDir(), "lms.db")
	store, err := sqlstore.Open(context.Background(), sqldb.Config{Driver: sqldb.DriverSQLite, DSN: path})
	require.NoError(tb, err)
	tb.Cleanup(func() { _ = store.Close() })
	return store
}

// CreateUser inserts a user with a placeholder password hash.
func CreateUser(tb testing.TB, store *sqlstore.Store, email string, role model.Role) model.User {
	tb.Helper()
	user := model.User{
		Email:        email,
		Name:         "Name " + email,
		PasswordHash: "hash",
		Role:         role,
		Locale:       "en",
		CreatedAt:    Now,
		UpdatedAt:    Now,
	}
	require.NoError(tb, store.CreateUser(context.Background(), &user))
	return user
}

// CreateCourse inserts a course taught by instructorID.
func CreateCourse(tb testing.TB, store *sqlstore.Store, instructorID int64, title string) model.Course {
	tb.Helper()
	course := model.Course{
		InstructorID: instructorID,
		Title:        title,
		Duration:     "6 weeks",
		Description:  title + " description",
		CreatedAt:    Now,
		UpdatedAt:    Now,
	}
	require.NoError(tb, store.CreateCourse(context.Background(), &course))
	loaded, err := store.GetCourse(context.Background(), course.ID)
	require.NoError(tb, err)
	return loaded
}

// Enroll inserts a confirmed enrollment.
func Enroll(tb testing.TB, store *sqlstore.Store, studentID, courseID int64) model.Enrollment {
	tb.Helper()
	enrollment := model.Enrollment{StudentID: studentID, CourseID: courseID, Confirmed: true, CreatedAt: Now, UpdatedAt: Now}
	require.NoError(tb, store.CreateEnrollment(context.Background(), &enrollment))
	return enrollment
}

// Actor returns the actor for user.
func Actor(user model.User) access.Actor {
	return access.Actor{UserID: user.ID, Role: user.Role}
}

// Notice is one recorded notification.
type Notice struct {
	UserID int64
	Key    string
	Data   map[string]any
}

// Notifier records notifications instead of storing them.
type Notifier struct {
	mu      sync.Mutex
	notices []Notice
	Err     error
}

// Notify records the notification and returns n.Err.
func (n *Notifier) Notify(_ context.Context, userID int64, key string, data map[string]any) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notices = append(n.notices, Notice{UserID: userID, Key: key, Data: data})
	return n.Err
}

// Notices returns the recorded notifications.
func (n *Notifier) Notices() []Notice {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]Notice(nil), n.notices...)
}

// Recipients returns the users notified with key.
func (n *Notifier) Recipients(key string) []int64 {
	var ids []int64
	for _, notice := range n.Notices() {
		if notice.Key == key {
			ids = append(ids, notice.UserID)
		}
	}
	return ids
}
