package course_test

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/louisbranch/lms/internal/platform/archive"
	apperrors "github.com/louisbranch/lms/internal/platform/errors"
	"github.com/louisbranch/lms/internal/platform/filestore"
	"github.com/louisbranch/lms/internal/platform/logging"
	"github.com/louisbranch/lms/internal/services/lms/access"
	"github.com/louisbranch/lms/internal/services/lms/course"
	"github.com/louisbranch/lms/internal/services/lms/lmstest"
	"github.com/louisbranch/lms/internal/services/lms/model"
	"github.com/louisbranch/lms/internal/services/lms/notification"
	"github.com/louisbranch/lms/internal/services/lms/storage/sqlstore"
	"github.com/louisbranch/lms/internal/services/lms/submission"
)

type fixture struct {
	svc        *course.Service
	store      *sqlstore.Store
	files      *filestore.Store
	notifier   *lmstest.Notifier
	instructor model.User
	student    model.User
	admin      model.User
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	store := lmstest.OpenStore(t)
	files, err := filestore.New(t.TempDir())
	require.NoError(t, err)
	notifier := &lmstest.Notifier{}
	return fixture{
		svc:        course.NewService(store, files, lmstest.Clock(), course.Options{MaxFileBytes: 16, Notifier: notifier, Logger: logging.Test(t)}),
		store:      store,
		files:      files,
		notifier:   notifier,
		instructor: lmstest.CreateUser(t, store, "ines@example.com", model.RoleInstructor),
		student:    lmstest.CreateUser(t, store, "student@example.com", model.RoleStudent),
		admin:      lmstest.CreateUser(t, store, "admin@example.com", model.RoleAdmin),
	}
}

func TestCreateByRole(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t)

	created, err := f.svc.Create(ctx, lmstest.Actor(f.instructor), course.CreateInput{Title: " Go 101 ", Duration: "4w"})
	require.NoError(t, err)
	assert.Equal(t, "Go 101", created.Title)
	assert.Equal(t, f.instructor.ID, created.InstructorID)
	assert.Equal(t, f.instructor.Name, created.InstructorName)

	_, err = f.svc.Create(ctx, lmstest.Actor(f.student), course.CreateInput{Title: "Nope"})
	require.ErrorIs(t, err, course.ErrCreateNotAllowed)

	_, err = f.svc.Create(ctx, lmstest.Actor(f.instructor), course.CreateInput{Title: "  "})
	require.ErrorIs(t, err, course.ErrTitleRequired)

	_, err = f.svc.Create(ctx, lmstest.Actor(f.admin), course.CreateInput{Title: "Admin course"})
	require.ErrorIs(t, err, course.ErrInstructorRequired)
	_, err = f.svc.Create(ctx, lmstest.Actor(f.admin), course.CreateInput{Title: "Admin course", InstructorID: f.student.ID})
	require.ErrorIs(t, err, course.ErrInstructorRequired)

	byAdmin, err := f.svc.Create(ctx, lmstest.Actor(f.admin), course.CreateInput{Title: "Admin course", InstructorID: f.instructor.ID})
	require.NoError(t, err)
	assert.Equal(t, f.instructor.ID, byAdmin.InstructorID)

	list, err := f.svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestUpdateNotifiesOnTitleChange(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t)
	c := lmstest.CreateCourse(t, f.store, f.instructor.ID, "Databases")
	other := lmstest.CreateUser(t, f.store, "other@example.com", model.RoleInstructor)

	title := "Advanced Databases"
	_, err := f.svc.Update(ctx, lmstest.Actor(other), c.ID, course.UpdateInput{Title: &title})
	require.True(t, apperrors.HasCode(err, apperrors.CodePermissionDenied))

	description := "joins and indexes"
	updated, err := f.svc.Update(ctx, lmstest.Actor(f.instructor), c.ID, course.UpdateInput{Description: &description})
	require.NoError(t, err)
	assert.Equal(t, "Databases", updated.Title)
	assert.Empty(t, f.notifier.Recipients(notification.KeyCourseUpdated))

	updated, err = f.svc.Update(ctx, lmstest.Actor(f.admin), c.ID, course.UpdateInput{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, title, updated.Title)
	assert.Equal(t, description, updated.Description)
	assert.Equal(t, []int64{f.instructor.ID}, f.notifier.Recipients(notification.KeyCourseUpdated))

	_, err = f.svc.Get(ctx, 9999)
	require.ErrorIs(t, err, course.ErrCourseNotFound)
}

func TestMaterialsUploadAndAccess(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t)
	c := lmstest.CreateCourse(t, f.store, f.instructor.ID, "Intro to Go")

	updated, err := f.svc.AddMaterials(ctx, lmstest.Actor(f.instructor), c.ID, []filestore.Upload{
		{Name: "slides.pdf", Body: strings.NewReader("pdf")},
		{Name: "dir/notes.txt", Body: strings.NewReader("notes")},
	})
	require.NoError(t, err)
	prefix := "1_intro-to-go_"
	assert.Equal(t, []string{prefix + "slides.pdf", prefix + "notes.txt"}, updated.Materials)

	_, _, err = f.svc.Materials(ctx, lmstest.Actor(f.student), c.ID)
	require.ErrorIs(t, err, course.ErrNotEnrolled)

	lmstest.Enroll(t, f.store, f.student.ID, c.ID)
	_, entries, err := f.svc.Materials(ctx, lmstest.Actor(f.student), c.ID)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	var buf bytes.Buffer
	require.NoError(t, archive.Write(&buf, entries))
	assert.Positive(t, buf.Len())

	rc, err := entries[1].Open()
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, rc.Close())
	require.NoError(t, err)
	assert.Equal(t, "notes", string(data))

	other := lmstest.CreateUser(t, f.store, "other@example.com", model.RoleInstructor)
	_, _, err = f.svc.Materials(ctx, lmstest.Actor(other), c.ID)
	require.True(t, apperrors.HasCode(err, apperrors.CodePermissionDenied))
}

func TestAddMaterialsRejectsOversizedAndCleansUp(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t)
	c := lmstest.CreateCourse(t, f.store, f.instructor.ID, "Big")

	_, err := f.svc.AddMaterials(ctx, lmstest.Actor(f.instructor), c.ID, []filestore.Upload{
		{Name: "ok.txt", Body: strings.NewReader("small")},
		{Name: "big.txt", Body: strings.NewReader(strings.Repeat("x", 17))},
	})
	require.True(t, apperrors.HasCode(err, apperrors.CodePayloadTooLarge))

	_, err = f.files.Open(course.MaterialsCategory, "1_big_ok.txt")
	require.ErrorIs(t, err, filestore.ErrNotFound)

	loaded, err := f.svc.Get(ctx, c.ID)
	require.NoError(t, err)
	assert.Empty(t, loaded.Materials)

	_, err = f.svc.AddMaterials(ctx, lmstest.Actor(f.instructor), c.ID, nil)
	require.ErrorIs(t, err, course.ErrNoFiles)
}

func TestDeleteRemovesCourseAndFiles(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t)
	c := lmstest.CreateCourse(t, f.store, f.instructor.ID, "Temp")
	updated, err := f.svc.AddMaterials(ctx, lmstest.Actor(f.instructor), c.ID, []filestore.Upload{{Name: "a.txt", Body: strings.NewReader("a")}})
	require.NoError(t, err)

	lmstest.Enroll(t, f.store, f.student.ID, c.ID)
	work := model.Assignment{CourseID: c.ID, Instructions: "essay", MaxGrade: 10, CreatedAt: lmstest.Now, UpdatedAt: lmstest.Now}
	require.NoError(t, f.store.CreateAssignment(ctx, &work))
	answer, err := f.files.Save(submission.FilesCategory, "essay.txt", strings.NewReader("e"), 0)
	require.NoError(t, err)
	require.NoError(t, f.store.CreateSubmission(ctx, &model.Submission{
		AssignmentID: work.ID, CourseID: c.ID, StudentID: f.student.ID, Files: []string{answer},
		CreatedAt: lmstest.Now, UpdatedAt: lmstest.Now,
	}))

	require.True(t, apperrors.HasCode(f.svc.Delete(ctx, access.Actor{UserID: f.student.ID, Role: model.RoleStudent}, c.ID), apperrors.CodePermissionDenied))
	require.NoError(t, f.svc.Delete(ctx, lmstest.Actor(f.instructor), c.ID))

	_, err = f.svc.Get(ctx, c.ID)
	require.ErrorIs(t, err, course.ErrCourseNotFound)
	_, err = f.files.Open(course.MaterialsCategory, updated.Materials[0])
	require.ErrorIs(t, err, filestore.ErrNotFound)
	_, err = f.files.Open(submission.FilesCategory, answer)
	require.ErrorIs(t, err, filestore.ErrNotFound, "submission files go with the course")
}
