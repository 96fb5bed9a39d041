package httpapi_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"golang.org/x/crypto/bcrypt"

	"github.com/louisbranch/lms/internal/platform/filestore"
	"github.com/louisbranch/lms/internal/platform/logging"
	httpapi "github.com/louisbranch/lms/internal/services/lms/api/http"
	"github.com/louisbranch/lms/internal/services/lms/app"
	"github.com/louisbranch/lms/internal/services/lms/authn"
	"github.com/louisbranch/lms/internal/services/lms/lmstest"
	"github.com/louisbranch/lms/internal/services/lms/model"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const password = "correct-horse"

type response struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Errors  []string        `json:"errors"`
}

type harness struct {
	t        *testing.T
	handler  http.Handler
	services httpapi.Services
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	store := lmstest.OpenStore(t)
	files, err := filestore.New(t.TempDir())
	require.NoError(t, err)
	services, err := app.NewServices(store, files, app.ServiceConfig{
		Auth:         authn.Config{Secret: "test-secret-0123456789", Issuer: "lms", TTL: time.Hour},
		MaxFileBytes: 64,
		BcryptCost:   bcrypt.MinCost,
		Clock:        lmstest.Clock(),
		Logger:       logging.Test(t),
	})
	require.NoError(t, err)
	handler := httpapi.NewHandler(services, httpapi.Options{
		MaxFileBytes:    64,
		MaxRequestBytes: 4096,
		Logger:          logging.Test(t),
	})
	return &harness{t: t, handler: handler, services: services}
}

func (h *harness) do(method, path, token string, body any) (*httptest.ResponseRecorder, response) {
	h.t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(h.t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return h.send(req, token)
}

func (h *harness) send(req *http.Request, token string) (*httptest.ResponseRecorder, response) {
	h.t.Helper()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	h.handler.ServeHTTP(rr, req)
	var env response
	if strings.HasPrefix(rr.Header().Get("Content-Type"), "application/json") {
		require.NoError(h.t, json.Unmarshal(rr.Body.Bytes(), &env))
	}
	return rr, env
}

func (h *harness) login(email string) string {
	h.t.Helper()
	rr, env := h.do(http.MethodPost, "/auth/login", "", map[string]string{"email": email, "password": password})
	require.Equal(h.t, http.StatusOK, rr.Code, rr.Body.String())
	var data struct {
		Token string `json:"token"`
	}
	decode(h.t, env, &data)
	return data.Token
}

// bootstrap creates an admin, an instructor and a student and logs them in.
func (h *harness) bootstrap() (admin, instructor, student string) {
	h.t.Helper()
	_, _, err := h.services.Accounts.EnsureAdmin(context.Background(), "admin@lms.test", "Admin", password)
	require.NoError(h.t, err)
	admin = h.login("admin@lms.test")

	rr, _ := h.do(http.MethodPost, "/users", admin, map[string]string{
		"email": "ines@lms.test", "name": "Ines", "password": password, "role": "instructor",
	})
	require.Equal(h.t, http.StatusCreated, rr.Code, rr.Body.String())
	instructor = h.login("ines@lms.test")

	rr, _ = h.do(http.MethodPost, "/auth/register", "", map[string]string{
		"email": "sam@lms.test", "name": "Sam", "password": password,
	})
	require.Equal(h.t, http.StatusCreated, rr.Code, rr.Body.String())
	student = h.login("sam@lms.test")
	return admin, instructor, student
}

func decode(t *testing.T, env response, target any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(env.Data, target))
}

func idOf(t *testing.T, env response) int64 {
	t.Helper()
	var data struct {
		ID int64 `json:"id"`
	}
	decode(t, env, &data)
	require.Positive(t, data.ID)
	return data.ID
}

func TestAuthentication(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	_, _, student := h.bootstrap()

	rr, env := h.do(http.MethodGet, "/user/me", student, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.True(t, env.Success)
	assert.Equal(t, []string{}, env.Errors)
	var me struct {
		Email string `json:"email"`
		Role  string `json:"role"`
	}
	decode(t, env, &me)
	assert.Equal(t, "sam@lms.test", me.Email)
	assert.Equal(t, string(model.RoleStudent), me.Role)

	t.Run("cookie", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/user/me", nil)
		req.AddCookie(&http.Cookie{Name: authn.CookieName, Value: student})
		rr, _ := h.send(req, "")
		assert.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("missing token", func(t *testing.T) {
		rr, env := h.do(http.MethodGet, "/user/me", "", nil)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		assert.False(t, env.Success)
		assert.NotEmpty(t, env.Errors)
	})

	t.Run("bad token", func(t *testing.T) {
		rr, _ := h.do(http.MethodGet, "/user/me", "not-a-jwt", nil)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("wrong password", func(t *testing.T) {
		rr, env := h.do(http.MethodPost, "/auth/login", "", map[string]string{"email": "sam@lms.test", "password": "nope-nope"})
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		assert.Equal(t, []string{env.Message}, env.Errors)
	})

	t.Run("login sets cookie", func(t *testing.T) {
		rr, _ := h.do(http.MethodPost, "/auth/login", "", map[string]string{"email": "sam@lms.test", "password": password})
		require.Equal(t, http.StatusOK, rr.Code)
		cookies := rr.Result().Cookies()
		require.Len(t, cookies, 1)
		assert.Equal(t, authn.CookieName, cookies[0].Name)
		assert.True(t, cookies[0].HttpOnly)
	})
}

func TestDeletedUserTokenIsRejected(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	admin, _, student := h.bootstrap()

	rr, env := h.do(http.MethodGet, "/user/me", student, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	id := idOf(t, env)

	rr, _ = h.do(http.MethodDelete, fmt.Sprintf("/users/%d", id), admin, nil)
	require.Equal(t, http.StatusOK, rr.Code)

	rr, _ = h.do(http.MethodGet, "/user/me", student, nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestRoleGating(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	_, instructor, student := h.bootstrap()

	tests := []struct {
		name   string
		method string
		path   string
		token  string
		want   int
	}{
		{"student cannot create course", http.MethodPost, "/courses", student, http.StatusForbidden},
		{"instructor cannot list users", http.MethodGet, "/users", instructor, http.StatusForbidden},
		{"instructor cannot enroll", http.MethodPost, "/enrollments/courses/1", instructor, http.StatusForbidden},
		{"student cannot read quiz grades", http.MethodGet, "/quizzes/1/grades", student, http.StatusForbidden},
		{"student cannot delete submission", http.MethodDelete, "/student-assignments/1", student, http.StatusForbidden},
		{"unknown route", http.MethodGet, "/nope", student, http.StatusNotFound},
		{"bad id", http.MethodGet, "/courses/abc", student, http.StatusBadRequest},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rr, env := h.do(tc.method, tc.path, tc.token, map[string]any{})
			assert.Equal(t, tc.want, rr.Code, rr.Body.String())
			assert.False(t, env.Success)
			assert.NotEmpty(t, env.Errors)
		})
	}
}

func TestCourseQuizFlow(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	_, instructor, student := h.bootstrap()

	rr, env := h.do(http.MethodPost, "/courses", instructor, map[string]string{
		"title": "Go Basics", "duration": "6 weeks", "description": "Intro",
	})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	courseID := idOf(t, env)

	answers := map[int64]string{}
	for i, answer := range []string{"goroutine", "channel", "defer"} {
		rr, env := h.do(http.MethodPost, "/questions", instructor, map[string]any{
			"courseId": courseID, "content": fmt.Sprintf("Question %d", i), "answer": answer, "type": "short_answer",
		})
		require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
		answers[idOf(t, env)] = answer
	}

	rr, _ = h.do(http.MethodPost, fmt.Sprintf("/enrollments/courses/%d", courseID), student, nil)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	rr, env = h.do(http.MethodPost, "/quizzes", instructor, map[string]any{"courseId": courseID, "numberOfQuestions": 5})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr, env = h.do(http.MethodPost, "/quizzes", instructor, map[string]any{"courseId": courseID, "numberOfQuestions": 2})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	quizID := idOf(t, env)

	var quiz struct {
		Questions []struct {
			ID     int64  `json:"id"`
			Answer string `json:"answer"`
		} `json:"questions"`
	}
	rr, env = h.do(http.MethodGet, fmt.Sprintf("/quizzes/%d", quizID), student, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	decode(t, env, &quiz)
	require.Len(t, quiz.Questions, 2)
	for _, q := range quiz.Questions {
		assert.Empty(t, q.Answer)
	}

	submit := map[string]any{"answers": []map[string]any{
		{"questionId": quiz.Questions[0].ID, "answer": "  " + strings.ToUpper(answers[quiz.Questions[0].ID])},
		{"questionId": quiz.Questions[1].ID, "answer": "wrong"},
	}}
	rr, env = h.do(http.MethodPost, fmt.Sprintf("/quizzes/%d/submit", quizID), student, submit)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var grade struct {
		Grade    float64 `json:"grade"`
		MaxGrade int     `json:"maxGrade"`
	}
	decode(t, env, &grade)
	assert.Equal(t, 1.0, grade.Grade)
	assert.Equal(t, 2, grade.MaxGrade)

	rr, _ = h.do(http.MethodPost, fmt.Sprintf("/quizzes/%d/submit", quizID), student, submit)
	assert.Equal(t, http.StatusConflict, rr.Code)

	var grades []struct {
		QuizID int64 `json:"quizId"`
	}
	rr, env = h.do(http.MethodGet, fmt.Sprintf("/quizzes/%d/grades", quizID), instructor, nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	decode(t, env, &grades)
	require.Len(t, grades, 1)

	rr, env = h.do(http.MethodGet, "/students/me/quiz-grades", student, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	decode(t, env, &grades)
	require.Len(t, grades, 1)
	assert.Equal(t, quizID, grades[0].QuizID)

	var quizzes []struct {
		ID int64 `json:"id"`
	}
	rr, env = h.do(http.MethodGet, fmt.Sprintf("/quizzes/courses/%d", courseID), student, nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	decode(t, env, &quizzes)
	require.Len(t, quizzes, 1)

	rr, _ = h.do(http.MethodGet, "/quizzes/1/other", student, nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	var inbox []struct {
		Message string `json:"message"`
	}
	rr, env = h.do(http.MethodGet, "/notifications/UNREAD", student, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	decode(t, env, &inbox)
	assert.NotEmpty(t, inbox)

	rr, env = h.do(http.MethodGet, fmt.Sprintf("/analytics/courses/%d", courseID), instructor, nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var rows []struct {
		StudentName string  `json:"studentName"`
		QuizAverage float64 `json:"quizAverage"`
	}
	decode(t, env, &rows)
	require.Len(t, rows, 1)
	assert.Equal(t, "Sam", rows[0].StudentName)
	assert.InDelta(t, 50.0, rows[0].QuizAverage, 0.001)

	rr, _ = h.do(http.MethodGet, fmt.Sprintf("/analytics/courses/%d/performance-report", courseID), instructor, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("Content-Disposition"), "performance_report.xlsx")

	rr, _ = h.do(http.MethodGet, fmt.Sprintf("/analytics/courses/%d/performance-report.pdf", courseID), instructor, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.True(t, bytes.HasPrefix(rr.Body.Bytes(), []byte("%PDF-")))
}

func multipartRequest(t *testing.T, path string, files map[string]string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	for name, content := range files {
		part, err := writer.CreateFormFile("files", name)
		require.NoError(t, err)
		_, err = part.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())
	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func TestMaterialsUploadAndDownload(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	_, instructor, student := h.bootstrap()

	rr, env := h.do(http.MethodPost, "/courses", instructor, map[string]string{"title": "Go Basics", "duration": "6 weeks"})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	courseID := idOf(t, env)
	materialPath := fmt.Sprintf("/courses/%d/material", courseID)

	rr, env = h.send(multipartRequest(t, materialPath, map[string]string{"notes.txt": "hello"}), instructor)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var course struct {
		Materials []string `json:"materials"`
	}
	decode(t, env, &course)
	assert.Equal(t, []string{fmt.Sprintf("%d_go-basics_notes.txt", courseID)}, course.Materials)

	rr, _ = h.send(multipartRequest(t, materialPath, map[string]string{"big.bin": strings.Repeat("x", 65)}), instructor)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rr.Code)

	rr, _ = h.send(multipartRequest(t, materialPath, map[string]string{"huge.bin": strings.Repeat("x", 5000)}), instructor)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rr.Code)

	rr, _ = h.do(http.MethodGet, materialPath, student, nil)
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr, _ = h.do(http.MethodPost, fmt.Sprintf("/enrollments/courses/%d", courseID), student, nil)
	require.Equal(t, http.StatusCreated, rr.Code)

	rr, _ = h.do(http.MethodGet, materialPath, student, nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, "application/zip", rr.Header().Get("Content-Type"))
	assert.Contains(t, rr.Header().Get("Content-Disposition"), fmt.Sprintf("course_%d_materials.zip", courseID))

	zr, err := zip.NewReader(bytes.NewReader(rr.Body.Bytes()), int64(rr.Body.Len()))
	require.NoError(t, err)
	require.Len(t, zr.File, 1)
	f, err := zr.File[0].Open()
	require.NoError(t, err)
	defer f.Close()
	content, err := io.ReadAll(f)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(content))
}

func TestSubmissionFlow(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	_, instructor, student := h.bootstrap()

	rr, env := h.do(http.MethodPost, "/courses", instructor, map[string]string{"title": "Go Basics", "duration": "6 weeks"})
	require.Equal(t, http.StatusCreated, rr.Code)
	courseID := idOf(t, env)
	rr, _ = h.do(http.MethodPost, fmt.Sprintf("/enrollments/courses/%d", courseID), student, nil)
	require.Equal(t, http.StatusCreated, rr.Code)

	rr, env = h.do(http.MethodPost, "/assignments", instructor, map[string]any{
		"courseId": courseID, "instructions": "Write a CLI", "maxGrade": 20,
	})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	assignmentID := idOf(t, env)

	rr, env = h.do(http.MethodPost, "/student-assignments", student, map[string]any{
		"assignmentId": assignmentID, "courseId": courseID,
	})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	submissionID := idOf(t, env)

	rr, _ = h.send(multipartRequest(t, fmt.Sprintf("/student-assignments/submissions/%d", submissionID),
		map[string]string{"main.go": "package main"}), student)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	rr, _ = h.do(http.MethodPut, fmt.Sprintf("/student-assignments/grade/%d", submissionID), instructor,
		map[string]any{"grade": 25, "feedback": "too high"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr, env = h.do(http.MethodPut, fmt.Sprintf("/student-assignments/grade/%d", submissionID), instructor,
		map[string]any{"grade": 15, "feedback": " good "})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var graded struct {
		Grade    *int64   `json:"grade"`
		Score    *float64 `json:"score"`
		Feedback string   `json:"feedback"`
	}
	decode(t, env, &graded)
	require.NotNil(t, graded.Grade)
	assert.EqualValues(t, 15, *graded.Grade)
	assert.InDelta(t, 75.0, *graded.Score, 0.001)
	assert.Equal(t, "good", graded.Feedback)

	rr, _ = h.do(http.MethodGet, fmt.Sprintf("/student-assignments/submissions/%d", submissionID), instructor, nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Contains(t, rr.Header().Get("Content-Disposition"), fmt.Sprintf("submission_%d_files.zip", submissionID))

	var mine []struct {
		ID int64 `json:"id"`
	}
	rr, env = h.do(http.MethodGet, fmt.Sprintf("/student-assignments/users/me/courses/%d", courseID), student, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	decode(t, env, &mine)
	require.Len(t, mine, 1)
	assert.Equal(t, submissionID, mine[0].ID)
}

func TestAttendanceFlow(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	_, instructor, student := h.bootstrap()

	rr, env := h.do(http.MethodPost, "/courses", instructor, map[string]string{"title": "Go Basics", "duration": "6 weeks"})
	require.Equal(t, http.StatusCreated, rr.Code)
	courseID := idOf(t, env)
	rr, env = h.do(http.MethodPost, "/lessons", instructor, map[string]any{"courseId": courseID, "title": "Week 1", "otp": "4821"})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	lessonID := idOf(t, env)

	var lesson struct {
		OTP string `json:"otp"`
	}
	rr, env = h.do(http.MethodGet, fmt.Sprintf("/lessons/%d", lessonID), student, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	decode(t, env, &lesson)
	assert.Empty(t, lesson.OTP)

	rr, _ = h.do(http.MethodPost, fmt.Sprintf("/enrollments/courses/%d", courseID), student, nil)
	require.Equal(t, http.StatusCreated, rr.Code)

	rr, _ = h.do(http.MethodPost, "/student-lessons", student, map[string]any{"lessonId": lessonID, "otp": "0000"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	rr, _ = h.do(http.MethodPost, "/student-lessons", student, map[string]any{"lessonId": lessonID, "otp": "4821"})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	rr, _ = h.do(http.MethodPost, "/student-lessons", student, map[string]any{"lessonId": lessonID, "otp": "4821"})
	assert.Equal(t, http.StatusConflict, rr.Code)

	var records []struct {
		LessonID int64 `json:"lessonId"`
	}
	rr, env = h.do(http.MethodGet, fmt.Sprintf("/student-lessons/students/me/courses/%d", courseID), student, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	decode(t, env, &records)
	require.Len(t, records, 1)
	assert.Equal(t, lessonID, records[0].LessonID)
}

func TestEnrollmentByIDAndNotificationRoutes(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	_, instructor, student := h.bootstrap()

	rr, env := h.do(http.MethodPost, "/courses", instructor, map[string]string{
		"title": "Intro/Advanced Go", "duration": "4 weeks", "description": "Deep dive",
	})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	courseID := idOf(t, env)
	rr, env = h.do(http.MethodPost, fmt.Sprintf("/enrollments/courses/%d", courseID), student, nil)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	enrollmentPath := fmt.Sprintf("/enrollments/%d", idOf(t, env))

	var enrollment struct {
		CourseID  int64 `json:"courseId"`
		Completed bool  `json:"completed"`
	}
	rr, env = h.do(http.MethodGet, enrollmentPath, student, nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	decode(t, env, &enrollment)
	assert.Equal(t, courseID, enrollment.CourseID)
	assert.False(t, enrollment.Completed)

	rr, _ = h.do(http.MethodPut, enrollmentPath, student, map[string]bool{"completed": true})
	assert.Equal(t, http.StatusForbidden, rr.Code, "only the instructor completes a course")
	rr, env = h.do(http.MethodPut, enrollmentPath, instructor, map[string]any{})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.False(t, env.Success)
	rr, env = h.do(http.MethodPut, enrollmentPath, instructor, map[string]bool{"completed": true})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	decode(t, env, &enrollment)
	assert.True(t, enrollment.Completed)

	chartsPath := fmt.Sprintf("/analytics/courses/%d/charts", courseID)
	rr, _ = h.do(http.MethodPost, chartsPath, student, nil)
	assert.Equal(t, http.StatusForbidden, rr.Code)
	rr, _ = h.do(http.MethodPost, chartsPath, instructor, nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, "application/zip", rr.Header().Get("Content-Type"))
	assert.Contains(t, rr.Header().Get("Content-Disposition"), "charts_archive.zip")
	zr, err := zip.NewReader(bytes.NewReader(rr.Body.Bytes()), int64(rr.Body.Len()))
	require.NoError(t, err)
	assert.Len(t, zr.File, 4)

	var notices []struct {
		ID   int64 `json:"id"`
		Read bool  `json:"read"`
	}
	rr, env = h.do(http.MethodGet, "/notifications/UNREAD", student, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	decode(t, env, &notices)
	require.NotEmpty(t, notices)
	noticePath := fmt.Sprintf("/notifications/id/%d", notices[0].ID)

	rr, _ = h.do(http.MethodGet, noticePath, instructor, nil)
	assert.Equal(t, http.StatusNotFound, rr.Code, "other users cannot read it")
	var notice struct {
		Read   bool    `json:"read"`
		ReadAt *string `json:"readAt"`
	}
	rr, env = h.do(http.MethodGet, noticePath, student, nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.True(t, env.Success)
	decode(t, env, &notice)
	assert.True(t, notice.Read)
	assert.NotNil(t, notice.ReadAt)

	rr, env = h.do(http.MethodDelete, enrollmentPath, student, nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.True(t, env.Success)
	rr, _ = h.do(http.MethodGet, enrollmentPath, student, nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}
