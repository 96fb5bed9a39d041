package httpapi

import (
	"net/http"

	"github.com/louisbranch/lms/internal/services/lms/model"
)

// Allowed role sets. A nil set admits any authenticated user.
var (
	anyone   []model.Role
	admins   = []model.Role{model.RoleAdmin}
	staff    = []model.Role{model.RoleInstructor, model.RoleAdmin}
	students = []model.Role{model.RoleStudent}
)

func (h *Handler) routes(mux *http.ServeMux) {
	h.public(mux, "POST /auth/login", h.login)
	h.public(mux, "POST /auth/register", h.register)

	h.private(mux, "GET /user/me", anyone, h.currentUser)
	h.private(mux, "PUT /user/me", anyone, h.updateCurrentUser)
	h.private(mux, "GET /users", admins, h.listUsers)
	h.private(mux, "POST /users", admins, h.createUser)
	h.private(mux, "GET /users/{id}", admins, h.getUser)
	h.private(mux, "PUT /users/{id}", admins, h.updateUser)
	h.private(mux, "DELETE /users/{id}", admins, h.deleteUser)

	h.private(mux, "POST /courses", staff, h.createCourse)
	h.private(mux, "GET /courses", anyone, h.listCourses)
	h.private(mux, "GET /courses/{id}", anyone, h.getCourse)
	h.private(mux, "PUT /courses/{id}", staff, h.updateCourse)
	h.private(mux, "DELETE /courses/{id}", staff, h.deleteCourse)
	h.private(mux, "POST /courses/{id}/material", staff, h.uploadMaterials)
	h.private(mux, "GET /courses/{id}/material", anyone, h.downloadMaterials)

	h.private(mux, "POST /lessons", staff, h.createLesson)
	h.private(mux, "GET /lessons/courses/{courseId}", anyone, h.listLessons)
	h.private(mux, "GET /lessons/{id}", anyone, h.getLesson)
	h.private(mux, "PUT /lessons/{id}", staff, h.updateLesson)
	h.private(mux, "DELETE /lessons/{id}", staff, h.deleteLesson)

	h.private(mux, "POST /enrollments/courses/{courseId}", students, h.enroll)
	h.private(mux, "GET /enrollments", admins, h.listEnrollments)
	h.private(mux, "GET /enrollments/{id}", anyone, h.getEnrollment)
	h.private(mux, "PUT /enrollments/{id}", anyone, h.updateEnrollment)
	h.private(mux, "DELETE /enrollments/{id}", anyone, h.deleteEnrollment)
	h.private(mux, "GET /enrollments/courses/{courseId}", staff, h.listCourseEnrollments)
	h.private(mux, "GET /enrollments/students/{studentId}", anyone, h.listStudentEnrollments)
	h.private(mux, "GET /enrollments/students/{studentId}/courses/{courseId}", anyone, h.getStudentEnrollment)

	h.private(mux, "POST /questions", staff, h.createQuestion)
	h.private(mux, "GET /questions/course/{courseId}", staff, h.listQuestions)
	h.private(mux, "GET /questions/{id}", staff, h.getQuestion)
	h.private(mux, "DELETE /questions/{id}", staff, h.deleteQuestion)

	h.private(mux, "POST /quizzes", staff, h.generateQuiz)
	h.private(mux, "GET /quizzes/{quizId}", anyone, h.getQuiz)
	h.private(mux, "POST /quizzes/{quizId}/submit", students, h.submitQuiz)
	h.quizViews(mux,
		h.guard(staff, h.quizGrades),
		h.guard(anyone, h.listQuizzes))
	h.private(mux, "GET /students/me/quiz-grades", students, h.myQuizGrades)
	h.private(mux, "GET /students/{studentId}/quiz-grades", staff, h.studentQuizGrades)

	h.private(mux, "POST /assignments", staff, h.createAssignment)
	h.private(mux, "GET /assignments/{id}", anyone, h.getAssignment)
	h.private(mux, "GET /assignments/courses/{courseId}", anyone, h.listAssignments)
	h.private(mux, "PUT /assignments/{id}", staff, h.updateAssignment)
	h.private(mux, "DELETE /assignments/{id}", staff, h.deleteAssignment)

	h.private(mux, "POST /student-assignments", students, h.createSubmission)
	h.private(mux, "POST /student-assignments/submissions/{id}", students, h.attachSubmissionFiles)
	h.private(mux, "GET /student-assignments/submissions/{id}", anyone, h.downloadSubmissionFiles)
	h.private(mux, "GET /student-assignments/{id}", anyone, h.getSubmission)
	h.private(mux, "GET /student-assignments/courses/{courseId}", staff, h.listCourseSubmissions)
	h.private(mux, "GET /student-assignments/users/me/courses/{courseId}", students, h.listMyCourseSubmissions)
	h.private(mux, "GET /student-assignments/users/{userId}", anyone, h.listUserSubmissions)
	h.private(mux, "PUT /student-assignments/grade/{id}", staff, h.gradeSubmission)
	h.private(mux, "DELETE /student-assignments/{id}", admins, h.deleteSubmission)

	h.private(mux, "POST /student-lessons", students, h.recordAttendance)
	h.private(mux, "GET /student-lessons/students/me", students, h.myAttendance)
	h.private(mux, "GET /student-lessons/students/me/courses/{courseId}", students, h.myCourseAttendance)
	h.private(mux, "GET /student-lessons/students/{studentId}", staff, h.studentAttendance)
	h.private(mux, "GET /student-lessons/students/{studentId}/courses/{courseId}", staff, h.studentCourseAttendance)

	h.private(mux, "GET /notifications/{flag}", anyone, h.listNotifications)
	h.private(mux, "GET /notifications/id/{id}", anyone, h.readNotification)

	h.private(mux, "GET /analytics/courses/{courseId}", staff, h.coursePerformance)
	h.private(mux, "POST /analytics/courses/{courseId}/charts", staff, h.courseCharts)
	h.private(mux, "GET /analytics/courses/{courseId}/performance-report", staff, h.courseWorkbook)
	h.private(mux, "GET /analytics/courses/{courseId}/performance-report.pdf", staff, h.coursePDF)

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		h.fail(w, r, errRouteNotFound)
	})
}

// quizViews serves GET /quizzes/courses/{courseId} and
// GET /quizzes/{quizId}/grades, which ServeMux rejects as overlapping
// patterns when registered separately.
func (h *Handler) quizViews(mux *http.ServeMux, grades, byCourse http.Handler) {
	mux.HandleFunc("GET /quizzes/{first}/{second}", func(w http.ResponseWriter, r *http.Request) {
		first, second := r.PathValue("first"), r.PathValue("second")
		switch {
		case first == "courses":
			r.SetPathValue("courseId", second)
			byCourse.ServeHTTP(w, r)
		case second == "grades":
			r.SetPathValue("quizId", first)
			grades.ServeHTTP(w, r)
		default:
			h.fail(w, r, errRouteNotFound)
		}
	})
}
