package notification

import "github.com/nicksnyder/go-i18n/v2/i18n"

var englishMessages = []*i18n.Message{
	{ID: keyEmailSubject, Other: defaultEmailSubject},
	{ID: KeyWelcome, Other: "Welcome to the LMS, {{.Name}}."},
	{ID: KeyCourseUpdated, Other: "Course updated: {{.Title}}."},
	{ID: KeyLessonCreated, Other: "Lesson {{.Lesson}} was added to {{.Course}}."},
	{ID: KeyLessonUpdated, Other: "Lesson {{.Lesson}} in {{.Course}} was updated."},
	{ID: KeyLessonDeleted, Other: "Lesson {{.Lesson}} was removed from {{.Course}}."},
	{ID: KeyEnrollmentStudent, Other: "You are enrolled in {{.Course}}."},
	{ID: KeyEnrollmentInstructor, Other: "{{.Student}} enrolled in {{.Course}}."},
	{ID: KeyUnenrollmentStudent, Other: "Your enrollment in {{.Course}} was removed."},
	{ID: KeyUnenrollmentInstructor, Other: "{{.Student}} left {{.Course}}."},
	{ID: KeyQuestionCreated, Other: "A question was added to the {{.Course}} bank."},
	{ID: KeyAssignmentCreated, Other: "New assignment in {{.Course}}."},
	{ID: KeyAssignmentUpdated, Other: "An assignment in {{.Course}} was updated."},
	{ID: KeyAssignmentDeleted, Other: "An assignment in {{.Course}} was removed."},
	{ID: KeySubmissionGraded, Other: "Your submission in {{.Course}} was graded {{.Grade}}/{{.MaxGrade}}."},
}
