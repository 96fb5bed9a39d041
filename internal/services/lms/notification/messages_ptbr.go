package notification

import "github.com/nicksnyder/go-i18n/v2/i18n"

var portugueseMessages = []*i18n.Message{
	{ID: keyEmailSubject, Other: "Notificação do LMS"},
	{ID: KeyWelcome, Other: "Boas-vindas ao LMS, {{.Name}}."},
	{ID: KeyCourseUpdated, Other: "Curso atualizado: {{.Title}}."},
	{ID: KeyLessonCreated, Other: "A aula {{.Lesson}} foi adicionada a {{.Course}}."},
	{ID: KeyLessonUpdated, Other: "A aula {{.Lesson}} de {{.Course}} foi atualizada."},
	{ID: KeyLessonDeleted, Other: "A aula {{.Lesson}} foi removida de {{.Course}}."},
	{ID: KeyEnrollmentStudent, Other: "Você está matriculado em {{.Course}}."},
	{ID: KeyEnrollmentInstructor, Other: "{{.Student}} se matriculou em {{.Course}}."},
	{ID: KeyUnenrollmentStudent, Other: "Sua matrícula em {{.Course}} foi removida."},
	{ID: KeyUnenrollmentInstructor, Other: "{{.Student}} saiu de {{.Course}}."},
	{ID: KeyQuestionCreated, Other: "Uma questão foi adicionada ao banco de {{.Course}}."},
	{ID: KeyAssignmentCreated, Other: "Nova tarefa em {{.Course}}."},
	{ID: KeyAssignmentUpdated, Other: "Uma tarefa de {{.Course}} foi atualizada."},
	{ID: KeyAssignmentDeleted, Other: "Uma tarefa de {{.Course}} foi removida."},
	{ID: KeySubmissionGraded, Other: "Sua entrega em {{.Course}} recebeu nota {{.Grade}}/{{.MaxGrade}}."},
}
