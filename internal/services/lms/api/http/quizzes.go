package httpapi

import (
	"net/http"

	"github.com/louisbranch/lms/internal/services/lms/access"
	"github.com/louisbranch/lms/internal/services/lms/question"
	"github.com/louisbranch/lms/internal/services/lms/quiz"
)

type createQuestionRequest struct {
	CourseID int64  `json:"courseId"`
	Content  string `json:"content"`
	Answer   string `json:"answer"`
	Type     string `json:"type"`
}

type generateQuizRequest struct {
	CourseID          int64 `json:"courseId"`
	NumberOfQuestions int   `json:"numberOfQuestions"`
}

type submitQuizRequest struct {
	Answers []struct {
		QuestionID int64  `json:"questionId"`
		Answer     string `json:"answer"`
	} `json:"answers"`
}

func (h *Handler) createQuestion(w http.ResponseWriter, r *http.Request, actor access.Actor) error {
	var req createQuestionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return err
	}
	created, err := h.svc.Questions.Create(r.Context(), actor, question.CreateInput{
		CourseID: req.CourseID,
		Content:  req.Content,
		Answer:   req.Answer,
		Type:     req.Type,
	})
	if err != nil {
		return err
	}
	respond(w, http.StatusCreated, "Question created successfully", toQuestion(created))
	return nil
}

// listQuestions accepts an optional ?type= filter.
func (h *Handler) listQuestions(w http.ResponseWriter, r *http.Request, actor access.Actor) error {
	courseID, err := pathID(r, "courseId")
	if err != nil {
		return err
	}
	questions, err := h.svc.Questions.ListByCourse(r.Context(), actor, courseID, r.URL.Query().Get("type"))
	if err != nil {
		return err
	}
	respond(w, http.StatusOK, "Questions retrieved successfully", mapSlice(questions, toQuestion))
	return nil
}

func (h *Handler) getQuestion(w http.ResponseWriter, r *http.Request, actor access.Actor) error {
	id, err := pathID(r, "id")
	if err != nil {
		return err
	}
	found, err := h.svc.Questions.Get(r.Context(), actor, id)
	if err != nil {
		return err
	}
	respond(w, http.StatusOK, "Question retrieved successfully", toQuestion(found))
	return nil
}

func (h *Handler) deleteQuestion(w http.ResponseWriter, r *http.Request, actor access.Actor) error {
	id, err := pathID(r, "id")
	if err != nil {
		return err
	}
	if err := h.svc.Questions.Delete(r.Context(), actor, id); err != nil {
		return err
	}
	respond(w, http.StatusOK, "Question deleted successfully", nil)
	return nil
}

func (h *Handler) generateQuiz(w http.ResponseWriter, r *http.Request, actor access.Actor) error {
	var req generateQuizRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return err
	}
	generated, err := h.svc.Quizzes.Generate(r.Context(), actor, req.CourseID, req.NumberOfQuestions)
	if err != nil {
		return err
	}
	respond(w, http.StatusCreated, "Quiz generated successfully", toQuiz(generated))
	return nil
}

func (h *Handler) getQuiz(w http.ResponseWriter, r *http.Request, actor access.Actor) error {
	id, err := pathID(r, "quizId")
	if err != nil {
		return err
	}
	found, err := h.svc.Quizzes.Get(r.Context(), actor, id)
	if err != nil {
		return err
	}
	respond(w, http.StatusOK, "Quiz retrieved successfully", toQuiz(found))
	return nil
}

func (h *Handler) listQuizzes(w http.ResponseWriter, r *http.Request, actor access.Actor) error {
	courseID, err := pathID(r, "courseId")
	if err != nil {
		return err
	}
	quizzes, err := h.svc.Quizzes.ListByCourse(r.Context(), actor, courseID)
	if err != nil {
		return err
	}
	respond(w, http.StatusOK, "Quizzes retrieved successfully", mapSlice(quizzes, toQuiz))
	return nil
}

func (h *Handler) submitQuiz(w http.ResponseWriter, r *http.Request, actor access.Actor) error {
	id, err := pathID(r, "quizId")
	if err != nil {
		return err
	}
	var req submitQuizRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return err
	}
	answers := make([]quiz.Answer, 0, len(req.Answers))
	for _, answer := range req.Answers {
		answers = append(answers, quiz.Answer{QuestionID: answer.QuestionID, Answer: answer.Answer})
	}
	attempt, err := h.svc.Quizzes.Submit(r.Context(), actor, id, answers)
	if err != nil {
		return err
	}
	respond(w, http.StatusOK, "Quiz submitted successfully", toGrade(attempt))
	return nil
}

func (h *Handler) quizGrades(w http.ResponseWriter, r *http.Request, actor access.Actor) error {
	id, err := pathID(r, "quizId")
	if err != nil {
		return err
	}
	attempts, err := h.svc.Quizzes.Grades(r.Context(), actor, id)
	if err != nil {
		return err
	}
	respond(w, http.StatusOK, "Quiz grades retrieved successfully", mapSlice(attempts, toGrade))
	return nil
}

func (h *Handler) myQuizGrades(w http.ResponseWriter, r *http.Request, actor access.Actor) error {
	return h.writeStudentGrades(w, r, actor, actor.UserID)
}

func (h *Handler) studentQuizGrades(w http.ResponseWriter, r *http.Request, actor access.Actor) error {
	studentID, err := pathID(r, "studentId")
	if err != nil {
		return err
	}
	return h.writeStudentGrades(w, r, actor, studentID)
}

func (h *Handler) writeStudentGrades(w http.ResponseWriter, r *http.Request, actor access.Actor, studentID int64) error {
	attempts, err := h.svc.Quizzes.StudentGrades(r.Context(), actor, studentID)
	if err != nil {
		return err
	}
	respond(w, http.StatusOK, "Quiz grades retrieved successfully", mapSlice(attempts, toGrade))
	return nil
}
