package httpapi

import (
	"net/http"

	"github.com/louisbranch/lms/internal/services/lms/access"
	"github.com/louisbranch/lms/internal/services/lms/assignment"
	"github.com/louisbranch/lms/internal/services/lms/submission"
)

type createAssignmentRequest struct {
	CourseID     int64  `json:"courseId"`
	Instructions string `json:"instructions"`
	MaxGrade     int    `json:"maxGrade"`
}

type updateAssignmentRequest struct {
	Instructions *string `json:"instructions"`
	MaxGrade     *int    `json:"maxGrade"`
}

type createSubmissionRequest struct {
	AssignmentID int64 `json:"assignmentId"`
	CourseID     int64 `json:"courseId"`
}

type gradeSubmissionRequest struct {
	Grade    int64  `json:"grade"`
	Feedback string `json:"feedback"`
}

func (h *Handler) createAssignment(w http.ResponseWriter, r *http.Request, actor access.Actor) error {
	var req createAssignmentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return err
	}
	created, err := h.svc.Assignments.Create(r.Context(), actor, assignment.CreateInput{
		CourseID:     req.CourseID,
		Instructions: req.Instructions,
		MaxGrade:     req.MaxGrade,
	})
	if err != nil {
		return err
	}
	respond(w, http.StatusCreated, "Assignment created successfully", toAssignment(created))
	return nil
}

func (h *Handler) getAssignment(w http.ResponseWriter, r *http.Request, _ access.Actor) error {
	id, err := pathID(r, "id")
	if err != nil {
		return err
	}
	found, err := h.svc.Assignments.Get(r.Context(), id)
	if err != nil {
		return err
	}
	respond(w, http.StatusOK, "Assignment retrieved successfully", toAssignment(found))
	return nil
}

func (h *Handler) listAssignments(w http.ResponseWriter, r *http.Request, _ access.Actor) error {
	courseID, err := pathID(r, "courseId")
	if err != nil {
		return err
	}
	assignments, err := h.svc.Assignments.ListByCourse(r.Context(), courseID)
	if err != nil {
		return err
	}
	respond(w, http.StatusOK, "Assignments retrieved successfully", mapSlice(assignments, toAssignment))
	return nil
}

func (h *Handler) updateAssignment(w http.ResponseWriter, r *http.Request, actor access.Actor) error {
	id, err := pathID(r, "id")
	if err != nil {
		return err
	}
	var req updateAssignmentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return err
	}
	updated, err := h.svc.Assignments.Update(r.Context(), actor, id, assignment.UpdateInput{
		Instructions: req.Instructions,
		MaxGrade:     req.MaxGrade,
	})
	if err != nil {
		return err
	}
	respond(w, http.StatusOK, "Assignment updated successfully", toAssignment(updated))
	return nil
}

func (h *Handler) deleteAssignment(w http.ResponseWriter, r *http.Request, actor access.Actor) error {
	id, err := pathID(r, "id")
	if err != nil {
		return err
	}
	if err := h.svc.Assignments.Delete(r.Context(), actor, id); err != nil {
		return err
	}
	respond(w, http.StatusOK, "Assignment deleted successfully", nil)
	return nil
}

func (h *Handler) createSubmission(w http.ResponseWriter, r *http.Request, actor access.Actor) error {
	var req createSubmissionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return err
	}
	created, err := h.svc.Submissions.Create(r.Context(), actor, req.AssignmentID, req.CourseID)
	if err != nil {
		return err
	}
	respond(w, http.StatusCreated, "Submission created successfully", toSubmission(created))
	return nil
}

func (h *Handler) attachSubmissionFiles(w http.ResponseWriter, r *http.Request, actor access.Actor) error {
	id, err := pathID(r, "id")
	if err != nil {
		return err
	}
	uploads, cleanup, err := h.uploads(w, r)
	if err != nil {
		return err
	}
	defer cleanup()
	updated, err := h.svc.Submissions.AttachFiles(r.Context(), actor, id, uploads)
	if err != nil {
		return err
	}
	respond(w, http.StatusOK, "Files submitted successfully", toSubmission(updated))
	return nil
}

func (h *Handler) downloadSubmissionFiles(w http.ResponseWriter, r *http.Request, actor access.Actor) error {
	id, err := pathID(r, "id")
	if err != nil {
		return err
	}
	found, entries, err := h.svc.Submissions.Files(r.Context(), actor, id)
	if err != nil {
		return err
	}
	return writeArchive(w, submission.ArchiveName(found.ID), entries)
}

func (h *Handler) getSubmission(w http.ResponseWriter, r *http.Request, actor access.Actor) error {
	id, err := pathID(r, "id")
	if err != nil {
		return err
	}
	found, err := h.svc.Submissions.Get(r.Context(), actor, id)
	if err != nil {
		return err
	}
	respond(w, http.StatusOK, "Submission retrieved successfully", toSubmission(found))
	return nil
}

func (h *Handler) listCourseSubmissions(w http.ResponseWriter, r *http.Request, actor access.Actor) error {
	courseID, err := pathID(r, "courseId")
	if err != nil {
		return err
	}
	submissions, err := h.svc.Submissions.ListByCourse(r.Context(), actor, courseID)
	if err != nil {
		return err
	}
	respond(w, http.StatusOK, "Submissions retrieved successfully", mapSlice(submissions, toSubmission))
	return nil
}

func (h *Handler) listMyCourseSubmissions(w http.ResponseWriter, r *http.Request, actor access.Actor) error {
	courseID, err := pathID(r, "courseId")
	if err != nil {
		return err
	}
	submissions, err := h.svc.Submissions.ListByStudentInCourse(r.Context(), actor, courseID)
	if err != nil {
		return err
	}
	respond(w, http.StatusOK, "Submissions retrieved successfully", mapSlice(submissions, toSubmission))
	return nil
}

func (h *Handler) listUserSubmissions(w http.ResponseWriter, r *http.Request, actor access.Actor) error {
	userID, err := pathID(r, "userId")
	if err != nil {
		return err
	}
	submissions, err := h.svc.Submissions.ListByStudent(r.Context(), actor, userID)
	if err != nil {
		return err
	}
	respond(w, http.StatusOK, "Submissions retrieved successfully", mapSlice(submissions, toSubmission))
	return nil
}

func (h *Handler) gradeSubmission(w http.ResponseWriter, r *http.Request, actor access.Actor) error {
	id, err := pathID(r, "id")
	if err != nil {
		return err
	}
	var req gradeSubmissionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return err
	}
	graded, err := h.svc.Submissions.Grade(r.Context(), actor, id, req.Grade, req.Feedback)
	if err != nil {
		return err
	}
	respond(w, http.StatusOK, "Submission graded successfully", toSubmission(graded))
	return nil
}

func (h *Handler) deleteSubmission(w http.ResponseWriter, r *http.Request, actor access.Actor) error {
	id, err := pathID(r, "id")
	if err != nil {
		return err
	}
	if err := h.svc.Submissions.Delete(r.Context(), actor, id); err != nil {
		return err
	}
	respond(w, http.StatusOK, "Submission deleted successfully", nil)
	return nil
}
