package httpapi

import (
	"net/http"

	apperrors "github.com/louisbranch/lms/internal/platform/errors"
	"github.com/louisbranch/lms/internal/services/lms/access"
)

var errCompletedRequired = apperrors.WithMetadata(apperrors.CodeInvalidArgument, "completed is required",
	map[string]string{"Field": "completed"})

type updateEnrollmentRequest struct {
	Completed *bool `json:"completed"`
}

func (h *Handler) enroll(w http.ResponseWriter, r *http.Request, actor access.Actor) error {
	courseID, err := pathID(r, "courseId")
	if err != nil {
		return err
	}
	enrollment, err := h.svc.Enrollments.Enroll(r.Context(), actor, courseID)
	if err != nil {
		return err
	}
	respond(w, http.StatusCreated, "Enrolled successfully", toEnrollment(enrollment))
	return nil
}

func (h *Handler) listEnrollments(w http.ResponseWriter, r *http.Request, actor access.Actor) error {
	enrollments, err := h.svc.Enrollments.List(r.Context(), actor)
	if err != nil {
		return err
	}
	respond(w, http.StatusOK, "Enrollments retrieved successfully", mapSlice(enrollments, toEnrollment))
	return nil
}

func (h *Handler) getEnrollment(w http.ResponseWriter, r *http.Request, actor access.Actor) error {
	id, err := pathID(r, "id")
	if err != nil {
		return err
	}
	enrollment, err := h.svc.Enrollments.Get(r.Context(), actor, id)
	if err != nil {
		return err
	}
	respond(w, http.StatusOK, "Enrollment retrieved successfully", toEnrollment(enrollment))
	return nil
}

func (h *Handler) updateEnrollment(w http.ResponseWriter, r *http.Request, actor access.Actor) error {
	id, err := pathID(r, "id")
	if err != nil {
		return err
	}
	var req updateEnrollmentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return err
	}
	if req.Completed == nil {
		return errCompletedRequired
	}
	enrollment, err := h.svc.Enrollments.SetCompleted(r.Context(), actor, id, *req.Completed)
	if err != nil {
		return err
	}
	respond(w, http.StatusOK, "Enrollment updated successfully", toEnrollment(enrollment))
	return nil
}

func (h *Handler) deleteEnrollment(w http.ResponseWriter, r *http.Request, actor access.Actor) error {
	id, err := pathID(r, "id")
	if err != nil {
		return err
	}
	if err := h.svc.Enrollments.Delete(r.Context(), actor, id); err != nil {
		return err
	}
	respond(w, http.StatusOK, "Enrollment deleted successfully", nil)
	return nil
}

func (h *Handler) listCourseEnrollments(w http.ResponseWriter, r *http.Request, actor access.Actor) error {
	courseID, err := pathID(r, "courseId")
	if err != nil {
		return err
	}
	enrollments, err := h.svc.Enrollments.ListByCourse(r.Context(), actor, courseID)
	if err != nil {
		return err
	}
	respond(w, http.StatusOK, "Enrollments retrieved successfully", mapSlice(enrollments, toEnrollment))
	return nil
}

func (h *Handler) listStudentEnrollments(w http.ResponseWriter, r *http.Request, actor access.Actor) error {
	studentID, err := pathID(r, "studentId")
	if err != nil {
		return err
	}
	enrollments, err := h.svc.Enrollments.ListByStudent(r.Context(), actor, studentID)
	if err != nil {
		return err
	}
	respond(w, http.StatusOK, "Enrollments retrieved successfully", mapSlice(enrollments, toEnrollment))
	return nil
}

func (h *Handler) getStudentEnrollment(w http.ResponseWriter, r *http.Request, actor access.Actor) error {
	studentID, err := pathID(r, "studentId")
	if err != nil {
		return err
	}
	courseID, err := pathID(r, "courseId")
	if err != nil {
		return err
	}
	enrollment, err := h.svc.Enrollments.GetByStudentAndCourse(r.Context(), actor, studentID, courseID)
	if err != nil {
		return err
	}
	respond(w, http.StatusOK, "Enrollment retrieved successfully", toEnrollment(enrollment))
	return nil
}
