package httpapi

import (
	"fmt"
	"net/http"

	"github.com/louisbranch/lms/internal/services/lms/access"
	"github.com/louisbranch/lms/internal/services/lms/course"
	"github.com/louisbranch/lms/internal/services/lms/lesson"
)

type createCourseRequest struct {
	Title        string `json:"title"`
	Duration     string `json:"duration"`
	Description  string `json:"description"`
	InstructorID int64  `json:"instructorId"`
}

type updateCourseRequest struct {
	Title       *string `json:"title"`
	Duration    *string `json:"duration"`
	Description *string `json:"description"`
}

func materialsArchiveName(id int64) string {
	return fmt.Sprintf("course_%d_materials.zip", id)
}

func (h *Handler) createCourse(w http.ResponseWriter, r *http.Request, actor access.Actor) error {
	var req createCourseRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return err
	}
	created, err := h.svc.Courses.Create(r.Context(), actor, course.CreateInput{
		Title:        req.Title,
		Duration:     req.Duration,
		Description:  req.Description,
		InstructorID: req.InstructorID,
	})
	if err != nil {
		return err
	}
	respond(w, http.StatusCreated, "Course created successfully", toCourse(created))
	return nil
}

func (h *Handler) listCourses(w http.ResponseWriter, r *http.Request, _ access.Actor) error {
	courses, err := h.svc.Courses.List(r.Context())
	if err != nil {
		return err
	}
	respond(w, http.StatusOK, "Courses retrieved successfully", mapSlice(courses, toCourse))
	return nil
}

func (h *Handler) getCourse(w http.ResponseWriter, r *http.Request, _ access.Actor) error {
	id, err := pathID(r, "id")
	if err != nil {
		return err
	}
	found, err := h.svc.Courses.Get(r.Context(), id)
	if err != nil {
		return err
	}
	respond(w, http.StatusOK, "Course retrieved successfully", toCourse(found))
	return nil
}

func (h *Handler) updateCourse(w http.ResponseWriter, r *http.Request, actor access.Actor) error {
	id, err := pathID(r, "id")
	if err != nil {
		return err
	}
	var req updateCourseRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return err
	}
	updated, err := h.svc.Courses.Update(r.Context(), actor, id, course.UpdateInput{
		Title:       req.Title,
		Duration:    req.Duration,
		Description: req.Description,
	})
	if err != nil {
		return err
	}
	respond(w, http.StatusOK, "Course updated successfully", toCourse(updated))
	return nil
}

func (h *Handler) deleteCourse(w http.ResponseWriter, r *http.Request, actor access.Actor) error {
	id, err := pathID(r, "id")
	if err != nil {
		return err
	}
	if err := h.svc.Courses.Delete(r.Context(), actor, id); err != nil {
		return err
	}
	respond(w, http.StatusOK, "Course deleted successfully", nil)
	return nil
}

func (h *Handler) uploadMaterials(w http.ResponseWriter, r *http.Request, actor access.Actor) error {
	id, err := pathID(r, "id")
	if err != nil {
		return err
	}
	uploads, cleanup, err := h.uploads(w, r)
	if err != nil {
		return err
	}
	defer cleanup()
	updated, err := h.svc.Courses.AddMaterials(r.Context(), actor, id, uploads)
	if err != nil {
		return err
	}
	respond(w, http.StatusOK, "Materials uploaded successfully", toCourse(updated))
	return nil
}

func (h *Handler) downloadMaterials(w http.ResponseWriter, r *http.Request, actor access.Actor) error {
	id, err := pathID(r, "id")
	if err != nil {
		return err
	}
	found, entries, err := h.svc.Courses.Materials(r.Context(), actor, id)
	if err != nil {
		return err
	}
	return writeArchive(w, materialsArchiveName(found.ID), entries)
}

type createLessonRequest struct {
	CourseID int64  `json:"courseId"`
	Title    string `json:"title"`
	OTP      string `json:"otp"`
}

type updateLessonRequest struct {
	CourseID *int64  `json:"courseId"`
	Title    *string `json:"title"`
	OTP      *string `json:"otp"`
}

func (h *Handler) createLesson(w http.ResponseWriter, r *http.Request, actor access.Actor) error {
	var req createLessonRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return err
	}
	created, err := h.svc.Lessons.Create(r.Context(), actor, lesson.CreateInput{
		CourseID: req.CourseID,
		Title:    req.Title,
		OTP:      req.OTP,
	})
	if err != nil {
		return err
	}
	respond(w, http.StatusCreated, "Lesson created successfully", toLesson(created))
	return nil
}

func (h *Handler) listLessons(w http.ResponseWriter, r *http.Request, actor access.Actor) error {
	courseID, err := pathID(r, "courseId")
	if err != nil {
		return err
	}
	lessons, err := h.svc.Lessons.ListByCourse(r.Context(), actor, courseID)
	if err != nil {
		return err
	}
	respond(w, http.StatusOK, "Lessons retrieved successfully", mapSlice(lessons, toLesson))
	return nil
}

func (h *Handler) getLesson(w http.ResponseWriter, r *http.Request, actor access.Actor) error {
	id, err := pathID(r, "id")
	if err != nil {
		return err
	}
	found, err := h.svc.Lessons.Get(r.Context(), actor, id)
	if err != nil {
		return err
	}
	respond(w, http.StatusOK, "Lesson retrieved successfully", toLesson(found))
	return nil
}

func (h *Handler) updateLesson(w http.ResponseWriter, r *http.Request, actor access.Actor) error {
	id, err := pathID(r, "id")
	if err != nil {
		return err
	}
	var req updateLessonRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return err
	}
	updated, err := h.svc.Lessons.Update(r.Context(), actor, id, lesson.UpdateInput{
		CourseID: req.CourseID,
		Title:    req.Title,
		OTP:      req.OTP,
	})
	if err != nil {
		return err
	}
	respond(w, http.StatusOK, "Lesson updated successfully", toLesson(updated))
	return nil
}

func (h *Handler) deleteLesson(w http.ResponseWriter, r *http.Request, actor access.Actor) error {
	id, err := pathID(r, "id")
	if err != nil {
		return err
	}
	if err := h.svc.Lessons.Delete(r.Context(), actor, id); err != nil {
		return err
	}
	respond(w, http.StatusOK, "Lesson deleted successfully", nil)
	return nil
}
