package httpapi

import (
	"net/http"

	"github.com/louisbranch/lms/internal/services/lms/access"
	"github.com/louisbranch/lms/internal/services/lms/analytics"
	"github.com/louisbranch/lms/internal/services/lms/model"
	"github.com/louisbranch/lms/internal/services/lms/notification"
)

type recordAttendanceRequest struct {
	LessonID int64  `json:"lessonId"`
	OTP      string `json:"otp"`
}

func (h *Handler) recordAttendance(w http.ResponseWriter, r *http.Request, actor access.Actor) error {
	var req recordAttendanceRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return err
	}
	record, err := h.svc.Attendance.Record(r.Context(), actor, req.LessonID, req.OTP)
	if err != nil {
		return err
	}
	respond(w, http.StatusCreated, "Attendance recorded successfully", toAttendance(record))
	return nil
}

func (h *Handler) myAttendance(w http.ResponseWriter, r *http.Request, actor access.Actor) error {
	return h.writeAttendance(w, r, actor, actor.UserID, 0)
}

func (h *Handler) myCourseAttendance(w http.ResponseWriter, r *http.Request, actor access.Actor) error {
	courseID, err := pathID(r, "courseId")
	if err != nil {
		return err
	}
	return h.writeAttendance(w, r, actor, actor.UserID, courseID)
}

func (h *Handler) studentAttendance(w http.ResponseWriter, r *http.Request, actor access.Actor) error {
	studentID, err := pathID(r, "studentId")
	if err != nil {
		return err
	}
	return h.writeAttendance(w, r, actor, studentID, 0)
}

func (h *Handler) studentCourseAttendance(w http.ResponseWriter, r *http.Request, actor access.Actor) error {
	studentID, err := pathID(r, "studentId")
	if err != nil {
		return err
	}
	courseID, err := pathID(r, "courseId")
	if err != nil {
		return err
	}
	return h.writeAttendance(w, r, actor, studentID, courseID)
}

// writeAttendance lists a student's attendance, within one course when
// courseID is set.
func (h *Handler) writeAttendance(w http.ResponseWriter, r *http.Request, actor access.Actor, studentID, courseID int64) error {
	var (
		found []model.Attendance
		err   error
	)
	if courseID > 0 {
		found, err = h.svc.Attendance.ListByStudentInCourse(r.Context(), actor, studentID, courseID)
	} else {
		found, err = h.svc.Attendance.ListByStudent(r.Context(), actor, studentID)
	}
	if err != nil {
		return err
	}
	respond(w, http.StatusOK, "Attendance retrieved successfully", mapSlice(found, toAttendance))
	return nil
}

func (h *Handler) listNotifications(w http.ResponseWriter, r *http.Request, actor access.Actor) error {
	flag, err := notification.ParseFlag(r.PathValue("flag"))
	if err != nil {
		return err
	}
	notifications, err := h.svc.Notifications.List(r.Context(), actor, flag)
	if err != nil {
		return err
	}
	respond(w, http.StatusOK, "Notifications retrieved successfully", mapSlice(notifications, toNotification))
	return nil
}

// readNotification returns one notification and marks it read.
func (h *Handler) readNotification(w http.ResponseWriter, r *http.Request, actor access.Actor) error {
	id, err := pathID(r, "id")
	if err != nil {
		return err
	}
	read, err := h.svc.Notifications.Read(r.Context(), actor, id)
	if err != nil {
		return err
	}
	respond(w, http.StatusOK, "Notification retrieved successfully", toNotification(read))
	return nil
}

func (h *Handler) coursePerformance(w http.ResponseWriter, r *http.Request, actor access.Actor) error {
	courseID, err := pathID(r, "courseId")
	if err != nil {
		return err
	}
	rows, err := h.svc.Analytics.Performance(r.Context(), actor, courseID)
	if err != nil {
		return err
	}
	respond(w, http.StatusOK, "Course performance retrieved successfully", mapSlice(rows, toPerformance))
	return nil
}

func (h *Handler) courseCharts(w http.ResponseWriter, r *http.Request, actor access.Actor) error {
	courseID, err := pathID(r, "courseId")
	if err != nil {
		return err
	}
	entries, err := h.svc.Analytics.Charts(r.Context(), actor, courseID)
	if err != nil {
		return err
	}
	return writeArchive(w, analytics.ChartsArchiveName, entries)
}

func (h *Handler) courseWorkbook(w http.ResponseWriter, r *http.Request, actor access.Actor) error {
	courseID, err := pathID(r, "courseId")
	if err != nil {
		return err
	}
	data, err := h.svc.Analytics.Workbook(r.Context(), actor, courseID)
	if err != nil {
		return err
	}
	writeDownload(w, analytics.WorkbookName, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
	return nil
}

func (h *Handler) coursePDF(w http.ResponseWriter, r *http.Request, actor access.Actor) error {
	courseID, err := pathID(r, "courseId")
	if err != nil {
		return err
	}
	data, err := h.svc.Analytics.PDF(r.Context(), actor, courseID)
	if err != nil {
		return err
	}
	writeDownload(w, analytics.PDFName, "application/pdf", data)
	return nil
}
