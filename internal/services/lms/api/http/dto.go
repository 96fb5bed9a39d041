package httpapi

import (
	"github.com/louisbranch/lms/internal/services/lms/analytics"
	"github.com/louisbranch/lms/internal/services/lms/model"
)

type userDTO struct {
	ID        int64  `json:"id"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	Role      string `json:"role"`
	Locale    string `json:"locale"`
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

func toUser(u model.User) userDTO {
	return userDTO{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		Role:      string(u.Role),
		Locale:    u.Locale,
		CreatedAt: formatTime(u.CreatedAt),
		UpdatedAt: formatTime(u.UpdatedAt),
	}
}

type courseDTO struct {
	ID             int64    `json:"id"`
	InstructorID   int64    `json:"instructorId"`
	InstructorName string   `json:"instructorName"`
	Title          string   `json:"title"`
	Duration       string   `json:"duration"`
	Description    string   `json:"description"`
	Materials      []string `json:"materials"`
	CreatedAt      string   `json:"createdAt"`
	UpdatedAt      string   `json:"updatedAt"`
}

func toCourse(c model.Course) courseDTO {
	materials := c.Materials
	if materials == nil {
		materials = []string{}
	}
	return courseDTO{
		ID:             c.ID,
		InstructorID:   c.InstructorID,
		InstructorName: c.InstructorName,
		Title:          c.Title,
		Duration:       c.Duration,
		Description:    c.Description,
		Materials:      materials,
		CreatedAt:      formatTime(c.CreatedAt),
		UpdatedAt:      formatTime(c.UpdatedAt),
	}
}

type lessonDTO struct {
	ID          int64  `json:"id"`
	CourseID    int64  `json:"courseId"`
	CourseTitle string `json:"courseTitle"`
	Title       string `json:"title"`
	OTP         string `json:"otp,omitempty"`
}

func toLesson(l model.Lesson) lessonDTO {
	return lessonDTO{ID: l.ID, CourseID: l.CourseID, CourseTitle: l.CourseTitle, Title: l.Title, OTP: l.OTP}
}

type enrollmentDTO struct {
	ID          int64  `json:"id"`
	StudentID   int64  `json:"studentId"`
	StudentName string `json:"studentName"`
	CourseID    int64  `json:"courseId"`
	CourseTitle string `json:"courseTitle"`
	Confirmed   bool   `json:"confirmed"`
	Completed   bool   `json:"completed"`
}

func toEnrollment(e model.Enrollment) enrollmentDTO {
	return enrollmentDTO{
		ID:          e.ID,
		StudentID:   e.StudentID,
		StudentName: e.StudentName,
		CourseID:    e.CourseID,
		CourseTitle: e.CourseTitle,
		Confirmed:   e.Confirmed,
		Completed:   e.Completed,
	}
}

type questionDTO struct {
	ID          int64  `json:"id"`
	CourseID    int64  `json:"courseId"`
	CourseTitle string `json:"courseTitle,omitempty"`
	Content     string `json:"content"`
	Answer      string `json:"answer,omitempty"`
	Type        string `json:"type"`
}

func toQuestion(q model.Question) questionDTO {
	return questionDTO{
		ID:          q.ID,
		CourseID:    q.CourseID,
		CourseTitle: q.CourseTitle,
		Content:     q.Content,
		Answer:      q.Answer,
		Type:        string(q.Type),
	}
}

type quizDTO struct {
	ID        int64         `json:"id"`
	CourseID  int64         `json:"courseId"`
	Questions []questionDTO `json:"questions"`
	CreatedAt string        `json:"createdAt"`
}

func toQuiz(q model.Quiz) quizDTO {
	return quizDTO{
		ID:        q.ID,
		CourseID:  q.CourseID,
		Questions: mapSlice(q.Questions, toQuestion),
		CreatedAt: formatTime(q.CreatedAt),
	}
}

type gradeDTO struct {
	StudentID   int64   `json:"studentId"`
	QuizID      int64   `json:"quizId"`
	CourseID    int64   `json:"courseId"`
	Grade       float64 `json:"grade"`
	MaxGrade    int     `json:"maxGrade"`
	SubmittedAt string  `json:"submittedAt"`
}

func toGrade(a model.QuizAttempt) gradeDTO {
	return gradeDTO{
		StudentID:   a.StudentID,
		QuizID:      a.QuizID,
		CourseID:    a.CourseID,
		Grade:       a.Grade,
		MaxGrade:    a.MaxGrade,
		SubmittedAt: formatTime(a.SubmittedAt),
	}
}

type assignmentDTO struct {
	ID           int64  `json:"id"`
	CourseID     int64  `json:"courseId"`
	Instructions string `json:"instructions"`
	MaxGrade     int    `json:"maxGrade"`
	CreatedAt    string `json:"createdAt"`
	UpdatedAt    string `json:"updatedAt"`
}

func toAssignment(a model.Assignment) assignmentDTO {
	return assignmentDTO{
		ID:           a.ID,
		CourseID:     a.CourseID,
		Instructions: a.Instructions,
		MaxGrade:     a.MaxGrade,
		CreatedAt:    formatTime(a.CreatedAt),
		UpdatedAt:    formatTime(a.UpdatedAt),
	}
}

type submissionDTO struct {
	ID           int64    `json:"id"`
	AssignmentID int64    `json:"assignmentId"`
	CourseID     int64    `json:"courseId"`
	StudentID    int64    `json:"studentId"`
	StudentName  string   `json:"studentName"`
	Files        []string `json:"files"`
	Grade        *int64   `json:"grade"`
	MaxGrade     int      `json:"maxGrade"`
	Graded       bool     `json:"graded"`
	Feedback     string   `json:"feedback"`
	Score        *float64 `json:"score"`
}

func toSubmission(s model.Submission) submissionDTO {
	files := s.Files
	if files == nil {
		files = []string{}
	}
	dto := submissionDTO{
		ID:           s.ID,
		AssignmentID: s.AssignmentID,
		CourseID:     s.CourseID,
		StudentID:    s.StudentID,
		StudentName:  s.StudentName,
		Files:        files,
		MaxGrade:     s.MaxGrade,
		Graded:       s.Graded,
		Feedback:     s.Feedback,
	}
	if s.Graded {
		grade, score := s.Grade, s.Score()
		dto.Grade, dto.Score = &grade, &score
	}
	return dto
}

type attendanceDTO struct {
	ID          int64  `json:"id"`
	StudentID   int64  `json:"studentId"`
	StudentName string `json:"studentName"`
	LessonID    int64  `json:"lessonId"`
	CourseID    int64  `json:"courseId"`
	CourseTitle string `json:"courseTitle"`
	CreatedAt   string `json:"createdAt"`
}

func toAttendance(a model.Attendance) attendanceDTO {
	return attendanceDTO{
		ID:          a.ID,
		StudentID:   a.StudentID,
		StudentName: a.StudentName,
		LessonID:    a.LessonID,
		CourseID:    a.CourseID,
		CourseTitle: a.CourseTitle,
		CreatedAt:   formatTime(a.CreatedAt),
	}
}

type notificationDTO struct {
	ID        int64   `json:"id"`
	Message   string  `json:"message"`
	Read      bool    `json:"read"`
	CreatedAt string  `json:"createdAt"`
	ReadAt    *string `json:"readAt"`
}

func toNotification(n model.Notification) notificationDTO {
	return notificationDTO{
		ID:        n.ID,
		Message:   n.Message,
		Read:      n.Read,
		CreatedAt: formatTime(n.CreatedAt),
		ReadAt:    formatTimePtr(n.ReadAt),
	}
}

type performanceDTO struct {
	StudentID            int64   `json:"studentId"`
	StudentName          string  `json:"studentName"`
	QuizAverage          float64 `json:"quizAverage"`
	AssignmentAverage    float64 `json:"assignmentAverage"`
	AttendancePercentage float64 `json:"attendancePercentage"`
	CourseCompleted      bool    `json:"courseCompleted"`
}

func toPerformance(p analytics.StudentPerformance) performanceDTO {
	return performanceDTO(p)
}

// mapSlice converts items and never returns nil, so lists encode as [].
func mapSlice[T, R any](items []T, fn func(T) R) []R {
	out := make([]R, 0, len(items))
	for _, item := range items {
		out = append(out, fn(item))
	}
	return out
}
