// Package httpapi exposes the LMS domain services as a JSON HTTP API.
//
// Every response is wrapped in an envelope. Binary downloads (zip archives,
// spreadsheets and PDFs) are written raw with a Content-Disposition header.
package httpapi

import (
	"net/http"

	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/louisbranch/lms/internal/platform/httpx"
	"github.com/louisbranch/lms/internal/platform/logging"
	lmsotel "github.com/louisbranch/lms/internal/platform/otel"
	"github.com/louisbranch/lms/internal/services/lms/account"
	"github.com/louisbranch/lms/internal/services/lms/analytics"
	"github.com/louisbranch/lms/internal/services/lms/assignment"
	"github.com/louisbranch/lms/internal/services/lms/attendance"
	"github.com/louisbranch/lms/internal/services/lms/authn"
	"github.com/louisbranch/lms/internal/services/lms/course"
	"github.com/louisbranch/lms/internal/services/lms/enrollment"
	"github.com/louisbranch/lms/internal/services/lms/lesson"
	"github.com/louisbranch/lms/internal/services/lms/notification"
	"github.com/louisbranch/lms/internal/services/lms/question"
	"github.com/louisbranch/lms/internal/services/lms/quiz"
	"github.com/louisbranch/lms/internal/services/lms/submission"
)

// Upload limits.
const (
	DefaultMaxFileBytes    = 10 << 20
	DefaultMaxRequestBytes = 20 << 20
	maxJSONBytes           = 1 << 20
)

// Services are the domain services behind the API.
type Services struct {
	Tokens        *authn.Issuer
	Accounts      *account.Service
	Courses       *course.Service
	Lessons       *lesson.Service
	Enrollments   *enrollment.Service
	Questions     *question.Service
	Quizzes       *quiz.Service
	Assignments   *assignment.Service
	Submissions   *submission.Service
	Attendance    *attendance.Service
	Notifications *notification.Service
	Analytics     *analytics.Service
}

// Options tunes the API handler.
type Options struct {
	// MaxFileBytes caps each uploaded file.
	MaxFileBytes int64
	// MaxRequestBytes caps a whole multipart request.
	MaxRequestBytes int64
	// SecureCookie marks the session cookie Secure.
	SecureCookie bool
	Logger       *zap.Logger
}

// Handler routes API requests to the domain services.
type Handler struct {
	svc          Services
	logger       *zap.Logger
	maxFile      int64
	maxRequest   int64
	secureCookie bool
}

// NewHandler builds the API handler with its middleware stack.
func NewHandler(svc Services, opts Options) http.Handler {
	h := &Handler{
		svc:          svc,
		logger:       logging.OrNop(opts.Logger).Named("http"),
		maxFile:      opts.MaxFileBytes,
		maxRequest:   opts.MaxRequestBytes,
		secureCookie: opts.SecureCookie,
	}
	if h.maxFile <= 0 {
		h.maxFile = DefaultMaxFileBytes
	}
	if h.maxRequest <= 0 {
		h.maxRequest = DefaultMaxRequestBytes
	}

	mux := http.NewServeMux()
	h.routes(mux)
	return httpx.Chain(mux,
		httpx.RequestID(),
		httpx.Trace(lmsotel.Tracer("lms/http"), otel.GetTextMapPropagator()),
		httpx.RequestLogger(h.logger),
		httpx.RecoverPanic(h.logger, func(w http.ResponseWriter, r *http.Request) {
			writeEnvelope(w, http.StatusInternalServerError, envelope{Message: "internal error", Errors: []string{"internal error"}})
		}),
	)
}
