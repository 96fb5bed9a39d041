package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	apperrors "github.com/louisbranch/lms/internal/platform/errors"
	"github.com/louisbranch/lms/internal/platform/httpx"
)

var errInvalidBody = apperrors.New(apperrors.CodeInvalidArgument, "request body is invalid")

// envelope wraps every JSON response.
type envelope struct {
	Success bool     `json:"success"`
	Message string   `json:"message"`
	Data    any      `json:"data"`
	Errors  []string `json:"errors"`
}

func writeEnvelope(w http.ResponseWriter, status int, body envelope) {
	if body.Errors == nil {
		body.Errors = []string{}
	}
	_ = httpx.WriteJSON(w, status, body)
}

func respond(w http.ResponseWriter, status int, message string, data any) {
	writeEnvelope(w, status, envelope{Success: true, Message: message, Data: data})
}

// fail writes err as an error envelope. Uncoded errors are logged and
// reported as a generic 500.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := apperrors.HTTPStatus(err)
	message := apperrors.PublicMessage(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("request_id", r.Header.Get(httpx.RequestIDHeader)),
			zap.Error(err))
	}
	errs := []string{message}
	if e, ok := apperrors.As(err); ok && status < http.StatusInternalServerError {
		for _, key := range []string{"Field", "Available", "QuestionID", "File", "MaxGrade"} {
			if value, ok := e.Metadata[key]; ok {
				errs = append(errs, key+": "+value)
			}
		}
	}
	writeEnvelope(w, status, envelope{Message: message, Errors: errs})
}

// decodeJSON reads one JSON object from the request body.
func decodeJSON(w http.ResponseWriter, r *http.Request, target any) error {
	body := http.MaxBytesReader(w, r.Body, maxJSONBytes)
	defer body.Close()
	decoder := json.NewDecoder(body)
	if err := decoder.Decode(target); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return apperrors.Wrap(apperrors.CodePayloadTooLarge, "request body is too large", err)
		}
		if errors.Is(err, io.EOF) {
			return apperrors.Wrap(apperrors.CodeInvalidArgument, "request body is required", err)
		}
		return apperrors.Wrap(errInvalidBody.Code, errInvalidBody.Message, err)
	}
	return nil
}

// pathID parses the named path segment as a positive id.
func pathID(r *http.Request, name string) (int64, error) {
	raw := strings.TrimSpace(r.PathValue(name))
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.WithMetadata(apperrors.CodeInvalidArgument, "invalid "+name,
			map[string]string{"Field": name})
	}
	return id, nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func formatTimePtr(t *time.Time) *string {
	if t == nil || t.IsZero() {
		return nil
	}
	value := formatTime(*t)
	return &value
}
