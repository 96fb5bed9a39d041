package notification

import (
	"fmt"
	"strings"
	"sync"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"
)

// Message keys rendered for in-app and email notifications.
const (
	KeyWelcome                = "welcome"
	KeyCourseUpdated          = "course.updated"
	KeyLessonCreated          = "lesson.created"
	KeyLessonUpdated          = "lesson.updated"
	KeyLessonDeleted          = "lesson.deleted"
	KeyEnrollmentStudent      = "enrollment.created.student"
	KeyEnrollmentInstructor   = "enrollment.created.instructor"
	KeyUnenrollmentStudent    = "enrollment.deleted.student"
	KeyUnenrollmentInstructor = "enrollment.deleted.instructor"
	KeyQuestionCreated        = "question.created"
	KeyAssignmentCreated      = "assignment.created"
	KeyAssignmentUpdated      = "assignment.updated"
	KeyAssignmentDeleted      = "assignment.deleted"
	KeySubmissionGraded       = "submission.graded"
)

const (
	keyEmailSubject        = "email.subject"
	defaultEmailSubject    = "LMS notification"
	localePortugueseBrazil = "pt-BR"
	localeEnglish          = "en"
)

// Rendered is localized copy for one notification.
type Rendered struct {
	Message string
	Subject string
}

// Renderer localizes notification messages from an embedded go-i18n bundle.
type Renderer struct {
	bundle *i18n.Bundle
	mu     sync.Mutex
	cache  map[string]*i18n.Localizer
}

// NewRenderer builds a renderer holding the English and Brazilian Portuguese
// catalogs.
func NewRenderer() (*Renderer, error) {
	bundle := i18n.NewBundle(language.English)
	if err := bundle.AddMessages(language.English, englishMessages...); err != nil {
		return nil, fmt.Errorf("load en messages: %w", err)
	}
	if err := bundle.AddMessages(language.BrazilianPortuguese, portugueseMessages...); err != nil {
		return nil, fmt.Errorf("load pt-BR messages: %w", err)
	}
	return &Renderer{bundle: bundle, cache: make(map[string]*i18n.Localizer)}, nil
}

// Render returns the message for key in locale, falling back to English when
// the locale or the key is unknown.
func (r *Renderer) Render(locale, key string, data map[string]any) (Rendered, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return Rendered{}, fmt.Errorf("message key is required")
	}
	text, err := r.localize(NormalizeLocale(locale), key, data)
	if err != nil {
		text, err = r.localize(localeEnglish, key, data)
		if err != nil {
			return Rendered{}, fmt.Errorf("render %s: %w", key, err)
		}
	}
	subject, err := r.localize(NormalizeLocale(locale), keyEmailSubject, nil)
	if err != nil || subject == "" {
		subject = defaultEmailSubject
	}
	return Rendered{Message: text, Subject: subject}, nil
}

func (r *Renderer) localize(locale, key string, data map[string]any) (string, error) {
	return r.localizer(locale).Localize(&i18n.LocalizeConfig{MessageID: key, TemplateData: data})
}

func (r *Renderer) localizer(locale string) *i18n.Localizer {
	r.mu.Lock()
	defer r.mu.Unlock()
	if loc, ok := r.cache[locale]; ok {
		return loc
	}
	loc := i18n.NewLocalizer(r.bundle, locale, localeEnglish)
	r.cache[locale] = loc
	return loc
}

// NormalizeLocale maps user locale values onto the supported catalogs.
func NormalizeLocale(value string) string {
	tag, err := language.Parse(strings.TrimSpace(value))
	if err != nil {
		return localeEnglish
	}
	base, _ := tag.Base()
	if base.String() == "pt" {
		return localePortugueseBrazil
	}
	return localeEnglish
}
