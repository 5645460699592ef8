// Package validation registers the platform's custom binding tags on gin's validator engine
// and turns validator errors into short client-facing messages.
//
// Custom tags:
//   - videourl: a Vimeo or YouTube link accepted by vimeo.ParseVideoURL
//   - slug: lowercase letters, digits and single hyphens
package validation

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/aura-academy/backend/internal/vendors/vimeo"
)

var (
	registerOnce sync.Once
	registerErr  error

	slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)
)

// Register installs the custom tags on gin's default validator. Safe to call more than once.
func Register() error {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			registerErr = errors.New("gin validator engine is not go-playground/validator")
			return
		}
		registerErr = RegisterOn(v)
	})
	return registerErr
}

// RegisterOn installs the custom tags on v.
func RegisterOn(v *validator.Validate) error {
	if err := v.RegisterValidation("videourl", validVideoURL); err != nil {
		return fmt.Errorf("register videourl: %w", err)
	}
	if err := v.RegisterValidation("slug", validSlug); err != nil {
		return fmt.Errorf("register slug: %w", err)
	}
	return nil
}

func validVideoURL(fl validator.FieldLevel) bool {
	_, _, err := vimeo.ParseVideoURL(fl.Field().String())
	return err == nil
}

func validSlug(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	return len(s) <= 64 && slugPattern.MatchString(s)
}

// ValidSlug reports whether s is an acceptable department slug.
func ValidSlug(s string) bool { return len(s) <= 64 && slugPattern.MatchString(s) }

// Message converts a binding error into a readable message. Non-validation errors
// (malformed JSON, wrong types) are reported as-is.
func Message(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return "invalid request: " + err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fieldMessage(fe))
	}
	return strings.Join(msgs, "; ")
}

func fieldMessage(fe validator.FieldError) string {
	field := toSnake(fe.Field())
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", field, fe.Param())
	case "min", "gte":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max", "lte":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "email":
		return field + " must be a valid email"
	case "uuid":
		return field + " must be a valid id"
	case "videourl":
		return field + " must be a Vimeo or YouTube URL"
	case "slug":
		return field + " must be lowercase letters, digits and hyphens"
	default:
		return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
	}
}

func toSnake(s string) string {
	var b strings.Builder
	for i, r := range s {
		if r >= 'A' && r <= 'Z' {
			if i > 0 && !(s[i-1] >= 'A' && s[i-1] <= 'Z') {
				b.WriteByte('_')
			}
			b.WriteRune(r + ('a' - 'A'))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
