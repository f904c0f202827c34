// Package validation checks the shape of submitted fields before any side
// effect happens. Validators are pure and report every problem they find.
package validation

import (
	"fmt"
	"net/mail"
	"strings"
	"unicode/utf8"

	"github.com/dmitrijs2005/postbox/internal/common"
	"github.com/dmitrijs2005/postbox/internal/server/models"
)

const (
	MinPasswordLength = 5
	MinTitleLength    = 5
	MinContentLength  = 5

	// MaxPasswordBytes is the longest password bcrypt accepts.
	MaxPasswordBytes = 72
)

// FieldError describes one rejected field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError carries field errors back to the caller. It matches
// common.ErrValidationFailed with errors.Is.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		msgs = append(msgs, f.Field+": "+f.Message)
	}
	return fmt.Sprintf("%s: %s", common.ErrValidationFailed, strings.Join(msgs, "; "))
}

func (e *ValidationError) Unwrap() error {
	return common.ErrValidationFailed
}

// AsError returns nil for an empty list and a *ValidationError otherwise.
func AsError(fields []FieldError) error {
	if len(fields) == 0 {
		return nil
	}
	return &ValidationError{Fields: fields}
}

// ValidateRegistration checks the email syntax and the password length.
func ValidateRegistration(email, password string) []FieldError {
	errs := []FieldError{}

	if !isEmail(email) {
		errs = append(errs, FieldError{Field: "email", Message: "Invalid email"})
	}

	if password == "" || utf8.RuneCountInString(password) < MinPasswordLength {
		errs = append(errs, FieldError{
			Field:   "password",
			Message: fmt.Sprintf("Password should be at least %d characters", MinPasswordLength),
		})
	} else if len(password) > MaxPasswordBytes {
		errs = append(errs, FieldError{
			Field:   "password",
			Message: fmt.Sprintf("Password should be at most %d bytes", MaxPasswordBytes),
		})
	}

	return errs
}

// ValidateContent checks post title and body.
func ValidateContent(title, content string) []FieldError {
	errs := []FieldError{}

	if !hasMinLength(title, MinTitleLength) {
		errs = append(errs, FieldError{
			Field:   "title",
			Message: fmt.Sprintf("Title should be at least %d characters", MinTitleLength),
		})
	}

	if !hasMinLength(content, MinContentLength) {
		errs = append(errs, FieldError{
			Field:   "content",
			Message: fmt.Sprintf("Content should be at least %d characters", MinContentLength),
		})
	}

	return errs
}

// ValidateImageKey accepts an empty key or one issued to ownerID by the
// upload URL endpoint.
func ValidateImageKey(key, ownerID string) []FieldError {
	errs := []FieldError{}
	if key != "" && !models.OwnsImageKey(ownerID, key) {
		errs = append(errs, FieldError{Field: "imageUrl", Message: "Image was not uploaded by you"})
	}
	return errs
}

func hasMinLength(s string, n int) bool {
	s = strings.TrimSpace(s)
	return s != "" && utf8.RuneCountInString(s) >= n
}

// isEmail accepts a bare addr-spec whose domain has at least one dot.
// Display-name forms such as "Bob <bob@example.com>" are rejected.
func isEmail(email string) bool {
	if email == "" || strings.TrimSpace(email) != email {
		return false
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return false
	}
	at := strings.LastIndex(email, "@")
	domain := email[at+1:]
	return strings.Contains(domain, ".") && !strings.HasSuffix(domain, ".") && !strings.HasPrefix(domain, ".")
}
