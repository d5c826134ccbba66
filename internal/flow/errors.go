package flow

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/cradoe/onboard/internal/models"
	"github.com/cradoe/onboard/internal/validator"
)

var ErrNoSession = errors.New("no active session")

// ValidationError blocks a local commit. Fields maps a field name to the
// message shown next to it.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + joinFields(e.Fields)
}

// Validate turns a validator carrying field errors into a ValidationError.
// It returns nil when v holds none.
func Validate(v *validator.Validator) error {
	if !v.HasErrors() {
		return nil
	}

	fields := make(map[string]string, len(v.FieldErrors)+len(v.Errors))
	for k, msg := range v.FieldErrors {
		fields[k] = msg
	}
	for i, msg := range v.Errors {
		fields[fmt.Sprintf("_%d", i)] = msg
	}

	return &ValidationError{Fields: fields}
}

// IdentityConflictError rejects a signup whose email or mobile already has a
// record. Fields points the user at the login form.
type IdentityConflictError struct {
	Fields map[string]string
}

func (e *IdentityConflictError) Error() string {
	return "identity already registered: " + joinFields(e.Fields)
}

// AuthenticationError is a failed login. Field names the input that caused
// it, if any.
type AuthenticationError struct {
	Field   string
	Message string
}

func (e *AuthenticationError) Error() string {
	return e.Message
}

// TransitionError is returned when a requested move is not allowed from the
// current step.
type TransitionError struct {
	From   models.Step
	To     models.Step
	Reason string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot move from %s to %s: %s", e.From, e.To, e.Reason)
}

// StageError is returned when a stage action is invoked while the device is
// on a different stage.
type StageError struct {
	Expected models.Step
	Current  models.Step
}

func (e *StageError) Error() string {
	return fmt.Sprintf("action belongs to the %s stage but the current stage is %s", e.Expected, e.Current)
}

func joinFields(fields map[string]string) string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + ": " + fields[k]
	}
	return strings.Join(parts, "; ")
}
