// Package validation wraps a shared go-playground validator and turns its
// field errors into one readable error that unwraps to a caller sentinel.
package validation

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// FieldError describes one failed rule.
type FieldError struct {
	Field string
	Tag   string
	Param string
	Value any
	// Message overrides the generated text.
	Message string
}

func (f FieldError) String() string {
	if f.Message != "" {
		return f.Field + " " + f.Message
	}
	switch f.Tag {
	case "required":
		return fmt.Sprintf("%s is required", f.Field)
	case "min", "gte":
		return fmt.Sprintf("%s must be at least %s (got %v)", f.Field, f.Param, f.Value)
	case "max", "lte":
		return fmt.Sprintf("%s must be at most %s (got %v)", f.Field, f.Param, f.Value)
	case "gt":
		return fmt.Sprintf("%s must be greater than %s (got %v)", f.Field, f.Param, f.Value)
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s] (got %v)", f.Field, f.Param, f.Value)
	}
	return fmt.Sprintf("%s failed %q validation", f.Field, f.Tag)
}

// Error collects field errors. It unwraps to the sentinel passed to Check.
type Error struct {
	Kind   error
	Fields []FieldError
}

func (e *Error) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.String())
	}
	msg := "validation failed"
	if e.Kind != nil {
		msg = e.Kind.Error()
	}
	if len(parts) == 0 {
		return msg
	}
	return msg + ": " + strings.Join(parts, "; ")
}

func (e *Error) Unwrap() error { return e.Kind }

// Get returns the singleton validator.
func Get() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// Check validates s and, on failure, returns an *Error wrapping kind.
func Check(s any, kind error) error {
	err := Get().Struct(s)
	if err == nil {
		return nil
	}
	var ves validator.ValidationErrors
	if !errors.As(err, &ves) {
		return fmt.Errorf("%w: %v", kind, err)
	}
	out := &Error{Kind: kind}
	for _, fe := range ves {
		out.Fields = append(out.Fields, FieldError{
			Field: fe.Namespace(),
			Tag:   fe.Tag(),
			Param: fe.Param(),
			Value: fe.Value(),
		})
	}
	return out
}

// Invalid builds an *Error for a rule that cannot be expressed as a tag.
func Invalid(kind error, field, msg string) error {
	return &Error{Kind: kind, Fields: []FieldError{{Field: field, Tag: "custom", Message: msg}}}
}
