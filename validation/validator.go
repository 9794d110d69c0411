package validation

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kbukum/taskflow/errors"
)

// FieldError is one failing field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Checks accumulates field errors from checks struct tags cannot express.
// The zero value is ready to use.
type Checks struct {
	fields []FieldError
}

// Add records a failing field.
func (c *Checks) Add(field, format string, args ...any) *Checks {
	c.fields = append(c.fields, FieldError{Field: field, Message: fmt.Sprintf(format, args...)})
	return c
}

// That records message for field unless ok holds.
func (c *Checks) That(ok bool, field, message string) *Checks {
	if !ok {
		c.Add(field, "%s", message)
	}
	return c
}

// UUID checks that a non-empty value parses as a UUID.
func (c *Checks) UUID(field, value string) *Checks {
	if value == "" {
		return c
	}
	if _, err := uuid.Parse(value); err != nil {
		c.Add(field, "must be a valid UUID")
	}
	return c
}

// CapabilityName checks a dotted capability identifier such as
// weather.lookup.
func (c *Checks) CapabilityName(field, value string) *Checks {
	if !capabilityNamePattern.MatchString(value) {
		c.Add(field, "must be a capability name (got: %q)", value)
	}
	return c
}

// Duration checks that a non-empty value parses as a non-negative
// time.Duration such as "250ms" or "5s".
func (c *Checks) Duration(field, value string) *Checks {
	if value == "" {
		return c
	}
	d, err := time.ParseDuration(value)
	switch {
	case err != nil:
		c.Add(field, "must be a duration such as 5s (got: %q)", value)
	case d < 0:
		c.Add(field, "must not be negative (got: %s)", d)
	}
	return c
}

// Fields returns the recorded errors.
func (c *Checks) Fields() []FieldError {
	return c.fields
}

// Err returns an INVALID_INPUT AppError listing every failing field, or nil.
func (c *Checks) Err() error {
	if len(c.fields) == 0 {
		return nil
	}
	return fieldsError(c.fields)
}

func fieldsError(fields []FieldError) *errors.AppError {
	messages := make([]string, len(fields))
	for i, f := range fields {
		messages[i] = f.Field + ": " + f.Message
	}
	appErr := errors.Validation(strings.Join(messages, "; "))
	appErr.Details = map[string]any{"fields": fields}
	return appErr
}
