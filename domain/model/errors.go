package model

import (
	"errors"
	"fmt"

	"go.uber.org/multierr"
)

var (
	// ErrValidation is matched by every *ValidationError.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound is returned when a required record does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrReadOnly is returned when writing a derived attribute.
	ErrReadOnly = errors.New("read-only property")

	// ErrUnknownColumn is returned by Set for keys outside the schema.
	ErrUnknownColumn = errors.New("unknown column")

	// ErrUnimplemented is returned when a backend is built without a
	// capability the caller has to supply (e.g. REST columns).
	ErrUnimplemented = errors.New("unimplemented")
)

// FieldError is one validation failure.
type FieldError struct {
	Field   string
	Message string
}

func (e FieldError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + " " + e.Message
}

// Errors is an ordered, appendable collection of validation failures.
type Errors struct {
	list []FieldError
}

// Add appends a failure.
func (e *Errors) Add(field, message string) {
	e.list = append(e.list, FieldError{Field: field, Message: message})
}

// Len returns the number of failures.
func (e *Errors) Len() int {
	return len(e.list)
}

// All returns a copy of the failures in insertion order.
func (e *Errors) All() []FieldError {
	out := make([]FieldError, len(e.list))
	copy(out, e.list)
	return out
}

// On returns the messages recorded for field.
func (e *Errors) On(field string) []string {
	var msgs []string
	for _, fe := range e.list {
		if fe.Field == field {
			msgs = append(msgs, fe.Message)
		}
	}
	return msgs
}

// Reset clears the collection.
func (e *Errors) Reset() {
	e.list = nil
}

// Err combines every failure into a single error, or nil if there are none.
func (e *Errors) Err() error {
	var err error
	for _, fe := range e.list {
		err = multierr.Append(err, fe)
	}
	return err
}

// ValidationError is returned by Save when the entity is invalid.
type ValidationError struct {
	Model    string
	Failures []FieldError
}

func (e *ValidationError) Error() string {
	errs := make([]error, len(e.Failures))
	for i, fe := range e.Failures {
		errs[i] = fe
	}
	return fmt.Sprintf("%s: %s: %v", e.Model, ErrValidation, multierr.Combine(errs...))
}

// Is makes errors.Is(err, ErrValidation) true.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// Unwrap exposes the individual failures.
func (e *ValidationError) Unwrap() []error {
	errs := make([]error, len(e.Failures))
	for i, fe := range e.Failures {
		errs[i] = fe
	}
	return errs
}
