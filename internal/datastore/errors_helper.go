// Package datastore provides error handling helpers for database operations
package datastore

import (
	"github.com/coralwatch/coralwatch-go/internal/errors"
)

// Sentinel errors for the caller-visible failure kinds of the registry
// operations. They are plain errors so errors.Is distinguishes which
// reference was invalid; category metadata is attached where they are
// returned.
var (
	ErrDiveSiteNotFound    = errors.NewStd("dive site not found")
	ErrCoralNotFound       = errors.NewStd("coral not found")
	ErrDuplicateSiteName   = errors.NewStd("a dive site with this name already exists")
	ErrDuplicateInternalID = errors.NewStd("a coral with this internal id already exists")
)

// dbError wraps a store-specific failure into a single database-category
// error so callers never see driver error shapes.
func dbError(err error, operation string, context ...any) error {
	builder := errors.New(err).
		Component("datastore").
		Category(errors.CategoryDatabase).
		Context("operation", operation)

	return addContext(builder, context...).Build()
}

// notFoundError attaches not-found category metadata to a sentinel.
func notFoundError(sentinel error, context ...any) error {
	builder := errors.New(sentinel).
		Component("datastore").
		Category(errors.CategoryNotFound)

	return addContext(builder, context...).Build()
}

// conflictError attaches conflict category metadata to a sentinel.
func conflictError(sentinel error, context ...any) error {
	builder := errors.New(sentinel).
		Component("datastore").
		Category(errors.CategoryConflict)

	return addContext(builder, context...).Build()
}

// validationError creates a validation error for rejected input values.
func validationError(message, field string, value any) error {
	return errors.Newf("%s", message).
		Component("datastore").
		Category(errors.CategoryValidation).
		Context("field", field).
		Context("value", value).
		Build()
}

func addContext(builder *errors.ErrorBuilder, context ...any) *errors.ErrorBuilder {
	for i := 0; i < len(context)-1; i += 2 {
		if key, ok := context[i].(string); ok {
			builder = builder.Context(key, context[i+1])
		}
	}
	return builder
}
