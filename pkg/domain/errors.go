package domain

import "fmt"

// UnknownIDError reports construction of an entity handle with an id that
// does not exist in its backing relation. Never retried.
type UnknownIDError struct {
	Entity EntityType
	ID     int64
}

func (e UnknownIDError) Error() string {
	return fmt.Sprintf("unknown %s id %d", e.Entity, e.ID)
}

// DuplicateError reports an application-level uniqueness violation detected
// before insert.
type DuplicateError struct {
	Entity    EntityType
	Attribute string
	Value     string
}

func (e DuplicateError) Error() string {
	return fmt.Sprintf("%s with %s %q already exists", e.Entity, e.Attribute, e.Value)
}

// InvalidArgumentError reports a contract violation at a call site:
// out-of-range parameters, shape mismatches, or empty required collections.
// Raised synchronously with no partial side effects.
type InvalidArgumentError struct {
	Reason string
}

func (e InvalidArgumentError) Error() string { return e.Reason }

// Invalidf builds an InvalidArgumentError from a format string.
func Invalidf(format string, args ...any) InvalidArgumentError {
	return InvalidArgumentError{Reason: fmt.Sprintf(format, args...)}
}

// IntegrityError reports a data-integrity failure, distinct from a missing
// record: it indicates an upstream configuration problem such as a
// specimen-id column that yields multiple matches where one is required.
type IntegrityError struct {
	Reason string
}

func (e IntegrityError) Error() string { return e.Reason }

// UnknownCompositionTypeError reports an unrecognized composition
// discriminant read from storage.
type UnknownCompositionTypeError struct {
	Tag CompositionType
}

func (e UnknownCompositionTypeError) Error() string {
	return fmt.Sprintf("unknown composition type %q", string(e.Tag))
}

// UnknownProcessTypeError reports an unrecognized process discriminant read
// from storage.
type UnknownProcessTypeError struct {
	Tag ProcessType
}

func (e UnknownProcessTypeError) Error() string {
	return fmt.Sprintf("unknown process type %q", string(e.Tag))
}

// DiscardedError reports a mutation against an already-discarded container.
type DiscardedError struct {
	Entity EntityType
	ID     int64
}

func (e DiscardedError) Error() string {
	return fmt.Sprintf("%s %d is already discarded", e.Entity, e.ID)
}
