package studio

import "fmt"

// ValidationError rejects bad input before it reaches the store.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return e.Msg
}

// DuplicateNameError reports a case-insensitive name collision within a
// uniqueness scope (library names, template usecases within a library).
type DuplicateNameError struct {
	Kind string
	Name string
}

func (e *DuplicateNameError) Error() string {
	return fmt.Sprintf("%s %q already exists", e.Kind, e.Name)
}

// NotFoundError reports an operation referencing an entity absent from the
// current state.
type NotFoundError struct {
	Kind string
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.Name)
}

// InvariantError reports an operation that would break a structural
// invariant, such as deleting a prompt's last remaining version.
type InvariantError struct {
	Msg string
}

func (e *InvariantError) Error() string {
	return e.Msg
}

// PersistenceError reports a failed store call. The operation it wraps is
// all-or-nothing: when a write fails no local state has been mutated.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
