package nutrition

import (
	"errors"
	"fmt"

	"github.com/robertmeta/nutriinfo-cli/model"
)

var (
	// ErrMissingCredential matches lookups refused because no API key is set.
	ErrMissingCredential = errors.New("API key not configured")
	// ErrGeneric matches every other lookup failure.
	ErrGeneric = errors.New("nutrition lookup failed")

	errEmptyQuery    = errors.New("query is empty")
	errEmptyResponse = errors.New("service returned no data")
)

// Error is a classified lookup failure. Err keeps the underlying cause
// for logs; callers branch on Kind.
type Error struct {
	Kind model.ErrorKind
	Err  error
}

func (e *Error) Error() string {
	base := ErrGeneric
	if e.Kind == model.ErrorMissingCredential {
		base = ErrMissingCredential
	}
	if e.Err == nil {
		return base.Error()
	}
	return fmt.Sprintf("%v: %v", base, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is lets errors.Is match the kind sentinels.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrMissingCredential:
		return e.Kind == model.ErrorMissingCredential
	case ErrGeneric:
		return e.Kind == model.ErrorGeneric
	}
	return false
}

// KindOf classifies any error returned by a lookup. Unclassified errors are generic.
func KindOf(err error) model.ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return model.ErrorGeneric
}

func generic(err error) *Error {
	return &Error{Kind: model.ErrorGeneric, Err: err}
}
