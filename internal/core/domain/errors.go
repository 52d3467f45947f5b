package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound         = errors.New("document not found")
	ErrInvalidDocument  = errors.New("invalid document")
	ErrInvalidParameter = errors.New("invalid parameter")
	ErrPageAccess       = errors.New("page access failure")
	ErrFallback         = errors.New("fallback extraction failure")
	ErrTemporary        = errors.New("temporary failure")
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}
