package errors

import (
	stderrors "errors"
	"fmt"
)

type Kind string

const (
	InvalidConfig Kind = "invalid_config"
	Auth          Kind = "auth"
	NotFound      Kind = "not_found"
	Listing       Kind = "listing"
	Transfer      Kind = "transfer"
	Persistence   Kind = "persistence"
	Internal      Kind = "internal"
)

type AppError struct {
	Kind Kind
	Op   string
	Path string
	Err  error
}

func (e *AppError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Path, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func Wrap(kind Kind, op, path string, err error) error {
	if err == nil {
		return nil
	}
	return &AppError{
		Kind: kind,
		Op:   op,
		Path: path,
		Err:  err,
	}
}

// KindOf returns the kind of the outermost AppError in err's chain.
func KindOf(err error) Kind {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Kind
	}
	return Internal
}

func UserMessage(err error) string {
	var appErr *AppError
	if !stderrors.As(err, &appErr) {
		return err.Error()
	}
	switch appErr.Kind {
	case InvalidConfig:
		return fmt.Sprintf("ERROR: Invalid configuration: %v", appErr.Err)
	case Auth:
		return fmt.Sprintf("ERROR: Authorization failed (%s): %v", appErr.Op, appErr.Err)
	case NotFound:
		return fmt.Sprintf("ERROR: Not found: %s\n%v", appErr.Path, appErr.Err)
	case Listing:
		return fmt.Sprintf("ERROR: Listing failed under %s: %v", appErr.Path, appErr.Err)
	case Transfer:
		return fmt.Sprintf("ERROR: Transfer failed (%s): %v", appErr.Op, appErr.Err)
	case Persistence:
		return fmt.Sprintf("ERROR: Could not write %s: %v", appErr.Path, appErr.Err)
	default:
		return fmt.Sprintf("ERROR: Unexpected error: %v", appErr.Err)
	}
}
