package models

import (
	"errors"
	"fmt"
)

// Error kinds. Every error returned by the services unwraps to one of these.
var (
	ErrNotFound           = errors.New("not found")
	ErrAlreadyExists      = errors.New("already exists")
	ErrEmptyInput         = errors.New("empty input")
	ErrDecode             = errors.New("decode error")
	ErrBackendUnavailable = errors.New("backend unavailable")
	ErrQuotaExceeded      = errors.New("quota exceeded")
)

var (
	ErrTokenNotRegistered = &KindError{Kind: ErrNotFound, Msg: "token not registered"}
	ErrUserNotFound       = &KindError{Kind: ErrNotFound, Msg: "user not found"}
	ErrEmailAlreadyExists = &KindError{Kind: ErrAlreadyExists, Msg: "email already exists"}
	ErrTokenAlreadyExists = &KindError{Kind: ErrAlreadyExists, Msg: "token already exists"}
	ErrAlreadyRevoked     = &KindError{Kind: ErrAlreadyExists, Msg: "token already revoked"}
	ErrEmptyToken         = &KindError{Kind: ErrEmptyInput, Msg: "empty token"}
	ErrNegativeLimit      = &KindError{Kind: ErrEmptyInput, Msg: "negative monthly limit"}
)

// KindError is a named error that belongs to one of the error kinds above.
type KindError struct {
	Kind error
	Msg  string
}

func (e *KindError) Error() string {
	return e.Msg
}

func (e *KindError) Unwrap() error {
	return e.Kind
}

// BackendError wraps a transport or connection failure of an external backend.
type BackendError struct {
	Op  string
	Key string
	Err error
}

func (e *BackendError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("backend %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("backend %s %q: %v", e.Op, e.Key, e.Err)
}

func (e *BackendError) Unwrap() error {
	return e.Err
}

func (e *BackendError) Is(target error) bool {
	return target == ErrBackendUnavailable
}

// IsNotFound reports whether err is any not-found variant.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsInternal reports whether err should surface as an internal fault.
func IsInternal(err error) bool {
	return errors.Is(err, ErrBackendUnavailable) || errors.Is(err, ErrDecode)
}

// ErrInvalidBody marks a request body that could not be parsed. It is a
// decode error raised by the client, not by the store.
var ErrInvalidBody = &KindError{Kind: ErrDecode, Msg: "invalid request body"}

var ErrEmptyEmail = &KindError{Kind: ErrEmptyInput, Msg: "empty email"}
