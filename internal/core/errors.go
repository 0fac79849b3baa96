package core

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrUnknownComponent = errors.New("unknown personality component")
	ErrNotImplemented   = errors.New("not implemented")
	ErrInvalidData      = errors.New("invalid component data")
)

// Reason classifies the outcome of a store operation.
type Reason string

const (
	ReasonOK        Reason = "ok"
	ReasonNotFound  Reason = "not_found"
	ReasonTransport Reason = "transport"
	ReasonMalformed Reason = "malformed"
)

// StoreError is a failed I/O call against one of the backing stores.
type StoreError struct {
	Reason Reason
	Store  string
	Op     string
	Err    error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("%s %s (%s): %v", e.Store, e.Op, e.Reason, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

func TransportError(store, op string, err error) error {
	return &StoreError{Reason: ReasonTransport, Store: store, Op: op, Err: err}
}

func MalformedError(store, op string, err error) error {
	return &StoreError{Reason: ReasonMalformed, Store: store, Op: op, Err: err}
}

// ReasonOf maps an error returned by a store to its Reason.
// Errors that carry no classification count as transport failures.
func ReasonOf(err error) Reason {
	if err == nil {
		return ReasonOK
	}
	if errors.Is(err, ErrNotFound) {
		return ReasonNotFound
	}
	var se *StoreError
	if errors.As(err, &se) {
		return se.Reason
	}
	return ReasonTransport
}
