package client

import (
	"errors"

	"github.com/smnsjas/go-dspace/resource"
)

var (
	// ErrEmptyBaseURL is returned by Init when no base URL was configured.
	ErrEmptyBaseURL = errors.New("client: base URL is empty")

	// ErrNotInitialized is returned by network operations on a client whose
	// Init has not succeeded. It is the same value as resource.ErrUnbound.
	ErrNotInitialized = resource.ErrUnbound

	// ErrAlreadyInitialized is returned by SetTransport after Init.
	ErrAlreadyInitialized = errors.New("client: already initialized")
)

// AddressParseError reports a base URL that is not an absolute http or https URL.
// It is a configuration error and is never retried.
type AddressParseError struct {
	Address string
	Err     error
}

func (e *AddressParseError) Error() string {
	return "client: invalid base URL: " + e.Err.Error()
}

func (e *AddressParseError) Unwrap() error {
	return e.Err
}
