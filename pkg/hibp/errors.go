// Copyright (c) 2022. Alvin Baena.
// SPDX-License-Identifier: MIT

package hibp

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyPassword    = errors.New("password is empty")
	ErrInvalidDigest    = errors.New("input is not a valid SHA1 hexadecimal hash")
	ErrInvalidPrefix    = errors.New("range prefix must be 5 hexadecimal characters")
	ErrInsecureEndpoint = errors.New("range endpoint must use https")
	ErrMalformedRange   = errors.New("malformed range response")
)

// NetworkError means the range endpoint could not be reached (DNS, connect, TLS, timeout, cancellation).
// The breach status is unknown.
type NetworkError struct {
	Prefix string
	Err    error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("range request for %s failed: %s", e.Prefix, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// UpstreamError means the range endpoint answered, but with a non-success status or a body that could
// not be parsed. The breach status is unknown.
type UpstreamError struct {
	Prefix     string
	StatusCode int
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.StatusCode != 0 && e.Err == nil {
		return fmt.Sprintf("range request for %s failed with status %d", e.Prefix, e.StatusCode)
	}
	return fmt.Sprintf("range response for %s rejected: %s", e.Prefix, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// IsNetworkError reports whether err is, or wraps, a *NetworkError.
func IsNetworkError(err error) bool {
	var ne *NetworkError
	return errors.As(err, &ne)
}

// IsUpstreamError reports whether err is, or wraps, an *UpstreamError.
func IsUpstreamError(err error) bool {
	var ue *UpstreamError
	return errors.As(err, &ue)
}
