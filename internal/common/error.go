// Package common defines shared constants and sentinel errors used across
// jotkeeper components. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrNotFound = errors.New("not found")

	// Routing errors: the requested operation cannot run in the current mode.
	ErrSignedOut = errors.New("signed out")
	ErrOffline   = errors.New("offline")

	// Remote-store errors. ErrAccessDenied means the remote refused the
	// request on permission grounds and must not be treated as "offline".
	ErrAccessDenied = errors.New("access denied")
	ErrUnavailable  = errors.New("remote unavailable")

	// Category validation errors.
	ErrCategoryReserved = errors.New("category is reserved")
	ErrCategoryExists   = errors.New("category already exists")
)
