// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// handlers to distinguish between different failure scenarios and map
// them onto HTTP status codes without string matching.
package repository

import "errors"

// ErrNotFound is returned when the requested row does not exist. Handlers
// should translate this into an HTTP 404 response.
var ErrNotFound = errors.New("not found")

// ErrEmailExists is returned when creating or updating an admin would
// violate the unique email constraint. Handlers should translate this
// into an HTTP 409 response.
var ErrEmailExists = errors.New("email already exists")
