// Package pkg holds utilities shared by every layer of scaffoldr.
// This file declares the domain-level errors.
//
// Services return (or wrap) these sentinels and handlers translate them to
// HTTP status codes, so comparisons go through errors.Is instead of strings:
//
//	if errors.Is(err, pkg.ErrNotFound) { ... }
package pkg

import "errors"

// Domain-level errors.
var (
	ErrNotFound      = errors.New("not found")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrForbidden     = errors.New("forbidden")
	ErrAlreadyExists = errors.New("already exists")
	// ErrConflict means the resource is in a state that does not allow the
	// operation, e.g. generating a project that is already being generated.
	ErrConflict   = errors.New("conflict")
	ErrBadRequest = errors.New("bad request")
	ErrInternal   = errors.New("internal error")
)
