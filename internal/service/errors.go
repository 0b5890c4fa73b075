package service

import "errors"

var (
	// ErrNotFound is returned when an edit or reorder explicitly targets a
	// missing document. Gate checks treat a missing document as a no-op instead.
	ErrNotFound = errors.New("document not found")
	// ErrUnauthorized is returned when the actor fails the permission gate.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrInvalidAccessLevel is returned for an access level outside {full, edit, comment, view}.
	ErrInvalidAccessLevel = errors.New("invalid access level")
	// ErrInvalidGeneralAccess is returned for a general access outside {private, workspace}.
	ErrInvalidGeneralAccess = errors.New("invalid general access")
)
