package model

import "errors"

var (
	ErrNoteNotFound = errors.New("note not found")
	ErrIntegrity    = errors.New("integrity conflict")
	ErrBadCursor    = errors.New("invalid cursor")
	ErrBadRequest   = errors.New("bad request")
	ErrUnauthorized = errors.New("unauthorized")
	ErrAuthDisabled = errors.New("auth not configured")
)
