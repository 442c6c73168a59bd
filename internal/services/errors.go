package services

import (
	"errors"

	"the-arch-backend/internal/repository"
)

// Sentinel errors returned by services. Handlers map these to HTTP status codes.
// ErrNotFound is the repository sentinel so store errors match without translation.
var (
	ErrNotFound         = repository.ErrNotFound
	ErrNotMember        = errors.New("not a member of this arch")
	ErrAdminRequired    = errors.New("admin role required")
	ErrNotAuthorized    = errors.New("not authorized")
	ErrInvalidInput     = errors.New("invalid input")
	ErrEmailTaken       = errors.New("email already registered")
	ErrBadCredentials   = errors.New("invalid email or password")
	ErrAlreadyMember    = errors.New("already a member of this arch")
	ErrDeadlinePassed   = errors.New("response deadline has passed")
	ErrAlreadyShared    = errors.New("response already shared")
	ErrNotInvited       = errors.New("not invited to this event")
	ErrSelfMessage      = errors.New("cannot message yourself")
	ErrTokenInvalid     = errors.New("push token invalid")
	ErrPasswordTooShort = errors.New("password must be at least 8 characters")
)
