package service

import "errors"

var (
	// ErrNotFound means the requested resource does not exist.
	ErrNotFound = errors.New("resource not found")
	// ErrForbidden means the caller is authenticated but lacks the access
	// level the operation requires.
	ErrForbidden = errors.New("forbidden")
	// ErrUnauthenticated means no valid session accompanies the request.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrTargetNotFound means a share target email resolves to no account.
	ErrTargetNotFound = errors.New("share target not found")
	// ErrConflict is reserved for optimistic-concurrency checks. Unused while
	// last-write-wins replacement is the accepted write model.
	ErrConflict = errors.New("conflict")
	// ErrTitleRequired means a create or update left the title empty.
	ErrTitleRequired = errors.New("title is required")
	// ErrInvalidAccessLevel means the requested share level is not grantable.
	ErrInvalidAccessLevel = errors.New("invalid access level")
	// ErrEmailTaken means registration hit an already-registered email.
	ErrEmailTaken = errors.New("email already registered")
	// ErrInvalidCredentials means login failed on email or password.
	ErrInvalidCredentials = errors.New("invalid email or password")
)
