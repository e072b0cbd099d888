package errors

import "errors"

var (
	ErrRoleNotFound     = errors.New("role not found")
	ErrRoleTypeNotFound = errors.New("role type not found")

	ErrInvalidRoleInput = errors.New("invalid role input")

	ErrAccessDenied = errors.New("access denied")
)
