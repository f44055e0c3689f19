package service

import (
	"errors"
	"fmt"
)

var (
	// ErrAuthRequired 在请求缺少已验证的调用者身份时返回
	ErrAuthRequired = errors.New("authentication required")
	// ErrPermissionDenied 在调用者缺少所需角色或所有权时返回
	ErrPermissionDenied = errors.New("permission denied")

	ErrProfileNotFound  = notFoundError("profile not found")
	ErrPostNotFound     = notFoundError("post not found")
	ErrCategoryNotFound = notFoundError("category not found")
	ErrTagNotFound      = notFoundError("tag not found")
	ErrCommentNotFound  = notFoundError("comment not found")

	ErrUsernameTaken = conflictError("username already taken")
	ErrEmailTaken    = conflictError("email already registered")
	ErrSlugTaken     = conflictError("slug already in use")
)

// ValidationError reports the first failing field rule of an input.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func validationFailed(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// IsValidation reports whether err is a field validation failure.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

type notFoundError string

func (e notFoundError) Error() string { return string(e) }

// IsNotFound reports whether err refers to an absent entity.
func IsNotFound(err error) bool {
	var nf notFoundError
	return errors.As(err, &nf)
}

type conflictError string

func (e conflictError) Error() string { return string(e) }

// IsConflict reports whether err is a unique-constraint style conflict.
func IsConflict(err error) bool {
	var ce conflictError
	return errors.As(err, &ce)
}

// StoreError wraps an underlying persistence failure. The message shown to
// callers names the operation only; store internals stay behind Unwrap.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string { return e.Op + ": storage failure" }

func (e *StoreError) Unwrap() error { return e.Err }

func storeError(op string, err error) error {
	return &StoreError{Op: op, Err: err}
}
