// Package apperr holds the sentinel errors shared across lectern and the
// typed failure returned by store operations.
package apperr

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrInvalid       = errors.New("invalid")
	ErrNotConfirmed  = errors.New("not confirmed")
	ErrCreateFailed  = errors.New("create failed")
	ErrUpdateFailed  = errors.New("update failed")
	ErrDeleteFailed  = errors.New("delete failed")
	ErrStoreClosed   = errors.New("store closed")
	ErrAlreadyExists = errors.New("already exists")
)

// Op is a store operation.
type Op string

const (
	OpCreate Op = "create"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
)

// OpError is a failed store call, tagged by operation and entity kind.
type OpError struct {
	Op   Op
	Kind string
	ID   string
	Err  error
}

func (e *OpError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("%s %s failed: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s %s %s failed: %v", e.Op, e.Kind, e.ID, e.Err)
}

func (e *OpError) Unwrap() error { return e.Err }

// Is reports whether target is the sentinel matching e.Op.
func (e *OpError) Is(target error) bool {
	switch e.Op {
	case OpCreate:
		return target == ErrCreateFailed
	case OpUpdate:
		return target == ErrUpdateFailed
	case OpDelete:
		return target == ErrDeleteFailed
	}
	return false
}

// Code returns the failure name, e.g. "UpdateFailed".
func (e *OpError) Code() string {
	switch e.Op {
	case OpCreate:
		return "CreateFailed"
	case OpUpdate:
		return "UpdateFailed"
	case OpDelete:
		return "DeleteFailed"
	}
	return "Failed"
}
