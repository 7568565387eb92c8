package models

import (
	"errors"
	"fmt"
)

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrMenuItemNotFound  = errors.New("menu item not found")
	ErrDuplicateMenuItem = errors.New("menu item id already exists")
	ErrInvalidPrice      = errors.New("price must be >= 0")
	ErrInvalidName       = errors.New("name is required")
	ErrInvalidMode       = errors.New("invalid recharge mode")
	ErrInvalidDate       = errors.New("date must be YYYY-MM-DD")
	ErrUnauthenticated   = errors.New("not authenticated")
)

// DuplicateNameError is returned when a roster name is already taken.
type DuplicateNameError struct {
	Name string
}

func (e *DuplicateNameError) Error() string {
	return fmt.Sprintf("user %q already exists", e.Name)
}

// PersistenceError wraps a failure from the store's save or load path.
type PersistenceError struct {
	Op       string
	Document string
	Err      error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Document, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
