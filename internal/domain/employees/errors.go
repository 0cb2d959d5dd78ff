package employees

import "errors"

var (
	ErrNotFound          = errors.New("employee not found")
	ErrDuplicate         = errors.New("employee already exists")
	ErrInvalidEmployee   = errors.New("invalid employee")
	ErrAlreadyTerminated = errors.New("employee already terminated")
)
