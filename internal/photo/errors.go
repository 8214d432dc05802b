package photo

import "errors"

var (
	// ErrNotADirectory is returned when a scan root is missing or is not a
	// directory.
	ErrNotADirectory = errors.New("not a directory")
	// ErrIO is returned when a file cannot be opened or read.
	ErrIO = errors.New("i/o error")
	// ErrUnreadableImage is returned when a file cannot be decoded as an image.
	ErrUnreadableImage = errors.New("unreadable image")
	// ErrConstraintViolation is returned when a record with the same path is
	// already stored.
	ErrConstraintViolation = errors.New("constraint violation")
)
