package domain

import "errors"

var (
	ErrNotFound          = errors.New("no such file or directory")
	ErrAlreadyExists     = errors.New("file exists")
	ErrInsufficientSpace = errors.New("no space left on device")
	ErrTableFull         = errors.New("entry table full")
	ErrInvalidPath       = errors.New("invalid directory path")
	ErrParentNotFound    = errors.New("parent directory not found")
	ErrInvalidName       = errors.New("invalid name")
	ErrInvalidSize       = errors.New("invalid size")
	ErrIsDirectory       = errors.New("is a directory")
	ErrNotDirectory      = errors.New("not a directory")
	ErrRootDirectory     = errors.New("cannot remove root directory")
)
