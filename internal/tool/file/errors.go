package file

import (
	"errors"
	"fmt"
)

// -- Sentinels --

var (
	ErrPathRequired  = errors.New("path is required")
	ErrNotUTF8       = errors.New("error decoding text file with UTF-8 encoding")
	ErrFileTooLarge  = errors.New("file too large")
	ErrInvalidRange  = errors.New("invalid line range")
	ErrPDFConversion = errors.New("error converting PDF to markdown")
)

// -- Errors --

// NotFoundError is returned when the file to read does not exist.
type NotFoundError struct {
	Path string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("File not found at '%s'", e.Path)
}

// PermissionError is returned when the OS refuses access.
type PermissionError struct {
	Path  string
	Cause error
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("Permission denied for path '%s'", e.Path)
}
func (e *PermissionError) Unwrap() error { return e.Cause }

// UnsupportedTypeError is returned for files that are neither text, image nor PDF.
type UnsupportedTypeError struct {
	Path     string
	MimeType string
}

func (e *UnsupportedTypeError) Error() string {
	return fmt.Sprintf("Unsupported file type: %s", e.MimeType)
}

type ReadError struct {
	Path  string
	Cause error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("failed to read file %s: %v", e.Path, e.Cause)
}
func (e *ReadError) Unwrap() error { return e.Cause }

type StatError struct {
	Path  string
	Cause error
}

func (e *StatError) Error() string {
	return fmt.Sprintf("failed to stat %s: %v", e.Path, e.Cause)
}
func (e *StatError) Unwrap() error { return e.Cause }

type EnsureDirsError struct {
	Path  string
	Cause error
}

func (e *EnsureDirsError) Error() string {
	return fmt.Sprintf("failed to create directories %s: %v", e.Path, e.Cause)
}
func (e *EnsureDirsError) Unwrap() error { return e.Cause }

type WriteError struct {
	Path  string
	Cause error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("failed to write file %s: %v", e.Path, e.Cause)
}
func (e *WriteError) Unwrap() error { return e.Cause }
