package errors

import (
	"errors"
)

var (
	// General Errors
	ErrInvalidArgument   = errors.New("invalid argument")
	ErrPermissionDenied  = errors.New("permission denied")
	ErrUnsupportedFile   = errors.New("unsupported file format")
	ErrPathNotAccessible = errors.New("path is not accessible")

	// Workflow Construction Errors
	ErrInvalidIdentifier = errors.New("invalid identifier")
	ErrInvalidName       = errors.New("invalid workflow name")
	ErrEmptyParallel     = errors.New("parallel requires at least one action")
	ErrMissingDefault    = errors.New("decision requires a default action")
	ErrEntityReused      = errors.New("entity is already attached to another owner")

	// Workflow Validation Errors
	ErrDuplicateIdentifier = errors.New("identifier reused")
	ErrMissingCredential   = errors.New("missing credentials")

	// Definition Errors
	ErrInvalidDefinition = errors.New("invalid workflow definition")

	// Compression Errors
	ErrCompressionFailed      = errors.New("compression failed")
	ErrUnsupportedCompression = errors.New("unsupported compression format")
	ErrChecksumMismatch       = errors.New("checksum mismatch")

	// Export Errors
	ErrUnsupportedFormat = errors.New("unsupported export format")

	// File & Directory Errors
	ErrFileNotFound    = errors.New("file not found")
	ErrFileReadError   = errors.New("error reading file")
	ErrFileWriteError  = errors.New("error writing to file")
	ErrFileExistsError = errors.New("file already exists")
	ErrDirNotFound     = errors.New("directory not found")

	// Configuration Errors
	ErrConfigInvalid    = errors.New("invalid configuration")
	ErrConfigParseError = errors.New("error parsing configuration")
)
