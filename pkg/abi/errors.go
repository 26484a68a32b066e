package abi

import "fmt"

// MissingFileError indicates an input path does not resolve to a readable file.
type MissingFileError struct {
	Path  string
	Cause error
}

func (e *MissingFileError) Error() string {
	return fmt.Sprintf("missing file %s: %v", e.Path, e.Cause)
}

func (e *MissingFileError) Unwrap() error { return e.Cause }

// MalformedPayloadError indicates an ABI file could not be read as JSON, or
// holds JSON that is neither an ABI array nor an artifact carrying one.
type MalformedPayloadError struct {
	Path   string
	Reason string
}

func (e *MalformedPayloadError) Error() string {
	return fmt.Sprintf("malformed ABI payload %s: %s", e.Path, e.Reason)
}
