package patcher

import (
	"errors"
	"fmt"
)

// ErrNotAtDelimiter is returned by the scanners when the supplied offset does
// not hold the opening delimiter.
var ErrNotAtDelimiter = errors.New("offset does not hold the opening delimiter")

// ErrInvalidRequest is returned when an update request could not be applied
// without breaking the next run's ability to locate what it wrote.
var ErrInvalidRequest = errors.New("invalid update request")

// AnchorNotFoundError indicates a required text anchor is absent from the
// document, or absent from the span of the entry it must belong to.
type AnchorNotFoundError struct {
	// Entry is the name of the entry being patched. Empty when the anchor is
	// not tied to a particular entry.
	Entry  string
	Anchor string
}

func (e *AnchorNotFoundError) Error() string {
	if e.Entry == "" {
		return fmt.Sprintf("anchor %q not found", e.Anchor)
	}
	return fmt.Sprintf("entry %s: anchor %q not found", e.Entry, e.Anchor)
}

// UnbalancedDelimiterError indicates a scan ran off the end of its input
// before the region opened at Offset was closed.
type UnbalancedDelimiterError struct {
	Open   byte
	Close  byte
	Offset int
}

func (e *UnbalancedDelimiterError) Error() string {
	return fmt.Sprintf("unbalanced %q opened at offset %d: no matching %q", e.Open, e.Offset, e.Close)
}
