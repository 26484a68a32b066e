package patcher

import "fmt"

// ScanFunc finds the end of a delimited region. It returns the offset one past
// the delimiter that closes the region opened at text[openIndex].
type ScanFunc func(text string, openIndex int, open, close byte) (int, error)

// FindMatchingClose returns the offset one past the close delimiter matching
// the open delimiter at text[openIndex], counting nesting depth.
//
// Delimiters are counted character by character. A bracket inside a quoted
// string is indistinguishable from a structural one; regions that may hold
// such strings should be scanned with FindMatchingCloseQuoted.
func FindMatchingClose(text string, openIndex int, open, close byte) (int, error) {
	if err := checkOpen(text, openIndex, open); err != nil {
		return -1, err
	}

	depth := 0
	for i := openIndex; i < len(text); i++ {
		switch text[i] {
		case open:
			depth++
		case close:
			depth--
			if depth == 0 {
				return i + 1, nil
			}
		}
	}
	return -1, &UnbalancedDelimiterError{Open: open, Close: close, Offset: openIndex}
}

// FindMatchingCloseQuoted is FindMatchingClose with string literals skipped.
// Single, double and backtick quotes are recognised, as are backslash escapes
// inside them.
func FindMatchingCloseQuoted(text string, openIndex int, open, close byte) (int, error) {
	if err := checkOpen(text, openIndex, open); err != nil {
		return -1, err
	}

	var (
		depth   int
		quote   byte
		escaped bool
	)
	for i := openIndex; i < len(text); i++ {
		c := text[i]

		if quote != 0 {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == quote:
				quote = 0
			}
			continue
		}

		switch c {
		case '"', '\'', '`':
			quote = c
		case open:
			depth++
		case close:
			depth--
			if depth == 0 {
				return i + 1, nil
			}
		}
	}
	return -1, &UnbalancedDelimiterError{Open: open, Close: close, Offset: openIndex}
}

func checkOpen(text string, openIndex int, open byte) error {
	if openIndex < 0 || openIndex >= len(text) {
		return fmt.Errorf("%w: offset %d outside text of length %d", ErrNotAtDelimiter, openIndex, len(text))
	}
	if text[openIndex] != open {
		return fmt.Errorf("%w: found %q at offset %d, want %q", ErrNotAtDelimiter, text[openIndex], openIndex, open)
	}
	return nil
}
