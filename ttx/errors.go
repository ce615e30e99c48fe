package ttx

import (
	"fmt"
	"strings"
)

// FormatError indicates a malformed binary container or hex image stream.
type FormatError struct {
	// Msg describes what was wrong with the stream
	Msg string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("image format: %s", e.Msg)
}

func formatErrorf(format string, args ...interface{}) error {
	return &FormatError{Msg: fmt.Sprintf(format, args...)}
}

// IsFormatError returns true if the error is a FormatError.
func IsFormatError(err error) bool {
	_, ok := err.(*FormatError)
	return ok
}

// MappingError indicates an inconsistency between the archive's image
// entries, the caller-supplied core mapping, and the chip's tensix
// locations.
type MappingError struct {
	// Reason describes the violated rule
	Reason string

	// Cores lists the offending cores, in sorted order
	Cores []CoreId
}

func (e *MappingError) Error() string {
	if len(e.Cores) == 0 {
		return e.Reason
	}
	details := make([]string, len(e.Cores))
	for i, core := range e.Cores {
		details[i] = core.String()
	}
	return fmt.Sprintf("%s (%s)", e.Reason, strings.Join(details, ", "))
}

// EmptyArchiveError indicates the archive contains no image entries at all.
type EmptyArchiveError struct{}

func (e *EmptyArchiveError) Error() string {
	return "archive contains no image entries"
}
