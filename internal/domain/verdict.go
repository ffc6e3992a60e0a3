package domain

import (
	"errors"
	"fmt"
)

// ErrUnknownSeverity is returned when decoding a severity name that is not
// none, warning or error.
var ErrUnknownSeverity = errors.New("unknown conflict severity")

// ConflictSeverity classifies an overlap. Values are ordered so that
// comparisons reflect precedence: SeverityNone < SeverityWarning < SeverityError.
type ConflictSeverity int

const (
	SeverityNone ConflictSeverity = iota
	SeverityWarning
	SeverityError
)

var severityNames = map[ConflictSeverity]string{
	SeverityNone:    "none",
	SeverityWarning: "warning",
	SeverityError:   "error",
}

// String returns the wire name of the severity.
func (s ConflictSeverity) String() string {
	if n, ok := severityNames[s]; ok {
		return n
	}
	return "none"
}

// MarshalText encodes the severity as its wire name.
func (s ConflictSeverity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a wire name. Names are case-sensitive.
func (s *ConflictSeverity) UnmarshalText(b []byte) error {
	switch string(b) {
	case "none":
		*s = SeverityNone
	case "warning":
		*s = SeverityWarning
	case "error":
		*s = SeverityError
	default:
		return fmt.Errorf("%w: %q", ErrUnknownSeverity, b)
	}
	return nil
}

// ValidationVerdict is the outcome of checking a candidate sub-channel
// against the sub-channels already registered under its parent.
type ValidationVerdict struct {
	Severity            ConflictSeverity `json:"conflict_severity"`
	Message             string           `json:"message"`
	ConflictingChannels []SubChannel     `json:"conflicting_channels"`
}

// HasConflicts reports whether any warning or error was found.
func (v ValidationVerdict) HasConflicts() bool {
	return v.Severity > SeverityNone
}

// Blocking reports whether the verdict must prevent submission.
func (v ValidationVerdict) Blocking() bool {
	return v.Severity == SeverityError
}
