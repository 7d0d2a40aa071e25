package types

import "fmt"

// RangeError reports an index field outside the domain of a codec rule.
type RangeError struct {
	Field string
	Value int64
	Min   int64
	Max   int64
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("%s %d out of range [%d, %d]", e.Field, e.Value, e.Min, e.Max)
}

// FormatError reports text that is not a well-formed interface string.
type FormatError struct {
	Input  string
	Reason string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("invalid interface %q: %s", e.Input, e.Reason)
}
