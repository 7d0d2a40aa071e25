package walk

import "fmt"

// DiagnosticKind classifies a data-quality problem absorbed by the parser.
type DiagnosticKind string

const (
	// LineSkip means the whole line was dropped.
	LineSkip DiagnosticKind = "line_skip"
	// ValueFallback means the line was kept with its raw text as the value.
	ValueFallback DiagnosticKind = "value_fallback"
)

// Diagnostic describes one absorbed problem.
type Diagnostic struct {
	Line   int // 1-based
	Kind   DiagnosticKind
	Text   string
	Reason string
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("line %d: %s: %s", d.Line, d.Kind, d.Reason)
}
