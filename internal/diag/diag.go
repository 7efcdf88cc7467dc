// Package diag implements the diagnostic sink described in the grammar
// front-end's analysis pipeline: a fixed-capacity, append-only collection of
// errors and warnings keyed by source byte-range.
package diag

import (
	"fmt"
	"sort"
)

// Pos is a single location in a source file.
type Pos struct {
	Offset int // byte offset, 0-based
	Line   int // 1-based
	Col    int // 1-based, in runes
}

// Range is a byte-range in a source file, [Start, End).
type Range struct {
	Start Pos
	End   Pos
}

// Severity distinguishes errors, which mark a grammar as invalid, from
// warnings, which do not.
type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
)

func (sv Severity) String() string {
	switch sv {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return "unknown"
	}
}

// Code is the closed taxonomy of diagnostic kinds, per the error handling
// design: lexical and syntactic errors, name-resolution errors, and the
// semantic-pass errors raised by each analysis phase.
type Code int

const (
	CodeLexicalError Code = iota
	CodeParserError
	CodeRedefinition
	CodeUndefinedName
	CodeStartRuleIssue
	CodeUnproductive
	CodeUnreachable
	CodePredictConflict
	CodeClassificationError
	CodeMarkerMismatch
	CodeIndexCollision
	CodeSkipOrRightMisuse
)

func (c Code) String() string {
	switch c {
	case CodeLexicalError:
		return "LexicalError"
	case CodeParserError:
		return "ParserError"
	case CodeRedefinition:
		return "Redefinition"
	case CodeUndefinedName:
		return "UndefinedName"
	case CodeStartRuleIssue:
		return "StartRuleIssue"
	case CodeUnproductive:
		return "Unproductive"
	case CodeUnreachable:
		return "Unreachable"
	case CodePredictConflict:
		return "PredictConflict"
	case CodeClassificationError:
		return "ClassificationError"
	case CodeMarkerMismatch:
		return "MarkerMismatch"
	case CodeIndexCollision:
		return "IndexCollision"
	case CodeSkipOrRightMisuse:
		return "SkipOrRightMisuse"
	default:
		return "Unknown"
	}
}

// DefaultSeverity is the severity a Code is raised at unless the call site
// overrides it (only Unreachable is a warning by default; everything else in
// the taxonomy marks the grammar invalid).
func (c Code) DefaultSeverity() Severity {
	if c == CodeUnreachable {
		return SeverityWarning
	}
	return SeverityError
}

// Diagnostic is one entry in a Sink.
type Diagnostic struct {
	Code     Code
	Severity Severity
	Range    Range
	Message  string

	// SessionID is a slot for the correlation id of the analysis invocation
	// (see the top-level Session type). Sink's reporting methods leave it
	// empty and nothing in this module sets it; the httpapi transport
	// carries the session id once per response (session_id) instead.
	SessionID string
}

// DefaultMaxErrors is the capacity of a Sink created with NewSink when no
// override is given.
const DefaultMaxErrors = 100

// Sink is a fixed-capacity, append-only collection of diagnostics. Entries
// past the capacity are dropped silently, but the sticky Truncated flag
// records that it happened. A Sink never halts the pipeline that feeds it;
// every phase of the semantic pass is handed the same Sink and keeps running
// after reporting.
type Sink struct {
	Path      string
	MaxErrors int

	entries   []Diagnostic
	truncated bool
}

// NewSink creates a Sink for diagnostics about the file at path. A maxErrors
// of 0 or less uses DefaultMaxErrors.
func NewSink(path string, maxErrors int) *Sink {
	if maxErrors <= 0 {
		maxErrors = DefaultMaxErrors
	}
	return &Sink{Path: path, MaxErrors: maxErrors}
}

func (s *Sink) add(d Diagnostic) {
	if len(s.entries) >= s.MaxErrors {
		s.truncated = true
		return
	}
	s.entries = append(s.entries, d)
}

// Error records an error-severity diagnostic.
func (s *Sink) Error(code Code, rng Range, format string, args ...any) {
	s.add(Diagnostic{Code: code, Severity: SeverityError, Range: rng, Message: fmt.Sprintf(format, args...)})
}

// Warning records a warning-severity diagnostic.
func (s *Sink) Warning(code Code, rng Range, format string, args ...any) {
	s.add(Diagnostic{Code: code, Severity: SeverityWarning, Range: rng, Message: fmt.Sprintf(format, args...)})
}

// Report records a diagnostic at its Code's default severity.
func (s *Sink) Report(code Code, rng Range, format string, args ...any) {
	s.add(Diagnostic{Code: code, Severity: code.DefaultSeverity(), Range: rng, Message: fmt.Sprintf(format, args...)})
}

// Truncated reports whether any diagnostics were dropped due to capacity.
func (s *Sink) Truncated() bool {
	return s.truncated
}

// Len returns the number of diagnostics currently held (not counting any
// dropped due to truncation).
func (s *Sink) Len() int {
	return len(s.entries)
}

// HasErrors returns whether any error-severity diagnostic has been recorded.
func (s *Sink) HasErrors() bool {
	for _, d := range s.entries {
		if d.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Sorted returns all diagnostics ordered by (range start, severity), stable
// with respect to insertion order for equal keys. This is the order the
// iterators and text rendering use, and is guaranteed stable across runs of
// the same analysis (see the idempotence testable property).
func (s *Sink) Sorted() []Diagnostic {
	out := make([]Diagnostic, len(s.entries))
	copy(out, s.entries)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Range.Start.Offset != b.Range.Start.Offset {
			return a.Range.Start.Offset < b.Range.Start.Offset
		}
		return a.Severity < b.Severity
	})
	return out
}

// Errors iterates error-severity diagnostics in sorted order.
func (s *Sink) Errors() []Diagnostic {
	return s.filterSorted(SeverityError)
}

// Warnings iterates warning-severity diagnostics in sorted order.
func (s *Sink) Warnings() []Diagnostic {
	return s.filterSorted(SeverityWarning)
}

func (s *Sink) filterSorted(sv Severity) []Diagnostic {
	var out []Diagnostic
	for _, d := range s.Sorted() {
		if d.Severity == sv {
			out = append(out, d)
		}
	}
	return out
}

// Format renders a single diagnostic in the stable, test-checked text format:
// "<path>:<line>:<col>: <severity>: <message>".
func (s *Sink) Format(d Diagnostic) string {
	return fmt.Sprintf("%s:%d:%d: %s: %s", s.Path, d.Range.Start.Line, d.Range.Start.Col, d.Severity, d.Message)
}

// FormatAll renders every diagnostic, in sorted order, one per line.
func (s *Sink) FormatAll() []string {
	sorted := s.Sorted()
	lines := make([]string, len(sorted))
	for i, d := range sorted {
		lines[i] = s.Format(d)
	}
	return lines
}
