package parser

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrorClass is the category of a strict parse failure.
type ErrorClass string

const (
	ClassTrailingComma      ErrorClass = "trailing_comma"
	ClassUnterminatedString ErrorClass = "unterminated_string"
	ClassUnexpectedEnd      ErrorClass = "unexpected_end"
	ClassControlCharacter   ErrorClass = "control_character"
	ClassUnexpectedToken    ErrorClass = "unexpected_token"
	ClassEmpty              ErrorClass = "empty_input"
)

// State is the terminal state of a recovery attempt.
type State string

const (
	StateParsed        State = "parsed"
	StateRecovered     State = "recovered"
	StateUnrecoverable State = "unrecoverable"
)

// RecoveryError describes a payload that stayed invalid after repair.
type RecoveryError struct {
	Class ErrorClass
	Err   error
}

func (e *RecoveryError) Error() string {
	return fmt.Sprintf("invalid structured data (%s): %v", e.Class, e.Err)
}

func (e *RecoveryError) Unwrap() error {
	return e.Err
}

// Outcome is the result of Recover. Original always holds the input
// unchanged; Repaired holds the candidate that was re-parsed, if any.
type Outcome struct {
	State     State
	Value     Value
	Class     ErrorClass
	Err       error
	Applied   []string
	Effective []string
	Original  string
	Repaired  string
}

// OK reports whether a value was produced.
func (o *Outcome) OK() bool {
	return o.State == StateParsed || o.State == StateRecovered
}

// Error returns a *RecoveryError for unrecoverable payloads, else nil.
func (o *Outcome) Error() error {
	if o.State != StateUnrecoverable {
		return nil
	}
	return &RecoveryError{Class: o.Class, Err: o.Err}
}

// Classify maps a strict parse error to an ErrorClass by looking at the
// byte the decoder stopped on.
func Classify(text string, err error) ErrorClass {
	if strings.TrimSpace(text) == "" {
		return ClassEmpty
	}
	var se *json.SyntaxError
	if !errors.As(err, &se) {
		return ClassUnexpectedToken
	}
	if strings.Contains(se.Error(), "unexpected end") {
		return ClassUnexpectedEnd
	}

	off := int(se.Offset) - 1
	if off < 0 || off >= len(text) {
		return ClassUnexpectedEnd
	}
	c := text[off]
	switch {
	case c == '}' || c == ']':
		if prevNonSpace(text, off) == ',' {
			return ClassTrailingComma
		}
	case c == '\n' || c == '\r':
		if strings.Contains(se.Error(), "in string literal") {
			return ClassUnterminatedString
		}
	case isControl(c):
		return ClassControlCharacter
	}
	return ClassUnexpectedToken
}

func prevNonSpace(s string, i int) byte {
	for j := i - 1; j >= 0; j-- {
		if !isSpace(s[j]) {
			return s[j]
		}
	}
	return 0
}

// Recoverer runs the strict parse and, on failure, one repair pass.
type Recoverer struct {
	heuristics []Heuristic
}

// NewRecoverer returns a recoverer over hs, or the default chain when hs is empty.
func NewRecoverer(hs ...Heuristic) *Recoverer {
	if len(hs) == 0 {
		hs = DefaultHeuristics()
	}
	return &Recoverer{heuristics: hs}
}

var defaultRecoverer = NewRecoverer()

// Recover parses text with the default heuristic chain.
func Recover(text string) *Outcome {
	return defaultRecoverer.Recover(text)
}

// Recover parses text. A valid payload never reaches the heuristics.
func (r *Recoverer) Recover(text string) *Outcome {
	out := &Outcome{Original: text}

	v, err := Parse(text)
	if err == nil {
		out.State = StateParsed
		out.Value = v
		return out
	}
	out.Err = err
	out.Class = Classify(text, err)

	candidate := text
	for _, h := range r.heuristics {
		if !h.Applies(out.Class, candidate) {
			continue
		}
		out.Applied = append(out.Applied, h.Name)
		repaired := h.Repair(candidate)
		if repaired != candidate {
			out.Effective = append(out.Effective, h.Name)
			candidate = repaired
		}
	}

	if len(out.Effective) == 0 {
		out.State = StateUnrecoverable
		return out
	}
	out.Repaired = candidate

	v, err = Parse(candidate)
	if err != nil {
		out.State = StateUnrecoverable
		return out
	}
	out.State = StateRecovered
	out.Value = v
	return out
}
