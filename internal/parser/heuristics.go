package parser

import "strings"

// Heuristic is one bounded textual repair. Repair is a pure function; the
// chain is an ordered list of these values.
type Heuristic struct {
	Name   string
	Class  ErrorClass
	Detect func(text string) bool
	Repair func(text string) string
}

// Applies reports whether h should run for a failure of class on text.
func (h Heuristic) Applies(class ErrorClass, text string) bool {
	if class == h.Class {
		return true
	}
	return h.Detect != nil && h.Detect(text)
}

// Names of the built-in heuristics.
const (
	HeuristicTrailingComma      = "trailing_comma"
	HeuristicUnterminatedString = "unterminated_string"
	HeuristicBalanceBrackets    = "balance_brackets"
	HeuristicControlCharacters  = "control_characters"
)

// DefaultHeuristics returns the built-in chain in application order.
func DefaultHeuristics() []Heuristic {
	return []Heuristic{
		{
			Name:   HeuristicTrailingComma,
			Class:  ClassTrailingComma,
			Detect: hasTrailingComma,
			Repair: RemoveTrailingCommas,
		},
		{
			Name:   HeuristicUnterminatedString,
			Class:  ClassUnterminatedString,
			Detect: hasUnterminatedLine,
			Repair: CloseUnterminatedStrings,
		},
		{
			Name:   HeuristicBalanceBrackets,
			Class:  ClassUnexpectedEnd,
			Detect: func(s string) bool { return len(missingClosers(s)) > 0 },
			Repair: BalanceBrackets,
		},
		{
			Name:   HeuristicControlCharacters,
			Class:  ClassControlCharacter,
			Detect: hasControlCharacters,
			Repair: StripControlCharacters,
		},
	}
}

// scan walks s outside of string literals and calls visit for every
// structural byte. A raw newline ends a string, since the grammar does not
// allow one inside it.
func scan(s string, visit func(i int, c byte)) {
	inString, escaped := false, false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case c == '\n':
				inString, escaped = false, false
				visit(i, c)
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		if c == '"' {
			inString = true
			continue
		}
		visit(i, c)
	}
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

// trailingCommas returns the offsets of commas followed only by whitespace
// and then a closing bracket, a closing brace or the end of input.
func trailingCommas(s string) []int {
	var out []int
	scan(s, func(i int, c byte) {
		if c != ',' {
			return
		}
		j := i + 1
		for j < len(s) && isSpace(s[j]) {
			j++
		}
		if j == len(s) || s[j] == '}' || s[j] == ']' {
			out = append(out, i)
		}
	})
	return out
}

func hasTrailingComma(s string) bool {
	return len(trailingCommas(s)) > 0
}

// RemoveTrailingCommas drops commas that precede a closer or end the input.
func RemoveTrailingCommas(s string) string {
	drop := trailingCommas(s)
	if len(drop) == 0 {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	last := 0
	for _, i := range drop {
		b.WriteString(s[last:i])
		last = i + 1
	}
	b.WriteString(s[last:])
	return b.String()
}

// countQuotes counts unescaped double quotes.
func countQuotes(line string) int {
	n := 0
	for i := 0; i < len(line); i++ {
		switch line[i] {
		case '\\':
			i++
		case '"':
			n++
		}
	}
	return n
}

func unterminated(line string) bool {
	return countQuotes(line)%2 == 1 && !strings.HasSuffix(line, `"`)
}

func hasUnterminatedLine(s string) bool {
	for _, line := range strings.Split(s, "\n") {
		if unterminated(strings.TrimRight(line, " \t\r")) {
			return true
		}
	}
	return false
}

// CloseUnterminatedStrings appends a closing quote to every line that holds
// an odd number of quotes and does not already end with one.
func CloseUnterminatedStrings(s string) string {
	lines := strings.Split(s, "\n")
	changed := false
	for i, line := range lines {
		trimmed := strings.TrimRight(line, " \t\r")
		if unterminated(trimmed) {
			lines[i] = trimmed + `"`
			changed = true
		}
	}
	if !changed {
		return s
	}
	return strings.Join(lines, "\n")
}

// missingClosers returns the closers needed to balance s, innermost first.
func missingClosers(s string) []byte {
	var stack []byte
	scan(s, func(_ int, c byte) {
		switch c {
		case '{':
			stack = append(stack, '}')
		case '[':
			stack = append(stack, ']')
		case '}', ']':
			if n := len(stack); n > 0 && stack[n-1] == c {
				stack = stack[:n-1]
			}
		}
	})
	closers := make([]byte, 0, len(stack))
	for i := len(stack) - 1; i >= 0; i-- {
		closers = append(closers, stack[i])
	}
	return closers
}

// BalanceBrackets appends the closers for every unmatched opener.
func BalanceBrackets(s string) string {
	closers := missingClosers(s)
	if len(closers) == 0 {
		return s
	}
	return s + string(closers)
}

func isControl(c byte) bool {
	return (c < 0x20 && c != '\t' && c != '\n' && c != '\r') || c == 0x7f
}

func hasControlCharacters(s string) bool {
	for i := 0; i < len(s); i++ {
		if isControl(s[i]) {
			return true
		}
	}
	return false
}

// StripControlCharacters removes control bytes other than tab, newline and
// carriage return.
func StripControlCharacters(s string) string {
	if !hasControlCharacters(s) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if !isControl(s[i]) {
			b.WriteByte(s[i])
		}
	}
	return b.String()
}
