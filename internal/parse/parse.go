// Package parse holds the line-level micro-language of the chat session:
// argument tokenizing and #!(...) inline command spans.
package parse

import (
	"strings"
	"unicode"
)

// InlineMarker opens an inline command span. The span runs to the matching ')'.
const InlineMarker = "#!("

// Tokenize splits input into arguments, honoring quotes and backslash escapes.
//
// Backslash escapes the next character except inside single quotes, where it
// is literal. Quote characters are never part of a token. Unterminated quotes
// and a trailing backslash close the current token at end of input.
func Tokenize(input string) []string {
	var (
		args    []string
		current strings.Builder
		quote   rune
		escape  bool
	)

	flush := func() {
		if current.Len() > 0 {
			args = append(args, current.String())
		}
		current.Reset()
	}

	for _, ch := range input {
		if escape {
			current.WriteRune(ch)
			escape = false
			continue
		}
		if ch == '\\' && quote != '\'' {
			escape = true
			continue
		}
		if quote != 0 {
			if ch == quote {
				quote = 0
			} else {
				current.WriteRune(ch)
			}
			continue
		}
		if ch == '"' || ch == '\'' {
			quote = ch
			continue
		}
		if unicode.IsSpace(ch) {
			flush()
			continue
		}
		current.WriteRune(ch)
	}
	flush()

	return args
}

// span is a byte range [start, end) covering "#!(" ... ")".
type span struct {
	start, end int
}

// inner returns the text between the marker and the closing paren.
func (s span) inner(input string) string {
	return input[s.start+len(InlineMarker) : s.end-1]
}

// inlineSpans finds balanced #!(...) spans left to right. The first
// unbalanced marker stops the scan; nothing after it is reported.
func inlineSpans(input string) []span {
	var spans []span
	i := 0
	for {
		off := strings.Index(input[i:], InlineMarker)
		if off < 0 {
			return spans
		}
		start := i + off
		depth := 1
		j := start + len(InlineMarker)
		for ; j < len(input); j++ {
			switch input[j] {
			case '(':
				depth++
			case ')':
				depth--
			}
			if depth == 0 {
				break
			}
		}
		if depth != 0 {
			return spans
		}
		spans = append(spans, span{start: start, end: j + 1})
		i = j + 1
	}
}

// ExtractInlineCommands returns the trimmed, non-empty commands found in
// #!(...) spans, in order of appearance.
func ExtractInlineCommands(input string) []string {
	var cmds []string
	for _, s := range inlineSpans(input) {
		if cmd := strings.TrimSpace(s.inner(input)); cmd != "" {
			cmds = append(cmds, cmd)
		}
	}
	return cmds
}

// StripInlineCommands removes exactly the spans ExtractInlineCommands
// would visit (empty ones included) and trims the result.
func StripInlineCommands(input string) string {
	spans := inlineSpans(input)
	if len(spans) == 0 {
		return strings.TrimSpace(input)
	}

	var b strings.Builder
	b.Grow(len(input))
	prev := 0
	for _, s := range spans {
		b.WriteString(input[prev:s.start])
		prev = s.end
	}
	b.WriteString(input[prev:])
	return strings.TrimSpace(b.String())
}
