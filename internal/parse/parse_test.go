package parse

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"plain words", "a b  c", []string{"a", "b", "c"}},
		{"single quotes group", "a 'b c' d", []string{"a", "b c", "d"}},
		{"double quotes group", `say "hello world"`, []string{"say", "hello world"}},
		{"escaped space", `a\ b`, []string{"a b"}},
		{"backslash literal in single quotes", `'a\b'`, []string{`a\b`}},
		{"escape inside double quotes", `"a\"b"`, []string{`a"b`}},
		{"quotes join adjacent text", `pre'fix'post`, []string{"prefixpost"}},
		{"empty quotes dropped", `a '' b`, []string{"a", "b"}},
		{"unterminated quote closes at end", `a "b c`, []string{"a", "b c"}},
		{"trailing escape tolerated", `a\`, []string{"a"}},
		{"tabs and newlines separate", "a\tb\nc", []string{"a", "b", "c"}},
		{"blank input", "   ", nil},
		{"unicode", "ñandú 'über alles'", []string{"ñandú", "über alles"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, Tokenize(tt.input)); diff != "" {
				t.Errorf("Tokenize(%q) mismatch (-want +got):\n%s", tt.input, diff)
			}
		})
	}
}

func TestExtractInlineCommands(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"none", "just text", nil},
		{"single", "check #!(ls -la) please", []string{"ls -la"}},
		{"trimmed", "#!(  pwd  )", []string{"pwd"}},
		{"nested parens", "#!(echo $(date) (x)) done", []string{"echo $(date) (x)"}},
		{"multiple in order", "#!(a) and #!(b)", []string{"a", "b"}},
		{"empty discarded", "#!(   ) #!(b)", []string{"b"}},
		{"unbalanced stops scan", "#!(a) #!(b (c) #!(d)", []string{"a"}},
		{"marker needs paren", "#! (ls) #!ls", nil},
		{"dollar form is not a marker", "$(ls)", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, ExtractInlineCommands(tt.input)); diff != "" {
				t.Errorf("ExtractInlineCommands(%q) mismatch (-want +got):\n%s", tt.input, diff)
			}
		})
	}
}

func TestStripInlineCommands(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"none trims", "  hello  ", "hello"},
		{"single", "check #!(ls -la) please", "check  please"},
		{"nested", "x #!(echo (a)) y", "x  y"},
		{"empty span still stripped", "a #!() b", "a  b"},
		{"leading span", "#!(git status) summarize", "summarize"},
		{"unbalanced left as is", "#!(a) tail #!(b (c)", "tail #!(b (c)"},
		{"later balanced span after unbalanced kept", "x #!( #!(ls)", "x #!( #!(ls)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StripInlineCommands(tt.input))
		})
	}
}

func TestStripRemovesExactlyExtractedSpans(t *testing.T) {
	inputs := []string{
		"alpha #!(ls -la) beta #!(git log (x)) gamma",
		"#!(one)#!(two)three",
		"  lead #!( spaced ) trail  ",
	}

	for _, input := range inputs {
		spans := inlineSpans(input)
		stripped := StripInlineCommands(input)

		for _, cmd := range ExtractInlineCommands(input) {
			assert.NotContains(t, stripped, cmd)
		}

		// Re-inserting each span at its original offset rebuilds the input.
		var b strings.Builder
		prev := 0
		for _, s := range spans {
			b.WriteString(input[prev:s.start])
			b.WriteString(input[s.start:s.end])
			prev = s.end
		}
		b.WriteString(input[prev:])
		assert.Equal(t, input, b.String())

		var rest strings.Builder
		prev = 0
		for _, s := range spans {
			rest.WriteString(input[prev:s.start])
			prev = s.end
		}
		rest.WriteString(input[prev:])
		assert.Equal(t, strings.TrimSpace(rest.String()), stripped)
	}
}
