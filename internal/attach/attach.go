// Package attach turns path-shaped tokens into file attachments and formats
// them, together with piped stdin, into the ATTACHED FILES prompt block.
package attach

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"netero/internal/logging"
)

// Margin indents every attached line inside the block.
const Margin = "      "

// Attachment is a file read at extraction time.
type Attachment struct {
	// DisplayPath is the token as the user typed it, before ~ expansion.
	DisplayPath string
	Content     string
}

// IsPathCandidate reports whether token looks like a file path.
func IsPathCandidate(token string) bool {
	return strings.HasPrefix(token, "/") ||
		strings.HasPrefix(token, "./") ||
		strings.HasPrefix(token, "../") ||
		strings.HasPrefix(token, "~/")
}

// ExpandHome resolves a leading "~/" against $HOME. Without $HOME the path
// is returned as typed.
func ExpandHome(path string) string {
	rest, ok := strings.CutPrefix(path, "~/")
	if !ok {
		return path
	}
	home := os.Getenv("HOME")
	if home == "" {
		return path
	}
	return filepath.Join(home, rest)
}

// ReadText reads path as UTF-8 text. Directories, special files and binary
// content are rejected.
func ReadText(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", err
	}
	if !info.Mode().IsRegular() {
		return "", fmt.Errorf("%s: not a regular file", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(data) {
		return "", fmt.Errorf("%s: not valid UTF-8 text", path)
	}
	return string(data), nil
}

// ExtractAttachments splits tokens into attachments and everything else.
// Path candidates that cannot be read as text pass through unchanged.
func ExtractAttachments(tokens []string) (remaining []string, attachments []Attachment) {
	for _, tok := range tokens {
		if !IsPathCandidate(tok) {
			remaining = append(remaining, tok)
			continue
		}
		content, err := ReadText(ExpandHome(tok))
		if err != nil {
			logging.AttachDebug("token %q kept as text: %v", tok, err)
			remaining = append(remaining, tok)
			continue
		}
		logging.AttachDebug("attached %s (%d bytes)", tok, len(content))
		attachments = append(attachments, Attachment{DisplayPath: tok, Content: content})
	}
	return remaining, attachments
}

// ReadForAdd reads one /add argument. Unlike ExtractAttachments any path
// shape is accepted.
func ReadForAdd(path string) (Attachment, error) {
	content, err := ReadText(ExpandHome(path))
	if err != nil {
		return Attachment{}, err
	}
	return Attachment{DisplayPath: path, Content: content}, nil
}

// FormatAttachedFiles builds the ATTACHED FILES block: a STDIN section when
// stdin is not blank, then one section per attachment in order. It reports
// false when there is nothing to attach.
func FormatAttachedFiles(stdin string, attachments []Attachment) (string, bool) {
	var sections []string
	if strings.TrimSpace(stdin) != "" {
		sections = append(sections, "-- FILE: STDIN --\n"+Indent(stdin, Margin))
	}
	for _, a := range attachments {
		sections = append(sections, "-- FILE: "+a.DisplayPath+" --\n"+Indent(a.Content, Margin))
	}
	if len(sections) == 0 {
		return "", false
	}

	var b strings.Builder
	b.WriteString(":: ATTACHED FILES ::\n\n")
	b.WriteString(strings.Join(sections, "\n\n"))
	b.WriteString("\n\n:: END ATTACHED FILES ::")
	return b.String(), true
}

// FormatAddAttachment renders one /add success: "\n-- FILE: p --\ncontent\n".
func FormatAddAttachment(a Attachment) string {
	return "\n-- FILE: " + a.DisplayPath + " --\n" + a.Content + "\n"
}

// Indent prefixes every line of content. A trailing newline yields a final
// prefixed empty line so the block keeps its shape.
func Indent(content, prefix string) string {
	if content == "" {
		return ""
	}
	lines := strings.Split(strings.TrimSuffix(content, "\n"), "\n")
	var b strings.Builder
	for i, line := range lines {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(prefix)
		b.WriteString(strings.TrimSuffix(line, "\r"))
	}
	if strings.HasSuffix(content, "\n") {
		b.WriteByte('\n')
		b.WriteString(prefix)
	}
	return b.String()
}
