// Package ambient supplies the per-process context the chat prompt embeds:
// user name, locale tag, current date-time and piped stdin.
package ambient

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"golang.org/x/term"
)

// DateTimeLayout is the DATETIME format used in prompts and /save names.
const DateTimeLayout = "2006-01-02 15:04:05"

// Env reads ambient values. The zero value is not usable; call Default.
type Env struct {
	Getenv func(string) string
	Now    func() time.Time
}

// Default reads from the process environment and wall clock.
func Default() Env {
	return Env{Getenv: os.Getenv, Now: time.Now}
}

// User returns $USER with its first letter upper-cased, or "User".
func (e Env) User() string {
	name := e.Getenv("USER")
	if name == "" {
		name = "user"
	}
	return Capitalize(name)
}

// Locale returns the first non-empty of LC_ALL, LC_MESSAGES and LANG.
func (e Env) Locale() string {
	for _, k := range []string{"LC_ALL", "LC_MESSAGES", "LANG"} {
		if v := strings.TrimSpace(e.Getenv(k)); v != "" {
			return v
		}
	}
	return ""
}

// DateTime returns the current local time as DateTimeLayout.
func (e Env) DateTime() string {
	return e.Now().Format(DateTimeLayout)
}

// Capitalize upper-cases the first rune of s.
func Capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// ReadPiped drains f when it is not a terminal. piped reports whether that
// happened; interactive input must then come from the controlling terminal.
func ReadPiped(f *os.File) (content string, piped bool, err error) {
	if IsTerminal(f) {
		return "", false, nil
	}
	data, err := io.ReadAll(f)
	if err != nil {
		return "", true, fmt.Errorf("failed to read piped stdin: %w", err)
	}
	return string(data), true, nil
}
