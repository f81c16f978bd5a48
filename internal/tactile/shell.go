package tactile

import (
	"os"
	"runtime"
)

// Shell describes how command lines are handed to a shell.
type Shell struct {
	// Path is the shell binary. Empty = $SHELL, then "sh".
	Path string
	// Login adds -l so the user's profile (aliases, PATH) applies.
	Login bool
}

// Resolve returns the shell binary that will run commands.
func (s Shell) Resolve() string {
	if s.Path != "" {
		return s.Path
	}
	if runtime.GOOS == "windows" {
		return "cmd"
	}
	if sh := os.Getenv("SHELL"); sh != "" {
		return sh
	}
	return "sh"
}

// Command wraps line as `<shell> -lc <line>` (or `cmd /C` on Windows).
func (s Shell) Command(line string) Command {
	bin := s.Resolve()
	if runtime.GOOS == "windows" && s.Path == "" {
		return Command{Binary: bin, Arguments: []string{"/C", line}, Display: line}
	}
	flag := "-c"
	if s.Login {
		flag = "-lc"
	}
	return Command{Binary: bin, Arguments: []string{flag, line}, Display: line}
}
