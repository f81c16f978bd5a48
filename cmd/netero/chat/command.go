package chat

import (
	"strings"
	"unicode"

	"netero/internal/parse"
)

// Kind identifies what a line of input asks for.
type Kind int

const (
	KindEmpty Kind = iota
	KindClean
	KindHelp
	KindAdd
	KindStream
	KindTrans
	KindEval
	KindSave
	KindChat
)

var kindNames = map[Kind]string{
	KindEmpty:  "empty",
	KindClean:  "clean",
	KindHelp:   "help",
	KindAdd:    "add",
	KindStream: "stream",
	KindTrans:  "trans",
	KindEval:   "eval",
	KindSave:   "save",
	KindChat:   "chat",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// Command is one classified input line. Only the fields for its Kind are set.
type Command struct {
	Kind Kind
	// Usage is set when the arguments are missing or malformed; the command
	// then only prints its usage line.
	Usage bool

	Paths    []string // add
	StreamOn bool     // stream
	Src, Dst string   // trans directive, empty when absent
	Text     string   // trans text, eval expression, save hint, chat line
}

// Usage lines printed for malformed commands.
const (
	usageAdd    = "Usage: /add <path> [path2 path3 ...]"
	usageStream = "Usage: /stream on|off"
	usageTrans  = "Usage: /trans [INPUT_LANG:OUTPUT_LANG] <text>"
	usageEval   = "Usage: /eval <expression>"
)

// Classify maps a trimmed input line to a Command. Checks run in a fixed
// order and the first match wins: /clean and /help match exactly, the rest
// by prefix, and anything else is chat.
func Classify(line string) Command {
	switch {
	case line == "":
		return Command{Kind: KindEmpty}
	case line == "/clean":
		return Command{Kind: KindClean}
	case line == "/help":
		return Command{Kind: KindHelp}
	}

	if rest, ok := strings.CutPrefix(line, "/add"); ok {
		paths := parse.Tokenize(strings.TrimSpace(rest))
		return Command{Kind: KindAdd, Paths: paths, Usage: len(paths) == 0}
	}

	if rest, ok := strings.CutPrefix(line, "/stream"); ok {
		switch strings.ToLower(strings.TrimSpace(rest)) {
		case "on":
			return Command{Kind: KindStream, StreamOn: true}
		case "off":
			return Command{Kind: KindStream}
		default:
			return Command{Kind: KindStream, Usage: true}
		}
	}

	if rest, ok := strings.CutPrefix(line, "/trans"); ok {
		raw := strings.TrimSpace(parse.StripInlineCommands(rest))
		src, dst, text := parseLangDirective(raw)
		return Command{Kind: KindTrans, Src: src, Dst: dst, Text: text, Usage: text == ""}
	}

	if rest, ok := strings.CutPrefix(line, "/eval"); ok {
		expr := strings.TrimSpace(parse.StripInlineCommands(rest))
		return Command{Kind: KindEval, Text: expr, Usage: expr == ""}
	}

	if rest, ok := strings.CutPrefix(line, "/save"); ok {
		return Command{Kind: KindSave, Text: strings.TrimSpace(parse.StripInlineCommands(rest))}
	}

	return Command{Kind: KindChat, Text: line}
}

// parseLangDirective splits an optional leading "src:dst" word off raw. The
// word must contain ':' and only [A-Za-z0-9_:-]; it is split on the first
// ':'. When both halves are empty the word is kept as text.
func parseLangDirective(raw string) (src, dst, text string) {
	first, rest := raw, ""
	if i := strings.IndexFunc(raw, unicode.IsSpace); i >= 0 {
		first, rest = raw[:i], raw[i:]
	}
	if !strings.Contains(first, ":") || !isDirectiveWord(first) {
		return "", "", raw
	}

	src, dst, _ = strings.Cut(first, ":")
	if src == "" && dst == "" {
		return "", "", raw
	}
	return src, dst, strings.TrimSpace(rest)
}

func isDirectiveWord(s string) bool {
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '_', r == '-', r == ':':
		default:
			return false
		}
	}
	return true
}
