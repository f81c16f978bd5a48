package chat

import (
	"strings"

	"netero/internal/lang"
)

// Section titles used in chat prompts.
const (
	TitleInstruction   = "INSTRUCTION (SYSTEM)"
	TitleHistory       = "HISTORIAL CHAT (SYSTEM)"
	TitleCommandOutput = "COMMAND OUTPUT (SYSTEM)"
	TitleAttachment    = "STDIN ATTACHMENT (SYSTEM)"
	TitleUserMessage   = "USER MESSAGE"
)

var instructions = []string{
	"Keep responses concise: 5-20 lines maximum.",
	"Do not use emojis or decorations.",
	"Always prioritize the latest user message over the HISTORICAL CHAT.",
	"The latest message may be completely unrelated to previous messages.",
	"Do not assume continuity or context from the history unless the user explicitly refers to it.",
}

// PromptInput is everything one chat prompt is built from.
type PromptInput struct {
	AssistantName string
	User          string
	DateTime      string
	Locale        string
	History       string
	CommandOutput string
	Attachment    string
	Message       string
}

// Section wraps body in ":: TITLE ::" / ":: END TITLE ::" markers. A blank
// body yields "".
func Section(title, body string) string {
	if strings.TrimSpace(body) == "" {
		return ""
	}
	return ":: " + title + " ::\n\n" + body + "\n\n:: END " + title + " ::"
}

// BuildPrompt assembles a chat prompt: preamble, instructions, history,
// command output, attachment and user message, in that order. Empty
// sections are left out.
func BuildPrompt(in PromptInput) string {
	preamble := strings.Join([]string{
		"LLM ROL: Conversational terminal assistant",
		"LLM NAME: " + in.AssistantName,
		"USERNAME: " + in.User,
		"DATETIME: " + in.DateTime,
		"USER LANG: " + in.Locale,
	}, "\n")

	bullets := make([]string, len(instructions))
	for i, line := range instructions {
		bullets[i] = "- " + line
	}

	parts := []string{preamble}
	for _, s := range []string{
		Section(TitleInstruction, strings.Join(bullets, "\n")),
		Section(TitleHistory, in.History),
		Section(TitleCommandOutput, in.CommandOutput),
		Section(TitleAttachment, in.Attachment),
		Section(TitleUserMessage, in.Message),
	} {
		if s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, "\n\n") + "\n"
}

// BuildTranslatePrompt builds the /trans request. src and dst are already
// normalized tags; src may be "auto-detect".
func BuildTranslatePrompt(src, dst, text string) string {
	var b strings.Builder
	b.WriteString("Task: Translate the following text faithfully, preserving its meaning and context.\n")
	b.WriteString("Return only the translation. Do not explain or add anything.\n")
	b.WriteString("You must translate. Do not choose any other task or language.\n")
	b.WriteString("LANG: " + src + ":" + dst + ".\n")
	b.WriteString("Source language (locked): " + src + ".\n")
	b.WriteString("Target language (locked): " + dst + ".\n")
	b.WriteString("Target language name (locked): " + lang.DisplayName(dst) + ".\n")
	b.WriteString("\nTEXT:\n")
	b.WriteString(text)
	return b.String()
}

// BuildSavePrompt builds the /save request over the joined history. A
// non-empty hint replaces the default instructions.
func BuildSavePrompt(hint, locale, history string) string {
	if hint != "" {
		return "Hint (required): " + hint + "\nChat history:\n" + history + "\n"
	}
	return "Write an informe for the user.\n" +
		"Use the same language as the user.\n" +
		"User language: " + locale + "\n" +
		"Do not add footers, notes, or meta commentary.\n" +
		"Chat history:\n" + history + "\n"
}

// BuildRequestPrompt builds the one-shot prompt for `netero prompt`.
// attached is the ATTACHED FILES block (piped stdin plus path tokens), or "".
func BuildRequestPrompt(locale, request, attached string) string {
	request = strings.TrimSpace(request)
	var body string
	if strings.TrimSpace(attached) == "" {
		body = "User request:\n" + request
	} else {
		body = "== USER REQUEST ==\n" + request + "\n== END USER REQUEST ==\n" +
			"== STDIN FILE ==\n" + attached + "\n== END STDIN FILE =="
	}
	return "USER LANG: " + locale + "\n" + body
}
