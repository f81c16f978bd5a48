// Package commit builds the commit-message prompt from the staged changes
// and tidies the model's answer.
package commit

import (
	"context"
	"strings"
)

// StagedCommands collect the repository state the message is written from.
var StagedCommands = []string{
	"git status -sb",
	"git diff --cached --quiet && echo 'No staged changes' || (git diff --staged --stat --no-color && git diff --staged --no-color)",
}

// Instruction tells the model what to produce.
const Instruction = `You write git commit messages.
Read the staged changes and write one commit message that describes them.
Return only the commit message, with no code fences, quotes or commentary.
If there are no staged changes, say so in a single line.`

// Convention is the message format the model must follow. It is also shown
// to the user, commented out, under the generated message.
const Convention = `Title: imperative mood, at most 50 characters, no trailing period.
Optional type prefix: feat, fix, docs, refactor, test, chore, perf, build, ci.
Leave one blank line between the title and the body.
Body: wrap at 72 characters, explain what changed and why, not how.
Use "-" bullets when listing several independent changes.`

// Skeleton shows the expected shape of the answer.
const Skeleton = `<type>: <short summary>

<what changed and why>

- <independent change>
- <independent change>`

// Runner executes shell command lines and returns their reports.
type Runner interface {
	RunCommands(ctx context.Context, lines []string) string
}

// StagedChanges runs StagedCommands through r.
func StagedChanges(ctx context.Context, r Runner) string {
	return r.RunCommands(ctx, StagedCommands)
}

// BuildPrompt assembles the commit prompt from the staged-changes report and
// an optional user hint.
func BuildPrompt(changes, hint string) string {
	sections := []string{
		Cover("instruction", Instruction),
		Cover("convention", Convention),
		Cover("skeleton", Skeleton),
	}
	if hint = strings.TrimSpace(hint); hint != "" {
		sections = append(sections, Cover("hint", hint))
	}
	sections = append(sections, Cover("staged changes", changes))
	return strings.Join(sections, "\n\n")
}

// Cover wraps content in ":: START TITLE ::" / ":: END TITLE ::" markers.
func Cover(title, content string) string {
	t := strings.ToUpper(title)
	return ":: START " + t + " ::\n" + content + "\n:: END " + t + " ::"
}

// Comment prefixes every line of text with "# ".
func Comment(text string) string {
	lines := strings.Split(strings.TrimSuffix(text, "\n"), "\n")
	for i, line := range lines {
		lines[i] = "# " + line
	}
	return strings.Join(lines, "\n")
}

// NormalizeCommitMessage trims trailing whitespace and makes sure the title
// is followed by a blank line.
func NormalizeCommitMessage(message string) string {
	trimmed := strings.TrimRight(message, " \t\r\n")
	title, body, ok := strings.Cut(trimmed, "\n")
	if !ok || strings.HasPrefix(body, "\n") {
		return trimmed
	}
	return title + "\n\n" + body
}

// Format returns the final output: the normalized message followed by the
// commented convention.
func Format(message string) string {
	return NormalizeCommitMessage(message) + "\n\n" + Comment(Convention)
}
