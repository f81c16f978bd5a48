package chat

const helpText = `
Commands:
/help  Show this help message
/clean Clear chat history
/add   Attach file contents to chat context
/trans Translate text (uses LLM)
/eval  Evaluate arithmetic expression
/save  Save an informe about the chat
/stream [on|off] Toggle streaming output
`

// slashCommands feeds tab completion.
var slashCommands = []string{"/add", "/clean", "/eval", "/help", "/save", "/stream", "/trans"}
