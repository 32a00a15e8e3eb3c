package chat

import "strings"

// command identifies a slash command recognized by the chat loop. Input
// that is not a recognized command is sent to the model as a message,
// including unrecognized slash-prefixed text.
type command int

const (
	cmdMessage command = iota
	cmdNone
	cmdQuit
	cmdClear
	cmdHelp
	cmdModel
	cmdHistory
	cmdExport
	cmdFile
	cmdSearch
)

// parseCommand classifies one line of user input. Matching is
// case-insensitive. Arg-less commands match only when the whole line is
// the command word; "/quit now" is a message, not a quit. /search takes
// the rest of the line as its term.
func parseCommand(input string) (command, string) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return cmdNone, ""
	}

	switch strings.ToLower(trimmed) {
	case "/quit", "/exit", "/q":
		return cmdQuit, ""
	case "/clear":
		return cmdClear, ""
	case "/help":
		return cmdHelp, ""
	case "/model":
		return cmdModel, ""
	case "/history":
		return cmdHistory, ""
	case "/export":
		return cmdExport, ""
	case "/file":
		return cmdFile, ""
	}

	word, rest, _ := strings.Cut(trimmed, " ")
	if strings.ToLower(word) == "/search" {
		return cmdSearch, strings.TrimSpace(rest)
	}
	return cmdMessage, ""
}

const helpText = `Available commands:
  /help           Show this help
  /model          Switch AI model
  /file           Attach a file to your next message
  /history        Browse saved conversations
  /search <term>  Search message text across saved conversations
  /export         Export this conversation to a text file
  /clear          Clear the screen
  /quit           Save and exit (aliases: /exit, /q)

Anything else you type is sent to the model.`
