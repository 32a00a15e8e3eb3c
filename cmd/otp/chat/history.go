package chat

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/N3E6X/The-Origami-Thought-Protocol/internal/logging"
	"github.com/N3E6X/The-Origami-Thought-Protocol/internal/transcript"
)

// historyListLimit caps how many sessions the browser menu shows.
const historyListLimit = 10

// truncateForDisplay shortens long message bodies for terminal output.
// Truncation cuts on rune boundaries and is display-only; stored
// records are never altered.
func truncateForDisplay(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}

// runHistoryBrowser presents saved sessions with view, delete, and
// clear-all options, then returns to the chat loop.
func (l *Loop) runHistoryBrowser(ctx context.Context) {
	printHeader(l.out, "CHAT HISTORY")

	sessions, err := l.store.List()
	if err != nil {
		fmt.Fprintf(l.out, "%s Could not list history: %v\n", l.styles.Error.Render("[ERROR]"), err)
		return
	}
	if len(sessions) == 0 {
		fmt.Fprintln(l.out, "No saved conversations found.")
		return
	}

	fmt.Fprintf(l.out, "Found %d conversation(s):\n\n", len(sessions))

	shown := sessions
	if len(shown) > historyListLimit {
		shown = shown[:historyListLimit]
	}
	for i, s := range shown {
		created := s.Created.Format("2006-01-02 15:04")
		model := s.Model
		if model == "" {
			model = "Unknown"
		}
		fmt.Fprintf(l.out, "  %d. [%s] %s (%d messages)\n", i+1, created, model, s.MessageCount)
	}

	fmt.Fprintln(l.out, "\n  0. Back to chat")
	fmt.Fprintln(l.out, "  d. Delete a session")
	fmt.Fprintln(l.out, "  c. Clear all history")
	fmt.Fprint(l.out, "\nSelect option: ")

	line, err := l.readLine(ctx)
	if err != nil {
		return
	}
	choice := strings.ToLower(strings.TrimSpace(line))

	switch choice {
	case "", "0":
		return
	case "d":
		l.deleteOneSession(ctx, sessions)
		return
	case "c":
		l.clearAllSessions(ctx)
		return
	}

	idx, convErr := strconv.Atoi(choice)
	if convErr != nil || idx < 1 || idx > len(sessions) {
		fmt.Fprintln(l.out, "Invalid selection")
		return
	}
	l.displaySession(ctx, sessions[idx-1])
}

func (l *Loop) deleteOneSession(ctx context.Context, sessions []transcript.SessionSummary) {
	fmt.Fprint(l.out, "Enter session number to delete: ")
	line, err := l.readLine(ctx)
	if err != nil {
		return
	}
	idx, convErr := strconv.Atoi(strings.TrimSpace(line))
	if convErr != nil || idx < 1 || idx > len(sessions) {
		fmt.Fprintln(l.out, "Invalid selection")
		return
	}

	fmt.Fprintf(l.out, "Delete session %d? [y/N]: ", idx)
	confirm, err := l.readLine(ctx)
	if err != nil || strings.ToLower(strings.TrimSpace(confirm)) != "y" {
		return
	}

	if l.store.Delete(sessions[idx-1].Path) {
		fmt.Fprintf(l.out, "%s Session deleted\n", l.styles.OK.Render("[OK]"))
		logging.History("Deleted session %s", sessions[idx-1].ID)
	} else {
		fmt.Fprintf(l.out, "%s Failed to delete\n", l.styles.Error.Render("[ERROR]"))
	}
}

func (l *Loop) clearAllSessions(ctx context.Context) {
	fmt.Fprint(l.out, "Delete ALL chat history? [y/N]: ")
	confirm, err := l.readLine(ctx)
	if err != nil || strings.ToLower(strings.TrimSpace(confirm)) != "y" {
		return
	}
	removed := l.store.DeleteAll()
	fmt.Fprintf(l.out, "%s All history cleared\n", l.styles.OK.Render("[OK]"))
	logging.History("Cleared all history (%d sessions removed)", removed)
}

// displaySession prints a saved conversation with long messages
// truncated for readability, then waits for Enter.
func (l *Loop) displaySession(ctx context.Context, sum transcript.SessionSummary) {
	rec, err := l.store.Load(sum.Path)
	if err != nil {
		var corrupt *transcript.CorruptRecordError
		if errors.As(err, &corrupt) {
			fmt.Fprintf(l.out, "%s Conversation file is corrupt: %v\n", l.styles.Error.Render("[ERROR]"), corrupt.Err)
		} else {
			fmt.Fprintf(l.out, "%s Could not load conversation: %v\n", l.styles.Error.Render("[ERROR]"), err)
		}
		return
	}

	fmt.Fprint(l.out, "\x1b[2J\x1b[H")
	printHeader(l.out, "CONVERSATION - "+rec.Metadata.Created.Format("2006-01-02"))
	model := rec.Metadata.Model
	if model == "" {
		model = "Unknown"
	}
	fmt.Fprintf(l.out, "Model: %s\n", model)
	fmt.Fprintf(l.out, "Messages: %d\n", len(rec.Messages))
	fmt.Fprintln(l.out, strings.Repeat("-", 40))

	for _, msg := range rec.Messages {
		marker := ""
		if msg.HasAttachment {
			marker = "[file] "
		}
		content := truncateForDisplay(msg.Content, 500)
		fmt.Fprintf(l.out, "\n[%s] %s:\n", msg.Timestamp.Format("2006-01-02 15:04:05"), strings.ToUpper(string(msg.Role)))
		fmt.Fprintf(l.out, "%s%s\n", marker, content)
	}

	fmt.Fprintln(l.out, "\n"+strings.Repeat("-", 40))
	fmt.Fprint(l.out, "Press Enter to continue...")
	l.readLine(ctx)
}
