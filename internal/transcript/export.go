package transcript

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/N3E6X/The-Origami-Thought-Protocol/internal/logging"
)

// Export writes a human-readable plain-text dump of the session transcript
// to dir. The artifact is not meant for re-ingestion.
func Export(sess *Session, dir string) (string, error) {
	path := filepath.Join(dir, fmt.Sprintf("export_%s.txt", sess.ID))

	var b strings.Builder
	b.WriteString("Origami Thought Protocol - Chat Export\n")
	b.WriteString(strings.Repeat("=", 40) + "\n\n")
	fmt.Fprintf(&b, "Session: %s\n", sess.ID)
	fmt.Fprintf(&b, "Model: %s\n", sess.Model)
	fmt.Fprintf(&b, "Created: %s\n", sess.Created.Format("2006-01-02 15:04:05"))
	b.WriteString("\n" + strings.Repeat("-", 40) + "\n\n")

	for _, msg := range sess.Messages {
		fmt.Fprintf(&b, "[%s] %s:\n", msg.Timestamp.Format("2006-01-02 15:04:05"), strings.ToUpper(string(msg.Role)))
		fmt.Fprintf(&b, "%s\n\n", msg.Content)
	}

	if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil {
		logging.StoreError("Export of %s failed: %v", sess.ID, err)
		return "", &PersistError{Path: path, Op: "export", Err: err}
	}

	logging.Store("Exported session %s to %s", sess.ID, path)
	return path, nil
}
