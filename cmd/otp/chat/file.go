package chat

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/N3E6X/The-Origami-Thought-Protocol/internal/logging"
	"github.com/N3E6X/The-Origami-Thought-Protocol/internal/perception"
	"github.com/N3E6X/The-Origami-Thought-Protocol/internal/transcript"
)

// ValidationError reports a rejected attachment path. It never
// terminates the loop; the previously staged attachment (if any)
// stays untouched.
type ValidationError struct {
	Path   string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid attachment %s: %s", e.Path, e.Reason)
}

// handleFile runs the /file flow: prompt for a path, validate it,
// upload, and stage the result for the next message.
func (l *Loop) handleFile(ctx context.Context) {
	printHeader(l.out, "FILE SELECTOR")
	fmt.Fprintln(l.out, "Supported formats:")
	fmt.Fprintln(l.out, "  Images: jpg, jpeg, png, gif, webp")
	fmt.Fprintln(l.out, "  Videos: mp4, mpeg, mov, avi, webm")
	fmt.Fprintln(l.out, "  Audio:  mp3, wav, aiff, aac, ogg, flac")
	fmt.Fprint(l.out, "\nEnter file path (or drag and drop): ")

	line, err := l.readLine(ctx)
	if err != nil {
		return
	}
	raw := strings.Trim(strings.TrimSpace(line), "'\"")
	if raw == "" {
		return
	}

	path := expandHome(raw)

	info, statErr := os.Stat(path)
	if statErr != nil {
		fmt.Fprintf(l.out, "%s File not found: %s\n", l.styles.Error.Render("[ERROR]"), path)
		logging.AttachmentError("%v", &ValidationError{Path: path, Reason: "file not found"})
		return
	}
	if !info.Mode().IsRegular() {
		fmt.Fprintf(l.out, "%s Not a file: %s\n", l.styles.Error.Render("[ERROR]"), path)
		logging.AttachmentError("%v", &ValidationError{Path: path, Reason: "not a regular file"})
		return
	}

	mimeType := perception.DetectMIME(path)
	if mimeType == perception.OctetStream {
		fmt.Fprintf(l.out, "%s Unknown file type: %s\n", l.styles.Warn.Render("[WARNING]"), filepath.Ext(path))
		fmt.Fprint(l.out, "Continue? [y/N]: ")
		choice, readErr := l.readLine(ctx)
		if readErr != nil || strings.ToLower(strings.TrimSpace(choice)) != "y" {
			return
		}
	}

	fmt.Fprintf(l.out, "%s %s: %s\n", l.styles.OK.Render("[OK]"), perception.KindLabel(mimeType), filepath.Base(path))
	fmt.Fprintf(l.out, "Uploading %s... ", filepath.Base(path))

	ref, upErr := l.gen.Upload(ctx, path, mimeType)
	if upErr != nil {
		fmt.Fprintf(l.out, "\n%s Upload failed: %v\n", l.styles.Error.Render("[ERROR]"), upErr)
		if appendErr := l.store.Append(l.session, transcript.RoleSystem, fmt.Sprintf("Error: %v", upErr), false); appendErr != nil {
			l.persistWarn(appendErr)
		}
		return
	}

	l.attach.Stage(ref)
	fmt.Fprintln(l.out, l.styles.OK.Render("[OK]"))
	logging.Attachment("Staged %s (%s) for session %s", ref.DisplayName, ref.MIMEType, l.session.ID)
}

func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}
