// Package chat implements the interactive OTP chat loop: command
// dispatch, attachment staging, the history browser, and the setup
// prompts for credentials and model selection.
package chat

import (
	"github.com/N3E6X/The-Origami-Thought-Protocol/internal/logging"
	"github.com/N3E6X/The-Origami-Thought-Protocol/internal/perception"
)

// AttachmentState tracks at most one pending uploaded file. The pending
// file is tied to the next outgoing message only: it is consumed exactly
// once and never reused across two sends.
type AttachmentState struct {
	pending *perception.FileRef
}

// Stage sets the pending attachment, replacing any previous one.
func (a *AttachmentState) Stage(ref *perception.FileRef) {
	if a.pending != nil {
		logging.Attachment("Replacing staged attachment %s with %s", a.pending.DisplayName, ref.DisplayName)
	}
	a.pending = ref
}

// Consume returns and clears the pending attachment.
func (a *AttachmentState) Consume() *perception.FileRef {
	ref := a.pending
	a.pending = nil
	return ref
}

// Peek returns the pending attachment without clearing it. Used only for
// prompt annotation.
func (a *AttachmentState) Peek() *perception.FileRef {
	return a.pending
}
