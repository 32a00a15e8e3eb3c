package chat

import (
	"testing"

	"github.com/N3E6X/The-Origami-Thought-Protocol/internal/perception"
)

func TestAttachmentConsumedExactlyOnce(t *testing.T) {
	a := &AttachmentState{}

	if a.Peek() != nil {
		t.Fatal("expected no pending attachment initially")
	}
	if a.Consume() != nil {
		t.Fatal("consuming empty state should return nil")
	}

	ref := &perception.FileRef{Name: "files/abc", DisplayName: "cat.png"}
	a.Stage(ref)

	if got := a.Peek(); got != ref {
		t.Errorf("Peek returned %v, want staged ref", got)
	}
	if got := a.Peek(); got != ref {
		t.Error("Peek must not clear the pending attachment")
	}

	if got := a.Consume(); got != ref {
		t.Errorf("Consume returned %v, want staged ref", got)
	}
	if a.Consume() != nil {
		t.Error("second Consume must return nil")
	}
	if a.Peek() != nil {
		t.Error("Peek after Consume must return nil")
	}
}

func TestStageReplacesPrevious(t *testing.T) {
	a := &AttachmentState{}
	first := &perception.FileRef{Name: "files/one", DisplayName: "one.png"}
	second := &perception.FileRef{Name: "files/two", DisplayName: "two.png"}

	a.Stage(first)
	a.Stage(second)

	if got := a.Consume(); got != second {
		t.Errorf("expected the latest staged ref, got %v", got)
	}
}
