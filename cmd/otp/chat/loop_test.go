package chat

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/N3E6X/The-Origami-Thought-Protocol/internal/perception"
	"github.com/N3E6X/The-Origami-Thought-Protocol/internal/transcript"
)

type fakeCall struct {
	model       string
	instruction string
	parts       []perception.Part
}

type fakeGenerator struct {
	reply     string
	err       error
	uploadErr error
	calls     []fakeCall
	uploads   []string
}

func (f *fakeGenerator) Generate(ctx context.Context, model, instruction string, parts []perception.Part) (string, error) {
	f.calls = append(f.calls, fakeCall{model: model, instruction: instruction, parts: parts})
	if f.err != nil {
		return "", f.err
	}
	if f.reply != "" {
		return f.reply, nil
	}
	return "ok", nil
}

func (f *fakeGenerator) Upload(ctx context.Context, path, mimeType string) (*perception.FileRef, error) {
	f.uploads = append(f.uploads, path)
	if f.uploadErr != nil {
		return nil, f.uploadErr
	}
	return &perception.FileRef{
		Name:        "files/fake",
		URI:         "https://files.example/fake",
		MIMEType:    mimeType,
		DisplayName: filepath.Base(path),
	}, nil
}

// runLoop executes a scripted session to completion and returns the loop,
// its terminal output, and the store for inspection.
func runLoop(t *testing.T, gen *fakeGenerator, input string) (*Loop, *bytes.Buffer, *transcript.Store) {
	t.Helper()

	store, err := transcript.Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	var out bytes.Buffer
	loop := New(Options{
		Store:     store,
		Generator: gen,
		Model:     "gemini-2.5-flash",
		ExportDir: t.TempDir(),
		In:        strings.NewReader(input),
		Out:       &out,
	})
	require.NoError(t, loop.Run(context.Background()))
	return loop, &out, store
}

func TestHelloExchange(t *testing.T) {
	gen := &fakeGenerator{reply: "hi"}
	loop, out, store := runLoop(t, gen, "hello\n/quit\n")

	require.Len(t, gen.calls, 1)
	assert.Equal(t, "gemini-2.5-flash", gen.calls[0].model)
	assert.Equal(t, SystemInstruction, gen.calls[0].instruction)
	require.Len(t, gen.calls[0].parts, 1)
	assert.Equal(t, "hello", gen.calls[0].parts[0].Text)

	sess := loop.Session()
	require.Len(t, sess.Messages, 2)
	assert.Equal(t, transcript.RoleUser, sess.Messages[0].Role)
	assert.Equal(t, "hello", sess.Messages[0].Content)
	assert.Equal(t, transcript.RoleAssistant, sess.Messages[1].Role)
	assert.Equal(t, "hi", sess.Messages[1].Content)

	rec, err := store.Load(sess.Path)
	require.NoError(t, err)
	assert.Equal(t, 2, rec.Metadata.MessageCount)
	assert.Contains(t, out.String(), "hi")
}

func TestQuitPersistsEmptySession(t *testing.T) {
	gen := &fakeGenerator{}
	loop, out, store := runLoop(t, gen, "/quit\n")

	assert.Empty(t, gen.calls)
	assert.Contains(t, out.String(), "Chat saved to: "+loop.Session().Path)
	assert.Contains(t, out.String(), "Goodbye!")

	rec, err := store.Load(loop.Session().Path)
	require.NoError(t, err)
	assert.Equal(t, 0, rec.Metadata.MessageCount)
}

func TestEOFEndsSessionLikeQuit(t *testing.T) {
	gen := &fakeGenerator{}
	loop, out, _ := runLoop(t, gen, "")

	assert.Contains(t, out.String(), "Chat saved to: "+loop.Session().Path)
}

func TestBlankInputIgnored(t *testing.T) {
	gen := &fakeGenerator{}
	loop, _, _ := runLoop(t, gen, "\n   \n/quit\n")

	assert.Empty(t, gen.calls)
	assert.Empty(t, loop.Session().Messages)
}

func TestFailedCallKeepsUserMessage(t *testing.T) {
	gen := &fakeGenerator{err: &perception.RemoteCallError{Op: "generate", Err: errors.New("quota exceeded")}}
	loop, out, store := runLoop(t, gen, "hello\n/quit\n")

	sess := loop.Session()
	require.Len(t, sess.Messages, 2)
	assert.Equal(t, transcript.RoleUser, sess.Messages[0].Role)
	assert.Equal(t, transcript.RoleSystem, sess.Messages[1].Role)
	assert.Contains(t, sess.Messages[1].Content, "Error:")
	assert.Contains(t, sess.Messages[1].Content, "quota exceeded")
	assert.Contains(t, out.String(), "[ERROR]")

	rec, err := store.Load(sess.Path)
	require.NoError(t, err)
	assert.Equal(t, 2, rec.Metadata.MessageCount)
}

func TestUnknownSlashSentAsMessage(t *testing.T) {
	gen := &fakeGenerator{reply: "?"}
	_, _, _ = runLoop(t, gen, "/frobnicate\n/quit\n")

	require.Len(t, gen.calls, 1)
	assert.Equal(t, "/frobnicate", gen.calls[0].parts[0].Text)
}

func TestAttachmentSendAndClear(t *testing.T) {
	img := filepath.Join(t.TempDir(), "cat.png")
	require.NoError(t, os.WriteFile(img, []byte("png"), 0644))

	gen := &fakeGenerator{reply: "nice cat"}
	loop, out, _ := runLoop(t, gen, "/file\n"+img+"\nlook at this\nanother message\n/quit\n")

	require.Len(t, gen.uploads, 1)
	require.Len(t, gen.calls, 2)

	// First send carries the file part ahead of the text.
	require.Len(t, gen.calls[0].parts, 2)
	require.NotNil(t, gen.calls[0].parts[0].File)
	assert.Equal(t, "image/png", gen.calls[0].parts[0].File.MIMEType)
	assert.Equal(t, "look at this", gen.calls[0].parts[1].Text)

	// Second send must not reuse the consumed attachment.
	require.Len(t, gen.calls[1].parts, 1)
	assert.Equal(t, "another message", gen.calls[1].parts[0].Text)

	sess := loop.Session()
	require.Len(t, sess.Messages, 4)
	assert.True(t, sess.Messages[0].HasAttachment)
	assert.False(t, sess.Messages[2].HasAttachment)

	assert.Contains(t, out.String(), "[attachment cleared]")
	assert.Contains(t, out.String(), "[attached: cat.png]")
}

func TestAttachmentClearedOnFailedSend(t *testing.T) {
	img := filepath.Join(t.TempDir(), "cat.png")
	require.NoError(t, os.WriteFile(img, []byte("png"), 0644))

	gen := &fakeGenerator{err: errors.New("network down")}
	loop, out, _ := runLoop(t, gen, "/file\n"+img+"\nlook\n/quit\n")

	assert.Nil(t, loop.attach.Peek(), "failed send must still clear the attachment")
	assert.Contains(t, out.String(), "[attachment cleared]")

	require.Len(t, loop.Session().Messages, 2)
	assert.True(t, loop.Session().Messages[0].HasAttachment)
}

func TestUploadFailureRecordedInTranscript(t *testing.T) {
	img := filepath.Join(t.TempDir(), "cat.png")
	require.NoError(t, os.WriteFile(img, []byte("png"), 0644))

	gen := &fakeGenerator{uploadErr: &perception.RemoteCallError{Op: "upload", Err: errors.New("quota exceeded")}}
	loop, out, store := runLoop(t, gen, "/file\n"+img+"\n/quit\n")

	require.Len(t, gen.uploads, 1)
	assert.Nil(t, loop.attach.Peek(), "failed upload must not stage anything")

	sess := loop.Session()
	require.Len(t, sess.Messages, 1)
	assert.Equal(t, transcript.RoleSystem, sess.Messages[0].Role)
	assert.Contains(t, sess.Messages[0].Content, "Error:")
	assert.Contains(t, sess.Messages[0].Content, "upload")
	assert.Contains(t, out.String(), "Upload failed")

	rec, err := store.Load(sess.Path)
	require.NoError(t, err)
	assert.Equal(t, 1, rec.Metadata.MessageCount)
}

func TestFileNonexistentIsNoOp(t *testing.T) {
	gen := &fakeGenerator{}
	loop, out, _ := runLoop(t, gen, "/file\n/no/such/file.png\n/quit\n")

	assert.Empty(t, gen.uploads)
	assert.Empty(t, gen.calls)
	assert.Empty(t, loop.Session().Messages)
	assert.Nil(t, loop.attach.Peek())
	assert.Contains(t, out.String(), "File not found")
}

func TestFileUnknownTypeDeclined(t *testing.T) {
	blob := filepath.Join(t.TempDir(), "data.bin")
	require.NoError(t, os.WriteFile(blob, []byte("x"), 0644))

	gen := &fakeGenerator{}
	loop, out, _ := runLoop(t, gen, "/file\n"+blob+"\n\n/quit\n")

	assert.Empty(t, gen.uploads)
	assert.Nil(t, loop.attach.Peek())
	assert.Contains(t, out.String(), "Unknown file type")
}

func TestModelSwitchAppliesToNextCall(t *testing.T) {
	gen := &fakeGenerator{reply: "ok"}
	loop, out, store := runLoop(t, gen, "/model\n2\nhello\n/quit\n")

	require.Len(t, gen.calls, 1)
	assert.Equal(t, Models[1], gen.calls[0].model)
	assert.Contains(t, out.String(), "Now using: "+Models[1])

	rec, err := store.Load(loop.Session().Path)
	require.NoError(t, err)
	assert.Equal(t, Models[1], rec.Metadata.Model)
}

func TestExportCommand(t *testing.T) {
	gen := &fakeGenerator{reply: "compressed"}
	_, out, _ := runLoop(t, gen, "fold this\n/export\n/quit\n")

	assert.Contains(t, out.String(), "Exported to:")

	start := strings.Index(out.String(), "Exported to: ")
	require.GreaterOrEqual(t, start, 0)
	line := out.String()[start+len("Exported to: "):]
	path := strings.TrimSpace(strings.SplitN(line, "\n", 2)[0])

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "fold this")
	assert.Contains(t, string(data), "compressed")
}

func TestExportWithoutMessages(t *testing.T) {
	gen := &fakeGenerator{}
	_, out, _ := runLoop(t, gen, "/export\n/quit\n")

	assert.Contains(t, out.String(), "No messages to export yet.")
}

func TestSearchCommandFindsPriorMessages(t *testing.T) {
	gen := &fakeGenerator{reply: "noted"}
	_, out, _ := runLoop(t, gen, "paper folding basics\n/search folding\n/quit\n")

	assert.Contains(t, out.String(), "SEARCH RESULTS")
	assert.Contains(t, out.String(), "paper folding basics")
}

func TestSearchWithoutTermPrintsUsage(t *testing.T) {
	gen := &fakeGenerator{}
	_, out, _ := runLoop(t, gen, "/search\n/quit\n")

	assert.Contains(t, out.String(), "Usage: /search <term>")
}

func TestHistoryBrowserListsAndViews(t *testing.T) {
	dir := t.TempDir()
	seed, err := transcript.Open(dir)
	require.NoError(t, err)
	old := &transcript.Session{
		ID:      "20200101_000000",
		Path:    filepath.Join(dir, "chat_20200101_000000.json"),
		Created: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
		Model:   "gemini-2.0-flash",
	}
	require.NoError(t, seed.Append(old, transcript.RoleUser, "ancient text", false))
	require.NoError(t, seed.Close())

	store, err := transcript.Open(dir)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	var out bytes.Buffer
	loop := New(Options{
		Store:     store,
		Generator: &fakeGenerator{},
		Model:     "gemini-2.5-flash",
		ExportDir: t.TempDir(),
		In:        strings.NewReader("/history\n2\n\n/quit\n"),
		Out:       &out,
	})
	require.NoError(t, loop.Run(context.Background()))

	assert.Contains(t, out.String(), "Found 2 conversation(s)")
	assert.Contains(t, out.String(), "ancient text")
	assert.Contains(t, out.String(), "CONVERSATION - 2020-01-01")
}

func TestHistoryBrowserDeleteWithConfirm(t *testing.T) {
	gen := &fakeGenerator{reply: "ok"}

	// The delete targets this session itself: index 1 is the only entry.
	loop, out, store := runLoop(t, gen, "hello\n/history\nd\n1\ny\n/quit\n")

	assert.Contains(t, out.String(), "Session deleted")
	_, err := store.Load(loop.Session().Path)
	assert.ErrorIs(t, err, transcript.ErrNotFound)
}

func TestHistoryBrowserClearAll(t *testing.T) {
	gen := &fakeGenerator{reply: "ok"}
	_, out, store := runLoop(t, gen, "hello\n/history\nc\ny\n/quit\n")

	assert.Contains(t, out.String(), "All history cleared")
	summaries, err := store.List()
	require.NoError(t, err)
	assert.Empty(t, summaries)
}

func TestHistoryBrowserDeclinedClearKeepsHistory(t *testing.T) {
	gen := &fakeGenerator{reply: "ok"}
	_, _, store := runLoop(t, gen, "hello\n/history\nc\nn\n/quit\n")

	summaries, err := store.List()
	require.NoError(t, err)
	assert.Len(t, summaries, 1)
}

// syncBuffer makes loop output safe to read while Run is still going.
type syncBuffer struct {
	mu sync.Mutex
	b  bytes.Buffer
}

func (s *syncBuffer) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.b.Write(p)
}

func (s *syncBuffer) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.b.String()
}

func TestInterruptPrintsAdvisoryAndLoopContinues(t *testing.T) {
	store, err := transcript.Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	pr, pw := io.Pipe()
	out := &syncBuffer{}
	gen := &fakeGenerator{reply: "hi"}
	loop := New(Options{
		Store:     store,
		Generator: gen,
		Model:     "gemini-2.5-flash",
		ExportDir: t.TempDir(),
		In:        pr,
		Out:       out,
	})

	// Queued before Run starts, so the first read resolves to the
	// interrupt rather than a line.
	loop.sigs <- os.Interrupt

	done := make(chan error, 1)
	go func() { done <- loop.Run(context.Background()) }()

	deadline := time.After(5 * time.Second)
	for !strings.Contains(out.String(), "Use /quit to exit") {
		select {
		case <-deadline:
			t.Fatal("interrupt advisory never printed")
		case <-time.After(10 * time.Millisecond):
		}
	}

	// The loop must still be alive and accept a normal exchange.
	_, err = pw.Write([]byte("hello\n/quit\n"))
	require.NoError(t, err)
	require.NoError(t, pw.Close())

	require.NoError(t, <-done)
	require.Len(t, gen.calls, 1)
	assert.Equal(t, "hello", gen.calls[0].parts[0].Text)
	require.Len(t, loop.Session().Messages, 2)
	assert.Contains(t, out.String(), "Chat saved to:")
}

func TestDisplayTruncationKeepsRuneBoundaries(t *testing.T) {
	long := strings.Repeat("折り紙", 200)
	got := truncateForDisplay(long, 500)

	require.True(t, utf8.ValidString(got))
	assert.True(t, strings.HasSuffix(got, "..."))
	assert.Equal(t, 503, utf8.RuneCountInString(got))

	short := "plain text"
	assert.Equal(t, short, truncateForDisplay(short, 500))

	exact := strings.Repeat("折", 500)
	assert.Equal(t, exact, truncateForDisplay(exact, 500))
}

func TestHelpAndClear(t *testing.T) {
	gen := &fakeGenerator{}
	_, out, _ := runLoop(t, gen, "/help\n/clear\n/quit\n")

	assert.Contains(t, out.String(), "Available commands:")
	assert.Contains(t, out.String(), "/search <term>")
	assert.Contains(t, out.String(), "Session: ")
}
