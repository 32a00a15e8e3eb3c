package chat

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/N3E6X/The-Origami-Thought-Protocol/cmd/otp/ui"
	"github.com/N3E6X/The-Origami-Thought-Protocol/internal/logging"
	"github.com/N3E6X/The-Origami-Thought-Protocol/internal/perception"
	"github.com/N3E6X/The-Origami-Thought-Protocol/internal/transcript"
)

const (
	// AppName is the full product name shown in banners and exports.
	AppName = "Origami Thought Protocol"
	// AppVersion is the release version.
	AppVersion = "1.0.0"
)

// errInterrupted marks a read that was cut short by SIGINT. The loop
// stays alive and tells the user how to exit cleanly.
var errInterrupted = errors.New("interrupted")

type readResult struct {
	line string
	err  error
}

// Options configures a chat Loop. Store and Generator are required; the
// rest default to stdin/stdout and the default styles.
type Options struct {
	Store     *transcript.Store
	Generator perception.Generator
	Model     string
	ExportDir string

	In     io.Reader
	Out    io.Writer
	Styles ui.Styles
	Width  int

	// HandleSignals installs a SIGINT handler for the lifetime of Run.
	// Disabled in tests.
	HandleSignals bool
}

// Loop drives one interactive chat session: it reads lines, dispatches
// commands, and relays everything else to the model. All state lives on
// the struct; nothing is global.
type Loop struct {
	store  *transcript.Store
	gen    perception.Generator
	attach *AttachmentState

	session   *transcript.Session
	model     string
	exportDir string

	in     io.Reader
	out    io.Writer
	styles ui.Styles
	md     *ui.MarkdownRenderer
	lines  chan readResult
	sigs   chan os.Signal
	handle bool
}

// New builds a Loop from Options. The session is not created until Run.
func New(opts Options) *Loop {
	in := opts.In
	if in == nil {
		in = os.Stdin
	}
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}
	model := opts.Model
	if model == "" {
		model = DefaultModel()
	}
	return &Loop{
		store:     opts.Store,
		gen:       opts.Generator,
		attach:    &AttachmentState{},
		model:     model,
		exportDir: opts.ExportDir,
		in:        in,
		out:       out,
		styles:    opts.Styles,
		md:        ui.NewMarkdownRenderer(opts.Width),
		sigs:      make(chan os.Signal, 1),
		handle:    opts.HandleSignals,
	}
}

// Session returns the active session. Nil before Run.
func (l *Loop) Session() *transcript.Session {
	return l.session
}

// Run creates the session and processes input until /quit, EOF, or a
// context cancellation. Interrupts do not terminate the loop.
func (l *Loop) Run(ctx context.Context) error {
	sess, err := l.store.Create(l.model)
	if err != nil {
		l.persistWarn(err)
	}
	l.session = sess
	logging.Session("Started session %s with model %s", sess.ID, l.model)

	l.lines = make(chan readResult)
	go func() {
		scanner := bufio.NewScanner(l.in)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			l.lines <- readResult{line: scanner.Text()}
		}
		if scanErr := scanner.Err(); scanErr != nil {
			l.lines <- readResult{err: scanErr}
		}
		close(l.lines)
	}()

	if l.handle {
		signal.Notify(l.sigs, os.Interrupt)
		defer signal.Stop(l.sigs)
	}

	l.banner()

	for {
		annotation := ""
		if ref := l.attach.Peek(); ref != nil {
			annotation = l.styles.Annotation.Render(fmt.Sprintf(" [attached: %s]", ref.DisplayName))
		}
		fmt.Fprintf(l.out, "\n%s%s: ", l.styles.Prompt.Render("You"), annotation)

		line, err := l.readLine(ctx)
		switch {
		case errors.Is(err, errInterrupted):
			fmt.Fprintln(l.out, "\n\nUse /quit to exit (saves chat history)")
			continue
		case errors.Is(err, context.Canceled):
			l.quit()
			return nil
		case err != nil:
			// EOF or a broken input stream: exit as if /quit was typed.
			l.quit()
			return nil
		}

		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}

		cmd, arg := parseCommand(input)
		switch cmd {
		case cmdQuit:
			l.quit()
			return nil
		case cmdClear:
			l.clearScreen()
		case cmdHelp:
			fmt.Fprintln(l.out, "\n"+helpText)
		case cmdModel:
			l.handleModel(ctx)
		case cmdHistory:
			l.runHistoryBrowser(ctx)
		case cmdExport:
			l.handleExport()
		case cmdFile:
			l.handleFile(ctx)
		case cmdSearch:
			l.handleSearch(arg)
		default:
			l.sendMessage(ctx, input)
		}
	}
}

// readLine blocks for the next input line. It returns errInterrupted on
// SIGINT and io.EOF when the input stream ends.
func (l *Loop) readLine(ctx context.Context) (string, error) {
	select {
	case r, ok := <-l.lines:
		if !ok {
			return "", io.EOF
		}
		return r.line, r.err
	case <-l.sigs:
		return "", errInterrupted
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (l *Loop) banner() {
	divider := l.styles.Divider.Render(strings.Repeat("=", 40))
	fmt.Fprintf(l.out, "\n%s\n%s\n", l.styles.Header.Render(AppName), divider)
	fmt.Fprintf(l.out, "Model: %s\n", l.model)
	fmt.Fprintln(l.out, "Type /help for commands")
	fmt.Fprintln(l.out, divider)
}

func (l *Loop) clearScreen() {
	fmt.Fprint(l.out, "\x1b[2J\x1b[H")
	fmt.Fprintln(l.out, l.styles.Header.Render(AppName))
	fmt.Fprintf(l.out, "Model: %s | Session: %s\n", l.model, l.session.ID)
}

func (l *Loop) quit() {
	fmt.Fprintf(l.out, "\n%s Chat saved to: %s\n", l.styles.OK.Render("[OK]"), l.session.Path)
	fmt.Fprintln(l.out, "Goodbye!")
	logging.Session("Session %s closed with %d messages", l.session.ID, len(l.session.Messages))
}

// sendMessage relays one user message, with any staged attachment, to
// the model. The attachment is consumed before the call and is gone
// even if the call fails.
func (l *Loop) sendMessage(ctx context.Context, text string) {
	ref := l.attach.Consume()

	var parts []perception.Part
	if ref != nil {
		parts = append(parts, perception.Part{File: ref})
	}
	parts = append(parts, perception.Part{Text: text})

	if err := l.store.Append(l.session, transcript.RoleUser, text, ref != nil); err != nil {
		l.persistWarn(err)
	}

	fmt.Fprintf(l.out, "\n%s ", l.styles.Assistant.Render("OTP:"))

	reply, err := l.gen.Generate(ctx, l.model, SystemInstruction, parts)
	if err != nil {
		fmt.Fprintf(l.out, "\n%s %v\n", l.styles.Error.Render("[ERROR]"), err)
		if appendErr := l.store.Append(l.session, transcript.RoleSystem, fmt.Sprintf("Error: %v", err), false); appendErr != nil {
			l.persistWarn(appendErr)
		}
		if ref != nil {
			fmt.Fprintln(l.out, "\n[attachment cleared]")
		}
		return
	}

	fmt.Fprintln(l.out, l.md.Render(reply))

	if err := l.store.Append(l.session, transcript.RoleAssistant, reply, false); err != nil {
		l.persistWarn(err)
	}

	if ref != nil {
		fmt.Fprintln(l.out, "\n[attachment cleared]")
	}
}

func (l *Loop) handleModel(ctx context.Context) {
	model := PromptModelSelection(func() (string, error) { return l.readLine(ctx) }, l.out)
	l.model = model
	if err := l.store.SetModel(l.session, model); err != nil {
		l.persistWarn(err)
	}
	fmt.Fprintf(l.out, "\n%s Now using: %s\n", l.styles.OK.Render("[OK]"), model)
	logging.Session("Session %s switched to model %s", l.session.ID, model)
}

func (l *Loop) handleExport() {
	if len(l.session.Messages) == 0 {
		fmt.Fprintln(l.out, "No messages to export yet.")
		return
	}
	path, err := transcript.Export(l.session, l.exportDir)
	if err != nil {
		fmt.Fprintf(l.out, "%s Export failed: %v\n", l.styles.Error.Render("[ERROR]"), err)
		return
	}
	fmt.Fprintf(l.out, "%s Exported to: %s\n", l.styles.OK.Render("[OK]"), path)
}

func (l *Loop) handleSearch(term string) {
	if term == "" {
		fmt.Fprintln(l.out, "Usage: /search <term>")
		return
	}
	hits, err := l.store.Search(term, 20)
	if err != nil {
		fmt.Fprintf(l.out, "%s Search unavailable: %v\n", l.styles.Warn.Render("[WARNING]"), err)
		return
	}
	if len(hits) == 0 {
		fmt.Fprintln(l.out, "No matches.")
		return
	}
	printHeader(l.out, "SEARCH RESULTS")
	for _, h := range hits {
		fmt.Fprintf(l.out, "  %s #%d [%s]: %s\n", h.SessionID, h.Seq, h.Role, truncateForDisplay(h.Content, 80))
	}
}

func (l *Loop) persistWarn(err error) {
	fmt.Fprintf(l.out, "%s Could not save history: %v\n", l.styles.Warn.Render("[WARNING]"), err)
	logging.StoreError("Persist failure in session: %v", err)
}
