package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/N3E6X/The-Origami-Thought-Protocol/cmd/otp/chat"
	"github.com/N3E6X/The-Origami-Thought-Protocol/cmd/otp/config"
	"github.com/N3E6X/The-Origami-Thought-Protocol/cmd/otp/ui"
	"github.com/N3E6X/The-Origami-Thought-Protocol/internal/logging"
	"github.com/N3E6X/The-Origami-Thought-Protocol/internal/perception"
	"github.com/N3E6X/The-Origami-Thought-Protocol/internal/transcript"
)

var (
	verbose bool

	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "otp",
	Short: "Origami Thought Protocol - semantic compression chat client",
	Long: `OTP is an interactive chat client for the Origami Thought Protocol,
a semantic compression engine running on Gemini models.

Conversations are saved as JSON transcripts under ~/.otp/history and
indexed in SQLite for cross-session search.

Run without arguments to start an interactive chat session.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Interactive mode writes its own UI; no structured logger there.
		if cmd.Use == "otp" && cmd.CalledAs() == "otp" {
			return nil
		}

		zcfg := zap.NewProductionConfig()
		if verbose {
			zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = zcfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runChat(cmd.Context())
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the OTP version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("%s v%s\n", chat.AppName, chat.AppVersion)
	},
}

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List saved chat sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		histDir, err := config.HistoryDir()
		if err != nil {
			return fmt.Errorf("failed to locate history directory: %w", err)
		}
		store, err := transcript.Open(histDir)
		if err != nil {
			return fmt.Errorf("failed to open history: %w", err)
		}
		defer store.Close()

		sessions, err := store.List()
		if err != nil {
			return fmt.Errorf("failed to list sessions: %w", err)
		}
		logger.Debug("Listed sessions", zap.Int("count", len(sessions)))

		if len(sessions) == 0 {
			fmt.Println("No saved conversations found.")
			return nil
		}
		for _, s := range sessions {
			model := s.Model
			if model == "" {
				model = "unknown"
			}
			fmt.Printf("%s  %s  %s  %d messages\n", s.ID, s.Created.Format("2006-01-02 15:04"), model, s.MessageCount)
		}
		return nil
	},
}

func runChat(ctx context.Context) error {
	if err := config.EnsureDirs(); err != nil {
		return fmt.Errorf("failed to create data directories: %w", err)
	}
	dataDir, err := config.DataDir()
	if err != nil {
		return fmt.Errorf("failed to locate data directory: %w", err)
	}
	histDir, err := config.HistoryDir()
	if err != nil {
		return fmt.Errorf("failed to locate history directory: %w", err)
	}
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "[WARNING] Could not read config, using defaults: %v\n", err)
	}

	if err := logging.Initialize(dataDir); err != nil {
		fmt.Fprintf(os.Stderr, "[WARNING] File logging disabled: %v\n", err)
	}
	defer logging.CloseAll()
	logging.Boot("%s v%s starting", chat.AppName, chat.AppVersion)

	styles := ui.NewStyles(ui.ThemeByName(cfg.Theme))

	fmt.Printf("\n%s\n", styles.Header.Render(chat.AppName))
	fmt.Println(styles.Divider.Render("========================================"))
	fmt.Printf("Version %s\n", chat.AppVersion)
	fmt.Printf("History: %s\n", histDir)

	read := lineReader(os.Stdin)

	key, err := chat.ResolveAPIKey(read, os.Stdout, &cfg)
	if err != nil {
		var fatal *chat.FatalSetupError
		if errors.As(err, &fatal) {
			fmt.Fprintf(os.Stderr, "[ERROR] %s\n", fatal.Reason)
			logging.BootError("%v", fatal)
			os.Exit(1)
		}
		return err
	}

	model := chat.PromptModelSelection(read, os.Stdout)

	fmt.Print("\nConnecting... ")
	client, err := perception.NewGeminiClient(ctx, key)
	if err != nil {
		fmt.Println()
		logging.BootError("Client init failed: %v", err)
		return fmt.Errorf("failed to connect: %w", err)
	}
	fmt.Println("[OK]")

	store, err := transcript.Open(histDir)
	if err != nil {
		return fmt.Errorf("failed to open history: %w", err)
	}
	defer store.Close()

	loop := chat.New(chat.Options{
		Store:         store,
		Generator:     client,
		Model:         model,
		ExportDir:     dataDir,
		Styles:        styles,
		HandleSignals: true,
	})
	return loop.Run(ctx)
}

// lineReader adapts a stream into the one-line-at-a-time read function
// the setup prompts expect.
func lineReader(r io.Reader) func() (string, error) {
	br := bufio.NewReader(r)
	return func() (string, error) {
		line, err := br.ReadString('\n')
		if err != nil && line == "" {
			return "", err
		}
		return strings.TrimRight(line, "\r\n"), nil
	}
}

func main() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.AddCommand(versionCmd, sessionsCmd)

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
