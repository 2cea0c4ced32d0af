package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/utafrali/TranscriptSearch/internal/app"
	"github.com/utafrali/TranscriptSearch/internal/config"
	"github.com/utafrali/TranscriptSearch/internal/session"
	"github.com/utafrali/TranscriptSearch/internal/tui"
	"github.com/utafrali/TranscriptSearch/pkg/logger"
)

func newUICommand() *cobra.Command {
	return &cobra.Command{
		Use:   "ui",
		Short: "Open the interactive terminal search screen",
		Args:  cobra.NoArgs,
		RunE:  runUI,
	}
}

func runUI(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	// The terminal belongs to the UI, so logs go to a file or nowhere.
	var out io.Writer = io.Discard
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return fmt.Errorf("ui: open log file: %w", err)
		}
		defer func() { _ = f.Close() }()
		out = f
	}
	log := logger.NewWithWriter(app.ServiceName, cfg.LogLevel, out)

	ctx := commandContext(cmd)
	backend, err := app.NewBackend(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() { _ = backend.Close() }()

	sess := session.New(backend.StaticConfig, log)
	program := tea.NewProgram(tui.New(sess, backend.Transport, log),
		tea.WithAltScreen(),
		tea.WithContext(ctx),
		tea.WithInput(cmd.InOrStdin()),
		tea.WithOutput(cmd.OutOrStdout()),
	)
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("ui: %w", err)
	}

	log.Info("ui closed", slog.String("engine", cfg.SearchEngine))
	return nil
}
