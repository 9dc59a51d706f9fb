package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mpataki/balneo/internal/catalog"
	"github.com/mpataki/balneo/internal/config"
	"github.com/mpataki/balneo/internal/lua"
	"github.com/mpataki/balneo/internal/orchestrator"
	"github.com/mpataki/balneo/internal/runner"
	"github.com/mpataki/balneo/internal/storage"
	"github.com/mpataki/balneo/internal/tui"
	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:   "balneo",
		Short: "Balneotherapy session timer",
		Long:  "Balneo runs timed exercise programs for several patients at once and keeps each patient's session history.",
		RunE:  runTUI,
	}

	rootCmd.AddCommand(newExerciseCommand())
	rootCmd.AddCommand(newSessionCommand())
	rootCmd.AddCommand(newPatientCommand())
	rootCmd.AddCommand(newHistoryCommand())
	rootCmd.AddCommand(newDisplayCommand())
	rootCmd.AddCommand(newExportCommand())
	rootCmd.AddCommand(newImportCommand())
	rootCmd.AddCommand(newCatalogCommand())
	rootCmd.AddCommand(newVersionCommand())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// openStore loads the config and opens the database, seeding the sample
// catalog into an empty one.
func openStore() (*config.Config, *storage.Storage, error) {
	cfg, err := config.New()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	if err := cfg.EnsureDataDir(); err != nil {
		return nil, nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	store, err := storage.New(cfg.DBPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database: %w", err)
	}

	empty, err := store.IsEmpty()
	if err != nil {
		store.Close()
		return nil, nil, err
	}
	if empty {
		if err := catalog.Import(store, catalog.Default()); err != nil {
			store.Close()
			return nil, nil, fmt.Errorf("failed to seed sample data: %w", err)
		}
	}

	return cfg, store, nil
}

func newOrchestrator(cfg *config.Config, store *storage.Storage) *orchestrator.Orchestrator {
	return orchestrator.New(store, runner.New(store, store), cfg.MinSlots, cfg.MaxSlots)
}

func runTUI(cmd *cobra.Command, args []string) error {
	cfg, store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	return runApp(cfg, newOrchestrator(cfg, store))
}

func runApp(cfg *config.Config, orch *orchestrator.Orchestrator) error {
	logFile, err := tea.LogToFile(cfg.LogPath(), "balneo")
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer logFile.Close()

	cues, err := loadCues(cfg.CueScript)
	if err != nil {
		return err
	}
	if cues != nil {
		defer cues.Close()
	}

	var bell io.Writer
	if cfg.Bell {
		bell = os.Stdout
	}

	app := tui.NewApp(orch, cues, bell)
	defer app.Close()
	defer orch.Runner().EndSession()

	p := tea.NewProgram(app, tea.WithAltScreen())
	_, err = p.Run()
	return err
}

// loadCues returns nil when no script exists at path.
func loadCues(path string) (*lua.CueScript, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	cues, err := lua.LoadCueScript(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load cue script: %w", err)
	}
	return cues, nil
}

func newDisplayCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "display <patient-id>:<session-id>...",
		Short: "Launch a run and open the display",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			configs, err := parseSlotArgs(args)
			if err != nil {
				return err
			}

			cfg, store, err := openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			orch := newOrchestrator(cfg, store)
			if err := orch.Launch(configs); err != nil {
				return fmt.Errorf("failed to launch: %w", err)
			}

			return runApp(cfg, orch)
		},
	}
}

func parseSlotArgs(args []string) ([]orchestrator.SlotConfig, error) {
	configs := make([]orchestrator.SlotConfig, 0, len(args))
	for _, arg := range args {
		patientID, sessionID, ok := strings.Cut(arg, ":")
		if !ok || patientID == "" || sessionID == "" {
			return nil, fmt.Errorf("invalid slot %q: want <patient-id>:<session-id>", arg)
		}
		configs = append(configs, orchestrator.SlotConfig{PatientID: patientID, SessionID: sessionID})
	}
	return configs, nil
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "balneo", version)
		},
	}
}

func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen-3]) + "..."
}
