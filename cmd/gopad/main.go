// Command gopad is the sampler's CLI entrypoint. It loads AppConfig, wires
// the Orchestrator, and either drops into the terminal UI (run) or reports
// on saved sets (sets list/show).
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"gopad/internal/config"
	"gopad/internal/orchestrator"
	"gopad/internal/storage"
	"gopad/internal/tui"
)

var logger = log.NewWithOptions(os.Stderr, log.Options{
	ReportTimestamp: true,
	Prefix:          "gopad",
})

func main() {
	root := &cobra.Command{
		Use:           "gopad",
		Short:         "Grid-controller-driven sample pad player",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newRunCmd(), newSetsCmd())

	if err := root.Execute(); err != nil {
		logger.Fatal(err)
	}
}

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Connect a controller and start the performance/edit UI",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runApp()
		},
	}
}

func runApp() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger.Info("config loaded", "sets_dir", cfg.SetsDir, "buffer_size", cfg.DefaultBufferSize)

	orch, err := orchestrator.New(cfg)
	if err != nil {
		return fmt.Errorf("build orchestrator: %w", err)
	}
	defer func() {
		if err := orch.Close(); err != nil {
			logger.Error("close audio device", "err", err)
		}
	}()

	if err := orch.LoadOrCreateInitialSet(); err != nil {
		return fmt.Errorf("load initial set: %w", err)
	}
	logger.Info("set mounted", "name", orch.CurrentSet().Name)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := orch.Start(ctx); err != nil {
		return fmt.Errorf("start orchestrator: %w", err)
	}

	p := tea.NewProgram(tui.New(orch), tea.WithAltScreen())
	go func() {
		<-ctx.Done()
		p.Quit()
	}()

	if _, err := p.Run(); err != nil {
		orch.Stop()
		return fmt.Errorf("run ui: %w", err)
	}

	orch.Stop()
	if err := config.Save(cfg); err != nil {
		logger.Error("save config", "err", err)
	}
	return nil
}

func newSetsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sets",
		Short: "Inspect saved sets",
	}
	cmd.AddCommand(newSetsListCmd(), newSetsShowCmd())
	return cmd
}

func newSetsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List saved set names",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			names, err := storage.New(cfg.SetsDir).List()
			if err != nil {
				return err
			}
			for _, name := range names {
				fmt.Println(name)
			}
			return nil
		},
	}
}

func newSetsShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <name>",
		Short: "Show a saved set's pad assignments",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			set, err := storage.New(cfg.SetsDir).Load(args[0])
			if err != nil {
				return err
			}
			fmt.Printf("%s (modified %s)\n", set.Name, set.ModifiedAt.Format("2006-01-02 15:04:05"))
			for i, pad := range set.Launchpad.Pads {
				if pad.IsAssigned() {
					fmt.Printf("  pad %02d: %s (%s)\n", i, pad.Sample.DisplayName, pad.Mode)
				}
			}
			return nil
		},
	}
}
