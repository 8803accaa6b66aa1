// Package main provides the CLI entrypoint for gnssview.
package main

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/gnssview/internal/api"
	"github.com/verte-zerg/gnssview/internal/config"
	"github.com/verte-zerg/gnssview/internal/logging"
	"github.com/verte-zerg/gnssview/internal/model"
	"github.com/verte-zerg/gnssview/internal/pageui"
	"github.com/verte-zerg/gnssview/internal/store"
)

var (
	flagAPIURL    string
	flagTimeout   int
	flagLogFile   string
	flagDataset   string
	flagModel     string
	flagNoHistory bool
)

func main() {
	rootCmd := newRootCmd()
	err := rootCmd.Execute()
	if cerr := logging.Close(); cerr != nil {
		logErrf("failed to close log file: %v\n", cerr)
	}
	if err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:               "gnssview",
		Short:             "Terminal dashboard for GNSS error-prediction metrics",
		SilenceUsage:      true,
		SilenceErrors:     false,
		PersistentPreRunE: initLogging,
		RunE:              runDashboardCmd,
	}

	rootCmd.PersistentFlags().StringVar(&flagAPIURL, "api-url", "", "backend base URL (env "+config.APIURLEnv+")")
	rootCmd.PersistentFlags().IntVar(&flagTimeout, "timeout", 0, "request timeout in seconds (0 = none)")
	rootCmd.PersistentFlags().StringVar(&flagLogFile, "log-file", "", "log file path (default: "+config.DefaultLogPath()+")")
	addSelectionFlags(rootCmd)
	rootCmd.Flags().BoolVar(&flagNoHistory, "no-history", false, "do not record fetched metrics")

	rootCmd.AddCommand(newReportCmd())
	rootCmd.AddCommand(newPlotsCmd())
	rootCmd.AddCommand(newPredictionsCmd())
	rootCmd.AddCommand(newCheckCmd())
	rootCmd.AddCommand(newHistoryCmd())
	rootCmd.AddCommand(newThemeCmd())
	rootCmd.AddCommand(newConfigCmd())

	return rootCmd
}

func addSelectionFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&flagDataset, "dataset", model.DatasetGEO, "dataset (GEO, MEO1, MEO2)")
	cmd.Flags().StringVar(&flagModel, "model", model.DefaultModel, "model (LSTM, Transformer, Probabilistic)")
}

func initLogging(cmd *cobra.Command, _ []string) error {
	path := flagLogFile
	if !cmd.Flags().Changed("log-file") {
		path = config.DefaultLogPath()
	}
	if err := logging.Init(path); err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	logging.LogEvent("start %s", cmd.CommandPath())
	return nil
}

// resolveConfig merges the config file, environment and the flags the user
// actually set on cmd.
func resolveConfig(cmd *cobra.Command) (model.Config, error) {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return model.Config{}, fmt.Errorf("failed to load config: %w", err)
	}
	var flags config.Overrides
	if cmd.Flags().Changed("api-url") {
		flags.APIURL = &flagAPIURL
	}
	if cmd.Flags().Changed("timeout") {
		flags.Timeout = &flagTimeout
	}
	if cmd.Flags().Changed("dataset") {
		flags.Dataset = &flagDataset
	}
	if cmd.Flags().Changed("model") {
		flags.Model = &flagModel
	}
	if f := cmd.Flags().Lookup("no-history"); f != nil && f.Changed {
		flags.NoHistory = flagNoHistory
	}
	cfg, err := config.Resolve(fileCfg, flags, os.Getenv)
	if err != nil {
		return model.Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func requestContext(cfg model.Config) (context.Context, context.CancelFunc) {
	if cfg.Timeout > 0 {
		return context.WithTimeout(context.Background(), cfg.Timeout)
	}
	return context.WithCancel(context.Background())
}

func openStore() (*store.Store, error) {
	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}
	return st, nil
}

func closeStore(st *store.Store) {
	if cerr := st.Close(); cerr != nil {
		logErrf("failed to close db: %v\n", cerr)
	}
}

func loadTheme(ctx context.Context, st *store.Store) pageui.Theme {
	name, _, err := st.GetSetting(ctx, store.ThemeKey)
	if err != nil {
		logging.LogEvent("failed to read theme: %v", err)
	}
	theme, err := pageui.ThemeByName(name)
	if err != nil {
		logging.LogEvent("ignoring stored theme: %v", err)
		theme, _ = pageui.ThemeByName(pageui.ThemeDark)
	}
	return theme
}

func runDashboardCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	st, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)

	opts := pageui.Options{
		Backend: api.NewClient(cfg.APIURL),
		Config:  cfg,
		Theme:   loadTheme(context.Background(), st),
	}
	if cfg.HistoryEnabled {
		opts.Recorder = st
	}

	dashboard := pageui.NewModel(opts)
	program := tea.NewProgram(dashboard, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
