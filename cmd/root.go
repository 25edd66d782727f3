package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/zdavis/folio/internal/app"
	"github.com/zdavis/folio/internal/config"
	"github.com/zdavis/folio/internal/documents/domain"
	"github.com/zdavis/folio/internal/flags"
	"github.com/zdavis/folio/internal/infrastructure/sqlite"
	"github.com/zdavis/folio/internal/log"
	"github.com/zdavis/folio/internal/paths"
	"github.com/zdavis/folio/internal/tracing"
)

func init() {
	// Force lipgloss/termenv to query terminal background color BEFORE
	// any Bubble Tea program starts. This prevents the terminal's OSC 11
	// response from racing with Bubble Tea's input loop and appearing as
	// garbage text in input fields.
	//
	// See: https://github.com/charmbracelet/bubbletea/issues/1036
	_ = lipgloss.HasDarkBackground()
}

var (
	version = "dev"
	cfgFile string
	cfg     config.Config
)

var rootCmd = &cobra.Command{
	Use:     "folio [document]",
	Short:   "A collaborative terminal text editor",
	Long:    `A terminal editor for documents shared through an append-only op log. Give a document title or GUID to open it; without arguments the most recently opened document is reopened.`,
	Version: version,
	Args:    cobra.MaximumNArgs(1),
	RunE:    runApp,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "",
		"config file (default: ~/.folio/config.yaml)")
	rootCmd.Flags().String("data-dir", "",
		"directory holding the document database")
	rootCmd.Flags().Bool("no-auto-sync", false,
		"disable pulling ops when another process writes the database")
	rootCmd.PersistentFlags().Bool("debug", false,
		"write a debug log to <data-dir>/debug.log")

	_ = viper.BindPFlag("data_dir", rootCmd.Flags().Lookup("data-dir"))
}

func initConfig() {
	defaults := config.Defaults()
	viper.SetDefault("data_dir", defaults.DataDir)
	viper.SetDefault("auto_sync", defaults.AutoSync)
	viper.SetDefault("ui.show_status_bar", defaults.UI.ShowStatusBar)
	viper.SetDefault("ui.cursor_blink", defaults.UI.CursorBlink)
	viper.SetDefault("ui.blink_interval_ms", defaults.UI.BlinkIntervalMS)
	viper.SetDefault("viewport.cell_width", defaults.Viewport.CellWidth)
	viper.SetDefault("viewport.cell_height", defaults.Viewport.CellHeight)
	viper.SetDefault("sync.debounce_ms", defaults.Sync.DebounceMS)
	viper.SetDefault("tracing.enabled", defaults.Tracing.Enabled)
	viper.SetDefault("tracing.exporter", defaults.Tracing.Exporter)

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(config.DefaultDataDir())
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			defaultPath := filepath.Join(config.DefaultDataDir(), "config.yaml")
			if writeErr := config.WriteDefaultConfig(defaultPath); writeErr == nil {
				viper.SetConfigFile(defaultPath)
				_ = viper.ReadInConfig()
			}
			// If write fails, just continue with defaults (no config file)
		}
	}

	_ = viper.Unmarshal(&cfg)
}

func runApp(cmd *cobra.Command, args []string) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if noAutoSync, _ := cmd.Flags().GetBool("no-auto-sync"); noAutoSync {
		cfg.AutoSync = false
	}

	cfg.DataDir = paths.ResolveDataDir(cfg.DataDir, config.DefaultDataDir())

	db, err := sqlite.NewDB(cfg.DBPath())
	if err != nil {
		return fmt.Errorf("opening document database: %w", err)
	}
	defer func() { _ = db.Close() }()

	if debug, _ := cmd.Flags().GetBool("debug"); debug || os.Getenv("FOLIO_DEBUG") != "" {
		cleanup, lerr := log.Init(filepath.Join(cfg.DataDir, "debug.log"))
		if lerr != nil {
			return fmt.Errorf("initializing debug log: %w", lerr)
		}
		defer cleanup()
	}

	document, err := resolveDocument(db, args)
	if err != nil {
		return err
	}

	tracer, err := tracing.NewProvider(tracing.Config{
		Enabled:  cfg.Tracing.Enabled,
		Exporter: cfg.Tracing.Exporter,
		FilePath: cfg.Tracing.FilePath,
	})
	if err != nil {
		return fmt.Errorf("initializing tracing: %w", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		_ = tracer.Shutdown(ctx)
		cancel()
	}()

	configFilePath := viper.ConfigFileUsed()
	if configFilePath == "" {
		configFilePath = filepath.Join(config.DefaultDataDir(), "config.yaml")
	}
	rememberRecent(configFilePath, document)

	featureFlags := flags.New(cfg.Flags)
	model := app.New(document, app.Services{
		Docs:       db.Documents(),
		Ops:        db.Ops(),
		Config:     &cfg,
		ConfigPath: configFilePath,
		DBPath:     db.Path(),
		Tracer:     tracer,
		Flags:      featureFlags,
	})

	opts := []tea.ProgramOption{tea.WithAltScreen()}
	if featureFlags.Enabled(flags.FlagMouseSupport) {
		opts = append(opts, tea.WithMouseCellMotion())
	}
	p := tea.NewProgram(model, opts...)
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running program: %w", err)
	}
	return nil
}

// resolveDocument picks the document to open: the named one (by GUID or
// title, created on demand for a new title), or the most recent entry, or
// a fresh scratch document when nothing exists yet.
func resolveDocument(db *sqlite.DB, args []string) (*domain.Document, error) {
	docs := db.Documents()

	if len(args) == 1 {
		name := args[0]
		if doc, err := docs.FindByGUID(name); err == nil {
			return doc, nil
		}
		all, err := docs.List()
		if err != nil {
			return nil, fmt.Errorf("listing documents: %w", err)
		}
		for _, doc := range all {
			if doc.Title() == name {
				return doc, nil
			}
		}
		doc := domain.NewDocument(name, "")
		if err := docs.Save(doc); err != nil {
			return nil, fmt.Errorf("creating document %q: %w", name, err)
		}
		return doc, nil
	}

	for _, entry := range cfg.Recent {
		if doc, err := docs.FindByGUID(entry.GUID); err == nil {
			return doc, nil
		}
	}

	all, err := docs.List()
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}
	if len(all) > 0 {
		return all[0], nil
	}

	doc := domain.NewDocument("scratch", "")
	if err := docs.Save(doc); err != nil {
		return nil, fmt.Errorf("creating scratch document: %w", err)
	}
	return doc, nil
}

// rememberRecent moves the opened document to the front of the recent list
// and persists it. Failures are non-fatal; the editor works without the
// recent list.
func rememberRecent(configPath string, doc *domain.Document) {
	cfg.Recent = config.TouchRecent(cfg.Recent, config.RecentEntry{
		GUID:  doc.GUID(),
		Title: doc.Title(),
	})
	if err := config.SaveRecent(configPath, cfg.Recent); err != nil {
		fmt.Fprintf(os.Stderr, "warning: could not save recent list: %v\n", err)
	}
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// SetVersion sets the version string (called from main with ldflags)
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}
