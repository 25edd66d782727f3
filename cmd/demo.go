package cmd

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/zdavis/folio/internal/app"
	"github.com/zdavis/folio/internal/config"
	"github.com/zdavis/folio/internal/documents/domain"
	"github.com/zdavis/folio/internal/flags"
	"github.com/zdavis/folio/internal/infrastructure/sqlite"
	"github.com/zdavis/folio/internal/paths"
	"github.com/zdavis/folio/internal/tracing"
)

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Edit alongside a synthetic collaborator",
	Long:  `Open a demo document while a background writer appends ops under its own site id, exercising the watch/pull/rebase path the way a second folio process would.`,
	RunE:  runDemo,
}

func init() {
	demoCmd.Flags().Duration("interval", 1500*time.Millisecond, "delay between synthetic ops")
	rootCmd.AddCommand(demoCmd)
}

var demoWords = []string{
	"pagination", "viewport", "cursor", "rebase", "sequence",
	"geometry", "offset", "segment", "probe", "render",
}

func runDemo(cmd *cobra.Command, args []string) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	cfg.DataDir = paths.ResolveDataDir(cfg.DataDir, config.DefaultDataDir())

	db, err := sqlite.NewDB(cfg.DBPath())
	if err != nil {
		return fmt.Errorf("opening document database: %w", err)
	}
	defer func() { _ = db.Close() }()

	document, err := resolveDocument(db, []string{"demo"})
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

	interval, _ := cmd.Flags().GetDuration("interval")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go syntheticWriter(ctx, db, document.GUID(), interval)

	model := app.New(document, app.Services{
		Docs:   db.Documents(),
		Ops:    db.Ops(),
		Config: &cfg,
		DBPath: db.Path(),
		Tracer: tracer,
		Flags:  flags.New(cfg.Flags),
	})

	p := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running program: %w", err)
	}
	return nil
}

// syntheticWriter appends insert ops at the front of the document under its
// own site id. The app's watcher sees the database change and pulls them as
// remote edits.
func syntheticWriter(ctx context.Context, db *sqlite.DB, guid string, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			word := demoWords[rand.Intn(len(demoWords))] + " "
			op := &domain.Op{
				DocumentGUID: guid,
				Kind:         domain.OpInsert,
				Offset:       0,
				Length:       len([]rune(word)),
				Body:         word,
				Site:         "demo-writer",
			}
			if err := db.Ops().Append(op); err != nil {
				return
			}
		}
	}
}
