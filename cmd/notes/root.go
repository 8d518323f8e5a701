package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/lomber1/notes-web"
	"github.com/lomber1/notes-web/internal/platform"
)

var (
	verbose      bool
	adapter      string
	uri          string
	debounce     time.Duration
	flushOnClose bool
	versioned    bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "notes",
	Short: "Drive the note editor core against a store",
	Long: `notes replays editing sessions (open, edit, recolor, save, archive...) through the
autosaving editor core and inspects the resulting store.

Defaults come from NOTES_ADAPTER, NOTES_URI, NOTES_DEBOUNCE, NOTES_FLUSH_ON_CLOSE and
NOTES_VERSIONED; flags override them.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}

		opts := &slog.HandlerOptions{
			Level: level,
		}
		logger := slog.New(slog.NewTextHandler(os.Stderr, opts))
		slog.SetDefault(logger)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	env := platform.LoadEnv()

	flags := rootCmd.PersistentFlags()
	flags.BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	flags.StringVar(&adapter, "adapter", env.Adapter, "Store adapter: fs, memory, redis or sqlite")
	flags.StringVar(&uri, "uri", env.URI, "Adapter-specific location (directory, redis:// URL or sqlite file)")
	flags.DurationVar(&debounce, "debounce", env.Debounce, "Quiet window before an edit is persisted")
	flags.BoolVar(&flushOnClose, "flush-on-close", env.FlushOnClose, "Persist a pending edit when its session closes")
	flags.BoolVar(&versioned, "versioned", env.Versioned, "Commit every change with git (fs adapter)")
}

// options builds the platform options from the flags.
func options() []notes.Option {
	opts := []notes.Option{
		notes.WithAdapter(adapter),
		notes.WithLogger(slog.Default()),
		notes.WithAutoInit(true),
		notes.WithDebounce(debounce),
		notes.WithFlushOnClose(flushOnClose),
		// The CLI always works on the path it is given.
		notes.WithDevSafety(false),
	}
	if versioned {
		opts = append(opts, notes.WithVersioning(true))
	}
	return opts
}

// location resolves the store location. For the fs adapter without --uri, the nearest
// notes root above the working directory is used, falling back to the working directory.
func location() string {
	if uri != "" || adapter != platform.AdapterFS {
		return uri
	}
	if root, err := platform.FindRoot("."); err == nil {
		return root
	}
	return "."
}

// openStore opens the configured store for read-only commands.
func openStore(ctx context.Context) notes.Store {
	store, err := notes.Open(ctx, location(), options()...)
	if err != nil {
		fatal("Error opening store", err)
	}
	return store
}
