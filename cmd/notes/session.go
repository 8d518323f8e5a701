package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/lomber1/notes-web"
	"github.com/lomber1/notes-web/pkg/adapters/fs"
	lifecycleadapter "github.com/lomber1/notes-web/pkg/adapters/lifecycle"
)

var (
	sessionFailuresOnly bool
	sessionDrain        time.Duration
	sessionReason       string
)

var sessionCmd = &cobra.Command{
	Use:   "session [script.yaml]",
	Short: "Replay an editing session script through the editor",
	Long: `Replays a YAML script of user intents (open, edit, wait, recolor, save, close,
archive, unarchive, delete) against the configured store and prints every outcome.
Use "-" to read the script from stdin.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		script, err := readScript(args[0])
		if err != nil {
			fatal("Error reading script", err)
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()
		ctx = withReason(ctx, sessionReason)

		ed, store, err := notes.New(ctx, location(), options()...)
		if err != nil {
			fatal("Error starting editor", err)
		}
		defer notes.Close(store)

		var srcOpts []lifecycleadapter.SourceOption
		if sessionFailuresOnly {
			srcOpts = append(srcOpts, lifecycleadapter.FailuresOnly())
		}
		src := lifecycleadapter.NewSource(ed.Outcomes(), srcOpts...)
		if err := src.Start(ctx); err != nil {
			fatal("Error starting outcome stream", err)
		}

		printed := make(chan struct{})
		go func() {
			defer close(printed)
			for ev := range src.Events() {
				fmt.Println(ev)
			}
		}()

		warn := func(st Step, err error) {
			slog.Warn("intent rejected", "op", st.Op, "error", err)
		}
		playErr := script.play(ctx, ed, store, sleep, warn)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), sessionDrain)
		defer cancel()
		if err := ed.Shutdown(shutdownCtx); err != nil {
			slog.Error("editor shutdown", "error", err)
		}
		<-printed

		if playErr != nil {
			fatal("Error replaying script", playErr)
		}
	},
}

// withReason makes versioned stores commit every change of the session with reason as
// the message.
func withReason(ctx context.Context, reason string) context.Context {
	if reason == "" {
		return ctx
	}
	return fs.WithReason(ctx, reason)
}

func readScript(path string) (*Script, error) {
	var r io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}
	return parseScript(r)
}

func init() {
	rootCmd.AddCommand(sessionCmd)
	sessionCmd.Flags().BoolVar(&sessionFailuresOnly, "failures-only", false, "Print failed outcomes only")
	sessionCmd.Flags().DurationVar(&sessionDrain, "drain", 15*time.Second, "How long to wait for in-flight calls on exit")
	sessionCmd.Flags().StringVar(&sessionReason, "reason", "", "Commit message for every change (versioned fs store)")
}
