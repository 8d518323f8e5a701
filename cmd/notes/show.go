package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lomber1/notes-web"
	"github.com/lomber1/notes-web/pkg/core"
)

var showJSON bool

var showCmd = &cobra.Command{
	Use:   "show [id]",
	Short: "Print a single note",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		store := openStore(ctx)
		defer notes.Close(store)

		n, err := store.GetNote(ctx, core.NoteID(args[0]))
		if err != nil {
			if errors.Is(err, core.ErrNotFound) {
				fmt.Fprintf(os.Stderr, "Note %s not found\n", args[0])
				os.Exit(1)
			}
			fatal("Error reading note", err)
		}

		if showJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			if err := enc.Encode(viewOf(n)); err != nil {
				fatal("Error encoding JSON", err)
			}
			return
		}

		fmt.Println(formatLine(n))
		if n.Content.Body != "" {
			fmt.Println()
			fmt.Println(n.Content.Body)
		}
	},
}

func init() {
	rootCmd.AddCommand(showCmd)
	showCmd.Flags().BoolVar(&showJSON, "json", false, "Output in JSON format")
}
