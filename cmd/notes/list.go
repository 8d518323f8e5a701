package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/cobra"

	"github.com/lomber1/notes-web"
)

var (
	listJSON     bool
	listPattern  string
	listArchived bool
)

// noteView is the JSON shape printed by list and show.
type noteView struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Body      string    `json:"body,omitempty"`
	Color     string    `json:"color"`
	Archived  bool      `json:"archived,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func viewOf(n notes.Note) noteView {
	return noteView{
		ID:        n.ID.String(),
		Title:     n.Content.Title,
		Body:      n.Content.Body,
		Color:     string(n.ColorOrDefault()),
		Archived:  n.Archived,
		CreatedAt: n.CreatedAt,
		UpdatedAt: n.UpdatedAt,
	}
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the notes in the store",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		store := openStore(ctx)
		defer notes.Close(store)

		all, err := store.ListNotes(ctx)
		if err != nil {
			fatal("Error listing notes", err)
		}

		filtered, err := filterNotes(all, listPattern, listArchived)
		if err != nil {
			fatal("Error filtering notes", err)
		}

		if listJSON {
			views := make([]noteView, 0, len(filtered))
			for _, n := range filtered {
				views = append(views, viewOf(n))
			}
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			if err := enc.Encode(views); err != nil {
				fatal("Error encoding JSON", err)
			}
			return
		}

		for _, n := range filtered {
			fmt.Println(formatLine(n))
		}
	},
}

// filterNotes keeps notes whose id or title matches the glob pattern. Archived notes are
// dropped unless includeArchived is set.
func filterNotes(all []notes.Note, pattern string, includeArchived bool) ([]notes.Note, error) {
	if pattern != "" && !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("invalid pattern %q: %w", pattern, doublestar.ErrBadPattern)
	}

	var out []notes.Note
	for _, n := range all {
		if n.Archived && !includeArchived {
			continue
		}
		if pattern != "" {
			byID, _ := doublestar.Match(pattern, n.ID.String())
			byTitle, _ := doublestar.Match(pattern, n.Content.Title)
			if !byID && !byTitle {
				continue
			}
		}
		out = append(out, n)
	}
	return out, nil
}

func formatLine(n notes.Note) string {
	title := n.Content.Title
	if title == "" {
		title = "(untitled)"
	}
	line := fmt.Sprintf("%s\t%-7s\t%s", n.ID, n.ColorOrDefault(), title)
	if n.Archived {
		line += "\t[archived]"
	}
	return line
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().BoolVar(&listJSON, "json", false, "Output in JSON format")
	listCmd.Flags().StringVarP(&listPattern, "pattern", "p", "", "Glob matched against note id or title (e.g. 'Groc*')")
	listCmd.Flags().BoolVar(&listArchived, "archived", false, "Include archived notes")
}
