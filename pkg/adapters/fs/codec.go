package fs

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/lomber1/notes-web/pkg/core"
)

// frontmatter is the YAML header of a note file. The body follows the closing delimiter.
type frontmatter struct {
	Title    string    `yaml:"title"`
	Color    string    `yaml:"color,omitempty"`
	Archived bool      `yaml:"archived,omitempty"`
	Created  time.Time `yaml:"created"`
	Updated  time.Time `yaml:"updated"`
}

var delimiter = []byte("---")

// encodeNote renders a note as Markdown with YAML frontmatter.
func encodeNote(n core.Note) ([]byte, error) {
	fm := frontmatter{
		Title:    n.Content.Title,
		Color:    string(n.Color),
		Archived: n.Archived,
		Created:  n.CreatedAt.UTC(),
		Updated:  n.UpdatedAt.UTC(),
	}

	var buf bytes.Buffer
	buf.WriteString("---\n")
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)
	if err := encoder.Encode(fm); err != nil {
		return nil, err
	}
	if err := encoder.Close(); err != nil {
		return nil, err
	}
	buf.WriteString("---\n")
	buf.WriteString(n.Content.Body)
	return buf.Bytes(), nil
}

// decodeNote parses a note file. Files without frontmatter are read as a body-only note.
// Unknown colors are kept as-is; the editor falls back to the default when opening them.
func decodeNote(id core.NoteID, data []byte) (core.Note, error) {
	n := core.Note{ID: id}

	if !bytes.HasPrefix(data, []byte("---\n")) && !bytes.HasPrefix(data, []byte("---\r\n")) {
		n.Content.Body = string(data)
		return n, nil
	}

	rest := data[len(delimiter):]
	parts := bytes.SplitN(rest, append([]byte("\n"), delimiter...), 2)
	if len(parts) == 1 {
		return core.Note{}, errors.New("frontmatter started but no closing delimiter found")
	}

	var fm frontmatter
	if err := yaml.Unmarshal(parts[0], &fm); err != nil {
		return core.Note{}, fmt.Errorf("failed to parse frontmatter: %w", err)
	}

	body := string(parts[1])
	body = strings.TrimPrefix(body, "\r\n")
	body = strings.TrimPrefix(body, "\n")

	n.Content = core.Content{Title: fm.Title, Body: body}
	n.Color = core.Color(fm.Color)
	n.Archived = fm.Archived
	n.CreatedAt = fm.Created
	n.UpdatedAt = fm.Updated
	return n, nil
}
