package core

import (
	"fmt"
	"strings"
	"time"
)

// NoteID is the opaque identity assigned by the remote store.
// The zero value means the note has not been created remotely yet.
type NoteID string

// IsZero reports whether the identity is absent.
func (id NoteID) IsZero() bool { return id == "" }

func (id NoteID) String() string { return string(id) }

// Content holds the editable fields of a note.
type Content struct {
	Title string `json:"title" yaml:"title"`
	Body  string `json:"body" yaml:"body"`
}

// IsEmpty reports whether both fields are blank. Empty content is never persisted.
func (c Content) IsEmpty() bool {
	return c.Title == "" && c.Body == ""
}

// Color is a tag drawn from the fixed note palette.
type Color string

const (
	ColorYellow Color = "Yellow"
	ColorRed    Color = "Red"
	ColorOrange Color = "Orange"
	ColorGreen  Color = "Green"
	ColorTeal   Color = "Teal"
	ColorBlue   Color = "Blue"
	ColorPurple Color = "Purple"
	ColorPink   Color = "Pink"
	ColorGray   Color = "Gray"
)

// DefaultColor is used for new notes and notes stored without a color.
const DefaultColor = ColorYellow

// Palette lists every valid color, default first.
var Palette = []Color{
	ColorYellow,
	ColorRed,
	ColorOrange,
	ColorGreen,
	ColorTeal,
	ColorBlue,
	ColorPurple,
	ColorPink,
	ColorGray,
}

// Valid reports whether c belongs to the palette.
func (c Color) Valid() bool {
	for _, p := range Palette {
		if c == p {
			return true
		}
	}
	return false
}

// ParseColor resolves a palette entry case-insensitively.
// An empty string yields DefaultColor.
func ParseColor(s string) (Color, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return DefaultColor, nil
	}
	for _, p := range Palette {
		if strings.EqualFold(s, string(p)) {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidColor, s)
}

// Note is a persisted note as seen by the editor.
type Note struct {
	ID        NoteID
	Content   Content
	Color     Color
	Archived  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ColorOrDefault returns the note color, falling back to DefaultColor.
func (n Note) ColorOrDefault() Color {
	if n.Color == "" {
		return DefaultColor
	}
	return n.Color
}
