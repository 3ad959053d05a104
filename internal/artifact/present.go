package artifact

import (
	"encoding/json"
	"fmt"
	"time"
)

// Presentation helpers: pure functions deriving display metadata from an
// artifact. No I/O, total — they always return something usable.

// Title derives a human-readable title from the artifact's content.
// Falls back to the type tag when the content carries no title field.
func Title(a *Artifact) string {
	var meta struct {
		Title    string `json:"title"`
		Language string `json:"language"`
	}
	if err := json.Unmarshal(a.Content, &meta); err == nil {
		if meta.Title != "" {
			return meta.Title
		}
		if a.Type == TypeCode && meta.Language != "" {
			return fmt.Sprintf("%s snippet", meta.Language)
		}
	}
	return string(a.Type)
}

// Icon returns the icon name for an artifact type.
func Icon(t Type) string {
	switch t {
	case TypeDocument:
		return "file-text"
	case TypeSlidesOutline:
		return "presentation"
	case TypeCode:
		return "code"
	default:
		return "file"
	}
}

// DisplayTime formats ts relative to now when it is under 24 hours old
// ("35 minutes ago", "3 hours ago"), and as an absolute date-time otherwise.
func DisplayTime(ts, now time.Time) string {
	age := now.Sub(ts)
	switch {
	case age < time.Minute:
		return "just now"
	case age < time.Hour:
		m := int(age.Minutes())
		if m == 1 {
			return "1 minute ago"
		}
		return fmt.Sprintf("%d minutes ago", m)
	case age < 24*time.Hour:
		h := int(age.Hours())
		if h == 1 {
			return "1 hour ago"
		}
		return fmt.Sprintf("%d hours ago", h)
	default:
		return ts.Format("Jan 2, 2006 15:04")
	}
}
