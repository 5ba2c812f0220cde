package server

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"path"

	"github.com/labstack/echo/v4"

	"moodtunes/internal/core"
)

//go:embed templates/*.html
var templateFS embed.FS

// Page template names.
const (
	pageLogin   = "login"
	pageIndex   = "index"
	pageResults = "results"
	pageHistory = "history"
	pageError   = "error"
)

// pageData is the view model shared by every page.
type pageData struct {
	Username string
	Verified bool
	Error    string

	MoodText       string
	Moods          []core.Mood
	Recommendation *core.Recommendation

	History  []historyView
	Feedback []feedbackView

	Status  int
	Message string
}

type historyView struct {
	Entry *core.HistoryEntry
	Songs []core.Song
}

type feedbackView struct {
	Feedback *core.Feedback
	Song     core.Song
}

// Renderer executes one template set per page, each combined with the
// shared layout.
type Renderer struct {
	pages map[string]*template.Template
}

var templateFuncs = template.FuncMap{
	"percent": func(f float64) string { return fmt.Sprintf("%.0f%%", f*100) },
	"score":   func(f float64) string { return fmt.Sprintf("%.2f", f) },
	"ratings": func() []int {
		out := make([]int, 0, core.MaxRating-core.MinRating+1)
		for r := core.MaxRating; r >= core.MinRating; r-- {
			out = append(out, r)
		}
		return out
	},
}

// NewRenderer parses the page templates from fsys.
func NewRenderer(fsys fs.FS) (*Renderer, error) {
	layout, err := fs.ReadFile(fsys, "templates/layout.html")
	if err != nil {
		return nil, fmt.Errorf("failed to read layout template: %w", err)
	}

	r := &Renderer{pages: make(map[string]*template.Template)}
	for _, name := range []string{pageLogin, pageIndex, pageResults, pageHistory, pageError} {
		body, err := fs.ReadFile(fsys, path.Join("templates", name+".html"))
		if err != nil {
			return nil, fmt.Errorf("failed to read %s template: %w", name, err)
		}
		t, err := template.New(name).Funcs(templateFuncs).Parse(string(layout))
		if err == nil {
			_, err = t.Parse(string(body))
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s template: %w", name, err)
		}
		r.pages[name] = t
	}
	return r, nil
}

func mustRenderer() *Renderer {
	r, err := NewRenderer(templateFS)
	if err != nil {
		panic("failed to load embedded templates: " + err.Error())
	}
	return r
}

// Render implements echo.Renderer.
func (r *Renderer) Render(w io.Writer, name string, data interface{}, _ echo.Context) error {
	t, ok := r.pages[name]
	if !ok {
		return fmt.Errorf("unknown template %q", name)
	}
	return t.ExecuteTemplate(w, "layout", data)
}
