package web

import (
	"fmt"
	"html/template"
	"io"
	"net/url"
	"path/filepath"

	"github.com/Rishi-pixl/studylounge/internal/types"
)

// PageData is the context handed to every page template.
type PageData struct {
	// User is the authenticated requester, nil for anonymous visitors.
	User *types.User
	// Notice is a user-visible message shown after a failed form
	// submission or login attempt.
	Notice string
	// Form carries the submitted values back to a redisplayed form.
	Form url.Values

	Q            string
	Rooms        []types.Room
	RoomCount    int
	Topics       []types.Topic
	Messages     []types.Message
	Room         *types.Room
	Participants []types.User
	Profile      *types.User
	// DeleteTarget names the object on the delete confirmation page.
	DeleteTarget string
}

type PageRenderer interface {
	Render(w io.Writer, page string, data *PageData) error
}

// TemplateCache parses every page template against the shared base layout
// once at startup.
type TemplateCache struct {
	pages map[string]*template.Template
}

func NewTemplateCache(dir string) (*TemplateCache, error) {
	pages, err := filepath.Glob(filepath.Join(dir, "pages", "*.tmpl"))
	if err != nil {
		return nil, err
	}

	if len(pages) == 0 {
		return nil, fmt.Errorf("no page templates in %s", dir)
	}

	cache := make(map[string]*template.Template)
	for _, page := range pages {
		name := filepath.Base(page)
		ts, err := template.New(name).ParseFiles(filepath.Join(dir, "base.html.tmpl"), page)
		if err != nil {
			return nil, err
		}

		cache[name] = ts
	}

	return &TemplateCache{pages: cache}, nil
}

func (tc *TemplateCache) Render(w io.Writer, page string, data *PageData) error {
	ts, ok := tc.pages[page]
	if !ok {
		return fmt.Errorf("template %q not in cache", page)
	}

	return ts.ExecuteTemplate(w, "base", data)
}
