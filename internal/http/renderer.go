package httpx

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"path"
	"strings"
	"time"

	domainauth "github.com/dewv/nlc-visits/internal/domain/auth"
)

//go:embed views
var viewsFS embed.FS

// ViewsFS returns the embedded view templates rooted at views/.
func ViewsFS() fs.FS {
	sub, err := fs.Sub(viewsFS, "views")
	if err != nil {
		panic(err)
	}
	return sub
}

// View names.
const (
	ViewLogin     = "login"
	ViewQuestion  = "question"
	ViewCheckIn   = "checkin"
	ViewCheckOut  = "checkout"
	ViewProfile   = "profile"
	ViewStaffMenu = "staffmenu"
	ViewStudents  = "students"
	ViewVisits    = "visits"
	ViewBrowser   = "browser"
	ViewError     = "error"
)

// ErrViewNotFound is returned when no page template exists for a view.
var ErrViewNotFound = errors.New("view not found")

// Page is the data every view receives.
type Page struct {
	View      string
	Title     string
	Banner    string
	Session   *domainauth.Session
	CSRFToken string
	Data      any
}

// TemplateRenderer renders the page templates inside the shared layout.
type TemplateRenderer struct {
	pages  map[string]*template.Template
	logger *slog.Logger
}

// TemplateRendererConfig holds configuration for creating a TemplateRenderer.
type TemplateRendererConfig struct {
	TemplateFS fs.FS        // Defaults to the embedded views
	Logger     *slog.Logger // Optional
}

// NewTemplateRenderer parses layout.tmpl once and clones it for every file
// under pages/, so each page can define its own "content" block.
func NewTemplateRenderer(cfg TemplateRendererConfig) (*TemplateRenderer, error) {
	fsys := cfg.TemplateFS
	if fsys == nil {
		fsys = ViewsFS()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	base, err := template.New("layout").Funcs(templateFuncs()).ParseFS(fsys, "layout.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parse layout: %w", err)
	}
	files, err := fs.Glob(fsys, "pages/*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("list pages: %w", err)
	}

	pages := make(map[string]*template.Template, len(files))
	for _, f := range files {
		t, err := base.Clone()
		if err != nil {
			return nil, err
		}
		if _, err := t.ParseFS(fsys, f); err != nil {
			logger.Error("template parsing failed", slog.String("template", f), slog.Any("error", err))
			return nil, fmt.Errorf("parse %s: %w", f, err)
		}
		pages[strings.TrimSuffix(path.Base(f), ".tmpl")] = t
	}
	return &TemplateRenderer{pages: pages, logger: logger}, nil
}

// Has reports whether a view exists.
func (r *TemplateRenderer) Has(view string) bool {
	_, ok := r.pages[view]
	return ok
}

// Render executes p.View into the layout and writes it with status.
// Nothing is written when the template fails.
func (r *TemplateRenderer) Render(w http.ResponseWriter, status int, p Page) error {
	t, ok := r.pages[p.View]
	if !ok {
		return fmt.Errorf("%w: %q", ErrViewNotFound, p.View)
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", p); err != nil {
		r.logger.Error("template execution failed",
			slog.String("template", p.View),
			slog.Any("error", err),
		)
		return err
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		r.logger.Error("failed to write rendered template",
			slog.String("template", p.View),
			slog.Any("error", err),
		)
		return err
	}
	return nil
}

func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"hours": func(h *float64) string {
			if h == nil {
				return ""
			}
			return fmt.Sprintf("%.2f", *h)
		},
		"when": func(t any) string {
			switch v := t.(type) {
			case time.Time:
				return v.Local().Format("Jan 2, 2006 3:04 PM")
			case *time.Time:
				if v == nil {
					return ""
				}
				return v.Local().Format("Jan 2, 2006 3:04 PM")
			default:
				return ""
			}
		},
		"deref": func(s *string) string {
			if s == nil {
				return ""
			}
			return *s
		},
	}
}
