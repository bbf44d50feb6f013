package portalweb

import (
	"html/template"
	"log"
	"path/filepath"
	"sync"

	"github.com/labstack/echo/v4"

	"github.com/campusgate/campusgate/core"
	"github.com/campusgate/campusgate/core/auth"
	"github.com/campusgate/campusgate/services/toast"
	"github.com/campusgate/campusgate/services/upstream"
)

var (
	pageTemplates map[string]*template.Template
	pageTmplInit  sync.Once
)

// pageData is the payload handed to every page template.
type pageData struct {
	Title     string
	AppName   string
	Principal *auth.Principal
	IsAdmin   bool
	Toasts    []toast.Toast

	// form state, round-tripped on validation failures
	Form   map[string]string
	Errors map[string]string

	Records upstream.Records
	Data    interface{}
}

func parsePageTemplates() {
	pageTmplInit.Do(func() {
		pageTemplates = make(map[string]*template.Template)

		rp := filepath.Join(core.Conf.WorkDir, "assets", "templates", "pages")
		base := filepath.Join(rp, "base.gohtml")
		fps, err := filepath.Glob(filepath.Join(rp, "*.gohtml"))
		if err != nil {
			log.Printf("portalweb.parsePageTemplates: %v", err)
			return
		}

		for _, fp := range fps {
			name := filepath.Base(fp)
			if name == "base.gohtml" {
				continue
			}
			tmpl, err := template.ParseFiles(base, fp)
			if err != nil {
				log.Printf("portalweb.parsePageTemplates(%s): %v", name, err)
				continue
			}
			pageTemplates[name[:len(name)-len(".gohtml")]] = tmpl
		}
	})
}

// renderPage renders the named page inside the base layout, attaching the
// session principal (for the nav chrome) and draining pending toasts.
func (s *Server) renderPage(ctx echo.Context, code int, name string, data pageData) error {
	tmpl, ok := pageTemplates[name]
	if !ok {
		return errTemplateNotFound(name)
	}

	if data.AppName == "" {
		data.AppName = core.Conf.AppName
	}
	if store := contextStore(ctx); store != nil {
		if snap := store.Snapshot(); snap.IsAuthenticated() {
			data.Principal = snap.Principal
			data.IsAdmin = snap.Role() == auth.RoleAdmin
		}
	}
	data.Toasts = append(data.Toasts, s.drainToasts(ctx)...)

	ctx.Response().Header().Set(echo.HeaderContentType, echo.MIMETextHTMLCharsetUTF8)
	ctx.Response().WriteHeader(code)
	return tmpl.ExecuteTemplate(ctx.Response(), "base", data)
}

func (s *Server) pushToast(ctx echo.Context, kind toast.Kind, message string) {
	if id := clientID(ctx); id != "" {
		s.deps.Toasts.Push(id, kind, message)
	}
}

func (s *Server) drainToasts(ctx echo.Context) []toast.Toast {
	id := clientID(ctx)
	if id == "" {
		return nil
	}
	return s.deps.Toasts.Drain(id)
}
