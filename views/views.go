// Package views renders the storefront pages from embedded templates.
package views

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"

	"coffeelink/cart"
	"coffeelink/middleware"
	"coffeelink/models"
	"coffeelink/session"
	"coffeelink/utils"

	"go.uber.org/zap"
)

//go:embed templates/*.html
var templateFS embed.FS

// Page names.
const (
	PageCatalog     = "catalog"
	PageCart        = "cart"
	PageLogin       = "login"
	PageRegister    = "register"
	PageAdmin       = "admin"
	PagePlaceholder = "placeholder"
	PageError       = "error"
)

var pageNames = []string{PageCatalog, PageCart, PageLogin, PageRegister, PageAdmin, PagePlaceholder, PageError}

var funcs = template.FuncMap{
	"clp": utils.FormatCLP,
	"add": func(a, b int) int { return a + b },
}

// Nav is what the navigation bar needs to know about the visitor.
type Nav struct {
	Loading   bool
	User      models.UserIdentity
	LoggedIn  bool
	CartCount int
}

// Page is the value every template executes against.
type Page struct {
	Title         string
	Refresh       bool
	Nav           Nav
	Notifications []cart.Notification
	Data          any
}

// Renderer executes the page templates.
type Renderer struct {
	pages map[string]*template.Template
	log   *zap.Logger
}

// New parses the embedded templates.
func New(log *zap.Logger) (*Renderer, error) {
	if log == nil {
		log = zap.NewNop()
	}
	r := &Renderer{pages: make(map[string]*template.Template, len(pageNames)), log: log}
	for _, name := range pageNames {
		t, err := template.New(name).Funcs(funcs).ParseFS(templateFS, "templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("parse %s template: %w", name, err)
		}
		r.pages[name] = t
	}
	return r, nil
}

// Render writes page name with status. The client's pending notifications are
// drained into the page.
func (r *Renderer) Render(w http.ResponseWriter, req *http.Request, status int, name, title string, data any) {
	t, ok := r.pages[name]
	if !ok {
		r.log.Error("unknown page", zap.String("page", name))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	page := Page{Title: title, Data: data}
	if client, ok := middleware.ClientFrom(req.Context()); ok {
		page.Nav = navFor(client)
		page.Notifications = client.Flash.Drain()
	}
	if name == PagePlaceholder {
		page.Refresh = true
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", page); err != nil {
		r.log.Error("render page", zap.String("page", name), zap.Error(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// Placeholder renders the page shown while a session is being restored.
func (r *Renderer) Placeholder() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Cache-Control", "no-store")
		r.Render(w, req, http.StatusOK, PagePlaceholder, "Verificando permisos", nil)
	})
}

func navFor(c *session.Client) Nav {
	user, ok := c.Session.CurrentUser()
	return Nav{
		Loading:   c.Session.IsLoading(),
		User:      user,
		LoggedIn:  ok,
		CartCount: c.Cart().ItemCount(),
	}
}
