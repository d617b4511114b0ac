// Package pages renders the server-side dashboard shell. Data is loaded by
// the browser from the JSON API once the page is up.
package pages

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/machinery-dashboard/internal/middleware"
	"github.com/ukydev/machinery-dashboard/internal/models"
)

//go:embed templates/*.html
var templateFS embed.FS

// Section is one protected dashboard page backed by an API listing.
type Section struct {
	Path     string
	Title    string
	Endpoint string
	Columns  []Column
}

// Column maps a table header to a field of the listed JSON records.
type Column struct {
	Header string
	Field  string
}

// Sections lists the protected pages in navigation order.
var Sections = []Section{
	{Path: "/machines", Title: "Machines", Endpoint: "/api/machines", Columns: []Column{
		{"Brand", "brand"}, {"Model", "model"}, {"Serial", "serialNumber"}, {"Type", "type"}, {"Hours", "hours"},
	}},
	{Path: "/operators", Title: "Operators", Endpoint: "/api/operators", Columns: []Column{
		{"Name", "name"}, {"Type", "type"}, {"License", "license"}, {"Email", "email"}, {"Active", "active"},
	}},
	{Path: "/services", Title: "Services", Endpoint: "/api/services", Columns: []Column{
		{"Type", "type"}, {"Status", "status"}, {"Description", "description"}, {"Requested by", "requestedBy"}, {"Total", "totalCost"},
	}},
	{Path: "/prestart", Title: "Pre-start checks", Endpoint: "/api/prestart", Columns: []Column{
		{"Operator", "operator"}, {"Passed", "passed"}, {"Hours", "hours"}, {"Observations", "observations"}, {"Date", "createdAt"},
	}},
	{Path: "/diesel-tanks", Title: "Diesel tanks", Endpoint: "/api/diesel-tanks", Columns: []Column{
		{"Name", "name"}, {"Location", "location"}, {"Capacity", "capacity"}, {"Level", "currentLevel"}, {"Fill %", "fillPercent"},
	}},
	{Path: "/plans", Title: "Plans", Endpoint: "/api/plans", Columns: []Column{
		{"Name", "name"}, {"Price", "price"}, {"Currency", "currency"}, {"Billing", "billingCycle"}, {"Machines", "maxMachines"},
	}},
}

// Renderer renders the embedded templates.
type Renderer struct {
	templates map[string]*template.Template
}

// NewRenderer parses the embedded templates.
func NewRenderer() (*Renderer, error) {
	r := &Renderer{templates: make(map[string]*template.Template)}
	for _, name := range []string{"login", "dashboard", "section"} {
		tmpl, err := template.ParseFS(templateFS, "templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s template: %w", name, err)
		}
		r.templates[name] = tmpl
	}
	return r, nil
}

type pageData struct {
	Title     string
	User      *models.Claims
	Sections  []Section
	Section   *Section
	Next      string
	Suspended bool
}

func (r *Renderer) render(w http.ResponseWriter, name string, data pageData) {
	tmpl, ok := r.templates[name]
	if !ok {
		http.Error(w, "Page not found", http.StatusNotFound)
		return
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", data); err != nil {
		log.WithError(err).WithField("template", name).Error("Failed to render page")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

// Login renders the public sign-in page.
func (r *Renderer) Login(w http.ResponseWriter, req *http.Request) {
	next := req.URL.Query().Get("next")
	if !localPath(next) {
		next = "/"
	}
	r.render(w, "login", pageData{
		Title:     "Sign in",
		Next:      next,
		Suspended: req.URL.Query().Get("suspended") == "1",
	})
}

// localPath reports whether next stays on this host. Browsers treat a
// backslash like a slash, so "/\\host" is as offsite as "//host".
func localPath(next string) bool {
	if next == "" || next[0] != '/' {
		return false
	}
	return len(next) == 1 || (next[1] != '/' && next[1] != '\\')
}

// Dashboard renders the landing page. Must run behind RequirePage.
func (r *Renderer) Dashboard(w http.ResponseWriter, req *http.Request) {
	if req.URL.Path != "/" {
		http.NotFound(w, req)
		return
	}
	claims, _ := middleware.GetUserFromContext(req.Context())
	r.render(w, "dashboard", pageData{Title: "Dashboard", User: claims, Sections: Sections})
}

// Section returns the handler of one listing page. Must run behind RequirePage.
func (r *Renderer) Section(section Section) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		claims, _ := middleware.GetUserFromContext(req.Context())
		r.render(w, "section", pageData{Title: section.Title, User: claims, Sections: Sections, Section: &section})
	}
}
