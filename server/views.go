package server

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"time"

	nb "github.com/panyam/nodebird"
)

//go:embed views/*.html
var viewFS embed.FS

//go:embed static
var staticFS embed.FS

// PageData is what every view is rendered with
type PageData struct {
	Title string
	User  *nb.User

	Posts        []*nb.Post
	Followings   []*nb.User
	Followers    []*nb.User
	FollowingIDs map[string]bool
	Hashtag      string

	// OAuth providers offered on the login form
	Providers []string

	// one-shot flash messages
	LoginError string
	JoinError  string
	PostError  string

	// error page
	Status  int
	Message string
	Detail  string
}

var viewFuncs = template.FuncMap{
	"formatTime": func(t time.Time) string {
		return t.Format("2006-01-02 15:04")
	},
}

// Views are the parsed page templates.  Every page is rendered inside
// layout.html, except the error page which stands alone.
type Views struct {
	pages map[string]*template.Template
}

func LoadViews() (*Views, error) {
	v := &Views{pages: map[string]*template.Template{}}
	for _, name := range []string{"main", "join", "profile"} {
		t, err := template.New("layout.html").Funcs(viewFuncs).
			ParseFS(viewFS, "views/layout.html", "views/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("parsing %s view: %w", name, err)
		}
		v.pages[name] = t
	}
	t, err := template.New("error.html").Funcs(viewFuncs).ParseFS(viewFS, "views/error.html")
	if err != nil {
		return nil, fmt.Errorf("parsing error view: %w", err)
	}
	v.pages["error"] = t
	return v, nil
}

// Render executes the named view into a buffer first so a failing template
// never leaves a half written page behind.
func (v *Views) Render(w http.ResponseWriter, status int, name string, data *PageData) error {
	t, ok := v.pages[name]
	if !ok {
		return fmt.Errorf("unknown view %q", name)
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		return err
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}

func staticHandler() http.Handler {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
}
