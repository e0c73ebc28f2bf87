package server

import (
	"fmt"
	"net/http"

	"github.com/gorilla/handlers"
	"github.com/pkg/errors"

	nb "github.com/panyam/nodebird"
)

// notFound turns a request no route matched into a 404 error
func (a *App) notFound(w http.ResponseWriter, r *http.Request) {
	a.HandleError(w, r, nb.NotFound())
}

// HandleError is the terminal error handler.  It renders the error page with
// the status of err (500 unless err says otherwise).  The full error, with
// its stack trace when it has one, is only shown outside production.
func (a *App) HandleError(w http.ResponseWriter, r *http.Request, err error) {
	status := nb.StatusOf(err)
	if status >= http.StatusInternalServerError {
		a.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "status", status, "err", err)
	} else {
		a.logger.Debug("request rejected", "method", r.Method, "path", r.URL.Path, "status", status, "err", err)
	}

	data := &PageData{
		Title:   fmt.Sprintf("%d | NodeBird", status),
		Status:  status,
		Message: err.Error(),
	}
	if !a.config.IsProduction() {
		data.Detail = fmt.Sprintf("%+v", err)
	}
	if rerr := a.views.Render(w, status, "error", data); rerr != nil {
		a.logger.Error("could not render error page", "err", rerr)
		http.Error(w, data.Message, status)
	}
}

// Recoverer turns a panicking handler into a 500 on the error page
func (a *App) Recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		page := &panicPage{app: a, w: w, r: r}
		guarded := http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r)
		})
		handlers.RecoveryHandler(handlers.RecoveryLogger(page))(guarded).ServeHTTP(page, r)
	})
}

// panicPage receives what the recovery handler reports.  The bare 500 it
// writes is dropped and the error page is rendered on the real response.
type panicPage struct {
	app *App
	w   http.ResponseWriter
	r   *http.Request
}

func (p *panicPage) Header() http.Header         { return p.w.Header() }
func (p *panicPage) Write(b []byte) (int, error) { return len(b), nil }
func (p *panicPage) WriteHeader(int)             {}

func (p *panicPage) Println(v ...any) {
	if len(v) == 0 {
		return
	}
	if v[0] == http.ErrAbortHandler {
		panic(http.ErrAbortHandler)
	}
	err, ok := v[0].(error)
	if !ok {
		err = fmt.Errorf("%v", v[0])
	}
	p.app.HandleError(p.w, p.r, errors.Wrap(err, "panic"))
}
