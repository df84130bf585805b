// internal/httpserver/server.go
//
// HTTP server wiring for the GoBlog web frontend.
// Responsibilities:
//   - Router + middleware (timeouts, panic recovery, request IDs, access log).
//   - Page routes: home, my posts, post detail, create/edit/delete, auth.
//   - Per-request session scope: the browser's jwt cookie is relayed to the
//     API through the gateway's cookie jar, and the resolver reads the same
//     cookie to decide owner-only controls.
//   - Rendering from view.State with at most one pending redirect per page.
//
// Notes:
//   - The frontend holds no session state of its own; every request
//     recomputes it from the cookie.
//   - Delayed redirects are rendered as meta refresh, never as timers.

package httpserver

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/goblog/assets"
	"github.com/robalobadob/goblog/internal/api"
	"github.com/robalobadob/goblog/internal/session"
	"github.com/robalobadob/goblog/internal/view"
)

// Options tune the frontend.
type Options struct {
	CookieName    string        // session cookie shared with the API
	RedirectDelay time.Duration // delay before the login redirect on list pages
	Secure        bool          // relay cookies as Secure + SameSite=None
}

// Server bundles router, gateway and templates.
type Server struct {
	r     *chi.Mux
	gw    *api.Client
	opts  Options
	pages map[string]*template.Template
}

// New constructs a Server, installs middleware, and registers routes.
func New(gw *api.Client, opts Options) (*Server, error) {
	if opts.CookieName == "" {
		opts.CookieName = api.SessionCookie
	}
	pages, err := parsePages(assets.Templates())
	if err != nil {
		return nil, err
	}
	s := &Server{r: chi.NewRouter(), gw: gw, opts: opts, pages: pages}

	// --- middleware ---
	s.r.Use(chimw.RequestID)                 // add X-Request-ID
	s.r.Use(chimw.RealIP)                    // set RemoteAddr from X-Forwarded-For etc.
	s.r.Use(chimw.Recoverer)                 // recover from panics
	s.r.Use(chimw.Timeout(30 * time.Second)) // bound handler time
	s.r.Use(accessLog)

	s.r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true}`))
	})
	s.r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(assets.Static()))))

	s.mountPostRoutes()
	s.mountAuthRoutes()

	s.r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		s.renderError(w, r, http.StatusNotFound, "Page not found")
	})
	return s, nil
}

// Start begins serving HTTP on addr.
func (s *Server) Start(addr string) error { return http.ListenAndServe(addr, s.r) }

// Router exposes the internal router (useful for tests).
func (s *Server) Router() chi.Router { return s.r }

// ----------------------------- middleware ----------------------------------

// accessLog writes one zerolog line per request.
func accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		log.Info().
			Str("req_id", chimw.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("took", time.Since(start)).
			Msg("request")
	})
}

// ------------------------------ session scope ------------------------------

// scope is everything a handler needs to act for one browser request.
type scope struct {
	gw       *api.Client
	resolver *session.Resolver
	nav      view.Navigation
}

// scopeFor binds the gateway and resolver to the request's cookie.
func (s *Server) scopeFor(w http.ResponseWriter, r *http.Request) *scope {
	st := session.NewRequestStore(w, r, s.opts.CookieName, s.opts.Secure)
	return &scope{
		gw:       s.gw.WithCookieJar(st),
		resolver: session.NewResolver(st, s.opts.CookieName),
	}
}

// ------------------------------- rendering ---------------------------------

// page is the data every template receives.
type page struct {
	Title         string
	Authenticated bool
	UserID        string
	Flash         string
	Redirect      *view.Redirect
	Data          any
}

func (sc *scope) page(title string, data any) page {
	uid := sc.userID()
	return page{
		Title:         title,
		Authenticated: sc.resolver.IsAuthenticated(),
		UserID:        uid,
		Data:          data,
	}
}

// userID is the live session's user, or "" once the token has expired.
func (sc *scope) userID() string {
	if cur := sc.resolver.Current(); cur != nil {
		return cur.UserID
	}
	return ""
}

var funcs = template.FuncMap{
	"add": func(a, b int) int { return a + b },
	"sub": func(a, b int) int { return a - b },
	"dict": func(kv ...any) (map[string]any, error) {
		if len(kv)%2 != 0 {
			return nil, fmt.Errorf("dict: odd argument count")
		}
		m := make(map[string]any, len(kv)/2)
		for i := 0; i < len(kv); i += 2 {
			k, ok := kv[i].(string)
			if !ok {
				return nil, fmt.Errorf("dict: key %v is not a string", kv[i])
			}
			m[k] = kv[i+1]
		}
		return m, nil
	},
	// owns gates owner-only controls.
	"owns": func(p any, uid string) bool {
		switch v := p.(type) {
		case api.Post:
			return session.IsOwner(&v, uid)
		case *api.Post:
			return session.IsOwner(v, uid)
		}
		return false
	},
}

// pageFiles maps page names to their content template; each is parsed with
// the shared layout and post list.
var pageFiles = map[string]string{
	"home":     "home.html",
	"my_posts": "my_posts.html",
	"detail":   "detail.html",
	"form":     "form.html",
	"login":    "login.html",
	"register": "register.html",
	"error":    "error.html",
}

func parsePages(fsys fs.FS) (map[string]*template.Template, error) {
	out := make(map[string]*template.Template, len(pageFiles))
	for name, file := range pageFiles {
		t, err := template.New(name).Funcs(funcs).ParseFS(fsys, "layout.html", "posts.html", file)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", file, err)
		}
		out[name] = t
	}
	return out, nil
}

// finish completes a page: an immediate pending redirect becomes a 303,
// anything else renders the page (with a meta refresh when delayed).
func (s *Server) finish(w http.ResponseWriter, r *http.Request, sc *scope, status int, name string, p page) {
	rd := sc.nav.Pending()
	if rd.Immediate() {
		http.Redirect(w, r, rd.To, http.StatusSeeOther)
		return
	}
	p.Redirect = rd
	s.render(w, status, name, p)
}

func (s *Server) render(w http.ResponseWriter, status int, name string, p page) {
	var buf bytes.Buffer
	if err := s.pages[name].ExecuteTemplate(&buf, "layout", p); err != nil {
		log.Error().Err(err).Str("page", name).Msg("render")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) renderError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	sc := s.scopeFor(w, r)
	s.render(w, status, "error", sc.page(http.StatusText(status), msg))
}

// statusFor picks the response status for a failed gateway call.
func statusFor(err error) int {
	if st := api.Status(err); st >= 400 {
		return st
	}
	if errors.Is(err, api.ErrValidation) {
		return http.StatusBadRequest
	}
	return http.StatusBadGateway
}
