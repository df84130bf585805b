// internal/blogapi/server.go
//
// HTTP wiring for the stand-in blog API.
// Responsibilities:
//   - Router + middleware (JSON, CORS, timeouts, panic recovery, request IDs).
//   - Public endpoints under /api: register, login, logout, uploads/{name}.
//   - Authenticated endpoints under /api: posts CRUD, own posts, image upload.
//
// Notes:
//   - CORS is origin-aware and credentials-enabled so the session cookie
//     survives cross-origin calls from a browser frontend.
//   - Every authenticated route re-verifies the token signature.

package blogapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
)

// CookieName is the session cookie the API issues.
const CookieName = "jwt"

// Options tune the stand-in API.
type Options struct {
	Secret         string
	TokenTTL       time.Duration
	PageSize       int
	PublicURL      string // base used to build upload URLs, e.g. http://localhost:4000/api
	MaxUploadBytes int64
	ClientOrigin   string
	Secure         bool // Secure + SameSite=None cookies
	BcryptCost     int
}

func (o *Options) defaults() {
	if o.Secret == "" {
		o.Secret = "dev_secret_change_me"
	}
	if o.TokenTTL <= 0 {
		o.TokenTTL = 24 * time.Hour
	}
	if o.PageSize <= 0 {
		o.PageSize = 5
	}
	if o.MaxUploadBytes <= 0 {
		o.MaxUploadBytes = 2 << 20
	}
	if o.ClientOrigin == "" {
		o.ClientOrigin = "http://localhost:3000"
	}
	if o.BcryptCost == 0 {
		o.BcryptCost = bcrypt.DefaultCost
	}
}

// Server bundles router, persistence and options.
type Server struct {
	r      *chi.Mux
	store  *Store
	images ImageStore
	opts   Options
}

// New constructs a Server, installs middleware, and registers routes.
func New(st *Store, images ImageStore, opts Options) *Server {
	opts.defaults()
	s := &Server{r: chi.NewRouter(), store: st, images: images, opts: opts}

	// --- middleware ---
	s.r.Use(chimw.RequestID)
	s.r.Use(chimw.RealIP)
	s.r.Use(chimw.Recoverer)
	s.r.Use(chimw.Timeout(10 * time.Second))
	s.r.Use(accessLog)
	s.r.Use(s.cors)

	s.r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
	})

	s.r.Route("/api", func(r chi.Router) {
		r.Post("/register", s.handleRegister)
		r.Post("/login", s.handleLogin)
		r.Post("/logout", s.handleLogout)
		r.Get("/uploads/{name}", s.handleGetUpload)

		r.Group(func(r chi.Router) {
			r.Use(s.requireAuth)
			r.Post("/post", s.handleCreatePost)
			r.Get("/posts", s.handleListPosts)
			r.Get("/posts/unique", s.handleOwnPosts)
			r.Get("/posts/{id}", s.handleGetPost)
			r.Put("/posts/update/{id}", s.handleUpdatePost)
			r.Delete("/posts/delete/{id}", s.handleDeletePost)
			r.Post("/upload-image", s.handleUpload)
		})
	})

	s.r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not_found", "path": r.URL.Path})
	})
	return s
}

// Start begins serving HTTP on addr.
func (s *Server) Start(addr string) error { return http.ListenAndServe(addr, s.r) }

// Router exposes the internal router (useful for tests).
func (s *Server) Router() chi.Router { return s.r }

// ----------------------------- middleware ----------------------------------

// cors enables credentialed CORS for the configured client origin.
func (s *Server) cors(next http.Handler) http.Handler {
	origin := s.opts.ClientOrigin
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Vary", "Origin")
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Allow-Credentials", "true")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE,OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// accessLog writes one zerolog line per request.
func accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		log.Debug().
			Str("req_id", chimw.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("took", time.Since(start)).
			Msg("blogapi")
	})
}

// ------------------------------- responses ---------------------------------

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeMsg(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"message": msg})
}
