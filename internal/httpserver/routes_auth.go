// internal/httpserver/routes_auth.go
//
// Account pages:
//   - GET/POST /login    → sign in; the API's jwt cookie is relayed to the browser
//   - GET/POST /register → create an account, then go to /login
//   - POST     /logout   → server-side logout, then the local cookie is cleared
//
// Logout always clears the local session, even when the API call fails.

package httpserver

import (
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/goblog/internal/api"
	"github.com/robalobadob/goblog/internal/view"
)

type loginForm struct {
	Email string
	Error string
}

type registerForm struct {
	FirstName string
	LastName  string
	Email     string
	Phone     string
	Error     string
}

func (s *Server) mountAuthRoutes() {
	s.r.Get(view.PathLogin, s.handleLoginForm)
	s.r.Post(view.PathLogin, s.handleLogin)
	s.r.Get("/register", s.handleRegisterForm)
	s.r.Post("/register", s.handleRegister)
	s.r.Post("/logout", s.handleLogout)
}

// GET /login
func (s *Server) handleLoginForm(w http.ResponseWriter, r *http.Request) {
	sc := s.scopeFor(w, r)
	p := sc.page("Log in", loginForm{})
	if r.URL.Query().Get("registered") != "" {
		p.Flash = "Account created. Please log in."
	}
	s.finish(w, r, sc, http.StatusOK, "login", p)
}

// POST /login
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	sc := s.scopeFor(w, r)
	form := loginForm{Email: strings.TrimSpace(r.FormValue("email"))}
	_, err := sc.gw.Login(r.Context(), api.Credentials{Email: form.Email, Password: r.FormValue("password")})
	if err != nil {
		form.Error = api.Message(err)
		s.finish(w, r, sc, statusFor(err), "login", sc.page("Log in", form))
		return
	}
	log.Info().Str("email", form.Email).Msg("login")
	sc.nav.Schedule(view.PathHome, 0)
	s.finish(w, r, sc, http.StatusOK, "login", sc.page("Log in", form))
}

// GET /register
func (s *Server) handleRegisterForm(w http.ResponseWriter, r *http.Request) {
	sc := s.scopeFor(w, r)
	s.finish(w, r, sc, http.StatusOK, "register", sc.page("Register", registerForm{}))
}

// POST /register
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	sc := s.scopeFor(w, r)
	form := registerForm{
		FirstName: strings.TrimSpace(r.FormValue("first_name")),
		LastName:  strings.TrimSpace(r.FormValue("last_name")),
		Email:     strings.TrimSpace(r.FormValue("email")),
		Phone:     strings.TrimSpace(r.FormValue("phone")),
	}
	_, err := sc.gw.Register(r.Context(), api.Profile{
		FirstName: form.FirstName,
		LastName:  form.LastName,
		Email:     form.Email,
		Phone:     form.Phone,
		Password:  r.FormValue("password"),
	})
	if err != nil {
		form.Error = api.Message(err)
		s.finish(w, r, sc, statusFor(err), "register", sc.page("Register", form))
		return
	}
	sc.nav.Schedule(view.PathLogin+"?registered=1", 0)
	s.finish(w, r, sc, http.StatusOK, "register", sc.page("Register", form))
}

// POST /logout
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	sc := s.scopeFor(w, r)
	if err := sc.gw.Logout(r.Context()); err != nil {
		log.Warn().Err(err).Msg("api logout failed; clearing local session anyway")
	}
	sc.resolver.ClearSession()
	sc.nav.Schedule(view.PathLogin, 0)
	s.finish(w, r, sc, http.StatusOK, "login", sc.page("Log in", loginForm{}))
}
