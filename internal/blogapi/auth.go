// internal/blogapi/auth.go
//
// Accounts, tokens and the auth middleware of the stand-in API.
//   - Passwords are bcrypt hashes.
//   - Tokens are HS256 JWTs carrying the user id in sub (and iss, which
//     older clients read), delivered in an HttpOnly cookie.
//   - Unlike the client, the API verifies the signature on every call.

package blogapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
)

var emailRe = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// registerReq / loginReq payloads.
type registerReq struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Password  string `json:"password"`
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// validateRegister enforces basic email/password rules.
func validateRegister(req registerReq) error {
	if len(req.Password) < 8 {
		return errors.New("Password must be at least 8 characters long")
	}
	if !emailRe.MatchString(req.Email) {
		return errors.New("Invalid email format")
	}
	return nil
}

// handleRegister creates an account. It does not log the user in.
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMsg(w, http.StatusBadRequest, "Invalid payload")
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if err := validateRegister(req); err != nil {
		writeMsg(w, http.StatusBadRequest, err.Error())
		return
	}
	h, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.opts.BcryptCost)
	if err != nil {
		log.Error().Err(err).Msg("hash password")
		writeMsg(w, http.StatusInternalServerError, "Could not register user")
		return
	}
	u := &User{
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
		Email:        req.Email,
		Phone:        strings.TrimSpace(req.Phone),
		PasswordHash: string(h),
	}
	if err := s.store.CreateUser(r.Context(), u); err != nil {
		if errors.Is(err, errEmailTaken) {
			writeMsg(w, http.StatusBadRequest, "Email already exists")
			return
		}
		log.Error().Err(err).Msg("create user")
		writeMsg(w, http.StatusInternalServerError, "Could not register user")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": u, "message": "User registered successfully"})
}

// handleLogin checks credentials and sets the session cookie.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMsg(w, http.StatusBadRequest, "Invalid payload")
		return
	}
	u, err := s.store.UserByEmail(r.Context(), strings.TrimSpace(req.Email))
	if err != nil || bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)) != nil {
		writeMsg(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}
	tok, exp, err := s.signJWT(u.IDString())
	if err != nil {
		log.Error().Err(err).Msg("sign jwt")
		writeMsg(w, http.StatusInternalServerError, "Could not sign in")
		return
	}
	s.setAuthCookie(w, tok, exp)
	writeJSON(w, http.StatusOK, map[string]any{"message": "Login successful", "user": u})
}

// handleLogout clears the session cookie; always succeeds.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.clearAuthCookie(w)
	writeMsg(w, http.StatusOK, "Logout successful")
}

// ------------------------------ JWT & cookies ------------------------------

// signJWT creates an HS256 token for userID.
func (s *Server) signJWT(userID string) (string, time.Time, error) {
	now := time.Now()
	exp := now.Add(s.opts.TokenTTL)
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   userID,
		Issuer:    userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(exp),
	})
	ss, err := t.SignedString([]byte(s.opts.Secret))
	return ss, exp, err
}

// verifyJWT returns the subject of a valid token.
func (s *Server) verifyJWT(tok string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(tok, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(s.opts.Secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return "", err
	}
	if claims.Subject == "" || claims.Subject == "0" {
		return "", errors.New("token without subject")
	}
	return claims.Subject, nil
}

// setAuthCookie writes the session cookie.
func (s *Server) setAuthCookie(w http.ResponseWriter, token string, exp time.Time) {
	http.SetCookie(w, s.cookie(token, exp, 0))
}

// clearAuthCookie deletes the session cookie.
func (s *Server) clearAuthCookie(w http.ResponseWriter) {
	http.SetCookie(w, s.cookie("", time.Time{}, -1))
}

func (s *Server) cookie(value string, exp time.Time, maxAge int) *http.Cookie {
	sameSite := http.SameSiteLaxMode
	if s.opts.Secure {
		sameSite = http.SameSiteNoneMode // required for third‑party contexts when Secure
	}
	return &http.Cookie{
		Name:     CookieName,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.opts.Secure,
		SameSite: sameSite,
		Expires:  exp,
		MaxAge:   maxAge,
	}
}

// bearerOrCookie extracts a bearer token from the Authorization header or
// the session cookie.
func bearerOrCookie(r *http.Request) string {
	if a := r.Header.Get("Authorization"); strings.HasPrefix(strings.ToLower(a), "bearer ") {
		return strings.TrimSpace(a[7:])
	}
	if c, err := r.Cookie(CookieName); err == nil {
		return c.Value
	}
	return ""
}

// ---------------------------- auth middleware ------------------------------

// ctxUserKey is the context key type for the authenticated *User.
type ctxUserKey struct{}

// requireAuth enforces a valid token for an existing user.
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tok := bearerOrCookie(r)
		if tok == "" {
			writeMsg(w, http.StatusUnauthorized, "unauthenticated")
			return
		}
		uid, err := s.verifyJWT(tok)
		if err != nil {
			log.Debug().Err(err).Msg("token rejected")
			writeMsg(w, http.StatusUnauthorized, "unauthenticated")
			return
		}
		u, err := s.store.UserByID(r.Context(), uid)
		if err != nil {
			writeMsg(w, http.StatusUnauthorized, "unauthenticated")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxUserKey{}, u)))
	})
}

// currentUser returns the user placed by requireAuth.
func currentUser(r *http.Request) *User {
	u, _ := r.Context().Value(ctxUserKey{}).(*User)
	return u
}
