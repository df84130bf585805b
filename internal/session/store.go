// internal/session/store.go
//
// Cookie stores. A Store is both the resolver's view of the session cookie
// and the http.CookieJar the gateway sends credentials from, so the cookie
// the API sets on login is exactly the one the resolver later decodes.
//
//   - RequestStore: one per incoming browser request. Forwards the
//     browser's session cookie to the API and relays the API's Set-Cookie
//     for it back to the browser.
//   - FileJar: a JSON file on disk, for command-line use.

package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Store is a cookie jar that can also be read and cleared by name.
type Store interface {
	http.CookieJar
	// Get returns the value of a live cookie.
	Get(name string) (string, bool)
	// Expire removes the cookie locally.
	Expire(name string)
}

// expired reports whether a Set-Cookie means "delete".
func expired(c *http.Cookie, now time.Time) bool {
	return c.MaxAge < 0 || c.Value == "" || (!c.Expires.IsZero() && !c.Expires.After(now))
}

// ----------------------------- RequestStore --------------------------------

// RequestStore relays one session cookie between a browser and the API.
type RequestStore struct {
	mu      sync.Mutex
	w       http.ResponseWriter
	name    string
	value   string
	present bool
	secure  bool
}

// NewRequestStore seeds the store from r's cookie name. Cookie writes go to
// w, so the store must be used before the response body is written.
func NewRequestStore(w http.ResponseWriter, r *http.Request, name string, secure bool) *RequestStore {
	s := &RequestStore{w: w, name: name, secure: secure}
	if c, err := r.Cookie(name); err == nil && c.Value != "" {
		s.value, s.present = c.Value, true
	}
	return s
}

// Cookies returns the session cookie for outgoing API calls.
func (s *RequestStore) Cookies(_ *url.URL) []*http.Cookie {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.present {
		return nil
	}
	return []*http.Cookie{{Name: s.name, Value: s.value}}
}

// SetCookies relays the API's session cookie to the browser, rescoped to
// this site. Other cookies are dropped.
func (s *RequestStore) SetCookies(_ *url.URL, cookies []*http.Cookie) {
	for _, c := range cookies {
		if c.Name != s.name {
			continue
		}
		if expired(c, time.Now()) {
			s.Expire(s.name)
			continue
		}
		s.mu.Lock()
		s.value, s.present = c.Value, true
		s.mu.Unlock()
		http.SetCookie(s.w, s.cookie(c.Value, c.Expires, c.MaxAge))
	}
}

func (s *RequestStore) Get(name string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if name != s.name || !s.present {
		return "", false
	}
	return s.value, true
}

// Expire deletes the browser's cookie.
func (s *RequestStore) Expire(name string) {
	if name != s.name {
		return
	}
	s.mu.Lock()
	s.value, s.present = "", false
	s.mu.Unlock()
	http.SetCookie(s.w, s.cookie("", time.Time{}, -1))
}

// cookie mirrors the attributes the API uses for its own session cookie.
func (s *RequestStore) cookie(value string, exp time.Time, maxAge int) *http.Cookie {
	sameSite := http.SameSiteLaxMode
	if s.secure {
		sameSite = http.SameSiteNoneMode
	}
	return &http.Cookie{
		Name:     s.name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: sameSite,
		Expires:  exp,
		MaxAge:   maxAge,
	}
}

// ------------------------------- FileJar -----------------------------------

// FileJar persists cookies by name in a JSON file. It holds cookies for a
// single API, so URLs are ignored.
type FileJar struct {
	mu      sync.Mutex
	path    string
	entries map[string]fileEntry
	now     func() time.Time
}

type fileEntry struct {
	Value   string    `json:"value"`
	Expires time.Time `json:"expires,omitempty"`
}

// DefaultJarPath is <user config dir>/goblog/cookies.json.
func DefaultJarPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locate config dir: %w", err)
	}
	return filepath.Join(dir, "goblog", "cookies.json"), nil
}

// OpenFileJar loads path, starting empty when the file does not exist.
func OpenFileJar(path string) (*FileJar, error) {
	j := &FileJar{path: path, entries: map[string]fileEntry{}, now: time.Now}
	b, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return j, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read cookie jar: %w", err)
	}
	if len(b) > 0 {
		if err := json.Unmarshal(b, &j.entries); err != nil {
			return nil, fmt.Errorf("parse cookie jar %s: %w", path, err)
		}
	}
	if j.entries == nil {
		// a file holding JSON null
		j.entries = map[string]fileEntry{}
	}
	return j, nil
}

func (j *FileJar) Cookies(_ *url.URL) []*http.Cookie {
	j.mu.Lock()
	defer j.mu.Unlock()
	var out []*http.Cookie
	for name, e := range j.entries {
		if j.live(e) {
			out = append(out, &http.Cookie{Name: name, Value: e.Value})
		}
	}
	return out
}

func (j *FileJar) SetCookies(_ *url.URL, cookies []*http.Cookie) {
	j.mu.Lock()
	defer j.mu.Unlock()
	now := j.now()
	for _, c := range cookies {
		if expired(c, now) {
			delete(j.entries, c.Name)
			continue
		}
		e := fileEntry{Value: c.Value, Expires: c.Expires}
		if c.MaxAge > 0 {
			e.Expires = now.Add(time.Duration(c.MaxAge) * time.Second)
		}
		j.entries[c.Name] = e
	}
	if err := j.save(); err != nil {
		log.Warn().Err(err).Str("path", j.path).Msg("save cookie jar")
	}
}

func (j *FileJar) Get(name string) (string, bool) {
	j.mu.Lock()
	defer j.mu.Unlock()
	e, ok := j.entries[name]
	if !ok || !j.live(e) {
		return "", false
	}
	return e.Value, true
}

func (j *FileJar) Expire(name string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if _, ok := j.entries[name]; !ok {
		return
	}
	delete(j.entries, name)
	if err := j.save(); err != nil {
		log.Warn().Err(err).Str("path", j.path).Msg("save cookie jar")
	}
}

func (j *FileJar) live(e fileEntry) bool {
	return e.Expires.IsZero() || e.Expires.After(j.now())
}

// save writes the jar atomically with owner-only permissions. Callers hold mu.
func (j *FileJar) save() error {
	if err := os.MkdirAll(filepath.Dir(j.path), 0o700); err != nil {
		return err
	}
	b, err := json.MarshalIndent(j.entries, "", "  ")
	if err != nil {
		return err
	}
	tmp := j.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, j.path)
}
