// internal/api/client.go
//
// Gateway client for the blog REST API. This is the only component that
// performs network I/O against the API.
//
// Responsibilities:
//   - Credentialed requests: the session cookie travels through the
//     client's http.CookieJar on every call.
//   - Status mapping: non-2xx responses become *Error with the original
//     status and server message.
//   - Shape tolerance: {data: ...}, {data, meta} and bare bodies are
//     unwrapped here, never in callers.
//
// Nothing is retried or cached.

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/goblog/internal/config"
)

// maxResponseBytes bounds how much of a response body is read.
const maxResponseBytes = 8 << 20

// Client issues REST calls against one base URL.
type Client struct {
	base      *url.URL
	hc        *http.Client
	maxUpload int64
}

// Option configures a Client.
type Option func(*Client)

// WithJar sets the cookie jar carrying the session cookie.
func WithJar(jar http.CookieJar) Option {
	return func(c *Client) { c.hc.Jar = jar }
}

// WithTimeout bounds each call.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.hc.Timeout = d }
}

// WithTransport replaces the underlying RoundTripper.
func WithTransport(rt http.RoundTripper) Option {
	return func(c *Client) { c.hc.Transport = rt }
}

// WithMaxUploadBytes sets the local image size ceiling.
func WithMaxUploadBytes(n int64) Option {
	return func(c *Client) { c.maxUpload = n }
}

// New builds a Client for baseURL (e.g. http://localhost:4000/api). Without
// WithJar the client gets a fresh in-memory jar, so login cookies are still
// replayed on later calls.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("base url %q: scheme and host required", baseURL)
	}
	c := &Client{
		base:      u,
		hc:        &http.Client{Timeout: 10 * time.Second, CheckRedirect: sameHost(u)},
		maxUpload: config.DefaultMaxUploadBytes,
	}
	for _, o := range opts {
		o(c)
	}
	if c.hc.Jar == nil {
		jar, _ := cookiejar.New(nil)
		c.hc.Jar = jar
	}
	return c, nil
}

// errForeignRedirect stops a redirect before the jar is asked for cookies.
var errForeignRedirect = errors.New("redirect leaves the api host")

// sameHost refuses redirects away from base, so session cookies are only
// ever sent to the API itself.
func sameHost(base *url.URL) func(*http.Request, []*http.Request) error {
	return func(req *http.Request, via []*http.Request) error {
		if req.URL.Scheme != base.Scheme || !strings.EqualFold(req.URL.Host, base.Host) {
			return fmt.Errorf("%w: %s", errForeignRedirect, req.URL.Host)
		}
		if len(via) >= 10 {
			return errors.New("stopped after 10 redirects")
		}
		return nil
	}
}

// WithCookieJar returns a copy of c that carries credentials from jar. The
// copy shares the transport, so it is cheap to make one per incoming request.
func (c *Client) WithCookieJar(jar http.CookieJar) *Client {
	hc := *c.hc
	hc.Jar = jar
	cp := *c
	cp.hc = &hc
	return &cp
}

// BaseURL is the URL the jar must scope the session cookie to.
func (c *Client) BaseURL() *url.URL {
	u := *c.base
	return &u
}

// MaxUploadBytes is the configured image ceiling.
func (c *Client) MaxUploadBytes() int64 { return c.maxUpload }

// ------------------------------ transport ----------------------------------

// request describes one call.
type request struct {
	op          string
	method      string
	path        string
	query       url.Values
	body        io.Reader
	contentType string
}

// do performs the call and returns the raw 2xx body. Non-2xx statuses and
// transport failures come back as *Error.
func (c *Client) do(ctx context.Context, r request) ([]byte, *http.Response, error) {
	u := *c.base
	u.Path = u.Path + r.path
	if r.query != nil {
		u.RawQuery = r.query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, r.method, u.String(), r.body)
	if err != nil {
		return nil, nil, &Error{Op: r.op, Message: "build request", Kind: ErrServer, Cause: err}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-Id", uuid.NewString())
	if r.contentType != "" {
		req.Header.Set("Content-Type", r.contentType)
	}

	start := time.Now()
	res, err := c.hc.Do(req)
	if err != nil {
		log.Debug().Err(err).Str("op", r.op).Str("method", r.method).Str("path", r.path).Msg("api call failed")
		return nil, nil, &Error{Op: r.op, Message: "request failed", Kind: ErrServer, Cause: err}
	}
	defer res.Body.Close()

	body, err := io.ReadAll(io.LimitReader(res.Body, maxResponseBytes))
	log.Debug().
		Str("op", r.op).
		Str("method", r.method).
		Str("path", r.path).
		Int("status", res.StatusCode).
		Dur("took", time.Since(start)).
		Msg("api call")
	if err != nil {
		return nil, res, &Error{Op: r.op, Status: res.StatusCode, Message: "read response", Kind: ErrServer, Cause: err}
	}

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return nil, res, &Error{
			Op:      r.op,
			Status:  res.StatusCode,
			Message: serverMessage(body, res.Status),
			Kind:    kindForStatus(res.StatusCode),
		}
	}
	return body, res, nil
}

// doJSON sends in as a JSON body.
func (c *Client) doJSON(ctx context.Context, op, method, path string, in any) ([]byte, *http.Response, error) {
	r := request{op: op, method: method, path: path}
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return nil, nil, &Error{Op: op, Message: "encode body", Kind: ErrValidation, Cause: err}
		}
		r.body = bytes.NewReader(b)
		r.contentType = "application/json"
	}
	return c.do(ctx, r)
}

// serverMessage extracts {message} or {error} from an error body.
func serverMessage(body []byte, fallback string) string {
	var m struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if json.Unmarshal(body, &m) == nil {
		if m.Message != "" {
			return m.Message
		}
		if m.Error != "" {
			return m.Error
		}
	}
	if s := strings.TrimSpace(string(body)); s != "" && len(s) < 200 && !strings.HasPrefix(s, "<") {
		return s
	}
	return fallback
}

// ------------------------------ envelopes ----------------------------------

// envelope is the superset of wrapped response shapes.
type envelope struct {
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Meta    *struct {
		Page     float64 `json:"page"`
		LastPage float64 `json:"last_page"`
		Total    float64 `json:"total"`
	} `json:"meta"`
	URL  string       `json:"url"`
	User *wireAccount `json:"user"`
}

// unwrap splits a body into its payload and the wrapping envelope (zero
// when the body is bare). A {data: null} body yields a nil payload.
func unwrap(op string, body []byte) (json.RawMessage, envelope, error) {
	var env envelope
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, env, nil
	}
	switch trimmed[0] {
	case '[':
		return trimmed, env, nil
	case '{':
		if err := json.Unmarshal(trimmed, &env); err != nil {
			return nil, env, unparseable(op, err)
		}
		if len(env.Data) > 0 {
			if bytes.Equal(bytes.TrimSpace(env.Data), []byte("null")) {
				return nil, env, nil
			}
			return env.Data, env, nil
		}
		return trimmed, env, nil
	default:
		return nil, env, unparseable(op, fmt.Errorf("unexpected body %.32q", trimmed))
	}
}

func unparseable(op string, err error) *Error {
	return &Error{Op: op, Message: "unparseable response", Kind: ErrServer, Cause: err}
}
