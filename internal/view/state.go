// internal/view/state.go
//
// View state for pages. A page is rendered from exactly one State rather
// than a bag of loading/error booleans, plus at most one pending Redirect.
//
// Status transitions:
//   Idle → Loading → Loaded | Error
//
// Redirects are declarative: a page that must navigate after a delay
// carries the target and delay, and the renderer emits them (meta refresh).
// No timer lives past the request, so nothing can fire against a view that
// is already gone.

package view

import (
	"errors"
	"time"

	"github.com/robalobadob/goblog/internal/api"
)

// Status is the lifecycle position of a view.
type Status string

const (
	Idle    Status = "idle"
	Loading Status = "loading"
	Loaded  Status = "loaded"
	Error   Status = "error"
)

// State is a view's data or its failure.
type State[T any] struct {
	Status  Status
	Data    T
	Message string // user-facing error text when Status == Error
	Err     error
}

// Start moves an Idle state to Loading.
func Start[T any]() State[T] { return State[T]{Status: Loading} }

// Resolve settles a Loading state from a fetch result.
func Resolve[T any](data T, err error) State[T] {
	if err != nil {
		return Failed[T](err, api.Message(err))
	}
	return State[T]{Status: Loaded, Data: data}
}

// Failed builds an Error state with an explicit message.
func Failed[T any](err error, msg string) State[T] {
	return State[T]{Status: Error, Message: msg, Err: err}
}

func (s State[T]) IsLoaded() bool { return s.Status == Loaded }
func (s State[T]) IsError() bool  { return s.Status == Error }

// Redirect is a pending navigation.
type Redirect struct {
	To    string
	After time.Duration // 0 means immediately
}

// Immediate reports whether the redirect should be an HTTP redirect rather
// than a rendered page with a delayed refresh.
func (r *Redirect) Immediate() bool { return r != nil && r.After <= 0 }

// Seconds is the delay for a meta refresh.
func (r *Redirect) Seconds() float64 {
	if r == nil {
		return 0
	}
	return r.After.Seconds()
}

// Navigation holds at most one redirect; the first one scheduled wins.
type Navigation struct {
	pending *Redirect
}

// Schedule records a redirect unless one is already pending. It reports
// whether this call took effect.
func (n *Navigation) Schedule(to string, after time.Duration) bool {
	if n.pending != nil {
		return false
	}
	n.pending = &Redirect{To: to, After: after}
	return true
}

// Pending returns the scheduled redirect, or nil.
func (n *Navigation) Pending() *Redirect { return n.pending }

// Cancel drops a pending redirect.
func (n *Navigation) Cancel() { n.pending = nil }

// ------------------------------- routing -----------------------------------

// Canonical view paths.
const (
	PathHome    = "/"
	PathLogin   = "/login"
	PathMyPosts = "/my/posts"
	PathCreate  = "/create"
)

func PathPost(id string) string { return "/posts/" + id }
func PathEdit(id string) string { return "/posts/update/" + id }

// Route decides where a failed call sends the user: 401 to login, 403 on a
// post to that post's detail view (or the caller's list without one).
// ok is false when the error should be shown inline instead.
func Route(err error, postID string) (to string, ok bool) {
	switch {
	case errors.Is(err, api.ErrAuth):
		return PathLogin, true
	case errors.Is(err, api.ErrForbidden):
		if postID != "" {
			return PathPost(postID), true
		}
		return PathMyPosts, true
	}
	return "", false
}
