// internal/httpserver/routes_posts.go
//
// Post pages:
//   - GET  /                    → paginated list of all posts (?page=N)
//   - GET  /my/posts            → the session user's posts
//   - GET  /posts/{id}          → detail, with owner-only edit/delete
//   - GET  /create, POST /create
//   - GET  /posts/update/{id}, POST /posts/update/{id}
//   - POST /posts/delete/{id}
//
// A 401 on a list page schedules one delayed redirect to /login; elsewhere
// it redirects at once. A 403 sends the user to the post's detail page.

package httpserver

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/goblog/internal/api"
	"github.com/robalobadob/goblog/internal/session"
	"github.com/robalobadob/goblog/internal/view"
)

// formData backs form.html for both create and edit.
type formData struct {
	Heading     string
	Action      string
	Submit      string
	Title       string
	Description string
	ImageURL    string
	MaxUpload   string
	Error       string
}

func (s *Server) mountPostRoutes() {
	s.r.Get(view.PathHome, s.handleHome)
	s.r.Get(view.PathMyPosts, s.handleMyPosts)
	s.r.Get("/posts/{id}", s.handleDetail)
	s.r.Get(view.PathCreate, s.handleCreateForm)
	s.r.Post(view.PathCreate, s.handleCreate)
	s.r.Get("/posts/update/{id}", s.handleEditForm)
	s.r.Post("/posts/update/{id}", s.handleEdit)
	s.r.Post("/posts/delete/{id}", s.handleDelete)
}

// listFailed schedules the delayed login redirect for a 401 on a list page.
func (s *Server) listFailed(sc *scope, err error) {
	if to, ok := view.Route(err, ""); ok && errors.Is(err, api.ErrAuth) {
		sc.nav.Schedule(to, s.opts.RedirectDelay)
	}
}

// GET /?page=N
func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	sc := s.scopeFor(w, r)
	n := 1
	if v := r.URL.Query().Get("page"); v != "" {
		if p, err := strconv.Atoi(v); err == nil && p > 0 {
			n = p
		}
	}
	res, err := sc.gw.ListPosts(r.Context(), n)
	st := view.Resolve(res, err)
	status := http.StatusOK
	if st.IsError() {
		s.listFailed(sc, st.Err)
		status = statusFor(st.Err)
	}
	s.finish(w, r, sc, status, "home", sc.page("Latest posts", st))
}

// GET /my/posts
func (s *Server) handleMyPosts(w http.ResponseWriter, r *http.Request) {
	sc := s.scopeFor(w, r)
	items, err := sc.gw.ListOwnPosts(r.Context())
	st := view.Resolve(items, err)
	status := http.StatusOK
	if st.IsError() {
		s.listFailed(sc, st.Err)
		status = statusFor(st.Err)
	}
	s.finish(w, r, sc, status, "my_posts", sc.page("My posts", st))
}

// GET /posts/{id}
func (s *Server) handleDetail(w http.ResponseWriter, r *http.Request) {
	sc := s.scopeFor(w, r)
	id := chi.URLParam(r, "id")
	p, err := sc.gw.GetPost(r.Context(), id)
	st := view.Resolve(p, err)
	status := http.StatusOK
	title := "Post"
	if st.IsError() {
		if errors.Is(st.Err, api.ErrAuth) {
			sc.nav.Schedule(view.PathLogin, 0)
		}
		status = statusFor(st.Err)
	} else {
		title = st.Data.Title
	}
	s.finish(w, r, sc, status, "detail", sc.page(title, st))
}

// GET /create
func (s *Server) handleCreateForm(w http.ResponseWriter, r *http.Request) {
	sc := s.scopeFor(w, r)
	if !sc.resolver.IsAuthenticated() {
		sc.nav.Schedule(view.PathLogin, 0)
	}
	s.finish(w, r, sc, http.StatusOK, "form", sc.page("New post", s.createForm()))
}

func (s *Server) createForm() formData {
	return formData{
		Heading:   "New post",
		Action:    view.PathCreate,
		Submit:    "Publish",
		MaxUpload: api.HumanSize(s.gw.MaxUploadBytes()),
	}
}

// POST /create
func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	sc := s.scopeFor(w, r)
	in, img, err := s.readPostForm(w, r)
	fd := s.createForm()
	fd.Title, fd.Description = in.Title, in.Description
	if err != nil {
		fd.Error = api.Message(err)
		s.finish(w, r, sc, http.StatusBadRequest, "form", sc.page("New post", fd))
		return
	}

	p, err := sc.gw.CreatePostWithImage(r.Context(), in, img)
	if err != nil {
		if to, ok := view.Route(err, ""); ok && errors.Is(err, api.ErrAuth) {
			sc.nav.Schedule(to, 0)
		}
		fd.Error = api.Message(err)
		s.finish(w, r, sc, statusFor(err), "form", sc.page("New post", fd))
		return
	}
	log.Info().Str("post", p.ID).Msg("post created")
	if p.ID != "" {
		sc.nav.Schedule(view.PathPost(p.ID), 0)
	} else {
		sc.nav.Schedule(view.PathMyPosts, 0)
	}
	s.finish(w, r, sc, http.StatusOK, "form", sc.page("New post", fd))
}

// GET /posts/update/{id}
func (s *Server) handleEditForm(w http.ResponseWriter, r *http.Request) {
	sc := s.scopeFor(w, r)
	id := chi.URLParam(r, "id")
	p, err := sc.gw.GetPost(r.Context(), id)
	if err != nil {
		if to, ok := view.Route(err, id); ok {
			sc.nav.Schedule(to, 0)
			s.finish(w, r, sc, http.StatusOK, "error", sc.page("Edit post", ""))
			return
		}
		s.render(w, statusFor(err), "error", sc.page("Edit post", api.Message(err)))
		return
	}

	// Owner-only: anyone else is sent back to the detail page.
	if !session.IsOwner(p, sc.userID()) {
		sc.nav.Schedule(view.PathPost(id), 0)
	}
	fd := s.editForm(id)
	fd.Title, fd.Description, fd.ImageURL = p.Title, p.Description, p.ImageURL
	s.finish(w, r, sc, http.StatusOK, "form", sc.page("Edit post", fd))
}

func (s *Server) editForm(id string) formData {
	return formData{
		Heading:   "Edit post",
		Action:    view.PathEdit(id),
		Submit:    "Save changes",
		MaxUpload: api.HumanSize(s.gw.MaxUploadBytes()),
	}
}

// POST /posts/update/{id}
func (s *Server) handleEdit(w http.ResponseWriter, r *http.Request) {
	sc := s.scopeFor(w, r)
	id := chi.URLParam(r, "id")
	in, img, err := s.readPostForm(w, r)
	fd := s.editForm(id)
	fd.Title, fd.Description, fd.ImageURL = in.Title, in.Description, in.ImageURL
	if err != nil {
		fd.Error = api.Message(err)
		s.finish(w, r, sc, http.StatusBadRequest, "form", sc.page("Edit post", fd))
		return
	}

	if _, err := sc.gw.UpdatePostWithImage(r.Context(), id, in, img); err != nil {
		if to, ok := view.Route(err, id); ok {
			sc.nav.Schedule(to, 0)
		}
		fd.Error = api.Message(err)
		s.finish(w, r, sc, statusFor(err), "form", sc.page("Edit post", fd))
		return
	}
	sc.nav.Schedule(view.PathPost(id), 0)
	s.finish(w, r, sc, http.StatusOK, "form", sc.page("Edit post", fd))
}

// POST /posts/delete/{id}
func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	sc := s.scopeFor(w, r)
	id := chi.URLParam(r, "id")
	if err := sc.gw.DeletePost(r.Context(), id); err != nil {
		if to, ok := view.Route(err, id); ok {
			sc.nav.Schedule(to, 0)
			s.finish(w, r, sc, http.StatusOK, "error", sc.page("Delete post", ""))
			return
		}
		s.render(w, statusFor(err), "error", sc.page("Delete post", api.Message(err)))
		return
	}
	sc.nav.Schedule(view.PathMyPosts, 0)
	s.finish(w, r, sc, http.StatusOK, "error", sc.page("Delete post", ""))
}

// ------------------------------- form input --------------------------------

// readPostForm reads title, desc and an optional image file. Size and type
// are left to the gateway's checks.
func (s *Server) readPostForm(w http.ResponseWriter, r *http.Request) (api.PostInput, *api.Image, error) {
	limit := s.gw.MaxUploadBytes()
	// Oversize files are still read (up to limit+1) so the gateway rejects
	// them with its own message; anything far larger is refused here.
	r.Body = http.MaxBytesReader(w, r.Body, 4*limit)
	if err := r.ParseMultipartForm(limit); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			return api.PostInput{}, nil, &api.Error{Op: "read form", Message: "File size exceeds the " + api.HumanSize(limit) + " limit.", Kind: api.ErrValidation}
		}
		return api.PostInput{}, nil, &api.Error{Op: "read form", Message: "Invalid form submission", Kind: api.ErrValidation, Cause: err}
	}
	in := api.PostInput{
		Title:       strings.TrimSpace(r.FormValue("title")),
		Description: strings.TrimSpace(r.FormValue("desc")),
	}
	if in.Title == "" || in.Description == "" {
		return in, nil, &api.Error{Op: "read form", Message: "Title and description are required", Kind: api.ErrValidation}
	}

	f, hdr, err := r.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return in, nil, nil
	}
	if err != nil {
		return in, nil, &api.Error{Op: "read form", Message: "Invalid image upload", Kind: api.ErrValidation, Cause: err}
	}
	defer f.Close()
	if hdr.Size == 0 && hdr.Filename == "" {
		return in, nil, nil
	}
	data, err := io.ReadAll(io.LimitReader(f, limit+1))
	if err != nil {
		return in, nil, &api.Error{Op: "read form", Message: "Invalid image upload", Kind: api.ErrValidation, Cause: err}
	}
	return in, &api.Image{Name: hdr.Filename, ContentType: hdr.Header.Get("Content-Type"), Data: data}, nil
}
