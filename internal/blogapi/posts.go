// internal/blogapi/posts.go
//
// Post handlers. Reads require a session like writes do; update and delete
// are owner-only.

package blogapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

// postReq is the create/update body.
type postReq struct {
	Title string `json:"title"`
	Desc  string `json:"desc"`
	Image string `json:"image"`
}

func (p *postReq) validate() error {
	p.Title = strings.TrimSpace(p.Title)
	p.Desc = strings.TrimSpace(p.Desc)
	if p.Title == "" || p.Desc == "" {
		return errors.New("Title and description are required")
	}
	return nil
}

func decodePost(w http.ResponseWriter, r *http.Request) (*postReq, bool) {
	var req postReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMsg(w, http.StatusBadRequest, "Invalid payload")
		return nil, false
	}
	if err := req.validate(); err != nil {
		writeMsg(w, http.StatusBadRequest, err.Error())
		return nil, false
	}
	return &req, true
}

// postID parses the {id} URL param.
func postID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	return id, err == nil && id > 0
}

// loadOwned fetches {id} and checks the current user owns it. It writes
// the failure response itself.
func (s *Server) loadOwned(w http.ResponseWriter, r *http.Request) (*Post, bool) {
	id, ok := postID(r)
	if !ok {
		writeMsg(w, http.StatusNotFound, "Post not found")
		return nil, false
	}
	p, err := s.store.Post(r.Context(), id)
	if errors.Is(err, errNotFound) {
		writeMsg(w, http.StatusNotFound, "Post not found")
		return nil, false
	}
	if err != nil {
		s.internal(w, "load post", err)
		return nil, false
	}
	if p.UserID != currentUser(r).IDString() {
		writeMsg(w, http.StatusForbidden, "You can only modify your own posts")
		return nil, false
	}
	return p, true
}

func (s *Server) internal(w http.ResponseWriter, what string, err error) {
	log.Error().Err(err).Msg(what)
	writeMsg(w, http.StatusInternalServerError, "Internal server error")
}

// POST /api/post
func (s *Server) handleCreatePost(w http.ResponseWriter, r *http.Request) {
	req, ok := decodePost(w, r)
	if !ok {
		return
	}
	p := &Post{UserID: currentUser(r).IDString(), Title: req.Title, Desc: req.Desc, Image: req.Image}
	if err := s.store.CreatePost(r.Context(), p); err != nil {
		s.internal(w, "create post", err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"message": "Post created successfully", "data": p})
}

// GET /api/posts?page=N
func (s *Server) handleListPosts(w http.ResponseWriter, r *http.Request) {
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 1 {
		page = 1
	}
	items, total, err := s.store.ListPosts(r.Context(), page, s.opts.PageSize)
	if err != nil {
		s.internal(w, "list posts", err)
		return
	}
	last := (total + s.opts.PageSize - 1) / s.opts.PageSize
	if last < 1 {
		last = 1
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"data": items,
		"meta": map[string]int{"total": total, "page": page, "last_page": last},
	})
}

// GET /api/posts/unique
func (s *Server) handleOwnPosts(w http.ResponseWriter, r *http.Request) {
	items, err := s.store.PostsByUser(r.Context(), currentUser(r).IDString())
	if err != nil {
		s.internal(w, "own posts", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": items})
}

// GET /api/posts/{id}
func (s *Server) handleGetPost(w http.ResponseWriter, r *http.Request) {
	id, ok := postID(r)
	if !ok {
		writeMsg(w, http.StatusNotFound, "Post not found")
		return
	}
	p, err := s.store.Post(r.Context(), id)
	if errors.Is(err, errNotFound) {
		writeMsg(w, http.StatusNotFound, "Post not found")
		return
	}
	if err != nil {
		s.internal(w, "get post", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": p})
}

// PUT /api/posts/update/{id}
func (s *Server) handleUpdatePost(w http.ResponseWriter, r *http.Request) {
	p, ok := s.loadOwned(w, r)
	if !ok {
		return
	}
	req, ok := decodePost(w, r)
	if !ok {
		return
	}
	updated, err := s.store.UpdatePost(r.Context(), p.ID, req.Title, req.Desc, req.Image)
	if err != nil {
		s.internal(w, "update post", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "Post updated successfully", "data": updated})
}

// DELETE /api/posts/delete/{id}
func (s *Server) handleDeletePost(w http.ResponseWriter, r *http.Request) {
	p, ok := s.loadOwned(w, r)
	if !ok {
		return
	}
	if err := s.store.DeletePost(r.Context(), p.ID); err != nil {
		if errors.Is(err, errNotFound) {
			writeMsg(w, http.StatusNotFound, "Post not found")
			return
		}
		s.internal(w, "delete post", err)
		return
	}
	writeMsg(w, http.StatusOK, "Post deleted successfully")
}
