// internal/api/posts.go
//
// Post operations. Each endpoint has its own adapter from the response
// shape(s) the API may send to the domain type.

package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
)

// ListPosts fetches one page of all posts. Pages start at 1.
func (c *Client) ListPosts(ctx context.Context, page int) (*PostPage, error) {
	const op = "list posts"
	if page < 1 {
		return nil, validationError(op, "page must be a positive integer")
	}
	body, _, err := c.do(ctx, request{
		op:     op,
		method: http.MethodGet,
		path:   "/posts",
		query:  url.Values{"page": {strconv.Itoa(page)}},
	})
	if err != nil {
		return nil, err
	}
	return adaptPostPage(op, body, page)
}

// GetPost fetches one post.
func (c *Client) GetPost(ctx context.Context, id string) (*Post, error) {
	const op = "get post"
	if id == "" {
		return nil, validationError(op, "post id required")
	}
	body, _, err := c.do(ctx, request{op: op, method: http.MethodGet, path: "/posts/" + url.PathEscape(id)})
	if err != nil {
		return nil, err
	}
	p, err := adaptPost(op, body)
	if err != nil {
		return nil, err
	}
	if p == nil || p.ID == "" || p.ID == "0" {
		// Some API builds answer a missing id with an empty record.
		return nil, &Error{Op: op, Status: http.StatusNotFound, Message: "Post not found", Kind: ErrNotFound}
	}
	return p, nil
}

// CreatePost publishes a post owned by the session user.
func (c *Client) CreatePost(ctx context.Context, in PostInput) (*Post, error) {
	const op = "create post"
	body, _, err := c.doJSON(ctx, op, http.MethodPost, "/post", in.wire())
	if err != nil {
		return nil, err
	}
	p, err := adaptPost(op, body)
	if err != nil {
		return nil, err
	}
	if p == nil || p.ID == "" {
		// Servers that only acknowledge ({message}) get the input echoed back.
		return &Post{Title: in.Title, Description: in.Description, ImageURL: in.ImageURL}, nil
	}
	return p, nil
}

// UpdatePost replaces title and description; an empty ImageURL keeps the
// current image.
func (c *Client) UpdatePost(ctx context.Context, id string, in PostInput) (*Post, error) {
	const op = "update post"
	if id == "" {
		return nil, validationError(op, "post id required")
	}
	body, _, err := c.doJSON(ctx, op, http.MethodPut, "/posts/update/"+url.PathEscape(id), in.wire())
	if err != nil {
		return nil, err
	}
	p, err := adaptPost(op, body)
	if err != nil {
		return nil, err
	}
	if p == nil || p.ID == "" {
		return &Post{ID: id, Title: in.Title, Description: in.Description, ImageURL: in.ImageURL}, nil
	}
	return p, nil
}

// DeletePost removes a post owned by the session user.
func (c *Client) DeletePost(ctx context.Context, id string) error {
	const op = "delete post"
	if id == "" {
		return validationError(op, "post id required")
	}
	_, _, err := c.do(ctx, request{op: op, method: http.MethodDelete, path: "/posts/delete/" + url.PathEscape(id)})
	return err
}

// ListOwnPosts fetches every post owned by the session user.
func (c *Client) ListOwnPosts(ctx context.Context) ([]Post, error) {
	const op = "list own posts"
	body, _, err := c.do(ctx, request{op: op, method: http.MethodGet, path: "/posts/unique"})
	if err != nil {
		return nil, err
	}
	return adaptPosts(op, body)
}

// ------------------------------- adapters ----------------------------------

// adaptPost accepts {data: post}, {message, data: post} and a bare post.
// A body without any post yields (nil, nil).
func adaptPost(op string, body []byte) (*Post, error) {
	payload, _, err := unwrap(op, body)
	if err != nil || payload == nil {
		return nil, err
	}
	if payload[0] != '{' {
		return nil, unparseable(op, errNotObject)
	}
	var w wirePost
	if err := json.Unmarshal(payload, &w); err != nil {
		return nil, unparseable(op, err)
	}
	p := w.toPost()
	return &p, nil
}

// adaptPosts accepts {data: [...]} and a bare array.
func adaptPosts(op string, body []byte) ([]Post, error) {
	payload, _, err := unwrap(op, body)
	if err != nil {
		return nil, err
	}
	out := []Post{}
	if payload == nil {
		return out, nil
	}
	if payload[0] != '[' {
		return nil, unparseable(op, errNotArray)
	}
	var ws []wirePost
	if err := json.Unmarshal(payload, &ws); err != nil {
		return nil, unparseable(op, err)
	}
	for _, w := range ws {
		out = append(out, w.toPost())
	}
	return out, nil
}

// adaptPostPage accepts {data: [...], meta: {page, last_page}} and a bare
// array (a single page).
func adaptPostPage(op string, body []byte, requested int) (*PostPage, error) {
	items, err := adaptPosts(op, body)
	if err != nil {
		return nil, err
	}
	_, env, _ := unwrap(op, body)
	page := &PostPage{Items: items, PageNumber: requested, TotalPages: 1}
	if env.Meta != nil {
		if env.Meta.Page >= 1 {
			page.PageNumber = int(env.Meta.Page)
		}
		if env.Meta.LastPage >= 1 {
			page.TotalPages = int(env.Meta.LastPage)
		}
	}
	return page, nil
}
