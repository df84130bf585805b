// internal/api/types.go
//
// Domain types returned by the gateway and the wire shapes they are
// decoded from. Wire shapes stay private; adapters in posts.go/auth.go
// turn them into domain values.

package api

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// Account is a registered user as the API reports it.
type Account struct {
	ID        string `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
}

// DisplayName is "First Last", trimmed when either part is missing.
func (a *Account) DisplayName() string {
	if a == nil {
		return ""
	}
	switch {
	case a.FirstName == "":
		return a.LastName
	case a.LastName == "":
		return a.FirstName
	}
	return a.FirstName + " " + a.LastName
}

// Post is a blog post. OwnerID is compared as a string against the session
// user id to decide owner-only actions.
type Post struct {
	ID          string
	Title       string
	Description string
	ImageURL    string
	OwnerID     string
	Owner       *Account
}

// PostPage is one server-computed page of posts.
type PostPage struct {
	Items      []Post
	PageNumber int
	TotalPages int
}

// PostInput is the body of create and update calls.
type PostInput struct {
	Title       string
	Description string
	ImageURL    string
}

// Profile is the registration payload.
type Profile struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Password  string `json:"password"`
}

type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResult is informational; the session itself lives in the cookie jar.
type LoginResult struct {
	Message string
	Account *Account
	Token   string // jwt cookie value as set by the server, if visible
}

// Image is an upload payload.
type Image struct {
	Name        string
	ContentType string
	Data        []byte
}

type UploadResult struct {
	URL string
}

// ----------------------------- wire shapes ---------------------------------

// flexID accepts both JSON numbers and strings.
type flexID string

func (f *flexID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*f = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	if i, err := n.Int64(); err == nil {
		*f = flexID(strconv.FormatInt(i, 10))
		return nil
	}
	*f = flexID(n.String())
	return nil
}

type wireAccount struct {
	ID        flexID `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
}

func (w *wireAccount) toAccount() *Account {
	if w == nil {
		return nil
	}
	return &Account{
		ID:        string(w.ID),
		FirstName: w.FirstName,
		LastName:  w.LastName,
		Email:     w.Email,
		Phone:     w.Phone,
	}
}

type wirePost struct {
	ID          flexID       `json:"id"`
	UserID      flexID       `json:"user_id"`
	User        *wireAccount `json:"User"`
	Title       string       `json:"title"`
	Desc        string       `json:"desc"`
	Description string       `json:"description"`
	Image       string       `json:"image"`
}

func (w wirePost) toPost() Post {
	p := Post{
		ID:          string(w.ID),
		Title:       w.Title,
		Description: w.Desc,
		ImageURL:    w.Image,
		OwnerID:     string(w.UserID),
	}
	if p.Description == "" {
		p.Description = w.Description
	}
	if w.User != nil && (w.User.ID != "" || w.User.Email != "" || w.User.FirstName != "") {
		p.Owner = w.User.toAccount()
		if p.OwnerID == "" {
			p.OwnerID = p.Owner.ID
		}
	}
	return p
}

type wirePostInput struct {
	Title string `json:"title"`
	Desc  string `json:"desc"`
	Image string `json:"image"`
}

func (in PostInput) wire() wirePostInput {
	return wirePostInput{Title: in.Title, Desc: in.Description, Image: in.ImageURL}
}
