// internal/api/upload.go
//
// Image upload. Type and size are checked locally first; a rejected image
// never reaches the network.

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"path/filepath"
	"strings"
)

// uploadField is the multipart field the API reads the file from.
const uploadField = "image"

var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/jpg":  true,
	"image/png":  true,
	"image/gif":  true,
}

// AllowedImageType reports whether contentType may be uploaded.
func AllowedImageType(contentType string) bool {
	return allowedImageTypes[normalType(contentType)]
}

// wireType is the content type sent for an accepted image. The API only
// knows image/jpeg, so the image/jpg alias is rewritten.
func wireType(contentType string) string {
	ct := normalType(contentType)
	if ct == "image/jpg" {
		return "image/jpeg"
	}
	return ct
}

func normalType(contentType string) string {
	return strings.ToLower(strings.TrimSpace(contentType))
}

// CheckImage runs the local pre-flight checks UploadImage applies.
func (c *Client) CheckImage(img Image) error {
	const op = "upload image"
	if len(img.Data) == 0 {
		return validationError(op, "No image file selected, please choose an image.")
	}
	if !AllowedImageType(img.ContentType) {
		return validationError(op, "Only JPG, JPEG, PNG, and GIF files are allowed.")
	}
	if int64(len(img.Data)) > c.maxUpload {
		return validationError(op, fmt.Sprintf("File size exceeds the %s limit.", HumanSize(c.maxUpload)))
	}
	return nil
}

// UploadImage stores an image and returns its durable URL.
func (c *Client) UploadImage(ctx context.Context, img Image) (*UploadResult, error) {
	const op = "upload image"
	if err := c.CheckImage(img); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	name := filepath.Base(img.Name)
	if name == "." || name == "/" || name == "" {
		name = "upload"
	}
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, uploadField, name))
	h.Set("Content-Type", wireType(img.ContentType))
	part, err := mw.CreatePart(h)
	if err != nil {
		return nil, &Error{Op: op, Message: "build multipart body", Kind: ErrServer, Cause: err}
	}
	if _, err := part.Write(img.Data); err != nil {
		return nil, &Error{Op: op, Message: "build multipart body", Kind: ErrServer, Cause: err}
	}
	if err := mw.Close(); err != nil {
		return nil, &Error{Op: op, Message: "build multipart body", Kind: ErrServer, Cause: err}
	}

	body, _, err := c.do(ctx, request{
		op:          op,
		method:      http.MethodPost,
		path:        "/upload-image",
		body:        &buf,
		contentType: mw.FormDataContentType(),
	})
	if err != nil {
		return nil, err
	}
	return adaptUpload(op, body)
}

// CreatePostWithImage uploads img (when non-nil) and only then creates the
// post with the returned URL. A failed upload means no create call.
func (c *Client) CreatePostWithImage(ctx context.Context, in PostInput, img *Image) (*Post, error) {
	if img != nil {
		up, err := c.UploadImage(ctx, *img)
		if err != nil {
			return nil, err
		}
		in.ImageURL = up.URL
	}
	return c.CreatePost(ctx, in)
}

// UpdatePostWithImage is the update counterpart of CreatePostWithImage.
func (c *Client) UpdatePostWithImage(ctx context.Context, id string, in PostInput, img *Image) (*Post, error) {
	if img != nil {
		up, err := c.UploadImage(ctx, *img)
		if err != nil {
			return nil, err
		}
		in.ImageURL = up.URL
	}
	return c.UpdatePost(ctx, id, in)
}

// adaptUpload accepts {url}, {data: {url}} and {data: "url"}.
func adaptUpload(op string, body []byte) (*UploadResult, error) {
	payload, env, err := unwrap(op, body)
	if err != nil {
		return nil, err
	}
	u := env.URL
	if u == "" && payload != nil {
		var inner struct {
			URL string `json:"url"`
		}
		switch payload[0] {
		case '{':
			_ = json.Unmarshal(payload, &inner)
			u = inner.URL
		case '"':
			_ = json.Unmarshal(payload, &u)
		}
	}
	if u == "" {
		return nil, unparseable(op, fmt.Errorf("no url in upload response"))
	}
	return &UploadResult{URL: u}, nil
}

// HumanSize renders n as "2MB" style text for user-facing messages.
func HumanSize(n int64) string {
	switch {
	case n >= 1<<20 && n%(1<<20) == 0:
		return fmt.Sprintf("%dMB", n>>20)
	case n >= 1<<10 && n%(1<<10) == 0:
		return fmt.Sprintf("%dKB", n>>10)
	}
	return fmt.Sprintf("%d bytes", n)
}
