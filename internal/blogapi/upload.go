// internal/blogapi/upload.go
//
// Image upload and retrieval. Uploads are stored under a random name and
// served back from /api/uploads/{name}.

package blogapi

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// imageExt maps accepted content types to stored file extensions.
var imageExt = map[string]string{
	"image/jpeg": ".jpg",
	"image/jpg":  ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
}

// POST /api/upload-image (multipart field "image")
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	limit := s.opts.MaxUploadBytes
	tooBig := fmt.Sprintf("File size exceeds the %dMB limit.", limit>>20)

	// Bodies up to the hard cap are read in full so the client always sees
	// the response; files past maxMemory spill to disk.
	r.Body = http.MaxBytesReader(w, r.Body, 4*limit)
	if err := r.ParseMultipartForm(limit); err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			writeMsg(w, http.StatusBadRequest, tooBig)
			return
		}
		writeMsg(w, http.StatusBadRequest, "Invalid upload")
		return
	}
	f, hdr, err := r.FormFile("image")
	if err != nil {
		writeMsg(w, http.StatusBadRequest, "No image file uploaded")
		return
	}
	defer f.Close()

	ct := strings.ToLower(hdr.Header.Get("Content-Type"))
	ext, ok := imageExt[ct]
	if !ok {
		writeMsg(w, http.StatusBadRequest, "Only JPG, JPEG, PNG, and GIF files are allowed.")
		return
	}
	if hdr.Size > limit {
		writeMsg(w, http.StatusBadRequest, tooBig)
		return
	}
	data, err := io.ReadAll(io.LimitReader(f, limit+1))
	if err != nil {
		s.internal(w, "read upload", err)
		return
	}
	if int64(len(data)) > limit {
		writeMsg(w, http.StatusBadRequest, tooBig)
		return
	}
	if ct == "image/jpg" {
		ct = "image/jpeg"
	}

	name := uuid.NewString() + ext
	if err := s.images.Save(r.Context(), name, Image{ContentType: ct, Data: data}); err != nil {
		s.internal(w, "save upload", err)
		return
	}
	url := strings.TrimRight(s.opts.PublicURL, "/") + "/uploads/" + name
	writeJSON(w, http.StatusOK, map[string]string{"message": "Image uploaded successfully", "url": url})
}

// GET /api/uploads/{name}
func (s *Server) handleGetUpload(w http.ResponseWriter, r *http.Request) {
	img, err := s.images.Get(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		writeMsg(w, http.StatusNotFound, "Image not found")
		return
	}
	w.Header().Set("Content-Type", img.ContentType)
	w.Header().Set("Cache-Control", "public, max-age=86400")
	w.Header().Set("Content-Length", strconv.Itoa(len(img.Data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(img.Data)
}
