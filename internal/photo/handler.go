// Package photo stores uploaded photos on disk and serves them back. The
// returned URI is what the photo picker hands to the editor for a frame.
package photo

import (
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/anthonynsimon/bild/transform"
	"github.com/gabriel-vasile/mimetype"
	"github.com/gorilla/mux"

	"github.com/inamate/collage/internal/auth"
	"github.com/inamate/collage/internal/typeid"
)

const (
	maxUploadSize = 15 << 20 // 15MB

	// MaxEdge is the longest side a stored photo keeps. Larger uploads are
	// scaled down proportionally.
	MaxEdge = 4096

	// Uploads are rejected before decoding when their header declares more
	// than this, since decoding allocates the full bitmap.
	maxDecodeEdge   = 16384
	maxDecodePixels = 64 << 20

	ownerExt = ".owner"
)

var (
	ErrNotFound  = errors.New("photo not found")
	ErrForbidden = errors.New("photo belongs to another user")
)

// UploadResponse is returned from the upload endpoint.
type UploadResponse struct {
	ID     string `json:"id"`
	URI    string `json:"uri"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Type   string `json:"type"`
	Name   string `json:"name"`
}

// Handler serves photo upload and retrieval endpoints.
type Handler struct {
	dir string
}

// NewHandler creates a photo handler that stores files in dir.
func NewHandler(dir string) *Handler {
	if err := os.MkdirAll(dir, 0755); err != nil {
		slog.Error("create photo dir", "error", err, "dir", dir)
	}
	return &Handler{dir: dir}
}

// Upload handles POST /photos/upload (multipart form with a "file" field).
// The type is sniffed from the content, not the declared header. JPEG photos
// are kept as JPEG, PNG as PNG.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())
	if userID == "" {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)

	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		http.Error(w, "file too large (max 15MB)", http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "missing file field", http.StatusBadRequest)
		return
	}
	defer file.Close()

	mtype, err := mimetype.DetectReader(file)
	if err != nil {
		http.Error(w, "failed to read file", http.StatusBadRequest)
		return
	}
	if !mtype.Is("image/png") && !mtype.Is("image/jpeg") {
		http.Error(w, "only PNG and JPEG images are supported", http.StatusBadRequest)
		return
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		http.Error(w, "failed to read file", http.StatusInternalServerError)
		return
	}
	cfg, _, err := image.DecodeConfig(file)
	if err != nil {
		http.Error(w, "invalid image: "+err.Error(), http.StatusBadRequest)
		return
	}
	if cfg.Width > maxDecodeEdge || cfg.Height > maxDecodeEdge || cfg.Width*cfg.Height > maxDecodePixels {
		http.Error(w, fmt.Sprintf("image too large (%dx%d)", cfg.Width, cfg.Height), http.StatusBadRequest)
		return
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		http.Error(w, "failed to read file", http.StatusInternalServerError)
		return
	}

	img, format, err := image.Decode(file)
	if err != nil {
		http.Error(w, "invalid image: "+err.Error(), http.StatusBadRequest)
		return
	}
	img = Fit(img, MaxEdge)

	photoID := typeid.NewPhotoID()
	ext := ".png"
	if format == "jpeg" {
		ext = ".jpg"
	}
	filename := photoID + ext
	imgPath := filepath.Join(h.dir, filename)

	err = writeImage(imgPath, img, format)
	if err == nil {
		err = os.WriteFile(h.ownerPath(photoID), []byte(userID), 0644)
	}
	if err != nil {
		slog.Error("store photo", "error", err, "user", userID)
		os.Remove(imgPath)
		os.Remove(h.ownerPath(photoID))
		http.Error(w, "failed to save photo", http.StatusInternalServerError)
		return
	}

	bounds := img.Bounds()
	resp := UploadResponse{
		ID:     photoID,
		URI:    fmt.Sprintf("/photos/%s", filename),
		Width:  bounds.Dx(),
		Height: bounds.Dy(),
		Type:   strings.TrimPrefix(ext, "."),
		Name:   header.Filename,
	}

	slog.Info("photo uploaded", "photo", photoID, "user", userID)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(resp)
}

// Fit scales img down so neither side exceeds maxEdge, keeping the aspect
// ratio. Images already within bounds are returned unchanged.
func Fit(img image.Image, maxEdge int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= maxEdge && h <= maxEdge {
		return img
	}
	if w >= h {
		h = max(1, h*maxEdge/w)
		w = maxEdge
	} else {
		w = max(1, w*maxEdge/h)
		h = maxEdge
	}
	return transform.Resize(img, w, h, transform.Linear)
}

func writeImage(path string, img image.Image, format string) error {
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	defer out.Close()

	if format == "jpeg" {
		return jpeg.Encode(out, img, &jpeg.Options{Quality: 90})
	}
	return png.Encode(out, img)
}

// Serve returns an http.Handler that serves stored photos with caching
// headers. Photo ids are unique, so files never change. Only image files are
// exposed; owner records stay private.
func (h *Handler) Serve() http.Handler {
	files := http.FileServer(http.Dir(h.dir))
	return http.StripPrefix("/photos/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ext := path.Ext(r.URL.Path); ext != ".jpg" && ext != ".png" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
		files.ServeHTTP(w, r)
	}))
}

func (h *Handler) ownerPath(photoID string) string {
	return filepath.Join(h.dir, photoID+ownerExt)
}

// Owner returns the id of the user who uploaded photoID.
func (h *Handler) Owner(photoID string) (string, error) {
	if err := typeid.Validate(photoID, typeid.PrefixPhoto); err != nil {
		return "", ErrNotFound
	}
	data, err := os.ReadFile(h.ownerPath(photoID))
	if errors.Is(err, fs.ErrNotExist) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("read owner: %w", err)
	}
	return string(data), nil
}

// Delete removes a stored photo and its owner record without checking who
// asks.
func (h *Handler) Delete(photoID string) error {
	if err := typeid.Validate(photoID, typeid.PrefixPhoto); err != nil {
		return ErrNotFound
	}
	removed := false
	for _, ext := range []string{".jpg", ".png"} {
		if err := os.Remove(filepath.Join(h.dir, photoID+ext)); err == nil {
			removed = true
		}
	}
	os.Remove(h.ownerPath(photoID))
	if !removed {
		return ErrNotFound
	}
	return nil
}

// DeleteOwned removes photoID if userID uploaded it.
func (h *Handler) DeleteOwned(photoID, userID string) error {
	owner, err := h.Owner(photoID)
	if err != nil {
		return err
	}
	if owner != userID {
		return ErrForbidden
	}
	return h.Delete(photoID)
}

// Remove handles DELETE /photos/{photoId}. Only the uploader may delete.
func (h *Handler) Remove(w http.ResponseWriter, r *http.Request) {
	photoID := mux.Vars(r)["photoId"]
	err := h.DeleteOwned(photoID, auth.UserIDFromContext(r.Context()))
	switch {
	case err == nil:
		w.WriteHeader(http.StatusNoContent)
	case errors.Is(err, ErrNotFound):
		http.Error(w, "photo not found", http.StatusNotFound)
	case errors.Is(err, ErrForbidden):
		http.Error(w, "forbidden", http.StatusForbidden)
	default:
		slog.Error("delete photo", "error", err, "photo", photoID)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}
