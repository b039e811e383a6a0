package photo

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"hash/crc32"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inamate/collage/internal/auth"
)

// asUser runs h with userID in the request context, as AuthMiddleware would.
func asUser(userID string, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h(w, r.WithContext(auth.WithUserID(r.Context(), userID)))
	}
}

func upload(t *testing.T, h *Handler, userID, contentType string, data []byte) *httptest.ResponseRecorder {
	t.Helper()
	body, ct := multipartBody(t, contentType, data)
	req := httptest.NewRequest(http.MethodPost, "/photos/upload", body)
	req.Header.Set("Content-Type", ct)
	rec := httptest.NewRecorder()
	asUser(userID, h.Upload)(rec, req)
	return rec
}

func multipartBody(t *testing.T, contentType string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	hdr := make(textproto.MIMEHeader)
	hdr.Set("Content-Disposition", `form-data; name="file"; filename="beach.jpg"`)
	hdr.Set("Content-Type", contentType)
	part, err := mw.CreatePart(hdr)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func jpegBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 8, 6))
	img.Set(1, 1, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, nil))
	return buf.Bytes()
}

func TestUploadServeDelete(t *testing.T) {
	dir := t.TempDir()
	h := NewHandler(dir)
	r := mux.NewRouter()
	r.HandleFunc("/photos/upload", asUser("user_alice", h.Upload)).Methods("POST")
	r.HandleFunc("/photos/{photoId}", asUser("user_alice", h.Remove)).Methods("DELETE")
	r.PathPrefix("/photos/").Handler(h.Serve()).Methods("GET")

	body, ct := multipartBody(t, "image/jpeg", jpegBytes(t))
	req := httptest.NewRequest(http.MethodPost, "/photos/upload", body)
	req.Header.Set("Content-Type", ct)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp UploadResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.True(t, strings.HasPrefix(resp.ID, "photo_"))
	assert.Equal(t, "/photos/"+resp.ID+".jpg", resp.URI)
	assert.Equal(t, 8, resp.Width)
	assert.Equal(t, 6, resp.Height)
	assert.Equal(t, "jpg", resp.Type)
	assert.Equal(t, "beach.jpg", resp.Name)

	_, err := os.Stat(filepath.Join(dir, resp.ID+".jpg"))
	require.NoError(t, err)
	owner, err := h.Owner(resp.ID)
	require.NoError(t, err)
	assert.Equal(t, "user_alice", owner)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, resp.URI, nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Cache-Control"), "immutable")

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/photos/"+resp.ID+".owner", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/photos/"+resp.ID, nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/photos/"+resp.ID, nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUploadRejects(t *testing.T) {
	h := NewHandler(t.TempDir())

	tests := []struct {
		name        string
		contentType string
		data        []byte
	}{
		{"wrong type", "image/gif", []byte("GIF89a")},
		{"not an image", "image/png", []byte("definitely not a png")},
		{"gif declared as jpeg", "image/jpeg", []byte("GIF89a\x01\x00\x01\x00")},
		{"truncated png", "image/png", []byte("\x89PNG\r\n\x1a\n")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := upload(t, h, "user_alice", tt.contentType, tt.data)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/photos/upload", strings.NewReader("x"))
	req.Header.Set("Content-Type", "text/plain")
	asUser("user_alice", h.Upload)(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = upload(t, h, "", "image/jpeg", jpegBytes(t))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

// hugePNG returns a valid PNG whose header declares width x height while the
// pixel data stays tiny.
func hugePNG(t *testing.T, width, height uint32) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewGray(image.Rect(0, 0, 1, 1))))
	data := buf.Bytes()
	// Signature (8) + length (4) + "IHDR" (4), then width and height.
	binary.BigEndian.PutUint32(data[16:20], width)
	binary.BigEndian.PutUint32(data[20:24], height)
	binary.BigEndian.PutUint32(data[29:33], crc32.ChecksumIEEE(data[12:29]))
	return data
}

func TestUploadRejectsOversizedDimensions(t *testing.T) {
	dir := t.TempDir()
	h := NewHandler(dir)

	for _, size := range [][2]uint32{{40000, 40000}, {maxDecodeEdge + 1, 1}, {9000, 9000}} {
		rec := upload(t, h, "user_alice", "image/png", hugePNG(t, size[0], size[1]))
		assert.Equal(t, http.StatusBadRequest, rec.Code, "%dx%d", size[0], size[1])
		assert.Contains(t, rec.Body.String(), "too large")
	}

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRemoveRequiresOwner(t *testing.T) {
	dir := t.TempDir()
	h := NewHandler(dir)

	rec := upload(t, h, "user_alice", "image/jpeg", jpegBytes(t))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var resp UploadResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))

	remove := func(userID, photoID string) int {
		r := mux.NewRouter()
		r.HandleFunc("/photos/{photoId}", asUser(userID, h.Remove)).Methods("DELETE")
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/photos/"+photoID, nil))
		return rec.Code
	}

	assert.Equal(t, http.StatusForbidden, remove("user_mallory", resp.ID))
	_, err := os.Stat(filepath.Join(dir, resp.ID+".jpg"))
	require.NoError(t, err, "photo must survive a delete by another user")

	assert.Equal(t, http.StatusNotFound, remove("user_mallory", "photo_nope"))
	assert.Equal(t, http.StatusNoContent, remove("user_alice", resp.ID))

	_, err = os.Stat(filepath.Join(dir, resp.ID+".jpg"))
	assert.True(t, os.IsNotExist(err))
	_, err = h.Owner(resp.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUploadSniffsContent(t *testing.T) {
	h := NewHandler(t.TempDir())

	// Declared as PNG but the bytes are JPEG: stored as JPEG.
	rec := upload(t, h, "user_alice", "image/png", jpegBytes(t))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp UploadResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "jpg", resp.Type)
}

func TestUploadDownscalesLargePhotos(t *testing.T) {
	h := NewHandler(t.TempDir())

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewGray(image.Rect(0, 0, MaxEdge*2, 10))))
	rec := upload(t, h, "user_alice", "image/png", buf.Bytes())
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp UploadResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, MaxEdge, resp.Width)
	assert.Equal(t, 5, resp.Height)
	assert.Equal(t, "png", resp.Type)
}

func TestFit(t *testing.T) {
	tests := []struct {
		name         string
		w, h         int
		wantW, wantH int
	}{
		{"within bounds", 100, 50, 100, 50},
		{"wide", 400, 100, 200, 50},
		{"tall", 100, 400, 50, 200},
		{"sliver", 1000, 1, 200, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img := Fit(image.NewRGBA(image.Rect(0, 0, tt.w, tt.h)), 200)
			assert.Equal(t, tt.wantW, img.Bounds().Dx())
			assert.Equal(t, tt.wantH, img.Bounds().Dy())
		})
	}
}
