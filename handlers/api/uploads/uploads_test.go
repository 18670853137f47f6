package uploads

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"math/rand"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"moodboard/core"
	"moodboard/handlers/auth"
	"moodboard/ingest"
	"moodboard/middleware"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
)

type mockBlobStore struct {
	uploads int
}

func (m *mockBlobStore) Upload(ctx context.Context, userID, filename, contentType string, r io.Reader) (string, error) {
	if _, err := io.Copy(io.Discard, r); err != nil {
		return "", err
	}
	m.uploads++
	return fmt.Sprintf("/files/%s/%s", userID, filename), nil
}

func pngBytes(t *testing.T, c color.Color) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func multipartBody(t *testing.T, parts map[string][]byte) (io.Reader, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for name, data := range parts {
		contentType := "image/png"
		if strings.HasSuffix(name, ".txt") {
			contentType = "text/plain"
		}
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="files"; filename=%q`, name))
		h.Set("Content-Type", contentType)
		part, err := mw.CreatePart(h)
		if err != nil {
			t.Fatalf("create part: %v", err)
		}
		part.Write(data)
	}
	mw.Close()
	return &buf, mw.FormDataContentType()
}

func authedUpload(t *testing.T, body io.Reader, contentType string) *http.Request {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/uploads", body)
	req.Header.Set("Content-Type", contentType)
	claims := &auth.AppClaims{RegisteredClaims: jwt.RegisteredClaims{Subject: "user-1"}}
	return req.WithContext(context.WithValue(req.Context(), middleware.ClaimsContextKey, claims))
}

func TestUploadReturnsImageItems(t *testing.T) {
	blobs := &mockBlobStore{}
	ing := ingest.NewWithRand(blobs, rand.New(rand.NewSource(1)))

	router := chi.NewRouter()
	router.Post("/api/uploads", HandleUpload(ing))

	body, contentType := multipartBody(t, map[string][]byte{
		"red.png": pngBytes(t, color.RGBA{R: 255, A: 255}),
	})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, authedUpload(t, body, contentType))

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Items []json.RawMessage `json:"items"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Items) != 1 {
		t.Fatalf("items = %d, want 1", len(resp.Items))
	}
	if blobs.uploads != 1 {
		t.Errorf("uploads = %d, want 1", blobs.uploads)
	}
}

func TestUploadRejectsNonImageBatch(t *testing.T) {
	ing := ingest.New(&mockBlobStore{})
	router := chi.NewRouter()
	router.Post("/api/uploads", HandleUpload(ing))

	body, contentType := multipartBody(t, map[string][]byte{
		"notes.txt": []byte("not an image"),
	})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, authedUpload(t, body, contentType))

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestServeBlob(t *testing.T) {
	blobs := &serveStore{data: "png-bytes"}
	router := chi.NewRouter()
	router.Get("/files/{userID}/{filename}", HandleServe(blobs))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/files/user-1/a.png", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if rec.Body.String() != "png-bytes" {
		t.Errorf("body = %q", rec.Body.String())
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/files/user-1/missing.png", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

type serveStore struct {
	data string
}

func (s *serveStore) Open(ctx context.Context, userID, filename string) (io.ReadCloser, string, error) {
	if filename != "a.png" {
		return nil, "", core.ErrNotFound
	}
	return io.NopCloser(strings.NewReader(s.data)), "image/png", nil
}
