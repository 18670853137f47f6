package ingest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"math/rand"
	"strings"
	"testing"
)

// Mock blob store for testing.
type mockBlobStore struct {
	failOn  string
	uploads []string
}

func (m *mockBlobStore) Upload(ctx context.Context, userID, filename, contentType string, r io.Reader) (string, error) {
	if m.failOn != "" && strings.HasSuffix(filename, m.failOn) {
		return "", fmt.Errorf("upload refused")
	}
	if _, err := io.ReadAll(r); err != nil {
		return "", err
	}
	m.uploads = append(m.uploads, filename)
	return "https://blobs.example.com/" + userID + "/" + filename, nil
}

func redPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 10, 10))
	for y := 0; y < 10; y++ {
		for x := 0; x < 10; x++ {
			img.Set(x, y, color.RGBA{R: 255, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	return buf.Bytes()
}

func TestProcessBatch_Success(t *testing.T) {
	blobs := &mockBlobStore{}
	ing := NewWithRand(blobs, rand.New(rand.NewSource(1)))

	items, failures, err := ing.ProcessBatch(context.Background(), "user-1", []File{
		{Name: "sunset.png", ContentType: "image/png", Data: bytes.NewReader(redPNG(t))},
	})
	if err != nil {
		t.Fatalf("ProcessBatch() failed: %v", err)
	}
	if len(failures) != 0 {
		t.Fatalf("unexpected failures: %v", failures)
	}
	if len(items) != 1 {
		t.Fatalf("got %d items, want 1", len(items))
	}

	it := items[0]
	if !strings.HasPrefix(it.Src, "https://blobs.example.com/user-1/") {
		t.Errorf("src: got %q", it.Src)
	}
	if !strings.HasSuffix(it.Src, ".png") {
		t.Errorf("stored name lost its extension: %q", it.Src)
	}
	if len(it.Colors) != 5 || it.Colors[0] != "#ff0000" {
		t.Errorf("palette: got %v", it.Colors)
	}
	if it.Position.X < 50 || it.Position.X >= 250 || it.Position.Y < 50 || it.Position.Y >= 250 {
		t.Errorf("placement out of band: %+v", it.Position)
	}
	// Tilt is stored on the item, within ±5° of upright.
	if rot := it.Rotation; rot > 5 && rot < 355 {
		t.Errorf("rotation out of band: %v", rot)
	}
}

func TestProcessBatch_RejectsNonImageBatch(t *testing.T) {
	ing := New(&mockBlobStore{})

	_, _, err := ing.ProcessBatch(context.Background(), "user-1", []File{
		{Name: "notes.txt", ContentType: "text/plain", Data: strings.NewReader("hi")},
		{Name: "data.json", ContentType: "application/json", Data: strings.NewReader("{}")},
	})
	if !errors.Is(err, ErrNoImages) {
		t.Fatalf("non-image batch: got %v, want ErrNoImages", err)
	}
}

func TestProcessBatch_SkipsNonImagesInMixedBatch(t *testing.T) {
	blobs := &mockBlobStore{}
	ing := New(blobs)

	items, failures, err := ing.ProcessBatch(context.Background(), "user-1", []File{
		{Name: "notes.txt", ContentType: "text/plain", Data: strings.NewReader("hi")},
		{Name: "sunset.png", ContentType: "image/png", Data: bytes.NewReader(redPNG(t))},
	})
	if err != nil {
		t.Fatalf("ProcessBatch() failed: %v", err)
	}
	if len(items) != 1 || len(failures) != 0 {
		t.Fatalf("got %d items / %d failures, want 1 / 0", len(items), len(failures))
	}
}

func TestProcessBatch_IsolatesFailingFile(t *testing.T) {
	blobs := &mockBlobStore{failOn: ".gif"}
	ing := New(blobs)

	items, failures, err := ing.ProcessBatch(context.Background(), "user-1", []File{
		{Name: "broken.gif", ContentType: "image/gif", Data: bytes.NewReader(redPNG(t))},
		{Name: "fine.png", ContentType: "image/png", Data: bytes.NewReader(redPNG(t))},
	})
	if err != nil {
		t.Fatalf("ProcessBatch() failed: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("surviving items: got %d, want 1", len(items))
	}
	if len(failures) != 1 || failures[0].Name != "broken.gif" {
		t.Fatalf("failures: got %v", failures)
	}
}

func TestProcessBatch_UndecodableImageGetsFallbackPalette(t *testing.T) {
	blobs := &mockBlobStore{}
	ing := New(blobs)

	// Claims to be an image but cannot be decoded; uploads fine.
	items, failures, err := ing.ProcessBatch(context.Background(), "user-1", []File{
		{Name: "corrupt.png", ContentType: "image/png", Data: strings.NewReader("corrupt bytes")},
	})
	if err != nil || len(failures) != 0 {
		t.Fatalf("ProcessBatch(): err=%v failures=%v", err, failures)
	}
	if len(items) != 1 {
		t.Fatalf("got %d items, want 1", len(items))
	}
	if items[0].Colors[1] != "#ffffff" {
		t.Errorf("fallback palette not applied: %v", items[0].Colors)
	}
}
