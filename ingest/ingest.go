// Package ingest turns a batch of dropped files into image items: MIME
// gate, blob upload, palette extraction and creation-time placement.
package ingest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"path"
	"strings"
	"time"

	"moodboard/core"
	"moodboard/palette"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// ErrNoImages rejects a batch that contains no image files at all. This
// is a batch-level validation error; a batch with at least one image
// proceeds and silently skips the rest.
var ErrNoImages = errors.New("no image files in batch")

type (
	// File is one dropped/selected file.
	File struct {
		Name        string
		ContentType string
		Data        io.Reader
	}

	// FileError records an isolated per-file failure; the remaining files
	// of the batch are unaffected.
	FileError struct {
		Name string
		Err  error
	}

	// Ingestor builds image items from uploads.
	Ingestor struct {
		blobs core.BlobStore
		rng   *rand.Rand
		log   *logrus.Entry
	}
)

func (e *FileError) Error() string {
	return fmt.Sprintf("ingest %s: %v", e.Name, e.Err)
}

func (e *FileError) Unwrap() error { return e.Err }

// New creates an ingestor over the given blob store.
func New(blobs core.BlobStore) *Ingestor {
	return &Ingestor{
		blobs: blobs,
		rng:   rand.New(rand.NewSource(time.Now().UnixNano())),
		log:   logrus.WithField("component", "ingest"),
	}
}

// NewWithRand pins the randomness source, for reproducible placement.
func NewWithRand(blobs core.BlobStore, rng *rand.Rand) *Ingestor {
	ing := New(blobs)
	ing.rng = rng
	return ing
}

// ProcessBatch uploads every image file in the batch and returns the
// resulting items plus per-file failures. A batch without a single image
// file fails as a whole with ErrNoImages. Decode failures degrade to the
// fallback palette; only upload failures drop a file.
func (ing *Ingestor) ProcessBatch(ctx context.Context, userID string, files []File) ([]core.ImageItem, []*FileError, error) {
	images := make([]File, 0, len(files))
	for _, f := range files {
		if strings.HasPrefix(f.ContentType, "image/") {
			images = append(images, f)
		}
	}
	if len(images) == 0 {
		return nil, nil, ErrNoImages
	}

	var (
		items    []core.ImageItem
		failures []*FileError
	)
	for _, f := range images {
		item, err := ing.processFile(ctx, userID, f)
		if err != nil {
			ing.log.WithError(err).WithField("file", f.Name).Warn("File skipped")
			failures = append(failures, &FileError{Name: f.Name, Err: err})
			continue
		}
		items = append(items, item)
	}
	return items, failures, nil
}

func (ing *Ingestor) processFile(ctx context.Context, userID string, f File) (core.ImageItem, error) {
	data, err := io.ReadAll(f.Data)
	if err != nil {
		return core.ImageItem{}, fmt.Errorf("read %s: %w", f.Name, err)
	}

	// The stored name is a fresh uuid; the original name only contributes
	// its extension.
	name := uuid.NewString()
	if ext := path.Ext(f.Name); ext != "" {
		name += ext
	}

	url, err := ing.blobs.Upload(ctx, userID, name, f.ContentType, bytes.NewReader(data))
	if err != nil {
		return core.ImageItem{}, fmt.Errorf("upload %s: %w", f.Name, err)
	}

	colors := palette.Fallback
	if img, err := palette.Decode(bytes.NewReader(data)); err == nil {
		colors = palette.Extract(img, palette.Size)
	} else {
		ing.log.WithField("file", f.Name).Debug("Decode failed, using fallback palette")
	}

	// Placement and tilt are rolled once here and stored on the item;
	// they are never recomputed on render.
	pos := core.Position{
		X: ing.rng.Float64()*200 + 50,
		Y: ing.rng.Float64()*200 + 50,
	}
	item := core.NewImageItem(url, pos, colors)
	item.Rotation = core.NormalizeRotation(ing.rng.Float64()*10 - 5)

	ing.log.WithFields(logrus.Fields{
		"user_id": userID,
		"url":     url,
	}).Info("Image ingested")
	return item, nil
}
