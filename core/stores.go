package core

import (
	"context"
	"io"
)

type (
	// MoodboardPatch is the save payload: exactly the mutable board
	// fields. Ids, ownership and created_at never change after create;
	// updated_at is set by the store.
	MoodboardPatch struct {
		Title           string   `json:"title"`
		BackgroundColor string   `json:"background_color"`
		Items           ItemList `json:"items"`
	}

	// MoodboardStore defines the persistence layer for user-owned boards.
	// Mutating operations are scoped to an owner; FindID serves the
	// public share surface.
	MoodboardStore interface {
		// ListByOwner returns all boards owned by a user, most recently
		// updated first.
		ListByOwner(ctx context.Context, userID string) ([]*Moodboard, error)

		// Create persists a new board, assigning its id and timestamps.
		Create(ctx context.Context, board *Moodboard) (*Moodboard, error)

		// Get returns a single board, ensuring it belongs to the user.
		Get(ctx context.Context, userID, id string) (*Moodboard, error)

		// FindID returns a board by id alone, for read-only sharing.
		FindID(ctx context.Context, id string) (*Moodboard, error)

		// Update applies a patch to an existing board. Returns
		// ErrNotFound when the board no longer exists for that owner.
		Update(ctx context.Context, userID, id string, patch MoodboardPatch) error

		// Delete removes a board and notifies delete subscribers.
		Delete(ctx context.Context, userID, id string) error

		// SubscribeDeletes registers a callback invoked with the board id
		// whenever a board is deleted, regardless of which session
		// triggered it. The returned function unsubscribes.
		SubscribeDeletes(fn func(boardID string)) (func(), error)
	}

	// BlobStore holds uploaded image bytes and serves them back by a
	// stable public URL.
	BlobStore interface {
		Upload(ctx context.Context, userID, filename, contentType string, r io.Reader) (string, error)
	}

	// BlobReader is implemented by blob stores whose URLs are served by
	// this process rather than an external host. The HTTP layer mounts a
	// file route only when the configured store supports it.
	BlobReader interface {
		Open(ctx context.Context, userID, filename string) (io.ReadCloser, string, error)
	}
)
