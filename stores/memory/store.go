package memory

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"moodboard/core"
	"moodboard/stores/notify"
	"sort"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/sirupsen/logrus"
)

// memStore keeps boards in a per-user map. It backs tests and local
// development; everything is lost on restart.
type memStore struct {
	mu sync.RWMutex
	// boards is keyed by userID, then board id.
	boards map[string]map[string]*core.Moodboard
	hub    notify.Hub
}

// NewStore creates a new in-memory moodboard store.
func NewStore() *memStore {
	return &memStore{boards: make(map[string]map[string]*core.Moodboard)}
}

func (s *memStore) ListByOwner(ctx context.Context, userID string) ([]*core.Moodboard, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	userBoards, ok := s.boards[userID]
	if !ok {
		return []*core.Moodboard{}, nil
	}

	boards := make([]*core.Moodboard, 0, len(userBoards))
	for _, b := range userBoards {
		copied := *b
		boards = append(boards, &copied)
	}
	sort.Slice(boards, func(i, j int) bool {
		return boards[i].UpdatedAt.After(boards[j].UpdatedAt)
	})

	logrus.WithField("user_id", userID).Debugf("Listed %d moodboards", len(boards))
	return boards, nil
}

func (s *memStore) Create(ctx context.Context, board *core.Moodboard) (*core.Moodboard, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if board.UserID == "" {
		return nil, fmt.Errorf("userID cannot be empty")
	}

	userBoards, ok := s.boards[board.UserID]
	if !ok {
		userBoards = make(map[string]*core.Moodboard)
		s.boards[board.UserID] = userBoards
	}

	now := time.Now()
	created := *board
	created.ID = ulid.Make().String()
	created.CreatedAt = now
	created.UpdatedAt = now
	userBoards[created.ID] = &created

	logrus.WithFields(logrus.Fields{
		"user_id":  created.UserID,
		"board_id": created.ID,
	}).Info("Moodboard created")

	result := created
	return &result, nil
}

func (s *memStore) Get(ctx context.Context, userID, id string) (*core.Moodboard, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	board, ok := s.boards[userID][id]
	if !ok {
		return nil, core.ErrNotFound
	}
	copied := *board
	return &copied, nil
}

func (s *memStore) FindID(ctx context.Context, id string) (*core.Moodboard, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, userBoards := range s.boards {
		if board, ok := userBoards[id]; ok {
			copied := *board
			return &copied, nil
		}
	}
	return nil, core.ErrNotFound
}

func (s *memStore) Update(ctx context.Context, userID, id string, patch core.MoodboardPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	board, ok := s.boards[userID][id]
	if !ok {
		return core.ErrNotFound
	}

	board.Title = patch.Title
	board.BackgroundColor = patch.BackgroundColor
	board.Items = patch.Items
	board.UpdatedAt = time.Now()

	logrus.WithFields(logrus.Fields{
		"user_id":  userID,
		"board_id": id,
		"items":    len(patch.Items),
	}).Debug("Moodboard updated")
	return nil
}

func (s *memStore) Delete(ctx context.Context, userID, id string) error {
	s.mu.Lock()
	userBoards, ok := s.boards[userID]
	if !ok {
		s.mu.Unlock()
		return core.ErrNotFound
	}
	if _, ok := userBoards[id]; !ok {
		s.mu.Unlock()
		return core.ErrNotFound
	}
	delete(userBoards, id)
	s.mu.Unlock()

	logrus.WithFields(logrus.Fields{
		"user_id":  userID,
		"board_id": id,
	}).Info("Moodboard deleted")
	s.hub.Publish(id)
	return nil
}

func (s *memStore) SubscribeDeletes(fn func(boardID string)) (func(), error) {
	return s.hub.Subscribe(fn), nil
}

type blob struct {
	contentType string
	data        []byte
}

// blobStore keeps uploaded files in memory and serves them back through
// the /files route.
type blobStore struct {
	mu    sync.RWMutex
	blobs map[string]map[string]blob
}

// NewBlobStore creates a new in-memory blob store.
func NewBlobStore() *blobStore {
	return &blobStore{blobs: make(map[string]map[string]blob)}
}

func (s *blobStore) Upload(ctx context.Context, userID, filename, contentType string, r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("read upload: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	userBlobs, ok := s.blobs[userID]
	if !ok {
		userBlobs = make(map[string]blob)
		s.blobs[userID] = userBlobs
	}
	userBlobs[filename] = blob{contentType: contentType, data: data}

	logrus.WithFields(logrus.Fields{
		"user_id": userID,
		"file":    filename,
		"size":    len(data),
	}).Info("Blob stored")
	return fmt.Sprintf("/files/%s/%s", userID, filename), nil
}

func (s *blobStore) Open(ctx context.Context, userID, filename string) (io.ReadCloser, string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.blobs[userID][filename]
	if !ok {
		return nil, "", core.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(b.data)), b.contentType, nil
}
