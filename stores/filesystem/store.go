package filesystem

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"moodboard/core"
	"moodboard/stores/notify"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/sirupsen/logrus"
)

// fsStore persists each board as a JSON file under
// <base>/boards/<userID>/<boardID>.json. The owner is encoded in the
// path, never in the file.
type fsStore struct {
	basePath string
	hub      notify.Hub
}

// NewStore creates a filesystem-backed moodboard store rooted at basePath.
func NewStore(basePath string) (*fsStore, error) {
	if err := os.MkdirAll(filepath.Join(basePath, "boards"), 0755); err != nil {
		return nil, fmt.Errorf("create base directory: %w", err)
	}
	return &fsStore{basePath: basePath}, nil
}

func (s *fsStore) userDir(userID string) string {
	return filepath.Join(s.basePath, "boards", userID)
}

// boardPath validates that the resolved path stays inside the user's
// directory, so ids containing separators cannot escape it.
func (s *fsStore) boardPath(userID, id string) (string, error) {
	userDir, err := filepath.Abs(s.userDir(userID))
	if err != nil {
		return "", err
	}
	path, err := filepath.Abs(filepath.Join(userDir, id+".json"))
	if err != nil {
		return "", err
	}
	if !strings.HasPrefix(path, userDir+string(filepath.Separator)) {
		return "", fmt.Errorf("invalid board id %q", id)
	}
	return path, nil
}

func (s *fsStore) readBoard(path, userID string) (*core.Moodboard, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, core.ErrNotFound
		}
		return nil, err
	}
	var board core.Moodboard
	if err := json.Unmarshal(data, &board); err != nil {
		return nil, fmt.Errorf("decode board file %s: %w", path, err)
	}
	board.UserID = userID
	return &board, nil
}

func (s *fsStore) writeBoard(board *core.Moodboard) error {
	path, err := s.boardPath(board.UserID, board.ID)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := json.Marshal(board)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (s *fsStore) ListByOwner(ctx context.Context, userID string) ([]*core.Moodboard, error) {
	log := logrus.WithField("user_id", userID)

	files, err := os.ReadDir(s.userDir(userID))
	if err != nil {
		if os.IsNotExist(err) {
			return []*core.Moodboard{}, nil
		}
		log.WithError(err).Error("Failed to read user directory")
		return nil, err
	}

	boards := make([]*core.Moodboard, 0, len(files))
	for _, file := range files {
		if file.IsDir() || !strings.HasSuffix(file.Name(), ".json") {
			continue
		}
		board, err := s.readBoard(filepath.Join(s.userDir(userID), file.Name()), userID)
		if err != nil {
			log.WithError(err).Warnf("Skipping unreadable board file %s", file.Name())
			continue
		}
		boards = append(boards, board)
	}
	sort.Slice(boards, func(i, j int) bool {
		return boards[i].UpdatedAt.After(boards[j].UpdatedAt)
	})

	log.Debugf("Listed %d moodboards", len(boards))
	return boards, nil
}

func (s *fsStore) Create(ctx context.Context, board *core.Moodboard) (*core.Moodboard, error) {
	if board.UserID == "" {
		return nil, fmt.Errorf("userID cannot be empty")
	}

	now := time.Now()
	created := *board
	created.ID = ulid.Make().String()
	created.CreatedAt = now
	created.UpdatedAt = now

	if err := s.writeBoard(&created); err != nil {
		logrus.WithError(err).Error("Failed to write board file")
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"user_id":  created.UserID,
		"board_id": created.ID,
	}).Info("Moodboard created")
	return &created, nil
}

func (s *fsStore) Get(ctx context.Context, userID, id string) (*core.Moodboard, error) {
	path, err := s.boardPath(userID, id)
	if err != nil {
		return nil, err
	}
	return s.readBoard(path, userID)
}

func (s *fsStore) FindID(ctx context.Context, id string) (*core.Moodboard, error) {
	usersDir := filepath.Join(s.basePath, "boards")
	users, err := os.ReadDir(usersDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, core.ErrNotFound
		}
		return nil, err
	}

	for _, user := range users {
		if !user.IsDir() {
			continue
		}
		board, err := s.Get(ctx, user.Name(), id)
		if err == nil {
			return board, nil
		}
	}
	return nil, core.ErrNotFound
}

func (s *fsStore) Update(ctx context.Context, userID, id string, patch core.MoodboardPatch) error {
	path, err := s.boardPath(userID, id)
	if err != nil {
		return err
	}
	board, err := s.readBoard(path, userID)
	if err != nil {
		return err
	}

	board.Title = patch.Title
	board.BackgroundColor = patch.BackgroundColor
	board.Items = patch.Items
	board.UpdatedAt = time.Now()

	if err := s.writeBoard(board); err != nil {
		logrus.WithError(err).Error("Failed to write board file")
		return err
	}
	return nil
}

func (s *fsStore) Delete(ctx context.Context, userID, id string) error {
	path, err := s.boardPath(userID, id)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return core.ErrNotFound
		}
		logrus.WithError(err).Error("Failed to delete board file")
		return err
	}

	logrus.WithFields(logrus.Fields{
		"user_id":  userID,
		"board_id": id,
	}).Info("Moodboard deleted")
	s.hub.Publish(id)
	return nil
}

func (s *fsStore) SubscribeDeletes(fn func(boardID string)) (func(), error) {
	return s.hub.Subscribe(fn), nil
}

// blobStore writes uploads under <base>/files/<userID>/ and serves them
// back through the /files route. Content types are recovered from the
// file extension on read.
type blobStore struct {
	basePath string
}

// NewBlobStore creates a filesystem-backed blob store rooted at basePath.
func NewBlobStore(basePath string) (*blobStore, error) {
	if err := os.MkdirAll(filepath.Join(basePath, "files"), 0755); err != nil {
		return nil, fmt.Errorf("create files directory: %w", err)
	}
	return &blobStore{basePath: basePath}, nil
}

func (s *blobStore) filePath(userID, filename string) (string, error) {
	userDir, err := filepath.Abs(filepath.Join(s.basePath, "files", userID))
	if err != nil {
		return "", err
	}
	path, err := filepath.Abs(filepath.Join(userDir, filename))
	if err != nil {
		return "", err
	}
	if !strings.HasPrefix(path, userDir+string(filepath.Separator)) {
		return "", fmt.Errorf("invalid filename %q", filename)
	}
	return path, nil
}

func (s *blobStore) Upload(ctx context.Context, userID, filename, contentType string, r io.Reader) (string, error) {
	path, err := s.filePath(userID, filename)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", err
	}

	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	size, err := io.Copy(f, r)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(path)
		return "", fmt.Errorf("write upload: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"user_id": userID,
		"file":    filename,
		"size":    size,
	}).Info("Blob stored")
	return fmt.Sprintf("/files/%s/%s", userID, filename), nil
}

func (s *blobStore) Open(ctx context.Context, userID, filename string) (io.ReadCloser, string, error) {
	path, err := s.filePath(userID, filename)
	if err != nil {
		return nil, "", err
	}
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, "", core.ErrNotFound
		}
		return nil, "", err
	}

	contentType := "application/octet-stream"
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".png":
		contentType = "image/png"
	case ".jpg", ".jpeg":
		contentType = "image/jpeg"
	case ".gif":
		contentType = "image/gif"
	case ".webp":
		contentType = "image/webp"
	}
	return f, contentType, nil
}
