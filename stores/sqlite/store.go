package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"moodboard/core"
	"moodboard/stores/notify"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"
)

// sqliteStore keeps boards in a single moodboards table with the item
// list serialized as a JSON column.
type sqliteStore struct {
	db  *sql.DB
	hub notify.Hub
}

// NewStore opens (and if needed initializes) a SQLite-backed store.
func NewStore(dataSourceName string) (*sqliteStore, error) {
	db, err := sql.Open("sqlite", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	stmt := `
	CREATE TABLE IF NOT EXISTS moodboards (
		id TEXT NOT NULL,
		user_id TEXT NOT NULL,
		title TEXT NOT NULL,
		background_color TEXT NOT NULL,
		items TEXT NOT NULL,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL,
		PRIMARY KEY (user_id, id)
	);
	CREATE INDEX IF NOT EXISTS idx_moodboards_id ON moodboards (id);`
	if _, err := db.Exec(stmt); err != nil {
		db.Close()
		return nil, fmt.Errorf("create moodboards table: %w", err)
	}

	return &sqliteStore{db: db}, nil
}

func scanBoard(scan func(dest ...any) error) (*core.Moodboard, error) {
	var board core.Moodboard
	var items []byte
	err := scan(&board.ID, &board.UserID, &board.Title, &board.BackgroundColor, &items, &board.CreatedAt, &board.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, core.ErrNotFound
		}
		return nil, err
	}
	if err := json.Unmarshal(items, &board.Items); err != nil {
		return nil, fmt.Errorf("decode items for board %s: %w", board.ID, err)
	}
	return &board, nil
}

const boardColumns = "id, user_id, title, background_color, items, created_at, updated_at"

func (s *sqliteStore) ListByOwner(ctx context.Context, userID string) ([]*core.Moodboard, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+boardColumns+" FROM moodboards WHERE user_id = ? ORDER BY updated_at DESC", userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	boards := []*core.Moodboard{}
	for rows.Next() {
		board, err := scanBoard(rows.Scan)
		if err != nil {
			return nil, err
		}
		boards = append(boards, board)
	}
	return boards, rows.Err()
}

func (s *sqliteStore) Create(ctx context.Context, board *core.Moodboard) (*core.Moodboard, error) {
	if board.UserID == "" {
		return nil, fmt.Errorf("userID cannot be empty")
	}

	now := time.Now()
	created := *board
	created.ID = ulid.Make().String()
	created.CreatedAt = now
	created.UpdatedAt = now

	items, err := json.Marshal(created.Items)
	if err != nil {
		return nil, err
	}
	_, err = s.db.ExecContext(ctx,
		"INSERT INTO moodboards (id, user_id, title, background_color, items, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)",
		created.ID, created.UserID, created.Title, created.BackgroundColor, items, created.CreatedAt, created.UpdatedAt)
	if err != nil {
		logrus.WithError(err).Error("Failed to insert moodboard")
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"user_id":  created.UserID,
		"board_id": created.ID,
	}).Info("Moodboard created")
	return &created, nil
}

func (s *sqliteStore) Get(ctx context.Context, userID, id string) (*core.Moodboard, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+boardColumns+" FROM moodboards WHERE user_id = ? AND id = ?", userID, id)
	return scanBoard(row.Scan)
}

func (s *sqliteStore) FindID(ctx context.Context, id string) (*core.Moodboard, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+boardColumns+" FROM moodboards WHERE id = ?", id)
	return scanBoard(row.Scan)
}

func (s *sqliteStore) Update(ctx context.Context, userID, id string, patch core.MoodboardPatch) error {
	items, err := json.Marshal(patch.Items)
	if err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx,
		"UPDATE moodboards SET title = ?, background_color = ?, items = ?, updated_at = ? WHERE user_id = ? AND id = ?",
		patch.Title, patch.BackgroundColor, items, time.Now(), userID, id)
	if err != nil {
		logrus.WithError(err).Error("Failed to update moodboard")
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (s *sqliteStore) Delete(ctx context.Context, userID, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM moodboards WHERE user_id = ? AND id = ?", userID, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return core.ErrNotFound
	}

	logrus.WithFields(logrus.Fields{
		"user_id":  userID,
		"board_id": id,
	}).Info("Moodboard deleted")
	s.hub.Publish(id)
	return nil
}

func (s *sqliteStore) SubscribeDeletes(fn func(boardID string)) (func(), error) {
	return s.hub.Subscribe(fn), nil
}
