// Package postgres backs the moodboard store with PostgreSQL. Board
// deletes fan out across processes through LISTEN/NOTIFY: a trigger
// publishes the removed board id on the moodboard_deletes channel and
// every store instance relays it to its subscribers.
package postgres

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"time"

	"moodboard/core"
	"moodboard/stores/notify"

	"github.com/lib/pq"
	"github.com/oklog/ulid/v2"
	"github.com/pressly/goose/v3"
	"github.com/sirupsen/logrus"
)

//go:embed migrations/*.sql
var migrations embed.FS

const deleteChannel = "moodboard_deletes"

type pgStore struct {
	db       *sql.DB
	listener *pq.Listener
	hub      notify.Hub
	done     chan struct{}
}

// NewStore connects to PostgreSQL, runs pending migrations and starts
// the delete listener.
func NewStore(dsn string) (*pgStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}

	s := &pgStore{db: db, done: make(chan struct{})}

	s.listener = pq.NewListener(dsn, 10*time.Second, time.Minute, func(ev pq.ListenerEventType, err error) {
		if err != nil {
			logrus.WithError(err).Warn("Postgres listener event")
		}
	})
	if err := s.listener.Listen(deleteChannel); err != nil {
		s.listener.Close()
		db.Close()
		return nil, fmt.Errorf("listen on %s: %w", deleteChannel, err)
	}
	go s.relayDeletes()

	return s, nil
}

func migrate(db *sql.DB) error {
	goose.SetLogger(log.New(io.Discard, "", 0))
	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	if err := goose.Up(db, "migrations"); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}

func (s *pgStore) relayDeletes() {
	for {
		select {
		case <-s.done:
			return
		case n := <-s.listener.Notify:
			// nil notifications signal a reconnect; nothing to relay.
			if n == nil {
				continue
			}
			s.hub.Publish(n.Extra)
		case <-time.After(90 * time.Second):
			go s.listener.Ping()
		}
	}
}

// Close stops the delete listener and releases the connection pool.
func (s *pgStore) Close() error {
	close(s.done)
	s.listener.Close()
	return s.db.Close()
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

func (s *pgStore) ListByOwner(ctx context.Context, userID string) ([]*core.Moodboard, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+boardColumns+" FROM moodboards WHERE user_id = $1 ORDER BY updated_at DESC", userID)
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

func (s *pgStore) Create(ctx context.Context, board *core.Moodboard) (*core.Moodboard, error) {
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
		"INSERT INTO moodboards (id, user_id, title, background_color, items, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6, $7)",
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

func (s *pgStore) Get(ctx context.Context, userID, id string) (*core.Moodboard, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+boardColumns+" FROM moodboards WHERE user_id = $1 AND id = $2", userID, id)
	return scanBoard(row.Scan)
}

func (s *pgStore) FindID(ctx context.Context, id string) (*core.Moodboard, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+boardColumns+" FROM moodboards WHERE id = $1", id)
	return scanBoard(row.Scan)
}

func (s *pgStore) Update(ctx context.Context, userID, id string, patch core.MoodboardPatch) error {
	items, err := json.Marshal(patch.Items)
	if err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx,
		"UPDATE moodboards SET title = $1, background_color = $2, items = $3, updated_at = $4 WHERE user_id = $5 AND id = $6",
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

func (s *pgStore) Delete(ctx context.Context, userID, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM moodboards WHERE user_id = $1 AND id = $2", userID, id)
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
	return nil
}

// SubscribeDeletes delivers ids relayed from the LISTEN/NOTIFY channel,
// so deletes made by other processes are observed too.
func (s *pgStore) SubscribeDeletes(fn func(boardID string)) (func(), error) {
	return s.hub.Subscribe(fn), nil
}
