package editor

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"

	"moodboard/core"

	"github.com/sirupsen/logrus"
)

// SaveState tracks whether the open board has unpersisted changes.
type SaveState int

const (
	SaveClean SaveState = iota
	SaveDirty
	SaveSaving
)

func (s SaveState) String() string {
	switch s {
	case SaveDirty:
		return "dirty"
	case SaveSaving:
		return "saving"
	default:
		return "clean"
	}
}

var (
	// ErrNoBoard means no board is currently open in the session.
	ErrNoBoard = errors.New("no open board")

	// ErrBoardClosed means the open board was deleted server-side; the
	// session refuses further saves for it.
	ErrBoardClosed = errors.New("board was deleted")

	// ErrSaveInFlight rejects a Save while one is already running; the
	// caller retries after the running save resolves.
	ErrSaveInFlight = errors.New("a save is already in flight")

	// ErrSwitchDeclined means the unsaved-changes guard kept the current
	// board open.
	ErrSwitchDeclined = errors.New("unsaved changes kept")
)

// Config wires a Session to its collaborators. Store and User are
// required; the rest have safe defaults.
type Config struct {
	Store core.MoodboardStore
	User  core.User

	// ConfirmDiscard is consulted before discarding dirty in-memory state
	// on a board switch. Nil declines every discard.
	ConfirmDiscard func() bool

	// OnBoardClosed is invoked when the open board is removed by an
	// external delete event, so the shell can pick or create another.
	OnBoardClosed func(boardID string)

	// Rand drives item placement; defaults to a time-seeded source.
	Rand *rand.Rand
}

// Session owns the currently open moodboard for one editing session. All
// document mutations are synchronous with the triggering call; the mutex
// exists because delete notifications arrive on a feed goroutine. Boards
// are not coordinated across sessions: last save wins, and edits racing
// an external delete can be lost.
type Session struct {
	mu    sync.Mutex
	store core.MoodboardStore
	user  core.User
	log   *logrus.Entry
	rng   *rand.Rand

	confirmDiscard func() bool
	onBoardClosed  func(string)

	boards []*core.Moodboard
	board  core.Moodboard
	open   bool

	selection Selection
	saveState SaveState

	// version counts mutations of the open board; savedVersion is the
	// version captured by the last successful save. A completed save only
	// marks the session clean when no mutation happened after its
	// snapshot was taken.
	version      uint64
	savedVersion uint64

	unsubscribe func()
}

// NewSession builds a session for the given user. Call Open to load the
// board list and start the delete feed.
func NewSession(cfg Config) *Session {
	rng := cfg.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Session{
		store:          cfg.Store,
		user:           cfg.User,
		rng:            rng,
		confirmDiscard: cfg.ConfirmDiscard,
		onBoardClosed:  cfg.OnBoardClosed,
		log:            logrus.WithField("user_id", cfg.User.Subject),
	}
}

// Open loads the user's boards, opening the most recent one or creating a
// fresh board when none exist, and subscribes to the delete feed.
func (s *Session) Open(ctx context.Context) error {
	boards, err := s.store.ListByOwner(ctx, s.user.Subject)
	if err != nil {
		return err
	}

	if len(boards) == 0 {
		board := core.NewMoodboard(s.user.Subject)
		created, err := s.store.Create(ctx, &board)
		if err != nil {
			return err
		}
		boards = []*core.Moodboard{created}
		s.log.WithField("board_id", created.ID).Info("Created first moodboard")
	}

	unsubscribe, err := s.store.SubscribeDeletes(s.handleRemoteDelete)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.boards = boards
	s.openBoardLocked(*boards[0])
	s.unsubscribe = unsubscribe
	s.mu.Unlock()
	return nil
}

// Close stops the delete feed subscription.
func (s *Session) Close() {
	s.mu.Lock()
	unsub := s.unsubscribe
	s.unsubscribe = nil
	s.mu.Unlock()
	if unsub != nil {
		unsub()
	}
}

func (s *Session) openBoardLocked(board core.Moodboard) {
	s.board = board
	s.open = true
	s.selection = Selection{}
	s.saveState = SaveClean
	s.version = 0
	s.savedVersion = 0
}

// Board returns a snapshot of the open board; ok is false when the
// session has no open board (e.g. after a remote delete).
func (s *Session) Board() (core.Moodboard, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.board, s.open
}

// Boards returns the sidebar list, most recently updated first.
func (s *Session) Boards() []*core.Moodboard {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*core.Moodboard, len(s.boards))
	copy(out, s.boards)
	return out
}

func (s *Session) Selection() Selection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selection
}

// SelectedItem re-derives the selected item from the current document.
// Items are value types, so the selection never holds a copy that could
// go stale; it is always looked up by id.
func (s *Session) SelectedItem() (core.Item, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.open || s.selection.State() == Unselected {
		return nil, false
	}
	return s.board.FindItem(s.selection.ItemID())
}

func (s *Session) SaveState() SaveState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveState
}

// mutate applies fn to the open board, bumping the document version and
// marking the session dirty. A mutation arriving while a save is in
// flight keeps the in-flight state; the version bump guarantees the save
// cannot mark the session clean afterwards.
func (s *Session) mutate(fn func(core.Moodboard) (core.Moodboard, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mutateLocked(fn)
}

func (s *Session) mutateLocked(fn func(core.Moodboard) (core.Moodboard, error)) error {
	if !s.open {
		return ErrNoBoard
	}
	next, err := fn(s.board)
	if err != nil {
		return err
	}
	s.board = next
	s.version++
	if s.saveState != SaveSaving {
		s.saveState = SaveDirty
	}
	return nil
}

// Save persists the mutable board fields. It is serialized per session: a
// second Save while one is in flight returns ErrSaveInFlight. On failure
// the session stays dirty and the in-memory board is untouched.
func (s *Session) Save(ctx context.Context) error {
	s.mu.Lock()
	if !s.open {
		s.mu.Unlock()
		return ErrNoBoard
	}
	switch s.saveState {
	case SaveSaving:
		s.mu.Unlock()
		return ErrSaveInFlight
	case SaveClean:
		s.mu.Unlock()
		return nil
	}

	snapshot := s.version
	boardID := s.board.ID
	patch := core.MoodboardPatch{
		Title:           s.board.Title,
		BackgroundColor: s.board.BackgroundColor,
		Items:           s.board.Items,
	}
	s.saveState = SaveSaving
	s.mu.Unlock()

	err := s.store.Update(ctx, s.user.Subject, boardID, patch)

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.open || s.board.ID != boardID {
		// The board was deleted (or switched) while the save was in
		// flight; the delete always wins.
		return ErrBoardClosed
	}
	if err != nil {
		s.saveState = SaveDirty
		if errors.Is(err, core.ErrNotFound) {
			s.log.WithField("board_id", boardID).Warn("Board vanished server-side during save")
			s.closeBoardLocked(boardID)
		}
		return err
	}
	if s.version == snapshot {
		s.saveState = SaveClean
		s.savedVersion = snapshot
		s.board.UpdatedAt = time.Now()
	} else {
		// Newer mutations exist; the snapshot we wrote is already stale.
		s.saveState = SaveDirty
	}
	return nil
}

// SwitchTo opens another board from the sidebar list. Dirty in-memory
// changes are only discarded after the guard confirms.
func (s *Session) SwitchTo(ctx context.Context, id string) error {
	if err := s.guardDiscard(); err != nil {
		return err
	}
	board, err := s.store.Get(ctx, s.user.Subject, id)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.openBoardLocked(*board)
	s.mu.Unlock()
	return nil
}

// NewBoard creates and opens a fresh board, subject to the same
// unsaved-changes guard as a switch.
func (s *Session) NewBoard(ctx context.Context) (*core.Moodboard, error) {
	if err := s.guardDiscard(); err != nil {
		return nil, err
	}
	board := core.NewMoodboard(s.user.Subject)
	created, err := s.store.Create(ctx, &board)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.boards = append([]*core.Moodboard{created}, s.boards...)
	s.openBoardLocked(*created)
	s.mu.Unlock()
	return created, nil
}

func (s *Session) guardDiscard() error {
	s.mu.Lock()
	dirty := s.open && s.saveState != SaveClean
	s.mu.Unlock()
	if !dirty {
		return nil
	}
	if s.confirmDiscard == nil || !s.confirmDiscard() {
		return ErrSwitchDeclined
	}
	return nil
}

// DeleteBoard removes a board optimistically: it leaves the local list
// first, then the store call is made. A failed delete restores the list
// and returns the error for a manual retry.
func (s *Session) DeleteBoard(ctx context.Context, id string) error {
	s.mu.Lock()
	removed, idx := s.removeFromListLocked(id)
	wasOpen := s.open && s.board.ID == id
	prevBoard, prevSelection, prevSave, prevVersion := s.board, s.selection, s.saveState, s.version
	if wasOpen {
		s.closeBoardLocked(id)
	}
	s.mu.Unlock()

	if err := s.store.Delete(ctx, s.user.Subject, id); err != nil {
		s.mu.Lock()
		if removed != nil {
			s.restoreToListLocked(removed, idx)
		}
		if wasOpen {
			s.board, s.selection, s.saveState, s.version = prevBoard, prevSelection, prevSave, prevVersion
			s.open = true
		}
		s.mu.Unlock()
		return err
	}
	return nil
}

func (s *Session) removeFromListLocked(id string) (*core.Moodboard, int) {
	for i, b := range s.boards {
		if b.ID == id {
			removed := b
			s.boards = append(append([]*core.Moodboard{}, s.boards[:i]...), s.boards[i+1:]...)
			return removed, i
		}
	}
	return nil, -1
}

func (s *Session) restoreToListLocked(board *core.Moodboard, idx int) {
	if idx < 0 || idx > len(s.boards) {
		idx = 0
	}
	s.boards = append(s.boards[:idx], append([]*core.Moodboard{board}, s.boards[idx:]...)...)
}

func (s *Session) closeBoardLocked(id string) {
	s.open = false
	s.selection = Selection{}
	s.saveState = SaveClean
	s.log.WithField("board_id", id).Info("Board closed")
}

// handleRemoteDelete reconciles an external delete event. Once observed,
// the delete wins over any local dirty or in-flight state; no re-save of
// the deleted board is ever attempted.
func (s *Session) handleRemoteDelete(id string) {
	s.mu.Lock()
	s.removeFromListLocked(id)
	wasOpen := s.open && s.board.ID == id
	if wasOpen {
		s.closeBoardLocked(id)
	}
	notify := s.onBoardClosed
	s.mu.Unlock()

	if wasOpen && notify != nil {
		notify(id)
	}
}
