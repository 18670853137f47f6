package editor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"moodboard/core"

	"github.com/oklog/ulid/v2"
)

// Mock moodboard store for testing.
type mockStore struct {
	mu     sync.Mutex
	boards map[string]*core.Moodboard

	updateErr error
	deleteErr error

	// onUpdate runs during Update, before it returns; used to race
	// mutations against an in-flight save.
	onUpdate func()

	updateCalls int
	subs        []func(string)
}

func newMockStore() *mockStore {
	return &mockStore{boards: make(map[string]*core.Moodboard)}
}

func (m *mockStore) ListByOwner(ctx context.Context, userID string) ([]*core.Moodboard, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*core.Moodboard
	for _, b := range m.boards {
		if b.UserID == userID {
			copy := *b
			out = append(out, &copy)
		}
	}
	return out, nil
}

func (m *mockStore) Create(ctx context.Context, board *core.Moodboard) (*core.Moodboard, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	saved := *board
	saved.ID = ulid.Make().String()
	saved.CreatedAt = time.Now()
	saved.UpdatedAt = saved.CreatedAt
	m.boards[saved.ID] = &saved
	out := saved
	return &out, nil
}

func (m *mockStore) Get(ctx context.Context, userID, id string) (*core.Moodboard, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.boards[id]
	if !ok || b.UserID != userID {
		return nil, core.ErrNotFound
	}
	copy := *b
	return &copy, nil
}

func (m *mockStore) FindID(ctx context.Context, id string) (*core.Moodboard, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.boards[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	copy := *b
	return &copy, nil
}

func (m *mockStore) Update(ctx context.Context, userID, id string, patch core.MoodboardPatch) error {
	m.mu.Lock()
	m.updateCalls++
	onUpdate := m.onUpdate
	err := m.updateErr
	m.mu.Unlock()

	if onUpdate != nil {
		onUpdate()
	}
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.boards[id]
	if !ok || b.UserID != userID {
		return core.ErrNotFound
	}
	b.Title = patch.Title
	b.BackgroundColor = patch.BackgroundColor
	b.Items = patch.Items
	b.UpdatedAt = time.Now()
	return nil
}

func (m *mockStore) Delete(ctx context.Context, userID, id string) error {
	m.mu.Lock()
	if m.deleteErr != nil {
		err := m.deleteErr
		m.mu.Unlock()
		return err
	}
	delete(m.boards, id)
	subs := append([]func(string){}, m.subs...)
	m.mu.Unlock()
	for _, fn := range subs {
		fn(id)
	}
	return nil
}

func (m *mockStore) SubscribeDeletes(fn func(string)) (func(), error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subs = append(m.subs, fn)
	return func() {}, nil
}

// fireDelete simulates a delete that originated in another session.
func (m *mockStore) fireDelete(id string) {
	m.mu.Lock()
	delete(m.boards, id)
	subs := append([]func(string){}, m.subs...)
	m.mu.Unlock()
	for _, fn := range subs {
		fn(id)
	}
}

func openSession(t *testing.T, store *mockStore) *Session {
	t.Helper()
	s := NewSession(Config{
		Store: store,
		User:  core.User{Subject: "user-1"},
	})
	if err := s.Open(context.Background()); err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(s.Close)
	return s
}

func TestOpen_CreatesFirstBoard(t *testing.T) {
	store := newMockStore()
	s := openSession(t, store)

	board, ok := s.Board()
	if !ok {
		t.Fatal("no board open after Open()")
	}
	if board.Title != core.DefaultTitle {
		t.Errorf("title: got %q, want %q", board.Title, core.DefaultTitle)
	}
	if board.ID == "" {
		t.Error("created board has no id")
	}
	if s.SaveState() != SaveClean {
		t.Errorf("fresh board state: got %v, want clean", s.SaveState())
	}
}

func TestMutation_MarksDirty(t *testing.T) {
	store := newMockStore()
	s := openSession(t, store)

	if err := s.SetTitle("Palette ideas"); err != nil {
		t.Fatalf("SetTitle() failed: %v", err)
	}
	if s.SaveState() != SaveDirty {
		t.Errorf("state after mutation: got %v, want dirty", s.SaveState())
	}
}

func TestSave_Success(t *testing.T) {
	store := newMockStore()
	s := openSession(t, store)

	if _, err := s.AddText(); err != nil {
		t.Fatalf("AddText() failed: %v", err)
	}
	if err := s.Save(context.Background()); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}
	if s.SaveState() != SaveClean {
		t.Errorf("state after save: got %v, want clean", s.SaveState())
	}

	board, _ := s.Board()
	stored := store.boards[board.ID]
	if len(stored.Items) != 1 {
		t.Errorf("stored board has %d items, want 1", len(stored.Items))
	}
}

func TestSave_FailureStaysDirty(t *testing.T) {
	store := newMockStore()
	s := openSession(t, store)

	if err := s.SetTitle("Before failure"); err != nil {
		t.Fatalf("SetTitle() failed: %v", err)
	}
	before, _ := s.Board()

	store.updateErr = fmt.Errorf("connection reset")
	err := s.Save(context.Background())
	if err == nil {
		t.Fatal("Save() succeeded against a failing store")
	}
	if s.SaveState() != SaveDirty {
		t.Errorf("state after failed save: got %v, want dirty", s.SaveState())
	}

	after, ok := s.Board()
	if !ok {
		t.Fatal("board closed by a transient save failure")
	}
	if after.Title != before.Title || len(after.Items) != len(before.Items) {
		t.Error("failed save altered the in-memory board")
	}

	// Manual retry succeeds once the store recovers.
	store.updateErr = nil
	if err := s.Save(context.Background()); err != nil {
		t.Fatalf("retry Save() failed: %v", err)
	}
	if s.SaveState() != SaveClean {
		t.Errorf("state after retry: got %v, want clean", s.SaveState())
	}
}

func TestSave_MutationDuringInFlightSaveStaysDirty(t *testing.T) {
	store := newMockStore()
	s := openSession(t, store)

	if err := s.SetTitle("v1"); err != nil {
		t.Fatalf("SetTitle() failed: %v", err)
	}

	// Mutate from inside the store call, i.e. while the save is in flight.
	store.onUpdate = func() {
		store.onUpdate = nil
		if err := s.SetTitle("v2"); err != nil {
			t.Errorf("mutation during save failed: %v", err)
		}
	}

	if err := s.Save(context.Background()); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}
	if s.SaveState() != SaveDirty {
		t.Errorf("state after save with racing mutation: got %v, want dirty", s.SaveState())
	}

	board, _ := s.Board()
	if board.Title != "v2" {
		t.Errorf("racing mutation lost: title %q", board.Title)
	}
}

func TestSave_SerializedPerSession(t *testing.T) {
	store := newMockStore()
	s := openSession(t, store)

	if err := s.SetTitle("v1"); err != nil {
		t.Fatalf("SetTitle() failed: %v", err)
	}

	var second error
	store.onUpdate = func() {
		store.onUpdate = nil
		second = s.Save(context.Background())
	}
	if err := s.Save(context.Background()); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}
	if !errors.Is(second, ErrSaveInFlight) {
		t.Errorf("overlapping save: got %v, want ErrSaveInFlight", second)
	}
}

func TestSave_NotFoundClosesBoard(t *testing.T) {
	store := newMockStore()
	s := openSession(t, store)
	board, _ := s.Board()

	if err := s.SetTitle("doomed"); err != nil {
		t.Fatalf("SetTitle() failed: %v", err)
	}
	// Deleted server-side without a feed event reaching us yet.
	delete(store.boards, board.ID)

	err := s.Save(context.Background())
	if !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("Save() against deleted board: got %v, want ErrNotFound", err)
	}
	if _, ok := s.Board(); ok {
		t.Error("board still open after a consistency error")
	}
}

func TestRemoteDelete_ClosesDirtyBoard(t *testing.T) {
	store := newMockStore()

	var closedID string
	s := NewSession(Config{
		Store:         store,
		User:          core.User{Subject: "user-1"},
		OnBoardClosed: func(id string) { closedID = id },
	})
	if err := s.Open(context.Background()); err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer s.Close()

	board, _ := s.Board()
	if err := s.SetTitle("dirty edit"); err != nil {
		t.Fatalf("SetTitle() failed: %v", err)
	}

	store.fireDelete(board.ID)

	if _, ok := s.Board(); ok {
		t.Fatal("board still open after remote delete")
	}
	if closedID != board.ID {
		t.Errorf("OnBoardClosed: got %q, want %q", closedID, board.ID)
	}

	// No silent re-save of a deleted board.
	calls := store.updateCalls
	if err := s.Save(context.Background()); !errors.Is(err, ErrNoBoard) {
		t.Errorf("Save() after remote delete: got %v, want ErrNoBoard", err)
	}
	if store.updateCalls != calls {
		t.Error("Save() reached the store for a deleted board")
	}
}

func TestRemoteDelete_WinsOverInFlightSave(t *testing.T) {
	store := newMockStore()
	s := openSession(t, store)
	board, _ := s.Board()

	if err := s.SetTitle("racing"); err != nil {
		t.Fatalf("SetTitle() failed: %v", err)
	}
	store.onUpdate = func() {
		store.onUpdate = nil
		store.fireDelete(board.ID)
	}

	err := s.Save(context.Background())
	if !errors.Is(err, ErrBoardClosed) {
		t.Fatalf("Save() racing a delete: got %v, want ErrBoardClosed", err)
	}
	if _, ok := s.Board(); ok {
		t.Error("board reopened after the delete won the race")
	}
}

func TestSwitchTo_Guard(t *testing.T) {
	store := newMockStore()
	s := openSession(t, store)
	first, _ := s.Board()

	other, err := s.NewBoard(context.Background())
	if err != nil {
		t.Fatalf("NewBoard() failed: %v", err)
	}

	if err := s.SetTitle("unsaved"); err != nil {
		t.Fatalf("SetTitle() failed: %v", err)
	}

	// No ConfirmDiscard configured: the switch is declined.
	if err := s.SwitchTo(context.Background(), first.ID); !errors.Is(err, ErrSwitchDeclined) {
		t.Fatalf("guarded switch: got %v, want ErrSwitchDeclined", err)
	}
	cur, _ := s.Board()
	if cur.ID != other.ID {
		t.Error("declined switch still changed the open board")
	}

	// Clean sessions switch freely.
	if err := s.Save(context.Background()); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}
	if err := s.SwitchTo(context.Background(), first.ID); err != nil {
		t.Fatalf("clean switch failed: %v", err)
	}
	cur, _ = s.Board()
	if cur.ID != first.ID {
		t.Errorf("open board: got %q, want %q", cur.ID, first.ID)
	}
}

func TestSwitchTo_ConfirmedDiscard(t *testing.T) {
	store := newMockStore()
	s := NewSession(Config{
		Store:          store,
		User:           core.User{Subject: "user-1"},
		ConfirmDiscard: func() bool { return true },
	})
	if err := s.Open(context.Background()); err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer s.Close()
	first, _ := s.Board()

	second, err := s.NewBoard(context.Background())
	if err != nil {
		t.Fatalf("NewBoard() failed: %v", err)
	}
	if err := s.SetTitle("to be discarded"); err != nil {
		t.Fatalf("SetTitle() failed: %v", err)
	}

	if err := s.SwitchTo(context.Background(), first.ID); err != nil {
		t.Fatalf("confirmed switch failed: %v", err)
	}
	if s.SaveState() != SaveClean {
		t.Errorf("state after switch: got %v, want clean", s.SaveState())
	}

	// The discarded edit never reached the store.
	if store.boards[second.ID].Title != core.DefaultTitle {
		t.Errorf("discarded edit persisted: %q", store.boards[second.ID].Title)
	}
}

func TestDeleteBoard_RollbackOnFailure(t *testing.T) {
	store := newMockStore()
	s := openSession(t, store)
	board, _ := s.Board()

	store.deleteErr = fmt.Errorf("connection reset")
	if err := s.DeleteBoard(context.Background(), board.ID); err == nil {
		t.Fatal("DeleteBoard() succeeded against a failing store")
	}

	if _, ok := s.Board(); !ok {
		t.Error("board not restored after failed delete")
	}
	if len(s.Boards()) != 1 {
		t.Errorf("board list: got %d entries, want 1", len(s.Boards()))
	}
}
