package editor

import (
	"errors"

	"moodboard/core"
)

// ErrNoTextSelected rejects a style edit when the selection does not hold
// a text item.
var ErrNoTextSelected = errors.New("no text item selected")

// RotationStep is the discrete rotation applied per invocation, in degrees.
const RotationStep = 15.0

// The gesture surface. Each operation translates a discrete user gesture
// into document operations, keeps the selection coherent and marks the
// session dirty. Continuous gestures (drag, resize) commit only their
// terminal geometry; intermediate frames are render-only and never reach
// the document.

// ClickItem selects an item; a second click on a selected text item
// enters in-place editing. Unknown ids are ignored.
func (s *Session) ClickItem(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.open {
		return
	}
	it, ok := s.board.FindItem(id)
	if !ok {
		return
	}
	s.selection = s.selection.clickItem(it)
}

// ClickCanvas handles a click on the canvas. Only clicks whose target is
// the canvas background deselect; clicks bubbling up from items pass
// background=false and leave the selection alone.
func (s *Session) ClickCanvas(background bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selection = s.selection.clickCanvas(background)
}

// BlurEditing leaves in-place text editing, keeping the item selected.
func (s *Session) BlurEditing() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selection = s.selection.blur()
}

// MoveItem commits the terminal position of a drag.
func (s *Session) MoveItem(id string, pos core.Position) error {
	return s.mutate(func(m core.Moodboard) (core.Moodboard, error) {
		return m.UpdateItem(id, func(it core.Item) core.Item {
			return core.WithPosition(it, pos)
		}), nil
	})
}

// ResizeItem commits the terminal geometry of a resize, clamped to the
// minimum item size. Position travels with the resize because dragging a
// top or left handle moves the item origin.
func (s *Session) ResizeItem(id string, pos core.Position, size core.Size) error {
	return s.mutate(func(m core.Moodboard) (core.Moodboard, error) {
		return m.UpdateItem(id, func(it core.Item) core.Item {
			return core.WithSize(it, pos, size)
		}), nil
	})
}

// RotateItem turns an item by steps discrete increments; negative steps
// rotate counter-clockwise. The stored angle stays in [0, 360).
func (s *Session) RotateItem(id string, steps int) error {
	return s.mutate(func(m core.Moodboard) (core.Moodboard, error) {
		return m.UpdateItem(id, func(it core.Item) core.Item {
			return core.WithRotation(it, it.Base().Rotation+RotationStep*float64(steps))
		}), nil
	})
}

// AddText drops a new text note at a pseudo-random position and selects it.
func (s *Session) AddText() (core.TextItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.open {
		return core.TextItem{}, ErrNoBoard
	}

	pos := core.Position{
		X: s.rng.Float64()*100 + 50,
		Y: s.rng.Float64()*100 + 50,
	}
	item := core.NewTextItem("Add your text here", pos)
	item.ZIndex = s.board.MaxZIndex() + 1

	err := s.mutateLocked(func(m core.Moodboard) (core.Moodboard, error) {
		return m.AddItem(item)
	})
	if err != nil {
		return core.TextItem{}, err
	}
	s.selection = s.selection.itemAdded(item.ID)
	return item, nil
}

// AddImages appends ingested image pins, layering each above the current
// maximum. The last added image ends up selected.
func (s *Session) AddImages(items []core.ImageItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.open {
		return ErrNoBoard
	}
	for _, img := range items {
		img.ZIndex = s.board.MaxZIndex() + 1
		item := img
		if err := s.mutateLocked(func(m core.Moodboard) (core.Moodboard, error) {
			return m.AddItem(item)
		}); err != nil {
			return err
		}
		s.selection = s.selection.itemAdded(item.ID)
	}
	return nil
}

// DuplicateItem copies an item with the fixed offset, a fresh id and the
// topmost paint order, then selects the copy.
func (s *Session) DuplicateItem(id string) (core.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.open {
		return nil, ErrNoBoard
	}
	src, ok := s.board.FindItem(id)
	if !ok {
		return nil, nil
	}
	dup := core.Duplicate(src, s.board.MaxZIndex())
	err := s.mutateLocked(func(m core.Moodboard) (core.Moodboard, error) {
		return m.AddItem(dup)
	})
	if err != nil {
		return nil, err
	}
	s.selection = s.selection.itemAdded(dup.Base().ID)
	return dup, nil
}

// DeleteItem removes an item and clears the selection when it was
// selected. Deleting an absent id (e.g. a double-delete) is a no-op.
func (s *Session) DeleteItem(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.open {
		return ErrNoBoard
	}
	if _, ok := s.board.FindItem(id); !ok {
		return nil
	}
	if err := s.mutateLocked(func(m core.Moodboard) (core.Moodboard, error) {
		return m.RemoveItem(id), nil
	}); err != nil {
		return err
	}
	s.selection = s.selection.itemRemoved(id)
	return nil
}

// SetTitle renames the board, with the empty-title fallback applied.
func (s *Session) SetTitle(title string) error {
	return s.mutate(func(m core.Moodboard) (core.Moodboard, error) {
		return m.SetTitle(title), nil
	})
}

// SetBackgroundColor recolors the canvas; invalid hex leaves the board
// untouched and does not dirty the session.
func (s *Session) SetBackgroundColor(hex string) error {
	return s.mutate(func(m core.Moodboard) (core.Moodboard, error) {
		return m.SetBackgroundColor(hex)
	})
}

// SetTextContent commits the content of an in-place text edit.
func (s *Session) SetTextContent(id, content string) error {
	return s.mutate(func(m core.Moodboard) (core.Moodboard, error) {
		return m.UpdateItem(id, func(it core.Item) core.Item {
			return core.WithContent(it, content)
		}), nil
	})
}

// SetTextStyle routes a style-panel edit to the selected text item. The
// selection must hold a text item in the Selected or Editing state.
func (s *Session) SetTextStyle(style core.TextStyle) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.open {
		return ErrNoBoard
	}
	if s.selection.State() == Unselected {
		return ErrNoTextSelected
	}
	it, ok := s.board.FindItem(s.selection.ItemID())
	if !ok || it.Kind() != core.KindText {
		return ErrNoTextSelected
	}
	id := it.Base().ID
	return s.mutateLocked(func(m core.Moodboard) (core.Moodboard, error) {
		return m.UpdateItem(id, func(cur core.Item) core.Item {
			return core.WithStyle(cur, style)
		}), nil
	})
}
