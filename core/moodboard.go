package core

import (
	"strings"
	"time"
)

const (
	// DefaultTitle replaces empty or all-whitespace board titles.
	DefaultTitle = "Untitled Moodboard"

	// DefaultBackground is the canvas color a new board starts with.
	DefaultBackground = "#f5f5f5"
)

// Moodboard is the persisted unit of work: a titled canvas with a
// background color and an ordered list of items. It is a value type;
// every structural operation returns a new board with a fresh items
// slice, so callers can detect changes by shallow comparison.
type Moodboard struct {
	ID              string    `json:"id"`
	UserID          string    `json:"-"` // Owner; carried by the store, not the wire.
	Title           string    `json:"title"`
	BackgroundColor string    `json:"background_color"`
	Items           ItemList  `json:"items"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// NewMoodboard returns an unsaved board with defaults applied. The id and
// timestamps are assigned by the store on create.
func NewMoodboard(userID string) Moodboard {
	return Moodboard{
		UserID:          userID,
		Title:           DefaultTitle,
		BackgroundColor: DefaultBackground,
		Items:           ItemList{},
	}
}

func (m Moodboard) cloneItems() ItemList {
	items := make(ItemList, len(m.Items))
	copy(items, m.Items)
	return items
}

// FindItem looks up an item by id.
func (m Moodboard) FindItem(id string) (Item, bool) {
	for _, it := range m.Items {
		if it.Base().ID == id {
			return it, true
		}
	}
	return nil, false
}

// MaxZIndex returns the highest paint order on the board, 0 when empty.
func (m Moodboard) MaxZIndex() int {
	max := 0
	for _, it := range m.Items {
		if z := it.Base().ZIndex; z > max {
			max = z
		}
	}
	return max
}

// AddItem appends an item. It fails only when the id is already present.
func (m Moodboard) AddItem(it Item) (Moodboard, error) {
	if _, ok := m.FindItem(it.Base().ID); ok {
		return m, &DuplicateIDError{ID: it.Base().ID}
	}
	items := m.cloneItems()
	m.Items = append(items, it)
	return m, nil
}

// RemoveItem deletes the item with the given id. Removing an absent id is
// a no-op returning the board unchanged; deletions must be idempotent to
// tolerate races with the realtime delete feed.
func (m Moodboard) RemoveItem(id string) Moodboard {
	idx := -1
	for i, it := range m.Items {
		if it.Base().ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return m
	}
	items := make(ItemList, 0, len(m.Items)-1)
	items = append(items, m.Items[:idx]...)
	items = append(items, m.Items[idx+1:]...)
	m.Items = items
	return m
}

// UpdateItem replaces the item with the given id by applying fn to its
// current value. A missing id is a no-op.
func (m Moodboard) UpdateItem(id string, fn func(Item) Item) Moodboard {
	idx := -1
	for i, it := range m.Items {
		if it.Base().ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return m
	}
	items := m.cloneItems()
	items[idx] = fn(items[idx])
	m.Items = items
	return m
}

// SetTitle replaces the board title. The title is trimmed; empty falls
// back to the default.
func (m Moodboard) SetTitle(title string) Moodboard {
	title = strings.TrimSpace(title)
	if title == "" {
		title = DefaultTitle
	}
	m.Title = title
	return m
}

// SetBackgroundColor replaces the canvas color after validation. Invalid
// colors return the board unchanged alongside ErrInvalidColor.
func (m Moodboard) SetBackgroundColor(hex string) (Moodboard, error) {
	if !ValidHexColor(hex) {
		return m, ErrInvalidColor
	}
	m.BackgroundColor = hex
	return m, nil
}
