package editor

import "moodboard/core"

// FocusState is the selection/focus state of the canvas session. At most
// one item is selected at a time; Editing means in-place text editing and
// is only reachable for text items.
type FocusState int

const (
	Unselected FocusState = iota
	Selected
	Editing
)

func (s FocusState) String() string {
	switch s {
	case Selected:
		return "selected"
	case Editing:
		return "editing"
	default:
		return "unselected"
	}
}

// Selection is a value-type snapshot of the focus state machine. It holds
// an item id, never an item copy; the current item value is re-derived by
// lookup after every document change.
type Selection struct {
	state  FocusState
	itemID string
}

func (s Selection) State() FocusState { return s.state }

// ItemID returns the selected item id, empty when nothing is selected.
func (s Selection) ItemID() string {
	if s.state == Unselected {
		return ""
	}
	return s.itemID
}

// clickItem transitions for a click on an item. A second click on an
// already-selected text item enters in-place editing.
func (s Selection) clickItem(it core.Item) Selection {
	id := it.Base().ID
	if s.itemID == id && s.state != Unselected && it.Kind() == core.KindText {
		return Selection{state: Editing, itemID: id}
	}
	return Selection{state: Selected, itemID: id}
}

// clickCanvas handles a click on the canvas surface. Only true background
// clicks deselect; clicks that bubbled up from an item are ignored.
func (s Selection) clickCanvas(background bool) Selection {
	if !background {
		return s
	}
	return Selection{}
}

// blur leaves in-place editing but keeps the item selected.
func (s Selection) blur() Selection {
	if s.state == Editing {
		return Selection{state: Selected, itemID: s.itemID}
	}
	return s
}

// itemAdded selects a freshly added item so style panels target it
// immediately.
func (s Selection) itemAdded(id string) Selection {
	return Selection{state: Selected, itemID: id}
}

// itemRemoved clears the selection when the removed item was selected.
func (s Selection) itemRemoved(id string) Selection {
	if s.state != Unselected && s.itemID == id {
		return Selection{}
	}
	return s
}
