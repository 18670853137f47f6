package editor

import (
	"testing"

	"moodboard/core"
)

func TestSelection_ClickFlow(t *testing.T) {
	text := core.NewTextItem("x", core.Position{})
	image := core.NewImageItem("https://example.com/a.png", core.Position{}, nil)

	var s Selection
	if s.State() != Unselected {
		t.Fatalf("zero selection: got %v, want unselected", s.State())
	}

	s = s.clickItem(text)
	if s.State() != Selected || s.ItemID() != text.ID {
		t.Fatalf("first click: got %v/%q", s.State(), s.ItemID())
	}

	// Second click on a selected text item enters editing.
	s = s.clickItem(text)
	if s.State() != Editing {
		t.Fatalf("second click on text: got %v, want editing", s.State())
	}

	// Blur returns to selected.
	s = s.blur()
	if s.State() != Selected || s.ItemID() != text.ID {
		t.Fatalf("blur: got %v/%q", s.State(), s.ItemID())
	}

	// Clicking another item moves the selection.
	s = s.clickItem(image)
	if s.State() != Selected || s.ItemID() != image.ID {
		t.Fatalf("click other item: got %v/%q", s.State(), s.ItemID())
	}

	// Image items never enter editing.
	s = s.clickItem(image)
	if s.State() != Selected {
		t.Fatalf("second click on image: got %v, want selected", s.State())
	}
}

func TestSelection_CanvasClick(t *testing.T) {
	text := core.NewTextItem("x", core.Position{})
	s := Selection{}.clickItem(text)

	// A click bubbling up from an item is not a background click.
	s = s.clickCanvas(false)
	if s.State() != Selected {
		t.Fatalf("bubbled click deselected: got %v", s.State())
	}

	s = s.clickCanvas(true)
	if s.State() != Unselected {
		t.Fatalf("background click: got %v, want unselected", s.State())
	}
}

func TestSelection_ItemRemoved(t *testing.T) {
	text := core.NewTextItem("x", core.Position{})
	s := Selection{}.clickItem(text)

	unchanged := s.itemRemoved("other-id")
	if unchanged.State() != Selected {
		t.Fatalf("unrelated removal cleared selection: got %v", unchanged.State())
	}

	cleared := s.itemRemoved(text.ID)
	if cleared.State() != Unselected {
		t.Fatalf("removal of selected item: got %v, want unselected", cleared.State())
	}
}

func TestSelection_ItemAdded(t *testing.T) {
	s := Selection{}.itemAdded("new-id")
	if s.State() != Selected || s.ItemID() != "new-id" {
		t.Fatalf("itemAdded: got %v/%q", s.State(), s.ItemID())
	}
}
