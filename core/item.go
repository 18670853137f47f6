package core

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// ItemKind discriminates the item union on the wire.
type ItemKind string

const (
	KindImage ItemKind = "image"
	KindText  ItemKind = "text"
)

const (
	// DuplicateOffset is the pixel delta applied on both axes when an
	// item is duplicated, so the copy never lands exactly on its source.
	DuplicateOffset = 20.0

	// PaletteSize is the number of dominant colors carried by an image item.
	PaletteSize = 5
)

type (
	// ItemBase carries the geometry shared by every item kind.
	ItemBase struct {
		ID       string
		Position Position
		Size     Size
		ZIndex   int
		Rotation float64
	}

	// Item is the closed union of canvas item kinds. Implementations are
	// value types; every modification goes through a copy-with helper and
	// returns a fresh value.
	Item interface {
		Kind() ItemKind
		Base() ItemBase
		withBase(ItemBase) Item
	}

	// ImageItem is an uploaded picture pinned to the board.
	ImageItem struct {
		ItemBase
		Src    string
		Colors []string
	}

	// TextItem is an editable text note.
	TextItem struct {
		ItemBase
		Content string
		Style   TextStyle
	}
)

func (ImageItem) Kind() ItemKind  { return KindImage }
func (i ImageItem) Base() ItemBase { return i.ItemBase }

func (i ImageItem) withBase(b ItemBase) Item {
	i.ItemBase = b
	i.Colors = append([]string(nil), i.Colors...)
	return i
}

func (TextItem) Kind() ItemKind   { return KindText }
func (t TextItem) Base() ItemBase { return t.ItemBase }

func (t TextItem) withBase(b ItemBase) Item {
	t.ItemBase = b
	return t
}

// DefaultTextStyle is the style a freshly added text note starts with.
func DefaultTextStyle() TextStyle {
	return TextStyle{
		FontSize:        16,
		FontWeight:      "normal",
		Color:           "#000000",
		BackgroundColor: TransparentColor,
		TextAlign:       "left",
	}
}

// NewTextItem creates a text note at the given position with the default
// style and a fresh id. The zIndex is assigned when the item joins a board.
func NewTextItem(content string, pos Position) TextItem {
	return TextItem{
		ItemBase: ItemBase{
			ID:       uuid.NewString(),
			Position: pos,
			Size:     Size{Width: 200, Height: 100},
		},
		Content: content,
		Style:   DefaultTextStyle(),
	}
}

// NewImageItem creates an image pin for an uploaded source URL. The colors
// slice is the extracted palette; the item keeps its own copy.
func NewImageItem(src string, pos Position, colors []string) ImageItem {
	return ImageItem{
		ItemBase: ItemBase{
			ID:       uuid.NewString(),
			Position: pos,
			Size:     Size{Width: 250, Height: 250},
		},
		Src:    src,
		Colors: append([]string(nil), colors...),
	}
}

// WithPosition returns a copy of it moved to pos.
func WithPosition(it Item, pos Position) Item {
	b := it.Base()
	b.Position = pos
	return it.withBase(b)
}

// WithSize returns a copy of it resized to s, clamped to the minimum
// dimensions. The position is taken alongside because resize handles can
// move the item origin.
func WithSize(it Item, pos Position, s Size) Item {
	b := it.Base()
	b.Position = pos
	b.Size = ClampSize(s)
	return it.withBase(b)
}

// WithRotation returns a copy of it rotated to deg, normalized into [0, 360).
func WithRotation(it Item, deg float64) Item {
	b := it.Base()
	b.Rotation = NormalizeRotation(deg)
	return it.withBase(b)
}

// WithZIndex returns a copy of it at the given paint order.
func WithZIndex(it Item, z int) Item {
	b := it.Base()
	b.ZIndex = z
	return it.withBase(b)
}

// WithStyle returns a copy of the item with its text style replaced. The
// font size is clamped into the editable range. Non-text items are
// returned unchanged; style edits only ever target text notes.
func WithStyle(it Item, style TextStyle) Item {
	t, ok := it.(TextItem)
	if !ok {
		return it
	}
	style.FontSize = ClampFontSize(style.FontSize)
	t.Style = style
	return t
}

// WithContent returns a copy of a text item with its content replaced.
func WithContent(it Item, content string) Item {
	t, ok := it.(TextItem)
	if !ok {
		return it
	}
	t.Content = content
	return t
}

// Duplicate returns a copy of it with a fresh id, offset by the fixed
// duplicate delta, painted above maxZ. Everything else is preserved.
func Duplicate(it Item, maxZ int) Item {
	b := it.Base()
	b.ID = uuid.NewString()
	b.Position.X += DuplicateOffset
	b.Position.Y += DuplicateOffset
	b.ZIndex = maxZ + 1
	return it.withBase(b)
}

// itemWire is the JSON shape shared with the original browser client.
type itemWire struct {
	ID       string     `json:"id"`
	Type     ItemKind   `json:"type"`
	Position Position   `json:"position"`
	Size     Size       `json:"size"`
	ZIndex   int        `json:"zIndex"`
	Rotation float64    `json:"rotation"`
	Src      string     `json:"src,omitempty"`
	Colors   []string   `json:"colors,omitempty"`
	Content  string     `json:"content,omitempty"`
	Style    *TextStyle `json:"style,omitempty"`
}

func (i ImageItem) MarshalJSON() ([]byte, error) {
	return json.Marshal(itemWire{
		ID:       i.ID,
		Type:     KindImage,
		Position: i.Position,
		Size:     i.Size,
		ZIndex:   i.ZIndex,
		Rotation: i.Rotation,
		Src:      i.Src,
		Colors:   i.Colors,
	})
}

func (t TextItem) MarshalJSON() ([]byte, error) {
	style := t.Style
	return json.Marshal(itemWire{
		ID:       t.ID,
		Type:     KindText,
		Position: t.Position,
		Size:     t.Size,
		ZIndex:   t.ZIndex,
		Rotation: t.Rotation,
		Content:  t.Content,
		Style:    &style,
	})
}

// ItemList is an ordered-by-insertion collection of items that knows how
// to decode the tagged union form.
type ItemList []Item

func (l *ItemList) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	items := make(ItemList, 0, len(raw))
	for _, entry := range raw {
		var w itemWire
		if err := json.Unmarshal(entry, &w); err != nil {
			return err
		}
		base := ItemBase{
			ID:       w.ID,
			Position: w.Position,
			Size:     w.Size,
			ZIndex:   w.ZIndex,
			Rotation: w.Rotation,
		}
		switch w.Type {
		case KindImage:
			items = append(items, ImageItem{ItemBase: base, Src: w.Src, Colors: w.Colors})
		case KindText:
			style := DefaultTextStyle()
			if w.Style != nil {
				style = *w.Style
			}
			items = append(items, TextItem{ItemBase: base, Content: w.Content, Style: style})
		default:
			return fmt.Errorf("unknown item type %q", w.Type)
		}
	}
	*l = items
	return nil
}
