package core

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned by stores when a moodboard does not exist (or
// does not belong to the requesting user). Mutating against it means the
// board was deleted server-side; handlers map it to 404 and the editing
// session closes the board.
var ErrNotFound = errors.New("moodboard not found")

// ErrInvalidColor marks a rejected background/text color. Validation
// errors never reach the store.
var ErrInvalidColor = errors.New("invalid hex color")

// DuplicateIDError signals an AddItem with an id already on the board.
// It indicates a logic bug: item ids are freshly generated and the
// editing surface can never produce this.
type DuplicateIDError struct {
	ID string
}

func (e *DuplicateIDError) Error() string {
	return fmt.Sprintf("item with id %s already on board", e.ID)
}
