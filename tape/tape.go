// Package tape implements the fixed-size byte cell buffer that Ribbon programs
// operate on.
//
// Cells are unsigned bytes. Incrementing a cell holding 255 or decrementing a
// cell holding 0 is an overflow and leaves the cell unchanged. Cursor moves
// are checked by Advance and Retreat: moving past the last cell is a bounds
// error, while moving before the first cell stops at index 0.
package tape

import (
	"fmt"

	"github.com/ribbon-lang/ribbon/errz"
)

// DefaultSize is the number of cells allocated when a program does not
// declare a tape size.
const DefaultSize = 30000

// Tape is a zero-initialized sequence of byte cells.
type Tape struct {
	cells []byte
}

// New returns a tape with size zeroed cells.
func New(size int) (*Tape, error) {
	if size <= 0 {
		return nil, fmt.Errorf("invalid tape size: %d", size)
	}
	return &Tape{cells: make([]byte, size)}, nil
}

// Len returns the number of cells.
func (t *Tape) Len() int {
	return len(t.cells)
}

// Cell returns the value of cell i.
func (t *Tape) Cell(i int) byte {
	return t.cells[i]
}

// Set stores v in cell i.
func (t *Tape) Set(i int, v byte) {
	t.cells[i] = v
}

// Increment adds n to cell i. The cell is left unchanged when the result
// would exceed 255.
func (t *Tape) Increment(i, n int) error {
	v := int(t.cells[i]) + n
	if v > 255 {
		return errz.NewRuntimeError(errz.ErrOverflow,
			"cell %d overflowed: %d + %d exceeds 255", i, t.cells[i], n)
	}
	t.cells[i] = byte(v)
	return nil
}

// Decrement subtracts n from cell i. The cell is left unchanged when the
// result would be negative.
func (t *Tape) Decrement(i, n int) error {
	v := int(t.cells[i]) - n
	if v < 0 {
		return errz.NewRuntimeError(errz.ErrOverflow,
			"cell %d underflowed: %d - %d is below 0", i, t.cells[i], n)
	}
	t.cells[i] = byte(v)
	return nil
}

// Advance returns the cursor moved n cells to the right. Moving past the last
// cell is an error.
func (t *Tape) Advance(cursor, n int) (int, error) {
	next := cursor + n
	if next >= len(t.cells) {
		return cursor, errz.NewRuntimeError(errz.ErrBounds,
			"cursor moved to %d on a tape of %d cells", next, len(t.cells))
	}
	return next, nil
}

// Retreat returns the cursor moved n cells to the left, stopping at 0.
func (t *Tape) Retreat(cursor, n int) int {
	if n >= cursor {
		return 0
	}
	return cursor - n
}

// Bytes returns the backing cell slice. Writes through the slice are visible
// to the tape.
func (t *Tape) Bytes() []byte {
	return t.cells
}

// Window returns a copy of the cells within radius of center, along with the
// index of the first returned cell.
func (t *Tape) Window(center, radius int) (int, []byte) {
	if radius < 0 {
		radius = 0
	}
	start := center - radius
	if start < 0 {
		start = 0
	}
	end := center + radius + 1
	if end > len(t.cells) {
		end = len(t.cells)
	}
	if start >= end {
		return start, nil
	}
	out := make([]byte, end-start)
	copy(out, t.cells[start:end])
	return start, out
}

// Reset zeroes every cell.
func (t *Tape) Reset() {
	clear(t.cells)
}
