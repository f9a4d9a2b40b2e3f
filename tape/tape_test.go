package tape

import (
	"testing"

	"github.com/ribbon-lang/ribbon/errz"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	tp, err := New(DefaultSize)
	require.Nil(t, err)
	require.Equal(t, 30000, tp.Len())
	require.Equal(t, byte(0), tp.Cell(0))
	require.Equal(t, byte(0), tp.Cell(29999))

	_, err = New(0)
	require.Error(t, err)
	_, err = New(-4)
	require.Error(t, err)
}

func TestIncrementOverflow(t *testing.T) {
	tp, err := New(1)
	require.Nil(t, err)
	for i := 0; i < 255; i++ {
		require.Nil(t, tp.Increment(0, 1))
	}
	require.Equal(t, byte(255), tp.Cell(0))

	err = tp.Increment(0, 1)
	require.ErrorIs(t, err, errz.ErrCellOverflow)
	require.Equal(t, byte(255), tp.Cell(0))
}

func TestIncrementCounted(t *testing.T) {
	tp, err := New(1)
	require.Nil(t, err)
	require.Nil(t, tp.Increment(0, 200))
	require.Error(t, tp.Increment(0, 56))
	require.Equal(t, byte(200), tp.Cell(0))
	require.Nil(t, tp.Increment(0, 55))
	require.Equal(t, byte(255), tp.Cell(0))
}

func TestDecrementUnderflow(t *testing.T) {
	tp, err := New(2)
	require.Nil(t, err)
	err = tp.Decrement(1, 1)
	require.ErrorIs(t, err, errz.ErrCellOverflow)
	require.Equal(t, byte(0), tp.Cell(1))

	tp.Set(1, 3)
	require.Nil(t, tp.Decrement(1, 3))
	require.Equal(t, byte(0), tp.Cell(1))
}

func TestAdvance(t *testing.T) {
	tp, err := New(3)
	require.Nil(t, err)

	cursor, err := tp.Advance(0, 2)
	require.Nil(t, err)
	require.Equal(t, 2, cursor)

	cursor, err = tp.Advance(cursor, 1)
	require.ErrorIs(t, err, errz.ErrCursorOutOfBounds)
	require.Equal(t, 2, cursor)
}

func TestRetreatSaturates(t *testing.T) {
	tp, err := New(10)
	require.Nil(t, err)
	require.Equal(t, 0, tp.Retreat(0, 1))
	require.Equal(t, 0, tp.Retreat(3, 7))
	require.Equal(t, 2, tp.Retreat(5, 3))
}

func TestWindow(t *testing.T) {
	tp, err := New(5)
	require.Nil(t, err)
	for i := 0; i < 5; i++ {
		tp.Set(i, byte(i+1))
	}
	start, cells := tp.Window(0, 2)
	require.Equal(t, 0, start)
	require.Equal(t, []byte{1, 2, 3}, cells)

	start, cells = tp.Window(4, 1)
	require.Equal(t, 3, start)
	require.Equal(t, []byte{4, 5}, cells)

	// Returned cells are a copy.
	cells[0] = 99
	require.Equal(t, byte(4), tp.Cell(3))
}

func TestBytesAndReset(t *testing.T) {
	tp, err := New(4)
	require.Nil(t, err)
	tp.Bytes()[2] = 7
	require.Equal(t, byte(7), tp.Cell(2))
	tp.Reset()
	require.Equal(t, []byte{0, 0, 0, 0}, tp.Bytes())
}
