package errz

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSuggest(t *testing.T) {
	keywords := []string{"debug", "decr", "getch", "incr", "loop", "make", "putch"}
	require.Equal(t, []string{"putch"}, Suggest("putc", keywords))
	require.Equal(t, []string{"getch", "putch"}, Suggest("gatch", keywords))
	require.Equal(t, []string{"incr"}, Suggest("INC", keywords))
	require.Empty(t, Suggest("xyzzy", keywords))
	require.Empty(t, Suggest("", keywords))
	require.Empty(t, Suggest("loop", keywords))
}

func TestDidYouMean(t *testing.T) {
	require.Equal(t, "", DidYouMean(nil))
	require.Equal(t, "did you mean 'putch'?", DidYouMean([]string{"putch"}))
	require.Equal(t, "did you mean one of 'getch', 'putch'?", DidYouMean([]string{"getch", "putch"}))
}

func TestEditDistance(t *testing.T) {
	require.Equal(t, 0, editDistance("idx", "idx"))
	require.Equal(t, 3, editDistance("", "idx"))
	require.Equal(t, 1, editDistance("tape", "tap"))
	require.Equal(t, 3, editDistance("kitten", "sitting"))
}
