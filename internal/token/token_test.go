package token

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLookup(t *testing.T) {
	for key, val := range keywords {
		require.Equal(t, val, LookupIdentifier(key))
		// Keywords are case sensitive.
		require.Equal(t, IDENT, LookupIdentifier(strings.ToUpper(key)))
		require.True(t, IsKeyword(key))
	}
	require.Equal(t, IDENT, LookupIdentifier("tape"))
	require.False(t, IsKeyword("idx"))
}

func TestPosition(t *testing.T) {
	tok := Token{
		Type:    IDENT,
		Literal: "foo",
		StartPosition: Position{
			Line:   2,
			Column: 0,
		},
	}
	// Switches to 1-indexed
	require.Equal(t, 3, tok.StartPosition.LineNumber())
	require.Equal(t, 1, tok.StartPosition.ColumnNumber())
}

func TestKeywords(t *testing.T) {
	require.Equal(t, []string{"debug", "decr", "getch", "incr", "loop", "make", "putch"}, Keywords())
}
