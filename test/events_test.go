package test

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAssertEvents(t *testing.T) {
	ch := make(chan string, 3)
	ch <- "begin"
	ch <- "end"
	require.True(t, AssertEvents(t, ch, "begin", "end"))

	ch <- "begin"
	ch <- "physics"
	close(ch)
	require.True(t, AssertForefrontEvents(t, ch, "begin"))
	require.True(t, AssertEvents(t, ch, "physics"))
}
