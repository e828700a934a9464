package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRandomArt(t *testing.T) {
	art := RandomArt("BLS12-381", []byte{0x00, 0x00, 0xff})
	lines := strings.Split(strings.TrimSuffix(art, "\n"), "\n")
	require.Len(t, lines, artHeight+2)
	for _, l := range lines {
		require.Len(t, l, artWidth+2)
	}
	require.Equal(t, "+---[BLS12-381]---+", lines[0])
	require.Equal(t, "+"+strings.Repeat("-", artWidth)+"+", lines[len(lines)-1])
	body := strings.Join(lines[1:len(lines)-1], "")
	require.Equal(t, 1, strings.Count(body, "S"))
	require.Equal(t, 1, strings.Count(body, "E"))

	// deterministic
	require.Equal(t, art, RandomArt("BLS12-381", []byte{0x00, 0x00, 0xff}))
	require.NotEqual(t, art, RandomArt("BLS12-381", []byte{0x01, 0x00, 0xff}))

	// the end marker wins when the walk returns to the start
	empty := RandomArt("", nil)
	require.Contains(t, empty, "E")
	require.NotContains(t, empty, "S")
}
