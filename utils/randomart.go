package utils

import (
	"strings"
)

const (
	artHeight = 9
	artWidth  = 17
	artSyms   = " .o+=*BOX@%&#/^"
	artStart  = 'S'
	artEnd    = 'E'
)

// RandomArt draws the digest as an OpenSSH style "drunken bishop" picture
func RandomArt(title string, digest []byte) string {
	var field [artHeight][artWidth]int
	x, y := artWidth/2, artHeight/2

	for _, b := range digest {
		for range 4 {
			if b&1 != 0 {
				x++
			} else {
				x--
			}
			if b&2 != 0 {
				y++
			} else {
				y--
			}
			x = min(max(x, 0), artWidth-1)
			y = min(max(y, 0), artHeight-1)
			if field[y][x] < len(artSyms)-1 {
				field[y][x]++
			}
			b >>= 2
		}
	}

	var out strings.Builder
	out.WriteString(artBorder(title))
	for row := range artHeight {
		out.WriteByte('|')
		for col := range artWidth {
			switch {
			case row == y && col == x:
				out.WriteByte(artEnd)
			case row == artHeight/2 && col == artWidth/2:
				out.WriteByte(artStart)
			default:
				out.WriteByte(artSyms[field[row][col]])
			}
		}
		out.WriteString("|\n")
	}
	out.WriteString(artBorder(""))
	return out.String()
}

func artBorder(title string) string {
	if title == "" {
		return "+" + strings.Repeat("-", artWidth) + "+\n"
	}
	if len(title) > artWidth-2 {
		title = title[:artWidth-2]
	}
	title = "[" + title + "]"
	left := (artWidth - len(title)) / 2
	right := artWidth - len(title) - left
	return "+" + strings.Repeat("-", left) + title + strings.Repeat("-", right) + "+\n"
}
