package tui

import (
	"strings"
	"unicode"

	"github.com/mattn/go-runewidth"

	"github.com/vovakirdan/simplechat/internal/composer"
)

// textareaRows counts the rows the textarea shows for text at width cells. It wraps
// at word boundaries like the textarea does, including the trailing cell the
// textarea keeps free for the cursor.
func textareaRows(text string, width int) int {
	if width <= 0 {
		return composer.VisualRows(text, width)
	}
	rows := 0
	for _, line := range strings.Split(text, "\n") {
		rows += wrappedRows([]rune(line), width)
	}
	return rows
}

func wrappedRows(line []rune, width int) int {
	var (
		rows      = 1
		rowWidth  int
		rowRunes  int
		word      []rune
		wordWidth int
		spaces    int
	)
	for _, r := range line {
		if unicode.IsSpace(r) {
			spaces++
		} else {
			word = append(word, r)
			wordWidth = runewidth.StringWidth(string(word))
		}

		if spaces > 0 {
			if rowWidth+wordWidth+spaces > width {
				rows++
				rowWidth, rowRunes = 0, 0
			}
			rowWidth += wordWidth + spaces
			rowRunes += len(word) + spaces
			word, wordWidth, spaces = word[:0], 0, 0
			continue
		}

		// a word wider than the row is broken; a double-width last rune needs room
		if wordWidth+runewidth.RuneWidth(word[len(word)-1]) > width {
			if rowRunes > 0 {
				rows++
			}
			rowWidth, rowRunes = wordWidth, len(word)
			word, wordWidth = word[:0], 0
		}
	}

	if rowWidth+wordWidth+spaces >= width {
		rows++
	}
	return rows
}
