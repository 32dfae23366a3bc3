package httpapi

import "github.com/mattn/go-runewidth"

// elidedDisplayWidth is the terminal-cell budget a tab-bar label gets
// before this package elides it; wide (e.g. CJK) runes count as 2 cells,
// so a plain len()/slice would over- or under-truncate for non-ASCII
// names.
const elidedDisplayWidth = 24

// elideDisplayName truncates name to fit within elidedDisplayWidth
// terminal cells, appending an ellipsis when it had to cut anything.
func elideDisplayName(name string) string {
	if runewidth.StringWidth(name) <= elidedDisplayWidth {
		return name
	}

	const ellipsis = "…"
	budget := elidedDisplayWidth - runewidth.StringWidth(ellipsis)

	width := 0
	cut := len(name)
	for i, r := range name {
		w := runewidth.RuneWidth(r)
		if width+w > budget {
			cut = i
			break
		}
		width += w
	}

	return name[:cut] + ellipsis
}
