package supervisor

import "fmt"

const (
	minTerminalCols = 20
	minTerminalRows = 5
	maxTerminalCols = 500
	maxTerminalRows = 200

	// defaultCols/defaultRows is the grid spec.md mandates when a spawn
	// config omits explicit dimensions.
	defaultCols = 80
	defaultRows = 24
)

func validateTerminalSize(cols, rows int) error {
	if cols < minTerminalCols || cols > maxTerminalCols {
		return fmt.Errorf("invalid cols: %d", cols)
	}
	if rows < minTerminalRows || rows > maxTerminalRows {
		return fmt.Errorf("invalid rows: %d", rows)
	}
	return nil
}

func clampTerminalSize(cols, rows int) (int, int) {
	if cols <= 0 {
		cols = defaultCols
	}
	if rows <= 0 {
		rows = defaultRows
	}
	if cols < minTerminalCols {
		cols = minTerminalCols
	}
	if rows < minTerminalRows {
		rows = minTerminalRows
	}
	if cols > maxTerminalCols {
		cols = maxTerminalCols
	}
	if rows > maxTerminalRows {
		rows = maxTerminalRows
	}
	return cols, rows
}
