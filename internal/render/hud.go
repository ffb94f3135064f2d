package render

import (
	"fmt"

	"github.com/gdamore/tcell/v2"
	"github.com/mattn/go-runewidth"
)

// Status is what the HUD shows about the running scene.
type Status struct {
	Scene      string
	Clock      float64 // scene time
	Displaying bool
	Elapsed    float64
	Total      float64 // display time of the current segment
	Queued     int
	Paused     bool
	Message    string // last notice, e.g. "saved"
}

// DrawHUD renders the separator, status line and key help at the bottom of
// the screen.
func (r *Renderer) DrawHUD(st Status) {
	_, screenH := r.screen.Size()
	hudY := screenH - HUDRows

	r.drawHLine(hudY, hudLineColor)

	state, color := "○ idle", hudIdleColor
	if st.Displaying {
		state, color = "● showing", hudActiveColor
	}
	if st.Paused {
		state, color = "‖ paused", hudPausedColor
	}
	col := r.drawTextLen(0, hudY+1, state, tcell.StyleDefault.Foreground(color))

	line := ""
	if st.Displaying {
		line = fmt.Sprintf("  %.1fs/%.1fs", st.Elapsed, st.Total)
	}
	line += fmt.Sprintf("  queue %d  %s %.1fs", st.Queued, st.Scene, st.Clock)
	if st.Message != "" {
		line += "  " + st.Message
	}
	r.drawText(col, hudY+1, line, tcell.StyleDefault.Foreground(hudStatusColor))

	help := "[space] skip  [p] pause  [s] save  [l] load  [r] restart  [c] clear  [i] interrupt  [q] quit"
	r.drawText(0, hudY+2, help, tcell.StyleDefault.Foreground(hudHelpColor))
}

func (r *Renderer) drawHLine(y int, color tcell.Color) {
	w, _ := r.screen.Size()
	style := tcell.StyleDefault.Foreground(color)
	for x := 0; x < w; x++ {
		r.screen.SetContent(x, y, '─', nil, style)
	}
}

// drawTextLen is drawText that also returns the column after the text.
func (r *Renderer) drawTextLen(x, y int, text string, style tcell.Style) int {
	r.drawText(x, y, text, style)
	return x + runewidth.StringWidth(text)
}
