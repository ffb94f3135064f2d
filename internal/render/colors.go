package render

import (
	"dialogue-sequencer/internal/subtitle"

	"github.com/gdamore/tcell/v2"
)

// TermColor converts a segment colour to a terminal colour. Terminals have
// no alpha channel, so translucent colours are drawn dimmed instead.
func TermColor(c subtitle.Color) tcell.Color {
	return tcell.NewRGBColor(int32(c.R), int32(c.G), int32(c.B))
}

func textStyle(c subtitle.Color) tcell.Style {
	style := tcell.StyleDefault.Foreground(TermColor(c)).Background(tcell.ColorBlack)
	if c.A < 128 {
		style = style.Dim(true)
	}
	return style
}

// HUD colours.
var (
	hudLineColor   = tcell.ColorGray
	hudStatusColor = tcell.ColorWhite
	hudHelpColor   = tcell.ColorDarkGray
	hudIdleColor   = tcell.NewRGBColor(120, 120, 120)
	hudActiveColor = tcell.NewRGBColor(150, 220, 255)
	hudPausedColor = tcell.NewRGBColor(255, 200, 50)
)
