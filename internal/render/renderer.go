package render

import (
	"math"
	"strings"

	"dialogue-sequencer/internal/subtitle"

	"github.com/gdamore/tcell/v2"
	"github.com/mattn/go-runewidth"
)

// HUDRows is the number of rows reserved at the bottom for the HUD.
const HUDRows = 3

// Surface is the part of tcell.Screen the renderer draws on.
type Surface interface {
	Size() (width, height int)
	SetContent(x, y int, primary rune, combining []rune, style tcell.Style)
}

// Renderer draws the current subtitle and the HUD onto a screen.
type Renderer struct {
	screen Surface
}

// NewRenderer creates a Renderer for the given screen.
func NewRenderer(screen Surface) *Renderer {
	return &Renderer{screen: screen}
}

// viewport is the area above the HUD.
func (r *Renderer) viewport() (int, int) {
	w, h := r.screen.Size()
	return w, max(h-HUDRows, 1)
}

// DrawSubtitle renders one segment. Reserved coordinates are resolved
// against the viewport; real coordinates are cell positions.
func (r *Renderer) DrawSubtitle(v subtitle.View) {
	if v.Color.A == 0 {
		return
	}
	vw, vh := r.viewport()
	lines := Wrap(v.Text, max(vw*2/3, 8))
	if len(lines) == 0 {
		return
	}
	box := Layout(v, lines, vw, vh)
	style := textStyle(v.Color)

	switch v.Style {
	case subtitle.StyleRectangle:
		r.drawBox(box, style)
	case subtitle.StyleTalk:
		r.drawTail(box, style)
	}
	for i, line := range lines {
		// Centre each line inside the block.
		pad := (box.TextW - runewidth.StringWidth(line)) / 2
		r.drawText(box.X+pad, box.Y+i, line, style)
	}
}

// Box is where a segment's text block lands on screen.
type Box struct {
	X, Y  int // top-left cell of the text
	TextW int // widest line in cells
	TextH int // number of lines
}

// Layout places lines of text for v inside a vw×vh viewport.
func Layout(v subtitle.View, lines []string, vw, vh int) Box {
	b := Box{TextH: len(lines)}
	for _, l := range lines {
		b.TextW = max(b.TextW, runewidth.StringWidth(l))
	}

	switch v.X {
	case subtitle.PosCenter, subtitle.PosSubtitle:
		b.X = (vw - b.TextW) / 2
	default:
		b.X = int(math.Floor(v.X))
	}
	switch v.Y {
	case subtitle.PosCenter:
		b.Y = (vh - b.TextH) / 2
	case subtitle.PosSubtitle:
		// Leave one row for a box border below the text.
		b.Y = vh - b.TextH - 1
	default:
		b.Y = int(math.Floor(v.Y))
	}

	// Keep the block (plus a one-cell border) on screen.
	b.X = clamp(b.X, 1, max(vw-b.TextW-1, 1))
	b.Y = clamp(b.Y, 1, max(vh-b.TextH-1, 1))
	return b
}

// Wrap breaks text into lines no wider than width cells, honouring
// explicit newlines. Words wider than width are hard-split.
func Wrap(text string, width int) []string {
	if text == "" {
		return nil
	}
	var out []string
	for _, para := range strings.Split(text, "\n") {
		words := strings.Fields(para)
		if len(words) == 0 {
			out = append(out, "")
			continue
		}
		line := ""
		for _, w := range words {
			for runewidth.StringWidth(w) > width {
				if line != "" {
					out = append(out, line)
					line = ""
				}
				head := runewidth.Truncate(w, width, "")
				if head == "" {
					// A single rune wider than width.
					head = string([]rune(w)[:1])
				}
				out = append(out, head)
				w = w[len(head):]
			}
			switch {
			case w == "":
			case line == "":
				line = w
			case runewidth.StringWidth(line)+1+runewidth.StringWidth(w) <= width:
				line += " " + w
			default:
				out = append(out, line)
				line = w
			}
		}
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}

// drawBox frames the text block for the rectangle style.
func (r *Renderer) drawBox(b Box, style tcell.Style) {
	x0, y0 := b.X-1, b.Y-1
	x1, y1 := b.X+b.TextW, b.Y+b.TextH
	for x := x0 + 1; x < x1; x++ {
		r.screen.SetContent(x, y0, '─', nil, style)
		r.screen.SetContent(x, y1, '─', nil, style)
	}
	for y := y0 + 1; y < y1; y++ {
		r.screen.SetContent(x0, y, '│', nil, style)
		r.screen.SetContent(x1, y, '│', nil, style)
	}
	r.screen.SetContent(x0, y0, '┌', nil, style)
	r.screen.SetContent(x1, y0, '┐', nil, style)
	r.screen.SetContent(x0, y1, '└', nil, style)
	r.screen.SetContent(x1, y1, '┘', nil, style)
}

// drawTail marks talk text with a speech tail under its first column.
func (r *Renderer) drawTail(b Box, style tcell.Style) {
	r.screen.SetContent(b.X, b.Y+b.TextH, '▾', nil, style)
}

// drawText writes text starting at (x, y), advancing by each rune's cell
// width.
func (r *Renderer) drawText(x, y int, text string, style tcell.Style) {
	col := x
	for _, ch := range text {
		w := runewidth.RuneWidth(ch)
		if w == 0 {
			continue
		}
		r.screen.SetContent(col, y, ch, nil, style)
		if w == 2 {
			// Fill the second column to avoid rendering artifacts.
			r.screen.SetContent(col+1, y, ' ', nil, style)
		}
		col += w
	}
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}
