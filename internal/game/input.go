package game

import "github.com/gdamore/tcell/v2"

// Action represents a viewer-requested playback action.
type Action uint8

const (
	ActionNone Action = iota
	ActionSkip
	ActionPause
	ActionSave
	ActionLoad
	ActionRestart
	ActionClear
	ActionInterrupt
	ActionQuit
)

var actionNames = [...]string{
	ActionNone:      "none",
	ActionSkip:      "skip",
	ActionPause:     "pause",
	ActionSave:      "save",
	ActionLoad:      "load",
	ActionRestart:   "restart",
	ActionClear:     "clear",
	ActionInterrupt: "interrupt",
	ActionQuit:      "quit",
}

func (a Action) String() string {
	if int(a) < len(actionNames) {
		return actionNames[a]
	}
	return "unknown"
}

// keyToAction maps a tcell key event to a playback action.
func keyToAction(ev *tcell.EventKey) Action {
	// Named keys.
	switch ev.Key() {
	case tcell.KeyEnter:
		return ActionSkip
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return ActionQuit
	}

	// Rune keys.
	switch ev.Rune() {
	case ' ':
		return ActionSkip
	case 'p', 'P':
		return ActionPause
	case 's', 'S':
		return ActionSave
	case 'l', 'L':
		return ActionLoad
	case 'r', 'R':
		return ActionRestart
	case 'c', 'C':
		return ActionClear
	case 'i', 'I':
		return ActionInterrupt
	case 'q', 'Q':
		return ActionQuit
	}
	return ActionNone
}
