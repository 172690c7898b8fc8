package hotkey

import (
	"golang.design/x/hotkey"

	"desklock/internal/chord"
)

var modMap = map[chord.Modifiers]hotkey.Modifier{
	chord.ModCtrl:  hotkey.ModCtrl,
	chord.ModShift: hotkey.ModShift,
	chord.ModAlt:   hotkey.ModAlt,
	chord.ModMeta:  hotkey.ModWin,
}
