package chord

import (
	"fmt"
	"strconv"
)

// Key is a platform-independent key identifier.
// Native scan/virtual key codes are translated at the hook boundary.
type Key uint16

// KeyUnknown is reported for native codes without a mapping. It never matches a chord.
const KeyUnknown Key = 0

const (
	KeyA Key = iota + 1
	KeyB
	KeyC
	KeyD
	KeyE
	KeyF
	KeyG
	KeyH
	KeyI
	KeyJ
	KeyK
	KeyL
	KeyM
	KeyN
	KeyO
	KeyP
	KeyQ
	KeyR
	KeyS
	KeyT
	KeyU
	KeyV
	KeyW
	KeyX
	KeyY
	KeyZ

	Key0
	Key1
	Key2
	Key3
	Key4
	Key5
	Key6
	Key7
	Key8
	Key9

	KeyF1
	KeyF2
	KeyF3
	KeyF4
	KeyF5
	KeyF6
	KeyF7
	KeyF8
	KeyF9
	KeyF10
	KeyF11
	KeyF12

	KeyGrave
	KeyMinus
	KeyEqual
	KeyLeftBracket
	KeyRightBracket
	KeyBackslash
	KeySemicolon
	KeyQuote
	KeyComma
	KeyPeriod
	KeySlash

	KeySpace
	KeyTab
	KeyEnter
	KeyBackspace
	KeyDelete
	KeyEscape
	KeyInsert
	KeyHome
	KeyEnd
	KeyPageUp
	KeyPageDown
	KeyLeft
	KeyUp
	KeyRight
	KeyDown

	KeyNumpad0
	KeyNumpad1
	KeyNumpad2
	KeyNumpad3
	KeyNumpad4
	KeyNumpad5
	KeyNumpad6
	KeyNumpad7
	KeyNumpad8
	KeyNumpad9
	KeyNumpadAdd
	KeyNumpadSubtract

	keyCount
)

// keyNames holds the canonical token for each key, used by Parse and String.
var keyNames = map[Key]string{
	KeyGrave:          "grave",
	KeyMinus:          "minus",
	KeyEqual:          "equal",
	KeyLeftBracket:    "lbracket",
	KeyRightBracket:   "rbracket",
	KeyBackslash:      "backslash",
	KeySemicolon:      "semicolon",
	KeyQuote:          "quote",
	KeyComma:          "comma",
	KeyPeriod:         "period",
	KeySlash:          "slash",
	KeySpace:          "space",
	KeyTab:            "tab",
	KeyEnter:          "enter",
	KeyBackspace:      "backspace",
	KeyDelete:         "delete",
	KeyEscape:         "esc",
	KeyInsert:         "insert",
	KeyHome:           "home",
	KeyEnd:            "end",
	KeyPageUp:         "pageup",
	KeyPageDown:       "pagedown",
	KeyLeft:           "left",
	KeyUp:             "up",
	KeyRight:          "right",
	KeyDown:           "down",
	KeyNumpadAdd:      "kpadd",
	KeyNumpadSubtract: "kpsubtract",
}

// displayNames overrides the label shown to users where it differs from the token.
var displayNames = map[Key]string{
	KeyGrave:        "`",
	KeyMinus:        "-",
	KeyEqual:        "=",
	KeyLeftBracket:  "[",
	KeyRightBracket: "]",
	KeyBackslash:    "\\",
	KeySemicolon:    ";",
	KeyQuote:        "'",
	KeyComma:        ",",
	KeyPeriod:       ".",
	KeySlash:        "/",
	KeySpace:        "Space",
	KeyTab:          "Tab",
	KeyEnter:        "Enter",
	KeyBackspace:    "Backspace",
	KeyDelete:       "Del",
	KeyEscape:       "Esc",
	KeyInsert:       "Ins",
	KeyHome:         "Home",
	KeyEnd:          "End",
	KeyPageUp:       "PgUp",
	KeyPageDown:     "PgDn",
	KeyLeft:         "Left",
	KeyUp:           "Up",
	KeyRight:        "Right",
	KeyDown:         "Down",
}

// keyAliases maps additional accepted tokens to keys.
var keyAliases = map[string]Key{
	"`":         KeyGrave,
	"backtick":  KeyGrave,
	"backquote": KeyGrave,
	"tilde":     KeyGrave,
	"-":         KeyMinus,
	"=":         KeyEqual,
	"[":         KeyLeftBracket,
	"]":         KeyRightBracket,
	";":         KeySemicolon,
	"'":         KeyQuote,
	",":         KeyComma,
	".":         KeyPeriod,
	"/":         KeySlash,
	"return":    KeyEnter,
	"escape":    KeyEscape,
	"del":       KeyDelete,
	"ins":       KeyInsert,
	"pgup":      KeyPageUp,
	"pgdn":      KeyPageDown,
	"add":       KeyNumpadAdd,
	"plus":      KeyNumpadAdd,
	"subtract":  KeyNumpadSubtract,
	"kpminus":   KeyNumpadSubtract,
	"numpadadd": KeyNumpadAdd,
	"numpadsub": KeyNumpadSubtract,
}

// Valid reports whether k is a known key.
func (k Key) Valid() bool {
	return k > KeyUnknown && k < keyCount
}

// Token returns the canonical lower-case token accepted by Parse.
func (k Key) Token() string {
	switch {
	case k >= KeyA && k <= KeyZ:
		return string(rune('a' + int(k-KeyA)))
	case k >= Key0 && k <= Key9:
		return string(rune('0' + int(k-Key0)))
	case k >= KeyF1 && k <= KeyF12:
		return "f" + strconv.Itoa(int(k-KeyF1)+1)
	case k >= KeyNumpad0 && k <= KeyNumpad9:
		return "numpad" + strconv.Itoa(int(k-KeyNumpad0))
	}
	if name, ok := keyNames[k]; ok {
		return name
	}
	return fmt.Sprintf("key(%d)", uint16(k))
}

// String returns the user-facing label of the key.
func (k Key) String() string {
	switch {
	case k >= KeyA && k <= KeyZ:
		return string(rune('A' + int(k-KeyA)))
	case k >= KeyF1 && k <= KeyF12:
		return "F" + strconv.Itoa(int(k-KeyF1)+1)
	case k >= KeyNumpad0 && k <= KeyNumpad9:
		return "Num" + strconv.Itoa(int(k-KeyNumpad0))
	case k == KeyNumpadAdd:
		return "Num+"
	case k == KeyNumpadSubtract:
		return "Num-"
	}
	if name, ok := displayNames[k]; ok {
		return name
	}
	return k.Token()
}

// lookupKey resolves a lower-case token to a key.
func lookupKey(token string) (Key, bool) {
	if len(token) == 1 {
		ch := token[0]
		if ch >= 'a' && ch <= 'z' {
			return KeyA + Key(ch-'a'), true
		}
		if ch >= '0' && ch <= '9' {
			return Key0 + Key(ch-'0'), true
		}
	}
	if k, ok := keyAliases[token]; ok {
		return k, true
	}
	for k, name := range keyNames {
		if name == token {
			return k, true
		}
	}
	if len(token) > 1 && token[0] == 'f' {
		if n, err := strconv.Atoi(token[1:]); err == nil && n >= 1 && n <= 12 {
			return KeyF1 + Key(n-1), true
		}
	}
	for _, prefix := range []string{"numpad", "num", "kp"} {
		if len(token) == len(prefix)+1 && token[:len(prefix)] == prefix {
			if d := token[len(prefix)]; d >= '0' && d <= '9' {
				return KeyNumpad0 + Key(d-'0'), true
			}
		}
	}
	return KeyUnknown, false
}
