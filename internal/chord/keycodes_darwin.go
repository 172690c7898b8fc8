//go:build darwin

package chord

// nativeKeys maps keys to Carbon kVK_* codes as reported by CGEvent.
// The ANSI layout codes are not contiguous, so every entry is listed.
var nativeKeys = map[Key]uint32{
	KeyA: 0x00, KeyS: 0x01, KeyD: 0x02, KeyF: 0x03, KeyH: 0x04,
	KeyG: 0x05, KeyZ: 0x06, KeyX: 0x07, KeyC: 0x08, KeyV: 0x09,
	KeyB: 0x0B, KeyQ: 0x0C, KeyW: 0x0D, KeyE: 0x0E, KeyR: 0x0F,
	KeyY: 0x10, KeyT: 0x11, KeyO: 0x1F, KeyU: 0x20, KeyI: 0x22,
	KeyP: 0x23, KeyL: 0x25, KeyJ: 0x26, KeyK: 0x28, KeyN: 0x2D,
	KeyM: 0x2E,

	Key1: 0x12, Key2: 0x13, Key3: 0x14, Key4: 0x15, Key5: 0x17,
	Key6: 0x16, Key7: 0x1A, Key8: 0x1C, Key9: 0x19, Key0: 0x1D,

	KeyF1: 0x7A, KeyF2: 0x78, KeyF3: 0x63, KeyF4: 0x76,
	KeyF5: 0x60, KeyF6: 0x61, KeyF7: 0x62, KeyF8: 0x64,
	KeyF9: 0x65, KeyF10: 0x6D, KeyF11: 0x67, KeyF12: 0x6F,

	KeyGrave:        0x32,
	KeyMinus:        0x1B,
	KeyEqual:        0x18,
	KeyLeftBracket:  0x21,
	KeyRightBracket: 0x1E,
	KeyBackslash:    0x2A,
	KeySemicolon:    0x29,
	KeyQuote:        0x27,
	KeyComma:        0x2B,
	KeyPeriod:       0x2F,
	KeySlash:        0x2C,

	KeySpace:     0x31,
	KeyTab:       0x30,
	KeyEnter:     0x24,
	KeyBackspace: 0x33,
	KeyDelete:    0x75,
	KeyEscape:    0x35,
	KeyInsert:    0x72, // kVK_Help sits where Insert is on PC keyboards
	KeyHome:      0x73,
	KeyEnd:       0x77,
	KeyPageUp:    0x74,
	KeyPageDown:  0x79,
	KeyLeft:      0x7B,
	KeyRight:     0x7C,
	KeyDown:      0x7D,
	KeyUp:        0x7E,

	KeyNumpad0: 0x52, KeyNumpad1: 0x53, KeyNumpad2: 0x54, KeyNumpad3: 0x55,
	KeyNumpad4: 0x56, KeyNumpad5: 0x57, KeyNumpad6: 0x58, KeyNumpad7: 0x59,
	KeyNumpad8: 0x5B, KeyNumpad9: 0x5C,

	KeyNumpadAdd:      0x45,
	KeyNumpadSubtract: 0x4E,
}
