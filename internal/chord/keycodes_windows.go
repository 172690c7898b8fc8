//go:build windows

package chord

// nativeKeys maps keys to Win32 virtual-key codes.
var nativeKeys = func() map[Key]uint32 {
	m := map[Key]uint32{
		KeyGrave:          0xC0, // VK_OEM_3
		KeyMinus:          0xBD,
		KeyEqual:          0xBB,
		KeyLeftBracket:    0xDB,
		KeyRightBracket:   0xDD,
		KeyBackslash:      0xDC,
		KeySemicolon:      0xBA,
		KeyQuote:          0xDE,
		KeyComma:          0xBC,
		KeyPeriod:         0xBE,
		KeySlash:          0xBF,
		KeySpace:          0x20,
		KeyTab:            0x09,
		KeyEnter:          0x0D,
		KeyBackspace:      0x08,
		KeyDelete:         0x2E,
		KeyEscape:         0x1B,
		KeyInsert:         0x2D,
		KeyHome:           0x24,
		KeyEnd:            0x23,
		KeyPageUp:         0x21,
		KeyPageDown:       0x22,
		KeyLeft:           0x25,
		KeyUp:             0x26,
		KeyRight:          0x27,
		KeyDown:           0x28,
		KeyNumpadAdd:      0x6B,
		KeyNumpadSubtract: 0x6D,
	}
	for i := Key(0); i < 26; i++ {
		m[KeyA+i] = 0x41 + uint32(i)
	}
	for i := Key(0); i < 10; i++ {
		m[Key0+i] = 0x30 + uint32(i)
		m[KeyNumpad0+i] = 0x60 + uint32(i)
	}
	for i := Key(0); i < 12; i++ {
		m[KeyF1+i] = 0x70 + uint32(i)
	}
	return m
}()
