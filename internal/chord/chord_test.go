package chord

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatches(t *testing.T) {
	ctrlShiftGrave := New(KeyGrave, ModCtrl|ModShift)

	tests := []struct {
		name string
		key  Key
		mods Modifiers
		want bool
	}{
		{"exact", KeyGrave, ModCtrl | ModShift, true},
		{"caps lock ignored", KeyGrave, ModCtrl | ModShift | ModCapsLock, true},
		{"num lock and fn ignored", KeyGrave, ModCtrl | ModShift | ModNumLock | ModFn, true},
		{"missing shift", KeyGrave, ModCtrl, false},
		{"extra alt", KeyGrave, ModCtrl | ModShift | ModAlt, false},
		{"extra meta", KeyGrave, ModCtrl | ModShift | ModMeta, false},
		{"wrong key", Key1, ModCtrl | ModShift, false},
		{"unknown key", KeyUnknown, ModCtrl | ModShift, false},
		{"no modifiers", KeyGrave, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Matches(tt.key, tt.mods, ctrlShiftGrave))
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		chord   Chord
		wantErr error
	}{
		{"ctrl only", New(KeyL, ModCtrl), nil},
		{"meta only", New(KeyL, ModMeta), nil},
		{"ctrl shift", New(KeyGrave, ModCtrl|ModShift), nil},
		{"shift only", New(KeyL, ModShift), ErrMissingModifiers},
		{"alt shift", New(KeyL, ModAlt|ModShift), ErrMissingModifiers},
		{"no modifiers", New(KeyL, 0), ErrMissingModifiers},
		{"unknown key", New(KeyUnknown, ModCtrl), ErrUnknownKey},
		{"out of range key", Chord{Key: keyCount, Modifiers: ModCtrl}, ErrUnknownKey},
		{"latch bit", Chord{Key: KeyL, Modifiers: ModCtrl | ModCapsLock}, ErrInvalidChord},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.chord.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, ErrInvalidChord)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		input string
		want  Chord
	}{
		{"ctrl+shift+grave", New(KeyGrave, ModCtrl|ModShift)},
		{"Ctrl + Shift + `", New(KeyGrave, ModCtrl|ModShift)},
		{"cmd+shift+backtick", New(KeyGrave, ModMeta|ModShift)},
		{"control+option+l", New(KeyL, ModCtrl|ModAlt)},
		{"win+f12", New(KeyF12, ModMeta)},
		{"ctrl+numpad5", New(KeyNumpad5, ModCtrl)},
		{"ctrl+kp7", New(KeyNumpad7, ModCtrl)},
		{"ctrl+plus", New(KeyNumpadAdd, ModCtrl)},
		{"ctrl+f", New(KeyF, ModCtrl)},
		{"ctrl+esc", New(KeyEscape, ModCtrl)},
		{"ctrl+pagedown", New(KeyPageDown, ModCtrl)},
		{"super+9", New(Key9, ModMeta)},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := Parse(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParse_Errors(t *testing.T) {
	_, err := Parse("")
	assert.ErrorIs(t, err, ErrEmptyChord)

	_, err = Parse("ctrl+hyper+l")
	assert.ErrorIs(t, err, ErrUnknownModifier)

	_, err = Parse("ctrl+f13")
	assert.ErrorIs(t, err, ErrUnknownKey)

	_, err = Parse("ctrl+")
	assert.ErrorIs(t, err, ErrUnknownKey)
}

func TestSpec_RoundTrip(t *testing.T) {
	for k := KeyA; k < keyCount; k++ {
		c := New(k, ModCtrl|ModAlt)
		parsed, err := Parse(c.Spec())
		require.NoError(t, err, "spec %q", c.Spec())
		assert.Equal(t, c, parsed, "spec %q", c.Spec())
	}
}

func TestString(t *testing.T) {
	assert.Equal(t, "Ctrl+Shift+`", New(KeyGrave, ModCtrl|ModShift).String())
	assert.Equal(t, "Ctrl+Alt+F5", New(KeyF5, ModAlt|ModCtrl).String())
	assert.Equal(t, "Ctrl+Num3", New(KeyNumpad3, ModCtrl).String())
}

func TestDefault_IsValid(t *testing.T) {
	require.NoError(t, Default().Validate())
	assert.Equal(t, KeyGrave, Default().Key)
	assert.True(t, Default().Modifiers.Has(ModShift))
}

func TestNativeRoundTrip(t *testing.T) {
	if len(nativeKeys) == 0 {
		t.Skip("no native key table on this platform")
	}
	for k := KeyA; k < keyCount; k++ {
		code, ok := ToNative(k)
		require.True(t, ok, "key %s has no native code", k.Token())
		assert.Equal(t, k, FromNative(code), "key %s", k.Token())
	}
	assert.Equal(t, KeyUnknown, FromNative(0xDEADBEEF))
}
