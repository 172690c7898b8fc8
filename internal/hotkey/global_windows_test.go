package hotkey

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.design/x/hotkey"

	"desklock/internal/chord"
)

func TestTranslate(t *testing.T) {
	mods, key, err := translate(chord.MustParse("ctrl+shift+grave"))
	require.NoError(t, err)

	assert.Equal(t, []hotkey.Modifier{hotkey.ModCtrl, hotkey.ModShift}, mods)
	assert.Equal(t, hotkey.Key(0xC0), key) // VK_OEM_3
}

func TestTranslate_MetaIsWin(t *testing.T) {
	mods, _, err := translate(chord.MustParse("win+l"))
	require.NoError(t, err)

	assert.Equal(t, []hotkey.Modifier{hotkey.ModWin}, mods)
}
