//go:build !windows && !darwin

package hotkey

import (
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"

	"desklock/internal/chord"
)

func TestGlobal_Unsupported(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	g := New(logger)

	assert.ErrorIs(t, g.Register(chord.Default(), func() {}), ErrUnsupported)
	assert.NoError(t, g.Unregister())
}
