//go:build !windows && !darwin

package platform

import (
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"desklock/config"
)

func TestLogSurface_Lifecycle(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	p := NewPlatform(logger)

	s, err := p.NewSurface(SurfaceOptions{Appearance: config.DefaultAppearance()})
	require.NoError(t, err)

	require.NoError(t, s.Show(0))
	assert.True(t, s.(*logSurface).visible)
	require.NoError(t, s.Reassert())
	require.NoError(t, s.Hide(0))
	assert.False(t, s.(*logSurface).visible)

	updated := config.DefaultAppearance()
	updated.LockText = "AWAY"
	require.NoError(t, s.Update(updated))
	assert.Equal(t, "AWAY", s.(*logSurface).appearance.LockText)

	require.NoError(t, s.Close())
	assert.ErrorIs(t, s.Show(0), ErrSurfaceClosed)
	assert.ErrorIs(t, s.Reassert(), ErrSurfaceClosed)
}

func TestPlatform_WarningDoesNotFail(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	p := NewPlatform(logger)

	assert.NoError(t, p.ShowWarningNotification("DeskLock", "input hook unavailable"))
	assert.NoError(t, p.RestoreAffordances())
}
