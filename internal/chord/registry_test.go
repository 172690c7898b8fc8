package chord

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_SetAndCurrent(t *testing.T) {
	r := NewRegistry(New(KeyGrave, ModCtrl|ModShift))
	assert.Equal(t, New(KeyGrave, ModCtrl|ModShift), r.Current())

	require.NoError(t, r.Set(New(KeyL, ModMeta)))
	assert.Equal(t, New(KeyL, ModMeta), r.Current())
}

func TestRegistry_InvalidChordKeepsPrevious(t *testing.T) {
	r := NewRegistry(New(KeyGrave, ModCtrl|ModShift))

	err := r.Set(New(KeyL, ModShift))
	assert.ErrorIs(t, err, ErrInvalidChord)
	assert.Equal(t, New(KeyGrave, ModCtrl|ModShift), r.Current())

	err = r.SetSpec("shift+alt+l")
	assert.ErrorIs(t, err, ErrInvalidChord)
	assert.Equal(t, New(KeyGrave, ModCtrl|ModShift), r.Current())

	err = r.SetSpec("ctrl+nope")
	assert.ErrorIs(t, err, ErrUnknownKey)
	assert.Equal(t, New(KeyGrave, ModCtrl|ModShift), r.Current())
}

func TestRegistry_InvalidInitialFallsBackToDefault(t *testing.T) {
	r := NewRegistry(New(KeyL, 0))
	assert.Equal(t, Default(), r.Current())
}

func TestRegistry_OnChange(t *testing.T) {
	r := NewRegistry(New(KeyGrave, ModCtrl))

	var seen []Chord
	r.OnChange(func(c Chord) { seen = append(seen, c) })

	require.NoError(t, r.Set(New(KeyL, ModCtrl)))
	// Neither an unchanged nor a rejected chord notifies.
	require.NoError(t, r.Set(New(KeyL, ModCtrl)))
	_ = r.Set(New(KeyL, 0))

	assert.Equal(t, []Chord{New(KeyL, ModCtrl)}, seen)
}

func TestRegistry_NoTornReads(t *testing.T) {
	a := New(KeyA, ModCtrl)
	b := New(KeyB, ModMeta|ModShift|ModAlt)
	r := NewRegistry(a)

	var wg sync.WaitGroup
	stop := make(chan struct{})

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; ; i++ {
			select {
			case <-stop:
				return
			default:
			}
			if i%2 == 0 {
				_ = r.Set(b)
			} else {
				_ = r.Set(a)
			}
		}
	}()

	for i := 0; i < 10000; i++ {
		c := r.Current()
		if c != a && c != b {
			close(stop)
			wg.Wait()
			t.Fatalf("torn read: %+v", c)
		}
	}
	close(stop)
	wg.Wait()
}
