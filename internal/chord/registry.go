package chord

import (
	"sync"
	"sync/atomic"
)

// Registry holds the active chord. Reads are a single atomic pointer load so a
// concurrent Set never produces a key from one chord with modifiers from another.
type Registry struct {
	current atomic.Pointer[Chord]

	mu        sync.Mutex
	listeners []func(Chord)
}

// NewRegistry creates a registry holding initial. An invalid initial chord is
// replaced by Default.
func NewRegistry(initial Chord) *Registry {
	if initial.Validate() != nil {
		initial = Default()
	}
	r := &Registry{}
	r.current.Store(&initial)
	return r
}

// Current returns the active chord.
func (r *Registry) Current() Chord {
	return *r.current.Load()
}

// Set validates c and makes it active. An invalid chord is rejected and the
// previous chord stays in place.
func (r *Registry) Set(c Chord) error {
	c.Modifiers = c.Modifiers.Normalize()
	if err := c.Validate(); err != nil {
		return err
	}
	prev := r.current.Swap(&c)
	if *prev == c {
		return nil
	}

	r.mu.Lock()
	listeners := append([]func(Chord){}, r.listeners...)
	r.mu.Unlock()
	for _, fn := range listeners {
		fn(c)
	}
	return nil
}

// SetSpec parses and installs a chord string.
func (r *Registry) SetSpec(s string) error {
	c, err := Parse(s)
	if err != nil {
		return err
	}
	return r.Set(c)
}

// OnChange registers fn to be called after every effective change.
func (r *Registry) OnChange(fn func(Chord)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listeners = append(r.listeners, fn)
}
