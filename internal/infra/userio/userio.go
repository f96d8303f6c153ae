// Package userio provides the four-button LED rail behind device.UserIO.
//
// A Rail keeps the edge-latched button state and the LED state; backends
// only deliver raw presses and write LEDs.
package userio

import (
	"sort"
	"sync"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/19booth/internal/domain/device"
)

// Button positions on the rail. They share their index with the LED of
// the same color.
const (
	ButtonRed    = int(device.LedRed)
	ButtonBlue   = int(device.LedBlue)
	ButtonYellow = int(device.LedYellow)
	ButtonGreen  = int(device.LedGreen)

	ButtonAccept = ButtonGreen
	ButtonCancel = ButtonRed
	ButtonNext   = ButtonYellow
	ButtonPrev   = ButtonBlue
)

// Presses holds one flag per button.
type Presses [device.LedCount]bool

// Leds holds one state per LED.
type Leds [device.LedCount]device.LedState

// Source is a hardware backend of the rail.
type Source interface {
	// Poll returns the buttons pressed since the previous poll.
	Poll() (Presses, error)
	WriteLeds(leds Leds) error
	Close() error
}

// Factory creates a source from its settings block.
type Factory func(settings map[string]any) (Source, error)

var registry = make(map[string]Factory)

// Register registers a backend factory.
func Register(id string, factory Factory) {
	registry[id] = factory
}

// Registered returns the registered backend ids, sorted.
func Registered() []string {
	ids := make([]string, 0, len(registry))
	for id := range registry {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// New creates the rail for backend id.
func New(id string, settings map[string]any) (*Rail, error) {
	factory, ok := registry[id]
	if !ok {
		return nil, errors.Newf("unknown io backend: %s", id)
	}
	src, err := factory(settings)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to create io backend %s", id)
	}
	zlog.Info().Msgf("userio: using backend %s", id)
	return NewRail(src), nil
}

// Rail implements device.UserIO on top of a Source.
type Rail struct {
	mu      sync.Mutex
	src     Source
	pressed Presses
	leds    Leds
	dirty   bool
}

// NewRail creates a rail with all LEDs off.
func NewRail(src Source) *Rail {
	return &Rail{src: src, dirty: true}
}

// Update latches new presses from the source.
func (r *Rail) Update() error {
	p, err := r.src.Poll()
	if err != nil {
		return errors.Wrap(err, "failed to poll buttons")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, v := range p {
		r.pressed[i] = r.pressed[i] || v
	}
	return nil
}

func (r *Rail) ResetButtonStates() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pressed = Presses{}
}

func (r *Rail) AnyButtonPressed(reset bool) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	pressed := false
	for _, v := range r.pressed {
		pressed = pressed || v
	}
	if reset {
		r.pressed = Presses{}
	}
	return pressed
}

func (r *Rail) ButtonIndexPressed(idx int) bool {
	if idx < 0 || idx >= device.LedCount {
		return false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	v := r.pressed[idx]
	r.pressed[idx] = false
	return v
}

func (r *Rail) AcceptPressed() bool { return r.ButtonIndexPressed(ButtonAccept) }
func (r *Rail) CancelPressed() bool { return r.ButtonIndexPressed(ButtonCancel) }
func (r *Rail) NextPressed() bool   { return r.ButtonIndexPressed(ButtonNext) }
func (r *Rail) PrevPressed() bool   { return r.ButtonIndexPressed(ButtonPrev) }

// AdminComboPressed peeks accept and cancel. Neither edge is consumed.
func (r *Rail) AdminComboPressed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pressed[ButtonAccept] && r.pressed[ButtonCancel]
}

func (r *Rail) SetLed(led device.LedType, state device.LedState) {
	if led < 0 || int(led) >= device.LedCount {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.leds[led] != state {
		r.leds[led] = state
		r.dirty = true
	}
}

func (r *Rail) SetAllLeds(state device.LedState) {
	for i := 0; i < device.LedCount; i++ {
		r.SetLed(device.LedType(i), state)
	}
}

func (r *Rail) ShowLedCountdown(counter int) {
	for i, state := range device.CountdownLeds(counter) {
		r.SetLed(device.LedType(i), state)
	}
}

// Leds returns the pending LED state.
func (r *Rail) Leds() Leds {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.leds
}

// Flush writes the LED state when it changed since the last flush.
func (r *Rail) Flush() error {
	r.mu.Lock()
	if !r.dirty {
		r.mu.Unlock()
		return nil
	}
	leds := r.leds
	r.dirty = false
	r.mu.Unlock()

	if err := r.src.WriteLeds(leds); err != nil {
		r.mu.Lock()
		r.dirty = true
		r.mu.Unlock()
		return errors.Wrap(err, "failed to write leds")
	}
	return nil
}

// QuitRequested reports whether the backend asked the application to exit.
func (r *Rail) QuitRequested() bool {
	if q, ok := r.src.(device.Quitter); ok {
		return q.QuitRequested()
	}
	return false
}

func (r *Rail) Close() error {
	return r.src.Close()
}
