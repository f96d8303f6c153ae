// Package gpio abstracts the Raspberry Pi GPIO header behind a Driver so the
// button rail runs against real pins or an in-memory mock.
package gpio

import (
	"sync"

	zlog "github.com/rs/zerolog/log"
)

// Level represents the logical state of a GPIO pin.
type Level bool

const (
	Low  Level = false
	High Level = true
)

// PinMode indicates whether a GPIO is input or output.
type PinMode int

const (
	Input PinMode = iota
	Output
	InputPullUp // input with the internal pull-up, buttons pull to ground
)

// String returns the string representation of the pin mode.
func (m PinMode) String() string {
	switch m {
	case Input:
		return "input"
	case Output:
		return "output"
	case InputPullUp:
		return "input_pullup"
	default:
		return "unknown"
	}
}

// Driver controls GPIO pins.
type Driver interface {
	SetupPin(pin int, mode PinMode) error
	WritePin(pin int, level Level) error
	ReadPin(pin int) (Level, error)
	// WatchFalling enables falling edge detection on an input pin.
	WatchFalling(pin int) error
	// FallingEdge reports and clears a falling edge seen since the last call.
	FallingEdge(pin int) (bool, error)
	Close() error
}

// NewDriver creates a GPIO driver. mock selects the in-memory driver.
func NewDriver(mock bool) (Driver, error) {
	if mock {
		zlog.Info().Msg("gpio: using mock driver")
		return NewMockDriver(), nil
	}
	return NewRPiDriver()
}

// MockDriver keeps pin levels in memory. Tests inject edges with Press.
type MockDriver struct {
	mu     sync.Mutex
	modes  map[int]PinMode
	levels map[int]Level
	edges  map[int]bool
	writes []PinWrite
	closed bool
}

// PinWrite records a single WritePin call.
type PinWrite struct {
	Pin   int
	Level Level
}

// NewMockDriver creates a new mock driver.
func NewMockDriver() *MockDriver {
	return &MockDriver{
		modes:  make(map[int]PinMode),
		levels: make(map[int]Level),
		edges:  make(map[int]bool),
	}
}

func (m *MockDriver) SetupPin(pin int, mode PinMode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	zlog.Debug().Msgf("gpio: mock setup pin=%d mode=%s", pin, mode)
	m.modes[pin] = mode
	if mode == InputPullUp {
		m.levels[pin] = High
	}
	return nil
}

func (m *MockDriver) WritePin(pin int, level Level) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.levels[pin] = level
	m.writes = append(m.writes, PinWrite{Pin: pin, Level: level})
	return nil
}

func (m *MockDriver) ReadPin(pin int) (Level, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.levels[pin], nil
}

func (m *MockDriver) WatchFalling(int) error { return nil }

func (m *MockDriver) FallingEdge(pin int) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e := m.edges[pin]
	m.edges[pin] = false
	return e, nil
}

func (m *MockDriver) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Press latches a falling edge on pin.
func (m *MockDriver) Press(pin int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.edges[pin] = true
}

// Level returns the last level of pin.
func (m *MockDriver) Level(pin int) Level {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.levels[pin]
}

// Mode returns the configured mode of pin.
func (m *MockDriver) Mode(pin int) (PinMode, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	mode, ok := m.modes[pin]
	return mode, ok
}

// Writes returns all recorded writes.
func (m *MockDriver) Writes() []PinWrite {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]PinWrite(nil), m.writes...)
}

// Closed reports whether Close was called.
func (m *MockDriver) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}
