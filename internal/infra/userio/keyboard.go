package userio

import (
	"io"
	"os"
	"sync"
	"sync/atomic"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"
	"golang.org/x/term"

	"github.com/osa030/19booth/internal/infra/settings"
)

func init() {
	Register("keyboard", newKeyboardFromSettings)
}

// KeyboardConfig represents the settings of the keyboard backend.
type KeyboardConfig struct {
	Raw bool `mapstructure:"raw" default:"true"`
}

// Keyboard maps terminal keys to the rail:
// 1-4 press red, blue, yellow and green, Enter accepts, Backspace cancels,
// a presses accept and cancel together, q, Esc and Ctrl-C quit.
type Keyboard struct {
	fd       int
	oldState *term.State

	mu      sync.Mutex
	pending Presses
	quit    atomic.Bool
	leds    Leds
}

func newKeyboardFromSettings(in map[string]any) (Source, error) {
	var cfg KeyboardConfig
	if err := settings.Decode(in, &cfg); err != nil {
		return nil, err
	}
	return NewKeyboard(os.Stdin, cfg.Raw)
}

// NewKeyboard reads keys from r. With raw set and r a terminal, the
// terminal is switched to raw mode until Close.
func NewKeyboard(r io.Reader, raw bool) (*Keyboard, error) {
	k := &Keyboard{fd: -1}
	if f, ok := r.(*os.File); ok && raw && term.IsTerminal(int(f.Fd())) {
		k.fd = int(f.Fd())
		state, err := term.MakeRaw(k.fd)
		if err != nil {
			return nil, errors.Wrap(err, "failed to set terminal raw mode")
		}
		k.oldState = state
	}
	go k.read(r)
	return k, nil
}

func (k *Keyboard) read(r io.Reader) {
	buf := make([]byte, 16)
	for {
		n, err := r.Read(buf)
		for _, b := range buf[:n] {
			k.key(b)
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				zlog.Warn().Msgf("userio: keyboard read: %v", err)
			}
			return
		}
	}
}

func (k *Keyboard) key(b byte) {
	k.mu.Lock()
	defer k.mu.Unlock()
	switch b {
	case '1':
		k.pending[ButtonRed] = true
	case '2':
		k.pending[ButtonBlue] = true
	case '3':
		k.pending[ButtonYellow] = true
	case '4':
		k.pending[ButtonGreen] = true
	case '\r', '\n':
		k.pending[ButtonAccept] = true
	case 0x7f, 0x08:
		k.pending[ButtonCancel] = true
	case 'a', 'A':
		k.pending[ButtonAccept] = true
		k.pending[ButtonCancel] = true
	case 'q', 'Q', 0x1b, 0x03:
		k.quit.Store(true)
	}
}

func (k *Keyboard) Poll() (Presses, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	p := k.pending
	k.pending = Presses{}
	return p, nil
}

// WriteLeds keeps the LED state. A terminal has no LEDs.
func (k *Keyboard) WriteLeds(leds Leds) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.leds = leds
	return nil
}

// QuitRequested reports whether a quit key was pressed.
func (k *Keyboard) QuitRequested() bool {
	return k.quit.Load()
}

// Close restores the terminal.
func (k *Keyboard) Close() error {
	if k.oldState == nil {
		return nil
	}
	return errors.Wrap(term.Restore(k.fd, k.oldState), "failed to restore terminal")
}
