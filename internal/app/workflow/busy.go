package workflow

import (
	"image"
	"strings"
	"sync/atomic"
	"time"

	"github.com/osa030/19booth/internal/domain/device"
)

// Busy animates a "please wait" box and the LED countdown while the main
// loop is blocked in a long call.
type Busy struct {
	display device.Display
	io      device.UserIO
	period  time.Duration

	active atomic.Bool
	stop   chan struct{}
	done   chan struct{}
}

// NewBusy creates a busy indicator redrawing every period.
func NewBusy(display device.Display, io device.UserIO, period time.Duration) *Busy {
	return &Busy{
		display: display,
		io:      io,
		period:  period,
	}
}

// Begin starts the animation. A second Begin without End is ignored.
func (b *Busy) Begin(message string) {
	if b.active.Load() {
		return
	}
	b.stop = make(chan struct{})
	b.done = make(chan struct{})
	b.active.Store(true)
	go b.run(message, b.stop, b.done)
}

// End stops the animation, waits for the task to exit and blanks the box.
func (b *Busy) End() {
	if !b.active.Load() {
		return
	}
	close(b.stop)
	<-b.done
	b.display.Fill(b.box(), colorBackground)
	b.active.Store(false)
}

// Active reports whether the animation is running.
func (b *Busy) Active() bool {
	return b.active.Load()
}

func (b *Busy) run(message string, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(b.period)
	defer ticker.Stop()

	counter := device.LedCount
	for frame := 0; ; frame++ {
		b.draw(message, frame)
		b.io.ShowLedCountdown(counter)
		_ = b.io.Flush()
		_ = b.display.Present()

		counter--
		if counter < 0 {
			counter = device.LedCount
		}

		select {
		case <-stop:
			return
		case <-ticker.C:
		}
	}
}

func (b *Busy) box() image.Rectangle {
	bounds := b.display.Bounds()
	w, h := bounds.Dx()*2/3, bounds.Dy()/4
	return image.Rect(0, 0, w, h).Add(bounds.Min).Add(image.Pt((bounds.Dx()-w)/2, (bounds.Dy()-h)/2))
}

func (b *Busy) draw(message string, frame int) {
	box := b.box()
	center := image.Pt((box.Min.X+box.Max.X)/2, (box.Min.Y+box.Max.Y)/2)

	b.display.Fill(box, colorPanel)
	b.display.Text(message+strings.Repeat(".", frame%4), center, device.TextStyle{
		Size:     device.TextLarge,
		Color:    colorText,
		Centered: true,
	})
}
