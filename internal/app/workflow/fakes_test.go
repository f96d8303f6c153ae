package workflow

import (
	"context"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"

	"github.com/osa030/19booth/internal/domain/device"
	"github.com/osa030/19booth/internal/domain/photo"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type fakeIO struct {
	mu                         sync.Mutex
	accept, cancel, next, prev bool
	leds                       [device.LedCount]device.LedState
	countdowns                 []int
	resets                     int
	closed                     bool
}

func (f *fakeIO) press(accept, cancel, next, prev bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.accept = f.accept || accept
	f.cancel = f.cancel || cancel
	f.next = f.next || next
	f.prev = f.prev || prev
}

func (f *fakeIO) Update() error { return nil }

func (f *fakeIO) ResetButtonStates() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.accept, f.cancel, f.next, f.prev = false, false, false, false
	f.resets++
}

func (f *fakeIO) AnyButtonPressed(reset bool) bool {
	f.mu.Lock()
	pressed := f.accept || f.cancel || f.next || f.prev
	f.mu.Unlock()
	if pressed && reset {
		f.ResetButtonStates()
	}
	return pressed
}

func (f *fakeIO) consume(b *bool) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	v := *b
	*b = false
	return v
}

func (f *fakeIO) ButtonIndexPressed(idx int) bool {
	switch idx {
	case 0:
		return f.consume(&f.accept)
	case 1:
		return f.consume(&f.next)
	case 2:
		return f.consume(&f.prev)
	default:
		return f.consume(&f.cancel)
	}
}

func (f *fakeIO) AcceptPressed() bool { return f.consume(&f.accept) }
func (f *fakeIO) CancelPressed() bool { return f.consume(&f.cancel) }
func (f *fakeIO) NextPressed() bool   { return f.consume(&f.next) }
func (f *fakeIO) PrevPressed() bool   { return f.consume(&f.prev) }

func (f *fakeIO) AdminComboPressed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.accept && f.cancel
}

func (f *fakeIO) SetLed(led device.LedType, state device.LedState) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.leds[led] = state
}

func (f *fakeIO) SetAllLeds(state device.LedState) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.leds {
		f.leds[i] = state
	}
}

func (f *fakeIO) ShowLedCountdown(counter int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.countdowns = append(f.countdowns, counter)
	f.leds = device.CountdownLeds(counter)
}

func (f *fakeIO) Flush() error { return nil }

func (f *fakeIO) Close() error {
	f.closed = true
	return nil
}

type fill struct {
	rect image.Rectangle
	col  color.Color
}

type fakeDisplay struct {
	mu       sync.Mutex
	texts    []string
	fills    []fill
	presents int
}

func (d *fakeDisplay) Bounds() image.Rectangle           { return image.Rect(0, 0, 320, 240) }
func (d *fakeDisplay) Clear(color.Color)                 {}
func (d *fakeDisplay) Blit(image.Image, image.Rectangle) {}
func (d *fakeDisplay) Close() error                      { return nil }

func (d *fakeDisplay) Text(s string, _ image.Point, _ device.TextStyle) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.texts = append(d.texts, s)
}

func (d *fakeDisplay) Fill(r image.Rectangle, c color.Color) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.fills = append(d.fills, fill{rect: r, col: c})
}

func (d *fakeDisplay) lastFill() (fill, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.fills) == 0 {
		return fill{}, false
	}
	return d.fills[len(d.fills)-1], true
}

func (d *fakeDisplay) Present() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.presents++
	return nil
}

type fakeCamera struct {
	mu         sync.Mutex
	previewErr error
	previews   int
	taken      int
	autofocus  bool
	idle       int
	closed     int
}

func (c *fakeCamera) SetMemoryCaptureMode() error { return nil }

func (c *fakeCamera) SetIdle() error {
	c.idle++
	return nil
}

func (c *fakeCamera) EnableLiveAutofocus() error {
	c.autofocus = true
	return nil
}

func (c *fakeCamera) DisableLiveAutofocus() error {
	c.autofocus = false
	return nil
}

func (c *fakeCamera) Preview() (image.Image, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.previews++
	if c.previewErr != nil {
		return nil, c.previewErr
	}
	return image.NewRGBA(image.Rect(0, 0, 64, 48)), nil
}

func (c *fakeCamera) TakePhoto(dir string) (photo.Artifact, error) {
	c.taken++
	img := image.NewRGBA(image.Rect(0, 0, 400, 300))
	path := filepath.Join(dir, "capture.jpg")
	if err := photo.SaveJPEG(img, path, 90); err != nil {
		return photo.Artifact{}, err
	}
	return photo.Artifact{Image: img, Path: path}, nil
}

func (c *fakeCamera) Close() error {
	c.closed++
	return nil
}

type filterCall struct {
	input, filterID, output string
	size                    image.Point
}

type fakeEngine struct {
	mu    sync.Mutex
	calls []filterCall
	err   error
}

func (e *fakeEngine) ApplyNamedFilter(_ context.Context, input, filterID, output string, size image.Point) error {
	e.mu.Lock()
	e.calls = append(e.calls, filterCall{input, filterID, output, size})
	e.mu.Unlock()
	if e.err != nil {
		return e.err
	}
	img, err := photo.Decode(input)
	if err != nil {
		return err
	}
	return photo.SaveJPEG(img, output, 80)
}

type fakeTransport struct {
	printed   []string
	err       error
	available bool
}

func (p *fakeTransport) PrintPhoto(_ context.Context, path string) error {
	if p.err != nil {
		return p.err
	}
	p.printed = append(p.printed, path)
	return nil
}

func (p *fakeTransport) IsPrinterAvailable(context.Context) bool { return p.available }

type fakeStore struct {
	files   []string
	rotated string
}

func (s *fakeStore) List(string) ([]string, error) { return s.files, nil }

func (s *fakeStore) Rotate(dir string) (string, error) {
	if s.rotated == "" {
		return "", errors.New("no removable storage")
	}
	return s.rotated, nil
}

type recordingPublisher struct {
	events []Event
}

func (p *recordingPublisher) Publish(e Event) { p.events = append(p.events, e) }

func (p *recordingPublisher) count(t EventType) int {
	n := 0
	for _, e := range p.events {
		if e.Type == t {
			n++
		}
	}
	return n
}

// testState is a minimal state with injectable hooks.
type testState struct {
	*Base
	enters int
	ticks  int
	enter  func() error
	tick   func() error
}

func newTestState(link Link) *testState {
	s := &testState{}
	s.Base = NewBase(link, nil)
	return s
}

func (s *testState) OnEnter() error {
	s.enters++
	if s.enter != nil {
		return s.enter()
	}
	return nil
}

func (s *testState) OnTick() error {
	s.ticks++
	if s.tick != nil {
		return s.tick()
	}
	return nil
}

// harness is a fully wired booth with fake devices.
type harness struct {
	c         *Controller
	clock     *fakeClock
	io        *fakeIO
	display   *fakeDisplay
	cam       *fakeCamera
	engine    *fakeEngine
	transport *fakeTransport
	store     *fakeStore
	events    *recordingPublisher
	sleeps    []time.Duration

	trigger   *TriggerWait
	capture   *CountdownCapture
	filter    *FilterSelect
	print     *PrintConfirm
	slideshow *Slideshow
	admin     *Admin
	shutdown  func() error
	openErr   error
}

const testThreshold = 10

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		clock:     newFakeClock(),
		io:        &fakeIO{},
		display:   &fakeDisplay{},
		cam:       &fakeCamera{},
		engine:    &fakeEngine{},
		transport: &fakeTransport{available: true},
		store:     &fakeStore{},
		events:    &recordingPublisher{},
	}
	dir := t.TempDir()
	h.c = NewController(Config{
		IO:         h.io,
		Display:    h.display,
		OpenCamera: func(string) (device.Camera, error) {
			if h.openErr != nil {
				return nil, h.openErr
			}
			return h.cam, nil
		},
		Session:    NewSession(filepath.Join(dir, "photos"), filepath.Join(dir, "tmp"), image.Pt(320, 240)),
		Events:     h.events,
		Clock:      h.clock.Now,
		Sleep:      func(d time.Duration) { h.sleeps = append(h.sleeps, d) },
		BusyPeriod: 5 * time.Millisecond,
	})
	require.NoError(t, os.MkdirAll(h.c.Session().PhotoDirectory(), 0o755))

	h.trigger = NewTriggerWait(Link{ID: StateWaitingForTrigger, Next: StateCountdown, Failure: StateWaitingForCamera, Enabled: true, Counter: 60},
		StateSlideshow, StateAdmin, testThreshold)
	h.capture = NewCountdownCapture(Link{ID: StateCountdown, Next: StateShowPhoto, Failure: StateWaitingForCamera, Enabled: true, Counter: 3}, testThreshold)
	h.filter = NewFilterSelect(Link{ID: StateFilter, Next: StatePrint, Failure: StateWaitingForTrigger, Enabled: true}, h.engine,
		[]string{"gotham", "kelvin", "lomo"})
	h.print = NewPrintConfirm(Link{ID: StatePrint, Next: StateWaitingForTrigger, Failure: StateWaitingForTrigger, Enabled: true, Counter: 10}, h.transport)
	h.slideshow = NewSlideshow(Link{ID: StateSlideshow, Next: StateWaitingForTrigger, Failure: StateWaitingForTrigger, Enabled: true, Counter: 5}, h.store, nil)
	h.admin = NewAdmin(Link{ID: StateAdmin, Next: StateWaitingForCamera, Enabled: true}, AdminConfig{
		Grace:     2 * time.Second,
		Toggles:   []StateID{StateFilter, StatePrint, StateSlideshow},
		Store:     h.store,
		Transport: h.transport,
		Shutdown:  func() error { return h.shutdown() },
	})

	require.NoError(t, h.c.Register(
		NewCameraWait(Link{ID: StateWaitingForCamera, Next: StateWaitingForTrigger, Enabled: true}, StateAdmin, RetryConfig{}),
		h.trigger,
		h.capture,
		NewShowPhoto(Link{ID: StateShowPhoto, Next: StateFilter, Failure: StateWaitingForTrigger, Enabled: true, Counter: 2}),
		h.filter,
		h.print,
		h.slideshow,
		h.admin,
	))
	h.shutdown = func() error { return nil }
	return h
}

// startAtTrigger starts the booth and lets the camera come up.
func (h *harness) startAtTrigger(t *testing.T) {
	t.Helper()
	require.NoError(t, h.c.Start(StateWaitingForCamera))
	h.c.Tick()
	require.Equal(t, StateWaitingForTrigger, h.c.Active())
}

func (h *harness) tickFor(seconds int) {
	for i := 0; i < seconds; i++ {
		h.clock.Advance(time.Second)
		h.c.Tick()
	}
}

// snapPhoto stores a real photo as the last photo.
func (h *harness) snapPhoto(t *testing.T) photo.Artifact {
	t.Helper()
	a, err := h.cam.TakePhoto(h.c.Session().PhotoDirectory())
	require.NoError(t, err)
	h.c.SetLastPhoto(a)
	return a
}
