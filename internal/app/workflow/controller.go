package workflow

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/19booth/internal/domain/device"
	"github.com/osa030/19booth/internal/domain/photo"
)

// CameraOpener opens the configured camera backend for a photo directory.
type CameraOpener func(photoDir string) (device.Camera, error)

// Config holds controller configuration and collaborators.
type Config struct {
	IO         device.UserIO
	Display    device.Display
	OpenCamera CameraOpener
	Session    *Session
	Localizer  Localizer     // nil shows message ids
	Events     Publisher     // nil drops events
	Clock      func() time.Time
	Sleep      func(time.Duration)
	BusyPeriod time.Duration // busy indicator redraw period
}

// Controller owns the active state and drives the tick loop.
type Controller struct {
	states map[StateID]State
	order  []StateID

	active StateID
	last   StateID

	io         device.UserIO
	display    device.Display
	openCamera CameraOpener
	camera     device.Camera
	session    *Session
	busy       *Busy
	loc        Localizer
	events     Publisher

	now   func() time.Time
	sleep func(time.Duration)

	// Entry depth guards against failure routes that keep failing on entry.
	entering  int
	faultText string
	quit      bool
}

// NewController creates a new controller.
func NewController(cfg Config) *Controller {
	c := &Controller{
		states:     make(map[StateID]State),
		io:         cfg.IO,
		display:    cfg.Display,
		openCamera: cfg.OpenCamera,
		session:    cfg.Session,
		loc:        cfg.Localizer,
		events:     cfg.Events,
		now:        cfg.Clock,
		sleep:      cfg.Sleep,
	}
	if c.loc == nil {
		c.loc = idLocalizer{}
	}
	if c.now == nil {
		c.now = time.Now
	}
	if c.sleep == nil {
		c.sleep = time.Sleep
	}
	period := cfg.BusyPeriod
	if period <= 0 {
		period = time.Second
	}
	c.busy = NewBusy(c.display, c.io, period)
	return c
}

// Register adds states to the arena. The graph must be complete before Start.
func (c *Controller) Register(states ...State) error {
	for _, s := range states {
		b := s.base()
		if b.id == StateNone {
			return errors.Wrap(ErrUnknownState, "cannot register the none state")
		}
		if _, exists := c.states[b.id]; exists {
			return errors.Wrapf(ErrDuplicateState, "%s", b.id)
		}
		b.c = c
		c.states[b.id] = s
		c.order = append(c.order, b.id)
	}
	return nil
}

// Validate checks that every link points at a registered state and that no
// chain of disabled states loops back on itself.
func (c *Controller) Validate() error {
	for _, id := range c.order {
		b := c.states[id].base()
		for _, link := range []StateID{b.next, b.failure} {
			if link == StateNone {
				continue
			}
			if _, ok := c.states[link]; !ok {
				return errors.Wrapf(ErrUnknownState, "%s links to %s", id, link)
			}
		}
		if _, err := c.resolve(id); err != nil {
			return err
		}
	}
	return nil
}

// Start validates the graph and enters the initial state.
func (c *Controller) Start(initial StateID) error {
	if err := c.Validate(); err != nil {
		return errors.Wrap(err, "invalid state graph")
	}
	return c.SetState(initial)
}

// resolve follows next links from id until an enabled state or StateNone.
// It visits each state at most once.
func (c *Controller) resolve(id StateID) (StateID, error) {
	seen := make(map[StateID]bool, len(c.states))
	for id != StateNone {
		s, ok := c.states[id]
		if !ok {
			return StateNone, errors.Wrapf(ErrUnknownState, "%s", id)
		}
		b := s.base()
		if b.enabled {
			return id, nil
		}
		if seen[id] {
			return StateNone, errors.Wrapf(ErrDisabledCycle, "at %s", id)
		}
		seen[id] = true
		id = b.next
	}
	return StateNone, nil
}

// SetState makes id the active state. Disabled states are skipped along
// their next links. The new state is reset and entered.
func (c *Controller) SetState(id StateID) error {
	target, err := c.resolve(id)
	if err != nil {
		return err
	}
	if target == StateNone {
		return errors.Wrapf(ErrNoEnabledState, "starting at %s", id)
	}

	s := c.states[target]
	prev := c.active
	if target != prev {
		c.last = prev
	}
	c.active = target
	if target != id {
		zlog.Info().Msgf("workflow: %s -> %s (skipped disabled %s)", prev, target, id)
	} else {
		zlog.Info().Msgf("workflow: %s -> %s", prev, target)
	}

	s.base().reset(c.now())
	c.publish(Event{Type: EventStateChanged, State: target, Prev: prev})

	if c.entering > len(c.states) {
		zlog.Error().Msgf("workflow: giving up entering %s, failure routes keep failing", target)
		return nil
	}
	c.entering++
	defer func() { c.entering-- }()
	if err := guard(target, s.OnEnter); err != nil {
		c.fail(s.base(), err)
	}
	return nil
}

// SetEnabled toggles a state. The change is reverted when it would leave
// the graph with a loop of disabled states.
func (c *Controller) SetEnabled(id StateID, enabled bool) error {
	s, ok := c.states[id]
	if !ok {
		return errors.Wrapf(ErrUnknownState, "%s", id)
	}
	b := s.base()
	prev := b.enabled
	b.enabled = enabled
	if err := c.Validate(); err != nil {
		b.enabled = prev
		return err
	}
	zlog.Info().Msgf("workflow: %s enabled=%v", id, enabled)
	return nil
}

// Enabled reports whether a state is enabled.
func (c *Controller) Enabled(id StateID) bool {
	s, ok := c.states[id]
	return ok && s.base().enabled
}

// Active returns the active state id.
func (c *Controller) Active() StateID { return c.active }

// Last returns the previously active state id.
func (c *Controller) Last() StateID { return c.last }

// State returns the registered state for id.
func (c *Controller) State(id StateID) (State, bool) {
	s, ok := c.states[id]
	return s, ok
}

// Tick drives one frame: poll input, tick the active state, flush LEDs,
// present the frame.
func (c *Controller) Tick() {
	if err := c.io.Update(); err != nil {
		zlog.Warn().Msgf("workflow: io update failed: %v", err)
	}
	if s, ok := c.states[c.active]; ok {
		c.tickState(s)
	}
	if err := c.io.Flush(); err != nil {
		zlog.Warn().Msgf("workflow: io flush failed: %v", err)
	}
	if err := c.display.Present(); err != nil {
		zlog.Warn().Msgf("workflow: present failed: %v", err)
	}
}

// tickState is the recovery boundary of a state: errors and panics from the
// phase logic or its countdown turn into a switch to the failure state.
func (c *Controller) tickState(s State) {
	b := s.base()
	err := guard(b.id, s.OnTick)
	if err == nil && c.active == b.id {
		err = guard(b.id, func() error { return b.timer.Tick(c.now()) })
	}
	if err != nil {
		c.fail(b, err)
	}
}

func (c *Controller) fail(b *Base, err error) {
	zlog.Error().Msgf("workflow: state %s failed: %v", b.id, err)
	c.faultText = err.Error()
	c.publish(Event{Type: EventStateFault, State: b.id, Detail: err.Error()})

	target := b.failure
	if target == StateNone {
		target = c.last
	}
	if target == StateNone {
		return
	}
	if serr := c.SetState(target); serr != nil {
		zlog.Error().Msgf("workflow: failure route %s -> %s: %v", b.id, target, serr)
	}
}

// FaultText returns the message of the last state failure.
func (c *Controller) FaultText() string { return c.faultText }

// Run ticks at fps frames per second until ctx is done or a quit is requested.
// A panic escaping a frame is logged and rendered as a generic error frame.
func (c *Controller) Run(ctx context.Context, fps int) error {
	if fps <= 0 {
		fps = 30
	}
	ticker := time.NewTicker(time.Second / time.Duration(fps))
	defer ticker.Stop()

	for {
		if err := c.step(); err != nil {
			zlog.Error().Msgf("workflow: frame failed: %v", err)
			c.showError(c.loc.T("error_generic", nil))
			_ = c.display.Present()
		}
		if c.QuitRequested() {
			zlog.Info().Msg("workflow: quit requested")
			return nil
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (c *Controller) step() (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Newf("panic: %v", r)
		}
	}()
	c.Tick()
	return nil
}

// RequestQuit asks Run to return after the current frame.
func (c *Controller) RequestQuit() { c.quit = true }

// QuitRequested reports whether the application should exit.
func (c *Controller) QuitRequested() bool {
	if c.quit {
		return true
	}
	if q, ok := c.io.(device.Quitter); ok {
		return q.QuitRequested()
	}
	return false
}

// Close idles the camera, turns off all LEDs and releases the display.
func (c *Controller) Close() error {
	var errs error
	c.busy.End()
	if c.camera != nil {
		errs = errors.CombineErrors(errs, c.camera.SetIdle())
		errs = errors.CombineErrors(errs, c.camera.Close())
		c.camera = nil
	}
	c.io.SetAllLeds(device.LedOff)
	errs = errors.CombineErrors(errs, c.io.Flush())
	errs = errors.CombineErrors(errs, c.io.Close())
	errs = errors.CombineErrors(errs, c.display.Close())
	return errs
}

// InitCamera (re)opens the camera and checks that it delivers a preview.
func (c *Controller) InitCamera() error {
	c.releaseCamera()
	if c.openCamera == nil {
		return errors.Wrap(device.ErrCameraUnavailable, "no camera backend")
	}
	cam, err := c.openCamera(c.session.PhotoDirectory())
	if err != nil {
		return errors.Mark(errors.Wrap(err, "failed to open camera"), device.ErrCameraUnavailable)
	}
	if err := cam.SetMemoryCaptureMode(); err != nil {
		_ = cam.Close()
		return errors.Mark(errors.Wrap(err, "failed to set capture target"), device.ErrCameraUnavailable)
	}
	if _, err := cam.Preview(); err != nil {
		_ = cam.Close()
		return errors.Mark(errors.Wrap(err, "camera delivers no preview"), device.ErrCameraUnavailable)
	}
	c.camera = cam
	zlog.Info().Msg("workflow: camera ready")
	return nil
}

func (c *Controller) releaseCamera() {
	if c.camera == nil {
		return
	}
	if err := c.camera.Close(); err != nil {
		zlog.Warn().Msgf("workflow: closing camera failed: %v", err)
	}
	c.camera = nil
}

// Camera returns the open camera or an error marked ErrCameraUnavailable.
func (c *Controller) Camera() (device.Camera, error) {
	if c.camera == nil {
		return nil, errors.Mark(errors.New("camera not initialized"), device.ErrCameraUnavailable)
	}
	return c.camera, nil
}

// SetLastPhoto replaces the session's last photo.
func (c *Controller) SetLastPhoto(a photo.Artifact) {
	c.session.setLastPhoto(a)
}

// SetPhotoDirectory moves future captures to dir. The camera is released so
// that it is reinitialized against the new location.
func (c *Controller) SetPhotoDirectory(dir string) {
	c.session.setPhotoDirectory(dir)
	c.releaseCamera()
	zlog.Info().Msgf("workflow: photo directory is now %s", dir)
}

// RunBusy runs a blocking call while the busy indicator animates.
// The indicator is stopped before RunBusy returns or panics.
func (c *Controller) RunBusy(message string, fn func() error) error {
	c.busy.Begin(message)
	defer c.busy.End()
	return fn()
}

// Busy returns the busy indicator.
func (c *Controller) Busy() *Busy { return c.busy }

// Session returns the session data.
func (c *Controller) Session() *Session { return c.session }

// IO returns the user IO rail.
func (c *Controller) IO() device.UserIO { return c.io }

// Display returns the drawing surface.
func (c *Controller) Display() device.Display { return c.display }

// Now returns the controller clock's current time.
func (c *Controller) Now() time.Time { return c.now() }

// Sleep blocks the tick loop for d.
func (c *Controller) Sleep(d time.Duration) { c.sleep(d) }

// T localizes a message id.
func (c *Controller) T(id string, data map[string]any) string { return c.loc.T(id, data) }

func (c *Controller) publish(e Event) {
	if c.events != nil {
		c.events.Publish(e)
	}
}
