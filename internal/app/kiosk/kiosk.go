// Package kiosk assembles the booth from configuration: backends, state
// graph and event subscribers.
package kiosk

import (
	"context"
	"fmt"
	"image"
	"os"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/19booth/internal/app/notification"
	"github.com/osa030/19booth/internal/app/workflow"
	"github.com/osa030/19booth/internal/domain/device"
	"github.com/osa030/19booth/internal/domain/photo"
	"github.com/osa030/19booth/internal/infra/camera"
	"github.com/osa030/19booth/internal/infra/command"
	"github.com/osa030/19booth/internal/infra/config"
	"github.com/osa030/19booth/internal/infra/display"
	"github.com/osa030/19booth/internal/infra/i18n"
	"github.com/osa030/19booth/internal/infra/imagemagick"
	"github.com/osa030/19booth/internal/infra/metrics"
	"github.com/osa030/19booth/internal/infra/printer"
	"github.com/osa030/19booth/internal/infra/storage"
	"github.com/osa030/19booth/internal/infra/sysinfo"
	"github.com/osa030/19booth/internal/infra/userio"
)

// Backends overrides the collaborators built from configuration. Nil
// fields are created from the config.
type Backends struct {
	Display    device.Display
	IO         device.UserIO
	OpenCamera workflow.CameraOpener
	Engine     device.FilterEngine
	Transport  device.PrintTransport
	Store      *storage.Store
	Probe      workflow.SystemProbe
	Runner     command.Runner
	Sleep      func(time.Duration)
}

// Kiosk is an assembled booth.
type Kiosk struct {
	cfg        *config.Config
	controller *workflow.Controller
	events     *notification.Manager
	runner     command.Runner
}

// New builds the booth described by cfg.
func New(cfg *config.Config, b Backends) (*Kiosk, error) {
	if b.Runner == nil {
		b.Runner = command.Exec{}
	}
	if b.Store == nil {
		b.Store = storage.New()
	}
	if b.Probe == nil {
		b.Probe = sysinfo.New()
	}
	for _, dir := range []string{cfg.Booth.PhotoDirectory, cfg.Booth.TempDirectory} {
		if err := b.Store.Ensure(dir); err != nil {
			return nil, err
		}
	}

	loc, err := i18n.New(cfg.Booth.Language)
	if err != nil {
		return nil, err
	}

	if b.Engine == nil {
		engine, err := newEngine(cfg.Filters)
		if err != nil {
			return nil, err
		}
		b.Engine = engine
	}

	printEnabled := config.Enabled(cfg.States.Printing)
	if b.Transport == nil {
		chain, err := printer.NewChainFromConfig(cfg.Print)
		if err != nil {
			return nil, errors.Wrap(err, "failed to create print transports")
		}
		if chain.Len() == 0 && printEnabled {
			zlog.Warn().Msg("kiosk: no print transports configured, printing disabled")
			printEnabled = false
		}
		b.Transport = chain
	}

	if b.OpenCamera == nil {
		b.OpenCamera = func(string) (device.Camera, error) {
			return camera.Open(cfg.Camera.BackendID, cfg.Camera.Settings)
		}
	}

	if b.IO == nil {
		rail, err := userio.New(cfg.IO.BackendID, cfg.IO.Settings)
		if err != nil {
			return nil, errors.Wrap(err, "failed to create user io")
		}
		b.IO = rail
	}

	if b.Display == nil {
		canvas, err := display.New(cfg.Display.Backend, screenSize(cfg), cfg.Display.Settings)
		if err != nil {
			_ = b.IO.Close()
			return nil, err
		}
		b.Display = canvas
	}

	events := notification.NewManager()
	events.Subscribe(notification.MetricsStream{})
	events.Subscribe(notification.LogStream{})

	session := workflow.NewSession(cfg.Booth.PhotoDirectory, cfg.Booth.TempDirectory, b.Display.Bounds().Size())
	c := workflow.NewController(workflow.Config{
		IO:         b.IO,
		Display:    b.Display,
		OpenCamera: b.OpenCamera,
		Session:    session,
		Localizer:  loc,
		Events:     events,
		Sleep:      b.Sleep,
	})

	k := &Kiosk{cfg: cfg, controller: c, events: events, runner: b.Runner}

	var shutdown func() error
	if cfg.Admin.ShutdownCommand != "" {
		shutdown = k.shutdown
	}

	if err := c.Register(buildStates(cfg, b, printEnabled, loadLogo(cfg.Slideshow.LogoPath), shutdown)...); err != nil {
		return nil, errors.Wrap(err, "failed to register states")
	}
	if err := c.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid state graph")
	}

	zlog.Info().Msgf("kiosk: assembled session=%s camera=%s io=%s display=%s language=%s",
		session.ID(), cfg.Camera.BackendID, cfg.IO.BackendID, cfg.Display.Backend, cfg.Booth.Language)
	return k, nil
}

// buildStates creates the workflow graph:
//
//	waiting_for_camera -> waiting_for_trigger -> countdown -> show_photo
//	  -> filter -> print -> waiting_for_trigger
//
// The trigger times out into the slideshow, camera faults lead back to
// waiting_for_camera and the admin console is reachable from both wait
// states.
func buildStates(cfg *config.Config, b Backends, printEnabled bool, logo image.Image, shutdown func() error) []workflow.State {
	t := cfg.Timers
	threshold := cfg.Preview.FailureThreshold

	return []workflow.State{
		workflow.NewCameraWait(workflow.Link{
			ID: workflow.StateWaitingForCamera, Next: workflow.StateWaitingForTrigger,
			Enabled: true, Counter: workflow.Disabled,
		}, workflow.StateAdmin, workflow.RetryConfig{
			Initial: cfg.CameraRetry.Initial(),
			Max:     cfg.CameraRetry.Max(),
		}),
		workflow.NewTriggerWait(workflow.Link{
			ID: workflow.StateWaitingForTrigger, Next: workflow.StateCountdown, Failure: workflow.StateWaitingForCamera,
			Enabled: true, Counter: t.PhotoTimeout,
		}, workflow.StateSlideshow, workflow.StateAdmin, threshold),
		workflow.NewCountdownCapture(workflow.Link{
			ID: workflow.StateCountdown, Next: workflow.StateShowPhoto, Failure: workflow.StateWaitingForCamera,
			Enabled: true, Counter: t.PhotoCountdown,
		}, threshold),
		workflow.NewShowPhoto(workflow.Link{
			ID: workflow.StateShowPhoto, Next: workflow.StateFilter, Failure: workflow.StateWaitingForTrigger,
			Enabled: config.Enabled(cfg.States.ShowPhoto), Counter: t.PhotoShowTime,
		}),
		workflow.NewFilterSelect(workflow.Link{
			ID: workflow.StateFilter, Next: workflow.StatePrint, Failure: workflow.StateWaitingForTrigger,
			Enabled: config.Enabled(cfg.States.Filter), Counter: workflow.Disabled,
		}, b.Engine, cfg.Filters.Names),
		workflow.NewPrintConfirm(workflow.Link{
			ID: workflow.StatePrint, Next: workflow.StateWaitingForTrigger, Failure: workflow.StateWaitingForTrigger,
			Enabled: printEnabled, Counter: t.WaitForPrintTimeout,
		}, b.Transport),
		workflow.NewSlideshow(workflow.Link{
			ID: workflow.StateSlideshow, Next: workflow.StateWaitingForTrigger, Failure: workflow.StateWaitingForTrigger,
			Enabled: config.Enabled(cfg.States.Slideshow), Counter: t.SlideShowTimeout,
		}, b.Store, logo),
		workflow.NewAdmin(workflow.Link{
			ID: workflow.StateAdmin, Next: workflow.StateWaitingForCamera,
			Enabled: true, Counter: workflow.Disabled,
		}, workflow.AdminConfig{
			Grace:     cfg.Admin.Grace(),
			Toggles:   []workflow.StateID{workflow.StateShowPhoto, workflow.StateFilter, workflow.StatePrint, workflow.StateSlideshow},
			Store:     b.Store,
			Probe:     b.Probe,
			Transport: b.Transport,
			Shutdown:  shutdown,
		}),
	}
}

// Controller returns the workflow controller.
func (k *Kiosk) Controller() *workflow.Controller {
	return k.controller
}

// Events returns the event manager.
func (k *Kiosk) Events() *notification.Manager {
	return k.events
}

// Run enters waiting_for_camera and ticks until ctx is done or a quit is
// requested. The controller is closed before Run returns.
func (k *Kiosk) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	if k.cfg.Metrics.Addr != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := metrics.Serve(ctx, k.cfg.Metrics.Addr); err != nil {
				zlog.Error().Msgf("kiosk: %v", err)
			}
		}()
	}

	err := k.controller.Start(workflow.StateWaitingForCamera)
	if err == nil {
		err = k.controller.Run(ctx, k.cfg.Display.FPS)
	}

	cancel()
	wg.Wait()
	k.events.Close()
	return errors.CombineErrors(err, k.controller.Close())
}

// shutdown runs the configured shutdown command and stops the loop.
func (k *Kiosk) shutdown() error {
	zlog.Info().Msgf("kiosk: shutting down: %s", k.cfg.Admin.ShutdownCommand)
	if err := command.Shell(context.Background(), k.runner, k.cfg.Admin.ShutdownCommand); err != nil {
		return errors.Wrap(err, "shutdown command failed")
	}
	k.controller.RequestQuit()
	return nil
}

func newEngine(cfg config.FiltersConfig) (*imagemagick.Engine, error) {
	if cfg.Engine != "imagemagick" {
		return nil, errors.Newf("unknown filter engine: %s", cfg.Engine)
	}
	engine, err := imagemagick.New(cfg.Settings, nil)
	if err != nil {
		return nil, err
	}
	if err := engine.Check(cfg.Names); err != nil {
		return nil, errors.Wrap(err, "invalid filter list")
	}
	return engine, nil
}

// screenSize returns the configured display size, or the framebuffer's
// own resolution in fullscreen mode.
func screenSize(cfg *config.Config) image.Point {
	size := image.Pt(cfg.Display.Width, cfg.Display.Height)
	if !cfg.Booth.Fullscreen || cfg.Display.Backend != "framebuffer" {
		return size
	}
	dev, _ := cfg.Display.Settings["device"].(string)
	if dev == "" {
		dev = "/dev/fb0"
	}
	native, err := display.ScreenSize(dev)
	if err != nil {
		zlog.Warn().Msgf("kiosk: cannot detect screen size, using %dx%d: %v", size.X, size.Y, err)
		return size
	}
	return native
}

func loadLogo(path string) image.Image {
	if path == "" {
		return nil
	}
	img, err := photo.Decode(path)
	if err != nil {
		zlog.Warn().Msgf("kiosk: slideshow logo not loaded: %v", err)
		return nil
	}
	return img
}

// Check validates the backend ids and filter names of cfg against the
// registries without opening any device.
func Check(cfg *config.Config) error {
	var problems []string
	check := func(kind, id string, known []string) {
		if !slices.Contains(known, id) {
			problems = append(problems, fmt.Sprintf("unknown %s backend %q (known: %s)", kind, id, strings.Join(known, ", ")))
		}
	}
	check("camera", cfg.Camera.BackendID, camera.Registered())
	check("io", cfg.IO.BackendID, userio.Registered())
	check("display", cfg.Display.Backend, display.Registered())
	for _, t := range cfg.Print.Transports {
		check("print", t.Type, printer.Registered())
	}
	if _, err := newEngine(cfg.Filters); err != nil {
		problems = append(problems, err.Error())
	}
	if cfg.Slideshow.LogoPath != "" {
		if _, err := os.Stat(cfg.Slideshow.LogoPath); err != nil {
			problems = append(problems, fmt.Sprintf("slideshow logo: %v", err))
		}
	}

	if len(problems) > 0 {
		return errors.Newf("config check failed:\n  - %s", strings.Join(problems, "\n  - "))
	}
	return nil
}
