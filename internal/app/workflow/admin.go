package workflow

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/dustin/go-humanize"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/19booth/internal/domain/device"
)

// SystemProbe reports host information for the admin screen.
type SystemProbe interface {
	DiskUsage(path string) (free, total uint64, err error)
	Addresses() ([]string, error)
	Uptime() (time.Duration, error)
}

// SystemInfo is the snapshot shown on the admin screen.
type SystemInfo struct {
	FreeBytes        uint64
	TotalBytes       uint64
	Addresses        []string
	Uptime           time.Duration
	PhotoCount       int
	PrinterAvailable bool
}

// AdminConfig holds the admin menu collaborators.
type AdminConfig struct {
	Grace     time.Duration // buttons are ignored for this long after entry
	Toggles   []StateID     // states that can be enabled and disabled
	Store     PhotoStore
	Probe     SystemProbe
	Transport device.PrintTransport
	Shutdown  func() error // nil hides the shutdown option
}

// AdminOption is an entry of the admin menu.
type AdminOption struct {
	Label   func() string
	Confirm bool // needs a second accept
	Run     func() error
}

// Admin is the maintenance menu reached by pressing accept and cancel
// together.
type Admin struct {
	*Base
	cfg      AdminConfig
	options  []AdminOption
	selected int
	armed    int
	entered  time.Time
	info     SystemInfo
	errText  string
}

// NewAdmin creates the admin state. Cancel returns to the state that was
// active before admin was entered. The Return option goes to the next state.
func NewAdmin(link Link, cfg AdminConfig) *Admin {
	link.Counter = Disabled
	s := &Admin{cfg: cfg, armed: -1}
	s.Base = NewBase(link, nil)
	s.options = s.buildOptions()
	return s
}

func (s *Admin) buildOptions() []AdminOption {
	opts := []AdminOption{{
		Label: func() string { return s.c.T("admin_return", nil) },
		Run:   s.SwitchNext,
	}}
	for _, id := range s.cfg.Toggles {
		opts = append(opts, AdminOption{
			Label: func() string {
				key := "admin_disabled"
				if s.c.Enabled(id) {
					key = "admin_enabled"
				}
				return s.c.T("admin_toggle", map[string]any{"State": id.String(), "Status": s.c.T(key, nil)})
			},
			Confirm: true,
			Run:     func() error { return s.c.SetEnabled(id, !s.c.Enabled(id)) },
		})
	}
	if s.cfg.Store != nil {
		opts = append(opts, AdminOption{
			Label:   func() string { return s.c.T("admin_rotate", nil) },
			Confirm: true,
			Run:     s.rotate,
		})
	}
	if s.cfg.Transport != nil {
		opts = append(opts, AdminOption{
			Label: func() string { return s.c.T("admin_test_print", nil) },
			Run:   s.testPrint,
		})
	}
	opts = append(opts, AdminOption{
		Label:   func() string { return s.c.T("admin_quit", nil) },
		Confirm: true,
		Run: func() error {
			s.c.RequestQuit()
			return nil
		},
	})
	if s.cfg.Shutdown != nil {
		opts = append(opts, AdminOption{
			Label:   func() string { return s.c.T("admin_shutdown", nil) },
			Confirm: true,
			Run:     s.cfg.Shutdown,
		})
	}
	return opts
}

func (s *Admin) OnEnter() error {
	s.entered = s.c.Now()
	s.selected = 0
	s.armed = -1
	s.errText = ""
	s.refresh()
	return nil
}

func (s *Admin) refresh() {
	c := s.c
	dir := c.session.PhotoDirectory()
	info := SystemInfo{}
	if s.cfg.Probe != nil {
		var err error
		if info.FreeBytes, info.TotalBytes, err = s.cfg.Probe.DiskUsage(dir); err != nil {
			zlog.Warn().Msgf("admin: disk usage: %v", err)
		}
		if info.Addresses, err = s.cfg.Probe.Addresses(); err != nil {
			zlog.Warn().Msgf("admin: addresses: %v", err)
		}
		if info.Uptime, err = s.cfg.Probe.Uptime(); err != nil {
			zlog.Warn().Msgf("admin: uptime: %v", err)
		}
	}
	if s.cfg.Store != nil {
		if files, err := s.cfg.Store.List(dir); err == nil {
			info.PhotoCount = len(files)
		}
	}
	if s.cfg.Transport != nil {
		info.PrinterAvailable = s.cfg.Transport.IsPrinterAvailable(context.Background())
	}
	s.info = info
}

func (s *Admin) OnTick() error {
	c := s.c
	if c.Now().Sub(s.entered) < s.cfg.Grace {
		c.io.ResetButtonStates()
		s.draw()
		return nil
	}

	n := len(s.options)
	switch {
	case c.io.CancelPressed():
		return s.SwitchLast()
	case c.io.AcceptPressed():
		s.activate()
		if c.Active() != s.id {
			return nil
		}
	case c.io.NextPressed():
		s.selected = (s.selected + 1) % n
		s.armed = -1
	case c.io.PrevPressed():
		s.selected = (s.selected - 1 + n) % n
		s.armed = -1
	}
	s.draw()
	return nil
}

// activate runs the selected option. Failures are shown on screen and
// never leave the admin state.
func (s *Admin) activate() {
	opt := s.options[s.selected]
	if opt.Confirm && s.armed != s.selected {
		s.armed = s.selected
		return
	}
	s.armed = -1

	if err := guard(s.id, opt.Run); err != nil {
		zlog.Error().Msgf("admin: %s failed: %v", opt.Label(), err)
		s.errText = err.Error()
		return
	}
	s.errText = ""
	if s.c.Active() == s.id {
		s.refresh()
	}
}

func (s *Admin) rotate() error {
	c := s.c
	dir, err := s.cfg.Store.Rotate(c.session.PhotoDirectory())
	if err != nil {
		return errors.Wrap(err, "failed to rotate photo directory")
	}
	zlog.Info().Msgf("admin: photo directory is now %s", dir)
	c.SetPhotoDirectory(dir)
	return nil
}

func (s *Admin) testPrint() error {
	c := s.c
	last := c.session.LastPhoto()
	if last.Path == "" {
		return errors.New("no photo to print")
	}
	return c.RunBusy(c.T("printing", nil), func() error {
		return s.cfg.Transport.PrintPhoto(context.Background(), last.Path)
	})
}

func (s *Admin) draw() {
	c := s.c
	d := c.display
	d.Clear(colorPanel)
	b := d.Bounds()
	x := b.Min.X + 40
	y := b.Min.Y + 40
	line := func(text string, col color.Color, size device.TextSize) {
		d.Text(text, image.Pt(x, y), device.TextStyle{Size: size, Color: col})
		y += 32
	}

	line(c.T("admin_title", nil), colorHighlight, device.TextLarge)
	y += 8
	line(fmt.Sprintf("%s: %s", c.T("admin_directory", nil), c.session.PhotoDirectory()), colorText, device.TextSmall)
	line(fmt.Sprintf("%s: %d", c.T("admin_photos", nil), s.info.PhotoCount), colorText, device.TextSmall)
	line(fmt.Sprintf("%s: %s / %s", c.T("admin_disk", nil), humanize.IBytes(s.info.FreeBytes), humanize.IBytes(s.info.TotalBytes)), colorText, device.TextSmall)
	for _, addr := range s.info.Addresses {
		line(fmt.Sprintf("%s: %s", c.T("admin_address", nil), addr), colorText, device.TextSmall)
	}
	line(fmt.Sprintf("%s: %s", c.T("admin_uptime", nil), s.info.Uptime.Truncate(time.Second)), colorText, device.TextSmall)
	printer := c.T("admin_printer_offline", nil)
	if s.info.PrinterAvailable {
		printer = c.T("admin_printer_online", nil)
	}
	line(printer, colorText, device.TextSmall)
	y += 16

	for i, opt := range s.options {
		label := opt.Label()
		col := colorText
		if i == s.selected {
			label = "> " + label
			col = colorHighlight
			if i == s.armed {
				label += "  " + c.T("admin_confirm", nil)
				col = colorError
			}
		}
		line(label, col, device.TextInfo)
	}

	if s.errText != "" {
		c.drawFooter(s.errText, colorError)
	} else if c.Now().Sub(s.entered) < s.cfg.Grace {
		c.drawFooter(c.T("admin_release_buttons", nil), colorText)
	}
}

// Options returns the admin menu entries.
func (s *Admin) Options() []AdminOption { return s.options }

// Select highlights option i.
func (s *Admin) Select(i int) {
	if i >= 0 && i < len(s.options) {
		s.selected = i
		s.armed = -1
	}
}

// Info returns the last system snapshot.
func (s *Admin) Info() SystemInfo { return s.info }

// ErrorText returns the error of the last failed option.
func (s *Admin) ErrorText() string { return s.errText }
