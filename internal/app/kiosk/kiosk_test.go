package kiosk

import (
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osa030/19booth/internal/app/workflow"
	"github.com/osa030/19booth/internal/domain/photo"
	"github.com/osa030/19booth/internal/infra/config"
	"github.com/osa030/19booth/internal/infra/userio"
)

// scriptedSource delivers queued presses, one set per poll.
type scriptedSource struct {
	mu     sync.Mutex
	queue  []userio.Presses
	closed bool
}

func (s *scriptedSource) push(button int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var p userio.Presses
	p[button] = true
	s.queue = append(s.queue, p)
}

func (s *scriptedSource) Poll() (userio.Presses, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.queue) == 0 {
		return userio.Presses{}, nil
	}
	p := s.queue[0]
	s.queue = s.queue[1:]
	return p, nil
}

func (s *scriptedSource) WriteLeds(userio.Leds) error { return nil }

func (s *scriptedSource) Close() error {
	s.closed = true
	return nil
}

// copyEngine writes the input file to the output path.
type copyEngine struct{}

func (copyEngine) ApplyNamedFilter(_ context.Context, input, _, output string, _ image.Point) error {
	data, err := os.ReadFile(input)
	if err != nil {
		return err
	}
	return os.WriteFile(output, data, 0o644)
}

type fakeProbe struct{}

func (fakeProbe) DiskUsage(string) (uint64, uint64, error) { return 1 << 30, 1 << 32, nil }
func (fakeProbe) Addresses() ([]string, error)            { return []string{"wlan0 192.168.1.2"}, nil }
func (fakeProbe) Uptime() (time.Duration, error)          { return time.Hour, nil }

type fakeRunner struct {
	calls []string
}

func (r *fakeRunner) Run(_ context.Context, name string, args ...string) ([]byte, error) {
	r.calls = append(r.calls, strings.Join(append([]string{name}, args...), " "))
	return nil, nil
}

func testConfig(t *testing.T, extra string) (*config.Config, string) {
	t.Helper()
	dir := t.TempDir()
	spool := filepath.Join(dir, "spool")
	require.NoError(t, os.MkdirAll(spool, 0o755))

	yaml := fmt.Sprintf(`
booth:
  photo_directory: %s
  temp_directory: %s
camera:
  backend_id: dummy
  settings:
    width: 64
    height: 48
    preview_width: 32
    preview_height: 24
io:
  backend_id: "null"
display:
  backend: headless
  width: 320
  height: 240
timers:
  photo_countdown: 0
  photo_show_time: 0
print:
  transports:
    - type: spool
      settings:
        directory: %s
%s`, filepath.Join(dir, "photos"), filepath.Join(dir, "tmp"), spool, extra)

	cfg, err := config.Parse([]byte(yaml))
	require.NoError(t, err)
	return cfg, spool
}

func TestNew_BuildsGraph(t *testing.T) {
	cfg, _ := testConfig(t, "")
	k, err := New(cfg, Backends{Engine: copyEngine{}, Probe: fakeProbe{}})
	require.NoError(t, err)

	c := k.Controller()
	for _, id := range []workflow.StateID{
		workflow.StateWaitingForCamera, workflow.StateWaitingForTrigger, workflow.StateCountdown,
		workflow.StateShowPhoto, workflow.StateFilter, workflow.StatePrint,
		workflow.StateSlideshow, workflow.StateAdmin,
	} {
		_, ok := c.State(id)
		assert.True(t, ok, id.String())
		assert.True(t, c.Enabled(id), id.String())
	}
	assert.DirExists(t, cfg.Booth.PhotoDirectory)
	assert.DirExists(t, cfg.Booth.TempDirectory)
	assert.Equal(t, 2, k.Events().SubscriberCount())
	require.NoError(t, c.Close())
}

func TestNew_StateFlags(t *testing.T) {
	cfg, _ := testConfig(t, "states:\n  filter: false\n  slideshow: false\n")
	cfg.Print.Transports = nil

	k, err := New(cfg, Backends{Engine: copyEngine{}, Probe: fakeProbe{}})
	require.NoError(t, err)

	c := k.Controller()
	assert.False(t, c.Enabled(workflow.StateFilter))
	assert.False(t, c.Enabled(workflow.StateSlideshow))
	assert.False(t, c.Enabled(workflow.StatePrint), "no transports disables printing")
	assert.True(t, c.Enabled(workflow.StateShowPhoto))
	require.NoError(t, c.Close())
}

func TestNew_UnknownBackends(t *testing.T) {
	tests := []struct {
		name  string
		patch func(*config.Config)
	}{
		{name: "io", patch: func(c *config.Config) { c.IO.BackendID = "joystick" }},
		{name: "display", patch: func(c *config.Config) { c.Display.Backend = "hologram" }},
		{name: "print", patch: func(c *config.Config) { c.Print.Transports[0].Type = "fax" }},
		{name: "filter engine", patch: func(c *config.Config) { c.Filters.Engine = "gimp" }},
		{name: "filter name", patch: func(c *config.Config) { c.Filters.Names = []string{"glitter"} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, _ := testConfig(t, "")
			tt.patch(cfg)
			_, err := New(cfg, Backends{Probe: fakeProbe{}})
			assert.Error(t, err)
		})
	}
}

func TestKiosk_CaptureAndPrint(t *testing.T) {
	cfg, spool := testConfig(t, "states:\n  filter: false\n")
	src := &scriptedSource{}
	k, err := New(cfg, Backends{
		IO:     userio.NewRail(src),
		Engine: copyEngine{},
		Probe:  fakeProbe{},
		Sleep:  func(time.Duration) {},
	})
	require.NoError(t, err)
	c := k.Controller()

	require.NoError(t, c.Start(workflow.StateWaitingForCamera))
	c.Tick()
	require.Equal(t, workflow.StateWaitingForTrigger, c.Active())

	src.push(userio.ButtonAccept)
	c.Tick()
	require.Equal(t, workflow.StateCountdown, c.Active())

	c.Tick()
	require.Equal(t, workflow.StateShowPhoto, c.Active())
	last := c.Session().LastPhoto()
	require.False(t, last.IsZero())
	assert.Equal(t, cfg.Booth.PhotoDirectory, filepath.Dir(last.Path))

	c.Tick()
	require.Equal(t, workflow.StatePrint, c.Active(), "filter is disabled")

	src.push(userio.ButtonAccept)
	c.Tick()
	assert.Equal(t, workflow.StateWaitingForTrigger, c.Active())
	assert.FileExists(t, filepath.Join(spool, filepath.Base(last.Path)))

	require.NoError(t, c.Close())
	assert.True(t, src.closed)
}

func TestKiosk_RunStopsOnCancel(t *testing.T) {
	cfg, _ := testConfig(t, "")
	k, err := New(cfg, Backends{Engine: copyEngine{}, Probe: fakeProbe{}, Sleep: func(time.Duration) {}})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	require.NoError(t, k.Run(ctx))
	assert.Equal(t, workflow.StateWaitingForTrigger, k.Controller().Active())
	assert.Equal(t, 0, k.Events().SubscriberCount())
}

func TestKiosk_ShutdownCommand(t *testing.T) {
	cfg, _ := testConfig(t, "admin:\n  shutdown_command: sudo poweroff\n")
	r := &fakeRunner{}
	k, err := New(cfg, Backends{Engine: copyEngine{}, Probe: fakeProbe{}, Runner: r})
	require.NoError(t, err)

	require.NoError(t, k.shutdown())
	assert.Equal(t, []string{"sh -c sudo poweroff"}, r.calls)
	assert.True(t, k.Controller().QuitRequested())
}

func TestLoadLogo(t *testing.T) {
	assert.Nil(t, loadLogo(""))
	assert.Nil(t, loadLogo(filepath.Join(t.TempDir(), "missing.png")))

	path := filepath.Join(t.TempDir(), "logo.jpg")
	require.NoError(t, photo.SaveJPEG(image.NewRGBA(image.Rect(0, 0, 8, 8)), path, 80))
	assert.NotNil(t, loadLogo(path))
}

func TestCheck(t *testing.T) {
	cfg, _ := testConfig(t, "")
	assert.NoError(t, Check(cfg))

	cfg.Camera.BackendID = "polaroid"
	cfg.Print.Transports[0].Type = "fax"
	err := Check(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "polaroid")
	assert.Contains(t, err.Error(), "fax")
}
