package camera

import (
	"bytes"
	"context"
	"image"
	"image/jpeg"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osa030/19booth/internal/domain/device"
	"github.com/osa030/19booth/internal/domain/photo"
)

// recordingRunner records command lines and answers with canned output.
type recordingRunner struct {
	calls  []string
	output []byte
	err    error
	// onRun lets a test create the files a real tool would write.
	onRun func(args []string)
}

func (r *recordingRunner) Run(_ context.Context, name string, args ...string) ([]byte, error) {
	r.calls = append(r.calls, name+" "+strings.Join(args, " "))
	if r.onRun != nil {
		r.onRun(args)
	}
	return r.output, r.err
}

func jpegBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h)), nil))
	return buf.Bytes()
}

// writeOutput writes a JPEG to the path following flag in args.
func writeOutput(t *testing.T, flag string) func(args []string) {
	return func(args []string) {
		for i, a := range args {
			if a == flag && i+1 < len(args) && args[i+1] != "-" {
				require.NoError(t, os.WriteFile(args[i+1], jpegBytes(t, 32, 24), 0o644))
			}
		}
	}
}

func fixedNow() time.Time { return time.Date(2024, 6, 1, 18, 30, 0, 0, time.UTC) }

func TestGPhoto2_Commands(t *testing.T) {
	r := &recordingRunner{}
	g := NewGPhoto2(GPhoto2Config{Binary: "gphoto2", Port: "usb:001,004", PreviewTimeout: time.Second, CaptureTimeout: time.Second}, r)

	require.NoError(t, g.SetMemoryCaptureMode())
	require.NoError(t, g.SetIdle())
	require.NoError(t, g.EnableLiveAutofocus())
	require.NoError(t, g.DisableLiveAutofocus())

	assert.Equal(t, []string{
		"gphoto2 --port usb:001,004 --set-config capturetarget=1",
		"gphoto2 --port usb:001,004 --set-config viewfinder=0",
		"gphoto2 --port usb:001,004 --set-config autofocusdrive=1",
		"gphoto2 --port usb:001,004 --set-config autofocusdrive=0",
	}, r.calls)
}

func TestGPhoto2_Preview(t *testing.T) {
	r := &recordingRunner{output: jpegBytes(t, 64, 48)}
	g := NewGPhoto2(GPhoto2Config{Binary: "gphoto2", PreviewTimeout: time.Second}, r)

	img, err := g.Preview()
	require.NoError(t, err)
	assert.Equal(t, image.Pt(64, 48), img.Bounds().Size())
	assert.Equal(t, "gphoto2 --capture-preview --stdout", r.calls[0])

	r.output = []byte("garbage")
	_, err = g.Preview()
	assert.True(t, errors.Is(err, device.ErrPreviewUnavailable))

	r.err = errors.New("*** Error: No camera found. ***")
	_, err = g.Preview()
	assert.True(t, errors.Is(err, device.ErrPreviewUnavailable))
}

func TestGPhoto2_TakePhoto(t *testing.T) {
	dir := t.TempDir()
	r := &recordingRunner{onRun: writeOutput(t, "--filename")}
	g := NewGPhoto2(GPhoto2Config{Binary: "gphoto2", CaptureTimeout: time.Second}, r)
	g.now = fixedNow

	a, err := g.TakePhoto(dir)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(a.Path, dir))
	assert.Contains(t, a.Path, "20240601-183000_")
	assert.NotNil(t, a.Image)
	assert.Contains(t, r.calls[0], "--capture-image-and-download --force-overwrite --filename "+a.Path)

	r.onRun = nil
	r.err = errors.New("PTP timeout")
	_, err = g.TakePhoto(dir)
	assert.True(t, errors.Is(err, device.ErrCaptureFailed))
}

func TestRPiCam_Commands(t *testing.T) {
	dir := t.TempDir()
	r := &recordingRunner{output: jpegBytes(t, 64, 48), onRun: writeOutput(t, "-o")}
	c := NewRPiCam(RPiCamConfig{Binary: "rpicam-still", PreviewWidth: 640, PreviewHeight: 480, Rotation: 180, Quality: 90,
		PreviewTimeout: time.Second, CaptureTimeout: time.Second}, r)

	_, err := c.Preview()
	require.NoError(t, err)
	assert.Equal(t, "rpicam-still -n --immediate --encoding jpg --rotation 180 --width 640 --height 480 --quality 70 -o -", r.calls[0])

	require.NoError(t, c.EnableLiveAutofocus())
	a, err := c.TakePhoto(dir)
	require.NoError(t, err)
	assert.Contains(t, r.calls[1], "--autofocus-on-capture -o "+a.Path)
}

func TestDummy_PreviewAndCapture(t *testing.T) {
	d := NewDummy(DummyConfig{Width: 80, Height: 60, PreviewWidth: 40, PreviewHeight: 30, FailPreviewEvery: 3, Quality: 80})

	for i := 1; i <= 6; i++ {
		img, err := d.Preview()
		if i%3 == 0 {
			assert.True(t, errors.Is(err, device.ErrPreviewUnavailable), "frame %d", i)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, image.Pt(40, 30), img.Bounds().Size())
	}

	a, err := d.TakePhoto(t.TempDir())
	require.NoError(t, err)
	loaded, err := photo.Load(a.Path)
	require.NoError(t, err)
	assert.Equal(t, image.Pt(80, 60), loaded.Image.Bounds().Size())

	require.NoError(t, d.Close())
	_, err = d.Preview()
	assert.Error(t, err)
}

func TestOpen(t *testing.T) {
	cam, err := Open("dummy", map[string]any{"width": 100, "height": 80})
	require.NoError(t, err)
	assert.IsType(t, &Dummy{}, cam)

	_, err = Open("webcam", nil)
	assert.True(t, errors.Is(err, device.ErrCameraUnavailable))

	_, err = Open("rpicam", map[string]any{"rotation": 90})
	assert.True(t, errors.Is(err, device.ErrCameraUnavailable))

	assert.Equal(t, []string{"dummy", "gphoto2", "rpicam"}, Registered())
}
