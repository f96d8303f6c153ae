// Package display provides the drawing surface behind device.Display. A
// Canvas renders into memory and hands finished frames to a Sink.
package display

import (
	"image"
	"image/color"
	"sort"
	"sync"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/osa030/19booth/internal/domain/device"
)

// Sink receives presented frames.
type Sink interface {
	Write(frame *image.RGBA) error
	Close() error
}

// Factory creates a sink for a screen of size from its settings block.
type Factory func(size image.Point, settings map[string]any) (Sink, error)

var registry = make(map[string]Factory)

// Register registers a sink factory.
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

// New creates a canvas of size backed by the sink registered as id.
func New(id string, size image.Point, settings map[string]any) (*Canvas, error) {
	factory, ok := registry[id]
	if !ok {
		return nil, errors.Newf("unknown display backend: %s", id)
	}
	sink, err := factory(size, settings)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to create display backend %s", id)
	}
	zlog.Debug().Msgf("display: opened backend %s %dx%d", id, size.X, size.Y)
	return NewCanvas(size, sink), nil
}

// textScale is the integer magnification of the 7x13 face per size.
var textScale = map[device.TextSize]int{
	device.TextSmall: 1,
	device.TextInfo:  2,
	device.TextLarge: 4,
	device.TextHuge:  10,
}

// Canvas implements device.Display.
type Canvas struct {
	mu   sync.Mutex
	img  *image.RGBA
	sink Sink
}

// NewCanvas creates a canvas of size writing to sink.
func NewCanvas(size image.Point, sink Sink) *Canvas {
	return &Canvas{
		img:  image.NewRGBA(image.Rectangle{Max: size}),
		sink: sink,
	}
}

func (c *Canvas) Bounds() image.Rectangle {
	return c.img.Bounds()
}

func (c *Canvas) Clear(col color.Color) {
	c.Fill(c.img.Bounds(), col)
}

func (c *Canvas) Fill(r image.Rectangle, col color.Color) {
	c.mu.Lock()
	defer c.mu.Unlock()
	draw.Draw(c.img, r, image.NewUniform(col), image.Point{}, draw.Src)
}

func (c *Canvas) Blit(img image.Image, dst image.Rectangle) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if img.Bounds().Size() == dst.Size() {
		draw.Draw(c.img, dst, img, img.Bounds().Min, draw.Src)
		return
	}
	draw.ApproxBiLinear.Scale(c.img, dst, img, img.Bounds(), draw.Src, nil)
}

func (c *Canvas) Text(s string, at image.Point, style device.TextStyle) {
	if s == "" {
		return
	}
	scale, ok := textScale[style.Size]
	if !ok {
		scale = 1
	}
	col := style.Color
	if col == nil {
		col = color.White
	}

	glyphs := renderText(s, col)
	size := glyphs.Bounds().Size().Mul(scale)
	dst := image.Rectangle{Min: at, Max: at.Add(size)}
	if style.Centered {
		dst = dst.Sub(size.Div(2))
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	draw.NearestNeighbor.Scale(c.img, dst, glyphs, glyphs.Bounds(), draw.Over, nil)
}

// Present hands a copy of the frame to the sink.
func (c *Canvas) Present() error {
	c.mu.Lock()
	frame := image.NewRGBA(c.img.Bounds())
	copy(frame.Pix, c.img.Pix)
	c.mu.Unlock()

	if err := c.sink.Write(frame); err != nil {
		return errors.Wrap(err, "failed to present frame")
	}
	return nil
}

func (c *Canvas) Close() error {
	return c.sink.Close()
}

// Snapshot returns a copy of the current back buffer.
func (c *Canvas) Snapshot() *image.RGBA {
	c.mu.Lock()
	defer c.mu.Unlock()
	frame := image.NewRGBA(c.img.Bounds())
	copy(frame.Pix, c.img.Pix)
	return frame
}

// renderText draws s at 1x on a transparent image sized to the text.
func renderText(s string, col color.Color) *image.RGBA {
	face := basicfont.Face7x13
	width := font.MeasureString(face, s).Ceil()
	m := face.Metrics()
	height := (m.Ascent + m.Descent).Ceil()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	d := font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(col),
		Face: face,
		Dot:  fixed.P(0, m.Ascent.Ceil()),
	}
	d.DrawString(s)
	return img
}
