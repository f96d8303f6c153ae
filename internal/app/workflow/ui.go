package workflow

import (
	"image"
	"image/color"

	"github.com/osa030/19booth/internal/domain/device"
	"github.com/osa030/19booth/internal/domain/photo"
)

var (
	colorBackground = color.RGBA{R: 128, G: 128, B: 128, A: 255}
	colorPanel      = color.RGBA{R: 40, G: 40, B: 40, A: 255}
	colorText       = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	colorError      = color.RGBA{R: 200, A: 255}
	colorHighlight  = color.RGBA{R: 255, G: 255, A: 255}
	colorAccept     = color.RGBA{R: 34, G: 139, B: 34, A: 255}
)

// drawFull clears the screen and shows img fitted to it.
func (c *Controller) drawFull(img image.Image) {
	c.display.Clear(colorBackground)
	if img == nil {
		return
	}
	bounds := c.display.Bounds()
	c.display.Blit(img, fitInto(img.Bounds().Size(), bounds))
}

// drawInfo shows a line of text in the top-left corner.
func (c *Controller) drawInfo(text string) {
	at := c.display.Bounds().Min.Add(image.Pt(20, 20))
	c.display.Text(text, at, device.TextStyle{Size: device.TextInfo, Color: colorText})
}

// drawCenter shows text in the middle of the screen.
func (c *Controller) drawCenter(text string, size device.TextSize, col color.Color) {
	c.display.Text(text, midpoint(c.display.Bounds()), device.TextStyle{Size: size, Color: col, Centered: true})
}

// drawFooter shows a hint line at the bottom of the screen.
func (c *Controller) drawFooter(text string, col color.Color) {
	b := c.display.Bounds()
	at := image.Pt((b.Min.X+b.Max.X)/2, b.Max.Y-30)
	c.display.Text(text, at, device.TextStyle{Size: device.TextInfo, Color: col, Centered: true})
}

// showError paints a full screen error message.
func (c *Controller) showError(text string) {
	c.display.Clear(colorPanel)
	c.drawCenter(text, device.TextInfo, colorError)
}

func midpoint(r image.Rectangle) image.Point {
	return image.Pt((r.Min.X+r.Max.X)/2, (r.Min.Y+r.Max.Y)/2)
}

// fitInto returns the largest rectangle with src's aspect ratio centered in dst.
func fitInto(src image.Point, dst image.Rectangle) image.Rectangle {
	return photo.FitRect(src, dst.Size()).Add(dst.Min)
}
