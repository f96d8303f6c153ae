// Package device defines the capability contracts the kiosk workflow consumes.
// Implementations live under internal/infra.
package device

import (
	"context"
	"image"
	"image/color"

	"github.com/osa030/19booth/internal/domain/photo"
)

// Camera wraps preview and capture access to the physical camera.
type Camera interface {
	// SetMemoryCaptureMode stores captures on the camera's memory card.
	SetMemoryCaptureMode() error
	// SetIdle turns the viewfinder off.
	SetIdle() error
	EnableLiveAutofocus() error
	DisableLiveAutofocus() error
	// Preview returns a low resolution live frame.
	// Failures are marked with ErrPreviewUnavailable.
	Preview() (image.Image, error)
	// TakePhoto captures a full resolution photo into dir.
	// Failures are marked with ErrCaptureFailed.
	TakePhoto(dir string) (photo.Artifact, error)
	Close() error
}

// UserIO is the button and LED rail.
// Button queries are edge triggered: they report presses since the last reset.
type UserIO interface {
	// Update polls the hardware for new button edges.
	Update() error
	ResetButtonStates()
	// AnyButtonPressed reports whether any button was pressed.
	// reset consumes the edges, otherwise they are only peeked.
	AnyButtonPressed(reset bool) bool
	// ButtonIndexPressed reports and consumes the edge of button idx (0..3).
	ButtonIndexPressed(idx int) bool
	AcceptPressed() bool
	CancelPressed() bool
	// AdminComboPressed peeks accept and cancel and reports both pressed.
	AdminComboPressed() bool
	NextPressed() bool
	PrevPressed() bool
	SetLed(led LedType, state LedState)
	SetAllLeds(state LedState)
	ShowLedCountdown(counter int)
	// Flush writes pending LED state to the hardware.
	Flush() error
	Close() error
}

// Quitter is implemented by UserIO backends that can request application exit.
type Quitter interface {
	QuitRequested() bool
}

// FilterEngine applies named image filters to photo files.
type FilterEngine interface {
	// ApplyNamedFilter writes the filtered input to output.
	// A zero size keeps the input dimensions.
	// Failures are marked with ErrFilterFailed.
	ApplyNamedFilter(ctx context.Context, input, filterID, output string, size image.Point) error
}

// PrintTransport delivers photos to a printer.
type PrintTransport interface {
	// PrintPhoto sends the file at path to the printer.
	// Failures are marked with ErrPrintUnavailable or ErrTransport.
	PrintPhoto(ctx context.Context, path string) error
	IsPrinterAvailable(ctx context.Context) bool
}

// TextSize selects one of the display fonts.
type TextSize int

const (
	TextSmall TextSize = iota
	TextInfo
	TextLarge
	TextHuge
)

// TextStyle describes how a string is drawn.
type TextStyle struct {
	Size     TextSize
	Color    color.Color
	Centered bool // at is the text center instead of its top-left corner
}

// Display is the drawing surface. Frames become visible on Present.
type Display interface {
	Bounds() image.Rectangle
	Clear(c color.Color)
	// Blit scales img into dst.
	Blit(img image.Image, dst image.Rectangle)
	Fill(r image.Rectangle, c color.Color)
	Text(s string, at image.Point, style TextStyle)
	Present() error
	Close() error
}
