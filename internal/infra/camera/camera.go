// Package camera provides the camera backends behind device.Camera.
package camera

import (
	"bytes"
	"image"
	"image/jpeg"
	"sort"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/19booth/internal/domain/device"
)

// Factory creates a camera from its settings block.
type Factory func(settings map[string]any) (device.Camera, error)

var registry = make(map[string]Factory)

// Register registers a backend factory.
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

// Open creates the camera for backend id.
func Open(id string, settings map[string]any) (device.Camera, error) {
	factory, ok := registry[id]
	if !ok {
		return nil, errors.Mark(errors.Newf("unknown camera backend: %s", id), device.ErrCameraUnavailable)
	}
	cam, err := factory(settings)
	if err != nil {
		return nil, errors.Mark(errors.Wrapf(err, "failed to create camera backend %s", id), device.ErrCameraUnavailable)
	}
	zlog.Debug().Msgf("camera: opened backend %s", id)
	return cam, nil
}

// decodeFrame decodes a JPEG preview frame.
func decodeFrame(data []byte) (image.Image, error) {
	if len(data) == 0 {
		return nil, errors.New("empty preview frame")
	}
	img, err := jpeg.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrap(err, "failed to decode preview frame")
	}
	return img, nil
}
