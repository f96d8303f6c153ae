package workflow

import (
	"fmt"
	"image"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/osa030/19booth/internal/domain/photo"
)

func TestSession_PhotosReplacedTogether(t *testing.T) {
	screen := image.Pt(100, 100)
	s := NewSession("", "", screen)

	var torn atomic.Bool
	stop := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				a, resized := s.Photos()
				if a.Image == nil {
					continue
				}
				want := photo.FitRect(a.Image.Bounds().Size(), screen).Size()
				if resized == nil || resized.Bounds().Size() != want {
					torn.Store(true)
				}
			}
		}()
	}

	for i := 1; i <= 200; i++ {
		img := image.NewRGBA(image.Rect(0, 0, 10+i, 50))
		s.setLastPhoto(photo.Artifact{Image: img, Path: fmt.Sprintf("%d.jpg", i)})
	}
	close(stop)
	wg.Wait()

	assert.False(t, torn.Load())
}

func TestSession_LastPhotoIsAValue(t *testing.T) {
	s := NewSession("/photos", "/tmp/booth", image.Pt(320, 240))
	assert.False(t, s.HasPhoto())
	assert.NotEmpty(t, s.ID())

	first := photo.Artifact{Image: image.NewRGBA(image.Rect(0, 0, 64, 48)), Path: "a.jpg"}
	s.setLastPhoto(first)
	held := s.LastPhoto()

	s.setLastPhoto(photo.Artifact{Image: image.NewRGBA(image.Rect(0, 0, 32, 24)), Path: "b.jpg"})
	assert.Equal(t, "a.jpg", held.Path)
	assert.Equal(t, "b.jpg", s.LastPhoto().Path)
	assert.Equal(t, image.Pt(320, 240), s.LastPhotoResized().Bounds().Size())
}

func TestSession_PhotoDirectory(t *testing.T) {
	s := NewSession("/photos", "/tmp/booth", image.Pt(320, 240))
	s.setPhotoDirectory("/media/usb/photos")
	assert.Equal(t, "/media/usb/photos", s.PhotoDirectory())
	assert.Equal(t, "/tmp/booth", s.TempDirectory())
}
