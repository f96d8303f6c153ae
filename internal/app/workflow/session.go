package workflow

import (
	"image"
	"sync"

	"github.com/google/uuid"

	"github.com/osa030/19booth/internal/domain/photo"
)

// Session holds the mutable kiosk data shared by all states.
type Session struct {
	mu sync.RWMutex

	id       string
	photoDir string
	tempDir  string
	screen   image.Point

	// Replaced together, never mutated in place.
	lastPhoto        photo.Artifact
	lastPhotoResized image.Image
}

// NewSession creates a new session.
func NewSession(photoDir, tempDir string, screen image.Point) *Session {
	return &Session{
		id:       uuid.New().String(),
		photoDir: photoDir,
		tempDir:  tempDir,
		screen:   screen,
	}
}

// ID returns the session ID.
func (s *Session) ID() string {
	return s.id
}

// PhotoDirectory returns the directory captures are stored in.
func (s *Session) PhotoDirectory() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.photoDir
}

// setPhotoDirectory changes the capture directory.
func (s *Session) setPhotoDirectory(dir string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.photoDir = dir
}

// TempDirectory returns the scratch directory for thumbnails.
func (s *Session) TempDirectory() string {
	return s.tempDir
}

// Screen returns the display size.
func (s *Session) Screen() image.Point {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.screen
}

// LastPhoto returns the last captured or derived photo.
func (s *Session) LastPhoto() photo.Artifact {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastPhoto
}

// LastPhotoResized returns the display-scaled copy of the last photo.
func (s *Session) LastPhotoResized() image.Image {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastPhotoResized
}

// Photos returns the last photo together with its display copy.
func (s *Session) Photos() (photo.Artifact, image.Image) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastPhoto, s.lastPhotoResized
}

// HasPhoto reports whether a photo was taken in this session.
func (s *Session) HasPhoto() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return !s.lastPhoto.IsZero()
}

// setLastPhoto replaces the last photo and its display copy in one step.
func (s *Session) setLastPhoto(a photo.Artifact) {
	var resized image.Image
	if a.Image != nil {
		resized = photo.Fit(a.Image, s.Screen())
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastPhoto = a
	s.lastPhotoResized = resized
}
