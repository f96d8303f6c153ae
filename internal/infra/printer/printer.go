// Package printer provides the print transports behind device.PrintTransport.
package printer

import (
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/cockroachdb/errors"

	"github.com/osa030/19booth/internal/domain/device"
)

// Factory creates a transport from its settings block.
type Factory func(settings map[string]any) (device.PrintTransport, error)

var registry = make(map[string]Factory)

// Register registers a transport factory.
func Register(typ string, factory Factory) {
	registry[typ] = factory
}

// Registered returns the registered transport types, sorted.
func Registered() []string {
	types := make([]string, 0, len(registry))
	for typ := range registry {
		types = append(types, typ)
	}
	sort.Strings(types)
	return types
}

// New creates the transport registered as typ.
func New(typ string, settings map[string]any) (device.PrintTransport, error) {
	factory, ok := registry[typ]
	if !ok {
		return nil, errors.Newf("unsupported transport type: %s", typ)
	}
	return factory(settings)
}

// share is a remote or local directory a photo is dropped into.
type share interface {
	Create(name string) (io.WriteCloser, error)
	Rename(oldname, newname string) error
	Remove(name string) error
}

// drop copies the file at path into s as name. The file is written under
// a .tmp name and renamed so a watching print daemon never sees a partial
// file.
func drop(s share, path, name string) error {
	src, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(err, "failed to open %s", path)
	}
	defer src.Close()

	tmp := name + ".tmp"
	dst, err := s.Create(tmp)
	if err != nil {
		return errors.Mark(errors.Wrapf(err, "failed to create %s", tmp), device.ErrTransport)
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		_ = s.Remove(tmp)
		return errors.Mark(errors.Wrapf(err, "failed to write %s", tmp), device.ErrTransport)
	}
	if err := dst.Close(); err != nil {
		_ = s.Remove(tmp)
		return errors.Mark(errors.Wrapf(err, "failed to close %s", tmp), device.ErrTransport)
	}
	if err := s.Rename(tmp, name); err != nil {
		_ = s.Remove(tmp)
		return errors.Mark(errors.Wrapf(err, "failed to rename %s", tmp), device.ErrTransport)
	}
	return nil
}

// remoteName is the name a photo gets in a share directory.
func remoteName(dir, path string) string {
	if dir == "" {
		return filepath.Base(path)
	}
	return dir + "/" + filepath.Base(path)
}

