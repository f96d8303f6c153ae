package printer

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"

	"github.com/osa030/19booth/internal/domain/device"
	"github.com/osa030/19booth/internal/infra/settings"
)

// SpoolConfig represents the settings of the spool transport.
type SpoolConfig struct {
	Directory string `mapstructure:"directory" validate:"required"`
}

// SpoolTransport drops photos into a local or mounted directory.
type SpoolTransport struct {
	config SpoolConfig
}

// NewSpoolTransport creates a spool transport from its settings block.
func NewSpoolTransport(in map[string]any) (*SpoolTransport, error) {
	var cfg SpoolConfig
	if err := settings.Decode(in, &cfg); err != nil {
		return nil, errors.Wrap(err, "invalid spool settings")
	}
	return &SpoolTransport{config: cfg}, nil
}

func (t *SpoolTransport) PrintPhoto(_ context.Context, path string) error {
	if !t.writable() {
		return errors.Mark(errors.Newf("spool directory %s not writable", t.config.Directory), device.ErrPrintUnavailable)
	}
	return drop(dirShare(t.config.Directory), path, filepath.Base(path))
}

// IsPrinterAvailable reports whether the spool directory is writable.
func (t *SpoolTransport) IsPrinterAvailable(context.Context) bool {
	return t.writable()
}

func (t *SpoolTransport) writable() bool {
	f, err := os.CreateTemp(t.config.Directory, ".probe-*")
	if err != nil {
		return false
	}
	f.Close()
	_ = os.Remove(f.Name())
	return true
}

// dirShare is a share backed by a local directory.
type dirShare string

func (d dirShare) Create(name string) (io.WriteCloser, error) {
	return os.Create(filepath.Join(string(d), name))
}

func (d dirShare) Rename(oldname, newname string) error {
	return os.Rename(filepath.Join(string(d), oldname), filepath.Join(string(d), newname))
}

func (d dirShare) Remove(name string) error {
	return os.Remove(filepath.Join(string(d), name))
}

func init() {
	Register("spool", func(settings map[string]any) (device.PrintTransport, error) {
		return NewSpoolTransport(settings)
	})
}
