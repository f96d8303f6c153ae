package printer

import (
	"context"
	"io"
	"net"
	"strconv"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/hirochachacha/go-smb2"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/19booth/internal/domain/device"
	"github.com/osa030/19booth/internal/infra/settings"
)

// SMBConfig represents the settings of the smb transport.
type SMBConfig struct {
	Host        string        `mapstructure:"host" validate:"required"`
	Port        int           `mapstructure:"port" default:"445" validate:"gte=1,lte=65535"`
	Share       string        `mapstructure:"share" validate:"required"`
	Directory   string        `mapstructure:"directory"`
	User        string        `mapstructure:"user" default:"guest"`
	Password    string        `mapstructure:"password"`
	Domain      string        `mapstructure:"domain"`
	DialTimeout time.Duration `mapstructure:"dial_timeout" default:"5s" validate:"gt=0"`
}

// smbSession is a mounted share. Close unmounts and logs off.
type smbSession interface {
	share
	Close() error
}

// SMBTransport drops photos into a directory on an SMB share that a print
// server watches.
type SMBTransport struct {
	config SMBConfig
	dial   func(ctx context.Context) (smbSession, error)
}

// NewSMBTransport creates an smb transport from its settings block.
func NewSMBTransport(in map[string]any) (*SMBTransport, error) {
	var cfg SMBConfig
	if err := settings.Decode(in, &cfg); err != nil {
		return nil, errors.Wrap(err, "invalid smb settings")
	}
	t := &SMBTransport{config: cfg}
	t.dial = t.mount
	return t, nil
}

func (t *SMBTransport) PrintPhoto(ctx context.Context, path string) error {
	s, err := t.dial(ctx)
	if err != nil {
		return errors.Mark(err, device.ErrPrintUnavailable)
	}
	defer s.Close()

	name := remoteName(t.config.Directory, path)
	if err := drop(s, path, name); err != nil {
		return err
	}
	zlog.Debug().Msgf("smb: stored %s on %s/%s", name, t.config.Host, t.config.Share)
	return nil
}

// IsPrinterAvailable reports whether the share can be mounted.
func (t *SMBTransport) IsPrinterAvailable(ctx context.Context) bool {
	s, err := t.dial(ctx)
	if err != nil {
		zlog.Debug().Msgf("smb: share unreachable: %v", err)
		return false
	}
	_ = s.Close()
	return true
}

func (t *SMBTransport) mount(ctx context.Context) (smbSession, error) {
	addr := net.JoinHostPort(t.config.Host, strconv.Itoa(t.config.Port))
	nd := net.Dialer{Timeout: t.config.DialTimeout}
	conn, err := nd.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to connect to %s", addr)
	}

	d := &smb2.Dialer{
		Initiator: &smb2.NTLMInitiator{
			User:     t.config.User,
			Password: t.config.Password,
			Domain:   t.config.Domain,
		},
	}
	session, err := d.DialContext(ctx, conn)
	if err != nil {
		conn.Close()
		return nil, errors.Wrapf(err, "smb login to %s failed", addr)
	}

	fs, err := session.Mount(t.config.Share)
	if err != nil {
		_ = session.Logoff()
		return nil, errors.Wrapf(err, "failed to mount share %s", t.config.Share)
	}
	return &mountedShare{session: session, fs: fs.WithContext(ctx)}, nil
}

type mountedShare struct {
	session *smb2.Session
	fs      *smb2.Share
}

func (m *mountedShare) Create(name string) (io.WriteCloser, error) {
	return m.fs.Create(name)
}

func (m *mountedShare) Rename(oldname, newname string) error {
	return m.fs.Rename(oldname, newname)
}

func (m *mountedShare) Remove(name string) error {
	return m.fs.Remove(name)
}

func (m *mountedShare) Close() error {
	return errors.CombineErrors(m.fs.Umount(), m.session.Logoff())
}

func init() {
	Register("smb", func(settings map[string]any) (device.PrintTransport, error) {
		return NewSMBTransport(settings)
	})
}
