// Package command runs external tools such as gphoto2 and convert.
package command

import (
	"bytes"
	"context"
	"os/exec"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"
)

// Runner executes a program and returns its standard output.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// Exec runs programs with os/exec. A zero Timeout means no limit.
type Exec struct {
	Timeout time.Duration
}

func (e Exec) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	if e.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.Timeout)
		defer cancel()
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	zlog.Debug().Msgf("command: %s %s took=%v", name, strings.Join(args, " "), time.Since(start))
	if err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			return stdout.Bytes(), errors.Wrapf(err, "%s failed", name)
		}
		return stdout.Bytes(), errors.Wrapf(err, "%s failed: %s", name, msg)
	}
	return stdout.Bytes(), nil
}

// Shell runs a command line through sh -c.
func Shell(ctx context.Context, r Runner, line string) error {
	if strings.TrimSpace(line) == "" {
		return errors.New("empty command")
	}
	_, err := r.Run(ctx, "sh", "-c", line)
	return err
}
