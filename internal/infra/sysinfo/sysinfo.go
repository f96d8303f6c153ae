// Package sysinfo reports host information for the admin screen.
package sysinfo

import (
	"net/netip"
	"sort"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/net"
)

// Probe reads host information through gopsutil.
type Probe struct{}

// New creates a probe.
func New() *Probe {
	return &Probe{}
}

// DiskUsage returns free and total bytes of the filesystem holding path.
func (p *Probe) DiskUsage(path string) (free, total uint64, err error) {
	u, err := disk.Usage(path)
	if err != nil {
		return 0, 0, errors.Wrapf(err, "failed to read disk usage of %s", path)
	}
	return u.Free, u.Total, nil
}

// Addresses returns the IP addresses of all interfaces that are up,
// excluding loopback.
func (p *Probe) Addresses() ([]string, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, errors.Wrap(err, "failed to list network interfaces")
	}
	return addresses(ifaces), nil
}

// Uptime returns the host uptime.
func (p *Probe) Uptime() (time.Duration, error) {
	secs, err := host.Uptime()
	if err != nil {
		return 0, errors.Wrap(err, "failed to read uptime")
	}
	return time.Duration(secs) * time.Second, nil
}

func addresses(ifaces net.InterfaceStatList) []string {
	var out []string
	for _, iface := range ifaces {
		if !hasFlag(iface.Flags, "up") || hasFlag(iface.Flags, "loopback") {
			continue
		}
		for _, a := range iface.Addrs {
			prefix, err := netip.ParsePrefix(a.Addr)
			if err != nil {
				continue
			}
			addr := prefix.Addr()
			if addr.IsLoopback() || addr.IsLinkLocalUnicast() {
				continue
			}
			out = append(out, iface.Name+" "+addr.String())
		}
	}
	sort.Strings(out)
	return out
}

func hasFlag(flags []string, want string) bool {
	for _, f := range flags {
		if f == want {
			return true
		}
	}
	return false
}
