package xdp

import (
	"errors"
	"fmt"
	"net"

	"github.com/cilium/ebpf"
	"github.com/cilium/ebpf/link"
	"golang.org/x/sys/unix"
)

// ErrNotPrivileged is returned by Attach when not running as root.
var ErrNotPrivileged = errors.New("attaching XDP programs requires root")

// Attachment is a loaded program attached to an interface. Close
// detaches and unloads it.
type Attachment struct {
	Interface string
	Ifindex   int
	prog      *ebpf.Program
	link      link.Link
}

// Close detaches the program and releases its file descriptors.
func (a *Attachment) Close() error {
	return errors.Join(a.link.Close(), a.prog.Close())
}

// Attach loads spec and attaches it to the named interface.
func Attach(spec *ebpf.ProgramSpec, ifname string) (*Attachment, error) {
	if unix.Geteuid() != 0 {
		return nil, ErrNotPrivileged
	}

	iface, err := net.InterfaceByName(ifname)
	if err != nil {
		return nil, fmt.Errorf("interface %s: %w", ifname, err)
	}

	prog, err := ebpf.NewProgram(spec)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", spec.Name, err)
	}

	l, err := link.AttachXDP(link.XDPOptions{
		Program:   prog,
		Interface: iface.Index,
	})
	if err != nil {
		prog.Close()
		return nil, fmt.Errorf("attach %s to %s: %w", spec.Name, ifname, err)
	}

	return &Attachment{Interface: ifname, Ifindex: iface.Index, prog: prog, link: l}, nil
}
