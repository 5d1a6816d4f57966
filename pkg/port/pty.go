package port

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/creack/pty"
	"golang.org/x/term"
)

// PTYPort is a Port backed by a pseudo-terminal the bridge allocates. The
// peer (a terminal emulator, or a serial forwarder) opens the slave side,
// which is published as a symlink at the configured path.
type PTYPort struct {
	master      *os.File
	slave       *os.File
	link        string
	readTimeout time.Duration

	closeOnce sync.Once
	closeErr  error
}

// OpenPTY allocates a pseudo-terminal in raw mode and links it at link.
// An empty link skips publishing.
func OpenPTY(link string, baud int, readTimeout time.Duration) (*PTYPort, error) {
	master, slave, err := pty.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open PTY: %w", err)
	}

	p := &PTYPort{
		master:      master,
		slave:       slave,
		readTimeout: readTimeout,
	}

	if _, err := term.MakeRaw(int(slave.Fd())); err != nil {
		_ = p.Close()
		return nil, fmt.Errorf("failed to set raw mode on %s: %w", slave.Name(), err)
	}
	if err := setLineSpeed(slave, baud); err != nil {
		// Line speed on a PTY is informational only.
		slog.Warn("pty_line_speed_failed", "slave", slave.Name(), "baud", baud, "error", err)
	}

	if link != "" {
		if err := publishLink(slave.Name(), link); err != nil {
			_ = p.Close()
			return nil, err
		}
		p.link = link
	}

	return p, nil
}

// publishLink points link at target, replacing a stale symlink but never a
// regular file.
func publishLink(target, link string) error {
	info, err := os.Lstat(link)
	switch {
	case err == nil && info.Mode()&os.ModeSymlink == 0:
		return fmt.Errorf("refusing to replace %s: not a symlink", link)
	case err == nil:
		if err := os.Remove(link); err != nil {
			return fmt.Errorf("failed to remove stale link %s: %w", link, err)
		}
	case !errors.Is(err, os.ErrNotExist):
		return fmt.Errorf("failed to stat %s: %w", link, err)
	}

	if err := os.Symlink(target, link); err != nil {
		return fmt.Errorf("failed to link %s to %s: %w", link, target, err)
	}
	return nil
}

// Read returns (0, nil) when the read timeout elapses with no data.
func (p *PTYPort) Read(b []byte) (int, error) {
	if p.readTimeout > 0 {
		if err := p.master.SetReadDeadline(time.Now().Add(p.readTimeout)); err != nil && !errors.Is(err, os.ErrNoDeadline) {
			return 0, err
		}
	}
	n, err := p.master.Read(b)
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return n, nil
	}
	return n, err
}

func (p *PTYPort) Write(b []byte) (int, error) {
	return writeAll(p.master, b)
}

// Close removes the published link and releases both PTY ends. It is safe
// to call more than once.
func (p *PTYPort) Close() error {
	p.closeOnce.Do(func() {
		var errs []error
		if p.link != "" {
			if target, err := os.Readlink(p.link); err == nil && target == p.slave.Name() {
				if err := os.Remove(p.link); err != nil {
					errs = append(errs, err)
				}
			}
		}
		if err := p.slave.Close(); err != nil {
			errs = append(errs, err)
		}
		if err := p.master.Close(); err != nil {
			errs = append(errs, err)
		}
		p.closeErr = errors.Join(errs...)
	})
	return p.closeErr
}

// Name returns the published link, or the slave device when unlinked.
func (p *PTYPort) Name() string {
	if p.link != "" {
		return p.link
	}
	return p.slave.Name()
}

// SlaveName returns the device path of the peer side.
func (p *PTYPort) SlaveName() string {
	return p.slave.Name()
}
