// Package port provides the byte link to the terminal peer: either a real
// serial device or a pseudo-terminal allocated by the bridge itself.
package port

import (
	"io"
	"time"

	"retrochat/pkg/config"
)

// Port is a duplex byte stream to the peer.
//
// Read waits at most the configured read timeout and returns (0, nil) when
// nothing arrived. Write blocks until every byte has been accepted.
type Port interface {
	io.ReadWriteCloser
	Name() string
}

// Open opens the port described by cfg.
func Open(cfg config.SerialConfig) (Port, error) {
	timeout := time.Duration(cfg.ReadTimeoutMs) * time.Millisecond
	if cfg.PTY {
		return OpenPTY(cfg.Port, cfg.BaudRate, timeout)
	}
	return OpenSerial(cfg.Port, cfg.BaudRate, timeout)
}

func writeAll(w io.Writer, p []byte) (int, error) {
	written := 0
	for written < len(p) {
		n, err := w.Write(p[written:])
		written += n
		if err != nil {
			return written, err
		}
		if n == 0 {
			return written, io.ErrShortWrite
		}
	}
	return written, nil
}
