package bridge

import (
	"log/slog"
	"strings"

	"github.com/charmbracelet/x/ansi"
)

const (
	backspace = 0x08
	del       = 0x7f
)

// LineAssembler turns the peer's byte stream into candidate prompts.
type LineAssembler struct {
	buf []byte

	maxLen       int // 0 is unbounded
	backspace    bool
	stripEscapes bool
	overflowed   bool

	logger *slog.Logger
}

// NewLineAssembler returns an assembler configured from opts.
func NewLineAssembler(opts Options, logger *slog.Logger) *LineAssembler {
	if logger == nil {
		logger = slog.Default()
	}
	return &LineAssembler{
		maxLen:       opts.MaxLineLength,
		backspace:    opts.Backspace,
		stripEscapes: opts.StripEscapes,
		logger:       logger,
	}
}

// Feed consumes one byte. When c terminates a line, Feed returns the
// trimmed line and true; the line may be empty. The buffer is always empty
// after a terminator.
func (a *LineAssembler) Feed(c byte) (string, bool) {
	switch {
	case c >= 0x80:
		a.logger.Debug("line_byte_dropped", "byte", c)
		return "", false
	case c == '\r' || c == '\n':
		line := string(a.buf)
		a.Clear()
		if a.stripEscapes {
			line = ansi.Strip(line)
		}
		return strings.TrimSpace(line), true
	case a.backspace && (c == backspace || c == del):
		a.Erase()
		return "", false
	}

	if a.maxLen > 0 && len(a.buf) >= a.maxLen {
		if !a.overflowed {
			a.overflowed = true
			a.logger.Warn("line_too_long", "max_line_length", a.maxLen)
		}
		return "", false
	}
	a.buf = append(a.buf, c)
	return "", false
}

// Erase removes the last buffered byte and reports whether there was one.
func (a *LineAssembler) Erase() bool {
	if len(a.buf) == 0 {
		return false
	}
	a.buf = a.buf[:len(a.buf)-1]
	return true
}

// Clear empties the buffer.
func (a *LineAssembler) Clear() {
	a.buf = a.buf[:0]
	a.overflowed = false
}

// Len returns the number of buffered bytes.
func (a *LineAssembler) Len() int {
	return len(a.buf)
}
