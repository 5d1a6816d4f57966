// Package bridge runs one conversation between a serial terminal and a
// chat model: it assembles prompts from the incoming bytes, keeps the
// history, and paces the rendered replies back out.
package bridge

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"retrochat/pkg/ai"
	"retrochat/pkg/commands"

	"github.com/google/uuid"
)

const readBufferSize = 256

// Bridge owns the state of one session. It is driven by a single goroutine.
type Bridge struct {
	port     io.ReadWriter
	provider ai.Provider
	opts     Options

	history  *History
	line     *LineAssembler
	commands *commands.Dispatcher

	sessionID string
	logger    *slog.Logger
	sleep     SleepFunc
	lastByte  byte
	readBuf   []byte
}

// New creates a bridge talking to the peer on port and to the model
// through provider.
func New(port io.ReadWriter, provider ai.Provider, opts Options) *Bridge {
	sessionID := uuid.NewString()

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("session_id", sessionID)

	sleep := opts.Sleep
	if sleep == nil {
		sleep = sleepContext
	}

	return &Bridge{
		port:      port,
		provider:  provider,
		opts:      opts,
		history:   NewHistory(opts.SystemPrompt),
		line:      NewLineAssembler(opts, logger),
		commands:  commands.NewDispatcher(opts.ResetCommand),
		sessionID: sessionID,
		logger:    logger,
		sleep:     sleep,
		readBuf:   make([]byte, readBufferSize),
	}
}

// SessionID identifies this bridge in logs.
func (b *Bridge) SessionID() string {
	return b.sessionID
}

// History returns a copy of the conversation so far.
func (b *Bridge) History() []ai.Message {
	return b.history.Messages()
}

// Reset restores the history to the System message and drops any
// buffered input.
func (b *Bridge) Reset() {
	b.history.Reset()
	b.line.Clear()
}

// Feed processes one byte from the peer. A completed line is handled
// before Feed returns.
func (b *Bridge) Feed(ctx context.Context, c byte) error {
	erasable := b.line.Len() > 0
	line, done := b.line.Feed(c)

	if b.opts.Echo {
		if err := b.echo(c, erasable); err != nil {
			return err
		}
	}
	b.lastByte = c

	if !done {
		return nil
	}
	return b.HandleLine(ctx, line)
}

func (b *Bridge) echo(c byte, erasable bool) error {
	var out string
	switch {
	case c == '\r':
		out = "\r\n"
	case c == '\n':
		if b.lastByte != '\r' {
			out = "\r\n"
		}
	case b.opts.Backspace && (c == backspace || c == del):
		if erasable {
			out = "\b \b"
		}
	case c >= 0x20 && c < del:
		out = string(c)
	}
	if out == "" {
		return nil
	}
	_, err := io.WriteString(b.port, out)
	return err
}

// HandleLine routes a candidate prompt: empty lines are dropped, the reset
// command resets the session, and anything else is dispatched.
func (b *Bridge) HandleLine(ctx context.Context, line string) error {
	if line == "" {
		return nil
	}

	result, ok := b.commands.Dispatch(commands.NewContext(b, line))
	if !ok {
		return b.Dispatch(ctx, line)
	}
	if result.Error != nil {
		return result.Error
	}
	b.logger.Info("bridge_reset")
	_, err := io.WriteString(b.port, result.Reply)
	return err
}

// Dispatch runs one request/response cycle for prompt. A failed completion
// is answered with a diagnostic instead of an error. If the cycle does not
// reach the assistant reply (ctx cancelled, or a panic) the prompt is
// removed again and nothing is written.
func (b *Bridge) Dispatch(ctx context.Context, prompt string) error {
	mark := b.history.Len()
	answered := false
	defer func() {
		if !answered {
			b.history.Truncate(mark)
		}
	}()

	b.history.Append(ai.RoleUser, prompt)
	req := ai.ChatRequest{
		Model:    b.opts.Model,
		Messages: b.history.Window(b.opts.ContextMessages),
	}

	b.logger.Info("bridge_dispatch", "chars", len(prompt), "messages", len(req.Messages))
	start := time.Now()
	resp, err := b.provider.CreateChatCompletion(ctx, req)
	if ctx.Err() != nil {
		return ctx.Err()
	}

	reply := resp.Content
	if err != nil {
		reply = ai.Diagnostic(err)
		b.logger.Warn("bridge_completion_failed", "error", err, "duration", time.Since(start))
	} else {
		b.logger.Info("bridge_reply", "chars", len(reply), "model", resp.Model, "duration", time.Since(start))
	}

	b.history.Append(ai.RoleAssistant, reply)
	answered = true
	return b.writeReply(ctx, reply)
}

// Run polls the port until ctx is cancelled. Errors and panics inside an
// iteration are logged and followed by a pause; Run itself only returns
// once ctx is done.
func (b *Bridge) Run(ctx context.Context) error {
	b.logger.Info("bridge_started")
	defer b.logger.Info("bridge_stopped")

	for ctx.Err() == nil {
		pause := b.opts.PollInterval
		if err := b.step(ctx); err != nil {
			if ctx.Err() != nil {
				break
			}
			b.logger.Error("bridge_loop_error", "error", err)
			pause = b.opts.ErrorPause
		}
		if err := b.sleep(ctx, pause); err != nil {
			break
		}
	}
	return nil
}

// step reads one chunk and feeds all of it. A line that fails only costs
// that line: the bytes after it are still fed, so the next prompt starts
// at a line boundary.
func (b *Bridge) step(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	n, readErr := b.port.Read(b.readBuf)
	var errs []error
	for _, c := range b.readBuf[:n] {
		if ctx.Err() != nil {
			break
		}
		if err := b.feedRecover(ctx, c); err != nil {
			errs = append(errs, err)
		}
	}
	if readErr != nil {
		errs = append(errs, fmt.Errorf("read port: %w", readErr))
	}
	return errors.Join(errs...)
}

func (b *Bridge) feedRecover(ctx context.Context, c byte) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return b.Feed(ctx, c)
}
