package bridge

import (
	"context"
	"log/slog"
	"time"

	"retrochat/pkg/config"
)

// SleepFunc waits for d or until ctx is done, returning ctx.Err() in the
// latter case.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Options tunes a Bridge.
type Options struct {
	Model        string
	SystemPrompt string
	ResetCommand string

	CharDelay    time.Duration
	PollInterval time.Duration
	ErrorPause   time.Duration

	MaxLineLength   int
	ContextMessages int

	Echo         bool
	Backspace    bool
	StripEscapes bool

	Sleep  SleepFunc
	Logger *slog.Logger
}

// OptionsFromConfig maps the session section of cfg onto Options.
func OptionsFromConfig(cfg config.Config) Options {
	s := cfg.Session
	return Options{
		Model:           cfg.Model,
		SystemPrompt:    s.SystemPrompt,
		ResetCommand:    s.ResetCommand,
		CharDelay:       time.Duration(s.CharDelayMs) * time.Millisecond,
		PollInterval:    time.Duration(s.PollIntervalMs) * time.Millisecond,
		ErrorPause:      time.Duration(s.ErrorPauseMs) * time.Millisecond,
		MaxLineLength:   s.MaxLineLength,
		ContextMessages: s.ContextMessages,
		Echo:            s.Echo,
		Backspace:       s.Backspace,
		StripEscapes:    s.StripEscapes,
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
