package bridge

import (
	"context"
	"io"

	"retrochat/pkg/render"
)

const (
	replyPrefix = "\r\n"
	replySuffix = "\r\n\r\n> "
)

// writeReply renders text for the terminal and sends it framed, one byte
// at a time with the configured delay after each.
func (b *Bridge) writeReply(ctx context.Context, text string) error {
	body := render.Clean(text)

	if _, err := io.WriteString(b.port, replyPrefix); err != nil {
		return err
	}
	if err := b.pace(ctx, body); err != nil {
		return err
	}
	_, err := io.WriteString(b.port, replySuffix)
	return err
}

func (b *Bridge) pace(ctx context.Context, body string) error {
	for i := 0; i < len(body); i++ {
		if _, err := b.port.Write([]byte{body[i]}); err != nil {
			return err
		}
		if err := b.sleep(ctx, b.opts.CharDelay); err != nil {
			return err
		}
	}
	return nil
}
