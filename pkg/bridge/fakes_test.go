package bridge

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"time"

	"retrochat/pkg/ai"
)

// fakePort serves scripted reads and records everything written. When the
// script runs out it calls onDrain and returns no data.
type fakePort struct {
	reads   [][]byte
	readErr []error
	onDrain func()
	out     bytes.Buffer
}

func (p *fakePort) Read(buf []byte) (int, error) {
	if len(p.reads) == 0 {
		if p.onDrain != nil {
			p.onDrain()
		}
		return 0, nil
	}
	chunk := p.reads[0]
	p.reads = p.reads[1:]
	var err error
	if len(p.readErr) > 0 {
		err = p.readErr[0]
		p.readErr = p.readErr[1:]
	}
	return copy(buf, chunk), err
}

func (p *fakePort) Write(b []byte) (int, error) {
	return p.out.Write(b)
}

type scriptedReply struct {
	content string
	err     error
	panic   string
	before  func()
}

// scriptedProvider answers requests from a script, repeating the last
// entry once it runs out.
type scriptedProvider struct {
	mu       sync.Mutex
	script   []scriptedReply
	requests []ai.ChatRequest
}

func (p *scriptedProvider) CreateChatCompletion(ctx context.Context, req ai.ChatRequest) (ai.ChatResponse, error) {
	p.mu.Lock()
	p.requests = append(p.requests, req)
	r := scriptedReply{content: "ok"}
	if len(p.script) > 0 {
		r = p.script[0]
		if len(p.script) > 1 {
			p.script = p.script[1:]
		}
	}
	p.mu.Unlock()

	if r.before != nil {
		r.before()
	}
	if r.panic != "" {
		panic(r.panic)
	}
	if r.err != nil {
		return ai.ChatResponse{}, r.err
	}
	return ai.ChatResponse{Content: r.content, Model: req.Model}, nil
}

// sleepRecorder never blocks; it records each requested duration.
type sleepRecorder struct {
	calls []time.Duration
}

func (s *sleepRecorder) Sleep(ctx context.Context, d time.Duration) error {
	s.calls = append(s.calls, d)
	return ctx.Err()
}

func (s *sleepRecorder) count(d time.Duration) int {
	n := 0
	for _, c := range s.calls {
		if c == d {
			n++
		}
	}
	return n
}

func noSleep(ctx context.Context, _ time.Duration) error {
	return ctx.Err()
}

func testOptions() Options {
	return Options{
		Model:        "test-model",
		SystemPrompt: "You are a helpful assistant.",
		ResetCommand: "/new",
		CharDelay:    5 * time.Millisecond,
		PollInterval: 10 * time.Millisecond,
		ErrorPause:   time.Second,
		Sleep:        noSleep,
	}
}

var errBoom = errors.New("boom")
