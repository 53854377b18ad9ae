package audio

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// ErrQueueFull is returned when a cue is dropped because the worker is behind.
var ErrQueueFull = errors.New("audio queue full")

// ErrClosed is returned by Trigger after Close.
var ErrClosed = errors.New("audio player closed")

// AsyncPlayer hands cues to a single background worker so Trigger never
// waits on the wrapped player. Cues are played in order; when the queue is
// full the newest cue is dropped.
type AsyncPlayer struct {
	next   Player
	logger *slog.Logger
	queue  chan Cue

	mu     sync.RWMutex
	closed bool
	done   chan struct{}
}

// Ensure AsyncPlayer implements Player interface
var _ Player = (*AsyncPlayer)(nil)

// NewAsyncPlayer starts the worker. size is the queue capacity; values
// below one are raised to one.
func NewAsyncPlayer(next Player, size int, logger *slog.Logger) *AsyncPlayer {
	if size < 1 {
		size = 1
	}
	p := &AsyncPlayer{
		next:   next,
		logger: logger,
		queue:  make(chan Cue, size),
		done:   make(chan struct{}),
	}
	go p.run()
	return p
}

func (p *AsyncPlayer) Trigger(ctx context.Context, cue Cue) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrClosed
	}

	select {
	case p.queue <- cue:
		return nil
	default:
		p.logger.Warn("Dropping audio cue", "cue", cue.ID, "reason", "queue full")
		return ErrQueueFull
	}
}

// Close stops accepting cues and waits for queued cues to finish.
func (p *AsyncPlayer) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.queue)
	p.mu.Unlock()

	<-p.done
	return nil
}

func (p *AsyncPlayer) run() {
	defer close(p.done)
	for cue := range p.queue {
		if err := p.play(cue); err != nil {
			p.logger.Warn("Audio cue failed", "cue", cue.ID, "error", err)
		}
	}
}

func (p *AsyncPlayer) play(cue Cue) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("audio player panic: %v", r)
		}
	}()
	return p.next.Trigger(context.Background(), cue)
}
