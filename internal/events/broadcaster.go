package events

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jwebster45206/branch-engine/pkg/story"
)

const (
	broadcastQueueSize = 64
	publishTimeout     = 2 * time.Second
)

type broadcast struct {
	sessionID uuid.UUID
	event     Event
}

// Broadcaster publishes scene transitions of a play session. Events are
// queued and published by one background worker, so a slow or missing
// Redis never holds up play. When the queue is full the newest event is
// dropped.
type Broadcaster struct {
	client *Client
	story  string
	logger *slog.Logger
	queue  chan broadcast

	mu     sync.RWMutex
	closed bool
	done   chan struct{}
}

// Ensure Broadcaster implements story.Observer interface
var _ story.Observer = (*Broadcaster)(nil)

// NewBroadcaster starts the publishing worker. Call Close when the
// session is over.
func NewBroadcaster(client *Client, storyName string, logger *slog.Logger) *Broadcaster {
	b := &Broadcaster{
		client: client,
		story:  storyName,
		logger: logger,
		queue:  make(chan broadcast, broadcastQueueSize),
		done:   make(chan struct{}),
	}
	go b.run()
	return b
}

func (b *Broadcaster) SceneEntered(_ context.Context, sessionID uuid.UUID, label story.Label) {
	b.enqueue(sessionID, Event{Type: EventTypeSceneEntered, Label: label.String(), Time: time.Now().UTC()})
}

func (b *Broadcaster) StoryEnded(_ context.Context, sessionID uuid.UUID) {
	b.enqueue(sessionID, Event{Type: EventTypeStoryEnded, Time: time.Now().UTC()})
}

// Close stops accepting events and waits for queued ones to be published.
func (b *Broadcaster) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	close(b.queue)
	b.mu.Unlock()

	<-b.done
	return nil
}

func (b *Broadcaster) enqueue(sessionID uuid.UUID, event Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		b.logger.Debug("Story event after close", "type", event.Type)
		return
	}

	select {
	case b.queue <- broadcast{sessionID: sessionID, event: event}:
	default:
		b.logger.Warn("Dropping story event", "type", event.Type, "reason", "queue full")
	}
}

func (b *Broadcaster) run() {
	defer close(b.done)
	for item := range b.queue {
		b.send(item.sessionID, item.event)
	}
}

func (b *Broadcaster) send(sessionID uuid.UUID, event Event) {
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	event.SessionID = sessionID.String()
	event.Story = b.story
	if err := b.client.publish(ctx, StoryChannel(sessionID), event); err != nil {
		b.logger.Warn("Failed to broadcast story event", "type", event.Type, "error", err)
	}
}
