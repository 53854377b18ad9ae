package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jwebster45206/branch-engine/pkg/audio"
)

// EventType represents the type of event being broadcast
type EventType string

const (
	EventTypeSceneEntered EventType = "scene.entered"
	EventTypeStoryEnded   EventType = "story.ended"
	EventTypeCueTriggered EventType = "cue.triggered"
)

// CueChannel is where cue events are published for sound daemons.
const CueChannel = "audio:cues"

// StoryChannel returns the channel for one session's scene events.
func StoryChannel(sessionID uuid.UUID) string {
	return "story:" + sessionID.String()
}

// Event is the JSON payload published on every channel.
type Event struct {
	Type      EventType  `json:"type"`
	SessionID string     `json:"session_id,omitempty"`
	Story     string     `json:"story,omitempty"`
	Label     string     `json:"label,omitempty"`
	Cue       *audio.Cue `json:"cue,omitempty"`
	Time      time.Time  `json:"time"`
}

func (c *Client) publish(ctx context.Context, channel string, event Event) error {
	if event.Time.IsZero() {
		event.Time = time.Now().UTC()
	}
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	if err := c.rdb.Publish(ctx, channel, data).Err(); err != nil {
		return fmt.Errorf("failed to publish event to %s: %w", channel, err)
	}
	return nil
}

// Subscribe delivers events published on channel until ctx is done. The
// returned channel is closed when the subscription ends.
func (c *Client) Subscribe(ctx context.Context, channel string) (<-chan Event, error) {
	pubsub := c.rdb.Subscribe(ctx, channel)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("failed to subscribe to %s: %w", channel, err)
	}

	out := make(chan Event)
	go func() {
		defer close(out)
		defer pubsub.Close()

		msgs := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				var event Event
				if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
					c.logger.Warn("Dropping malformed event", "channel", msg.Channel, "error", err)
					continue
				}
				select {
				case out <- event:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}
