package events

import (
	"context"

	"github.com/jwebster45206/branch-engine/pkg/audio"
)

// CuePlayer is an audio.Player that hands cues to an external sound daemon
// over CueChannel.
type CuePlayer struct {
	client *Client
	story  string
}

// Ensure CuePlayer implements audio.Player interface
var _ audio.Player = (*CuePlayer)(nil)

func NewCuePlayer(client *Client, storyName string) *CuePlayer {
	return &CuePlayer{client: client, story: storyName}
}

func (p *CuePlayer) Trigger(ctx context.Context, cue audio.Cue) error {
	return p.client.publish(ctx, CueChannel, Event{
		Type:  EventTypeCueTriggered,
		Story: p.story,
		Cue:   &cue,
	})
}
