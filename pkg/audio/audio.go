// Package audio defines the sound-cue collaborator the story engine talks to.
// The engine only hands out cue identifiers; playback lives behind Player.
package audio

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// Channel is the spatial hint attached to a cue.
type Channel string

const (
	Ambient Channel = "ambient" // looping background, centred
	Right   Channel = "right"
	Left    Channel = "left"
	Center  Channel = "center"
)

// Channels lists every known channel.
var Channels = []Channel{Ambient, Right, Left, Center}

// ParseChannel converts a channel name. The empty string yields Center.
func ParseChannel(s string) (Channel, error) {
	if s == "" {
		return Center, nil
	}
	for _, c := range Channels {
		if strings.EqualFold(s, string(c)) {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown audio channel: %q", s)
}

// Cue is an opaque sound identifier plus a channel hint.
type Cue struct {
	ID      string  `json:"id"`
	Channel Channel `json:"channel,omitempty"`
}

func (c Cue) String() string {
	if c.Channel == "" {
		return c.ID
	}
	return c.ID + "@" + string(c.Channel)
}

// Player triggers cues. Implementations must not block on playback.
type Player interface {
	Trigger(ctx context.Context, cue Cue) error
}

// Func adapts a function to Player.
type Func func(ctx context.Context, cue Cue) error

func (f Func) Trigger(ctx context.Context, cue Cue) error {
	return f(ctx, cue)
}

type nop struct{}

func (nop) Trigger(context.Context, Cue) error { return nil }

// Nop is a Player that ignores every cue.
var Nop Player = nop{}

// LogPlayer writes each cue to a structured logger instead of a sound device.
type LogPlayer struct {
	logger *slog.Logger
}

// Ensure LogPlayer implements Player interface
var _ Player = (*LogPlayer)(nil)

func NewLogPlayer(logger *slog.Logger) *LogPlayer {
	return &LogPlayer{logger: logger}
}

func (p *LogPlayer) Trigger(ctx context.Context, cue Cue) error {
	p.logger.InfoContext(ctx, "Audio cue", "cue", cue.ID, "channel", cue.Channel)
	return nil
}

// Multi fans a cue out to several players, returning the first error after
// all of them have been tried.
func Multi(players ...Player) Player {
	return Func(func(ctx context.Context, cue Cue) error {
		var firstErr error
		for _, p := range players {
			if err := p.Trigger(ctx, cue); err != nil && firstErr == nil {
				firstErr = err
			}
		}
		return firstErr
	})
}
