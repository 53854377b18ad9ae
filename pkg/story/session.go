package story

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// Beat is the content block a session is waiting on.
type Beat struct {
	Label Label
	Index int
	Last  bool
	Block *ContentBlock
}

// Session walks an engine's scene graph one block at a time. Engine.Play
// drives a session from a console; interactive front ends drive it
// directly with Next and Advance.
type Session struct {
	ID uuid.UUID

	engine  *Engine
	label   Label
	scene   *Scene
	index   int
	pending Signal
	ended   bool
	visited []Label
}

// NewSession starts a session at the entry label and freezes registration.
func (e *Engine) NewSession() *Session {
	e.playing = true
	return &Session{
		ID:     uuid.New(),
		engine: e,
		label:  e.entry,
	}
}

// Label returns the label of the scene being played.
func (s *Session) Label() Label {
	return s.label
}

// Visited returns the labels entered so far, in order.
func (s *Session) Visited() []Label {
	return append([]Label(nil), s.visited...)
}

func (s *Session) Ended() bool {
	return s.ended
}

// Next returns the block awaiting play. It returns ErrStoryEnded once the
// terminal label is reached and ErrMissingScene, without moving, when the
// current label has no scene.
func (s *Session) Next(ctx context.Context) (Beat, error) {
	e := s.engine
	for {
		if s.ended {
			return Beat{}, ErrStoryEnded
		}

		if s.scene == nil {
			if s.label == e.terminal {
				s.end(ctx)
				continue
			}
			scene, ok := e.scenes[s.label]
			if !ok {
				return Beat{Label: s.label}, fmt.Errorf("%w: %s", ErrMissingScene, s.label)
			}
			s.scene = scene
			s.index = 0
			s.pending = Terminate()
			s.visited = append(s.visited, s.label)
			if e.obs != nil {
				e.obs.SceneEntered(ctx, s.ID, s.label)
			}
		}

		if s.index < len(s.scene.Blocks) {
			return Beat{
				Label: s.label,
				Index: s.index,
				Last:  s.index == len(s.scene.Blocks)-1,
				Block: &s.scene.Blocks[s.index],
			}, nil
		}

		switch s.pending.Kind {
		case SignalJump:
			s.label = s.pending.Target
			s.scene = nil
		default:
			s.end(ctx)
		}
	}
}

// Advance records the result of the block returned by Next.
func (s *Session) Advance(sig Signal) error {
	if s.ended || s.scene == nil || s.index >= len(s.scene.Blocks) {
		return ErrNoBeat
	}
	if sig.Kind != SignalContinue {
		s.pending = sig
	}
	s.index++
	return nil
}

func (s *Session) end(ctx context.Context) {
	s.ended = true
	s.scene = nil
	if s.engine.obs != nil {
		s.engine.obs.StoryEnded(ctx, s.ID)
	}
}
