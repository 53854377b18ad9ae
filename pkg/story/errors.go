package story

import "errors"

var (
	// ErrMissingScene means a label was reached that has no registered scene.
	ErrMissingScene = errors.New("no scene registered for label")
	// ErrInputClosed means the input source ran out while a choice was pending.
	ErrInputClosed = errors.New("input closed before a choice was made")
	// ErrStoryEnded is returned by Session.Next once the terminal label is reached.
	ErrStoryEnded = errors.New("story ended")
	// ErrPlaying is returned when scenes are registered after play has started.
	ErrPlaying = errors.New("engine is already playing")
	// ErrNoBeat is returned by Session.Advance when no block is pending.
	ErrNoBeat = errors.New("no content block is awaiting a result")
)
