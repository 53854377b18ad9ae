package story

import "fmt"

// Label is the key a scene is registered under and the address choices jump to.
type Label string

const (
	// StartLabel is the default entry scene.
	StartLabel Label = "START"
	// EndLabel is the default terminal label. It is never looked up.
	EndLabel Label = "END"
)

func (l Label) String() string {
	return string(l)
}

// SignalKind enumerates what a content block asks the engine to do next.
type SignalKind int

const (
	// SignalContinue leaves the scene's pending transition untouched.
	SignalContinue SignalKind = iota
	// SignalJump moves to Target once the scene finishes.
	SignalJump
	// SignalTerminate ends the story once the scene finishes.
	SignalTerminate
)

// Signal is the result of playing a content block.
type Signal struct {
	Kind   SignalKind
	Target Label
}

func Continue() Signal {
	return Signal{Kind: SignalContinue}
}

func Jump(target Label) Signal {
	return Signal{Kind: SignalJump, Target: target}
}

func Terminate() Signal {
	return Signal{Kind: SignalTerminate}
}

func (s Signal) String() string {
	switch s.Kind {
	case SignalContinue:
		return "continue"
	case SignalJump:
		return fmt.Sprintf("jump(%s)", s.Target)
	case SignalTerminate:
		return "terminate"
	default:
		return fmt.Sprintf("signal(%d)", int(s.Kind))
	}
}
