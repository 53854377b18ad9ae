package story

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"

	"github.com/google/uuid"
	"github.com/jwebster45206/branch-engine/pkg/audio"
)

// EndMessage is printed when play reaches the terminal label.
const EndMessage = "The End."

// Observer is told about scene transitions. Implementations must not block.
type Observer interface {
	SceneEntered(ctx context.Context, sessionID uuid.UUID, label Label)
	StoryEnded(ctx context.Context, sessionID uuid.UUID)
}

// Engine owns the scene table and runs play sessions over it. Scenes are
// registered before Play and treated as read-only afterwards.
type Engine struct {
	scenes   map[Label]*Scene
	entry    Label
	terminal Label

	in     io.Reader
	out    io.Writer
	wrap   int
	player audio.Player
	obs    Observer
	logger *slog.Logger
	strict bool

	playing bool
}

// Option configures an Engine.
type Option func(*Engine)

func WithInput(r io.Reader) Option {
	return func(e *Engine) { e.in = r }
}

func WithOutput(w io.Writer) Option {
	return func(e *Engine) { e.out = w }
}

// WithWrapWidth word-wraps narrative output at width columns.
func WithWrapWidth(width int) Option {
	return func(e *Engine) { e.wrap = width }
}

func WithAudio(p audio.Player) Option {
	return func(e *Engine) { e.player = p }
}

func WithObserver(o Observer) Option {
	return func(e *Engine) { e.obs = o }
}

func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithEntry overrides StartLabel.
func WithEntry(l Label) Option {
	return func(e *Engine) { e.entry = l }
}

// WithTerminal overrides EndLabel.
func WithTerminal(l Label) Option {
	return func(e *Engine) { e.terminal = l }
}

// WithStrictValidation makes Play refuse graphs that Validate rejects.
func WithStrictValidation() Option {
	return func(e *Engine) { e.strict = true }
}

// NewEngine creates an engine reading stdin and writing stdout with no audio.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		scenes:   make(map[Label]*Scene),
		entry:    StartLabel,
		terminal: EndLabel,
		in:       os.Stdin,
		out:      os.Stdout,
		player:   audio.Nop,
		logger:   slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// AddScene registers blocks under label, replacing any earlier scene.
func (e *Engine) AddScene(label Label, blocks ...ContentBlock) error {
	if e.playing {
		return fmt.Errorf("cannot add scene %s: %w", label, ErrPlaying)
	}
	if label == "" {
		return errors.New("scene label must not be empty")
	}
	if _, exists := e.scenes[label]; exists {
		e.logger.Debug("Replacing scene", "label", label)
	}
	e.scenes[label] = &Scene{Label: label, Blocks: blocks}
	return nil
}

// Scene returns the scene registered under label.
func (e *Engine) Scene(label Label) (*Scene, bool) {
	s, ok := e.scenes[label]
	return s, ok
}

// Labels returns every registered label in sorted order.
func (e *Engine) Labels() []Label {
	labels := make([]Label, 0, len(e.scenes))
	for l := range e.scenes {
		labels = append(labels, l)
	}
	sort.Slice(labels, func(i, j int) bool { return labels[i] < labels[j] })
	return labels
}

func (e *Engine) Entry() Label    { return e.entry }
func (e *Engine) Terminal() Label { return e.terminal }

// Player returns the audio player wrapped so that failures are logged and
// never reach the caller.
func (e *Engine) Player() audio.Player {
	return &guardedPlayer{next: e.player, logger: e.logger}
}

// Play runs one session from the entry label to the terminal label on the
// engine's console. A label without a scene is reported on the output and
// stops play with ErrMissingScene.
func (e *Engine) Play(ctx context.Context) error {
	if e.strict {
		if err := e.Validate(); err != nil {
			return err
		}
	}

	con := NewConsole(e.in, e.out, e.wrap)
	player := e.Player()
	s := e.NewSession()
	log := e.logger.With("session_id", s.ID)
	log.Info("Story started", "entry", e.entry, "scenes", len(e.scenes))

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		beat, err := s.Next(ctx)
		if errors.Is(err, ErrStoryEnded) {
			break
		}
		if errors.Is(err, ErrMissingScene) {
			log.Error("Missing scene", "label", beat.Label)
			if perr := con.Println(MissingSceneMessage(beat.Label)); perr != nil {
				return perr
			}
			return err
		}
		if err != nil {
			return err
		}

		sig, err := beat.Block.Play(ctx, con, player)
		if err != nil {
			log.Warn("Story interrupted", "label", beat.Label, "block", beat.Index, "error", err)
			return err
		}
		log.Debug("Block played", "label", beat.Label, "block", beat.Index, "signal", sig)

		if err := s.Advance(sig); err != nil {
			return err
		}
	}

	log.Info("Story ended", "visited", len(s.Visited()))
	return con.Println(EndMessage)
}

type guardedPlayer struct {
	next   audio.Player
	logger *slog.Logger
}

func (g *guardedPlayer) Trigger(ctx context.Context, cue audio.Cue) error {
	if err := safeTrigger(ctx, g.next, cue); err != nil {
		g.logger.Warn("Audio cue failed", "cue", cue.ID, "channel", cue.Channel, "error", err)
	}
	return nil
}

// MissingSceneMessage is what the player sees when play reaches a label
// without a scene.
func MissingSceneMessage(l Label) string {
	return fmt.Sprintf("You must define a scene with label %s", l)
}
