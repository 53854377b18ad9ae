package story

import (
	"context"
	"fmt"

	"github.com/jwebster45206/branch-engine/pkg/audio"
	"github.com/jwebster45206/branch-engine/pkg/text"
)

// ContinueMarker is printed after a block without choices.
const ContinueMarker = "..."

// ContentBlock is one beat of a scene: body text, optional choices and an
// optional sound cue.
type ContentBlock struct {
	Body    text.Text
	Choices []Choice
	Cue     *audio.Cue
}

func NewBlock(body string, choices ...Choice) ContentBlock {
	return ContentBlock{Body: text.New(body), Choices: choices}
}

// WithCue returns a copy of the block that triggers cue when played.
func (b ContentBlock) WithCue(cue audio.Cue) ContentBlock {
	b.Cue = &cue
	return b
}

func (b ContentBlock) HasChoices() bool {
	return len(b.Choices) > 0
}

func (b ContentBlock) HasCue() bool {
	return b.Cue != nil
}

// Play prints the block, fires its cue and, when it has choices, asks the
// player to pick one. Blocks with choices return Jump to the chosen target;
// blocks without return Continue. Cue failures never affect the result.
func (b ContentBlock) Play(ctx context.Context, con *Console, player audio.Player) (Signal, error) {
	if err := b.Body.Print(con); err != nil {
		return Signal{}, fmt.Errorf("failed to print block body: %w", err)
	}

	if b.HasCue() && player != nil {
		_ = safeTrigger(ctx, player, *b.Cue)
	}

	if !b.HasChoices() {
		if err := con.Println(ContinueMarker); err != nil {
			return Signal{}, err
		}
		if err := con.Pause(); err != nil {
			return Signal{}, err
		}
		return Continue(), nil
	}

	for i, choice := range b.Choices {
		if err := choice.RenderAsOption(con, i+1); err != nil {
			return Signal{}, fmt.Errorf("failed to render choice: %w", err)
		}
	}

	idx, err := con.ReadChoice(len(b.Choices))
	if err != nil {
		return Signal{}, err
	}
	if err := con.DiscardLine(); err != nil {
		return Signal{}, err
	}

	target, err := b.Choices[idx].Resolve(con)
	if err != nil {
		return Signal{}, fmt.Errorf("failed to print choice: %w", err)
	}
	return Jump(target), nil
}

func safeTrigger(ctx context.Context, player audio.Player, cue audio.Cue) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("audio cue %s panicked: %v", cue.ID, r)
		}
	}()
	return player.Trigger(ctx, cue)
}
