package story

import (
	"io"

	"github.com/jwebster45206/branch-engine/pkg/text"
)

// Choice is one option of a content block.
type Choice struct {
	Target        Label
	Display       text.Text
	Complement    text.Text // shown after the choice is taken
	HasComplement bool
}

func NewChoice(target Label, display string) Choice {
	return Choice{Target: target, Display: text.New(display)}
}

func NewChoiceWithComplement(target Label, display, complement string) Choice {
	return Choice{
		Target:        target,
		Display:       text.New(display),
		Complement:    text.New(complement),
		HasComplement: true,
	}
}

// RenderAsOption prints "<ordinal> : <display>".
func (c Choice) RenderAsOption(w io.Writer, ordinal int) error {
	return c.Display.PrintWithPrefix(w, ordinal)
}

// Resolve prints the taken choice, "<display> : <complement>" when a
// complement is set, and returns the target label.
func (c Choice) Resolve(w io.Writer) (Label, error) {
	var err error
	if c.HasComplement {
		err = c.Complement.PrintWithPrefix(w, c.Display)
	} else {
		err = c.Display.Print(w)
	}
	return c.Target, err
}

// Outcome returns the line Resolve prints.
func (c Choice) Outcome() string {
	if c.HasComplement {
		return c.Complement.Prefixed(c.Display)
	}
	return c.Display.String()
}
