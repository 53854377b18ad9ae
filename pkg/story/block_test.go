package story

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/jwebster45206/branch-engine/pkg/audio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPlayer struct {
	mu   sync.Mutex
	cues []audio.Cue
}

func (r *recordingPlayer) Trigger(_ context.Context, cue audio.Cue) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cues = append(r.cues, cue)
	return nil
}

func TestContentBlock_PlayWithoutChoices(t *testing.T) {
	var out bytes.Buffer
	in := strings.NewReader("\nleft over\n")
	con := NewConsole(in, &out, 0)

	sig, err := NewBlock("It is just past midnight.").Play(context.Background(), con, audio.Nop)
	require.NoError(t, err)
	assert.Equal(t, Continue(), sig)
	assert.Equal(t, "It is just past midnight.\n...\n", out.String())

	rest, _ := con.in.ReadString('\n')
	assert.Equal(t, "left over\n", rest, "exactly one line is consumed")
}

func TestContentBlock_PlayWithChoices(t *testing.T) {
	block := NewBlock("Which path?",
		NewChoice("CAM1", "The first path"),
		NewChoice("CAM2", "The second path"),
		NewChoiceWithComplement("CAM3", "The third path", "It slopes down toward the light."),
	)

	var out bytes.Buffer
	con := NewConsole(strings.NewReader("3\nnext\n"), &out, 0)

	sig, err := block.Play(context.Background(), con, audio.Nop)
	require.NoError(t, err)
	assert.Equal(t, Jump("CAM3"), sig)

	expected := "Which path?\n" +
		"1 : The first path\n" +
		"2 : The second path\n" +
		"3 : The third path\n" +
		"> The third path : It slopes down toward the light.\n"
	assert.Equal(t, expected, out.String())

	rest, _ := con.in.ReadString('\n')
	assert.Equal(t, "next\n", rest)
}

func TestContentBlock_InvalidInputScenario(t *testing.T) {
	block := NewBlock("Fork in the road.", NewChoice("LEFT", "Left"), NewChoice("RIGHT", "Right"))
	con := NewConsole(strings.NewReader("abc\n0\n5\n2\n"), &bytes.Buffer{}, 0)

	sig, err := block.Play(context.Background(), con, audio.Nop)
	require.NoError(t, err)
	assert.Equal(t, Jump("RIGHT"), sig)
}

func TestContentBlock_TriggersCue(t *testing.T) {
	rec := &recordingPlayer{}
	block := NewBlock("You turn the key.").WithCue(audio.Cue{ID: "engine_on", Channel: audio.Center})

	_, err := block.Play(context.Background(), NewConsole(strings.NewReader("\n"), &bytes.Buffer{}, 0), rec)
	require.NoError(t, err)
	assert.Equal(t, []audio.Cue{{ID: "engine_on", Channel: audio.Center}}, rec.cues)
}

func TestContentBlock_AudioFailureDoesNotAlterFlow(t *testing.T) {
	players := map[string]audio.Player{
		"error": audio.Func(func(context.Context, audio.Cue) error { return errors.New("device busy") }),
		"panic": audio.Func(func(context.Context, audio.Cue) error { panic("no device") }),
	}
	for name, player := range players {
		t.Run(name, func(t *testing.T) {
			block := NewBlock("A shot rings out.", NewChoice("HUNT", "Keep walking")).
				WithCue(audio.Cue{ID: "gun", Channel: audio.Right})

			var out bytes.Buffer
			sig, err := block.Play(context.Background(), NewConsole(strings.NewReader("1\n"), &out, 0), player)
			require.NoError(t, err)
			assert.Equal(t, Jump("HUNT"), sig)
			assert.Contains(t, out.String(), "Keep walking\n")
		})
	}
}

func TestContentBlock_ChoiceInputClosed(t *testing.T) {
	block := NewBlock("Decide.", NewChoice("A", "a"))
	_, err := block.Play(context.Background(), NewConsole(strings.NewReader("x\n"), &bytes.Buffer{}, 0), audio.Nop)
	assert.ErrorIs(t, err, ErrInputClosed)
}
