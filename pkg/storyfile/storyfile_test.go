package storyfile

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jwebster45206/branch-engine/pkg/audio"
	"github.com/jwebster45206/branch-engine/pkg/story"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const crossroadsJSON = `{
  "name": "Crossroads",
  "scenes": {
    "start": [
      {"body": "You reach a fork.", "cue": "walking"},
      {"body": "Which way?", "choices": [
        {"target": "left_road", "text": "Left"},
        {"target": "END", "text": "Turn back", "complement": "You head home."}
      ]}
    ],
    "left_road": [
      {"body": "Wind in the trees.", "cue": "5", "channel": "left"}
    ]
  }
}`

const crossroadsYAML = `
name: Crossroads
scenes:
  start:
    - body: You reach a fork.
      cue: walking
    - body: Which way?
      choices:
        - target: left_road
          text: Left
        - target: END
          text: Turn back
          complement: You head home.
  left_road:
    - body: Wind in the trees.
      cue: "5"
      channel: left
`

func TestDecode_Formats(t *testing.T) {
	for format, doc := range map[Format]string{FormatJSON: crossroadsJSON, FormatYAML: crossroadsYAML} {
		t.Run(string(format), func(t *testing.T) {
			f, err := Decode(strings.NewReader(doc), format)
			require.NoError(t, err)
			assert.Equal(t, "Crossroads", f.Name)
			assert.Equal(t, story.StartLabel, f.EntryLabel())
			assert.Equal(t, story.EndLabel, f.TerminalLabel())
			require.Len(t, f.Scenes["start"], 2)
			assert.Equal(t, "You head home.", f.Scenes["start"][1].Choices[1].Complement)
		})
	}
}

func TestDecode_RejectsBadDocuments(t *testing.T) {
	tests := []struct {
		name   string
		format Format
		doc    string
		errMsg string
	}{
		{
			name:   "unknown JSON field",
			format: FormatJSON,
			doc:    `{"name": "x", "scenes": {"START": [{"body": "a", "music": "loud"}]}}`,
			errMsg: "unknown field",
		},
		{
			name:   "unknown YAML field",
			format: FormatYAML,
			doc:    "name: x\nscenes:\n  START:\n    - body: a\n      music: loud\n",
			errMsg: "not found",
		},
		{
			name:   "missing name",
			format: FormatYAML,
			doc:    "scenes:\n  START:\n    - body: a\n",
			errMsg: "Name",
		},
		{
			name:   "no scenes",
			format: FormatJSON,
			doc:    `{"name": "x", "scenes": {}}`,
			errMsg: "Scenes",
		},
		{
			name:   "block without body",
			format: FormatYAML,
			doc:    "name: x\nscenes:\n  START:\n    - cue: gun\n",
			errMsg: "Body",
		},
		{
			name:   "choice without target",
			format: FormatYAML,
			doc:    "name: x\nscenes:\n  START:\n    - body: a\n      choices:\n        - text: go\n",
			errMsg: "Target",
		},
		{
			name:   "bad channel",
			format: FormatYAML,
			doc:    "name: x\nscenes:\n  START:\n    - body: a\n      cue: gun\n      channel: above\n",
			errMsg: "Channel",
		},
		{
			name:   "bad label syntax",
			format: FormatYAML,
			doc:    "name: x\nscenes:\n  1st-scene:\n    - body: a\n",
			errMsg: "scene label \"1st-scene\"",
		},
		{
			name:   "labels that collide after case folding",
			format: FormatYAML,
			doc:    "name: x\nscenes:\n  intro:\n    - body: a\n  INTRO:\n    - body: b\n",
			errMsg: "are the same label",
		},
		{
			name:   "empty YAML",
			format: FormatYAML,
			doc:    "",
			errMsg: "empty",
		},
		{
			name:   "unknown format",
			format: Format("toml"),
			doc:    "name = 'x'",
			errMsg: "unknown story format",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(tt.doc), tt.format)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestNormalizeLabel(t *testing.T) {
	assert.Equal(t, story.Label("LEFT_ROAD"), NormalizeLabel(" left_road "))
	assert.Equal(t, story.Label("END"), NormalizeLabel("End"))
}

func TestFile_Register(t *testing.T) {
	f, err := Decode(strings.NewReader(crossroadsJSON), FormatJSON)
	require.NoError(t, err)

	e := story.NewEngine(f.EngineOptions()...)
	require.NoError(t, f.Register(e, nil))
	assert.Equal(t, []story.Label{"LEFT_ROAD", story.StartLabel}, e.Labels())
	assert.Empty(t, e.Check())

	start, ok := e.Scene(story.StartLabel)
	require.True(t, ok)
	require.Len(t, start.Blocks, 2)
	assert.Equal(t, &audio.Cue{ID: "walking", Channel: audio.Center}, start.Blocks[0].Cue)
	assert.Equal(t, story.Label("LEFT_ROAD"), start.Blocks[1].Choices[0].Target)
	assert.True(t, start.Blocks[1].Choices[1].HasComplement)

	left, ok := e.Scene("LEFT_ROAD")
	require.True(t, ok)
	assert.Equal(t, &audio.Cue{ID: "forest", Channel: audio.Left}, left.Blocks[0].Cue)
}

func TestFile_RegisterRejectsUnknownCue(t *testing.T) {
	doc := "name: x\nscenes:\n  START:\n    - body: a\n      cue: thunder\n"
	f, err := Decode(strings.NewReader(doc), FormatYAML)
	require.NoError(t, err)

	err = f.Register(story.NewEngine(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "scene START block 1")
}

func TestFile_RegisterRejectsChannelWithoutCue(t *testing.T) {
	doc := "name: x\nscenes:\n  START:\n    - body: a\n      channel: left\n"
	f, err := Decode(strings.NewReader(doc), FormatYAML)
	require.NoError(t, err)
	assert.Error(t, f.Register(story.NewEngine(), nil))
}

func TestFile_PlayRegisteredStory(t *testing.T) {
	f, err := Decode(strings.NewReader(crossroadsYAML), FormatYAML)
	require.NoError(t, err)

	var out bytes.Buffer
	e := story.NewEngine(story.WithInput(strings.NewReader("\n2\n")), story.WithOutput(&out))
	require.NoError(t, f.Register(e, audio.DefaultCatalog()))
	require.NoError(t, e.Play(context.Background()))

	assert.Contains(t, out.String(), "2 : Turn back\n> Turn back : You head home.\n")
	assert.True(t, strings.HasSuffix(out.String(), story.EndMessage+"\n"))
	assert.NotContains(t, out.String(), "Wind in the trees.")
}

func TestLoad_SampleStory(t *testing.T) {
	f, err := Load(filepath.Join("..", "..", "data", "stories", "night_drive.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "Night Drive", f.Name)
	assert.Equal(t, "night_drive.yaml", f.FileName)

	e := story.NewEngine(f.EngineOptions()...)
	require.NoError(t, f.Register(e, nil))
	assert.Empty(t, e.Check(), "sample story should have a clean graph")
}

func TestLoad_SampleStoryChoiceBlocksKeepCues(t *testing.T) {
	f, err := Load(filepath.Join("..", "..", "data", "stories", "night_drive.yaml"))
	require.NoError(t, err)
	e := story.NewEngine(f.EngineOptions()...)
	require.NoError(t, f.Register(e, nil))

	tests := []struct {
		label story.Label
		block int
		cue   string
	}{
		{"PATH1", 1, "howl"},
		{"PATH2", 1, "gun"},
		{"PATH3", 2, "piano"},
	}
	for _, tt := range tests {
		t.Run(string(tt.label), func(t *testing.T) {
			scene, ok := e.Scene(tt.label)
			require.True(t, ok)
			require.Greater(t, len(scene.Blocks), tt.block)

			b := scene.Blocks[tt.block]
			assert.True(t, b.HasChoices())
			require.True(t, b.HasCue())
			assert.Equal(t, tt.cue, b.Cue.ID)
		})
	}
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load("story.txt")
	assert.ErrorContains(t, err, "unsupported story file extension")

	_, err = Load(filepath.Join(t.TempDir(), "missing.json"))
	assert.ErrorContains(t, err, "story not found")
}

func TestList(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "crossroads.json"), []byte(crossroadsJSON), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "more"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "more", "crossroads_again.yml"),
		[]byte(strings.Replace(crossroadsYAML, "name: Crossroads", "name: Crossroads Again", 1)), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.json"), []byte("{"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignore me"), 0o644))

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	stories, err := List(dir, logger)
	require.NoError(t, err)

	assert.Equal(t, []string{"Crossroads", "Crossroads Again"}, SortedNames(stories))
	assert.Equal(t, filepath.Join(dir, "crossroads.json"), stories["Crossroads"])
}

func TestList_MissingDir(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	_, err := List(filepath.Join(t.TempDir(), "nope"), logger)
	assert.Error(t, err)
}
