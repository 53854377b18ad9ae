package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const forkStory = `name: Fork
scenes:
  START:
    - body: A fork in the road.
      cue: birds
      choices:
        - target: LEFT
          text: Go left
          complement: You take the left path.
        - target: END
          text: Go home
  LEFT:
    - body: The left path is quiet.
`

const brokenStory = `name: Broken
scenes:
  START:
    - body: A door.
      choices:
        - target: NOWHERE
          text: Open it
`

func writeStory(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func runCmd(t *testing.T, input string, args ...string) (string, error) {
	t.Helper()
	t.Setenv("AUDIO_BACKEND", "none")
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("REDIS_URL", "")
	t.Setenv("STORY_FILE", "")

	var out bytes.Buffer
	root := newRootCmd()
	root.SetArgs(args)
	root.SetIn(strings.NewReader(input))
	root.SetOut(&out)
	root.SetErr(&out)
	err := root.Execute()
	return out.String(), err
}

func TestPlay(t *testing.T) {
	dir := t.TempDir()
	path := writeStory(t, dir, "fork.yaml", forkStory)

	out, err := runCmd(t, "x\n7 1\n\n", "play", path)
	require.NoError(t, err)

	assert.Contains(t, out, "1 : Go left\n2 : Go home\n")
	assert.Contains(t, out, "Go left : You take the left path.\n")
	assert.True(t, strings.HasSuffix(out, "The left path is quiet.\n...\nThe End.\n"), out)
}

func TestPlay_StoryFromDir(t *testing.T) {
	dir := t.TempDir()
	writeStory(t, dir, "fork.yaml", forkStory)
	t.Setenv("STORY_DIR", dir)

	out, err := runCmd(t, "2\n", "play")
	require.NoError(t, err)
	assert.Contains(t, out, "Go home\nThe End.\n")
}

func TestPlay_InputClosed(t *testing.T) {
	dir := t.TempDir()
	path := writeStory(t, dir, "fork.yaml", forkStory)

	out, err := runCmd(t, "", "play", path)
	require.Error(t, err)
	assert.Contains(t, out, "Input closed, leaving the story.")
}

func TestPlay_StrictRefusesBrokenGraph(t *testing.T) {
	dir := t.TempDir()
	path := writeStory(t, dir, "broken.yaml", brokenStory)

	out, err := runCmd(t, "1\n", "play", path)
	require.Error(t, err)
	assert.NotContains(t, out, "A door.")
}

func TestPlay_MissingSceneHaltsWhenNotStrict(t *testing.T) {
	dir := t.TempDir()
	path := writeStory(t, dir, "broken.yaml", brokenStory)
	t.Setenv("STRICT", "false")

	out, err := runCmd(t, "1\n", "play", path)
	require.Error(t, err)
	assert.Equal(t, 1, strings.Count(out, "You must define a scene with label NOWHERE"))
}

func TestPlay_SeveralStoriesNeedAName(t *testing.T) {
	dir := t.TempDir()
	writeStory(t, dir, "fork.yaml", forkStory)
	writeStory(t, dir, "broken.yaml", brokenStory)
	t.Setenv("STORY_DIR", dir)

	_, err := runCmd(t, "", "play")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken.yaml, fork.yaml")
}

func TestValidate(t *testing.T) {
	dir := t.TempDir()
	good := writeStory(t, dir, "fork.yaml", forkStory)
	bad := writeStory(t, dir, "broken.yaml", brokenStory)

	out, err := runCmd(t, "", "validate", good)
	require.NoError(t, err)
	assert.Contains(t, out, "Fork is valid!")

	out, err = runCmd(t, "", "validate", good, bad)
	require.Error(t, err)
	assert.Contains(t, out, "NOWHERE")
	assert.Contains(t, err.Error(), "1 of 2")
}

func TestValidate_SampleStory(t *testing.T) {
	_, err := runCmd(t, "", "validate", filepath.Join("..", "..", "data", "stories", "night_drive.yaml"))
	require.NoError(t, err)
}

func TestList(t *testing.T) {
	dir := t.TempDir()
	writeStory(t, dir, "fork.yaml", forkStory)
	writeStory(t, dir, "broken.yaml", brokenStory)
	t.Setenv("STORY_DIR", dir)

	out, err := runCmd(t, "", "list")
	require.NoError(t, err)
	assert.Equal(t, "Available Stories:\n  1 - Broken (broken.yaml)\n  2 - Fork (fork.yaml)\n", out)
}

func TestCues(t *testing.T) {
	out, err := runCmd(t, "", "cues")
	require.NoError(t, err)
	assert.Contains(t, out, "car_by")
	assert.Equal(t, 15, strings.Count(out, "\n"))
}

func TestListen_RequiresRedis(t *testing.T) {
	_, err := runCmd(t, "", "listen")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "REDIS_URL")
}
