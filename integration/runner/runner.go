package runner

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/jwebster45206/branch-engine/pkg/audio"
	"github.com/jwebster45206/branch-engine/pkg/story"
	"github.com/jwebster45206/branch-engine/pkg/storyfile"
)

type ErrorHandlingMode string

const ErrorHandlingExit ErrorHandlingMode = "exit"
const ErrorHandlingContinue ErrorHandlingMode = "continue"

// Error names used by Expectations.Error
const (
	ErrNameMissingScene = "missing_scene"
	ErrNameInputClosed  = "input_closed"
)

// Runner plays story files with scripted input and checks each step
type Runner struct {
	StoriesDir        string
	Logger            func(format string, args ...interface{})
	ErrorHandlingMode ErrorHandlingMode
	StoryOverride     string // If set, overrides the story for all test cases
	Strict            bool   // Refuse stories whose graph has errors
}

// NewRunner creates a new test runner
func NewRunner(storiesDir string) *Runner {
	return &Runner{
		StoriesDir:        storiesDir,
		Logger:            func(string, ...interface{}) {},
		ErrorHandlingMode: ErrorHandlingContinue,
	}
}

// LoadTestSuite loads a test suite from a JSON file
func LoadTestSuite(filename string) (TestSuite, error) {
	content, err := os.ReadFile(filename)
	if err != nil {
		return TestSuite{}, fmt.Errorf("failed to read test file %s: %w", filename, err)
	}

	var suite TestSuite
	if err := json.Unmarshal(content, &suite); err != nil {
		return TestSuite{}, fmt.Errorf("failed to parse JSON in %s: %w", filename, err)
	}

	return suite, nil
}

// LoadTestSuiteWithExpansion loads a test suite and expands it if it's a sequence
// Returns a list of actual test suites (expanded from the sequence if needed)
func LoadTestSuiteWithExpansion(filename string, casesDir string) ([]TestJob, error) {
	suite, err := LoadTestSuite(filename)
	if err != nil {
		return nil, err
	}

	if !suite.IsSequence() {
		return []TestJob{{
			Name:     suite.Name,
			Suite:    suite,
			CaseFile: filename,
		}}, nil
	}

	var jobs []TestJob
	for _, caseFile := range suite.Cases {
		casePath := filepath.Join(casesDir, caseFile)

		// Recursively load (in case a sequence references another sequence)
		subJobs, err := LoadTestSuiteWithExpansion(casePath, casesDir)
		if err != nil {
			return nil, fmt.Errorf("failed to load case '%s' referenced by sequence '%s': %w", caseFile, suite.Name, err)
		}

		jobs = append(jobs, subJobs...)
	}

	return jobs, nil
}

// RunSuite executes a complete test suite
func (r *Runner) RunSuite(ctx context.Context, suite TestSuite) (TestRunResult, error) {
	start := time.Now()
	result := TestRunResult{
		Job: TestJob{
			Name:  suite.Name,
			Suite: suite,
		},
		Results: make([]TestResult, 0, len(suite.Steps)),
	}

	storyFile := suite.Story
	if r.StoryOverride != "" {
		storyFile = r.StoryOverride
	}
	path := filepath.Join(r.StoriesDir, storyFile)

	pt, err := r.newPlaythrough(path)
	if err != nil {
		result.Error = fmt.Errorf("failed to start story: %w", err)
		result.Duration = time.Since(start)
		return result, result.Error
	}
	result.Session = pt.session.ID

	for i, step := range suite.Steps {
		r.Logger("    [%d/%d] Running step: %s", i+1, len(suite.Steps), step.Name)

		var stepResult TestResult
		if step.Input == ResetSessionInput {
			stepResult = r.resetStep(path, &pt, step)
			result.Session = pt.session.ID
		} else {
			stepResult = r.executeStep(ctx, pt, step)
		}
		stepResult.TestName = suite.Name
		result.Results = append(result.Results, stepResult)

		if stepResult.Error != nil {
			r.Logger("    [%d/%d] ✗ %s: %v", i+1, len(suite.Steps), step.Name, stepResult.Error)
			if result.Error == nil {
				result.Error = fmt.Errorf("step %d (%s) failed: %w", i, step.Name, stepResult.Error)
			}
			if r.ErrorHandlingMode == ErrorHandlingExit {
				break
			}
			continue
		}

		r.Logger("    [%d/%d] ✓ %s (%v)", i+1, len(suite.Steps), step.Name, stepResult.Duration)
	}

	result.Duration = time.Since(start)
	return result, result.Error
}

// playthrough is one session over a freshly loaded story
type playthrough struct {
	engine  *story.Engine
	session *story.Session
	cues    []string
}

func (r *Runner) newPlaythrough(path string) (*playthrough, error) {
	f, err := storyfile.Load(path)
	if err != nil {
		return nil, err
	}

	pt := &playthrough{}
	recorder := audio.Func(func(_ context.Context, cue audio.Cue) error {
		pt.cues = append(pt.cues, cue.ID)
		return nil
	})

	e := story.NewEngine(append(f.EngineOptions(), story.WithAudio(recorder))...)
	if err := f.Register(e, nil); err != nil {
		return nil, err
	}
	if r.Strict {
		if err := e.Validate(); err != nil {
			return nil, err
		}
	}

	pt.engine = e
	pt.session = e.NewSession()
	return pt, nil
}

// resetStep starts the story over and checks expectations against the
// fresh session
func (r *Runner) resetStep(path string, pt **playthrough, step TestStep) TestResult {
	start := time.Now()
	result := TestResult{StepName: step.Name, IsReset: true, ResponseText: "[SESSION RESET]"}

	fresh, err := r.newPlaythrough(path)
	if err != nil {
		result.Error = fmt.Errorf("failed to reset session: %w", err)
		result.Duration = time.Since(start)
		return result
	}
	*pt = fresh

	if err := r.checkExpectations(step.Expectations, fresh, "", nil); err != nil {
		result.Error = fmt.Errorf("reset expectation failed: %w", err)
		result.Duration = time.Since(start)
		return result
	}

	result.Success = true
	result.Duration = time.Since(start)
	return result
}

// executeStep plays one step and checks its expectations
func (r *Runner) executeStep(ctx context.Context, pt *playthrough, step TestStep) TestResult {
	start := time.Now()
	result := TestResult{StepName: step.Name}

	pt.cues = nil
	output, playErr := pt.play(ctx, step.Input)
	result.ResponseText = output

	if err := r.checkExpectations(step.Expectations, pt, output, playErr); err != nil {
		result.Error = fmt.Errorf("expectation failed: %w", err)
		result.Duration = time.Since(start)
		return result
	}

	result.Success = true
	result.Duration = time.Since(start)
	return result
}

// play feeds input to the next block with choices, playing choiceless
// blocks around it, and returns everything printed.
func (pt *playthrough) play(ctx context.Context, input string) (string, error) {
	if pt.session.Ended() {
		return "", story.ErrStoryEnded
	}

	var out bytes.Buffer
	answer := story.NewConsole(strings.NewReader(input+"\n"), &out, 0)
	pause := story.NewConsole(strings.NewReader(""), &out, 0)
	player := pt.engine.Player()
	chose := false

	for {
		beat, err := pt.session.Next(ctx)
		switch {
		case errors.Is(err, story.ErrStoryEnded):
			_ = answer.Println(story.EndMessage)
			return out.String(), nil
		case errors.Is(err, story.ErrMissingScene):
			_ = answer.Println(story.MissingSceneMessage(beat.Label))
			return out.String(), err
		case err != nil:
			return out.String(), err
		}

		con := pause
		if beat.Block.HasChoices() {
			if chose {
				return out.String(), nil
			}
			chose = true
			con = answer
		}

		sig, err := beat.Block.Play(ctx, con, player)
		if err != nil {
			return out.String(), err
		}
		if err := pt.session.Advance(sig); err != nil {
			return out.String(), err
		}
	}
}

func errorName(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, story.ErrMissingScene):
		return ErrNameMissingScene
	case errors.Is(err, story.ErrInputClosed):
		return ErrNameInputClosed
	default:
		return err.Error()
	}
}

// checkExpectations validates the test expectations against the session
// after a step
func (r *Runner) checkExpectations(exp Expectations, pt *playthrough, output string, playErr error) error {
	// Error check
	if got := errorName(playErr); got != exp.Error {
		if exp.Error == "" {
			return fmt.Errorf("unexpected error: %w", playErr)
		}
		return fmt.Errorf("expected error %s, got %q", exp.Error, got)
	}

	// Scene check
	if exp.Scene != nil {
		if got := pt.session.Label().String(); got != *exp.Scene {
			return fmt.Errorf("expected scene %s, got %s", *exp.Scene, got)
		}
	}

	// Ended check
	if exp.IsEnded != nil {
		if pt.session.Ended() != *exp.IsEnded {
			return fmt.Errorf("expected is_ended %v, got %v", *exp.IsEnded, pt.session.Ended())
		}
	}

	// Visited check (order dependent)
	if exp.Visited != nil {
		var visited []string
		for _, l := range pt.session.Visited() {
			visited = append(visited, l.String())
		}
		if !slices.Equal(visited, exp.Visited) {
			return fmt.Errorf("expected visited %v, got %v", exp.Visited, visited)
		}
	}

	// Cue check (order dependent)
	if exp.Cues != nil {
		if !slices.Equal(pt.cues, exp.Cues) {
			return fmt.Errorf("expected cues %v, got %v", exp.Cues, pt.cues)
		}
	}

	// Output checks
	for _, want := range exp.ResponseContains {
		if !strings.Contains(output, want) {
			return fmt.Errorf("expected output to contain %q", want)
		}
	}
	for _, unwanted := range exp.ResponseNotContains {
		if strings.Contains(output, unwanted) {
			return fmt.Errorf("expected output not to contain %q", unwanted)
		}
	}
	if exp.ResponseRegex != "" {
		re, err := regexp.Compile(exp.ResponseRegex)
		if err != nil {
			return fmt.Errorf("invalid response_regex %q: %w", exp.ResponseRegex, err)
		}
		if !re.MatchString(output) {
			return fmt.Errorf("expected output to match %q", exp.ResponseRegex)
		}
	}
	if exp.ResponseMinLength != nil && len(output) < *exp.ResponseMinLength {
		return fmt.Errorf("expected output length >= %d, got %d", *exp.ResponseMinLength, len(output))
	}
	if exp.ResponseMaxLength != nil && len(output) > *exp.ResponseMaxLength {
		return fmt.Errorf("expected output length <= %d, got %d", *exp.ResponseMaxLength, len(output))
	}

	return nil
}
