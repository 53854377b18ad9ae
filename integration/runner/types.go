package runner

import (
	"time"

	"github.com/google/uuid"
)

// Special input values that trigger non-play actions
const (
	ResetSessionInput = "RESET_SESSION"
)

// TestSuite defines a complete playthrough of one story
// Can either be a regular test with Steps, or a suite that references other Cases
type TestSuite struct {
	Name  string     `json:"name"`
	Story string     `json:"story,omitempty"` // Story file, relative to the stories directory
	Steps []TestStep `json:"steps,omitempty"` // Used for regular tests
	Cases []string   `json:"cases,omitempty"` // Used for suite tests (list of case files)
}

// IsSequence returns true if this is a suite that sequences other cases
func (ts *TestSuite) IsSequence() bool {
	return len(ts.Cases) > 0
}

// TestStep is one player decision. The input answers the next block that
// offers choices; blocks without choices before and after it are played
// through, up to the following choice or the end of the story.
// Use input: "RESET_SESSION" to start the story over.
type TestStep struct {
	Name         string       `json:"name,omitempty"`
	Input        string       `json:"input"`
	Expectations Expectations `json:"expect"`
}

// Expectations defines what to check after a test step executes
type Expectations struct {
	Scene   *string  `json:"scene,omitempty"`    // Label of the current scene
	IsEnded *bool    `json:"is_ended,omitempty"` // Story ended state
	Visited []string `json:"visited,omitempty"`  // Every scene entered so far, in order
	Cues    []string `json:"cues,omitempty"`     // Cue IDs triggered during the step, in order
	Error   string   `json:"error,omitempty"`    // "missing_scene" or "input_closed"

	// Output Analysis
	ResponseContains    []string `json:"response_contains,omitempty"`
	ResponseNotContains []string `json:"response_not_contains,omitempty"`
	ResponseRegex       string   `json:"response_regex,omitempty"`
	ResponseMinLength   *int     `json:"response_min_length,omitempty"`
	ResponseMaxLength   *int     `json:"response_max_length,omitempty"`
}

// TestResult contains the outcome of running a test step
type TestResult struct {
	TestName     string
	StepName     string
	Success      bool
	Error        error
	Duration     time.Duration
	ResponseText string
	IsReset      bool // True if this was a RESET_SESSION step (should not count toward pass/fail metrics)
}

// TestJob represents a test suite to be executed
type TestJob struct {
	Name     string
	Suite    TestSuite
	CaseFile string
}

// TestRunResult contains the results of running an entire test suite
type TestRunResult struct {
	Job      TestJob
	Results  []TestResult
	Error    error
	Duration time.Duration
	Session  uuid.UUID // ID of the last session used for this test
}
