package story

import (
	"fmt"
	"sort"
	"strings"
)

// Severity classifies a graph issue.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Issue is one finding of a graph check.
type Issue struct {
	Severity Severity
	Label    Label
	Message  string
}

func (i Issue) String() string {
	if i.Label == "" {
		return fmt.Sprintf("%s: %s", i.Severity, i.Message)
	}
	return fmt.Sprintf("%s: scene %s: %s", i.Severity, i.Label, i.Message)
}

// ValidationError carries every issue found when at least one is an error.
type ValidationError struct {
	Issues []Issue
}

func (v *ValidationError) Error() string {
	lines := make([]string, 0, len(v.Issues))
	for _, i := range v.Issues {
		if i.Severity == SeverityError {
			lines = append(lines, "  - "+i.String())
		}
	}
	return fmt.Sprintf("story graph is invalid:\n%s", strings.Join(lines, "\n"))
}

// Validate returns a *ValidationError when Check reports any error.
func (e *Engine) Validate() error {
	issues := e.Check()
	for _, i := range issues {
		if i.Severity == SeverityError {
			return &ValidationError{Issues: issues}
		}
	}
	return nil
}

// Check inspects the scene graph without playing it. Errors are labels
// that play would stall on; warnings are content that play can never reach
// or never leave.
func (e *Engine) Check() []Issue {
	var issues []Issue
	add := func(sev Severity, l Label, format string, args ...any) {
		issues = append(issues, Issue{Severity: sev, Label: l, Message: fmt.Sprintf(format, args...)})
	}

	if _, ok := e.scenes[e.entry]; !ok && e.entry != e.terminal {
		add(SeverityError, "", "entry label %s has no scene", e.entry)
	}

	for _, label := range e.Labels() {
		scene := e.scenes[label]
		if label == e.terminal {
			add(SeverityWarning, label, "scene is registered under the terminal label and is never played")
		}
		if len(scene.Blocks) == 0 {
			add(SeverityWarning, label, "scene has no content blocks")
		}

		lastChoice := -1
		for bi, b := range scene.Blocks {
			if b.HasChoices() {
				lastChoice = bi
			}
		}
		// Only the last choice block can move play; dangling targets in
		// earlier ones are never followed.
		for bi, b := range scene.Blocks {
			sev := SeverityError
			if bi < lastChoice {
				sev = SeverityWarning
			}
			for ci, c := range b.Choices {
				if c.Target == e.terminal {
					continue
				}
				if _, ok := e.scenes[c.Target]; !ok {
					add(sev, label, "block %d choice %d targets unknown scene %s", bi+1, ci+1, c.Target)
				}
			}
		}
		for bi, b := range scene.Blocks {
			if b.HasChoices() && bi < lastChoice {
				add(SeverityWarning, label, "choices in block %d are superseded by block %d", bi+1, lastChoice+1)
			}
		}
	}

	reachable := e.reachableFrom(e.entry)
	canFinish := e.canReachTerminal()
	for _, label := range e.Labels() {
		if label == e.terminal {
			continue
		}
		if !reachable[label] {
			add(SeverityWarning, label, "scene is unreachable from %s", e.entry)
			continue
		}
		if !canFinish[label] {
			add(SeverityWarning, label, "no path from this scene reaches %s", e.terminal)
		}
	}

	sort.SliceStable(issues, func(i, j int) bool {
		if issues[i].Severity != issues[j].Severity {
			return issues[i].Severity == SeverityError
		}
		return issues[i].Label < issues[j].Label
	})
	return issues
}

func (e *Engine) reachableFrom(start Label) map[Label]bool {
	seen := make(map[Label]bool)
	queue := []Label{start}
	for len(queue) > 0 {
		l := queue[0]
		queue = queue[1:]
		if seen[l] {
			continue
		}
		scene, ok := e.scenes[l]
		if !ok || l == e.terminal {
			continue
		}
		seen[l] = true
		queue = append(queue, scene.exits(e.terminal)...)
	}
	return seen
}

// canReachTerminal marks scenes with at least one path to the terminal
// label, iterating to a fixed point over the exit edges.
func (e *Engine) canReachTerminal() map[Label]bool {
	ok := make(map[Label]bool)
	for changed := true; changed; {
		changed = false
		for label, scene := range e.scenes {
			if ok[label] || label == e.terminal {
				continue
			}
			for _, next := range scene.exits(e.terminal) {
				if next == e.terminal || ok[next] {
					ok[label] = true
					changed = true
					break
				}
			}
		}
	}
	return ok
}
