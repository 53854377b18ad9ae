// Package storyfile loads story content from JSON or YAML documents and
// registers it with a story.Engine.
package storyfile

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"github.com/jwebster45206/branch-engine/pkg/audio"
	"github.com/jwebster45206/branch-engine/pkg/story"
)

// Format is a story file encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// File is the on-disk shape of a story.
type File struct {
	Name   string             `json:"name" yaml:"name" validate:"required"`
	Start  string             `json:"start,omitempty" yaml:"start,omitempty"`
	End    string             `json:"end,omitempty" yaml:"end,omitempty"`
	Scenes map[string][]Block `json:"scenes" yaml:"scenes" validate:"required,min=1,dive,dive"`

	// FileName is set by Load from the path, not read from the document.
	FileName string `json:"-" yaml:"-"`
}

// Block is one content block of a scene.
type Block struct {
	Body    string   `json:"body" yaml:"body" validate:"required"`
	Cue     string   `json:"cue,omitempty" yaml:"cue,omitempty"`
	Channel string   `json:"channel,omitempty" yaml:"channel,omitempty" validate:"omitempty,oneof=ambient right left center"`
	Choices []Choice `json:"choices,omitempty" yaml:"choices,omitempty" validate:"dive"`
}

// Choice is one option of a block.
type Choice struct {
	Target     string `json:"target" yaml:"target" validate:"required"`
	Text       string `json:"text" yaml:"text" validate:"required"`
	Complement string `json:"complement,omitempty" yaml:"complement,omitempty"`
}

var (
	validate   = validator.New()
	upper      = cases.Upper(language.Und)
	labelRegex = regexp.MustCompile(`^[A-Z][A-Z0-9_]*$`)
)

// NormalizeLabel trims and upper-cases a label.
func NormalizeLabel(s string) story.Label {
	return story.Label(upper.String(strings.TrimSpace(s)))
}

// FormatFromPath picks a format from the file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unsupported story file extension: %s", filepath.Base(path))
	}
}

// Load reads and validates a story file.
func Load(path string) (*File, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("story not found: %s", path)
		}
		return nil, fmt.Errorf("failed to read story file: %w", err)
	}

	f, err := Decode(bytes.NewReader(data), format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	f.FileName = filepath.Base(path)
	return f, nil
}

// Decode strictly decodes a story document: unknown fields are errors.
func Decode(r io.Reader, format Format) (*File, error) {
	var f File
	switch format {
	case FormatJSON:
		dec := json.NewDecoder(r)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&f); err != nil {
			return nil, fmt.Errorf("failed to decode story JSON: %w", err)
		}
	case FormatYAML:
		dec := yaml.NewDecoder(r)
		dec.KnownFields(true)
		if err := dec.Decode(&f); err != nil {
			if errors.Is(err, io.EOF) {
				return nil, errors.New("story document is empty")
			}
			return nil, fmt.Errorf("failed to decode story YAML: %w", err)
		}
	default:
		return nil, fmt.Errorf("unknown story format: %q", format)
	}

	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

// Validate checks field constraints and label syntax. It does not check
// the scene graph; see story.Engine.Check for that.
func (f *File) Validate() error {
	if err := validate.Struct(f); err != nil {
		return fmt.Errorf("invalid story file: %w", err)
	}

	var problems []string
	check := func(what, raw string) {
		if raw == "" {
			return
		}
		if l := NormalizeLabel(raw); !labelRegex.MatchString(string(l)) {
			problems = append(problems, fmt.Sprintf("%s %q must be letters, digits and underscores, starting with a letter", what, raw))
		}
	}

	check("start label", f.Start)
	check("end label", f.End)
	seen := make(map[story.Label]string, len(f.Scenes))
	for raw, blocks := range f.Scenes {
		check("scene label", raw)
		l := NormalizeLabel(raw)
		if other, dup := seen[l]; dup {
			problems = append(problems, fmt.Sprintf("scene labels %q and %q are the same label", other, raw))
		}
		seen[l] = raw
		for _, b := range blocks {
			for _, c := range b.Choices {
				check("choice target", c.Target)
			}
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid story file:\n  - %s", strings.Join(problems, "\n  - "))
	}
	return nil
}

// EntryLabel returns the declared start label or story.StartLabel.
func (f *File) EntryLabel() story.Label {
	if f.Start == "" {
		return story.StartLabel
	}
	return NormalizeLabel(f.Start)
}

// TerminalLabel returns the declared end label or story.EndLabel.
func (f *File) TerminalLabel() story.Label {
	if f.End == "" {
		return story.EndLabel
	}
	return NormalizeLabel(f.End)
}

// EngineOptions returns the entry and terminal options for this file.
func (f *File) EngineOptions() []story.Option {
	return []story.Option{story.WithEntry(f.EntryLabel()), story.WithTerminal(f.TerminalLabel())}
}

// Register builds every scene and adds it to e. Cue names are resolved
// through catalog; a nil catalog uses audio.DefaultCatalog.
func (f *File) Register(e *story.Engine, catalog *audio.Catalog) error {
	if catalog == nil {
		catalog = audio.DefaultCatalog()
	}

	for raw, blocks := range f.Scenes {
		label := NormalizeLabel(raw)
		built := make([]story.ContentBlock, 0, len(blocks))
		for i, b := range blocks {
			cb, err := b.build(catalog)
			if err != nil {
				return fmt.Errorf("scene %s block %d: %w", label, i+1, err)
			}
			built = append(built, cb)
		}
		if err := e.AddScene(label, built...); err != nil {
			return err
		}
	}
	return nil
}

func (b Block) build(catalog *audio.Catalog) (story.ContentBlock, error) {
	choices := make([]story.Choice, 0, len(b.Choices))
	for _, c := range b.Choices {
		target := NormalizeLabel(c.Target)
		if c.Complement != "" {
			choices = append(choices, story.NewChoiceWithComplement(target, c.Text, c.Complement))
		} else {
			choices = append(choices, story.NewChoice(target, c.Text))
		}
	}

	cb := story.NewBlock(b.Body, choices...)
	if b.Cue == "" {
		if b.Channel != "" {
			return story.ContentBlock{}, errors.New("channel set without a cue")
		}
		return cb, nil
	}

	var channel audio.Channel
	if b.Channel != "" {
		ch, err := audio.ParseChannel(b.Channel)
		if err != nil {
			return story.ContentBlock{}, err
		}
		channel = ch
	}
	cue, err := catalog.Lookup(b.Cue, channel)
	if err != nil {
		return story.ContentBlock{}, err
	}
	return cb.WithCue(cue), nil
}
