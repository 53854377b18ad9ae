package audio

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Catalog maps cue names to their default channel.
type Catalog struct {
	byName  map[string]Channel
	ordered []string
}

// NewCatalog builds a catalog from cues. Order is kept for numeric lookups.
func NewCatalog(cues ...Cue) *Catalog {
	c := &Catalog{byName: make(map[string]Channel, len(cues))}
	for _, cue := range cues {
		name := strings.ToLower(cue.ID)
		if _, exists := c.byName[name]; !exists {
			c.ordered = append(c.ordered, name)
		}
		c.byName[name] = cue.Channel
	}
	return c
}

// DefaultCatalog holds the stock sound effects, indexed in their legacy
// numeric order.
func DefaultCatalog() *Catalog {
	return NewCatalog(
		Cue{ID: "attack", Channel: Center},
		Cue{ID: "birds", Channel: Center},
		Cue{ID: "driving", Channel: Center},
		Cue{ID: "engine_off", Channel: Center},
		Cue{ID: "engine_on", Channel: Center},
		Cue{ID: "forest", Channel: Ambient},
		Cue{ID: "growl", Channel: Center},
		Cue{ID: "gun", Channel: Right},
		Cue{ID: "howl", Channel: Right},
		Cue{ID: "piano", Channel: Ambient},
		Cue{ID: "river", Channel: Left},
		Cue{ID: "walking", Channel: Center},
		Cue{ID: "wolf", Channel: Ambient},
		Cue{ID: "howl2", Channel: Left},
		Cue{ID: "car_by", Channel: Center},
	)
}

// Lookup resolves a cue by name or by its numeric index. channel overrides
// the catalog default when non-empty.
func (c *Catalog) Lookup(ref string, channel Channel) (Cue, error) {
	name := strings.ToLower(strings.TrimSpace(ref))
	if i, err := strconv.Atoi(name); err == nil {
		if i < 0 || i >= len(c.ordered) {
			return Cue{}, fmt.Errorf("cue index %d out of range [0, %d)", i, len(c.ordered))
		}
		name = c.ordered[i]
	}

	def, ok := c.byName[name]
	if !ok {
		return Cue{}, fmt.Errorf("unknown cue: %q", ref)
	}
	if channel == "" {
		channel = def
	}
	return Cue{ID: name, Channel: channel}, nil
}

// Cues returns all cues sorted by name.
func (c *Catalog) Cues() []Cue {
	cues := make([]Cue, 0, len(c.byName))
	for name, ch := range c.byName {
		cues = append(cues, Cue{ID: name, Channel: ch})
	}
	sort.Slice(cues, func(i, j int) bool { return cues[i].ID < cues[j].ID })
	return cues
}

// Len returns the number of cues.
func (c *Catalog) Len() int {
	return len(c.ordered)
}
