package story

// Scene is an ordered run of content blocks under a unique label.
type Scene struct {
	Label  Label
	Blocks []ContentBlock
}

// exits returns the labels the scene can hand control to. Only the last
// block with choices decides, since later jumps replace earlier ones. A
// scene without choices exits to terminal.
func (s *Scene) exits(terminal Label) []Label {
	for i := len(s.Blocks) - 1; i >= 0; i-- {
		b := s.Blocks[i]
		if !b.HasChoices() {
			continue
		}
		targets := make([]Label, 0, len(b.Choices))
		for _, c := range b.Choices {
			targets = append(targets, c.Target)
		}
		return targets
	}
	return []Label{terminal}
}
