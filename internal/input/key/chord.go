package key

import "strings"

// Chords is the ordered list of chords making up one accelerator, for
// example "<Control>x, <Control>s".
type Chords []Event

// ParseChords parses one or more chord specifications. Each spec may itself
// hold several comma-separated chords.
func ParseChords(specs ...string) (Chords, error) {
	var chords Chords
	for _, spec := range specs {
		for _, part := range splitChords(spec) {
			ev, err := Parse(part)
			if err != nil {
				return nil, err
			}
			chords = append(chords, ev)
		}
	}
	if len(chords) == 0 {
		return nil, ErrEmptySpec
	}
	return chords, nil
}

// splitChords splits on commas, except a comma that is itself the key of a
// chord ("<Control>," or "Ctrl+,").
func splitChords(spec string) []string {
	var parts []string
	start := 0
	for i := 0; i < len(spec); i++ {
		if spec[i] != ',' {
			continue
		}
		prev := strings.TrimSpace(spec[start:i])
		if prev == "" || strings.HasSuffix(prev, ">") || strings.HasSuffix(prev, "+") {
			continue
		}
		parts = append(parts, prev)
		start = i + 1
	}
	if last := strings.TrimSpace(spec[start:]); last != "" {
		parts = append(parts, last)
	}
	return parts
}

// Names returns the canonical name of each chord.
func (c Chords) Names() []string {
	names := make([]string, len(c))
	for i, ev := range c {
		names[i] = ev.Name()
	}
	return names
}

// String joins the canonical chord names with ", ".
func (c Chords) String() string {
	return strings.Join(c.Names(), ", ")
}
