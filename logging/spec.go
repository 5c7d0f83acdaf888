package logging

import (
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strings"
)

// Spec is a parsed log spec: a base level and per-component overrides.
//
//	info
//	warn,evaluator=debug
//	store=trace,info
//
// The base level may appear anywhere in the list but only once.
type Spec struct {
	Base      slog.Level
	Overrides map[string]slog.Level
}

// ParseSpec parses a log spec. The empty spec is info with no overrides.
func ParseSpec(s string) (Spec, error) {
	spec := Spec{Base: slog.LevelInfo}
	sawBase := false

	for item := range strings.SplitSeq(s, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}

		component, name, isOverride := strings.Cut(item, "=")
		if !isOverride {
			if sawBase {
				return Spec{}, fmt.Errorf("base level given twice in %q", s)
			}
			l, err := ParseLevel(item)
			if err != nil {
				return Spec{}, err
			}
			spec.Base, sawBase = l, true
			continue
		}

		component = strings.TrimSpace(component)
		if component == "" {
			return Spec{}, fmt.Errorf("empty component name in %q", item)
		}
		if _, dup := spec.Overrides[component]; dup {
			return Spec{}, fmt.Errorf("component %q given twice", component)
		}
		l, err := ParseLevel(name)
		if err != nil {
			return Spec{}, fmt.Errorf("component %q: %w", component, err)
		}
		if spec.Overrides == nil {
			spec.Overrides = make(map[string]slog.Level)
		}
		spec.Overrides[component] = l
	}

	return spec, nil
}

// Level returns the level in force for component.
func (s Spec) Level(component string) slog.Level {
	if l, ok := s.Overrides[component]; ok {
		return l
	}
	return s.Base
}

// Min returns the most verbose level any component is allowed.
func (s Spec) Min() slog.Level {
	m := s.Base
	for _, l := range s.Overrides {
		m = min(m, l)
	}
	return m
}

// String renders s in canonical form: base first, then overrides sorted
// by component.
func (s Spec) String() string {
	parts := []string{LevelName(s.Base)}
	for _, c := range slices.Sorted(maps.Keys(s.Overrides)) {
		parts = append(parts, c+"="+LevelName(s.Overrides[c]))
	}
	return strings.Join(parts, ",")
}
