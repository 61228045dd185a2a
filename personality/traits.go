// Package personality maintains the agent's bounded-strength trait map and
// drifts it after each remembered exchange.
package personality

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

const (
	// GrowthStep is added to a trait named in a growth list.
	GrowthStep = 0.08

	// DecayStep is subtracted from a trait named in a decay list.
	DecayStep = 0.05

	// Baseline is the strength of a trait first named in a growth list.
	Baseline = 0.2

	// MaxStrength caps every trait.
	MaxStrength = 1.0

	// MaxTraits bounds each growth and decay list.
	MaxTraits = 5
)

// strengthPrecision is the grid strengths are rounded to after each step so
// repeated float additions do not drift (0.9 + 0.08 stays 0.98).
const strengthPrecision = 1e6

// TraitMap maps a trait name to its strength. Every stored strength lies in
// (0, MaxStrength].
type TraitMap map[string]float64

// Grow strengthens each named trait by GrowthStep, clamped at MaxStrength.
// Traits not yet present are inserted at Baseline.
func (m TraitMap) Grow(names []string) {
	for _, name := range names {
		name = Key(name)
		if name == "" {
			continue
		}
		cur, ok := m[name]
		if !ok {
			m[name] = Baseline
			continue
		}
		m[name] = round(math.Min(cur+GrowthStep, MaxStrength))
	}
}

// Decay weakens each named trait by DecayStep. A trait reaching zero or below
// is removed. Names not in the map are ignored.
func (m TraitMap) Decay(names []string) {
	for _, name := range names {
		name = Key(name)
		cur, ok := m[name]
		if !ok {
			continue
		}
		next := round(cur - DecayStep)
		if next <= 0 {
			delete(m, name)
			continue
		}
		m[name] = next
	}
}

// Clone returns an independent copy.
func (m TraitMap) Clone() TraitMap {
	out := make(TraitMap, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Sanitize drops entries that violate the strength bounds (non-finite or
// <= 0), clamps values above MaxStrength and re-keys names through Key. When
// two names share a key the stronger one wins. It reports how many entries
// were changed.
func (m TraitMap) Sanitize() int {
	changed := 0
	clean := make(TraitMap, len(m))
	for k, v := range m {
		key := Key(k)
		switch {
		case math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 || key == "":
			changed++
			continue
		case v > MaxStrength:
			v = MaxStrength
			changed++
		}
		if key != k {
			changed++
		}
		if cur, ok := clean[key]; !ok || v > cur {
			clean[key] = v
		}
	}
	for k := range m {
		delete(m, k)
	}
	for k, v := range clean {
		m[k] = v
	}
	return changed
}

// Names returns trait names ordered by strength, strongest first, then by
// name.
func (m TraitMap) Names() []string {
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}
	sort.Slice(names, func(i, j int) bool {
		if m[names[i]] != m[names[j]] {
			return m[names[i]] > m[names[j]]
		}
		return names[i] < names[j]
	})
	return names
}

// Key canonicalizes a trait name: trimmed and lower-cased, so the oracle's
// "Curiosity" and "curiosity" address the same trait.
func Key(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Band names a strength bucket.
func Band(strength float64) string {
	switch {
	case strength > 0.8:
		return "very strong"
	case strength > 0.5:
		return "strong"
	case strength > 0.2:
		return "medium"
	default:
		return "weak"
	}
}

// Render produces the personality block placed in the generation prompt.
// An empty map renders as the empty string.
func Render(m TraitMap) string {
	if len(m) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString("Your personality traits and how strongly they show:\n")
	for _, name := range m.Names() {
		fmt.Fprintf(&sb, "- %s: %s\n", name, Band(m[name]))
	}
	return sb.String()
}

func round(v float64) float64 {
	return math.Round(v*strengthPrecision) / strengthPrecision
}
