package personality

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTraitMap_Grow(t *testing.T) {
	tests := []struct {
		name  string
		start TraitMap
		grow  []string
		want  TraitMap
	}{
		{"clamps at one", TraitMap{"warmth": 0.95}, []string{"warmth"}, TraitMap{"warmth": 1.0}},
		{"absent inserted at baseline", TraitMap{}, []string{"wary"}, TraitMap{"wary": 0.2}},
		{"step is exact", TraitMap{"curiosity": 0.9}, []string{"curiosity"}, TraitMap{"curiosity": 0.98}},
		{"names are canonicalized", TraitMap{"curiosity": 0.5}, []string{" Curiosity "}, TraitMap{"curiosity": 0.58}},
		{"blank names ignored", TraitMap{}, []string{"", "  "}, TraitMap{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.start.Grow(tt.grow)
			assert.Equal(t, tt.want, tt.start)
		})
	}
}

func TestTraitMap_Decay(t *testing.T) {
	tests := []struct {
		name  string
		start TraitMap
		decay []string
		want  TraitMap
	}{
		{"removed not clamped", TraitMap{"shy": 0.03}, []string{"shy"}, TraitMap{}},
		{"exactly zero removed", TraitMap{"shy": 0.05}, []string{"shy"}, TraitMap{}},
		{"step", TraitMap{"shy": 0.5}, []string{"shy"}, TraitMap{"shy": 0.45}},
		{"absent ignored", TraitMap{"shy": 0.5}, []string{"bold"}, TraitMap{"shy": 0.5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.start.Decay(tt.decay)
			assert.Equal(t, tt.want, tt.start)
		})
	}
}

func TestTraitMap_GrowThenDecayIsAdditive(t *testing.T) {
	m := TraitMap{"playful": 0.5}
	m.Grow([]string{"playful"})
	m.Decay([]string{"playful"})
	assert.Equal(t, 0.53, m["playful"])

	fresh := TraitMap{}
	fresh.Grow([]string{"bold"})
	fresh.Decay([]string{"bold"})
	assert.Equal(t, 0.15, fresh["bold"])
}

func TestTraitMap_Sanitize(t *testing.T) {
	m := TraitMap{"ok": 0.5, "zero": 0, "neg": -1, "big": 3, "nan": math.NaN(), " ": 0.4}
	assert.Equal(t, 5, m.Sanitize())
	assert.Equal(t, TraitMap{"ok": 0.5, "big": 1.0}, m)

	mixed := TraitMap{"Curiosity": 0.5, "curiosity ": 0.3, "calm": 0.4}
	assert.Equal(t, 2, mixed.Sanitize())
	assert.Equal(t, TraitMap{"curiosity": 0.5, "calm": 0.4}, mixed)

	mixed.Grow([]string{"Curiosity"})
	assert.Equal(t, TraitMap{"curiosity": 0.58, "calm": 0.4}, mixed)
}

func TestBandAndRender(t *testing.T) {
	assert.Equal(t, "very strong", Band(0.81))
	assert.Equal(t, "strong", Band(0.8))
	assert.Equal(t, "medium", Band(0.5))
	assert.Equal(t, "weak", Band(0.2))

	assert.Empty(t, Render(TraitMap{}))

	block := Render(TraitMap{"wary": 0.2, "curiosity": 0.98, "humor": 0.6})
	assert.Equal(t,
		"Your personality traits and how strongly they show:\n"+
			"- curiosity: very strong\n"+
			"- humor: strong\n"+
			"- wary: weak\n",
		block)
}
