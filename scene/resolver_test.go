package scene

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedResolver(seed int64) *Resolver {
	return NewResolver(rand.New(rand.NewSource(seed)))
}

func TestResolve_PresetToken(t *testing.T) {
	r := fixedResolver(1)

	d := r.Resolve("scene:beach")
	assert.Equal(t, SourceButtonPreset, d.Source)
	assert.Contains(t, defaultPresets["scene:beach"].variants, d.Summary,
		"variant must come from the configured set")
}

func TestResolve_PresetVariantFollowsInjectedSource(t *testing.T) {
	// Two resolvers with the same seed pick the same variant.
	first := fixedResolver(42).Resolve("scene:cafe")
	second := fixedResolver(42).Resolve("scene:cafe")
	assert.Equal(t, first.Summary, second.Summary)
}

func TestResolve_KeywordGroups(t *testing.T) {
	r := fixedResolver(1)

	tests := []struct {
		input   string
		summary string
	}{
		{"я на мальдивах", defaultKeywordGroups[0].summary},
		{"хочу на ПЛЯЖ", defaultKeywordGroups[0].summary},
		{"выпить кофе", defaultKeywordGroups[1].summary},
		{"в горах на рассвете", defaultKeywordGroups[2].summary},
		{"город", defaultKeywordGroups[3].summary},
		{"late at the office", defaultKeywordGroups[4].summary},
	}
	for _, tc := range tests {
		d := r.Resolve(tc.input)
		assert.Equal(t, SourceKeywordMatch, d.Source, "input %q", tc.input)
		assert.Equal(t, tc.summary, d.Summary, "input %q", tc.input)
	}
}

func TestResolve_BeachBeatsCity(t *testing.T) {
	// Both groups match, the higher-priority one wins.
	d := fixedResolver(1).Resolve("город у океана")
	assert.Equal(t, defaultKeywordGroups[0].summary, d.Summary)
}

func TestResolve_FreeformFallback(t *testing.T) {
	r := fixedResolver(1)

	d := r.Resolve("  In   Narnia,  Riding a Lion  ")
	assert.Equal(t, SourceFreeformFallback, d.Source)
	assert.Equal(t, "scene: In Narnia, Riding a Lion", d.Summary,
		"whitespace collapsed, original casing preserved")
}

func TestResolve_EmptyInput(t *testing.T) {
	r := fixedResolver(1)

	d := r.Resolve("   ")
	assert.Equal(t, SourceFreeformFallback, d.Source)
	assert.Equal(t, "scene: ", d.Summary)
}

func TestResolve_ClassificationIsDeterministic(t *testing.T) {
	r := fixedResolver(1)
	for i := 0; i < 10; i++ {
		assert.Equal(t, SourceKeywordMatch, r.Resolve("кофе утром").Source)
		assert.Equal(t, SourceFreeformFallback, r.Resolve("внутри вулкана").Source)
	}
}

func TestPresets_StableOrder(t *testing.T) {
	r := fixedResolver(1)

	buttons := r.Presets()
	require.Len(t, buttons, len(defaultPresetOrder))
	for i, token := range defaultPresetOrder {
		assert.Equal(t, token, buttons[i].Token)
		assert.NotEmpty(t, buttons[i].Label)
	}
}
