package scene

import (
	"math/rand"
	"strings"
	"time"

	"Mira/core"
)

// Source records which resolution path produced a Description.
type Source string

const (
	SourceButtonPreset    Source = "preset"
	SourceKeywordMatch    Source = "keyword"
	SourceFreeformFallback Source = "freeform"
)

// Description is a structured summary of the setting and subject action,
// ready to be folded into a composite prompt.
type Description struct {
	Summary string
	Source  Source
}

type preset struct {
	label    string
	variants []string
}

type keywordGroup struct {
	keywords []string
	summary  string
}

// Resolver maps raw user input to a scene description. Matching order:
// exact preset token, then prioritized keyword groups, then a freeform
// fallback wrapping the input verbatim.
type Resolver struct {
	presets map[string]preset
	order   []string
	groups  []keywordGroup
	rnd     *rand.Rand
}

// NewResolver builds a resolver with the built-in preset and keyword
// tables. rnd picks among preset phrasing variants; pass a fixed source
// in tests, nil seeds from the clock.
func NewResolver(rnd *rand.Rand) *Resolver {
	if rnd == nil {
		rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Resolver{
		presets: defaultPresets,
		order:   defaultPresetOrder,
		groups:  defaultKeywordGroups,
		rnd:     rnd,
	}
}

// Resolve never fails: empty input still yields a freeform description,
// callers are expected to reject empty text before getting here.
func (r *Resolver) Resolve(raw string) Description {
	normalized := strings.Join(strings.Fields(raw), " ")
	lowered := strings.ToLower(normalized)

	if p, ok := r.presets[lowered]; ok {
		variant := p.variants[r.rnd.Intn(len(p.variants))]
		return Description{Summary: variant, Source: SourceButtonPreset}
	}

	for _, group := range r.groups {
		for _, keyword := range group.keywords {
			if strings.Contains(lowered, keyword) {
				return Description{Summary: group.summary, Source: SourceKeywordMatch}
			}
		}
	}

	return Description{
		Summary: "scene: " + normalized,
		Source:  SourceFreeformFallback,
	}
}

// Presets returns the selection registry in stable order, for the gateway
// to render as buttons.
func (r *Resolver) Presets() []core.PresetButton {
	buttons := make([]core.PresetButton, 0, len(r.order))
	for _, token := range r.order {
		buttons = append(buttons, core.PresetButton{Token: token, Label: r.presets[token].label})
	}
	return buttons
}
