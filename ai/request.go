package ai

import (
	"strings"

	"Mira/scene"
)

const DefaultStyle = "natural"

const realismBlock = "photorealistic portrait photo, ultra detailed, natural skin texture, " +
	"professional color grading, sharp focus, high dynamic range"

const identityBlock = "keep the face and appearance identical to the person in the reference photo, " +
	"show the subject fully in frame, full body visible, not a close-up"

// styleModifiers are the known style names. Unknown names pass through
// verbatim as a free-form modifier.
var styleModifiers = map[string]string{
	"natural":   "candid everyday look, soft natural light",
	"glamour":   "glamour editorial look, polished styling, studio-grade lighting",
	"cinematic": "cinematic still, shallow depth of field, moody film lighting",
	"retro":     "retro film photo, warm faded tones, analog grain",
}

var negativeDirectives = []string{
	"deformed face",
	"deformed hands",
	"extra fingers",
	"extra limbs",
	"distorted anatomy",
	"blurry",
	"low resolution",
	"watermark",
	"text artifacts",
}

// Parameters are the numeric generation knobs. They come from system
// defaults only and are never user-supplied.
type Parameters struct {
	Width         int     `json:"width"`
	Height        int     `json:"height"`
	GuidanceScale float64 `json:"guidance_scale"`
	Steps         int     `json:"num_inference_steps"`
	NumImages     int     `json:"num_images"`
	Seed          int64   `json:"seed"`
}

func DefaultParameters() Parameters {
	return Parameters{
		Width:         1024,
		Height:        1024,
		GuidanceScale: 7.5,
		Steps:         30,
		NumImages:     1,
		Seed:          -1, // provider picks a random seed
	}
}

// GenerationRequest is the structured payload submitted to the provider.
// ReferenceImage is base64-encoded by the JSON marshaller.
type GenerationRequest struct {
	Model          string     `json:"model"`
	Prompt         string     `json:"prompt"`
	NegativePrompt string     `json:"negative_prompt"`
	ReferenceImage []byte     `json:"reference_image,omitempty"`
	Parameters     Parameters `json:"parameters"`
}

// NewGenerationRequest assembles the composite prompt in fixed order:
// realism block, style modifier, scene summary, identity directive.
func NewGenerationRequest(description scene.Description, style, model string) *GenerationRequest {
	modifier, ok := styleModifiers[style]
	if !ok {
		modifier = style
	}

	parts := []string{realismBlock}
	if modifier != "" {
		parts = append(parts, modifier)
	}
	parts = append(parts, description.Summary, identityBlock)

	return &GenerationRequest{
		Model:          model,
		Prompt:         strings.Join(parts, ". "),
		NegativePrompt: strings.Join(negativeDirectives, ", "),
		Parameters:     DefaultParameters(),
	}
}

// StyleNames returns the known styles in presentation order.
func StyleNames() []string {
	return []string{"natural", "glamour", "cinematic", "retro"}
}
