package design

import "fmt"

// styleDescriptions maps the preset style ids to the scene language fed to
// the model. The custom style intentionally maps to an empty description:
// the user's own words carry the direction instead.
var styleDescriptions = map[string]string{
	"boho":       "bohemian interior design, rattan furniture, organic textures, few plants, warm beige walls, cozy atmosphere, natural lighting",
	"industrial": "industrial loft interior, exposed brick walls, leather furniture, black metal accents, concrete floor, dramatic lighting",
	"elegant":    "luxury contemporary interior, white marble floors, velvet furniture, brass gold accents, crystal chandelier, sophisticated",
	"minimalist": "minimalist interior, pure white walls, light oak wood floor, decluttered, clean lines, modern furniture, soft daylight",
	"custom":     "",
}

// negativePrompt is constant across all requests. It forbids structural edits
// and the model's tendency to overfill the scene with plants and clutter.
const negativePrompt = "changing structure, changing windows, changing doors, messy, clutter, overgrown plants, too many plants, busy, distortion, blurry, low quality, cartoon, illustration"

const (
	// Strength below 0.30 produces an imperceptible tint; above 0.80 the
	// model starts rebuilding walls and windows. Intensity is remapped
	// linearly into this band.
	minStrength = 0.30
	maxStrength = 0.80
)

// Compose builds the positive prompt, the negative prompt, and the calibrated
// model strength for one request. Pure and deterministic.
func Compose(style, roomType, instruction string, intensity int) Prompt {
	styleDesc, ok := styleDescriptions[style]
	if !ok {
		styleDesc = style + " style"
	}

	positive := fmt.Sprintf(
		"Professional interior design photography of a %s, %s, %s, retaining original room geometry, high quality, 8k, photorealistic, architectural digest style",
		roomType, styleDesc, instruction,
	)

	return Prompt{
		Positive: positive,
		Negative: negativePrompt,
		Strength: Strength(intensity),
	}
}

// Strength maps the user-facing intensity percentage into the calibrated
// model-strength band.
func Strength(intensity int) float64 {
	if intensity < 0 {
		intensity = 0
	}
	if intensity > 100 {
		intensity = 100
	}
	return minStrength + (float64(intensity)/100.0)*(maxStrength-minStrength)
}
