package design

import "fmt"

var rationaleTemplates = map[string]string{
	"boho":       "We transformed this %s using organic textures (rattan, jute) and earthy tones to create a relaxed, free-spirited atmosphere.",
	"industrial": "We redesigned the %s with raw materials like leather and metal accents, focusing on a bold, structural aesthetic.",
	"elegant":    "We refined the %s with luxurious materials, velvet finishes, and sophisticated lighting for a high-end look.",
	"minimalist": "We decluttered the %s, focusing on clean lines, monochromatic tones, and airy spatial flow.",
	"custom":     "We applied a custom design to the %s, harmonizing the color palette and updating the furniture silhouettes.",
}

// Rationale derives the human-readable explanation shown next to a finished
// design. Unknown styles read as custom designs. Deterministic, no I/O.
func Rationale(style, roomType, instruction string) string {
	tmpl, ok := rationaleTemplates[style]
	if !ok {
		tmpl = rationaleTemplates["custom"]
	}
	explanation := fmt.Sprintf(tmpl, roomType)
	if len(instruction) > 5 {
		explanation += fmt.Sprintf(" We also incorporated your specific request: %q.", instruction)
	}
	return explanation
}
