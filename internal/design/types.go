package design

// Request captures one user-initiated redesign: the encoded source image,
// the target style, and the freeform guidance. It is immutable once built.
type Request struct {
	// Image is the encoded source photo, either a base64 data URL produced
	// by the client or an https URL of a previously generated result when
	// the user refines an existing design.
	Image       string
	Style       string
	RoomType    string
	Instruction string
	// Intensity is the user-facing 0-100 slider. It is never sent to the
	// model directly; Compose remaps it into the calibrated strength range.
	Intensity int
}

// Product is a shoppable suggestion surfaced next to a finished design.
type Product struct {
	Name  string `json:"name"`
	Type  string `json:"type"`
	Price string `json:"price"`
	Image string `json:"img"`
	Link  string `json:"link"`
}

// Prompt is the composed model instruction for one generation.
type Prompt struct {
	Positive string
	Negative string
	Strength float64
}
