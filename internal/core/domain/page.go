package domain

// ImageRef is an opaque handle to an embedded image. The pipeline never
// decodes image bytes; consumers resolve handles through the engine if
// they need pixels.
type ImageRef struct {
	Name             string `json:"name"`
	Width            int    `json:"width"`
	Height           int    `json:"height"`
	ColorSpace       string `json:"color_space,omitempty"`
	BitsPerComponent int    `json:"bits_per_component,omitempty"`
}

// PageGeometry carries the engine-reported page box and rotation.
type PageGeometry struct {
	Width    float64    `json:"width"`
	Height   float64    `json:"height"`
	Rotation int        `json:"rotation"`
	MediaBox [4]float64 `json:"media_box"`
}

// TextBlock is a positioned run of text, used for layout signals only.
type TextBlock struct {
	X    float64
	Y    float64
	Text string
}

// Table is a detected tabular region. First extracted row becomes the
// header; all rows are padded to the widest row.
type Table struct {
	Header []string   `json:"header"`
	Rows   [][]string `json:"rows"`
}

// PageRecord is one page of delivered content. Produced lazily, owned by
// the consumer for a single iteration step; the pipeline retains nothing.
type PageRecord struct {
	PageNumber int            `json:"page_number"`
	Text       string         `json:"text"`
	Images     []ImageRef     `json:"images,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Tables     []Table        `json:"tables,omitempty"`
}
