package detectors

// DetectorInput represents the input for entity detection
type DetectorInput struct {
	Text     string `json:"text"`
	Language string `json:"language"`
}

// DetectorOutput represents the output of entity detection
type DetectorOutput struct {
	Text     string   `json:"text"`
	Entities []Entity `json:"entities"`
}

// Entity represents a detected sensitive span.
// StartPos and EndPos are byte offsets into the input text, EndPos exclusive.
type Entity struct {
	Text       string  `json:"text"`
	Label      string  `json:"type"`
	StartPos   int     `json:"start"`
	EndPos     int     `json:"end"`
	Confidence float64 `json:"confidence"`
	Source     string  `json:"source"`
}

// ValidIn reports whether the entity's span lies inside text and is non-empty
func (e Entity) ValidIn(text string) bool {
	return e.StartPos >= 0 && e.StartPos < e.EndPos && e.EndPos <= len(text)
}

// Overlaps reports whether two entities share at least one byte
func (e Entity) Overlaps(other Entity) bool {
	return e.StartPos < other.EndPos && other.StartPos < e.EndPos
}
