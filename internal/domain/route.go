package domain

// SegmentRole - роль маркера в хронологии маршрута
type SegmentRole string

const (
	SegmentPast SegmentRole = "past"
	SegmentPlan SegmentRole = "plan"
	// SegmentTransition - первый plan маркер сразу после past маркеров ("следующая остановка")
	SegmentTransition SegmentRole = "transition"
)

// ProcessedMarker - маркер с вычисленной позицией в хронологии
type ProcessedMarker struct {
	Marker
	SequenceIndex int         `json:"sequence_index"`
	SegmentRole   SegmentRole `json:"segment_role"`
}

// ProcessedRoute - упорядоченный маршрут одного путешествия
type ProcessedRoute struct {
	JourneyID   string            `json:"journey_id"`
	Coordinates [][2]float64      `json:"coordinates"`
	Color       string            `json:"color"`
	Markers     []ProcessedMarker `json:"markers"`
}

// HasLine - линия рисуется только при двух и более точках
func (r ProcessedRoute) HasLine() bool {
	return len(r.Coordinates) >= 2
}
