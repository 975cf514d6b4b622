package projection

import (
	"fmt"

	"github.com/goccy/go-json"
	geom "github.com/peterstace/simplefeatures/geom"

	"github.com/kairos-service/internal/domain"
	"github.com/kairos-service/internal/pkg/utils"
)

const (
	lineWidth      = 4
	lineOpacity    = 0.8
	outlineColor   = "#FFFFFF"
	outlineWidth   = 6
	outlineOpacity = 0.6

	arrowGlyph = "▶"

	foreignColor   = "#6B7280"
	foreignOpacity = 0.7
	foreignBadge   = "?"

	pinBorderWhite = "#FFFFFF"
	pendingColor   = "#F43F5E"

	defaultArrowSpacingKm = 25.0
)

// Options - параметры проекции
type Options struct {
	ArrowSpacingKm float64
	// ShowOrderBadges - номер маркера в хронологии на пине (режим разработки)
	ShowOrderBadges bool
}

type LineStyle struct {
	Color   string  `json:"color"`
	Width   float64 `json:"width"`
	Opacity float64 `json:"opacity"`
}

// Arrow - стрелка направления движения на линии маршрута
type Arrow struct {
	Coordinates domain.Coordinates `json:"coordinates"`
	Bearing     float64            `json:"bearing"`
	Glyph       string             `json:"glyph"`
	Color       string             `json:"color"`
}

// Line - линия маршрута: GeoJSON LineString, обводка рисуется под основной линией
type Line struct {
	JourneyID string          `json:"journey_id"`
	Geometry  json.RawMessage `json:"geometry"`
	Style     LineStyle       `json:"style"`
	Outline   LineStyle       `json:"outline"`
	Arrows    []Arrow         `json:"arrows"`
}

type PinStyle struct {
	Fill    string  `json:"fill"`
	Border  string  `json:"border"`
	Opacity float64 `json:"opacity"`
	Glyph   string  `json:"glyph"`
	Badge   string  `json:"badge,omitempty"`
	Pulsing bool    `json:"pulsing,omitempty"`
}

type Pin struct {
	MarkerID      string             `json:"marker_id,omitempty"`
	JourneyID     string             `json:"journey_id,omitempty"`
	Coordinates   domain.Coordinates `json:"coordinates"`
	Kind          domain.MarkerKind  `json:"kind,omitempty"`
	SegmentRole   domain.SegmentRole `json:"segment_role,omitempty"`
	SequenceIndex int                `json:"sequence_index"`
	Owned         bool               `json:"owned"`
	Attached      bool               `json:"attached"`
	Label         string             `json:"label"`
	Order         int                `json:"order,omitempty"`
	Style         PinStyle           `json:"style"`
}

// Scene - все, что нужно браузеру для отрисовки карты
type Scene struct {
	Lines    []Line   `json:"lines"`
	Pins     []Pin    `json:"pins"`
	Pending  *Pin     `json:"pending,omitempty"`
	Viewport Viewport `json:"viewport"`
}

// Project превращает маршруты в линии и пины. Чистая функция, ошибок не возвращает:
// маршрут, геометрию которого не удалось закодировать, остается без линии.
func Project(routes []domain.ProcessedRoute, unordered []domain.Marker, viewerID string, pending *domain.Coordinates, opts Options) Scene {
	scene := Scene{
		Lines: make([]Line, 0, len(routes)),
		Pins:  make([]Pin, 0),
	}

	for _, r := range routes {
		if line, ok := projectLine(r, opts); ok {
			scene.Lines = append(scene.Lines, line)
		}
		for _, pm := range r.Markers {
			scene.Pins = append(scene.Pins, routePin(pm, r.Color, viewerID, opts))
		}
	}

	for _, m := range unordered {
		scene.Pins = append(scene.Pins, unattachedPin(m, viewerID))
	}

	if pending != nil {
		scene.Pending = &Pin{
			Coordinates:   *pending,
			SequenceIndex: -1,
			Owned:         true,
			Label:         "New point",
			Style: PinStyle{
				Fill:    pendingColor,
				Border:  pinBorderWhite,
				Opacity: 1,
				Glyph:   "+",
				Pulsing: true,
			},
		}
	}

	return scene
}

func projectLine(r domain.ProcessedRoute, opts Options) (Line, bool) {
	if !r.HasLine() {
		return Line{}, false
	}

	flat := make([]float64, 0, len(r.Coordinates)*2)
	for _, c := range r.Coordinates {
		flat = append(flat, c[0], c[1])
	}
	// все точки в одном месте (или NaN) дают невалидную линию, ее не рисуем
	ls, err := geom.NewLineString(geom.NewSequence(flat, geom.DimXY))
	if err != nil {
		return Line{}, false
	}

	geometry, err := ls.MarshalJSON()
	if err != nil {
		return Line{}, false
	}

	return Line{
		JourneyID: r.JourneyID,
		Geometry:  geometry,
		Style:     LineStyle{Color: r.Color, Width: lineWidth, Opacity: lineOpacity},
		Outline:   LineStyle{Color: outlineColor, Width: outlineWidth, Opacity: outlineOpacity},
		Arrows:    placeArrows(ls.Coordinates(), r.Color, opts.ArrowSpacingKm),
	}, true
}

// placeArrows ставит стрелки по сегментам: не меньше одной на сегмент,
// на длинных сегментах примерно через spacingKm. Стрелки направлены от начала к концу.
func placeArrows(seq geom.Sequence, color string, spacingKm float64) []Arrow {
	if spacingKm <= 0 {
		spacingKm = defaultArrowSpacingKm
	}

	arrows := make([]Arrow, 0, seq.Length())
	for i := 1; i < seq.Length(); i++ {
		from, to := seq.GetXY(i-1), seq.GetXY(i)
		dist := utils.HaversineDistance(from.Y, from.X, to.Y, to.X)
		if dist == 0 {
			continue
		}

		bearing := utils.InitialBearing(from.Y, from.X, to.Y, to.X)
		n := int(dist / spacingKm)
		if n < 1 {
			n = 1
		}
		for k := 0; k < n; k++ {
			f := (float64(k) + 0.5) / float64(n)
			arrows = append(arrows, Arrow{
				Coordinates: domain.NewCoordinates(from.X+(to.X-from.X)*f, from.Y+(to.Y-from.Y)*f),
				Bearing:     bearing,
				Glyph:       arrowGlyph,
				Color:       color,
			})
		}
	}
	return arrows
}

func routePin(pm domain.ProcessedMarker, color, viewerID string, opts Options) Pin {
	owned := pm.OwnedBy(viewerID)

	pin := Pin{
		MarkerID:      pm.ID,
		JourneyID:     pm.JourneyID,
		Coordinates:   pm.Coordinates,
		Kind:          pm.Kind,
		SegmentRole:   pm.SegmentRole,
		SequenceIndex: pm.SequenceIndex,
		Owned:         owned,
		Attached:      true,
		Label:         pm.Name,
		Style:         pinStyle(pm.SegmentRole, color, owned),
	}
	if opts.ShowOrderBadges {
		pin.Order = pm.SequenceIndex + 1
		pin.Label = fmt.Sprintf("%d. %s", pin.Order, pm.Name)
	}
	return pin
}

func pinStyle(role domain.SegmentRole, color string, owned bool) PinStyle {
	opacity := 1.0
	badge := ""
	if !owned {
		color = foreignColor
		opacity = foreignOpacity
		badge = foreignBadge
	}

	switch role {
	case domain.SegmentPast:
		return PinStyle{Fill: color, Border: pinBorderWhite, Opacity: opacity, Glyph: "●", Badge: badge}
	case domain.SegmentTransition:
		return PinStyle{Fill: pinBorderWhite, Border: color, Opacity: opacity, Glyph: "→", Badge: badge}
	default:
		return PinStyle{Fill: pinBorderWhite, Border: color, Opacity: opacity, Glyph: "○", Badge: badge}
	}
}

// unattachedPin - маркер без корректного времени: показывается приглушенным, вне линии
func unattachedPin(m domain.Marker, viewerID string) Pin {
	owned := m.OwnedBy(viewerID)
	style := pinStyle(domain.SegmentPlan, foreignColor, owned)
	style.Opacity = 0.5
	style.Glyph = "◌"

	return Pin{
		MarkerID:      m.ID,
		JourneyID:     m.JourneyID,
		Coordinates:   m.Coordinates,
		Kind:          m.Kind,
		SequenceIndex: -1,
		Owned:         owned,
		Attached:      false,
		Label:         m.Name,
		Style:         style,
	}
}
