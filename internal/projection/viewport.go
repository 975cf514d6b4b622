package projection

import (
	"math"

	"github.com/kairos-service/internal/domain"
)

type Viewport struct {
	Center domain.Coordinates `json:"center"`
	Zoom   float64            `json:"zoom"`
}

type ViewportOptions struct {
	MinZoom         float64
	MaxZoom         float64
	SinglePointZoom float64
}

// DefaultViewportOptions - границы зума карты по умолчанию
var DefaultViewportOptions = ViewportOptions{MinZoom: 1, MaxZoom: 15, SinglePointZoom: 10}

// FitViewport подбирает центр и зум так, чтобы все точки были видны.
// Без точек возвращает current без изменений.
func FitViewport(coords []domain.Coordinates, current Viewport, opts ViewportOptions) Viewport {
	switch len(coords) {
	case 0:
		return current
	case 1:
		return Viewport{Center: coords[0], Zoom: opts.SinglePointZoom}
	}

	bbox := domain.BoundingBox{
		MinLat: coords[0].Lat(), MaxLat: coords[0].Lat(),
		MinLon: coords[0].Lng(), MaxLon: coords[0].Lng(),
	}
	for _, c := range coords[1:] {
		bbox.MinLat = math.Min(bbox.MinLat, c.Lat())
		bbox.MaxLat = math.Max(bbox.MaxLat, c.Lat())
		bbox.MinLon = math.Min(bbox.MinLon, c.Lng())
		bbox.MaxLon = math.Max(bbox.MaxLon, c.Lng())
	}

	span := bbox.MaxSpan()
	zoom := opts.MaxZoom
	if span > 0 {
		zoom = math.Floor(8 - math.Log2(span))
		zoom = math.Max(opts.MinZoom, math.Min(opts.MaxZoom, zoom))
	}

	return Viewport{Center: bbox.Center(), Zoom: zoom}
}

// SceneCoordinates собирает координаты всех пинов сцены, включая точку захвата
func SceneCoordinates(scene Scene) []domain.Coordinates {
	coords := make([]domain.Coordinates, 0, len(scene.Pins)+1)
	for _, p := range scene.Pins {
		coords = append(coords, p.Coordinates)
	}
	if scene.Pending != nil {
		coords = append(coords, scene.Pending.Coordinates)
	}
	return coords
}
