package domain

import "math"

// Coordinates - географическая точка в порядке [lng, lat], как в GeoJSON и mapbox.
// Порядок сохраняется на всех границах: wire DTO, домен, проекция, HTTP ответ.
type Coordinates [2]float64

// NewCoordinates создает точку из долготы и широты
func NewCoordinates(lng, lat float64) Coordinates {
	return Coordinates{lng, lat}
}

// Lng возвращает долготу
func (c Coordinates) Lng() float64 { return c[0] }

// Lat возвращает широту
func (c Coordinates) Lat() float64 { return c[1] }

// Valid проверяет диапазоны долготы и широты
func (c Coordinates) Valid() bool {
	if math.IsNaN(c[0]) || math.IsNaN(c[1]) {
		return false
	}
	return c.Lat() >= -90 && c.Lat() <= 90 && c.Lng() >= -180 && c.Lng() <= 180
}

// GeoPoint - GeoJSON-представление точки для обмена с внешним API
type GeoPoint struct {
	Type        string     `json:"type"`
	Coordinates [2]float64 `json:"coordinates"`
}

// ToGeoPoint оборачивает координаты в GeoJSON Point
func (c Coordinates) ToGeoPoint() GeoPoint {
	return GeoPoint{Type: "Point", Coordinates: [2]float64{c[0], c[1]}}
}

type BoundingBox struct {
	MinLat float64 `json:"min_lat"`
	MinLon float64 `json:"min_lon"`
	MaxLat float64 `json:"max_lat"`
	MaxLon float64 `json:"max_lon"`
}

// Center возвращает середину bbox
func (b BoundingBox) Center() Coordinates {
	return NewCoordinates((b.MinLon+b.MaxLon)/2, (b.MinLat+b.MaxLat)/2)
}

// MaxSpan возвращает наибольшую сторону bbox в градусах
func (b BoundingBox) MaxSpan() float64 {
	return math.Max(math.Abs(b.MaxLon-b.MinLon), math.Abs(b.MaxLat-b.MinLat))
}
