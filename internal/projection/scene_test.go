package projection

import (
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kairos-service/internal/domain"
	"github.com/kairos-service/internal/route"
)

func marker(id, owner string, kind domain.MarkerKind, at string, lng, lat float64) domain.Marker {
	t, _ := time.Parse("2006-01-02", at)
	m := domain.Marker{
		ID:          id,
		JourneyID:   "J",
		OwnerID:     owner,
		Name:        "Stop " + id,
		Kind:        kind,
		Coordinates: domain.NewCoordinates(lng, lat),
	}
	if kind == domain.MarkerKindPast {
		m.Timestamp = &t
	} else {
		m.EstimatedArrival = &t
	}
	return m
}

func fixture() []domain.Marker {
	return []domain.Marker{
		marker("1", "u1", domain.MarkerKindPast, "2024-01-01", -9.14, 38.72),
		marker("2", "u1", domain.MarkerKindPast, "2024-01-05", -3.70, 40.42),
		marker("3", "u1", domain.MarkerKindPlan, "2024-02-01", 2.17, 41.38),
		marker("4", "u1", domain.MarkerKindPlan, "2024-03-01", 2.35, 48.86),
	}
}

func TestProject_LineGeometryFollowsSequence(t *testing.T) {
	routes := route.BuildRoutes(fixture())
	scene := Project(routes, nil, "u1", nil, Options{ArrowSpacingKm: 100})

	require.Len(t, scene.Lines, 1)
	line := scene.Lines[0]

	var geometry struct {
		Type        string       `json:"type"`
		Coordinates [][2]float64 `json:"coordinates"`
	}
	require.NoError(t, json.Unmarshal(line.Geometry, &geometry))
	assert.Equal(t, "LineString", geometry.Type)
	assert.Equal(t, routes[0].Coordinates, geometry.Coordinates)

	assert.Equal(t, LineStyle{Color: routes[0].Color, Width: 4, Opacity: 0.8}, line.Style)
	assert.Equal(t, LineStyle{Color: "#FFFFFF", Width: 6, Opacity: 0.6}, line.Outline)
}

func TestProject_ArrowsPointForward(t *testing.T) {
	markers := []domain.Marker{
		marker("1", "u1", domain.MarkerKindPast, "2024-01-01", 0, 0),
		marker("2", "u1", domain.MarkerKindPast, "2024-01-02", 0, 2),
	}
	scene := Project(route.BuildRoutes(markers), nil, "u1", nil, Options{ArrowSpacingKm: 50})

	require.Len(t, scene.Lines, 1)
	arrows := scene.Lines[0].Arrows
	// ~222 km при шаге 50 км
	require.Len(t, arrows, 4)
	for i, a := range arrows {
		assert.Equal(t, "▶", a.Glyph)
		assert.InDelta(t, 0, a.Bearing, 1e-9, "northbound segment")
		if i > 0 {
			assert.Greater(t, a.Coordinates.Lat(), arrows[i-1].Coordinates.Lat())
		}
	}
}

func TestProject_SinglePointRouteHasNoLine(t *testing.T) {
	routes := route.BuildRoutes(fixture()[:1])
	scene := Project(routes, nil, "u1", nil, Options{})

	assert.Empty(t, scene.Lines)
	require.Len(t, scene.Pins, 1)
	assert.True(t, scene.Pins[0].Attached)
}

func TestProject_CoincidentPointsHaveNoLine(t *testing.T) {
	markers := []domain.Marker{
		marker("1", "u1", domain.MarkerKindPast, "2024-01-01", 2.35, 48.86),
		marker("2", "u1", domain.MarkerKindPlan, "2024-02-01", 2.35, 48.86),
	}
	routes := route.BuildRoutes(markers)
	require.Len(t, routes, 1)
	require.True(t, routes[0].HasLine())

	var scene Scene
	require.NotPanics(t, func() {
		scene = Project(routes, nil, "u1", nil, Options{})
	})
	assert.Empty(t, scene.Lines)
	assert.Len(t, scene.Pins, 2)
}

func TestProject_PinStyles(t *testing.T) {
	routes := route.BuildRoutes(fixture())
	color := routes[0].Color
	scene := Project(routes, nil, "u1", nil, Options{})

	require.Len(t, scene.Pins, 4)
	assert.Equal(t, PinStyle{Fill: color, Border: "#FFFFFF", Opacity: 1, Glyph: "●"}, scene.Pins[0].Style)
	assert.Equal(t, PinStyle{Fill: "#FFFFFF", Border: color, Opacity: 1, Glyph: "→"}, scene.Pins[2].Style)
	assert.Equal(t, PinStyle{Fill: "#FFFFFF", Border: color, Opacity: 1, Glyph: "○"}, scene.Pins[3].Style)
	for _, p := range scene.Pins {
		assert.True(t, p.Owned)
		assert.Equal(t, "Stop "+p.MarkerID, p.Label)
	}
}

func TestProject_ForeignMarkersAreMuted(t *testing.T) {
	scene := Project(route.BuildRoutes(fixture()), nil, "someone-else", nil, Options{})

	for _, p := range scene.Pins {
		assert.False(t, p.Owned)
		assert.Equal(t, 0.7, p.Style.Opacity)
		assert.Equal(t, "?", p.Style.Badge)
		assert.Contains(t, []string{p.Style.Fill, p.Style.Border}, "#6B7280")
	}
}

func TestProject_UnorderedAndPending(t *testing.T) {
	broken := domain.Marker{ID: "x", JourneyID: "J", OwnerID: "u1", Kind: domain.MarkerKindPlan, Coordinates: domain.NewCoordinates(1, 1)}
	all := append(fixture(), broken)
	pending := domain.NewCoordinates(5, 5)

	scene := Project(route.BuildRoutes(all), route.Unordered(all), "u1", &pending, Options{})

	require.Len(t, scene.Pins, 5)
	last := scene.Pins[4]
	assert.Equal(t, "x", last.MarkerID)
	assert.False(t, last.Attached)
	assert.Equal(t, -1, last.SequenceIndex)

	require.NotNil(t, scene.Pending)
	assert.True(t, scene.Pending.Style.Pulsing)
	assert.Equal(t, pending, scene.Pending.Coordinates)
}

func TestProject_OrderBadges(t *testing.T) {
	scene := Project(route.BuildRoutes(fixture()), nil, "u1", nil, Options{ShowOrderBadges: true})

	for i, p := range scene.Pins {
		assert.Equal(t, i+1, p.Order)
	}
	assert.Equal(t, "1. Stop 1", scene.Pins[0].Label)
}
