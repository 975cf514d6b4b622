package route

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kairos-service/internal/domain"
)

func day(s string) *time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return &t
}

func past(id, journeyID, ts string, lng, lat float64) domain.Marker {
	return domain.Marker{
		ID:          id,
		JourneyID:   journeyID,
		Kind:        domain.MarkerKindPast,
		Timestamp:   day(ts),
		Coordinates: domain.NewCoordinates(lng, lat),
	}
}

func plan(id, journeyID, eta string, lng, lat float64) domain.Marker {
	return domain.Marker{
		ID:               id,
		JourneyID:        journeyID,
		Kind:             domain.MarkerKindPlan,
		EstimatedArrival: day(eta),
		Coordinates:      domain.NewCoordinates(lng, lat),
	}
}

func ids(route domain.ProcessedRoute) []string {
	out := make([]string, len(route.Markers))
	for i, m := range route.Markers {
		out[i] = m.ID
	}
	return out
}

func roles(route domain.ProcessedRoute) []domain.SegmentRole {
	out := make([]domain.SegmentRole, len(route.Markers))
	for i, m := range route.Markers {
		out[i] = m.SegmentRole
	}
	return out
}

func TestBuildRoutes_SingleJourneyMixedKinds(t *testing.T) {
	markers := []domain.Marker{
		past("1", "J", "2024-01-01", 1, 10),
		plan("2", "J", "2024-02-01", 2, 20),
		past("3", "J", "2023-12-01", 3, 30),
	}

	routes := BuildRoutes(markers)
	require.Len(t, routes, 1)

	r := routes[0]
	assert.Equal(t, "J", r.JourneyID)
	assert.Equal(t, []string{"3", "1", "2"}, ids(r))
	assert.Equal(t, []domain.SegmentRole{domain.SegmentPast, domain.SegmentPast, domain.SegmentTransition}, roles(r))
	assert.Equal(t, [][2]float64{{3, 30}, {1, 10}, {2, 20}}, r.Coordinates)

	for i, m := range r.Markers {
		assert.Equal(t, i, m.SequenceIndex)
	}
}

func TestBuildRoutes_Deterministic(t *testing.T) {
	markers := []domain.Marker{
		plan("p1", "B", "2024-03-01", 0, 0),
		past("a1", "A", "2024-01-05", 1, 1),
		past("b1", "B", "2024-01-01", 2, 2),
		plan("a2", "A", "2024-02-01", 3, 3),
		past("c1", "C", "2024-01-01", 4, 4),
	}

	first := BuildRoutes(markers)
	second := BuildRoutes(markers)
	assert.Equal(t, first, second)

	journeyIDs := make([]string, len(first))
	for i, r := range first {
		journeyIDs[i] = r.JourneyID
	}
	assert.Equal(t, []string{"A", "B", "C"}, journeyIDs)
}

func TestBuildRoutes_ColorStableAcrossInputs(t *testing.T) {
	a := []domain.Marker{past("a1", "A", "2024-01-01", 0, 0), plan("a2", "A", "2024-02-01", 1, 1)}
	b := []domain.Marker{past("b1", "B", "2024-01-01", 2, 2)}

	combined := BuildRoutes(append(append([]domain.Marker{}, a...), b...))
	require.Len(t, combined, 2)

	alone := BuildRoutes(a)
	require.Len(t, alone, 1)

	assert.Equal(t, combined[0].Color, alone[0].Color)
	assert.Equal(t, JourneyColor("A"), alone[0].Color)
}

func TestBuildRoutes_ChronologicalOrder(t *testing.T) {
	markers := []domain.Marker{
		plan("p3", "J", "2024-06-03", 0, 0),
		past("x2", "J", "2024-01-02", 0, 0),
		plan("p1", "J", "2024-06-01", 0, 0),
		past("x3", "J", "2024-01-03", 0, 0),
		plan("p2", "J", "2024-06-02", 0, 0),
		past("x1", "J", "2024-01-01", 0, 0),
	}

	r := BuildRoutes(markers)[0]
	assert.Equal(t, []string{"x1", "x2", "x3", "p1", "p2", "p3"}, ids(r))

	lastPast, firstPlan := -1, len(r.Markers)
	for _, m := range r.Markers {
		switch m.Kind {
		case domain.MarkerKindPast:
			lastPast = m.SequenceIndex
		case domain.MarkerKindPlan:
			if m.SequenceIndex < firstPlan {
				firstPlan = m.SequenceIndex
			}
		}
	}
	assert.Less(t, lastPast, firstPlan)
}

func TestBuildRoutes_TransitionRequiresPast(t *testing.T) {
	t.Run("plan only", func(t *testing.T) {
		r := BuildRoutes([]domain.Marker{
			plan("p1", "J", "2024-01-01", 0, 0),
			plan("p2", "J", "2024-01-02", 0, 0),
		})[0]
		assert.Equal(t, []domain.SegmentRole{domain.SegmentPlan, domain.SegmentPlan}, roles(r))
	})

	t.Run("past only", func(t *testing.T) {
		r := BuildRoutes([]domain.Marker{past("x1", "J", "2024-01-01", 0, 0)})[0]
		assert.Equal(t, []domain.SegmentRole{domain.SegmentPast}, roles(r))
	})

	t.Run("exactly one transition", func(t *testing.T) {
		r := BuildRoutes([]domain.Marker{
			past("x1", "J", "2024-01-01", 0, 0),
			plan("p1", "J", "2024-02-01", 0, 0),
			plan("p2", "J", "2024-03-01", 0, 0),
		})[0]
		count := 0
		for _, m := range r.Markers {
			if m.SegmentRole == domain.SegmentTransition {
				count++
				assert.Equal(t, "p1", m.ID)
			}
		}
		assert.Equal(t, 1, count)
	})
}

func TestBuildRoutes_StableForEqualTimes(t *testing.T) {
	r := BuildRoutes([]domain.Marker{
		past("second", "J", "2024-01-01", 0, 0),
		past("first", "J", "2024-01-01", 0, 0),
	})[0]
	assert.Equal(t, []string{"second", "first"}, ids(r))
}

func TestBuildRoutes_PartitionAndExclusions(t *testing.T) {
	noTime := domain.Marker{ID: "bad", JourneyID: "J", Kind: domain.MarkerKindPast}
	wrongField := domain.Marker{ID: "wrong", JourneyID: "J", Kind: domain.MarkerKindPlan, Timestamp: day("2024-01-01")}
	unknownKind := domain.Marker{ID: "odd", JourneyID: "K", Kind: "someday", Timestamp: day("2024-01-01")}

	markers := []domain.Marker{
		past("x1", "J", "2024-01-01", 0, 0),
		noTime,
		past("k1", "K", "2024-01-01", 0, 0),
		wrongField,
		unknownKind,
	}

	routes := BuildRoutes(markers)
	require.Len(t, routes, 2)

	seen := map[string]int{}
	for _, r := range routes {
		for _, m := range r.Markers {
			assert.Equal(t, r.JourneyID, m.JourneyID)
			seen[m.ID]++
		}
	}
	assert.Equal(t, map[string]int{"x1": 1, "k1": 1}, seen)

	excluded := Unordered(markers)
	assert.Equal(t, []domain.Marker{noTime, wrongField, unknownKind}, excluded)
}

func TestBuildRoutes_EmptyAndSinglePoint(t *testing.T) {
	assert.Empty(t, BuildRoutes(nil))
	assert.Empty(t, BuildRoutes([]domain.Marker{}))

	routes := BuildRoutes([]domain.Marker{past("x1", "J", "2024-01-01", 2.17, 41.38)})
	require.Len(t, routes, 1)
	assert.Len(t, routes[0].Coordinates, 1)
	assert.False(t, routes[0].HasLine())
}

func TestBuildRoutes_DoesNotMutateInput(t *testing.T) {
	markers := []domain.Marker{
		past("1", "J", "2024-01-02", 0, 0),
		past("2", "J", "2024-01-01", 0, 0),
	}
	snapshot := append([]domain.Marker(nil), markers...)

	BuildRoutes(markers)
	assert.Equal(t, snapshot, markers)
}

func TestJourneyColor(t *testing.T) {
	assert.Equal(t, "#06B6D4", JourneyColor("A"))
	assert.Equal(t, "#F97316", JourneyColor("B"))
	assert.Equal(t, "#3B82F6", JourneyColor(""))
	assert.Equal(t, JourneyColor("65a1f0c2e4b0a1b2c3d4e5f6"), JourneyColor("65a1f0c2e4b0a1b2c3d4e5f6"))
	assert.Contains(t, Palette, JourneyColor("65a1f0c2e4b0a1b2c3d4e5f6"))
}

func TestBuildRoutes_JourneyWithoutOrderedMarkersHasEmptyRoute(t *testing.T) {
	routes := BuildRoutes([]domain.Marker{
		{ID: "bad", JourneyID: "Z", Kind: domain.MarkerKindPlan},
		past("x1", "J", "2024-01-01", 0, 0),
	})
	require.Len(t, routes, 2)
	assert.Equal(t, "J", routes[0].JourneyID)
	assert.Len(t, routes[0].Markers, 1)

	empty := routes[1]
	assert.Equal(t, "Z", empty.JourneyID)
	assert.Equal(t, JourneyColor("Z"), empty.Color)
	assert.Empty(t, empty.Markers)
	assert.Empty(t, empty.Coordinates)
	assert.False(t, empty.HasLine())
}
