package route

import (
	"sort"
	"time"

	"github.com/kairos-service/internal/domain"
)

// BuildRoutes группирует маркеры по путешествиям и упорядочивает каждое хронологически:
// сначала past по timestamp, затем plan по ETA. Маркеры без корректного времени исключаются.
// Маршрут строится для каждого путешествия из входа, в том числе пустой, если ни у одного
// маркера нет корректного времени. Маршруты отсортированы по id путешествия.
// Вход не изменяется.
func BuildRoutes(markers []domain.Marker) []domain.ProcessedRoute {
	groups := make(map[string][]domain.Marker)
	ids := make([]string, 0)
	for _, m := range markers {
		if _, ok := groups[m.JourneyID]; !ok {
			ids = append(ids, m.JourneyID)
		}
		groups[m.JourneyID] = append(groups[m.JourneyID], m)
	}
	sort.Strings(ids)

	routes := make([]domain.ProcessedRoute, 0, len(ids))
	for _, id := range ids {
		routes = append(routes, buildRoute(id, groups[id]))
	}
	return routes
}

func buildRoute(journeyID string, markers []domain.Marker) domain.ProcessedRoute {
	ordered := SortMarkers(markers)

	route := domain.ProcessedRoute{
		JourneyID:   journeyID,
		Coordinates: make([][2]float64, 0, len(ordered)),
		Color:       JourneyColor(journeyID),
		Markers:     ordered,
	}
	for _, pm := range ordered {
		route.Coordinates = append(route.Coordinates, [2]float64(pm.Coordinates))
	}
	return route
}

type timedMarker struct {
	marker domain.Marker
	at     time.Time
}

// SortMarkers упорядочивает маркеры одного путешествия и назначает sequenceIndex и роль.
// Первый plan маркер получает роль transition, только если есть хотя бы один past.
func SortMarkers(markers []domain.Marker) []domain.ProcessedMarker {
	past, plan := partition(markers)

	out := make([]domain.ProcessedMarker, 0, len(past)+len(plan))
	for _, tm := range past {
		out = append(out, domain.ProcessedMarker{
			Marker:        tm.marker,
			SequenceIndex: len(out),
			SegmentRole:   domain.SegmentPast,
		})
	}
	for i, tm := range plan {
		role := domain.SegmentPlan
		if i == 0 && len(past) > 0 {
			role = domain.SegmentTransition
		}
		out = append(out, domain.ProcessedMarker{
			Marker:        tm.marker,
			SequenceIndex: len(out),
			SegmentRole:   role,
		})
	}
	return out
}

// Unordered возвращает маркеры, не попавшие в хронологию: неизвестный тип
// или отсутствующее время для своего типа. Порядок входа сохраняется.
func Unordered(markers []domain.Marker) []domain.Marker {
	var out []domain.Marker
	for _, m := range markers {
		if _, ok := m.SortTime(); !ok {
			out = append(out, m)
		}
	}
	return out
}

func partition(markers []domain.Marker) (past, plan []timedMarker) {
	for _, m := range markers {
		at, ok := m.SortTime()
		if !ok {
			continue
		}
		switch m.Kind {
		case domain.MarkerKindPast:
			past = append(past, timedMarker{marker: m, at: at})
		case domain.MarkerKindPlan:
			plan = append(plan, timedMarker{marker: m, at: at})
		}
	}

	byTime := func(s []timedMarker) func(i, j int) bool {
		return func(i, j int) bool { return s[i].at.Before(s[j].at) }
	}
	sort.SliceStable(past, byTime(past))
	sort.SliceStable(plan, byTime(plan))
	return past, plan
}
