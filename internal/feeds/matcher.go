package feeds

import (
	"math"
	"strings"

	"riskmonitor/internal/geo"
	"riskmonitor/internal/types"
)

// Impact radius in km per event type. Events carrying coordinates affect
// suppliers within this distance.
var impactRadiusKm = map[string]float64{
	TypeNaturalDisaster:     500,
	TypeWeatherEvent:        300,
	TypeLaborDispute:        50,
	TypeIndustrialAccident:  100,
	TypeLogisticsDisruption: 200,
}

const defaultImpactRadiusKm = 100

// MatchEvents attaches affected suppliers to each event and returns only
// the events that touch at least one supplier.
func MatchEvents(events []Event, suppliers []types.Supplier) []Event {
	var matched []Event
	for _, ev := range events {
		if ev.Location == nil {
			continue
		}

		var hits []SupplierHit
		for i := range suppliers {
			sup := &suppliers[i]
			dist, ok := supplierAffected(sup, &ev)
			if !ok {
				continue
			}
			hits = append(hits, SupplierHit{
				SupplierID:   sup.ID,
				SupplierName: sup.Name,
				DistanceKm:   dist,
				Criticality:  strings.ToUpper(string(sup.Criticality)),
			})
		}

		if len(hits) > 0 {
			ev.AffectedSuppliers = hits
			ev.AffectedCount = len(hits)
			matched = append(matched, ev)
		}
	}
	return matched
}

// supplierAffected reports whether the event reaches the supplier, and the
// distance in km when coordinates decided it.
func supplierAffected(sup *types.Supplier, ev *Event) (float64, bool) {
	loc := ev.Location

	if loc.Country != "" && sup.Country != "" &&
		strings.Contains(strings.ToUpper(sup.Country), strings.ToUpper(loc.Country)) {
		return 0, true
	}

	if loc.Lat != 0 && loc.Lon != 0 && sup.HasCoordinates() {
		dist := geo.HaversineKm(*sup.Latitude, *sup.Longitude, loc.Lat, loc.Lon)
		radius, ok := impactRadiusKm[ev.EventType]
		if !ok {
			radius = defaultImpactRadiusKm
		}
		if dist <= radius {
			return math.Round(dist*100) / 100, true
		}
	}
	return 0, false
}
