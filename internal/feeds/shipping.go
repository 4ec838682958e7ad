package feeds

import (
	"time"
)

// PortStatus is a congestion snapshot for one port.
type PortStatus struct {
	Port            string `json:"port"`
	CongestionLevel int    `json:"congestion_level"` // 0-10
	AvgWaitHours    int    `json:"avg_wait_time_hours"`
	VesselsWaiting  int    `json:"vessels_waiting"`
	Status          string `json:"status"`
	EstDelayDays    int    `json:"estimated_delay_days"`
	Timestamp       string `json:"timestamp"`
}

// RouteEstimate is a transit time estimate for one shipping lane.
type RouteEstimate struct {
	Origin        string `json:"origin"`
	Destination   string `json:"destination"`
	EstimatedDays int    `json:"estimated_days"`
	Status        string `json:"status"` // ON_TIME or DELAYED
	DelayDays     int    `json:"delay_days"`
	Timestamp     string `json:"timestamp"`
}

type portRecord struct {
	congestion int
	waitHours  int
	vessels    int
}

// Reference congestion data standing in for a marine traffic subscription.
var referencePorts = map[string]portRecord{
	"Los Angeles": {congestion: 8, waitHours: 72, vessels: 45},
	"Shanghai":    {congestion: 6, waitHours: 48, vessels: 30},
	"Rotterdam":   {congestion: 4, waitHours: 24, vessels: 15},
	"Singapore":   {congestion: 3, waitHours: 12, vessels: 8},
}

var referenceRoutes = map[[2]string]int{
	{"Shanghai", "Los Angeles"}: 14,
	{"Rotterdam", "New York"}:   10,
	{"Singapore", "London"}:     18,
	{"Tokyo", "San Francisco"}:  12,
}

// MajorPorts are the lanes the market scan watches.
var MajorPorts = []string{"Los Angeles", "Shanghai", "Rotterdam", "Singapore"}

// ShippingService reports port congestion and route transit estimates from
// reference data.
type ShippingService struct{}

// NewShippingService creates the service.
func NewShippingService() *ShippingService {
	return &ShippingService{}
}

// PortStatus returns the congestion snapshot for a port. Unknown ports get
// a middle-of-the-road default.
func (s *ShippingService) PortStatus(port string) PortStatus {
	rec, ok := referencePorts[port]
	if !ok {
		rec = portRecord{congestion: 5, waitHours: 36, vessels: 20}
	}
	return PortStatus{
		Port:            port,
		CongestionLevel: rec.congestion,
		AvgWaitHours:    rec.waitHours,
		VesselsWaiting:  rec.vessels,
		Status:          assessPortStatus(rec.congestion),
		EstDelayDays:    rec.waitHours / 24,
		Timestamp:       time.Now().UTC().Format(time.RFC3339),
	}
}

func assessPortStatus(congestion int) string {
	switch {
	case congestion >= 8:
		return "CRITICAL - Severe delays expected"
	case congestion >= 6:
		return "HIGH - Significant delays"
	case congestion >= 4:
		return "MODERATE - Minor delays"
	default:
		return "NORMAL - Operating smoothly"
	}
}

// RouteEstimate returns the transit estimate for a lane. Unknown lanes use
// a 15-day default.
func (s *ShippingService) RouteEstimate(origin, destination string) RouteEstimate {
	base, ok := referenceRoutes[[2]string{origin, destination}]
	if !ok {
		base = 15
	}
	return RouteEstimate{
		Origin:        origin,
		Destination:   destination,
		EstimatedDays: base,
		Status:        "ON_TIME",
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
	}
}
