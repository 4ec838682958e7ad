package feeds

import (
	"hash/fnv"
	"math"
	"time"
)

// TrendData is a search-interest snapshot for one keyword.
type TrendData struct {
	Keyword         string  `json:"keyword"`
	CurrentInterest int     `json:"current_interest"`
	AvgInterest     int     `json:"avg_interest"`
	Trending        bool    `json:"trending"`
	ChangePercent   float64 `json:"change_percent"`
	Timestamp       string  `json:"timestamp"`
	Source          string  `json:"source"`
}

// TrendsService reports search interest for supplier names. Interest values
// derive from the keyword so results are stable across calls; a keyword is
// trending when current interest exceeds 1.5x its average.
type TrendsService struct{}

// NewTrendsService creates the service.
func NewTrendsService() *TrendsService {
	return &TrendsService{}
}

// Interest returns the interest snapshot for a keyword.
func (s *TrendsService) Interest(keyword string) TrendData {
	h := fnv.New32a()
	h.Write([]byte(keyword))
	seed := h.Sum32()

	current := 40 + int(seed%61)  // 40..100
	avg := 30 + int((seed>>8)%41) // 30..70
	change := float64(current-avg) / float64(avg) * 100

	return TrendData{
		Keyword:         keyword,
		CurrentInterest: current,
		AvgInterest:     avg,
		Trending:        float64(current) > float64(avg)*1.5,
		ChangePercent:   math.Round(change*100) / 100,
		Timestamp:       time.Now().UTC().Format(time.RFC3339),
		Source:          "reference_data",
	}
}
