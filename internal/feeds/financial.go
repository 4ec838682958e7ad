package feeds

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"riskmonitor/internal/config"
	"riskmonitor/internal/logging"
)

// DefaultExchangeRateBaseURL is the exchangerate-api.com root.
const DefaultExchangeRateBaseURL = "https://api.exchangerate-api.com"

// commodityAlertPercent is the fallback alert band for 30-day moves when
// no threshold is configured.
const commodityAlertPercent = 30.0

// CommodityQuote is a 30-day price snapshot for one commodity.
type CommodityQuote struct {
	Commodity    string  `json:"commodity"`
	CurrentPrice float64 `json:"current_price"`
	Change30d    float64 `json:"change_30d"`
	Alert        bool    `json:"alert"`
	Trend        string  `json:"trend"` // UP, DOWN, STABLE
}

// StockQuote is a 5-day snapshot for a publicly traded supplier.
type StockQuote struct {
	Ticker          string  `json:"ticker"`
	CurrentPrice    float64 `json:"current_price"`
	PriceChange5d   float64 `json:"price_change_5d"`
	FinancialHealth string  `json:"financial_health"`
	AlertLevel      string  `json:"alert_level"`
	Timestamp       string  `json:"timestamp"`
}

// ExchangeRates is a base currency's current rate table.
type ExchangeRates struct {
	Base      string             `json:"base"`
	Rates     map[string]float64 `json:"rates"`
	Timestamp string             `json:"timestamp"`
}

// Reference quotes standing in for a market data subscription. Lithium is
// deliberately outside the alert band so downstream alerting paths stay
// exercised.
var referenceCommodities = map[string]CommodityQuote{
	"oil":     {Commodity: "oil", CurrentPrice: 78.42, Change30d: 4.3},
	"gold":    {Commodity: "gold", CurrentPrice: 2389.10, Change30d: 2.1},
	"copper":  {Commodity: "copper", CurrentPrice: 4.51, Change30d: -8.7},
	"lithium": {Commodity: "lithium", CurrentPrice: 13250.00, Change30d: -34.2},
}

var referenceStocks = map[string]StockQuote{
	"TSM":  {Ticker: "TSM", CurrentPrice: 172.40, PriceChange5d: -2.1},
	"STLA": {Ticker: "STLA", CurrentPrice: 18.92, PriceChange5d: -11.4},
	"AAPL": {Ticker: "AAPL", CurrentPrice: 232.15, PriceChange5d: 1.8},
}

// FinancialService tracks commodity prices, supplier stocks, and exchange
// rates. Exchange rates come from a live API; commodities and stocks use
// reference data.
type FinancialService struct {
	exchangeBaseURL string
	httpClient      *http.Client
	rules           *config.Thresholds
	logger          *zap.Logger
}

// NewFinancialService creates the service. An empty baseURL uses the public
// exchange rate API; a nil rules holder reads as the default thresholds.
func NewFinancialService(exchangeBaseURL string, timeout time.Duration, rules *config.Thresholds) *FinancialService {
	if exchangeBaseURL == "" {
		exchangeBaseURL = DefaultExchangeRateBaseURL
	}
	return &FinancialService{
		exchangeBaseURL: strings.TrimRight(exchangeBaseURL, "/"),
		httpClient:      newHTTPClient(timeout),
		rules:           rules,
		logger:          logging.Get(logging.CategoryFeeds),
	}
}

// CommodityQuotes returns snapshots for the requested commodities; unknown
// names are skipped.
func (s *FinancialService) CommodityQuotes(commodities []string) map[string]CommodityQuote {
	band := s.rules.Current().CommodityMovePercent
	if band <= 0 {
		band = commodityAlertPercent
	}

	quotes := make(map[string]CommodityQuote)
	for _, name := range commodities {
		q, ok := referenceCommodities[strings.ToLower(name)]
		if !ok {
			continue
		}
		q.Alert = math.Abs(q.Change30d) > band
		switch {
		case q.Change30d > 5:
			q.Trend = "UP"
		case q.Change30d < -5:
			q.Trend = "DOWN"
		default:
			q.Trend = "STABLE"
		}
		quotes[strings.ToLower(name)] = q
	}
	return quotes
}

// Stock returns a snapshot for the ticker. Unknown tickers read as stable.
func (s *FinancialService) Stock(ticker string) StockQuote {
	q, ok := referenceStocks[strings.ToUpper(ticker)]
	if !ok {
		q = StockQuote{Ticker: strings.ToUpper(ticker), CurrentPrice: 100.0}
	}
	q.FinancialHealth = assessFinancialHealth(q.PriceChange5d)
	switch {
	case q.PriceChange5d < -15:
		q.AlertLevel = SeverityHigh
	case q.PriceChange5d < -10:
		q.AlertLevel = SeverityMedium
	default:
		q.AlertLevel = SeverityLow
	}
	q.Timestamp = time.Now().UTC().Format(time.RFC3339)
	return q
}

func assessFinancialHealth(change float64) string {
	switch {
	case change < -20:
		return "CRITICAL - Severe stock decline, potential financial distress"
	case change < -15:
		return "WARNING - Significant decline, monitor closely"
	case change < -10:
		return "CAUTION - Notable decline"
	case change > 15:
		return "STRONG - Significant growth"
	default:
		return "STABLE - Normal trading range"
	}
}

// Rates fetches current exchange rates for the base currency.
func (s *FinancialService) Rates(ctx context.Context, base string) (*ExchangeRates, error) {
	if base == "" {
		base = "USD"
	}

	reqURL := fmt.Sprintf("%s/v4/latest/%s", s.exchangeBaseURL, base)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("exchange rate request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("exchange rate fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("exchange rate API returned HTTP %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("exchange rate read: %w", err)
	}

	var parsed struct {
		Rates map[string]float64 `json:"rates"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("exchange rate decode: %w", err)
	}

	s.logger.Debug("exchange rates fetched", zap.String("base", base), zap.Int("rates", len(parsed.Rates)))
	return &ExchangeRates{
		Base:      base,
		Rates:     parsed.Rates,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}, nil
}
