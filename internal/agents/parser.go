package agents

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"riskmonitor/internal/llm"
)

// defaultAffectedRadiusKm applies when the model omits a radius estimate.
const defaultAffectedRadiusKm = 500

// EventParser turns a free-text disruption report into a ParsedEvent.
type EventParser struct {
	llm llm.Completer
}

// NewEventParser creates the parser agent.
func NewEventParser(completer llm.Completer) *EventParser {
	return &EventParser{llm: completer}
}

const parserSystemPrompt = `You are a supply chain event analyst. Extract structured data from disruption reports.
Respond with JSON only, no prose. Use null for coordinates you cannot estimate.
Valid event types: "Natural Disaster", "Geopolitical", "Labor Strike", "Logistics", "Economic", "Cyber Security", "Regulatory", "Other".`

func parserSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"event_type": map[string]any{"type": "string"},
			"location": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"country":             map[string]any{"type": "string"},
					"city":                map[string]any{"type": "string"},
					"region":              map[string]any{"type": "string"},
					"estimated_latitude":  map[string]any{"type": "number", "nullable": true},
					"estimated_longitude": map[string]any{"type": "number", "nullable": true},
				},
			},
			"severity_assessment": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"level":              map[string]any{"type": "integer"},
					"description":        map[string]any{"type": "string"},
					"estimated_duration": map[string]any{"type": "string"},
					"affected_radius_km": map[string]any{"type": "number"},
				},
			},
			"key_industries_affected": map[string]any{
				"type": "array", "items": map[string]any{"type": "string"},
			},
			"summary":  map[string]any{"type": "string"},
			"keywords": map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
		},
		"required": []string{"event_type", "location", "severity_assessment", "summary"},
	}
}

// Parse extracts structure from the raw event text.
func (p *EventParser) Parse(ctx context.Context, input string) (*ParsedEvent, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, fmt.Errorf("empty event input")
	}

	userPrompt := fmt.Sprintf(`Analyze this supply chain disruption report and extract the structured event data:

%s

Estimate coordinates for the affected location when you can. Rate severity 1 (minor) to 5 (catastrophic).`, input)

	raw, err := p.llm.CompleteJSON(ctx, parserSystemPrompt, userPrompt, parserSchema())
	if err != nil {
		return nil, fmt.Errorf("event parsing failed: %w", err)
	}

	var parsed ParsedEvent
	if err := json.Unmarshal([]byte(llm.CleanJSON(raw)), &parsed); err != nil {
		return nil, fmt.Errorf("event parser returned invalid JSON: %w", err)
	}

	if parsed.SeverityAssessment.Level < 1 {
		parsed.SeverityAssessment.Level = 1
	}
	if parsed.SeverityAssessment.Level > 5 {
		parsed.SeverityAssessment.Level = 5
	}
	if parsed.SeverityAssessment.AffectedRadiusKm <= 0 {
		parsed.SeverityAssessment.AffectedRadiusKm = defaultAffectedRadiusKm
	}
	if parsed.Summary == "" {
		parsed.Summary = truncate(input, 200)
	}
	return &parsed, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
