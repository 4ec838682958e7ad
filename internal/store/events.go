package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"riskmonitor/internal/types"
)

// CreateEvent inserts a new pending event.
func (s *Store) CreateEvent(ctx context.Context, orgID int64, input string, severity int) (*types.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.getOrganization(ctx, orgID); err != nil {
		return nil, err
	}
	if severity < 1 || severity > 5 {
		severity = 3
	}

	now := time.Now()
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO events (organization_id, event_input, severity_level, processing_status, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		orgID, input, severity, string(types.StatusPending), encodeTime(now))
	if err != nil {
		return nil, fmt.Errorf("failed to insert event: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to read insert id: %w", err)
	}

	return &types.Event{
		ID:               id,
		OrganizationID:   orgID,
		EventInput:       input,
		SeverityLevel:    severity,
		ProcessingStatus: types.StatusPending,
		CreatedAt:        now,
	}, nil
}

// GetEvent fetches one event by id, including all pipeline outputs.
func (s *Store) GetEvent(ctx context.Context, id int64) (*types.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, eventSelect+` WHERE id = ?`, id)
	ev, err := scanEvent(row)
	if err == sql.ErrNoRows {
		return nil, &NotFoundError{Kind: "event", ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read event: %w", err)
	}
	return ev, nil
}

// ListEvents returns an organization's events, newest first.
func (s *Store) ListEvents(ctx context.Context, orgID int64, skip, limit int) ([]types.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx, eventSelect+`
		WHERE organization_id = ? ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`,
		orgID, limit, skip)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	defer rows.Close()

	var events []types.Event
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		events = append(events, *ev)
	}
	return events, rows.Err()
}

// MarkEventProcessing flips an event to processing status.
func (s *Store) MarkEventProcessing(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		`UPDATE events SET processing_status = ? WHERE id = ?`,
		string(types.StatusProcessing), id)
	if err != nil {
		return fmt.Errorf("failed to mark event processing: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &NotFoundError{Kind: "event", ID: id}
	}
	return nil
}

// CompleteEvent stores every pipeline output and marks the event completed.
func (s *Store) CompleteEvent(ctx context.Context, ev *types.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	logs, err := json.Marshal(ev.AgentLogs)
	if err != nil {
		return fmt.Errorf("failed to encode agent logs: %w", err)
	}

	completedAt := time.Now()
	res, err := s.db.ExecContext(ctx, `
		UPDATE events SET
			title = ?, event_type = ?, location = ?, description = ?,
			latitude = ?, longitude = ?, impact_assessment = ?,
			affected_supplier_count = ?, overall_risk_score = ?,
			parsed_event = ?, affected_suppliers = ?, risk_analysis = ?,
			recommendations = ?, alternative_suppliers = ?, playbook = ?,
			agent_logs = ?, processing_status = ?, processing_time_seconds = ?,
			completed_at = ?
		WHERE id = ?`,
		ev.Title, string(ev.EventType), ev.Location, ev.Description,
		ev.Latitude, ev.Longitude, ev.ImpactAssessment,
		ev.AffectedSupplierCount, ev.OverallRiskScore,
		rawOrNil(ev.ParsedEvent), rawOrNil(ev.AffectedSuppliers), rawOrNil(ev.RiskAnalysis),
		rawOrNil(ev.Recommendations), rawOrNil(ev.AlternativeSuppliers), rawOrNil(ev.Playbook),
		string(logs), string(types.StatusCompleted), ev.ProcessingTimeSeconds,
		encodeTime(completedAt), ev.ID)
	if err != nil {
		return fmt.Errorf("failed to complete event: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &NotFoundError{Kind: "event", ID: ev.ID}
	}
	return nil
}

// FailEvent marks an event failed and stores the accumulated agent logs.
func (s *Store) FailEvent(ctx context.Context, id int64, agentLogs []types.AgentLogEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	logs, err := json.Marshal(agentLogs)
	if err != nil {
		return fmt.Errorf("failed to encode agent logs: %w", err)
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE events SET processing_status = ?, agent_logs = ? WHERE id = ?`,
		string(types.StatusFailed), string(logs), id)
	if err != nil {
		return fmt.Errorf("failed to fail event: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &NotFoundError{Kind: "event", ID: id}
	}
	return nil
}

func rawOrNil(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	return string(raw)
}

const eventSelect = `
	SELECT id, organization_id, event_input, severity_level, title, event_type,
		location, description, latitude, longitude, impact_assessment,
		affected_supplier_count, overall_risk_score, parsed_event,
		affected_suppliers, risk_analysis, recommendations,
		alternative_suppliers, playbook, agent_logs, processing_status,
		processing_time_seconds, created_at, completed_at
	FROM events`

func scanEvent(row rowScanner) (*types.Event, error) {
	var (
		ev          types.Event
		eventType   string
		status      string
		lat, lon    sql.NullFloat64
		parsed      sql.NullString
		affected    sql.NullString
		analysis    sql.NullString
		recs        sql.NullString
		alts        sql.NullString
		playbook    sql.NullString
		agentLogs   sql.NullString
		createdAt   string
		completedAt sql.NullString
	)
	err := row.Scan(&ev.ID, &ev.OrganizationID, &ev.EventInput, &ev.SeverityLevel,
		&ev.Title, &eventType, &ev.Location, &ev.Description, &lat, &lon,
		&ev.ImpactAssessment, &ev.AffectedSupplierCount, &ev.OverallRiskScore,
		&parsed, &affected, &analysis, &recs, &alts, &playbook, &agentLogs,
		&status, &ev.ProcessingTimeSeconds, &createdAt, &completedAt)
	if err != nil {
		return nil, err
	}

	ev.EventType = types.EventType(eventType)
	ev.ProcessingStatus = types.ProcessingStatus(status)
	if lat.Valid {
		ev.Latitude = &lat.Float64
	}
	if lon.Valid {
		ev.Longitude = &lon.Float64
	}
	ev.ParsedEvent = rawFromNull(parsed)
	ev.AffectedSuppliers = rawFromNull(affected)
	ev.RiskAnalysis = rawFromNull(analysis)
	ev.Recommendations = rawFromNull(recs)
	ev.AlternativeSuppliers = rawFromNull(alts)
	ev.Playbook = rawFromNull(playbook)
	if agentLogs.Valid && agentLogs.String != "" {
		if err := json.Unmarshal([]byte(agentLogs.String), &ev.AgentLogs); err != nil {
			return nil, fmt.Errorf("failed to decode agent logs: %w", err)
		}
	}
	ev.CreatedAt = decodeTime(createdAt)
	ev.CompletedAt = decodeTimePtr(completedAt)
	return &ev, nil
}

func rawFromNull(s sql.NullString) json.RawMessage {
	if !s.Valid || s.String == "" {
		return nil
	}
	return json.RawMessage(s.String)
}
