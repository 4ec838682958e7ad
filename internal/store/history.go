package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"riskmonitor/internal/types"
)

// AppendRiskHistory records one point on an organization's risk timeline.
func (s *Store) AppendRiskHistory(ctx context.Context, entry *types.RiskHistoryEntry) (*types.RiskHistoryEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.getOrganization(ctx, entry.OrganizationID); err != nil {
		return nil, err
	}

	recordedAt := entry.RecordedAt
	if recordedAt.IsZero() {
		recordedAt = time.Now()
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO risk_history (organization_id, risk_score, recorded_at, event_id, notes)
		VALUES (?, ?, ?, ?, ?)`,
		entry.OrganizationID, entry.RiskScore, encodeTime(recordedAt), entry.EventID, entry.Notes)
	if err != nil {
		return nil, fmt.Errorf("failed to insert risk history: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to read insert id: %w", err)
	}

	created := *entry
	created.ID = id
	created.RecordedAt = recordedAt
	return &created, nil
}

// ListRiskHistory returns an organization's risk history within the last
// N days, newest first. days <= 0 defaults to 30.
func (s *Store) ListRiskHistory(ctx context.Context, orgID int64, days int) ([]types.RiskHistoryEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if days <= 0 {
		days = 30
	}
	cutoff := time.Now().AddDate(0, 0, -days)

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, organization_id, risk_score, recorded_at, event_id, notes
		FROM risk_history
		WHERE organization_id = ? AND recorded_at >= ?
		ORDER BY recorded_at DESC, id DESC`,
		orgID, encodeTime(cutoff))
	if err != nil {
		return nil, fmt.Errorf("failed to list risk history: %w", err)
	}
	defer rows.Close()

	var entries []types.RiskHistoryEntry
	for rows.Next() {
		var (
			e          types.RiskHistoryEntry
			recordedAt string
			eventID    sql.NullInt64
		)
		if err := rows.Scan(&e.ID, &e.OrganizationID, &e.RiskScore, &recordedAt, &eventID, &e.Notes); err != nil {
			return nil, fmt.Errorf("failed to scan risk history: %w", err)
		}
		e.RecordedAt = decodeTime(recordedAt)
		if eventID.Valid {
			e.EventID = &eventID.Int64
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// =============================================================================
// FUTURE PREDICTIONS
// =============================================================================

// SavePrediction persists a forward-looking risk assessment.
func (s *Store) SavePrediction(ctx context.Context, p *types.FuturePrediction) (*types.FuturePrediction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.getOrganization(ctx, p.OrganizationID); err != nil {
		return nil, err
	}

	now := time.Now()
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO future_risk_predictions
			(organization_id, prediction_period_days, predicted_risk_score, risk_factors, recommendations, confidence_level, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.OrganizationID, p.PeriodDays, p.PredictedRiskScore,
		rawOrNil(p.RiskFactors), rawOrNil(p.Recommendations),
		p.ConfidenceLevel, encodeTime(now))
	if err != nil {
		return nil, fmt.Errorf("failed to insert prediction: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to read insert id: %w", err)
	}

	created := *p
	created.ID = id
	created.CreatedAt = now
	return &created, nil
}

// LatestPrediction returns the most recent prediction for the organization
// and period, or a NotFoundError when none exists.
func (s *Store) LatestPrediction(ctx context.Context, orgID int64, periodDays int) (*types.FuturePrediction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT id, organization_id, prediction_period_days, predicted_risk_score,
			risk_factors, recommendations, confidence_level, created_at
		FROM future_risk_predictions
		WHERE organization_id = ? AND prediction_period_days = ?
		ORDER BY created_at DESC, id DESC LIMIT 1`,
		orgID, periodDays)

	var (
		p         types.FuturePrediction
		factors   sql.NullString
		recs      sql.NullString
		createdAt string
	)
	err := row.Scan(&p.ID, &p.OrganizationID, &p.PeriodDays, &p.PredictedRiskScore,
		&factors, &recs, &p.ConfidenceLevel, &createdAt)
	if err == sql.ErrNoRows {
		return nil, &NotFoundError{Kind: "prediction", ID: orgID}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read prediction: %w", err)
	}
	p.RiskFactors = rawFromNull(factors)
	p.Recommendations = rawFromNull(recs)
	p.CreatedAt = decodeTime(createdAt)
	return &p, nil
}

// =============================================================================
// LIVE FEEDS
// =============================================================================

// InsertFeedItem persists one live-feed row.
func (s *Store) InsertFeedItem(ctx context.Context, item *types.LiveFeedItem) (*types.LiveFeedItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(item.Payload) == 0 {
		item.Payload = json.RawMessage("{}")
	}
	createdAt := item.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO live_feeds (source, kind, severity, payload, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		item.Source, string(item.Kind), item.Severity, string(item.Payload), encodeTime(createdAt))
	if err != nil {
		return nil, fmt.Errorf("failed to insert feed item: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to read insert id: %w", err)
	}

	created := *item
	created.ID = id
	created.CreatedAt = createdAt
	return &created, nil
}

// RecentFeedItems returns feed rows from the last N hours, newest first.
// kind and severity filter when non-empty.
func (s *Store) RecentFeedItems(ctx context.Context, hours int, kind types.FeedKind, severity string, limit int) ([]types.LiveFeedItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if hours <= 0 {
		hours = 24
	}
	if limit <= 0 {
		limit = 100
	}
	cutoff := time.Now().Add(-time.Duration(hours) * time.Hour)

	query := `
		SELECT id, source, kind, severity, payload, created_at
		FROM live_feeds WHERE created_at >= ?`
	args := []any{encodeTime(cutoff)}
	if kind != "" {
		query += ` AND kind = ?`
		args = append(args, string(kind))
	}
	if severity != "" {
		query += ` AND severity = ?`
		args = append(args, severity)
	}
	query += ` ORDER BY created_at DESC, id DESC LIMIT ?`
	args = append(args, limit)

	return s.queryFeedItems(ctx, query, args...)
}

// FeedItemsBySource returns recent rows for one source.
func (s *Store) FeedItemsBySource(ctx context.Context, source string, hours, limit int) ([]types.LiveFeedItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if hours <= 0 {
		hours = 24
	}
	if limit <= 0 {
		limit = 100
	}
	cutoff := time.Now().Add(-time.Duration(hours) * time.Hour)
	return s.queryFeedItems(ctx, `
		SELECT id, source, kind, severity, payload, created_at
		FROM live_feeds WHERE source = ? AND created_at >= ?
		ORDER BY created_at DESC, id DESC LIMIT ?`,
		source, encodeTime(cutoff), limit)
}

// PruneFeedItems keeps only the newest N rows per source.
func (s *Store) PruneFeedItems(ctx context.Context, source string, keep int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if keep <= 0 {
		keep = 100
	}
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM live_feeds WHERE source = ? AND id NOT IN (
			SELECT id FROM live_feeds WHERE source = ?
			ORDER BY created_at DESC, id DESC LIMIT ?
		)`, source, source, keep)
	if err != nil {
		return fmt.Errorf("failed to prune feed items: %w", err)
	}
	return nil
}

func (s *Store) queryFeedItems(ctx context.Context, query string, args ...any) ([]types.LiveFeedItem, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list feed items: %w", err)
	}
	defer rows.Close()

	var items []types.LiveFeedItem
	for rows.Next() {
		var (
			item      types.LiveFeedItem
			kind      string
			payload   string
			createdAt string
		)
		if err := rows.Scan(&item.ID, &item.Source, &kind, &item.Severity, &payload, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan feed item: %w", err)
		}
		item.Kind = types.FeedKind(kind)
		item.Payload = json.RawMessage(payload)
		item.CreatedAt = decodeTime(createdAt)
		items = append(items, item)
	}
	return items, rows.Err()
}
