package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"riskmonitor/internal/types"
)

// CreateOrganization inserts a new organization. Names are unique.
func (s *Store) CreateOrganization(ctx context.Context, org *types.Organization) (*types.Organization, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	route, err := json.Marshal(org.ShippingRoute)
	if err != nil {
		return nil, fmt.Errorf("failed to encode shipping route: %w", err)
	}

	now := time.Now()
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO organizations (name, industry, headquarters_location, description, shipping_route, current_risk_score, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		org.Name, string(org.Industry), org.Headquarters, org.Description,
		string(route), org.CurrentRiskScore, encodeTime(now), encodeTime(now))
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			return nil, fmt.Errorf("organization name %q already exists: %w", org.Name, err)
		}
		return nil, fmt.Errorf("failed to insert organization: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to read insert id: %w", err)
	}

	created := *org
	created.ID = id
	created.CreatedAt = now
	created.UpdatedAt = now
	return &created, nil
}

// GetOrganization fetches one organization by id.
func (s *Store) GetOrganization(ctx context.Context, id int64) (*types.Organization, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getOrganization(ctx, id)
}

func (s *Store) getOrganization(ctx context.Context, id int64) (*types.Organization, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, industry, headquarters_location, description, shipping_route, current_risk_score, created_at, updated_at
		FROM organizations WHERE id = ?`, id)

	org, err := scanOrganization(row)
	if err == sql.ErrNoRows {
		return nil, &NotFoundError{Kind: "organization", ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read organization: %w", err)
	}
	return org, nil
}

// GetOrganizationWithSuppliers fetches one organization and its suppliers.
func (s *Store) GetOrganizationWithSuppliers(ctx context.Context, id int64) (*types.Organization, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	org, err := s.getOrganization(ctx, id)
	if err != nil {
		return nil, err
	}
	suppliers, err := s.listSuppliers(ctx, id)
	if err != nil {
		return nil, err
	}
	org.Suppliers = suppliers
	return org, nil
}

// ListOrganizations returns organizations ordered by id, paged by skip/limit.
func (s *Store) ListOrganizations(ctx context.Context, skip, limit int) ([]types.Organization, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, industry, headquarters_location, description, shipping_route, current_risk_score, created_at, updated_at
		FROM organizations ORDER BY id LIMIT ? OFFSET ?`, limit, skip)
	if err != nil {
		return nil, fmt.Errorf("failed to list organizations: %w", err)
	}
	defer rows.Close()

	var orgs []types.Organization
	for rows.Next() {
		org, err := scanOrganization(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan organization: %w", err)
		}
		orgs = append(orgs, *org)
	}
	return orgs, rows.Err()
}

// UpdateOrganization overwrites the mutable fields of an organization.
func (s *Store) UpdateOrganization(ctx context.Context, org *types.Organization) (*types.Organization, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	route, err := json.Marshal(org.ShippingRoute)
	if err != nil {
		return nil, fmt.Errorf("failed to encode shipping route: %w", err)
	}

	now := time.Now()
	res, err := s.db.ExecContext(ctx, `
		UPDATE organizations
		SET name = ?, industry = ?, headquarters_location = ?, description = ?, shipping_route = ?, updated_at = ?
		WHERE id = ?`,
		org.Name, string(org.Industry), org.Headquarters, org.Description,
		string(route), encodeTime(now), org.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to update organization: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, &NotFoundError{Kind: "organization", ID: org.ID}
	}

	return s.getOrganization(ctx, org.ID)
}

// UpdateOrganizationRiskScore sets the current risk score.
func (s *Store) UpdateOrganizationRiskScore(ctx context.Context, id int64, score float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `
		UPDATE organizations SET current_risk_score = ?, updated_at = ? WHERE id = ?`,
		score, encodeTime(time.Now()), id)
	if err != nil {
		return fmt.Errorf("failed to update risk score: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &NotFoundError{Kind: "organization", ID: id}
	}
	return nil
}

// DeleteOrganization removes an organization and, via cascade, its
// suppliers, events, history, and predictions.
func (s *Store) DeleteOrganization(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `DELETE FROM organizations WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete organization: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &NotFoundError{Kind: "organization", ID: id}
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrganization(row rowScanner) (*types.Organization, error) {
	var (
		org       types.Organization
		industry  string
		route     string
		createdAt string
		updatedAt string
	)
	err := row.Scan(&org.ID, &org.Name, &industry, &org.Headquarters,
		&org.Description, &route, &org.CurrentRiskScore, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	org.Industry = types.Industry(industry)
	if route != "" {
		if err := json.Unmarshal([]byte(route), &org.ShippingRoute); err != nil {
			return nil, fmt.Errorf("failed to decode shipping route: %w", err)
		}
	}
	org.CreatedAt = decodeTime(createdAt)
	org.UpdatedAt = decodeTime(updatedAt)
	return &org, nil
}
