package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"riskmonitor/internal/types"
)

// CreateSupplier inserts a supplier under an organization.
func (s *Store) CreateSupplier(ctx context.Context, sup *types.Supplier) (*types.Supplier, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.getOrganization(ctx, sup.OrganizationID); err != nil {
		return nil, err
	}

	now := time.Now()
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO suppliers (organization_id, name, country, city, category, criticality, tier,
			lead_time_days, reliability_score, capacity_utilization, contact_info, latitude, longitude, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sup.OrganizationID, sup.Name, sup.Country, sup.City, string(sup.Category),
		string(sup.Criticality), int(sup.Tier), sup.LeadTimeDays, sup.ReliabilityScore,
		sup.CapacityUtilization, sup.ContactInfo, sup.Latitude, sup.Longitude, encodeTime(now))
	if err != nil {
		return nil, fmt.Errorf("failed to insert supplier: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to read insert id: %w", err)
	}

	created := *sup
	created.ID = id
	created.CreatedAt = now
	return &created, nil
}

// GetSupplier fetches one supplier by id.
func (s *Store) GetSupplier(ctx context.Context, id int64) (*types.Supplier, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, supplierSelect+` WHERE id = ?`, id)
	sup, err := scanSupplier(row)
	if err == sql.ErrNoRows {
		return nil, &NotFoundError{Kind: "supplier", ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read supplier: %w", err)
	}
	return sup, nil
}

// ListSuppliers returns all suppliers for an organization ordered by id.
func (s *Store) ListSuppliers(ctx context.Context, orgID int64) ([]types.Supplier, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listSuppliers(ctx, orgID)
}

func (s *Store) listSuppliers(ctx context.Context, orgID int64) ([]types.Supplier, error) {
	rows, err := s.db.QueryContext(ctx, supplierSelect+` WHERE organization_id = ? ORDER BY id`, orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to list suppliers: %w", err)
	}
	defer rows.Close()

	var suppliers []types.Supplier
	for rows.Next() {
		sup, err := scanSupplier(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan supplier: %w", err)
		}
		suppliers = append(suppliers, *sup)
	}
	return suppliers, rows.Err()
}

// ListAllSuppliers returns every supplier across all organizations, used by
// the feed scanners.
func (s *Store) ListAllSuppliers(ctx context.Context) ([]types.Supplier, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, supplierSelect+` ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list suppliers: %w", err)
	}
	defer rows.Close()

	var suppliers []types.Supplier
	for rows.Next() {
		sup, err := scanSupplier(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan supplier: %w", err)
		}
		suppliers = append(suppliers, *sup)
	}
	return suppliers, rows.Err()
}

// UpdateSupplier overwrites the mutable fields of a supplier.
func (s *Store) UpdateSupplier(ctx context.Context, sup *types.Supplier) (*types.Supplier, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `
		UPDATE suppliers
		SET name = ?, country = ?, city = ?, category = ?, criticality = ?, tier = ?,
			lead_time_days = ?, reliability_score = ?, capacity_utilization = ?,
			contact_info = ?, latitude = ?, longitude = ?
		WHERE id = ?`,
		sup.Name, sup.Country, sup.City, string(sup.Category), string(sup.Criticality),
		int(sup.Tier), sup.LeadTimeDays, sup.ReliabilityScore, sup.CapacityUtilization,
		sup.ContactInfo, sup.Latitude, sup.Longitude, sup.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to update supplier: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, &NotFoundError{Kind: "supplier", ID: sup.ID}
	}

	row := s.db.QueryRowContext(ctx, supplierSelect+` WHERE id = ?`, sup.ID)
	updated, err := scanSupplier(row)
	if err != nil {
		return nil, fmt.Errorf("failed to re-read supplier: %w", err)
	}
	return updated, nil
}

// DeleteSupplier removes a supplier and its dependency edges.
func (s *Store) DeleteSupplier(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `DELETE FROM suppliers WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete supplier: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &NotFoundError{Kind: "supplier", ID: id}
	}
	return nil
}

// =============================================================================
// DEPENDENCIES
// =============================================================================

// AddDependency records that supplierID depends on dependsOnID.
func (s *Store) AddDependency(ctx context.Context, supplierID, dependsOnID int64, depType string) (*types.SupplierDependency, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if supplierID == dependsOnID {
		return nil, fmt.Errorf("supplier %d cannot depend on itself", supplierID)
	}
	if depType == "" {
		depType = "important"
	}

	now := time.Now()
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO supplier_dependencies (supplier_id, depends_on_supplier_id, dependency_type, created_at)
		VALUES (?, ?, ?, ?)`,
		supplierID, dependsOnID, depType, encodeTime(now))
	if err != nil {
		return nil, fmt.Errorf("failed to insert dependency: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to read insert id: %w", err)
	}

	return &types.SupplierDependency{
		ID:             id,
		SupplierID:     supplierID,
		DependsOnID:    dependsOnID,
		DependencyType: depType,
		CreatedAt:      now,
	}, nil
}

// ListDependencies returns dependency edges where the supplier is the
// depending side.
func (s *Store) ListDependencies(ctx context.Context, supplierID int64) ([]types.SupplierDependency, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.queryDependencies(ctx, `
		SELECT id, supplier_id, depends_on_supplier_id, dependency_type, created_at
		FROM supplier_dependencies WHERE supplier_id = ? ORDER BY id`, supplierID)
}

// ListOrganizationDependencies returns all dependency edges between an
// organization's suppliers.
func (s *Store) ListOrganizationDependencies(ctx context.Context, orgID int64) ([]types.SupplierDependency, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.queryDependencies(ctx, `
		SELECT d.id, d.supplier_id, d.depends_on_supplier_id, d.dependency_type, d.created_at
		FROM supplier_dependencies d
		JOIN suppliers sp ON sp.id = d.supplier_id
		WHERE sp.organization_id = ? ORDER BY d.id`, orgID)
}

// RemoveDependency deletes a dependency edge.
func (s *Store) RemoveDependency(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `DELETE FROM supplier_dependencies WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete dependency: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &NotFoundError{Kind: "dependency", ID: id}
	}
	return nil
}

func (s *Store) queryDependencies(ctx context.Context, query string, args ...any) ([]types.SupplierDependency, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list dependencies: %w", err)
	}
	defer rows.Close()

	var deps []types.SupplierDependency
	for rows.Next() {
		var (
			d         types.SupplierDependency
			createdAt string
		)
		if err := rows.Scan(&d.ID, &d.SupplierID, &d.DependsOnID, &d.DependencyType, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan dependency: %w", err)
		}
		d.CreatedAt = decodeTime(createdAt)
		deps = append(deps, d)
	}
	return deps, rows.Err()
}

const supplierSelect = `
	SELECT id, organization_id, name, country, city, category, criticality, tier,
		lead_time_days, reliability_score, capacity_utilization, contact_info,
		latitude, longitude, created_at
	FROM suppliers`

func scanSupplier(row rowScanner) (*types.Supplier, error) {
	var (
		sup         types.Supplier
		category    string
		criticality string
		tier        int
		lat, lon    sql.NullFloat64
		createdAt   string
	)
	err := row.Scan(&sup.ID, &sup.OrganizationID, &sup.Name, &sup.Country, &sup.City,
		&category, &criticality, &tier, &sup.LeadTimeDays, &sup.ReliabilityScore,
		&sup.CapacityUtilization, &sup.ContactInfo, &lat, &lon, &createdAt)
	if err != nil {
		return nil, err
	}
	sup.Category = types.SupplierCategory(category)
	sup.Criticality = types.Criticality(criticality)
	sup.Tier = types.Tier(tier)
	if lat.Valid {
		sup.Latitude = &lat.Float64
	}
	if lon.Valid {
		sup.Longitude = &lon.Float64
	}
	sup.CreatedAt = decodeTime(createdAt)
	return &sup, nil
}
