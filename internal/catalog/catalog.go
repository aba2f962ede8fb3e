// Package catalog stores the material, packaging and shipping presets that
// prefill quote inputs.
package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/Simplici0/printprice/internal/pricing"
)

// ErrNotFound is returned when a preset id does not exist.
var ErrNotFound = errors.New("preset not found")

// Material is a filament with its price per kilogram.
type Material struct {
	ID        int64   `json:"id"`
	Name      string  `json:"name" validate:"required,max=120"`
	CostPerKg float64 `json:"cost_per_kg" validate:"gt=0"`
	Notes     string  `json:"notes"`
	Active    bool    `json:"active"`
}

// RateKind selects a flat-cost preset table.
type RateKind string

const (
	Packaging RateKind = "packaging"
	Shipping  RateKind = "shipping"
)

func (k RateKind) table() (string, error) {
	switch k {
	case Packaging:
		return "packaging_rates", nil
	case Shipping:
		return "shipping_rates", nil
	default:
		return "", fmt.Errorf("unknown rate kind %q", k)
	}
}

// Rate is a packaging or shipping preset with a flat cost per unit.
type Rate struct {
	ID       int64    `json:"id"`
	Kind     RateKind `json:"kind"`
	Name     string   `json:"name" validate:"required,max=120"`
	FlatCost float64  `json:"flat_cost" validate:"gte=0"`
	Notes    string   `json:"notes"`
	Active   bool     `json:"active"`
}

// Store reads and writes presets in SQLite.
type Store struct {
	db *sql.DB
}

// NewStore returns a Store using db.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// ListMaterials returns materials newest first, optionally only active ones.
func (s *Store) ListMaterials(ctx context.Context, activeOnly bool) ([]Material, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, cost_per_kg, COALESCE(notes, ''), active
		FROM materials
		WHERE (? = FALSE OR active = TRUE)
		ORDER BY id DESC
	`, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("query materials: %w", err)
	}
	defer rows.Close()

	materials := make([]Material, 0)
	for rows.Next() {
		var m Material
		if err := rows.Scan(&m.ID, &m.Name, &m.CostPerKg, &m.Notes, &m.Active); err != nil {
			return nil, fmt.Errorf("scan material: %w", err)
		}
		materials = append(materials, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate materials: %w", err)
	}
	return materials, nil
}

// GetMaterial returns the material with id.
func (s *Store) GetMaterial(ctx context.Context, id int64) (Material, error) {
	var m Material
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, cost_per_kg, COALESCE(notes, ''), active
		FROM materials
		WHERE id = ?
	`, id).Scan(&m.ID, &m.Name, &m.CostPerKg, &m.Notes, &m.Active)
	if errors.Is(err, sql.ErrNoRows) {
		return Material{}, ErrNotFound
	}
	if err != nil {
		return Material{}, fmt.Errorf("query material: %w", err)
	}
	return m, nil
}

// CreateMaterial inserts m as an active material.
func (s *Store) CreateMaterial(ctx context.Context, m Material) (Material, error) {
	m.Name = strings.TrimSpace(m.Name)
	m.Notes = strings.TrimSpace(m.Notes)
	m.Active = true

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO materials (name, cost_per_kg, notes, active)
		VALUES (?, ?, ?, TRUE)
	`, m.Name, m.CostPerKg, m.Notes)
	if err != nil {
		return Material{}, fmt.Errorf("insert material: %w", err)
	}
	if m.ID, err = result.LastInsertId(); err != nil {
		return Material{}, fmt.Errorf("insert material: %w", err)
	}
	return m, nil
}

// UpdateMaterial replaces the material with id, including its active flag.
func (s *Store) UpdateMaterial(ctx context.Context, id int64, m Material) (Material, error) {
	m.ID = id
	m.Name = strings.TrimSpace(m.Name)
	m.Notes = strings.TrimSpace(m.Notes)

	result, err := s.db.ExecContext(ctx, `
		UPDATE materials
		SET
			name = ?,
			cost_per_kg = ?,
			notes = ?,
			active = ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, m.Name, m.CostPerKg, m.Notes, m.Active, id)
	if err != nil {
		return Material{}, fmt.Errorf("update material: %w", err)
	}
	if err := expectRow(result); err != nil {
		return Material{}, err
	}
	return m, nil
}

// ListRates returns presets of kind newest first, optionally only active ones.
func (s *Store) ListRates(ctx context.Context, kind RateKind, activeOnly bool) ([]Rate, error) {
	table, err := kind.table()
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, flat_cost, COALESCE(notes, ''), active
		FROM `+table+`
		WHERE (? = FALSE OR active = TRUE)
		ORDER BY id DESC
	`, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("query %s rates: %w", kind, err)
	}
	defer rows.Close()

	rates := make([]Rate, 0)
	for rows.Next() {
		r := Rate{Kind: kind}
		if err := rows.Scan(&r.ID, &r.Name, &r.FlatCost, &r.Notes, &r.Active); err != nil {
			return nil, fmt.Errorf("scan %s rate: %w", kind, err)
		}
		rates = append(rates, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s rates: %w", kind, err)
	}
	return rates, nil
}

// GetRate returns the preset of kind with id.
func (s *Store) GetRate(ctx context.Context, kind RateKind, id int64) (Rate, error) {
	table, err := kind.table()
	if err != nil {
		return Rate{}, err
	}

	r := Rate{Kind: kind}
	err = s.db.QueryRowContext(ctx, `
		SELECT id, name, flat_cost, COALESCE(notes, ''), active
		FROM `+table+`
		WHERE id = ?
	`, id).Scan(&r.ID, &r.Name, &r.FlatCost, &r.Notes, &r.Active)
	if errors.Is(err, sql.ErrNoRows) {
		return Rate{}, ErrNotFound
	}
	if err != nil {
		return Rate{}, fmt.Errorf("query %s rate: %w", kind, err)
	}
	return r, nil
}

// CreateRate inserts r as a preset of kind. The active flag is honoured.
func (s *Store) CreateRate(ctx context.Context, kind RateKind, r Rate) (Rate, error) {
	table, err := kind.table()
	if err != nil {
		return Rate{}, err
	}
	r.Kind = kind
	r.Name = strings.TrimSpace(r.Name)
	r.Notes = strings.TrimSpace(r.Notes)

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO `+table+` (name, flat_cost, notes, active)
		VALUES (?, ?, ?, ?)
	`, r.Name, r.FlatCost, r.Notes, r.Active)
	if err != nil {
		return Rate{}, fmt.Errorf("insert %s rate: %w", kind, err)
	}
	if r.ID, err = result.LastInsertId(); err != nil {
		return Rate{}, fmt.Errorf("insert %s rate: %w", kind, err)
	}
	return r, nil
}

// UpdateRate replaces the preset of kind with id.
func (s *Store) UpdateRate(ctx context.Context, kind RateKind, id int64, r Rate) (Rate, error) {
	table, err := kind.table()
	if err != nil {
		return Rate{}, err
	}
	r.ID = id
	r.Kind = kind
	r.Name = strings.TrimSpace(r.Name)
	r.Notes = strings.TrimSpace(r.Notes)

	result, err := s.db.ExecContext(ctx, `
		UPDATE `+table+`
		SET
			name = ?,
			flat_cost = ?,
			notes = ?,
			active = ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, r.Name, r.FlatCost, r.Notes, r.Active, id)
	if err != nil {
		return Rate{}, fmt.Errorf("update %s rate: %w", kind, err)
	}
	if err := expectRow(result); err != nil {
		return Rate{}, err
	}
	return r, nil
}

func expectRow(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// Selection names the presets to apply to a quote. Zero ids are skipped.
type Selection struct {
	MaterialID  int64 `json:"material_id"`
	PackagingID int64 `json:"packaging_id"`
	ShippingID  int64 `json:"shipping_id"`
}

// Presets are resolved presets; nil entries leave the inputs untouched.
type Presets struct {
	Material  *Material
	Packaging *Rate
	Shipping  *Rate
}

// ApplyPresets copies preset costs into in.
func ApplyPresets(in pricing.JobInputs, p Presets) pricing.JobInputs {
	if p.Material != nil {
		in.MaterialCostPerKg = pricing.N(p.Material.CostPerKg)
	}
	if p.Packaging != nil {
		in.PackagingCost = pricing.N(p.Packaging.FlatCost)
	}
	if p.Shipping != nil {
		in.ShippingCost = pricing.N(p.Shipping.FlatCost)
	}
	return in
}

// Resolve loads the presets named by sel.
func (s *Store) Resolve(ctx context.Context, sel Selection) (Presets, error) {
	var p Presets
	if sel.MaterialID != 0 {
		m, err := s.GetMaterial(ctx, sel.MaterialID)
		if err != nil {
			return Presets{}, fmt.Errorf("material %d: %w", sel.MaterialID, err)
		}
		p.Material = &m
	}
	if sel.PackagingID != 0 {
		r, err := s.GetRate(ctx, Packaging, sel.PackagingID)
		if err != nil {
			return Presets{}, fmt.Errorf("packaging %d: %w", sel.PackagingID, err)
		}
		p.Packaging = &r
	}
	if sel.ShippingID != 0 {
		r, err := s.GetRate(ctx, Shipping, sel.ShippingID)
		if err != nil {
			return Presets{}, fmt.Errorf("shipping %d: %w", sel.ShippingID, err)
		}
		p.Shipping = &r
	}
	return p, nil
}
