package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	domain "github.com/vitrineshop/api/internal/domain"
)

// ShippingRegionRepository reads the admin-managed region pricing table.
type ShippingRegionRepository struct {
	pool *pgxpool.Pool
}

// NewShippingRegionRepository builds a region repository over the shared pool.
func NewShippingRegionRepository(pool *pgxpool.Pool) *ShippingRegionRepository {
	return &ShippingRegionRepository{pool: pool}
}

// FindByCode loads one region row by its code, active or not.
func (r *ShippingRegionRepository) FindByCode(ctx context.Context, code string) (domain.ShippingRegion, error) {
	q := db(ctx, r.pool)

	var region domain.ShippingRegion
	err := q.QueryRow(ctx, `
		SELECT code, name, price, estimated_days, free_shipping_threshold, active
		FROM shipping_regions WHERE code = $1`, code).
		Scan(&region.Code, &region.Name, &region.Price, &region.EstimatedDays, &region.FreeShippingThreshold, &region.Active)
	if err != nil {
		return domain.ShippingRegion{}, translate("shipping_regions.find_by_code", err)
	}
	return region, nil
}

// ListActive returns all regions currently offered, ordered by code.
func (r *ShippingRegionRepository) ListActive(ctx context.Context) ([]domain.ShippingRegion, error) {
	q := db(ctx, r.pool)

	rows, err := q.Query(ctx, `
		SELECT code, name, price, estimated_days, free_shipping_threshold, active
		FROM shipping_regions WHERE active ORDER BY code`)
	if err != nil {
		return nil, translate("shipping_regions.list_active", err)
	}
	defer rows.Close()

	var regions []domain.ShippingRegion
	for rows.Next() {
		var region domain.ShippingRegion
		if err := rows.Scan(&region.Code, &region.Name, &region.Price, &region.EstimatedDays, &region.FreeShippingThreshold, &region.Active); err != nil {
			return nil, translate("shipping_regions.list_active", err)
		}
		regions = append(regions, region)
	}
	if err := rows.Err(); err != nil {
		return nil, translate("shipping_regions.list_active", err)
	}
	return regions, nil
}
