package models

import (
	"context"

	"github.com/mmdatafocus/cabinet_inventory/config"
)

type InventoryFilter struct {
	LocationId string
	MaterialId string
	Category   *MaterialCategory
	LowStock   bool
}

// InventoryRow is the read shape of one balance joined with its material and location.
type InventoryRow struct {
	ID            string           `json:"id"`
	MaterialId    string           `json:"materialId"`
	MaterialName  string           `json:"materialName"`
	Category      MaterialCategory `json:"category"`
	Unit          MaterialUnit     `json:"unit"`
	LocationId    string           `json:"locationId"`
	LocationName  string           `json:"locationName"`
	LocationType  LocationType     `json:"locationType"`
	Quantity      int              `json:"quantity"`
	MinStockLevel int              `json:"minStockLevel"`
	IsLowStock    bool             `json:"isLowStock"`
}

// GetInventory lists balances ordered by location then material name.
func GetInventory(ctx context.Context, filter InventoryFilter) ([]*InventoryRow, error) {
	db := config.GetDB()
	dbCtx := db.WithContext(ctx).
		Table("inventory_balances AS ib").
		Select(`ib.id, ib.material_id, m.name AS material_name, m.category, m.unit,
			ib.location_id, l.name AS location_name, l.type AS location_type,
			ib.quantity, m.min_stock_level`).
		Joins("JOIN materials AS m ON m.id = ib.material_id").
		Joins("JOIN locations AS l ON l.id = ib.location_id")

	if filter.LocationId != "" {
		dbCtx = dbCtx.Where("ib.location_id = ?", filter.LocationId)
	}
	if filter.MaterialId != "" {
		dbCtx = dbCtx.Where("ib.material_id = ?", filter.MaterialId)
	}
	if filter.Category != nil && *filter.Category != "" {
		dbCtx = dbCtx.Where("m.category = ?", *filter.Category)
	}
	if filter.LowStock {
		dbCtx = dbCtx.Where("ib.quantity < m.min_stock_level")
	}

	var rows []*InventoryRow
	if err := dbCtx.Order("l.name").Order("m.name").Scan(&rows).Error; err != nil {
		return nil, err
	}
	for _, r := range rows {
		r.IsLowStock = r.Quantity < r.MinStockLevel
	}
	return rows, nil
}
