package reports

import (
	"context"
	"time"

	"github.com/mmdatafocus/cabinet_inventory/models"
)

const (
	StockStatusLow = "Low Stock"
	StockStatusOK  = "OK"
)

type InventoryReportRow struct {
	Location      string                  `json:"location"`
	LocationType  models.LocationType     `json:"locationType"`
	Material      string                  `json:"material"`
	Category      models.MaterialCategory `json:"category"`
	Quantity      int                     `json:"quantity"`
	MinStockLevel int                     `json:"minStockLevel"`
	Status        string                  `json:"status"`
}

func GetInventoryReport(ctx context.Context, locationId string, category *models.MaterialCategory) ([]*InventoryReportRow, error) {
	start := time.Now()
	defer logSlowReport(ctx, "inventory_report", start, map[string]any{"location_id": locationId})

	rows, err := models.GetInventory(ctx, models.InventoryFilter{LocationId: locationId, Category: category})
	if err != nil {
		return nil, err
	}

	report := make([]*InventoryReportRow, 0, len(rows))
	for _, r := range rows {
		status := StockStatusOK
		if r.IsLowStock {
			status = StockStatusLow
		}
		report = append(report, &InventoryReportRow{
			Location:      r.LocationName,
			LocationType:  r.LocationType,
			Material:      r.MaterialName,
			Category:      r.Category,
			Quantity:      r.Quantity,
			MinStockLevel: r.MinStockLevel,
			Status:        status,
		})
	}
	return report, nil
}
