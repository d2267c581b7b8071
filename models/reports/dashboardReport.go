package reports

import (
	"context"
	"time"

	"github.com/mmdatafocus/cabinet_inventory/config"
	"github.com/mmdatafocus/cabinet_inventory/models"
)

const dashboardStatsTTL = 30 * time.Second

type DashboardStats struct {
	Stats               DashboardCounts      `json:"stats"`
	InventoryByCategory map[string]int       `json:"inventoryByCategory"`
	InventoryByLocation []*LocationInventory `json:"inventoryByLocation"`
	RecentTransactions  []*RecentTransaction `json:"recentTransactions"`
}

type DashboardCounts struct {
	TotalMaterials int64 `json:"totalMaterials"`
	LowStockItems  int64 `json:"lowStockItems"`
	ActiveJobs     int64 `json:"activeJobs"`
	TotalLocations int64 `json:"totalLocations"`
}

type LocationInventory struct {
	Name       string              `json:"name"`
	Type       models.LocationType `json:"type"`
	TotalItems int                 `json:"totalItems"`
}

type RecentTransaction struct {
	ID               string                 `json:"id"`
	Type             models.TransactionType `json:"type"`
	MaterialName     string                 `json:"materialName"`
	Quantity         int                    `json:"quantity"`
	Unit             string                 `json:"unit"`
	FromLocationName *string                `json:"fromLocationName"`
	ToLocationName   *string                `json:"toLocationName"`
	UserName         string                 `json:"userName"`
	Date             string                 `json:"date"`
}

// GetDashboardStats is cached in Redis; any committed movement drops the cache.
func GetDashboardStats(ctx context.Context) (*DashboardStats, error) {
	start := time.Now()
	defer logSlowReport(ctx, "dashboard_stats", start, nil)

	var cached DashboardStats
	if ok, err := cacheGet(models.DashboardStatsCacheKey, &cached); err == nil && ok {
		return &cached, nil
	}

	stats, err := buildDashboardStats(ctx)
	if err != nil {
		return nil, err
	}
	if err := cacheSet(models.DashboardStatsCacheKey, stats, dashboardStatsTTL); err != nil {
		config.LogError(config.GetLogger(), "reports", "GetDashboardStats", "cache dashboard stats", nil, err)
	}
	return stats, nil
}

func buildDashboardStats(ctx context.Context) (*DashboardStats, error) {
	db := config.GetDB().WithContext(ctx)
	stats := &DashboardStats{
		InventoryByCategory: make(map[string]int),
		InventoryByLocation: make([]*LocationInventory, 0),
		RecentTransactions:  make([]*RecentTransaction, 0),
	}

	if err := db.Model(&models.Material{}).Count(&stats.Stats.TotalMaterials).Error; err != nil {
		return nil, err
	}
	if err := db.Table("inventory_balances AS ib").
		Joins("JOIN materials AS m ON m.id = ib.material_id").
		Where("ib.quantity < m.min_stock_level").
		Count(&stats.Stats.LowStockItems).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.Location{}).
		Where("type = ? AND is_active = ?", models.LocationTypeJob, true).
		Count(&stats.Stats.ActiveJobs).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.Location{}).Count(&stats.Stats.TotalLocations).Error; err != nil {
		return nil, err
	}

	var byCategory []struct {
		Category string
		Total    int
	}
	if err := db.Table("materials AS m").
		Select("m.category, COALESCE(SUM(ib.quantity), 0) AS total").
		Joins("LEFT JOIN inventory_balances AS ib ON ib.material_id = m.id").
		Group("m.category").
		Scan(&byCategory).Error; err != nil {
		return nil, err
	}
	for _, c := range byCategory {
		stats.InventoryByCategory[c.Category] = c.Total
	}

	if err := db.Table("locations AS l").
		Select("l.name, l.type, COALESCE(SUM(ib.quantity), 0) AS total_items").
		Joins("LEFT JOIN inventory_balances AS ib ON ib.location_id = l.id").
		Group("l.id, l.name, l.type").
		Order("l.name").
		Scan(&stats.InventoryByLocation).Error; err != nil {
		return nil, err
	}

	recent, err := models.GetTransactionHistory(ctx, models.TransactionHistoryFilter{Limit: 5})
	if err != nil {
		return nil, err
	}
	for _, r := range recent {
		stats.RecentTransactions = append(stats.RecentTransactions, &RecentTransaction{
			ID:               r.ID,
			Type:             r.Type,
			MaterialName:     r.MaterialName,
			Quantity:         r.Quantity,
			Unit:             r.Unit,
			FromLocationName: r.FromLocationName,
			ToLocationName:   r.ToLocationName,
			UserName:         r.UserName,
			Date:             r.Date,
		})
	}
	return stats, nil
}
