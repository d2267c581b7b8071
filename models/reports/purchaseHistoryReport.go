package reports

import (
	"context"
	"time"

	"github.com/mmdatafocus/cabinet_inventory/config"
	"github.com/mmdatafocus/cabinet_inventory/models"
)

type VendorPurchases struct {
	Vendor    string          `json:"vendor"`
	Purchases []*PurchaseLine `json:"purchases"`
}

type PurchaseLine struct {
	TransactionId string  `json:"transactionId"`
	Date          string  `json:"date"`
	MaterialName  string  `json:"materialName"`
	Quantity      int     `json:"quantity"`
	Unit          string  `json:"unit"`
	PoNumber      *string `json:"poNumber"`
	InvoiceNumber *string `json:"invoiceNumber"`
}

// GetPurchaseHistoryReport groups vendor receipts by vendor. Vendors appear in order of their latest purchase.
func GetPurchaseHistoryReport(ctx context.Context, dateRange DateRange) ([]*VendorPurchases, error) {
	start := time.Now()
	defer logSlowReport(ctx, "purchase_history_report", start, nil)

	db := config.GetDB()
	dbCtx := db.WithContext(ctx).
		Preload("Material").
		Where("type = ? AND vendor IS NOT NULL", models.TransactionTypeReceive)
	if dateRange.From != nil {
		dbCtx = dbCtx.Where("date >= ?", dateRange.From.UTC())
	}
	if dateRange.To != nil {
		dbCtx = dbCtx.Where("date <= ?", dateRange.To.UTC())
	}

	var records []*models.TransactionRecord
	if err := dbCtx.Order("date DESC").Find(&records).Error; err != nil {
		return nil, err
	}

	report := make([]*VendorPurchases, 0)
	byVendor := make(map[string]*VendorPurchases)
	for _, r := range records {
		vendor := "Unknown"
		if r.Vendor != nil {
			vendor = *r.Vendor
		}
		group, ok := byVendor[vendor]
		if !ok {
			group = &VendorPurchases{Vendor: vendor}
			byVendor[vendor] = group
			report = append(report, group)
		}
		line := &PurchaseLine{
			TransactionId: r.ID,
			Date:          r.Date.UTC().Format(time.RFC3339),
			Quantity:      r.Quantity,
			Unit:          r.Unit,
			PoNumber:      r.PoNumber,
			InvoiceNumber: r.InvoiceNumber,
		}
		if r.Material != nil {
			line.MaterialName = r.Material.Name
		}
		group.Purchases = append(group.Purchases, line)
	}
	return report, nil
}
