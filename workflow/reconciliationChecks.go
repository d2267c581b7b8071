package workflow

import (
	"context"

	"github.com/mmdatafocus/cabinet_inventory/config"
	"github.com/sirupsen/logrus"
)

type DriftReport struct {
	Processed  int           `json:"processed"`
	DriftCount int           `json:"driftCount"`
	Drift      []TotalResult `json:"drift"`
}

// VerifyTotals compares every cached total with the sum of its balances without writing anything.
func VerifyTotals(ctx context.Context, logger *logrus.Logger) (*DriftReport, error) {
	db := config.GetDB().WithContext(ctx)

	var rows []struct {
		MaterialId string
		Name       string
		Cached     int
		Ledger     int
	}
	err := db.Table("materials AS m").
		Select(`m.id AS material_id, m.name,
			COALESCE(mt.total_qty, 0) AS cached,
			COALESCE((SELECT SUM(ib.quantity) FROM inventory_balances AS ib WHERE ib.material_id = m.id), 0) AS ledger`).
		Joins("LEFT JOIN material_totals AS mt ON mt.material_id = m.id").
		Order("m.id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	report := &DriftReport{Processed: len(rows), Drift: make([]TotalResult, 0)}
	for _, r := range rows {
		if r.Cached == r.Ledger {
			continue
		}
		report.Drift = append(report.Drift, TotalResult{
			MaterialId:    r.MaterialId,
			Name:          r.Name,
			PreviousTotal: r.Cached,
			NewTotal:      r.Ledger,
			Changed:       true,
		})
	}
	report.DriftCount = len(report.Drift)

	if logger != nil && report.DriftCount > 0 {
		logger.WithFields(logrus.Fields{
			"field":       "VerifyTotals",
			"processed":   report.Processed,
			"drift_count": report.DriftCount,
		}).Warn("material totals drift from ledger")
	}
	return report, nil
}
