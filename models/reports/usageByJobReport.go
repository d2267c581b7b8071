package reports

import (
	"context"
	"time"

	"github.com/mmdatafocus/cabinet_inventory/config"
	"github.com/mmdatafocus/cabinet_inventory/models"
)

type JobUsage struct {
	JobId     string           `json:"jobId"`
	JobName   string           `json:"jobName"`
	Materials []*MaterialUsage `json:"materials"`
}

type MaterialUsage struct {
	MaterialId    string                  `json:"materialId"`
	MaterialName  string                  `json:"materialName"`
	Category      models.MaterialCategory `json:"category"`
	Unit          models.MaterialUnit     `json:"unit"`
	TotalQuantity int                     `json:"totalQuantity"`
}

type usageRow struct {
	JobId        string
	JobName      string
	MaterialId   string
	MaterialName string
	Category     models.MaterialCategory
	Unit         models.MaterialUnit
	Total        int
}

// GetUsageByJobReport sums issued quantity per job and material.
func GetUsageByJobReport(ctx context.Context, dateRange DateRange) ([]*JobUsage, error) {
	start := time.Now()
	defer logSlowReport(ctx, "usage_by_job_report", start, nil)

	db := config.GetDB()
	dbCtx := db.WithContext(ctx).
		Table("transaction_records AS t").
		Select(`t.from_location_id AS job_id, l.name AS job_name,
			t.material_id, m.name AS material_name, m.category, m.unit,
			SUM(t.quantity) AS total`).
		Joins("JOIN materials AS m ON m.id = t.material_id").
		Joins("JOIN locations AS l ON l.id = t.from_location_id").
		Where("t.type = ?", models.TransactionTypeIssue)
	if dateRange.From != nil {
		dbCtx = dbCtx.Where("t.date >= ?", dateRange.From.UTC())
	}
	if dateRange.To != nil {
		dbCtx = dbCtx.Where("t.date <= ?", dateRange.To.UTC())
	}

	var rows []usageRow
	err := dbCtx.
		Group("t.from_location_id, l.name, t.material_id, m.name, m.category, m.unit").
		Order("l.name").Order("m.name").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	report := make([]*JobUsage, 0)
	byJob := make(map[string]*JobUsage)
	for _, r := range rows {
		job, ok := byJob[r.JobId]
		if !ok {
			job = &JobUsage{JobId: r.JobId, JobName: r.JobName}
			byJob[r.JobId] = job
			report = append(report, job)
		}
		job.Materials = append(job.Materials, &MaterialUsage{
			MaterialId:    r.MaterialId,
			MaterialName:  r.MaterialName,
			Category:      r.Category,
			Unit:          r.Unit,
			TotalQuantity: r.Total,
		})
	}
	return report, nil
}
