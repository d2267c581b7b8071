package workflow

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mmdatafocus/cabinet_inventory/config"
	"github.com/mmdatafocus/cabinet_inventory/models"
	"github.com/mmdatafocus/cabinet_inventory/utils"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"gorm.io/gorm"
)

const (
	RebuildAction   = "REBUILD_TOTALS"
	rebuildLockType = "inventory:rebuild"
	rebuildLockTTL  = 5 * time.Minute
)

var tracer = otel.Tracer("cabinet-inventory/workflow")

type TotalResult struct {
	MaterialId    string `json:"materialId"`
	Name          string `json:"name"`
	PreviousTotal int    `json:"previousTotal"`
	NewTotal      int    `json:"newTotal"`
	Changed       bool   `json:"changed"`
}

type RebuildSummary struct {
	Success            bool          `json:"success"`
	Message            string        `json:"message"`
	Processed          int           `json:"processed"`
	ChangedCount       int           `json:"changedCount"`
	Results            []TotalResult `json:"results"`
	AuditTransactionId string        `json:"auditTransactionId,omitempty"`
}

// rebuildNotes is the structured summary kept in the audit record's notes.
type rebuildNotes struct {
	Action    string        `json:"action"`
	Timestamp string        `json:"timestamp"`
	Actor     string        `json:"actor"`
	Results   []TotalResult `json:"results"`
}

// RebuildTotals recomputes every MaterialTotal from the ledger and appends one audit ADJUSTMENT.
// Total rows are locked in material id order, the same row every movement locks first.
func RebuildTotals(ctx context.Context, logger *logrus.Logger) (*RebuildSummary, error) {
	actorId, ok := utils.GetUserIdFromContext(ctx)
	if !ok || actorId == "" {
		return nil, models.ErrActorRequired
	}
	actorName, _ := utils.GetUserNameFromContext(ctx)
	if actorName == "" {
		actorName = actorId
	}
	if logger == nil {
		logger = config.GetLogger()
	}

	ctx, span := tracer.Start(ctx, "inventory.rebuild_totals")
	defer span.End()

	started := time.Now()
	logger.WithFields(logrus.Fields{
		"actor_user_id": actorId,
	}).Info("inv.rebuild.start")

	summary := &RebuildSummary{Results: make([]TotalResult, 0)}
	var audit *models.TransactionRecord

	err := utils.WithLock(ctx, rebuildLockType, "all", rebuildLockTTL, func() error {
		db := config.GetDB()
		return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := acquireRebuildLock(tx); err != nil {
				return err
			}
			defer releaseRebuildLock(tx)

			var materials []*models.Material
			if err := tx.Order("id").Find(&materials).Error; err != nil {
				return err
			}

			changed := make([]TotalResult, 0)
			for _, m := range materials {
				total, created, err := models.LockMaterialTotal(tx, m.ID)
				if err != nil {
					return err
				}
				previous := total.TotalQty
				if created {
					previous = 0
				}
				trueTotal, err := models.LockAndSumInventoryBalances(tx, m.ID)
				if err != nil {
					return err
				}
				if trueTotal != total.TotalQty {
					if err := models.SetMaterialTotal(tx, m.ID, trueTotal); err != nil {
						return err
					}
				}

				result := TotalResult{
					MaterialId:    m.ID,
					Name:          m.Name,
					PreviousTotal: previous,
					NewTotal:      trueTotal,
					Changed:       previous != trueTotal,
				}
				summary.Results = append(summary.Results, result)
				if result.Changed {
					changed = append(changed, result)
				}
			}
			summary.Processed = len(materials)
			summary.ChangedCount = len(changed)

			// the log needs a material id; with no materials there is nothing to audit
			if len(materials) == 0 {
				return nil
			}
			notes, err := json.Marshal(rebuildNotes{
				Action:    RebuildAction,
				Timestamp: tx.NowFunc().Format(time.RFC3339),
				Actor:     actorName,
				Results:   changed,
			})
			if err != nil {
				return err
			}
			notesStr := string(notes)
			reason := fmt.Sprintf("Admin rebuild totals by %s", actorName)
			audit = &models.TransactionRecord{
				Type:             models.TransactionTypeAdjustment,
				MaterialId:       materials[0].ID,
				Quantity:         0,
				Unit:             "system",
				ActorUserId:      actorId,
				Notes:            &notesStr,
				AdjustmentReason: &reason,
			}
			return tx.Create(audit).Error
		})
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		config.LogError(logger, "workflow", "RebuildTotals", "rebuild material totals", nil, err)
		return nil, err
	}

	summary.Success = true
	summary.Message = fmt.Sprintf("Rebuilt totals for %d materials. %d had discrepancies.", summary.Processed, summary.ChangedCount)
	if audit != nil {
		summary.AuditTransactionId = audit.ID
	}
	span.SetAttributes(
		attribute.Int("rebuild.processed", summary.Processed),
		attribute.Int("rebuild.changed", summary.ChangedCount),
	)
	logger.WithFields(logrus.Fields{
		"actor_user_id": actorId,
		"processed":     summary.Processed,
		"changed":       summary.ChangedCount,
		"ms":            time.Since(started).Milliseconds(),
	}).Info("inv.rebuild.end")

	if audit != nil {
		models.PublishCommitted(ctx, models.EventTotalsRebuilt, audit)
	}
	return summary, nil
}
