package models

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/mmdatafocus/cabinet_inventory/config"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MaterialTotal caches sum(InventoryBalance.quantity) for one material.
type MaterialTotal struct {
	MaterialId string    `gorm:"primaryKey;size:36" json:"materialId"`
	TotalQty   int       `gorm:"not null;default:0" json:"totalQty"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

// LockMaterialTotal locks the material's total row, inserting it at 0 when missing.
// Every movement takes this lock first, so it is the per-material serialization point.
func LockMaterialTotal(tx *gorm.DB, materialId string) (*MaterialTotal, bool, error) {
	result := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&MaterialTotal{MaterialId: materialId})
	if result.Error != nil {
		return nil, false, result.Error
	}
	created := result.RowsAffected == 1

	var total MaterialTotal
	if err := forUpdate(tx).Where("material_id = ?", materialId).Take(&total).Error; err != nil {
		return nil, false, err
	}
	return &total, created, nil
}

// applyTotalDelta moves the cached total by delta. A row created for this movement starts at max(delta, 0).
func applyTotalDelta(tx *gorm.DB, total *MaterialTotal, created bool, delta int) error {
	if created {
		value := delta
		if value < 0 {
			value = 0
		}
		if err := tx.Model(&MaterialTotal{}).Where("material_id = ?", total.MaterialId).Update("total_qty", value).Error; err != nil {
			return err
		}
		total.TotalQty = value
		return nil
	}
	if delta == 0 {
		return nil
	}
	if addOverflows(total.TotalQty, delta) {
		return fmt.Errorf("%w: total would exceed %d", ErrInvalidQuantity, math.MaxInt)
	}
	if err := tx.Exec("UPDATE material_totals SET total_qty = total_qty + ?, updated_at = ? WHERE material_id = ?",
		delta, tx.NowFunc(), total.MaterialId).Error; err != nil {
		return err
	}
	total.TotalQty += delta
	return nil
}

// SetMaterialTotal upserts the cached total to an absolute value.
func SetMaterialTotal(tx *gorm.DB, materialId string, value int) error {
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "material_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"total_qty", "updated_at"}),
	}).Create(&MaterialTotal{MaterialId: materialId, TotalQty: value}).Error
}

// GetMaterialTotal returns the cached total; a material without a row reads as 0.
func GetMaterialTotal(ctx context.Context, materialId string) (int, error) {
	db := config.GetDB()
	var total MaterialTotal
	err := db.WithContext(ctx).Where("material_id = ?", materialId).Take(&total).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, err
	}
	return total.TotalQty, nil
}

// SumInventoryBalances is the ledger-side truth the cache must equal.
func SumInventoryBalances(tx *gorm.DB, materialId string) (int, error) {
	var sum int
	err := tx.Model(&InventoryBalance{}).
		Select("COALESCE(SUM(quantity), 0)").
		Where("material_id = ?", materialId).
		Scan(&sum).Error
	return sum, err
}

// LockAndSumInventoryBalances locks every balance row of the material and sums them. Locking reads see the
// latest committed rows, so the sum cannot come from an older snapshot than the locked total.
func LockAndSumInventoryBalances(tx *gorm.DB, materialId string) (int, error) {
	var quantities []int
	err := forUpdate(tx.Model(&InventoryBalance{})).
		Where("material_id = ?", materialId).
		Order("location_id").
		Pluck("quantity", &quantities).Error
	if err != nil {
		return 0, err
	}
	sum := 0
	for _, q := range quantities {
		sum += q
	}
	return sum, nil
}
