package models

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/mmdatafocus/cabinet_inventory/config"
	"github.com/mmdatafocus/cabinet_inventory/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// InventoryBalance is the ledger row for one (material, location) pair.
type InventoryBalance struct {
	ID         string    `gorm:"primaryKey;size:36" json:"id"`
	MaterialId string    `gorm:"size:36;not null;uniqueIndex:idx_inventory_material_location" json:"materialId"`
	LocationId string    `gorm:"size:36;not null;uniqueIndex:idx_inventory_material_location;index" json:"locationId"`
	Quantity   int       `gorm:"not null;default:0;check:chk_inventory_quantity,quantity >= 0" json:"quantity"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
	Material   *Material `gorm:"foreignKey:MaterialId" json:"material,omitempty"`
	Location   *Location `gorm:"foreignKey:LocationId" json:"location,omitempty"`
}

func (b *InventoryBalance) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	return nil
}

// BeforeSave keeps the non-negative invariant even for writes that bypass the engine's checks.
func (b *InventoryBalance) BeforeSave(tx *gorm.DB) error {
	if b.Quantity < 0 {
		return &NegativeInventoryError{MaterialId: b.MaterialId, LocationId: b.LocationId, Current: 0, Delta: b.Quantity}
	}
	return nil
}

// forUpdate adds SELECT ... FOR UPDATE. SQLite has no row locks; it serializes writers on its single connection.
func forUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "sqlite" {
		return tx
	}
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}

// lockBalance returns the locked ledger row, or nil when the pair has never held stock.
func lockBalance(tx *gorm.DB, materialId string, locationId string) (*InventoryBalance, error) {
	var balance InventoryBalance
	err := forUpdate(tx).Where("material_id = ? AND location_id = ?", materialId, locationId).Take(&balance).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &balance, nil
}

func quantityOf(balance *InventoryBalance) int {
	if balance == nil {
		return 0
	}
	return balance.Quantity
}

func addOverflows(current, delta int) bool {
	return (delta > 0 && current > math.MaxInt-delta) || (delta < 0 && current < math.MinInt-delta)
}

// applyBalanceDelta moves a locked row by delta, creating it when absent.
// Callers have already checked that the result is not negative.
func applyBalanceDelta(tx *gorm.DB, balance *InventoryBalance, materialId string, locationId string, delta int) (*InventoryBalance, error) {
	if balance == nil {
		if delta < 0 {
			return nil, &NegativeInventoryError{MaterialId: materialId, LocationId: locationId, Current: 0, Delta: delta}
		}
		balance = &InventoryBalance{
			MaterialId: materialId,
			LocationId: locationId,
			Quantity:   delta,
		}
		if err := tx.Create(balance).Error; err != nil {
			return nil, err
		}
		return balance, nil
	}

	if addOverflows(balance.Quantity, delta) {
		return nil, fmt.Errorf("%w: balance would exceed %d", ErrInvalidQuantity, math.MaxInt)
	}
	newQty := balance.Quantity + delta
	if newQty < 0 {
		return nil, &NegativeInventoryError{MaterialId: materialId, LocationId: locationId, Current: balance.Quantity, Delta: delta}
	}
	if err := tx.Model(&InventoryBalance{}).Where("id = ?", balance.ID).Update("quantity", newQty).Error; err != nil {
		return nil, err
	}
	balance.Quantity = newQty
	return balance, nil
}

// GetInventoryBalance returns the balance for a pair; a pair with no row reads as quantity 0.
func GetInventoryBalance(ctx context.Context, materialId string, locationId string) (*InventoryBalance, error) {
	db := config.GetDB()
	var balance InventoryBalance
	err := db.WithContext(ctx).Where("material_id = ? AND location_id = ?", materialId, locationId).Take(&balance).Error
	if err == nil {
		return &balance, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if err := utils.ValidateResourceId[Material](ctx, materialId); err != nil {
		if errors.Is(err, utils.ErrorRecordNotFound) {
			return nil, ErrMaterialNotFound
		}
		return nil, err
	}
	if err := utils.ValidateResourceId[Location](ctx, locationId); err != nil {
		if errors.Is(err, utils.ErrorRecordNotFound) {
			return nil, ErrLocationNotFound
		}
		return nil, err
	}
	return &InventoryBalance{MaterialId: materialId, LocationId: locationId, Quantity: 0}, nil
}
