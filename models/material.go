package models

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mmdatafocus/cabinet_inventory/config"
	"github.com/mmdatafocus/cabinet_inventory/utils"
	"gorm.io/gorm"
)

type Material struct {
	ID            string             `gorm:"primaryKey;size:36" json:"id"`
	Name          string             `gorm:"size:191;not null;uniqueIndex" json:"name"`
	Category      MaterialCategory   `gorm:"size:20;not null;index" json:"category"`
	Unit          MaterialUnit       `gorm:"size:10;not null;default:sheets" json:"unit"`
	MinStockLevel int                `gorm:"not null;default:0" json:"minStockLevel"`
	CreatedAt     time.Time          `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt     time.Time          `gorm:"autoUpdateTime" json:"updatedAt"`
	MaterialTotal *MaterialTotal     `gorm:"foreignKey:MaterialId" json:"materialTotal,omitempty"`
	Inventory     []InventoryBalance `gorm:"foreignKey:MaterialId" json:"inventory,omitempty"`
	TotalStock    int                `gorm:"-" json:"totalStock"`
}

func (m *Material) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return nil
}

func (m *Material) fillTotalStock() {
	if m.MaterialTotal != nil {
		m.TotalStock = m.MaterialTotal.TotalQty
	}
}

type NewMaterial struct {
	Name          string           `json:"name" validate:"required,max=191"`
	Category      MaterialCategory `json:"category" validate:"required"`
	Unit          MaterialUnit     `json:"unit"`
	MinStockLevel *int             `json:"minStockLevel" validate:"omitempty,min=0"`
}

// unknown units fall back to sheets, missing min stock to 0
func (input *NewMaterial) normalize() {
	input.Name = strings.TrimSpace(input.Name)
	if !input.Unit.IsValid() {
		input.Unit = MaterialUnitSheets
	}
	if input.MinStockLevel == nil {
		zero := 0
		input.MinStockLevel = &zero
	}
}

func (input *NewMaterial) validate(ctx context.Context) error {
	if err := validateInput(input); err != nil {
		return err
	}
	if !input.Category.IsValid() {
		return fmt.Errorf("%w: invalid category", ErrInvalidInput)
	}
	return utils.ValidateUnique[Material](ctx, "name", input.Name, nil)
}

type UpdateMaterialInput struct {
	Name          *string           `json:"name" validate:"omitempty,max=191"`
	Category      *MaterialCategory `json:"category"`
	Unit          *MaterialUnit     `json:"unit"`
	MinStockLevel *int              `json:"minStockLevel" validate:"omitempty,min=0"`
}

func CreateMaterial(ctx context.Context, input *NewMaterial) (*Material, error) {
	input.normalize()
	if err := input.validate(ctx); err != nil {
		return nil, err
	}

	material := Material{
		Name:          input.Name,
		Category:      input.Category,
		Unit:          input.Unit,
		MinStockLevel: *input.MinStockLevel,
	}

	db := config.GetDB()
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&material).Error; err != nil {
			return err
		}
		total := MaterialTotal{MaterialId: material.ID, TotalQty: 0}
		if err := tx.Create(&total).Error; err != nil {
			return err
		}
		material.MaterialTotal = &total
		return nil
	})
	if err != nil {
		return nil, err
	}
	material.fillTotalStock()
	invalidateDashboardStats()
	return &material, nil
}

func UpdateMaterial(ctx context.Context, id string, input *UpdateMaterialInput) (*Material, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}
	material, err := GetMaterial(ctx, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name != "" {
			if err := utils.ValidateUnique[Material](ctx, "name", name, id); err != nil {
				return nil, err
			}
			updates["Name"] = name
		}
	}
	if input.Category != nil && *input.Category != "" {
		if !input.Category.IsValid() {
			return nil, fmt.Errorf("%w: invalid category", ErrInvalidInput)
		}
		updates["Category"] = *input.Category
	}
	if input.Unit != nil && input.Unit.IsValid() {
		updates["Unit"] = *input.Unit
	}
	if input.MinStockLevel != nil {
		updates["MinStockLevel"] = *input.MinStockLevel
	}
	if len(updates) == 0 {
		return material, nil
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Model(material).Updates(updates).Error; err != nil {
		return nil, err
	}
	invalidateDashboardStats()
	return GetMaterial(ctx, id)
}

// DeleteMaterial removes a material with its balances and total. Materials referenced by the
// transaction log are kept so history stays readable.
func DeleteMaterial(ctx context.Context, id string) (*Material, error) {
	material, err := GetMaterial(ctx, id)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var used int64
		if err := tx.Model(&TransactionRecord{}).Where("material_id = ?", id).Count(&used).Error; err != nil {
			return err
		}
		if used > 0 {
			return ErrMaterialInUse
		}
		if err := tx.Where("material_id = ?", id).Delete(&InventoryBalance{}).Error; err != nil {
			return err
		}
		if err := tx.Where("material_id = ?", id).Delete(&MaterialTotal{}).Error; err != nil {
			return err
		}
		return tx.Delete(&Material{ID: id}).Error
	})
	if err != nil {
		return nil, err
	}
	invalidateDashboardStats()
	return material, nil
}

func GetMaterial(ctx context.Context, id string) (*Material, error) {
	material, err := utils.FetchModel[Material](ctx, id, "MaterialTotal")
	if err != nil {
		if errors.Is(err, utils.ErrorRecordNotFound) {
			return nil, ErrMaterialNotFound
		}
		return nil, err
	}
	material.fillTotalStock()
	return material, nil
}

func ListMaterials(ctx context.Context, category *MaterialCategory) ([]*Material, error) {
	db := config.GetDB()
	dbCtx := db.WithContext(ctx).
		Preload("MaterialTotal").
		Preload("Inventory").
		Preload("Inventory.Location")
	if category != nil && *category != "" {
		dbCtx = dbCtx.Where("category = ?", *category)
	}

	var results []*Material
	if err := dbCtx.Order("name").Find(&results).Error; err != nil {
		return nil, err
	}
	for _, m := range results {
		m.fillTotalStock()
	}
	return results, nil
}
