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

type Location struct {
	ID        string             `gorm:"primaryKey;size:36" json:"id"`
	Name      string             `gorm:"size:191;not null;uniqueIndex" json:"name"`
	Type      LocationType       `gorm:"size:10;not null;index" json:"type"`
	IsActive  *bool              `gorm:"not null;default:true" json:"isActive"`
	CreatedAt time.Time          `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time          `gorm:"autoUpdateTime" json:"updatedAt"`
	Inventory []InventoryBalance `gorm:"foreignKey:LocationId" json:"inventory,omitempty"`
}

func (l *Location) BeforeCreate(tx *gorm.DB) error {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	return nil
}

func (l *Location) Active() bool {
	return l.IsActive == nil || *l.IsActive
}

type NewLocation struct {
	Name string       `json:"name" validate:"required,max=191"`
	Type LocationType `json:"type" validate:"required"`
}

func (input *NewLocation) validate(ctx context.Context) error {
	input.Name = strings.TrimSpace(input.Name)
	if err := validateInput(input); err != nil {
		return err
	}
	if !input.Type.IsValid() {
		return fmt.Errorf("%w: invalid location type", ErrInvalidInput)
	}
	if err := utils.ValidateUnique[Location](ctx, "name", input.Name, nil); err != nil {
		return err
	}
	if input.Type == LocationTypeShop && config.EnforceSingleShop() {
		count, err := utils.ResourceCountWhere[Location](ctx, "type = ?", LocationTypeShop)
		if err != nil {
			return err
		}
		if count > 0 {
			return ErrDuplicateShopLocation
		}
	}
	return nil
}

type UpdateLocationInput struct {
	Name     *string `json:"name" validate:"omitempty,max=191"`
	IsActive *bool   `json:"isActive"`
}

func CreateLocation(ctx context.Context, input *NewLocation) (*Location, error) {
	if err := input.validate(ctx); err != nil {
		return nil, err
	}

	location := Location{
		Name:     input.Name,
		Type:     input.Type,
		IsActive: utils.NewTrue(),
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&location).Error; err != nil {
		return nil, err
	}
	invalidateDashboardStats()
	return &location, nil
}

// UpdateLocation renames a location or opens/closes it. The SHOP location always stays active.
func UpdateLocation(ctx context.Context, id string, input *UpdateLocationInput) (*Location, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}
	location, err := GetLocation(ctx, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name != "" {
			if err := utils.ValidateUnique[Location](ctx, "name", name, id); err != nil {
				return nil, err
			}
			updates["Name"] = name
		}
	}
	if input.IsActive != nil {
		if location.Type == LocationTypeShop && !*input.IsActive {
			return nil, ErrShopLocationRequired
		}
		updates["IsActive"] = *input.IsActive
	}
	if len(updates) == 0 {
		return location, nil
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Model(location).Updates(updates).Error; err != nil {
		return nil, err
	}
	invalidateDashboardStats()
	return GetLocation(ctx, id)
}

func ToggleActiveLocation(ctx context.Context, id string, isActive bool) (*Location, error) {
	return UpdateLocation(ctx, id, &UpdateLocationInput{IsActive: &isActive})
}

func GetLocation(ctx context.Context, id string) (*Location, error) {
	location, err := utils.FetchModel[Location](ctx, id)
	if err != nil {
		if errors.Is(err, utils.ErrorRecordNotFound) {
			return nil, ErrLocationNotFound
		}
		return nil, err
	}
	return location, nil
}

type LocationFilter struct {
	Type             *LocationType
	ActiveOnly       bool
	IncludeInventory bool
}

func ListLocations(ctx context.Context, filter LocationFilter) ([]*Location, error) {
	db := config.GetDB()
	dbCtx := db.WithContext(ctx)
	if filter.Type != nil && *filter.Type != "" {
		dbCtx = dbCtx.Where("type = ?", *filter.Type)
	}
	if filter.ActiveOnly {
		dbCtx = dbCtx.Where("is_active = ?", true)
	}
	if filter.IncludeInventory {
		dbCtx = dbCtx.Preload("Inventory").Preload("Inventory.Material")
	}

	var results []*Location
	if err := dbCtx.Order("name").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

// GetShopLocation resolves "the" SHOP location. Oldest wins if more than one was ever created.
func GetShopLocation(ctx context.Context) (*Location, error) {
	return getShopLocationTx(config.GetDB().WithContext(ctx))
}

func getShopLocationTx(tx *gorm.DB) (*Location, error) {
	var shop Location
	err := tx.Where("type = ?", LocationTypeShop).Order("created_at").Order("id").Take(&shop).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoShopLocation
		}
		return nil, err
	}
	return &shop, nil
}
