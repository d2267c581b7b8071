package utils

import (
	"context"
	"errors"

	"github.com/mmdatafocus/cabinet_inventory/config"
	"gorm.io/gorm"
)

// fetch model from db by primary key
// (may return ErrorRecordNotFound)
func FetchModel[T any](ctx context.Context, id string, associations ...string) (*T, error) {
	dbCtx := config.GetDB().WithContext(ctx)
	for _, field := range associations {
		dbCtx = dbCtx.Preload(field)
	}
	var result T
	if err := dbCtx.Where("id = ?", id).Take(&result).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrorRecordNotFound
		}
		return nil, err
	}
	return &result, nil
}

// FetchModelTx is FetchModel on an open transaction.
func FetchModelTx[T any](tx *gorm.DB, id string) (*T, error) {
	var result T
	if err := tx.Where("id = ?", id).Take(&result).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrorRecordNotFound
		}
		return nil, err
	}
	return &result, nil
}
