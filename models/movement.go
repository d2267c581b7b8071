package models

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mmdatafocus/cabinet_inventory/config"
	"github.com/mmdatafocus/cabinet_inventory/utils"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"
)

const (
	MaterialLockType = "inventory:material"
	movementLockTTL  = 30 * time.Second
)

var tracer = otel.Tracer("cabinet-inventory/models")

type ReceiveInput struct {
	MaterialId    string            `json:"materialId" validate:"required"`
	Quantity      int               `json:"quantity"`
	Vendor        *string           `json:"vendor" validate:"omitempty,max=191"`
	PoNumber      *string           `json:"poNumber" validate:"omitempty,max=100"`
	InvoiceNumber *string           `json:"invoiceNumber" validate:"omitempty,max=100"`
	Notes         *string           `json:"notes"`
	InvoicePhotos []NewInvoicePhoto `json:"invoicePhotos" validate:"omitempty,dive"`
}

type TransferInput struct {
	MaterialId   string  `json:"materialId" validate:"required"`
	Quantity     int     `json:"quantity"`
	ToLocationId string  `json:"toLocationId" validate:"required"`
	Notes        *string `json:"notes"`
}

type IssueInput struct {
	MaterialId     string  `json:"materialId" validate:"required"`
	Quantity       int     `json:"quantity"`
	FromLocationId string  `json:"fromLocationId" validate:"required"`
	Notes          *string `json:"notes"`
}

type AdjustInput struct {
	MaterialId            string  `json:"materialId" validate:"required"`
	LocationId            string  `json:"locationId" validate:"required"`
	QuantityDelta         int     `json:"quantityDelta"`
	Reason                string  `json:"reason"`
	OriginalTransactionId *string `json:"originalTransactionId"`
}

func actorFromContext(ctx context.Context) (string, error) {
	userId, ok := utils.GetUserIdFromContext(ctx)
	if !ok || strings.TrimSpace(userId) == "" {
		return "", ErrActorRequired
	}
	return userId, nil
}

func validatePositive(quantity int) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}
	return nil
}

// movementFunc runs inside the transaction after the material's total row is locked.
type movementFunc func(tx *gorm.DB, material *Material, total *MaterialTotal, totalCreated bool) (*TransactionRecord, error)

// runMovement is the shared atomic unit: material lock, one storage transaction,
// total row locked before any balance row, and the log append in the same commit.
func runMovement(ctx context.Context, op TransactionType, materialId string, fn movementFunc) (*TransactionRecord, error) {
	ctx, span := tracer.Start(ctx, "inventory."+strings.ToLower(string(op)),
		trace.WithAttributes(attribute.String("material.id", materialId)))
	defer span.End()

	var record *TransactionRecord
	err := utils.WithLock(ctx, MaterialLockType, materialId, movementLockTTL, func() error {
		db := config.GetDB()
		return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			material, err := utils.FetchModelTx[Material](tx, materialId)
			if err != nil {
				if errors.Is(err, utils.ErrorRecordNotFound) {
					return ErrMaterialNotFound
				}
				return err
			}
			total, created, err := LockMaterialTotal(tx, material.ID)
			if err != nil {
				return err
			}
			record, err = fn(tx, material, total, created)
			return err
		})
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(attribute.String("transaction.id", record.ID))
	config.GetLogger().WithFields(logrus.Fields{
		"transaction_id":   record.ID,
		"type":             record.Type,
		"material_id":      record.MaterialId,
		"quantity":         record.Quantity,
		"from_location_id": utils.DereferencePtr(record.FromLocationId),
		"to_location_id":   utils.DereferencePtr(record.ToLocationId),
		"actor_user_id":    record.ActorUserId,
	}).Info("inv.movement.committed")

	PublishCommitted(ctx, EventMovementCommitted, record)
	return record, nil
}

// Receive books supplier stock into the SHOP location.
func Receive(ctx context.Context, input *ReceiveInput) (*TransactionRecord, error) {
	actorId, err := actorFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if err := validateInput(input); err != nil {
		return nil, err
	}
	if err := validatePositive(input.Quantity); err != nil {
		return nil, err
	}

	photos := make([]InvoicePhoto, 0, len(input.InvoicePhotos))
	paths := make([]string, 0, len(input.InvoicePhotos))
	for _, p := range input.InvoicePhotos {
		path := strings.TrimSpace(p.CloudStoragePath)
		if path == "" {
			return nil, fmt.Errorf("%w: invoice photo path is required", ErrInvalidInput)
		}
		photos = append(photos, InvoicePhoto{CloudStoragePath: path, IsPublic: p.IsPublic})
		paths = append(paths, path)
	}
	if len(paths) > 0 && config.VerifyInvoicePhotos() {
		if err := utils.CheckObjectsExistInGCS(ctx, paths); err != nil {
			return nil, err
		}
	}

	return runMovement(ctx, TransactionTypeReceive, input.MaterialId, func(tx *gorm.DB, material *Material, total *MaterialTotal, created bool) (*TransactionRecord, error) {
		shop, err := getShopLocationTx(tx)
		if err != nil {
			return nil, err
		}
		balance, err := lockBalance(tx, material.ID, shop.ID)
		if err != nil {
			return nil, err
		}
		if _, err := applyBalanceDelta(tx, balance, material.ID, shop.ID, input.Quantity); err != nil {
			return nil, err
		}
		if err := applyTotalDelta(tx, total, created, input.Quantity); err != nil {
			return nil, err
		}

		record := TransactionRecord{
			Type:          TransactionTypeReceive,
			MaterialId:    material.ID,
			Quantity:      input.Quantity,
			Unit:          string(material.Unit),
			ToLocationId:  &shop.ID,
			ActorUserId:   actorId,
			Vendor:        utils.TrimmedOrNil(input.Vendor),
			PoNumber:      utils.TrimmedOrNil(input.PoNumber),
			InvoiceNumber: utils.TrimmedOrNil(input.InvoiceNumber),
			Notes:         utils.TrimmedOrNil(input.Notes),
			InvoicePhotos: photos,
		}
		if err := tx.Create(&record).Error; err != nil {
			return nil, err
		}
		return &record, nil
	})
}

// Transfer moves stock from the SHOP to a JOB location. The material total does not change.
func Transfer(ctx context.Context, input *TransferInput) (*TransactionRecord, error) {
	actorId, err := actorFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if err := validateInput(input); err != nil {
		return nil, err
	}
	if err := validatePositive(input.Quantity); err != nil {
		return nil, err
	}

	return runMovement(ctx, TransactionTypeTransfer, input.MaterialId, func(tx *gorm.DB, material *Material, total *MaterialTotal, created bool) (*TransactionRecord, error) {
		destination, err := utils.FetchModelTx[Location](tx, input.ToLocationId)
		if err != nil {
			if errors.Is(err, utils.ErrorRecordNotFound) {
				return nil, ErrInvalidDestination
			}
			return nil, err
		}
		if destination.Type != LocationTypeJob {
			return nil, ErrInvalidDestination
		}
		shop, err := getShopLocationTx(tx)
		if err != nil {
			return nil, err
		}

		shopBalance, err := lockBalance(tx, material.ID, shop.ID)
		if err != nil {
			return nil, err
		}
		if available := quantityOf(shopBalance); available < input.Quantity {
			return nil, &InsufficientInventoryError{
				MaterialId:   material.ID,
				LocationId:   shop.ID,
				LocationName: shop.Name,
				Available:    available,
				Requested:    input.Quantity,
			}
		}
		destBalance, err := lockBalance(tx, material.ID, destination.ID)
		if err != nil {
			return nil, err
		}

		if _, err := applyBalanceDelta(tx, shopBalance, material.ID, shop.ID, -input.Quantity); err != nil {
			return nil, err
		}
		if _, err := applyBalanceDelta(tx, destBalance, material.ID, destination.ID, input.Quantity); err != nil {
			return nil, err
		}

		record := TransactionRecord{
			Type:           TransactionTypeTransfer,
			MaterialId:     material.ID,
			Quantity:       input.Quantity,
			Unit:           string(material.Unit),
			FromLocationId: &shop.ID,
			ToLocationId:   &destination.ID,
			ActorUserId:    actorId,
			Notes:          utils.TrimmedOrNil(input.Notes),
		}
		if err := tx.Create(&record).Error; err != nil {
			return nil, err
		}
		return &record, nil
	})
}

// Issue consumes stock at a JOB location.
func Issue(ctx context.Context, input *IssueInput) (*TransactionRecord, error) {
	actorId, err := actorFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if err := validateInput(input); err != nil {
		return nil, err
	}
	if err := validatePositive(input.Quantity); err != nil {
		return nil, err
	}

	return runMovement(ctx, TransactionTypeIssue, input.MaterialId, func(tx *gorm.DB, material *Material, total *MaterialTotal, created bool) (*TransactionRecord, error) {
		source, err := utils.FetchModelTx[Location](tx, input.FromLocationId)
		if err != nil {
			if errors.Is(err, utils.ErrorRecordNotFound) {
				return nil, ErrInvalidSource
			}
			return nil, err
		}
		if source.Type != LocationTypeJob {
			return nil, ErrInvalidSource
		}

		balance, err := lockBalance(tx, material.ID, source.ID)
		if err != nil {
			return nil, err
		}
		if available := quantityOf(balance); available < input.Quantity {
			return nil, &InsufficientInventoryError{
				MaterialId:   material.ID,
				LocationId:   source.ID,
				LocationName: source.Name,
				Available:    available,
				Requested:    input.Quantity,
			}
		}
		if _, err := applyBalanceDelta(tx, balance, material.ID, source.ID, -input.Quantity); err != nil {
			return nil, err
		}
		if err := applyTotalDelta(tx, total, created, -input.Quantity); err != nil {
			return nil, err
		}

		record := TransactionRecord{
			Type:           TransactionTypeIssue,
			MaterialId:     material.ID,
			Quantity:       input.Quantity,
			Unit:           string(material.Unit),
			FromLocationId: &source.ID,
			ActorUserId:    actorId,
			Notes:          utils.TrimmedOrNil(input.Notes),
		}
		if err := tx.Create(&record).Error; err != nil {
			return nil, err
		}
		return &record, nil
	})
}

// Adjust corrects a balance by a signed delta, optionally pointing back at the record it corrects.
func Adjust(ctx context.Context, input *AdjustInput) (*TransactionRecord, error) {
	actorId, err := actorFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if err := validateInput(input); err != nil {
		return nil, err
	}
	if input.QuantityDelta == 0 {
		return nil, ErrInvalidDelta
	}
	reason := strings.TrimSpace(input.Reason)
	if reason == "" {
		return nil, ErrMissingReason
	}
	originalId := utils.TrimmedOrNil(input.OriginalTransactionId)

	return runMovement(ctx, TransactionTypeAdjustment, input.MaterialId, func(tx *gorm.DB, material *Material, total *MaterialTotal, created bool) (*TransactionRecord, error) {
		location, err := utils.FetchModelTx[Location](tx, input.LocationId)
		if err != nil {
			if errors.Is(err, utils.ErrorRecordNotFound) {
				return nil, ErrLocationNotFound
			}
			return nil, err
		}
		if originalId != nil {
			if _, err := utils.FetchModelTx[TransactionRecord](tx, *originalId); err != nil {
				if errors.Is(err, utils.ErrorRecordNotFound) {
					return nil, ErrOriginalTransactionNotFound
				}
				return nil, err
			}
		}

		balance, err := lockBalance(tx, material.ID, location.ID)
		if err != nil {
			return nil, err
		}
		current := quantityOf(balance)
		if current+input.QuantityDelta < 0 {
			return nil, &NegativeInventoryError{
				MaterialId: material.ID,
				LocationId: location.ID,
				Current:    current,
				Delta:      input.QuantityDelta,
			}
		}
		if _, err := applyBalanceDelta(tx, balance, material.ID, location.ID, input.QuantityDelta); err != nil {
			return nil, err
		}
		if err := applyTotalDelta(tx, total, created, input.QuantityDelta); err != nil {
			return nil, err
		}

		record := TransactionRecord{
			Type:                  TransactionTypeAdjustment,
			MaterialId:            material.ID,
			Quantity:              input.QuantityDelta,
			Unit:                  string(material.Unit),
			ActorUserId:           actorId,
			AdjustmentReason:      &reason,
			OriginalTransactionId: originalId,
		}
		if input.QuantityDelta < 0 {
			record.FromLocationId = &location.ID
		} else {
			record.ToLocationId = &location.ID
		}
		if err := tx.Create(&record).Error; err != nil {
			return nil, err
		}
		return &record, nil
	})
}

// GetTransactionRecord loads one log entry with its photos.
func GetTransactionRecord(ctx context.Context, id string) (*TransactionRecord, error) {
	record, err := utils.FetchModel[TransactionRecord](ctx, id, "InvoicePhotos")
	if err != nil {
		if errors.Is(err, utils.ErrorRecordNotFound) {
			return nil, ErrTransactionNotFound
		}
		return nil, err
	}
	return record, nil
}
