package models

import (
	"context"
	"time"

	"github.com/mmdatafocus/cabinet_inventory/config"
	"github.com/mmdatafocus/cabinet_inventory/utils"
)

const signedPhotoURLTTL = 15 * time.Minute

type TransactionHistoryFilter struct {
	MaterialId string
	LocationId string
	Type       *TransactionType
	Limit      int
}

type OriginalTransactionSummary struct {
	ID       string          `json:"id"`
	Type     TransactionType `json:"type"`
	Quantity int             `json:"quantity"`
	Date     string          `json:"date"`
}

type TransactionHistoryRow struct {
	ID                    string                      `json:"id"`
	Type                  TransactionType             `json:"type"`
	MaterialId            string                      `json:"materialId"`
	MaterialName          string                      `json:"materialName"`
	Category              MaterialCategory            `json:"category"`
	Quantity              int                         `json:"quantity"`
	Unit                  string                      `json:"unit"`
	FromLocationName      *string                     `json:"fromLocationName"`
	ToLocationName        *string                     `json:"toLocationName"`
	UserName              string                      `json:"userName"`
	Date                  string                      `json:"date"`
	Vendor                *string                     `json:"vendor"`
	PoNumber              *string                     `json:"poNumber"`
	InvoiceNumber         *string                     `json:"invoiceNumber"`
	Notes                 *string                     `json:"notes"`
	AdjustmentReason      *string                     `json:"adjustmentReason"`
	OriginalTransactionId *string                     `json:"originalTransactionId"`
	OriginalTransaction   *OriginalTransactionSummary `json:"originalTransaction"`
	InvoicePhotos         []InvoicePhoto              `json:"invoicePhotos"`
}

// ListTransactions returns log entries newest first. LocationId matches either side of a movement.
func ListTransactions(ctx context.Context, filter TransactionHistoryFilter) ([]*TransactionRecord, error) {
	db := config.GetDB()
	dbCtx := db.WithContext(ctx).
		Preload("Material").
		Preload("FromLocation").
		Preload("ToLocation").
		Preload("InvoicePhotos").
		Preload("OriginalTransaction")

	if filter.MaterialId != "" {
		dbCtx = dbCtx.Where("material_id = ?", filter.MaterialId)
	}
	if filter.LocationId != "" {
		dbCtx = dbCtx.Where("(from_location_id = ? OR to_location_id = ?)", filter.LocationId, filter.LocationId)
	}
	if filter.Type != nil && *filter.Type != "" {
		dbCtx = dbCtx.Where("type = ?", *filter.Type)
	}
	if filter.Limit > 0 {
		dbCtx = dbCtx.Limit(filter.Limit)
	}

	var records []*TransactionRecord
	if err := dbCtx.Order("date DESC").Order("created_at DESC").Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

// GetTransactionHistory is ListTransactions in display form.
func GetTransactionHistory(ctx context.Context, filter TransactionHistoryFilter) ([]*TransactionHistoryRow, error) {
	records, err := ListTransactions(ctx, filter)
	if err != nil {
		return nil, err
	}

	actorIds := make([]string, 0, len(records))
	for _, r := range records {
		actorIds = append(actorIds, r.ActorUserId)
	}
	users, err := usersByIds(ctx, utils.UniqueSlice(actorIds))
	if err != nil {
		return nil, err
	}

	rows := make([]*TransactionHistoryRow, 0, len(records))
	for _, r := range records {
		rows = append(rows, formatHistoryRow(r, users[r.ActorUserId]))
	}
	return rows, nil
}

func formatHistoryRow(r *TransactionRecord, user *User) *TransactionHistoryRow {
	row := &TransactionHistoryRow{
		ID:                    r.ID,
		Type:                  r.Type,
		MaterialId:            r.MaterialId,
		Quantity:              r.Quantity,
		Unit:                  r.Unit,
		UserName:              r.ActorUserId,
		Date:                  r.Date.UTC().Format(time.RFC3339),
		Vendor:                r.Vendor,
		PoNumber:              r.PoNumber,
		InvoiceNumber:         r.InvoiceNumber,
		Notes:                 r.Notes,
		AdjustmentReason:      r.AdjustmentReason,
		OriginalTransactionId: r.OriginalTransactionId,
		InvoicePhotos:         make([]InvoicePhoto, 0, len(r.InvoicePhotos)),
	}
	if r.Material != nil {
		row.MaterialName = r.Material.Name
		row.Category = r.Material.Category
		if row.Unit == "" {
			row.Unit = string(r.Material.Unit)
		}
	}
	if row.Unit == "" {
		row.Unit = "units"
	}
	if r.FromLocation != nil {
		row.FromLocationName = &r.FromLocation.Name
	}
	if r.ToLocation != nil {
		row.ToLocationName = &r.ToLocation.Name
	}
	if user != nil {
		row.UserName = user.DisplayName()
	}
	if o := r.OriginalTransaction; o != nil {
		row.OriginalTransaction = &OriginalTransactionSummary{
			ID:       o.ID,
			Type:     o.Type,
			Quantity: o.Quantity,
			Date:     o.Date.UTC().Format(time.RFC3339),
		}
	}
	for _, p := range r.InvoicePhotos {
		p.Url = photoURL(p)
		row.InvoicePhotos = append(row.InvoicePhotos, p)
	}
	return row
}

// photoURL is the public URL, or a short-lived signed one for private photos when signing is enabled.
func photoURL(p InvoicePhoto) string {
	key := utils.ObjectKeyFromPath(p.CloudStoragePath)
	if key == "" {
		return ""
	}
	if p.IsPublic || !config.SignPrivatePhotoURLs() {
		return utils.BuildObjectAccessURL(key)
	}
	signed, err := utils.SignReadURL(key, signedPhotoURLTTL)
	if err != nil {
		config.LogError(config.GetLogger(), "models", "photoURL", "sign private photo url", p.ID, err)
		return ""
	}
	return signed
}
