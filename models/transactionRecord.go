package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TransactionRecord is one entry of the append-only movement log.
// Quantity is signed for ADJUSTMENT and a magnitude otherwise; direction follows From/To.
type TransactionRecord struct {
	ID                    string             `gorm:"primaryKey;size:36" json:"id"`
	Type                  TransactionType    `gorm:"size:20;not null;index" json:"type"`
	MaterialId            string             `gorm:"size:36;not null;index" json:"materialId"`
	Quantity              int                `gorm:"not null" json:"quantity"`
	Unit                  string             `gorm:"size:20" json:"unit"`
	FromLocationId        *string            `gorm:"size:36;index" json:"fromLocationId"`
	ToLocationId          *string            `gorm:"size:36;index" json:"toLocationId"`
	ActorUserId           string             `gorm:"size:36;not null;index" json:"userId"`
	Date                  time.Time          `gorm:"not null;index" json:"date"`
	Vendor                *string            `gorm:"size:191" json:"vendor"`
	PoNumber              *string            `gorm:"size:100" json:"poNumber"`
	InvoiceNumber         *string            `gorm:"size:100" json:"invoiceNumber"`
	Notes                 *string            `gorm:"type:text" json:"notes"`
	AdjustmentReason      *string            `gorm:"type:text" json:"adjustmentReason"`
	OriginalTransactionId *string            `gorm:"size:36;index" json:"originalTransactionId"`
	CreatedAt             time.Time          `gorm:"autoCreateTime" json:"createdAt"`
	Material              *Material          `gorm:"foreignKey:MaterialId" json:"material,omitempty"`
	FromLocation          *Location          `gorm:"foreignKey:FromLocationId" json:"fromLocation,omitempty"`
	ToLocation            *Location          `gorm:"foreignKey:ToLocationId" json:"toLocation,omitempty"`
	OriginalTransaction   *TransactionRecord `gorm:"foreignKey:OriginalTransactionId" json:"originalTransaction,omitempty"`
	InvoicePhotos         []InvoicePhoto     `gorm:"foreignKey:TransactionId" json:"invoicePhotos,omitempty"`
}

func (r *TransactionRecord) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.Date.IsZero() {
		r.Date = tx.NowFunc()
	}
	return nil
}

func (r *TransactionRecord) BeforeUpdate(tx *gorm.DB) error {
	return ErrImmutableRecord
}

func (r *TransactionRecord) BeforeDelete(tx *gorm.DB) error {
	return ErrImmutableRecord
}

type InvoicePhoto struct {
	ID               string    `gorm:"primaryKey;size:36" json:"id"`
	TransactionId    string    `gorm:"size:36;not null;index" json:"transactionId"`
	CloudStoragePath string    `gorm:"size:512;not null" json:"cloud_storage_path"`
	IsPublic         bool      `gorm:"not null;default:false" json:"isPublic"`
	CreatedAt        time.Time `gorm:"autoCreateTime" json:"createdAt"`
	Url              string    `gorm:"-" json:"url,omitempty"`
}

func (p *InvoicePhoto) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

func (p *InvoicePhoto) BeforeUpdate(tx *gorm.DB) error {
	return ErrImmutableRecord
}

type NewInvoicePhoto struct {
	CloudStoragePath string `json:"cloud_storage_path" validate:"required,max=512"`
	IsPublic         bool   `json:"isPublic"`
}
