package models_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/mmdatafocus/cabinet_inventory/models"
	"github.com/mmdatafocus/cabinet_inventory/utils"
	"gorm.io/gorm"
)

func TestCanPerform(t *testing.T) {
	tests := []struct {
		role models.UserRole
		op   models.Operation
		want bool
	}{
		{models.UserRoleViewer, models.OperationRead, true},
		{models.UserRoleViewer, models.OperationReceive, false},
		{models.UserRoleViewer, models.OperationAdjust, false},
		{models.UserRoleEditor, models.OperationReceive, true},
		{models.UserRoleEditor, models.OperationTransfer, true},
		{models.UserRoleEditor, models.OperationIssue, true},
		{models.UserRoleEditor, models.OperationAdjust, true},
		{models.UserRoleEditor, models.OperationRebuildTotals, false},
		{models.UserRoleEditor, models.OperationDeleteMaterial, false},
		{models.UserRoleEditor, models.OperationManageLocations, false},
		{models.UserRoleAdmin, models.OperationRebuildTotals, true},
		{models.UserRoleAdmin, models.OperationDeleteMaterial, true},
		{models.UserRole("Owner"), models.OperationRead, false},
	}
	for _, tt := range tests {
		if got := models.CanPerform(tt.role, tt.op); got != tt.want {
			t.Errorf("CanPerform(%s, %s) = %v, want %v", tt.role, tt.op, got, tt.want)
		}
	}
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		err  error
		want models.ErrorKind
	}{
		{models.ErrMaterialNotFound, models.KindNotFound},
		{fmt.Errorf("wrap: %w", models.ErrLocationNotFound), models.KindNotFound},
		{models.ErrOriginalTransactionNotFound, models.KindNotFound},
		{models.ErrNoShopLocation, models.KindNoShopLocation},
		{models.ErrInvalidQuantity, models.KindInvalidInput},
		{models.ErrMissingReason, models.KindInvalidInput},
		{&models.InsufficientInventoryError{Available: 1, Requested: 2}, models.KindInsufficientInventory},
		{&models.NegativeInventoryError{Current: 1, Delta: -2}, models.KindNegativeInventoryRejected},
		{models.ErrDuplicateShopLocation, models.KindReferentialConflict},
		{gorm.ErrDuplicatedKey, models.KindReferentialConflict},
		{gorm.ErrForeignKeyViolated, models.KindReferentialConflict},
		{fmt.Errorf("%w name", utils.ErrorDuplicate), models.KindReferentialConflict},
		{models.ErrActorRequired, models.KindUnauthenticated},
		{models.ErrForbidden, models.KindForbidden},
		{errors.New("boom"), models.KindInternal},
	}
	for _, tt := range tests {
		if got := models.KindOf(tt.err); got != tt.want {
			t.Errorf("KindOf(%v) = %s, want %s", tt.err, got, tt.want)
		}
	}
}

func TestStockErrorsCarryContext(t *testing.T) {
	err := &models.InsufficientInventoryError{LocationName: "Main Shop", Available: 3, Requested: 5}
	if got := err.Error(); got != "insufficient inventory at Main Shop: available 3, requested 5" {
		t.Fatalf("message = %q", got)
	}
	neg := &models.NegativeInventoryError{Current: 30, Delta: -40}
	if got := neg.Error(); got != "adjustment would make inventory negative: current 30, delta -40" {
		t.Fatalf("message = %q", got)
	}
}
