package models

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/mmdatafocus/cabinet_inventory/utils"
)

type ErrorKind string

const (
	KindNotFound                  ErrorKind = "NotFound"
	KindInvalidInput              ErrorKind = "InvalidInput"
	KindInsufficientInventory     ErrorKind = "InsufficientInventory"
	KindNegativeInventoryRejected ErrorKind = "NegativeInventoryRejected"
	KindNoShopLocation            ErrorKind = "NoShopLocation"
	KindReferentialConflict       ErrorKind = "ReferentialConflict"
	KindUnauthenticated           ErrorKind = "Unauthenticated"
	KindForbidden                 ErrorKind = "Forbidden"
	KindInternal                  ErrorKind = "Internal"
)

var (
	ErrMaterialNotFound            = errors.New("material not found")
	ErrLocationNotFound            = errors.New("location not found")
	ErrOriginalTransactionNotFound = errors.New("original transaction not found")
	ErrTransactionNotFound         = errors.New("transaction not found")
	ErrNoShopLocation              = errors.New("SHOP location not found")

	ErrInvalidInput       = errors.New("invalid input")
	ErrInvalidQuantity    = errors.New("quantity must be a positive integer")
	ErrInvalidDelta       = errors.New("quantity delta must be a non-zero integer")
	ErrMissingReason      = errors.New("adjustment reason is required")
	ErrInvalidDestination = errors.New("destination must be an existing JOB location")
	ErrInvalidSource      = errors.New("source must be an existing JOB location")

	ErrInsufficientInventory     = errors.New("insufficient inventory")
	ErrNegativeInventoryRejected = errors.New("adjustment would make inventory negative")

	ErrReferentialConflict   = errors.New("referential conflict")
	ErrDuplicateShopLocation = errors.New("a SHOP location already exists")
	ErrShopLocationRequired  = errors.New("the SHOP location cannot be deactivated")
	ErrMaterialInUse         = errors.New("material has transactions and cannot be deleted")
	ErrImmutableRecord       = errors.New("transaction records cannot be changed")

	ErrActorRequired = errors.New("user id is required")
	ErrForbidden     = errors.New("forbidden")
)

// InsufficientInventoryError is returned by Transfer and Issue when the source balance is below the request.
type InsufficientInventoryError struct {
	MaterialId   string
	LocationId   string
	LocationName string
	Available    int
	Requested    int
}

func (e *InsufficientInventoryError) Error() string {
	where := e.LocationName
	if where == "" {
		where = e.LocationId
	}
	return fmt.Sprintf("insufficient inventory at %s: available %d, requested %d", where, e.Available, e.Requested)
}

func (e *InsufficientInventoryError) Is(target error) bool {
	return target == ErrInsufficientInventory
}

// NegativeInventoryError is Adjust's framing of the same condition.
type NegativeInventoryError struct {
	MaterialId string
	LocationId string
	Current    int
	Delta      int
}

func (e *NegativeInventoryError) Error() string {
	return fmt.Sprintf("adjustment would make inventory negative: current %d, delta %d", e.Current, e.Delta)
}

func (e *NegativeInventoryError) Is(target error) bool {
	return target == ErrNegativeInventoryRejected
}

// validationError wraps struct-tag failures so they classify as InvalidInput.
type validationError struct {
	fields map[string]string
}

func (e *validationError) Error() string {
	keys := make([]string, 0, len(e.fields))
	for k := range e.fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+" "+e.fields[k])
	}
	return "invalid input: " + strings.Join(parts, ", ")
}

func (e *validationError) Is(target error) bool {
	return target == ErrInvalidInput
}

func validateInput(input any) error {
	err := utils.ValidateStruct(input)
	if err == nil {
		return nil
	}
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		return &validationError{fields: utils.ProcessValidationErrors(err)}
	}
	return fmt.Errorf("%w: %v", ErrInvalidInput, err)
}

// KindOf classifies err into the error taxonomy exposed to callers.
func KindOf(err error) ErrorKind {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrMaterialNotFound),
		errors.Is(err, ErrLocationNotFound),
		errors.Is(err, ErrOriginalTransactionNotFound),
		errors.Is(err, ErrTransactionNotFound),
		errors.Is(err, utils.ErrorRecordNotFound):
		return KindNotFound
	case errors.Is(err, ErrNoShopLocation):
		return KindNoShopLocation
	case errors.Is(err, ErrInsufficientInventory):
		return KindInsufficientInventory
	case errors.Is(err, ErrNegativeInventoryRejected):
		return KindNegativeInventoryRejected
	case errors.Is(err, ErrInvalidInput),
		errors.Is(err, ErrInvalidQuantity),
		errors.Is(err, ErrInvalidDelta),
		errors.Is(err, ErrMissingReason),
		errors.Is(err, ErrInvalidDestination),
		errors.Is(err, ErrInvalidSource),
		errors.Is(err, utils.ErrObjectNotFound):
		return KindInvalidInput
	case errors.Is(err, ErrReferentialConflict),
		errors.Is(err, ErrDuplicateShopLocation),
		errors.Is(err, ErrShopLocationRequired),
		errors.Is(err, ErrMaterialInUse),
		errors.Is(err, ErrImmutableRecord),
		errors.Is(err, utils.ErrorDuplicate),
		errors.Is(err, utils.ErrLockNotObtained),
		utils.IsDuplicateKeyErr(err),
		utils.IsForeignKeyErr(err):
		return KindReferentialConflict
	case errors.Is(err, ErrActorRequired):
		return KindUnauthenticated
	case errors.Is(err, ErrForbidden):
		return KindForbidden
	}
	return KindInternal
}
