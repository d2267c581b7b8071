package models

import (
	"encoding/json"
	"errors"
)

type MaterialCategory string

const (
	MaterialCategoryWoodSheets MaterialCategory = "WoodSheets"
	MaterialCategoryHardware   MaterialCategory = "Hardware"
	MaterialCategoryHinges     MaterialCategory = "Hinges"
	MaterialCategorySlides     MaterialCategory = "Slides"
	MaterialCategoryOther      MaterialCategory = "Other"
)

func (c MaterialCategory) IsValid() bool {
	switch c {
	case MaterialCategoryWoodSheets, MaterialCategoryHardware, MaterialCategoryHinges,
		MaterialCategorySlides, MaterialCategoryOther:
		return true
	}
	return false
}

func (c *MaterialCategory) UnmarshalJSON(b []byte) error {
	var str string
	if err := json.Unmarshal(b, &str); err != nil {
		return errors.New("material category must be string")
	}
	v := MaterialCategory(str)
	if str != "" && !v.IsValid() {
		return errors.New("invalid material category")
	}
	*c = v
	return nil
}

type MaterialUnit string

const (
	MaterialUnitSheets MaterialUnit = "sheets"
	MaterialUnitPcs    MaterialUnit = "pcs"
	MaterialUnitUnit   MaterialUnit = "unit"
	MaterialUnitTube   MaterialUnit = "tube"
	MaterialUnitBox    MaterialUnit = "box"
)

func (u MaterialUnit) IsValid() bool {
	switch u {
	case MaterialUnitSheets, MaterialUnitPcs, MaterialUnitUnit, MaterialUnitTube, MaterialUnitBox:
		return true
	}
	return false
}

type LocationType string

const (
	LocationTypeShop LocationType = "SHOP"
	LocationTypeJob  LocationType = "JOB"
)

func (t LocationType) IsValid() bool {
	return t == LocationTypeShop || t == LocationTypeJob
}

func (t *LocationType) UnmarshalJSON(b []byte) error {
	var str string
	if err := json.Unmarshal(b, &str); err != nil {
		return errors.New("location type must be string")
	}
	v := LocationType(str)
	if str != "" && !v.IsValid() {
		return errors.New("invalid location type")
	}
	*t = v
	return nil
}

type TransactionType string

const (
	TransactionTypeReceive    TransactionType = "RECEIVE"
	TransactionTypeTransfer   TransactionType = "TRANSFER"
	TransactionTypeIssue      TransactionType = "ISSUE"
	TransactionTypeAdjustment TransactionType = "ADJUSTMENT"
)

func (t TransactionType) IsValid() bool {
	switch t {
	case TransactionTypeReceive, TransactionTypeTransfer, TransactionTypeIssue, TransactionTypeAdjustment:
		return true
	}
	return false
}

type UserRole string

const (
	UserRoleAdmin  UserRole = "Admin"
	UserRoleEditor UserRole = "Editor"
	UserRoleViewer UserRole = "Viewer"
)

func (r UserRole) IsValid() bool {
	return r == UserRoleAdmin || r == UserRoleEditor || r == UserRoleViewer
}
