package models_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/mmdatafocus/cabinet_inventory/config"
	"github.com/mmdatafocus/cabinet_inventory/models"
	"github.com/mmdatafocus/cabinet_inventory/utils"
)

// setupTestDB points config at a fresh in-memory SQLite database and returns an Admin context.
func setupTestDB(t *testing.T) context.Context {
	t.Helper()
	t.Setenv("REDIS_ADDRESS", "")
	t.Setenv("INVENTORY_EVENTS_TOPIC", "")
	t.Setenv("VERIFY_INVOICE_PHOTOS", "")
	t.Setenv("SIGN_PRIVATE_PHOTO_URLS", "")

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", uuid.NewString())
	conn, err := config.OpenSQLite(dsn)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	config.SetDB(conn)
	models.MigrateTable()
	t.Cleanup(func() {
		if sqlDB, err := conn.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	userId := "user-" + uuid.NewString()
	ctx := utils.SetActorInContext(context.Background(), userId, "Test Admin", string(models.UserRoleAdmin))
	if err := models.EnsureUser(ctx, userId, "Test Admin", "admin@shop.local", models.UserRoleAdmin); err != nil {
		t.Fatalf("EnsureUser: %v", err)
	}
	return ctx
}

type fixture struct {
	ctx      context.Context
	shop     *models.Location
	job      *models.Location
	material *models.Material
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := setupTestDB(t)

	shop, err := models.CreateLocation(ctx, &models.NewLocation{Name: "Main Shop", Type: models.LocationTypeShop})
	if err != nil {
		t.Fatalf("CreateLocation shop: %v", err)
	}
	job, err := models.CreateLocation(ctx, &models.NewLocation{Name: "6-2523", Type: models.LocationTypeJob})
	if err != nil {
		t.Fatalf("CreateLocation job: %v", err)
	}
	material, err := models.CreateMaterial(ctx, &models.NewMaterial{Name: "Maple Ply 3/4", Category: models.MaterialCategoryWoodSheets})
	if err != nil {
		t.Fatalf("CreateMaterial: %v", err)
	}
	return &fixture{ctx: ctx, shop: shop, job: job, material: material}
}

func (f *fixture) balance(t *testing.T, locationId string) int {
	t.Helper()
	b, err := models.GetInventoryBalance(f.ctx, f.material.ID, locationId)
	if err != nil {
		t.Fatalf("GetInventoryBalance: %v", err)
	}
	return b.Quantity
}

func (f *fixture) total(t *testing.T) int {
	t.Helper()
	v, err := models.GetMaterialTotal(f.ctx, f.material.ID)
	if err != nil {
		t.Fatalf("GetMaterialTotal: %v", err)
	}
	return v
}

// assertConsistent checks the cached total against the ledger.
func assertConsistent(t *testing.T, ctx context.Context, materialId string) {
	t.Helper()
	sum, err := models.SumInventoryBalances(config.GetDB().WithContext(ctx), materialId)
	if err != nil {
		t.Fatalf("SumInventoryBalances: %v", err)
	}
	total, err := models.GetMaterialTotal(ctx, materialId)
	if err != nil {
		t.Fatalf("GetMaterialTotal: %v", err)
	}
	if total != sum {
		t.Fatalf("total %d != sum(balances) %d", total, sum)
	}
}

func countRecords(t *testing.T, ctx context.Context) int64 {
	t.Helper()
	var n int64
	if err := config.GetDB().WithContext(ctx).Model(&models.TransactionRecord{}).Count(&n).Error; err != nil {
		t.Fatalf("count records: %v", err)
	}
	return n
}

func expectErr(t *testing.T, err error, target error) {
	t.Helper()
	if !errors.Is(err, target) {
		t.Fatalf("expected %v, got %v", target, err)
	}
}

func receive(t *testing.T, f *fixture, qty int) *models.TransactionRecord {
	t.Helper()
	rec, err := models.Receive(f.ctx, &models.ReceiveInput{MaterialId: f.material.ID, Quantity: qty})
	if err != nil {
		t.Fatalf("Receive(%d): %v", qty, err)
	}
	return rec
}
