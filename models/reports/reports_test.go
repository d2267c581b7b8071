package reports_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mmdatafocus/cabinet_inventory/config"
	"github.com/mmdatafocus/cabinet_inventory/models"
	"github.com/mmdatafocus/cabinet_inventory/models/reports"
	"github.com/mmdatafocus/cabinet_inventory/utils"
)

type shopData struct {
	ctx     context.Context
	shop    *models.Location
	kitchen *models.Location
	vanity  *models.Location
	ply     *models.Material
	hinge   *models.Material
}

func setupShop(t *testing.T) *shopData {
	t.Helper()
	t.Setenv("REDIS_ADDRESS", "")
	t.Setenv("INVENTORY_EVENTS_TOPIC", "")

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_pragma=foreign_keys(1)", uuid.NewString())
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

	userId := "reports-" + uuid.NewString()
	ctx := utils.SetActorInContext(context.Background(), userId, "Reporter", string(models.UserRoleAdmin))
	if err := models.EnsureUser(ctx, userId, "Reporter", "", models.UserRoleAdmin); err != nil {
		t.Fatalf("EnsureUser: %v", err)
	}

	d := &shopData{ctx: ctx}
	mustLoc := func(name string, typ models.LocationType) *models.Location {
		l, err := models.CreateLocation(ctx, &models.NewLocation{Name: name, Type: typ})
		if err != nil {
			t.Fatalf("CreateLocation %s: %v", name, err)
		}
		return l
	}
	d.shop = mustLoc("Shop", models.LocationTypeShop)
	d.kitchen = mustLoc("Kitchen Job", models.LocationTypeJob)
	d.vanity = mustLoc("Vanity Job", models.LocationTypeJob)

	minPly := 10
	d.ply, err = models.CreateMaterial(ctx, &models.NewMaterial{Name: "Ply", Category: models.MaterialCategoryWoodSheets, MinStockLevel: &minPly})
	if err != nil {
		t.Fatalf("CreateMaterial: %v", err)
	}
	d.hinge, err = models.CreateMaterial(ctx, &models.NewMaterial{Name: "Hinge", Category: models.MaterialCategoryHinges, Unit: models.MaterialUnitPcs})
	if err != nil {
		t.Fatalf("CreateMaterial: %v", err)
	}
	return d
}

func (d *shopData) receive(t *testing.T, m *models.Material, qty int, vendor string) {
	t.Helper()
	input := &models.ReceiveInput{MaterialId: m.ID, Quantity: qty}
	if vendor != "" {
		input.Vendor = &vendor
	}
	if _, err := models.Receive(d.ctx, input); err != nil {
		t.Fatalf("Receive: %v", err)
	}
}

func (d *shopData) sendAndUse(t *testing.T, m *models.Material, job *models.Location, sent, used int) {
	t.Helper()
	if _, err := models.Transfer(d.ctx, &models.TransferInput{MaterialId: m.ID, Quantity: sent, ToLocationId: job.ID}); err != nil {
		t.Fatalf("Transfer: %v", err)
	}
	if used > 0 {
		if _, err := models.Issue(d.ctx, &models.IssueInput{MaterialId: m.ID, Quantity: used, FromLocationId: job.ID}); err != nil {
			t.Fatalf("Issue: %v", err)
		}
	}
}

func TestInventoryReportStatus(t *testing.T) {
	d := setupShop(t)
	d.receive(t, d.ply, 12, "")
	d.receive(t, d.hinge, 40, "")
	d.sendAndUse(t, d.ply, d.kitchen, 4, 0)

	rows, err := reports.GetInventoryReport(d.ctx, "", nil)
	if err != nil {
		t.Fatalf("GetInventoryReport: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("rows = %d, want 3", len(rows))
	}
	status := map[string]string{}
	for _, r := range rows {
		status[r.Location+"/"+r.Material] = r.Status
	}
	if status["Shop/Ply"] != reports.StockStatusLow {
		t.Errorf("Shop/Ply = %q, want Low Stock (8 < 10)", status["Shop/Ply"])
	}
	if status["Kitchen Job/Ply"] != reports.StockStatusLow {
		t.Errorf("Kitchen Job/Ply = %q, want Low Stock", status["Kitchen Job/Ply"])
	}
	if status["Shop/Hinge"] != reports.StockStatusOK {
		t.Errorf("Shop/Hinge = %q, want OK", status["Shop/Hinge"])
	}

	sheets := models.MaterialCategoryWoodSheets
	filtered, err := reports.GetInventoryReport(d.ctx, d.shop.ID, &sheets)
	if err != nil {
		t.Fatalf("GetInventoryReport filtered: %v", err)
	}
	if len(filtered) != 1 || filtered[0].Quantity != 8 {
		t.Fatalf("filtered rows = %+v", filtered)
	}
}

func TestPurchaseHistoryGroupsByVendor(t *testing.T) {
	d := setupShop(t)
	d.receive(t, d.ply, 5, "Acme Lumber")
	d.receive(t, d.hinge, 50, "Blum")
	d.receive(t, d.ply, 7, "Acme Lumber")
	d.receive(t, d.ply, 1, "")

	groups, err := reports.GetPurchaseHistoryReport(d.ctx, reports.DateRange{})
	if err != nil {
		t.Fatalf("GetPurchaseHistoryReport: %v", err)
	}
	if len(groups) != 2 {
		t.Fatalf("vendors = %d, want 2", len(groups))
	}
	if groups[0].Vendor != "Acme Lumber" || len(groups[0].Purchases) != 2 {
		t.Fatalf("first group = %s with %d purchases", groups[0].Vendor, len(groups[0].Purchases))
	}
	if groups[0].Purchases[0].Quantity != 7 {
		t.Fatalf("newest Acme purchase = %d, want 7", groups[0].Purchases[0].Quantity)
	}

	future := time.Now().Add(time.Hour)
	empty, err := reports.GetPurchaseHistoryReport(d.ctx, reports.DateRange{From: &future})
	if err != nil {
		t.Fatalf("GetPurchaseHistoryReport range: %v", err)
	}
	if len(empty) != 0 {
		t.Fatalf("future range returned %d groups", len(empty))
	}
}

func TestUsageByJob(t *testing.T) {
	d := setupShop(t)
	d.receive(t, d.ply, 20, "")
	d.receive(t, d.hinge, 30, "")
	d.sendAndUse(t, d.ply, d.kitchen, 10, 3)
	d.sendAndUse(t, d.ply, d.kitchen, 5, 4)
	d.sendAndUse(t, d.hinge, d.kitchen, 10, 8)
	d.sendAndUse(t, d.hinge, d.vanity, 6, 6)

	jobs, err := reports.GetUsageByJobReport(d.ctx, reports.DateRange{})
	if err != nil {
		t.Fatalf("GetUsageByJobReport: %v", err)
	}
	if len(jobs) != 2 {
		t.Fatalf("jobs = %d, want 2", len(jobs))
	}
	kitchen := jobs[0]
	if kitchen.JobName != "Kitchen Job" || len(kitchen.Materials) != 2 {
		t.Fatalf("kitchen = %+v", kitchen)
	}
	used := map[string]int{}
	for _, m := range kitchen.Materials {
		used[m.MaterialName] = m.TotalQuantity
	}
	if used["Ply"] != 7 || used["Hinge"] != 8 {
		t.Fatalf("kitchen usage = %v", used)
	}
	if jobs[1].JobName != "Vanity Job" || jobs[1].Materials[0].TotalQuantity != 6 {
		t.Fatalf("vanity = %+v", jobs[1])
	}
}

func TestDashboardStats(t *testing.T) {
	d := setupShop(t)
	d.receive(t, d.ply, 12, "")
	d.receive(t, d.hinge, 40, "")
	d.sendAndUse(t, d.ply, d.kitchen, 4, 1)
	if _, err := models.ToggleActiveLocation(d.ctx, d.vanity.ID, false); err != nil {
		t.Fatalf("ToggleActiveLocation: %v", err)
	}

	stats, err := reports.GetDashboardStats(d.ctx)
	if err != nil {
		t.Fatalf("GetDashboardStats: %v", err)
	}
	if stats.Stats.TotalMaterials != 2 || stats.Stats.TotalLocations != 3 || stats.Stats.ActiveJobs != 1 {
		t.Fatalf("counts = %+v", stats.Stats)
	}
	// Shop/Ply 8 and Kitchen/Ply 3 are under 10
	if stats.Stats.LowStockItems != 2 {
		t.Fatalf("lowStockItems = %d, want 2", stats.Stats.LowStockItems)
	}
	if stats.InventoryByCategory[string(models.MaterialCategoryWoodSheets)] != 11 {
		t.Fatalf("WoodSheets = %d, want 11", stats.InventoryByCategory[string(models.MaterialCategoryWoodSheets)])
	}
	if stats.InventoryByCategory[string(models.MaterialCategoryHinges)] != 40 {
		t.Fatalf("Hinges = %d, want 40", stats.InventoryByCategory[string(models.MaterialCategoryHinges)])
	}
	byLoc := map[string]int{}
	for _, l := range stats.InventoryByLocation {
		byLoc[l.Name] = l.TotalItems
	}
	if byLoc["Shop"] != 48 || byLoc["Kitchen Job"] != 3 || byLoc["Vanity Job"] != 0 {
		t.Fatalf("by location = %v", byLoc)
	}
	if len(stats.RecentTransactions) != 4 {
		t.Fatalf("recent = %d, want 4", len(stats.RecentTransactions))
	}
	if stats.RecentTransactions[0].Type != models.TransactionTypeIssue || stats.RecentTransactions[0].UserName != "Reporter" {
		t.Fatalf("most recent = %+v", stats.RecentTransactions[0])
	}
}
