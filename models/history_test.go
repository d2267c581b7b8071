package models_test

import (
	"testing"

	"github.com/mmdatafocus/cabinet_inventory/models"
	"github.com/mmdatafocus/cabinet_inventory/utils"
)

func TestTransactionHistory(t *testing.T) {
	f := newFixture(t)
	receive(t, f, 30)
	transfer, err := models.Transfer(f.ctx, &models.TransferInput{MaterialId: f.material.ID, Quantity: 10, ToLocationId: f.job.ID})
	if err != nil {
		t.Fatalf("Transfer: %v", err)
	}
	issue, err := models.Issue(f.ctx, &models.IssueInput{MaterialId: f.material.ID, Quantity: 4, FromLocationId: f.job.ID})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, err := models.Adjust(f.ctx, &models.AdjustInput{
		MaterialId: f.material.ID, LocationId: f.job.ID, QuantityDelta: -1, Reason: "miscount", OriginalTransactionId: &issue.ID,
	}); err != nil {
		t.Fatalf("Adjust: %v", err)
	}

	all, err := models.GetTransactionHistory(f.ctx, models.TransactionHistoryFilter{})
	if err != nil {
		t.Fatalf("GetTransactionHistory: %v", err)
	}
	if len(all) != 4 {
		t.Fatalf("history rows = %d, want 4", len(all))
	}
	newest := all[0]
	if newest.Type != models.TransactionTypeAdjustment || newest.Quantity != -1 {
		t.Fatalf("newest row = %s %d, want ADJUSTMENT -1", newest.Type, newest.Quantity)
	}
	if newest.OriginalTransaction == nil || newest.OriginalTransaction.ID != issue.ID || newest.OriginalTransaction.Quantity != 4 {
		t.Fatalf("original summary = %+v", newest.OriginalTransaction)
	}
	if newest.UserName != "Test Admin" {
		t.Fatalf("userName = %q, want Test Admin", newest.UserName)
	}
	if newest.MaterialName != f.material.Name || newest.Category != models.MaterialCategoryWoodSheets || newest.Unit != "sheets" {
		t.Fatalf("material fields = %q %q %q", newest.MaterialName, newest.Category, newest.Unit)
	}

	atJob, err := models.GetTransactionHistory(f.ctx, models.TransactionHistoryFilter{LocationId: f.job.ID})
	if err != nil {
		t.Fatalf("GetTransactionHistory job: %v", err)
	}
	if len(atJob) != 3 {
		t.Fatalf("job rows = %d, want 3 (transfer in, issue, adjustment)", len(atJob))
	}
	last := atJob[len(atJob)-1]
	if last.ID != transfer.ID || last.FromLocationName == nil || *last.FromLocationName != f.shop.Name ||
		last.ToLocationName == nil || *last.ToLocationName != f.job.Name {
		t.Fatalf("oldest job row = %+v", last)
	}

	issueType := models.TransactionTypeIssue
	issues, err := models.GetTransactionHistory(f.ctx, models.TransactionHistoryFilter{Type: &issueType})
	if err != nil {
		t.Fatalf("GetTransactionHistory type: %v", err)
	}
	if len(issues) != 1 || issues[0].ID != issue.ID {
		t.Fatalf("issue filter returned %d rows", len(issues))
	}

	limited, err := models.GetTransactionHistory(f.ctx, models.TransactionHistoryFilter{Limit: 2})
	if err != nil {
		t.Fatalf("GetTransactionHistory limit: %v", err)
	}
	if len(limited) != 2 {
		t.Fatalf("limit rows = %d, want 2", len(limited))
	}
}

func TestHistoryUserNameFallsBackToActorId(t *testing.T) {
	f := newFixture(t)
	ctx := utils.SetActorInContext(f.ctx, "ghost-user", "", string(models.UserRoleEditor))
	rec, err := models.Receive(ctx, &models.ReceiveInput{MaterialId: f.material.ID, Quantity: 1})
	if err != nil {
		t.Fatalf("Receive: %v", err)
	}

	rows, err := models.GetTransactionHistory(f.ctx, models.TransactionHistoryFilter{})
	if err != nil {
		t.Fatalf("GetTransactionHistory: %v", err)
	}
	if len(rows) != 1 || rows[0].ID != rec.ID {
		t.Fatalf("unexpected rows: %d", len(rows))
	}
	if rows[0].UserName != "ghost-user" {
		t.Fatalf("userName = %q, want actor id fallback", rows[0].UserName)
	}
}

func TestHistoryPhotoURLs(t *testing.T) {
	f := newFixture(t)
	t.Setenv("STORAGE_ACCESS_BASE_URL", "https://cdn.shop.local/")
	if _, err := models.Receive(f.ctx, &models.ReceiveInput{
		MaterialId:    f.material.ID,
		Quantity:      2,
		InvoicePhotos: []models.NewInvoicePhoto{{CloudStoragePath: "invoices/a.jpg", IsPublic: true}},
	}); err != nil {
		t.Fatalf("Receive: %v", err)
	}

	rows, err := models.GetTransactionHistory(f.ctx, models.TransactionHistoryFilter{})
	if err != nil {
		t.Fatalf("GetTransactionHistory: %v", err)
	}
	if len(rows[0].InvoicePhotos) != 1 {
		t.Fatalf("photos = %d, want 1", len(rows[0].InvoicePhotos))
	}
	if got := rows[0].InvoicePhotos[0].Url; got != "https://cdn.shop.local/invoices/a.jpg" {
		t.Fatalf("url = %q", got)
	}
}

func TestGetInventoryFilters(t *testing.T) {
	f := newFixture(t)
	minStock := 25
	if _, err := models.UpdateMaterial(f.ctx, f.material.ID, &models.UpdateMaterialInput{MinStockLevel: &minStock}); err != nil {
		t.Fatalf("UpdateMaterial: %v", err)
	}
	receive(t, f, 40)
	if _, err := models.Transfer(f.ctx, &models.TransferInput{MaterialId: f.material.ID, Quantity: 20, ToLocationId: f.job.ID}); err != nil {
		t.Fatalf("Transfer: %v", err)
	}

	all, err := models.GetInventory(f.ctx, models.InventoryFilter{})
	if err != nil {
		t.Fatalf("GetInventory: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("rows = %d, want 2", len(all))
	}
	// ordered by location name: "6-2523" sorts before "Main Shop"
	if all[0].LocationId != f.job.ID || all[0].Quantity != 20 || !all[0].IsLowStock {
		t.Fatalf("first row = %+v", all[0])
	}

	low, err := models.GetInventory(f.ctx, models.InventoryFilter{LowStock: true})
	if err != nil {
		t.Fatalf("GetInventory lowStock: %v", err)
	}
	if len(low) != 2 {
		t.Fatalf("low stock rows = %d, want 2", len(low))
	}

	atShop, err := models.GetInventory(f.ctx, models.InventoryFilter{LocationId: f.shop.ID})
	if err != nil {
		t.Fatalf("GetInventory shop: %v", err)
	}
	if len(atShop) != 1 || atShop[0].Quantity != 20 || atShop[0].LocationName != f.shop.Name {
		t.Fatalf("shop rows = %+v", atShop)
	}

	hinges := models.MaterialCategoryHinges
	none, err := models.GetInventory(f.ctx, models.InventoryFilter{Category: &hinges})
	if err != nil {
		t.Fatalf("GetInventory category: %v", err)
	}
	if len(none) != 0 {
		t.Fatalf("hinges rows = %d, want 0", len(none))
	}
}
