// seed-admin creates the SHOP location and an Admin user when they are missing,
// then prints a bearer token for that user.
//
// Usage:
//   DB_DRIVER=sqlite SQLITE_PATH=./data/inventory.db go run ./cmd/seed-admin -email owner@shop.local
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/mmdatafocus/cabinet_inventory/config"
	"github.com/mmdatafocus/cabinet_inventory/models"
	"github.com/mmdatafocus/cabinet_inventory/utils"
)

func main() {
	userID := flag.String("user-id", "admin", "Id of the admin user (the identity provider's subject)")
	name := flag.String("name", "Shop Admin", "Display name of the admin user")
	email := flag.String("email", "", "Optional: email of the admin user")
	shopName := flag.String("shop-name", "Shop", "Name used when the SHOP location has to be created")
	migrate := flag.Bool("migrate", true, "Run AutoMigrate before seeding")
	flag.Parse()

	ctx := context.Background()
	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized (config.GetDB returned nil). Set DB_* env vars.")
		os.Exit(1)
	}
	if *migrate {
		models.MigrateTable()
	}

	shop, err := models.GetShopLocation(ctx)
	switch {
	case errors.Is(err, models.ErrNoShopLocation):
		shop, err = models.CreateLocation(ctx, &models.NewLocation{Name: strings.TrimSpace(*shopName), Type: models.LocationTypeShop})
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to create SHOP location: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Created SHOP location %q (%s)\n", shop.Name, shop.ID)
	case err != nil:
		fmt.Fprintf(os.Stderr, "failed to lookup SHOP location: %v\n", err)
		os.Exit(1)
	default:
		fmt.Printf("SHOP location exists: %q (%s)\n", shop.Name, shop.ID)
	}

	id := strings.TrimSpace(*userID)
	if err := models.EnsureUser(ctx, id, *name, *email, models.UserRoleAdmin); err != nil {
		fmt.Fprintf(os.Stderr, "failed to create admin user: %v\n", err)
		os.Exit(1)
	}
	// an existing row keeps its fields under EnsureUser; promote it explicitly
	if err := db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Updates(map[string]any{
		"role":      models.UserRoleAdmin,
		"is_active": true,
	}).Error; err != nil {
		fmt.Fprintf(os.Stderr, "failed to update admin user: %v\n", err)
		os.Exit(1)
	}
	user, err := models.GetUser(ctx, id)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load admin user: %v\n", err)
		os.Exit(1)
	}

	token, err := utils.JwtGenerate(user.ID, user.Name, user.Email, string(models.UserRoleAdmin))
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to sign token: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Admin user: id=%q name=%q\n", user.ID, user.DisplayName())
	fmt.Printf("Bearer token:\n%s\n", token)
}
