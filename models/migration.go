package models

import (
	"log"

	"github.com/mmdatafocus/cabinet_inventory/config"
)

func MigrateTable() {
	db := config.GetDB()

	err := db.AutoMigrate(
		&User{},
		&Material{}, &MaterialTotal{},
		&Location{},
		&InventoryBalance{},
		&TransactionRecord{}, &InvoicePhoto{},
	)
	if err != nil {
		log.Fatal(err)
	}
}
