package models

import (
	"log"

	"github.com/tradeflowdata/exim_backend/config"
)

func MigrateTable() {
	db := config.GetDB()

	err := db.AutoMigrate(
		&Company{}, &Product{}, &Warehouse{},
		&ProformaInvoice{}, &ProformaInvoiceItem{},
		&PurchaseOrder{}, &PurchaseOrderItem{},
		&InwardMovement{}, &InwardMovementItem{},
		&OutwardMovement{}, &OutwardMovementItem{},
		&TrackingRecord{},
	)
	if err != nil {
		log.Fatal(err)
	}
	log.Println("migrations completed")
}
