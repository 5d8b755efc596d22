// tracking-rebuild recomputes tracking records from the Active movement
// history: one (product, warehouse) scope when both flags are given, or
// every discovered scope otherwise. Run it after manual data surgery or
// when incremental tracking state is suspected to have drifted.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/tradeflowdata/exim_backend/config"
	"github.com/tradeflowdata/exim_backend/ledger"
	"github.com/tradeflowdata/exim_backend/models"
)

func main() {
	productID := flag.Int("product-id", 0, "Optional: product id (requires --warehouse-id)")
	warehouseID := flag.Int("warehouse-id", 0, "Optional: warehouse id (requires --product-id)")
	continueOnError := flag.Bool("continue-on-error", false, "Skip failing scopes and continue rebuilding others")
	flag.Parse()

	if (*productID > 0) != (*warehouseID > 0) {
		fmt.Fprintln(os.Stderr, "--product-id and --warehouse-id must be given together")
		os.Exit(1)
	}

	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized")
		os.Exit(1)
	}
	logger := logrus.New()

	var scopes []models.StockScope
	if *productID > 0 {
		scopes = append(scopes, models.StockScope{ProductId: *productID, WarehouseId: *warehouseID})
	} else {
		var err error
		scopes, err = ledger.RebuildScope(db)
		if err != nil {
			fmt.Fprintf(os.Stderr, "discover scopes: %v\n", err)
			os.Exit(1)
		}
	}

	for _, s := range scopes {
		fmt.Printf("Rebuilding warehouse=%d product=%d\n", s.WarehouseId, s.ProductId)
		err := db.Transaction(func(tx *gorm.DB) error {
			_, err := ledger.RebuildTracking(tx, logger, s.ProductId, s.WarehouseId)
			return err
		})
		if err != nil {
			if *continueOnError {
				fmt.Fprintf(os.Stderr, "rebuild failed (skipping): %v\n", err)
				continue
			}
			fmt.Fprintf(os.Stderr, "rebuild failed: %v\n", err)
			os.Exit(1)
		}
	}

	fmt.Println("tracking rebuild complete")
}
