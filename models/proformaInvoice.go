package models

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tradeflowdata/exim_backend/config"
	"github.com/tradeflowdata/exim_backend/utils"
	"gorm.io/gorm"
)

// ProformaInvoice is the sales order (PI) dispatches are fulfilled
// against over time, possibly by many purchase orders.
type ProformaInvoice struct {
	ID            int                    `gorm:"primary_key" json:"id"`
	VoucherNumber string                 `gorm:"size:100;index;not null" json:"voucher_number" binding:"required"`
	CompanyId     int                    `gorm:"index" json:"company_id"`
	Consignee     string                 `gorm:"size:255" json:"consignee"`
	PiDate        time.Time              `gorm:"index;not null" json:"pi_date" binding:"required"`
	Notes         string                 `gorm:"type:text" json:"notes"`
	Items         []ProformaInvoiceItem  `json:"items"`
	CreatedAt     time.Time              `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time              `gorm:"autoUpdateTime" json:"updated_at"`
}

// Item order is the PI's line order; fuzzy resolver matching picks the
// FIRST entry in this order, so it must stay stable.
type ProformaInvoiceItem struct {
	ID                int             `gorm:"primary_key" json:"id"`
	ProformaInvoiceId int             `gorm:"index;not null" json:"proforma_invoice_id"`
	ProductId         int             `gorm:"index;not null" json:"product_id"`
	Sku               string          `gorm:"size:100" json:"sku"`
	ProductName       string          `gorm:"size:255" json:"product_name"`
	Quantity          decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"quantity"`
	Rate              decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"rate"`
}

func (pi ProformaInvoice) GetCursor() string {
	return fmt.Sprint(pi.ID)
}

type NewProformaInvoice struct {
	VoucherNumber string                   `json:"voucher_number" binding:"required"`
	CompanyId     int                      `json:"company_id"`
	Consignee     string                   `json:"consignee"`
	PiDate        time.Time                `json:"pi_date" binding:"required"`
	Notes         string                   `json:"notes"`
	Items         []NewProformaInvoiceItem `json:"items" binding:"required,dive"`
}

type NewProformaInvoiceItem struct {
	ProductId   int             `json:"product_id" binding:"required"`
	Sku         string          `json:"sku"`
	ProductName string          `json:"product_name"`
	Quantity    decimal.Decimal `json:"quantity"`
	Rate        decimal.Decimal `json:"rate"`
}

// validate input for both create & update. (id = 0 for create)
func (input *NewProformaInvoice) validate(ctx context.Context, id int) error {
	if err := utils.ValidateUnique[ProformaInvoice](ctx, "voucher_number", input.VoucherNumber, id); err != nil {
		return err
	}
	if input.CompanyId > 0 {
		if err := utils.ValidateResourceId[Company](ctx, input.CompanyId); err != nil {
			return err
		}
	}
	return nil
}

func (input *NewProformaInvoice) items() []ProformaInvoiceItem {
	items := make([]ProformaInvoiceItem, 0, len(input.Items))
	for _, item := range input.Items {
		items = append(items, ProformaInvoiceItem{
			ProductId:   item.ProductId,
			Sku:         item.Sku,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			Rate:        item.Rate,
		})
	}
	return items
}

func CreateProformaInvoice(ctx context.Context, input *NewProformaInvoice) (*ProformaInvoice, error) {

	if err := input.validate(ctx, 0); err != nil {
		return nil, err
	}

	pi := ProformaInvoice{
		VoucherNumber: input.VoucherNumber,
		CompanyId:     input.CompanyId,
		Consignee:     input.Consignee,
		PiDate:        input.PiDate,
		Notes:         input.Notes,
		Items:         input.items(),
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&pi).Error; err != nil {
		return nil, err
	}
	return &pi, nil
}

func UpdateProformaInvoice(ctx context.Context, id int, input *NewProformaInvoice) (*ProformaInvoice, error) {

	if err := input.validate(ctx, id); err != nil {
		return nil, err
	}

	pi, err := utils.FetchModel[ProformaInvoice](ctx, id, "Items")
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// replace line items wholesale; their order defines matching order
		if err := tx.Where("proforma_invoice_id = ?", pi.ID).Delete(&ProformaInvoiceItem{}).Error; err != nil {
			return err
		}
		pi.VoucherNumber = input.VoucherNumber
		pi.CompanyId = input.CompanyId
		pi.Consignee = input.Consignee
		pi.PiDate = input.PiDate
		pi.Notes = input.Notes
		pi.Items = input.items()
		return tx.Save(pi).Error
	})
	if err != nil {
		return nil, err
	}
	return pi, nil
}

func DeleteProformaInvoice(ctx context.Context, id int) (*ProformaInvoice, error) {

	pi, err := utils.FetchModel[ProformaInvoice](ctx, id, "Items")
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("proforma_invoice_id = ?", pi.ID).Delete(&ProformaInvoiceItem{}).Error; err != nil {
			return err
		}
		return tx.Delete(pi).Error
	})
	if err != nil {
		return nil, err
	}
	return pi, nil
}

func GetProformaInvoice(ctx context.Context, id int) (*ProformaInvoice, error) {
	return utils.FetchModel[ProformaInvoice](ctx, id, "Items")
}

func PaginateProformaInvoice(
	ctx context.Context, limit int, after *string,

	voucherNumber *string,
	consignee *string,
	startPiDate *time.Time,
	endPiDate *time.Time,
) ([]Edge[ProformaInvoice], *PageInfo, error) {

	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Model(&ProformaInvoice{}).Preload("Items")
	if voucherNumber != nil && *voucherNumber != "" {
		dbCtx.Where("voucher_number LIKE ?", "%"+*voucherNumber+"%")
	}
	if consignee != nil && *consignee != "" {
		dbCtx.Where("consignee LIKE ?", "%"+*consignee+"%")
	}
	if startPiDate != nil && endPiDate != nil {
		dbCtx.Where("pi_date BETWEEN ? AND ?", startPiDate, endPiDate)
	}

	return FetchPagePureCursor[ProformaInvoice](dbCtx, limit, after, "id", "<")
}
