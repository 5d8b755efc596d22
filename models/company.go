package models

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/tradeflowdata/exim_backend/config"
	"github.com/tradeflowdata/exim_backend/utils"
)

type Company struct {
	ID        int       `gorm:"primary_key" json:"id"`
	Name      string    `gorm:"size:255;not null" json:"name" binding:"required"`
	IecNumber string    `gorm:"size:20" json:"iec_number"`
	GstNumber string    `gorm:"size:20" json:"gst_number"`
	Address   string    `gorm:"type:text" json:"address"`
	Country   string    `gorm:"size:100" json:"country"`
	City      string    `gorm:"size:100" json:"city"`
	Phone     string    `gorm:"size:20" json:"phone"`
	Email     string    `gorm:"size:100" json:"email"`
	IsActive  *bool     `gorm:"not null;default:true" json:"is_active"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewCompany struct {
	Name      string `json:"name" binding:"required"`
	IecNumber string `json:"iec_number"`
	GstNumber string `json:"gst_number"`
	Address   string `json:"address"`
	Country   string `json:"country"`
	City      string `json:"city"`
	Phone     string `json:"phone"`
	Email     string `json:"email"`
}

// validate input for both create & update. (id = 0 for create)
func (input *NewCompany) validate(ctx context.Context, id int) error {
	// name
	if err := utils.ValidateUnique[Company](ctx, "name", input.Name, id); err != nil {
		return err
	}
	// phone
	if len(strings.TrimSpace(input.Phone)) > 0 {
		if err := utils.ValidatePhoneNumber(input.Phone, utils.CountryCode); err != nil {
			return err
		}
	}
	// email
	if len(strings.TrimSpace(input.Email)) > 0 && !utils.IsValidEmail(input.Email) {
		return errors.New("invalid email")
	}
	return nil
}

func CreateCompany(ctx context.Context, input *NewCompany) (*Company, error) {

	if err := input.validate(ctx, 0); err != nil {
		return nil, err
	}

	company := Company{
		Name:      input.Name,
		IecNumber: input.IecNumber,
		GstNumber: input.GstNumber,
		Address:   input.Address,
		Country:   input.Country,
		City:      input.City,
		Phone:     input.Phone,
		Email:     input.Email,
		IsActive:  utils.NewTrue(),
	}

	// db action
	db := config.GetDB()
	err := db.WithContext(ctx).Create(&company).Error
	if err != nil {
		return nil, err
	}
	return &company, nil
}

func UpdateCompany(ctx context.Context, id int, input *NewCompany) (*Company, error) {

	if err := input.validate(ctx, id); err != nil {
		return nil, err
	}

	company, err := utils.FetchModel[Company](ctx, id)
	if err != nil {
		return nil, err
	}

	company.Name = input.Name
	company.IecNumber = input.IecNumber
	company.GstNumber = input.GstNumber
	company.Address = input.Address
	company.Country = input.Country
	company.City = input.City
	company.Phone = input.Phone
	company.Email = input.Email

	db := config.GetDB()
	if err := db.WithContext(ctx).Save(company).Error; err != nil {
		return nil, err
	}
	return company, nil
}

func DeleteCompany(ctx context.Context, id int) (*Company, error) {

	company, err := utils.FetchModel[Company](ctx, id)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Delete(company).Error; err != nil {
		return nil, err
	}
	return company, nil
}

func GetCompany(ctx context.Context, id int) (*Company, error) {
	return utils.FetchModel[Company](ctx, id)
}

func GetCompanies(ctx context.Context, name *string) ([]*Company, error) {
	db := config.GetDB()
	var results []*Company

	dbCtx := db.WithContext(ctx)
	if name != nil && len(*name) > 0 {
		dbCtx = dbCtx.Where("name LIKE ?", "%"+*name+"%")
	}
	err := dbCtx.Limit(config.SearchLimit).Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}
