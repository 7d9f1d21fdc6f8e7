package models

import (
	"github.com/retailops/backend/internal/domain/partner"
	"github.com/shopspring/decimal"
)

// CustomerModel stores a customer and the store credit balance that sales
// returns top up.
type CustomerModel struct {
	AggregateModel
	Code        string          `gorm:"type:varchar(50);not null;uniqueIndex"`
	Name        string          `gorm:"type:varchar(200);not null"`
	Email       string          `gorm:"type:varchar(200);index"`
	StoreCredit decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
}

func (CustomerModel) TableName() string { return "customers" }

func (m *CustomerModel) ToDomain() *partner.Customer {
	c := &partner.Customer{Code: m.Code, Name: m.Name, Email: m.Email, StoreCredit: m.StoreCredit}
	c.BaseAggregateRoot = m.Root()
	return c
}

func CustomerModelFromDomain(c *partner.Customer) *CustomerModel {
	m := &CustomerModel{Code: c.Code, Name: c.Name, Email: c.Email, StoreCredit: c.StoreCredit}
	m.SetRoot(c.BaseAggregateRoot)
	return m
}
