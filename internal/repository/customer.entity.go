package repository

import (
	"github.com/nimasrn/baki-ledger/internal/model"
)

type CustomerEntity struct {
	ID          int64  `db:"id"           gorm:"primaryKey;column:id"`
	Name        string `db:"name"         gorm:"column:name;not null;unique"`
	TotalCredit int64  `db:"total_credit" gorm:"column:total_credit;not null;default:0"`
}

func (CustomerEntity) TableName() string {
	return "customers"
}

func toCustomerEntity(m *model.Customer) *CustomerEntity {
	if m == nil {
		return nil
	}
	return &CustomerEntity{
		ID:          m.ID,
		Name:        m.Name,
		TotalCredit: m.TotalCredit,
	}
}

func toCustomerModel(e *CustomerEntity) *model.Customer {
	if e == nil {
		return nil
	}
	return &model.Customer{
		ID:          e.ID,
		Name:        e.Name,
		DisplayName: model.DisplayName(e.Name),
		TotalCredit: e.TotalCredit,
	}
}

func toCustomerModels(entities []*CustomerEntity) []*model.Customer {
	models := make([]*model.Customer, len(entities))
	for i, e := range entities {
		models[i] = toCustomerModel(e)
	}
	return models
}
