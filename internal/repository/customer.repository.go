package repository

import (
	"context"

	"github.com/nimasrn/baki-ledger/internal/model"
	"github.com/nimasrn/baki-ledger/pkg/db"
)

type CustomerRepository struct {
	*db.DB
}

func NewCustomerRepository(conn *db.DB) *CustomerRepository {
	return &CustomerRepository{
		conn,
	}
}

// Create inserts a customer with a zero balance; the name must already be canonical.
func (r *CustomerRepository) Create(ctx context.Context, c *model.Customer) (*model.Customer, error) {
	entity := toCustomerEntity(c)
	entity.ID = 0
	entity.TotalCredit = 0

	if err := r.Write(ctx).Create(entity).Error; err != nil {
		return nil, translate("insert customer", err, nil)
	}

	return toCustomerModel(entity), nil
}

func (r *CustomerRepository) Get(ctx context.Context, id int64) (*model.Customer, error) {
	var entity CustomerEntity
	err := r.Read(ctx).
		Where("id = ?", id).
		First(&entity).
		Error
	if err != nil {
		return nil, translate("get customer", err, customerNotFound(id))
	}
	return toCustomerModel(&entity), nil
}

func (r *CustomerRepository) FindByName(ctx context.Context, canonical string) (*model.Customer, error) {
	var entity CustomerEntity
	err := r.Read(ctx).
		Where("name = ?", canonical).
		First(&entity).
		Error
	if err != nil {
		return nil, translate("find customer by name", err, &model.NotFoundError{Entity: "customer", Key: canonical})
	}
	return toCustomerModel(&entity), nil
}

// List returns customers by balance, highest first.
func (r *CustomerRepository) List(ctx context.Context, f model.CustomerFilter) ([]*model.Customer, error) {
	q := r.Read(ctx).Model(&CustomerEntity{})

	if query := model.CanonicalName(f.Query); query != "" {
		q = q.Where(`name LIKE ? ESCAPE '\'`, containsPattern(query))
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}
	if f.Offset > 0 {
		q = q.Offset(f.Offset)
	}

	var entities []*CustomerEntity
	if err := q.Order("total_credit DESC").Order("id ASC").Find(&entities).Error; err != nil {
		return nil, translate("list customers", err, nil)
	}
	return toCustomerModels(entities), nil
}

func (r *CustomerRepository) ListIDs(ctx context.Context) ([]int64, error) {
	var ids []int64
	if err := r.Read(ctx).Model(&CustomerEntity{}).Order("id ASC").Pluck("id", &ids).Error; err != nil {
		return nil, translate("list customer ids", err, nil)
	}
	return ids, nil
}

func (r *CustomerRepository) Rename(ctx context.Context, id int64, canonical string) error {
	result := r.Write(ctx).
		Model(&CustomerEntity{}).
		Where("id = ?", id).
		Update("name", canonical)
	if result.Error != nil {
		return translate("rename customer", result.Error, nil)
	}
	if result.RowsAffected == 0 {
		return customerNotFound(id)
	}
	return nil
}

// UpdateBalance overwrites the cached total_credit.
func (r *CustomerRepository) UpdateBalance(ctx context.Context, id int64, total int64) error {
	result := r.Write(ctx).
		Model(&CustomerEntity{}).
		Where("id = ?", id).
		Update("total_credit", total)
	if result.Error != nil {
		return translate("update customer balance", result.Error, nil)
	}
	if result.RowsAffected == 0 {
		return customerNotFound(id)
	}
	return nil
}

// Delete removes the customer row only. Callers delete the customer's
// transactions first in the same transaction; the foreign key rejects orphans.
func (r *CustomerRepository) Delete(ctx context.Context, id int64) error {
	result := r.Write(ctx).
		Where("id = ?", id).
		Delete(&CustomerEntity{})
	if result.Error != nil {
		return translate("delete customer", result.Error, nil)
	}
	if result.RowsAffected == 0 {
		return customerNotFound(id)
	}
	return nil
}
