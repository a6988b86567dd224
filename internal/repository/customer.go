package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"tripletex-bridge/internal/model"
)

type CustomerRepository interface {
	Upsert(ctx context.Context, customers []model.Customer) error
	ListByIDs(ctx context.Context, ids []int64) ([]model.Customer, error)
}

type customerRepoImpl struct {
	db *gorm.DB
}

func NewCustomerRepository(db *gorm.DB) CustomerRepository {
	return &customerRepoImpl{db: db}
}

func (r *customerRepoImpl) Upsert(ctx context.Context, customers []model.Customer) error {
	if len(customers) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&customers).Error
}

func (r *customerRepoImpl) ListByIDs(ctx context.Context, ids []int64) ([]model.Customer, error) {
	var customers []model.Customer
	if len(ids) == 0 {
		return customers, nil
	}
	err := r.db.WithContext(ctx).
		Where("id IN ?", ids).
		Order("id").
		Find(&customers).Error
	return customers, err
}
