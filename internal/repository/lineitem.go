package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"tripletex-bridge/internal/model"
)

type LineItemRepository interface {
	Upsert(ctx context.Context, items []model.LineItemProduct) error
	ListByOrderIDs(ctx context.Context, orderIDs []int64) ([]model.LineItemProduct, error)
}

type lineItemRepoImpl struct {
	db *gorm.DB
}

func NewLineItemRepository(db *gorm.DB) LineItemRepository {
	return &lineItemRepoImpl{db: db}
}

func (r *lineItemRepoImpl) Upsert(ctx context.Context, items []model.LineItemProduct) error {
	if len(items) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&items).Error
}

func (r *lineItemRepoImpl) ListByOrderIDs(ctx context.Context, orderIDs []int64) ([]model.LineItemProduct, error) {
	var items []model.LineItemProduct
	if len(orderIDs) == 0 {
		return items, nil
	}
	err := r.db.WithContext(ctx).
		Where("order_id IN ?", orderIDs).
		Order("id").
		Find(&items).Error
	return items, err
}
