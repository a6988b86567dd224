package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"tripletex-bridge/internal/model"
)

type ShippingRepository interface {
	Upsert(ctx context.Context, rows []model.Shipping) error
	ListByOrderIDs(ctx context.Context, orderIDs []int64) ([]model.Shipping, error)
	ListWithCoordinates(ctx context.Context) ([]model.Shipping, error)
}

type shippingRepoImpl struct {
	db *gorm.DB
}

func NewShippingRepository(db *gorm.DB) ShippingRepository {
	return &shippingRepoImpl{db: db}
}

func (r *shippingRepoImpl) Upsert(ctx context.Context, rows []model.Shipping) error {
	if len(rows) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&rows).Error
}

func (r *shippingRepoImpl) ListByOrderIDs(ctx context.Context, orderIDs []int64) ([]model.Shipping, error) {
	var rows []model.Shipping
	if len(orderIDs) == 0 {
		return rows, nil
	}
	err := r.db.WithContext(ctx).
		Where("order_id IN ?", orderIDs).
		Order("id").
		Find(&rows).Error
	return rows, err
}

// ListWithCoordinates feeds the shipping heatmap; rows without geocoding are
// of no use there.
func (r *shippingRepoImpl) ListWithCoordinates(ctx context.Context) ([]model.Shipping, error) {
	var rows []model.Shipping
	err := r.db.WithContext(ctx).
		Where("latitude IS NOT NULL AND longitude IS NOT NULL").
		Order("id").
		Find(&rows).Error
	return rows, err
}
