package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"tripletex-bridge/internal/model"
)

type OrderRepository interface {
	Upsert(ctx context.Context, orders []model.Order) error
	ListByCreatedRange(ctx context.Context, from, to *time.Time) ([]model.Order, error)
	ListRefundedIDs(ctx context.Context, from, to *time.Time) ([]int64, error)
}

type orderRepoImpl struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepoImpl{db: db}
}

func (r *orderRepoImpl) Upsert(ctx context.Context, orders []model.Order) error {
	if len(orders) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&orders).Error
}

func (r *orderRepoImpl) ListByCreatedRange(ctx context.Context, from, to *time.Time) ([]model.Order, error) {
	var orders []model.Order
	err := rangeQuery(r.db.WithContext(ctx), from, to).
		Order("id").
		Find(&orders).Error
	return orders, err
}

// ListRefundedIDs returns ids of orders in the window whose financial status
// indicates a full or partial refund; only those need their refunds fetched.
func (r *orderRepoImpl) ListRefundedIDs(ctx context.Context, from, to *time.Time) ([]int64, error) {
	var ids []int64
	err := rangeQuery(r.db.WithContext(ctx), from, to).
		Model(&model.Order{}).
		Where("financial_status LIKE ?", "%refund%").
		Order("id").
		Pluck("id", &ids).Error
	return ids, err
}

func rangeQuery(db *gorm.DB, from, to *time.Time) *gorm.DB {
	if from != nil {
		db = db.Where("created_at >= ?", *from)
	}
	if to != nil {
		// To is inclusive: take everything created before the next day.
		db = db.Where("created_at < ?", to.AddDate(0, 0, 1))
	}
	return db
}
