package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"tripletex-bridge/internal/model"
)

type RefundRepository interface {
	Upsert(ctx context.Context, refunds []model.Refund) error
	UpsertLineItems(ctx context.Context, items []model.LineItemProductRefund) error
	ListByOrderIDs(ctx context.Context, orderIDs []int64) ([]model.Refund, error)
	ListLineItemsByRefundIDs(ctx context.Context, refundIDs []int64) ([]model.LineItemProductRefund, error)
}

type refundRepoImpl struct {
	db *gorm.DB
}

func NewRefundRepository(db *gorm.DB) RefundRepository {
	return &refundRepoImpl{db: db}
}

func (r *refundRepoImpl) Upsert(ctx context.Context, refunds []model.Refund) error {
	if len(refunds) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&refunds).Error
}

func (r *refundRepoImpl) UpsertLineItems(ctx context.Context, items []model.LineItemProductRefund) error {
	if len(items) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&items).Error
}

func (r *refundRepoImpl) ListByOrderIDs(ctx context.Context, orderIDs []int64) ([]model.Refund, error) {
	var refunds []model.Refund
	if len(orderIDs) == 0 {
		return refunds, nil
	}
	err := r.db.WithContext(ctx).
		Where("order_id IN ?", orderIDs).
		Order("id").
		Find(&refunds).Error
	return refunds, err
}

func (r *refundRepoImpl) ListLineItemsByRefundIDs(ctx context.Context, refundIDs []int64) ([]model.LineItemProductRefund, error) {
	var items []model.LineItemProductRefund
	if len(refundIDs) == 0 {
		return items, nil
	}
	err := r.db.WithContext(ctx).
		Where("refund_id IN ?", refundIDs).
		Order("id").
		Find(&items).Error
	return items, err
}
