package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"tripletex-bridge/internal/model"
)

type TransactionRepository interface {
	Upsert(ctx context.Context, txns []model.Transaction) error
	ListByOrderIDs(ctx context.Context, orderIDs []int64) ([]model.Transaction, error)
}

type transactionRepoImpl struct {
	db *gorm.DB
}

func NewTransactionRepository(db *gorm.DB) TransactionRepository {
	return &transactionRepoImpl{db: db}
}

func (r *transactionRepoImpl) Upsert(ctx context.Context, txns []model.Transaction) error {
	if len(txns) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&txns).Error
}

func (r *transactionRepoImpl) ListByOrderIDs(ctx context.Context, orderIDs []int64) ([]model.Transaction, error) {
	var txns []model.Transaction
	if len(orderIDs) == 0 {
		return txns, nil
	}
	err := r.db.WithContext(ctx).
		Where("order_id IN ?", orderIDs).
		Order("id").
		Find(&txns).Error
	return txns, err
}
