package client

import (
	"fmt"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"tripletex-bridge/internal/model"
)

// InitSqliteClient opens (or creates) the local mirror database and migrates
// the entity schema.
func InitSqliteClient(path string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", path, err)
	}

	if err := db.AutoMigrate(
		&model.Customer{},
		&model.Order{},
		&model.LineItemProduct{},
		&model.Transaction{},
		&model.Refund{},
		&model.LineItemProductRefund{},
		&model.Shipping{},
		&model.Product{},
		&model.ProductVariant{},
	); err != nil {
		return nil, fmt.Errorf("migrate schema: %w", err)
	}

	return db, nil
}
