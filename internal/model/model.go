package model

import "time"

// Customer mirrors a Shopify customer. IDs are Shopify's native numeric
// identifiers, up to 18 decimal digits.
type Customer struct {
	ID               int64  `gorm:"primaryKey"`
	Email            string `gorm:"size:256;index"`
	Name             string `gorm:"size:256"`
	FirstName        string `gorm:"size:128"`
	LastName         string `gorm:"size:128"`
	Phone            string `gorm:"size:32"`
	Address          string `gorm:"size:256"`
	City             string `gorm:"size:128"`
	Zip              string `gorm:"size:16"`
	Country          string `gorm:"size:128"`
	TotalSpent       float64
	VerifiedEmail    bool
	AcceptsMarketing bool
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

type Order struct {
	ID                   int64  `gorm:"primaryKey"`
	CustomerID           *int64 `gorm:"index"`
	Name                 string `gorm:"size:32;index;not null"` // e.g. "#1001"
	FinancialStatus      string `gorm:"size:32;index"`          // paid, refunded, partially_refunded, ...
	FulfillmentStatus    string `gorm:"size:32"`
	TotalPrice           float64
	TotalLineItemsPrice  float64
	TotalDiscountsAmount float64
	TotalTaxAmount       float64
	TaxesIncluded        bool
	Currency             string    `gorm:"size:8"`
	CreatedAt            time.Time `gorm:"index;not null"`
	ProcessedAt          *time.Time
	ClosedAt             *time.Time
}

type LineItemProduct struct {
	ID                  int64  `gorm:"primaryKey"`
	OrderID             int64  `gorm:"index;not null"`
	ProductID           *int64 `gorm:"index"`
	Title               string `gorm:"size:256"`
	VariantTitle        string `gorm:"size:256"`
	SKU                 string `gorm:"size:64"`
	UnitPrice           float64
	TotalPrice          float64
	TotalDiscountAmount float64
	Quantity            int64 `gorm:"not null"`
	Vendor              string `gorm:"size:128"`
	TaxAmount           float64
	TaxRate             float64
	Taxable             bool
	Currency            string `gorm:"size:8"`
}

type Transaction struct {
	ID          int64  `gorm:"primaryKey"`
	OrderID     int64  `gorm:"index;not null"`
	Status      string `gorm:"size:16;index"` // success, failure, pending, error
	Kind        string `gorm:"size:16;index"` // sale, capture, authorization, refund, void
	Gateway     string `gorm:"size:64"`
	Amount      float64
	Currency    string `gorm:"size:8"`
	ErrorCode   string `gorm:"size:64"`
	CreatedAt   time.Time
	ProcessedAt *time.Time
}

type Refund struct {
	ID               int64  `gorm:"primaryKey"`
	OrderID          int64  `gorm:"index;not null"`
	TransactionID    int64  `gorm:"index;not null"`
	Note             string `gorm:"size:1024"`
	RefundProductCnt int64
	CreatedAt        time.Time
	ProcessedAt      *time.Time
}

type LineItemProductRefund struct {
	ID                int64 `gorm:"primaryKey"`
	RefundID          int64 `gorm:"index;not null"`
	LineItemProductID int64 `gorm:"index;not null"`
	Quantity          int64
	RefundAmount      float64
	Currency          string `gorm:"size:8"`
}

type Shipping struct {
	ID              int64  `gorm:"primaryKey"`
	OrderID         int64  `gorm:"index;not null"`
	Code            string `gorm:"size:64"`
	Price           float64
	DiscountedPrice float64
	Title           string `gorm:"size:256"`
	Source          string `gorm:"size:64"`
	Currency        string `gorm:"size:8"`
	Phone           string `gorm:"size:32"`
	Address         string `gorm:"size:256"`
	City            string `gorm:"size:128"`
	Zip             string `gorm:"size:16"`
	Country         string `gorm:"size:128"`
	Latitude        *float64
	Longitude       *float64
}

type Product struct {
	ID          int64  `gorm:"primaryKey"`
	Title       string `gorm:"size:256"`
	Status      string `gorm:"size:32"`
	ProductType string `gorm:"size:128"`
	Vendor      string `gorm:"size:128"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type ProductVariant struct {
	ID        int64  `gorm:"primaryKey"`
	ProductID int64  `gorm:"index;not null"`
	Price     float64
	Title     string `gorm:"size:256"`
	SKU       string `gorm:"size:64"`
	Option1   string `gorm:"size:128"`
	Option2   string `gorm:"size:128"`
	Option3   string `gorm:"size:128"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
