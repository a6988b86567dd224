package service

import (
	"context"
	"fmt"

	"tripletex-bridge/internal/client"
	"tripletex-bridge/internal/logger"
	"tripletex-bridge/internal/model"
	"tripletex-bridge/internal/repository"
)

// SyncService mirrors Shopify data for a creation window into the local
// store. Everything is upserted, so re-syncing a window is safe.
type SyncService interface {
	SyncAll(ctx context.Context, window client.Window) error
}

type syncServiceImpl struct {
	shopify         client.ShopifyClient
	customerRepo    repository.CustomerRepository
	productRepo     repository.ProductRepository
	orderRepo       repository.OrderRepository
	lineItemRepo    repository.LineItemRepository
	shippingRepo    repository.ShippingRepository
	transactionRepo repository.TransactionRepository
	refundRepo      repository.RefundRepository
}

func NewSyncService(
	shopify client.ShopifyClient,
	customerRepo repository.CustomerRepository,
	productRepo repository.ProductRepository,
	orderRepo repository.OrderRepository,
	lineItemRepo repository.LineItemRepository,
	shippingRepo repository.ShippingRepository,
	transactionRepo repository.TransactionRepository,
	refundRepo repository.RefundRepository,
) SyncService {
	return &syncServiceImpl{
		shopify:         shopify,
		customerRepo:    customerRepo,
		productRepo:     productRepo,
		orderRepo:       orderRepo,
		lineItemRepo:    lineItemRepo,
		shippingRepo:    shippingRepo,
		transactionRepo: transactionRepo,
		refundRepo:      refundRepo,
	}
}

func (s *syncServiceImpl) SyncAll(ctx context.Context, window client.Window) error {
	log := logger.WithComponent("sync")

	if err := s.syncCustomers(ctx, window); err != nil {
		return fmt.Errorf("sync customers: %w", err)
	}
	if err := s.syncProducts(ctx, window); err != nil {
		return fmt.Errorf("sync products: %w", err)
	}
	orderIDs, err := s.syncOrders(ctx, window)
	if err != nil {
		return fmt.Errorf("sync orders: %w", err)
	}
	if len(orderIDs) > 100 {
		log.Warn().Int("orders", len(orderIDs)).
			Msg("Fetching transactions and refunds for this many orders may take a few minutes")
	}
	if err := s.syncTransactions(ctx, orderIDs); err != nil {
		return fmt.Errorf("sync transactions: %w", err)
	}
	refundedIDs, err := s.orderRepo.ListRefundedIDs(ctx, window.CreatedAtMin, window.CreatedAtMax)
	if err != nil {
		return fmt.Errorf("list refunded orders: %w", err)
	}
	if err := s.syncRefunds(ctx, refundedIDs); err != nil {
		return fmt.Errorf("sync refunds: %w", err)
	}
	return nil
}

func (s *syncServiceImpl) syncCustomers(ctx context.Context, window client.Window) error {
	log := logger.WithComponent("sync")
	count := 0
	pageInfo := ""
	for {
		customers, next, err := s.shopify.ListCustomers(ctx, window, pageInfo)
		if err != nil {
			return err
		}
		if len(customers) == 0 {
			break
		}
		rows := make([]model.Customer, 0, len(customers))
		for _, c := range customers {
			rows = append(rows, customerModel(c))
		}
		if err := s.customerRepo.Upsert(ctx, rows); err != nil {
			return err
		}
		count += len(rows)
		if next == "" {
			break
		}
		pageInfo = next
	}
	log.Info().Int("customers", count).Msg("Updated customers")
	return nil
}

func (s *syncServiceImpl) syncProducts(ctx context.Context, window client.Window) error {
	log := logger.WithComponent("sync")
	products, variants := 0, 0
	pageInfo := ""
	for {
		page, next, err := s.shopify.ListProducts(ctx, window, pageInfo)
		if err != nil {
			return err
		}
		if len(page) == 0 {
			break
		}
		rows := make([]model.Product, 0, len(page))
		var variantRows []model.ProductVariant
		for _, p := range page {
			rows = append(rows, model.Product{
				ID:          p.ID,
				Title:       p.Title,
				Status:      p.Status,
				ProductType: p.ProductType,
				Vendor:      p.Vendor,
				CreatedAt:   p.CreatedAt,
				UpdatedAt:   p.UpdatedAt,
			})
			for _, v := range p.Variants {
				variantRows = append(variantRows, model.ProductVariant{
					ID:        v.ID,
					ProductID: p.ID,
					Price:     float64(v.Price),
					Title:     v.Title,
					SKU:       v.SKU,
					Option1:   v.Option1,
					Option2:   v.Option2,
					Option3:   v.Option3,
					CreatedAt: v.CreatedAt,
					UpdatedAt: v.UpdatedAt,
				})
			}
		}
		if err := s.productRepo.Upsert(ctx, rows); err != nil {
			return err
		}
		if err := s.productRepo.UpsertVariants(ctx, variantRows); err != nil {
			return err
		}
		products += len(rows)
		variants += len(variantRows)
		if next == "" {
			break
		}
		pageInfo = next
	}
	log.Info().Int("products", products).Int("variants", variants).Msg("Updated products and variants")
	return nil
}

func (s *syncServiceImpl) syncOrders(ctx context.Context, window client.Window) ([]int64, error) {
	log := logger.WithComponent("sync")
	var orderIDs []int64
	lineItems, shippingLines := 0, 0
	pageInfo := ""
	for {
		orders, next, err := s.shopify.ListOrders(ctx, window, pageInfo)
		if err != nil {
			return nil, err
		}
		if len(orders) == 0 {
			break
		}

		orderRows := make([]model.Order, 0, len(orders))
		var itemRows []model.LineItemProduct
		var shippingRows []model.Shipping
		for _, o := range orders {
			orderRows = append(orderRows, orderModel(o))
			orderIDs = append(orderIDs, o.ID)
			itemRows = append(itemRows, lineItemModels(o)...)
			shippingRows = append(shippingRows, shippingModels(o)...)
		}
		if err := s.orderRepo.Upsert(ctx, orderRows); err != nil {
			return nil, err
		}
		if err := s.lineItemRepo.Upsert(ctx, itemRows); err != nil {
			return nil, err
		}
		if err := s.shippingRepo.Upsert(ctx, shippingRows); err != nil {
			return nil, err
		}
		lineItems += len(itemRows)
		shippingLines += len(shippingRows)
		if next == "" {
			break
		}
		pageInfo = next
	}
	log.Info().
		Int("orders", len(orderIDs)).
		Int("line_items", lineItems).
		Int("shipping_lines", shippingLines).
		Msg("Updated orders, product lines and shipping lines")
	return orderIDs, nil
}

func (s *syncServiceImpl) syncTransactions(ctx context.Context, orderIDs []int64) error {
	log := logger.WithComponent("sync")
	count := 0
	for _, orderID := range orderIDs {
		txns, err := s.shopify.ListTransactions(ctx, orderID)
		if err != nil {
			return err
		}
		rows := make([]model.Transaction, 0, len(txns))
		for _, t := range txns {
			rows = append(rows, model.Transaction{
				ID:          t.ID,
				OrderID:     orderID,
				Status:      t.Status,
				Kind:        t.Kind,
				Gateway:     t.Gateway,
				Amount:      float64(t.Amount),
				Currency:    t.Currency,
				ErrorCode:   t.ErrorCode,
				CreatedAt:   t.CreatedAt,
				ProcessedAt: t.ProcessedAt,
			})
		}
		if err := s.transactionRepo.Upsert(ctx, rows); err != nil {
			return err
		}
		count += len(rows)
	}
	log.Info().Int("transactions", count).Msg("Updated transactions")
	return nil
}

func (s *syncServiceImpl) syncRefunds(ctx context.Context, orderIDs []int64) error {
	log := logger.WithComponent("sync")
	refunds, refundItems := 0, 0
	for _, orderID := range orderIDs {
		page, err := s.shopify.ListRefunds(ctx, orderID)
		if err != nil {
			return err
		}
		var refundRows []model.Refund
		var itemRows []model.LineItemProductRefund
		for _, r := range page {
			if len(r.Transactions) == 0 {
				// A refund without a transaction has no monetary effect.
				continue
			}
			refundRows = append(refundRows, model.Refund{
				ID:               r.ID,
				OrderID:          orderID,
				TransactionID:    r.Transactions[0].ID,
				Note:             r.Note,
				RefundProductCnt: int64(len(r.RefundLineItems)),
				CreatedAt:        r.CreatedAt,
				ProcessedAt:      r.ProcessedAt,
			})
			for _, rli := range r.RefundLineItems {
				itemRows = append(itemRows, model.LineItemProductRefund{
					ID:                rli.ID,
					RefundID:          r.ID,
					LineItemProductID: rli.LineItem.ID,
					Quantity:          rli.Quantity,
					RefundAmount:      float64(rli.Subtotal),
					Currency:          rli.SubtotalSet.ShopMoney.CurrencyCode,
				})
			}
		}
		if err := s.refundRepo.Upsert(ctx, refundRows); err != nil {
			return err
		}
		if err := s.refundRepo.UpsertLineItems(ctx, itemRows); err != nil {
			return err
		}
		refunds += len(refundRows)
		refundItems += len(itemRows)
	}
	log.Info().Int("refunds", refunds).Int("refund_line_items", refundItems).Msg("Updated refunds")
	return nil
}

func customerModel(c client.Customer) model.Customer {
	m := model.Customer{
		ID:               c.ID,
		Email:            c.Email,
		FirstName:        c.FirstName,
		LastName:         c.LastName,
		Phone:            c.Phone,
		TotalSpent:       float64(c.TotalSpent),
		VerifiedEmail:    c.VerifiedEmail,
		AcceptsMarketing: c.AcceptsMarketing,
		CreatedAt:        c.CreatedAt,
		UpdatedAt:        c.UpdatedAt,
	}
	if c.DefaultAddress != nil {
		m.Name = c.DefaultAddress.Name
		m.Address = c.DefaultAddress.Address1
		m.City = c.DefaultAddress.City
		m.Zip = c.DefaultAddress.Zip
		m.Country = c.DefaultAddress.Country
		if m.Phone == "" {
			m.Phone = c.DefaultAddress.Phone
		}
	}
	if m.Name == "" {
		m.Name = c.FirstName + " " + c.LastName
	}
	return m
}

func orderModel(o client.Order) model.Order {
	m := model.Order{
		ID:                   o.ID,
		Name:                 o.Name,
		FinancialStatus:      o.FinancialStatus,
		FulfillmentStatus:    o.FulfillmentStatus,
		TotalPrice:           float64(o.TotalPrice),
		TotalLineItemsPrice:  float64(o.TotalLineItems),
		TotalDiscountsAmount: float64(o.TotalDiscounts),
		TotalTaxAmount:       float64(o.TotalTax),
		TaxesIncluded:        o.TaxesIncluded,
		Currency:             o.Currency,
		CreatedAt:            o.CreatedAt,
		ProcessedAt:          o.ProcessedAt,
		ClosedAt:             o.ClosedAt,
	}
	if o.Customer != nil {
		id := o.Customer.ID
		m.CustomerID = &id
	}
	return m
}

func lineItemModels(o client.Order) []model.LineItemProduct {
	rows := make([]model.LineItemProduct, 0, len(o.LineItems))
	for _, li := range o.LineItems {
		row := model.LineItemProduct{
			ID:           li.ID,
			OrderID:      o.ID,
			ProductID:    li.ProductID,
			Title:        li.Title,
			VariantTitle: li.VariantTitle,
			SKU:          li.SKU,
			UnitPrice:    float64(li.Price),
			TotalPrice:   float64(li.Price) * float64(li.Quantity),
			Quantity:     li.Quantity,
			Vendor:       li.Vendor,
			Taxable:      li.Taxable,
			Currency:     li.PriceSet.PresentmentMoney.CurrencyCode,
		}
		if len(li.TaxLines) > 0 {
			row.TaxAmount = float64(li.TaxLines[0].Price)
			row.TaxRate = li.TaxLines[0].Rate
		}
		if len(li.DiscountAllocations) > 0 {
			row.TotalDiscountAmount = float64(li.DiscountAllocations[0].Amount)
		}
		rows = append(rows, row)
	}
	return rows
}

func shippingModels(o client.Order) []model.Shipping {
	rows := make([]model.Shipping, 0, len(o.ShippingLines))
	for _, sl := range o.ShippingLines {
		row := model.Shipping{
			ID:              sl.ID,
			OrderID:         o.ID,
			Code:            sl.Code,
			Price:           float64(sl.Price),
			DiscountedPrice: float64(sl.DiscountedPrice),
			Title:           sl.Title,
			Source:          sl.Source,
			Currency:        sl.PriceSet.PresentmentMoney.CurrencyCode,
		}
		if o.BillingAddress != nil {
			row.Phone = o.BillingAddress.Phone
			row.Address = o.BillingAddress.Address1
			row.City = o.BillingAddress.City
			row.Zip = o.BillingAddress.Zip
			row.Country = o.BillingAddress.Country
			row.Latitude = o.BillingAddress.Latitude
			row.Longitude = o.BillingAddress.Longitude
		}
		rows = append(rows, row)
	}
	return rows
}
