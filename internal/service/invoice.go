package service

import (
	"context"
	"fmt"

	"github.com/samber/lo"

	"tripletex-bridge/internal/invoice"
	"tripletex-bridge/internal/model"
	"tripletex-bridge/internal/repository"
)

// InvoiceService loads the entity window from the store and runs the
// reconciliation pipeline plus the verification pass over its output.
type InvoiceService interface {
	Generate(ctx context.Context, cfg invoice.Config) ([]invoice.Line, []invoice.Warning, error)
}

type invoiceServiceImpl struct {
	customerRepo    repository.CustomerRepository
	orderRepo       repository.OrderRepository
	lineItemRepo    repository.LineItemRepository
	shippingRepo    repository.ShippingRepository
	transactionRepo repository.TransactionRepository
	refundRepo      repository.RefundRepository
}

func NewInvoiceService(
	customerRepo repository.CustomerRepository,
	orderRepo repository.OrderRepository,
	lineItemRepo repository.LineItemRepository,
	shippingRepo repository.ShippingRepository,
	transactionRepo repository.TransactionRepository,
	refundRepo repository.RefundRepository,
) InvoiceService {
	return &invoiceServiceImpl{
		customerRepo:    customerRepo,
		orderRepo:       orderRepo,
		lineItemRepo:    lineItemRepo,
		shippingRepo:    shippingRepo,
		transactionRepo: transactionRepo,
		refundRepo:      refundRepo,
	}
}

func (s *invoiceServiceImpl) Generate(ctx context.Context, cfg invoice.Config) ([]invoice.Line, []invoice.Warning, error) {
	ds, err := s.loadDataset(ctx, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("load dataset: %w", err)
	}

	lines, warnings := invoice.Generate(ds, cfg)
	warnings = append(warnings, invoice.Verify(lines, cfg)...)
	return lines, warnings, nil
}

func (s *invoiceServiceImpl) loadDataset(ctx context.Context, cfg invoice.Config) (invoice.Dataset, error) {
	var ds invoice.Dataset

	from, to := cfg.From, cfg.To
	orders, err := s.orderRepo.ListByCreatedRange(ctx, &from, &to)
	if err != nil {
		return ds, fmt.Errorf("list orders: %w", err)
	}
	ds.Orders = orders

	orderIDs := make([]int64, 0, len(orders))
	customerIDs := make([]int64, 0, len(orders))
	for _, o := range orders {
		orderIDs = append(orderIDs, o.ID)
		if o.CustomerID != nil {
			customerIDs = append(customerIDs, *o.CustomerID)
		}
	}
	customerIDs = lo.Uniq(customerIDs)

	if ds.Customers, err = s.customerRepo.ListByIDs(ctx, customerIDs); err != nil {
		return ds, fmt.Errorf("list customers: %w", err)
	}
	if ds.LineItems, err = s.lineItemRepo.ListByOrderIDs(ctx, orderIDs); err != nil {
		return ds, fmt.Errorf("list line items: %w", err)
	}
	if ds.Transactions, err = s.transactionRepo.ListByOrderIDs(ctx, orderIDs); err != nil {
		return ds, fmt.Errorf("list transactions: %w", err)
	}
	if ds.Shipping, err = s.shippingRepo.ListByOrderIDs(ctx, orderIDs); err != nil {
		return ds, fmt.Errorf("list shipping: %w", err)
	}
	if ds.Refunds, err = s.refundRepo.ListByOrderIDs(ctx, orderIDs); err != nil {
		return ds, fmt.Errorf("list refunds: %w", err)
	}
	refundIDs := lo.Map(ds.Refunds, func(r model.Refund, _ int) int64 { return r.ID })
	if ds.RefundLineItems, err = s.refundRepo.ListLineItemsByRefundIDs(ctx, refundIDs); err != nil {
		return ds, fmt.Errorf("list refund line items: %w", err)
	}
	return ds, nil
}
