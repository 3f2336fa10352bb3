package sales

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/taller-erp/taller-erp/internal/ledger"
)

// ErrInvalidPayment rejects a non-positive payment amount.
var ErrInvalidPayment = errors.New("payment amount must be positive")

// Service provides business logic for sales.
type Service struct {
	repo   Repository
	logger *slog.Logger
}

func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// Create finalizes a sale. Totals are derived from the line items through
// the same rollup quotes use; the pending balance is clamped at zero.
func (s *Service) Create(ctx context.Context, req CreateSaleRequest, createdBy int64) (*Sale, error) {
	items := make([]SaleItem, 0, len(req.Items))
	subtotal := decimal.Zero
	for _, input := range req.Items {
		if !input.Quantity.IsPositive() {
			return nil, &ledger.ValidationError{Field: "quantity", Message: "must be positive"}
		}
		if input.UnitPrice.IsNegative() {
			return nil, &ledger.ValidationError{Field: "unit_price", Message: "cannot be negative"}
		}
		lineTotal := input.Quantity.Mul(input.UnitPrice).Round(2)
		subtotal = subtotal.Add(lineTotal)
		items = append(items, SaleItem{
			Description: input.Description,
			Quantity:    input.Quantity,
			UnitPrice:   input.UnitPrice.Round(2),
			TotalPrice:  lineTotal,
		})
	}
	if req.AdvancePayment.IsNegative() {
		return nil, &ledger.ValidationError{Field: "advance_payment", Message: "cannot be negative"}
	}

	totals, err := ledger.ComputeTotals(subtotal, decimal.Zero, decimal.Zero, req.Discount, req.TaxRate)
	if err != nil {
		return nil, err
	}

	number, err := s.repo.GenerateNumber(ctx)
	if err != nil {
		return nil, fmt.Errorf("generate sale number: %w", err)
	}

	sale := Sale{
		SaleNumber:     number,
		CustomerID:     req.CustomerID,
		QuoteID:        req.QuoteID,
		RepairOrderID:  req.RepairOrderID,
		CreatedBy:      createdBy,
		Subtotal:       totals.Subtotal,
		Discount:       req.Discount.Round(2),
		TaxRate:        req.TaxRate,
		Taxes:          totals.Taxes,
		Total:          totals.Total,
		AdvancePayment: req.AdvancePayment.Round(2),
		PendingBalance: ledger.PendingBalance(totals.Total, req.AdvancePayment),
		Notes:          req.Notes,
		Version:        1,
		Items:          items,
	}

	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		var err error
		sale.ID, err = repo.Create(ctx, sale)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("create sale: %w", err)
	}
	for i := range sale.Items {
		sale.Items[i].SaleID = sale.ID
	}
	return &sale, nil
}

// RegisterPayment adds to the advance payment and recomputes the clamped
// pending balance under the optimistic version check.
func (s *Service) RegisterPayment(ctx context.Context, id int64, amount decimal.Decimal) (*Sale, error) {
	if !amount.IsPositive() {
		return nil, ErrInvalidPayment
	}

	var updated *Sale
	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		sale, err := repo.Get(ctx, id)
		if err != nil {
			return err
		}
		sale.AdvancePayment = sale.AdvancePayment.Add(amount.Round(2))
		sale.PendingBalance = ledger.PendingBalance(sale.Total, sale.AdvancePayment)
		if err := repo.UpdatePayment(ctx, sale); err != nil {
			return err
		}
		updated = sale
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*Sale, error) {
	sale, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	sale.Items, err = s.repo.Items(ctx, id)
	if err != nil {
		return nil, err
	}
	return sale, nil
}

func (s *Service) List(ctx context.Context, req ListSalesRequest) ([]Sale, int, error) {
	return s.repo.List(ctx, req)
}
