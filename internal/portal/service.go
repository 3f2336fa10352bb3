package portal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/taller-erp/taller-erp/internal/customers"
	"github.com/taller-erp/taller-erp/internal/quotes"
	"github.com/taller-erp/taller-erp/internal/repairorders"
	"github.com/taller-erp/taller-erp/internal/sales"
	"github.com/taller-erp/taller-erp/internal/shared"
)

// ErrTokenNotFound indicates the QR token does not resolve to an active customer.
var ErrTokenNotFound = errors.New("portal token not found")

// Stats are the aggregate counters shown on the portal landing view.
type Stats struct {
	PendingRepairs int             `json:"pending_repairs"`
	ActiveRepairs  int             `json:"active_repairs"`
	TotalSpent     decimal.Decimal `json:"total_spent"`
}

// View is the full token-gated read projection: the customer's history plus
// aggregate statistics. It is pure read-model; nothing here mutates state.
type View struct {
	Customer *customers.Customer        `json:"customer"`
	Orders   []repairorders.RepairOrder `json:"orders"`
	Quotes   []quotes.Quote             `json:"quotes"`
	Sales    []sales.Sale               `json:"sales"`
	Stats    Stats                      `json:"stats"`
}

// Service assembles the portal projection and proxies the gated write
// actions to the owning domain services.
type Service struct {
	customers *customers.Service
	orders    *repairorders.Service
	quotes    *quotes.Service
	sales     *sales.Service
	cache     *Cache
	logger    *slog.Logger
}

func NewService(
	customerSvc *customers.Service,
	orderSvc *repairorders.Service,
	quoteSvc *quotes.Service,
	saleSvc *sales.Service,
	cache *Cache,
	logger *slog.Logger,
) *Service {
	return &Service{
		customers: customerSvc,
		orders:    orderSvc,
		quotes:    quoteSvc,
		sales:     saleSvc,
		cache:     cache,
		logger:    logger,
	}
}

// View resolves the token and builds the projection, fanning the three
// history reads out in parallel. Results are cached briefly per token.
func (s *Service) View(ctx context.Context, token string) (*View, error) {
	customer, err := s.customers.GetByToken(ctx, token)
	if err != nil {
		if errors.Is(err, customers.ErrNotFound) {
			return nil, ErrTokenNotFound
		}
		return nil, fmt.Errorf("resolve portal token: %w", err)
	}
	if !customer.IsActive {
		return nil, ErrTokenNotFound
	}

	var view View
	key := "portal:view:" + token
	err = s.cache.FetchJSON(ctx, key, &view, func(ctx context.Context) (interface{}, error) {
		return s.buildView(ctx, customer)
	})
	if err != nil {
		return nil, err
	}
	return &view, nil
}

func (s *Service) buildView(ctx context.Context, customer *customers.Customer) (*View, error) {
	view := &View{Customer: customer}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		orders, _, err := s.orders.List(ctx, repairorders.ListOrdersRequest{CustomerID: &customer.ID})
		view.Orders = orders
		return err
	})
	g.Go(func() error {
		quoteList, _, err := s.quotes.List(ctx, quotes.ListQuotesRequest{CustomerID: &customer.ID})
		view.Quotes = quoteList
		return err
	})
	g.Go(func() error {
		saleList, _, err := s.sales.List(ctx, sales.ListSalesRequest{CustomerID: &customer.ID})
		view.Sales = saleList
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("build portal view: %w", err)
	}

	view.Stats = computeStats(view.Orders, view.Sales)
	return view, nil
}

// computeStats derives the aggregate counters. Pending covers intake and
// diagnosis; active covers everything on the bench. Total spent sums
// delivered repair work and finalized sales.
func computeStats(orders []repairorders.RepairOrder, saleList []sales.Sale) Stats {
	stats := Stats{TotalSpent: decimal.Zero}
	for _, o := range orders {
		switch o.Status {
		case repairorders.StatusReceived, repairorders.StatusDiagnosing, repairorders.StatusWaitingParts:
			stats.PendingRepairs++
		case repairorders.StatusRepairing, repairorders.StatusQualityCheck, repairorders.StatusRepaired:
			stats.ActiveRepairs++
		case repairorders.StatusDelivered:
			stats.TotalSpent = stats.TotalSpent.Add(o.TotalCost)
		}
	}
	for _, sale := range saleList {
		stats.TotalSpent = stats.TotalSpent.Add(sale.Total)
	}
	return stats
}

// CreateOrder performs device intake from the portal. The actor must hold
// an operational role; token holders alone cannot create orders.
func (s *Service) CreateOrder(ctx context.Context, token string, req repairorders.CreateOrderRequest, actor shared.Actor) (*repairorders.RepairOrder, error) {
	customer, err := s.customers.GetByToken(ctx, token)
	if err != nil {
		if errors.Is(err, customers.ErrNotFound) {
			return nil, ErrTokenNotFound
		}
		return nil, err
	}
	req.CustomerID = customer.ID
	order, err := s.orders.Create(ctx, req, actor.ID)
	if err != nil {
		return nil, err
	}
	s.cache.Invalidate(ctx, "portal:view:"+token)
	return order, nil
}

// CreateQuote drafts a quote from the portal under the same capability gate.
func (s *Service) CreateQuote(ctx context.Context, token string, req quotes.CreateQuoteRequest, actor shared.Actor) (*quotes.Quote, error) {
	customer, err := s.customers.GetByToken(ctx, token)
	if err != nil {
		if errors.Is(err, customers.ErrNotFound) {
			return nil, ErrTokenNotFound
		}
		return nil, err
	}
	req.CustomerID = customer.ID
	quote, err := s.quotes.Create(ctx, req, actor.ID)
	if err != nil {
		return nil, err
	}
	s.cache.Invalidate(ctx, "portal:view:"+token)
	return quote, nil
}
