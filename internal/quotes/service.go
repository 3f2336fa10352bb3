package quotes

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/taller-erp/taller-erp/internal/ledger"
	"github.com/taller-erp/taller-erp/internal/notify"
)

// nowFunc is swapped in tests to control the expiry clock.
var nowFunc = time.Now

// RecipientResolver loads a customer's contact snapshot for notifications.
type RecipientResolver interface {
	ResolveRecipient(ctx context.Context, customerID int64) (notify.Recipient, error)
}

// Service provides business logic for quotes.
type Service struct {
	repo       Repository
	recipients RecipientResolver
	enqueuer   notify.Enqueuer
	logger     *slog.Logger
}

func NewService(repo Repository, recipients RecipientResolver, enqueuer notify.Enqueuer, logger *slog.Logger) *Service {
	return &Service{
		repo:       repo,
		recipients: recipients,
		enqueuer:   enqueuer,
		logger:     logger,
	}
}

// Create builds a draft quote. The labor/parts/additional components are
// derived from the detail lines by type, so the line totals always add up to
// the subtotal. Expiry is derived here from validity_days and is not
// recomputed on reads.
func (s *Service) Create(ctx context.Context, req CreateQuoteRequest, createdBy int64) (*Quote, error) {
	if req.ValidityDays <= 0 {
		return nil, ErrInvalidValidity
	}

	details := make([]QuoteDetail, 0, len(req.Details))
	components := map[DetailType]decimal.Decimal{
		DetailLabor:   decimal.Zero,
		DetailPart:    decimal.Zero,
		DetailService: decimal.Zero,
	}
	for _, input := range req.Details {
		if !input.Type.IsValid() {
			return nil, fmt.Errorf("%w: %s", ErrInvalidDetailType, input.Type)
		}
		if !input.Quantity.IsPositive() {
			return nil, &ledger.ValidationError{Field: "quantity", Message: "must be positive"}
		}
		if input.UnitPrice.IsNegative() {
			return nil, &ledger.ValidationError{Field: "unit_price", Message: "cannot be negative"}
		}
		lineTotal := input.Quantity.Mul(input.UnitPrice).Round(2)
		components[input.Type] = components[input.Type].Add(lineTotal)
		details = append(details, QuoteDetail{
			Type:        input.Type,
			Description: input.Description,
			Quantity:    input.Quantity,
			UnitPrice:   input.UnitPrice.Round(2),
			TotalPrice:  lineTotal,
		})
	}

	totals, err := ledger.ComputeTotals(
		components[DetailLabor],
		components[DetailPart],
		components[DetailService],
		req.Discount,
		req.TaxRate,
	)
	if err != nil {
		return nil, err
	}

	number, err := s.repo.GenerateNumber(ctx)
	if err != nil {
		return nil, fmt.Errorf("generate quote number: %w", err)
	}

	now := nowFunc()
	quote := Quote{
		QuoteNumber:    number,
		CustomerID:     req.CustomerID,
		RepairOrderID:  req.RepairOrderID,
		CreatedBy:      createdBy,
		LaborCost:      components[DetailLabor],
		PartsCost:      components[DetailPart],
		AdditionalCost: components[DetailService],
		Subtotal:       totals.Subtotal,
		Discount:       req.Discount.Round(2),
		TaxRate:        req.TaxRate,
		Taxes:          totals.Taxes,
		Total:          totals.Total,
		ValidityDays:   req.ValidityDays,
		ExpiryDate:     now.AddDate(0, 0, req.ValidityDays),
		Status:         StatusDraft,
		Notes:          req.Notes,
		Version:        1,
		CreatedAt:      now,
		Details:        details,
	}

	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		var err error
		quote.ID, err = repo.Create(ctx, quote)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("create quote: %w", err)
	}
	for i := range quote.Details {
		quote.Details[i].QuoteID = quote.ID
	}
	return &quote, nil
}

// Get loads the quote with its details, expiring it lazily if the validity
// window has elapsed.
func (s *Service) Get(ctx context.Context, id int64) (*Quote, error) {
	var quote *Quote
	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		var err error
		quote, err = repo.Get(ctx, id)
		if err != nil {
			return err
		}
		if _, err := s.expireIfDue(ctx, repo, quote); err != nil {
			return err
		}
		quote.Details, err = repo.Details(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return quote, nil
}

func (s *Service) List(ctx context.Context, req ListQuotesRequest) ([]Quote, int, error) {
	return s.repo.List(ctx, req)
}

// Send moves a draft to SENT and enqueues the quote-sent notification after
// the transaction commits. A quote with no detail lines cannot be sent.
func (s *Service) Send(ctx context.Context, id int64) (*Quote, error) {
	var quote *Quote
	var expired bool
	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		var err error
		quote, err = repo.Get(ctx, id)
		if err != nil {
			return err
		}
		expired, err = s.expireIfDue(ctx, repo, quote)
		if err != nil {
			return err
		}
		if expired {
			// Commit so the lazy EXPIRED flip persists; the caller still
			// gets ErrExpired below.
			return nil
		}
		if quote.Status != StatusDraft {
			if quote.Status.IsTerminal() {
				return ErrAlreadyFinalized
			}
			return fmt.Errorf("%w: status %s", ErrNotDraft, quote.Status)
		}

		quote.Details, err = repo.Details(ctx, id)
		if err != nil {
			return err
		}
		if len(quote.Details) == 0 {
			return ErrEmptyQuote
		}

		quote.Status = StatusSent
		return repo.UpdateStatus(ctx, quote)
	})
	if err != nil {
		return nil, err
	}
	if expired {
		return nil, ErrExpired
	}

	s.notifySent(ctx, quote)
	return quote, nil
}

// Respond records the customer's decision on a sent quote, stamping the
// response date. Expiry is checked lazily here: a decision past the validity
// window fails even if the stored status is still SENT.
func (s *Service) Respond(ctx context.Context, id int64, decision Status) (*Quote, error) {
	if decision != StatusApproved && decision != StatusRejected {
		return nil, fmt.Errorf("%w: %s", ErrInvalidDecision, decision)
	}

	var quote *Quote
	var expired bool
	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		var err error
		quote, err = repo.Get(ctx, id)
		if err != nil {
			return err
		}
		if quote.Status == StatusExpired {
			return ErrExpired
		}
		if quote.Status.IsTerminal() {
			return ErrAlreadyFinalized
		}
		expired, err = s.expireIfDue(ctx, repo, quote)
		if err != nil {
			return err
		}
		if expired {
			// Commit so the lazy EXPIRED flip persists; the caller still
			// gets ErrExpired below.
			return nil
		}
		if quote.Status != StatusSent {
			return ErrNotSent
		}

		now := nowFunc()
		quote.Status = decision
		quote.ResponseDate = &now
		return repo.UpdateStatus(ctx, quote)
	})
	if err != nil {
		return nil, err
	}
	if expired {
		return nil, ErrExpired
	}
	return quote, nil
}

// UpdateValidity re-derives the expiry date from the new validity window,
// anchored at the creation time. It never resurrects an expired quote.
func (s *Service) UpdateValidity(ctx context.Context, id int64, days int) (*Quote, error) {
	if days <= 0 {
		return nil, ErrInvalidValidity
	}

	var quote *Quote
	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		var err error
		quote, err = repo.Get(ctx, id)
		if err != nil {
			return err
		}
		if quote.Status == StatusExpired {
			return ErrExpired
		}
		if quote.Status.IsTerminal() {
			return ErrAlreadyFinalized
		}

		quote.ValidityDays = days
		quote.ExpiryDate = quote.CreatedAt.AddDate(0, 0, days)
		if err := repo.UpdateValidity(ctx, quote); err != nil {
			return err
		}

		// Shrinking the window below the current age expires it right away.
		_, err = s.expireIfDue(ctx, repo, quote)
		return err
	})
	if err != nil {
		return nil, err
	}
	return quote, nil
}

// expireIfDue transitions a non-terminal quote to EXPIRED once the window
// has elapsed. There is no background timer; this runs at read and
// transition time.
func (s *Service) expireIfDue(ctx context.Context, repo Repository, quote *Quote) (bool, error) {
	if quote.Status.IsTerminal() || !nowFunc().After(quote.ExpiryDate) {
		return quote.Status == StatusExpired, nil
	}
	quote.Status = StatusExpired
	if err := repo.UpdateStatus(ctx, quote); err != nil {
		return false, err
	}
	return true, nil
}

func (s *Service) notifySent(ctx context.Context, quote *Quote) {
	if s.enqueuer == nil {
		return
	}
	recipient, err := s.recipients.ResolveRecipient(ctx, quote.CustomerID)
	if err != nil {
		s.logger.Error("resolve notification recipient",
			slog.Int64("quote_id", quote.ID),
			slog.Int64("customer_id", quote.CustomerID),
			slog.Any("error", err))
		return
	}
	ev := notify.Event{
		Type:         notify.EventQuoteSent,
		CustomerID:   quote.CustomerID,
		EntityID:     quote.ID,
		EntityNumber: quote.QuoteNumber,
		Recipient:    recipient,
	}
	if err := s.enqueuer.Enqueue(ctx, ev); err != nil {
		s.logger.Error("enqueue quote notification",
			slog.Int64("quote_id", quote.ID),
			slog.Any("error", err))
	}
}
