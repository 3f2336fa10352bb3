package repairorders

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/taller-erp/taller-erp/internal/ledger"
	"github.com/taller-erp/taller-erp/internal/notify"
	"github.com/taller-erp/taller-erp/internal/shared"
)

// nowFunc is swapped in tests to pin milestone timestamps.
var nowFunc = time.Now

// RecipientResolver loads a customer's contact snapshot for notifications.
type RecipientResolver interface {
	ResolveRecipient(ctx context.Context, customerID int64) (notify.Recipient, error)
}

// Service provides business logic for repair orders.
type Service struct {
	repo       Repository
	recipients RecipientResolver
	enqueuer   notify.Enqueuer
	audit      *shared.AuditLogger
	logger     *slog.Logger
}

func NewService(repo Repository, recipients RecipientResolver, enqueuer notify.Enqueuer, audit *shared.AuditLogger, logger *slog.Logger) *Service {
	return &Service{
		repo:       repo,
		recipients: recipients,
		enqueuer:   enqueuer,
		audit:      audit,
		logger:     logger,
	}
}

// Create performs device intake. Every order starts in RECEIVED.
func (s *Service) Create(ctx context.Context, req CreateOrderRequest, receivedBy int64) (*RepairOrder, error) {
	priority := req.Priority
	if priority == "" {
		priority = PriorityNormal
	}
	if !priority.IsValid() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidPriority, priority)
	}
	if req.DiagnosisCost.IsNegative() || req.AdvancePayment.IsNegative() {
		return nil, ErrNegativeAmount
	}

	number, err := s.repo.GenerateNumber(ctx)
	if err != nil {
		return nil, fmt.Errorf("generate order number: %w", err)
	}

	total := req.DiagnosisCost.Round(2)
	order := RepairOrder{
		OrderNumber:        number,
		CustomerID:         req.CustomerID,
		TechnicianID:       req.TechnicianID,
		ReceivedBy:         receivedBy,
		DeviceType:         req.DeviceType,
		DeviceBrand:        req.DeviceBrand,
		DeviceModel:        req.DeviceModel,
		DeviceSerial:       req.DeviceSerial,
		ProblemDescription: req.ProblemDescription,
		Status:             StatusReceived,
		Priority:           priority,
		DiagnosisCost:      req.DiagnosisCost.Round(2),
		RepairCost:         decimal.Zero,
		TotalCost:          total,
		AdvancePayment:     req.AdvancePayment.Round(2),
		PendingBalance:     ledger.PendingBalance(total, req.AdvancePayment),
		PromisedDate:       req.PromisedDate,
		Version:            1,
	}

	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		var err error
		order.ID, err = repo.Create(ctx, order)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("create repair order: %w", err)
	}
	return &order, nil
}

// UpdateCosts replaces the monetary fields and recomputes the rollup. Costs
// cannot change once the order is terminal.
func (s *Service) UpdateCosts(ctx context.Context, id int64, req UpdateCostsRequest) (*RepairOrder, error) {
	var updated *RepairOrder
	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		order, err := repo.Get(ctx, id)
		if err != nil {
			return err
		}
		if order.Status.IsTerminal() {
			return fmt.Errorf("%w: order %s is %s", ErrOrderClosed, order.OrderNumber, order.Status)
		}

		if req.DiagnosisCost != nil {
			order.DiagnosisCost = req.DiagnosisCost.Round(2)
		}
		if req.RepairCost != nil {
			order.RepairCost = req.RepairCost.Round(2)
		}
		if req.AdvancePayment != nil {
			order.AdvancePayment = req.AdvancePayment.Round(2)
		}
		if order.DiagnosisCost.IsNegative() || order.RepairCost.IsNegative() || order.AdvancePayment.IsNegative() {
			return ErrNegativeAmount
		}

		order.TotalCost = order.DiagnosisCost.Add(order.RepairCost)
		order.PendingBalance = ledger.PendingBalance(order.TotalCost, order.AdvancePayment)

		if err := repo.UpdateCosts(ctx, order); err != nil {
			return err
		}
		updated = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Transition moves the order to the target status, stamping milestones and
// appending a history record. The write runs under an optimistic version
// check so concurrent transitions on the same order cannot interleave. The
// customer notification is enqueued only after the transaction commits and
// its failure never rolls anything back.
func (s *Service) Transition(ctx context.Context, id int64, req TransitionRequest, actor shared.Actor) (*RepairOrder, error) {
	if !req.Status.IsValid() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidStatus, req.Status)
	}

	var (
		updated      *RepairOrder
		overrideUsed bool
	)
	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		order, err := repo.Get(ctx, id)
		if err != nil {
			return err
		}
		if !CanTransition(order.Status, req.Status) {
			return &InvalidTransitionError{Current: order.Status, Attempted: req.Status}
		}

		if (req.Status == StatusQualityCheck || req.Status == StatusRepaired) && !order.TotalCost.IsZero() {
			order.PendingBalance = ledger.PendingBalance(order.TotalCost, order.AdvancePayment)
		}

		if req.Status == StatusDelivered && order.PendingBalance.IsPositive() {
			if !req.Override {
				return fmt.Errorf("%w: %s outstanding", ErrPaymentPending, order.PendingBalance.StringFixed(2))
			}
			overrideUsed = true
		}

		previous := order.Status
		order.Status = req.Status
		stampMilestone(order, req.Status, nowFunc())

		if err := repo.ApplyTransition(ctx, order); err != nil {
			return err
		}
		if err := repo.AppendHistory(ctx, HistoryRecord{
			OrderID:    order.ID,
			FromStatus: previous,
			ToStatus:   req.Status,
			ActorID:    actor.ID,
			Note:       req.Note,
			Override:   overrideUsed,
		}); err != nil {
			return err
		}
		updated = order
		return nil
	})
	if err != nil {
		return nil, err
	}

	if overrideUsed {
		if err := s.audit.Record(ctx, shared.AuditLog{
			ActorID:  actor.ID,
			Action:   "repair_order.delivery_override",
			Entity:   "repair_order",
			EntityID: strconv.FormatInt(updated.ID, 10),
			Meta: map[string]any{
				"order_number":    updated.OrderNumber,
				"pending_balance": updated.PendingBalance.StringFixed(2),
			},
		}); err != nil {
			s.logger.Warn("audit delivery override", slog.Int64("order_id", updated.ID), slog.Any("error", err))
		}
	}

	s.notifyStatus(ctx, updated)
	return updated, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*RepairOrder, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, req ListOrdersRequest) ([]RepairOrder, int, error) {
	return s.repo.List(ctx, req)
}

func (s *Service) History(ctx context.Context, id int64) ([]HistoryRecord, error) {
	if _, err := s.repo.Get(ctx, id); err != nil {
		return nil, err
	}
	return s.repo.History(ctx, id)
}

func (s *Service) notifyStatus(ctx context.Context, order *RepairOrder) {
	if s.enqueuer == nil {
		return
	}
	recipient, err := s.recipients.ResolveRecipient(ctx, order.CustomerID)
	if err != nil {
		s.logger.Error("resolve notification recipient",
			slog.Int64("order_id", order.ID),
			slog.Int64("customer_id", order.CustomerID),
			slog.Any("error", err))
		return
	}
	ev := notify.Event{
		Type:         notify.EventRepairStatus,
		CustomerID:   order.CustomerID,
		EntityID:     order.ID,
		EntityNumber: order.OrderNumber,
		Status:       string(order.Status),
		Recipient:    recipient,
	}
	if err := s.enqueuer.Enqueue(ctx, ev); err != nil {
		s.logger.Error("enqueue status notification",
			slog.Int64("order_id", order.ID),
			slog.String("status", string(order.Status)),
			slog.Any("error", err))
	}
}
