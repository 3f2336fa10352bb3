package customers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/taller-erp/taller-erp/internal/identity"
	"github.com/taller-erp/taller-erp/internal/notify"
	"github.com/taller-erp/taller-erp/internal/shared"
)

// ServiceConfig carries the settings needed to derive portal URLs.
type ServiceConfig struct {
	PublicBaseURL string
	PortalPrefix  string
}

type Service struct {
	cfg      ServiceConfig
	repo     Repository
	issuer   *identity.Issuer
	enqueuer notify.Enqueuer
	audit    *shared.AuditLogger
	logger   *slog.Logger
}

func NewService(cfg ServiceConfig, repo Repository, enqueuer notify.Enqueuer, audit *shared.AuditLogger, logger *slog.Logger) *Service {
	return &Service{
		cfg:      cfg,
		repo:     repo,
		issuer:   identity.NewIssuer(repo.ExistsByToken),
		enqueuer: enqueuer,
		audit:    audit,
		logger:   logger,
	}
}

// Create registers a customer and issues their QR identity token. Token
// issuance is an explicit creation-time step, never a lazy read side effect.
func (s *Service) Create(ctx context.Context, req CreateCustomerRequest, createdBy int64) (*Customer, error) {
	existing, err := s.repo.GetByDocument(ctx, req.DocumentType, req.DocumentNumber)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("check existing customer: %w", err)
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: document %s %s", ErrAlreadyExists, req.DocumentType, req.DocumentNumber)
	}

	token, err := s.issuer.Issue(ctx)
	if err != nil {
		return nil, fmt.Errorf("issue identity token: %w", err)
	}

	customer := Customer{
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		DocumentType:   req.DocumentType,
		DocumentNumber: req.DocumentNumber,
		Email:          req.Email,
		Phone:          req.Phone,
		Address:        req.Address,
		IsActive:       true,
		QRCode:         token,
		CreatedBy:      createdBy,
	}

	var id int64
	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		var err error
		id, err = repo.Create(ctx, customer)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("create customer: %w", err)
	}
	customer.ID = id
	customer.QRURL = s.portalURL(token)

	s.enqueue(ctx, notify.Event{
		Type:       notify.EventWelcome,
		CustomerID: id,
		Token:      token,
		Recipient:  s.recipient(&customer),
	})

	return &customer, nil
}

func (s *Service) Update(ctx context.Context, id int64, req UpdateCustomerRequest) (*Customer, error) {
	if _, err := s.repo.Get(ctx, id); err != nil {
		return nil, fmt.Errorf("get customer: %w", err)
	}

	updates := make(map[string]interface{})
	if req.FirstName != nil {
		updates["first_name"] = *req.FirstName
	}
	if req.LastName != nil {
		updates["last_name"] = *req.LastName
	}
	if req.Email != nil {
		updates["email"] = *req.Email
	}
	if req.Phone != nil {
		updates["phone"] = *req.Phone
	}
	if req.Address != nil {
		updates["address"] = *req.Address
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}

	if len(updates) > 0 {
		err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
			return repo.Update(ctx, id, updates)
		})
		if err != nil {
			return nil, fmt.Errorf("update customer: %w", err)
		}
	}

	return s.Get(ctx, id)
}

// Deactivate marks the customer inactive. Customers are never hard-deleted.
func (s *Service) Deactivate(ctx context.Context, id int64) error {
	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		return repo.Update(ctx, id, map[string]interface{}{"is_active": false})
	})
	if err != nil {
		return fmt.Errorf("deactivate customer: %w", err)
	}
	return nil
}

// RegenerateToken mints a new identity token for the customer. The previous
// token simply stops resolving; no revocation list is kept.
func (s *Service) RegenerateToken(ctx context.Context, id int64, actorID int64) (*Customer, error) {
	customer, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get customer: %w", err)
	}

	token, err := s.issuer.Issue(ctx)
	if err != nil {
		return nil, fmt.Errorf("issue identity token: %w", err)
	}

	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		return repo.UpdateToken(ctx, id, token)
	})
	if err != nil {
		return nil, fmt.Errorf("update token: %w", err)
	}

	if err := s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   "customer.qr_regenerated",
		Entity:   "customer",
		EntityID: strconv.FormatInt(id, 10),
		Meta:     map[string]any{"previous_token": customer.QRCode},
	}); err != nil {
		s.logger.Warn("audit qr regeneration", slog.Int64("customer_id", id), slog.Any("error", err))
	}

	return s.Get(ctx, id)
}

func (s *Service) Get(ctx context.Context, id int64) (*Customer, error) {
	customer, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	customer.QRURL = s.portalURL(customer.QRCode)
	return customer, nil
}

func (s *Service) GetByToken(ctx context.Context, token string) (*Customer, error) {
	customer, err := s.repo.GetByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	customer.QRURL = s.portalURL(customer.QRCode)
	return customer, nil
}

func (s *Service) List(ctx context.Context, req ListCustomersRequest) ([]Customer, int, error) {
	return s.repo.List(ctx, req)
}

// QRImage renders the customer's portal QR on demand. Rendering is explicit
// here so plain entity reads never trigger image generation.
func (s *Service) QRImage(ctx context.Context, id int64) ([]byte, identity.Format, error) {
	customer, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, "", err
	}
	return identity.RenderQR(s.portalURL(customer.QRCode))
}

// Recipient builds a notification recipient snapshot for the customer.
func (s *Service) Recipient(c *Customer) notify.Recipient {
	return s.recipient(c)
}

// ResolveRecipient loads the customer and returns their contact snapshot.
// Lifecycle services embed the snapshot in events at enqueue time so the
// worker never has to look the customer up again.
func (s *Service) ResolveRecipient(ctx context.Context, id int64) (notify.Recipient, error) {
	customer, err := s.repo.Get(ctx, id)
	if err != nil {
		return notify.Recipient{}, err
	}
	return s.recipient(customer), nil
}

func (s *Service) recipient(c *Customer) notify.Recipient {
	r := notify.Recipient{Name: c.FullName()}
	if c.Email != nil {
		r.Email = *c.Email
	}
	if c.Phone != nil {
		r.Phone = *c.Phone
	}
	return r
}

func (s *Service) portalURL(token string) string {
	return identity.PortalURL(s.cfg.PublicBaseURL, s.cfg.PortalPrefix, token)
}

// enqueue defers a notification. Failures are logged, never propagated: the
// creation or transition that triggered the event has already committed.
func (s *Service) enqueue(ctx context.Context, ev notify.Event) {
	if s.enqueuer == nil {
		return
	}
	if err := s.enqueuer.Enqueue(ctx, ev); err != nil {
		s.logger.Error("enqueue notification",
			slog.String("event", string(ev.Type)),
			slog.Int64("customer_id", ev.CustomerID),
			slog.Any("error", err))
	}
}
