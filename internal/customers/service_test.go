package customers

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taller-erp/taller-erp/internal/identity"
	"github.com/taller-erp/taller-erp/internal/notify"
)

type fakeRepo struct {
	byID     map[int64]*Customer
	byToken  map[string]int64
	nextID   int64
	updates  map[string]interface{}
	updateID int64
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{byID: map[int64]*Customer{}, byToken: map[string]int64{}, nextID: 1}
}

func (f *fakeRepo) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	return fn(ctx, f)
}

func (f *fakeRepo) Get(_ context.Context, id int64) (*Customer, error) {
	c, ok := f.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	clone := *c
	return &clone, nil
}

func (f *fakeRepo) GetByToken(_ context.Context, token string) (*Customer, error) {
	id, ok := f.byToken[token]
	if !ok {
		return nil, ErrNotFound
	}
	clone := *f.byID[id]
	return &clone, nil
}

func (f *fakeRepo) GetByDocument(_ context.Context, docType, docNumber string) (*Customer, error) {
	for _, c := range f.byID {
		if c.DocumentType == docType && c.DocumentNumber == docNumber {
			clone := *c
			return &clone, nil
		}
	}
	return nil, ErrNotFound
}

func (f *fakeRepo) ExistsByToken(_ context.Context, token string) (bool, error) {
	_, ok := f.byToken[token]
	return ok, nil
}

func (f *fakeRepo) List(_ context.Context, _ ListCustomersRequest) ([]Customer, int, error) {
	out := make([]Customer, 0, len(f.byID))
	for _, c := range f.byID {
		out = append(out, *c)
	}
	return out, len(out), nil
}

func (f *fakeRepo) Create(_ context.Context, c Customer) (int64, error) {
	c.ID = f.nextID
	f.nextID++
	f.byID[c.ID] = &c
	f.byToken[c.QRCode] = c.ID
	return c.ID, nil
}

func (f *fakeRepo) Update(_ context.Context, id int64, updates map[string]interface{}) error {
	if _, ok := f.byID[id]; !ok {
		return ErrNotFound
	}
	f.updateID = id
	f.updates = updates
	if v, ok := updates["is_active"]; ok {
		f.byID[id].IsActive = v.(bool)
	}
	if v, ok := updates["first_name"]; ok {
		f.byID[id].FirstName = v.(string)
	}
	return nil
}

func (f *fakeRepo) UpdateToken(_ context.Context, id int64, token string) error {
	c, ok := f.byID[id]
	if !ok {
		return ErrNotFound
	}
	delete(f.byToken, c.QRCode)
	c.QRCode = token
	f.byToken[token] = id
	return nil
}

type fakeEnqueuer struct {
	events []notify.Event
}

func (f *fakeEnqueuer) Enqueue(_ context.Context, ev notify.Event) error {
	f.events = append(f.events, ev)
	return nil
}

func newTestService(repo *fakeRepo, enq *fakeEnqueuer) *Service {
	cfg := ServiceConfig{PublicBaseURL: "https://taller.example.com", PortalPrefix: "portal"}
	return NewService(cfg, repo, enq, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestCreateIssuesTokenAndWelcomes(t *testing.T) {
	repo := newFakeRepo()
	enq := &fakeEnqueuer{}
	svc := newTestService(repo, enq)

	email := "maria@example.com"
	phone := "+51999888777"
	customer, err := svc.Create(context.Background(), CreateCustomerRequest{
		FirstName:      "maria",
		LastName:       "quispe",
		DocumentType:   "DNI",
		DocumentNumber: "45678912",
		Email:          &email,
		Phone:          &phone,
	}, 7)
	require.NoError(t, err)

	assert.True(t, identity.TokenPattern.MatchString(customer.QRCode))
	assert.True(t, strings.HasSuffix(customer.QRURL, "/portal/"+customer.QRCode))
	assert.True(t, customer.IsActive)

	require.Len(t, enq.events, 1)
	ev := enq.events[0]
	assert.Equal(t, notify.EventWelcome, ev.Type)
	assert.Equal(t, customer.ID, ev.CustomerID)
	assert.Equal(t, customer.QRCode, ev.Token)
	assert.Equal(t, "maria quispe", ev.Recipient.Name)
	assert.Equal(t, email, ev.Recipient.Email)
	assert.Equal(t, phone, ev.Recipient.Phone)
}

func TestCreateRejectsDuplicateDocument(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, &fakeEnqueuer{})

	req := CreateCustomerRequest{
		FirstName:      "Jose",
		LastName:       "Rojas",
		DocumentType:   "DNI",
		DocumentNumber: "11223344",
	}
	_, err := svc.Create(context.Background(), req, 1)
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), req, 1)
	assert.ErrorIs(t, err, ErrAlreadyExists)
}

func TestRegenerateTokenReplacesOldOne(t *testing.T) {
	repo := newFakeRepo()
	enq := &fakeEnqueuer{}
	svc := newTestService(repo, enq)

	created, err := svc.Create(context.Background(), CreateCustomerRequest{
		FirstName:      "Ana",
		LastName:       "Torres",
		DocumentType:   "CE",
		DocumentNumber: "001234567",
	}, 1)
	require.NoError(t, err)
	oldToken := created.QRCode

	updated, err := svc.RegenerateToken(context.Background(), created.ID, 9)
	require.NoError(t, err)

	assert.NotEqual(t, oldToken, updated.QRCode)
	assert.True(t, identity.TokenPattern.MatchString(updated.QRCode))

	// The previous token must stop resolving immediately.
	_, err = svc.GetByToken(context.Background(), oldToken)
	assert.ErrorIs(t, err, ErrNotFound)

	byNew, err := svc.GetByToken(context.Background(), updated.QRCode)
	require.NoError(t, err)
	assert.Equal(t, created.ID, byNew.ID)
}

func TestDeactivateKeepsRecord(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, &fakeEnqueuer{})

	created, err := svc.Create(context.Background(), CreateCustomerRequest{
		FirstName:      "Luis",
		LastName:       "Mendoza",
		DocumentType:   "RUC",
		DocumentNumber: "20123456789",
	}, 1)
	require.NoError(t, err)

	require.NoError(t, svc.Deactivate(context.Background(), created.ID))

	got, err := svc.Get(context.Background(), created.ID)
	require.NoError(t, err)
	assert.False(t, got.IsActive)
	assert.Equal(t, created.QRCode, got.QRCode)
}
