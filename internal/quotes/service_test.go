package quotes

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taller-erp/taller-erp/internal/notify"
	"github.com/taller-erp/taller-erp/internal/shared"
)

type fakeRepo struct {
	quotes  map[int64]*Quote
	details map[int64][]QuoteDetail
	nextID  int64
	nextSeq int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{quotes: map[int64]*Quote{}, details: map[int64][]QuoteDetail{}, nextID: 1}
}

// WithTx snapshots the stores and restores them when fn errors, mirroring
// the rollback a real transaction performs.
func (f *fakeRepo) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	quotesSnap := make(map[int64]*Quote, len(f.quotes))
	for id, q := range f.quotes {
		clone := *q
		quotesSnap[id] = &clone
	}
	detailsSnap := make(map[int64][]QuoteDetail, len(f.details))
	for id, d := range f.details {
		detailsSnap[id] = append([]QuoteDetail(nil), d...)
	}
	nextID := f.nextID

	if err := fn(ctx, f); err != nil {
		f.quotes = quotesSnap
		f.details = detailsSnap
		f.nextID = nextID
		return err
	}
	return nil
}

func (f *fakeRepo) Get(_ context.Context, id int64) (*Quote, error) {
	q, ok := f.quotes[id]
	if !ok {
		return nil, ErrNotFound
	}
	clone := *q
	clone.Details = nil
	return &clone, nil
}

func (f *fakeRepo) Details(_ context.Context, quoteID int64) ([]QuoteDetail, error) {
	return f.details[quoteID], nil
}

func (f *fakeRepo) List(_ context.Context, _ ListQuotesRequest) ([]Quote, int, error) {
	out := make([]Quote, 0, len(f.quotes))
	for _, q := range f.quotes {
		out = append(out, *q)
	}
	return out, len(out), nil
}

func (f *fakeRepo) Create(_ context.Context, q Quote) (int64, error) {
	q.ID = f.nextID
	f.nextID++
	f.details[q.ID] = q.Details
	q.Details = nil
	f.quotes[q.ID] = &q
	return q.ID, nil
}

func (f *fakeRepo) UpdateStatus(_ context.Context, q *Quote) error {
	current, ok := f.quotes[q.ID]
	if !ok {
		return ErrNotFound
	}
	if current.Version != q.Version {
		return shared.ErrVersionConflict
	}
	q.Version++
	clone := *q
	clone.Details = nil
	f.quotes[q.ID] = &clone
	return nil
}

func (f *fakeRepo) UpdateValidity(_ context.Context, q *Quote) error {
	return f.UpdateStatus(nil, q)
}

func (f *fakeRepo) GenerateNumber(_ context.Context) (string, error) {
	f.nextSeq++
	return "COT-2025-0000" + string(rune('0'+f.nextSeq)), nil
}

type fakeResolver struct{}

func (fakeResolver) ResolveRecipient(_ context.Context, _ int64) (notify.Recipient, error) {
	return notify.Recipient{Name: "Maria Quispe", Email: "maria@example.com"}, nil
}

type fakeEnqueuer struct {
	events []notify.Event
}

func (f *fakeEnqueuer) Enqueue(_ context.Context, ev notify.Event) error {
	f.events = append(f.events, ev)
	return nil
}

func newTestService(repo *fakeRepo, enq *fakeEnqueuer) *Service {
	return NewService(repo, fakeResolver{}, enq, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func draftQuote(t *testing.T, svc *Service, details ...DetailInput) *Quote {
	t.Helper()
	quote, err := svc.Create(context.Background(), CreateQuoteRequest{
		CustomerID:   1,
		Discount:     dec("10"),
		TaxRate:      dec("0.1"),
		ValidityDays: 15,
		Details:      details,
	}, 5)
	require.NoError(t, err)
	return quote
}

func standardDetails() []DetailInput {
	return []DetailInput{
		{Type: DetailLabor, Description: "mano de obra", Quantity: dec("2"), UnitPrice: dec("50")},
		{Type: DetailPart, Description: "pantalla", Quantity: dec("1"), UnitPrice: dec("50")},
	}
}

func TestCreateDerivesTotalsFromDetails(t *testing.T) {
	svc := newTestService(newFakeRepo(), &fakeEnqueuer{})
	quote := draftQuote(t, svc, standardDetails()...)

	// labor 100, parts 50, discount 10, tax 10%
	assert.True(t, quote.Subtotal.Equal(dec("150")), "subtotal %s", quote.Subtotal)
	assert.True(t, quote.Taxes.Equal(dec("14")), "taxes %s", quote.Taxes)
	assert.True(t, quote.Total.Equal(dec("154")), "total %s", quote.Total)
	assert.Equal(t, StatusDraft, quote.Status)
	assert.Equal(t, quote.CreatedAt.AddDate(0, 0, 15), quote.ExpiryDate)

	// Line totals add up to the subtotal.
	sum := decimal.Zero
	for _, d := range quote.Details {
		sum = sum.Add(d.TotalPrice)
	}
	assert.True(t, sum.Equal(quote.Subtotal))
}

func TestSendRequiresDetails(t *testing.T) {
	svc := newTestService(newFakeRepo(), &fakeEnqueuer{})
	quote := draftQuote(t, svc)

	_, err := svc.Send(context.Background(), quote.ID)
	assert.ErrorIs(t, err, ErrEmptyQuote)
}

func TestSendEnqueuesNotification(t *testing.T) {
	enq := &fakeEnqueuer{}
	svc := newTestService(newFakeRepo(), enq)
	quote := draftQuote(t, svc, standardDetails()...)

	sent, err := svc.Send(context.Background(), quote.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusSent, sent.Status)

	require.Len(t, enq.events, 1)
	assert.Equal(t, notify.EventQuoteSent, enq.events[0].Type)
	assert.Equal(t, quote.QuoteNumber, enq.events[0].EntityNumber)
}

func TestRespondStampsResponseDate(t *testing.T) {
	svc := newTestService(newFakeRepo(), &fakeEnqueuer{})
	quote := draftQuote(t, svc, standardDetails()...)
	_, err := svc.Send(context.Background(), quote.ID)
	require.NoError(t, err)

	approved, err := svc.Respond(context.Background(), quote.ID, StatusApproved)
	require.NoError(t, err)
	assert.Equal(t, StatusApproved, approved.Status)
	assert.NotNil(t, approved.ResponseDate)

	// Terminal quotes reject further decisions.
	_, err = svc.Respond(context.Background(), quote.ID, StatusRejected)
	assert.ErrorIs(t, err, ErrAlreadyFinalized)
}

func TestRespondOnDraftFails(t *testing.T) {
	svc := newTestService(newFakeRepo(), &fakeEnqueuer{})
	quote := draftQuote(t, svc, standardDetails()...)

	_, err := svc.Respond(context.Background(), quote.ID, StatusApproved)
	assert.ErrorIs(t, err, ErrNotSent)
}

func TestRespondAfterExpiryFails(t *testing.T) {
	svc := newTestService(newFakeRepo(), &fakeEnqueuer{})
	quote := draftQuote(t, svc, standardDetails()...)
	_, err := svc.Send(context.Background(), quote.ID)
	require.NoError(t, err)

	base := nowFunc
	defer func() { nowFunc = base }()
	nowFunc = func() time.Time { return quote.ExpiryDate.Add(time.Hour) }

	_, err = svc.Respond(context.Background(), quote.ID, StatusApproved)
	assert.ErrorIs(t, err, ErrExpired)

	// The lazy check persisted the terminal status.
	got, err := svc.Get(context.Background(), quote.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusExpired, got.Status)
}

func TestSendAfterExpiryPersistsFlip(t *testing.T) {
	enq := &fakeEnqueuer{}
	svc := newTestService(newFakeRepo(), enq)
	quote := draftQuote(t, svc, standardDetails()...)

	base := nowFunc
	defer func() { nowFunc = base }()
	nowFunc = func() time.Time { return quote.ExpiryDate.Add(time.Hour) }

	_, err := svc.Send(context.Background(), quote.ID)
	assert.ErrorIs(t, err, ErrExpired)
	assert.Empty(t, enq.events)

	// The EXPIRED flip commits even though the send itself failed.
	got, err := svc.Get(context.Background(), quote.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusExpired, got.Status)
}

func TestGetExpiresLazily(t *testing.T) {
	svc := newTestService(newFakeRepo(), &fakeEnqueuer{})
	quote := draftQuote(t, svc, standardDetails()...)

	base := nowFunc
	defer func() { nowFunc = base }()
	nowFunc = func() time.Time { return quote.ExpiryDate.Add(time.Minute) }

	got, err := svc.Get(context.Background(), quote.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusExpired, got.Status)
}

func TestUpdateValidityRederivesExpiry(t *testing.T) {
	svc := newTestService(newFakeRepo(), &fakeEnqueuer{})
	quote := draftQuote(t, svc, standardDetails()...)

	updated, err := svc.UpdateValidity(context.Background(), quote.ID, 30)
	require.NoError(t, err)
	assert.Equal(t, 30, updated.ValidityDays)
	assert.Equal(t, quote.CreatedAt.AddDate(0, 0, 30), updated.ExpiryDate)
}

func TestUpdateValidityNeverResurrectsExpired(t *testing.T) {
	svc := newTestService(newFakeRepo(), &fakeEnqueuer{})
	quote := draftQuote(t, svc, standardDetails()...)

	base := nowFunc
	defer func() { nowFunc = base }()
	nowFunc = func() time.Time { return quote.ExpiryDate.Add(time.Hour) }

	// Lazy expiry fires on read.
	got, err := svc.Get(context.Background(), quote.ID)
	require.NoError(t, err)
	require.Equal(t, StatusExpired, got.Status)

	_, err = svc.UpdateValidity(context.Background(), quote.ID, 90)
	assert.ErrorIs(t, err, ErrExpired)
}
