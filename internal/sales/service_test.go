package sales

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRepo struct {
	sales  map[int64]*Sale
	items  map[int64][]SaleItem
	nextID int64
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{sales: map[int64]*Sale{}, items: map[int64][]SaleItem{}, nextID: 1}
}

func (f *fakeRepo) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	return fn(ctx, f)
}

func (f *fakeRepo) Get(_ context.Context, id int64) (*Sale, error) {
	s, ok := f.sales[id]
	if !ok {
		return nil, ErrNotFound
	}
	clone := *s
	clone.Items = nil
	return &clone, nil
}

func (f *fakeRepo) Items(_ context.Context, saleID int64) ([]SaleItem, error) {
	return f.items[saleID], nil
}

func (f *fakeRepo) List(_ context.Context, _ ListSalesRequest) ([]Sale, int, error) {
	out := make([]Sale, 0, len(f.sales))
	for _, s := range f.sales {
		out = append(out, *s)
	}
	return out, len(out), nil
}

func (f *fakeRepo) Create(_ context.Context, s Sale) (int64, error) {
	s.ID = f.nextID
	f.nextID++
	f.items[s.ID] = s.Items
	s.Items = nil
	f.sales[s.ID] = &s
	return s.ID, nil
}

func (f *fakeRepo) UpdatePayment(_ context.Context, s *Sale) error {
	current, ok := f.sales[s.ID]
	if !ok {
		return ErrNotFound
	}
	if current.Version != s.Version {
		return ErrNotFound
	}
	s.Version++
	clone := *s
	clone.Items = nil
	f.sales[s.ID] = &clone
	return nil
}

func (f *fakeRepo) GenerateNumber(_ context.Context) (string, error) {
	return "V-2025-00001", nil
}

func newTestService(repo *fakeRepo) *Service {
	return NewService(repo, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestCreateDerivesRollup(t *testing.T) {
	svc := newTestService(newFakeRepo())

	sale, err := svc.Create(context.Background(), CreateSaleRequest{
		CustomerID: 1,
		Discount:   dec("10"),
		TaxRate:    dec("0.1"),
		Items: []ItemInput{
			{Description: "cargador", Quantity: dec("1"), UnitPrice: dec("150")},
		},
	}, 5)
	require.NoError(t, err)

	assert.True(t, sale.Subtotal.Equal(dec("150")))
	assert.True(t, sale.Taxes.Equal(dec("14")))
	assert.True(t, sale.Total.Equal(dec("154")))
	assert.True(t, sale.PendingBalance.Equal(dec("154")))
}

func TestOverpaymentClampsToZero(t *testing.T) {
	svc := newTestService(newFakeRepo())

	sale, err := svc.Create(context.Background(), CreateSaleRequest{
		CustomerID:     1,
		AdvancePayment: dec("250"),
		Items: []ItemInput{
			{Description: "bateria", Quantity: dec("1"), UnitPrice: dec("200")},
		},
	}, 5)
	require.NoError(t, err)

	assert.True(t, sale.Total.Equal(dec("200")))
	assert.True(t, sale.PendingBalance.IsZero(), "got %s", sale.PendingBalance)
}

func TestRegisterPaymentReducesBalance(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)

	sale, err := svc.Create(context.Background(), CreateSaleRequest{
		CustomerID: 1,
		Items: []ItemInput{
			{Description: "teclado", Quantity: dec("2"), UnitPrice: dec("50")},
		},
	}, 5)
	require.NoError(t, err)
	require.True(t, sale.PendingBalance.Equal(dec("100")))

	updated, err := svc.RegisterPayment(context.Background(), sale.ID, dec("60"))
	require.NoError(t, err)
	assert.True(t, updated.PendingBalance.Equal(dec("40")), "got %s", updated.PendingBalance)

	// Paying past the total clamps at zero rather than going negative.
	updated, err = svc.RegisterPayment(context.Background(), sale.ID, dec("100"))
	require.NoError(t, err)
	assert.True(t, updated.PendingBalance.IsZero())

	_, err = svc.RegisterPayment(context.Background(), sale.ID, dec("0"))
	assert.ErrorIs(t, err, ErrInvalidPayment)
}
