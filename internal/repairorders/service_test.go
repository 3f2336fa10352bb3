package repairorders

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taller-erp/taller-erp/internal/notify"
	"github.com/taller-erp/taller-erp/internal/shared"
)

type fakeRepo struct {
	orders  map[int64]*RepairOrder
	history map[int64][]HistoryRecord
	nextID  int64
	nextSeq int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{orders: map[int64]*RepairOrder{}, history: map[int64][]HistoryRecord{}, nextID: 1}
}

func (f *fakeRepo) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	return fn(ctx, f)
}

func (f *fakeRepo) Get(_ context.Context, id int64) (*RepairOrder, error) {
	o, ok := f.orders[id]
	if !ok {
		return nil, ErrNotFound
	}
	clone := *o
	return &clone, nil
}

func (f *fakeRepo) List(_ context.Context, _ ListOrdersRequest) ([]RepairOrder, int, error) {
	out := make([]RepairOrder, 0, len(f.orders))
	for _, o := range f.orders {
		out = append(out, *o)
	}
	return out, len(out), nil
}

func (f *fakeRepo) Create(_ context.Context, o RepairOrder) (int64, error) {
	o.ID = f.nextID
	f.nextID++
	f.orders[o.ID] = &o
	return o.ID, nil
}

func (f *fakeRepo) UpdateCosts(_ context.Context, o *RepairOrder) error {
	current, ok := f.orders[o.ID]
	if !ok {
		return ErrNotFound
	}
	if current.Version != o.Version {
		return shared.ErrVersionConflict
	}
	o.Version++
	clone := *o
	f.orders[o.ID] = &clone
	return nil
}

func (f *fakeRepo) ApplyTransition(_ context.Context, o *RepairOrder) error {
	current, ok := f.orders[o.ID]
	if !ok {
		return ErrNotFound
	}
	if current.Version != o.Version {
		return shared.ErrVersionConflict
	}
	o.Version++
	clone := *o
	f.orders[o.ID] = &clone
	return nil
}

func (f *fakeRepo) AppendHistory(_ context.Context, h HistoryRecord) error {
	f.history[h.OrderID] = append(f.history[h.OrderID], h)
	return nil
}

func (f *fakeRepo) History(_ context.Context, orderID int64) ([]HistoryRecord, error) {
	return f.history[orderID], nil
}

func (f *fakeRepo) GenerateNumber(_ context.Context) (string, error) {
	f.nextSeq++
	return "RO-2025-0000" + string(rune('0'+f.nextSeq)), nil
}

type fakeResolver struct{}

func (fakeResolver) ResolveRecipient(_ context.Context, _ int64) (notify.Recipient, error) {
	return notify.Recipient{Name: "Maria Quispe", Email: "maria@example.com", Phone: "+51999888777"}, nil
}

type fakeEnqueuer struct {
	events []notify.Event
}

func (f *fakeEnqueuer) Enqueue(_ context.Context, ev notify.Event) error {
	f.events = append(f.events, ev)
	return nil
}

func newTestService(repo *fakeRepo, enq *fakeEnqueuer) *Service {
	return NewService(repo, fakeResolver{}, enq, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func intake(t *testing.T, svc *Service, diagnosis, advance string) *RepairOrder {
	t.Helper()
	order, err := svc.Create(context.Background(), CreateOrderRequest{
		CustomerID:         1,
		DeviceType:         "laptop",
		DeviceBrand:        "Lenovo",
		DeviceModel:        "ThinkPad T14",
		ProblemDescription: "no enciende",
		DiagnosisCost:      dec(diagnosis),
		AdvancePayment:     dec(advance),
	}, 5)
	require.NoError(t, err)
	return order
}

func TestIntakeStartsReceived(t *testing.T) {
	svc := newTestService(newFakeRepo(), &fakeEnqueuer{})
	order := intake(t, svc, "30", "0")

	assert.Equal(t, StatusReceived, order.Status)
	assert.Equal(t, PriorityNormal, order.Priority)
	assert.True(t, order.PendingBalance.Equal(dec("30")))
	assert.NotEmpty(t, order.OrderNumber)
}

func TestFullLifecycleToDelivered(t *testing.T) {
	repo := newFakeRepo()
	enq := &fakeEnqueuer{}
	svc := newTestService(repo, enq)
	actor := shared.Actor{ID: 9, Name: "tech"}

	order := intake(t, svc, "0", "0")

	chain := []Status{
		StatusDiagnosing, StatusWaitingParts, StatusRepairing,
		StatusQualityCheck, StatusRepaired, StatusDelivered,
	}
	for _, target := range chain {
		updated, err := svc.Transition(context.Background(), order.ID, TransitionRequest{Status: target}, actor)
		require.NoError(t, err, "transition to %s", target)
		assert.Equal(t, target, updated.Status)
	}

	final, err := svc.Get(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusDelivered, final.Status)
	assert.NotNil(t, final.DiagnosisDate)
	assert.NotNil(t, final.RepairDate)
	assert.NotNil(t, final.DeliveryDate)

	history, err := svc.History(context.Background(), order.ID)
	require.NoError(t, err)
	require.Len(t, history, len(chain))
	assert.Equal(t, StatusReceived, history[0].FromStatus)
	assert.Equal(t, StatusDelivered, history[len(history)-1].ToStatus)

	// One status notification per transition, dispatched after commit.
	require.Len(t, enq.events, len(chain))
	assert.Equal(t, notify.EventRepairStatus, enq.events[0].Type)
	assert.Equal(t, string(StatusDelivered), enq.events[len(enq.events)-1].Status)
}

func TestTransitionRejectsSkip(t *testing.T) {
	svc := newTestService(newFakeRepo(), &fakeEnqueuer{})
	order := intake(t, svc, "0", "0")

	_, err := svc.Transition(context.Background(), order.ID, TransitionRequest{Status: StatusRepairing}, shared.Actor{ID: 9})

	var transitionErr *InvalidTransitionError
	require.ErrorAs(t, err, &transitionErr)
	assert.Equal(t, StatusReceived, transitionErr.Current)
	assert.Equal(t, StatusRepairing, transitionErr.Attempted)
}

func TestDeliveryBlockedOnPendingBalance(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, &fakeEnqueuer{})
	actor := shared.Actor{ID: 9}

	order := intake(t, svc, "50", "0")
	for _, target := range []Status{StatusDiagnosing, StatusWaitingParts, StatusRepairing, StatusQualityCheck, StatusRepaired} {
		_, err := svc.Transition(context.Background(), order.ID, TransitionRequest{Status: target}, actor)
		require.NoError(t, err)
	}

	_, err := svc.Transition(context.Background(), order.ID, TransitionRequest{Status: StatusDelivered}, actor)
	assert.ErrorIs(t, err, ErrPaymentPending)

	// With the override the delivery succeeds and is recorded in history.
	updated, err := svc.Transition(context.Background(), order.ID, TransitionRequest{Status: StatusDelivered, Override: true}, actor)
	require.NoError(t, err)
	assert.Equal(t, StatusDelivered, updated.Status)

	history, err := svc.History(context.Background(), order.ID)
	require.NoError(t, err)
	last := history[len(history)-1]
	assert.Equal(t, StatusDelivered, last.ToStatus)
	assert.True(t, last.Override)
}

func TestQualityCheckRecomputesBalance(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, &fakeEnqueuer{})
	actor := shared.Actor{ID: 9}

	order := intake(t, svc, "30", "100")
	repair := dec("120")
	_, err := svc.UpdateCosts(context.Background(), order.ID, UpdateCostsRequest{RepairCost: &repair})
	require.NoError(t, err)

	for _, target := range []Status{StatusDiagnosing, StatusWaitingParts, StatusRepairing} {
		_, err := svc.Transition(context.Background(), order.ID, TransitionRequest{Status: target}, actor)
		require.NoError(t, err)
	}

	updated, err := svc.Transition(context.Background(), order.ID, TransitionRequest{Status: StatusQualityCheck}, actor)
	require.NoError(t, err)

	// total 150, advance 100
	assert.True(t, updated.PendingBalance.Equal(dec("50")), "got %s", updated.PendingBalance)
}

func TestOverpaymentClampsBalanceToZero(t *testing.T) {
	svc := newTestService(newFakeRepo(), &fakeEnqueuer{})

	order := intake(t, svc, "200", "250")
	assert.True(t, order.PendingBalance.IsZero(), "got %s", order.PendingBalance)
}

func TestUpdateCostsRejectsClosedOrder(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, &fakeEnqueuer{})
	actor := shared.Actor{ID: 9}

	order := intake(t, svc, "0", "0")
	_, err := svc.Transition(context.Background(), order.ID, TransitionRequest{Status: StatusCancelled}, actor)
	require.NoError(t, err)

	cost := dec("10")
	_, err = svc.UpdateCosts(context.Background(), order.ID, UpdateCostsRequest{RepairCost: &cost})
	assert.ErrorIs(t, err, ErrOrderClosed)
}
