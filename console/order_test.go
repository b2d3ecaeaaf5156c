package console

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-pos-console/api"
	"github.com/goliatone/go-pos-console/apperror"
	"github.com/goliatone/go-pos-console/cart"
	"github.com/goliatone/go-pos-console/filter"
	"github.com/goliatone/go-pos-console/mutation"
	"github.com/goliatone/go-pos-console/session"
)

type recordingSubmitter struct {
	mu     sync.Mutex
	orders []cart.Order
	err    error
}

func (r *recordingSubmitter) SubmitOrder(ctx context.Context, o cart.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.orders = append(r.orders, o)
	return r.err
}

func newOrderScreen(t *testing.T, f *fixture, sub cart.Submitter, opts ...OrderOption) *OrderScreen {
	t.Helper()
	s := NewOrderScreen(OrderDeps{
		Menus:        f.menus,
		Transactions: f.txs,
		Users:        f.userBackend,
		Tables:       f.tableBackend,
		Submitter:    sub,
		Sessions:     f.sessions,
		Notifier:     f.notices,
	}, opts...)
	t.Cleanup(s.Close)
	return s
}

func TestOrderPrepare(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)

	s := newOrderScreen(t, f, &recordingSubmitter{})
	assert.ErrorIs(t, s.Prepare(ctx), session.ErrNoSession)

	f.signIn(t, "kasir")
	s = newOrderScreen(t, f, &recordingSubmitter{})
	require.NoError(t, s.Prepare(ctx))
	assert.Equal(t, "u-1", s.UserID(), "the user whose account username matches exactly")
	assert.Len(t, s.Tables(), 2)

	f.signIn(t, "nobody")
	s = newOrderScreen(t, f, &recordingSubmitter{})
	assert.ErrorIs(t, s.Prepare(ctx), ErrUserNotFound)
}

func TestOrderSubmit(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	f.signIn(t, "kasir")
	sub := &recordingSubmitter{}
	s := newOrderScreen(t, f, sub)
	require.NoError(t, s.Prepare(ctx))

	txList := f.txs.Observe()
	defer txList.Close()
	txList.Read(ctx, filter.New(), f.txs.Fetcher())
	_, err := txList.Wait(ctx)
	require.NoError(t, err)

	s.Menus(ctx, filter.New())
	menus, err := s.WaitMenus(ctx)
	require.NoError(t, err)
	s.Add(ctx, menus.Rows[0])
	s.Add(ctx, menus.Rows[0])
	s.Add(ctx, menus.Rows[1])
	s.SelectTable("t-2")
	assert.Equal(t, "35000", s.Cart().Subtotal().String())

	res := s.Submit(ctx)
	require.NoError(t, res.Err)
	assert.Equal(t, mutation.Succeeded, res.Outcome.Status)
	assert.Equal(t, PathTransactions, res.Outcome.Navigate)
	assert.True(t, s.Cart().Empty())

	require.Len(t, sub.orders, 1)
	order := sub.orders[0]
	assert.Equal(t, "u-1", order.UserID)
	require.NotNil(t, order.TableID)
	assert.Equal(t, "t-2", *order.TableID)
	assert.Equal(t, []cart.Detail{{MenuID: "m-1", Qty: 2}, {MenuID: "m-2", Qty: 1}}, order.Details)

	last, _ := f.notices.Last()
	assert.Equal(t, NoticeOrderSuccess, last.Message)

	_, err = txList.Wait(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, f.txBackend.Calls("List"), "the transaction list is refetched")
}

func TestOrderSubmitRejectsEmptyCart(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	f.signIn(t, "kasir")
	sub := &recordingSubmitter{}
	s := newOrderScreen(t, f, sub)
	require.NoError(t, s.Prepare(ctx))

	res := s.Submit(ctx)
	assert.Equal(t, mutation.Rejected, res.Outcome.Status)
	assert.ErrorIs(t, res.Err, apperror.ErrValidation)
	assert.Empty(t, sub.orders)
}

func TestOrderSubmitFailure(t *testing.T) {
	ctx := context.Background()
	menu := api.Menu{ID: "m-1", Name: "Nasi Goreng"}

	tests := []struct {
		name      string
		policy    cart.ClearPolicy
		wantLines int
	}{
		{"clear always", cart.ClearAlways, 0},
		{"clear on success", cart.ClearOnSuccess, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, nil)
			f.signIn(t, "kasir")
			sub := &recordingSubmitter{err: errors.New("server down")}
			s := newOrderScreen(t, f, sub, WithClearPolicy(tt.policy), WithTablePageSize(10))
			require.NoError(t, s.Prepare(ctx))

			s.Add(ctx, menu)
			res := s.Submit(ctx)
			assert.Equal(t, mutation.Failed, res.Outcome.Status)
			assert.Equal(t, tt.wantLines, s.Cart().Len())

			last, _ := f.notices.Last()
			assert.Equal(t, mutation.Notice{Level: mutation.LevelError, Message: NoticeOrderFailed}, last)
		})
	}
}
