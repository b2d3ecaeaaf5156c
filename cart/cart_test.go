package cart

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	nasiGoreng = Item{MenuID: "m1", Name: "Nasi Goreng", Price: decimal.NewFromInt(15000)}
	esTeh      = Item{MenuID: "m2", Name: "Es Teh", Price: decimal.NewFromInt(8000)}
)

func TestAddMergesLines(t *testing.T) {
	c := New()
	c.Add(nasiGoreng)
	c.Add(nasiGoreng)

	require.Equal(t, 1, c.Len())
	assert.Equal(t, 2, c.Quantity("m1"))
}

func TestIncrementDecrement(t *testing.T) {
	c := New()
	c.Add(nasiGoreng)

	require.NoError(t, c.Increment("m1"))
	assert.Equal(t, 2, c.Quantity("m1"))

	assert.ErrorIs(t, c.Increment("missing"), ErrLineNotFound)

	c.Decrement("m1")
	assert.Equal(t, 1, c.Quantity("m1"))

	c.Decrement("m1")
	assert.True(t, c.Empty(), "line is removed when quantity reaches zero")
	assert.Equal(t, 0, c.Quantity("m1"))

	c.Decrement("m1")
	assert.True(t, c.Empty(), "decrementing an absent line is a no-op")
}

func TestNoZeroQuantityLines(t *testing.T) {
	c := New()
	c.Add(nasiGoreng)
	c.Add(esTeh)
	c.Increment("m2")
	c.Decrement("m1")
	c.Decrement("m2")

	for _, l := range c.Lines() {
		assert.GreaterOrEqual(t, l.Qty, 1)
	}
	assert.Equal(t, []Line{{Item: esTeh, Qty: 1}}, c.Lines())
}

func TestSubtotal(t *testing.T) {
	c := New()
	c.Add(nasiGoreng)
	c.Add(nasiGoreng)
	c.Add(esTeh)
	c.Add(esTeh)
	c.Add(esTeh)

	assert.True(t, c.Subtotal().Equal(decimal.NewFromInt(54000)), "got %s", c.Subtotal())
	assert.True(t, New().Subtotal().IsZero())
}

func TestSubtotalIsExact(t *testing.T) {
	c := New()
	c.Add(Item{MenuID: "a", Price: decimal.RequireFromString("0.10")})
	c.Add(Item{MenuID: "b", Price: decimal.RequireFromString("0.20")})

	assert.Equal(t, "0.3", c.Subtotal().String())
}

func TestLinesKeepInsertionOrder(t *testing.T) {
	c := New()
	c.Add(esTeh)
	c.Add(nasiGoreng)
	c.Add(esTeh)

	lines := c.Lines()
	require.Len(t, lines, 2)
	assert.Equal(t, "m2", lines[0].MenuID)
	assert.Equal(t, "m1", lines[1].MenuID)

	lines[0].Qty = 99
	assert.Equal(t, 2, c.Quantity("m2"), "Lines returns a copy")
}

func TestOrderPayload(t *testing.T) {
	c := New()
	c.Add(nasiGoreng)
	c.Add(esTeh)
	c.Increment("m2")

	takeAway, err := json.Marshal(c.Order("u1", nil))
	require.NoError(t, err)
	assert.JSONEq(t, `{"userId":"u1","tableId":null,"transactionDetails":[{"menuId":"m1","qty":1},{"menuId":"m2","qty":2}]}`, string(takeAway))

	table := "t1"
	dineIn := c.Order("u1", &table)
	require.NotNil(t, dineIn.TableID)
	assert.Equal(t, "t1", *dineIn.TableID)
}

func TestSubmitClearPolicy(t *testing.T) {
	failing := SubmitterFunc(func(ctx context.Context, o Order) error { return errors.New("502") })
	ok := SubmitterFunc(func(ctx context.Context, o Order) error { return nil })

	tests := []struct {
		name      string
		submitter Submitter
		policy    ClearPolicy
		wantErr   bool
		wantEmpty bool
	}{
		{"success always", ok, ClearAlways, false, true},
		{"success on success", ok, ClearOnSuccess, false, true},
		{"failure always", failing, ClearAlways, true, true},
		{"failure on success", failing, ClearOnSuccess, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New()
			c.Add(nasiGoreng)

			err := c.Submit(context.Background(), tt.submitter, "u1", nil, tt.policy)
			assert.Equal(t, tt.wantErr, err != nil)
			assert.Equal(t, tt.wantEmpty, c.Empty())
		})
	}
}

func TestSubmitEmptyCart(t *testing.T) {
	called := false
	s := SubmitterFunc(func(ctx context.Context, o Order) error {
		called = true
		return nil
	})

	assert.ErrorIs(t, New().Submit(context.Background(), s, "u1", nil, ClearAlways), ErrEmpty)
	assert.False(t, called)
}

func TestConcurrentAdds(t *testing.T) {
	c := New()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Add(esTeh)
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, c.Quantity("m2"))
	assert.True(t, c.Subtotal().Equal(decimal.NewFromInt(400000)))
}
