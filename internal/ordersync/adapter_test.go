package ordersync_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quickbite/checkout-service/internal/checkout"
	"github.com/quickbite/checkout-service/internal/ordersync"
)

// fakeRemote hands each incoming call to the test, which decides when and how
// it completes. That makes out-of-order completion deterministic.
type fakeRemote struct {
	addressCalls chan *remoteCall
	paymentCalls chan *remoteCall
	promoCalls   chan *remoteCall
	submitCalls  chan *remoteCall
}

type remoteCall struct {
	id      string
	release chan error
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{
		addressCalls: make(chan *remoteCall, 8),
		paymentCalls: make(chan *remoteCall, 8),
		promoCalls:   make(chan *remoteCall, 8),
		submitCalls:  make(chan *remoteCall, 8),
	}
}

func (f *fakeRemote) wait(ctx context.Context, calls chan *remoteCall, id string) error {
	c := &remoteCall{id: id, release: make(chan error, 1)}
	calls <- c
	select {
	case err := <-c.release:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (f *fakeRemote) UpdateAddress(ctx context.Context, _, addressID string) (checkout.SelectionAck, error) {
	return checkout.SelectionAck{}, f.wait(ctx, f.addressCalls, addressID)
}

func (f *fakeRemote) UpdatePaymentMethod(ctx context.Context, _, methodID string) error {
	return f.wait(ctx, f.paymentCalls, methodID)
}

func (f *fakeRemote) ApplyPromoCode(ctx context.Context, _, code string) (checkout.PromoResult, error) {
	err := f.wait(ctx, f.promoCalls, code)
	return checkout.PromoResult{Valid: err == nil}, err
}

func (f *fakeRemote) Submit(ctx context.Context, orderID string, _ checkout.SubmitRequest) (checkout.Confirmation, error) {
	err := f.wait(ctx, f.submitCalls, orderID)
	return checkout.Confirmation{OrderID: orderID}, err
}

func TestAdapter_DropsSupersededCompletions(t *testing.T) {
	remote := newFakeRemote()
	adapter := ordersync.NewAdapter(remote, ordersync.AdapterConfig{})
	defer adapter.Close()

	completions := make(chan uint64, 2)
	adapter.PushAddress("order-1", "addr-a", 1, func(_ checkout.SelectionAck, _ error, rev uint64) {
		completions <- rev
	})
	callA := <-remote.addressCalls

	adapter.PushAddress("order-1", "addr-b", 2, func(_ checkout.SelectionAck, _ error, rev uint64) {
		completions <- rev
	})
	callB := <-remote.addressCalls

	// A's network round trip finishes after B was dispatched: the adapter
	// must swallow it and only surface B's completion.
	callA.release <- nil
	callB.release <- nil
	adapter.Wait()

	require.Len(t, completions, 1)
	assert.Equal(t, uint64(2), <-completions)
}

func TestAdapter_SubmitSingleFlight(t *testing.T) {
	remote := newFakeRemote()
	adapter := ordersync.NewAdapter(remote, ordersync.AdapterConfig{})
	defer adapter.Close()

	results := make(chan error, 2)
	started := adapter.SubmitOrder("order-1", checkout.SubmitRequest{}, func(_ checkout.Confirmation, err error) {
		results <- err
	})
	require.True(t, started)

	// Duplicate triggers while the first is pending are ignored outright.
	assert.False(t, adapter.SubmitOrder("order-1", checkout.SubmitRequest{}, func(_ checkout.Confirmation, err error) {
		results <- err
	}))

	call := <-remote.submitCalls
	call.release <- nil
	adapter.Wait()

	require.Len(t, results, 1)
	assert.NoError(t, <-results)
	select {
	case extra := <-remote.submitCalls:
		t.Fatalf("unexpected second submit call: %v", extra.id)
	default:
	}

	// Once resolved, a new attempt may start.
	assert.True(t, adapter.SubmitOrder("order-1", checkout.SubmitRequest{}, func(_ checkout.Confirmation, err error) {
		results <- err
	}))
	call = <-remote.submitCalls
	call.release <- errors.New("declined")
	adapter.Wait()
	assert.Error(t, <-results)
}

func TestAdapter_SubmitTimeoutIsRetryableFailure(t *testing.T) {
	remote := newFakeRemote()
	adapter := ordersync.NewAdapter(remote, ordersync.AdapterConfig{SubmitTimeout: 20 * time.Millisecond})
	defer adapter.Close()

	results := make(chan error, 1)
	require.True(t, adapter.SubmitOrder("order-1", checkout.SubmitRequest{}, func(_ checkout.Confirmation, err error) {
		results <- err
	}))

	// Never release the remote call; the deadline must fire instead of
	// leaving the submission pending forever.
	<-remote.submitCalls

	select {
	case err := <-results:
		require.Error(t, err)
		assert.Contains(t, err.Error(), "timed out")
	case <-time.After(2 * time.Second):
		t.Fatal("submission never resolved")
	}

	adapter.Wait()
	// The latch is released, so the user can retry.
	assert.True(t, adapter.SubmitOrder("order-1", checkout.SubmitRequest{}, func(_ checkout.Confirmation, _ error) {}))
}

func TestAdapter_CloseCancelsInFlightCalls(t *testing.T) {
	remote := newFakeRemote()
	adapter := ordersync.NewAdapter(remote, ordersync.AdapterConfig{})

	errs := make(chan error, 1)
	adapter.PushPromoCode("order-1", "SAVE10", 1, func(_ checkout.PromoResult, err error, _ uint64) {
		errs <- err
	})
	<-remote.promoCalls

	adapter.Close()
	adapter.Wait()

	err := <-errs
	assert.ErrorIs(t, err, context.Canceled)
}
