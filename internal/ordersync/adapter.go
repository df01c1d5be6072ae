package ordersync

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/quickbite/checkout-service/internal/checkout"
)

// Remote is the synchronous surface the adapter drives. *Client implements
// it; tests substitute fakes.
type Remote interface {
	UpdateAddress(ctx context.Context, orderID, addressID string) (checkout.SelectionAck, error)
	UpdatePaymentMethod(ctx context.Context, orderID, methodID string) error
	ApplyPromoCode(ctx context.Context, orderID, code string) (checkout.PromoResult, error)
	Submit(ctx context.Context, orderID string, req checkout.SubmitRequest) (checkout.Confirmation, error)
}

type AdapterConfig struct {
	RequestTimeout time.Duration // per selection update / promo validation
	SubmitTimeout  time.Duration // bound on the submission attempt
}

// Adapter implements checkout.Sync over a Remote. It keeps no order state:
// only in-flight bookkeeping — the newest dispatched revision per field, used
// to drop completions that a later dispatch has superseded, and the
// single-flight latch on submission.
type Adapter struct {
	remote Remote
	cfg    AdapterConfig

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	addressRev atomic.Uint64
	paymentRev atomic.Uint64
	promoRev   atomic.Uint64
	submitting atomic.Bool
}

func NewAdapter(remote Remote, cfg AdapterConfig) *Adapter {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 10 * time.Second
	}
	if cfg.SubmitTimeout <= 0 {
		cfg.SubmitTimeout = 30 * time.Second
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Adapter{remote: remote, cfg: cfg, ctx: ctx, cancel: cancel}
}

func (a *Adapter) PushAddress(orderID, addressID string, rev uint64, done func(ack checkout.SelectionAck, err error, rev uint64)) {
	a.addressRev.Store(rev)
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		ctx, cancel := context.WithTimeout(a.ctx, a.cfg.RequestTimeout)
		defer cancel()
		ack, err := a.remote.UpdateAddress(ctx, orderID, addressID)
		if a.dropStale("address", rev, a.addressRev.Load()) {
			return
		}
		done(ack, err, rev)
	}()
}

func (a *Adapter) PushPaymentMethod(orderID, methodID string, rev uint64, done func(err error, rev uint64)) {
	a.paymentRev.Store(rev)
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		ctx, cancel := context.WithTimeout(a.ctx, a.cfg.RequestTimeout)
		defer cancel()
		err := a.remote.UpdatePaymentMethod(ctx, orderID, methodID)
		if a.dropStale("payment_method", rev, a.paymentRev.Load()) {
			return
		}
		done(err, rev)
	}()
}

func (a *Adapter) PushPromoCode(orderID, code string, rev uint64, done func(res checkout.PromoResult, err error, rev uint64)) {
	a.promoRev.Store(rev)
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		ctx, cancel := context.WithTimeout(a.ctx, a.cfg.RequestTimeout)
		defer cancel()
		res, err := a.remote.ApplyPromoCode(ctx, orderID, code)
		if a.dropStale("promo_code", rev, a.promoRev.Load()) {
			return
		}
		done(res, err, rev)
	}()
}

// SubmitOrder starts the one allowed submission attempt. While it is in
// flight, further calls return false and dispatch nothing: duplicates are
// ignored, not queued, so the service can never see two order creations from
// one session. The attempt is bounded by SubmitTimeout; expiry surfaces as a
// retryable failure instead of an indefinite pending state.
func (a *Adapter) SubmitOrder(orderID string, req checkout.SubmitRequest, done func(conf checkout.Confirmation, err error)) bool {
	if !a.submitting.CompareAndSwap(false, true) {
		log.Warn().Str("order_id", orderID).Msg("Ignoring duplicate submit while one is in flight")
		return false
	}
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		defer a.submitting.Store(false)
		ctx, cancel := context.WithTimeout(a.ctx, a.cfg.SubmitTimeout)
		defer cancel()
		conf, err := a.remote.Submit(ctx, orderID, req)
		if err != nil && ctx.Err() == context.DeadlineExceeded {
			err = fmt.Errorf("ordersync: submission timed out after %s: %w", a.cfg.SubmitTimeout, err)
		}
		done(conf, err)
	}()
	return true
}

// Close cancels every in-flight call. Completions after Close resolve with a
// cancellation error and are discarded by the session's state checks.
func (a *Adapter) Close() {
	a.cancel()
}

// Wait blocks until all dispatched goroutines have finished. Test hook.
func (a *Adapter) Wait() {
	a.wg.Wait()
}

func (a *Adapter) dropStale(field string, rev, newest uint64) bool {
	if rev == newest {
		return false
	}
	log.Debug().Str("field", field).Uint64("rev", rev).Uint64("newest", newest).Msg("Dropping superseded sync result")
	return true
}
