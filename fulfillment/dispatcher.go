package fulfillment

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/cardaverse-ai/cardaverse-customcard/core"
	"github.com/oklog/ulid/v2"
	"github.com/sirupsen/logrus"
)

var ErrDispatcherClosed = errors.New("dispatcher is shut down")

type (
	// OrderProcessor is the work a Dispatcher runs for each accepted order.
	OrderProcessor interface {
		Eligible(order core.Order) []core.LineItem
		ProcessOrder(ctx context.Context, order core.Order) Report
	}

	DispatchOptions struct {
		// Sync processes the order before Dispatch returns. Needed where the runtime freezes
		// after the response, as on Lambda.
		Sync bool
		// TaskTimeout bounds one order's processing. Zero means no bound.
		TaskTimeout time.Duration
	}

	// Ack is returned to the webhook caller as soon as the order is accepted.
	Ack struct {
		TaskID   string
		Accepted int
	}

	// Dispatcher decouples webhook acknowledgement from order processing.
	Dispatcher struct {
		proc    OrderProcessor
		sync    bool
		timeout time.Duration

		base   context.Context
		cancel context.CancelFunc

		mu     sync.Mutex
		closed bool
		wg     sync.WaitGroup
	}
)

func NewDispatcher(proc OrderProcessor, opts DispatchOptions) *Dispatcher {
	base, cancel := context.WithCancel(context.Background())
	return &Dispatcher{
		proc:    proc,
		sync:    opts.Sync,
		timeout: opts.TaskTimeout,
		base:    base,
		cancel:  cancel,
	}
}

// Dispatch accepts order. Orders without eligible line items are acknowledged with
// Accepted == 0 and start no task. The processing outcome never changes the Ack.
func (d *Dispatcher) Dispatch(ctx context.Context, order core.Order) (Ack, error) {
	ack := Ack{Accepted: len(d.proc.Eligible(order))}
	if ack.Accepted == 0 {
		return ack, nil
	}
	ack.TaskID = ulid.Make().String()

	if d.sync {
		d.run(ctx, ack.TaskID, order)
		return ack, nil
	}

	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return Ack{}, ErrDispatcherClosed
	}
	d.wg.Add(1)
	d.mu.Unlock()

	go func() {
		defer d.wg.Done()
		d.run(d.base, ack.TaskID, order)
	}()
	return ack, nil
}

func (d *Dispatcher) run(ctx context.Context, taskID string, order core.Order) {
	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}
	log := logrus.WithFields(logrus.Fields{"task_id": taskID, "order_number": order.OrderNumber.String()})

	defer func() {
		if r := recover(); r != nil {
			log.WithField("panic", r).Error("Order task panicked")
		}
	}()

	start := time.Now()
	report := d.proc.ProcessOrder(ctx, order)
	failed := 0
	for _, item := range report.Items {
		if item.Err != nil {
			failed++
		}
	}
	log.WithFields(logrus.Fields{
		"items":    len(report.Items),
		"failed":   failed,
		"notified": report.Notified,
		"duration": time.Since(start),
	}).Info("Order task finished")
}

// Shutdown stops accepting orders and waits for running tasks. When ctx ends first the
// remaining tasks are cancelled and ctx's error is returned.
func (d *Dispatcher) Shutdown(ctx context.Context) error {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		d.cancel()
		return nil
	case <-ctx.Done():
		d.cancel()
		<-done
		return ctx.Err()
	}
}
