// Package payment simulates the payment gateway. There is no real
// processor: a payment waits for a fixed delay and then succeeds unless
// its context is cancelled first.
package payment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"bus-booking-cli/booking"
	"bus-booking-cli/model"
)

const DefaultDelay = 2 * time.Second

var ErrUnknownMethod = errors.New("unknown payment method")

// Methods lists the supported payment methods in display order.
func Methods() []model.PaymentMethod {
	return []model.PaymentMethod{model.PaymentCard, model.PaymentUPI, model.PaymentNetBanking}
}

func MethodLabel(method model.PaymentMethod) string {
	switch method {
	case model.PaymentCard:
		return "Credit/Debit Card"
	case model.PaymentUPI:
		return "UPI Payment"
	case model.PaymentNetBanking:
		return "Net Banking"
	default:
		return string(method)
	}
}

type Processor struct {
	delay  time.Duration
	now    func() time.Time
	logger *slog.Logger
}

// NewProcessor returns a processor that settles every payment after delay.
// A nil logger discards log output.
func NewProcessor(delay time.Duration, logger *slog.Logger) *Processor {
	if delay < 0 {
		delay = 0
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Processor{
		delay:  delay,
		now:    time.Now,
		logger: logger,
	}
}

func (p *Processor) Delay() time.Duration {
	return p.delay
}

// Process charges the draft and returns the confirmed booking.
func (p *Processor) Process(ctx context.Context, draft booking.Draft, method model.PaymentMethod) (model.Booking, error) {
	if !knownMethod(method) {
		return model.Booking{}, fmt.Errorf("%w: %q", ErrUnknownMethod, method)
	}
	if len(draft.Seats) == 0 {
		return model.Booking{}, booking.ErrNoSeats
	}

	amount := draft.Fare().Total
	p.logger.Debug("payment started", "method", string(method), "amount", amount, "seats", len(draft.Seats))

	if err := p.wait(ctx); err != nil {
		p.logger.Warn("payment cancelled", "method", string(method), "amount", amount)
		return model.Booking{}, err
	}

	b := draft.Confirm(method, p.now())
	p.logger.Info("payment settled", "booking", b.Id, "method", string(method), "amount", b.Fare.Total)
	return b, nil
}

func (p *Processor) wait(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if p.delay == 0 {
		return nil
	}
	timer := time.NewTimer(p.delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func knownMethod(method model.PaymentMethod) bool {
	for _, m := range Methods() {
		if m == method {
			return true
		}
	}
	return false
}
