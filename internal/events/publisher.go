// Package events доставляет доменные события внешним потребителям.
package events

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/mmeshcher/launchpad/internal/model"
)

// Publisher описывает получателя доменных событий.
type Publisher interface {
	Publish(ctx context.Context, ev model.Event) error
	Close() error
}

// LogPublisher пишет события в структурированный лог.
type LogPublisher struct {
	logger *zap.Logger
}

// NewLogPublisher создаёт публикатор событий в лог.
func NewLogPublisher(logger *zap.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

// Publish записывает событие в лог.
func (p *LogPublisher) Publish(_ context.Context, ev model.Event) error {
	p.logger.Info("domain event",
		zap.String("eventID", ev.ID),
		zap.String("type", string(ev.Type)),
		zap.Uint64("fundingID", ev.FundingID),
		zap.Uint64("proposalID", ev.ProposalID),
		zap.String("actor", ev.Actor),
		zap.String("recipient", ev.Recipient),
		zap.Uint64("amount", ev.Amount),
		zap.Uint64("quantity", ev.Quantity),
		zap.Any("attributes", ev.Attributes),
		zap.Time("occurredAt", ev.OccurredAt),
	)
	return nil
}

// Close ничего не делает.
func (p *LogPublisher) Close() error { return nil }

// Multi рассылает событие всем публикаторам и объединяет их ошибки.
type Multi []Publisher

// Publish передаёт событие каждому публикатору, даже если предыдущий вернул ошибку.
func (m Multi) Publish(ctx context.Context, ev model.Event) error {
	var errs []error
	for _, p := range m {
		if err := p.Publish(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close закрывает все публикаторы.
func (m Multi) Close() error {
	var errs []error
	for _, p := range m {
		if err := p.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
