package oracle

import (
	"context"
	"net/http"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// PriceFetcher описывает источник цен, опрашиваемый по расписанию.
type PriceFetcher interface {
	GetPrice(ctx context.Context, token string) (*Quote, int, time.Duration, error)
}

// Refresher периодически обновляет кэш цен для токенов, которые возвращает tokens.
type Refresher struct {
	cron    *cron.Cron
	fetcher PriceFetcher
	cache   *Cache
	tokens  func() []string
	logger  *zap.Logger
	timeout time.Duration
}

// NewRefresher создаёт планировщик обновления цен.
func NewRefresher(fetcher PriceFetcher, cache *Cache, tokens func() []string, logger *zap.Logger) *Refresher {
	cronLogger := cron.PrintfLogger(zap.NewStdLog(logger))
	return &Refresher{
		cron:    cron.New(cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger))),
		fetcher: fetcher,
		cache:   cache,
		tokens:  tokens,
		logger:  logger,
		timeout: 10 * time.Second,
	}
}

// Start регистрирует задачу обновления с расписанием spec и запускает планировщик.
// Первое обновление выполняется сразу, не дожидаясь расписания.
func (r *Refresher) Start(ctx context.Context, spec string) error {
	job := func() {
		jobCtx, cancel := context.WithTimeout(ctx, r.timeout)
		defer cancel()
		r.Refresh(jobCtx)
	}

	if _, err := r.cron.AddFunc(spec, job); err != nil {
		return err
	}
	r.logger.Info("scheduled price refresh", zap.String("schedule", spec))

	go job()
	r.cron.Start()
	return nil
}

// Stop останавливает планировщик. Возвращённый контекст завершается после окончания текущей задачи.
func (r *Refresher) Stop() context.Context {
	return r.cron.Stop()
}

// Refresh опрашивает оракул по всем отслеживаемым токенам.
// При ответе 429 обход прекращается до следующего запуска.
func (r *Refresher) Refresh(ctx context.Context) {
	for _, token := range r.tokens() {
		if ctx.Err() != nil {
			return
		}

		quote, statusCode, retryAfter, err := r.fetcher.GetPrice(ctx, token)
		if err != nil {
			r.logger.Warn("price refresh failed", zap.String("token", token), zap.Error(err))
			continue
		}

		if statusCode == http.StatusTooManyRequests {
			r.logger.Warn("price oracle rate limited", zap.Duration("retryAfter", retryAfter))
			return
		}

		if quote == nil || quote.Price == 0 {
			continue
		}

		r.cache.Set(token, quote.Price)
		r.logger.Debug("price refreshed", zap.String("token", token), zap.Uint64("price", quote.Price))
	}
}
