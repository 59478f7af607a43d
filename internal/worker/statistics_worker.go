package worker

import (
	"context"
	"fmt"
	"taskManager/internal/dto"
	"taskManager/internal/logger"
	"time"

	"go.uber.org/zap"
)

type StatisticsSource interface {
	GetStatistics(ctx context.Context) (*dto.StatisticsResponse, error)
}

type StatisticsObserver interface {
	ObserveStatistics(stats dto.StatisticsResponse)
}

// StatisticsWorker periodically snapshots task statistics and hands them to an observer.
type StatisticsWorker struct {
	source   StatisticsSource
	observer StatisticsObserver
	interval time.Duration
}

func NewStatisticsWorker(source StatisticsSource, observer StatisticsObserver, interval *time.Duration) *StatisticsWorker {
	var intervalToSet time.Duration
	if interval == nil || *interval <= 0 {
		intervalToSet = time.Minute
	} else {
		intervalToSet = *interval
	}

	return &StatisticsWorker{
		source:   source,
		observer: observer,
		interval: intervalToSet,
	}
}

// Start collects once immediately, then on every tick until ctx is done.
func (w *StatisticsWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	logger.Info("Worker: statistics snapshots started", zap.Duration("interval", w.interval))
	if err := w.Collect(ctx); err != nil {
		logger.Warn("Worker: statistics snapshot failed", zap.Error(err))
	}

	for {
		select {
		case <-ticker.C:
			if err := w.Collect(ctx); err != nil {
				logger.Warn("Worker: statistics snapshot failed", zap.Error(err))
			}
		case <-ctx.Done():
			logger.Info("Worker: statistics snapshots stopping")
			return
		}
	}
}

func (w *StatisticsWorker) Collect(ctx context.Context) error {
	start := time.Now()

	stats, err := w.source.GetStatistics(ctx)
	if err != nil {
		return fmt.Errorf("computing statistics: %w", err)
	}

	w.observer.ObserveStatistics(*stats)

	logger.Info(
		"Worker: statistics snapshot",
		zap.Duration("ms", time.Since(start)),
		zap.Int("total", stats.Total),
		zap.Int("completed", stats.Completed),
		zap.Int("pending", stats.Pending),
		zap.Int("urgent_active", stats.UrgentActive),
	)
	return nil
}
