package processor

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"inmuebles/server/config"
	"inmuebles/server/internal/database"
	"inmuebles/server/internal/metrics"
	"inmuebles/server/internal/models"
	"inmuebles/server/internal/queue"
)

// Transactor runs a function inside a database transaction; *gorm.DB satisfies it
type Transactor interface {
	Transaction(fc func(*gorm.DB) error, opts ...*sql.TxOptions) error
}

// BatchProcessor persists imported property batches taken from the queue
type BatchProcessor struct {
	db      Transactor
	logger  *logrus.Logger
	config  *config.Config
	queue   *queue.PropertyQueue
	metrics *metrics.Metrics
	ctx     context.Context
	cancel  context.CancelFunc
}

// NewBatchProcessor creates a new batch processor instance
func NewBatchProcessor(db Transactor, queue *queue.PropertyQueue, config *config.Config, logger *logrus.Logger) *BatchProcessor {
	ctx, cancel := context.WithCancel(context.Background())
	return &BatchProcessor{
		db:     db,
		queue:  queue,
		config: config,
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
	}
}

// SetMetrics enables import counters
func (p *BatchProcessor) SetMetrics(m *metrics.Metrics) {
	p.metrics = m
}

// Start subscribes to the queue and starts its consumers
func (p *BatchProcessor) Start() {
	p.queue.Subscribe(p.processBatch)
	p.queue.Start(p.config.BatchProcessing.ProcessorCount)
}

// Stop aborts pending retries and waits for the consumers to exit
func (p *BatchProcessor) Stop() {
	p.cancel()
	p.queue.Close()
}

// processBatch handles a single batch of properties with transaction and retry logic
func (p *BatchProcessor) processBatch(batch []*models.Property) error {
	var err error
	for attempt := 0; attempt <= p.config.BatchProcessing.MaxRetries; attempt++ {
		if attempt > 0 {
			p.logger.Infof("Retrying batch processing, attempt %d of %d", attempt, p.config.BatchProcessing.MaxRetries)
			select {
			case <-p.ctx.Done():
				return fmt.Errorf("batch processing stopped: %w", p.ctx.Err())
			case <-time.After(time.Duration(p.config.BatchProcessing.RetryDelay) * time.Second):
			}
		}

		err = p.db.Transaction(func(tx *gorm.DB) error {
			if err := database.InsertProperties(tx, batch); err != nil {
				return fmt.Errorf("failed to insert properties batch: %w", err)
			}
			return nil
		})

		if err == nil {
			p.logger.Infof("Successfully processed batch of %d properties", len(batch))
			if p.metrics != nil {
				p.metrics.ImportedPropertiesTotal.Add(float64(len(batch)))
			}
			return nil
		}

		p.logger.Errorf("Batch processing failed: %v", err)
	}

	if p.metrics != nil {
		p.metrics.ImportBatchFailures.Inc()
	}
	return fmt.Errorf("failed to process batch after %d attempts: %w", p.config.BatchProcessing.MaxRetries+1, err)
}
