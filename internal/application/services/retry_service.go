package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"

	"github.com/anthonyjo217/catalyst-transactions-service/internal/domain/ports"
	"github.com/anthonyjo217/catalyst-transactions-service/pkg/constants"
)

// retryRunTimeout bounds one pass over the retry queue.
const retryRunTimeout = 5 * time.Minute

// RetryService periodically asks the ERP to push records whose sync
// failed, so the next push reconciles them.
type RetryService struct {
	queue     ports.RetryQueue
	erpClient ports.ERPClient
	schedule  cron.Schedule
	now       func() time.Time

	stopChan chan struct{}
	wg       sync.WaitGroup
	mu       sync.Mutex
	running  bool
	stopped  bool
}

// NewRetryService creates a retry service running on a five-field cron schedule.
func NewRetryService(queue ports.RetryQueue, erpClient ports.ERPClient, cronExpr string) (*RetryService, error) {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	schedule, err := parser.Parse(cronExpr)
	if err != nil {
		return nil, fmt.Errorf("invalid cron expression: %w", err)
	}
	return &RetryService{
		queue:     queue,
		erpClient: erpClient,
		schedule:  schedule,
		now:       time.Now,
		stopChan:  make(chan struct{}),
	}, nil
}

// Start runs the retry loop until Stop is called. It blocks.
func (s *RetryService) Start() {
	s.mu.Lock()
	if s.running || s.stopped {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.mu.Unlock()

	log.Info("🔁 Retry service starting...")

	for {
		now := s.now()
		timer := time.NewTimer(s.schedule.Next(now).Sub(now))
		select {
		case <-timer.C:
			s.wg.Add(1)
			func() {
				defer s.wg.Done()
				ctx, cancel := context.WithTimeout(context.Background(), retryRunTimeout)
				defer cancel()
				if _, err := s.RunOnce(ctx); err != nil {
					log.WithError(err).Warn("Retry pass failed")
				}
			}()
		case <-s.stopChan:
			timer.Stop()
			s.wg.Wait()
			log.Info("🔁 Retry service stopped")
			return
		}
	}
}

// Stop ends the retry loop after the current pass.
func (s *RetryService) Stop() {
	s.mu.Lock()
	if !s.running || s.stopped {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.stopped = true
	s.mu.Unlock()

	close(s.stopChan)
}

// RunOnce asks the ERP to re-send every pending customer lead and drops
// the entries the ERP accepted. It returns how many were accepted.
// The ERP has no resend call for employees; their entries stay queued
// until the next successful employee sync clears them.
func (s *RetryService) RunOnce(ctx context.Context) (int, error) {
	entries, err := s.queue.Pending(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to read retry queue: %w", err)
	}
	if len(entries) == 0 {
		return 0, nil
	}

	refreshed, waiting := 0, 0
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return refreshed, err
		}
		logger := log.WithFields(log.Fields{"collection": entry.Collection, "id": entry.Key})
		if entry.Collection != constants.CollectionCustomerLeads {
			logger.Debug("No ERP resend for collection, waiting for the next push")
			waiting++
			continue
		}
		if err := s.erpClient.RefreshCustomer(ctx, entry.Key); err != nil {
			logger.WithError(err).Warn("ERP refresh failed, keeping entry queued")
			continue
		}
		if err := s.queue.Remove(ctx, entry); err != nil {
			logger.WithError(err).Warn("Failed to remove entry from retry queue")
			continue
		}
		refreshed++
	}

	log.WithFields(log.Fields{
		"pending":   len(entries),
		"refreshed": refreshed,
		"waiting":   waiting,
	}).Info("Retry pass finished")
	return refreshed, nil
}
