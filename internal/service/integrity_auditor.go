package service

import (
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

type verifier interface {
	Verify() error
	Len() int
}

// AuditResult records the outcome of the most recent integrity run.
type AuditResult struct {
	CheckedAt time.Time `json:"checkedAt"`
	Entries   int       `json:"entries"`
	Healthy   bool      `json:"healthy"`
	Error     string    `json:"error,omitempty"`
}

// IntegrityAuditor periodically re-verifies the schedule index.
// A failed check means an internal invariant broke and is reported, never repaired.
type IntegrityAuditor struct {
	index   verifier
	metrics *MetricsService
	logger  *zap.Logger
	cron    *cron.Cron

	mu   sync.RWMutex
	last *AuditResult
	now  func() time.Time
}

// NewIntegrityAuditor constructs an auditor.
func NewIntegrityAuditor(index verifier, metrics *MetricsService, logger *zap.Logger) *IntegrityAuditor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IntegrityAuditor{
		index:   index,
		metrics: metrics,
		logger:  logger,
		cron:    cron.New(cron.WithSeconds()),
		now:     time.Now,
	}
}

// Start schedules Run on the given six-field cron spec.
func (a *IntegrityAuditor) Start(spec string) error {
	if _, err := a.cron.AddFunc(spec, func() { a.Run() }); err != nil {
		return fmt.Errorf("schedule integrity audit %q: %w", spec, err)
	}
	a.cron.Start()
	a.logger.Info("integrity audit scheduled", zap.String("spec", spec))
	return nil
}

// Stop halts the scheduler and waits for a running audit to finish.
func (a *IntegrityAuditor) Stop() {
	<-a.cron.Stop().Done()
}

// Run verifies the index once.
func (a *IntegrityAuditor) Run() AuditResult {
	result := AuditResult{CheckedAt: a.now().UTC(), Entries: a.index.Len(), Healthy: true}
	if err := a.index.Verify(); err != nil {
		result.Healthy = false
		result.Error = err.Error()
		a.metrics.RecordIntegrityViolation()
		a.logger.DPanic("schedule index integrity violation", zap.Int("entries", result.Entries), zap.Error(err))
	} else {
		a.logger.Debug("schedule index verified", zap.Int("entries", result.Entries))
	}

	a.mu.Lock()
	a.last = &result
	a.mu.Unlock()
	return result
}

// Last returns the most recent audit, or nil before the first run.
func (a *IntegrityAuditor) Last() *AuditResult {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.last == nil {
		return nil
	}
	result := *a.last
	return &result
}
