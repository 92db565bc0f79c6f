package repository

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"schedula/internal/domain"
	"schedula/internal/models"

	"github.com/rs/zerolog"
)

const recoveryInterval = time.Minute

// FailoverSelectionStore uses primary until it errors, then serves from
// fallback and retries primary once per recoveryInterval.
type FailoverSelectionStore struct {
	primary  domain.SelectionStore
	fallback domain.SelectionStore
	logger   *zerolog.Logger

	isDown    atomic.Bool
	mu        sync.Mutex
	lastCheck time.Time
}

func NewFailoverSelectionStore(primary, fallback domain.SelectionStore, logger *zerolog.Logger) *FailoverSelectionStore {
	return &FailoverSelectionStore{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
	}
}

// usePrimary reports whether the next call should try primary.
func (r *FailoverSelectionStore) usePrimary() bool {
	if !r.isDown.Load() {
		return true
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if time.Since(r.lastCheck) > recoveryInterval {
		r.lastCheck = time.Now()
		return true
	}
	return false
}

func (r *FailoverSelectionStore) observe(err error) {
	if err == nil {
		if r.isDown.Swap(false) {
			r.logger.Info().Msg("primary selection store recovered")
		}
		return
	}
	r.logger.Error().Err(err).Msg("primary selection store failed, falling back to memory")
	r.mu.Lock()
	r.lastCheck = time.Now()
	r.mu.Unlock()
	r.isDown.Store(true)
}

func (r *FailoverSelectionStore) GetSelection(ctx context.Context, clientKey string) (*models.Selection, error) {
	if r.usePrimary() {
		sel, err := r.primary.GetSelection(ctx, clientKey)
		r.observe(err)
		if err == nil {
			return sel, nil
		}
	}
	return r.fallback.GetSelection(ctx, clientKey)
}

func (r *FailoverSelectionStore) SetSelection(ctx context.Context, sel *models.Selection) error {
	if r.usePrimary() {
		err := r.primary.SetSelection(ctx, sel)
		r.observe(err)
		if err == nil {
			return nil
		}
	}
	return r.fallback.SetSelection(ctx, sel)
}

func (r *FailoverSelectionStore) ClearSelection(ctx context.Context, clientKey string) error {
	// fallback may hold state written while primary was down
	_ = r.fallback.ClearSelection(ctx, clientKey)

	if r.usePrimary() {
		err := r.primary.ClearSelection(ctx, clientKey)
		r.observe(err)
		if err == nil {
			return nil
		}
	}
	return nil
}

func (r *FailoverSelectionStore) CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	if r.usePrimary() {
		allowed, err := r.primary.CheckRateLimit(ctx, key, limit, window)
		r.observe(err)
		if err == nil {
			return allowed, nil
		}
	}
	return r.fallback.CheckRateLimit(ctx, key, limit, window)
}
