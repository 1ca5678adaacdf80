// Package modelmgmt implements the model management service (C8): a
// caching front-end over a provider adapter that also owns the
// keep-alive / idle-eviction loop for loaded models.
package modelmgmt

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/ollm-cli/ollm/internal/clock"
	"github.com/ollm-cli/ollm/internal/event"
	"github.com/ollm-cli/ollm/internal/provider"
)

// KeepAliveConfig mirrors spec §4.7's keep-alive configuration.
type KeepAliveConfig struct {
	Enabled          bool
	KeepAliveTimeout time.Duration
	KeepAliveModels  []string
}

func (c KeepAliveConfig) isExempt(name string) bool {
	for _, m := range c.KeepAliveModels {
		if m == name {
			return true
		}
	}
	return false
}

// loadedModel tracks one resident model's usage and keep-alive timer.
type loadedModel struct {
	lastUsed time.Time
	stop     chan struct{}
}

// Service is the model management service. It is safe for concurrent use.
type Service struct {
	mu       sync.Mutex
	adapter  provider.Adapter
	clock    clock.Clock
	cfg      KeepAliveConfig
	cacheTTL time.Duration
	jitter   func() float64

	cache      []provider.ModelInfo
	cacheAt    time.Time
	cacheValid bool

	loaded   map[string]*loadedModel
	disposed bool
}

// New builds a Service. cacheTTL is how long listModels trusts a cached
// result before re-querying the provider. jitter, if nil, defaults to
// math/rand — tests inject a deterministic source to pin keep-alive
// timer intervals.
func New(adapter provider.Adapter, c clock.Clock, cfg KeepAliveConfig, cacheTTL time.Duration, jitter func() float64) *Service {
	if jitter == nil {
		jitter = rand.Float64
	}
	return &Service{
		adapter:  adapter,
		clock:    c,
		cfg:      cfg,
		cacheTTL: cacheTTL,
		jitter:   jitter,
		loaded:   make(map[string]*loadedModel),
	}
}

// ListModels returns the cached listing if within TTL, otherwise queries
// the provider and refreshes the cache. Provider errors never mutate the
// cache.
func (s *Service) ListModels(ctx context.Context) ([]provider.ModelInfo, error) {
	s.mu.Lock()
	if s.cacheValid && s.clock.Now().Sub(s.cacheAt) < s.cacheTTL {
		out := append([]provider.ModelInfo(nil), s.cache...)
		s.mu.Unlock()
		return out, nil
	}
	s.mu.Unlock()

	models, err := s.adapter.ListModels(ctx)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.cache = models
	s.cacheAt = s.clock.Now()
	s.cacheValid = true
	s.mu.Unlock()

	return append([]provider.ModelInfo(nil), models...), nil
}

// PullModel downloads name via the provider, forwarding progress, and
// invalidates the listing cache on success. Cancellation surfaces as
// ollmerr.ErrCancelled without touching the cache.
func (s *Service) PullModel(ctx context.Context, name string, onProgress func(provider.ProgressUpdate)) error {
	if err := s.adapter.PullModel(ctx, name, onProgress); err != nil {
		return err
	}

	s.mu.Lock()
	s.cacheValid = false
	s.mu.Unlock()

	event.Publish(event.Event{Type: event.ModelPulled, Data: event.ModelPulledData{Name: name}})
	return nil
}

// DeleteModel unloads name if resident (best-effort) and deletes it via
// the provider, invalidating the cache on success. Unload failure does
// not prevent the delete attempt.
func (s *Service) DeleteModel(ctx context.Context, name string) error {
	_ = s.unloadModel(ctx, name, "delete")

	if err := s.adapter.DeleteModel(ctx, name); err != nil {
		return err
	}

	s.mu.Lock()
	s.cacheValid = false
	s.mu.Unlock()

	event.Publish(event.Event{Type: event.ModelDeleted, Data: event.ModelDeletedData{Name: name}})
	return nil
}

// ShowModel returns provider-reported detail for name.
func (s *Service) ShowModel(ctx context.Context, name string) (provider.ModelInfo, error) {
	info, err := s.adapter.ShowModel(ctx, name)
	if err != nil {
		return provider.ModelInfo{}, fmt.Errorf("show %s: %w", name, err)
	}
	return info, nil
}

// KeepModelLoaded marks name loaded with lastUsed = now and (re)arms its
// keep-alive timer. A no-op when keep-alive is disabled.
func (s *Service) KeepModelLoaded(name string) {
	if !s.cfg.Enabled {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.loaded[name]; ok {
		close(existing.stop)
	}

	lm := &loadedModel{lastUsed: s.clock.Now(), stop: make(chan struct{})}
	s.loaded[name] = lm
	s.startTimerLocked(name, lm)

	event.Publish(event.Event{Type: event.ModelLoaded, Data: event.ModelLoadedData{Name: name}})
}

// startTimerLocked arms name's keep-alive timer. Must be called with
// s.mu held; the spawned goroutine only re-takes the lock on fire.
func (s *Service) startTimerLocked(name string, lm *loadedModel) {
	interval := jitteredInterval(s.cfg.KeepAliveTimeout/2, s.jitter())
	go s.runTimer(name, lm, interval)
}

// runTimer fires a provider keep-alive ping every interval until stop is
// closed or the service is disposed. It never refreshes lastUsed.
func (s *Service) runTimer(name string, lm *loadedModel, interval time.Duration) {
	t := time.NewTimer(interval)
	defer t.Stop()
	for {
		select {
		case <-lm.stop:
			return
		case <-t.C:
			s.mu.Lock()
			disposed := s.disposed
			stillLoaded := s.loaded[name] == lm
			s.mu.Unlock()
			if disposed || !stillLoaded {
				return
			}
			_ = s.adapter.KeepAlive(context.Background(), name)
			t.Reset(interval)
		}
	}
}

func jitteredInterval(base time.Duration, jitter float64) time.Duration {
	if base <= 0 {
		return 0
	}
	// jitter in [0,1) maps to a +/-10% offset around base.
	offset := (jitter*2 - 1) * 0.10
	return time.Duration(float64(base) * (1 + offset))
}

// UnloadModel stops name's timer, removes it from the loaded set, and
// notifies the provider. A no-op if name is not loaded. The published
// event reports reason "manual", since this is the service's
// caller-invoked unload entry point.
func (s *Service) UnloadModel(ctx context.Context, name string) error {
	return s.unloadModel(ctx, name, "manual")
}

// unloadModel is the shared unload path for UnloadModel ("manual"),
// DeleteModel ("delete"), and GetLoadedModels' idle eviction ("idle").
func (s *Service) unloadModel(ctx context.Context, name, reason string) error {
	s.mu.Lock()
	lm, ok := s.loaded[name]
	if ok {
		close(lm.stop)
		delete(s.loaded, name)
	}
	s.mu.Unlock()

	if !ok {
		return nil
	}

	if err := s.adapter.Unload(ctx, name); err != nil {
		return err
	}

	event.Publish(event.Event{Type: event.ModelUnloaded, Data: event.ModelUnloadedData{Name: name, Reason: reason}})
	return nil
}

// GetLoadedModels runs idle eviction — unloading any loaded model not in
// cfg.KeepAliveModels whose idle time has reached KeepAliveTimeout — then
// returns the names remaining loaded.
func (s *Service) GetLoadedModels(ctx context.Context) []string {
	now := s.clock.Now()

	s.mu.Lock()
	var evict []string
	for name, lm := range s.loaded {
		if s.cfg.isExempt(name) {
			continue
		}
		if now.Sub(lm.lastUsed) >= s.cfg.KeepAliveTimeout {
			evict = append(evict, name)
		}
	}
	s.mu.Unlock()

	for _, name := range evict {
		_ = s.unloadModel(ctx, name, "idle")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.loaded))
	for name := range s.loaded {
		names = append(names, name)
	}
	return names
}

// Status is the result of GetModelStatus.
type Status struct {
	Loaded   bool
	LastUsed time.Time
}

// GetModelStatus reports whether name is currently loaded.
func (s *Service) GetModelStatus(name string) Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	lm, ok := s.loaded[name]
	if !ok {
		return Status{}
	}
	return Status{Loaded: true, LastUsed: lm.lastUsed}
}

// Dispose clears every keep-alive timer. Idempotent and safe to call
// concurrently with any other method.
func (s *Service) Dispose() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.disposed {
		return
	}
	s.disposed = true
	for _, lm := range s.loaded {
		close(lm.stop)
	}
	s.loaded = make(map[string]*loadedModel)
}
